package dataapi

import "context"

// ExecEnv bundles everything an operation needs to run: the row store, the
// per-database index budget, the schema cache, static config, and the
// command's (namespace, collection) context.
type ExecEnv struct {
	Ctx         context.Context
	Store       RowStore
	Budget      *IndexBudget
	SchemaCache *SchemaCache
	Config      Config
	Cmd         CommandContext
}

func (e *ExecEnv) collectionOrErr() (string, *APIError) {
	if e.Cmd.Collection == "" {
		return "", newAPIError(ErrCollectionNotExist, "no collection specified")
	}
	return e.Cmd.Collection, nil
}
