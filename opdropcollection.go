package dataapi

// ExecDeleteCollection implements DropCollection. Dropping a collection
// that does not exist still returns success (§8 scenario 5; §9 Open
// Question a resolves this as intended).
func ExecDeleteCollection(env *ExecEnv, params *Value) (*CommandResult, error) {
	name, verr := requireString(params, "name")
	if verr != nil {
		return nil, verr
	}
	settings, exists, err := env.Store.GetCollectionSettings(env.Ctx, env.Cmd.Namespace, name)
	if err != nil {
		return nil, err
	}
	if err := env.Store.DropCollection(env.Ctx, env.Cmd.Namespace, name); err != nil {
		return nil, err
	}
	if exists {
		env.Budget.Release(settings.IndexOrdinals)
	}
	env.SchemaCache.Invalidate("", env.Cmd.Namespace, name)
	return &CommandResult{Status: statusOK()}, nil
}
