package dataapi

// ExecCountDocuments implements CountDocuments: a single full scan with
// the filter predicates applied in memory.
func ExecCountDocuments(env *ExecEnv, params *Value) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	preds, apiErr := ParseFilter(fieldOrNull(params, "filter"))
	if apiErr != nil {
		return nil, apiErr
	}
	count, err := CountFiltered(env.Ctx, env.Store, env.Cmd.Namespace, collection, preds)
	if err != nil {
		return nil, err
	}
	status := NewObject()
	status.Set("count", NumberFromInt64(int64(count)))
	return &CommandResult{Status: ObjectValue(status)}, nil
}
