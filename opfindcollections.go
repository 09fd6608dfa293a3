package dataapi

// ExecFindCollections implements FindCollections: lists every collection
// that RowStore.ListCollections reports for the namespace; no column-shape
// matching is applied.
func ExecFindCollections(env *ExecEnv, params *Value) (*CommandResult, error) {
	names, err := env.Store.ListCollections(env.Ctx, env.Cmd.Namespace)
	if err != nil {
		return nil, err
	}
	items := make([]*Value, len(names))
	for i, n := range names {
		items[i] = Str(n)
	}
	data := NewObject()
	data.Set("collections", ArrayValue(items))
	return &CommandResult{Data: ObjectValue(data), Status: statusOK()}, nil
}
