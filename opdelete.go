package dataapi

// ExecDeleteOne implements DeleteOne/FindOneAndDelete: read-then-CAS-delete
// on tx_id, retrying on mismatch up to the configured bound.
func ExecDeleteOne(env *ExecEnv, params *Value, returnDocument bool) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	preds, apiErr := ParseFilter(fieldOrNull(params, "filter"))
	if apiErr != nil {
		return nil, apiErr
	}

	var deletedDoc *Value
	deletedCount := int64(0)
	for attempt := 0; attempt <= env.Config.Operations.MaxRetries; attempt++ {
		rows, _, err := ScanFiltered(env.Ctx, env.Store, env.Cmd.Namespace, collection, preds, nil, 1)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		row := rows[0]
		err = env.Store.CompareAndDelete(env.Ctx, env.Cmd.Namespace, collection, row.ID, row.Tx)
		if err == nil {
			deletedCount = 1
			if returnDocument {
				deletedDoc, _ = ParseJSON(row.Doc.DocJSON)
			}
			break
		}
		if err != ErrCASMismatch {
			return nil, err
		}
	}
	data := NewObject()
	if returnDocument {
		if deletedDoc != nil {
			data.Set("document", deletedDoc)
		} else {
			data.Set("document", Null())
		}
	}
	status := NewObject()
	status.Set("ok", NumberFromInt64(1))
	status.Set("deletedCount", NumberFromInt64(deletedCount))
	return &CommandResult{Data: ObjectValue(data), Status: ObjectValue(status)}, nil
}

// ExecDeleteMany deletes every currently matching document, one CAS delete
// per document; a document a concurrent writer changes mid-scan loses its
// CAS and is skipped, but the scan cursor still advances past it so every
// other matching document is still attempted.
func ExecDeleteMany(env *ExecEnv, params *Value) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	preds, apiErr := ParseFilter(fieldOrNull(params, "filter"))
	if apiErr != nil {
		return nil, apiErr
	}

	var deleted int64
	var after *DocID
	for {
		rows, next, err := ScanFiltered(env.Ctx, env.Store, env.Cmd.Namespace, collection, preds, after, 1)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		row := rows[0]
		if env.Store.CompareAndDelete(env.Ctx, env.Cmd.Namespace, collection, row.ID, row.Tx) == nil {
			deleted++
		}
		if next == nil {
			break
		}
		after = next
	}

	status := NewObject()
	status.Set("ok", NumberFromInt64(1))
	status.Set("deletedCount", NumberFromInt64(deleted))
	return &CommandResult{Status: ObjectValue(status)}, nil
}
