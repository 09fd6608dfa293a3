package dataapi

// ExecUpdateOne implements UpdateOne/FindOneAndUpdate: read one matching
// document, apply the update algebra, and CAS-write it back, retrying on
// tx_id mismatch up to the configured bound (§4.6). returnDocument
// controls whether the post-update document is echoed, matching
// findOneAndUpdate's response shape; updateOne omits "document" entirely.
func ExecUpdateOne(env *ExecEnv, params *Value, returnDocument bool) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	preds, apiErr := ParseFilter(fieldOrNull(params, "filter"))
	if apiErr != nil {
		return nil, apiErr
	}
	updateClause := fieldOrNull(params, "update")
	actions, apiErr := ParseUpdate(updateClause)
	if apiErr != nil {
		return nil, apiErr
	}
	upsert := boolOption(params, "upsert")

	result, modified, upserted, doc, err := updateOneWithRetry(env, collection, preds, actions, upsert)
	if err != nil {
		return nil, err
	}

	data := NewObject()
	if returnDocument && doc != nil {
		data.Set("document", doc)
	}
	status := NewObject()
	status.Set("ok", NumberFromInt64(1))
	modifiedCount := int64(0)
	if modified {
		modifiedCount = 1
	}
	status.Set("modifiedCount", NumberFromInt64(modifiedCount))
	status.Set("matchedCount", NumberFromInt64(boolToInt64(result)))
	if upserted != nil {
		status.Set("upsertedId", upserted)
	}
	return &CommandResult{Data: ObjectValue(data), Status: ObjectValue(status)}, nil
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func boolOption(params *Value, field string) bool {
	v := fieldOrNull(params, field)
	return v != nil && v.Kind() == KindBool && v.BoolVal()
}

// updateOneWithRetry returns (matched, modified, upsertedID, resultDoc, err).
func updateOneWithRetry(env *ExecEnv, collection string, preds []FilterPredicate, actions []UpdateAction, upsert bool) (bool, bool, *Value, *Value, error) {
	for attempt := 0; attempt <= env.Config.Operations.MaxRetries; attempt++ {
		rows, _, err := ScanFiltered(env.Ctx, env.Store, env.Cmd.Namespace, collection, preds, nil, 1)
		if err != nil {
			return false, false, nil, nil, err
		}
		if len(rows) == 0 {
			if !upsert {
				return false, false, nil, nil, nil
			}
			return upsertOne(env, collection, preds, actions)
		}

		row := rows[0]
		doc, perr := ParseJSON(row.Doc.DocJSON)
		if perr != nil {
			return false, false, nil, nil, wrapAPIError(ErrInternalServer, perr, "corrupt stored document")
		}
		shredded, apiErr := ApplyUpdate(doc, actions, false)
		if apiErr != nil {
			return false, false, nil, nil, apiErr
		}
		if updated, perr := ParseJSON(shredded.DocJSON); perr == nil {
			if verr := validateDocumentLimits(env.Config.Operations, updated, shredded.DocJSON); verr != nil {
				return false, false, nil, nil, verr
			}
		}
		newTx := globalTxIDs.Next()
		err = env.Store.CompareAndSwap(env.Ctx, env.Cmd.Namespace, collection, row.ID, row.Tx, shredded, newTx)
		if err == nil {
			result, _ := ParseJSON(shredded.DocJSON)
			return true, true, nil, result, nil
		}
		if err != ErrCASMismatch {
			return false, false, nil, nil, err
		}
		// lost the race with a concurrent writer; re-read and retry
	}
	return false, false, nil, nil, newAPIError(ErrConcurrentUpdateLimitExceeded,
		"exceeded %d retries updating document", env.Config.Operations.MaxRetries)
}

func upsertOne(env *ExecEnv, collection string, preds []FilterPredicate, actions []UpdateAction) (bool, bool, *Value, *Value, error) {
	base := ObjectValue(nil)
	for _, p := range preds {
		if p.IsIDFilter && p.Op == FilterEq {
			base.Object().Set("_id", p.Operand)
		}
	}
	shredded, apiErr := ApplyUpdate(base, actions, true)
	if apiErr != nil {
		return false, false, nil, nil, apiErr
	}
	result, _ := ParseJSON(shredded.DocJSON)
	if verr := validateDocumentLimits(env.Config.Operations, result, shredded.DocJSON); verr != nil {
		return false, false, nil, nil, verr
	}
	tx := globalTxIDs.Next()
	if err := env.Store.InsertIfNotExists(env.Ctx, env.Cmd.Namespace, collection, shredded, tx); err != nil {
		return false, false, nil, nil, err
	}
	return false, true, shredded.ID.Value(), result, nil
}

// ExecUpdateMany applies the update algebra to every matching document with
// one CAS attempt per document, no retry: a document a concurrent writer
// changes between the scan read and the CAS write is left unmodified and
// simply doesn't count toward modifiedCount, rather than being retried.
// There is no cross-document atomicity.
func ExecUpdateMany(env *ExecEnv, params *Value) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	preds, apiErr := ParseFilter(fieldOrNull(params, "filter"))
	if apiErr != nil {
		return nil, apiErr
	}
	actions, apiErr := ParseUpdate(fieldOrNull(params, "update"))
	if apiErr != nil {
		return nil, apiErr
	}

	var matched, modified int64
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
		matched++
		doc, perr := ParseJSON(row.Doc.DocJSON)
		if perr == nil {
			shredded, uerr := ApplyUpdate(doc, actions, false)
			withinLimits := false
			if uerr == nil {
				if updated, uperr := ParseJSON(shredded.DocJSON); uperr == nil {
					withinLimits = validateDocumentLimits(env.Config.Operations, updated, shredded.DocJSON) == nil
				}
			}
			if withinLimits {
				newTx := globalTxIDs.Next()
				if env.Store.CompareAndSwap(env.Ctx, env.Cmd.Namespace, collection, row.ID, row.Tx, shredded, newTx) == nil {
					modified++
				}
			}
		}
		if next == nil {
			break
		}
		after = next
	}

	status := NewObject()
	status.Set("ok", NumberFromInt64(1))
	status.Set("matchedCount", NumberFromInt64(matched))
	status.Set("modifiedCount", NumberFromInt64(modified))
	return &CommandResult{Status: ObjectValue(status)}, nil
}
