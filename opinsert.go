package dataapi

// ExecInsertOne implements Insert for a single document: shred, then a CAS
// insert conditioned on the primary key being absent. A primary-key
// collision surfaces as DOCUMENT_ALREADY_EXISTS (§4.6).
func ExecInsertOne(env *ExecEnv, params *Value) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	docVal := fieldOrNull(params, "document")
	if docVal == nil || !docVal.IsObject() {
		return nil, newValidationError("'document' is required and must be a JSON object")
	}

	shredded, apiErr := Shred(docVal)
	if apiErr != nil {
		return nil, apiErr
	}
	if verr := validateDocumentLimits(env.Config.Operations, docVal, shredded.DocJSON); verr != nil {
		return nil, verr
	}
	tx := globalTxIDs.Next()
	if err := env.Store.InsertIfNotExists(env.Ctx, env.Cmd.Namespace, collection, shredded, tx); err != nil {
		if err == ErrDocConflict {
			return nil, newAPIError(ErrDocumentAlreadyExists,
				"Document with the given _id already exists")
		}
		return nil, err
	}

	data := NewObject()
	data.Set("insertedIds", ArrayValue([]*Value{shredded.ID.Value()}))
	return &CommandResult{Data: ObjectValue(data), Status: statusOK()}, nil
}

// ExecInsertMany inserts each document independently; a per-document
// failure does not abort the remaining documents, mirroring the original
// batch-insert semantics of reporting a status per document.
func ExecInsertMany(env *ExecEnv, params *Value) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	docsVal := fieldOrNull(params, "documents")
	if docsVal == nil || !docsVal.IsArray() {
		return nil, newValidationError("'documents' is required and must be a JSON array")
	}

	var insertedIDs []*Value
	var errs []CommandError
	for _, docVal := range docsVal.Array() {
		shredded, apiErr := Shred(docVal)
		if apiErr != nil {
			errs = append(errs, toCommandError(apiErr))
			continue
		}
		if verr := validateDocumentLimits(env.Config.Operations, docVal, shredded.DocJSON); verr != nil {
			errs = append(errs, toCommandError(verr))
			continue
		}
		tx := globalTxIDs.Next()
		if err := env.Store.InsertIfNotExists(env.Ctx, env.Cmd.Namespace, collection, shredded, tx); err != nil {
			if err == ErrDocConflict {
				errs = append(errs, toCommandError(newAPIError(ErrDocumentAlreadyExists,
					"Document with the given _id already exists")))
				continue
			}
			errs = append(errs, toCommandError(err))
			continue
		}
		insertedIDs = append(insertedIDs, shredded.ID.Value())
	}

	data := NewObject()
	data.Set("insertedIds", ArrayValue(insertedIDs))
	return &CommandResult{Data: ObjectValue(data), Status: statusOK(), Errors: errs}, nil
}
