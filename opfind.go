package dataapi

import "sort"

// ExecFindOne implements FindOne: at most one matching document, no paging
// state in the response.
func ExecFindOne(env *ExecEnv, params *Value) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	preds, apiErr := ParseFilter(fieldOrNull(params, "filter"))
	if apiErr != nil {
		return nil, apiErr
	}

	rows, _, err := ScanFiltered(env.Ctx, env.Store, env.Cmd.Namespace, collection, preds, nil, 1)
	if err != nil {
		return nil, err
	}
	data := NewObject()
	if len(rows) == 0 {
		data.Set("document", Null())
	} else {
		doc, perr := ParseJSON(rows[0].Doc.DocJSON)
		if perr != nil {
			return nil, wrapAPIError(ErrInternalServer, perr, "corrupt stored document")
		}
		data.Set("document", doc)
	}
	return &CommandResult{Data: ObjectValue(data), Status: statusOK()}, nil
}

// ExecFind implements Find, including opaque-token paging and, for
// vector-enabled collections, ANN ordering by a `sort.$vector` operand.
func ExecFind(env *ExecEnv, params *Value) (*CommandResult, error) {
	collection, apiErr := env.collectionOrErr()
	if apiErr != nil {
		return nil, apiErr
	}
	preds, apiErr := ParseFilter(fieldOrNull(params, "filter"))
	if apiErr != nil {
		return nil, apiErr
	}

	limit := env.Config.Operations.MaxDocumentsPerPage
	if opts := fieldOrNull(params, "options"); opts != nil && opts.IsObject() {
		if lv := opts.Object().Get("limit"); lv != nil && lv.Kind() == KindNumber {
			if n, err := lv.NumVal().Int64(); err == nil && int(n) < limit && n > 0 {
				limit = int(n)
			}
		}
	}

	var after *DocID
	if opts := fieldOrNull(params, "options"); opts != nil && opts.IsObject() {
		if pv := opts.Object().Get("pageState"); pv != nil && pv.Kind() == KindString {
			after, apiErr = DecodePageState(pv.StrVal())
			if apiErr != nil {
				return nil, apiErr
			}
		}
	}

	if vecQuery := vectorSortOperand(params); vecQuery != nil {
		return execVectorFind(env, collection, preds, vecQuery, limit)
	}

	rows, next, err := ScanFiltered(env.Ctx, env.Store, env.Cmd.Namespace, collection, preds, after, limit)
	if err != nil {
		return nil, err
	}
	return buildFindResult(rows, next)
}

func vectorSortOperand(params *Value) []float32 {
	sortVal := fieldOrNull(params, "sort")
	if sortVal == nil || !sortVal.IsObject() {
		return nil
	}
	vecVal := sortVal.Object().Get("$vector")
	if vecVal == nil || !vecVal.IsArray() {
		return nil
	}
	out := make([]float32, vecVal.ArrayLen())
	for i, item := range vecVal.Array() {
		f, _ := item.NumVal().Float64()
		out[i] = float32(f)
	}
	return out
}

// execVectorFind loads every matching row (ANN over the whole collection
// scan, since this executor has no real vector index), scores it, and
// returns the top `limit` — a correctness-first stand-in for the store's
// native `ORDER BY query_vector_value ANN OF ?`.
func execVectorFind(env *ExecEnv, collection string, preds []FilterPredicate, query []float32, limit int) (*CommandResult, error) {
	entry, err := env.SchemaCache.Get("", env.Cmd.Namespace, collection)
	if err != nil {
		return nil, err
	}
	if !entry.Exists || !entry.Settings.VectorEnabled {
		return nil, newAPIError(ErrCollectionNotExist, "collection '%s' is not vector-enabled", collection)
	}
	settings := entry.Settings

	type scored struct {
		row   Row
		score float64
	}
	var candidates []scored
	rows, _, serr := ScanFiltered(env.Ctx, env.Store, env.Cmd.Namespace, collection, preds, nil, 0)
	if serr != nil {
		return nil, serr
	}
	for _, r := range rows {
		candidates = append(candidates, scored{row: r, score: vectorScore(settings.SimilarityFunction, r.Doc.QueryVectorValue, query)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	rows = rows[:0]
	for _, c := range candidates {
		rows = append(rows, c.row)
	}
	return buildFindResult(rows, nil)
}

func buildFindResult(rows []Row, next *DocID) (*CommandResult, error) {
	docs := make([]*Value, len(rows))
	for i, r := range rows {
		doc, perr := ParseJSON(r.Doc.DocJSON)
		if perr != nil {
			return nil, wrapAPIError(ErrInternalServer, perr, "corrupt stored document")
		}
		docs[i] = doc
	}
	data := NewObject()
	data.Set("documents", ArrayValue(docs))
	if next != nil {
		data.Set("nextPageState", Str(EncodePageState(*next)))
	}
	return &CommandResult{Data: ObjectValue(data), Status: statusOK()}, nil
}
