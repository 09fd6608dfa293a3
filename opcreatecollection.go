package dataapi

import (
	"time"
)

// indexedColumns is the fixed list of index statements a non-vector
// collection needs; a vector-enabled collection additionally indexes
// query_vector_value. indexesNeededPerCollection (§9 Open Question c) is
// derived from this list rather than tracked as an independent constant.
var indexedColumns = []string{
	"exist_keys", "array_size", "array_contains",
	"query_bool_values", "query_dbl_values", "query_text_values",
	"query_timestamp_values", "query_null_values",
}

func indexesNeededFor(vectorEnabled bool) int {
	if vectorEnabled {
		return len(indexedColumns) + 1
	}
	return len(indexedColumns)
}

// ExecCreateCollection implements CreateCollection per §4.6: enforce
// max_collections and the database-wide index budget, and treat a
// re-create with identical settings as a success rather than an error
// (§8 scenario 4).
func ExecCreateCollection(env *ExecEnv, params *Value) (*CommandResult, error) {
	name, verr := requireString(params, "name")
	if verr != nil {
		return nil, verr
	}
	if verr := validateCollectionName(name); verr != nil {
		return nil, verr
	}

	settings := CollectionSettings{}
	if vecParams, verr := requireObject(params, "vector"); verr != nil {
		return nil, verr
	} else if vecParams != nil {
		settings.VectorEnabled = true
		sizeVal := fieldOrNull(vecParams, "size")
		if sizeVal == nil || sizeVal.Kind() != KindNumber {
			return nil, newValidationError("'vector.size' is required and must be a number")
		}
		size, _ := sizeVal.NumVal().Int64()
		if size <= 0 {
			return nil, newValidationError("'vector.size' must be positive")
		}
		settings.VectorSize = int(size)
		fnVal := fieldOrNull(vecParams, "function")
		fn := VectorFunction("cosine")
		if fnVal != nil && fnVal.Kind() == KindString {
			fn = VectorFunction(fnVal.StrVal())
		}
		switch fn {
		case VectorCosine, VectorDotProduct, VectorEuclidean:
		default:
			return nil, newValidationError("'vector.function' must be one of cosine, dot_product, euclidean")
		}
		settings.SimilarityFunction = fn
	}
	if cv := fieldOrNull(params, "comment"); cv != nil && cv.Kind() == KindString {
		settings.Comment = cv.StrVal()
	}

	names, err := env.Store.ListCollections(env.Ctx, env.Cmd.Namespace)
	if err != nil {
		return nil, err
	}
	alreadyExists := false
	for _, n := range names {
		if n == name {
			alreadyExists = true
			break
		}
	}
	if !alreadyExists && len(names) >= env.Config.Database.MaxCollections {
		return nil, newAPIError(ErrTooManyCollections,
			"database already has the maximum of %d collections", env.Config.Database.MaxCollections)
	}

	needed := indexesNeededFor(settings.VectorEnabled)
	var ordinals []uint32
	if !alreadyExists {
		var budgetErr *APIError
		ordinals, budgetErr = env.Budget.Allocate(needed)
		if budgetErr != nil {
			return nil, budgetErr
		}
		settings.IndexOrdinals = ordinals
	}

	err = env.Store.CreateCollection(env.Ctx, env.Cmd.Namespace, name, settings)
	if err == ErrCollectionExists {
		return &CommandResult{Status: statusOK()}, nil
	}
	if err != nil {
		if !alreadyExists {
			env.Budget.Release(ordinals)
		}
		return nil, err
	}

	// CREATE TABLE succeeded. No index statements are issued against the
	// RowStore; the DDL delay is applied once per index the collection
	// needs, mirroring the original DDL sequencing.
	for range indexedColumns {
		sleepDDLDelay(env)
	}
	if settings.VectorEnabled {
		sleepDDLDelay(env)
	}

	env.SchemaCache.Invalidate("", env.Cmd.Namespace, name)
	return &CommandResult{Status: statusOK()}, nil
}

func sleepDDLDelay(env *ExecEnv) {
	if env.Config.Operations.DDLDelay <= 0 {
		return
	}
	select {
	case <-time.After(env.Config.Operations.DDLDelay):
	case <-env.Ctx.Done():
	}
}
