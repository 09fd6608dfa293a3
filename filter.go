package dataapi

// FilterOp is one of the operator tags supported inside a filter clause
// entry, per §4.3.
type FilterOp string

const (
	FilterEq     FilterOp = "$eq"
	FilterNe     FilterOp = "$ne"
	FilterGt     FilterOp = "$gt"
	FilterGte    FilterOp = "$gte"
	FilterLt     FilterOp = "$lt"
	FilterLte    FilterOp = "$lte"
	FilterIn     FilterOp = "$in"
	FilterExists FilterOp = "$exists"
	FilterSize   FilterOp = "$size"
	FilterAll    FilterOp = "$all"
)

// FilterPredicate is one (path, op, operand) triple extracted from a filter
// clause. Operand is nil for operators that carry no scalar payload other
// than what Operands holds ($in, $all).
type FilterPredicate struct {
	Path    *DotPath
	Op      FilterOp
	Operand *Value
	// Operands holds the list for $in/$all.
	Operands []*Value
	// IsIDFilter is true when Path is exactly "_id": routes to the primary
	// key rather than any query_* column.
	IsIDFilter bool
}

// ParseFilter decomposes a filter clause object into predicates, expanding
// the `{field: value}` shorthand into an implicit $eq. Every filter is an
// implicit AND across its top-level entries; there is no nested logical
// combinator in this system.
func ParseFilter(clause *Value) ([]FilterPredicate, *APIError) {
	if clause == nil || clause.IsNull() {
		return nil, nil
	}
	if !clause.IsObject() {
		return nil, newAPIError(ErrUnsupportedFilterDataType,
			"filter clause must be a JSON Object, instead got %s", clause.Kind())
	}

	var preds []FilterPredicate
	for _, field := range clause.Object().Keys() {
		val := clause.Object().Get(field)
		path, apiErr := ParseDotPath(field)
		if apiErr != nil {
			return nil, apiErr
		}
		isID := field == "_id"

		if opsObj, ok := asOperatorObject(val); ok {
			for _, opKey := range opsObj.Keys() {
				p, apiErr := buildPredicate(path, isID, FilterOp(opKey), opsObj.Get(opKey))
				if apiErr != nil {
					return nil, apiErr
				}
				preds = append(preds, p)
			}
			continue
		}

		p, apiErr := buildPredicate(path, isID, FilterEq, val)
		if apiErr != nil {
			return nil, apiErr
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// asOperatorObject reports whether val is an object whose keys are all
// recognized operator tags, in which case it is `{field: {$op: v, ...}}`
// rather than a literal object value being matched for equality.
func asOperatorObject(val *Value) (*Object, bool) {
	if !val.IsObject() || val.Object().Len() == 0 {
		return nil, false
	}
	for _, k := range val.Object().Keys() {
		switch FilterOp(k) {
		case FilterEq, FilterNe, FilterGt, FilterGte, FilterLt, FilterLte,
			FilterIn, FilterExists, FilterSize, FilterAll:
		default:
			return nil, false
		}
	}
	return val.Object(), true
}

func buildPredicate(path *DotPath, isID bool, op FilterOp, operand *Value) (FilterPredicate, *APIError) {
	p := FilterPredicate{Path: path, Op: op, IsIDFilter: isID}
	switch op {
	case FilterIn, FilterAll:
		if !operand.IsArray() {
			return p, newAPIError(ErrUnsupportedFilterDataType,
				"%s operand for path '%s' must be an array", op, path.Path())
		}
		p.Operands = operand.Array()
	case FilterExists:
		if operand.Kind() != KindBool {
			return p, newAPIError(ErrUnsupportedFilterDataType,
				"$exists operand for path '%s' must be a boolean", path.Path())
		}
		p.Operand = operand
	case FilterSize:
		if operand.Kind() != KindNumber {
			return p, newAPIError(ErrUnsupportedFilterDataType,
				"$size operand for path '%s' must be a number", path.Path())
		}
		p.Operand = operand
	case FilterGt, FilterGte, FilterLt, FilterLte:
		if operand.Kind() != KindNumber && !isTimestampWrapper(operand) {
			return p, newAPIError(ErrUnsupportedFilterDataType,
				"range operand for path '%s' must be a number or timestamp", path.Path())
		}
		p.Operand = operand
	default: // $eq, $ne
		p.Operand = operand
	}
	return p, nil
}

func isTimestampWrapper(v *Value) bool {
	_, ok := dateWrapperMillis(v)
	return ok
}

// MatchesInMemory evaluates all predicates against a fully materialized
// document, used both as the in-memory double-check the store-side
// predicate must agree with (§8) and directly whenever no index pushdown
// is available.
func MatchesInMemory(doc *Value, id DocID, preds []FilterPredicate) bool {
	for _, p := range preds {
		if !matchOne(doc, id, p) {
			return false
		}
	}
	return true
}

func matchOne(doc *Value, id DocID, p FilterPredicate) bool {
	if p.IsIDFilter {
		return matchID(id, p)
	}
	val := p.Path.FindValue(doc)
	switch p.Op {
	case FilterExists:
		want := p.Operand.BoolVal()
		return (val != nil) == want
	case FilterEq:
		return val != nil && Equal(val, p.Operand)
	case FilterNe:
		return val == nil || !Equal(val, p.Operand)
	case FilterSize:
		return val != nil && val.IsArray() && int64(val.ArrayLen()) == mustInt64(p.Operand)
	case FilterIn:
		for _, want := range p.Operands {
			if val != nil && Equal(val, want) {
				return true
			}
			if val != nil && val.IsArray() && arrayContainsValue(val, want) {
				return true
			}
		}
		return false
	case FilterAll:
		if val == nil || !val.IsArray() {
			return false
		}
		for _, want := range p.Operands {
			if !arrayContainsValue(val, want) {
				return false
			}
		}
		return true
	case FilterGt, FilterGte, FilterLt, FilterLte:
		return matchRange(val, p)
	default:
		return false
	}
}

func matchID(id DocID, p FilterPredicate) bool {
	other, apiErr := docIDFromValue(p.Operand)
	if apiErr != nil {
		return false
	}
	switch p.Op {
	case FilterEq:
		return id.Equal(other)
	case FilterNe:
		return !id.Equal(other)
	default:
		return false
	}
}

func arrayContainsValue(arr *Value, want *Value) bool {
	for _, item := range arr.Array() {
		if Equal(item, want) {
			return true
		}
	}
	return false
}

func matchRange(val *Value, p FilterPredicate) bool {
	if val == nil {
		return false
	}
	var cmp int
	if val.Kind() == KindNumber && p.Operand.Kind() == KindNumber {
		cmp = val.NumVal().Cmp(p.Operand.NumVal())
	} else if ts, ok := dateWrapperMillis(val); ok {
		wantTS, ok2 := dateWrapperMillis(p.Operand)
		if !ok2 {
			return false
		}
		switch {
		case ts.Before(wantTS):
			cmp = -1
		case ts.After(wantTS):
			cmp = 1
		default:
			cmp = 0
		}
	} else {
		return false
	}
	switch p.Op {
	case FilterGt:
		return cmp > 0
	case FilterGte:
		return cmp >= 0
	case FilterLt:
		return cmp < 0
	case FilterLte:
		return cmp <= 0
	default:
		return false
	}
}

func mustInt64(v *Value) int64 {
	i, _ := v.NumVal().Int64()
	return i
}
