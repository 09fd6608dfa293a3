package dataapi

import (
	"github.com/cockroachdb/apd/v3"
)

// UpdateOp is one of the operator tags supported inside an update clause,
// per §4.4.
type UpdateOp string

const (
	UpdateSet         UpdateOp = "$set"
	UpdateUnset       UpdateOp = "$unset"
	UpdateInc         UpdateOp = "$inc"
	UpdatePush        UpdateOp = "$push"
	UpdatePop         UpdateOp = "$pop"
	UpdateAddToSet    UpdateOp = "$addToSet"
	UpdateRename      UpdateOp = "$rename"
	UpdateMul         UpdateOp = "$mul"
	UpdateMin         UpdateOp = "$min"
	UpdateMax         UpdateOp = "$max"
	UpdateSetOnInsert UpdateOp = "$setOnInsert"
)

// UpdateAction is one (locator, operator, operand) triple.
type UpdateAction struct {
	Path    *DotPath
	Op      UpdateOp
	Operand *Value
}

// ParseUpdate decomposes an update clause object (`{$set: {...}, $inc: {...}, ...}`)
// into a flat list of actions, and checks the ancestor/descendant locator
// conflict invariant across the whole clause.
func ParseUpdate(clause *Value) ([]UpdateAction, *APIError) {
	if clause == nil || !clause.IsObject() {
		return nil, newAPIError(ErrUnsupportedUpdateOperation, "update clause must be a JSON Object")
	}

	var actions []UpdateAction
	for _, opKey := range clause.Object().Keys() {
		op := UpdateOp(opKey)
		switch op {
		case UpdateSet, UpdateUnset, UpdateInc, UpdatePush, UpdatePop, UpdateAddToSet,
			UpdateRename, UpdateMul, UpdateMin, UpdateMax, UpdateSetOnInsert:
		default:
			return nil, newAPIError(ErrUnsupportedUpdateOperation, "unrecognized update operator '%s'", opKey)
		}
		fields := clause.Object().Get(opKey)
		if !fields.IsObject() {
			return nil, newAPIError(ErrUnsupportedUpdateOperation, "operand of '%s' must be a JSON Object", opKey)
		}
		for _, field := range fields.Object().Keys() {
			path, apiErr := ParseDotPath(field)
			if apiErr != nil {
				return nil, apiErr
			}
			if field == "_id" {
				return nil, newAPIError(ErrUnsupportedUpdateOperation, "cannot update the '_id' field")
			}
			actions = append(actions, UpdateAction{Path: path, Op: op, Operand: fields.Object().Get(field)})
		}
	}

	if apiErr := checkLocatorConflicts(actions); apiErr != nil {
		return nil, apiErr
	}
	return actions, nil
}

// checkLocatorConflicts rejects an update clause containing two locators
// where one is an ancestor of the other, e.g. {$set: {"a": 1, "a.b": 2}}.
func checkLocatorConflicts(actions []UpdateAction) *APIError {
	for i := range actions {
		for j := range actions {
			if i == j {
				continue
			}
			if actions[i].Path.IsSubPathOf(actions[j].Path) {
				return newAPIError(ErrUnsupportedUpdateOperation,
					"update path '%s' conflicts with path '%s'", actions[i].Path.Path(), actions[j].Path.Path())
			}
		}
	}
	return nil
}

// ApplyUpdate mutates doc in place per actions and returns the resulting
// re-shredded row. isUpsertInsert indicates whether this call is creating
// a brand new document (via upsert), the only circumstance under which
// $setOnInsert actions take effect.
func ApplyUpdate(doc *Value, actions []UpdateAction, isUpsertInsert bool) (*WritableShreddedDocument, *APIError) {
	for _, a := range actions {
		if a.Op == UpdateSetOnInsert && !isUpsertInsert {
			continue
		}
		if apiErr := applyOne(doc, a); apiErr != nil {
			return nil, apiErr
		}
	}
	return Shred(doc)
}

func applyOne(doc *Value, a UpdateAction) *APIError {
	switch a.Op {
	case UpdateSet, UpdateSetOnInsert:
		match, apiErr := a.Path.FindOrCreate(doc)
		if apiErr != nil {
			return apiErr
		}
		match.Set(a.Operand)
	case UpdateUnset:
		match := a.Path.FindIfExists(doc)
		if match.Found {
			match.Remove()
		}
	case UpdateInc:
		return applyArith(doc, a, func(cur, delta *apd.Decimal) (*apd.Decimal, error) {
			var res apd.Decimal
			_, err := apd.BaseContext.Add(&res, cur, delta)
			return &res, err
		})
	case UpdateMul:
		return applyArith(doc, a, func(cur, factor *apd.Decimal) (*apd.Decimal, error) {
			var res apd.Decimal
			_, err := apd.BaseContext.Mul(&res, cur, factor)
			return &res, err
		})
	case UpdateMin:
		return applyArith(doc, a, func(cur, candidate *apd.Decimal) (*apd.Decimal, error) {
			if candidate.Cmp(cur) < 0 {
				return candidate, nil
			}
			return cur, nil
		})
	case UpdateMax:
		return applyArith(doc, a, func(cur, candidate *apd.Decimal) (*apd.Decimal, error) {
			if candidate.Cmp(cur) > 0 {
				return candidate, nil
			}
			return cur, nil
		})
	case UpdatePush:
		return applyPush(doc, a)
	case UpdateAddToSet:
		return applyAddToSet(doc, a)
	case UpdatePop:
		return applyPop(doc, a)
	case UpdateRename:
		return applyRename(doc, a)
	}
	return nil
}

func applyArith(doc *Value, a UpdateAction, f func(cur, operand *apd.Decimal) (*apd.Decimal, error)) *APIError {
	if a.Operand.Kind() != KindNumber {
		return newAPIError(ErrUnsupportedUpdateOperation,
			"operand for '%s' at path '%s' must be numeric", a.Op, a.Path.Path())
	}
	match, apiErr := a.Path.FindOrCreate(doc)
	if apiErr != nil {
		return apiErr
	}
	cur := match.Value()
	var curDec apd.Decimal
	curDec.SetInt64(0)
	if cur != nil && !cur.IsNull() {
		if cur.Kind() != KindNumber {
			return newAPIError(ErrUnsupportedUpdateOperation,
				"existing value at path '%s' is not numeric, cannot apply '%s'", a.Path.Path(), a.Op)
		}
		curDec.Set(cur.NumVal())
	}
	res, err := f(&curDec, a.Operand.NumVal())
	if err != nil {
		return wrapAPIError(ErrUnsupportedUpdateOperation, err, "arithmetic error applying '%s' at path '%s'", a.Op, a.Path.Path())
	}
	match.Set(NumberFromDecimal(*res))
	return nil
}

func applyPush(doc *Value, a UpdateAction) *APIError {
	match, apiErr := a.Path.FindOrCreate(doc)
	if apiErr != nil {
		return apiErr
	}
	cur := match.Value()
	if cur == nil || cur.IsNull() {
		match.Set(ArrayValue([]*Value{a.Operand}))
		return nil
	}
	if !cur.IsArray() {
		return newAPIError(ErrUnsupportedUpdateOperation,
			"$push target at path '%s' is not an array", a.Path.Path())
	}
	cur.ArrayAppend(a.Operand)
	return nil
}

func applyAddToSet(doc *Value, a UpdateAction) *APIError {
	match, apiErr := a.Path.FindOrCreate(doc)
	if apiErr != nil {
		return apiErr
	}
	cur := match.Value()
	if cur == nil || cur.IsNull() {
		match.Set(ArrayValue([]*Value{a.Operand}))
		return nil
	}
	if !cur.IsArray() {
		return newAPIError(ErrUnsupportedUpdateOperation,
			"$addToSet target at path '%s' is not an array", a.Path.Path())
	}
	if !arrayContainsValue(cur, a.Operand) {
		cur.ArrayAppend(a.Operand)
	}
	return nil
}

func applyPop(doc *Value, a UpdateAction) *APIError {
	match := a.Path.FindIfExists(doc)
	if !match.Found {
		return nil
	}
	cur := match.Value()
	if cur == nil || !cur.IsArray() || cur.ArrayLen() == 0 {
		return nil
	}
	items := cur.Array()
	fromEnd := a.Operand.Kind() != KindNumber || a.Operand.NumVal().Sign() >= 0
	if fromEnd {
		match.Set(ArrayValue(items[:len(items)-1]))
	} else {
		match.Set(ArrayValue(items[1:]))
	}
	return nil
}

func applyRename(doc *Value, a UpdateAction) *APIError {
	if a.Operand.Kind() != KindString {
		return newAPIError(ErrUnsupportedUpdateOperation, "$rename target for path '%s' must be a string", a.Path.Path())
	}
	toPath, apiErr := ParseDotPath(a.Operand.StrVal())
	if apiErr != nil {
		return apiErr
	}
	if toPath.Path() == "_id" {
		return newAPIError(ErrUnsupportedUpdateOperation, "cannot rename a field to '_id'")
	}
	from := a.Path.FindIfExists(doc)
	if !from.Found {
		return nil
	}
	val := from.Value()
	from.Remove()
	to, apiErr := toPath.FindOrCreate(doc)
	if apiErr != nil {
		return apiErr
	}
	to.Set(val)
	return nil
}
