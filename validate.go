package dataapi

import "fmt"

// ValidationError carries a bean-style constraint violation from command
// parameter validation (§4.7 step 2). It deliberately sits outside the
// closed ErrorCode taxonomy of §7: no third-party bean-validation library
// exists anywhere in the retrieved reference pack, so this is a small
// hand-written equivalent rather than a stdlib substitute for a library
// concern — there is no library to substitute for.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) ExceptionClass() string { return "ConstraintViolationException" }

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// requireObject enforces that field, if present, is a JSON object.
func requireObject(params *Value, field string) (*Value, *ValidationError) {
	v := fieldOrNull(params, field)
	if v == nil || v.IsNull() {
		return nil, nil
	}
	if !v.IsObject() {
		return nil, newValidationError("'%s' must be an object", field)
	}
	return v, nil
}

// requireString enforces that field is present and a non-empty string.
func requireString(params *Value, field string) (string, *ValidationError) {
	v := fieldOrNull(params, field)
	if v == nil || v.Kind() != KindString || v.StrVal() == "" {
		return "", newValidationError("'%s' is required and must be a non-empty string", field)
	}
	return v.StrVal(), nil
}

func fieldOrNull(params *Value, field string) *Value {
	if params == nil || !params.IsObject() {
		return nil
	}
	return params.Object().Get(field)
}

// validateDocumentLimits enforces the config-bounded document size and
// nesting depth of spec §3's data model: a document is checked against the
// limits in force at the moment it is about to be persisted, after
// shredding has produced its canonical serialized form. Size and depth
// violations are not part of the closed ErrorCode taxonomy of §7, so they
// surface as a ValidationError, the same as any other pipeline-step-2
// constraint violation.
func validateDocumentLimits(cfg OperationsConfig, doc *Value, docJSON []byte) *ValidationError {
	if cfg.MaxDocumentSize > 0 && len(docJSON) > cfg.MaxDocumentSize {
		return newValidationError(
			"document is %d bytes, exceeding the %d byte limit", len(docJSON), cfg.MaxDocumentSize)
	}
	if cfg.MaxDepth > 0 {
		if depth := valueDepth(doc); depth > cfg.MaxDepth {
			return newValidationError(
				"document nests %d levels deep, exceeding the limit of %d", depth, cfg.MaxDepth)
		}
	}
	return nil
}

// valueDepth returns the nesting depth of v: 0 for a scalar, and one more
// than the deepest child for an object or array.
func valueDepth(v *Value) int {
	if v == nil {
		return 0
	}
	switch v.Kind() {
	case KindObject:
		depth := 0
		for _, key := range v.Object().Keys() {
			if d := valueDepth(v.Object().Get(key)); d > depth {
				depth = d
			}
		}
		return depth + 1
	case KindArray:
		depth := 0
		for _, item := range v.Array() {
			if d := valueDepth(item); d > depth {
				depth = d
			}
		}
		return depth + 1
	default:
		return 0
	}
}

// validateCollectionName enforces the collection-name shape the original
// system requires: it must be usable as a store table identifier.
func validateCollectionName(name string) *ValidationError {
	if len(name) == 0 || len(name) > 48 {
		return newValidationError("collection name must be between 1 and 48 characters")
	}
	if !(name[0] >= 'a' && name[0] <= 'z' || name[0] >= 'A' && name[0] <= 'Z') {
		return newValidationError("collection name must start with a letter")
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		ok := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
		if !ok {
			return newValidationError("collection name may contain only letters, digits and underscores")
		}
	}
	return nil
}
