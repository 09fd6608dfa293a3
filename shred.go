package dataapi

import (
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// WritableShreddedDocument is the output of Shred: a JSON document
// decomposed into the fixed column shape described in §3, ready to be
// written as one row.
type WritableShreddedDocument struct {
	ID      DocID
	DocJSON []byte

	// DocFieldOrder lists every materialized path (both container and leaf)
	// in document traversal order; ExistKeys is the same set unordered.
	DocFieldOrder []string
	ExistKeys     map[string]struct{}

	ArraySize     map[string]int
	ArrayContains map[string]struct{}
	SubDocEquals  map[string]uint64

	QueryBoolValues       map[string]bool
	QueryDblValues        map[string]apd.Decimal
	QueryTextValues       map[string]string
	QueryTimestampValues  map[string]time.Time
	QueryNullValues       map[string]struct{}
	QueryVectorValue      []float32
}

type shredState struct {
	doc *WritableShreddedDocument
}

// Shred deterministically decomposes doc into a WritableShreddedDocument.
// doc must be a JSON object; if "_id" is missing, a fresh random UUID is
// assigned. _id never contributes to any query_* container: it is encoded
// solely into the primary key and echoed back as the first field of
// doc_json.
func Shred(doc *Value) (*WritableShreddedDocument, *APIError) {
	if !doc.IsObject() {
		return nil, newAPIError(ErrShredBadDocumentType,
			"Document to shred must be a JSON Object, instead got %s", doc.Kind())
	}

	idVal := doc.Object().Get("_id")
	id, apiErr := docIDFromValue(idVal)
	if apiErr != nil {
		return nil, apiErr
	}

	s := &shredState{doc: &WritableShreddedDocument{
		ID:                   id,
		ExistKeys:            make(map[string]struct{}),
		ArraySize:            make(map[string]int),
		ArrayContains:        make(map[string]struct{}),
		SubDocEquals:         make(map[string]uint64),
		QueryBoolValues:      make(map[string]bool),
		QueryDblValues:       make(map[string]apd.Decimal),
		QueryTextValues:      make(map[string]string),
		QueryTimestampValues: make(map[string]time.Time),
		QueryNullValues:      make(map[string]struct{}),
	}}

	for _, key := range doc.Object().Keys() {
		if key == "_id" || key == "$vector" {
			continue
		}
		s.walk(EscapeKey(key), doc.Object().Get(key))
	}

	if vecVal := doc.Object().Get("$vector"); vecVal != nil {
		vec, apiErr := vectorFromValue(vecVal)
		if apiErr != nil {
			return nil, apiErr
		}
		s.doc.QueryVectorValue = vec
	}

	s.doc.DocJSON = Marshal(canonicalDoc(id, doc))
	return s.doc, nil
}

// vectorFromValue converts the "$vector" field's JSON array into the flat
// float32 slice stored in query_vector_value. Every element must be a
// number; anything else is the same class of error as a malformed document
// body rather than a distinct vector-specific code.
func vectorFromValue(v *Value) ([]float32, *APIError) {
	if !v.IsArray() {
		return nil, newAPIError(ErrShredBadDocumentType,
			"'$vector' must be a JSON array of numbers, instead got %s", v.Kind())
	}
	items := v.Array()
	out := make([]float32, len(items))
	for i, item := range items {
		if item.Kind() != KindNumber {
			return nil, newAPIError(ErrShredBadDocumentType,
				"'$vector' element %d must be a number, instead got %s", i, item.Kind())
		}
		f, err := item.NumVal().Float64()
		if err != nil {
			return nil, newAPIError(ErrShredBadDocumentType, "'$vector' element %d is not representable as a float: %v", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// canonicalDoc rebuilds doc with "_id" set to its canonical value and
// moved to the first field, and all other fields left in input order.
func canonicalDoc(id DocID, doc *Value) *Value {
	out := NewObject()
	for _, key := range doc.Object().Keys() {
		if key == "_id" {
			continue
		}
		out.Set(key, doc.Object().Get(key))
	}
	out.Set("_id", id.Value())
	out.reorderFirst("_id")
	return ObjectValue(out)
}

func (s *shredState) walk(path string, v *Value) {
	s.doc.ExistKeys[path] = struct{}{}
	s.doc.DocFieldOrder = append(s.doc.DocFieldOrder, path)

	if ts, ok := dateWrapperMillis(v); ok {
		s.doc.QueryTimestampValues[path] = ts
		return
	}

	switch v.Kind() {
	case KindObject:
		s.doc.SubDocEquals[path] = contentHash(v)
		for _, key := range v.Object().Keys() {
			s.walk(joinPath(path, EscapeKey(key)), v.Object().Get(key))
		}
	case KindArray:
		items := v.Array()
		s.doc.ArraySize[path] = len(items)
		for i, item := range items {
			s.doc.ArrayContains[arrayContainsEntry(path, item)] = struct{}{}
			s.walk(joinPath(path, "["+strconv.Itoa(i)+"]"), item)
		}
	case KindBool:
		s.doc.QueryBoolValues[path] = v.BoolVal()
	case KindNumber:
		s.doc.QueryDblValues[path] = *v.NumVal()
	case KindString:
		s.doc.QueryTextValues[path] = v.StrVal()
	case KindNull:
		s.doc.QueryNullValues[path] = struct{}{}
	}
}

// dateWrapperMillis recognizes the {"$date": <millis>} extended-JSON
// convention used to represent timestamps, since plain JSON has no native
// date type. Any other single-key or multi-key object is a regular
// sub-document.
func dateWrapperMillis(v *Value) (time.Time, bool) {
	if !v.IsObject() || v.Object().Len() != 1 {
		return time.Time{}, false
	}
	keys := v.Object().Keys()
	if keys[0] != "$date" {
		return time.Time{}, false
	}
	dv := v.Object().Get("$date")
	if dv.Kind() != KindNumber {
		return time.Time{}, false
	}
	millis, err := dv.NumVal().Int64()
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis).UTC(), true
}

// DateValue builds the {"$date": millis} wrapper for a Go time, the
// counterpart to dateWrapperMillis, exported for callers constructing
// filter/update operands over timestamp fields.
func DateValue(t time.Time) *Value {
	o := NewObject()
	o.Set("$date", NumberFromInt64(t.UnixMilli()))
	return ObjectValue(o)
}
