package dataapi

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// contentHash returns a stable 64-bit content hash of v, used wherever the
// shredder needs to fold an object or array value down to a single
// comparable token: sub_doc_equals entries and the array_contains entry
// for an array/object element.
func contentHash(v *Value) uint64 {
	return xxhash.Sum64(Marshal(v))
}

// arrayContainsEntry builds one "path|type-tag|hash-or-literal" entry for
// array_contains, per the shredding contract in §4.2.
func arrayContainsEntry(path string, v *Value) string {
	switch v.Kind() {
	case KindString:
		return path + "|s|" + v.StrVal()
	case KindNumber:
		return path + "|n|" + v.NumVal().String()
	case KindBool:
		return path + "|b|" + strconv.FormatBool(v.BoolVal())
	case KindNull:
		return path + "|z|null"
	default:
		return path + "|h|" + strconv.FormatUint(contentHash(v), 16)
	}
}
