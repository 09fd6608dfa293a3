package dataapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/apd/v3"
)

// Kind is the sum type tag of a Value, standing in for the "Jackson tree
// model" node type: every JSON value is exactly one of these six shapes.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBool:
		return "BOOLEAN"
	case KindNumber:
		return "NUMBER"
	case KindString:
		return "STRING"
	case KindArray:
		return "ARRAY"
	case KindObject:
		return "OBJECT"
	default:
		return "UNKNOWN"
	}
}

// Value is our JSON DOM node. Numbers are held as arbitrary-precision
// decimals (apd.Decimal) rather than float64 so that canonicalisation never
// loses precision on round-trip, matching the "numbers preserved as
// decimals" requirement for doc_json.
type Value struct {
	kind Kind
	b    bool
	num  apd.Decimal
	str  string
	arr  []*Value
	obj  *Object
}

// Object is an insertion-ordered string-keyed map, standing in for the
// Jackson ObjectNode: iteration order always matches first-write order,
// and overwriting an existing key does not move it.
type Object struct {
	keys []string
	vals map[string]*Value
}

func NewObject() *Object {
	return &Object{vals: make(map[string]*Value)}
}

func (o *Object) Len() int { return len(o.keys) }

func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

func (o *Object) Get(key string) *Value {
	return o.vals[key]
}

func (o *Object) Has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

// Set inserts key at the end if new, or overwrites its value in place
// (keeping its original position) if the key already exists.
func (o *Object) Set(key string, v *Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// reorderFirst moves key (which must exist) to the front of iteration
// order, used to place "_id" first in canonical output.
func (o *Object) reorderFirst(key string) {
	for i, k := range o.keys {
		if k == key {
			if i == 0 {
				return
			}
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			o.keys = append([]string{key}, o.keys...)
			return
		}
	}
}

func Null() *Value  { return &Value{kind: KindNull} }
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }
func Str(s string) *Value { return &Value{kind: KindString, str: s} }

func NumberFromInt64(i int64) *Value {
	v := &Value{kind: KindNumber}
	v.num.SetInt64(i)
	return v
}

func NumberFromDecimal(d apd.Decimal) *Value {
	v := &Value{kind: KindNumber}
	v.num.Set(&d)
	return v
}

func ObjectValue(o *Object) *Value {
	if o == nil {
		o = NewObject()
	}
	return &Value{kind: KindObject, obj: o}
}

func ArrayValue(items []*Value) *Value {
	return &Value{kind: KindArray, arr: items}
}

func (v *Value) Kind() Kind { return v.kind }
func (v *Value) IsNull() bool   { return v == nil || v.kind == KindNull }
func (v *Value) IsObject() bool { return v != nil && v.kind == KindObject }
func (v *Value) IsArray() bool  { return v != nil && v.kind == KindArray }

func (v *Value) BoolVal() bool { return v.b }
func (v *Value) StrVal() string { return v.str }
func (v *Value) NumVal() *apd.Decimal { return &v.num }

func (v *Value) Object() *Object {
	if v == nil || v.kind != KindObject {
		return nil
	}
	return v.obj
}

func (v *Value) Array() []*Value {
	if v == nil || v.kind != KindArray {
		return nil
	}
	return v.arr
}

func (v *Value) ArrayLen() int {
	if v == nil || v.kind != KindArray {
		return -1
	}
	return len(v.arr)
}

func (v *Value) ArrayAt(i int) *Value {
	if v == nil || v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return nil
	}
	return v.arr[i]
}

func (v *Value) ArraySet(i int, item *Value) {
	v.arr[i] = item
}

func (v *Value) ArrayAppend(item *Value) {
	v.arr = append(v.arr, item)
}

// Equal is deep structural equality, used by $eq/$ne on non-atomic values
// and by the in-memory filter evaluator that double-checks store-side
// predicates.
func Equal(a, b *Value) bool {
	if a.IsNull() && b.IsNull() {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num.Cmp(&b.num) == 0
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, k := range a.obj.keys {
			bv := b.obj.Get(k)
			if bv == nil || !Equal(a.obj.Get(k), bv) {
				return false
			}
		}
		return true
	}
	return false
}

// ParseJSON decodes a single JSON value from data, preserving object key
// insertion order and parsing numbers as exact decimals rather than
// float64.
func ParseJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after JSON value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return parseFromToken(dec, tok)
}

func parseFromToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		d, _, err := apd.NewFromString(t.String())
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return NumberFromDecimal(*d), nil
	case string:
		return Str(t), nil
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return ObjectValue(obj), nil
		case '[':
			var items []*Value
			for dec.More() {
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return ArrayValue(items), nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

// Marshal renders v in canonical form: object keys in insertion order, no
// insignificant whitespace, numbers rendered via their decimal text form.
func Marshal(v *Value) []byte {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v *Value) {
	if v.IsNull() {
		buf.WriteString("null")
		return
	}
	switch v.kind {
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(v.num.String())
	case KindString:
		writeJSONString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, item)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.obj.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, k)
			buf.WriteByte(':')
			writeValue(buf, v.obj.vals[k])
		}
		buf.WriteByte('}')
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
