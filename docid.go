package dataapi

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// docIDTag is the tinyint half of the "key" tuple<tinyint,text> primary
// key column: it records which of the five possible _id shapes produced
// the text half, so the text can be decoded back losslessly.
type docIDTag uint8

const (
	docIDTagString docIDTag = iota
	docIDTagNumber
	docIDTagBoolean
	docIDTagNull
	docIDTagUUID
)

// DocID is the tagged _id value. It never appears in any query_* column;
// it is encoded only into the primary key and echoed back verbatim inside
// doc_json.
type DocID struct {
	tag  docIDTag
	str  string
	num  apd.Decimal
	b    bool
	uuid uuid.UUID
}

func DocIDFromString(s string) DocID { return DocID{tag: docIDTagString, str: s} }
func DocIDFromBool(b bool) DocID     { return DocID{tag: docIDTagBoolean, b: b} }
func DocIDNull() DocID               { return DocID{tag: docIDTagNull} }

func DocIDFromDecimal(d apd.Decimal) DocID {
	id := DocID{tag: docIDTagNumber}
	id.num.Set(&d)
	return id
}

func DocIDFromUUID(u uuid.UUID) DocID { return DocID{tag: docIDTagUUID, uuid: u} }

// NewDocID generates a fresh random-UUID _id, used when insertOne receives
// a document with no "_id" field.
func NewDocID() DocID { return DocIDFromUUID(uuid.New()) }

// Tag returns the tinyint component of the (tag, text) primary key tuple.
func (id DocID) Tag() uint8 { return uint8(id.tag) }

// Text returns the text component of the (tag, text) primary key tuple:
// a stable, type-disambiguated string form of the id.
func (id DocID) Text() string {
	switch id.tag {
	case docIDTagString:
		return id.str
	case docIDTagNumber:
		return id.num.String()
	case docIDTagBoolean:
		if id.b {
			return "true"
		}
		return "false"
	case docIDTagNull:
		return ""
	case docIDTagUUID:
		return id.uuid.String()
	default:
		return ""
	}
}

// Value renders the id back into its original JSON shape, e.g. for
// re-inserting "_id" as the first field of doc_json.
func (id DocID) Value() *Value {
	switch id.tag {
	case docIDTagString:
		return Str(id.str)
	case docIDTagNumber:
		return NumberFromDecimal(id.num)
	case docIDTagBoolean:
		return Bool(id.b)
	case docIDTagNull:
		return Null()
	case docIDTagUUID:
		return Str(id.uuid.String())
	default:
		return Null()
	}
}

func (id DocID) String() string {
	return fmt.Sprintf("%d|%s", id.tag, id.Text())
}

func (id DocID) Equal(other DocID) bool {
	return id.tag == other.tag && id.Text() == other.Text()
}

// docIDFromValue converts a JSON value found (or absent) at "_id" into a
// DocID, per shred.go's rules: absent -> fresh UUID, array/object -> error.
func docIDFromValue(v *Value) (DocID, *APIError) {
	if v == nil || v.IsNull() {
		if v == nil {
			return NewDocID(), nil
		}
		return DocIDNull(), nil
	}
	switch v.Kind() {
	case KindString:
		return DocIDFromString(v.StrVal()), nil
	case KindNumber:
		return DocIDFromDecimal(*v.NumVal()), nil
	case KindBool:
		return DocIDFromBool(v.BoolVal()), nil
	case KindArray, KindObject:
		return DocID{}, newAPIError(ErrShredBadDocIDType,
			"Document Id must be a JSON String, Number, Boolean or null, instead got %s", v.Kind())
	default:
		return DocID{}, newAPIError(ErrShredBadDocIDType, "unrecognized _id type")
	}
}
