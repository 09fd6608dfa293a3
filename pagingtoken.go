package dataapi

import (
	"encoding/base64"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// EncodePageState renders a DocID as the opaque continuation token
// returned when a Find hits the page size limit (§4.6).
func EncodePageState(id DocID) string {
	raw := append([]byte{id.Tag()}, []byte(id.Text())...)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodePageState parses a continuation token back into the DocID to
// resume scanning strictly after.
func DecodePageState(token string) (*DocID, *APIError) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < 1 {
		return nil, newAPIError(ErrUnsupportedFilterDataType, "invalid page state token")
	}
	tag, text := raw[0], string(raw[1:])
	var id DocID
	switch tag {
	case uint8(docIDTagString):
		id = DocIDFromString(text)
	case uint8(docIDTagBoolean):
		id = DocIDFromBool(text == "true")
	case uint8(docIDTagNull):
		id = DocIDNull()
	case uint8(docIDTagNumber):
		d, _, err := apd.NewFromString(text)
		if err != nil {
			return nil, newAPIError(ErrUnsupportedFilterDataType, "invalid page state token")
		}
		id = DocIDFromDecimal(*d)
	case uint8(docIDTagUUID):
		u, err := uuid.Parse(text)
		if err != nil {
			return nil, newAPIError(ErrUnsupportedFilterDataType, "invalid page state token")
		}
		id = DocIDFromUUID(u)
	default:
		return nil, newAPIError(ErrUnsupportedFilterDataType, "invalid page state token")
	}
	return &id, nil
}
