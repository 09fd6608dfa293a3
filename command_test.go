package dataapi

import "testing"

func TestParseCommandEnvelopeHappyPath(t *testing.T) {
	cmd, err := ParseCommandEnvelope([]byte(`{"insertOne":{"document":{"_id":1}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Tag != CmdInsertOne {
		t.Fatalf("expected tag insertOne, got %s", cmd.Tag)
	}
	if cmd.Params.Object().Get("document").Object().Get("_id").NumVal().String() != "1" {
		t.Fatal("expected params to carry through the document")
	}
}

func TestParseCommandEnvelopeMalformedJSON(t *testing.T) {
	_, err := ParseCommandEnvelope([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected an error")
	}
	jpe, ok := err.(*jsonParseError)
	if !ok {
		t.Fatalf("expected *jsonParseError, got %T", err)
	}
	if jpe.ExceptionClass() != "JsonParseException" {
		t.Fatalf("unexpected exception class %s", jpe.ExceptionClass())
	}
}

func TestParseCommandEnvelopeWrongKeyCount(t *testing.T) {
	for _, body := range []string{`{}`, `{"insertOne":{},"deleteOne":{}}`} {
		_, err := ParseCommandEnvelope([]byte(body))
		if err == nil {
			t.Fatalf("expected an error for body %s", body)
		}
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("expected *ValidationError for body %s, got %T", body, err)
		}
	}
}

func TestParseCommandEnvelopeUnknownTag(t *testing.T) {
	_, err := ParseCommandEnvelope([]byte(`{"frobnicate":{}}`))
	if err == nil {
		t.Fatal("expected an error")
	}
	re, ok := err.(*resolverError)
	if !ok {
		t.Fatalf("expected *resolverError, got %T", err)
	}
	if re.ExceptionClass() != "InvalidTypeIdException" {
		t.Fatalf("unexpected exception class %s", re.ExceptionClass())
	}
}

func TestCommandResultMarshalEnvelopeShape(t *testing.T) {
	res := &CommandResult{
		Status: statusOK(),
		Errors: []CommandError{{Message: "boom", ErrorCode: "TOO_MANY_INDEXES", ExceptionClass: "DataApiException"}},
	}
	out := res.MarshalEnvelope()
	v, err := ParseJSON(out)
	if err != nil {
		t.Fatalf("marshaled envelope did not round-trip as JSON: %v", err)
	}
	if v.Object().Get("status").Object().Get("ok").NumVal().String() != "1" {
		t.Fatal("expected status.ok=1")
	}
	errs := v.Object().Get("errors").Array()
	if len(errs) != 1 || errs[0].Object().Get("errorCode").StrVal() != "TOO_MANY_INDEXES" {
		t.Fatalf("expected one TOO_MANY_INDEXES error, got %s", out)
	}
	if v.Object().Get("data") != nil {
		t.Fatal("expected no data field when Data is nil")
	}
}
