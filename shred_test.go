package dataapi

import (
	"testing"
	"time"
)

func TestShredRequiresObject(t *testing.T) {
	if _, err := Shred(NumberFromInt64(1)); err == nil {
		t.Fatal("expected error shredding a non-object")
	}
}

func TestShredAssignsIDWhenMissing(t *testing.T) {
	doc, _ := ParseJSON([]byte(`{"a":1}`))
	sd, err := Shred(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sd.ID.Tag() != uint8(docIDTagUUID) {
		t.Fatalf("expected generated UUID id, got tag %d", sd.ID.Tag())
	}
	out, perr := ParseJSON(sd.DocJSON)
	if perr != nil {
		t.Fatalf("doc_json did not parse: %v", perr)
	}
	if out.Object().Keys()[0] != "_id" {
		t.Fatalf("expected _id first in canonical doc, got %v", out.Object().Keys())
	}
}

func TestShredIndexColumns(t *testing.T) {
	doc, _ := ParseJSON([]byte(`{
		"_id": "doc1",
		"name": "alice",
		"age": 30,
		"active": true,
		"tag": null,
		"address": {"city": "nyc"},
		"scores": [1, 2, 3],
		"created": {"$date": 1700000000000}
	}`))
	sd, err := Shred(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sd.ID.Text() != "doc1" {
		t.Fatalf("expected id doc1, got %s", sd.ID.Text())
	}
	if sd.QueryTextValues["name"] != "alice" {
		t.Errorf("expected name=alice in query_text_values, got %v", sd.QueryTextValues)
	}
	if age := sd.QueryDblValues["age"]; age.String() != "30" {
		t.Errorf("expected age=30 in query_dbl_values, got %v", age)
	}
	if !sd.QueryBoolValues["active"] {
		t.Errorf("expected active=true in query_bool_values")
	}
	if _, ok := sd.QueryNullValues["tag"]; !ok {
		t.Errorf("expected tag in query_null_values")
	}
	if _, ok := sd.SubDocEquals["address"]; !ok {
		t.Errorf("expected address in sub_doc_equals")
	}
	if sd.QueryTextValues["address.city"] != "nyc" {
		t.Errorf("expected address.city=nyc, got %v", sd.QueryTextValues)
	}
	if sd.ArraySize["scores"] != 3 {
		t.Errorf("expected scores array_size=3, got %d", sd.ArraySize["scores"])
	}
	if _, ok := sd.ArrayContains["scores|n|2"]; !ok {
		t.Errorf("expected array_contains entry scores|n|2, got %v", sd.ArrayContains)
	}
	if sd.QueryTimestampValues["created"].IsZero() {
		t.Errorf("expected created to be shredded as a timestamp")
	}
	for _, key := range []string{"name", "age", "active", "tag", "address", "scores", "created"} {
		if _, ok := sd.ExistKeys[key]; !ok {
			t.Errorf("expected %q in exist_keys", key)
		}
	}
	if _, ok := sd.ExistKeys["_id"]; ok {
		t.Error("expected _id to never appear in exist_keys")
	}
}

func TestShredScenario1(t *testing.T) {
	doc, _ := ParseJSON([]byte(`{"_id":"abc","name":"Bob","values":[1,2],"[extra.stuff]":true,"nullable":null}`))
	sd, err := Shred(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"name", "values", "values.[0]", "values.[1]", `\[extra\.stuff]`, "nullable"}
	if len(sd.DocFieldOrder) != len(wantOrder) {
		t.Fatalf("docFieldOrder length mismatch, got %v", sd.DocFieldOrder)
	}
	for i, want := range wantOrder {
		if sd.DocFieldOrder[i] != want {
			t.Errorf("docFieldOrder[%d] = %q, want %q", i, sd.DocFieldOrder[i], want)
		}
	}

	if sd.ArraySize["values"] != 2 {
		t.Errorf("expected values array_size=2, got %d", sd.ArraySize["values"])
	}
	if !sd.QueryBoolValues[`\[extra\.stuff]`] {
		t.Errorf(`expected query_bool_values["\[extra\.stuff]"]=true, got %v`, sd.QueryBoolValues)
	}
	if sd.QueryTextValues["name"] != "Bob" {
		t.Errorf("expected query_text_values[name]=Bob, got %v", sd.QueryTextValues)
	}
	if _, ok := sd.QueryNullValues["nullable"]; !ok {
		t.Errorf("expected nullable in query_null_values")
	}
	if v0 := sd.QueryDblValues["values.[0]"]; v0.String() != "1" {
		t.Errorf("expected query_dbl_values[values.[0]]=1, got %v", v0)
	}
	if v1 := sd.QueryDblValues["values.[1]"]; v1.String() != "2" {
		t.Errorf("expected query_dbl_values[values.[1]]=2, got %v", v1)
	}
}

func TestShredArrayIndexVsObjectKeyDoNotCollide(t *testing.T) {
	arrDoc, _ := ParseJSON([]byte(`{"_id":"a","a":["x"]}`))
	objDoc, _ := ParseJSON([]byte(`{"_id":"b","a":{"0":"x"}}`))

	arrSd, err := Shred(arrDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	objSd, err := Shred(objDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if arrSd.QueryTextValues["a.[0]"] != "x" {
		t.Errorf(`expected array element under "a.[0]", got %v`, arrSd.QueryTextValues)
	}
	if objSd.QueryTextValues["a.0"] != "x" {
		t.Errorf(`expected object key under "a.0", got %v`, objSd.QueryTextValues)
	}
	if _, collide := arrSd.QueryTextValues["a.0"]; collide {
		t.Errorf("array index path must not collide with the plain-digit object key path")
	}
}

func TestShredVectorField(t *testing.T) {
	doc, _ := ParseJSON([]byte(`{"_id":"v1","$vector":[0.1, 0.2, 0.3], "name": "x"}`))
	sd, err := Shred(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sd.QueryVectorValue) != 3 {
		t.Fatalf("expected 3-dim vector, got %v", sd.QueryVectorValue)
	}
	if sd.QueryVectorValue[1] != float32(0.2) {
		t.Fatalf("expected vector[1]=0.2, got %v", sd.QueryVectorValue[1])
	}
	if _, ok := sd.ExistKeys["$vector"]; ok {
		t.Error("expected $vector to be excluded from exist_keys")
	}
	out, _ := ParseJSON(sd.DocJSON)
	if out.Object().Get("$vector") == nil {
		t.Error("expected $vector to survive in doc_json")
	}
}

func TestShredRejectsNonNumericVector(t *testing.T) {
	doc, _ := ParseJSON([]byte(`{"_id":"v1","$vector":["x"]}`))
	if _, err := Shred(doc); err == nil {
		t.Fatal("expected error for non-numeric vector element")
	}
}

func TestDateValueRoundTrip(t *testing.T) {
	doc, _ := ParseJSON([]byte(`{"_id":"d1"}`))
	obj := doc.Object()
	obj.Set("at", DateValue(time.UnixMilli(1600000000000)))
	sd, err := Shred(ObjectValue(obj))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sd.QueryTimestampValues["at"].UnixMilli() != 1600000000000 {
		t.Fatalf("expected millis to round trip, got %v", sd.QueryTimestampValues["at"])
	}
}
