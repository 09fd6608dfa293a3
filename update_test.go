package dataapi

import "testing"

func mustUpdate(t *testing.T, clause string) []UpdateAction {
	t.Helper()
	v, err := ParseJSON([]byte(clause))
	if err != nil {
		t.Fatal(err)
	}
	actions, apiErr := ParseUpdate(v)
	if apiErr != nil {
		t.Fatalf("ParseUpdate(%s) failed: %v", clause, apiErr)
	}
	return actions
}

func TestParseUpdateRejectsUnknownOperator(t *testing.T) {
	v, _ := ParseJSON([]byte(`{"$bogus":{"a":1}}`))
	if _, err := ParseUpdate(v); err == nil {
		t.Fatal("expected error for unknown update operator")
	}
}

func TestParseUpdateRejectsIDField(t *testing.T) {
	v, _ := ParseJSON([]byte(`{"$set":{"_id":"x"}}`))
	if _, err := ParseUpdate(v); err == nil {
		t.Fatal("expected error updating _id")
	}
}

func TestParseUpdateRejectsAncestorDescendantConflict(t *testing.T) {
	v, _ := ParseJSON([]byte(`{"$set":{"a":1,"a.b":2}}`))
	if _, err := ParseUpdate(v); err == nil {
		t.Fatal("expected conflict error for a and a.b")
	}
}

func applyClause(t *testing.T, docJSON, updateJSON string, upsert bool) *Value {
	t.Helper()
	doc, err := ParseJSON([]byte(docJSON))
	if err != nil {
		t.Fatal(err)
	}
	actions := mustUpdate(t, updateJSON)
	sd, apiErr := ApplyUpdate(doc, actions, upsert)
	if apiErr != nil {
		t.Fatalf("ApplyUpdate failed: %v", apiErr)
	}
	out, perr := ParseJSON(sd.DocJSON)
	if perr != nil {
		t.Fatal(perr)
	}
	return out
}

func TestApplySet(t *testing.T) {
	out := applyClause(t, `{"_id":"1","a":1}`, `{"$set":{"a":2,"b.c":3}}`, false)
	if out.Object().Get("a").NumVal().String() != "2" {
		t.Fatalf("expected a=2, got %v", out.Object().Get("a"))
	}
	nested, _ := ParseDotPath("b.c")
	if nested.FindValue(out).NumVal().String() != "3" {
		t.Fatalf("expected b.c=3")
	}
}

func TestApplyUnset(t *testing.T) {
	out := applyClause(t, `{"_id":"1","a":1,"b":2}`, `{"$unset":{"a":""}}`, false)
	if out.Object().Has("a") {
		t.Fatal("expected a to be removed")
	}
	if !out.Object().Has("b") {
		t.Fatal("expected b to remain")
	}
}

func TestApplyIncAndMul(t *testing.T) {
	out := applyClause(t, `{"_id":"1","a":10}`, `{"$inc":{"a":5}}`, false)
	if out.Object().Get("a").NumVal().String() != "15" {
		t.Fatalf("expected a=15, got %v", out.Object().Get("a"))
	}
	out2 := applyClause(t, `{"_id":"1","a":10}`, `{"$mul":{"a":3}}`, false)
	if out2.Object().Get("a").NumVal().String() != "30" {
		t.Fatalf("expected a=30, got %v", out2.Object().Get("a"))
	}
}

func TestApplyIncOnMissingCreatesFromZero(t *testing.T) {
	out := applyClause(t, `{"_id":"1"}`, `{"$inc":{"a":5}}`, false)
	if out.Object().Get("a").NumVal().String() != "5" {
		t.Fatalf("expected a=5, got %v", out.Object().Get("a"))
	}
}

func TestApplyIncOnNonNumericFails(t *testing.T) {
	doc, _ := ParseJSON([]byte(`{"_id":"1","a":"x"}`))
	actions := mustUpdate(t, `{"$inc":{"a":1}}`)
	if _, err := ApplyUpdate(doc, actions, false); err == nil {
		t.Fatal("expected error incrementing a non-numeric field")
	}
}

func TestApplyMinMax(t *testing.T) {
	out := applyClause(t, `{"_id":"1","a":10}`, `{"$min":{"a":5}}`, false)
	if out.Object().Get("a").NumVal().String() != "5" {
		t.Fatalf("expected $min to lower to 5, got %v", out.Object().Get("a"))
	}
	out2 := applyClause(t, `{"_id":"1","a":10}`, `{"$max":{"a":5}}`, false)
	if out2.Object().Get("a").NumVal().String() != "10" {
		t.Fatalf("expected $max to keep 10, got %v", out2.Object().Get("a"))
	}
}

func TestApplyPushAndAddToSet(t *testing.T) {
	out := applyClause(t, `{"_id":"1","tags":["a"]}`, `{"$push":{"tags":"b"}}`, false)
	tags := out.Object().Get("tags")
	if tags.ArrayLen() != 2 {
		t.Fatalf("expected 2 tags after push, got %d", tags.ArrayLen())
	}

	out2 := applyClause(t, `{"_id":"1","tags":["a"]}`, `{"$addToSet":{"tags":"a"}}`, false)
	if out2.Object().Get("tags").ArrayLen() != 1 {
		t.Fatal("expected $addToSet to be a no-op for an existing element")
	}
}

func TestApplyPop(t *testing.T) {
	out := applyClause(t, `{"_id":"1","tags":["a","b","c"]}`, `{"$pop":{"tags":1}}`, false)
	if out.Object().Get("tags").ArrayLen() != 2 {
		t.Fatal("expected pop from end to remove one element")
	}
	out2 := applyClause(t, `{"_id":"1","tags":["a","b","c"]}`, `{"$pop":{"tags":-1}}`, false)
	first := out2.Object().Get("tags").ArrayAt(0)
	if first.StrVal() != "b" {
		t.Fatalf("expected pop from front to leave b first, got %v", first)
	}
}

func TestApplyRename(t *testing.T) {
	out := applyClause(t, `{"_id":"1","a":1}`, `{"$rename":{"a":"b"}}`, false)
	if out.Object().Has("a") {
		t.Fatal("expected a to be removed after rename")
	}
	if out.Object().Get("b").NumVal().String() != "1" {
		t.Fatalf("expected b=1 after rename, got %v", out.Object().Get("b"))
	}
}

func TestApplySetOnInsertOnlyOnUpsert(t *testing.T) {
	notInserted := applyClause(t, `{"_id":"1"}`, `{"$setOnInsert":{"a":1}}`, false)
	if notInserted.Object().Has("a") {
		t.Fatal("expected $setOnInsert to be skipped on a plain update")
	}
	inserted := applyClause(t, `{"_id":"1"}`, `{"$setOnInsert":{"a":1}}`, true)
	if !inserted.Object().Has("a") {
		t.Fatal("expected $setOnInsert to apply on upsert-insert")
	}
}
