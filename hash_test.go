package dataapi

import "testing"

func TestContentHashDeterministicAndSensitive(t *testing.T) {
	a, _ := ParseJSON([]byte(`{"x":1,"y":[1,2]}`))
	b, _ := ParseJSON([]byte(`{"x":1,"y":[1,2]}`))
	c, _ := ParseJSON([]byte(`{"x":1,"y":[1,3]}`))

	if contentHash(a) != contentHash(b) {
		t.Fatal("expected identical documents to hash the same")
	}
	if contentHash(a) == contentHash(c) {
		t.Fatal("expected different documents to hash differently")
	}
}

func TestArrayContainsEntryTypeTags(t *testing.T) {
	cases := []struct {
		v    *Value
		want string
	}{
		{Str("hi"), "p|s|hi"},
		{NumberFromInt64(5), "p|n|5"},
		{Bool(true), "p|b|true"},
		{Null(), "p|z|null"},
	}
	for _, c := range cases {
		got := arrayContainsEntry("p", c.v)
		if got != c.want {
			t.Errorf("arrayContainsEntry(p, %v) = %q, want %q", c.v, got, c.want)
		}
	}

	obj, _ := ParseJSON([]byte(`{"a":1}`))
	got := arrayContainsEntry("p", obj)
	if got[:4] != "p|h|" {
		t.Errorf("expected object entry to use the hash tag, got %q", got)
	}
}
