package dataapi

import "testing"

func TestParseDotPathSegments(t *testing.T) {
	p, err := ParseDotPath("a.b.0.c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Path() != "a.b.0.c" {
		t.Fatalf("Path() = %q", p.Path())
	}
	if len(p.segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(p.segments))
	}
	if !p.segments[2].isIndex || p.segments[2].index != 0 {
		t.Fatalf("expected segment 2 to be index 0, got %+v", p.segments[2])
	}
}

func TestParseDotPathRejectsEmptySegment(t *testing.T) {
	if _, err := ParseDotPath("a..b"); err == nil {
		t.Fatal("expected error for empty segment")
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	key := "a.weird[key]\\here"
	escaped := EscapeKey(key)
	p, err := ParseDotPath(escaped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.segments) != 1 {
		t.Fatalf("expected single segment, got %d", len(p.segments))
	}
	if p.segments[0].key != key {
		t.Fatalf("unescaped key = %q, want %q", p.segments[0].key, key)
	}
}

func TestDotPathIsSubPathOf(t *testing.T) {
	parent, _ := ParseDotPath("a.b")
	child, _ := ParseDotPath("a.b.c")
	sibling, _ := ParseDotPath("a.bc")
	if !child.IsSubPathOf(parent) {
		t.Error("expected a.b.c to be a sub-path of a.b")
	}
	if sibling.IsSubPathOf(parent) {
		t.Error("expected a.bc to not be a sub-path of a.b")
	}
	if parent.IsSubPathOf(parent) {
		t.Error("expected a path to not be a sub-path of itself")
	}
}

func TestDotPathCompareOrdersAncestorFirst(t *testing.T) {
	paths := []string{"a.b.c", "a.b", "a", "a.a"}
	var parsed []*DotPath
	for _, s := range paths {
		p, err := ParseDotPath(s)
		if err != nil {
			t.Fatal(err)
		}
		parsed = append(parsed, p)
	}
	SortDotPaths(parsed)
	var got []string
	for _, p := range parsed {
		got = append(got, p.Path())
	}
	want := []string{"a", "a.a", "a.b", "a.b.c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", got, want)
		}
	}
}
