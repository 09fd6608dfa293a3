package dataapi

import (
	"sort"
	"strconv"
	"strings"
)

// DotPath is a parsed dotted path: a non-empty sequence of segments, each
// either a literal object key or a base-10 array index. It implements a
// total order (Compare) under which every path sorts immediately before
// its own descendants, so that update.go can detect ancestor/descendant
// locator conflicts by sorting.
type DotPath struct {
	raw      string // canonical escaped dotted form, used as the exist_keys/query_* map key
	segments []pathSegment
}

type pathSegment struct {
	raw     string // escaped form, exactly as it appears between dots in raw
	key     string // unescaped form, used to address an object property
	isIndex bool
	index   int
}

// EscapeKey escapes an object key so it can be safely embedded as one
// segment of a materialized storage path: a literal '.' would otherwise be
// read as a separator, and a literal '[' would otherwise look like the
// start of an array-index segment. The closing ']' is left unescaped since
// it never opens ambiguity on its own; matches the original shredder's
// escaping, which likewise leaves ']' alone.
func EscapeKey(key string) string {
	var buf strings.Builder
	buf.Grow(len(key))
	for _, r := range key {
		switch r {
		case '.', '[', '\\':
			buf.WriteByte('\\')
		}
		buf.WriteRune(r)
	}
	return buf.String()
}

func unescapeSegment(escaped string) string {
	var buf strings.Builder
	buf.Grow(len(escaped))
	for i := 0; i < len(escaped); i++ {
		c := escaped[i]
		if c == '\\' && i+1 < len(escaped) {
			i++
			buf.WriteByte(escaped[i])
			continue
		}
		buf.WriteByte(c)
	}
	return buf.String()
}

// joinPath appends an already-escaped segment to a parent path, or starts
// a fresh path if parent is empty. Used by the shredder, which builds
// paths segment-by-segment while walking a document.
func joinPath(parent string, escapedSegment string) string {
	if parent == "" {
		return escapedSegment
	}
	return parent + "." + escapedSegment
}

// ParseDotPath splits a dotted path string into segments, honoring
// backslash-escaped dots and brackets within a segment. It rejects empty
// segments with UNSUPPORTED_UPDATE_OPERATION_PATH, matching the original
// locator's only validation rule.
func ParseDotPath(dotPath string) (*DotPath, *APIError) {
	rawSegments, err := splitEscaped(dotPath)
	if err != nil {
		return nil, err
	}
	segs := make([]pathSegment, len(rawSegments))
	for i, raw := range rawSegments {
		key := unescapeSegment(raw)
		idx, isIndex := parseIndexSegment(key)
		segs[i] = pathSegment{raw: raw, key: key, isIndex: isIndex, index: idx}
	}
	return &DotPath{raw: dotPath, segments: segs}, nil
}

func splitEscaped(dotPath string) ([]string, *APIError) {
	var segments []string
	var cur strings.Builder
	for i := 0; i < len(dotPath); i++ {
		c := dotPath[i]
		if c == '\\' && i+1 < len(dotPath) {
			cur.WriteByte(c)
			cur.WriteByte(dotPath[i+1])
			i++
			continue
		}
		if c == '.' {
			segments = append(segments, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	segments = append(segments, cur.String())
	for _, s := range segments {
		if s == "" {
			return nil, newAPIError(ErrUnsupportedUpdateOperation,
				"empty segment ('') in path '%s'", dotPath)
		}
	}
	return segments, nil
}

func parseIndexSegment(key string) (int, bool) {
	if key == "0" {
		return 0, true
	}
	if key == "" || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	for i := 1; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Path returns the canonical escaped dotted string, matching the form
// used as a key in exist_keys/array_size/query_* columns.
func (p *DotPath) Path() string { return p.raw }

func (p *DotPath) String() string { return p.raw }

// IsSubPathOf reports whether other is a proper prefix of p, followed
// immediately by a '.'. Equal paths are not sub-paths of each other.
func (p *DotPath) IsSubPathOf(other *DotPath) bool {
	parent, this := other.raw, p.raw
	return strings.HasPrefix(this, parent) &&
		len(parent) < len(this) &&
		this[len(parent)] == '.'
}

// Compare implements the spec's ancestor-before-descendant total order:
// segment-wise lexicographic on the raw (escaped) segment text, then
// shorter-before-longer at a shared prefix.
func (p *DotPath) Compare(other *DotPath) int {
	n := len(p.segments)
	if len(other.segments) < n {
		n = len(other.segments)
	}
	for i := 0; i < n; i++ {
		a, b := p.segments[i].raw, other.segments[i].raw
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return len(p.segments) - len(other.segments)
}

// SortDotPaths sorts a slice of *DotPath in the spec's total order.
func SortDotPaths(paths []*DotPath) {
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Compare(paths[j]) < 0
	})
}
