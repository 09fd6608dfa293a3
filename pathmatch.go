package dataapi

// PathMatch is the result of resolving a DotPath against a document: either
// a location through an object parent (ParentObj != nil), a location
// through an array parent (ParentArr != nil), or a miss (Found == false).
type PathMatch struct {
	Path      *DotPath
	Found     bool
	ParentObj *Object
	ObjKey    string
	ParentArr *Value
	ArrIndex  int
}

func (m PathMatch) Value() *Value {
	if !m.Found {
		return nil
	}
	if m.ParentObj != nil {
		return m.ParentObj.Get(m.ObjKey)
	}
	return m.ParentArr.ArrayAt(m.ArrIndex)
}

// Set overwrites the value at the matched location. The caller must have
// obtained the match via FindOrCreate (or a successful FindIfExists) on
// the same document.
func (m PathMatch) Set(v *Value) {
	if m.ParentObj != nil {
		m.ParentObj.Set(m.ObjKey, v)
		return
	}
	m.ParentArr.ArraySet(m.ArrIndex, v)
}

// Remove deletes the value at the matched location when the parent is an
// object. For an array parent it does nothing, so the element stays in
// place.
func (m PathMatch) Remove() {
	if m.ParentObj != nil {
		m.ParentObj.Delete(m.ObjKey)
	}
}

func missingPath(p *DotPath) PathMatch {
	return PathMatch{Path: p, Found: false}
}

func pathViaObject(p *DotPath, obj *Object, key string) PathMatch {
	return PathMatch{Path: p, Found: true, ParentObj: obj, ObjKey: key}
}

func pathViaArray(p *DotPath, arr *Value, index int) PathMatch {
	return PathMatch{Path: p, Found: true, ParentArr: arr, ArrIndex: index}
}

// FindIfExists resolves p against doc without mutating it. Array traversal
// requires each intervening segment to parse as a non-negative integer;
// any mismatch (missing key, non-object/array parent, non-numeric array
// segment) yields a miss rather than an error. Used by $unset.
func (p *DotPath) FindIfExists(doc *Value) PathMatch {
	context := doc
	last := len(p.segments) - 1

	for i := 0; i < last; i++ {
		seg := p.segments[i]
		switch {
		case context.IsObject():
			context = context.Object().Get(seg.key)
		case context.IsArray():
			if !seg.isIndex {
				return missingPath(p)
			}
			context = context.ArrayAt(seg.index)
		default:
			context = nil
		}
		if context == nil {
			return missingPath(p)
		}
	}

	seg := p.segments[last]
	switch {
	case context.IsObject():
		return pathViaObject(p, context.Object(), seg.key)
	case context.IsArray():
		if !seg.isIndex {
			return missingPath(p)
		}
		return pathViaArray(p, context, seg.index)
	default:
		return missingPath(p)
	}
}

// FindOrCreate resolves p against doc, auto-vivifying missing object
// parents and, for arrays, padding with null up to (but not including) the
// requested index and inserting a fresh object there. It fails with
// UNSUPPORTED_UPDATE_OPERATION_PATH when the path would require creating a
// named property on a non-object (array or scalar) node.
func (p *DotPath) FindOrCreate(doc *Value) (PathMatch, *APIError) {
	context := doc
	last := len(p.segments) - 1

	for i := 0; i < last; i++ {
		seg := p.segments[i]
		var next *Value
		switch {
		case context.IsObject():
			next = context.Object().Get(seg.key)
			if next == nil {
				next = ObjectValue(nil)
				context.Object().Set(seg.key, next)
			}
		case context.IsArray():
			if !seg.isIndex {
				return PathMatch{}, cantCreatePropertyPath(p, seg.key, context)
			}
			next = context.ArrayAt(seg.index)
			if next == nil {
				for context.ArrayLen() < seg.index {
					context.ArrayAppend(Null())
				}
				next = ObjectValue(nil)
				context.ArrayAppend(next)
			}
		default:
			return PathMatch{}, cantCreatePropertyPath(p, seg.key, context)
		}
		context = next
	}

	seg := p.segments[last]
	switch {
	case context.IsObject():
		return pathViaObject(p, context.Object(), seg.key), nil
	case context.IsArray():
		if !seg.isIndex {
			return PathMatch{}, cantCreatePropertyPath(p, seg.key, context)
		}
		for context.ArrayLen() <= seg.index {
			context.ArrayAppend(Null())
		}
		return pathViaArray(p, context, seg.index), nil
	default:
		return PathMatch{}, cantCreatePropertyPath(p, seg.key, context)
	}
}

func cantCreatePropertyPath(p *DotPath, prop string, context *Value) *APIError {
	kind := "null"
	if context != nil {
		kind = context.Kind().String()
	}
	return newAPIError(ErrUnsupportedUpdateOperation,
		"cannot create field ('%s') in path '%s'; only OBJECT nodes have properties (got %s)",
		prop, p.Path(), kind)
}

// FindValue is a non-mutating lookup that returns nil if the path does not
// resolve, without distinguishing why (used by projection and sort).
func (p *DotPath) FindValue(doc *Value) *Value {
	context := doc
	for _, seg := range p.segments {
		if context == nil {
			return nil
		}
		if context.IsArray() && seg.isIndex {
			context = context.ArrayAt(seg.index)
		} else if context.IsObject() {
			context = context.Object().Get(seg.key)
		} else {
			return nil
		}
	}
	return context
}
