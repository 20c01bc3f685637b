package types

import (
	"fmt"
	"strings"
)

// Context owns the canonical type tables for one compilation context.
// Construction operations (PointerTo, ArrayOf, ...) always return the same
// *Type instance for structurally identical requests — see spec.md §8
// invariant 1 ("Canonicalization").
type Context struct {
	primitives map[Kind]*Type
	builtins   map[Builtin]*Type
	pointers   map[*Type]*Type
	arrays     map[arrayKey]*Type
	maps       map[mapKey]*Type
	structs    map[string]*Type // keyed by canonical field signature
	functions  map[string]*Type
}

type arrayKey struct {
	elem      *Type
	length    int
	hasLength bool
}

type mapKey struct{ key, val *Type }

// NewContext creates an empty, ready-to-use type Context.
func NewContext() *Context {
	c := &Context{
		primitives: make(map[Kind]*Type),
		builtins:   make(map[Builtin]*Type),
		pointers:   make(map[*Type]*Type),
		arrays:     make(map[arrayKey]*Type),
		maps:       make(map[mapKey]*Type),
		structs:    make(map[string]*Type),
		functions:  make(map[string]*Type),
	}
	return c
}

// Primitive returns the canonical instance for a primitive kind (Nil,
// Bool, the integer widths, the float widths, or String). Panics if kind
// is not a primitive kind.
func (c *Context) Primitive(kind Kind) *Type {
	switch kind {
	case KindNil, KindBool, KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindFloat32, KindFloat64, KindString:
		// fallthrough to lookup below
	default:
		panic("types: Primitive called with non-primitive kind")
	}
	if t, ok := c.primitives[kind]; ok {
		return t
	}
	t := &Type{kind: kind}
	c.primitives[kind] = t
	return t
}

// BuiltinType returns the canonical nominal builtin type instance.
func (c *Context) BuiltinType(b Builtin) *Type {
	if t, ok := c.builtins[b]; ok {
		return t
	}
	t := &Type{kind: KindBuiltin, builtin: b}
	c.builtins[b] = t
	return t
}

// PointerTo returns the canonical Pointer(elem) type. Unique per pointee,
// per spec.md §3.3.
func (c *Context) PointerTo(elem *Type) *Type {
	if t, ok := c.pointers[elem]; ok {
		return t
	}
	t := &Type{kind: KindPointer, elem: elem}
	c.pointers[elem] = t
	return t
}

// ArrayOf returns the canonical Array type. Pass hasLength=false for an
// array of unknown length (decays to pointer-to-many, spec.md §3.3).
func (c *Context) ArrayOf(length int, hasLength bool, elem *Type) *Type {
	if !hasLength {
		length = 0
	}
	k := arrayKey{elem: elem, length: length, hasLength: hasLength}
	if t, ok := c.arrays[k]; ok {
		return t
	}
	t := &Type{kind: KindArray, elem: elem, length: length, hasLength: hasLength}
	c.arrays[k] = t
	return t
}

// MapOf returns the canonical Map(key, val) type. Map is a front-end-only
// type surface per spec.md §9's Open Questions — no runtime container is
// required, but the type still canonicalizes like any other shape.
func (c *Context) MapOf(key, val *Type) *Type {
	k := mapKey{key: key, val: val}
	if t, ok := c.maps[k]; ok {
		return t
	}
	t := &Type{kind: KindMap, key: key, val: val}
	c.maps[k] = t
	return t
}

// StructOf returns the canonical Struct type for the given name (empty for
// anonymous) and ordered field list. Field order is part of the type's
// identity per spec.md §3.3.
func (c *Context) StructOf(name string, fields []Field) *Type {
	key := structKey(name, fields)
	if t, ok := c.structs[key]; ok {
		return t
	}
	t := &Type{kind: KindStruct, structName: name, fields: append([]Field(nil), fields...)}
	c.structs[key] = t
	return t
}

func structKey(name string, fields []Field) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(0)
	for _, f := range fields {
		b.WriteString(f.Name.String())
		b.WriteByte(0)
		// Field.Type is itself already canonical, so its pointer value is
		// a stable, comparable proxy for its identity in the key.
		b.WriteString(typePointerKey(f.Type))
		b.WriteByte(0)
	}
	return b.String()
}

// Function returns the canonical Function(params, ret) type.
func (c *Context) Function(params []*Type, ret *Type) *Type {
	key := functionKey(params, ret)
	if t, ok := c.functions[key]; ok {
		return t
	}
	t := &Type{kind: KindFunction, params: append([]*Type(nil), params...), ret: ret}
	c.functions[key] = t
	return t
}

func functionKey(params []*Type, ret *Type) string {
	var b strings.Builder
	for _, p := range params {
		b.WriteString(typePointerKey(p))
		b.WriteByte(0)
	}
	b.WriteByte('>')
	b.WriteString(typePointerKey(ret))
	return b.String()
}

// typePointerKey renders a *Type's identity as a map-key-safe string. Since
// all *Type values reachable here are themselves canonical (constructed
// only through this Context), their pointer value is a legitimate identity
// proxy.
func typePointerKey(t *Type) string {
	return fmt.Sprintf("%p", t)
}
