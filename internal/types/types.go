// Package types implements TPL's canonicalized (hash-consed) type system:
// primitive, pointer, array, map, struct, function, and nominal SQL/runtime
// (builtin) types. Two types constructed with the same structural inputs
// are always the same *Type instance — type equality is pointer identity.
package types

import "fmt"

// Kind is the closed tag distinguishing type variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNil
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString // source-level literal string type, distinct from StringVal
	KindPointer
	KindArray
	KindMap
	KindStruct
	KindFunction
	KindBuiltin // nominal SQL/runtime type, see Builtin
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindFunction:
		return "function"
	case KindBuiltin:
		return "builtin"
	default:
		return "invalid"
	}
}

// Name is the minimal field-name contract a Struct field needs.
// internal/ident.Identifier satisfies this via its String method; typed as
// an interface here so internal/types does not need to import internal/ident
// (avoiding a needless package coupling for a single method).
type Name interface {
	String() string
}

// Field is one ordered member of a Struct type.
type Field struct {
	Name Name
	Type *Type
}

// Type is the canonical representation of a TPL type. Never construct a
// Type literal directly outside this package; always go through a
// *Context constructor so identical requests are deduplicated.
type Type struct {
	kind Kind

	// Pointer
	elem *Type

	// Array
	length    int  // valid length iff hasLength
	hasLength bool

	// Map
	key *Type
	val *Type

	// Struct
	structName string // empty for anonymous structs
	fields     []Field

	// Function
	params []*Type
	ret    *Type

	// Builtin
	builtin Builtin
}

// Kind reports the type's variant tag.
func (t *Type) Kind() Kind { return t.kind }

// Elem returns the pointee type of a Pointer, or the element type of an
// Array. Panics if t is neither.
func (t *Type) Elem() *Type {
	switch t.kind {
	case KindPointer, KindArray:
		return t.elem
	default:
		panic(fmt.Sprintf("types: Elem on non-pointer/array kind %s", t.kind))
	}
}

// ArrayLen returns the array's compile-time length and whether it is
// known. An array with unknown length decays to "pointer to many" per
// spec.md §3.3.
func (t *Type) ArrayLen() (int, bool) {
	if t.kind != KindArray {
		panic("types: ArrayLen on non-array")
	}
	return t.length, t.hasLength
}

// MapKeyVal returns the key and value types of a Map type.
func (t *Type) MapKeyVal() (*Type, *Type) {
	if t.kind != KindMap {
		panic("types: MapKeyVal on non-map")
	}
	return t.key, t.val
}

// StructName returns the nominal name of a Struct type, or "" if
// anonymous.
func (t *Type) StructName() string {
	if t.kind != KindStruct {
		panic("types: StructName on non-struct")
	}
	return t.structName
}

// Fields returns a struct's ordered field list. Field order is
// significant and part of the type's identity.
func (t *Type) Fields() []Field {
	if t.kind != KindStruct {
		panic("types: Fields on non-struct")
	}
	return t.fields
}

// FieldByName looks up a struct field by name, returning its index and
// type, or ok=false if absent.
func (t *Type) FieldByName(name string) (idx int, field Field, ok bool) {
	if t.kind != KindStruct {
		panic("types: FieldByName on non-struct")
	}
	for i, f := range t.fields {
		if f.Name.String() == name {
			return i, f, true
		}
	}
	return 0, Field{}, false
}

// Params returns a function type's parameter types.
func (t *Type) Params() []*Type {
	if t.kind != KindFunction {
		panic("types: Params on non-function")
	}
	return t.params
}

// Return returns a function type's return type.
func (t *Type) Return() *Type {
	if t.kind != KindFunction {
		panic("types: Return on non-function")
	}
	return t.ret
}

// BuiltinKind returns the nominal builtin kind. Panics if t is not a Builtin
// type.
func (t *Type) BuiltinKind() Builtin {
	if t.kind != KindBuiltin {
		panic("types: BuiltinKind on non-builtin")
	}
	return t.builtin
}

// IsInteger reports whether t is one of the eight signed/unsigned integer
// primitives.
func (t *Type) IsInteger() bool {
	switch t.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	default:
		return false
	}
}

// IsSignedInteger reports whether t is a signed integer primitive.
func (t *Type) IsSignedInteger() bool {
	switch t.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is float32 or float64.
func (t *Type) IsFloat() bool {
	return t.kind == KindFloat32 || t.kind == KindFloat64
}

// IsNumeric reports whether t is an integer or float primitive.
func (t *Type) IsNumeric() bool { return t.IsInteger() || t.IsFloat() }

// IsArithmetic is an alias for IsNumeric, matching spec.md §4.4.2's
// "operands must be arithmetic" wording for unary '-' and binary ops.
func (t *Type) IsArithmetic() bool { return t.IsNumeric() }

// IsSQLValue reports whether t is one of the nominal SQL value builtins
// (Integer, Real, Boolean, Date, Timestamp, StringVal).
func (t *Type) IsSQLValue() bool {
	if t.kind != KindBuiltin {
		return false
	}
	switch t.builtin {
	case BuiltinInteger, BuiltinReal, BuiltinBoolean, BuiltinDate, BuiltinTimestamp, BuiltinStringVal:
		return true
	default:
		return false
	}
}

func (t *Type) String() string {
	switch t.kind {
	case KindPointer:
		return "*" + t.elem.String()
	case KindArray:
		if t.hasLength {
			return fmt.Sprintf("[%d]%s", t.length, t.elem.String())
		}
		return "[*]" + t.elem.String()
	case KindMap:
		return fmt.Sprintf("map[%s]%s", t.key.String(), t.val.String())
	case KindStruct:
		if t.structName != "" {
			return t.structName
		}
		return "struct{...}"
	case KindFunction:
		s := "("
		for i, p := range t.params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ") -> " + t.ret.String()
	case KindBuiltin:
		return t.builtin.String()
	default:
		return t.kind.String()
	}
}
