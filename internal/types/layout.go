package types

import "fmt"

// pointerSize is sizeof(void*) on the target platform. The back end
// targets 64-bit hosts exclusively (matching the original C++
// implementation's assumption).
const pointerSize = 8

// builtinLayout gives the fixed size/alignment of each nominal runtime
// type, per spec.md §3.3 ("Each has a fixed byte size and alignment known
// to the back end"). Runtime objects are opaque to the VM (§4.7) — these
// sizes describe the handle/descriptor the VM carries in a local, which by
// convention is a single pointer-sized slot referring to a heap-resident
// object owned by the runtime, except for the small SQL value types which
// are passed by value.
var builtinLayout = map[Builtin][2]int{
	// SQL values: one 8-byte slot each, except StringVal (a 16-byte view)
	// and Boolean (one byte).
	BuiltinInteger:   {8, 8},
	BuiltinReal:      {8, 8},
	BuiltinDate:      {8, 8},
	BuiltinTimestamp: {8, 8},
	BuiltinStringVal: {16, 8}, // {ptr,len} varlen view
	BuiltinBoolean:   {1, 1},
}

// Size returns the size in bytes of t, per spec.md §4.2. Function types
// have no size (they are never stored as a value, only called); callers
// must not ask.
func Size(t *Type) int {
	switch t.kind {
	case KindNil, KindBool:
		return 1
	case KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	case KindString:
		return 16 // {ptr,len} view, source-level literal string
	case KindPointer:
		return pointerSize
	case KindArray:
		n, ok := t.hasLengthOK()
		if !ok {
			// Unknown-length array decays to pointer-to-many; it has no
			// standalone size.
			panic("types: Size of unknown-length array")
		}
		return n * Size(t.elem)
	case KindStruct:
		return structSize(t)
	case KindBuiltin:
		if lay, ok := builtinLayout[t.builtin]; ok {
			return lay[0]
		}
		// Opaque runtime object handles default to a single pointer slot.
		return pointerSize
	default:
		panic(fmt.Sprintf("types: Size undefined for kind %s", t.kind))
	}
}

func (t *Type) hasLengthOK() (int, bool) { return t.length, t.hasLength }

// Align returns the required alignment in bytes of t, per spec.md §4.2.
func Align(t *Type) int {
	switch t.kind {
	case KindNil, KindBool, KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64, KindString, KindPointer:
		return 8
	case KindArray:
		return Align(t.elem)
	case KindStruct:
		return structAlign(t)
	case KindBuiltin:
		if lay, ok := builtinLayout[t.builtin]; ok {
			return lay[1]
		}
		return pointerSize
	default:
		panic(fmt.Sprintf("types: Align undefined for kind %s", t.kind))
	}
}

// structAlign is the max alignment of any field, the standard ABI rule.
func structAlign(t *Type) int {
	max := 1
	for _, f := range t.fields {
		if a := Align(f.Type); a > max {
			max = a
		}
	}
	return max
}

// structSize lays fields out sequentially with padding to each field's
// natural alignment, then pads the total to the struct's own alignment
// (the standard trailing-padding rule, so arrays of structs stay aligned).
func structSize(t *Type) int {
	off := 0
	for _, f := range t.fields {
		a := Align(f.Type)
		off = alignUp(off, a)
		off += Size(f.Type)
	}
	return alignUp(off, structAlign(t))
}

// FieldOffset returns the byte offset of the field at index i within a
// struct laid out by structSize's algorithm.
func FieldOffset(t *Type, i int) int {
	if t.kind != KindStruct {
		panic("types: FieldOffset on non-struct")
	}
	off := 0
	for j, f := range t.fields {
		a := Align(f.Type)
		off = alignUp(off, a)
		if j == i {
			return off
		}
		off += Size(f.Type)
	}
	panic("types: field index out of range")
}

func alignUp(off, align int) int {
	if align <= 0 {
		align = 1
	}
	return (off + align - 1) &^ (align - 1)
}
