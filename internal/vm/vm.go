// Package vm implements TPL's threaded interpreter: the dispatch loop
// over internal/bytecode's instruction set, activation-frame management,
// and runtime-error/callback semantics of spec.md §4.6. The dispatch
// loop's shape (a tight `for { switch op {...} }` with explicit PC
// control) is grounded on the teacher's vm.go `run` loop, generalized
// from a value-stack machine to frame+local addressing the way
// spec.md §4.6.2 describes.
package vm

import (
	"fmt"
	"math"

	"github.com/turingcompl33t/tpl/internal/bytecode"
)

// RuntimeError reports a fatal runtime condition (spec.md §4.6.4):
// divide/modulo by zero, or an unresolved runtime builtin. It always
// terminates the VM call it occurred in; there is no recovery.
type RuntimeError struct {
	Func string
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("tpl: runtime error in %s: %s", e.Func, e.Msg)
}

// Value is a function argument or result at the VM's external boundary:
// a raw scalar payload for primitive types, or a boxed handle (pointer,
// string, SQL value, opaque runtime object) for everything that lives in
// a frame's boxed side table.
type Value struct {
	Raw     uint64
	Boxed   any
	IsBoxed bool
}

func Int8(v int8) Value   { return Value{Raw: uint64(uint8(v))} }
func Int16(v int16) Value { return Value{Raw: uint64(uint16(v))} }
func Int32(v int32) Value { return Value{Raw: uint64(uint32(v))} }
func Int64(v int64) Value { return Value{Raw: uint64(v)} }
func Uint8(v uint8) Value   { return Value{Raw: uint64(v)} }
func Uint16(v uint16) Value { return Value{Raw: uint64(v)} }
func Uint32(v uint32) Value { return Value{Raw: uint64(v)} }
func Uint64(v uint64) Value { return Value{Raw: v} }
func Float32Val(v float32) Value { return Value{Raw: uint64(math.Float32bits(v))} }
func Float64Val(v float64) Value { return Value{Raw: math.Float64bits(v)} }
func BoolVal(v bool) Value {
	if v {
		return Value{Raw: 1}
	}
	return Value{Raw: 0}
}
func Boxed(v any) Value { return Value{Boxed: v, IsBoxed: true} }

func (v Value) Int8() int8     { return int8(uint8(v.Raw)) }
func (v Value) Int16() int16   { return int16(uint16(v.Raw)) }
func (v Value) Int32() int32   { return int32(uint32(v.Raw)) }
func (v Value) Int64() int64   { return int64(v.Raw) }
func (v Value) Uint8() uint8   { return uint8(v.Raw) }
func (v Value) Uint16() uint16 { return uint16(v.Raw) }
func (v Value) Uint32() uint32 { return uint32(v.Raw) }
func (v Value) Uint64() uint64 { return v.Raw }
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.Raw)) }
func (v Value) Float64() float64 { return math.Float64frombits(v.Raw) }
func (v Value) Bool() bool       { return v.Raw != 0 }

// VM executes one bytecode.Module. A VM instance is cheap: worker VMs
// for the parallel builtins (spec.md §5) share the read-only Module and
// Registry of their parent and own nothing but their own call stack.
type VM struct {
	mod      *bytecode.Module
	registry Registry
	Debug    bool
}

// New creates a VM bound to mod, dispatching CallRuntime instructions
// through reg.
func New(mod *bytecode.Module, reg Registry) *VM {
	return &VM{mod: mod, registry: reg}
}

// Module returns the VM's bound module, for shims that need to resolve
// or invoke other user functions (callback builtins, spec.md §4.6.5).
func (vm *VM) Module() *bytecode.Module { return vm.mod }

// Fork returns a new VM sharing this one's module and registry, for a
// parallel builtin to hand to an independent worker goroutine; per
// spec.md §5 worker VMs share only the module, never activation frames.
func (vm *VM) Fork() *VM { return &VM{mod: vm.mod, registry: vm.registry, Debug: vm.Debug} }

// Call invokes the named function with args and returns its result.
func (vm *VM) Call(name string, args ...Value) (Value, error) {
	id, ok := vm.mod.FunctionID(name)
	if !ok {
		return Value{}, fmt.Errorf("tpl: no such function %q", name)
	}
	return vm.Invoke(id, args)
}

// Invoke calls the function named by id (as OpCall would) directly; it
// is exported so a runtime shim implementing a callback builtin (hash,
// compare, advance-agg, ...) can dispatch into user bytecode by function
// id, per spec.md §4.6.5.
func (vm *VM) Invoke(id int, args []Value) (Value, error) {
	if id < 0 || id >= len(vm.mod.Functions) {
		return Value{}, fmt.Errorf("tpl: invalid function id %d", id)
	}
	fn := vm.mod.Functions[id]
	fr, release := acquireFrame(fn.FrameSize, vm.Debug)
	defer release()
	for i, p := range fn.Params {
		if i >= len(args) {
			break
		}
		a := args[i]
		if p.Boxed {
			fr.SetBoxed(p.Offset, a.Boxed)
		} else {
			fr.WriteUint(p.Offset, p.Size, a.Raw)
		}
	}
	return vm.run(fn, fr)
}

func (vm *VM) run(fn *bytecode.Function, fr *Frame) (result Value, err error) {
	pc := 0
	for pc < len(fn.Code) {
		ins := &fn.Code[pc]
		next := pc + 1
		switch ins.Op {
		case bytecode.OpJump:
			next = pc + int(ins.Imm)
		case bytecode.OpJumpIfTrue:
			if boolv(fr, ins.A) {
				next = pc + int(ins.Imm)
			}
		case bytecode.OpJumpIfFalse:
			if !boolv(fr, ins.A) {
				next = pc + int(ins.Imm)
			}
		case bytecode.OpReturn:
			switch {
			case fn.ReturnBoxed:
				return Value{Boxed: fr.Boxed(ins.A.Offset()), IsBoxed: true}, nil
			case fn.ReturnSize > 0:
				return Value{Raw: fr.ReadUint(ins.A.Offset(), fn.ReturnSize)}, nil
			default:
				return Value{}, nil
			}
		default:
			if e := vm.exec(fn, fr, ins); e != nil {
				return Value{}, e
			}
		}
		pc = next
	}
	return Value{}, nil
}

// exec executes every opcode except the control-flow family, which the
// run loop's PC bookkeeping handles directly.
func (vm *VM) exec(fn *bytecode.Function, fr *Frame, ins *bytecode.Instr) error {
	switch ins.Op {
	case bytecode.OpNop:

	// --- memory / locals ---
	case bytecode.OpAssignImm1:
		writeU(fr, ins.A, 1, uint64(ins.Imm))
	case bytecode.OpAssignImm2:
		writeU(fr, ins.A, 2, uint64(ins.Imm))
	case bytecode.OpAssignImm4:
		writeU(fr, ins.A, 4, uint64(uint32(ins.Imm)))
	case bytecode.OpAssignImm8:
		if ins.Name != "" {
			fr.SetBoxed(ins.A.Offset(), ins.Name)
		} else {
			writeU(fr, ins.A, 8, uint64(ins.Imm))
			if ins.Imm == 0 {
				fr.SetBoxed(ins.A.Offset(), Ptr{})
			}
		}
	case bytecode.OpAssign1:
		writeU(fr, ins.A, 1, readU(fr, ins.B, 1))
		forwardBoxed(fr, ins.A, ins.B)
	case bytecode.OpAssign2:
		writeU(fr, ins.A, 2, readU(fr, ins.B, 2))
		forwardBoxed(fr, ins.A, ins.B)
	case bytecode.OpAssign4:
		writeU(fr, ins.A, 4, readU(fr, ins.B, 4))
		forwardBoxed(fr, ins.A, ins.B)
	case bytecode.OpAssign8:
		writeU(fr, ins.A, 8, readU(fr, ins.B, 8))
		forwardBoxed(fr, ins.A, ins.B)
	case bytecode.OpLea:
		fr.SetBoxed(ins.A.Offset(), Ptr{Buf: fr.bytes, Off: ins.B.Offset() + uint32(ins.Imm)})
	case bytecode.OpLeaIndirect:
		base := readPtr(fr, ins.B)
		fr.SetBoxed(ins.A.Offset(), Ptr{Buf: base.Buf, Off: uint32(int64(base.Off) + ins.Imm)})
	case bytecode.OpLeaScaled:
		base := readPtr(fr, ins.B)
		idx := readSized(fr, ins.C, 4, true) // array/vector indices are int32 in this front end
		fr.SetBoxed(ins.A.Offset(), Ptr{Buf: base.Buf, Off: uint32(int64(base.Off) + idx*ins.Imm)})
	case bytecode.OpDeref1:
		fr.WriteUint(ins.A.Offset(), 1, readPtr(fr, ins.B).readUint(1))
	case bytecode.OpDeref2:
		fr.WriteUint(ins.A.Offset(), 2, readPtr(fr, ins.B).readUint(2))
	case bytecode.OpDeref4:
		fr.WriteUint(ins.A.Offset(), 4, readPtr(fr, ins.B).readUint(4))
	case bytecode.OpDeref8:
		fr.WriteUint(ins.A.Offset(), 8, readPtr(fr, ins.B).readUint(8))
	case bytecode.OpIsNullPtr:
		setBool(fr, ins.A, readPtr(fr, ins.B).IsNil())
	case bytecode.OpIsNotNullPtr:
		setBool(fr, ins.A, !readPtr(fr, ins.B).IsNil())

	// --- integer/float arithmetic ---
	case bytecode.OpAddI32:
		setI32(fr, ins.A, i32(fr, ins.B)+i32(fr, ins.C))
	case bytecode.OpSubI32:
		setI32(fr, ins.A, i32(fr, ins.B)-i32(fr, ins.C))
	case bytecode.OpMulI32:
		setI32(fr, ins.A, i32(fr, ins.B)*i32(fr, ins.C))
	case bytecode.OpDivI32:
		d := i32(fr, ins.C)
		if d == 0 {
			return &RuntimeError{Func: fn.Name, Msg: "division by zero"}
		}
		setI32(fr, ins.A, i32(fr, ins.B)/d)
	case bytecode.OpModI32:
		d := i32(fr, ins.C)
		if d == 0 {
			return &RuntimeError{Func: fn.Name, Msg: "division by zero"}
		}
		setI32(fr, ins.A, i32(fr, ins.B)%d)
	case bytecode.OpNegI32:
		setI32(fr, ins.A, -i32(fr, ins.B))

	case bytecode.OpAddI64:
		setI64(fr, ins.A, i64(fr, ins.B)+i64(fr, ins.C))
	case bytecode.OpSubI64:
		setI64(fr, ins.A, i64(fr, ins.B)-i64(fr, ins.C))
	case bytecode.OpMulI64:
		setI64(fr, ins.A, i64(fr, ins.B)*i64(fr, ins.C))
	case bytecode.OpDivI64:
		d := i64(fr, ins.C)
		if d == 0 {
			return &RuntimeError{Func: fn.Name, Msg: "division by zero"}
		}
		setI64(fr, ins.A, i64(fr, ins.B)/d)
	case bytecode.OpModI64:
		d := i64(fr, ins.C)
		if d == 0 {
			return &RuntimeError{Func: fn.Name, Msg: "division by zero"}
		}
		setI64(fr, ins.A, i64(fr, ins.B)%d)
	case bytecode.OpNegI64:
		setI64(fr, ins.A, -i64(fr, ins.B))

	case bytecode.OpAddU32:
		setU32(fr, ins.A, u32(fr, ins.B)+u32(fr, ins.C))
	case bytecode.OpSubU32:
		setU32(fr, ins.A, u32(fr, ins.B)-u32(fr, ins.C))
	case bytecode.OpMulU32:
		setU32(fr, ins.A, u32(fr, ins.B)*u32(fr, ins.C))
	case bytecode.OpDivU32:
		d := u32(fr, ins.C)
		if d == 0 {
			return &RuntimeError{Func: fn.Name, Msg: "division by zero"}
		}
		setU32(fr, ins.A, u32(fr, ins.B)/d)
	case bytecode.OpModU32:
		d := u32(fr, ins.C)
		if d == 0 {
			return &RuntimeError{Func: fn.Name, Msg: "division by zero"}
		}
		setU32(fr, ins.A, u32(fr, ins.B)%d)

	case bytecode.OpAddU64:
		setU64(fr, ins.A, u64(fr, ins.B)+u64(fr, ins.C))
	case bytecode.OpSubU64:
		setU64(fr, ins.A, u64(fr, ins.B)-u64(fr, ins.C))
	case bytecode.OpMulU64:
		setU64(fr, ins.A, u64(fr, ins.B)*u64(fr, ins.C))
	case bytecode.OpDivU64:
		d := u64(fr, ins.C)
		if d == 0 {
			return &RuntimeError{Func: fn.Name, Msg: "division by zero"}
		}
		setU64(fr, ins.A, u64(fr, ins.B)/d)
	case bytecode.OpModU64:
		d := u64(fr, ins.C)
		if d == 0 {
			return &RuntimeError{Func: fn.Name, Msg: "division by zero"}
		}
		setU64(fr, ins.A, u64(fr, ins.B)%d)

	case bytecode.OpAddF32:
		setF32(fr, ins.A, f32(fr, ins.B)+f32(fr, ins.C))
	case bytecode.OpSubF32:
		setF32(fr, ins.A, f32(fr, ins.B)-f32(fr, ins.C))
	case bytecode.OpMulF32:
		setF32(fr, ins.A, f32(fr, ins.B)*f32(fr, ins.C))
	case bytecode.OpDivF32:
		setF32(fr, ins.A, f32(fr, ins.B)/f32(fr, ins.C))
	case bytecode.OpNegF32:
		setF32(fr, ins.A, -f32(fr, ins.B))

	case bytecode.OpAddF64:
		setF64(fr, ins.A, f64(fr, ins.B)+f64(fr, ins.C))
	case bytecode.OpSubF64:
		setF64(fr, ins.A, f64(fr, ins.B)-f64(fr, ins.C))
	case bytecode.OpMulF64:
		setF64(fr, ins.A, f64(fr, ins.B)*f64(fr, ins.C))
	case bytecode.OpDivF64:
		setF64(fr, ins.A, f64(fr, ins.B)/f64(fr, ins.C))
	case bytecode.OpNegF64:
		setF64(fr, ins.A, -f64(fr, ins.B))

	case bytecode.OpNot:
		setBool(fr, ins.A, !boolv(fr, ins.B))

	// --- comparisons ---
	case bytecode.OpEqI32:
		setBool(fr, ins.A, i32(fr, ins.B) == i32(fr, ins.C))
	case bytecode.OpNeI32:
		setBool(fr, ins.A, i32(fr, ins.B) != i32(fr, ins.C))
	case bytecode.OpLtI32:
		setBool(fr, ins.A, i32(fr, ins.B) < i32(fr, ins.C))
	case bytecode.OpLeI32:
		setBool(fr, ins.A, i32(fr, ins.B) <= i32(fr, ins.C))
	case bytecode.OpGtI32:
		setBool(fr, ins.A, i32(fr, ins.B) > i32(fr, ins.C))
	case bytecode.OpGeI32:
		setBool(fr, ins.A, i32(fr, ins.B) >= i32(fr, ins.C))

	case bytecode.OpEqI64:
		setBool(fr, ins.A, i64(fr, ins.B) == i64(fr, ins.C))
	case bytecode.OpNeI64:
		setBool(fr, ins.A, i64(fr, ins.B) != i64(fr, ins.C))
	case bytecode.OpLtI64:
		setBool(fr, ins.A, i64(fr, ins.B) < i64(fr, ins.C))
	case bytecode.OpLeI64:
		setBool(fr, ins.A, i64(fr, ins.B) <= i64(fr, ins.C))
	case bytecode.OpGtI64:
		setBool(fr, ins.A, i64(fr, ins.B) > i64(fr, ins.C))
	case bytecode.OpGeI64:
		setBool(fr, ins.A, i64(fr, ins.B) >= i64(fr, ins.C))

	case bytecode.OpEqF32:
		setBool(fr, ins.A, f32(fr, ins.B) == f32(fr, ins.C))
	case bytecode.OpNeF32:
		setBool(fr, ins.A, f32(fr, ins.B) != f32(fr, ins.C))
	case bytecode.OpLtF32:
		setBool(fr, ins.A, f32(fr, ins.B) < f32(fr, ins.C))
	case bytecode.OpLeF32:
		setBool(fr, ins.A, f32(fr, ins.B) <= f32(fr, ins.C))
	case bytecode.OpGtF32:
		setBool(fr, ins.A, f32(fr, ins.B) > f32(fr, ins.C))
	case bytecode.OpGeF32:
		setBool(fr, ins.A, f32(fr, ins.B) >= f32(fr, ins.C))

	case bytecode.OpEqF64:
		setBool(fr, ins.A, f64(fr, ins.B) == f64(fr, ins.C))
	case bytecode.OpNeF64:
		setBool(fr, ins.A, f64(fr, ins.B) != f64(fr, ins.C))
	case bytecode.OpLtF64:
		setBool(fr, ins.A, f64(fr, ins.B) < f64(fr, ins.C))
	case bytecode.OpLeF64:
		setBool(fr, ins.A, f64(fr, ins.B) <= f64(fr, ins.C))
	case bytecode.OpGtF64:
		setBool(fr, ins.A, f64(fr, ins.B) > f64(fr, ins.C))
	case bytecode.OpGeF64:
		setBool(fr, ins.A, f64(fr, ins.B) >= f64(fr, ins.C))

	case bytecode.OpEqPtr:
		setBool(fr, ins.A, PtrEqual(readPtr(fr, ins.B), readPtr(fr, ins.C)))
	case bytecode.OpNePtr:
		setBool(fr, ins.A, !PtrEqual(readPtr(fr, ins.B), readPtr(fr, ins.C)))
	case bytecode.OpEqBool:
		setBool(fr, ins.A, boolv(fr, ins.B) == boolv(fr, ins.C))
	case bytecode.OpNeBool:
		setBool(fr, ins.A, boolv(fr, ins.B) != boolv(fr, ins.C))

	// --- call / return ---
	case bytecode.OpCall:
		return vm.execCall(fn, fr, ins)
	case bytecode.OpCallRuntime:
		shim, ok := vm.registry.Lookup(ins.Name)
		if !ok {
			return &RuntimeError{Func: fn.Name, Msg: fmt.Sprintf("unresolved runtime builtin %q", ins.Name)}
		}
		if err := shim(vm, fr, ins); err != nil {
			if re, ok := err.(*RuntimeError); ok {
				return re
			}
			return &RuntimeError{Func: fn.Name, Msg: err.Error()}
		}

	// --- casts ---
	case bytecode.OpIntegralCast:
		v := readSized(fr, ins.B, int(ins.SrcSize), ins.Signed)
		writeU(fr, ins.A, int(ins.Imm), uint64(v))
	case bytecode.OpIntToFloat:
		var fv float64
		if ins.Signed {
			fv = float64(readSized(fr, ins.B, int(ins.SrcSize), true))
		} else {
			fv = float64(readU(fr, ins.B, int(ins.SrcSize)))
		}
		if ins.Imm == 4 {
			setF32(fr, ins.A, float32(fv))
		} else {
			setF64(fr, ins.A, fv)
		}
	case bytecode.OpFloatToInt:
		var fv float64
		if ins.SrcSize == 4 {
			fv = float64(f32(fr, ins.B))
		} else {
			fv = f64(fr, ins.B)
		}
		if ins.Signed {
			writeU(fr, ins.A, int(ins.Imm), uint64(int64(fv)))
		} else {
			writeU(fr, ins.A, int(ins.Imm), uint64(fv))
		}
	case bytecode.OpBitCast:
		size := int(ins.Imm)
		writeU(fr, ins.A, size, readU(fr, ins.B, size))
		forwardBoxed(fr, ins.A, ins.B)
	case bytecode.OpFloatCast:
		// Numeric float32<->float64 conversion, distinct from OpBitCast:
		// the source's raw bits are never reinterpreted as the
		// destination width, only its value is rounded or widened.
		var fv float64
		if ins.SrcSize == 4 {
			fv = float64(f32(fr, ins.B))
		} else {
			fv = f64(fr, ins.B)
		}
		if ins.Imm == 4 {
			setF32(fr, ins.A, float32(fv))
		} else {
			setF64(fr, ins.A, fv)
		}
	case bytecode.OpForceBoolTruth:
		// SqlBoolToBool: a null or false-valued SQL Boolean coerces to
		// primitive false, per spec.md §8 property 8 / §9's "runtime
		// representation of null → false" contract.
		b, _ := fr.Boxed(ins.B.Offset()).(SQLBool)
		setBool(fr, ins.A, !b.Null && b.Value)

	default:
		return &RuntimeError{Func: fn.Name, Msg: fmt.Sprintf("unimplemented opcode %s", ins.Op)}
	}
	return nil
}

func (vm *VM) execCall(fn *bytecode.Function, fr *Frame, ins *bytecode.Instr) error {
	calleeID := int(ins.Imm)
	if calleeID < 0 || calleeID >= len(vm.mod.Functions) {
		return &RuntimeError{Func: fn.Name, Msg: fmt.Sprintf("invalid call target %d", calleeID)}
	}
	callee := vm.mod.Functions[calleeID]
	args := make([]Value, len(ins.Args))
	for i, a := range ins.Args {
		if i < len(callee.Params) && callee.Params[i].Boxed {
			args[i] = Value{Boxed: fr.Boxed(a.Offset()), IsBoxed: true}
			continue
		}
		sz := 8
		if i < len(callee.Params) {
			sz = callee.Params[i].Size
		}
		args[i] = Value{Raw: fr.ReadUint(a.Offset(), sz)}
	}
	result, err := vm.Invoke(calleeID, args)
	if err != nil {
		return err
	}
	switch {
	case callee.ReturnBoxed:
		fr.SetBoxed(ins.A.Offset(), result.Boxed)
	case callee.ReturnSize > 0:
		fr.WriteUint(ins.A.Offset(), callee.ReturnSize, result.Raw)
	}
	return nil
}

// SQLBool is the boxed representation OpForceBoolTruth reads; the richer
// SQL value box (Integer/Real/Date/Timestamp/StringVal) used by the
// CallRuntime arithmetic/comparison shims lives in internal/builtins,
// which depends on this package rather than the reverse — this one
// native opcode is the sole point where the VM itself interprets a SQL
// value's shape.
type SQLBool struct {
	Null  bool
	Value bool
}

func forwardBoxed(fr *Frame, dst, src bytecode.LocalVar) {
	if dst.AddrMode() {
		return
	}
	if b := fr.Boxed(src.Offset()); b != nil {
		fr.SetBoxed(dst.Offset(), b)
	}
}

func readU(fr *Frame, l bytecode.LocalVar, size int) uint64 {
	if p, ok := fr.local(l); ok {
		return p.readUint(size)
	}
	return fr.ReadUint(l.Offset(), size)
}

func writeU(fr *Frame, l bytecode.LocalVar, size int, v uint64) {
	if p, ok := fr.local(l); ok {
		p.writeUint(size, v)
		return
	}
	fr.WriteUint(l.Offset(), size, v)
}

func readSized(fr *Frame, l bytecode.LocalVar, size int, signed bool) int64 {
	u := readU(fr, l, size)
	if !signed {
		return int64(u)
	}
	switch size {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	default:
		return int64(u)
	}
}

func readPtr(fr *Frame, l bytecode.LocalVar) Ptr {
	p, _ := fr.Boxed(l.Offset()).(Ptr)
	return p
}

func i32(fr *Frame, l bytecode.LocalVar) int32     { return int32(readU(fr, l, 4)) }
func setI32(fr *Frame, l bytecode.LocalVar, v int32) { writeU(fr, l, 4, uint64(uint32(v))) }
func i64(fr *Frame, l bytecode.LocalVar) int64     { return int64(readU(fr, l, 8)) }
func setI64(fr *Frame, l bytecode.LocalVar, v int64) { writeU(fr, l, 8, uint64(v)) }
func u32(fr *Frame, l bytecode.LocalVar) uint32     { return uint32(readU(fr, l, 4)) }
func setU32(fr *Frame, l bytecode.LocalVar, v uint32) { writeU(fr, l, 4, uint64(v)) }
func u64(fr *Frame, l bytecode.LocalVar) uint64     { return readU(fr, l, 8) }
func setU64(fr *Frame, l bytecode.LocalVar, v uint64) { writeU(fr, l, 8, v) }
func f32(fr *Frame, l bytecode.LocalVar) float32 {
	return math.Float32frombits(uint32(readU(fr, l, 4)))
}
func setF32(fr *Frame, l bytecode.LocalVar, v float32) { writeU(fr, l, 4, uint64(math.Float32bits(v))) }
func f64(fr *Frame, l bytecode.LocalVar) float64 {
	return math.Float64frombits(readU(fr, l, 8))
}
func setF64(fr *Frame, l bytecode.LocalVar, v float64) { writeU(fr, l, 8, math.Float64bits(v)) }
func boolv(fr *Frame, l bytecode.LocalVar) bool        { return readU(fr, l, 1) != 0 }
func setBool(fr *Frame, l bytecode.LocalVar, v bool) {
	if v {
		writeU(fr, l, 1, 1)
	} else {
		writeU(fr, l, 1, 0)
	}
}
