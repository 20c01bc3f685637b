// Package bytecode defines TPL's register/local-addressed instruction
// set and the generator that lowers a type-checked AST into it (spec.md
// §3.5, §4.5). The instruction shape is grounded on the teacher's vm.go
// `pack(op, imm)`/dispatch-loop style, generalized the way
// cyw0ng95-sqlvibe's bc_opcodes.go generalizes a packed accumulator
// machine into a `regs[C] = regs[A] op regs[B]` register machine: each
// Instr is a small fixed-shape record (opcode + up to three LocalVar
// operands + an immediate/jump-delta slot) rather than a hand-packed
// byte stream, trading the original's bit-packing for a record shape
// that is exercised identically by the dispatch loop but far less
// error-prone to hand-author without a compiler to check it against.
package bytecode

import "fmt"

// LocalVar addresses one stack slot in the current activation frame,
// encoded as a 31-bit byte offset plus a 1-bit address-mode flag per
// spec.md §3.6: the low 31 bits are the offset, and bit 31 set means "this
// local itself holds an address" (pass/read by reference) rather than "the
// value lives at this offset."
type LocalVar uint32

// MakeLocal packs an offset and address-mode flag into a LocalVar.
func MakeLocal(offset uint32, addrMode bool) LocalVar {
	v := LocalVar(offset & 0x7fffffff)
	if addrMode {
		v |= 1 << 31
	}
	return v
}

// Offset returns the byte offset component.
func (l LocalVar) Offset() uint32 { return uint32(l) & 0x7fffffff }

// AddrMode reports whether this local is in address mode.
func (l LocalVar) AddrMode() bool { return l&(1<<31) != 0 }

func (l LocalVar) String() string {
	if l.AddrMode() {
		return fmt.Sprintf("&%d", l.Offset())
	}
	return fmt.Sprintf("%d", l.Offset())
}

// Opcode is the closed instruction tag set, organized into the families
// spec.md §4.6.3 names.
type Opcode uint16

const (
	OpNop Opcode = iota

	// Memory / locals.
	OpAssignImm1
	OpAssignImm2
	OpAssignImm4
	OpAssignImm8
	OpAssign1
	OpAssign2
	OpAssign4
	OpAssign8
	OpLea         // A = address of local B's own storage, offset by Imm bytes
	OpLeaIndirect // A = (the address B already holds) + Imm bytes
	OpLeaScaled   // A = (the address B already holds) + local C * Imm bytes
	OpDeref1
	OpDeref2
	OpDeref4
	OpDeref8
	OpIsNullPtr
	OpIsNotNullPtr

	// Arithmetic, one variant per width: i32/i64, u32/u64, f32/f64
	// (Add/Sub/Mul/Div, Mod for integers, Neg for signed and float). There
	// are no 8- or 16-bit variants and no bitwise (BitAnd/BitOr/BitXor/
	// BitNeg) opcodes.
	OpAddI32
	OpSubI32
	OpMulI32
	OpDivI32
	OpModI32
	OpNegI32
	OpAddI64
	OpSubI64
	OpMulI64
	OpDivI64
	OpModI64
	OpNegI64
	OpAddU32
	OpSubU32
	OpMulU32
	OpDivU32
	OpModU32
	OpAddU64
	OpSubU64
	OpMulU64
	OpDivU64
	OpModU64
	OpAddF32
	OpSubF32
	OpMulF32
	OpDivF32
	OpNegF32
	OpAddF64
	OpSubF64
	OpMulF64
	OpDivF64
	OpNegF64
	OpNot // logical ! on bool

	// Comparisons, returning a primitive bool local.
	OpEqI32
	OpNeI32
	OpLtI32
	OpLeI32
	OpGtI32
	OpGeI32
	OpEqI64
	OpNeI64
	OpLtI64
	OpLeI64
	OpGtI64
	OpGeI64
	OpEqF32
	OpNeF32
	OpLtF32
	OpLeF32
	OpGtF32
	OpGeF32
	OpEqF64
	OpNeF64
	OpLtF64
	OpLeF64
	OpGtF64
	OpGeF64
	OpEqPtr
	OpNePtr
	OpEqBool
	OpNeBool

	// Control flow. Imm is a signed instruction-count delta, measured
	// from the jump instruction's own index (spec.md §4.5.4 describes a
	// byte delta against a raw stream; this is the record-stream
	// analogue).
	OpJump
	OpJumpIfTrue
	OpJumpIfFalse

	// Call / return.
	OpCall        // calls a user function by id
	OpCallRuntime // calls a named runtime/builtin entry point
	OpReturn

	// Implicit-cast lowerings (spec.md §4.4.3 / §4.5.2).
	OpIntegralCast // truncate/sign-or-zero-extend B -> A per declared widths
	OpIntToFloat
	OpFloatToInt
	OpBitCast
	OpForceBoolTruth // SqlBoolToBool
	OpFloatCast      // numeric float32<->float64 conversion (widen or narrow per SrcSize/Imm)
)

var opcodeNames = map[Opcode]string{
	OpNop: "Nop",
	OpAssignImm1: "AssignImm1", OpAssignImm2: "AssignImm2", OpAssignImm4: "AssignImm4", OpAssignImm8: "AssignImm8",
	OpAssign1: "Assign1", OpAssign2: "Assign2", OpAssign4: "Assign4", OpAssign8: "Assign8",
	OpLea: "Lea", OpLeaIndirect: "LeaIndirect", OpLeaScaled: "LeaScaled",
	OpDeref1: "Deref1", OpDeref2: "Deref2", OpDeref4: "Deref4", OpDeref8: "Deref8",
	OpIsNullPtr: "IsNullPtr", OpIsNotNullPtr: "IsNotNullPtr",
	OpAddI32: "Add_i32", OpSubI32: "Sub_i32", OpMulI32: "Mul_i32", OpDivI32: "Div_i32", OpModI32: "Mod_i32", OpNegI32: "Neg_i32",
	OpAddI64: "Add_i64", OpSubI64: "Sub_i64", OpMulI64: "Mul_i64", OpDivI64: "Div_i64", OpModI64: "Mod_i64", OpNegI64: "Neg_i64",
	OpAddU32: "Add_u32", OpSubU32: "Sub_u32", OpMulU32: "Mul_u32", OpDivU32: "Div_u32", OpModU32: "Mod_u32",
	OpAddU64: "Add_u64", OpSubU64: "Sub_u64", OpMulU64: "Mul_u64", OpDivU64: "Div_u64", OpModU64: "Mod_u64",
	OpAddF32: "Add_f32", OpSubF32: "Sub_f32", OpMulF32: "Mul_f32", OpDivF32: "Div_f32", OpNegF32: "Neg_f32",
	OpAddF64: "Add_f64", OpSubF64: "Sub_f64", OpMulF64: "Mul_f64", OpDivF64: "Div_f64", OpNegF64: "Neg_f64",
	OpNot: "Not",
	OpEqI32: "Equal_i32", OpNeI32: "NotEqual_i32", OpLtI32: "LessThan_i32", OpLeI32: "LessThanEqual_i32", OpGtI32: "GreaterThan_i32", OpGeI32: "GreaterThanEqual_i32",
	OpEqI64: "Equal_i64", OpNeI64: "NotEqual_i64", OpLtI64: "LessThan_i64", OpLeI64: "LessThanEqual_i64", OpGtI64: "GreaterThan_i64", OpGeI64: "GreaterThanEqual_i64",
	OpEqF32: "Equal_f32", OpNeF32: "NotEqual_f32", OpLtF32: "LessThan_f32", OpLeF32: "LessThanEqual_f32", OpGtF32: "GreaterThan_f32", OpGeF32: "GreaterThanEqual_f32",
	OpEqF64: "Equal_f64", OpNeF64: "NotEqual_f64", OpLtF64: "LessThan_f64", OpLeF64: "LessThanEqual_f64", OpGtF64: "GreaterThan_f64", OpGeF64: "GreaterThanEqual_f64",
	OpEqPtr: "EqualPtr", OpNePtr: "NotEqualPtr", OpEqBool: "EqualBool", OpNeBool: "NotEqualBool",
	OpJump: "Jump", OpJumpIfTrue: "JumpIfTrue", OpJumpIfFalse: "JumpIfFalse",
	OpCall: "Call", OpCallRuntime: "CallRuntime", OpReturn: "Return",
	OpIntegralCast: "IntegralCast", OpIntToFloat: "IntToFloat", OpFloatToInt: "FloatToInt",
	OpBitCast: "BitCast", OpForceBoolTruth: "ForceBoolTruth",
	OpFloatCast: "FloatCast",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Instr is one bytecode instruction. Which fields are meaningful depends
// on Op; see the Opcode constant comments.
type Instr struct {
	Op      Opcode
	A, B, C LocalVar
	Imm     int64
	Name    string     // OpCallRuntime's runtime entry point name
	Args    []LocalVar // OpCall/OpCallRuntime argument locals, in order

	// SrcSize/Signed describe the generic cast opcodes (IntegralCast/
	// IntToFloat/FloatToInt/BitCast). Every other opcode's operand widths
	// are implied by the opcode itself (e.g. OpAddI64 always reads two
	// 8-byte signed ints), but these four casts exist once each
	// regardless of width, so the width/signedness that would otherwise
	// have driven variant selection ride along on the instruction
	// instead. Imm carries the destination size. SrcSize is always the
	// source operand's width (for FloatToInt and FloatCast, the float
	// source's 4 or 8); Signed is the source's signedness for
	// IntegralCast/IntToFloat, and the *destination*'s signedness for
	// FloatToInt (there the source has no signedness of its own).
	//
	// The same two fields are reused by the "boxInt"/"boxReal"
	// CallRuntime instructions (the int/float-to-SQL-value promotion
	// casts), which have the identical problem: the primitive operand
	// being boxed may be any width, and only the code generator knows
	// which.
	SrcSize int32
	Signed  bool
}

// Module is one compiled unit: every function's generated code plus a
// name-to-id index. There is no shared string-constant pool: string
// operands such as runtime entry names ride on each Instr's Name field.
type Module struct {
	Functions []*Function
	index     map[string]int
}

// NewModule creates an empty Module.
func NewModule() *Module {
	return &Module{index: make(map[string]int)}
}

// AddFunction registers fn and returns its function id, used by OpCall.
func (m *Module) AddFunction(fn *Function) int {
	id := len(m.Functions)
	m.Functions = append(m.Functions, fn)
	m.index[fn.Name] = id
	return id
}

// ReserveFunction allocates a function id for name before its body has
// been generated, so a forward call site (a function calling one declared
// later in the same file) can resolve the callee's id during a single
// generation pass. SetFunction must be called with the same id once the
// body is ready.
func (m *Module) ReserveFunction(name string) int {
	id := len(m.Functions)
	m.Functions = append(m.Functions, &Function{Name: name})
	m.index[name] = id
	return id
}

// SetFunction replaces the placeholder at id (from ReserveFunction) with
// the fully generated fn.
func (m *Module) SetFunction(id int, fn *Function) {
	m.Functions[id] = fn
}

// FunctionID resolves a function by name, for OpCall operand encoding.
func (m *Module) FunctionID(name string) (int, bool) {
	id, ok := m.index[name]
	return id, ok
}

// Function is one compiled function: its instruction stream, frame
// layout, and parameter/return shape.
type Function struct {
	Name       string
	Code       []Instr
	FrameSize  int // bytes
	ParamCount int
	ReturnSize int // 0 if the function returns nothing meaningful

	// Params describes each parameter's frame-relative layout in
	// declaration order, so the VM's call sequence (§4.6.1) knows how to
	// install each argument: memcpy for a Boxed==false slot, install of a
	// boxed handle (pointer, SQL value, or opaque runtime object) for
	// Boxed==true.
	Params []ParamLayout
	// ReturnBoxed mirrors the same distinction for the value OpReturn
	// leaves behind.
	ReturnBoxed bool
}

// ParamLayout is one parameter's frame offset, size, and storage kind.
type ParamLayout struct {
	Offset uint32
	Size   int
	Boxed  bool
}
