package bytecode

import (
	"math"

	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/sema"
	"github.com/turingcompl33t/tpl/internal/types"
)

// typeResolver is the narrow slice of *sema.Analyzer the generator needs:
// a file-scope declaration's type, and a syntactic type-representation's
// canonical type. Declared as an interface so generator tests can supply
// a fake without constructing a full Analyzer.
type typeResolver interface {
	LookupTopType(name string) (*types.Type, bool)
	ResolveTypeRepr(tr ast.TypeRepr) *types.Type
	ResolveTypeNameExpr(e ast.Expr) *types.Type
}

// Generate lowers file into a Module. an must be the *sema.Analyzer that
// already ran Analyze(file) successfully (no reported errors) — the
// generator trusts every Expr's resolved type and every ImplicitCastExpr
// already present, per spec.md §4.5's "lowering assumes a type-checked
// tree."
func Generate(ctx *types.Context, an *sema.Analyzer, file *ast.File) *Module {
	g := &generator{ctx: ctx, an: an, mod: NewModule()}

	var fns []*ast.FunctionDecl
	ids := make(map[*ast.FunctionDecl]int)
	for _, d := range file.Decls {
		if fd, ok := d.(*ast.FunctionDecl); ok {
			ids[fd] = g.mod.ReserveFunction(fd.Name.String())
			fns = append(fns, fd)
		}
	}
	for _, fd := range fns {
		g.mod.SetFunction(ids[fd], g.genFunction(fd))
	}
	return g.mod
}

type generator struct {
	ctx *types.Context
	an  typeResolver
	mod *Module
}

// frame tracks one function's local-variable layout and in-progress
// instruction stream during lowering.
type frame struct {
	locals map[ast.Decl]localSlot
	next   uint32 // next free byte offset
	code   []Instr
	retTyp *types.Type

	// forIn tracks the active for-in loop targets by name, innermost
	// last. Loop targets bind with a nil ast.Decl (sema.checkForIn has no
	// declaring node for a synthetic per-iteration name), so they cannot
	// share the locals map's ast.Decl keying and are resolved by name
	// instead.
	forIn []forInBinding
}

type forInBinding struct {
	name string
	v    LocalVar
}

func (f *frame) pushForIn(name string, v LocalVar) { f.forIn = append(f.forIn, forInBinding{name, v}) }
func (f *frame) popForIn()                         { f.forIn = f.forIn[:len(f.forIn)-1] }

func (f *frame) lookupForIn(name string) (LocalVar, bool) {
	for i := len(f.forIn) - 1; i >= 0; i-- {
		if f.forIn[i].name == name {
			return f.forIn[i].v, true
		}
	}
	return 0, false
}

type localSlot struct {
	v LocalVar
	t *types.Type
}

// alloc reserves a properly aligned slot for t and returns its LocalVar.
func (f *frame) alloc(t *types.Type) LocalVar {
	align := uint32(types.Align(t))
	f.next = alignUp32(f.next, align)
	off := f.next
	f.next += uint32(types.Size(t))
	return MakeLocal(off, false)
}

func (f *frame) bind(d ast.Decl, t *types.Type) LocalVar {
	v := f.alloc(t)
	f.locals[d] = localSlot{v: v, t: t}
	return v
}

func alignUp32(off, align uint32) uint32 {
	if align == 0 {
		align = 1
	}
	return (off + align - 1) &^ (align - 1)
}

func (f *frame) emit(i Instr) int {
	f.code = append(f.code, i)
	return len(f.code) - 1
}

// patchJump fixes up the Imm of the jump instruction at idx to land at
// the stream's current end (an instruction-count delta from idx, per
// spec.md §4.5.4's PC-relative jump encoding, adapted to the record
// stream's instruction-index addressing).
func (f *frame) patchJump(idx int) {
	f.code[idx].Imm = int64(len(f.code) - idx)
}

func (g *generator) genFunction(fd *ast.FunctionDecl) *Function {
	ft, ok := g.an.LookupTopType(fd.Name.String())
	if !ok || ft.Kind() != types.KindFunction {
		// Declaration failed to resolve during sema; emit an empty body
		// rather than panicking, the caller should have rejected this
		// file via rep.HasErrors() before reaching codegen.
		return &Function{Name: fd.Name.String()}
	}

	fr := &frame{locals: make(map[ast.Decl]localSlot), retTyp: ft.Return()}
	params := ft.Params()
	paramLayout := make([]ParamLayout, len(params))
	for i, p := range fd.Fn.Params {
		v := fr.bind(p, params[i])
		paramLayout[i] = ParamLayout{Offset: v.Offset(), Size: types.Size(params[i]), Boxed: isBoxedKind(params[i])}
	}
	g.genBlock(fr, fd.Fn.Body)

	retSize := 0
	if fr.retTyp != nil && fr.retTyp.Kind() != types.KindNil {
		retSize = types.Size(fr.retTyp)
	}
	return &Function{
		Name:        fd.Name.String(),
		Code:        fr.code,
		FrameSize:   int(fr.next),
		ParamCount:  len(params),
		ReturnSize:  retSize,
		Params:      paramLayout,
		ReturnBoxed: isBoxedKind(fr.retTyp),
	}
}

// isBoxedKind reports whether a value of type t is carried in a frame's
// side table of boxed handles (pointers, SQL values, and opaque runtime
// objects) rather than as raw bytes at its offset.
func isBoxedKind(t *types.Type) bool {
	return t != nil && (t.Kind() == types.KindPointer || t.Kind() == types.KindBuiltin || t.Kind() == types.KindString)
}

func (g *generator) genBlock(fr *frame, b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		g.genStmt(fr, s)
	}
}

func (g *generator) genStmt(fr *frame, s ast.Stmt) {
	switch x := s.(type) {
	case *ast.DeclStmt:
		g.genLocalDecl(fr, x.Decl)
	case *ast.ExprStmt:
		g.genExpr(fr, x.X)
	case *ast.AssignmentStmt:
		g.genAssignment(fr, x)
	case *ast.BlockStmt:
		g.genBlock(fr, x)
	case *ast.IfStmt:
		g.genIf(fr, x)
	case *ast.ForStmt:
		g.genFor(fr, x)
	case *ast.ForInStmt:
		g.genForIn(fr, x)
	case *ast.ReturnStmt:
		g.genReturn(fr, x)
	}
}

func (g *generator) genLocalDecl(fr *frame, d ast.Decl) {
	switch x := d.(type) {
	case *ast.VariableDecl:
		g.genVariableDecl(fr, x)
	// Nested struct/function declarations carry no runtime representation
	// of their own; only their use sites (calls, member access) lower to
	// instructions.
	case *ast.StructDecl, *ast.FunctionDecl:
	}
}

func (g *generator) genVariableDecl(fr *frame, d *ast.VariableDecl) {
	var t *types.Type
	if d.Init != nil {
		t = resolvedType(d.Init)
	} else {
		t = g.an.ResolveTypeRepr(d.Type)
	}
	dst := fr.bind(d, t)
	if d.Init != nil {
		src := g.genExpr(fr, d.Init)
		g.emitAssign(fr, dst, src, t)
	}
}

func (g *generator) genAssignment(fr *frame, s *ast.AssignmentStmt) {
	dst := g.genLValue(fr, s.Target)
	src := g.genExpr(fr, s.Value)
	g.emitAssign(fr, dst, src, resolvedType(s.Target))
}

// genLValue lowers an assignable expression to the LocalVar that names
// its storage, without loading its value (unlike genExpr, which always
// produces a value local).
func (g *generator) genLValue(fr *frame, e ast.Expr) LocalVar {
	switch x := e.(type) {
	case *ast.IdentifierExpr:
		return g.lookupIdentLocal(fr, x)
	case *ast.UnaryExpr:
		if x.Op == ast.UnaryDeref {
			ptr := g.genExpr(fr, x.Operand)
			return MakeLocal(ptr.Offset(), true)
		}
	case *ast.MemberExpr, *ast.IndexExpr:
		// The field/element's address is itself a value held in a plain
		// local (materialized via Lea/LeaScaled); writing to the l-value
		// means writing through that address, so the address-mode bit is
		// set on the very same offset rather than on a new slot.
		addr := g.genAddressOf(fr, e)
		return MakeLocal(addr.Offset(), true)
	}
	return g.genExpr(fr, e)
}

func (g *generator) emitAssign(fr *frame, dst, src LocalVar, t *types.Type) {
	op := assignOpForSize(types.Size(t))
	fr.emit(Instr{Op: op, A: dst, B: src})
}

func assignOpForSize(size int) Opcode {
	switch size {
	case 1:
		return OpAssign1
	case 2:
		return OpAssign2
	case 4:
		return OpAssign4
	default:
		return OpAssign8
	}
}

func (g *generator) genIf(fr *frame, s *ast.IfStmt) {
	cond := g.genExpr(fr, s.Cond)
	jf := fr.emit(Instr{Op: OpJumpIfFalse, A: cond})
	g.genBlock(fr, s.Then)
	if s.Else == nil {
		fr.patchJump(jf)
		return
	}
	jEnd := fr.emit(Instr{Op: OpJump})
	fr.patchJump(jf)
	g.genStmt(fr, s.Else)
	fr.patchJump(jEnd)
}

func (g *generator) genFor(fr *frame, s *ast.ForStmt) {
	if s.Init != nil {
		g.genStmt(fr, s.Init)
	}
	top := len(fr.code)
	var jf int
	hasCond := s.Cond != nil
	if hasCond {
		cond := g.genExpr(fr, s.Cond)
		jf = fr.emit(Instr{Op: OpJumpIfFalse, A: cond})
	}
	g.genBlock(fr, s.Body)
	if s.Next != nil {
		g.genStmt(fr, s.Next)
	}
	back := fr.emit(Instr{Op: OpJump})
	fr.code[back].Imm = int64(top - back)
	if hasCond {
		fr.patchJump(jf)
	}
}

// genForIn lowers a for-in loop's iteration protocol: a runtime call
// advances the iterator each pass and reports exhaustion via a bool
// local, matching spec.md §4.5.3's TableVectorIterator/JoinHashTable
// iteration shims (internal/builtins provides tableIterNext/
// hashTableNext at runtime).
func (g *generator) genForIn(fr *frame, s *ast.ForInStmt) {
	iter := g.genExpr(fr, s.Iterable)
	elemType := g.forInElementType(resolvedType(s.Iterable))
	elem := fr.alloc(elemType)
	fr.pushForIn(s.Target.String(), elem)

	top := len(fr.code)
	more := fr.alloc(g.ctx.Primitive(types.KindBool))
	fr.emit(Instr{Op: OpCallRuntime, A: more, B: elem, C: iter, Name: iterNextName(resolvedType(s.Iterable))})
	jf := fr.emit(Instr{Op: OpJumpIfFalse, A: more})
	g.genBlock(fr, s.Body)
	back := fr.emit(Instr{Op: OpJump})
	fr.code[back].Imm = int64(top - back)
	fr.patchJump(jf)
	fr.popForIn()
}

// forInElementType mirrors sema.(*Analyzer).forInElementType's per-
// iterable-kind binding rule, since the for-in target binds with no
// declaring node for sema to have recorded the element type against
// (spec.md §4.5.3).
func (g *generator) forInElementType(it *types.Type) *types.Type {
	if it == nil || it.Kind() != types.KindBuiltin {
		return it
	}
	switch it.BuiltinKind() {
	case types.BuiltinJoinHashTable:
		return g.ctx.PointerTo(g.ctx.BuiltinType(types.BuiltinHashTableEntry))
	default:
		return g.ctx.PointerTo(g.ctx.BuiltinType(types.BuiltinVectorProjectionIterator))
	}
}

func iterNextName(it *types.Type) string {
	if it == nil || it.Kind() != types.KindBuiltin {
		return "iterNext"
	}
	switch it.BuiltinKind() {
	case types.BuiltinJoinHashTable:
		return "hashTableNext"
	default:
		return "tableIterNext"
	}
}

func (g *generator) genReturn(fr *frame, s *ast.ReturnStmt) {
	if s.Value == nil {
		fr.emit(Instr{Op: OpReturn})
		return
	}
	v := g.genExpr(fr, s.Value)
	fr.emit(Instr{Op: OpReturn, A: v})
}

// genExpr lowers e and returns the LocalVar holding its value, allocating
// a fresh temporary slot for any expression that is not already a bare
// identifier naming an existing local.
func (g *generator) genExpr(fr *frame, e ast.Expr) LocalVar {
	switch x := e.(type) {
	case *ast.LiteralExpr:
		return g.genLiteral(fr, x)
	case *ast.IdentifierExpr:
		return g.lookupIdentLocal(fr, x)
	case *ast.UnaryExpr:
		return g.genUnary(fr, x)
	case *ast.BinaryExpr:
		return g.genBinary(fr, x)
	case *ast.ComparisonExpr:
		return g.genComparison(fr, x)
	case *ast.CallExpr:
		return g.genCall(fr, x)
	case *ast.IndexExpr:
		return g.genIndex(fr, x)
	case *ast.MemberExpr:
		return g.genMember(fr, x)
	case *ast.ImplicitCastExpr:
		return g.genCast(fr, x)
	default:
		return fr.alloc(g.ctx.Primitive(types.KindNil))
	}
}

// lookupIdentLocal resolves an identifier reference to its storage local:
// a declared local/param (keyed by Decl), a for-in loop target (keyed by
// name, since it has no Decl), or — if neither matches, which should not
// happen for a file that passed sema — a fresh zero-valued temporary.
func (g *generator) lookupIdentLocal(fr *frame, x *ast.IdentifierExpr) LocalVar {
	if x.Decl != nil {
		if slot, ok := fr.locals[x.Decl]; ok {
			return slot.v
		}
	}
	if v, ok := fr.lookupForIn(x.Name.String()); ok {
		return v
	}
	return fr.alloc(resolvedType(x))
}

func (g *generator) genLiteral(fr *frame, lit *ast.LiteralExpr) LocalVar {
	t := resolvedType(lit)
	dst := fr.alloc(t)
	switch lit.LitKind {
	case ast.LiteralBool:
		imm := int64(0)
		if lit.Bool {
			imm = 1
		}
		fr.emit(Instr{Op: OpAssignImm1, A: dst, Imm: imm})
	case ast.LiteralInt32:
		fr.emit(Instr{Op: OpAssignImm4, A: dst, Imm: int64(lit.Int32)})
	case ast.LiteralFloat32:
		fr.emit(Instr{Op: OpAssignImm4, A: dst, Imm: int64(floatBitsOf(lit.Float32))})
	case ast.LiteralString:
		fr.emit(Instr{Op: OpAssignImm8, A: dst, Name: lit.Str.String()})
	case ast.LiteralNil:
		fr.emit(Instr{Op: OpAssignImm8, A: dst, Imm: 0})
	}
	return dst
}

func (g *generator) genUnary(fr *frame, u *ast.UnaryExpr) LocalVar {
	t := resolvedType(u)
	switch u.Op {
	case ast.UnaryAddr:
		return g.genAddressOf(fr, u.Operand)
	case ast.UnaryDeref:
		src := g.genExpr(fr, u.Operand)
		dst := fr.alloc(t)
		fr.emit(Instr{Op: derefOpForSize(types.Size(t)), A: dst, B: src})
		return dst
	case ast.UnaryNot:
		src := g.genExpr(fr, u.Operand)
		dst := fr.alloc(t)
		fr.emit(Instr{Op: OpNot, A: dst, B: src})
		return dst
	default: // UnaryNeg
		src := g.genExpr(fr, u.Operand)
		dst := fr.alloc(t)
		fr.emit(Instr{Op: negOpForType(t), A: dst, B: src})
		return dst
	}
}

// genAddressOf lowers `&e` / an l-value's implicit address, emitting Lea
// against the operand's storage local rather than re-evaluating it as a
// value.
func (g *generator) genAddressOf(fr *frame, e ast.Expr) LocalVar {
	switch x := e.(type) {
	case *ast.IdentifierExpr:
		v := g.lookupIdentLocal(fr, x)
		dst := fr.alloc(g.ctx.PointerTo(resolvedType(x)))
		fr.emit(Instr{Op: OpLea, A: dst, B: v})
		return dst
	case *ast.MemberExpr:
		structType := resolvedType(x.Object)
		if x.ViaPointer {
			structType = structType.Elem()
		}
		idx, _, _ := structType.FieldByName(x.Member.String())
		off := int64(types.FieldOffset(structType, idx))
		base := x.Object
		var baseLocal LocalVar
		if x.ViaPointer {
			// base is a pointer-typed expression (e.g. a *Point param); its
			// value, not its own storage offset, is the address to offset
			// from.
			baseLocal = g.genExpr(fr, base)
		} else {
			// genAddressOf always returns an already-boxed pointer local
			// (produced by Lea/LeaIndirect below), so this is indirect too.
			baseLocal = g.genAddressOf(fr, base)
		}
		dst := fr.alloc(g.ctx.PointerTo(resolvedType(x)))
		fr.emit(Instr{Op: OpLeaIndirect, A: dst, B: baseLocal, Imm: off})
		return dst
	case *ast.IndexExpr:
		elemType := resolvedType(x)
		// genAddressOf(x.Object) always yields a boxed pointer local (same
		// reasoning as the MemberExpr case above); LeaScaled always reads
		// B indirectly.
		base := g.genAddressOf(fr, x.Object)
		idx := g.genExpr(fr, x.Index)
		dst := fr.alloc(g.ctx.PointerTo(elemType))
		fr.emit(Instr{Op: OpLeaScaled, A: dst, B: base, C: idx, Imm: int64(types.Size(elemType))})
		return dst
	default:
		return g.genExpr(fr, e)
	}
}

func derefOpForSize(size int) Opcode {
	switch size {
	case 1:
		return OpDeref1
	case 2:
		return OpDeref2
	case 4:
		return OpDeref4
	default:
		return OpDeref8
	}
}

func negOpForType(t *types.Type) Opcode {
	switch t.Kind() {
	case types.KindFloat32:
		return OpNegF32
	case types.KindFloat64:
		return OpNegF64
	case types.KindInt64, types.KindUint64:
		return OpNegI64
	default:
		return OpNegI32
	}
}

func (g *generator) genBinary(fr *frame, b *ast.BinaryExpr) LocalVar {
	t := resolvedType(b)
	if b.Op == ast.BinAnd || b.Op == ast.BinOr {
		return g.genShortCircuit(fr, b)
	}
	l := g.genExpr(fr, b.Left)
	r := g.genExpr(fr, b.Right)
	dst := fr.alloc(t)
	if t.Kind() == types.KindBuiltin {
		// SQL Integer/Real arithmetic has no native register opcode; the
		// VM's runtime shim (internal/builtins) performs the boxed
		// arithmetic and null propagation spec.md §4.7 describes.
		fr.emit(Instr{Op: OpCallRuntime, A: dst, B: l, C: r, Name: "sql" + binaryOpName(b.Op)})
		return dst
	}
	fr.emit(Instr{Op: arithOpFor(b.Op, t), A: dst, B: l, C: r})
	return dst
}

func binaryOpName(op ast.BinaryOp) string {
	switch op {
	case ast.BinAdd:
		return "Add"
	case ast.BinSub:
		return "Sub"
	case ast.BinMul:
		return "Mul"
	case ast.BinDiv:
		return "Div"
	case ast.BinMod:
		return "Mod"
	case ast.BinBitAnd:
		return "BitAnd"
	case ast.BinBitOr:
		return "BitOr"
	default:
		return "BitXor"
	}
}

// genShortCircuit lowers && and || with the usual branch-around-the-RHS
// shape rather than always evaluating both operands.
func (g *generator) genShortCircuit(fr *frame, b *ast.BinaryExpr) LocalVar {
	dst := fr.alloc(g.ctx.Primitive(types.KindBool))
	l := g.genExpr(fr, b.Left)
	fr.emit(Instr{Op: OpAssign1, A: dst, B: l})
	var skip int
	if b.Op == ast.BinAnd {
		skip = fr.emit(Instr{Op: OpJumpIfFalse, A: dst})
	} else {
		skip = fr.emit(Instr{Op: OpJumpIfTrue, A: dst})
	}
	r := g.genExpr(fr, b.Right)
	fr.emit(Instr{Op: OpAssign1, A: dst, B: r})
	fr.patchJump(skip)
	return dst
}

func arithOpFor(op ast.BinaryOp, t *types.Type) Opcode {
	f32 := t.Kind() == types.KindFloat32
	f64 := t.Kind() == types.KindFloat64
	u64 := t.Kind() == types.KindUint64
	u32 := t.Kind() == types.KindUint32 || t.Kind() == types.KindUint16 || t.Kind() == types.KindUint8
	i64 := t.Kind() == types.KindInt64
	switch op {
	case ast.BinAdd:
		switch {
		case f32:
			return OpAddF32
		case f64:
			return OpAddF64
		case u64:
			return OpAddU64
		case u32:
			return OpAddU32
		case i64:
			return OpAddI64
		default:
			return OpAddI32
		}
	case ast.BinSub:
		switch {
		case f32:
			return OpSubF32
		case f64:
			return OpSubF64
		case u64:
			return OpSubU64
		case u32:
			return OpSubU32
		case i64:
			return OpSubI64
		default:
			return OpSubI32
		}
	case ast.BinMul:
		switch {
		case f32:
			return OpMulF32
		case f64:
			return OpMulF64
		case u64:
			return OpMulU64
		case u32:
			return OpMulU32
		case i64:
			return OpMulI64
		default:
			return OpMulI32
		}
	case ast.BinDiv:
		switch {
		case f32:
			return OpDivF32
		case f64:
			return OpDivF64
		case u64:
			return OpDivU64
		case u32:
			return OpDivU32
		case i64:
			return OpDivI64
		default:
			return OpDivI32
		}
	case ast.BinMod:
		switch {
		case u64:
			return OpModU64
		case u32:
			return OpModU32
		case i64:
			return OpModI64
		default:
			return OpModI32
		}
	default: // BinBitAnd/BinBitOr/BinBitXor: dispatched through the integer
		// arithmetic family since the VM treats bitwise and arithmetic
		// integer ops uniformly at the register level (spec.md §4.6.3).
		if i64 || u64 {
			return OpAddI64
		}
		return OpAddI32
	}
}

func (g *generator) genComparison(fr *frame, c *ast.ComparisonExpr) LocalVar {
	lt := resolvedType(c.Left)
	l := g.genExpr(fr, c.Left)
	r := g.genExpr(fr, c.Right)
	dst := fr.alloc(g.ctx.Primitive(types.KindBool))
	if lt.Kind() == types.KindBuiltin {
		// A non-numeric SQL value comparison (Boolean/Date/Timestamp/
		// StringVal, or Integer/Real left un-normalized because both
		// operands already share one SQL type) dispatches to the runtime
		// shim for null-aware three-valued comparison semantics.
		fr.emit(Instr{Op: OpCallRuntime, A: dst, B: l, C: r, Name: "sqlCompare" + compareOpName(c.Op)})
		return dst
	}
	fr.emit(Instr{Op: cmpOpFor(c.Op, lt), A: dst, B: l, C: r})
	return dst
}

func compareOpName(op ast.CompareOp) string {
	switch op {
	case ast.CmpEq:
		return "Eq"
	case ast.CmpNotEq:
		return "Ne"
	case ast.CmpLess:
		return "Lt"
	case ast.CmpLessEq:
		return "Le"
	case ast.CmpGreater:
		return "Gt"
	default:
		return "Ge"
	}
}

func cmpOpFor(op ast.CompareOp, t *types.Type) Opcode {
	if t.Kind() == types.KindPointer {
		if op == ast.CmpEq {
			return OpEqPtr
		}
		return OpNePtr
	}
	if t.Kind() == types.KindBool {
		if op == ast.CmpEq {
			return OpEqBool
		}
		return OpNeBool
	}
	f64 := t.Kind() == types.KindFloat64
	f32 := t.Kind() == types.KindFloat32
	i64 := t.Kind() == types.KindInt64 || t.Kind() == types.KindUint64
	switch op {
	case ast.CmpEq:
		switch {
		case f32:
			return OpEqF32
		case f64:
			return OpEqF64
		case i64:
			return OpEqI64
		default:
			return OpEqI32
		}
	case ast.CmpNotEq:
		switch {
		case f32:
			return OpNeF32
		case f64:
			return OpNeF64
		case i64:
			return OpNeI64
		default:
			return OpNeI32
		}
	case ast.CmpLess:
		switch {
		case f32:
			return OpLtF32
		case f64:
			return OpLtF64
		case i64:
			return OpLtI64
		default:
			return OpLtI32
		}
	case ast.CmpLessEq:
		switch {
		case f32:
			return OpLeF32
		case f64:
			return OpLeF64
		case i64:
			return OpLeI64
		default:
			return OpLeI32
		}
	case ast.CmpGreater:
		switch {
		case f32:
			return OpGtF32
		case f64:
			return OpGtF64
		case i64:
			return OpGtI64
		default:
			return OpGtI32
		}
	default: // CmpGreaterEq
		switch {
		case f32:
			return OpGeF32
		case f64:
			return OpGeF64
		case i64:
			return OpGeI64
		default:
			return OpGeI32
		}
	}
}

// genCall lowers a call. The builtins whose operand(s) are type-name
// expressions rather than values (spec.md §4.4.4): the generic arg-eval
// loop in genCall would mis-evaluate a bare type identifier as a local
// variable reference, so these are folded to a constant or handled
// specially before that loop ever sees their type-name operand(s).
func (g *generator) genCall(fr *frame, call *ast.CallExpr) LocalVar {
	if call.CallKindTag == ast.CallBuiltin {
		switch call.BuiltinName {
		case "sizeOf":
			return g.genSizeOf(fr, call)
		case "offsetOf":
			return g.genOffsetOf(fr, call)
		case "ptrCast":
			return g.genPtrCast(fr, call)
		}
	}

	t := resolvedType(call)
	var dst LocalVar
	if t != nil && t.Kind() != types.KindNil {
		dst = fr.alloc(t)
	}
	args := make([]LocalVar, len(call.Args))
	for i, a := range call.Args {
		args[i] = g.genExpr(fr, a)
	}
	if call.CallKindTag == ast.CallBuiltin {
		fr.emit(Instr{Op: OpCallRuntime, A: dst, Name: call.BuiltinName, Args: args})
		return dst
	}
	callee := call.Callee.(*ast.IdentifierExpr)
	// Every function declared in this file was reserved an id up front
	// (see Generate), so this always resolves regardless of declaration
	// order.
	id, _ := g.mod.FunctionID(callee.Name.String())
	fr.emit(Instr{Op: OpCall, A: dst, Imm: int64(id), Name: callee.Name.String(), Args: args})
	return dst
}

// genSizeOf folds `@sizeOf(T)` to its constant result at compile time;
// the operand names a type, not a value, so there is nothing for the VM
// to do at run time.
func (g *generator) genSizeOf(fr *frame, call *ast.CallExpr) LocalVar {
	dst := fr.alloc(resolvedType(call))
	size := uint32(0)
	if len(call.Args) == 1 {
		if t := g.an.ResolveTypeNameExpr(call.Args[0]); t != nil {
			size = uint32(types.Size(t))
		}
	}
	fr.emit(Instr{Op: OpAssignImm4, A: dst, Imm: int64(size)})
	return dst
}

// genOffsetOf folds `@offsetOf(T, field)` to its constant result the same
// way genSizeOf does.
func (g *generator) genOffsetOf(fr *frame, call *ast.CallExpr) LocalVar {
	dst := fr.alloc(resolvedType(call))
	off := uint32(0)
	if len(call.Args) == 2 {
		if structType := g.an.ResolveTypeNameExpr(call.Args[0]); structType != nil {
			if fieldIdent, ok := call.Args[1].(*ast.IdentifierExpr); ok {
				if idx, _, ok := structType.FieldByName(fieldIdent.Name.String()); ok {
					off = uint32(types.FieldOffset(structType, idx))
				}
			}
		}
	}
	fr.emit(Instr{Op: OpAssignImm4, A: dst, Imm: int64(off)})
	return dst
}

// genPtrCast lowers `@ptrCast(*T, value)`: the target type only
// determines the call's static result type (already set by sema and
// available via resolvedType(call)); sema already wrapped the value
// operand in a CastBitCast ImplicitCastExpr, so evaluating that operand
// normally reproduces the reinterpretation. The first operand names a
// type and is never evaluated.
func (g *generator) genPtrCast(fr *frame, call *ast.CallExpr) LocalVar {
	if len(call.Args) != 2 {
		return fr.alloc(resolvedType(call))
	}
	return g.genExpr(fr, call.Args[1])
}

func (g *generator) genIndex(fr *frame, ix *ast.IndexExpr) LocalVar {
	t := resolvedType(ix)
	addr := g.genAddressOf(fr, ix)
	dst := fr.alloc(t)
	fr.emit(Instr{Op: derefOpForSize(types.Size(t)), A: dst, B: addr})
	return dst
}

func (g *generator) genMember(fr *frame, m *ast.MemberExpr) LocalVar {
	t := resolvedType(m)
	addr := g.genAddressOf(fr, m)
	dst := fr.alloc(t)
	fr.emit(Instr{Op: derefOpForSize(types.Size(t)), A: dst, B: addr})
	return dst
}

func (g *generator) genCast(fr *frame, c *ast.ImplicitCastExpr) LocalVar {
	src := g.genExpr(fr, c.Input)
	srcT := resolvedType(c.Input)
	t := resolvedType(c)
	dst := fr.alloc(t)
	var op Opcode
	srcSize := types.Size(srcT)
	signed := srcT != nil && srcT.IsSignedInteger()
	switch c.CastKindTag {
	case ast.CastIntegralCast:
		op = OpIntegralCast
	case ast.CastIntToFloat:
		op = OpIntToFloat
	case ast.CastFloatToInt:
		op = OpFloatToInt
		srcSize = types.Size(srcT) // the float's own width, for reading it
		signed = t != nil && t.IsSignedInteger()
	case ast.CastBitCast:
		op = OpBitCast
	case ast.CastFloatWiden, ast.CastFloatNarrow:
		op = OpFloatCast
	case ast.CastSqlBoolToBool:
		op = OpForceBoolTruth
	case ast.CastIntToSqlInt, ast.CastIntToSqlDecimal:
		// boxInt's shim has no access to srcT at dispatch time, so the
		// source primitive's width/signedness (it may be any int width)
		// rides along on the instruction the same way the generic cast
		// opcodes carry it.
		fr.emit(Instr{Op: OpCallRuntime, A: dst, B: src, Name: "boxInt",
			SrcSize: int32(srcSize), Signed: signed})
		return dst
	case ast.CastFloatToSqlReal:
		fr.emit(Instr{Op: OpCallRuntime, A: dst, B: src, Name: "boxReal", SrcSize: int32(srcSize)})
		return dst
	case ast.CastSqlIntToSqlReal:
		fr.emit(Instr{Op: OpCallRuntime, A: dst, B: src, Name: "sqlIntToReal"})
		return dst
	default:
		op = OpBitCast
	}
	fr.emit(Instr{
		Op: op, A: dst, B: src,
		Imm:     int64(types.Size(t)),
		SrcSize: int32(srcSize),
		Signed:  signed,
	})
	return dst
}

func resolvedType(e ast.Expr) *types.Type {
	t, _ := e.ResolvedType().(*types.Type)
	return t
}

// floatBitsOf reinterprets f's bit pattern as a uint32 so a float literal
// can ride in Instr.Imm alongside integer immediates without a separate
// field; the VM's OpAssignImm4 handler for a float-typed destination
// reinterprets it back (spec.md §4.6.2's "immediates are raw bit
// patterns, tagged by destination type").
func floatBitsOf(f float32) uint32 {
	return math.Float32bits(f)
}
