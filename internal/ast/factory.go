package ast

import (
	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ident"
)

// NodeFactory allocates AST nodes from the owning compilation context's
// arena. Per spec.md §4.3, nodes are structurally immutable after
// construction except for the fields exprBase exposes (the Type slot) and
// IdentifierExpr.Decl, both single-writer (sema).
//
// Allocation volume is dominated by leaf expressions (identifiers and
// literals), so those two variants are bump-allocated from dedicated
// arena.Pool chunks; the remaining, far less numerous node kinds use
// ordinary Go allocation. This mirrors the "oversized allocations get a
// dedicated chunk" spirit of spec.md §4.1 while staying inside what the Go
// garbage collector can safely scan (see DESIGN.md).
type NodeFactory struct {
	idents   arena.Pool[IdentifierExpr]
	literals arena.Pool[LiteralExpr]
}

// NewNodeFactory creates a NodeFactory. chunkLen controls the pool chunk
// size for identifiers/literals; 0 selects a sensible default.
func NewNodeFactory(chunkLen int) *NodeFactory {
	return &NodeFactory{
		idents:   *arena.NewPool[IdentifierExpr](chunkLen),
		literals: *arena.NewPool[LiteralExpr](chunkLen),
	}
}

func (f *NodeFactory) NewFile(pos Pos, decls []Decl) *File {
	return &File{base: base{kind: KindFile, pos: pos}, Decls: decls}
}

func (f *NodeFactory) NewFieldDecl(pos Pos, name *ident.Identifier, typ TypeRepr) *FieldDecl {
	return &FieldDecl{base: base{kind: KindFieldDecl, pos: pos}, Name: name, Type: typ}
}

func (f *NodeFactory) NewFunctionDecl(pos Pos, name *ident.Identifier, fn *FunctionLitExpr) *FunctionDecl {
	return &FunctionDecl{base: base{kind: KindFunctionDecl, pos: pos}, Name: name, Fn: fn}
}

func (f *NodeFactory) NewStructDecl(pos Pos, name *ident.Identifier, s *StructTypeRepr) *StructDecl {
	return &StructDecl{base: base{kind: KindStructDecl, pos: pos}, Name: name, Struct: s}
}

func (f *NodeFactory) NewVariableDecl(pos Pos, name *ident.Identifier, typ TypeRepr, init Expr) *VariableDecl {
	return &VariableDecl{base: base{kind: KindVariableDecl, pos: pos}, Name: name, Type: typ, Init: init}
}

func (f *NodeFactory) NewAssignmentStmt(pos Pos, target, value Expr) *AssignmentStmt {
	return &AssignmentStmt{base: base{kind: KindAssignmentStmt, pos: pos}, Target: target, Value: value}
}

func (f *NodeFactory) NewBlockStmt(pos Pos, stmts []Stmt, closePos Pos) *BlockStmt {
	return &BlockStmt{base: base{kind: KindBlockStmt, pos: pos}, Stmts: stmts, ClosePos: closePos}
}

func (f *NodeFactory) NewDeclStmt(pos Pos, d Decl) *DeclStmt {
	return &DeclStmt{base: base{kind: KindDeclStmt, pos: pos}, Decl: d}
}

func (f *NodeFactory) NewExprStmt(pos Pos, x Expr) *ExprStmt {
	return &ExprStmt{base: base{kind: KindExprStmt, pos: pos}, X: x}
}

func (f *NodeFactory) NewForStmt(pos Pos, init Stmt, cond Expr, next Stmt, body *BlockStmt) *ForStmt {
	return &ForStmt{base: base{kind: KindForStmt, pos: pos}, Init: init, Cond: cond, Next: next, Body: body}
}

func (f *NodeFactory) NewForInStmt(pos Pos, target *ident.Identifier, iterable Expr, body *BlockStmt) *ForInStmt {
	return &ForInStmt{base: base{kind: KindForInStmt, pos: pos}, Target: target, Iterable: iterable, Body: body}
}

func (f *NodeFactory) NewIfStmt(pos Pos, cond Expr, then *BlockStmt, els Stmt) *IfStmt {
	return &IfStmt{base: base{kind: KindIfStmt, pos: pos}, Cond: cond, Then: then, Else: els}
}

func (f *NodeFactory) NewReturnStmt(pos Pos, value Expr) *ReturnStmt {
	return &ReturnStmt{base: base{kind: KindReturnStmt, pos: pos}, Value: value}
}

func (f *NodeFactory) NewLiteral(pos Pos, kind LiteralKind) *LiteralExpr {
	n := f.literals.New()
	n.exprBase = exprBase{base: base{kind: KindLiteralExpr, pos: pos}}
	n.LitKind = kind
	return n
}

func (f *NodeFactory) NewIdentifier(pos Pos, name *ident.Identifier) *IdentifierExpr {
	n := f.idents.New()
	n.exprBase = exprBase{base: base{kind: KindIdentifierExpr, pos: pos}}
	n.Name = name
	return n
}

func (f *NodeFactory) NewUnary(pos Pos, op UnaryOp, operand Expr) *UnaryExpr {
	return &UnaryExpr{exprBase: exprBase{base: base{kind: KindUnaryExpr, pos: pos}}, Op: op, Operand: operand}
}

func (f *NodeFactory) NewBinary(pos Pos, op BinaryOp, l, r Expr) *BinaryExpr {
	return &BinaryExpr{exprBase: exprBase{base: base{kind: KindBinaryExpr, pos: pos}}, Op: op, Left: l, Right: r}
}

func (f *NodeFactory) NewComparison(pos Pos, op CompareOp, l, r Expr) *ComparisonExpr {
	return &ComparisonExpr{exprBase: exprBase{base: base{kind: KindComparisonExpr, pos: pos}}, Op: op, Left: l, Right: r}
}

func (f *NodeFactory) NewCall(pos Pos, callee Expr, args []Expr, kind CallKind, builtinName string) *CallExpr {
	return &CallExpr{
		exprBase:    exprBase{base: base{kind: KindCallExpr, pos: pos}},
		Callee:      callee,
		Args:        args,
		CallKindTag: kind,
		BuiltinName: builtinName,
	}
}

func (f *NodeFactory) NewIndex(pos Pos, object, index Expr) *IndexExpr {
	return &IndexExpr{exprBase: exprBase{base: base{kind: KindIndexExpr, pos: pos}}, Object: object, Index: index}
}

func (f *NodeFactory) NewMember(pos Pos, object Expr, member *ident.Identifier, viaPointer bool) *MemberExpr {
	return &MemberExpr{
		exprBase:   exprBase{base: base{kind: KindMemberExpr, pos: pos}},
		Object:     object,
		Member:     member,
		ViaPointer: viaPointer,
	}
}

func (f *NodeFactory) NewFunctionLit(pos Pos, params []*FieldDecl, ret TypeRepr, body *BlockStmt) *FunctionLitExpr {
	return &FunctionLitExpr{
		exprBase: exprBase{base: base{kind: KindFunctionLitExpr, pos: pos}},
		Params:   params,
		RetType:  ret,
		Body:     body,
	}
}

func (f *NodeFactory) NewImplicitCast(pos Pos, kind CastKind, input Expr) *ImplicitCastExpr {
	return &ImplicitCastExpr{
		exprBase:    exprBase{base: base{kind: KindImplicitCastExpr, pos: pos}},
		CastKindTag: kind,
		Input:       input,
	}
}

func (f *NodeFactory) NewBad(pos Pos) *BadExpr {
	return &BadExpr{exprBase: exprBase{base: base{kind: KindBadExpr, pos: pos}}}
}

func (f *NodeFactory) NewArrayTypeRepr(pos Pos, length int, hasLength bool, elem TypeRepr) *ArrayTypeRepr {
	return &ArrayTypeRepr{base: base{kind: KindArrayTypeRepr, pos: pos}, Length: length, HasLength: hasLength, Elem: elem}
}

func (f *NodeFactory) NewFunctionTypeRepr(pos Pos, params []TypeRepr, ret TypeRepr) *FunctionTypeRepr {
	return &FunctionTypeRepr{base: base{kind: KindFunctionTypeRepr, pos: pos}, Params: params, Ret: ret}
}

func (f *NodeFactory) NewMapTypeRepr(pos Pos, key, val TypeRepr) *MapTypeRepr {
	return &MapTypeRepr{base: base{kind: KindMapTypeRepr, pos: pos}, Key: key, Val: val}
}

func (f *NodeFactory) NewPointerTypeRepr(pos Pos, elem TypeRepr) *PointerTypeRepr {
	return &PointerTypeRepr{base: base{kind: KindPointerTypeRepr, pos: pos}, Elem: elem}
}

func (f *NodeFactory) NewStructTypeRepr(pos Pos, name string, fields []*FieldDecl) *StructTypeRepr {
	return &StructTypeRepr{base: base{kind: KindStructTypeRepr, pos: pos}, Name: name, Fields: fields}
}
