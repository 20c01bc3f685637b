// Package ast defines TPL's abstract syntax tree: tagged node variants for
// declarations, statements, expressions, and type-representation
// expressions, plus a visitor traversal utility (spec.md §3.4, §4.3).
//
// Every node carries a closed Kind tag and a source Pos. Nodes are
// structurally immutable after construction except for the Type slot on
// Expr nodes and the Decl back-reference on Identifier expressions, both
// of which are single-writer (the semantic analyzer) and set exactly
// once.
package ast

import "github.com/turingcompl33t/tpl/internal/ident"

// Pos is a source position: 1-based line and column, matching the
// "<file>:<line>:<col>: <message>" diagnostic format from spec.md §7.
type Pos struct {
	Line, Col int
}

// Kind is the closed tag identifying a node's concrete variant.
type Kind uint8

const (
	KindInvalid Kind = iota

	// File
	KindFile

	// Declarations
	KindFieldDecl
	KindFunctionDecl
	KindStructDecl
	KindVariableDecl

	// Statements
	KindAssignmentStmt
	KindBlockStmt
	KindDeclStmt
	KindExprStmt
	KindForStmt
	KindForInStmt
	KindIfStmt
	KindReturnStmt

	// Expressions
	KindLiteralExpr
	KindIdentifierExpr
	KindUnaryExpr
	KindBinaryExpr
	KindComparisonExpr
	KindCallExpr
	KindIndexExpr
	KindMemberExpr
	KindFunctionLitExpr
	KindImplicitCastExpr
	KindBadExpr

	// Type-representation expressions
	KindArrayTypeRepr
	KindFunctionTypeRepr
	KindMapTypeRepr
	KindPointerTypeRepr
	KindStructTypeRepr
)

// Node is implemented by every AST node.
type Node interface {
	Kind() Kind
	Pos() Pos
}

// Decl is implemented by every declaration node.
type Decl interface {
	Node
	declNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node. Type is nil until the
// semantic analyzer assigns it; see spec.md §8 invariant 3.
type Expr interface {
	Node
	exprNode()
	// SetType and ResolvedType are the narrow, sema-only mutator/accessor
	// for the expression's type slot (spec.md §4.3, §9 "friend-based
	// mutation").
	SetType(t any)
	ResolvedType() any
}

// TypeRepr is implemented by every type-representation expression: a
// syntactic form naming a type, resolved to a canonical types.Type by
// sema.
type TypeRepr interface {
	Node
	typeReprNode()
}

// base carries the fields every node needs: its kind tag and position.
// Embedded (not composed via pointer) so node structs stay small value
// types where useful and Kind()/Pos() come for free.
type base struct {
	kind Kind
	pos  Pos
}

func (b base) Kind() Kind { return b.kind }
func (b base) Pos() Pos   { return b.pos }

// exprBase adds the mutable type slot shared by every Expr variant.
type exprBase struct {
	base
	typ any // holds a *types.Type once sema runs; any to avoid an import cycle
}

func (e *exprBase) SetType(t any)    { e.typ = t }
func (e *exprBase) ResolvedType() any { return e.typ }

// -----------------------------------------------------------------------
// File
// -----------------------------------------------------------------------

// File is the root node: an ordered list of declarations.
type File struct {
	base
	Decls []Decl
}

// -----------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------

// FieldDecl names a (name, type-repr) pair, used inside struct bodies and
// function parameter lists.
type FieldDecl struct {
	base
	Name *ident.Identifier
	Type TypeRepr
}

func (*FieldDecl) declNode() {}

// FunctionDecl binds a name to a function literal.
type FunctionDecl struct {
	base
	Name *ident.Identifier
	Fn   *FunctionLitExpr
}

func (*FunctionDecl) declNode() {}

// StructDecl binds a name to a struct type representation.
type StructDecl struct {
	base
	Name   *ident.Identifier
	Struct *StructTypeRepr
}

func (*StructDecl) declNode() {}

// VariableDecl binds a name to an optional declared type and an optional
// initializer expression. At least one of Type or Init must be non-nil;
// sema infers the missing one from the other.
type VariableDecl struct {
	base
	Name *ident.Identifier
	Type TypeRepr // optional
	Init Expr     // optional
}

func (*VariableDecl) declNode() {}

// -----------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------

// AssignmentStmt assigns Value to the l-value Target.
type AssignmentStmt struct {
	base
	Target Expr
	Value  Expr
}

func (*AssignmentStmt) stmtNode() {}

// BlockStmt is an ordered list of statements plus the position of its
// closing brace (needed for accurate end-of-block diagnostics).
type BlockStmt struct {
	base
	Stmts    []Stmt
	ClosePos Pos
}

func (*BlockStmt) stmtNode() {}

// DeclStmt wraps a Decl appearing in statement position (e.g. a local
// `var` or nested `struct`/`fun`).
type DeclStmt struct {
	base
	Decl Decl
}

func (*DeclStmt) stmtNode() {}

// ExprStmt wraps an expression evaluated for its side effect.
type ExprStmt struct {
	base
	X Expr
}

func (*ExprStmt) stmtNode() {}

// ForStmt is the init/cond/next C-style loop. Init, Cond, and Next are
// each optional (nil if omitted). spec.md's language has no continue/
// break statement; the loop always lowers exactly this trio.
type ForStmt struct {
	base
	Init Stmt // DeclStmt or AssignmentStmt wrapped as ExprStmt, or nil
	Cond Expr // nil means "always true"
	Next Stmt
	Body *BlockStmt
}

func (*ForStmt) stmtNode() {}

// ForInStmt iterates Iterable, binding each element to Target, per
// spec.md §4.5.3 (table vector iterator / join hash table entry
// iteration).
type ForInStmt struct {
	base
	Target   *ident.Identifier
	Iterable Expr
	Body     *BlockStmt
}

func (*ForInStmt) stmtNode() {}

// IfStmt is a condition, a then-block, and an optional else (either an
// *IfStmt for an `else if` chain, or a *BlockStmt).
type IfStmt struct {
	base
	Cond Expr
	Then *BlockStmt
	Else Stmt // *BlockStmt, *IfStmt, or nil
}

func (*IfStmt) stmtNode() {}

// ReturnStmt optionally carries a value; absent for functions returning
// nothing representable (the language has no void type distinct from an
// empty struct return in this core, so Value is nil only for early-return
// short-circuits sema rejects unless the enclosing function's return type
// permits it).
type ReturnStmt struct {
	base
	Value Expr // optional
}

func (*ReturnStmt) stmtNode() {}

// -----------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------

// LiteralKind distinguishes the five literal forms spec.md §3.4 allows.
type LiteralKind uint8

const (
	LiteralNil LiteralKind = iota
	LiteralBool
	LiteralInt32
	LiteralFloat32
	LiteralString
)

// LiteralExpr is a constant value appearing directly in source.
type LiteralExpr struct {
	exprBase
	LitKind LiteralKind
	Bool    bool
	Int32   int32
	Float32 float32
	Str     *ident.Identifier // interned, for de-duplication
}

func (*LiteralExpr) exprNode() {}

// IdentifierExpr names a variable/function/struct/field. Before name
// resolution, Name is all that is populated; after resolution, Decl points
// at the binding declaration (spec.md §3.4, §9 "weak back-reference").
type IdentifierExpr struct {
	exprBase
	Name *ident.Identifier
	Decl Decl // set once by sema name resolution
}

func (*IdentifierExpr) exprNode() {}

// UnaryOp enumerates the four unary operators.
type UnaryOp uint8

const (
	UnaryNot UnaryOp = iota // !
	UnaryNeg                // -
	UnaryDeref              // *
	UnaryAddr               // &
)

// UnaryExpr applies a unary operator to Operand.
type UnaryExpr struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryOp enumerates the arithmetic/bitwise/logical binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinBitAnd
	BinBitOr
	BinBitXor
	BinAnd // logical &&
	BinOr  // logical ||
)

// BinaryExpr applies a binary operator to Left and Right.
type BinaryExpr struct {
	exprBase
	Op          BinaryOp
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// CompareOp enumerates the comparison operators.
type CompareOp uint8

const (
	CmpEq CompareOp = iota
	CmpNotEq
	CmpLess
	CmpLessEq
	CmpGreater
	CmpGreaterEq
)

// ComparisonExpr compares Left and Right, producing a bool (primitive or
// SQL, per spec.md §4.4.2).
type ComparisonExpr struct {
	exprBase
	Op          CompareOp
	Left, Right Expr
}

func (*ComparisonExpr) exprNode() {}

// CallKind distinguishes a regular user-function call from a builtin
// call, which dispatches to the builtin validator (spec.md §3.4, §4.4.4).
type CallKind uint8

const (
	CallRegular CallKind = iota
	CallBuiltin
)

// CallExpr calls Callee with Args. For CallBuiltin, Callee is an
// IdentifierExpr naming the builtin (e.g. "sizeOf", "tableIterInit");
// BuiltinName gives that name directly for convenience since builtins are
// never ordinary declarations.
type CallExpr struct {
	exprBase
	Callee      Expr
	Args        []Expr
	CallKindTag CallKind
	BuiltinName string // set iff CallKindTag == CallBuiltin
}

func (*CallExpr) exprNode() {}

// IndexExpr indexes Object by Index (array element or map lookup).
type IndexExpr struct {
	exprBase
	Object Expr
	Index  Expr
}

func (*IndexExpr) exprNode() {}

// MemberExpr accesses a named field of Object. Arrow (struct-pointer dot
// access) is permitted and recorded in ViaPointer.
type MemberExpr struct {
	exprBase
	Object     Expr
	Member     *ident.Identifier
	ViaPointer bool
}

func (*MemberExpr) exprNode() {}

// FunctionLitExpr is a function literal: its signature (as a
// FunctionTypeRepr) and body block.
type FunctionLitExpr struct {
	exprBase
	Params  []*FieldDecl
	RetType TypeRepr // optional; nil means inferred as nil/void is rejected by sema for non-trivial bodies
	Body    *BlockStmt
}

func (*FunctionLitExpr) exprNode() {}

// CastKind enumerates the closed set of implicit cast kinds sema may
// insert, per spec.md §3.4.
type CastKind uint8

const (
	CastIntToSqlInt CastKind = iota
	CastIntToSqlDecimal
	CastSqlBoolToBool
	CastIntegralCast
	CastIntToFloat
	CastFloatToInt
	CastBitCast
	CastFloatToSqlReal
	CastSqlIntToSqlReal
	CastFloatWiden  // float32 -> float64, numeric (not bitwise) conversion
	CastFloatNarrow // float64 -> float32, numeric (not bitwise) conversion
)

// ImplicitCastExpr is inserted only by sema; it is never produced by the
// parser (spec.md §4.4.3, §9).
type ImplicitCastExpr struct {
	exprBase
	CastKindTag CastKind
	Input       Expr
}

func (*ImplicitCastExpr) exprNode() {}

// BadExpr marks a syntax location sema or the parser could not make sense
// of; it carries no meaningful Type and terminates further checking of
// expressions that depend on it (spec.md §4.4.5, "avoiding cascades").
type BadExpr struct {
	exprBase
}

func (*BadExpr) exprNode() {}

// -----------------------------------------------------------------------
// Type-representation expressions
// -----------------------------------------------------------------------

// ArrayTypeRepr is the syntactic form `[N]T` or `[*]T`.
type ArrayTypeRepr struct {
	base
	Length    int
	HasLength bool
	Elem      TypeRepr
}

func (*ArrayTypeRepr) typeReprNode() {}

// FunctionTypeRepr is the syntactic form `(T1, T2) -> R`.
type FunctionTypeRepr struct {
	base
	Params []TypeRepr
	Ret    TypeRepr
}

func (*FunctionTypeRepr) typeReprNode() {}

// MapTypeRepr is the syntactic form `map[K]V`. Front-end-only per
// spec.md §9.
type MapTypeRepr struct {
	base
	Key TypeRepr
	Val TypeRepr
}

func (*MapTypeRepr) typeReprNode() {}

// PointerTypeRepr is the syntactic form `*T`.
type PointerTypeRepr struct {
	base
	Elem TypeRepr
}

func (*PointerTypeRepr) typeReprNode() {}

// StructTypeRepr is the syntactic form `struct{ f1: T1, f2: T2 }`, or a
// bare reference to a nominal builtin type (e.g. `*AggregationHashTable`
// parses its elem as a StructTypeRepr naming the builtin).
type StructTypeRepr struct {
	base
	Name   string // the nominal type name for a bare reference, "" for a literal struct{...}
	Fields []*FieldDecl
}

func (*StructTypeRepr) typeReprNode() {}
