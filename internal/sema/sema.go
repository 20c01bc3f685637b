// Package sema implements TPL's semantic analyzer: name resolution via a
// lexical scope stack, expression typing, implicit-cast insertion, and
// builtin-call validation (spec.md §4.4). The teacher evaluates a
// dynamically-typed AST directly and has no analogous static pass; this
// package's error-accumulation discipline ("(message-id, args...)
// recorded now, rendered later", continue past most errors) is grounded
// on the teacher's errors.go convention via internal/reporter.
package sema

import (
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/types"
)

// Analyzer performs one compilation unit's semantic analysis.
type Analyzer struct {
	ctx *types.Context
	fac *ast.NodeFactory
	rep *reporter.Reporter

	top   *scope
	cur   *scope
	fnRet *types.Type // nil outside a function body
}

// New creates an Analyzer sharing ctx (canonical types), fac (AST node
// construction, needed to build ImplicitCastExpr nodes), and rep
// (diagnostics) with the rest of the compilation pipeline.
func New(ctx *types.Context, fac *ast.NodeFactory, rep *reporter.Reporter) *Analyzer {
	top := newScope(ScopeFile, nil)
	return &Analyzer{ctx: ctx, fac: fac, rep: rep, top: top, cur: top}
}

// Analyze type-checks file in place, mutating Expr.Type slots,
// IdentifierExpr.Decl back-references, and inserting ImplicitCastExpr
// nodes. Check rep.HasErrors() afterward; a file with errors should not
// be handed to the bytecode generator.
func (a *Analyzer) Analyze(file *ast.File) {
	// Pass 1: register every struct and function signature at file scope
	// so forward references (a function calling one declared later in the
	// file) resolve.
	for _, d := range file.Decls {
		switch x := d.(type) {
		case *ast.StructDecl:
			a.declareStruct(x)
		case *ast.FunctionDecl:
			a.declareFunctionSignature(x)
		}
	}
	// Pass 2: check function bodies.
	for _, d := range file.Decls {
		if fd, ok := d.(*ast.FunctionDecl); ok {
			a.checkFunctionBody(fd)
		}
	}
}

func (a *Analyzer) declareStruct(d *ast.StructDecl) {
	name := d.Name.String()
	t := a.resolveStructFields(name, d.Struct)
	a.declare(a.top, name, d.Pos(), d, t)
}

func (a *Analyzer) resolveStructFields(name string, s *ast.StructTypeRepr) *types.Type {
	fields := make([]types.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		ft := a.resolveType(f.Type)
		fields = append(fields, types.Field{Name: f.Name, Type: ft})
	}
	return a.ctx.StructOf(name, fields)
}

func (a *Analyzer) declareFunctionSignature(d *ast.FunctionDecl) *types.Type {
	params := make([]*types.Type, 0, len(d.Fn.Params))
	for _, p := range d.Fn.Params {
		params = append(params, a.resolveType(p.Type))
	}
	var ret *types.Type
	if d.Fn.RetType != nil {
		ret = a.resolveType(d.Fn.RetType)
	} else {
		ret = a.ctx.Primitive(types.KindNil)
	}
	ft := a.ctx.Function(params, ret)
	a.declare(a.top, d.Name.String(), d.Pos(), d, ft)
	return ft
}

func (a *Analyzer) checkFunctionBody(d *ast.FunctionDecl) {
	binding, _ := a.top.lookup(d.Name.String())
	fnType := binding.typ

	prevRet := a.fnRet
	a.fnRet = fnType.Return()
	a.pushScope(ScopeFunction)
	for i, p := range d.Fn.Params {
		a.declare(a.cur, p.Name.String(), p.Pos(), p, fnType.Params()[i])
	}
	a.checkBlock(d.Fn.Body)
	a.popScope()
	a.fnRet = prevRet
}

// LookupTopType resolves a file-scope name (a function or struct declared
// in this compilation unit) to its canonical type, for use by later
// pipeline stages (internal/bytecode) that need a declaration's type
// without re-deriving it. Valid only after Analyze has run.
func (a *Analyzer) LookupTopType(name string) (*types.Type, bool) {
	b, ok := a.top.lookup(name)
	if !ok {
		return nil, false
	}
	return b.typ, true
}

// ResolveTypeNameExpr interprets e the way @sizeOf/@offsetOf/@ptrCast's
// type-name operand is validated (a bare identifier naming a primitive,
// struct, or builtin, or a pointer expression built from the ordinary
// unary-deref grammar). It reports no diagnostics, since the generator
// only calls this on a tree Analyze already accepted.
func (a *Analyzer) ResolveTypeNameExpr(e ast.Expr) *types.Type {
	return a.exprAsTypeName(e)
}

// ResolveTypeRepr exposes resolveType for callers (internal/bytecode's
// frame-layout pass) that need the canonical type of a syntactic
// type-representation outside of a checkExpr/checkVariableDecl call,
// e.g. a local declared with an explicit type and no initializer.
func (a *Analyzer) ResolveTypeRepr(tr ast.TypeRepr) *types.Type {
	return a.resolveType(tr)
}

func (a *Analyzer) pushScope(kind ScopeKind) { a.cur = newScope(kind, a.cur) }
func (a *Analyzer) popScope()                { a.cur = a.cur.parent }

// inLoop reports whether a loop scope is active anywhere on the
// current scope chain (used to validate for-in targets etc. if needed).
func (a *Analyzer) inLoop() bool {
	for s := a.cur; s != nil; s = s.parent {
		if s.kind == ScopeLoop {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------
// Type-representation resolution
// -----------------------------------------------------------------------

var primitiveNames = map[string]types.Kind{
	"nil": types.KindNil, "bool": types.KindBool,
	"int8": types.KindInt8, "int16": types.KindInt16, "int32": types.KindInt32, "int64": types.KindInt64,
	"uint8": types.KindUint8, "uint16": types.KindUint16, "uint32": types.KindUint32, "uint64": types.KindUint64,
	"float32": types.KindFloat32, "float64": types.KindFloat64,
	"string": types.KindString,
}

// resolveType turns a syntactic type-representation into a canonical
// *types.Type, resolving bare nominal names against primitives, declared
// structs, and the closed builtin set, in that order (spec.md §3.3).
func (a *Analyzer) resolveType(tr ast.TypeRepr) *types.Type {
	switch x := tr.(type) {
	case *ast.PointerTypeRepr:
		return a.ctx.PointerTo(a.resolveType(x.Elem))
	case *ast.ArrayTypeRepr:
		return a.ctx.ArrayOf(x.Length, x.HasLength, a.resolveType(x.Elem))
	case *ast.MapTypeRepr:
		return a.ctx.MapOf(a.resolveType(x.Key), a.resolveType(x.Val))
	case *ast.FunctionTypeRepr:
		params := make([]*types.Type, 0, len(x.Params))
		for _, p := range x.Params {
			params = append(params, a.resolveType(p))
		}
		return a.ctx.Function(params, a.resolveType(x.Ret))
	case *ast.StructTypeRepr:
		if len(x.Fields) > 0 {
			return a.resolveStructFields(x.Name, x)
		}
		return a.resolveNominal(x.Name, x.Pos())
	default:
		a.rep.Report(reporter.MsgUnreachable, tr.Pos(), "unknown TypeRepr variant")
		return nil
	}
}

func (a *Analyzer) resolveNominal(name string, pos ast.Pos) *types.Type {
	if k, ok := primitiveNames[name]; ok {
		return a.ctx.Primitive(k)
	}
	if b, ok := a.top.lookupLocal(name); ok {
		return b.typ
	}
	if bk, ok := types.BuiltinByName(name); ok {
		return a.ctx.BuiltinType(bk)
	}
	a.rep.Report(reporter.MsgUndeclaredIdentifier, pos, name)
	return nil
}
