// Package parser implements a recursive-descent/Pratt parser producing the
// internal/ast tree consumed by internal/sema. Like internal/scanner, this
// is the module's own concrete instance of the external front end spec.md
// §1 treats as a given collaborator (§6.2); its grammar covers the surface
// spec.md's example programs (§8) use: function and struct declarations,
// var/if/for/for-in/return/assignment statements, and the full expression
// grammar including builtin calls (`@name(...)`), member/index access, and
// the syntactic type forms (`*T`, `[N]T`, `map[K]V`, `(T,T)->R`, `struct{}`,
// and bare nominal names).
package parser

import (
	"fmt"

	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/ident"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/scanner"
)

// Parser consumes a token stream from a scanner.Scanner and builds an
// *ast.File, interning identifiers through an *ident.Interner and routing
// diagnostics through a *reporter.Reporter.
type Parser struct {
	sc   *scanner.Scanner
	fac  *ast.NodeFactory
	ids  *ident.Interner
	rep  *reporter.Reporter
	file string

	cur scanner.Token
}

// New creates a Parser over src. fac and ids are shared with the rest of
// the compilation pipeline so identifiers and nodes stay within one
// arena-backed context.
func New(file, src string, fac *ast.NodeFactory, ids *ident.Interner, rep *reporter.Reporter) *Parser {
	p := &Parser{sc: scanner.New(src), fac: fac, ids: ids, rep: rep, file: file}
	p.cur = p.sc.Next()
	return p
}

func (p *Parser) pos() ast.Pos { return ast.Pos{Line: p.cur.Pos.Line, Col: p.cur.Pos.Col} }

func (p *Parser) advance() scanner.Token {
	tok := p.cur
	p.cur = p.sc.Next()
	return tok
}

func (p *Parser) at(k scanner.Kind) bool { return p.cur.Kind == k }

func (p *Parser) expect(k scanner.Kind) scanner.Token {
	if p.cur.Kind != k {
		p.rep.Report(reporter.MsgUnexpectedToken, p.pos(), fmt.Sprintf("%v (wanted %v)", p.cur.Kind, k))
		return p.advance()
	}
	return p.advance()
}

func (p *Parser) errorf(msg string, args ...any) {
	p.rep.Report(reporter.MsgUnexpectedToken, p.pos(), fmt.Sprintf(msg, args...))
}

// Parse parses the full source as a File.
func (p *Parser) Parse() *ast.File {
	pos := p.pos()
	var decls []ast.Decl
	for !p.at(scanner.EOF) {
		d := p.parseDecl()
		if d != nil {
			decls = append(decls, d)
		}
	}
	return p.fac.NewFile(pos, decls)
}

func (p *Parser) parseDecl() ast.Decl {
	switch p.cur.Kind {
	case scanner.KW_FUN:
		return p.parseFunctionDecl()
	case scanner.KW_STRUCT:
		return p.parseStructDecl()
	case scanner.KW_VAR:
		return p.parseVariableDecl(true)
	default:
		p.errorf("expected declaration, got %v", p.cur.Kind)
		p.advance()
		return nil
	}
}

func (p *Parser) parseFunctionDecl() ast.Decl {
	pos := p.pos()
	p.expect(scanner.KW_FUN)
	name := p.expect(scanner.IDENT)
	p.expect(scanner.LPAREN)
	var params []*ast.FieldDecl
	for !p.at(scanner.RPAREN) && !p.at(scanner.EOF) {
		if len(params) > 0 {
			p.expect(scanner.COMMA)
		}
		params = append(params, p.parseField())
	}
	p.expect(scanner.RPAREN)

	var ret ast.TypeRepr
	if p.at(scanner.ARROW) {
		p.advance()
		ret = p.parseType()
	}
	body := p.parseBlock()
	fn := p.fac.NewFunctionLit(pos, params, ret, body)
	return p.fac.NewFunctionDecl(pos, p.ids.Intern(name.Lexeme), fn)
}

func (p *Parser) parseStructDecl() ast.Decl {
	pos := p.pos()
	p.expect(scanner.KW_STRUCT)
	name := p.expect(scanner.IDENT)
	s := p.parseStructBody()
	return p.fac.NewStructDecl(pos, p.ids.Intern(name.Lexeme), s)
}

func (p *Parser) parseStructBody() *ast.StructTypeRepr {
	pos := p.pos()
	p.expect(scanner.LBRACE)
	var fields []*ast.FieldDecl
	for !p.at(scanner.RBRACE) && !p.at(scanner.EOF) {
		fields = append(fields, p.parseField())
		if p.at(scanner.COMMA) || p.at(scanner.SEMI) {
			p.advance()
		}
	}
	p.expect(scanner.RBRACE)
	return p.fac.NewStructTypeRepr(pos, "", fields)
}

func (p *Parser) parseField() *ast.FieldDecl {
	pos := p.pos()
	name := p.expect(scanner.IDENT)
	p.expect(scanner.COLON)
	typ := p.parseType()
	return p.fac.NewFieldDecl(pos, p.ids.Intern(name.Lexeme), typ)
}

// parseVariableDecl parses `var name (: Type)? (= Expr)?`, followed by `;`
// when consumeSemi is set. The node is returned as a Decl; inside a block
// the caller wraps it in a DeclStmt.
func (p *Parser) parseVariableDecl(consumeSemi bool) ast.Decl {
	pos := p.pos()
	p.expect(scanner.KW_VAR)
	name := p.expect(scanner.IDENT)
	var typ ast.TypeRepr
	if p.at(scanner.COLON) {
		p.advance()
		typ = p.parseType()
	}
	var init ast.Expr
	if p.at(scanner.ASSIGN) {
		p.advance()
		init = p.parseExpr()
	}
	if consumeSemi && p.at(scanner.SEMI) {
		p.advance()
	}
	return p.fac.NewVariableDecl(pos, p.ids.Intern(name.Lexeme), typ, init)
}

// -----------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------

func (p *Parser) parseType() ast.TypeRepr {
	pos := p.pos()
	switch p.cur.Kind {
	case scanner.STAR:
		p.advance()
		return p.fac.NewPointerTypeRepr(pos, p.parseType())
	case scanner.LBRACKET:
		p.advance()
		length, hasLength := 0, false
		if p.at(scanner.STAR) {
			p.advance()
		} else if p.at(scanner.INT) {
			length = int(p.cur.IntVal)
			hasLength = true
			p.advance()
		}
		p.expect(scanner.RBRACKET)
		return p.fac.NewArrayTypeRepr(pos, length, hasLength, p.parseType())
	case scanner.LPAREN:
		p.advance()
		var params []ast.TypeRepr
		for !p.at(scanner.RPAREN) && !p.at(scanner.EOF) {
			if len(params) > 0 {
				p.expect(scanner.COMMA)
			}
			params = append(params, p.parseType())
		}
		p.expect(scanner.RPAREN)
		p.expect(scanner.ARROW)
		return p.fac.NewFunctionTypeRepr(pos, params, p.parseType())
	case scanner.KW_STRUCT:
		p.advance()
		return p.parseStructBody()
	case scanner.IDENT:
		name := p.cur.Lexeme
		p.advance()
		if name == "map" && p.at(scanner.LBRACKET) {
			p.advance()
			key := p.parseType()
			p.expect(scanner.RBRACKET)
			val := p.parseType()
			return p.fac.NewMapTypeRepr(pos, key, val)
		}
		return p.fac.NewStructTypeRepr(pos, name, nil)
	default:
		p.errorf("expected type, got %v", p.cur.Kind)
		p.advance()
		return p.fac.NewStructTypeRepr(pos, "<error>", nil)
	}
}

// -----------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------

func (p *Parser) parseBlock() *ast.BlockStmt {
	pos := p.pos()
	p.expect(scanner.LBRACE)
	var stmts []ast.Stmt
	for !p.at(scanner.RBRACE) && !p.at(scanner.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	closePos := p.pos()
	p.expect(scanner.RBRACE)
	return p.fac.NewBlockStmt(pos, stmts, closePos)
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur.Kind {
	case scanner.KW_VAR:
		pos := p.pos()
		d := p.parseVariableDecl(true)
		return p.fac.NewDeclStmt(pos, d)
	case scanner.KW_STRUCT, scanner.KW_FUN:
		pos := p.pos()
		d := p.parseDecl()
		return p.fac.NewDeclStmt(pos, d)
	case scanner.KW_IF:
		return p.parseIfStmt()
	case scanner.KW_FOR:
		return p.parseForStmt()
	case scanner.KW_RETURN:
		return p.parseReturnStmt()
	case scanner.LBRACE:
		return p.parseBlock()
	default:
		return p.parseSimpleStmt(true)
	}
}

// parseSimpleStmt parses an expression statement or an assignment.
func (p *Parser) parseSimpleStmt(consumeSemi bool) ast.Stmt {
	pos := p.pos()
	x := p.parseExpr()
	if p.at(scanner.ASSIGN) {
		p.advance()
		rhs := p.parseExpr()
		if consumeSemi && p.at(scanner.SEMI) {
			p.advance()
		}
		return p.fac.NewAssignmentStmt(pos, x, rhs)
	}
	if consumeSemi && p.at(scanner.SEMI) {
		p.advance()
	}
	return p.fac.NewExprStmt(pos, x)
}

func (p *Parser) parseIfStmt() ast.Stmt {
	pos := p.pos()
	p.expect(scanner.KW_IF)
	p.expect(scanner.LPAREN)
	cond := p.parseExpr()
	p.expect(scanner.RPAREN)
	then := p.parseBlock()
	var els ast.Stmt
	if p.at(scanner.KW_ELSE) {
		p.advance()
		if p.at(scanner.KW_IF) {
			els = p.parseIfStmt()
		} else {
			els = p.parseBlock()
		}
	}
	return p.fac.NewIfStmt(pos, cond, then, els)
}

func (p *Parser) parseForStmt() ast.Stmt {
	pos := p.pos()
	p.expect(scanner.KW_FOR)

	// for-in: `for x in expr { ... }`
	if p.at(scanner.IDENT) && p.sc.Peek().Kind == scanner.KW_IN {
		name := p.advance()
		p.expect(scanner.KW_IN)
		iterable := p.parseExpr()
		body := p.parseBlock()
		return p.fac.NewForInStmt(pos, p.ids.Intern(name.Lexeme), iterable, body)
	}

	p.expect(scanner.LPAREN)
	var init ast.Stmt
	if !p.at(scanner.SEMI) {
		if p.at(scanner.KW_VAR) {
			d := p.parseVariableDecl(false)
			init = p.fac.NewDeclStmt(pos, d)
		} else {
			init = p.parseSimpleStmt(false)
		}
	}
	p.expect(scanner.SEMI)
	var cond ast.Expr
	if !p.at(scanner.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(scanner.SEMI)
	var next ast.Stmt
	if !p.at(scanner.RPAREN) {
		next = p.parseSimpleStmt(false)
	}
	p.expect(scanner.RPAREN)
	body := p.parseBlock()
	return p.fac.NewForStmt(pos, init, cond, next, body)
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	pos := p.pos()
	p.expect(scanner.KW_RETURN)
	var val ast.Expr
	if !p.at(scanner.SEMI) && !p.at(scanner.RBRACE) {
		val = p.parseExpr()
	}
	if p.at(scanner.SEMI) {
		p.advance()
	}
	return p.fac.NewReturnStmt(pos, val)
}

// -----------------------------------------------------------------------
// Expressions (Pratt, precedence climbing)
// -----------------------------------------------------------------------

// precedence returns the binding power of the current token as an infix
// operator, or 0 if it is not one.
func precedence(k scanner.Kind) int {
	switch k {
	case scanner.OROR:
		return 1
	case scanner.ANDAND:
		return 2
	case scanner.EQ, scanner.NEQ, scanner.LT, scanner.LE, scanner.GT, scanner.GE:
		return 3
	case scanner.PLUS, scanner.MINUS:
		return 4
	case scanner.STAR, scanner.SLASH, scanner.PERCENT:
		return 5
	default:
		return 0
	}
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec := precedence(p.cur.Kind)
		if prec < minPrec || prec == 0 {
			return left
		}
		opTok := p.advance()
		right := p.parseBinary(prec + 1)
		left = p.combine(opTok, left, right)
	}
}

func (p *Parser) combine(opTok scanner.Token, l, r ast.Expr) ast.Expr {
	pos := ast.Pos{Line: opTok.Pos.Line, Col: opTok.Pos.Col}
	switch opTok.Kind {
	case scanner.PLUS:
		return p.fac.NewBinary(pos, ast.BinAdd, l, r)
	case scanner.MINUS:
		return p.fac.NewBinary(pos, ast.BinSub, l, r)
	case scanner.STAR:
		return p.fac.NewBinary(pos, ast.BinMul, l, r)
	case scanner.SLASH:
		return p.fac.NewBinary(pos, ast.BinDiv, l, r)
	case scanner.PERCENT:
		return p.fac.NewBinary(pos, ast.BinMod, l, r)
	case scanner.ANDAND:
		return p.fac.NewBinary(pos, ast.BinAnd, l, r)
	case scanner.OROR:
		return p.fac.NewBinary(pos, ast.BinOr, l, r)
	case scanner.EQ:
		return p.fac.NewComparison(pos, ast.CmpEq, l, r)
	case scanner.NEQ:
		return p.fac.NewComparison(pos, ast.CmpNotEq, l, r)
	case scanner.LT:
		return p.fac.NewComparison(pos, ast.CmpLess, l, r)
	case scanner.LE:
		return p.fac.NewComparison(pos, ast.CmpLessEq, l, r)
	case scanner.GT:
		return p.fac.NewComparison(pos, ast.CmpGreater, l, r)
	case scanner.GE:
		return p.fac.NewComparison(pos, ast.CmpGreaterEq, l, r)
	default:
		p.errorf("unhandled binary operator %v", opTok.Kind)
		return l
	}
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.pos()
	switch p.cur.Kind {
	case scanner.BANG:
		p.advance()
		return p.fac.NewUnary(pos, ast.UnaryNot, p.parseUnary())
	case scanner.MINUS:
		p.advance()
		return p.fac.NewUnary(pos, ast.UnaryNeg, p.parseUnary())
	case scanner.STAR:
		p.advance()
		return p.fac.NewUnary(pos, ast.UnaryDeref, p.parseUnary())
	case scanner.AMP:
		p.advance()
		return p.fac.NewUnary(pos, ast.UnaryAddr, p.parseUnary())
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case scanner.LPAREN:
			pos := p.pos()
			p.advance()
			var args []ast.Expr
			for !p.at(scanner.RPAREN) && !p.at(scanner.EOF) {
				if len(args) > 0 {
					p.expect(scanner.COMMA)
				}
				args = append(args, p.parseExpr())
			}
			p.expect(scanner.RPAREN)
			x = p.fac.NewCall(pos, x, args, ast.CallRegular, "")
		case scanner.LBRACKET:
			pos := p.pos()
			p.advance()
			idx := p.parseExpr()
			p.expect(scanner.RBRACKET)
			x = p.fac.NewIndex(pos, x, idx)
		case scanner.DOT:
			pos := p.pos()
			p.advance()
			name := p.expect(scanner.IDENT)
			x = p.fac.NewMember(pos, x, p.ids.Intern(name.Lexeme), false)
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.cur.Kind {
	case scanner.AT:
		p.advance()
		name := p.expect(scanner.IDENT)
		p.expect(scanner.LPAREN)
		var args []ast.Expr
		for !p.at(scanner.RPAREN) && !p.at(scanner.EOF) {
			if len(args) > 0 {
				p.expect(scanner.COMMA)
			}
			args = append(args, p.parseBuiltinArg())
		}
		p.expect(scanner.RPAREN)
		callee := p.fac.NewIdentifier(pos, p.ids.Intern(name.Lexeme))
		return p.fac.NewCall(pos, callee, args, ast.CallBuiltin, name.Lexeme)
	case scanner.INT:
		tok := p.advance()
		lit := p.fac.NewLiteral(pos, ast.LiteralInt32)
		lit.Int32 = int32(tok.IntVal)
		return lit
	case scanner.FLOAT:
		tok := p.advance()
		lit := p.fac.NewLiteral(pos, ast.LiteralFloat32)
		lit.Float32 = float32(tok.FloatVal)
		return lit
	case scanner.STRING:
		tok := p.advance()
		lit := p.fac.NewLiteral(pos, ast.LiteralString)
		lit.Str = p.ids.Intern(tok.Lexeme)
		return lit
	case scanner.TRUE:
		p.advance()
		lit := p.fac.NewLiteral(pos, ast.LiteralBool)
		lit.Bool = true
		return lit
	case scanner.FALSE:
		p.advance()
		lit := p.fac.NewLiteral(pos, ast.LiteralBool)
		lit.Bool = false
		return lit
	case scanner.NIL:
		p.advance()
		return p.fac.NewLiteral(pos, ast.LiteralNil)
	case scanner.IDENT:
		tok := p.advance()
		return p.fac.NewIdentifier(pos, p.ids.Intern(tok.Lexeme))
	case scanner.LPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(scanner.RPAREN)
		return x
	default:
		p.errorf("expected expression, got %v", p.cur.Kind)
		p.advance()
		return p.fac.NewBad(pos)
	}
}

// parseBuiltinArg parses one argument to a builtin call. Builtins like
// @sizeOf and @offsetOf take a type name in argument position rather than
// a value expression; since both start with an identifier, a plain
// expression parse handles either case, and sema distinguishes them when
// validating the specific builtin's signature (spec.md §4.4.4).
func (p *Parser) parseBuiltinArg() ast.Expr {
	return p.parseExpr()
}
