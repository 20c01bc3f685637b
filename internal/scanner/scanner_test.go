package scanner

import "testing"

func TestScanArithmeticAndKeywords(t *testing.T) {
	src := `fun main() -> int32 { var x: int32 = 2; return x * 3 + 1 }`
	s := New(src)
	var kinds []Kind
	for {
		tok := s.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == EOF {
			break
		}
	}
	want := []Kind{
		KW_FUN, IDENT, LPAREN, RPAREN, ARROW, IDENT, LBRACE,
		KW_VAR, IDENT, COLON, IDENT, ASSIGN, INT, SEMI,
		KW_RETURN, IDENT, STAR, INT, PLUS, INT,
		RBRACE, EOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(kinds), kinds, len(want), want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	s := New("a b")
	first := s.Peek()
	second := s.Peek()
	if first.Lexeme != second.Lexeme || first.Kind != IDENT {
		t.Fatalf("peek was not idempotent: %v vs %v", first, second)
	}
	consumed := s.Next()
	if consumed.Lexeme != "a" {
		t.Fatalf("expected Next to return peeked token, got %q", consumed.Lexeme)
	}
	next := s.Next()
	if next.Lexeme != "b" {
		t.Fatalf("expected second token %q, got %q", "b", next.Lexeme)
	}
}

func TestScanTwoCharOperators(t *testing.T) {
	s := New("-> == != <= >= && ||")
	kinds := []Kind{ARROW, EQ, NEQ, LE, GE, ANDAND, OROR, EOF}
	for _, want := range kinds {
		if got := s.Next().Kind; got != want {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestScanFloatVsIntVsMember(t *testing.T) {
	s := New("1.5 10 x.y")
	f := s.Next()
	if f.Kind != FLOAT || f.FloatVal != 1.5 {
		t.Fatalf("expected float 1.5, got %v", f)
	}
	i := s.Next()
	if i.Kind != INT || i.IntVal != 10 {
		t.Fatalf("expected int 10, got %v", i)
	}
	if tok := s.Next(); tok.Kind != IDENT || tok.Lexeme != "x" {
		t.Fatalf("expected identifier x, got %v", tok)
	}
	if tok := s.Next(); tok.Kind != DOT {
		t.Fatalf("expected DOT, got %v", tok)
	}
	if tok := s.Next(); tok.Kind != IDENT || tok.Lexeme != "y" {
		t.Fatalf("expected identifier y, got %v", tok)
	}
}

func TestScanStringEscapes(t *testing.T) {
	s := New(`"hello\nworld"`)
	tok := s.Next()
	if tok.Kind != STRING || tok.Lexeme != "hello\nworld" {
		t.Fatalf("got %v", tok)
	}
}

func TestSkipLineComments(t *testing.T) {
	s := New("1 // a comment\n+ 2")
	if tok := s.Next(); tok.Kind != INT {
		t.Fatalf("got %v", tok)
	}
	if tok := s.Next(); tok.Kind != PLUS {
		t.Fatalf("got %v", tok)
	}
}
