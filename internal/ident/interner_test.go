package ident

import (
	"testing"

	"github.com/turingcompl33t/tpl/internal/arena"
)

func newInterner() *Interner {
	a := arena.New()
	return New(a.NewRegion("idents"))
}

func TestInternStability(t *testing.T) {
	in := newInterner()
	a := in.Intern("hello")
	b := in.Intern(string([]byte{'h', 'e', 'l', 'l', 'o'}))
	if a != b {
		t.Fatalf("expected identical handles for equal strings")
	}
}

func TestInternDistinct(t *testing.T) {
	in := newInterner()
	a := in.Intern("foo")
	b := in.Intern("bar")
	if a == b {
		t.Fatalf("expected distinct handles for distinct strings")
	}
	if a.String() != "foo" || b.String() != "bar" {
		t.Fatalf("unexpected string contents: %q %q", a.String(), b.String())
	}
}

func TestLookupMiss(t *testing.T) {
	in := newInterner()
	if _, ok := in.Lookup("nope"); ok {
		t.Fatalf("expected miss on unseen string")
	}
	in.Intern("nope")
	if _, ok := in.Lookup("nope"); !ok {
		t.Fatalf("expected hit after interning")
	}
}
