package main

import (
	"testing"

	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/ident"
	"github.com/turingcompl33t/tpl/internal/parser"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/sema"
	"github.com/turingcompl33t/tpl/internal/types"
)

func mustCompile(t *testing.T, src string) *bytecode.Module {
	t.Helper()
	a := arena.New()
	fac := ast.NewNodeFactory(0)
	ids := ident.New(a.NewRegion("idents"))
	rep := reporter.New("test.tpl")
	p := parser.New("test.tpl", src, fac, ids, rep)
	file := p.Parse()
	if rep.HasErrors() {
		t.Fatalf("parse errors: %s", rep.RenderAll())
	}
	ctx := types.NewContext()
	an := sema.New(ctx, fac, rep)
	an.Analyze(file)
	if rep.HasErrors() {
		t.Fatalf("sema errors: %s", rep.RenderAll())
	}
	return bytecode.Generate(ctx, an, file)
}

func TestCompileAndRunArithmetic(t *testing.T) {
	got, err := compileAndRun("s1.tpl", `fun main() -> int32 { var x: int32 = 2; var y: int32 = 3; return x * y + 1 }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 7 {
		t.Fatalf("expected 7, got %d", got.Int32())
	}
}

func TestCompileAndRunNarrowingCast(t *testing.T) {
	got, err := compileAndRun("s2.tpl", `fun main() -> int8 { var x: int32 = 258; var y: int8 = x; return y }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int8() != 2 {
		t.Fatalf("expected truncation to 2, got %d", got.Int8())
	}
}

func TestCompileAndRunLoopSum(t *testing.T) {
	got, err := compileAndRun("s4.tpl", `fun main() -> int32 {
		var total: int32 = 0
		for (var i: int32 = 1; i <= 10; i = i + 1) {
			total = total + i
		}
		return total
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 55 {
		t.Fatalf("expected 55, got %d", got.Int32())
	}
}

func TestCompileAndRunReportsParseErrors(t *testing.T) {
	_, err := compileAndRun("bad.tpl", `fun main() -> int32 { return `)
	if err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestCompileAndRunMissingEntryPoint(t *testing.T) {
	_, err := compileAndRun("noentry.tpl", `fun helper() -> int32 { return 1 }`)
	if err == nil {
		t.Fatalf("expected a missing-entry-point error")
	}
}

func TestEntryArgsRejectsUnsupportedSignature(t *testing.T) {
	mod := mustCompile(t, `fun main(a: int32, b: int32) -> int32 { return a + b }`)
	fn := mod.Functions[0]
	if _, err := entryArgs(fn); err == nil {
		t.Fatalf("expected a rejection for a two-scalar-argument entry point")
	}
}
