// cmd/tpl/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/builtins"
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/ident"
	"github.com/turingcompl33t/tpl/internal/parser"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/sema"
	"github.com/turingcompl33t/tpl/internal/types"
	"github.com/turingcompl33t/tpl/internal/vm"
)

const (
	appName     = "tpl"
	historyFile = ".tpl_history"
	promptMain  = "==> "
	promptCont  = "... "
	entryFunc   = "main"
)

var (
	debugFlag = flag.Bool("debug", false, "enable frame bounds checking in the VM")
)

func main() {
	flag.Parse()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "tpl: interrupted")
		os.Exit(130)
	}()

	args := flag.Args()
	if len(args) > 0 {
		os.Exit(runFile(args[0]))
	}
	os.Exit(runREPL())
}

// runFile compiles and executes a single source file's `fun main` entry
// point (spec.md §6.1, scenarios S1-S7).
func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, path, err)
		return 1
	}
	v, err := compileAndRun(path, string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	fmt.Println(formatValue(v))
	return 0
}

// runREPL accumulates lines until a blank line, then compiles and
// executes the buffered program as one unit, the way spec.md §6.1
// describes — unlike the teacher's MindScript REPL, TPL has no
// persistent top-level session to carry across entries: each
// `fun main() -> T { ... }` stands alone.
func runREPL() int {
	fmt.Println(appName + " — line-based REPL, Ctrl+D to exit. Blank line compiles and runs the buffer.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readUntilBlank(ln)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		v, err := compileAndRun("<repl>", code)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(formatValue(v))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readUntilBlank reads lines until the user enters an empty line, Ctrl+D
// (EOF), or Ctrl+C aborts the current buffer.
func readUntilBlank(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if strings.TrimSpace(line) == "" {
			return b.String(), true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
}

// compileAndRun drives the full pipeline: scan, parse, type-check, lower
// to bytecode, then invoke the compiled module's `fun main` entry point
// (spec.md §6.4's invoke(id, argument-buffer)). Compile-time diagnostics
// from any phase abort before the next phase runs (spec.md §7).
func compileAndRun(file, src string) (vm.Value, error) {
	a := arena.New()
	fac := ast.NewNodeFactory(0)
	ids := ident.New(a.NewRegion("idents"))
	rep := reporter.New(file)

	p := parser.New(file, src, fac, ids, rep)
	astFile := p.Parse()
	if rep.HasErrors() {
		return vm.Value{}, errors.New(rep.RenderAll())
	}

	ctx := types.NewContext()
	an := sema.New(ctx, fac, rep)
	an.Analyze(astFile)
	if rep.HasErrors() {
		return vm.Value{}, errors.New(rep.RenderAll())
	}

	mod := bytecode.Generate(ctx, an, astFile)

	id, ok := mod.FunctionID(entryFunc)
	if !ok {
		return vm.Value{}, fmt.Errorf("no %q function defined", entryFunc)
	}
	fn := mod.Functions[id]

	m := vm.New(mod, builtins.NewRegistry())
	m.Debug = *debugFlag

	args, err := entryArgs(fn)
	if err != nil {
		return vm.Value{}, err
	}
	return m.Call(entryFunc, args...)
}

// entryArgs builds the argument list for main's declared parameters.
// spec.md's S1-S7 scenarios all declare main() with no parameters; a
// query-plan program that instead declares a single parameter
// (main(ec: *ExecutionContext)) is handed a fresh, empty
// builtins.ExecutionContext, since the driver has no other source for
// one. That single parameter only has to be boxed-storage (a pointer,
// SQL value, string or runtime object); its declared type is not
// checked. Two or more parameters, or a single unboxed scalar one, are
// rejected.
func entryArgs(fn *bytecode.Function) ([]vm.Value, error) {
	switch fn.ParamCount {
	case 0:
		return nil, nil
	case 1:
		if fn.Params[0].Boxed {
			return []vm.Value{vm.Boxed(builtins.NewExecutionContext())}, nil
		}
	}
	return nil, fmt.Errorf("%s: unsupported entry point signature (main must take no arguments or a single pointer argument)", entryFunc)
}

func formatValue(v vm.Value) string {
	if v.IsBoxed {
		return fmt.Sprintf("%v", v.Boxed)
	}
	return fmt.Sprintf("%d", v.Int64())
}
