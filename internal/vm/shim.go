package vm

import "github.com/turingcompl33t/tpl/internal/bytecode"

// Shim is one runtime builtin's native handler (spec.md §4.7): given the
// active frame and the CallRuntime instruction that invoked it, the shim
// decodes its own operands from ins.Args, does its work, and — if the
// instruction has a destination — writes the result back via ins.A.
// Shims are free to read/write both raw frame bytes and boxed handles;
// the calling convention for a given builtin name is a contract between
// the code generator and internal/builtins, opaque to the VM itself.
type Shim func(vm *VM, fr *Frame, ins *bytecode.Instr) error

// Registry resolves a CallRuntime instruction's Name to its Shim.
// internal/builtins constructs one and the driver wires it into a VM at
// startup; tests may construct a minimal one directly.
type Registry map[string]Shim

// Lookup returns the shim named name, or ok=false if unregistered —
// surfaced by the dispatch loop as a RuntimeError rather than a panic,
// since an unresolved builtin indicates a driver/module mismatch rather
// than a VM-internal bug.
func (r Registry) Lookup(name string) (Shim, bool) {
	s, ok := r[name]
	return s, ok
}
