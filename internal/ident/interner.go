// Package ident implements the process-local, per-context interned
// identifier table. An Identifier is an opaque handle over a NUL-terminated
// byte string; two identifiers compare equal iff their handles are
// identical (pointer equality), never by content comparison.
package ident

import "github.com/turingcompl33t/tpl/internal/arena"

// Identifier is a pointer-stable interned name. The zero value is not a
// valid Identifier; always obtain one from an Interner.
type Identifier struct {
	name string
}

// String returns the identifier's text. Two identifiers with equal String
// results are not guaranteed to be the same Identifier unless they came
// from the same Interner (that is the whole point of interning: handle
// identity, not string equality, is what callers should compare).
func (id *Identifier) String() string {
	if id == nil {
		return ""
	}
	return id.name
}

// Interner maps byte strings to unique, pointer-stable Identifier handles.
// Stability holds for the lifetime of the Interner's owning arena.Region.
type Interner struct {
	region *arena.Region
	table  map[string]*Identifier
}

// New creates an Interner whose identifier byte storage is allocated from
// region. Pass a region owned by the enclosing compilation context's
// arena so identifiers die with the context.
func New(region *arena.Region) *Interner {
	return &Interner{region: region, table: make(map[string]*Identifier)}
}

// Intern returns the unique Identifier for s, creating it on first use.
// Subsequent calls with an equal (but not necessarily identical) byte
// string return the same handle.
func (in *Interner) Intern(s string) *Identifier {
	if id, ok := in.table[s]; ok {
		return id
	}
	buf := in.region.Allocate(len(s)+1, 1) // +1 for the NUL terminator
	copy(buf, s)
	// buf[len(s)] is already zero (arena memory is zeroed), giving the
	// NUL terminator required by §3.2 without an extra write.
	stored := string(buf[:len(s)])
	id := &Identifier{name: stored}
	in.table[s] = id
	return id
}

// Lookup returns the Identifier for s if it has already been interned,
// without creating a new one.
func (in *Interner) Lookup(s string) (*Identifier, bool) {
	id, ok := in.table[s]
	return id, ok
}

// Len reports how many distinct identifiers have been interned.
func (in *Interner) Len() int { return len(in.table) }
