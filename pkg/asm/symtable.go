package asm

import (
	"errors"
	"fmt"
)

// DefaultMaxSymbols bounds the number of entries a symbol table accepts.
const DefaultMaxSymbols = 256

var ErrSymbolTableFull = errors.New("symbol table full")

// Symbol is one named address. Defined is false for names that were reserved
// or referenced but never given a value by a data declaration or label.
type Symbol struct {
	Name    string
	Address int
	Value   byte
	Defined bool
	Label   bool
}

func (s Symbol) String() string {
	state := "defined"
	if !s.Defined {
		state = "undefined"
	}
	return fmt.Sprintf("%-12s 0x%03X %3d %s", s.Name, s.Address, s.Value, state)
}

// SymbolTable keeps symbols in registration order. An address, once given,
// is never moved.
type SymbolTable struct {
	entries []Symbol
	index   map[string]int
	max     int
}

func NewSymbolTable(max int) *SymbolTable {
	if max <= 0 {
		max = DefaultMaxSymbols
	}
	return &SymbolTable{
		index: make(map[string]int),
		max:   max,
	}
}

// Register adds sym unless its name is already known. It returns the entry
// that ends up in the table and whether it was newly added.
func (t *SymbolTable) Register(sym Symbol) (Symbol, bool, error) {
	if i, ok := t.index[sym.Name]; ok {
		return t.entries[i], false, nil
	}
	if len(t.entries) >= t.max {
		return sym, false, fmt.Errorf("%w: cannot add %q", ErrSymbolTableFull, sym.Name)
	}
	t.index[sym.Name] = len(t.entries)
	t.entries = append(t.entries, sym)
	return sym, true, nil
}

func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	i, ok := t.index[name]
	if !ok {
		return Symbol{}, false
	}
	return t.entries[i], true
}

func (t *SymbolTable) Len() int { return len(t.entries) }

// Symbols returns a copy of the table in registration order.
func (t *SymbolTable) Symbols() []Symbol {
	out := make([]Symbol, len(t.entries))
	copy(out, t.entries)
	return out
}
