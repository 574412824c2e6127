package compiler

import (
	"fmt"
	"strings"
)

// Names the generated program always declares, in this order, ahead of
// anything the source introduces.
const (
	SymOne      = "ONE"
	SymZero     = "CONST_0"
	SymUnit     = "CONST_1"
	SymMinusOne = "NEG_1"
	SymResult   = "RES"
)

var preamble = []Entry{
	{Name: SymOne, Value: 1, Defined: true},
	{Name: SymZero, Value: 0, Defined: true},
	{Name: SymUnit, Value: 1, Defined: true},
	{Name: SymMinusOne, Value: 255, Defined: true},
	{Name: SymResult},
}

// Entry is one registered name: a source variable, a CONST_<v> constant or a
// TEMP_<n> temporary. Value is only meaningful when Defined is set.
type Entry struct {
	Name    string
	Value   int
	Defined bool
}

// SymbolTable is the code generator's registry. It keeps registration order
// and never holds the same name twice.
type SymbolTable struct {
	entries []Entry
	index   map[string]int
	temps   int
}

func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{index: make(map[string]int)}
	for _, e := range preamble {
		t.index[e.Name] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t
}

// Add registers name as undefined unless it is already present.
func (t *SymbolTable) Add(name string) {
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = len(t.entries)
	t.entries = append(t.entries, Entry{Name: name})
}

// Define sets name's value, registering it first if needed.
func (t *SymbolTable) Define(name string, value int) {
	t.Add(name)
	e := &t.entries[t.index[name]]
	e.Value = value
	e.Defined = true
}

// Constant returns the name of the constant cell holding v, creating it on
// first use.
func (t *SymbolTable) Constant(v int) string {
	name := constName(v)
	if _, ok := t.index[name]; !ok {
		t.Define(name, v)
	}
	return name
}

// NewTemp registers and returns the next TEMP_<n> name.
func (t *SymbolTable) NewTemp() string {
	name := fmt.Sprintf("TEMP_%d", t.temps)
	t.temps++
	t.Add(name)
	return name
}

func (t *SymbolTable) Lookup(name string) (Entry, bool) {
	i, ok := t.index[name]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of the registry in registration order.
func (t *SymbolTable) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// IsGenerated reports whether name belongs to the generator: a preamble
// entry, a CONST_<v> constant or a TEMP_<n> temporary.
func IsGenerated(name string) bool {
	for _, e := range preamble {
		if e.Name == name {
			return true
		}
	}
	return strings.HasPrefix(name, "CONST_") || strings.HasPrefix(name, "TEMP_")
}

func constName(v int) string {
	return fmt.Sprintf("CONST_%d", v)
}
