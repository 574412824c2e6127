// Package asm turns accumulator-machine assembly into a binary image.
//
// Source is split into a .DATA section of "NAME DB value" declarations and a
// .CODE section of labels, .ORG directives and one-operand instructions. The
// first pass lays out data cells and label addresses, the second encodes
// instructions and resolves operands, registering unknown operand names as
// fresh data cells on the fly.
package asm

import (
	"fmt"
	"log"
	"strings"

	"neander/pkg/cpu"
	"neander/pkg/diag"
)

var exactOps = map[string]byte{
	"NOP": cpu.OpNOP,
	"STA": cpu.OpSTA,
	"LDA": cpu.OpLDA,
	"ADD": cpu.OpADD,
	"SUB": cpu.OpSUB,
	"OR":  cpu.OpOR,
	"AND": cpu.OpAND,
	"NOT": cpu.OpNOT,
	"HLT": cpu.OpHLT,
}

// Jumps are matched on their first three letters, so JMPX still means JMP.
var jumpOps = map[string]byte{
	"JMP": cpu.OpJMP,
	"JMN": cpu.OpJMN,
	"JMZ": cpu.OpJMZ,
}

func lookupOpcode(mnemonic string) (byte, bool) {
	u := strings.ToUpper(mnemonic)
	if op, ok := exactOps[u]; ok {
		return op, true
	}
	if len(u) >= 3 {
		if op, ok := jumpOps[u[:3]]; ok {
			return op, true
		}
	}
	return 0, false
}

// Result is everything one assembly run produces. Image is always a full
// cpu.ImageSize buffer, even when Diagnostics carries errors.
type Result struct {
	Image       []byte
	Symbols     []Symbol
	SourceMap   map[int]int
	Diagnostics diag.List
}

// Lookup finds a symbol by its exact name.
func (r *Result) Lookup(name string) (Symbol, bool) {
	for _, s := range r.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

type Option func(*Assembler)

// WithDataOrigin moves the start of the data region. Odd values are rounded
// up to the next cell boundary.
func WithDataOrigin(addr int) Option {
	return func(a *Assembler) { a.dataOrigin = addr }
}

// WithReservedSymbol registers name at addr before anything else, as an
// undefined cell. Data declarations of the same name then reuse addr rather
// than taking a new cell.
func WithReservedSymbol(name string, addr int) Option {
	return func(a *Assembler) {
		a.reserved = append(a.reserved, Symbol{Name: name, Address: addr})
	}
}

func WithMaxSymbols(n int) Option {
	return func(a *Assembler) { a.maxSymbols = n }
}

func WithLogger(l *log.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

type Assembler struct {
	dataOrigin int
	maxSymbols int
	reserved   []Symbol
	logger     *log.Logger

	symbols   *SymbolTable
	image     []byte
	dataPos   int
	codePos   int
	sourceMap map[int]int
	diags     diag.List
}

func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		dataOrigin: cpu.DataOrigin,
		maxSymbols: DefaultMaxSymbols,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble runs both passes over code with a fresh set of options.
func Assemble(code string, opts ...Option) *Result {
	return NewAssembler(opts...).Assemble(code)
}

// Assemble runs both passes over code. The Assembler can be reused; each call
// starts from an empty image and symbol table.
func (a *Assembler) Assemble(code string) *Result {
	a.reset()
	lines := strings.Split(code, "\n")

	for _, sym := range a.reserved {
		if _, _, err := a.symbols.Register(sym); err != nil {
			a.errorf(0, "%v", err)
		}
	}

	a.pass1(lines)
	a.pass2(lines)

	for _, sym := range a.symbols.Symbols() {
		if !sym.Defined {
			a.warnf(0, "symbol %q is used but never defined", sym.Name)
		}
	}

	return &Result{
		Image:       a.image,
		Symbols:     a.symbols.Symbols(),
		SourceMap:   a.sourceMap,
		Diagnostics: a.diags,
	}
}

func (a *Assembler) reset() {
	a.symbols = NewSymbolTable(a.maxSymbols)
	a.image = cpu.NewImage()
	a.dataPos = a.dataOrigin + a.dataOrigin%cpu.CellSize
	a.codePos = cpu.HeaderSize
	a.sourceMap = make(map[int]int)
	a.diags = nil
}

func (a *Assembler) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

func (a *Assembler) warnf(line int, format string, args ...any) {
	a.diags.Add(diag.StageAssemble, diag.Warning, line, format, args...)
}

func (a *Assembler) errorf(line int, format string, args ...any) {
	a.diags.Add(diag.StageAssemble, diag.Error, line, format, args...)
}

// pass1 writes data cells and records label addresses.
func (a *Assembler) pass1(lines []string) {
	section := SectionNone

	for i, raw := range lines {
		p := parseLine(raw, i+1, section)

		switch p.kind {
		case lineSection:
			section = p.section

		case lineLabel:
			sym, added, err := a.symbols.Register(Symbol{
				Name:    p.label,
				Address: a.codePos,
				Defined: true,
				Label:   true,
			})
			if err != nil {
				a.errorf(p.lineNo, "%v", err)
				continue
			}
			if !added {
				a.warnf(p.lineNo, "label %q already declared at 0x%03X", p.label, sym.Address)
			}
			if p.trailing != "" {
				a.warnf(p.lineNo, "text after label %q is ignored: %s", p.label, p.trailing)
			}
			a.logf("label %s = 0x%03X", p.label, a.codePos)

		case lineData:
			a.declareData(p)

		case lineOrg:
			if p.orgErr != "" {
				a.errorf(p.lineNo, "invalid .ORG value: %s", p.orgErr)
				continue
			}
			a.codePos = cpu.HeaderSize + p.org*cpu.CellSize

		case lineInstruction:
			a.codePos += cpu.InstructionSize
		}
	}
}

func (a *Assembler) declareData(p parsedLine) {
	if p.valueErr != "" {
		a.warnf(p.lineNo, "value %q for %s is not a number, using 0", p.valueErr, p.name)
	}

	if a.dataPos+1 >= cpu.ImageSize {
		a.errorf(p.lineNo, "data region exhausted, no cell for %s", p.name)
		return
	}

	sym, added, err := a.symbols.Register(Symbol{
		Name:    p.name,
		Address: a.dataPos,
		Value:   p.value,
		Defined: !p.undefined,
	})
	if err != nil {
		a.errorf(p.lineNo, "%v", err)
		return
	}

	if !added {
		// The slot is still consumed, but the name stays bound to its first
		// address, so the value written here is unreachable by name.
		a.warnf(p.lineNo, "%s redeclared, keeping address 0x%03X", p.name, sym.Address)
	}
	a.image[a.dataPos] = p.value
	a.image[a.dataPos+1] = 0
	a.logf("data %s = %d at 0x%03X", p.name, p.value, a.dataPos)
	a.dataPos += cpu.CellSize
}

// pass2 encodes instructions. It always starts from the first code slot,
// whatever origin the previous pass ended on.
func (a *Assembler) pass2(lines []string) {
	section := SectionNone
	a.codePos = cpu.HeaderSize

	for i, raw := range lines {
		p := parseLine(raw, i+1, section)

		switch p.kind {
		case lineSection:
			section = p.section

		case lineOrg:
			if p.orgErr == "" {
				a.codePos = cpu.HeaderSize + p.org*cpu.CellSize
			}

		case lineInstruction:
			a.encode(p)
			a.codePos += cpu.InstructionSize
		}
	}
}

func (a *Assembler) encode(p parsedLine) {
	opcode, ok := lookupOpcode(p.mnemonic)
	if !ok {
		a.errorf(p.lineNo, "unknown instruction: %s", p.mnemonic)
		return
	}

	var cell byte
	if cpu.HasOperand(opcode) {
		if p.operand == "" {
			a.warnf(p.lineNo, "%s without operand, using cell 0", p.mnemonic)
		} else {
			cell = cpu.CellIndex(a.resolve(p))
		}
	}

	if a.codePos+cpu.InstructionSize > cpu.ImageSize {
		a.errorf(p.lineNo, "instruction at 0x%03X does not fit in the image", a.codePos)
		return
	}
	// Data cells are laid out before any code is encoded; code never
	// overwrites them.
	if a.codePos+cpu.InstructionSize > a.dataOrigin {
		a.errorf(p.lineNo, "instruction at 0x%03X runs into the data region", a.codePos)
		return
	}

	ins := cpu.EncodeInstruction(opcode, cell)
	copy(a.image[a.codePos:], ins[:])
	a.sourceMap[a.codePos] = p.lineNo
	a.logf("0x%03X: % x  %s %s", a.codePos, ins[:], p.mnemonic, p.operand)
}

// resolve returns the address an operand refers to, reserving a new
// undefined data cell for names that were never declared.
func (a *Assembler) resolve(p parsedLine) int {
	if sym, ok := a.symbols.Lookup(p.operand); ok {
		return sym.Address
	}

	addr := a.dataPos
	if addr+1 >= cpu.ImageSize {
		a.errorf(p.lineNo, "data region exhausted, no cell for operand %s", p.operand)
		return cpu.HeaderSize
	}
	a.dataPos += cpu.CellSize

	if _, _, err := a.symbols.Register(Symbol{Name: p.operand, Address: addr}); err != nil {
		a.errorf(p.lineNo, "%v", err)
	}
	a.logf("operand %s placed at 0x%03X", p.operand, addr)
	return addr
}

// Listing renders r's symbols as a table, one per line.
func (r *Result) Listing() string {
	var sb strings.Builder
	for _, s := range r.Symbols {
		fmt.Fprintln(&sb, s.String())
	}
	return sb.String()
}
