package compiler

import (
	"fmt"
	"log"
	"strings"

	"neander/pkg/diag"
)

// CodeGen walks an AST and emits accumulator-machine assembly. Code is
// generated before the data section is rendered, so every constant and
// temporary created along the way is declared.
type CodeGen struct {
	syms      *SymbolTable
	code      strings.Builder
	known     map[string]int // values fixed by the latest literal assignment
	nextLabel int
	srcLine   int
	diags     diag.List
	logger    *log.Logger
}

func newCodeGen(syms *SymbolTable, logger *log.Logger) *CodeGen {
	return &CodeGen{
		syms:   syms,
		known:  make(map[string]int),
		logger: logger,
	}
}

func (cg *CodeGen) line(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	cg.code.WriteString(s)
	cg.code.WriteByte('\n')
	if cg.logger != nil {
		cg.logger.Printf("emit %s", s)
	}
}

func (cg *CodeGen) comment(format string, args ...any) {
	cg.line("; "+format, args...)
}

func (cg *CodeGen) label(name string) {
	cg.line("%s:", name)
}

func (cg *CodeGen) warnf(format string, args ...any) {
	cg.diags.Add(diag.StageCompile, diag.Warning, cg.srcLine, format, args...)
}

func (cg *CodeGen) errorf(format string, args ...any) {
	cg.diags.Add(diag.StageCompile, diag.Error, cg.srcLine, format, args...)
}

// byteValue maps a source integer onto the machine's 8-bit cell range.
func byteValue(v int) int {
	return v & 0xFF
}

func (cg *CodeGen) constant(v int) string {
	return cg.syms.Constant(byteValue(v))
}

// operand names the cell that holds a simple expression.
func (cg *CodeGen) operand(e Expr) string {
	switch n := e.(type) {
	case *NumberLiteral:
		return cg.constant(n.Value)
	case *Variable:
		cg.syms.Add(n.Name)
		return n.Name
	}
	panic(fmt.Sprintf("operand: not a simple expression: %s", e))
}

// resolve returns the value e is known to have at this point of the
// straight-line program.
func (cg *CodeGen) resolve(e Expr) (int, bool) {
	switch n := e.(type) {
	case *NumberLiteral:
		return byteValue(n.Value), true
	case *Variable:
		v, ok := cg.known[n.Name]
		return v, ok
	}
	return 0, false
}

func (cg *CodeGen) genExpr(e Expr) {
	switch n := e.(type) {
	case *NumberLiteral, *Variable:
		cg.line("LDA %s", cg.operand(n))
	case *BinaryOp:
		switch n.Op {
		case PLUS, MINUS:
			cg.genAdditive(n)
		case STAR:
			cg.genMultiply(n)
		case SLASH:
			cg.genDivide(n)
		default:
			panic(fmt.Sprintf("genExpr: unknown operator %s", n.Op))
		}
	default:
		panic(fmt.Sprintf("genExpr: unknown node %T", e))
	}
}

func (cg *CodeGen) genAdditive(b *BinaryOp) {
	mnemonic := "ADD"
	if b.Op == MINUS {
		mnemonic = "SUB"
	}

	if isSimple(b.Left) && isSimple(b.Right) {
		l, lok := b.Left.(*NumberLiteral)
		r, rok := b.Right.(*NumberLiteral)
		if lok && rok {
			v := l.Value + r.Value
			if b.Op == MINUS {
				v = l.Value - r.Value
			}
			cg.line("LDA %s", cg.constant(v))
			return
		}
		cg.line("LDA %s", cg.operand(b.Left))
		cg.line("%s %s", mnemonic, cg.operand(b.Right))
		return
	}

	cg.genExpr(b.Left)
	if isSimple(b.Right) {
		cg.line("%s %s", mnemonic, cg.operand(b.Right))
		return
	}

	left := cg.syms.NewTemp()
	cg.line("STA %s", left)
	cg.genExpr(b.Right)
	if b.Op == PLUS {
		cg.line("ADD %s", left)
		return
	}
	right := cg.syms.NewTemp()
	cg.line("STA %s", right)
	cg.line("LDA %s", left)
	cg.line("SUB %s", right)
}

// genMultiply unrolls into repeated addition. The count has to be known at
// compile time. When both sides are known the smaller one is the count, and
// when only the left side is known the operands are swapped.
func (cg *CodeGen) genMultiply(b *BinaryOp) {
	factor := b.Left
	count, ok := cg.resolve(b.Right)
	if lc, lok := cg.resolve(b.Left); lok && (!ok || lc < count) {
		factor, count, ok = b.Right, lc, true
	}

	acc := cg.syms.NewTemp()
	cg.line("LDA %s", SymZero)
	cg.line("STA %s", acc)

	if !ok {
		cg.warnf("multiplier %s is not known at compile time, result is 0", b.Right)
		cg.line("LDA %s", SymZero)
	}
	for i := 0; i < count; i++ {
		cg.genExpr(factor)
		cg.line("ADD %s", acc)
		cg.line("STA %s", acc)
	}
	cg.line("LDA %s", acc)
}

// genDivide folds literal division and otherwise emits a subtract-and-count
// loop over three temporaries.
func (cg *CodeGen) genDivide(b *BinaryOp) {
	l, lok := b.Left.(*NumberLiteral)
	r, rok := b.Right.(*NumberLiteral)
	if rok && r.Value == 0 {
		cg.divideByZero(b)
		return
	}
	if lok && rok {
		cg.line("LDA %s", cg.constant(l.Value/r.Value))
		return
	}
	// At run time the divisor is a byte; one that wraps to zero never ends
	// the loop.
	if v, ok := cg.resolve(b.Right); ok && v == 0 {
		cg.divideByZero(b)
		return
	}

	quotient := cg.syms.NewTemp()
	dividend := cg.syms.NewTemp()
	divisor := cg.syms.NewTemp()

	cg.line("LDA %s", SymZero)
	cg.line("STA %s", quotient)
	cg.genExpr(b.Left)
	cg.line("STA %s", dividend)
	cg.genExpr(b.Right)
	cg.line("STA %s", divisor)

	loop := fmt.Sprintf("DIV_LOOP_%d", cg.nextLabel)
	done := fmt.Sprintf("DIV_DONE_%d", cg.nextLabel)
	cg.nextLabel++

	cg.label(loop)
	cg.line("LDA %s", dividend)
	cg.line("SUB %s", divisor)
	cg.line("JMN %s", done)
	cg.line("STA %s", dividend)
	cg.line("LDA %s", quotient)
	cg.line("ADD %s", SymUnit)
	cg.line("STA %s", quotient)
	cg.line("JMP %s", loop)
	cg.label(done)
	cg.line("LDA %s", quotient)
}

func (cg *CodeGen) divideByZero(b *BinaryOp) {
	cg.errorf("division by zero in %s", b)
	cg.comment("error: division by zero")
	cg.line("LDA %s", SymZero)
}

func (cg *CodeGen) genAssignment(s Statement) {
	cg.srcLine = s.Line
	if IsGenerated(s.Target) {
		cg.errorf("%s is a reserved name, assignment skipped", s.Target)
		cg.comment("error: cannot assign %s", s.Target)
		return
	}
	cg.comment("assign %s", s.Target)

	if n, ok := s.Expr.(*NumberLiteral); ok {
		v := byteValue(n.Value)
		cg.syms.Define(s.Target, v)
		cg.known[s.Target] = v
		cg.line("LDA %s", cg.constant(v))
		cg.line("STA %s", s.Target)
		return
	}

	cg.genExpr(s.Expr)
	cg.syms.Add(s.Target)
	delete(cg.known, s.Target)
	cg.line("STA %s", s.Target)
}

// renderData declares every registered name in registration order, which
// puts the fixed preamble first.
func renderData(sb *strings.Builder, syms *SymbolTable) {
	for _, e := range syms.Entries() {
		if e.Defined && !strings.HasPrefix(e.Name, "TEMP_") {
			fmt.Fprintf(sb, "%s DB %d\n", e.Name, e.Value)
		} else {
			fmt.Fprintf(sb, "%s DB ?\n", e.Name)
		}
	}
}

// Generate lowers unit to assembly text. syms is filled in as a side effect
// and should be fresh for each call.
func Generate(unit *CompilationUnit, syms *SymbolTable) (string, diag.List) {
	return generate(unit, syms, nil)
}

func generate(unit *CompilationUnit, syms *SymbolTable, logger *log.Logger) (string, diag.List) {
	cg := newCodeGen(syms, logger)

	for _, s := range unit.Statements {
		cg.genAssignment(s)
	}
	cg.srcLine = unit.ResultLine
	cg.comment("result expression")
	cg.genExpr(unit.Result)
	cg.line("STA %s", SymResult)
	cg.line("HLT")

	var sb strings.Builder
	fmt.Fprintf(&sb, "; %s\n\n", unit.Name)
	sb.WriteString(".DATA\n")
	renderData(&sb, syms)
	sb.WriteString("\n.CODE\n")
	sb.WriteString(".ORG 0\n")
	sb.WriteString(cg.code.String())
	return sb.String(), cg.diags
}
