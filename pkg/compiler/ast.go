package compiler

import (
	"fmt"
	"strings"
)

// Expr is implemented by every node that produces a value.
// genExpr always leaves the result in the accumulator.
type Expr interface {
	exprNode()
	String() string
}

// NumberLiteral is a compile-time integer constant.
//
//	X = 10
//	    ^^  NumberLiteral{Value: 10}
type NumberLiteral struct {
	Value int
}

func (*NumberLiteral) exprNode()        {}
func (n *NumberLiteral) String() string { return fmt.Sprintf("%d", n.Value) }

// Variable is a read of a named variable.
type Variable struct {
	Name string
}

func (*Variable) exprNode()        {}
func (v *Variable) String() string { return v.Name }

// BinaryOp represents Left Op Right, with Op one of PLUS, MINUS, STAR, SLASH.
//
//	X + 1
//	^ ^ ^
//	| | Right
//	| Op
//	Left
type BinaryOp struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

func (*BinaryOp) exprNode() {}
func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, opSymbol(b.Op), b.Right)
}

func opSymbol(op TokenType) string {
	switch op {
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	default:
		return op.String()
	}
}

// isSimple reports whether e is a leaf the accumulator can load in one step.
func isSimple(e Expr) bool {
	switch e.(type) {
	case *NumberLiteral, *Variable:
		return true
	}
	return false
}

// Statement is one assignment "Target = Expr".
type Statement struct {
	Target string
	Expr   Expr
	Line   int
}

func (s Statement) String() string {
	return fmt.Sprintf("%s = %s", s.Target, s.Expr)
}

// CompilationUnit is a whole parsed program.
type CompilationUnit struct {
	Name       string
	Statements []Statement
	Result     Expr
	ResultLine int
}

func (u *CompilationUnit) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PROGRAMA %s:\n", u.Name)
	for _, s := range u.Statements {
		fmt.Fprintf(&sb, "  %s\n", s)
	}
	fmt.Fprintf(&sb, "  RES = %s\n", u.Result)
	return sb.String()
}
