package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func parseSource(t *testing.T, src string) *CompilationUnit {
	t.Helper()
	unit, err := Parse(Lex(src), src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return unit
}

func num(v int) *NumberLiteral { return &NumberLiteral{Value: v} }
func ref(n string) *Variable    { return &Variable{Name: n} }
func bin(op TokenType, l, r Expr) *BinaryOp {
	return &BinaryOp{Op: op, Left: l, Right: r}
}

func TestParseUnit(t *testing.T) {
	src := `PROGRAMA T1:
INICIO
  X = 5
  Y = X * 2
  RES = X + Y
FIM`
	unit := parseSource(t, src)

	want := &CompilationUnit{
		Name: "T1",
		Statements: []Statement{
			{Target: "X", Expr: num(5), Line: 3},
			{Target: "Y", Expr: bin(STAR, ref("X"), num(2)), Line: 4},
		},
		Result:     bin(PLUS, ref("X"), ref("Y")),
		ResultLine: 5,
	}
	if !reflect.DeepEqual(unit, want) {
		t.Errorf("Parse =\n%s\nwant\n%s", unit, want)
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"(2 + 3) * 4", "((2 + 3) * 4)"},
		{"8 - 4 - 2", "((8 - 4) - 2)"},
		{"8 / 4 / 2", "((8 / 4) / 2)"},
		{"A * B + C / D", "((A * B) + (C / D))"},
		{"A - (B - C)", "(A - (B - C))"},
		{"((7))", "7"},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			unit := parseSource(t, "PROGRAMA P: INICIO RES = "+tc.expr+" FIM")
			if got := unit.Result.String(); got != tc.want {
				t.Errorf("RES = %s parsed as %s; want %s", tc.expr, got, tc.want)
			}
		})
	}
}

func TestParseEmptyBody(t *testing.T) {
	unit := parseSource(t, `PROGRAMA "hello world": INICIO RES = 0 FIM`)
	if unit.Name != "hello world" || len(unit.Statements) != 0 {
		t.Errorf("unit = %+v", unit)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"missing PROGRAMA", "P: INICIO RES = 1 FIM", "PROGRAMA"},
		{"missing name", "PROGRAMA : INICIO RES = 1 FIM", "program name"},
		{"missing colon", "PROGRAMA P INICIO RES = 1 FIM", "':' after program name"},
		{"missing INICIO", "PROGRAMA P: RES = 1 FIM", "INICIO"},
		{"missing assignment equals", "PROGRAMA P: INICIO X 1 RES = 1 FIM", "'='"},
		{"statement not starting with name", "PROGRAMA P: INICIO 5 = 1 RES = 1 FIM", "variable name"},
		{"missing RES", "PROGRAMA P: INICIO X = 1", "RES"},
		{"missing equals after RES", "PROGRAMA P: INICIO RES 1 FIM", "'=' after RES"},
		{"missing FIM", "PROGRAMA P: INICIO RES = 1", "FIM"},
		{"missing factor", "PROGRAMA P: INICIO RES = 1 + FIM", "number, name or '('"},
		{"unclosed paren", "PROGRAMA P: INICIO RES = (1 + 2 FIM", "')'"},
		{"unary minus", "PROGRAMA P: INICIO RES = -1 FIM", "number, name or '('"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			unit, err := Parse(Lex(tc.src), tc.src)
			if err == nil {
				t.Fatalf("expected error, got %s", unit)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error %v is not a *SyntaxError", err)
			}
			if se.Expected != tc.expected {
				t.Errorf("Expected = %q; want %q", se.Expected, tc.expected)
			}
			if unit != nil {
				t.Errorf("partial unit returned on error")
			}
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	src := "PROGRAMA P:\nINICIO\nX 5\nRES = X\nFIM"
	_, err := Parse(Lex(src), src)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"line 3", "expected '='", `INTEGER ("5")`, "|> X 5"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not contain %q", msg, want)
		}
	}
}
