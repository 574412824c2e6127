package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds a
// CompilationUnit.
//
// Grammar:
//
//	unit       = "PROGRAMA" IDENTIFIER ":" "INICIO" assignment* "RES" "=" expression "FIM"
//	assignment = IDENTIFIER "=" expression
//	expression = term (("+" | "-") term)*
//	term       = factor (("*" | "/") factor)*
//	factor     = INTEGER | IDENTIFIER | "(" expression ")"
//
// The first unexpected token aborts parsing; there is no recovery.
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// SyntaxError is the fatal error returned for a token the grammar does not
// allow at that point.
type SyntaxError struct {
	Line     int
	Expected string
	Got      Token
	Snippet  string
}

func (e *SyntaxError) Error() string {
	got := e.Got.Type.String()
	if e.Got.Lexeme != "" {
		got = fmt.Sprintf("%s (%q)", got, e.Got.Lexeme)
	}
	msg := fmt.Sprintf("line %d: expected %s, got %s", e.Line, e.Expected, got)
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

func (p *Parser) errorAt(tok Token, expected string) error {
	snippet := ""
	if i := tok.Line - 1; i >= 0 && i < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[i])
	}
	return &SyntaxError{Line: tok.Line, Expected: expected, Got: tok, Snippet: snippet}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.errorAt(tok, what)
	}
	return tok, nil
}

func (p *Parser) parseExpression() (Expr, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == PLUS || p.peek().Type == MINUS {
		op := p.advance().Type
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseTerm() (Expr, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == STAR || p.peek().Type == SLASH {
		op := p.advance().Type
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseFactor() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.advance()
		v, err := strconv.Atoi(tok.Lexeme)
		if err != nil {
			return nil, p.errorAt(tok, "integer literal in range")
		}
		return &NumberLiteral{Value: v}, nil
	case IDENTIFIER:
		p.advance()
		return &Variable{Name: tok.Lexeme}, nil
	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errorAt(tok, "number, name or '('")
}

func (p *Parser) parseAssignment() (Statement, error) {
	name, err := p.expect(IDENTIFIER, "variable name")
	if err != nil {
		return Statement{}, err
	}
	if _, err := p.expect(ASSIGN, "'='"); err != nil {
		return Statement{}, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return Statement{}, err
	}
	return Statement{Target: name.Lexeme, Expr: expr, Line: name.Line}, nil
}

func (p *Parser) parseUnit() (*CompilationUnit, error) {
	if _, err := p.expect(PROGRAM, "PROGRAMA"); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER, "program name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':' after program name"); err != nil {
		return nil, err
	}
	if _, err := p.expect(BEGIN, "INICIO"); err != nil {
		return nil, err
	}

	unit := &CompilationUnit{Name: name.Lexeme}
	for p.peek().Type != RESULT && p.peek().Type != EOF {
		stmt, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		unit.Statements = append(unit.Statements, stmt)
	}

	res, err := p.expect(RESULT, "RES")
	if err != nil {
		return nil, err
	}
	unit.ResultLine = res.Line
	if _, err := p.expect(ASSIGN, "'=' after RES"); err != nil {
		return nil, err
	}
	if unit.Result, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if _, err := p.expect(END, "FIM"); err != nil {
		return nil, err
	}
	return unit, nil
}

// Parse builds the AST for a whole program. Tokens after FIM are ignored.
func Parse(tokens []Token, rawSource string) (*CompilationUnit, error) {
	return NewParser(tokens, rawSource).parseUnit()
}
