package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Keywords
	PROGRAM // "PROGRAMA"
	BEGIN   // "INICIO"
	END     // "FIM"
	RESULT  // "RES"

	// Literals
	IDENTIFIER // name, or the text of a quoted string
	INTEGER    // decimal integer literal

	// Operators and punctuation
	ASSIGN // =
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	LPAREN // (
	RPAREN // )
	COLON  // :

	UNKNOWN
)

var tokenNames = [...]string{
	EOF:        "EOF",
	PROGRAM:    "PROGRAM",
	BEGIN:      "BEGIN",
	END:        "END",
	RESULT:     "RESULT",
	IDENTIFIER: "IDENTIFIER",
	INTEGER:    "INTEGER",
	ASSIGN:     "ASSIGN",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COLON:      "COLON",
	UNKNOWN:    "UNKNOWN",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
