package compiler

import "strings"

// keywords are matched at any position where the text starts with the
// spelling and the next character is not a letter, so "FIM1" is FIM then 1
// while "FIMX" is an identifier.
var keywords = []struct {
	text string
	tt   TokenType
}{
	{"PROGRAMA", PROGRAM},
	{"INICIO", BEGIN},
	{"FIM", END},
	{"RES", RESULT},
}

var operators = map[byte]TokenType{
	'=': ASSIGN,
	'+': PLUS,
	'-': MINUS,
	'*': STAR,
	'/': SLASH,
	'(': LPAREN,
	')': RPAREN,
	':': COLON,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  string
	pos  int // index of the next byte to consume
	line int // current 1-based source line
}

func newLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) advance() byte {
	c := l.peek()
	if l.pos < len(l.src) {
		l.pos++
		if c == '\n' {
			l.line++
		}
	}
	return c
}

func (l *Lexer) matchKeyword() (Token, bool) {
	rest := l.src[l.pos:]
	for _, kw := range keywords {
		if !strings.HasPrefix(rest, kw.text) {
			continue
		}
		if len(rest) > len(kw.text) && isLetter(rest[len(kw.text)]) {
			continue
		}
		l.pos += len(kw.text)
		return Token{Type: kw.tt, Lexeme: kw.text, Line: l.line}, true
	}
	return Token{}, false
}

// scanQuoted reads a double-quoted run as an identifier. A missing closing
// quote runs to the end of input.
func (l *Lexer) scanQuoted() Token {
	line := l.line
	l.advance() // opening quote
	start := l.pos
	for l.pos < len(l.src) && l.peek() != '"' {
		l.advance()
	}
	tok := Token{Type: IDENTIFIER, Lexeme: l.src[start:l.pos], Line: line}
	if l.peek() == '"' {
		l.advance()
	}
	return tok
}

func (l *Lexer) scanIdent() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) {
		c := l.peek()
		if !isLetter(c) && !isDigit(c) && c != '_' {
			break
		}
		l.advance()
	}
	return Token{Type: IDENTIFIER, Lexeme: l.src[start:l.pos], Line: line}
}

func (l *Lexer) scanInt() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	return Token{Type: INTEGER, Lexeme: l.src[start:l.pos], Line: line}
}

// nextToken returns the next token, silently dropping characters that start
// no token.
func (l *Lexer) nextToken() Token {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
			continue
		case c == '"':
			return l.scanQuoted()
		}

		if tok, ok := l.matchKeyword(); ok {
			return tok
		}
		if tt, ok := operators[c]; ok {
			line := l.line
			l.advance()
			return Token{Type: tt, Lexeme: string(c), Line: line}
		}
		if isLetter(c) {
			return l.scanIdent()
		}
		if isDigit(c) {
			return l.scanInt()
		}
		l.advance()
	}
	return Token{Type: EOF, Lexeme: "", Line: l.line}
}

// Lex converts source text into a token slice ending with EOF. It never
// fails: unrecognised characters are skipped.
func Lex(src string) []Token {
	l := newLexer(src)
	var tokens []Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}
