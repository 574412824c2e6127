package compiler

import (
	"fmt"
	"log"

	"neander/pkg/diag"
)

// Output is everything one compilation produces.
type Output struct {
	Assembly    string
	Tokens      []Token
	Unit        *CompilationUnit
	Symbols     []Entry
	Diagnostics diag.List
}

type Option func(*config)

type config struct {
	logger *log.Logger
}

// WithLogger traces the token stream, the parsed unit and every emitted line.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Compile lowers a program to assembly text. A syntax error aborts with a
// *SyntaxError and no output; everything else is reported in Diagnostics.
func Compile(src string, opts ...Option) (*Output, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	tokens := Lex(src)
	if cfg.logger != nil {
		cfg.logger.Printf("lexed %d tokens", len(tokens))
		for i, tok := range tokens {
			cfg.logger.Printf("[%d] %s", i, tok)
		}
	}

	unit, err := Parse(tokens, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if cfg.logger != nil {
		cfg.logger.Printf("program %s: %d statements", unit.Name, len(unit.Statements))
	}

	syms := NewSymbolTable()
	assembly, diags := generate(unit, syms, cfg.logger)

	return &Output{
		Assembly:    assembly,
		Tokens:      tokens,
		Unit:        unit,
		Symbols:     syms.Entries(),
		Diagnostics: diags,
	}, nil
}
