//go:build !js

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/logrusorgru/aurora"
	"golang.org/x/term"

	"neander/pkg/asm"
	"neander/pkg/cpu"
	"neander/pkg/diag"
)

// printer renders command output, colouring it when the destination is a
// terminal or when asked to.
type printer struct {
	out, err io.Writer
	au       aurora.Aurora
	pp       *pp.PrettyPrinter
}

func newPrinter(out, errOut io.Writer, mode string) (*printer, error) {
	var color bool
	switch mode {
	case "always":
		color = true
	case "never":
		color = false
	case "auto", "":
		color = isTerminal(out)
	default:
		return nil, fmt.Errorf("unknown --color mode %q (want auto, always or never)", mode)
	}

	pretty := pp.New()
	pretty.SetOutput(out)
	pretty.SetColoringEnabled(color)

	return &printer{out: out, err: errOut, au: aurora.NewAurora(color), pp: pretty}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) diagnostics(list diag.List) {
	for _, d := range list {
		if d.Severity == diag.Error {
			fmt.Fprintln(p.err, p.au.Red(d.String()))
		} else {
			fmt.Fprintln(p.err, p.au.Yellow(d.String()))
		}
	}
}

func (p *printer) done(format string, args ...any) {
	fmt.Fprintln(p.out, p.au.Green(fmt.Sprintf(format, args...)))
}

func (p *printer) section(title string) {
	fmt.Fprintln(p.out, p.au.Cyan("== "+title))
}

func (p *printer) symbols(syms []asm.Symbol) {
	p.section("symbols")
	for _, s := range syms {
		line := s.String()
		if !s.Defined {
			fmt.Fprintln(p.out, p.au.Yellow(line))
			continue
		}
		fmt.Fprintln(p.out, line)
	}
}

func (p *printer) listing(prog []asm.Instruction) {
	for _, ins := range prog {
		text := ins.String()
		// Address and raw bytes stay plain, the decoded part is highlighted.
		if i := strings.Index(text, "  "); i >= 0 && ins.Mnemonic != "" {
			text = text[:i+2] + p.au.Blue(text[i+2:]).String()
		}
		fmt.Fprintln(p.out, text)
	}
}

func (p *printer) result(r cpu.Result) {
	fmt.Fprintf(p.out, "halt:  %s after %d steps\n", r.Reason, r.Steps)
	fmt.Fprintf(p.out, "AC=0x%02X PC=0x%02X Z=%t N=%t\n", r.Accumulator, r.PC, r.Zero, r.Negative)
	if !r.Found {
		fmt.Fprintln(p.out, p.au.Yellow("result not found in memory"))
		return
	}
	fmt.Fprintf(p.out, "result: %s\n", p.au.Magenta(fmt.Sprintf("[0x%03X] = %d (0x%02X)", r.Address, r.Signed(), r.Value)))
}

func (p *printer) pretty(v any) {
	p.pp.Println(v)
}
