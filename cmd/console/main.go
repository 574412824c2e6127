// Command console is an interactive session over the toolchain. Source lines
// are collected until FIM, then compiled, assembled and loaded; the machine
// can then be stepped or run.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"

	"neander/pkg/asm"
	"neander/pkg/compiler"
	"neander/pkg/cpu"
	"neander/pkg/utils"
)

const (
	promptIdle   = "neander> "
	promptSource = "   ...> "
)

const helpText = `commands:
  :load FILE   compile (.lpn) or assemble (.asm) a file and load it
  :step [N]    execute N instructions (default 1)
  :run         run until HLT or the step limit
  :regs        show registers and the located result
  :dump        hex dump of the image region
  :asm         show the last generated assembly
  :reset       reload the image
  :quit        leave
anything else is source text; FIM ends the program and loads it
`

// session holds the machine and the text being typed.
type session struct {
	out      io.Writer
	vm       *cpu.CPU
	pending  strings.Builder
	assembly string
	maxSteps uint64
}

func newSession(out io.Writer) *session {
	return &session{out: out, maxSteps: 100000}
}

func (s *session) prompt() string {
	if s.pending.Len() > 0 {
		return promptSource
	}
	return promptIdle
}

// handle processes one input line and reports whether the session is over.
func (s *session) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if s.pending.Len() == 0 && strings.HasPrefix(trimmed, ":") {
		return s.command(strings.Fields(trimmed[1:]))
	}
	if trimmed == "" && s.pending.Len() == 0 {
		return false
	}

	s.pending.WriteString(line)
	s.pending.WriteByte('\n')
	if f := strings.Fields(trimmed); len(f) > 0 && f[len(f)-1] == "FIM" {
		src := s.pending.String()
		s.pending.Reset()
		s.loadSource(src)
	}
	return false
}

func (s *session) command(args []string) bool {
	if len(args) == 0 {
		fmt.Fprint(s.out, helpText)
		return false
	}
	switch args[0] {
	case "quit", "q":
		return true
	case "help", "h":
		fmt.Fprint(s.out, helpText)
	case "load":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "usage: :load FILE")
			return false
		}
		s.loadFile(args[1])
	case "asm":
		fmt.Fprint(s.out, s.assembly)
	default:
		if s.vm == nil {
			fmt.Fprintln(s.out, "no program loaded")
			return false
		}
		s.machine(args)
	}
	return false
}

func (s *session) machine(args []string) {
	switch args[0] {
	case "step", "s":
		n := 1
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v < 1 {
				fmt.Fprintf(s.out, "bad step count %q\n", args[1])
				return
			}
			n = v
		}
		for i := 0; i < n && !s.vm.Halted; i++ {
			s.vm.Step()
		}
		s.regs()
	case "run", "r":
		s.vm.Run()
		s.regs()
	case "regs":
		s.regs()
	case "dump":
		if err := cpu.Dump(s.out, s.vm.Memory[:cpu.ImageSize]); err != nil {
			fmt.Fprintln(s.out, err)
		}
	case "reset":
		s.vm.Reset()
		s.regs()
	default:
		fmt.Fprintf(s.out, "unknown command :%s\n", args[0])
	}
}

func (s *session) regs() {
	fmt.Fprintf(s.out, "PC=0x%02X AC=0x%02X Z=%t N=%t steps=%d", s.vm.PC, s.vm.AC, s.vm.Z, s.vm.N, s.vm.Steps)
	if s.vm.Halted {
		fmt.Fprintf(s.out, " halted (%s)\n%s\n", s.vm.Reason, s.vm.Result())
		return
	}
	fmt.Fprintln(s.out)
}

func (s *session) loadFile(path string) {
	fullPath, _, err := utils.GetPathInfo(path)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	if strings.EqualFold(filepath.Ext(fullPath), ".asm") {
		s.loadAssembly(string(data))
		return
	}
	s.loadSource(string(data))
}

func (s *session) loadSource(src string) {
	out, err := compiler.Compile(src)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	for _, d := range out.Diagnostics {
		fmt.Fprintln(s.out, d)
	}
	s.loadAssembly(out.Assembly)
}

func (s *session) loadAssembly(code string) {
	res := asm.Assemble(code)
	for _, d := range res.Diagnostics {
		fmt.Fprintln(s.out, d)
	}

	vm := cpu.NewCPU(cpu.WithMaxSteps(s.maxSteps))
	if err := vm.Load(res.Image); err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	s.vm = vm
	s.assembly = code
	fmt.Fprintf(s.out, "loaded %d symbols, %d bytes\n", len(res.Symbols), len(res.Image))
}

func main() {
	s := newSession(os.Stdout)
	if len(os.Args) > 1 {
		s.loadFile(os.Args[1])
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if s.handle(scanner.Text()) {
				return
			}
		}
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatalf("raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, promptIdle)
	s.out = t

	fmt.Fprint(t, helpText)
	for {
		t.SetPrompt(s.prompt())
		line, err := t.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintln(t, err)
			}
			return
		}
		if s.handle(line) {
			return
		}
	}
}
