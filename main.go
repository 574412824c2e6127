//go:build !js

package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"neander/pkg/asm"
	"neander/pkg/compiler"
	"neander/pkg/cpu"
	"neander/pkg/diag"
	"neander/pkg/utils"
)

const (
	defaultAssemblyFile = "programa.asm"
	defaultBinaryFile   = "programa.bin"
)

type options struct {
	out       string
	verbose   bool
	color     string
	legacyRes bool
	result    string
	maxSteps  uint64
	dump      bool
	snapshot  string
	symbols   string
	run       bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "neander",
		Short: "Compiler, assembler and emulator for an 8-bit accumulator machine",
		Long: `Neander is a three-stage teaching toolchain.

compile turns a PROGRAMA ... FIM source (.lpn) into assembly (.asm),
assemble encodes assembly into a 512-byte image (.bin), and run executes
an image and reports the accumulator and the memory cell holding it.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.out, "out", "o", "", "output file (default: input name with the stage's extension)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "trace every stage on stderr")
	pf.StringVar(&opts.color, "color", "auto", "colour output: auto, always or never")

	root.AddCommand(
		newCompileCmd(opts),
		newAssembleCmd(opts),
		newRunCmd(opts),
		newBuildCmd(opts),
		newDisasmCmd(opts),
	)
	return root
}

func addAssembleFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVar(&opts.legacyRes, "legacy-res", false, "pre-reserve RES at 0x104 before laying out data")
}

func addRunFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.result, "result", "scan", "how to locate the result: scan memory for the accumulator, or read the RES address")
	f.Uint64Var(&opts.maxSteps, "max-steps", 0, "stop after this many instructions (0 runs until HLT)")
	f.BoolVar(&opts.dump, "dump", false, "hex dump memory before and after execution")
	f.StringVar(&opts.snapshot, "snapshot", "", "save the final machine state to this file")
}

func (o *options) logger(stderr io.Writer, stage string) *log.Logger {
	if !o.verbose {
		return nil
	}
	return log.New(stderr, stage+": ", 0)
}

func (o *options) assembleOptions(stderr io.Writer) []asm.Option {
	opts := []asm.Option{asm.WithLogger(o.logger(stderr, "assemble"))}
	if o.legacyRes {
		opts = append(opts, asm.WithReservedSymbol(compiler.SymResult, cpu.LegacyResultAddress))
	}
	return opts
}

func (o *options) cpuOptions(stderr io.Writer, symbols []asm.Symbol) ([]cpu.Option, error) {
	opts := []cpu.Option{
		cpu.WithMaxSteps(o.maxSteps),
		cpu.WithLogger(o.logger(stderr, "execute")),
	}
	switch o.result {
	case "scan":
		opts = append(opts, cpu.WithResultMode(cpu.ResultScan))
	case "address":
		addr := cpu.LegacyResultAddress
		for _, s := range symbols {
			if s.Name == compiler.SymResult {
				addr = s.Address
			}
		}
		opts = append(opts, cpu.WithResultAddress(addr))
	default:
		return nil, fmt.Errorf("unknown --result mode %q (want scan or address)", o.result)
	}
	return opts, nil
}

func (o *options) outputPath(in, ext string) string {
	if o.out != "" {
		return o.out
	}
	return utils.DefaultOutputPath(in, ext)
}

func newCompileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compile source.lpn",
		Short: "Compile a source program to assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.color)
			if err != nil {
				return err
			}
			out, err := compileFile(args[0], opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p.diagnostics(out.Diagnostics)

			dst := opts.outputPath(args[0], ".asm")
			if err := utils.WriteFileAtomic(dst, []byte(out.Assembly), 0o644); err != nil {
				return err
			}
			p.done("compiled %s -> %s", args[0], dst)
			return nil
		},
	}
}

func newAssembleCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble [source.asm]",
		Short: "Assemble to a 512-byte image (default programa.asm)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.color)
			if err != nil {
				return err
			}
			in := defaultAssemblyFile
			if len(args) == 1 {
				in = args[0]
			}
			src, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			res := asm.Assemble(string(src), opts.assembleOptions(cmd.ErrOrStderr())...)
			p.diagnostics(res.Diagnostics)
			if opts.verbose {
				p.symbols(res.Symbols)
			}

			dst := defaultBinaryFile
			if len(args) == 1 || opts.out != "" {
				dst = opts.outputPath(in, ".bin")
			}
			if err := utils.WriteFileAtomic(dst, res.Image, 0o644); err != nil {
				return err
			}
			p.done("assembled %d bytes -> %s", len(res.Image), dst)
			return assemblyErrors(res)
		},
	}
	addAssembleFlags(cmd, opts)
	return cmd
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [image.bin]",
		Short: "Execute an image (default programa.bin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.color)
			if err != nil {
				return err
			}
			in := defaultBinaryFile
			if len(args) == 1 {
				in = args[0]
			}
			image, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			return execute(p, image, nil, opts, cmd.ErrOrStderr())
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func newBuildCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build source.lpn",
		Short: "Compile and assemble, writing .asm and .bin next to the source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.color)
			if err != nil {
				return err
			}
			out, err := compileFile(args[0], opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p.diagnostics(out.Diagnostics)

			asmPath := utils.DefaultOutputPath(args[0], ".asm")
			if err := utils.WriteFileAtomic(asmPath, []byte(out.Assembly), 0o644); err != nil {
				return err
			}

			res := asm.Assemble(out.Assembly, opts.assembleOptions(cmd.ErrOrStderr())...)
			p.diagnostics(res.Diagnostics)

			binPath := opts.outputPath(args[0], ".bin")
			if err := utils.WriteFileAtomic(binPath, res.Image, 0o644); err != nil {
				return err
			}
			p.done("built %s -> %s, %s", args[0], asmPath, binPath)
			if err := assemblyErrors(res); err != nil {
				return err
			}

			if !opts.run {
				return nil
			}
			return execute(p, res.Image, res.Symbols, opts, cmd.ErrOrStderr())
		},
	}
	addAssembleFlags(cmd, opts)
	addRunFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.run, "run", false, "execute the image after building")
	return cmd
}

func newDisasmCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm image.bin",
		Short: "List the code region of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.color)
			if err != nil {
				return err
			}
			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var symbols []asm.Symbol
			if opts.symbols != "" {
				src, err := os.ReadFile(opts.symbols)
				if err != nil {
					return err
				}
				symbols = asm.Assemble(string(src), opts.assembleOptions(cmd.ErrOrStderr())...).Symbols
			}
			p.listing(asm.Disassemble(image, symbols))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.symbols, "symbols", "", "assembly source to take symbol names from")
	addAssembleFlags(cmd, opts)
	return cmd
}

// assemblyErrors fails the command when the image was written despite
// assembler errors, so scripts never run it unknowingly.
func assemblyErrors(res *asm.Result) error {
	if n := len(res.Diagnostics.Filter(diag.Error)); n > 0 {
		return fmt.Errorf("assembly finished with %d error(s)", n)
	}
	return nil
}

func compileFile(path string, opts *options, stderr io.Writer) (*compiler.Output, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(string(src), compiler.WithLogger(opts.logger(stderr, "compile")))
}

func execute(p *printer, image []byte, symbols []asm.Symbol, opts *options, stderr io.Writer) error {
	cpuOpts, err := opts.cpuOptions(stderr, symbols)
	if err != nil {
		return err
	}
	c := cpu.NewCPU(cpuOpts...)
	if err := c.Load(image); err != nil {
		return err
	}

	if opts.dump {
		p.section("memory before execution")
		if err := cpu.Dump(p.out, c.Memory[:cpu.ImageSize]); err != nil {
			return err
		}
	}

	c.Run()

	if opts.dump {
		p.section("memory after execution")
		if err := cpu.Dump(p.out, c.Memory[:cpu.ImageSize]); err != nil {
			return err
		}
	}

	res := c.Result()
	p.result(res)
	if opts.dump {
		p.pretty(res)
	}

	if opts.snapshot != "" {
		if err := c.SnapshotToFile(opts.snapshot); err != nil {
			return err
		}
		p.done("snapshot -> %s", opts.snapshot)
	}
	return nil
}
