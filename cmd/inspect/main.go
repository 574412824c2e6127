// Command inspect runs a source program through every stage and prints the
// intermediate structures: tokens, syntax tree, registry, assembly, symbols
// and the final machine state.
package main

import (
	"fmt"
	"os"

	"github.com/k0kubun/pp/v3"

	"neander/pkg/asm"
	"neander/pkg/compiler"
	"neander/pkg/cpu"
)

const testSource = `PROGRAMA DEMO:
INICIO
  X = 12
  Y = X / 4
  Z = Y * 3
  RES = Z - X + 1
FIM
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	fmt.Printf("Source:\n%s\n", src)

	out, err := compiler.Compile(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(out.Tokens))
	for _, tok := range out.Tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	fmt.Println("AST")
	fmt.Println(out.Unit)
	pp.Println(out.Unit.Statements)
	fmt.Println()

	fmt.Println("Registry")
	pp.Println(out.Symbols)
	fmt.Println()

	fmt.Println("Generated Assembly")
	fmt.Print(out.Assembly)
	fmt.Println()

	res := asm.Assemble(out.Assembly)
	for _, d := range append(out.Diagnostics, res.Diagnostics...) {
		pp.Fprintf(os.Stderr, "%v\n", d)
	}

	fmt.Println("Symbols")
	fmt.Print(res.Listing())
	fmt.Println()

	fmt.Println("Code")
	fmt.Print(asm.FormatListing(asm.Disassemble(res.Image, res.Symbols)))
	fmt.Println()

	result, err := cpu.Execute(res.Image, cpu.WithMaxSteps(100000))
	if err != nil {
		fmt.Fprintln(os.Stderr, "execute error:", err)
		os.Exit(1)
	}
	pp.Println(result)
}
