package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"neander/pkg/asm"
	"neander/pkg/compiler"
	"neander/pkg/cpu"
	"neander/pkg/grid"
	"neander/pkg/utils"
)

const (
	memCols    = 16
	cellWidth  = 24
	cellHeight = 14
	panelWidth = 200

	screenWidth  = memCols*cellWidth + panelWidth
	screenHeight = (cpu.ImageSize / memCols) * cellHeight

	stepsPerFrame = 50
)

var (
	colorText   = color.RGBA{200, 200, 200, 255}
	colorZero   = color.RGBA{80, 80, 80, 255}
	colorPC     = color.RGBA{255, 220, 0, 255}
	colorResult = color.RGBA{0, 220, 90, 255}
	colorHeader = color.RGBA{90, 160, 255, 255}
)

type Game struct {
	vm       *cpu.CPU
	running  bool
	lines    []string // disassembly shown in the side panel
	selected int      // clicked memory cell, -1 for none
}

func newGame(vm *cpu.CPU, image []byte, symbols []asm.Symbol) *Game {
	var lines []string
	for _, ins := range asm.Disassemble(image, symbols) {
		lines = append(lines, ins.String())
	}
	return &Game{vm: vm, lines: lines, selected: -1}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && !g.vm.Halted {
		g.vm.Step()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.running = !g.running
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.vm.Reset()
		g.running = false
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.selectAt(ebiten.CursorPosition())
	}

	if g.running {
		g.advance(stepsPerFrame)
	}
	return nil
}

// selectAt picks the memory cell under screen position (px, py). Clicks
// outside the grid clear the selection.
func (g *Game) selectAt(px, py int) {
	i := grid.GetGridIndex(px/cellWidth, py/cellHeight, memCols)
	if px < 0 || py < 0 || i >= cpu.ImageSize {
		i = -1
	}
	g.selected = i
}

// selection describes the selected byte.
func (g *Game) selection() string {
	if g.selected < 0 {
		return ""
	}
	v := g.vm.Memory[g.selected]
	return fmt.Sprintf("\n[0x%03X] = 0x%02X (%d)", g.selected, v, int8(v))
}

// advance executes up to n instructions and stops running once halted.
func (g *Game) advance(n int) {
	for i := 0; i < n; i++ {
		if g.vm.Halted {
			g.running = false
			return
		}
		g.vm.Step()
	}
}

// cellColor picks how memory byte i is drawn.
func (g *Game) cellColor(i int, res cpu.Result) color.Color {
	switch {
	case i < cpu.HeaderSize:
		return colorHeader
	case i >= int(g.vm.PC) && i < int(g.vm.PC)+cpu.InstructionSize:
		return colorPC
	case g.vm.Halted && res.Found && i == res.Address:
		return colorResult
	case g.vm.Memory[i] == 0:
		return colorZero
	}
	return colorText
}

func (g *Game) Draw(screen *ebiten.Image) {
	face := basicfont.Face7x13
	res := g.vm.Result()

	for i := 0; i < cpu.ImageSize; i++ {
		x, y := grid.GetGridCoords(i, memCols)
		msg := fmt.Sprintf("%02X", g.vm.Memory[i])
		text.Draw(screen, msg, face, x*cellWidth+4, (y+1)*cellHeight-2, g.cellColor(i, res))
	}

	px := memCols*cellWidth + 8
	ebitenutil.DebugPrintAt(screen, g.status(res), px, 4)
	for i, l := range g.lines {
		// Drop the raw bytes, the grid already shows them.
		if _, decoded, ok := strings.Cut(l, "  "); ok {
			l = l[:7] + decoded
		}
		text.Draw(screen, l, face, px, 120+i*cellHeight, colorText)
	}
}

func (g *Game) status(res cpu.Result) string {
	state := "paused"
	switch {
	case g.vm.Halted:
		state = g.vm.Reason.String()
	case g.running:
		state = "running"
	}
	s := fmt.Sprintf("PC  0x%02X\nAC  0x%02X (%d)\nZ %t  N %t\nsteps %d\n%s",
		g.vm.PC, g.vm.AC, int8(g.vm.AC), g.vm.Z, g.vm.N, g.vm.Steps, state)
	if g.vm.Halted && res.Found {
		s += fmt.Sprintf("\nRES [0x%03X] = %d", res.Address, res.Signed())
	}
	return s + g.selection() + "\n\nspace step  R run\nbackspace reset\nclick inspect"
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// load turns a source, assembly or image file into a loaded machine.
func load(path string, maxSteps uint64) (*cpu.CPU, []byte, []asm.Symbol, error) {
	fullPath, _, err := utils.GetPathInfo(path)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, nil, nil, err
	}

	var image []byte
	var symbols []asm.Symbol
	switch strings.ToLower(filepath.Ext(fullPath)) {
	case ".bin":
		image = data
	case ".asm":
		res := asm.Assemble(string(data))
		image, symbols = res.Image, res.Symbols
	default:
		out, err := compiler.Compile(string(data))
		if err != nil {
			return nil, nil, nil, err
		}
		res := asm.Assemble(out.Assembly)
		image, symbols = res.Image, res.Symbols
	}

	vm := cpu.NewCPU(cpu.WithMaxSteps(maxSteps))
	if err := vm.Load(image); err != nil {
		return nil, nil, nil, err
	}
	return vm, image, symbols, nil
}

func main() {
	maxSteps := flag.Uint64("max-steps", 100000, "stop after this many instructions")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: desktop [-max-steps N] program.lpn|program.asm|program.bin")
	}

	vm, image, symbols, err := load(flag.Arg(0), *maxSteps)
	if err != nil {
		log.Fatalf("load failed: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("Neander")

	if err := ebiten.RunGame(newGame(vm, image, symbols)); err != nil {
		log.Fatal(err)
	}
}
