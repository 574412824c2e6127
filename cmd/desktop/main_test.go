package main

import (
	"os"
	"path/filepath"
	"testing"

	"neander/pkg/cpu"
)

func TestLoadAndAdvance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.lpn")
	if err := os.WriteFile(path, []byte("PROGRAMA P: INICIO X = 5 RES = X + 3 FIM"), 0o644); err != nil {
		t.Fatal(err)
	}

	vm, image, symbols, err := load(path, 1000)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	g := newGame(vm, image, symbols)
	if len(g.lines) == 0 {
		t.Fatalf("no disassembly lines")
	}

	g.running = true
	g.advance(1000)
	if !vm.Halted || vm.AC != 8 {
		t.Errorf("halted=%t AC=%d; want halted with 8", vm.Halted, vm.AC)
	}
	g.advance(1)
	if g.running {
		t.Errorf("game still running after halt")
	}
}

func TestCellColor(t *testing.T) {
	img := cpu.NewImage()
	copy(img[cpu.HeaderSize:], []byte{cpu.OpHLT, 0, 0, 0})
	img[0x100] = 9
	vm := cpu.NewCPU(cpu.WithEntryPoint(cpu.HeaderSize))
	if err := vm.Load(img); err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := &Game{vm: vm}
	res := vm.Result()

	tests := []struct {
		addr int
		want any
	}{
		{0, colorHeader},
		{cpu.HeaderSize, colorPC},
		{cpu.HeaderSize + 3, colorPC},
		{0x100, colorText},
		{0x102, colorZero},
	}
	for _, tc := range tests {
		if got := g.cellColor(tc.addr, res); got != tc.want {
			t.Errorf("cellColor(0x%03X) = %v; want %v", tc.addr, got, tc.want)
		}
	}
}

func TestLoadRejectsBadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3, 4}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := load(path, 10); err == nil {
		t.Errorf("expected a magic error")
	}
}

func TestSelectAt(t *testing.T) {
	g := &Game{vm: cpu.NewCPU(), selected: -1}
	if err := g.vm.Load(cpu.NewImage()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		px, py int
		want   int
	}{
		{0, 0, 0},
		{cellWidth + 1, 0, 1},
		{3 * cellWidth, 2 * cellHeight, 2*memCols + 3},
		{memCols*cellWidth + 5, 0, -1},
		{0, screenHeight + cellHeight, -1},
		{-1, 0, -1},
	}
	for _, tc := range tests {
		g.selectAt(tc.px, tc.py)
		if g.selected != tc.want {
			t.Errorf("selectAt(%d, %d) = %d; want %d", tc.px, tc.py, g.selected, tc.want)
		}
	}

	g.selectAt(0, 0)
	if got := g.selection(); got != "\n[0x000] = 0x03 (3)" {
		t.Errorf("selection() = %q", got)
	}
}
