package cpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// buildImage places code at the first instruction slot after the header and
// pokes data bytes at absolute addresses.
func buildImage(data map[int]byte, code ...[InstructionSize]byte) []byte {
	img := NewImage()
	for i, ins := range code {
		copy(img[HeaderSize+i*InstructionSize:], ins[:])
	}
	for addr, v := range data {
		img[addr] = v
	}
	return img
}

func ins(op byte, addr int) [InstructionSize]byte {
	if !HasOperand(op) {
		return EncodeInstruction(op, 0)
	}
	return EncodeInstruction(op, CellIndex(addr))
}

// codeAddr returns the absolute address of the n-th instruction.
func codeAddr(n int) int {
	return HeaderSize + n*InstructionSize
}

func runImage(t *testing.T, img []byte, opts ...Option) *CPU {
	t.Helper()
	c := NewCPU(opts...)
	if err := c.Load(img); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Run()
	return c
}

func TestInstructionEncoding(t *testing.T) {
	got := EncodeInstruction(OpLDA, CellIndex(0x10C))
	want := [InstructionSize]byte{0x20, 0x00, 132, 0x00}
	if got != want {
		t.Errorf("EncodeInstruction(LDA, 0x10C) = % x; want % x", got, want)
	}
	if CellAddress(132) != 0x10C {
		t.Errorf("CellAddress(132) = 0x%X; want 0x10C", CellAddress(132))
	}
}

func TestALU(t *testing.T) {
	tests := []struct {
		name string
		op   byte
		a, b byte
		want byte
	}{
		{"ADD", OpADD, 10, 20, 30},
		{"ADD wraps", OpADD, 200, 100, 44},
		{"SUB", OpSUB, 20, 5, 15},
		{"SUB wraps", OpSUB, 1, 2, 0xFF},
		{"OR", OpOR, 0xF0, 0x0F, 0xFF},
		{"AND", OpAND, 0xFF, 0x0F, 0x0F},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := buildImage(map[int]byte{0x100: tc.a, 0x102: tc.b},
				ins(OpLDA, 0x100),
				ins(tc.op, 0x102),
				ins(OpHLT, 0),
			)
			c := runImage(t, img)
			if c.AC != tc.want {
				t.Errorf("AC = 0x%02X; want 0x%02X", c.AC, tc.want)
			}
		})
	}
}

func TestNOTIgnoresOperandAndAdvancesByFour(t *testing.T) {
	img := buildImage(map[int]byte{0x100: 0x0F},
		ins(OpLDA, 0x100),
		EncodeInstruction(OpNOT, 0x55),
		ins(OpHLT, 0),
	)
	c := runImage(t, img)
	if c.AC != 0xF0 {
		t.Errorf("AC = 0x%02X; want 0xF0", c.AC)
	}
	if int(c.PC) != codeAddr(2) {
		t.Errorf("PC = 0x%02X; want HLT at 0x%02X", c.PC, codeAddr(2))
	}
}

func TestStoreWritesOperandCell(t *testing.T) {
	img := buildImage(map[int]byte{0x100: 42},
		ins(OpLDA, 0x100),
		ins(OpSTA, 0x120),
		ins(OpHLT, 0),
	)
	c := runImage(t, img)
	if c.Memory[0x120] != 42 {
		t.Errorf("Memory[0x120] = %d; want 42", c.Memory[0x120])
	}
}

func TestHeaderDecodesAsNop(t *testing.T) {
	c := NewCPU()
	if err := c.Load(buildImage(nil, ins(OpHLT, 0))); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.PC != 0 {
		t.Fatalf("PC starts at 0x%02X; want 0", c.PC)
	}
	c.Step()
	if c.PC != HeaderSize {
		t.Errorf("after header step PC = 0x%02X; want 0x%02X", c.PC, HeaderSize)
	}
	if c.Run() != HaltInstruction {
		t.Errorf("expected HLT halt")
	}
	if c.Steps != 2 {
		t.Errorf("Steps = %d; want 2", c.Steps)
	}
}

func TestFlagsCapturedAtFetch(t *testing.T) {
	img := buildImage(map[int]byte{0x100: 5},
		ins(OpLDA, 0x100),
		ins(OpHLT, 0),
	)
	c := NewCPU(WithEntryPoint(HeaderSize))
	if err := c.Load(img); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Step()
	if c.AC != 5 {
		t.Fatalf("AC = %d; want 5", c.AC)
	}
	// Flags describe the accumulator as it was when LDA was fetched.
	if !c.Z || c.N {
		t.Errorf("flags after LDA: Z=%t N=%t; want Z=true N=false", c.Z, c.N)
	}
	c.Step()
	if c.Z || c.N {
		t.Errorf("flags at HLT fetch: Z=%t N=%t; want both false", c.Z, c.N)
	}
}

func TestConditionalJumps(t *testing.T) {
	// 0 LDA a; 1 SUB b; 2 Jxx taken; 3 LDA miss; 4 HLT; 5 LDA hit; 6 HLT
	build := func(jump byte, a, b byte) []byte {
		return buildImage(map[int]byte{0x100: a, 0x102: b, 0x104: 7, 0x106: 9},
			ins(OpLDA, 0x100),
			ins(OpSUB, 0x102),
			ins(jump, codeAddr(5)),
			ins(OpLDA, 0x104),
			ins(OpHLT, 0),
			ins(OpLDA, 0x106),
			ins(OpHLT, 0),
		)
	}

	tests := []struct {
		name string
		jump byte
		a, b byte
		want byte
	}{
		{"JMN taken", OpJMN, 1, 2, 9},
		{"JMN falls through", OpJMN, 2, 1, 7},
		{"JMZ taken", OpJMZ, 3, 3, 9},
		{"JMZ falls through", OpJMZ, 3, 1, 7},
		{"JMP always", OpJMP, 3, 1, 9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := runImage(t, build(tc.jump, tc.a, tc.b), WithEntryPoint(HeaderSize))
			if c.AC != tc.want {
				t.Errorf("AC = %d; want %d", c.AC, tc.want)
			}
		})
	}
}

func TestTakenJumpSetsPCExactly(t *testing.T) {
	img := buildImage(nil,
		ins(OpNOP, 0),
		ins(OpJMP, codeAddr(0)),
	)
	c := NewCPU(WithEntryPoint(byte(codeAddr(1))))
	if err := c.Load(img); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Step()
	if int(c.PC) != codeAddr(0) {
		t.Errorf("PC = 0x%02X; want 0x%02X", c.PC, codeAddr(0))
	}
}

func TestStepLimit(t *testing.T) {
	img := buildImage(nil, ins(OpJMP, codeAddr(0)))
	c := runImage(t, img, WithMaxSteps(50))
	if c.Reason != HaltStepLimit {
		t.Errorf("Reason = %s; want step limit", c.Reason)
	}
	if c.Steps != 50 {
		t.Errorf("Steps = %d; want 50", c.Steps)
	}
}

func TestLoadValidation(t *testing.T) {
	bad := NewImage()
	bad[1] = 0x00
	if err := NewCPU().Load(bad); !errors.Is(err, ErrBadMagic) {
		t.Errorf("bad magic: got %v; want ErrBadMagic", err)
	}

	if err := NewCPU().Load(make([]byte, ImageSize+1)); !errors.Is(err, ErrImageSize) {
		t.Errorf("oversized: got %v; want ErrImageSize", err)
	}
	if err := NewCPU().Load([]byte{0x03}); !errors.Is(err, ErrImageSize) {
		t.Errorf("truncated header: got %v; want ErrImageSize", err)
	}

	short := append([]byte{}, Magic[:]...)
	short = append(short, OpHLT, 0, 0, 0)
	c := NewCPU(WithEntryPoint(HeaderSize))
	if err := c.Load(short); err != nil {
		t.Fatalf("short image: %v", err)
	}
	if c.Run() != HaltInstruction {
		t.Errorf("short image did not halt")
	}
}

func TestResultScan(t *testing.T) {
	img := buildImage(map[int]byte{0x100: 5, 0x102: 3},
		ins(OpLDA, 0x100),
		ins(OpADD, 0x102),
		ins(OpSTA, 0x108),
		ins(OpHLT, 0),
	)
	res, err := Execute(img)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Accumulator != 8 || res.Reason != HaltInstruction {
		t.Fatalf("got %v", res)
	}
	if !res.Found || res.Address != 0x108 || res.Value != 8 {
		t.Errorf("located %v; want 0x108 = 8", res)
	}
}

func TestResultScanFirstMatchWins(t *testing.T) {
	img := buildImage(map[int]byte{0x100: 0},
		ins(OpLDA, 0x100),
		ins(OpHLT, 0),
	)
	res, err := Execute(img)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// The zero operand byte of the first instruction matches before any data cell.
	if !res.Found || res.Address >= DataOrigin {
		t.Errorf("expected an early code-region match for AC=0, got %v", res)
	}
}

func TestResultScanNotFound(t *testing.T) {
	img := buildImage(map[int]byte{0x100: 0x88, 0x101: 0x77},
		ins(OpLDA, 0x100),
		ins(OpNOT, 0),
		ins(OpHLT, 0),
	)
	res, err := Execute(img)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Accumulator != 0x77 {
		t.Fatalf("AC = 0x%02X; want 0x77", res.Accumulator)
	}
	if res.Found {
		t.Errorf("odd-offset byte must not be reported, got %v", res)
	}
	if !strings.Contains(res.String(), "not found") {
		t.Errorf("String() = %q", res.String())
	}
}

func TestResultAddressMode(t *testing.T) {
	img := buildImage(map[int]byte{0x100: 0xFE, 0x10A: 0x33},
		ins(OpLDA, 0x100),
		ins(OpHLT, 0),
	)
	res, err := Execute(img, WithResultAddress(0x10A))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Found || res.Address != 0x10A || res.Value != 0x33 {
		t.Errorf("got %v; want direct read of 0x10A", res)
	}

	res, _ = Execute(img, WithResultAddress(0x100))
	if res.Signed() != -2 {
		t.Errorf("Signed() = %d; want -2", res.Signed())
	}
}

func TestResetRestoresImage(t *testing.T) {
	img := buildImage(map[int]byte{0x100: 9},
		ins(OpLDA, 0x100),
		ins(OpSTA, 0x102),
		ins(OpHLT, 0),
	)
	c := runImage(t, img)
	if c.Memory[0x102] != 9 {
		t.Fatalf("store did not happen")
	}
	c.Reset()
	if c.Memory[0x102] != 0 || c.AC != 0 || c.PC != 0 || c.Halted {
		t.Errorf("Reset left state behind: AC=%d PC=%d halted=%t mem=%d", c.AC, c.PC, c.Halted, c.Memory[0x102])
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	mem := make([]byte, 20)
	copy(mem, Magic[:])
	if err := Dump(&buf, mem); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	want := "00000000: 03 4e 44 52 00 00 00 00 00 00 00 00 00 00 00 00\n" +
		"00000010: 00 00 00 00\n"
	if buf.String() != want {
		t.Errorf("Dump =\n%s\nwant\n%s", buf.String(), want)
	}
}
