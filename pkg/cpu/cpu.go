package cpu

import (
	"bytes"
	"errors"
	"fmt"
	"log"
)

var (
	ErrBadMagic  = errors.New("invalid image header")
	ErrImageSize = errors.New("invalid image size")
)

// HaltReason says why Run returned.
type HaltReason int

const (
	Running HaltReason = iota
	HaltInstruction
	HaltStepLimit
)

func (h HaltReason) String() string {
	switch h {
	case Running:
		return "running"
	case HaltInstruction:
		return "HLT"
	case HaltStepLimit:
		return "step limit"
	default:
		return fmt.Sprintf("HaltReason(%d)", int(h))
	}
}

// ResultMode selects how the result cell is located after the machine halts.
type ResultMode int

const (
	// ResultScan reports the first data cell whose byte equals the final
	// accumulator.
	ResultScan ResultMode = iota
	// ResultAddress reads the cell at a fixed address.
	ResultAddress
)

// CPU is the 8-bit accumulator machine. It owns its memory; nothing is shared
// between instances.
type CPU struct {
	AC byte
	PC byte

	// Z and N are recomputed from AC at the start of every fetch.
	Z bool
	N bool

	Halted bool
	Reason HaltReason
	Steps  uint64

	Memory [MemorySize]byte

	image         []byte
	entry         byte
	maxSteps      uint64
	resultMode    ResultMode
	resultAddress int
	logger        *log.Logger
}

// Option configures a CPU.
type Option func(*CPU)

// WithMaxSteps bounds Run. Zero, the default, means no limit: an image
// without a reachable HLT then runs forever.
func WithMaxSteps(n uint64) Option {
	return func(c *CPU) { c.maxSteps = n }
}

func WithEntryPoint(pc byte) Option {
	return func(c *CPU) { c.entry = pc }
}

func WithResultMode(mode ResultMode) Option {
	return func(c *CPU) { c.resultMode = mode }
}

// WithResultAddress selects ResultAddress mode reading the cell at addr.
func WithResultAddress(addr int) Option {
	return func(c *CPU) {
		c.resultMode = ResultAddress
		c.resultAddress = addr
	}
}

// WithLogger traces every executed instruction.
func WithLogger(l *log.Logger) Option {
	return func(c *CPU) { c.logger = l }
}

func NewCPU(opts ...Option) *CPU {
	c := &CPU{resultAddress: LegacyResultAddress}
	for _, opt := range opts {
		opt(c)
	}
	c.PC = c.entry
	return c
}

func (c *CPU) tracef(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Load validates image and copies it into memory. A short image is zero
// filled up to ImageSize; a longer one is rejected.
func (c *CPU) Load(image []byte) error {
	if len(image) < HeaderSize || len(image) > ImageSize {
		return fmt.Errorf("%w: %d bytes (want at most %d)", ErrImageSize, len(image), ImageSize)
	}
	if !bytes.Equal(image[:HeaderSize], Magic[:]) {
		return fmt.Errorf("%w: % x", ErrBadMagic, image[:HeaderSize])
	}
	c.image = append(c.image[:0], image...)
	c.Reset()
	return nil
}

// Reset restores the loaded image and clears the registers.
func (c *CPU) Reset() {
	c.Memory = [MemorySize]byte{}
	copy(c.Memory[:], c.image)
	c.AC = 0
	c.PC = c.entry
	c.Z = false
	c.N = false
	c.Halted = false
	c.Reason = Running
	c.Steps = 0
}

// Step fetches, decodes and executes one instruction.
func (c *CPU) Step() {
	if c.Halted {
		return
	}

	c.Z = c.AC == 0
	c.N = c.AC&0x80 != 0

	opcode := c.Memory[c.PC]
	addr := CellAddress(c.Memory[int(c.PC)+2])
	c.Steps++

	if c.logger != nil {
		name, _ := Mnemonic(opcode)
		c.tracef("pc=0x%02X op=0x%02X %-3s addr=0x%03X ac=0x%02X z=%t n=%t", c.PC, opcode, name, addr, c.AC, c.Z, c.N)
	}

	switch opcode {
	case OpHLT:
		c.Halted = true
		c.Reason = HaltInstruction
		return

	case OpSTA:
		c.Memory[addr] = c.AC

	case OpLDA:
		c.AC = c.Memory[addr]

	case OpADD:
		c.AC += c.Memory[addr]

	case OpSUB:
		c.AC -= c.Memory[addr]

	case OpOR:
		c.AC |= c.Memory[addr]

	case OpAND:
		c.AC &= c.Memory[addr]

	case OpNOT:
		c.AC = ^c.AC

	case OpJMP:
		c.PC = byte(addr)
		return

	case OpJMN:
		if c.N {
			c.PC = byte(addr)
			return
		}

	case OpJMZ:
		if c.Z {
			c.PC = byte(addr)
			return
		}

	default:
		// NOP and unassigned opcodes.
	}

	c.PC += InstructionSize
}

// Run executes until HLT, or until the configured step limit is reached.
func (c *CPU) Run() HaltReason {
	for !c.Halted {
		if c.maxSteps > 0 && c.Steps >= c.maxSteps {
			c.Reason = HaltStepLimit
			return c.Reason
		}
		c.Step()
	}
	return c.Reason
}

// Execute loads image into a fresh CPU, runs it and reports the outcome.
func Execute(image []byte, opts ...Option) (*Result, error) {
	c := NewCPU(opts...)
	if err := c.Load(image); err != nil {
		return nil, err
	}
	c.Run()
	res := c.Result()
	return &res, nil
}
