package asm

import (
	"fmt"
	"strings"

	"neander/pkg/cpu"
)

// Instruction is one decoded tuple of an image.
type Instruction struct {
	Address  int
	Opcode   byte
	Operand  byte
	Mnemonic string
	Target   int    // absolute address the operand refers to
	Symbol   string // name bound to Target, if any
}

func (ins Instruction) String() string {
	raw := fmt.Sprintf("0x%03X: %02x 00 %02x 00  ", ins.Address, ins.Opcode, ins.Operand)
	if ins.Mnemonic == "" {
		return raw + fmt.Sprintf("DB 0x%02X", ins.Opcode)
	}
	if !cpu.HasOperand(ins.Opcode) {
		return raw + ins.Mnemonic
	}
	if ins.Symbol != "" {
		return raw + fmt.Sprintf("%s %s", ins.Mnemonic, ins.Symbol)
	}
	return raw + fmt.Sprintf("%s [0x%03X]", ins.Mnemonic, ins.Target)
}

// Disassemble decodes the code region of image, from the first slot after
// the header up to the last non-empty tuple before the data origin. Symbols
// are used to name operand targets; labels win for jumps and data cells for
// everything else.
func Disassemble(image []byte, symbols []Symbol) []Instruction {
	labels := make(map[int]string)
	cells := make(map[int]string)
	for _, s := range symbols {
		m := cells
		if s.Label {
			m = labels
		}
		if _, ok := m[s.Address]; !ok {
			m[s.Address] = s.Name
		}
	}

	end := cpu.HeaderSize
	for addr := cpu.HeaderSize; addr+cpu.InstructionSize <= len(image) && addr+cpu.InstructionSize <= cpu.DataOrigin; addr += cpu.InstructionSize {
		if image[addr] != 0 || image[addr+2] != 0 {
			end = addr + cpu.InstructionSize
		}
	}

	var out []Instruction
	for addr := cpu.HeaderSize; addr < end; addr += cpu.InstructionSize {
		ins := Instruction{
			Address: addr,
			Opcode:  image[addr],
			Operand: image[addr+2],
		}
		ins.Target = cpu.CellAddress(ins.Operand)
		if m, ok := cpu.Mnemonic(ins.Opcode); ok {
			ins.Mnemonic = m
		}
		if cpu.IsJump(ins.Opcode) {
			ins.Symbol = labels[ins.Target]
		} else {
			ins.Symbol = cells[ins.Target]
		}
		out = append(out, ins)
	}
	return out
}

// FormatListing joins a disassembly into text, one instruction per line.
func FormatListing(prog []Instruction) string {
	var sb strings.Builder
	for _, ins := range prog {
		sb.WriteString(ins.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
