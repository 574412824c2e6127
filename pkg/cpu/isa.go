package cpu

// Opcodes of the accumulator machine. Every instruction occupies four bytes:
// opcode, zero, operand cell index, zero.
const (
	OpNOP byte = 0x00
	OpSTA byte = 0x10
	OpLDA byte = 0x20
	OpADD byte = 0x30
	OpSUB byte = 0x31
	OpOR  byte = 0x40
	OpAND byte = 0x50
	OpNOT byte = 0x60
	OpJMP byte = 0x80
	OpJMN byte = 0x90
	OpJMZ byte = 0xA0
	OpHLT byte = 0xF0
)

const (
	// ImageSize is the exact size of an assembled binary image.
	ImageSize = 512
	// HeaderSize is the length of the magic signature at the start of an image.
	HeaderSize = 4
	// MemorySize leaves headroom past the image so that the largest operand
	// address (255*2 + HeaderSize) and pc+2 for any 8-bit pc stay addressable.
	MemorySize = ImageSize + HeaderSize

	InstructionSize = 4
	CellSize        = 2

	// DataOrigin is where the assembler starts laying out data cells.
	DataOrigin = 0x100
	// LegacyResultAddress is the address the original toolchain pre-reserved
	// for the RES symbol.
	LegacyResultAddress = DataOrigin + 4
)

// Magic is the signature every image starts with.
var Magic = [HeaderSize]byte{0x03, 0x4E, 0x44, 0x52}

var mnemonics = map[byte]string{
	OpNOP: "NOP",
	OpSTA: "STA",
	OpLDA: "LDA",
	OpADD: "ADD",
	OpSUB: "SUB",
	OpOR:  "OR",
	OpAND: "AND",
	OpNOT: "NOT",
	OpJMP: "JMP",
	OpJMN: "JMN",
	OpJMZ: "JMZ",
	OpHLT: "HLT",
}

// Mnemonic returns the assembly name of opcode.
func Mnemonic(opcode byte) (string, bool) {
	m, ok := mnemonics[opcode]
	return m, ok
}

// HasOperand reports whether the instruction reads its operand byte.
func HasOperand(opcode byte) bool {
	switch opcode {
	case OpNOP, OpNOT, OpHLT:
		return false
	}
	_, ok := mnemonics[opcode]
	return ok
}

// IsJump reports whether opcode transfers control.
func IsJump(opcode byte) bool {
	return opcode == OpJMP || opcode == OpJMN || opcode == OpJMZ
}

// EncodeInstruction lays out one instruction tuple.
func EncodeInstruction(opcode, cell byte) [InstructionSize]byte {
	return [InstructionSize]byte{opcode, 0, cell, 0}
}

// CellIndex converts an absolute byte address into the operand byte that
// refers to it.
func CellIndex(addr int) byte {
	return byte((addr - HeaderSize) / CellSize)
}

// CellAddress is the inverse of CellIndex.
func CellAddress(cell byte) int {
	return int(cell)*CellSize + HeaderSize
}

// NewImage returns a zeroed image carrying the magic header.
func NewImage() []byte {
	img := make([]byte, ImageSize)
	copy(img, Magic[:])
	return img
}
