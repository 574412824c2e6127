package cpu

import "fmt"

// Result is the observable outcome of a run.
type Result struct {
	Accumulator byte
	PC          byte
	Zero        bool
	Negative    bool
	Reason      HaltReason
	Steps       uint64

	// Found is false when no cell matched in ResultScan mode.
	Found   bool
	Address int
	Value   byte
}

// Signed returns the located value interpreted as a two's complement byte.
func (r Result) Signed() int8 {
	return int8(r.Value)
}

func (r Result) String() string {
	if !r.Found {
		return fmt.Sprintf("AC=0x%02X PC=0x%02X halt=%s result not found in memory", r.Accumulator, r.PC, r.Reason)
	}
	return fmt.Sprintf("AC=0x%02X PC=0x%02X halt=%s result[0x%03X]=0x%02X = %d",
		r.Accumulator, r.PC, r.Reason, r.Address, r.Value, r.Signed())
}

// Result snapshots the registers and locates the result cell.
func (c *CPU) Result() Result {
	r := Result{
		Accumulator: c.AC,
		PC:          c.PC,
		Zero:        c.AC == 0,
		Negative:    c.AC&0x80 != 0,
		Reason:      c.Reason,
		Steps:       c.Steps,
	}

	switch c.resultMode {
	case ResultAddress:
		if c.resultAddress >= 0 && c.resultAddress < MemorySize {
			r.Found = true
			r.Address = c.resultAddress
			r.Value = c.Memory[c.resultAddress]
		}
	default:
		// First match wins, so an accumulator of zero usually lands on the
		// first zero cell rather than on RES.
		for addr := HeaderSize; addr < ImageSize; addr += CellSize {
			if c.Memory[addr] == c.AC {
				r.Found = true
				r.Address = addr
				r.Value = c.Memory[addr]
				break
			}
		}
	}
	return r
}
