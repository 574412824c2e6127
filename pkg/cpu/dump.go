package cpu

import (
	"fmt"
	"io"
)

const dumpLineSize = 16

// Dump writes mem as rows of 16 hex bytes prefixed with the row offset.
func Dump(w io.Writer, mem []byte) error {
	for off := 0; off < len(mem); off += dumpLineSize {
		if _, err := fmt.Fprintf(w, "%08x:", off); err != nil {
			return err
		}
		for i := off; i < off+dumpLineSize && i < len(mem); i++ {
			if _, err := fmt.Fprintf(w, " %02x", mem[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
