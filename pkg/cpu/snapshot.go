package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"neander/pkg/utils"
)

// snapshotState is the JSON-serialisable part of a snapshot.
type snapshotState struct {
	AC     byte   `json:"ac"`
	PC     byte   `json:"pc"`
	Z      bool   `json:"z"`
	N      bool   `json:"n"`
	Halted bool   `json:"halted"`
	Reason string `json:"reason"`
	Steps  uint64 `json:"steps"`
}

// SnapshotToBytes serialises registers and memory into an in-memory ZIP
// archive holding state.json and memory.bin.
func (c *CPU) SnapshotToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := snapshotState{
		AC:     c.AC,
		PC:     c.PC,
		Z:      c.Z,
		N:      c.N,
		Halted: c.Halted,
		Reason: c.Reason.String(),
		Steps:  c.Steps,
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	if err := writeZipEntry(zw, "state.json", jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "memory.bin", c.Memory[:]); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes applies a snapshot produced by SnapshotToBytes. The
// restored memory also becomes the image that Reset returns to.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "state.json")
	if err != nil {
		return err
	}
	var state snapshotState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}
	memData, err := readZipEntry(fileMap, "memory.bin")
	if err != nil {
		return err
	}

	c.Memory = [MemorySize]byte{}
	copy(c.Memory[:], memData)
	c.image = append(c.image[:0], c.Memory[:ImageSize]...)

	c.AC = state.AC
	c.PC = state.PC
	c.Z = state.Z
	c.N = state.N
	c.Halted = state.Halted
	c.Steps = state.Steps
	c.Reason = parseHaltReason(state.Reason)
	return nil
}

// SnapshotToFile writes the snapshot archive to path.
func (c *CPU) SnapshotToFile(path string) error {
	data, err := c.SnapshotToBytes()
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0o644)
}

// RestoreFromFile reads a snapshot archive from path.
func (c *CPU) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.RestoreFromBytes(data)
}

func parseHaltReason(s string) HaltReason {
	for _, h := range []HaltReason{HaltInstruction, HaltStepLimit} {
		if h.String() == s {
			return h
		}
	}
	return Running
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
