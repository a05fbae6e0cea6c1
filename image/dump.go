package image

import (
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"
)

// HexLineLength is the number of data bytes per Intel HEX record written.
const HexLineLength = 16

// WriteHex writes data located at addr as Intel HEX.
func WriteHex(w io.Writer, addr uint32, data []byte) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(addr, data); err != nil {
		return err
	}
	return mem.DumpIntelHex(w, HexLineLength)
}

// Save writes data read from addr to path, as Intel HEX when the name ends
// in .hex or .ihex and as a raw binary otherwise.
//
// Example:
//
//	data, _ := sess.ReadFlash(ctx, 0x3C000000, 0x100000)
//	err := image.Save("dump.hex", 0x3C000000, data)
func Save(path string, addr uint32, data []byte) error {
	if !IsHex(path) {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteHex(f, addr, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write Intel HEX: %w", err)
	}
	return f.Close()
}
