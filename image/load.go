package image

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Load reads a firmware image from path.
//
// Files ending in .hex or .ihex are parsed as Intel HEX and carry their own
// addresses; base is ignored for them. Any other file is a raw binary placed
// at base.
//
// Example:
//
//	img, err := image.Load("best2300.bin", 0x3C000000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(img)
func Load(path string, base uint32) (*Image, error) {
	if IsHex(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer func() { _ = f.Close() }()

		return ParseHex(f)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return FromBinary(base, data)
}

// IsHex reports whether path names an Intel HEX file.
func IsHex(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		return true
	}
	return false
}

// FromBinary wraps raw data as a single segment at base.
func FromBinary(base uint32, data []byte) (*Image, error) {
	img := &Image{Segments: []Segment{{Address: base, Data: data}}}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// ParseHex parses an Intel HEX stream into an image. Adjacent records are
// merged into one segment.
//
// Example:
//
//	img, err := image.ParseHex(strings.NewReader(hexText))
func ParseHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("failed to parse Intel HEX: %w", err)
	}

	segs := mem.GetDataSegments()
	sort.Slice(segs, func(i, j int) bool { return segs[i].Address < segs[j].Address })

	img := &Image{Segments: make([]Segment, 0, len(segs))}
	for _, s := range segs {
		img.Segments = append(img.Segments, Segment{Address: s.Address, Data: s.Data})
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}
