package image

import (
	"fmt"
	"strings"
)

// Image is a firmware image as a list of flash segments.
type Image struct {
	// Segments are ordered by address and do not overlap
	Segments []Segment
}

// Segment is a contiguous block of bytes to be written at Address.
type Segment struct {
	// Address is the flash address of the first byte
	Address uint32

	// Data is the segment contents
	Data []byte
}

// End returns the first address past the segment.
func (s Segment) End() uint64 {
	return uint64(s.Address) + uint64(len(s.Data))
}

// Size returns the total number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

// Validate checks that the image has data and that its segments are
// non-empty, ascending, non-overlapping and inside the 32-bit address space.
func (img *Image) Validate() error {
	if len(img.Segments) == 0 {
		return fmt.Errorf("image has no segments")
	}
	for i, s := range img.Segments {
		if len(s.Data) == 0 {
			return fmt.Errorf("segment %d at 0x%08X is empty", i, s.Address)
		}
		if s.End() > 1<<32 {
			return fmt.Errorf("segment %d at 0x%08X exceeds the 32-bit address space", i, s.Address)
		}
		if i > 0 && uint64(s.Address) < img.Segments[i-1].End() {
			return fmt.Errorf("segment %d at 0x%08X overlaps or precedes segment %d", i, s.Address, i-1)
		}
	}
	return nil
}

func (img *Image) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d segments, %d bytes", len(img.Segments), img.Size())
	for _, s := range img.Segments {
		fmt.Fprintf(&b, "\n  0x%08X-0x%08X (%d bytes)", s.Address, s.End(), len(s.Data))
	}
	return b.String()
}
