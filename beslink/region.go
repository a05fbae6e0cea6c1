package beslink

import "fmt"

// Region is a contiguous range of flash.
type Region struct {
	Address uint32
	Length  int
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return uint64(r.Address) + uint64(r.Length)
}

// Validate rejects empty regions and regions wrapping the address space.
func (r Region) Validate() error {
	if r.Length <= 0 {
		return fmt.Errorf("region length must be positive, got %d", r.Length)
	}
	if r.End() > 1<<32 {
		return fmt.Errorf("region 0x%08X+0x%X exceeds the 32-bit address space", r.Address, r.Length)
	}
	return nil
}

// Chunks splits the region into ascending, contiguous chunks of at most size
// bytes. Only the last chunk may be shorter.
func (r Region) Chunks(size int) []Region {
	if size <= 0 || r.Length <= 0 {
		return nil
	}
	chunks := make([]Region, 0, (r.Length+size-1)/size)
	for off := 0; off < r.Length; off += size {
		n := size
		if r.Length-off < n {
			n = r.Length - off
		}
		chunks = append(chunks, Region{Address: r.Address + uint32(off), Length: n})
	}
	return chunks
}

func (r Region) String() string {
	return fmt.Sprintf("0x%08X-0x%08X", r.Address, r.End())
}
