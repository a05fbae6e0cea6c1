package beslink

import (
	"strings"
	"testing"
)

func TestRegionChunks(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		size   int
		want   []Region
	}{
		{
			name:   "two full chunks",
			region: Region{Address: 0, Length: 0x10000},
			size:   0x8000,
			want:   []Region{{0, 0x8000}, {0x8000, 0x8000}},
		},
		{
			name:   "short tail",
			region: Region{Address: 0x3C000000, Length: 0x8001},
			size:   0x8000,
			want:   []Region{{0x3C000000, 0x8000}, {0x3C008000, 1}},
		},
		{
			name:   "smaller than one chunk",
			region: Region{Address: 0x100, Length: 16},
			size:   0x8000,
			want:   []Region{{0x100, 16}},
		},
		{
			name:   "empty region",
			region: Region{Address: 0x100, Length: 0},
			size:   0x8000,
			want:   nil,
		},
		{
			name:   "invalid chunk size",
			region: Region{Address: 0, Length: 10},
			size:   0,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.region.Chunks(tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("Chunks() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRegionChunksCoverRegion(t *testing.T) {
	region := Region{Address: 0x3C001234, Length: 100003}
	next := uint64(region.Address)
	total := 0
	for _, c := range region.Chunks(4096) {
		if uint64(c.Address) != next {
			t.Fatalf("chunk at 0x%08X, want 0x%08X", c.Address, next)
		}
		if c.Length <= 0 || c.Length > 4096 {
			t.Fatalf("chunk length %d out of range", c.Length)
		}
		next = c.End()
		total += c.Length
	}
	if total != region.Length {
		t.Errorf("chunks cover %d bytes, want %d", total, region.Length)
	}
}

func TestRegionValidate(t *testing.T) {
	if err := (Region{Address: 0x3C000000, Length: 0x1000}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (Region{Address: 0, Length: 0}).Validate(); err == nil || !strings.Contains(err.Error(), "must be positive") {
		t.Errorf("empty region: error = %v", err)
	}
	if err := (Region{Address: 0xFFFFFF00, Length: 0x200}).Validate(); err == nil || !strings.Contains(err.Error(), "address space") {
		t.Errorf("wrapping region: error = %v", err)
	}
}
