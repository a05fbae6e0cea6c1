package protocol

import (
	"math/rand"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected byte
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: 0x00, // 0xFF - 0 + 1 wraps to zero
		},
		{
			name:     "single byte",
			data:     []byte{0x01},
			expected: 0xFF,
		},
		{
			name:     "multiple bytes",
			data:     []byte{0x01, 0x02, 0x03, 0x04},
			expected: 0xF6,
		},
		{
			name:     "all ones fold to zero",
			data:     []byte{0xFF, 0xFF, 0xFF, 0xFF},
			expected: 0x00,
		},
		{
			name:     "sum of 256 folds to 1",
			data:     []byte{0x80, 0x80},
			expected: 0xFF,
		},
		{
			name:     "sync frame",
			data:     []byte{0xBE, 0x50, 0x00, 0x03, 0x00, 0x00, 0x01},
			expected: 0xED,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Checksum(tt.data)
			if result != tt.expected {
				t.Errorf("Checksum() = 0x%02X, want 0x%02X", result, tt.expected)
			}
		})
	}
}

func TestChecksumComplementsFoldedSum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		data := make([]byte, rng.Intn(64))
		rng.Read(data)

		var sum int
		for _, b := range data {
			sum += int(b)
		}
		folded := sum % 255
		if got := (folded + int(Checksum(data))) % 256; got != 0 {
			t.Fatalf("folded sum 0x%02X + checksum 0x%02X = 0x%02X mod 256, want 0 (data % X)",
				folded, Checksum(data), got, data)
		}

		frame := append(append([]byte{}, data...), Checksum(data))
		if err := VerifyFrame(frame); err != nil && len(frame) >= MinFrameSize {
			t.Fatalf("VerifyFrame() = %v for a freshly built frame", err)
		}
	}
}

func TestChecksumDetectsSingleBitFlip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		data := make([]byte, 1+rng.Intn(32))
		rng.Read(data)
		orig := Checksum(data)

		for j := range data {
			data[j] ^= 0x01
			if Checksum(data) == orig {
				t.Fatalf("flipping bit 0 of byte %d did not change the checksum (data % X)", j, data)
			}
			data[j] ^= 0x01
		}
	}
}

func TestVerifyFrame(t *testing.T) {
	good := Encode(SyncMarker, BuildSyncRequest())
	if err := VerifyFrame(good); err != nil {
		t.Fatalf("VerifyFrame(good) = %v", err)
	}

	bad := append([]byte{}, good...)
	bad[3] ^= 0x10
	err := VerifyFrame(bad)
	if err == nil {
		t.Fatal("VerifyFrame(bad) = nil, want error")
	}
	ce, ok := err.(*ChecksumError)
	if !ok {
		t.Fatalf("error type = %T, want *ChecksumError", err)
	}
	if ce.Got != good[len(good)-1] {
		t.Errorf("Got = 0x%02X, want trailer 0x%02X", ce.Got, good[len(good)-1])
	}

	if err := VerifyFrame([]byte{0xBE}); err == nil {
		t.Error("VerifyFrame(short) = nil, want error")
	}
}

func TestDataCRC(t *testing.T) {
	// CRC-32/IEEE check value
	if got := DataCRC([]byte("123456789")); got != 0xCBF43926 {
		t.Errorf("DataCRC() = 0x%08X, want 0xCBF43926", got)
	}
}

func BenchmarkChecksum(b *testing.B) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Checksum(data)
	}
}
