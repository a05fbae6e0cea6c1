package protocol

import "hash/crc32"

// Checksum algorithm constants.
const (
	// checksumModulus folds the running byte sum
	checksumModulus = 0xFF

	// checksumTarget is the value the folded sum is subtracted from
	checksumTarget = 0xFF
)

// Checksum computes the one-byte frame trailer over data.
//
// All bytes are summed modulo 255 and the result is 0xFF - sum + 1 with
// 8-bit wrapping, so a folded sum of zero yields 0x00. The sum detects
// single-byte line noise only.
func Checksum(data []byte) byte {
	var sum uint32
	for _, b := range data {
		sum = (sum + uint32(b)) % checksumModulus
	}
	return byte(checksumTarget - sum + 1)
}

// VerifyFrame compares the trailing byte of frame with the checksum of the
// bytes preceding it.
func VerifyFrame(frame []byte) error {
	if len(frame) < MinFrameSize {
		return &ChecksumError{Frame: frame}
	}
	want := Checksum(frame[:len(frame)-1])
	got := frame[len(frame)-1]
	if got != want {
		return &ChecksumError{Frame: frame, Got: got, Want: want}
	}
	return nil
}

// DataCRC computes the CRC-32 (IEEE) carried with bulk transfers: the
// programmer blob, burn chunks and read chunks.
func DataCRC(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
