package protocol

import "fmt"

// ChecksumPolicy selects how the frame reader treats a bad frame checksum.
type ChecksumPolicy int

const (
	// ChecksumLenient reports mismatches through Reader.OnChecksumMismatch
	// and keeps the frame. This matches the vendor tool, which tolerates a
	// noisy link.
	ChecksumLenient ChecksumPolicy = iota

	// ChecksumStrict rejects mismatching frames with a *ChecksumError.
	ChecksumStrict
)

func (p ChecksumPolicy) String() string {
	switch p {
	case ChecksumLenient:
		return "lenient"
	case ChecksumStrict:
		return "strict"
	default:
		return fmt.Sprintf("ChecksumPolicy(%d)", int(p))
	}
}

// Params holds the link-wide protocol constants of one session.
type Params struct {
	// SyncMarker is the leading byte of every frame
	SyncMarker byte

	// InitialBaudRate is the rate the handshake runs at
	InitialBaudRate int

	// ProgrammingBaudRate is the rate switched to once the programmer runs
	ProgrammingBaudRate int

	// MaxChunkSize bounds every flash read/write transfer
	MaxChunkSize int
}

// DefaultParams returns the parameters of the BES2300 bootloader.
func DefaultParams() Params {
	return Params{
		SyncMarker:          SyncMarker,
		InitialBaudRate:     DefaultInitialBaudRate,
		ProgrammingBaudRate: ProgrammingBaudRate,
		MaxChunkSize:        MaxChunkSize,
	}
}

// Validate checks the parameters for values the wire format cannot carry.
func (p Params) Validate() error {
	if p.InitialBaudRate <= 0 {
		return fmt.Errorf("initial baud rate must be positive, got %d", p.InitialBaudRate)
	}
	if p.ProgrammingBaudRate <= 0 {
		return fmt.Errorf("programming baud rate must be positive, got %d", p.ProgrammingBaudRate)
	}
	// The burn acknowledgement echoes the chunk length in 16 bits.
	if p.MaxChunkSize <= 0 || p.MaxChunkSize > 0xFFFF {
		return fmt.Errorf("max chunk size must be in 1..65535, got %d", p.MaxChunkSize)
	}
	return nil
}
