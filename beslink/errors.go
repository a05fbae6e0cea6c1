package beslink

import (
	"errors"
	"fmt"
	"time"
)

// ErrProgrammerNotRunning is returned by flash and memory operations issued
// before the programmer has been loaded and started.
var ErrProgrammerNotRunning = errors.New("programmer is not running: call SyncAndLoadProgrammer first")

// SyncTimeoutError indicates that the boot ROM never answered the handshake.
type SyncTimeoutError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *SyncTimeoutError) Error() string {
	return fmt.Sprintf("no sync reply after %d attempts in %s: is the chip in boot mode?",
		e.Attempts, e.Elapsed.Round(time.Millisecond))
}

// TransferError wraps a failure of one step of a flash transfer.
type TransferError struct {
	// Op is the failing step, e.g. "burn", "read" or "erase"
	Op string

	// Address is the flash address of the failing chunk
	Address uint32

	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s at 0x%08X: %v", e.Op, e.Address, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ChecksumMismatchError indicates that read data does not match the CRC32
// announced in its header.
type ChecksumMismatchError struct {
	Address  uint32
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("crc32 mismatch for chunk at 0x%08X: expected 0x%08X, got 0x%08X",
		e.Address, e.Expected, e.Actual)
}

// VerificationError indicates that read-back data differs from what was burned.
type VerificationError struct {
	// Address is the first differing flash address
	Address uint32

	Expected byte
	Actual   byte
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed at 0x%08X: expected 0x%02X, got 0x%02X",
		e.Address, e.Expected, e.Actual)
}
