package protocol

import (
	"errors"
	"fmt"
	"os"
)

// StatusError represents a non-zero status returned by the device.
type StatusError struct {
	// Operation is the command that failed
	Operation string

	// StatusCode is the status byte from the acknowledgement
	StatusCode byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, getStatusName(e.StatusCode), e.StatusCode)
}

// IsStatusError returns true if the error is a StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// ChecksumError reports a frame whose trailer does not match its contents.
type ChecksumError struct {
	Frame []byte
	Got   byte
	Want  byte
}

func (e *ChecksumError) Error() string {
	if len(e.Frame) < MinFrameSize {
		return fmt.Sprintf("bad checksum: frame of %d bytes is shorter than %d", len(e.Frame), MinFrameSize)
	}
	return fmt.Sprintf("bad checksum: got 0x%02X, want 0x%02X in frame [% X]", e.Got, e.Want, e.Frame)
}

// UnknownFrameLengthError reports a (type, subtype) pair missing from the
// length table. The frame reader degrades to a MinFrameSize frame.
type UnknownFrameLengthError struct {
	Type    MessageType
	Subtype byte
}

func (e *UnknownFrameLengthError) Error() string {
	return fmt.Sprintf("unknown frame length for 0x%02X/0x%02X", byte(e.Type), e.Subtype)
}

// UnexpectedMessageError reports a well-formed frame of the wrong kind.
type UnexpectedMessageError struct {
	Want MessageType
	Got  Message
}

func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf("unexpected message: want %s, got %s", e.Want, e.Got)
}

// TransportError wraps a fatal fault of the underlying byte stream.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a read timeout. Timeouts are benign on
// this link and the frame reader retries them.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// getStatusName returns a human-readable name for a status code.
func getStatusName(code byte) string {
	switch code {
	case StatusOK:
		return "success"
	case StatusBadChecksum:
		return "checksum mismatch"
	case StatusBadAddress:
		return "invalid address"
	case StatusBadLength:
		return "invalid length"
	case StatusFlashError:
		return "flash error"
	case StatusUnsupported:
		return "unsupported command"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", code)
	}
}
