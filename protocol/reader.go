package protocol

import (
	"context"
	"io"
)

// DefaultReadBufferSize is the size of the Reader's internal buffer.
const DefaultReadBufferSize = 256

// readState is the position of the frame accumulator.
type readState int

const (
	stateScanningForSync readState = iota
	stateAccumulatingHeader
	stateAccumulatingPayload
	stateComplete
)

// Reader pulls frames and raw bulk data off a byte stream.
//
// The underlying io.Reader is expected to block until data arrives or its
// own read timeout expires. A read returning no bytes, or an error for which
// IsTimeout is true, is retried; any other error aborts with a
// *TransportError. The context is checked between reads, so a deadline
// takes effect at the granularity of the transport read timeout.
type Reader struct {
	src    io.Reader
	marker byte
	policy ChecksumPolicy

	// OnChecksumMismatch is called for every bad frame when the policy is
	// ChecksumLenient (optional).
	OnChecksumMismatch func(*ChecksumError)

	// OnUnknownLength is called when a frame header is missing from the
	// length table (optional).
	OnUnknownLength func(*UnknownFrameLengthError)

	buf        []byte
	start, end int
	discarded  int
}

// NewReader creates a Reader over src for frames starting with marker.
func NewReader(src io.Reader, marker byte, policy ChecksumPolicy) *Reader {
	return &Reader{
		src:    src,
		marker: marker,
		policy: policy,
		buf:    make([]byte, DefaultReadBufferSize),
	}
}

// Discarded returns the number of non-marker bytes dropped while scanning
// for a frame start since the last call, and resets the counter.
func (r *Reader) Discarded() int {
	n := r.discarded
	r.discarded = 0
	return n
}

// Buffered returns the number of bytes read from the stream but not yet consumed.
func (r *Reader) Buffered() int {
	return r.end - r.start
}

// fill reads from the source until at least one byte is buffered.
func (r *Reader) fill(ctx context.Context) error {
	for r.start == r.end {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.start, r.end = 0, n
		}
		if err != nil && n == 0 {
			if IsTimeout(err) {
				continue
			}
			return &TransportError{Op: "read", Err: err}
		}
	}
	return nil
}

func (r *Reader) readByte(ctx context.Context) (byte, error) {
	if err := r.fill(ctx); err != nil {
		return 0, err
	}
	b := r.buf[r.start]
	r.start++
	return b, nil
}

// ReadMessage reads one frame and decodes it.
//
// Bytes preceding the sync marker are discarded. Once three bytes are
// accumulated the frame length is resolved with FrameLength and the
// remaining bytes are collected. Under ChecksumStrict a bad checksum is
// returned as a *ChecksumError; under ChecksumLenient it is reported through
// OnChecksumMismatch and the message is returned.
func (r *Reader) ReadMessage(ctx context.Context) (Message, error) {
	frame, err := r.ReadFrame(ctx)
	if err != nil {
		return Message{}, err
	}

	if err := VerifyFrame(frame); err != nil {
		if r.policy == ChecksumStrict {
			return Message{}, err
		}
		if r.OnChecksumMismatch != nil {
			r.OnChecksumMismatch(err.(*ChecksumError))
		}
	}

	return Decode(r.marker, frame)
}

// ReadFrame accumulates one raw frame without verifying its checksum.
func (r *Reader) ReadFrame(ctx context.Context) ([]byte, error) {
	state := stateScanningForSync
	frame := make([]byte, 0, 32)
	want := MinFrameSize

	for state != stateComplete {
		b, err := r.readByte(ctx)
		if err != nil {
			return nil, err
		}

		switch state {
		case stateScanningForSync:
			if b != r.marker {
				r.discarded++
				continue
			}
			frame = append(frame, b)
			state = stateAccumulatingHeader

		case stateAccumulatingHeader:
			frame = append(frame, b)
			if len(frame) < HeaderSize {
				continue
			}
			n, ok := FrameLength(MessageType(frame[1]), frame[2])
			if !ok && r.OnUnknownLength != nil {
				r.OnUnknownLength(&UnknownFrameLengthError{Type: MessageType(frame[1]), Subtype: frame[2]})
			}
			want = n
			if len(frame) >= want {
				state = stateComplete
			} else {
				state = stateAccumulatingPayload
			}

		case stateAccumulatingPayload:
			frame = append(frame, b)
			if len(frame) == want {
				state = stateComplete
			}
		}
	}

	return frame, nil
}

// ReadRaw fills p with bulk data following an announcing frame.
func (r *Reader) ReadRaw(ctx context.Context, p []byte) error {
	for off := 0; off < len(p); {
		if err := r.fill(ctx); err != nil {
			return err
		}
		n := copy(p[off:], r.buf[r.start:r.end])
		r.start += n
		off += n
	}
	return nil
}
