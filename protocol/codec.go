package protocol

import (
	"fmt"
	"io"
)

// Encode serializes msg to a complete frame.
//
// Frame structure:
//
//	[MARKER][TYPE][PAYLOAD...][CHECKSUM]
func Encode(marker byte, msg Message) []byte {
	frame := make([]byte, 0, MinFrameSize+len(msg.Payload))
	frame = append(frame, marker, byte(msg.Type))
	frame = append(frame, msg.Payload...)
	return append(frame, Checksum(frame))
}

// Decode splits a complete frame into its message. The checksum is not
// verified here; see VerifyFrame.
func Decode(marker byte, frame []byte) (Message, error) {
	if len(frame) < MinFrameSize {
		return Message{}, fmt.Errorf("frame too short: got %d bytes, minimum is %d", len(frame), MinFrameSize)
	}
	if frame[0] != marker {
		return Message{}, fmt.Errorf("invalid sync marker: got 0x%02X, expected 0x%02X", frame[0], marker)
	}

	payload := make([]byte, len(frame)-MinFrameSize)
	copy(payload, frame[2:len(frame)-1])

	return Message{
		Type:    MessageType(frame[1]),
		Payload: payload,
	}, nil
}

// Send encodes msg and writes the whole frame to w. A write failure is
// returned as a *TransportError; there is no retry at this layer.
func Send(w io.Writer, marker byte, msg Message) error {
	frame := Encode(marker, msg)
	if _, err := w.Write(frame); err != nil {
		return &TransportError{Op: "write " + msg.Type.String(), Err: err}
	}
	return nil
}

// SendRaw writes bulk data following an announcing frame.
func SendRaw(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return &TransportError{Op: "write data", Err: err}
	}
	return nil
}
