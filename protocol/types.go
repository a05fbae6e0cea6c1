package protocol

import "fmt"

// MessageType is the one-byte wire tag following the sync marker.
type MessageType byte

// Message types understood by the mask ROM bootloader and the programmer agent.
const (
	Sync              MessageType = 0x50
	StartProgrammer   MessageType = 0x53
	ProgrammerRunning MessageType = 0x54
	ProgrammerStart   MessageType = 0x55
	ProgrammerInit    MessageType = 0x60
	EraseBurnStart    MessageType = 0x61
	FlashBurnData     MessageType = 0x62
	FlashCommand      MessageType = 0x65
)

// MessageTypes lists every known message type.
var MessageTypes = []MessageType{
	Sync,
	StartProgrammer,
	ProgrammerRunning,
	ProgrammerStart,
	ProgrammerInit,
	EraseBurnStart,
	FlashBurnData,
	FlashCommand,
}

func (t MessageType) String() string {
	switch t {
	case Sync:
		return "Sync"
	case StartProgrammer:
		return "StartProgrammer"
	case ProgrammerRunning:
		return "ProgrammerRunning"
	case ProgrammerStart:
		return "ProgrammerStart"
	case ProgrammerInit:
		return "ProgrammerInit"
	case EraseBurnStart:
		return "EraseBurnStart"
	case FlashBurnData:
		return "FlashBurnData"
	case FlashCommand:
		return "FlashCommand"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", byte(t))
	}
}

// Known reports whether t is one of the defined message types.
func (t MessageType) Known() bool {
	for _, k := range MessageTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Message is the decoded form of a frame.
//
// Payload holds every byte between the type tag and the checksum trailer,
// starting with the subtype byte. Most messages lay the payload out as
//
//	[SUBTYPE][PARAM_LEN][PARAMS...]
type Message struct {
	Type    MessageType
	Payload []byte
}

// Subtype returns the disambiguating byte following the type tag, or 0 for
// an empty payload.
func (m Message) Subtype() byte {
	if len(m.Payload) == 0 {
		return 0
	}
	return m.Payload[0]
}

// Params returns the parameter bytes announced by the PARAM_LEN byte.
func (m Message) Params() ([]byte, error) {
	if len(m.Payload) < paramsOffset {
		return nil, fmt.Errorf("%s payload too short: got %d bytes, minimum is %d", m.Type, len(m.Payload), paramsOffset)
	}
	n := int(m.Payload[1])
	if len(m.Payload)-paramsOffset < n {
		return nil, fmt.Errorf("%s announces %d parameter bytes, only %d present", m.Type, n, len(m.Payload)-paramsOffset)
	}
	return m.Payload[paramsOffset : paramsOffset+n], nil
}

func (m Message) String() string {
	return fmt.Sprintf("%s[% X]", m.Type, m.Payload)
}

// ProgrammerInfo is announced by the programmer agent once it owns the link.
type ProgrammerInfo struct {
	// Version is the agent version
	Version uint16

	// MaxChunkSize is the largest transfer the agent buffers at once
	MaxChunkSize uint32
}

// MemoryInfo summarises the flash layout reported by the programmer.
type MemoryInfo struct {
	// ManufacturerID is the JEDEC manufacturer byte of the flash part
	ManufacturerID byte

	// MemoryType is the JEDEC memory type byte
	MemoryType byte

	// CapacityCode is the JEDEC capacity byte (log2 of the size in bytes)
	CapacityCode byte

	// Size is the flash size in bytes
	Size uint64
}

func (mi MemoryInfo) String() string {
	return fmt.Sprintf("flash mfr=0x%02X type=0x%02X size=%d KiB", mi.ManufacturerID, mi.MemoryType, mi.Size/1024)
}

// ReadHeader precedes the raw bytes of one read chunk.
type ReadHeader struct {
	Status  byte
	Address uint32
	Length  uint32
	CRC32   uint32
}
