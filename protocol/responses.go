package protocol

import (
	"encoding/binary"
	"fmt"
)

// expectParams checks the message kind and returns exactly size parameter bytes.
func expectParams(msg Message, typ MessageType, size int) ([]byte, error) {
	if msg.Type != typ {
		return nil, &UnexpectedMessageError{Want: typ, Got: msg}
	}
	params, err := msg.Params()
	if err != nil {
		return nil, err
	}
	if len(params) != size {
		return nil, fmt.Errorf("invalid parameter length for %s response: got %d bytes, expected %d", typ, len(params), size)
	}
	return params, nil
}

// ParseStatusResponse checks a 6-byte acknowledgement of the given type.
//
// Data format (1 byte):
//
//	[STATUS]
func ParseStatusResponse(msg Message, typ MessageType, op string) error {
	params, err := expectParams(msg, typ, statusParamsSize)
	if err != nil {
		return err
	}
	if params[0] != StatusOK {
		return &StatusError{Operation: op, StatusCode: params[0]}
	}
	return nil
}

// ParseProgrammerInit parses the announcement sent by a freshly started programmer.
//
// Data format (6 bytes):
//
//	[VERSION(2)][MAX_CHUNK(4)]
func ParseProgrammerInit(msg Message) (*ProgrammerInfo, error) {
	params, err := expectParams(msg, ProgrammerInit, programmerInitParamsSize)
	if err != nil {
		return nil, err
	}
	return &ProgrammerInfo{
		Version:      binary.LittleEndian.Uint16(params[0:2]),
		MaxChunkSize: binary.LittleEndian.Uint32(params[2:6]),
	}, nil
}

// ParseBurnAck parses the acknowledgement of burn chunk seq and returns the
// number of bytes the device stored.
//
// Data format (3 bytes, subtype echoes SEQ):
//
//	[STATUS][COUNT(2)]
func ParseBurnAck(msg Message, seq byte) (int, error) {
	params, err := expectParams(msg, FlashBurnData, burnAckParamsSize)
	if err != nil {
		return 0, err
	}
	if msg.Subtype() != seq {
		return 0, fmt.Errorf("burn ack sequence mismatch: got %d, want %d", msg.Subtype(), seq)
	}
	if params[0] != StatusOK {
		return 0, &StatusError{Operation: "burn chunk", StatusCode: params[0]}
	}
	return int(binary.LittleEndian.Uint16(params[1:3])), nil
}

// ParseReadHeader parses the header preceding the raw bytes of a read chunk.
//
// Data format (17 bytes):
//
//	[STATUS][ADDR(4)][LEN(4)][CRC32(4)][RESERVED(4)]
func ParseReadHeader(msg Message) (*ReadHeader, error) {
	params, err := expectParams(msg, FlashCommand, readHeaderParamsSize)
	if err != nil {
		return nil, err
	}
	if msg.Subtype() != SubReadFlash {
		return nil, fmt.Errorf("read header has subtype 0x%02X, expected 0x%02X", msg.Subtype(), SubReadFlash)
	}
	hdr := &ReadHeader{
		Status:  params[0],
		Address: binary.LittleEndian.Uint32(params[1:5]),
		Length:  binary.LittleEndian.Uint32(params[5:9]),
		CRC32:   binary.LittleEndian.Uint32(params[9:13]),
	}
	if hdr.Status != StatusOK {
		return nil, &StatusError{Operation: "read flash", StatusCode: hdr.Status}
	}
	return hdr, nil
}

// ParseMemoryInfo parses the memory info reply.
//
// Data format (4 bytes):
//
//	[STATUS][MANUFACTURER][MEMORY_TYPE][CAPACITY]
//
// CAPACITY is the JEDEC capacity code, log2 of the flash size in bytes.
func ParseMemoryInfo(msg Message) (*MemoryInfo, error) {
	params, err := expectParams(msg, FlashCommand, memoryInfoParamsSize)
	if err != nil {
		return nil, err
	}
	if msg.Subtype() != SubMemoryInfo {
		return nil, fmt.Errorf("memory info reply has subtype 0x%02X, expected 0x%02X", msg.Subtype(), SubMemoryInfo)
	}
	if params[0] != StatusOK {
		return nil, &StatusError{Operation: "memory info", StatusCode: params[0]}
	}
	capacity := params[3]
	if capacity >= 64 {
		return nil, fmt.Errorf("invalid flash capacity code 0x%02X", capacity)
	}
	return &MemoryInfo{
		ManufacturerID: params[1],
		MemoryType:     params[2],
		CapacityCode:   capacity,
		Size:           uint64(1) << capacity,
	}, nil
}
