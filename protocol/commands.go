package protocol

import (
	"encoding/binary"
	"fmt"
)

// newRequest lays out a request payload as [SUBTYPE][PARAM_LEN][PARAMS...].
func newRequest(typ MessageType, sub byte, params []byte) Message {
	payload := make([]byte, 0, paramsOffset+len(params))
	payload = append(payload, sub, byte(len(params)))
	payload = append(payload, params...)
	return Message{Type: typ, Payload: payload}
}

// putUint32s encodes values little-endian, back to back.
func putUint32s(values ...uint32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return b
}

// checkRange rejects empty regions and regions wrapping the 32-bit address space.
func checkRange(addr uint32, size int) error {
	if size <= 0 {
		return fmt.Errorf("length must be positive, got %d", size)
	}
	if uint64(addr)+uint64(size) > 1<<32 {
		return fmt.Errorf("region 0x%08X+0x%X exceeds the 32-bit address space", addr, size)
	}
	return nil
}

// BuildSyncRequest constructs the handshake frame sent at the initial baud rate.
//
// Frame structure:
//
//	[0xBE][0x50][0x00][0x03][0x00][0x00][0x01][CHECKSUM]
func BuildSyncRequest() Message {
	return newRequest(Sync, 0x00, []byte{0x00, 0x00, 0x01})
}

// BuildLoadProgrammerRequest constructs the frame announcing a programmer
// upload. The blob itself follows as raw bytes.
//
// Frame structure:
//
//	[MARKER][0x55][0x00][0x0C][ADDR(4)][SIZE(4)][CRC32(4)][CHECKSUM]
func BuildLoadProgrammerRequest(addr uint32, blob []byte) (Message, error) {
	if err := checkRange(addr, len(blob)); err != nil {
		return Message{}, fmt.Errorf("programmer blob: %w", err)
	}
	params := putUint32s(addr, uint32(len(blob)), DataCRC(blob))
	return newRequest(ProgrammerStart, 0x00, params), nil
}

// BuildStartProgrammerRequest constructs the frame that jumps to the uploaded
// programmer. The agent switches to baud once it is running.
//
// Frame structure:
//
//	[MARKER][0x53][0x00][0x08][ENTRY(4)][BAUD(4)][CHECKSUM]
func BuildStartProgrammerRequest(entry uint32, baud int) (Message, error) {
	if baud <= 0 {
		return Message{}, fmt.Errorf("baud rate must be positive, got %d", baud)
	}
	return newRequest(StartProgrammer, 0x00, putUint32s(entry, uint32(baud))), nil
}

// BuildEraseBurnStartRequest constructs the frame that erases a region and
// prepares the programmer for chunked FlashBurnData transfers.
//
// Frame structure:
//
//	[MARKER][0x61][0x00][0x0C][ADDR(4)][SIZE(4)][CHUNK_SIZE(4)][CHECKSUM]
func BuildEraseBurnStartRequest(addr uint32, size, chunkSize int) (Message, error) {
	if err := checkRange(addr, size); err != nil {
		return Message{}, err
	}
	if chunkSize <= 0 {
		return Message{}, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	params := putUint32s(addr, uint32(size), uint32(chunkSize))
	return newRequest(EraseBurnStart, 0x00, params), nil
}

// BuildBurnDataRequest constructs the frame announcing one burn chunk. The
// chunk follows as raw bytes. seq is echoed in the acknowledgement subtype.
//
// Frame structure:
//
//	[MARKER][0x62][SEQ][0x0C][ADDR(4)][LEN(4)][CRC32(4)][CHECKSUM]
func BuildBurnDataRequest(seq byte, addr uint32, chunk []byte) (Message, error) {
	if err := checkRange(addr, len(chunk)); err != nil {
		return Message{}, fmt.Errorf("burn chunk: %w", err)
	}
	if len(chunk) > 0xFFFF {
		return Message{}, fmt.Errorf("burn chunk of %d bytes exceeds maximum %d", len(chunk), 0xFFFF)
	}
	params := putUint32s(addr, uint32(len(chunk)), DataCRC(chunk))
	return newRequest(FlashBurnData, seq, params), nil
}

// BuildReadFlashRequest constructs the frame requesting one read chunk.
//
// Frame structure:
//
//	[MARKER][0x65][0x03][0x08][ADDR(4)][LEN(4)][CHECKSUM]
func BuildReadFlashRequest(addr uint32, length int) (Message, error) {
	if err := checkRange(addr, length); err != nil {
		return Message{}, err
	}
	return newRequest(FlashCommand, SubReadFlash, putUint32s(addr, uint32(length))), nil
}

// BuildMemoryInfoRequest constructs the frame querying the flash layout.
//
// Frame structure:
//
//	[MARKER][0x65][0x02][0x00][CHECKSUM]
func BuildMemoryInfoRequest() Message {
	return newRequest(FlashCommand, SubMemoryInfo, nil)
}

// BuildEraseRequest constructs the frame erasing a flash region without
// starting a burn.
//
// Frame structure:
//
//	[MARKER][0x65][0x08][0x08][ADDR(4)][LEN(4)][CHECKSUM]
func BuildEraseRequest(addr uint32, length int) (Message, error) {
	if err := checkRange(addr, length); err != nil {
		return Message{}, err
	}
	return newRequest(FlashCommand, SubEraseRegion, putUint32s(addr, uint32(length))), nil
}
