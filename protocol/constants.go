package protocol

// Frame structure constants.
const (
	// SyncMarker is the leading byte of every frame (0xBE)
	SyncMarker = 0xBE

	// MinFrameSize is the minimum frame size in bytes: MARKER(1) + TYPE(1) + CHECKSUM(1).
	// It is also the fallback length for frames with an unknown (type, subtype).
	MinFrameSize = 3

	// HeaderSize is the number of bytes needed to resolve a frame length:
	// MARKER(1) + TYPE(1) + SUBTYPE(1)
	HeaderSize = 3

	// paramsOffset is the payload offset of the first parameter byte:
	// SUBTYPE(1) + PARAM_LEN(1)
	paramsOffset = 2
)

// Link rates and transfer limits.
const (
	// DefaultInitialBaudRate is the baud rate the mask ROM bootloader syncs at
	DefaultInitialBaudRate = 115200

	// ProgrammingBaudRate is the baud rate used once the programmer is running
	ProgrammingBaudRate = 921600

	// MaxChunkSize is the largest single flash read/write transfer (0x8000 bytes)
	MaxChunkSize = 0x8000

	// DefaultProgrammerAddress is the RAM address the programmer is loaded to and started from
	DefaultProgrammerAddress = 0x20010000
)

// FlashCommand subtypes.
const (
	// SubMemoryInfo queries the flash layout (9-byte reply)
	SubMemoryInfo = 0x02

	// SubReadFlash reads a chunk of flash (22-byte reply header + raw data)
	SubReadFlash = 0x03

	// SubEraseRegion erases a flash region (6-byte reply)
	SubEraseRegion = 0x08
)

// Status codes carried in the first parameter byte of device acknowledgements.
const (
	// StatusOK indicates the command was accepted and executed
	StatusOK = 0x00

	// StatusBadChecksum indicates the device saw a frame or data checksum mismatch
	StatusBadChecksum = 0x01

	// StatusBadAddress indicates the address is outside flash or RAM
	StatusBadAddress = 0x02

	// StatusBadLength indicates a length of zero or above the device limit
	StatusBadLength = 0x03

	// StatusFlashError indicates erase or program failed inside the flash
	StatusFlashError = 0x04

	// StatusUnsupported indicates the command is not known to the running agent
	StatusUnsupported = 0x05
)

// Parameter sizes of the fixed-length messages.
const (
	syncParamsSize            = 3
	loadProgrammerParamsSize  = 12
	startProgrammerParamsSize = 8
	eraseBurnStartParamsSize  = 12
	burnDataParamsSize        = 12
	readFlashParamsSize       = 8
	eraseRegionParamsSize     = 8
	statusParamsSize          = 1
	burnAckParamsSize         = 3
	programmerInitParamsSize  = 6
	memoryInfoParamsSize      = 4
	readHeaderParamsSize      = 17
)
