package protocol

// FrameLength resolves the total length of a device frame from its type and
// subtype bytes. The second return value is false when (typ, sub) is not in
// the table; the length then falls back to MinFrameSize.
//
// Length table:
//
//	Sync              8
//	StartProgrammer   6
//	ProgrammerRunning 6
//	ProgrammerInit    11
//	EraseBurnStart    6
//	FlashBurnData     8
//	ProgrammerStart   6
//	FlashCommand      0x02: 9, 0x08: 6, any other subtype: 22
func FrameLength(typ MessageType, sub byte) (int, bool) {
	switch typ {
	case Sync:
		return 8, true
	case StartProgrammer, ProgrammerRunning, ProgrammerStart, EraseBurnStart:
		return 6, true
	case ProgrammerInit:
		return 11, true
	case FlashBurnData:
		return 8, true
	case FlashCommand:
		switch sub {
		case SubMemoryInfo:
			return 9, true
		case SubEraseRegion:
			return 6, true
		default:
			return 22, true
		}
	default:
		return MinFrameSize, false
	}
}
