// Package protocol implements the BES2300 UART bootloader wire protocol.
//
// This package provides the frame codec, the additive checksum, a buffered
// frame reader, request builders and response parsers for the mask ROM
// bootloader and the programmer agent it loads into RAM.
//
// # Frame Format
//
//	[MARKER][TYPE][SUBTYPE][PAYLOAD...][CHECKSUM]
//
// Where:
//   - MARKER = sync marker (0xBE)
//   - TYPE = message type tag (see MessageType)
//   - SUBTYPE = disambiguator; FlashCommand frames differ in length by subtype
//   - CHECKSUM = 0xFF - (sum of all previous bytes mod 255) + 1, wrapping
//
// Frames carry no length field. The receiver resolves the total length from
// (TYPE, SUBTYPE) through FrameLength. Most payloads continue with a
// parameter length byte:
//
//	[SUBTYPE][PARAM_LEN][PARAMS...]
//
// Bulk data (the programmer image, burn chunks, read chunks) travels as raw
// bytes right after the frame that announces it.
//
// # Reading Frames
//
// Reader scans for the sync marker, so boot-time line noise is skipped:
//
//	r := protocol.NewReader(port, protocol.SyncMarker, protocol.ChecksumLenient)
//	msg, err := r.ReadMessage(ctx)
//
// # Building Requests
//
//	msg, err := protocol.BuildReadFlashRequest(0x3C000000, 0x8000)
//	err = protocol.Send(port, protocol.SyncMarker, msg)
//
// # Error Handling
//
// Device status bytes other than StatusOK become a *StatusError:
//
//	var se *protocol.StatusError
//	if errors.As(err, &se) {
//	    // se.Error() returns: "burn chunk failed: flash error (0x04)"
//	}
package protocol
