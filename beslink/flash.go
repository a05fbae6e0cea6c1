package beslink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-bestool/image"
	"github.com/moffa90/go-bestool/protocol"
)

// BurnImage erases the region [base, base+len(data)) and writes data to it.
//
// The region is announced with EraseBurnStart, then sent in ascending chunks
// of at most ChunkSize bytes. Every chunk is acknowledged before the next one
// is sent. Any failure aborts the burn with a *TransferError; the flash is
// left partially written and there is no resume.
//
// Example:
//
//	data, _ := os.ReadFile("best2300.bin")
//	err := sess.BurnImage(ctx, data, 0x3C000000)
func (s *Session) BurnImage(ctx context.Context, data []byte, base uint32) error {
	if err := s.requireProgrammer(); err != nil {
		return err
	}
	region := Region{Address: base, Length: len(data)}
	if err := region.Validate(); err != nil {
		return err
	}

	start := time.Now()
	s.reportProgress(Progress{
		Phase:      PhaseErasing,
		Address:    base,
		BytesTotal: len(data),
	})

	req, err := protocol.BuildEraseBurnStartRequest(base, len(data), s.chunkSize)
	if err != nil {
		return err
	}
	reply, err := s.roundTrip(ctx, req)
	if err == nil {
		err = protocol.ParseStatusResponse(reply, protocol.EraseBurnStart, "erase burn start")
	}
	if err != nil {
		return &TransferError{Op: "erase", Address: base, Err: err}
	}

	chunks := region.Chunks(s.chunkSize)
	done := 0
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		off := int(chunk.Address - base)
		if err := s.burnChunk(ctx, byte(i), chunk.Address, data[off:off+chunk.Length]); err != nil {
			s.logError("burn failed",
				"chunk", i,
				"address", fmt.Sprintf("0x%08X", chunk.Address),
				"error", err,
			)
			return &TransferError{Op: "burn", Address: chunk.Address, Err: err}
		}

		done += chunk.Length
		s.reportProgress(Progress{
			Phase:       PhaseBurning,
			Address:     chunk.Address,
			BytesDone:   done,
			BytesTotal:  len(data),
			Percentage:  float64(done) / float64(len(data)) * 100,
			ElapsedTime: time.Since(start),
		})
	}

	if s.config.VerifyAfterBurn {
		if err := s.verify(ctx, data, base); err != nil {
			return err
		}
	}

	s.reportProgress(Progress{
		Phase:       PhaseComplete,
		Address:     base,
		BytesDone:   len(data),
		BytesTotal:  len(data),
		Percentage:  100,
		ElapsedTime: time.Since(start),
	})
	s.logInfo("burn complete",
		"address", fmt.Sprintf("0x%08X", base),
		"bytes", len(data),
		"chunks", len(chunks),
		"elapsed", time.Since(start).String(),
	)
	return nil
}

// burnChunk sends one FlashBurnData header plus its raw bytes and waits for
// the matching acknowledgement.
func (s *Session) burnChunk(ctx context.Context, seq byte, addr uint32, chunk []byte) error {
	req, err := protocol.BuildBurnDataRequest(seq, addr, chunk)
	if err != nil {
		return err
	}
	if err := s.send(req); err != nil {
		return err
	}
	if err := s.sendRaw(chunk); err != nil {
		return err
	}

	ack, err := s.receive(ctx)
	if err != nil {
		return err
	}
	n, err := protocol.ParseBurnAck(ack, seq)
	if err != nil {
		return err
	}
	if n != len(chunk) {
		return fmt.Errorf("device stored %d of %d bytes", n, len(chunk))
	}
	return nil
}

// verify reads back a burned region and compares it with data.
func (s *Session) verify(ctx context.Context, data []byte, base uint32) error {
	s.reportProgress(Progress{
		Phase:      PhaseVerifying,
		Address:    base,
		BytesTotal: len(data),
	})

	got, err := s.ReadFlash(ctx, base, len(data))
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if bytes.Equal(got, data) {
		return nil
	}
	for i := range data {
		if got[i] != data[i] {
			return &VerificationError{
				Address:  base + uint32(i),
				Expected: data[i],
				Actual:   got[i],
			}
		}
	}
	return nil
}

// Program burns every segment of img in address order.
func (s *Session) Program(ctx context.Context, img *image.Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}
	if err := img.Validate(); err != nil {
		return err
	}

	for i, seg := range img.Segments {
		s.logDebug("programming segment",
			"index", i,
			"address", fmt.Sprintf("0x%08X", seg.Address),
			"bytes", len(seg.Data),
		)
		if err := s.BurnImage(ctx, seg.Data, seg.Address); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}

// ReadFlash reads length bytes of flash starting at addr.
//
// Each chunk is requested with a read FlashCommand; the reply header is
// checked against the request and the raw bytes against the CRC32 in the
// header. The result is all or nothing.
func (s *Session) ReadFlash(ctx context.Context, addr uint32, length int) ([]byte, error) {
	if err := s.requireProgrammer(); err != nil {
		return nil, err
	}
	region := Region{Address: addr, Length: length}
	if err := region.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	out := make([]byte, 0, length)
	for _, chunk := range region.Chunks(s.chunkSize) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		data, err := s.readChunk(ctx, chunk)
		if err != nil {
			return nil, &TransferError{Op: "read", Address: chunk.Address, Err: err}
		}
		out = append(out, data...)

		s.reportProgress(Progress{
			Phase:       PhaseReading,
			Address:     chunk.Address,
			BytesDone:   len(out),
			BytesTotal:  length,
			Percentage:  float64(len(out)) / float64(length) * 100,
			ElapsedTime: time.Since(start),
		})
	}

	s.logDebug("read complete",
		"address", fmt.Sprintf("0x%08X", addr),
		"bytes", length,
		"elapsed", time.Since(start).String(),
	)
	return out, nil
}

func (s *Session) readChunk(ctx context.Context, chunk Region) ([]byte, error) {
	req, err := protocol.BuildReadFlashRequest(chunk.Address, chunk.Length)
	if err != nil {
		return nil, err
	}
	reply, err := s.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	hdr, err := protocol.ParseReadHeader(reply)
	if err != nil {
		return nil, err
	}
	if hdr.Address != chunk.Address || int(hdr.Length) != chunk.Length {
		return nil, fmt.Errorf("read header describes 0x%08X+0x%X, requested %s",
			hdr.Address, hdr.Length, chunk)
	}

	data := make([]byte, chunk.Length)
	if err := s.reader.ReadRaw(ctx, data); err != nil {
		return nil, err
	}
	if crc := protocol.DataCRC(data); crc != hdr.CRC32 {
		return nil, &ChecksumMismatchError{
			Address:  chunk.Address,
			Expected: hdr.CRC32,
			Actual:   crc,
		}
	}
	return data, nil
}

// EraseFlash erases length bytes of flash starting at addr without burning.
func (s *Session) EraseFlash(ctx context.Context, addr uint32, length int) error {
	if err := s.requireProgrammer(); err != nil {
		return err
	}
	region := Region{Address: addr, Length: length}
	if err := region.Validate(); err != nil {
		return err
	}

	s.reportProgress(Progress{Phase: PhaseErasing, Address: addr, BytesTotal: length})

	req, err := protocol.BuildEraseRequest(addr, length)
	if err != nil {
		return err
	}
	reply, err := s.roundTrip(ctx, req)
	if err == nil && reply.Type == protocol.FlashCommand && reply.Subtype() != protocol.SubEraseRegion {
		err = fmt.Errorf("erase reply has subtype 0x%02X, expected 0x%02X", reply.Subtype(), protocol.SubEraseRegion)
	}
	if err == nil {
		err = protocol.ParseStatusResponse(reply, protocol.FlashCommand, "erase region")
	}
	if err != nil {
		return &TransferError{Op: "erase", Address: addr, Err: err}
	}

	s.logInfo("erase complete", "region", region.String())
	return nil
}
