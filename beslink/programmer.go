package beslink

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-bestool/protocol"
)

// LoadProgrammer uploads the programmer blob into RAM at ProgrammerAddress.
// The boot ROM must already be synced.
func (s *Session) LoadProgrammer(ctx context.Context, blob []byte) error {
	start := time.Now()
	s.reportProgress(Progress{
		Phase:      PhaseLoading,
		Address:    s.config.ProgrammerAddress,
		BytesTotal: len(blob),
	})

	req, err := protocol.BuildLoadProgrammerRequest(s.config.ProgrammerAddress, blob)
	if err != nil {
		return err
	}
	if err := s.send(req); err != nil {
		return fmt.Errorf("load programmer: %w", err)
	}
	if err := s.sendRaw(blob); err != nil {
		return fmt.Errorf("load programmer: %w", err)
	}

	reply, err := s.receive(ctx)
	// A late answer to an earlier Sync attempt may still be in flight.
	for err == nil && reply.Type == protocol.Sync {
		s.logDebug("dropping stale sync reply")
		reply, err = s.receive(ctx)
	}
	if err != nil {
		return fmt.Errorf("load programmer: %w", err)
	}
	if err := protocol.ParseStatusResponse(reply, protocol.ProgrammerStart, "load programmer"); err != nil {
		return err
	}

	s.reportProgress(Progress{
		Phase:       PhaseLoading,
		Address:     s.config.ProgrammerAddress,
		BytesDone:   len(blob),
		BytesTotal:  len(blob),
		Percentage:  100,
		ElapsedTime: time.Since(start),
	})
	s.logInfo("programmer loaded",
		"address", fmt.Sprintf("0x%08X", s.config.ProgrammerAddress),
		"bytes", len(blob),
	)
	return nil
}

// StartProgrammer jumps to the loaded programmer, switches the transport to
// the programming baud rate and waits for the programmer to announce itself.
//
// The effective chunk size becomes the smaller of the configured maximum and
// the limit announced by the programmer.
func (s *Session) StartProgrammer(ctx context.Context) error {
	s.reportProgress(Progress{Phase: PhaseStarting})

	target := s.config.Params.ProgrammingBaudRate
	req, err := protocol.BuildStartProgrammerRequest(s.config.ProgrammerAddress, target)
	if err != nil {
		return err
	}

	reply, err := s.roundTrip(ctx, req)
	if err != nil {
		return fmt.Errorf("start programmer: %w", err)
	}
	if err := protocol.ParseStatusResponse(reply, protocol.ProgrammerRunning, "start programmer"); err != nil {
		return err
	}

	if s.baud != target {
		if err := s.transport.SetBaudRate(target); err != nil {
			return fmt.Errorf("switch to %d baud: %w", target, err)
		}
		s.logDebug("baud rate changed", "from", s.baud, "to", target)
		s.baud = target
	}

	announce, err := s.receive(ctx)
	if err != nil {
		return fmt.Errorf("wait for programmer: %w", err)
	}
	info, err := protocol.ParseProgrammerInit(announce)
	if err != nil {
		return fmt.Errorf("wait for programmer: %w", err)
	}

	s.programmer = info
	s.chunkSize = s.config.Params.MaxChunkSize
	if limit := int(info.MaxChunkSize); limit > 0 && limit < s.chunkSize {
		s.chunkSize = limit
	}

	s.logInfo("programmer running",
		"version", fmt.Sprintf("0x%04X", info.Version),
		"chunk_size", s.chunkSize,
		"baud", s.baud,
	)
	return nil
}

// SyncAndLoadProgrammer runs the full bootstrap: Sync, LoadProgrammer and
// StartProgrammer. It must succeed before any flash or memory operation.
//
// Example:
//
//	blob, _ := os.ReadFile("programmer2300.bin")
//	if err := sess.SyncAndLoadProgrammer(ctx, blob); err != nil {
//	    log.Fatal(err)
//	}
func (s *Session) SyncAndLoadProgrammer(ctx context.Context, blob []byte) error {
	if len(blob) == 0 {
		return fmt.Errorf("programmer blob cannot be empty")
	}
	if err := s.Sync(ctx); err != nil {
		return err
	}
	if err := s.LoadProgrammer(ctx, blob); err != nil {
		return err
	}
	return s.StartProgrammer(ctx)
}
