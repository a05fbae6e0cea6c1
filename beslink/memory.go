package beslink

import (
	"context"
	"fmt"

	"github.com/moffa90/go-bestool/protocol"
)

// QueryMemoryInfo asks the programmer for the flash manufacturer, type and size.
func (s *Session) QueryMemoryInfo(ctx context.Context) (*protocol.MemoryInfo, error) {
	if err := s.requireProgrammer(); err != nil {
		return nil, err
	}

	reply, err := s.roundTrip(ctx, protocol.BuildMemoryInfoRequest())
	if err != nil {
		return nil, fmt.Errorf("memory info: %w", err)
	}
	info, err := protocol.ParseMemoryInfo(reply)
	if err != nil {
		return nil, err
	}

	s.logDebug("memory info", "info", info.String())
	return info, nil
}
