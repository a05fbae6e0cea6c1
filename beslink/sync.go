package beslink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-bestool/protocol"
)

// Sync performs the mask ROM handshake at the initial baud rate.
//
// A Sync frame is sent and a Sync reply awaited for SyncReplyTimeout; this
// repeats until the chip answers, SyncAttempts frames have been sent or
// SyncTimeout has elapsed. Other frames received meanwhile are ignored.
// Exhaustion returns a *SyncTimeoutError; transport failures and caller
// cancellation abort at once.
func (s *Session) Sync(ctx context.Context) error {
	start := time.Now()
	s.reportProgress(Progress{Phase: PhaseSyncing})

	syncCtx, cancel := context.WithTimeout(ctx, s.config.SyncTimeout)
	defer cancel()

	attempts := 0
	for attempts < s.config.SyncAttempts {
		attempts++
		if err := s.send(protocol.BuildSyncRequest()); err != nil {
			return fmt.Errorf("sync: %w", err)
		}

		ok, err := s.awaitSyncReply(syncCtx)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		if ok {
			s.logInfo("synced with boot ROM",
				"attempts", attempts,
				"elapsed", time.Since(start).String(),
			)
			return nil
		}

		if err := syncCtx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return fmt.Errorf("sync cancelled: %w", err)
			}
			break
		}
		s.logDebug("no sync reply", "attempt", attempts)
	}

	err := &SyncTimeoutError{Attempts: attempts, Elapsed: time.Since(start)}
	s.logError("sync failed", "error", err)
	return err
}

// awaitSyncReply reads frames until a Sync reply arrives or the per-attempt
// deadline passes. Only transport failures are returned as errors.
func (s *Session) awaitSyncReply(ctx context.Context) (bool, error) {
	replyCtx, cancel := context.WithTimeout(ctx, s.config.SyncReplyTimeout)
	defer cancel()

	for {
		msg, err := s.receive(replyCtx)
		if err != nil {
			var ce *protocol.ChecksumError
			switch {
			case isContextError(err):
				return false, nil
			case errors.As(err, &ce):
				s.logDebug("dropping corrupt frame during sync", "error", err)
				continue
			default:
				return false, err
			}
		}
		if msg.Type == protocol.Sync {
			return true, nil
		}
		s.logDebug("ignoring frame during sync", "msg", msg.String())
	}
}
