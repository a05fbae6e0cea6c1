package beslink

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/moffa90/go-bestool/beslink/beslinktest"
	"github.com/moffa90/go-bestool/protocol"
)

func TestSync(t *testing.T) {
	dev := beslinktest.NewDevice()
	sess, _ := newSimSession(t, dev)

	if err := sess.Sync(testContext(t)); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if n := len(dev.EventsOf(protocol.Sync)); n != 1 {
		t.Errorf("device saw %d sync requests, want 1", n)
	}
}

func TestSyncSkipsNoiseAndRetries(t *testing.T) {
	dev := beslinktest.NewDevice()
	dev.SyncDrops = 2
	dev.Noise = []byte{0x00, 0xFF, 0x12, 0x34, 0x50, 0x00}

	logger := &recordingLogger{}
	sess, _ := newSimSession(t, dev, WithLogger(logger))

	if err := sess.Sync(testContext(t)); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if n := len(dev.EventsOf(protocol.Sync)); n != 3 {
		t.Errorf("device saw %d sync requests, want 3", n)
	}
	if !logger.has("debug", "discarded bytes before frame") {
		t.Error("discarded noise was not logged")
	}
	if !logger.has("info", "synced with boot ROM") {
		t.Error("sync success was not logged")
	}
}

func TestSyncAttemptsExhausted(t *testing.T) {
	dev := beslinktest.NewDevice()
	dev.SyncDrops = 1000
	sess, _ := newSimSession(t, dev,
		WithSyncAttempts(3),
		WithSyncReplyTimeout(20*time.Millisecond),
	)

	err := sess.Sync(testContext(t))

	var ste *SyncTimeoutError
	if !errors.As(err, &ste) {
		t.Fatalf("error = %v, want *SyncTimeoutError", err)
	}
	if ste.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", ste.Attempts)
	}
	if n := len(dev.EventsOf(protocol.Sync)); n != 3 {
		t.Errorf("device saw %d sync requests, want 3", n)
	}
}

func TestSyncOverallTimeout(t *testing.T) {
	dev := beslinktest.NewDevice()
	dev.SyncDrops = 1000
	sess, _ := newSimSession(t, dev,
		WithSyncAttempts(1000),
		WithSyncTimeout(100*time.Millisecond),
		WithSyncReplyTimeout(20*time.Millisecond),
	)

	start := time.Now()
	err := sess.Sync(testContext(t))

	var ste *SyncTimeoutError
	if !errors.As(err, &ste) {
		t.Fatalf("error = %v, want *SyncTimeoutError", err)
	}
	if ste.Attempts >= 1000 {
		t.Errorf("Attempts = %d, overall deadline not applied", ste.Attempts)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Sync() took %s", elapsed)
	}
}

func TestSyncCancelled(t *testing.T) {
	dev := beslinktest.NewDevice()
	dev.SyncDrops = 1000
	sess, _ := newSimSession(t, dev, WithSyncReplyTimeout(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := sess.Sync(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	var ste *SyncTimeoutError
	if errors.As(err, &ste) {
		t.Error("cancellation reported as SyncTimeoutError")
	}
}

type failingTransport struct {
	readErr  error
	writeErr error
}

func (f failingTransport) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return 0, nil
}

func (f failingTransport) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (failingTransport) SetBaudRate(int) error { return nil }

func TestSyncTransportErrorsAbort(t *testing.T) {
	tests := []struct {
		name      string
		transport failingTransport
		cause     error
	}{
		{"write fails", failingTransport{writeErr: io.ErrClosedPipe}, io.ErrClosedPipe},
		{"read fails", failingTransport{readErr: io.ErrUnexpectedEOF}, io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := New(tt.transport, WithSyncAttempts(100), WithSyncReplyTimeout(time.Second))

			start := time.Now()
			err := sess.Sync(context.Background())

			var te *protocol.TransportError
			if !errors.As(err, &te) {
				t.Fatalf("error = %v, want *protocol.TransportError", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("error does not wrap %v", tt.cause)
			}
			if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
				t.Errorf("Sync() retried for %s after a transport error", elapsed)
			}
		})
	}
}

func TestSyncChecksumPolicy(t *testing.T) {
	t.Run("lenient accepts and warns", func(t *testing.T) {
		dev := beslinktest.NewDevice()
		dev.BadChecksums = true
		logger := &recordingLogger{}
		sess, _ := newSimSession(t, dev, WithLogger(logger))

		if err := sess.Sync(testContext(t)); err != nil {
			t.Fatalf("Sync() error: %v", err)
		}
		if logger.count("warn") == 0 {
			t.Error("checksum mismatch was not logged as a warning")
		}
	})

	t.Run("strict drops corrupt replies", func(t *testing.T) {
		dev := beslinktest.NewDevice()
		dev.BadChecksums = true
		sess, _ := newSimSession(t, dev,
			WithChecksumPolicy(protocol.ChecksumStrict),
			WithSyncAttempts(3),
			WithSyncReplyTimeout(20*time.Millisecond),
		)

		var ste *SyncTimeoutError
		if err := sess.Sync(testContext(t)); !errors.As(err, &ste) {
			t.Fatalf("error = %v, want *SyncTimeoutError", err)
		}
	})
}
