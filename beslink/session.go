package beslink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-bestool/protocol"
)

// Transport is the byte stream to the chip, typically a serial port.
//
// Read must return after at most the transport's own read timeout, either
// with data, with zero bytes, or with a timeout error; all three are
// retried by the session. SetBaudRate is called once, right after the
// programmer starts.
type Transport interface {
	io.ReadWriter
	SetBaudRate(baud int) error
}

// Session drives one BES2300 bootloader conversation over a Transport.
// The transport is never opened or closed by the session.
//
// Session is not safe for concurrent use: one operation owns the link at a time.
type Session struct {
	transport Transport
	config    Config
	reader    *protocol.Reader

	baud       int
	programmer *protocol.ProgrammerInfo
	chunkSize  int
}

// New creates a new Session over transport with the given options.
// The transport is assumed to be open at Params.InitialBaudRate.
//
// Example:
//
//	port, _ := serialport.Open("/dev/ttyUSB0", protocol.DefaultInitialBaudRate, 10*time.Millisecond)
//	sess := beslink.New(port,
//	    beslink.WithProgressCallback(progressFunc),
//	    beslink.WithSyncTimeout(20*time.Second),
//	)
func New(transport Transport, opts ...Option) *Session {
	if transport == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		transport: transport,
		config:    cfg,
		baud:      cfg.Params.InitialBaudRate,
		chunkSize: cfg.Params.MaxChunkSize,
	}
	s.reader = protocol.NewReader(transport, cfg.Params.SyncMarker, cfg.ChecksumPolicy)
	s.reader.OnChecksumMismatch = func(e *protocol.ChecksumError) {
		s.logWarn("frame checksum mismatch",
			"frame", fmt.Sprintf("% X", e.Frame),
			"got", fmt.Sprintf("0x%02X", e.Got),
			"want", fmt.Sprintf("0x%02X", e.Want),
		)
	}
	s.reader.OnUnknownLength = func(e *protocol.UnknownFrameLengthError) {
		s.logWarn("unknown frame length",
			"type", fmt.Sprintf("0x%02X", byte(e.Type)),
			"subtype", fmt.Sprintf("0x%02X", e.Subtype),
		)
	}
	return s
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.config
}

// BaudRate returns the baud rate the transport is currently set to.
func (s *Session) BaudRate() int {
	return s.baud
}

// ProgrammerRunning reports whether the programmer has been started.
func (s *Session) ProgrammerRunning() bool {
	return s.programmer != nil
}

// ProgrammerInfo returns what the running programmer announced, or nil.
func (s *Session) ProgrammerInfo() *protocol.ProgrammerInfo {
	return s.programmer
}

// ChunkSize returns the effective flash transfer chunk size.
func (s *Session) ChunkSize() int {
	return s.chunkSize
}

// requireProgrammer fails flash operations issued against the boot ROM.
func (s *Session) requireProgrammer() error {
	if s.programmer == nil {
		return ErrProgrammerNotRunning
	}
	return nil
}

// send writes one frame to the transport.
func (s *Session) send(msg protocol.Message) error {
	s.logDebug("tx", "msg", msg.String())
	return protocol.Send(s.transport, s.config.Params.SyncMarker, msg)
}

// sendRaw writes bulk data following an announcing frame.
func (s *Session) sendRaw(data []byte) error {
	return protocol.SendRaw(s.transport, data)
}

// receive reads the next frame from the device.
func (s *Session) receive(ctx context.Context) (protocol.Message, error) {
	msg, err := s.reader.ReadMessage(ctx)
	if n := s.reader.Discarded(); n > 0 {
		s.logDebug("discarded bytes before frame", "count", n)
	}
	if err != nil {
		return protocol.Message{}, err
	}
	s.logDebug("rx", "msg", msg.String())
	return msg, nil
}

// roundTrip sends msg and returns the next frame received.
func (s *Session) roundTrip(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	if err := s.send(msg); err != nil {
		return protocol.Message{}, err
	}
	return s.receive(ctx)
}

// isContextError reports whether err came from an expired or cancelled context.
func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// reportProgress calls the progress callback if configured.
func (s *Session) reportProgress(progress Progress) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if a logger is configured.
func (s *Session) logWarn(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
