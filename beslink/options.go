package beslink

import (
	"time"

	"github.com/moffa90/go-bestool/protocol"
)

// Config holds the session configuration.
type Config struct {
	// Params are the link-wide protocol constants
	Params protocol.Params

	// ProgressCallback is called during long operations to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ChecksumPolicy selects how frames with a bad checksum are handled.
	// Default is protocol.ChecksumLenient.
	ChecksumPolicy protocol.ChecksumPolicy

	// SyncAttempts bounds the number of Sync frames sent by Sync
	SyncAttempts int

	// SyncTimeout bounds the whole handshake
	SyncTimeout time.Duration

	// SyncReplyTimeout is how long one Sync frame waits for its reply
	SyncReplyTimeout time.Duration

	// ProgrammerAddress is the RAM address the programmer is loaded to and
	// started from
	ProgrammerAddress uint32

	// VerifyAfterBurn enables a read-back comparison after every burn
	VerifyAfterBurn bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Params:            protocol.DefaultParams(),
		ChecksumPolicy:    protocol.ChecksumLenient,
		SyncAttempts:      50,
		SyncTimeout:       30 * time.Second,
		SyncReplyTimeout:  200 * time.Millisecond,
		ProgrammerAddress: protocol.DefaultProgrammerAddress,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithParams replaces the protocol parameters. Invalid parameters are ignored.
//
// Example:
//
//	params := protocol.DefaultParams()
//	params.ProgrammingBaudRate = 460800
//	sess := beslink.New(port, beslink.WithParams(params))
func WithParams(params protocol.Params) Option {
	return func(c *Config) {
		if params.Validate() == nil {
			c.Params = params
		}
	}
}

// WithChunkSize sets the maximum flash transfer chunk.
// Default is 0x8000 bytes; the programmer may lower it further.
//
// Example:
//
//	sess := beslink.New(port, beslink.WithChunkSize(0x1000))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= 0xFFFF {
			c.Params.MaxChunkSize = size
		}
	}
}

// WithProgrammingBaudRate sets the baud rate used once the programmer runs.
func WithProgrammingBaudRate(baud int) Option {
	return func(c *Config) {
		if baud > 0 {
			c.Params.ProgrammingBaudRate = baud
		}
	}
}

// WithChecksumPolicy selects strict or lenient frame checksum handling.
//
// Example:
//
//	sess := beslink.New(port, beslink.WithChecksumPolicy(protocol.ChecksumStrict))
func WithChecksumPolicy(policy protocol.ChecksumPolicy) Option {
	return func(c *Config) {
		c.ChecksumPolicy = policy
	}
}

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	sess := beslink.New(port,
//	    beslink.WithProgressCallback(func(p beslink.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the session operations.
//
// Example:
//
//	sess := beslink.New(port, beslink.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSyncAttempts sets the maximum number of Sync frames sent by Sync.
func WithSyncAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.SyncAttempts = attempts
		}
	}
}

// WithSyncTimeout bounds the whole sync handshake.
//
// Example:
//
//	sess := beslink.New(port, beslink.WithSyncTimeout(10*time.Second))
func WithSyncTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.SyncTimeout = timeout
		}
	}
}

// WithSyncReplyTimeout sets how long each Sync frame waits for a reply.
func WithSyncReplyTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.SyncReplyTimeout = timeout
		}
	}
}

// WithProgrammerAddress sets the RAM load and entry address of the programmer.
func WithProgrammerAddress(addr uint32) Option {
	return func(c *Config) {
		c.ProgrammerAddress = addr
	}
}

// WithVerifyAfterBurn enables or disables read-back verification after burning.
// Default is false.
func WithVerifyAfterBurn(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterBurn = verify
	}
}
