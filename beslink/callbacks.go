package beslink

import "time"

// Progress phases.
const (
	PhaseSyncing   = "syncing"
	PhaseLoading   = "loading"
	PhaseStarting  = "starting"
	PhaseErasing   = "erasing"
	PhaseBurning   = "burning"
	PhaseReading   = "reading"
	PhaseVerifying = "verifying"
	PhaseComplete  = "complete"
)

// Progress contains information about a running operation.
// Passed to ProgressCallback during sync, bootstrap and flash transfers.
type Progress struct {
	// Phase describes the current operation phase:
	//   "syncing"   - Waiting for the mask ROM handshake
	//   "loading"   - Uploading the programmer into RAM
	//   "starting"  - Starting the programmer and switching baud rate
	//   "erasing"   - Erasing the target region
	//   "burning"   - Writing flash chunks
	//   "reading"   - Reading flash chunks
	//   "verifying" - Reading back burned data
	//   "complete"  - Operation completed successfully
	Phase string

	// Address is the flash address of the current chunk
	Address uint32

	// BytesDone is the number of bytes transferred so far
	BytesDone int

	// BytesTotal is the number of bytes the operation transfers
	BytesTotal int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called after every chunk and phase change.
// Implementations should return quickly; the link is idle while it runs.
//
// Example:
//
//	sess := beslink.New(port,
//	    beslink.WithProgressCallback(func(p beslink.Progress) {
//	        fmt.Printf("[%s] %.1f%% - %d/%d bytes\n",
//	            p.Phase, p.Percentage, p.BytesDone, p.BytesTotal)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the session.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Warn(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	sess := beslink.New(port, beslink.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning with optional key-value pairs
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
