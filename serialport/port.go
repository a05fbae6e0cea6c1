package serialport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultReadTimeout is the read timeout used by the CLI. Reads return
// 0, nil when it expires; the frame reader retries them.
const DefaultReadTimeout = 10 * time.Millisecond

// device is the subset of serial.Port used by Port.
type device interface {
	io.ReadWriteCloser
	SetMode(mode *serial.Mode) error
	ResetInputBuffer() error
}

// Port is a serial port usable as a beslink.Transport.
type Port struct {
	dev  device
	name string
	mode serial.Mode
}

// Open opens the named serial port in 8N1 mode at baud.
//
// Example:
//
//	port, err := serialport.Open("/dev/ttyUSB0", 115200, serialport.DefaultReadTimeout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
func Open(name string, baud int, readTimeout time.Duration) (*Port, error) {
	mode := serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(name, &mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", name, err)
	}

	return &Port{dev: p, name: name, mode: mode}, nil
}

// Name returns the device path the port was opened with.
func (p *Port) Name() string {
	return p.name
}

// BaudRate returns the current baud rate.
func (p *Port) BaudRate() int {
	return p.mode.BaudRate
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	return p.dev.Read(b)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.dev.Write(b)
}

// SetBaudRate reconfigures the line speed, keeping the framing.
func (p *Port) SetBaudRate(baud int) error {
	mode := p.mode
	mode.BaudRate = baud
	if err := p.dev.SetMode(&mode); err != nil {
		return fmt.Errorf("failed to set %s to %d baud: %w", p.name, baud, err)
	}
	p.mode = mode
	return nil
}

// ResetInputBuffer discards bytes received but not yet read.
func (p *Port) ResetInputBuffer() error {
	return p.dev.ResetInputBuffer()
}

// Close closes the port.
func (p *Port) Close() error {
	return p.dev.Close()
}
