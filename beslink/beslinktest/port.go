package beslinktest

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultReadTimeout is the read timeout of a new Port.
const DefaultReadTimeout = 2 * time.Millisecond

// Port is the host end of a simulated serial link.
//
// Read behaves like a serial port with a read timeout: it returns 0, nil
// when no reply arrives within ReadTimeout. Write blocks until the device
// has taken the bytes.
type Port struct {
	// ReadTimeout bounds each Read call
	ReadTimeout time.Duration

	// BaudErr, if set, is returned by SetBaudRate
	BaudErr error

	tx      *io.PipeWriter
	rx      chan []byte
	pending []byte
	unread  atomic.Int64
	done    chan struct{}
	err     error

	mu    sync.Mutex
	bauds []int

	closeOnce sync.Once
}

// deviceWriter is the device end of the reply channel.
type deviceWriter struct{ p *Port }

func (w deviceWriter) Write(b []byte) (int, error) {
	data := append([]byte(nil), b...)
	w.p.unread.Add(int64(len(data)))
	w.p.rx <- data
	return len(b), nil
}

// Connect starts d serving a new Port. Close the port to stop the device.
func Connect(d *Device) *Port {
	pr, pw := io.Pipe()
	p := &Port{
		ReadTimeout: DefaultReadTimeout,
		tx:          pw,
		rx:          make(chan []byte, 4096),
		done:        make(chan struct{}),
	}
	d.backlog = func() int { return int(p.unread.Load()) }

	go func() {
		p.err = d.Serve(pr, deviceWriter{p})
		pr.Close()
		close(p.done)
	}()
	return p
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		timer := time.NewTimer(p.ReadTimeout)
		defer timer.Stop()

		select {
		case data := <-p.rx:
			p.pending = data
		case <-p.done:
			select {
			case data := <-p.rx:
				p.pending = data
			default:
				return 0, io.EOF
			}
		case <-timer.C:
			return 0, nil
		}
	}

	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	p.unread.Add(-int64(n))
	return n, nil
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	n, err := p.tx.Write(b)
	if errors.Is(err, io.ErrClosedPipe) {
		return n, errors.New("simulated device stopped")
	}
	return n, err
}

// SetBaudRate records the requested baud rate.
func (p *Port) SetBaudRate(baud int) error {
	if p.BaudErr != nil {
		return p.BaudErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bauds = append(p.bauds, baud)
	return nil
}

// BaudRates returns every baud rate set on the port, in order.
func (p *Port) BaudRates() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.bauds...)
}

// Close stops the device and waits for it to return.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.tx.Close()
	})
	<-p.done
	return p.err
}
