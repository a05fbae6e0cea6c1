package serialport

import (
	"context"
	"fmt"
	"io"
)

// Monitor copies everything received on r to w until ctx is done or r fails.
// Reads returning no data are treated as read timeouts and retried.
//
// It returns nil once ctx is done or r reaches EOF.
func Monitor(ctx context.Context, r io.Reader, w io.Writer) error {
	buf := make([]byte, 1024)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("monitor output: %w", werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("monitor input: %w", err)
		}
	}
}
