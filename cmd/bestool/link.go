package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/moffa90/go-bestool/beslink"
	"github.com/moffa90/go-bestool/protocol"
	"github.com/moffa90/go-bestool/serialport"
)

// uint32Flag accepts decimal, 0x hex and 0o octal values.
type uint32Flag uint32

func (f *uint32Flag) String() string { return fmt.Sprintf("0x%08X", uint32(*f)) }

func (f *uint32Flag) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*f = uint32Flag(v)
	return nil
}

// linkFlags are the options shared by every command that talks to a chip.
type linkFlags struct {
	port        string
	programmer  string
	baud        int
	progBaud    int
	chunk       int
	strict      bool
	syncTimeout time.Duration
	loadAddr    uint32Flag
	quiet       bool
}

func (lf *linkFlags) register(fs *flag.FlagSet) {
	lf.loadAddr = protocol.DefaultProgrammerAddress
	fs.StringVar(&lf.port, "port", "", "serial port connected to the chip (required)")
	fs.StringVar(&lf.programmer, "programmer", "programmer2300.bin", "programmer agent loaded into RAM")
	fs.IntVar(&lf.baud, "baud", protocol.DefaultInitialBaudRate, "baud rate of the boot ROM handshake")
	fs.IntVar(&lf.progBaud, "prog-baud", protocol.ProgrammingBaudRate, "baud rate once the programmer runs")
	fs.IntVar(&lf.chunk, "chunk", protocol.MaxChunkSize, "maximum flash transfer chunk in bytes")
	fs.BoolVar(&lf.strict, "strict", false, "reject frames with a bad checksum instead of logging them")
	fs.DurationVar(&lf.syncTimeout, "sync-timeout", 30*time.Second, "how long to wait for the chip to enter boot mode")
	fs.Var(&lf.loadAddr, "load-addr", "RAM address of the programmer")
	fs.BoolVar(&lf.quiet, "q", false, "do not print progress")
}

// connect opens the port and brings the programmer up.
// The caller closes the returned port.
func (lf *linkFlags) connect(ctx context.Context, extra ...beslink.Option) (*beslink.Session, *serialport.Port, error) {
	if lf.port == "" {
		return nil, nil, fmt.Errorf("-port is required")
	}
	blob, err := os.ReadFile(lf.programmer)
	if err != nil {
		return nil, nil, fmt.Errorf("read programmer: %w", err)
	}

	port, err := serialport.Open(lf.port, lf.baud, serialport.DefaultReadTimeout)
	if err != nil {
		return nil, nil, err
	}

	params := protocol.DefaultParams()
	params.InitialBaudRate = lf.baud
	params.ProgrammingBaudRate = lf.progBaud
	params.MaxChunkSize = lf.chunk
	if err := params.Validate(); err != nil {
		_ = port.Close()
		return nil, nil, err
	}

	policy := protocol.ChecksumLenient
	if lf.strict {
		policy = protocol.ChecksumStrict
	}

	opts := []beslink.Option{
		beslink.WithParams(params),
		beslink.WithChecksumPolicy(policy),
		beslink.WithSyncTimeout(lf.syncTimeout),
		beslink.WithProgrammerAddress(uint32(lf.loadAddr)),
		beslink.WithLogger(glogLogger{}),
	}
	if !lf.quiet {
		opts = append(opts, beslink.WithProgressCallback(newProgressPrinter()))
	}
	sess := beslink.New(port, append(opts, extra...)...)

	glog.Infof("waiting for %s to enter boot mode (reset the chip now)", lf.port)
	if err := sess.SyncAndLoadProgrammer(ctx, blob); err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	return sess, port, nil
}

// newProgressPrinter returns a callback drawing a one-line progress meter
// on stderr for transfer phases.
func newProgressPrinter() beslink.ProgressCallback {
	return func(p beslink.Progress) {
		switch p.Phase {
		case beslink.PhaseBurning, beslink.PhaseReading:
			fmt.Fprintf(os.Stderr, "\r%-9s %6.1f%%  %d/%d bytes  %s",
				p.Phase, p.Percentage, p.BytesDone, p.BytesTotal, p.ElapsedTime.Round(time.Millisecond))
			if p.BytesDone == p.BytesTotal {
				fmt.Fprintln(os.Stderr)
			}
		}
	}
}

// parseUint32 parses a positional address or length argument.
func parseUint32(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return uint32(v), nil
}
