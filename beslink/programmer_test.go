package beslink

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/moffa90/go-bestool/beslink/beslinktest"
	"github.com/moffa90/go-bestool/protocol"
)

func TestSyncAndLoadProgrammer(t *testing.T) {
	dev := beslinktest.NewDevice()
	sess, port := bootstrap(t, dev)

	if !bytes.Equal(dev.Programmer(), testProgrammer) {
		t.Errorf("device programmer = %q, want %q", dev.Programmer(), testProgrammer)
	}
	if !dev.Running() || !sess.ProgrammerRunning() {
		t.Error("programmer not running after bootstrap")
	}
	if dev.RequestedBaud() != protocol.ProgrammingBaudRate {
		t.Errorf("requested baud = %d, want %d", dev.RequestedBaud(), protocol.ProgrammingBaudRate)
	}

	bauds := port.BaudRates()
	if len(bauds) != 1 || bauds[0] != protocol.ProgrammingBaudRate {
		t.Errorf("baud changes = %v, want [%d]", bauds, protocol.ProgrammingBaudRate)
	}
	if sess.BaudRate() != protocol.ProgrammingBaudRate {
		t.Errorf("BaudRate() = %d", sess.BaudRate())
	}

	info := sess.ProgrammerInfo()
	if info == nil || info.Version != 0x0102 {
		t.Errorf("ProgrammerInfo() = %+v", info)
	}

	loads := dev.EventsOf(protocol.ProgrammerStart)
	if len(loads) != 1 || loads[0].Address != protocol.DefaultProgrammerAddress || loads[0].Length != len(testProgrammer) {
		t.Errorf("load requests = %+v", loads)
	}
}

func TestStartProgrammerNegotiatesChunkSize(t *testing.T) {
	tests := []struct {
		name      string
		agent     uint32
		configure []Option
		want      int
	}{
		{"agent limit is lower", 0x1000, nil, 0x1000},
		{"configured limit is lower", 0x8000, []Option{WithChunkSize(0x800)}, 0x800},
		{"agent reports no limit", 0, nil, protocol.MaxChunkSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := beslinktest.NewDevice()
			dev.MaxChunkSize = tt.agent
			sess, _ := bootstrap(t, dev, tt.configure...)

			if sess.ChunkSize() != tt.want {
				t.Errorf("ChunkSize() = 0x%X, want 0x%X", sess.ChunkSize(), tt.want)
			}
		})
	}
}

func TestStartProgrammerWithoutLoad(t *testing.T) {
	dev := beslinktest.NewDevice()
	sess, port := newSimSession(t, dev)
	ctx := testContext(t)

	if err := sess.Sync(ctx); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	err := sess.StartProgrammer(ctx)

	var se *protocol.StatusError
	if !errors.As(err, &se) || se.StatusCode != protocol.StatusUnsupported {
		t.Fatalf("error = %v, want unsupported StatusError", err)
	}
	if sess.ProgrammerRunning() {
		t.Error("session reports a running programmer")
	}
	if len(port.BaudRates()) != 0 {
		t.Errorf("baud switched despite failure: %v", port.BaudRates())
	}
}

func TestStartProgrammerBaudSwitchFails(t *testing.T) {
	dev := beslinktest.NewDevice()
	sess, port := newSimSession(t, dev)
	port.BaudErr = errors.New("unsupported baud rate")

	err := sess.SyncAndLoadProgrammer(testContext(t), testProgrammer)
	if err == nil || !strings.Contains(err.Error(), "switch to 921600 baud") {
		t.Fatalf("error = %v, want baud switch failure", err)
	}
	if sess.ProgrammerRunning() {
		t.Error("session reports a running programmer")
	}
}

func TestSyncAndLoadProgrammerEmptyBlob(t *testing.T) {
	sess := New(nopTransport{})
	if err := sess.SyncAndLoadProgrammer(testContext(t), nil); err == nil {
		t.Error("empty blob: want error")
	}
}

func TestLoadProgrammerReportsProgress(t *testing.T) {
	dev := beslinktest.NewDevice()
	var phases []string
	sess, _ := newSimSession(t, dev, WithProgressCallback(func(p Progress) {
		phases = append(phases, p.Phase)
	}))

	if err := sess.SyncAndLoadProgrammer(testContext(t), testProgrammer); err != nil {
		t.Fatalf("SyncAndLoadProgrammer() error: %v", err)
	}

	want := []string{PhaseSyncing, PhaseLoading, PhaseLoading, PhaseStarting}
	if strings.Join(phases, ",") != strings.Join(want, ",") {
		t.Errorf("phases = %v, want %v", phases, want)
	}
}
