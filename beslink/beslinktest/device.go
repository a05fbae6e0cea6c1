// Package beslinktest provides an in-process BES2300 simulator for tests.
//
// A Device plays both the mask ROM bootloader and the programmer agent it
// loads, answering requests with the same frames a real chip sends. Connect
// attaches a Device to a Port that behaves like a serial port with a short
// read timeout:
//
//	dev := beslinktest.NewDevice()
//	port := beslinktest.Connect(dev)
//	defer port.Close()
//
//	sess := beslink.New(port)
//	err := sess.SyncAndLoadProgrammer(ctx, []byte("programmer"))
//
// Fault injection fields on Device must be set before Connect.
package beslinktest

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math/bits"
	"sync"

	"github.com/moffa90/go-bestool/protocol"
)

// BurnFault selects how a faulty burn acknowledgement is broken.
type BurnFault int

const (
	// BurnAckStatus reports a flash error and stores nothing
	BurnAckStatus BurnFault = iota

	// BurnAckSequence echoes the wrong sequence number
	BurnAckSequence

	// BurnAckType answers with an EraseBurnStart frame instead
	BurnAckType

	// BurnAckCount reports one byte less than received
	BurnAckCount
)

// Event records one request frame received by the device.
type Event struct {
	Type    protocol.MessageType
	Subtype byte

	// Address and Length are the region named by the request, if any
	Address uint32
	Length  int

	// Backlog is the number of reply bytes the host had not read yet when
	// the request arrived. A host that waits for every reply sees zero.
	Backlog int
}

// Device simulates a BES2300 boot ROM and programmer agent.
type Device struct {
	// FlashBase is the address of the first flash byte
	FlashBase uint32

	// Flash is the flash contents; erased bytes are 0xFF
	Flash []byte

	ManufacturerID    byte
	MemoryType        byte
	ProgrammerVersion uint16
	MaxChunkSize      uint32

	// SyncDrops is the number of Sync requests ignored before answering
	SyncDrops int

	// Noise is written once, right before the first Sync reply
	Noise []byte

	// BadChecksums corrupts the checksum of every reply frame
	BadChecksums bool

	// FailBurnAt is the 1-based burn chunk whose ack is broken (0 disables)
	FailBurnAt int
	BurnFault  BurnFault

	// CorruptReadAt is the 1-based read chunk whose data is corrupted after
	// its CRC32 was computed (0 disables)
	CorruptReadAt int

	mu         sync.Mutex
	events     []Event
	programmer []byte
	running    bool
	baud       int
	burns      int
	reads      int
	backlog    func() int
}

// NewDevice returns a device with 4 MiB of erased flash at 0x3C000000.
func NewDevice() *Device {
	return NewDeviceWithFlash(0x3C000000, 4*1024*1024)
}

// NewDeviceWithFlash returns a device with size bytes of erased flash at base.
// size should be a power of two so the memory info capacity code is exact.
func NewDeviceWithFlash(base uint32, size int) *Device {
	flash := make([]byte, size)
	for i := range flash {
		flash[i] = 0xFF
	}
	return &Device{
		FlashBase:         base,
		Flash:             flash,
		ManufacturerID:    0xC8,
		MemoryType:        0x60,
		ProgrammerVersion: 0x0102,
		MaxChunkSize:      protocol.MaxChunkSize,
	}
}

// Events returns the requests received so far.
func (d *Device) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// EventsOf returns the received requests of one type.
func (d *Device) EventsOf(typ protocol.MessageType) []Event {
	var out []Event
	for _, e := range d.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Programmer returns the uploaded programmer blob.
func (d *Device) Programmer() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.programmer...)
}

// Running reports whether the programmer has been started.
func (d *Device) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// RequestedBaud returns the baud rate asked for by StartProgrammer.
func (d *Device) RequestedBaud() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.baud
}

// ReadFlash returns a copy of n flash bytes at addr.
func (d *Device) ReadFlash(addr uint32, n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	off, ok := d.locate(addr, n)
	if !ok {
		return nil
	}
	return append([]byte(nil), d.Flash[off:off+n]...)
}

// CapacityCode returns log2 of the flash size.
func (d *Device) CapacityCode() byte {
	return byte(bits.Len(uint(len(d.Flash))) - 1)
}

// Serve answers requests read from in until in reaches EOF.
func (d *Device) Serve(in io.Reader, out io.Writer) error {
	br := bufio.NewReader(in)
	for {
		msg, err := readRequest(br)
		if err != nil {
			var ce *protocol.ChecksumError
			if errors.As(err, &ce) {
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		if err := d.handle(msg, br, out); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
	}
}

// readRequest reads one host frame. Requests carry their parameter length in
// the byte after the subtype.
func readRequest(br *bufio.Reader) (protocol.Message, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return protocol.Message{}, err
		}
		if b == protocol.SyncMarker {
			break
		}
	}

	frame := make([]byte, 4, 32)
	frame[0] = protocol.SyncMarker
	if _, err := io.ReadFull(br, frame[1:4]); err != nil {
		return protocol.Message{}, err
	}
	rest := make([]byte, int(frame[3])+1)
	if _, err := io.ReadFull(br, rest); err != nil {
		return protocol.Message{}, err
	}
	frame = append(frame, rest...)

	if err := protocol.VerifyFrame(frame); err != nil {
		return protocol.Message{}, err
	}
	return protocol.Decode(protocol.SyncMarker, frame)
}

// locate maps a flash region to an offset into Flash.
func (d *Device) locate(addr uint32, n int) (int, bool) {
	if n <= 0 || addr < d.FlashBase {
		return 0, false
	}
	off := uint64(addr - d.FlashBase)
	if off+uint64(n) > uint64(len(d.Flash)) {
		return 0, false
	}
	return int(off), true
}

func (d *Device) erase(off, n int) {
	for i := off; i < off+n; i++ {
		d.Flash[i] = 0xFF
	}
}

// reply writes a [SUBTYPE][PARAM_LEN][PARAMS] frame.
func (d *Device) reply(out io.Writer, typ protocol.MessageType, sub byte, params ...byte) error {
	payload := append([]byte{sub, byte(len(params))}, params...)
	frame := protocol.Encode(protocol.SyncMarker, protocol.Message{Type: typ, Payload: payload})
	if d.BadChecksums {
		frame[len(frame)-1] ^= 0x01
	}
	_, err := out.Write(frame)
	return err
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func (d *Device) handle(msg protocol.Message, br *bufio.Reader, out io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	params, _ := msg.Params()
	ev := Event{Type: msg.Type, Subtype: msg.Subtype()}
	if len(params) >= 8 && msg.Type != protocol.StartProgrammer {
		ev.Address = binary.LittleEndian.Uint32(params[0:4])
		ev.Length = int(binary.LittleEndian.Uint32(params[4:8]))
	}
	if d.backlog != nil {
		ev.Backlog = d.backlog()
	}
	d.events = append(d.events, ev)

	switch msg.Type {
	case protocol.Sync:
		if d.SyncDrops > 0 {
			d.SyncDrops--
			return nil
		}
		if len(d.Noise) > 0 {
			if _, err := out.Write(d.Noise); err != nil {
				return err
			}
			d.Noise = nil
		}
		return d.reply(out, protocol.Sync, 0x00, 0x00, 0x00, 0x01)

	case protocol.ProgrammerStart:
		return d.handleLoad(ev, params, br, out)

	case protocol.StartProgrammer:
		if d.programmer == nil {
			return d.reply(out, protocol.ProgrammerRunning, 0x00, protocol.StatusUnsupported)
		}
		if len(params) == 8 {
			d.baud = int(binary.LittleEndian.Uint32(params[4:8]))
		}
		d.running = true
		if err := d.reply(out, protocol.ProgrammerRunning, 0x00, protocol.StatusOK); err != nil {
			return err
		}
		init := make([]byte, 6)
		binary.LittleEndian.PutUint16(init[0:2], d.ProgrammerVersion)
		binary.LittleEndian.PutUint32(init[2:6], d.MaxChunkSize)
		return d.reply(out, protocol.ProgrammerInit, 0x00, init...)

	case protocol.EraseBurnStart:
		status := byte(protocol.StatusOK)
		off, ok := d.locate(ev.Address, ev.Length)
		switch {
		case !d.running:
			status = protocol.StatusUnsupported
		case !ok:
			status = protocol.StatusBadAddress
		default:
			d.erase(off, ev.Length)
		}
		return d.reply(out, protocol.EraseBurnStart, 0x00, status)

	case protocol.FlashBurnData:
		return d.handleBurn(msg.Subtype(), ev, params, br, out)

	case protocol.FlashCommand:
		return d.handleFlashCommand(msg.Subtype(), ev, out)
	}
	return nil
}

func (d *Device) handleLoad(ev Event, params []byte, br *bufio.Reader, out io.Writer) error {
	if len(params) != 12 {
		return d.reply(out, protocol.ProgrammerStart, 0x00, protocol.StatusBadLength)
	}
	blob := make([]byte, ev.Length)
	if _, err := io.ReadFull(br, blob); err != nil {
		return err
	}
	if protocol.DataCRC(blob) != binary.LittleEndian.Uint32(params[8:12]) {
		return d.reply(out, protocol.ProgrammerStart, 0x00, protocol.StatusBadChecksum)
	}
	d.programmer = blob
	return d.reply(out, protocol.ProgrammerStart, 0x00, protocol.StatusOK)
}

func (d *Device) handleBurn(seq byte, ev Event, params []byte, br *bufio.Reader, out io.Writer) error {
	if len(params) != 12 {
		return d.reply(out, protocol.FlashBurnData, seq, protocol.StatusBadLength, 0, 0)
	}
	chunk := make([]byte, ev.Length)
	if _, err := io.ReadFull(br, chunk); err != nil {
		return err
	}
	d.burns++

	status := byte(protocol.StatusOK)
	off, ok := d.locate(ev.Address, ev.Length)
	switch {
	case !d.running:
		status = protocol.StatusUnsupported
	case protocol.DataCRC(chunk) != binary.LittleEndian.Uint32(params[8:12]):
		status = protocol.StatusBadChecksum
	case !ok:
		status = protocol.StatusBadAddress
	}

	count := len(chunk)
	if d.FailBurnAt == d.burns {
		switch d.BurnFault {
		case BurnAckStatus:
			status = protocol.StatusFlashError
		case BurnAckSequence:
			seq++
		case BurnAckType:
			return d.reply(out, protocol.EraseBurnStart, 0x00, protocol.StatusOK)
		case BurnAckCount:
			count--
		}
	}

	if status != protocol.StatusOK {
		count = 0
	} else {
		copy(d.Flash[off:], chunk)
	}
	return d.reply(out, protocol.FlashBurnData, seq, status, byte(count), byte(count>>8))
}

func (d *Device) handleFlashCommand(sub byte, ev Event, out io.Writer) error {
	if !d.running {
		return d.replyUnsupported(out, sub)
	}

	switch sub {
	case protocol.SubMemoryInfo:
		return d.reply(out, protocol.FlashCommand, sub,
			protocol.StatusOK, d.ManufacturerID, d.MemoryType, d.CapacityCode())

	case protocol.SubReadFlash:
		d.reads++
		hdr := make([]byte, 17)
		copy(hdr[1:5], le32(ev.Address))
		copy(hdr[5:9], le32(uint32(ev.Length)))

		off, ok := d.locate(ev.Address, ev.Length)
		if !ok {
			hdr[0] = protocol.StatusBadAddress
			return d.reply(out, protocol.FlashCommand, sub, hdr...)
		}
		data := append([]byte(nil), d.Flash[off:off+ev.Length]...)
		copy(hdr[9:13], le32(protocol.DataCRC(data)))
		if d.CorruptReadAt == d.reads {
			data[0] ^= 0xFF
		}
		if err := d.reply(out, protocol.FlashCommand, sub, hdr...); err != nil {
			return err
		}
		_, err := out.Write(data)
		return err

	case protocol.SubEraseRegion:
		status := byte(protocol.StatusOK)
		if off, ok := d.locate(ev.Address, ev.Length); ok {
			d.erase(off, ev.Length)
		} else {
			status = protocol.StatusBadAddress
		}
		return d.reply(out, protocol.FlashCommand, sub, status)
	}
	return d.replyUnsupported(out, sub)
}

// replyUnsupported answers a FlashCommand with a frame of the length the
// host expects for the subtype.
func (d *Device) replyUnsupported(out io.Writer, sub byte) error {
	n, _ := protocol.FrameLength(protocol.FlashCommand, sub)
	params := make([]byte, n-protocol.MinFrameSize-2)
	params[0] = protocol.StatusUnsupported
	return d.reply(out, protocol.FlashCommand, sub, params...)
}
