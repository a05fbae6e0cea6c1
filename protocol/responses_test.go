package protocol

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// reply builds a device message with the [SUBTYPE][PARAM_LEN][PARAMS] layout.
func reply(typ MessageType, sub byte, params ...byte) Message {
	return newRequest(typ, sub, params)
}

func TestParseStatusResponse(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		typ     MessageType
		wantErr bool
		status  bool
	}{
		{
			name: "success",
			msg:  reply(EraseBurnStart, 0, StatusOK),
			typ:  EraseBurnStart,
		},
		{
			name:    "device error",
			msg:     reply(EraseBurnStart, 0, StatusFlashError),
			typ:     EraseBurnStart,
			wantErr: true,
			status:  true,
		},
		{
			name:    "wrong type",
			msg:     reply(ProgrammerRunning, 0, StatusOK),
			typ:     EraseBurnStart,
			wantErr: true,
		},
		{
			name:    "wrong parameter length",
			msg:     reply(EraseBurnStart, 0, StatusOK, 0x00),
			typ:     EraseBurnStart,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseStatusResponse(tt.msg, tt.typ, "erase burn start")
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %t", err, tt.wantErr)
			}
			if IsStatusError(err) != tt.status {
				t.Errorf("IsStatusError() = %t, want %t", IsStatusError(err), tt.status)
			}
		})
	}
}

func TestParseStatusResponseWrongType(t *testing.T) {
	err := ParseStatusResponse(reply(Sync, 0, 0, 0, 1), ProgrammerRunning, "start")
	var ue *UnexpectedMessageError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UnexpectedMessageError", err)
	}
	if ue.Want != ProgrammerRunning || ue.Got.Type != Sync {
		t.Errorf("UnexpectedMessageError = %+v", ue)
	}
}

func TestParseProgrammerInit(t *testing.T) {
	msg := reply(ProgrammerInit, 0, 0x02, 0x01, 0x00, 0x80, 0x00, 0x00)
	info, err := ParseProgrammerInit(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Version != 0x0102 {
		t.Errorf("Version = 0x%04X, want 0x0102", info.Version)
	}
	if info.MaxChunkSize != 0x8000 {
		t.Errorf("MaxChunkSize = 0x%X, want 0x8000", info.MaxChunkSize)
	}
	if n, _ := FrameLength(msg.Type, msg.Subtype()); len(Encode(SyncMarker, msg)) != n {
		t.Errorf("encoded length = %d, want %d", len(Encode(SyncMarker, msg)), n)
	}
}

func TestParseBurnAck(t *testing.T) {
	tests := []struct {
		name      string
		msg       Message
		seq       byte
		wantCount int
		errMsg    string
	}{
		{
			name:      "acknowledged",
			msg:       reply(FlashBurnData, 3, StatusOK, 0x00, 0x80),
			seq:       3,
			wantCount: 0x8000,
		},
		{
			name:   "sequence mismatch",
			msg:    reply(FlashBurnData, 2, StatusOK, 0x00, 0x80),
			seq:    3,
			errMsg: "sequence mismatch",
		},
		{
			name:   "device rejected chunk",
			msg:    reply(FlashBurnData, 3, StatusBadChecksum, 0x00, 0x00),
			seq:    3,
			errMsg: "checksum mismatch (0x01)",
		},
		{
			name:   "not a burn ack",
			msg:    reply(EraseBurnStart, 3, StatusOK),
			seq:    3,
			errMsg: "unexpected message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseBurnAck(tt.msg, tt.seq)
			if tt.errMsg != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tt.wantCount {
				t.Errorf("count = %d, want %d", n, tt.wantCount)
			}
		})
	}
}

func TestParseReadHeader(t *testing.T) {
	params := make([]byte, readHeaderParamsSize)
	params[0] = StatusOK
	binary.LittleEndian.PutUint32(params[1:5], 0x3C000000)
	binary.LittleEndian.PutUint32(params[5:9], 0x8000)
	binary.LittleEndian.PutUint32(params[9:13], 0x12345678)

	hdr, err := ParseReadHeader(reply(FlashCommand, SubReadFlash, params...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hdr.Address != 0x3C000000 || hdr.Length != 0x8000 || hdr.CRC32 != 0x12345678 {
		t.Errorf("ReadHeader = %+v", hdr)
	}

	params[0] = StatusBadAddress
	if _, err := ParseReadHeader(reply(FlashCommand, SubReadFlash, params...)); !IsStatusError(err) {
		t.Errorf("error = %v, want StatusError", err)
	}

	if _, err := ParseReadHeader(reply(FlashCommand, 0x04, make([]byte, readHeaderParamsSize)...)); err == nil {
		t.Error("wrong subtype: want error")
	}
}

func TestParseMemoryInfo(t *testing.T) {
	msg := reply(FlashCommand, SubMemoryInfo, StatusOK, 0xC8, 0x40, 0x16)
	if len(Encode(SyncMarker, msg)) != 9 {
		t.Fatalf("memory info frame is %d bytes, want 9", len(Encode(SyncMarker, msg)))
	}

	info, err := ParseMemoryInfo(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ManufacturerID != 0xC8 || info.MemoryType != 0x40 {
		t.Errorf("MemoryInfo = %+v", info)
	}
	if info.Size != 4*1024*1024 {
		t.Errorf("Size = %d, want %d", info.Size, 4*1024*1024)
	}

	if _, err := ParseMemoryInfo(reply(FlashCommand, SubMemoryInfo, StatusOK, 0xC8, 0x40, 0x40)); err == nil {
		t.Error("capacity code 0x40: want error")
	}
	if _, err := ParseMemoryInfo(reply(FlashCommand, SubMemoryInfo, StatusUnsupported, 0, 0, 0)); !IsStatusError(err) {
		t.Errorf("error = %v, want StatusError", err)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Operation: "burn chunk", StatusCode: StatusFlashError}
	if got, want := err.Error(), "burn chunk failed: flash error (0x04)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	err = &StatusError{Operation: "read", StatusCode: 0x7E}
	if !strings.Contains(err.Error(), "unknown status code 0x7E") {
		t.Errorf("Error() = %q", err.Error())
	}
}
