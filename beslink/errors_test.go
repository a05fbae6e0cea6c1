package beslink

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/moffa90/go-bestool/protocol"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "sync timeout",
			err:  &SyncTimeoutError{Attempts: 50, Elapsed: 1500 * time.Millisecond},
			want: []string{"50 attempts", "1.5s", "boot mode"},
		},
		{
			name: "transfer",
			err:  &TransferError{Op: "burn", Address: 0x3C008000, Err: errors.New("boom")},
			want: []string{"burn at 0x3C008000", "boom"},
		},
		{
			name: "checksum mismatch",
			err:  &ChecksumMismatchError{Address: 0x8000, Expected: 0xCBF43926, Actual: 0x1},
			want: []string{"0x00008000", "expected 0xCBF43926", "got 0x00000001"},
		},
		{
			name: "verification",
			err:  &VerificationError{Address: 0x10, Expected: 0xAA, Actual: 0x55},
			want: []string{"0x00000010", "expected 0xAA", "got 0x55"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, w := range tt.want {
				if !strings.Contains(msg, w) {
					t.Errorf("Error() = %q, missing %q", msg, w)
				}
			}
		})
	}
}

func TestTransferErrorUnwrap(t *testing.T) {
	cause := &protocol.StatusError{Operation: "burn chunk", StatusCode: protocol.StatusFlashError}
	err := error(&TransferError{Op: "burn", Address: 0, Err: cause})

	if !protocol.IsStatusError(err) {
		t.Error("IsStatusError() = false through TransferError")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() does not reach the cause")
	}
}
