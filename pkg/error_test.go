package pkg

import (
	"errors"
	"testing"
)

func TestHaltCause_String(t *testing.T) {
	tests := []struct {
		cause HaltCause
		want  string
	}{
		{HaltNone, "none"},
		{HaltStalled, "stalled"},
		{HaltTimedOut, "timed out"},
		{HaltWatchdog, "watchdog"},
		{HaltCause(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.cause.String(); got != tt.want {
				t.Errorf("HaltCause.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHaltCause_Error(t *testing.T) {
	tests := []struct {
		cause   HaltCause
		wantErr error
	}{
		{HaltNone, nil},
		{HaltStalled, ErrStall},
		{HaltTimedOut, ErrTimeout},
		{HaltWatchdog, ErrWatchdog},
		{HaltCause(99), ErrHalted},
	}

	for _, tt := range tests {
		t.Run(tt.cause.String(), func(t *testing.T) {
			err := tt.cause.Error()
			if tt.wantErr == nil && err != nil {
				t.Errorf("HaltCause.Error() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("HaltCause.Error() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	// Verify all sentinel errors are distinct
	errs := []error{
		ErrStall,
		ErrNAK,
		ErrTimeout,
		ErrWatchdog,
		ErrHalted,
		ErrNotEnabled,
		ErrNotEnumerated,
		ErrNoDevice,
		ErrInvalidPID,
		ErrInvalidEndpoint,
		ErrInvalidAddress,
		ErrUnsupportedSpeed,
		ErrPacketTooLarge,
		ErrBufferTooSmall,
		ErrAlreadyRunning,
		ErrNotRunning,
		ErrClosed,
		ErrInvalidParameter,
	}

	for i, err1 := range errs {
		if err1 == nil {
			t.Errorf("error %d is nil", i)
			continue
		}
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("error %d and %d are equal", i, j)
			}
		}
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err     error
		wantMsg string
	}{
		{ErrStall, "endpoint stalled"},
		{ErrNAK, "NAK received"},
		{ErrTimeout, "response timeout"},
		{ErrWatchdog, "watchdog expired"},
		{ErrNotEnumerated, "device not enumerated"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("error.Error() = %v, want %v", got, tt.wantMsg)
			}
		})
	}
}
