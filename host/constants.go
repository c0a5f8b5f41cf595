package host

import "time"

// Timing policy.
const (
	// DefaultTickHz is the global tick rate assumed when a Config does
	// not specify one: 1 kHz, one tick per full/low-speed frame.
	DefaultTickHz = 1000

	// ShortTimeout is how long the engine waits for any response after
	// issuing a token before counting a retry.
	ShortTimeout = 10 * time.Millisecond

	// WatchdogTimeout is the absolute no-progress bound. When no poll
	// fires and no response is accepted for this long while polling is
	// enabled, the engine is forced back to Idle.
	WatchdogTimeout = 3 * time.Second

	// RetryLimit is the number of consecutive short timeouts tolerated
	// before the engine halts.
	RetryLimit = 10
)

// High-speed interval saturation (microframe units).
const (
	// highSpeedExponentMax is the largest bInterval exponent applied
	// before the effective interval saturates.
	highSpeedExponentMax = 8

	// HighSpeedMaxInterval is the saturated effective interval for
	// high-speed sessions requesting bInterval above the exponent cap.
	HighSpeedMaxInterval = 128
)

// State identifies the transaction sequencer's current state.
type State uint8

// Sequencer states.
const (
	StateIdle State = iota // Disabled or no device; reset target
	StateWaitService       // Counting service ticks toward the next poll
	StateSendToken         // Waiting for the token issuer
	StateWaitResponse      // Token issued; awaiting the device
	StateDecode            // Accepted reception; producing the report
	StateHalt              // Fault latched; awaiting re-enable
)

// String returns the sequencer state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitService:
		return "wait-service"
	case StateSendToken:
		return "send-token"
	case StateWaitResponse:
		return "wait-response"
	case StateDecode:
		return "decode"
	case StateHalt:
		return "halt"
	default:
		return "unknown"
	}
}
