package pkg

import "errors"

// Polling and bus errors.
var (
	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrNAK indicates a NAK response (device busy).
	ErrNAK = errors.New("NAK received")

	// ErrTimeout indicates a response timeout.
	ErrTimeout = errors.New("response timeout")

	// ErrWatchdog indicates the absolute watchdog expired.
	ErrWatchdog = errors.New("watchdog expired")

	// ErrHalted indicates the engine is halted and requires re-enable.
	ErrHalted = errors.New("engine halted")

	// ErrNotEnabled indicates the engine enable line is deasserted.
	ErrNotEnabled = errors.New("engine not enabled")

	// ErrNotEnumerated indicates no enumerated device session is present.
	ErrNotEnumerated = errors.New("device not enumerated")

	// ErrNoDevice indicates the device is not present.
	ErrNoDevice = errors.New("device not present")

	// ErrInvalidPID indicates a malformed packet identifier.
	ErrInvalidPID = errors.New("invalid packet identifier")

	// ErrInvalidEndpoint indicates an invalid endpoint number.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidAddress indicates an invalid device address.
	ErrInvalidAddress = errors.New("invalid device address")

	// ErrUnsupportedSpeed indicates an unrecognized speed class.
	ErrUnsupportedSpeed = errors.New("unsupported speed class")

	// ErrPacketTooLarge indicates a max packet size above the 64-byte cap.
	ErrPacketTooLarge = errors.New("packet size exceeds 64 bytes")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrAlreadyRunning indicates the poller is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning indicates the poller is not running.
	ErrNotRunning = errors.New("not running")

	// ErrClosed indicates the bus has been closed.
	ErrClosed = errors.New("bus closed")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrProtocol indicates a protocol error.
	ErrProtocol = errors.New("protocol error")
)

// HaltCause identifies why the engine stopped servicing the endpoint.
type HaltCause int

// Halt cause values.
const (
	HaltNone     HaltCause = iota // Engine running or idle normally
	HaltStalled                   // Device reported STALL
	HaltTimedOut                  // Short-timeout retry budget exhausted
	HaltWatchdog                  // Absolute watchdog forced recovery
)

// String returns a string representation of the halt cause.
func (c HaltCause) String() string {
	switch c {
	case HaltNone:
		return "none"
	case HaltStalled:
		return "stalled"
	case HaltTimedOut:
		return "timed out"
	case HaltWatchdog:
		return "watchdog"
	default:
		return "unknown"
	}
}

// Error returns the corresponding error for the halt cause.
func (c HaltCause) Error() error {
	switch c {
	case HaltNone:
		return nil
	case HaltStalled:
		return ErrStall
	case HaltTimedOut:
		return ErrTimeout
	case HaltWatchdog:
		return ErrWatchdog
	default:
		return ErrHalted
	}
}
