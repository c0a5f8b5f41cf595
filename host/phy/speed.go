package phy

// Speed represents the USB connection speed.
type Speed uint8

// USB speed constants (USB 2.0 Specification).
const (
	SpeedUnknown Speed = iota // Not connected or unknown
	SpeedLow                  // Low Speed (1.5 Mbit/s)
	SpeedFull                 // Full Speed (12 Mbit/s)
	SpeedHigh                 // High Speed (480 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low Speed"
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	default:
		return "Unknown"
	}
}

// ServiceTickRate returns the service-tick frequency for this speed in
// ticks per second: 125 microsecond microframes at High Speed, 1
// millisecond frames otherwise.
func (s Speed) ServiceTickRate() int {
	if s == SpeedHigh {
		return 8000
	}
	return 1000
}
