package host

import "strings"

// Status summarizes the engine for one observation cycle. It is
// recomputed from current state every tick; only the fault flags carry
// latched history, and those clear when a fresh polling session starts.
type Status uint8

// Status flags.
const (
	StatusActive Status = 1 << iota // Servicing the endpoint
	StatusError                     // Halted on a fault
	StatusStalled                   // Device reported STALL
	StatusTimedOut                  // Retry budget or watchdog expired
	StatusEnumerated                // Enumerated device present
)

// Has reports whether all flags in mask are set.
func (s Status) Has(mask Status) bool {
	return s&mask == mask
}

// String returns the set flags joined by "|", or "none".
func (s Status) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	if s.Has(StatusActive) {
		names = append(names, "active")
	}
	if s.Has(StatusError) {
		names = append(names, "error")
	}
	if s.Has(StatusStalled) {
		names = append(names, "stalled")
	}
	if s.Has(StatusTimedOut) {
		names = append(names, "timed-out")
	}
	if s.Has(StatusEnumerated) {
		names = append(names, "enumerated")
	}
	return strings.Join(names, "|")
}

// statusOf derives the status flags for the tick that just evaluated.
func statusOf(st *engineState, enabled, enumerated bool) Status {
	var s Status
	if enumerated {
		s |= StatusEnumerated
	}
	if enabled && enumerated && st.seq != StateIdle && st.seq != StateHalt {
		s |= StatusActive
	}
	if st.seq == StateHalt {
		s |= StatusError
	}
	if st.stalled {
		s |= StatusStalled
	}
	if st.timedOut {
		s |= StatusTimedOut
	}
	return s
}
