package host

import "github.com/ardnew/hidpoll/host/phy"

// EffectiveInterval returns the poll cadence for a session in service
// ticks.
//
// High-speed endpoints declare bInterval as an exponent: the cadence is
// 2^(bInterval-1) microframes, saturated to HighSpeedMaxInterval when
// the exponent would overflow the shift. Low- and full-speed endpoints
// declare the cadence directly in 1 ms frames. A requested interval of
// zero is clamped to 1.
func EffectiveInterval(s phy.Session) uint16 {
	if s.Interval == 0 {
		return 1
	}
	if s.Speed == phy.SpeedHigh {
		if s.Interval > highSpeedExponentMax {
			return HighSpeedMaxInterval
		}
		return 1 << (s.Interval - 1)
	}
	return uint16(s.Interval)
}

// stepSchedule advances the cadence counter on a service tick observed
// in StateWaitService and reports whether a poll fires. On fire the
// elapsed counter and the receive buffer reset, and the fire counts as
// forward progress for the watchdog.
func (e *Engine) stepSchedule(st *engineState, in *phy.Inputs) bool {
	if uint32(st.elapsed) >= uint32(EffectiveInterval(in.Session))-1 {
		st.elapsed = 0
		st.rxCount = 0
		st.wdog = 0
		st.counters.Polls++
		return true
	}
	st.elapsed++
	return false
}
