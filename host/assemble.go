package host

import (
	"github.com/ardnew/hidpoll/hid"
	"github.com/ardnew/hidpoll/host/phy"
)

// assemble captures one received byte into the report buffer. It runs
// every tick regardless of sequencer state; the byte-valid strobe is
// the only gate. The count resets when the next poll fires, not on
// completion, so the decoder reads the assembled packet one tick after
// the reception is accepted.
//
// Capacity is the lesser of the session's negotiated packet size and
// the 64-byte report cap. Bytes past capacity are dropped; insertion
// order of accepted bytes is preserved.
func (e *Engine) assemble(st *engineState, in *phy.Inputs) {
	if !in.RxValid {
		return
	}
	limit := int(in.Session.MaxPacketSize)
	if limit > hid.MaxReportSize {
		limit = hid.MaxReportSize
	}
	if int(st.rxCount) < limit {
		st.buf[st.rxCount] = in.RxByte
		st.rxCount++
	}
}
