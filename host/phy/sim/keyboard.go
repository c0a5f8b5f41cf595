package sim

import (
	"fmt"
	"sync"

	"github.com/ardnew/hidpoll/hid"
	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/pkg"
)

// Keyboard is a simulated Boot-Protocol keyboard. Reports queue in
// order and each IN token consumes at most one; with an empty queue
// the keyboard NAKs, or resends its current state in idle-report mode.
//
// The keyboard keeps its own data toggle and alternates it on every
// data response it believes was delivered. Fault injectors perturb a
// single upcoming poll and then disarm themselves.
type Keyboard struct {
	mu      sync.Mutex
	session phy.Session

	queue   []hid.KeyboardReport
	current hid.KeyboardReport
	idleNAK bool

	toggle  bool
	latency int

	stallNext bool
	dropNext  int
	wrongNext bool
}

var _ Device = (*Keyboard)(nil)

// NewKeyboard returns a keyboard on the conventional boot-keyboard
// session: full speed, 8-byte packets, 10 ms interval.
func NewKeyboard() *Keyboard {
	return &Keyboard{
		session: phy.Session{
			Address:       1,
			Endpoint:      1,
			MaxPacketSize: hid.KeyboardReportSize,
			Speed:         phy.SpeedFull,
			Interval:      10,
			VendorID:      0x16C0,
			ProductID:     0x27DB,
		},
		idleNAK: true,
	}
}

// Session implements [Device].
func (k *Keyboard) Session() phy.Session {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.session
}

// SetSession replaces the endpoint configuration.
func (k *Keyboard) SetSession(s phy.Session) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.session = s
}

// SetIdleNAK selects the empty-queue behavior: NAK when true (the
// default), resend the current key state when false.
func (k *Keyboard) SetIdleNAK(nak bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.idleNAK = nak
}

// SetLatency inserts n quiet ticks between each accepted token and the
// start of the response. Latencies long enough to push completion past
// the host's short timeout desynchronize the data toggle, since the
// keyboard cannot observe the lost handshake.
func (k *Keyboard) SetLatency(n int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.latency = n
}

// Press queues a report with the given modifiers and keys held.
func (k *Keyboard) Press(modifiers uint8, keys ...uint8) {
	var r hid.KeyboardReport
	r.Modifiers = modifiers
	for _, key := range keys {
		r.SetKey(key)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.queue = append(k.queue, r)
}

// Release queues an all-released report.
func (k *Keyboard) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.queue = append(k.queue, hid.KeyboardReport{})
}

// Type queues press/release report pairs spelling out s. Only
// printable ASCII, newline, and tab have keycode mappings.
func (k *Keyboard) Type(s string) error {
	for _, ch := range s {
		if ch > 0x7F {
			return fmt.Errorf("%w: no keycode for %q", pkg.ErrInvalidParameter, ch)
		}
		code, shifted, ok := hid.CharKey(byte(ch))
		if !ok {
			return fmt.Errorf("%w: no keycode for %q", pkg.ErrInvalidParameter, ch)
		}
		var modifiers uint8
		if shifted {
			modifiers = hid.ModLeftShift
		}
		k.Press(modifiers, code)
		k.Release()
	}
	pkg.LogDebug(pkg.ComponentSim, "text queued", "chars", len(s))
	return nil
}

// QueueLen returns the number of reports waiting to be polled.
func (k *Keyboard) QueueLen() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.queue)
}

// Reset drops queued reports, rearms no faults, and returns the data
// toggle to its initial value.
func (k *Keyboard) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.queue = nil
	k.current.Clear()
	k.toggle = false
	k.stallNext = false
	k.dropNext = 0
	k.wrongNext = false
}

// StallNext makes the keyboard answer the next poll with a STALL.
func (k *Keyboard) StallNext() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stallNext = true
}

// DropNext makes the keyboard ignore the next n polls entirely,
// leaving the host to its timeout path.
func (k *Keyboard) DropNext(n int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.dropNext = n
}

// ForceWrongToggle makes the next data response carry the wrong data
// identifier. The host ignores it; the report is not consumed and is
// resent with the correct identifier on the following poll.
func (k *Keyboard) ForceWrongToggle() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wrongNext = true
}

// Poll answers one IN token with queued traffic, an idle report, or a
// fault armed by the test hooks.
func (k *Keyboard) Poll() Response {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stallNext {
		k.stallNext = false
		return Response{PID: phy.PIDStall}
	}
	if k.dropNext > 0 {
		k.dropNext--
		return Response{}
	}

	var r hid.KeyboardReport
	switch {
	case len(k.queue) > 0:
		r = k.queue[0]
	case k.idleNAK:
		return Response{PID: phy.PIDNak}
	default:
		r = k.current
	}

	data := make([]byte, hid.KeyboardReportSize)
	r.MarshalTo(data)

	if k.wrongNext {
		k.wrongNext = false
		return Response{Data: data, PID: phy.DataPID(!k.toggle), Delay: k.latency}
	}

	if len(k.queue) > 0 {
		k.queue = k.queue[1:]
		k.current = r
	}
	pid := phy.DataPID(k.toggle)
	k.toggle = !k.toggle
	return Response{Data: data, PID: pid, Delay: k.latency}
}
