package sim

import (
	"sync"

	"github.com/ardnew/hidpoll/hid"
	"github.com/ardnew/hidpoll/host/phy"
)

// Mouse is a simulated Boot-Protocol mouse. It queues 4-byte reports
// and NAKs when it has nothing to say.
type Mouse struct {
	mu      sync.Mutex
	session phy.Session
	queue   []hid.MouseReport
	toggle  bool
}

var _ Device = (*Mouse)(nil)

// NewMouse returns a mouse on the conventional boot-mouse session.
func NewMouse() *Mouse {
	return &Mouse{
		session: phy.Session{
			Address:       2,
			Endpoint:      1,
			MaxPacketSize: hid.MouseReportSize,
			Speed:         phy.SpeedLow,
			Interval:      10,
			VendorID:      0x16C0,
			ProductID:     0x27DA,
		},
	}
}

// Session implements [Device].
func (m *Mouse) Session() phy.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// SetSession replaces the endpoint configuration.
func (m *Mouse) SetSession(s phy.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
}

// Move queues a relative motion report.
func (m *Mouse) Move(dx, dy int8) {
	m.enqueue(hid.MouseReport{X: dx, Y: dy})
}

// Scroll queues a wheel motion report.
func (m *Mouse) Scroll(wheel int8) {
	m.enqueue(hid.MouseReport{Wheel: wheel})
}

// Click queues a press report for the given buttons followed by a
// release report.
func (m *Mouse) Click(buttons uint8) {
	m.enqueue(hid.MouseReport{Buttons: buttons})
	m.enqueue(hid.MouseReport{})
}

func (m *Mouse) enqueue(r hid.MouseReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, r)
}

// Poll answers one IN token.
func (m *Mouse) Poll() Response {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return Response{PID: phy.PIDNak}
	}
	r := m.queue[0]
	m.queue = m.queue[1:]

	data := make([]byte, hid.MouseReportSize)
	r.MarshalTo(data)

	pid := phy.DataPID(m.toggle)
	m.toggle = !m.toggle
	return Response{Data: data, PID: pid}
}
