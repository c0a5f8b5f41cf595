package phy

import (
	"fmt"
	"sync"

	"github.com/ardnew/hidpoll/pkg"
)

// MaxPacketSize is the largest interrupt payload the engine accepts per
// transaction.
const MaxPacketSize = 64

// Session describes the enumerated device endpoint being polled. It is
// owned by whoever performed enumeration; the engine treats it as
// read-only and assumes it is stable while polling is enabled.
type Session struct {
	Address       uint8 // Assigned device address (1-127)
	Endpoint      uint8 // Interrupt-IN endpoint number (1-15)
	MaxPacketSize uint8 // Negotiated max packet size (1-64)
	Speed         Speed // Connection speed class
	Interval      uint8 // Requested service interval, raw bInterval units

	// Identity for display only; the engine ignores these.
	VendorID  uint16
	ProductID uint16
}

// Validate checks the session parameters against protocol limits.
func (s *Session) Validate() error {
	if s.Address == 0 || s.Address > 127 {
		return fmt.Errorf("%w: address %d", pkg.ErrInvalidAddress, s.Address)
	}
	if s.Endpoint == 0 || s.Endpoint > 15 {
		return fmt.Errorf("%w: endpoint %d", pkg.ErrInvalidEndpoint, s.Endpoint)
	}
	if s.MaxPacketSize == 0 || s.MaxPacketSize > MaxPacketSize {
		return fmt.Errorf("%w: max packet size %d", pkg.ErrPacketTooLarge, s.MaxPacketSize)
	}
	switch s.Speed {
	case SpeedLow, SpeedFull, SpeedHigh:
	default:
		return fmt.Errorf("%w: %s", pkg.ErrUnsupportedSpeed, s.Speed)
	}
	return nil
}

// SessionSource supplies the engine's device session. The boolean result
// reports whether an enumerated device is present; when false, the
// session value is meaningless and the engine stays in (or returns to)
// its idle state.
type SessionSource interface {
	Session() (Session, bool)
}

// FixedSession is a SessionSource holding one externally managed session.
// It is safe for concurrent use.
type FixedSession struct {
	mu      sync.RWMutex
	session Session
	present bool
}

// NewFixedSession returns a FixedSession serving s as an enumerated
// device.
func NewFixedSession(s Session) *FixedSession {
	return &FixedSession{session: s, present: true}
}

// Session returns the held session and whether a device is present.
func (f *FixedSession) Session() (Session, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.session, f.present
}

// Set replaces the held session and marks a device present.
func (f *FixedSession) Set(s Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
	f.present = true
}

// Clear marks the device absent.
func (f *FixedSession) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present = false
}
