package phy

import (
	"context"

	"github.com/ardnew/hidpoll/hid"
)

// TokenRequest is the engine's request to transmit a token packet.
// Valid is a one-tick pulse; the remaining fields are meaningful only
// while Valid is set.
type TokenRequest struct {
	Valid    bool  // Request present this tick
	PID      PID   // Token type (always PIDIn for polling)
	Address  uint8 // Target device address
	Endpoint uint8 // Target endpoint number
}

// Inputs is the engine's input snapshot for one tick.
//
// Bus backends populate the frame, token-issuer, and receive fields from
// [PHY.Step]. Enable, Session, and Enumerated belong to the caller
// running the engine (see [github.com/ardnew/hidpoll/host.Poller]) and
// are ignored by backends.
type Inputs struct {
	Enable     bool    // External enable line
	Session    Session // Current device session (valid when Enumerated)
	Enumerated bool    // Enumerated device present

	Frame      uint16 // Frame/microframe counter; a change marks a service tick
	TokenReady bool   // Token issuer can accept a request this tick

	RxByte     byte // Payload byte (meaningful when RxValid)
	RxValid    bool // RxByte carries a payload byte this tick
	RxActive   bool // A reception is in progress
	RxComplete bool // A packet completed this tick (one-tick pulse)
	RxPID      PID  // Identifier of the completed packet (with RxComplete)
}

// Outputs is the engine's output snapshot for one tick.
type Outputs struct {
	Token       TokenRequest // Token to transmit (one-tick pulse)
	ReportReady bool         // Report holds a new decoded report (one-tick pulse)
	Report      hid.Report   // Decoded report (meaningful with ReportReady)
}

// PHY is a bus backend driving the engine's tick domain.
//
// Lifecycle follows Init → Start → (Step ...) → Stop → Close. Step is
// called from a single goroutine; the other methods must be safe to call
// concurrently with it.
type PHY interface {
	// Init prepares the backend. The context bounds initialization only.
	Init(ctx context.Context) error

	// Start begins frame generation and bus activity.
	Start() error

	// Stop halts bus activity. Step calls return pkg.ErrNotRunning after
	// Stop.
	Stop() error

	// Close releases all resources. The backend is unusable afterwards.
	Close() error

	// TickHz returns the backend's global tick rate in ticks per second.
	// The engine derives its timeout equivalences from this rate.
	TickHz() int

	// Step applies the engine's outputs for the current tick, blocks
	// until the next tick is due, and returns that tick's input
	// snapshot. Returns the context's error if it is cancelled while
	// waiting.
	Step(ctx context.Context, out Outputs) (Inputs, error)
}
