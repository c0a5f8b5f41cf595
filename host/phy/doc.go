// Package phy defines the bus-facing contracts of the polling engine.
//
// The engine core never touches hardware. Everything below it (token
// transmission, byte reception, frame timing) is reached through the
// narrow interfaces in this package, sampled and driven once per engine
// tick. Bus backends implement [PHY]; session ownership (who the engine
// is polling, at what address and cadence) is supplied through
// [SessionSource].
//
// # Tick contract
//
// One call to [PHY.Step] is one global tick. The backend applies the
// engine's outputs for the current tick (a token request, if any), blocks
// until the next tick is due, and returns that tick's input snapshot:
// the frame counter, token-issuer readiness, and the receive-path state.
// The engine detects a new service opportunity by a CHANGE in the frame
// counter, never by its absolute value.
//
// # Receive contract
//
// Payload bytes are presented one per tick through RxByte/RxValid while
// RxActive is high. When a packet, data or handshake, has been observed
// in full, the backend pulses RxComplete for one tick with RxPID set.
// A transaction that draws no response at all never pulses RxComplete;
// the engine's short-timeout path owns that case. Handshake packets
// (NAK, STALL) complete with zero payload bytes.
//
// # Implementations
//
//   - [github.com/ardnew/hidpoll/host/phy/sim]: in-memory bus with
//     scriptable keyboard/mouse device models, used by tests and demos.
//   - [github.com/ardnew/hidpoll/host/phy/fifo]: named-pipe bus linking
//     a host process to a device process.
//   - [github.com/ardnew/hidpoll/host/phy/libusb]: bridge presenting a
//     kernel-attached device's interrupt endpoint as tick inputs.
package phy
