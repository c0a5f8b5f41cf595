// Package host implements the interrupt-IN polling engine for USB HID
// keyboards.
//
// The engine periodically issues IN tokens to one configured device
// endpoint, assembles the returned bytes, classifies the handshake
// (data, NAK, STALL, or silence), decodes Boot-Protocol fields, and
// hands completed reports to the consumer, bounding every failure mode
// with a retry budget and an absolute watchdog.
//
// It is platform-agnostic and reaches the bus only through the
// [phy.PHY] interface defined in github.com/ardnew/hidpoll/host/phy.
//
// # Architecture
//
//   - Engine is the synchronous core: one call to [Engine.Tick] is one
//     global tick, evaluating the scheduler, sequencer, assembler,
//     decoder, and watchdog against a single input snapshot
//   - Poller runs the tick loop against a bus backend under a context,
//     exposing reports on a channel and state changes in logs
//   - Status summarizes the engine per tick as bit flags
//   - Counters accumulate diagnostics across a polling session
//
// # Sequencer
//
// The transaction sequencer steps Idle → WaitService → SendToken →
// WaitResponse → Decode and back to WaitService, with a sticky Halt
// reachable from WaitResponse. NAKs retry at the next due service tick
// without penalty; a STALL halts immediately; silence is retried up to
// the budget, then halts. The absolute watchdog pre-empts every state,
// Halt included, forcing a return to Idle when no forward progress is
// observed for its full window.
//
// # Zero-Allocation Design
//
// The tick path performs no heap allocation. Key patterns include:
//
//   - Fixed-size receive buffer with an explicit length
//   - One state record, replaced atomically at the end of each tick
//   - Decode into caller-visible output structs, never into new slices
//
// # Example
//
//	bus := sim.NewBus(sim.DefaultBusConfig())
//	kbd := sim.NewKeyboard()
//	bus.Attach(kbd)
//
//	poller, _ := host.NewPoller(bus, bus, host.Config{})
//	poller.Start(ctx)
//	poller.Enable(true)
//
//	for report := range poller.Reports() {
//	    fmt.Println(report.Keys)
//	}
//
// A named-pipe bus for cross-process testing is available in
// [github.com/ardnew/hidpoll/host/phy/fifo].
package host
