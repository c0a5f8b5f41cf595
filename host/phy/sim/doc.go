// Package sim provides an in-memory bus backend for the polling
// engine: a Bus that implements [phy.PHY] and answers IN tokens from
// an attached simulated device.
//
// Keyboard and Mouse model Boot-Protocol devices. They queue reports,
// NAK when idle, keep their own data toggle, and expose fault
// injection (STALL, dropped responses, a wrong data toggle) so every
// engine recovery path can be exercised without hardware.
//
// A Bus steps as fast as it is called by default, which suits tests.
// With Config.Realtime set, each tick is paced to wall-clock time at
// the configured rate, which suits interactive use.
//
//	bus := sim.NewBus(sim.DefaultBusConfig())
//	kbd := sim.NewKeyboard()
//	bus.Attach(kbd)
//	kbd.Type("hello")
package sim
