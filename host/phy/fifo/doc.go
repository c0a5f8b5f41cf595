// Package fifo provides a named-pipe bus backend, letting a polling
// host and a simulated device run in separate processes.
//
// Both halves share a bus directory. Each device publishes itself as a
// subdirectory (device-{uuid}/) holding three FIFOs:
//
//	token      host writes IN token requests
//	response   device writes DATA/NAK/STALL replies
//	connection device announces attach and detach
//
// The host scans the bus directory for device subdirectories, opens
// their FIFOs, and waits for an attach message carrying the device's
// endpoint session. Every message on a FIFO is framed as a one-byte
// type, a little-endian two-byte payload length, and the payload.
//
// [HostBus] implements [phy.PHY] and [phy.SessionSource] for the
// engine side. [DeviceBus] serves any [sim.Device] on the far side:
//
//	dev := fifo.NewDeviceBus("/tmp/hidbus", sim.NewKeyboard())
//	dev.Init(ctx)
//	dev.Start()
//
//	bus := fifo.NewHostBus("/tmp/hidbus", fifo.DefaultConfig())
//	poller, _ := host.NewPoller(bus, nil, host.Config{})
//	poller.Start(ctx)
//	poller.Enable(true)
package fifo
