package libusb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"github.com/hashicorp/go-multierror"

	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/pkg"
)

// Boot-Protocol interface identity (HID 1.11, 4.2 and 4.3).
const (
	hidBootSubClass     = 1
	hidKeyboardProtocol = 1
)

// packetQueue is the reader-to-tick-loop buffer depth. Interrupt
// endpoints produce at most one packet per service interval, so a
// short queue only ever fills when the engine is halted.
const packetQueue = 8

// Config parameterizes a Bus.
//
// Response payloads cross the engine one byte per tick; see
// [github.com/ardnew/hidpoll/host/phy/fifo.Config] for how the tick
// rate bounds packet size.
type Config struct {
	// TickHz is the tick rate. Zero selects the default.
	TickHz int

	// TicksPerFrame is the number of ticks per frame. Zero selects the
	// default.
	TicksPerFrame int

	// VendorID and ProductID select a specific device. When both are
	// zero the bus claims the first Boot-Protocol keyboard it finds.
	VendorID  uint16
	ProductID uint16
}

// DefaultConfig returns the standard 1 ms frame cadence with four
// ticks per frame.
func DefaultConfig() Config {
	return Config{TickHz: 4000, TicksPerFrame: 4}
}

// packet is one completed or failed interrupt-IN transfer.
type packet struct {
	data [phy.MaxPacketSize]byte
	n    int
	err  error
}

// Bus is a [phy.PHY] backend bridging a claimed gousb interrupt-IN
// endpoint into the engine's tick domain. It is also the
// [phy.SessionSource] for the claimed device.
type Bus struct {
	mu  sync.Mutex
	cfg Config

	usb *gousb.Context
	dev *gousb.Device
	itf *gousb.Interface
	cls func() // releases the claimed config

	session phy.Session
	present bool

	started bool
	closed  bool

	tick  uint64
	frame uint16
	pace  *time.Ticker

	packets chan packet
	cancel  context.CancelFunc
	done    chan struct{}

	// Delivery of one reply per token.
	pending bool
	data    [phy.MaxPacketSize]byte
	dlen    int
	idx     int
	pid     phy.PID
	toggle  bool
}

var (
	_ phy.PHY           = (*Bus)(nil)
	_ phy.SessionSource = (*Bus)(nil)
)

// NewBus returns a bus with the given configuration. Zero cfg fields
// take their defaults.
func NewBus(cfg Config) *Bus {
	def := DefaultConfig()
	if cfg.TickHz <= 0 {
		cfg.TickHz = def.TickHz
	}
	if cfg.TicksPerFrame <= 0 {
		cfg.TicksPerFrame = def.TicksPerFrame
	}
	return &Bus{cfg: cfg}
}

// Init opens the USB context.
func (b *Bus) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return pkg.ErrClosed
	}
	if b.usb != nil {
		return pkg.ErrAlreadyRunning
	}
	b.usb = gousb.NewContext()
	pkg.LogInfo(pkg.ComponentUSB, "usb context opened")
	return nil
}

// Start claims the target device and begins reading its endpoint.
func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return pkg.ErrClosed
	}
	if b.usb == nil {
		return fmt.Errorf("%w: not initialized", pkg.ErrNotRunning)
	}
	if b.started {
		return pkg.ErrAlreadyRunning
	}

	ep, err := b.claimLocked()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	b.packets = make(chan packet, packetQueue)
	go b.reader(ctx, ep)

	b.pace = time.NewTicker(time.Second / time.Duration(b.cfg.TickHz))
	b.toggle = false
	b.started = true
	pkg.LogInfo(pkg.ComponentUSB, "usb bus started",
		"tickHz", b.cfg.TickHz,
		"vendorID", fmt.Sprintf("%04x", b.session.VendorID),
		"productID", fmt.Sprintf("%04x", b.session.ProductID))
	return nil
}

// Stop releases the device and halts the tick domain.
func (b *Bus) Stop() error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.cancel()
	done := b.done
	b.mu.Unlock()

	// ReadContext observes the cancellation, so the reader exits
	// without the interface being yanked from under it.
	<-done

	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
	b.pace.Stop()
	b.pace = nil
	b.pending = false
	b.started = false
	pkg.LogInfo(pkg.ComponentUSB, "usb bus stopped")
	return nil
}

// Close stops the bus and closes the USB context.
func (b *Bus) Close() error {
	var result *multierror.Error
	if err := b.Stop(); err != nil {
		result = multierror.Append(result, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return result.ErrorOrNil()
	}
	if b.usb != nil {
		if err := b.usb.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		b.usb = nil
	}
	b.closed = true
	return result.ErrorOrNil()
}

// TickHz returns the configured tick rate.
func (b *Bus) TickHz() int { return b.cfg.TickHz }

// Session returns the claimed device's session, if one is present.
func (b *Bus) Session() (phy.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session, b.present
}

// Step waits for the next tick and bridges the endpoint reader into
// the engine's input snapshot.
func (b *Bus) Step(ctx context.Context, out phy.Outputs) (phy.Inputs, error) {
	b.mu.Lock()
	pace := b.pace
	b.mu.Unlock()
	if pace == nil {
		return phy.Inputs{}, pkg.ErrNotRunning
	}

	select {
	case <-ctx.Done():
		return phy.Inputs{}, ctx.Err()
	case <-pace.C:
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return phy.Inputs{}, pkg.ErrClosed
	}
	if !b.started {
		return phy.Inputs{}, pkg.ErrNotRunning
	}

	b.tick++
	if b.tick%uint64(b.cfg.TicksPerFrame) == 0 {
		b.frame++
	}

	in := phy.Inputs{Frame: b.frame, TokenReady: true}

	if out.Token.Valid && b.present {
		b.answerTokenLocked()
	}

	switch {
	case b.pending && b.idx < b.dlen:
		in.RxActive = true
		in.RxValid = true
		in.RxByte = b.data[b.idx]
		b.idx++
	case b.pending:
		in.RxComplete = true
		in.RxPID = b.pid
		b.pending = false
	}
	return in, nil
}

// answerTokenLocked arms the reply to one token: a completed transfer
// if one is queued, NAK otherwise.
func (b *Bus) answerTokenLocked() {
	var p *packet
	select {
	case q := <-b.packets:
		p = &q
	default:
	}

	switch {
	case p == nil:
		// No transfer completed since the last poll. The hardware
		// schedule absorbed the device's NAKs; reproduce one.
		b.pid = phy.PIDNak
		b.dlen = 0
	case p.err != nil:
		if isFatal(p.err) {
			pkg.LogWarn(pkg.ComponentUSB, "device lost", "error", p.err)
			b.present = false
			return
		}
		pkg.LogWarn(pkg.ComponentUSB, "endpoint stalled", "error", p.err)
		b.pid = phy.PIDStall
		b.dlen = 0
	case p.n == 0:
		// Zero-length transfer: nothing to report, and synthesizing an
		// empty DATA packet would burn a toggle the engine rejects.
		b.pid = phy.PIDNak
		b.dlen = 0
	default:
		b.pid = phy.DataPID(b.toggle)
		b.toggle = !b.toggle
		b.dlen = copy(b.data[:], p.data[:p.n])
	}
	b.idx = 0
	b.pending = true
}

// reader keeps an interrupt-IN transfer pending and queues each
// outcome for the tick loop. When the queue is full the oldest packet
// is displaced, matching the single-slot semantics downstream.
func (b *Bus) reader(ctx context.Context, ep *gousb.InEndpoint) {
	defer close(b.done)

	buf := make([]byte, ep.Desc.MaxPacketSize)
	for {
		n, err := ep.ReadContext(ctx, buf)
		if ctx.Err() != nil {
			return
		}
		if err != nil && isTimeout(err) {
			continue
		}

		var p packet
		p.n = copy(p.data[:], buf[:n])
		p.err = err
		for {
			select {
			case b.packets <- p:
			default:
				select {
				case <-b.packets:
				default:
				}
				continue
			}
			break
		}
		if err != nil && isFatal(err) {
			return
		}
	}
}

// claimLocked finds, opens, and claims the target interface, returning
// its interrupt-IN endpoint and recording the device session.
func (b *Bus) claimLocked() (*gousb.InEndpoint, error) {
	devs, err := b.usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if b.cfg.VendorID != 0 || b.cfg.ProductID != 0 {
			return uint16(desc.Vendor) == b.cfg.VendorID && uint16(desc.Product) == b.cfg.ProductID
		}
		_, ok := findPollTarget(desc)
		return ok
	})

	var target *gousb.Device
	for _, d := range devs {
		if target == nil {
			target = d
			continue
		}
		d.Close()
	}
	if target == nil {
		if err != nil {
			return nil, fmt.Errorf("open devices: %w", err)
		}
		return nil, pkg.ErrNoDevice
	}
	if err != nil {
		pkg.LogWarn(pkg.ComponentUSB, "some devices could not be opened", "error", err)
	}

	ep, err := b.claimEndpoint(target)
	if err != nil {
		target.Close()
		return nil, err
	}
	return ep, nil
}

// claimEndpoint claims dev's poll target interface and opens its
// interrupt-IN endpoint.
func (b *Bus) claimEndpoint(dev *gousb.Device) (*gousb.InEndpoint, error) {
	pt, ok := findPollTarget(dev.Desc)
	if !ok {
		return nil, fmt.Errorf("%w: no interrupt-IN endpoint", pkg.ErrInvalidEndpoint)
	}

	// Detach any kernel driver bound to the interface; the hid driver
	// owns keyboards by default.
	if err := dev.SetAutoDetach(true); err != nil {
		pkg.LogWarn(pkg.ComponentUSB, "auto-detach unavailable", "error", err)
	}

	cfg, err := dev.Config(pt.config)
	if err != nil {
		return nil, fmt.Errorf("claim config %d: %w", pt.config, err)
	}
	itf, err := cfg.Interface(pt.intf, pt.alt)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("claim interface %d: %w", pt.intf, err)
	}
	ep, err := itf.InEndpoint(pt.endpoint)
	if err != nil {
		itf.Close()
		cfg.Close()
		return nil, fmt.Errorf("open endpoint %d: %w", pt.endpoint, err)
	}

	speed := speedOf(dev.Desc.Speed)
	mps := ep.Desc.MaxPacketSize
	if mps > phy.MaxPacketSize {
		mps = phy.MaxPacketSize
	}
	b.dev = dev
	b.itf = itf
	b.cls = func() { cfg.Close() }
	b.session = phy.Session{
		Address:       uint8(dev.Desc.Address),
		Endpoint:      uint8(ep.Desc.Number),
		MaxPacketSize: uint8(mps),
		Speed:         speed,
		Interval:      rawInterval(speed, ep.Desc.PollInterval),
		VendorID:      uint16(dev.Desc.Vendor),
		ProductID:     uint16(dev.Desc.Product),
	}
	b.present = true

	pkg.LogInfo(pkg.ComponentUSB, "claimed device",
		"bus", dev.Desc.Bus,
		"address", dev.Desc.Address,
		"config", pt.config,
		"interface", pt.intf,
		"endpoint", pt.endpoint,
		"speed", speed)
	return ep, nil
}

// releaseLocked releases the claimed interface and device.
func (b *Bus) releaseLocked() {
	if b.itf != nil {
		b.itf.Close()
		b.itf = nil
	}
	if b.cls != nil {
		b.cls()
		b.cls = nil
	}
	if b.dev != nil {
		b.dev.Close()
		b.dev = nil
	}
	b.present = false
}

// pollTarget locates an interrupt-IN endpoint within a device's
// descriptor tree.
type pollTarget struct {
	config   int
	intf     int
	alt      int
	endpoint int
}

// findPollTarget picks the endpoint to poll: a Boot-Protocol keyboard
// interface when the device offers one, otherwise the first interface
// carrying an interrupt-IN endpoint.
func findPollTarget(desc *gousb.DeviceDesc) (pollTarget, bool) {
	if pt, ok := matchInterface(desc, true); ok {
		return pt, true
	}
	return matchInterface(desc, false)
}

func matchInterface(desc *gousb.DeviceDesc, bootKeyboard bool) (pollTarget, bool) {
	for cfgNum, cfg := range desc.Configs {
		for _, itf := range cfg.Interfaces {
			for _, alt := range itf.AltSettings {
				if bootKeyboard {
					if alt.Class != gousb.ClassHID ||
						alt.SubClass != hidBootSubClass ||
						alt.Protocol != hidKeyboardProtocol {
						continue
					}
				}
				for _, ep := range alt.Endpoints {
					if ep.Direction != gousb.EndpointDirectionIn {
						continue
					}
					if ep.TransferType != gousb.TransferTypeInterrupt {
						continue
					}
					return pollTarget{
						config:   cfgNum,
						intf:     alt.Number,
						alt:      alt.Alternate,
						endpoint: ep.Number,
					}, true
				}
			}
		}
	}
	return pollTarget{}, false
}

// speedOf maps a gousb speed to the engine's speed classes. Faster
// classes poll on the high-speed microframe schedule.
func speedOf(s gousb.Speed) phy.Speed {
	switch s {
	case gousb.SpeedLow:
		return phy.SpeedLow
	case gousb.SpeedFull:
		return phy.SpeedFull
	case gousb.SpeedHigh, gousb.SpeedSuper:
		return phy.SpeedHigh
	default:
		return phy.SpeedFull
	}
}

// rawInterval recovers a bInterval value from the descriptor's poll
// interval: exponential microframe units at high speed, milliseconds
// otherwise.
func rawInterval(speed phy.Speed, d time.Duration) uint8 {
	if speed == phy.SpeedHigh {
		n := d / (125 * time.Microsecond)
		b := uint8(1)
		for n > 1 && b < 16 {
			n >>= 1
			b++
		}
		return b
	}
	ms := d / time.Millisecond
	if ms < 1 {
		ms = 1
	}
	if ms > 255 {
		ms = 255
	}
	return uint8(ms)
}

// isTimeout reports whether err is a transfer timeout, meaning only
// that the device had nothing to send.
func isTimeout(err error) bool {
	return errors.Is(err, gousb.TransferTimedOut) || errors.Is(err, gousb.ErrorTimeout)
}

// isFatal reports whether err means the device is gone rather than the
// endpoint objecting.
func isFatal(err error) bool {
	return errors.Is(err, gousb.ErrorNoDevice)
}
