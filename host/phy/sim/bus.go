package sim

import (
	"context"
	"sync"
	"time"

	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/pkg"
)

// Device is a simulated interrupt-IN endpoint a bus polls on behalf
// of the engine. Implementations answer each IN token with exactly one
// Response.
type Device interface {
	// Session returns the device's endpoint configuration.
	Session() phy.Session

	// Poll answers one IN token.
	Poll() Response
}

// Response is a device's answer to one IN token. A zero PID means the
// device stays silent and the host's timeout path takes over. Delay is
// honored by in-memory buses only.
type Response struct {
	Data  []byte
	PID   phy.PID
	Delay int
}

// Config parameterizes a Bus.
type Config struct {
	// TickHz is the bus tick rate reported to the engine. Zero selects
	// 1000.
	TickHz int

	// TicksPerFrame is how many ticks elapse per frame, and therefore
	// how many ticks of headroom a transaction has inside one service
	// interval. Zero selects 1.
	TicksPerFrame int

	// Realtime paces each tick to wall-clock time. Left false, the bus
	// runs as fast as it is stepped.
	Realtime bool
}

// DefaultBusConfig returns a full-speed bus ticking once per 1 ms
// frame, unpaced.
func DefaultBusConfig() Config {
	return Config{TickHz: 1000, TicksPerFrame: 1}
}

// Bus is an in-memory phy backend. At most one device is attached at a
// time; polls with no device attached go unanswered.
type Bus struct {
	mu  sync.Mutex
	cfg Config

	dev     Device
	running bool
	closed  bool

	tick  uint64
	frame uint16

	// In-flight response delivery.
	pending bool
	delay   int
	data    []byte
	idx     int
	pid     phy.PID

	pace *time.Ticker
}

var (
	_ phy.PHY           = (*Bus)(nil)
	_ phy.SessionSource = (*Bus)(nil)
)

// NewBus returns a Bus with cfg's zero fields defaulted.
func NewBus(cfg Config) *Bus {
	if cfg.TickHz <= 0 {
		cfg.TickHz = 1000
	}
	if cfg.TicksPerFrame <= 0 {
		cfg.TicksPerFrame = 1
	}
	return &Bus{cfg: cfg}
}

// Attach connects dev to the bus, replacing any previous device.
func (b *Bus) Attach(dev Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dev = dev
	s := dev.Session()
	pkg.LogInfo(pkg.ComponentSim, "device attached",
		"address", s.Address, "endpoint", s.Endpoint,
		"speed", s.Speed.String(), "interval", s.Interval)
}

// Detach disconnects the device, abandoning any response in flight.
// The engine observes this as loss of enumeration.
func (b *Bus) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dev = nil
	b.pending = false
	pkg.LogInfo(pkg.ComponentSim, "device detached")
}

// Session implements [phy.SessionSource] for the attached device.
func (b *Bus) Session() (phy.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev == nil {
		return phy.Session{}, false
	}
	return b.dev.Session(), true
}

// Init implements [phy.PHY].
func (b *Bus) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return pkg.ErrClosed
	}
	pkg.LogDebug(pkg.ComponentSim, "bus initialized",
		"tickHz", b.cfg.TickHz, "ticksPerFrame", b.cfg.TicksPerFrame,
		"realtime", b.cfg.Realtime)
	return nil
}

// Start implements [phy.PHY].
func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return pkg.ErrClosed
	}
	if b.running {
		return pkg.ErrAlreadyRunning
	}
	if b.cfg.Realtime {
		b.pace = time.NewTicker(time.Second / time.Duration(b.cfg.TickHz))
	}
	b.running = true
	return nil
}

// Stop implements [phy.PHY]. Stopping an already stopped bus is a
// no-op.
func (b *Bus) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pace != nil {
		b.pace.Stop()
		b.pace = nil
	}
	b.running = false
	return nil
}

// Close implements [phy.PHY].
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pace != nil {
		b.pace.Stop()
		b.pace = nil
	}
	b.running = false
	b.closed = true
	return nil
}

// TickHz implements [phy.PHY].
func (b *Bus) TickHz() int {
	return b.cfg.TickHz
}

// Step advances the bus by one tick: the frame counter, any in-flight
// response delivery, and, when the previous tick's outputs carried a
// token, the attached device's answer to it.
func (b *Bus) Step(ctx context.Context, out phy.Outputs) (phy.Inputs, error) {
	b.mu.Lock()
	pace := b.pace
	b.mu.Unlock()

	if pace != nil {
		select {
		case <-ctx.Done():
			return phy.Inputs{}, ctx.Err()
		case <-pace.C:
		}
	} else {
		select {
		case <-ctx.Done():
			return phy.Inputs{}, ctx.Err()
		default:
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return phy.Inputs{}, pkg.ErrClosed
	}

	b.tick++
	if b.tick%uint64(b.cfg.TicksPerFrame) == 0 {
		b.frame++
	}

	in := phy.Inputs{
		Frame:      b.frame,
		TokenReady: true,
	}

	switch {
	case b.pending && b.delay > 0:
		b.delay--

	case b.pending && b.idx < len(b.data):
		in.RxActive = true
		in.RxValid = true
		in.RxByte = b.data[b.idx]
		b.idx++

	case b.pending:
		in.RxComplete = true
		in.RxPID = b.pid
		b.pending = false
		pkg.LogDebug(pkg.ComponentSim, "response complete",
			"pid", b.pid.String(), "bytes", len(b.data))

	case out.Token.Valid && b.dev != nil:
		r := b.dev.Poll()
		if r.PID == 0 {
			pkg.LogDebug(pkg.ComponentSim, "device silent")
			break
		}
		b.pending = true
		b.delay = r.Delay
		b.data = r.Data
		b.idx = 0
		b.pid = r.PID
	}

	return in, nil
}
