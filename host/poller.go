package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/ardnew/hidpoll/hid"
	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/pkg"
)

// Poller drives an Engine against a bus backend. It owns the tick
// goroutine: each loop iteration steps the backend for one tick's
// inputs, overlays the enable line and session configuration, ticks
// the engine, and delivers any decoded report.
//
// Reports are published on a single-slot channel with no back-pressure.
// The slot always holds the most recent report; a consumer that falls
// behind loses the overwritten ones.
type Poller struct {
	mu      sync.Mutex
	running bool

	phy phy.PHY
	src phy.SessionSource
	eng *Engine

	enable atomic.Bool

	reports chan hid.Report

	cbMu     sync.RWMutex
	onReport func(hid.Report)

	cancel  context.CancelFunc
	done    chan struct{}
	loopErr error
}

// NewPoller returns a Poller that steps bus and reads the session
// configuration from src. A nil src is allowed when the bus is its own
// session source. When cfg.TickHz is zero the bus's native tick rate
// is used.
func NewPoller(bus phy.PHY, src phy.SessionSource, cfg Config) (*Poller, error) {
	if bus == nil {
		return nil, fmt.Errorf("%w: nil bus", pkg.ErrInvalidParameter)
	}
	if src == nil {
		bs, ok := bus.(phy.SessionSource)
		if !ok {
			return nil, fmt.Errorf("%w: nil session source", pkg.ErrInvalidParameter)
		}
		src = bs
	}
	if cfg.TickHz <= 0 {
		cfg.TickHz = bus.TickHz()
	}
	return &Poller{
		phy:     bus,
		src:     src,
		eng:     New(cfg),
		reports: make(chan hid.Report, 1),
	}, nil
}

// Start initializes the backend and launches the tick loop. The loop
// runs until Stop is called or ctx is canceled.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return pkg.ErrAlreadyRunning
	}

	if err := p.phy.Init(ctx); err != nil {
		return fmt.Errorf("init phy: %w", err)
	}
	if err := p.phy.Start(); err != nil {
		return fmt.Errorf("start phy: %w", err)
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.loopErr = nil
	p.running = true

	go p.run(ctx)

	pkg.LogInfo(pkg.ComponentEngine, "poller started", "tickHz", p.phy.TickHz())
	return nil
}

// Stop halts the tick loop and the backend. The backend remains open;
// Start may be called again.
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return pkg.ErrNotRunning
	}

	p.cancel()
	<-p.done
	p.running = false

	var result *multierror.Error
	result = multierror.Append(result, p.loopErr)
	result = multierror.Append(result, p.phy.Stop())

	pkg.LogInfo(pkg.ComponentEngine, "poller stopped")
	return result.ErrorOrNil()
}

// Close stops the loop if it is running and releases the backend.
func (p *Poller) Close() error {
	var result *multierror.Error
	if err := p.Stop(); err != nil && !errors.Is(err, pkg.ErrNotRunning) {
		result = multierror.Append(result, err)
	}
	result = multierror.Append(result, p.phy.Close())
	return result.ErrorOrNil()
}

// IsRunning reports whether the tick loop has been started and not yet
// stopped.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Enable raises or lowers the engine's enable line. Lowering it
// abandons any session in progress and releases a halt.
func (p *Poller) Enable(enable bool) {
	if p.enable.Swap(enable) != enable {
		pkg.LogInfo(pkg.ComponentEngine, "enable changed", "enable", enable)
	}
}

// Enabled reports the state of the enable line.
func (p *Poller) Enabled() bool {
	return p.enable.Load()
}

// Reports returns the report channel. The channel is never closed; it
// holds at most the most recent report.
func (p *Poller) Reports() <-chan hid.Report {
	return p.reports
}

// SetOnReport installs a callback invoked from the tick goroutine for
// every decoded report. The callback must not block; while it runs, no
// polling happens. A nil callback removes the previous one.
func (p *Poller) SetOnReport(fn func(hid.Report)) {
	p.cbMu.Lock()
	p.onReport = fn
	p.cbMu.Unlock()
}

// Status returns the engine status derived from the most recent tick.
func (p *Poller) Status() Status {
	return p.eng.Status()
}

// State returns the engine's sequencer state.
func (p *Poller) State() State {
	return p.eng.State()
}

// PollCount returns the number of polls completed with a decoded
// report.
func (p *Poller) PollCount() uint64 {
	return p.eng.PollCount()
}

// Counters returns a snapshot of the engine's diagnostic totals.
func (p *Poller) Counters() Counters {
	return p.eng.Counters()
}

// LastHalt returns the cause of the engine's most recent halt.
func (p *Poller) LastHalt() pkg.HaltCause {
	return p.eng.LastHalt()
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	var out phy.Outputs
	prev := StateIdle

	for {
		in, err := p.phy.Step(ctx, out)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			pkg.LogError(pkg.ComponentEngine, "phy step failed", "error", err)
			p.loopErr = fmt.Errorf("phy step: %w", err)
			return
		}

		in.Enable = p.enable.Load()
		if s, ok := p.src.Session(); ok {
			in.Session = s
			in.Enumerated = true
		} else {
			in.Session = phy.Session{}
			in.Enumerated = false
		}

		out = p.eng.Tick(in)

		if out.ReportReady {
			p.publish(out.Report)
		}

		if s := p.eng.State(); s != prev {
			pkg.LogDebug(pkg.ComponentEngine, "state changed",
				"from", prev.String(), "to", s.String())
			if s == StateHalt {
				pkg.LogWarn(pkg.ComponentEngine, "engine halted",
					"cause", p.eng.LastHalt().String(),
					"status", p.eng.Status().String())
			}
			prev = s
		}
	}
}

// publish stores r in the single-slot report channel, displacing an
// unconsumed report if one is present, and invokes the report
// callback.
func (p *Poller) publish(r hid.Report) {
	for {
		select {
		case p.reports <- r:
			p.cbMu.RLock()
			cb := p.onReport
			p.cbMu.RUnlock()
			if cb != nil {
				cb(r)
			}
			return
		default:
			// Slot occupied: displace the stale report and try again.
			select {
			case <-p.reports:
			default:
			}
		}
	}
}
