package host

import (
	"sync"
	"time"

	"github.com/ardnew/hidpoll/hid"
	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/pkg"
)

// Config parameterizes an Engine.
type Config struct {
	// TickHz is the rate the engine is stepped at, in ticks per second.
	// The retry and watchdog windows scale with it so that ShortTimeout
	// and WatchdogTimeout hold as wall-clock durations. Zero selects
	// DefaultTickHz.
	TickHz int
}

// Counters accumulate diagnostic totals over the life of an Engine.
// They are monotonic; re-enabling after a halt does not reset them.
type Counters struct {
	Polls          uint64 // IN tokens fired by the scheduler
	Reports        uint64 // Receptions decoded into a report
	NAKs           uint64 // Polls answered with NAK
	Timeouts       uint64 // Polls that expired unanswered
	Stalls         uint64 // Polls answered with STALL
	WatchdogResets uint64 // Forced returns to Idle
}

// engineState is the engine's complete mutable state. Tick evaluates
// against a copy and stores the record back whole, so a reader on
// another goroutine never observes a half-applied transition.
type engineState struct {
	seq         State
	toggle      bool
	errCount    uint8
	elapsed     uint16
	lastFrame   uint16
	framePrimed bool
	tokenAge    uint32
	wdog        uint32
	rxCount     uint8
	buf         [hid.MaxReportSize]byte
	stalled     bool
	timedOut    bool
	lastHalt    pkg.HaltCause
	counters    Counters
}

// Engine is the synchronous polling core. One call to Tick consumes
// one snapshot of bus inputs and produces one snapshot of outputs;
// scheduler, sequencer, assembler, decoder, and watchdog all evaluate
// against that same snapshot. The tick path performs no heap
// allocation.
//
// Tick must be called from a single goroutine. The accessor methods
// are safe to call concurrently with Tick.
type Engine struct {
	mu         sync.RWMutex
	shortTicks uint32
	wdogTicks  uint32
	st         engineState
	status     Status
}

// New returns an Engine configured for cfg's tick rate.
func New(cfg Config) *Engine {
	hz := cfg.TickHz
	if hz <= 0 {
		hz = DefaultTickHz
	}
	return &Engine{
		shortTicks: uint32(time.Duration(hz) * ShortTimeout / time.Second),
		wdogTicks:  uint32(time.Duration(hz) * WatchdogTimeout / time.Second),
	}
}

// Tick advances the engine by one global tick.
//
// Evaluation order within the tick is fixed: service-tick detection,
// the enable gate, the watchdog, byte assembly, then the sequencer
// step. A watchdog expiry or loss of enable therefore supersedes any
// sequencer transition the same inputs would have produced.
func (e *Engine) Tick(in phy.Inputs) (out phy.Outputs) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.st

	// A service tick is a change in the frame identifier, not its mere
	// presence. The first observed frame only primes the detector.
	serviceTick := st.framePrimed && in.Frame != st.lastFrame
	st.lastFrame = in.Frame
	st.framePrimed = true

	// Loss of enable or of the enumerated device abandons the session
	// from any state, Halt included, and releases the fault flags.
	if !in.Enable || !in.Enumerated {
		enterIdle(&st)
		st.stalled = false
		st.timedOut = false
		e.commit(&st, &in)
		return out
	}

	// Absolute watchdog. It counts every tick spent outside Idle and
	// is rearmed only by forward progress: a poll firing, data
	// accepted, or a NAK accepted. On expiry it forces Idle no matter
	// what the sequencer was doing, including sitting in Halt.
	if st.seq != StateIdle {
		st.wdog++
		if st.wdog >= e.wdogTicks {
			enterIdle(&st)
			st.timedOut = true
			st.lastHalt = pkg.HaltWatchdog
			st.counters.WatchdogResets++
			e.commit(&st, &in)
			return out
		}
	} else {
		st.wdog = 0
	}

	e.assemble(&st, &in)
	e.step(&st, &in, serviceTick, &out)

	e.commit(&st, &in)
	return out
}

// step advances the transaction sequencer by one state evaluation.
func (e *Engine) step(st *engineState, in *phy.Inputs, serviceTick bool, out *phy.Outputs) {
	switch st.seq {
	case StateIdle:
		if in.Enable && in.Enumerated {
			st.seq = StateWaitService
			st.toggle = false
			st.elapsed = 0
			st.stalled = false
			st.timedOut = false
			st.lastHalt = pkg.HaltNone
		}

	case StateWaitService:
		if serviceTick && e.stepSchedule(st, in) {
			st.seq = StateSendToken
		}

	case StateSendToken:
		if in.TokenReady {
			out.Token = phy.TokenRequest{
				Valid:    true,
				PID:      phy.PIDIn,
				Address:  in.Session.Address,
				Endpoint: in.Session.Endpoint,
			}
			st.tokenAge = 0
			st.seq = StateWaitResponse
		}

	case StateWaitResponse:
		st.tokenAge++
		if in.RxComplete {
			e.classify(st, in)
			return
		}
		if st.tokenAge > e.shortTicks {
			st.errCount++
			st.counters.Timeouts++
			if st.errCount >= RetryLimit {
				st.seq = StateHalt
				st.timedOut = true
				st.lastHalt = pkg.HaltTimedOut
			} else {
				st.seq = StateWaitService
			}
		}

	case StateDecode:
		e.decode(st, out)
		st.seq = StateWaitService

	case StateHalt:
		// Sticky. Exits are external: disable, device loss, or the
		// watchdog above.
	}
}

// classify resolves a completed reception by its handshake or data
// identifier.
func (e *Engine) classify(st *engineState, in *phy.Inputs) {
	switch in.RxPID {
	case phy.DataPID(st.toggle):
		st.errCount = 0
		st.wdog = 0
		st.seq = StateDecode

	case phy.PIDNak:
		// Not an error: the device had nothing to send. The retry
		// counter keeps its pre-transaction value.
		st.wdog = 0
		st.counters.NAKs++
		st.seq = StateWaitService

	case phy.PIDStall:
		st.errCount++
		st.counters.Stalls++
		st.stalled = true
		st.lastHalt = pkg.HaltStalled
		st.seq = StateHalt

	default:
		// Wrong-toggle data and unrecognized identifiers do not advance
		// the sequencer; the short-timeout path recovers.
	}
}

// decode produces a report from the assembled buffer. Packets shorter
// than the decodable minimum emit nothing and leave the data toggle
// alone; either way the sequencer resumes the poll cadence.
func (e *Engine) decode(st *engineState, out *phy.Outputs) {
	if hid.DecodeReport(st.buf[:st.rxCount], &out.Report) {
		out.ReportReady = true
		st.toggle = !st.toggle
		st.counters.Reports++
	}
}

// enterIdle resets the sequencer and its supervision counters. Fault
// flags and the last halt cause are the callers' concern.
func enterIdle(st *engineState) {
	st.seq = StateIdle
	st.errCount = 0
	st.tokenAge = 0
	st.wdog = 0
	st.elapsed = 0
	st.rxCount = 0
}

// commit stores the evaluated state and derives the published status.
func (e *Engine) commit(st *engineState, in *phy.Inputs) {
	e.st = *st
	e.status = statusOf(st, in.Enable, in.Enumerated)
}

// Status returns the flags derived from the most recent tick.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// State returns the sequencer state after the most recent tick.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.seq
}

// PollCount returns the number of polls completed with a decoded
// report. It increases monotonically over the engine's life.
func (e *Engine) PollCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.counters.Reports
}

// Counters returns a snapshot of the diagnostic totals.
func (e *Engine) Counters() Counters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.counters
}

// LastHalt returns the cause of the most recent halt or watchdog
// reset, or [pkg.HaltNone] once a later polling session has started.
func (e *Engine) LastHalt() pkg.HaltCause {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.lastHalt
}
