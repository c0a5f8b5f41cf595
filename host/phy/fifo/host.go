package fifo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"

	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/pkg"
)

// scanInterval is how often the host rescans the bus directory for
// device subdirectories.
const scanInterval = 50 * time.Millisecond

// Config parameterizes a HostBus tick domain.
//
// Response payloads cross the engine one byte per tick, so the tick
// rate bounds the largest packet that fits inside the engine's short
// timeout. The defaults carry full 8-byte keyboard reports with room
// to spare; raise TickHz (and TicksPerFrame with it) for devices with
// larger packets.
type Config struct {
	// TickHz is the tick rate. Zero selects the default.
	TickHz int

	// TicksPerFrame is the number of ticks per frame. Zero selects the
	// default. TickHz/TicksPerFrame should equal the frame rate of the
	// polled device's speed, normally 1000.
	TicksPerFrame int
}

// DefaultConfig returns the standard 1 ms frame cadence with four
// ticks per frame.
func DefaultConfig() Config {
	return Config{TickHz: 4000, TicksPerFrame: 4}
}

// HostBus is a [phy.PHY] backend polling devices published on a bus
// directory by a [DeviceBus]. It is also the [phy.SessionSource] for
// the attached device.
//
// The bus drives real time: Step paces itself with a wall-clock
// ticker, scans the bus directory for device subdirectories, and
// bridges token requests and replies over the device's FIFOs.
type HostBus struct {
	mu     sync.Mutex
	cfg    Config
	busDir string

	started bool
	closed  bool

	tick      uint64
	frame     uint16
	scanEvery uint64
	pace      *time.Ticker

	// Attached device, present while devDir is non-empty.
	devDir   string
	token    *os.File
	resp     *os.File
	conn     *os.File
	session  phy.Session
	attached bool

	connDec decoder
	respDec decoder
	tx      [maxMessage]byte

	// One reply is delivered to the engine at a time; further replies
	// wait in respDec.
	pending bool
	data    [maxPayload]byte
	dlen    int
	idx     int
	pid     phy.PID
}

var (
	_ phy.PHY           = (*HostBus)(nil)
	_ phy.SessionSource = (*HostBus)(nil)
)

// NewHostBus returns a host bus polling busDir. Zero cfg fields take
// their defaults.
func NewHostBus(busDir string, cfg Config) *HostBus {
	def := DefaultConfig()
	if cfg.TickHz <= 0 {
		cfg.TickHz = def.TickHz
	}
	if cfg.TicksPerFrame <= 0 {
		cfg.TicksPerFrame = def.TicksPerFrame
	}
	scanEvery := uint64(cfg.TickHz) * uint64(scanInterval) / uint64(time.Second)
	if scanEvery == 0 {
		scanEvery = 1
	}
	return &HostBus{cfg: cfg, busDir: busDir, scanEvery: scanEvery}
}

// Init ensures the bus directory exists.
func (b *HostBus) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return pkg.ErrClosed
	}
	if err := os.MkdirAll(b.busDir, 0o755); err != nil {
		return fmt.Errorf("create bus dir: %w", err)
	}
	pkg.LogInfo(pkg.ComponentFIFO, "host bus initialized", "busDir", b.busDir)
	return nil
}

// Start begins the tick domain.
func (b *HostBus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return pkg.ErrClosed
	}
	if b.started {
		return pkg.ErrAlreadyRunning
	}
	b.pace = time.NewTicker(time.Second / time.Duration(b.cfg.TickHz))
	b.started = true
	pkg.LogInfo(pkg.ComponentFIFO, "host bus started", "tickHz", b.cfg.TickHz)
	return nil
}

// Stop pauses the tick domain. An attached device stays attached, so
// a later Start resumes polling it without a new attach announcement.
func (b *HostBus) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.pace.Stop()
	b.pace = nil
	b.started = false
	pkg.LogInfo(pkg.ComponentFIFO, "host bus stopped")
	return nil
}

// Close stops the bus and releases the device FIFOs. The bus directory
// itself is left in place; it belongs to the devices publishing in it.
func (b *HostBus) Close() error {
	var result *multierror.Error
	if err := b.Stop(); err != nil {
		result = multierror.Append(result, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return result.ErrorOrNil()
	}
	b.teardownLocked()
	b.closed = true
	return result.ErrorOrNil()
}

// TickHz returns the configured tick rate.
func (b *HostBus) TickHz() int { return b.cfg.TickHz }

// Session returns the attached device's session, if any.
func (b *HostBus) Session() (phy.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session, b.attached
}

// Step waits for the next tick, services the bus directory and FIFOs,
// and returns the tick's input snapshot.
func (b *HostBus) Step(ctx context.Context, out phy.Outputs) (phy.Inputs, error) {
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
	if b.tick%b.scanEvery == 0 {
		b.scanLocked()
	}
	b.drainConnectionLocked()

	in := phy.Inputs{Frame: b.frame, TokenReady: true}

	if out.Token.Valid && b.attached {
		b.writeTokenLocked(out.Token)
	}
	b.drainResponsesLocked()

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

// scanLocked checks for device arrival and departure. One device is
// monitored at a time; the first subdirectory with a connection FIFO
// wins.
func (b *HostBus) scanLocked() {
	if b.devDir != "" {
		if _, err := os.Stat(b.devDir); err == nil {
			return
		}
		pkg.LogInfo(pkg.ComponentFIFO, "device directory removed", "dir", b.devDir)
		b.teardownLocked()
	}

	entries, err := os.ReadDir(b.busDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "device-") {
			continue
		}
		dir := filepath.Join(b.busDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, fifoConnection)); err != nil {
			continue
		}
		if err := b.openDeviceLocked(dir); err != nil {
			pkg.LogWarn(pkg.ComponentFIFO, "open device FIFOs failed", "dir", dir, "error", err)
			continue
		}
		pkg.LogDebug(pkg.ComponentFIFO, "monitoring device directory", "dir", dir)
		return
	}
}

// openDeviceLocked opens the three FIFOs of a device subdirectory.
func (b *HostBus) openDeviceLocked(dir string) error {
	var err error
	if b.conn, err = openFIFO(dir, fifoConnection); err != nil {
		return err
	}
	if b.resp, err = openFIFO(dir, fifoResponse); err != nil {
		b.teardownLocked()
		return err
	}
	if b.token, err = openFIFO(dir, fifoToken); err != nil {
		b.teardownLocked()
		return err
	}
	b.devDir = dir
	return nil
}

// teardownLocked drops the monitored device and all state tied to it.
func (b *HostBus) teardownLocked() {
	for _, f := range []**os.File{&b.token, &b.resp, &b.conn} {
		if *f != nil {
			(*f).Close()
			*f = nil
		}
	}
	b.devDir = ""
	b.session = phy.Session{}
	b.attached = false
	b.connDec.reset()
	b.respDec.reset()
	b.pending = false
}

// drainConnectionLocked applies attach and detach announcements.
func (b *HostBus) drainConnectionLocked() {
	pump(b.conn, &b.connDec)
	if b.conn == nil {
		return
	}
	for {
		kind, payload, err := b.connDec.next()
		if err != nil {
			pkg.LogWarn(pkg.ComponentFIFO, "connection stream corrupt", "error", err)
			break
		}
		if kind == 0 {
			break
		}
		switch kind {
		case msgAttach:
			s, err := unmarshalSession(payload)
			if err == nil {
				err = s.Validate()
			}
			if err != nil {
				pkg.LogWarn(pkg.ComponentFIFO, "rejecting attach", "error", err)
				continue
			}
			b.session = s
			b.attached = true
			pkg.LogInfo(pkg.ComponentFIFO, "device attached",
				"address", s.Address,
				"endpoint", s.Endpoint,
				"speed", s.Speed,
				"vendorID", fmt.Sprintf("%04x", s.VendorID),
				"productID", fmt.Sprintf("%04x", s.ProductID))
		case msgDetach:
			b.attached = false
			b.session = phy.Session{}
			b.respDec.reset()
			b.pending = false
			pkg.LogInfo(pkg.ComponentFIFO, "device detached")
		default:
			pkg.LogWarn(pkg.ComponentFIFO, "unexpected connection message", "kind", kind)
		}
	}
}

// drainResponsesLocked arms delivery of the next device reply. Replies
// queue in the decoder while one is being delivered.
func (b *HostBus) drainResponsesLocked() {
	pump(b.resp, &b.respDec)
	if b.pending {
		return
	}
	for {
		kind, payload, err := b.respDec.next()
		if err != nil {
			pkg.LogWarn(pkg.ComponentFIFO, "response stream corrupt", "error", err)
			return
		}
		if kind == 0 {
			return
		}
		switch kind {
		case msgData:
			if len(payload) < 1 {
				pkg.LogWarn(pkg.ComponentFIFO, "empty data reply")
				continue
			}
			b.pid = phy.PID(payload[0])
			b.dlen = copy(b.data[:], payload[1:])
			b.idx = 0
			b.pending = true
		case msgNak:
			b.pid = phy.PIDNak
			b.dlen = 0
			b.idx = 0
			b.pending = true
		case msgStall:
			b.pid = phy.PIDStall
			b.dlen = 0
			b.idx = 0
			b.pending = true
		default:
			pkg.LogWarn(pkg.ComponentFIFO, "unexpected response message", "kind", kind)
			continue
		}
		return
	}
}

// writeTokenLocked bridges one token request onto the token FIFO.
func (b *HostBus) writeTokenLocked(t phy.TokenRequest) {
	payload := [tokenLen]byte{byte(t.PID), t.Address, t.Endpoint}
	n := frameMessage(b.tx[:], msgToken, payload[:])
	if err := rawWrite(b.token, b.tx[:n]); err != nil {
		pkg.LogWarn(pkg.ComponentFIFO, "token write failed", "error", err)
	}
}

// pump drains immediately available bytes from f into dec. The FIFOs
// are open O_NONBLOCK, so a raw read returns EAGAIN instead of
// waiting; deadline-based reads would either block the tick loop or,
// with a deadline already past, fail without draining anything.
func pump(f *os.File, dec *decoder) {
	if f == nil {
		return
	}
	rc, err := f.SyscallConn()
	if err != nil {
		return
	}
	rc.Read(func(fd uintptr) bool {
		buf := dec.writable()
		if len(buf) == 0 {
			return true
		}
		if n, _ := unix.Read(int(fd), buf); n > 0 {
			dec.advance(n)
		}
		return true
	})
}

// rawWrite attempts one non-blocking write of p to f. Messages fit
// within the pipe's atomic write limit, so the write either lands
// whole or fails.
func rawWrite(f *os.File, p []byte) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var werr error
	if cerr := rc.Write(func(fd uintptr) bool {
		_, werr = unix.Write(int(fd), p)
		return true
	}); cerr != nil {
		return cerr
	}
	return werr
}
