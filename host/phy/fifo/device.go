package fifo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"

	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/host/phy/sim"
	"github.com/ardnew/hidpoll/pkg"
)

// tokenDeadline bounds each blocking read of the token FIFO so the
// serve loop can observe cancellation.
const tokenDeadline = 100 * time.Millisecond

// DeviceBus publishes one simulated device on a bus directory so a
// [HostBus], typically in another process, can poll it.
//
// Init creates a unique device subdirectory with its FIFOs. Start
// announces the device's session and begins answering tokens; Stop
// announces detach and pauses, leaving the subdirectory in place so a
// later Start replugs the same device. Close removes the subdirectory.
type DeviceBus struct {
	mu     sync.Mutex
	busDir string
	dir    string
	dev    sim.Device

	conn  *os.File
	token *os.File
	resp  *os.File

	inited  bool
	running bool
	closed  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewDeviceBus returns a device bus serving dev under busDir.
func NewDeviceBus(busDir string, dev sim.Device) *DeviceBus {
	return &DeviceBus{busDir: busDir, dev: dev}
}

// generateUUID generates a random UUID using crypto/rand.
func generateUUID() (string, error) {
	var uuid [16]byte
	if _, err := rand.Read(uuid[:]); err != nil {
		return "", err
	}
	// Set version 4 (random) bits
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return hex.EncodeToString(uuid[:]), nil
}

// Dir returns the device subdirectory path. It is empty before Init.
func (d *DeviceBus) Dir() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dir
}

// Init creates the device subdirectory and its FIFOs.
func (d *DeviceBus) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return pkg.ErrClosed
	}
	if d.inited {
		return pkg.ErrAlreadyRunning
	}
	if d.dev == nil {
		return fmt.Errorf("%w: nil device", pkg.ErrInvalidParameter)
	}

	uuid, err := generateUUID()
	if err != nil {
		return fmt.Errorf("generate uuid: %w", err)
	}
	d.dir = filepath.Join(d.busDir, "device-"+uuid)

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create device dir: %w", err)
	}
	for _, name := range []string{fifoToken, fifoResponse, fifoConnection} {
		if err := createFIFO(d.dir, name); err != nil {
			d.cleanupLocked()
			return err
		}
	}

	// Open with O_RDWR|O_NONBLOCK so opens never wait for a peer and a
	// host closing its end never delivers EOF.
	if d.token, err = openFIFO(d.dir, fifoToken); err != nil {
		d.cleanupLocked()
		return err
	}
	if d.resp, err = openFIFO(d.dir, fifoResponse); err != nil {
		d.cleanupLocked()
		return err
	}
	if d.conn, err = openFIFO(d.dir, fifoConnection); err != nil {
		d.cleanupLocked()
		return err
	}

	d.inited = true
	pkg.LogInfo(pkg.ComponentFIFO, "device bus initialized", "dir", d.dir)
	return nil
}

// Start announces the device to the host and begins answering tokens.
func (d *DeviceBus) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return pkg.ErrClosed
	}
	if !d.inited {
		return fmt.Errorf("%w: not initialized", pkg.ErrNotRunning)
	}
	if d.running {
		return pkg.ErrAlreadyRunning
	}

	var buf [headerSize + sessionLen]byte
	var sess [sessionLen]byte
	marshalSession(sess[:], d.dev.Session())
	n := frameMessage(buf[:], msgAttach, sess[:])
	if _, err := d.conn.Write(buf[:n]); err != nil {
		return fmt.Errorf("announce attach: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.serve(ctx)

	d.running = true
	pkg.LogInfo(pkg.ComponentFIFO, "device bus started",
		"vendorID", fmt.Sprintf("%04x", d.dev.Session().VendorID),
		"productID", fmt.Sprintf("%04x", d.dev.Session().ProductID))
	return nil
}

// Stop announces detach and stops answering tokens. The device
// subdirectory remains so a later Start replugs the device.
func (d *DeviceBus) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return pkg.ErrNotRunning
	}
	d.cancel()
	done := d.done
	d.mu.Unlock()

	<-done

	d.mu.Lock()
	defer d.mu.Unlock()
	var buf [headerSize]byte
	n := frameMessage(buf[:], msgDetach, nil)
	if _, err := d.conn.Write(buf[:n]); err != nil {
		pkg.LogWarn(pkg.ComponentFIFO, "announce detach failed", "error", err)
	}
	d.running = false
	pkg.LogInfo(pkg.ComponentFIFO, "device bus stopped")
	return nil
}

// Close stops the bus if needed and removes the device subdirectory.
func (d *DeviceBus) Close() error {
	var result *multierror.Error
	if err := d.Stop(); err != nil && !errors.Is(err, pkg.ErrNotRunning) {
		result = multierror.Append(result, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return result.ErrorOrNil()
	}
	d.cleanupLocked()
	if d.dir != "" {
		if err := os.RemoveAll(d.dir); err != nil {
			result = multierror.Append(result, err)
		}
	}
	d.inited = false
	d.closed = true
	return result.ErrorOrNil()
}

// cleanupLocked closes all open FIFOs.
func (d *DeviceBus) cleanupLocked() {
	for _, f := range []**os.File{&d.token, &d.resp, &d.conn} {
		if *f != nil {
			(*f).Close()
			*f = nil
		}
	}
}

// serve answers token messages until cancelled. It owns the token and
// response FIFOs; Close waits for it to exit before closing them.
func (d *DeviceBus) serve(ctx context.Context) {
	defer close(d.done)

	var dec decoder
	var tx [maxMessage]byte

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		d.token.SetReadDeadline(time.Now().Add(tokenDeadline))
		n, err := d.token.Read(dec.writable())
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			pkg.LogWarn(pkg.ComponentFIFO, "token read failed", "error", err)
			return
		}
		dec.advance(n)

		for {
			kind, payload, err := dec.next()
			if err != nil {
				pkg.LogWarn(pkg.ComponentFIFO, "token stream corrupt", "error", err)
				break
			}
			if kind == 0 {
				break
			}
			if kind != msgToken || len(payload) < tokenLen {
				pkg.LogWarn(pkg.ComponentFIFO, "unexpected message", "kind", kind)
				continue
			}
			d.answer(payload, tx[:])
		}
	}
}

// answer polls the device for one token and writes the reply. Tokens
// addressed elsewhere and polls the device answers with silence
// produce no reply; the host's timeout path recovers.
func (d *DeviceBus) answer(token []byte, tx []byte) {
	sess := d.dev.Session()
	if phy.PID(token[0]) != phy.PIDIn {
		pkg.LogDebug(pkg.ComponentFIFO, "ignoring token", "pid", phy.PID(token[0]))
		return
	}
	if token[1] != sess.Address || token[2] != sess.Endpoint {
		return
	}

	r := d.dev.Poll()
	var n int
	switch r.PID {
	case 0:
		return
	case phy.PIDNak:
		n = frameMessage(tx, msgNak, nil)
	case phy.PIDStall:
		n = frameMessage(tx, msgStall, nil)
	default:
		var data [maxPayload]byte
		data[0] = byte(r.PID)
		k := copy(data[1:], r.Data)
		n = frameMessage(tx, msgData, data[:1+k])
	}

	// Bound the write so a full pipe (host gone) cannot wedge serve.
	d.resp.SetWriteDeadline(time.Now().Add(tokenDeadline))
	if _, err := d.resp.Write(tx[:n]); err != nil {
		pkg.LogWarn(pkg.ComponentFIFO, "response write failed", "error", err)
	}
}

// createFIFO creates a named pipe, replacing any existing file.
func createFIFO(dir, name string) error {
	path := filepath.Join(dir, name)
	os.Remove(path)
	if err := unix.Mkfifo(path, 0o666); err != nil {
		return fmt.Errorf("mkfifo %s: %w", name, err)
	}
	return nil
}

// openFIFO opens a named pipe read-write and non-blocking.
func openFIFO(dir, name string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}
