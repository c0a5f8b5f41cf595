package fifo

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardnew/hidpoll/hid"
	"github.com/ardnew/hidpoll/host"
	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/host/phy/sim"
	"github.com/ardnew/hidpoll/pkg"
)

// feed pushes p into dec in writable-sized chunks.
func feed(d *decoder, p []byte) {
	for len(p) > 0 {
		k := copy(d.writable(), p)
		d.advance(k)
		p = p[k:]
	}
}

// pumpUntil steps the host bus until cond holds.
func pumpUntil(t *testing.T, b *HostBus, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for !cond() {
		if _, err := b.Step(ctx, phy.Outputs{}); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
}

// === Wire protocol ===

func TestSessionWire(t *testing.T) {
	want := phy.Session{
		Address:       7,
		Endpoint:      2,
		MaxPacketSize: 8,
		Speed:         phy.SpeedFull,
		Interval:      10,
		VendorID:      0x16C0,
		ProductID:     0x27DB,
	}

	var buf [sessionLen]byte
	if n := marshalSession(buf[:], want); n != sessionLen {
		t.Fatalf("marshalSession wrote %d bytes, want %d", n, sessionLen)
	}
	got, err := unmarshalSession(buf[:])
	if err != nil {
		t.Fatalf("unmarshalSession failed: %v", err)
	}
	if got != want {
		t.Errorf("session = %+v, want %+v", got, want)
	}

	if _, err := unmarshalSession(buf[:sessionLen-1]); !errors.Is(err, pkg.ErrProtocol) {
		t.Errorf("short payload error = %v, want %v", err, pkg.ErrProtocol)
	}
}

func TestDecoderReassembly(t *testing.T) {
	payload := []byte{byte(phy.PIDData0), 1, 2, 3}
	var msg [maxMessage]byte
	n := frameMessage(msg[:], msgData, payload)

	// A reader may split a message at any byte boundary.
	for cut := 0; cut <= n; cut++ {
		var d decoder
		feed(&d, msg[:cut])
		feed(&d, msg[cut:n])

		kind, got, err := d.next()
		if err != nil {
			t.Fatalf("cut %d: next failed: %v", cut, err)
		}
		if kind != msgData || !bytes.Equal(got, payload) {
			t.Fatalf("cut %d: kind %#02x payload %v, want %#02x %v", cut, kind, got, msgData, payload)
		}
		if kind, _, _ := d.next(); kind != 0 {
			t.Fatalf("cut %d: unexpected trailing message %#02x", cut, kind)
		}
	}
}

func TestDecoderConcatenated(t *testing.T) {
	var stream [3 * maxMessage]byte
	n := frameMessage(stream[:], msgNak, nil)
	n += frameMessage(stream[n:], msgData, []byte{byte(phy.PIDData1), 9})
	n += frameMessage(stream[n:], msgStall, nil)

	var d decoder
	feed(&d, stream[:n])

	wantKinds := []byte{msgNak, msgData, msgStall}
	for i, want := range wantKinds {
		kind, _, err := d.next()
		if err != nil {
			t.Fatalf("message %d: next failed: %v", i, err)
		}
		if kind != want {
			t.Errorf("message %d: kind %#02x, want %#02x", i, kind, want)
		}
	}
	if kind, _, _ := d.next(); kind != 0 {
		t.Errorf("unexpected trailing message %#02x", kind)
	}
}

func TestDecoderCorruptLength(t *testing.T) {
	var d decoder
	feed(&d, []byte{msgData, 0xFF, 0xFF})

	if _, _, err := d.next(); !errors.Is(err, pkg.ErrProtocol) {
		t.Fatalf("corrupt length error = %v, want %v", err, pkg.ErrProtocol)
	}
	if d.n != 0 {
		t.Errorf("decoder kept %d bytes after corruption, want 0", d.n)
	}
}

// === Device bus ===

func TestDeviceBus_Lifecycle(t *testing.T) {
	busDir := t.TempDir()
	dev := NewDeviceBus(busDir, sim.NewKeyboard())
	ctx := context.Background()

	if err := dev.Start(); !errors.Is(err, pkg.ErrNotRunning) {
		t.Errorf("Start before Init error = %v, want %v", err, pkg.ErrNotRunning)
	}
	if err := dev.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := dev.Init(ctx); !errors.Is(err, pkg.ErrAlreadyRunning) {
		t.Errorf("second Init error = %v, want %v", err, pkg.ErrAlreadyRunning)
	}

	dir := dev.Dir()
	for _, name := range []string{fifoToken, fifoResponse, fifoConnection} {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if fi.Mode()&os.ModeNamedPipe == 0 {
			t.Errorf("%s is not a named pipe", name)
		}
	}

	if err := dev.Stop(); !errors.Is(err, pkg.ErrNotRunning) {
		t.Errorf("Stop before Start error = %v, want %v", err, pkg.ErrNotRunning)
	}
	if err := dev.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := dev.Start(); !errors.Is(err, pkg.ErrAlreadyRunning) {
		t.Errorf("second Start error = %v, want %v", err, pkg.ErrAlreadyRunning)
	}
	if err := dev.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if err := dev.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("device dir still present after Close")
	}
	if err := dev.Init(ctx); !errors.Is(err, pkg.ErrClosed) {
		t.Errorf("Init after Close error = %v, want %v", err, pkg.ErrClosed)
	}
}

// === Host bus ===

func TestHostBus_Lifecycle(t *testing.T) {
	b := NewHostBus(t.TempDir(), Config{})
	ctx := context.Background()

	if _, err := b.Step(ctx, phy.Outputs{}); !errors.Is(err, pkg.ErrNotRunning) {
		t.Errorf("Step before Start error = %v, want %v", err, pkg.ErrNotRunning)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := b.Start(); !errors.Is(err, pkg.ErrAlreadyRunning) {
		t.Errorf("second Start error = %v, want %v", err, pkg.ErrAlreadyRunning)
	}

	in, err := b.Step(ctx, phy.Outputs{})
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !in.TokenReady {
		t.Error("TokenReady deasserted with no device")
	}
	if _, ok := b.Session(); ok {
		t.Error("Session reported a device on an empty bus")
	}

	if err := b.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Errorf("second Stop error = %v, want nil", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := b.Start(); !errors.Is(err, pkg.ErrClosed) {
		t.Errorf("Start after Close error = %v, want %v", err, pkg.ErrClosed)
	}
}

func TestHostBus_AttachDetach(t *testing.T) {
	busDir := t.TempDir()
	ctx := context.Background()

	kbd := sim.NewKeyboard()
	dev := NewDeviceBus(busDir, kbd)
	if err := dev.Init(ctx); err != nil {
		t.Fatalf("device Init failed: %v", err)
	}
	if err := dev.Start(); err != nil {
		t.Fatalf("device Start failed: %v", err)
	}
	defer dev.Close()

	b := NewHostBus(busDir, Config{})
	if err := b.Init(ctx); err != nil {
		t.Fatalf("host Init failed: %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("host Start failed: %v", err)
	}
	defer b.Close()

	pumpUntil(t, b, func() bool { _, ok := b.Session(); return ok })

	got, _ := b.Session()
	want := kbd.Session()
	if got != want {
		t.Errorf("attached session = %+v, want %+v", got, want)
	}

	// Detach announcement drops the session; replug restores it.
	if err := dev.Stop(); err != nil {
		t.Fatalf("device Stop failed: %v", err)
	}
	pumpUntil(t, b, func() bool { _, ok := b.Session(); return !ok })

	if err := dev.Start(); err != nil {
		t.Fatalf("device restart failed: %v", err)
	}
	pumpUntil(t, b, func() bool { _, ok := b.Session(); return ok })
}

func TestHostBus_DeviceDirRemoved(t *testing.T) {
	busDir := t.TempDir()
	ctx := context.Background()

	dev := NewDeviceBus(busDir, sim.NewKeyboard())
	if err := dev.Init(ctx); err != nil {
		t.Fatalf("device Init failed: %v", err)
	}
	if err := dev.Start(); err != nil {
		t.Fatalf("device Start failed: %v", err)
	}
	defer dev.Close()

	b := NewHostBus(busDir, Config{})
	if err := b.Init(ctx); err != nil {
		t.Fatalf("host Init failed: %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("host Start failed: %v", err)
	}
	defer b.Close()

	pumpUntil(t, b, func() bool { _, ok := b.Session(); return ok })

	// Removing the subdirectory outright, as a killed device process
	// leaves it, must also drop the session: no detach message arrives.
	if err := os.RemoveAll(dev.Dir()); err != nil {
		t.Fatalf("remove device dir: %v", err)
	}
	pumpUntil(t, b, func() bool { _, ok := b.Session(); return !ok })
}

// === End to end through the engine ===

func TestFIFO_TypingReachesHost(t *testing.T) {
	busDir := t.TempDir()
	ctx := context.Background()

	kbd := sim.NewKeyboard()
	dev := NewDeviceBus(busDir, kbd)
	if err := dev.Init(ctx); err != nil {
		t.Fatalf("device Init failed: %v", err)
	}
	if err := dev.Start(); err != nil {
		t.Fatalf("device Start failed: %v", err)
	}
	defer dev.Close()

	if err := kbd.Type("hi"); err != nil {
		t.Fatalf("Type failed: %v", err)
	}

	bus := NewHostBus(busDir, DefaultConfig())
	poller, err := host.NewPoller(bus, nil, host.Config{})
	if err != nil {
		t.Fatalf("NewPoller failed: %v", err)
	}
	reports := make(chan hid.Report, 16)
	poller.SetOnReport(func(r hid.Report) { reports <- r })

	if err := poller.Start(ctx); err != nil {
		t.Fatalf("poller Start failed: %v", err)
	}
	defer poller.Close()
	poller.Enable(true)

	var text []byte
	deadline := time.After(5 * time.Second)
	for len(text) < 2 {
		select {
		case r := <-reports:
			if r.Empty() {
				continue
			}
			ch, ok := hid.KeyChar(r.Keys[0], r.Modifiers&hid.ModShift != 0)
			if !ok {
				t.Fatalf("no character for key %#02x", r.Keys[0])
			}
			text = append(text, ch)
		case <-deadline:
			t.Fatalf("typed %q before deadline, want %q", text, "hi")
		}
	}
	if string(text) != "hi" {
		t.Errorf("typed %q, want %q", text, "hi")
	}
	if n := poller.PollCount(); n < 4 {
		t.Errorf("PollCount = %d, want at least 4", n)
	}
}
