package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ardnew/hidpoll/hid"
	"github.com/ardnew/hidpoll/host"
	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/host/phy/fifo"
	"github.com/ardnew/hidpoll/host/phy/libusb"
	"github.com/ardnew/hidpoll/host/phy/sim"
	"github.com/ardnew/hidpoll/pkg"
	"github.com/ardnew/hidpoll/pkg/prof"
	"github.com/ardnew/hidpoll/pkg/usbid"
)

var (
	monitorSim        bool
	monitorBus        string
	monitorUSB        bool
	monitorVendor     hexID
	monitorProduct    hexID
	monitorDuration   time.Duration
	monitorStatus     time.Duration
	monitorMouse      bool
	monitorCPUProfile string
	monitorMemProfile string
)

// usbIDs resolves session identity to display names, loading the
// usb.ids database the first time a device attaches.
var usbIDs = usbid.New()

// hexID is a flag value holding one 16-bit hex identifier, so a bad
// value fails at flag parse time.
type hexID struct {
	val uint16
	set bool
}

var _ pflag.Value = (*hexID)(nil)

func (h *hexID) Set(s string) error {
	v, err := parseID(s)
	if err != nil {
		return err
	}
	h.val, h.set = v, true
	return nil
}

func (h *hexID) String() string {
	if !h.set {
		return ""
	}
	return fmt.Sprintf("%04x", h.val)
}

func (h *hexID) Type() string { return "hex" }

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll a keyboard and print reports as they change",
	Long: `Monitor polls one HID device and prints each decoded report once,
when it differs from the report before it. Without a backend flag the
named-pipe bus from the configuration is polled; attach a device to it
with the simulate command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		return runMonitor(cfg)
	},
}

func runMonitor(cfg Config) error {
	if monitorCPUProfile != "" {
		if err := prof.StartCPU(monitorCPUProfile); err != nil {
			return err
		}
		defer prof.StopCPU()
	}
	if monitorMemProfile != "" {
		defer func() {
			if err := prof.WriteHeap(monitorMemProfile); err != nil {
				pkg.LogError(component, "heap profile not written", "err", err)
			}
		}()
	}

	bus, err := monitorBackend(cfg)
	if err != nil {
		return err
	}

	p, err := host.NewPoller(bus, nil, host.Config{TickHz: cfg.Engine.TickHz})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if monitorDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, monitorDuration)
		defer cancel()
	}

	if err := p.Start(ctx); err != nil {
		return err
	}
	defer p.Close()
	p.Enable(true)

	var statusC <-chan time.Time
	if monitorStatus > 0 {
		ticker := time.NewTicker(monitorStatus)
		defer ticker.Stop()
		statusC = ticker.C
	}

	var watchC <-chan time.Time
	src, haveSrc := bus.(phy.SessionSource)
	if haveSrc {
		watch := time.NewTicker(250 * time.Millisecond)
		defer watch.Stop()
		watchC = watch.C
	}

	start := time.Now()
	var last hid.Report
	seen := false
	var session phy.Session
	attached := false

	for {
		select {
		case <-ctx.Done():
			printStatus(p, time.Since(start))
			return nil
		case r := <-p.Reports():
			if seen && r.Equal(&last) {
				continue
			}
			printReport(time.Since(start), &r)
			last, seen = r, true
		case <-watchC:
			s, ok := src.Session()
			switch {
			case ok && (!attached || s != session):
				printSession(time.Since(start), &s)
			case !ok && attached:
				fmt.Printf("%9.3f  detached\n", time.Since(start).Seconds())
			}
			session, attached = s, ok
		case <-statusC:
			printStatus(p, time.Since(start))
		}
	}
}

// monitorBackend builds the bus selected by the backend flags.
func monitorBackend(cfg Config) (phy.PHY, error) {
	n := 0
	for _, set := range []bool{monitorSim, monitorUSB, monitorBus != ""} {
		if set {
			n++
		}
	}
	if n > 1 {
		return nil, fmt.Errorf("%w: --sim, --usb, and --bus are mutually exclusive", pkg.ErrInvalidParameter)
	}

	switch {
	case monitorSim:
		bus := sim.NewBus(sim.DefaultBusConfig())
		bus.Attach(sim.NewKeyboard())
		pkg.LogInfo(component, "monitoring simulated keyboard")
		return bus, nil

	case monitorUSB:
		vendor, product, err := cfg.VendorProduct()
		if err != nil {
			return nil, err
		}
		if monitorVendor.set {
			vendor = monitorVendor.val
		}
		if monitorProduct.set {
			product = monitorProduct.val
		}
		ucfg := libusb.DefaultConfig()
		ucfg.VendorID = vendor
		ucfg.ProductID = product
		pkg.LogInfo(component, "monitoring physical keyboard",
			"vendorID", fmt.Sprintf("%04x", vendor),
			"productID", fmt.Sprintf("%04x", product))
		return libusb.NewBus(ucfg), nil

	default:
		dir := monitorBus
		if dir == "" {
			dir = cfg.FIFO.Dir
		}
		pkg.LogInfo(component, "monitoring named-pipe bus", "dir", dir)
		return fifo.NewHostBus(dir, fifo.DefaultConfig()), nil
	}
}

// printSession writes one device identity line to stdout, with names
// from the usb.ids database when it knows the device.
func printSession(elapsed time.Duration, s *phy.Session) {
	id := fmt.Sprintf("%04x:%04x", s.VendorID, s.ProductID)
	if vendor, product := usbIDs.Names(s.VendorID, s.ProductID); vendor != "" {
		id += "  " + vendor
		if product != "" {
			id += " " + product
		}
	}
	fmt.Printf("%9.3f  attached %s  addr=%d ep=%d mps=%d interval=%d %s\n",
		elapsed.Seconds(), id, s.Address, s.Endpoint, s.MaxPacketSize, s.Interval, s.Speed)
}

// printReport writes one decoded report line to stdout.
func printReport(elapsed time.Duration, r *hid.Report) {
	if monitorMouse {
		var m hid.MouseReport
		if !hid.DecodeMouseReport(r.Data[:r.Len], &m) {
			fmt.Printf("%9.3f  short report  % x\n", elapsed.Seconds(), r.Data[:r.Len])
			return
		}
		fmt.Printf("%9.3f  buttons=%03b dx=%+d dy=%+d wheel=%+d\n",
			elapsed.Seconds(), m.Buttons, m.X, m.Y, m.Wheel)
		return
	}
	fmt.Printf("%9.3f  %-24s  % x\n", elapsed.Seconds(), formatKeys(r), r.Data[:r.Len])
}

// formatKeys renders the active modifiers and keys, "LCTRL+LSHIFT A"
// style.
func formatKeys(r *hid.Report) string {
	mods := hid.ModifierNames(r.Modifiers)
	var keys []string
	for _, code := range r.Pressed() {
		keys = append(keys, hid.KeyName(code))
	}
	switch {
	case len(mods) == 0 && len(keys) == 0:
		return "(idle)"
	case len(keys) == 0:
		return strings.Join(mods, "+")
	case len(mods) == 0:
		return strings.Join(keys, " ")
	}
	return strings.Join(mods, "+") + " " + strings.Join(keys, " ")
}

// printStatus writes one engine status line to stdout.
func printStatus(p *host.Poller, elapsed time.Duration) {
	c := p.Counters()
	fmt.Printf("%9.3f  state=%s status=[%s] polls=%d reports=%d naks=%d timeouts=%d stalls=%d resets=%d\n",
		elapsed.Seconds(), p.State(), p.Status(),
		c.Polls, c.Reports, c.NAKs, c.Timeouts, c.Stalls, c.WatchdogResets)
}
