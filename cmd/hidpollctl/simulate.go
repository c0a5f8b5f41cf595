package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ardnew/hidpoll/hid"
	"github.com/ardnew/hidpoll/host/phy/fifo"
	"github.com/ardnew/hidpoll/host/phy/sim"
	"github.com/ardnew/hidpoll/pkg"
)

var (
	simulateBus         string
	simulateText        string
	simulateInteractive bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Attach a simulated keyboard to the named-pipe bus",
	Long: `Simulate publishes a Boot-Protocol keyboard on the named-pipe bus
and answers the polls of a host process such as the monitor command.

With --text the given string is typed as press/release report pairs and
the device then idles, attached, until interrupted. With --interactive
terminal keystrokes are forwarded as they are typed; Ctrl-C detaches.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		return runSimulate(cfg)
	},
}

func runSimulate(cfg Config) error {
	dir := simulateBus
	if dir == "" {
		dir = cfg.FIFO.Dir
	}

	kbd := sim.NewKeyboard()
	bus := fifo.NewDeviceBus(dir, kbd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bus.Init(ctx); err != nil {
		return err
	}
	defer bus.Close()
	if err := bus.Start(); err != nil {
		return err
	}

	s := kbd.Session()
	pkg.LogInfo(component, "keyboard attached",
		"dir", bus.Dir(), "address", s.Address, "endpoint", s.Endpoint)

	if simulateText != "" {
		if err := kbd.Type(simulateText); err != nil {
			return err
		}
		pkg.LogInfo(component, "queued text", "chars", len(simulateText))
	}

	if simulateInteractive {
		return interactLoop(ctx, kbd)
	}

	<-ctx.Done()
	return nil
}

// interactLoop forwards terminal keystrokes to the keyboard model as
// press/release report pairs until Ctrl-C or Ctrl-D arrives or ctx is
// canceled. Characters with no keycode are dropped silently.
func interactLoop(ctx context.Context, kbd *sim.Keyboard) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("%w: --interactive needs a terminal on stdin", pkg.ErrInvalidParameter)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	// Raw mode: \r\n, since the terminal no longer expands newlines.
	fmt.Print("forwarding keystrokes, Ctrl-C to detach\r\n")

	var buf [1]byte
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := os.Stdin.Read(buf[:])
		if err != nil || n == 0 {
			return err
		}
		ch := buf[0]
		if ch == 0x03 || ch == 0x04 {
			return nil
		}
		code, shifted, ok := hid.CharKey(ch)
		if !ok {
			continue
		}
		var mods uint8
		if shifted {
			mods = hid.ModLeftShift
		}
		kbd.Press(mods, code)
		kbd.Release()
	}
}
