package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/hidpoll/pkg"
)

// component identifies this executable for structured logging.
const component = pkg.ComponentCtl

var rootCmd = &cobra.Command{
	Use:   "hidpollctl",
	Short: "hidpollctl drives and observes a Boot-Protocol HID polling host",
	Long: `hidpollctl polls Boot-Protocol HID keyboards the way a USB host
controller does: periodic interrupt IN tokens, NAK and timeout
tolerance, and automatic recovery from unresponsive devices.

Reports can come from a physical keyboard (libusb), from a simulated
device process on a named-pipe bus, or from an in-process device model.
The simulate command provides the device side of the named-pipe bus.`,
	SilenceUsage: true,
}

var (
	flagConfig  string
	flagVerbose bool
	flagJSON    bool
)

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Write logs as JSON")

	monitorCmd.Flags().BoolVar(&monitorSim, "sim", false, "Poll an in-process simulated keyboard")
	monitorCmd.Flags().StringVar(&monitorBus, "bus", "", "Poll a device process on this named-pipe bus directory")
	monitorCmd.Flags().BoolVar(&monitorUSB, "usb", false, "Poll a physical keyboard via libusb")
	monitorCmd.Flags().Var(&monitorVendor, "vendor", "Match this hex vendor ID (with --usb)")
	monitorCmd.Flags().Var(&monitorProduct, "product", "Match this hex product ID (with --usb)")
	monitorCmd.Flags().DurationVarP(&monitorDuration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
	monitorCmd.Flags().DurationVar(&monitorStatus, "status", 5*time.Second, "Interval between status lines (0 disables)")
	monitorCmd.Flags().BoolVar(&monitorMouse, "mouse", false, "Decode reports as a boot mouse")
	monitorCmd.Flags().StringVar(&monitorCPUProfile, "cpuprofile", "", "Write a CPU profile to this file")
	monitorCmd.Flags().StringVar(&monitorMemProfile, "memprofile", "", "Write a heap profile to this file on exit")
	rootCmd.AddCommand(monitorCmd)

	simulateCmd.Flags().StringVar(&simulateBus, "bus", "", "Named-pipe bus directory to attach to")
	simulateCmd.Flags().StringVarP(&simulateText, "text", "t", "", "Type this text, then idle")
	simulateCmd.Flags().BoolVarP(&simulateInteractive, "interactive", "i", false, "Forward terminal keystrokes")
	rootCmd.AddCommand(simulateCmd)

	rootCmd.AddCommand(keysCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and applies the logging flags.
func setup() (Config, error) {
	cfg, err := LoadConfig(flagConfig)
	if err != nil {
		return Config{}, err
	}

	level := cfg.LogLevel()
	if flagVerbose {
		level = slog.LevelDebug
	}
	pkg.SetLogLevel(level)

	format := cfg.LogFormat()
	if flagJSON {
		format = pkg.LogFormatJSON
	}
	pkg.SetLogFormat(format)

	return cfg, nil
}
