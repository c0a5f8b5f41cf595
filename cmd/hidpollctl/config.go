package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/ardnew/hidpoll/pkg"
)

// Config is the hidpollctl configuration file. Fields absent from the
// file keep their defaults; command-line flags override individual
// fields after loading.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
	FIFO   FIFOConfig   `yaml:"fifo"`
	USB    USBConfig    `yaml:"usb"`
}

// LogConfig selects log verbosity and output encoding.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// EngineConfig tunes the polling engine.
type EngineConfig struct {
	// TickHz overrides the engine tick rate. Zero uses the bus
	// backend's native rate.
	TickHz int `yaml:"tickhz"`
}

// FIFOConfig locates the named-pipe bus shared with simulated device
// processes. Host and device must agree on the directory.
type FIFOConfig struct {
	Dir string `yaml:"dir"`
}

// USBConfig narrows the physical device match. Empty identifiers
// match the first Boot-Protocol keyboard found.
type USBConfig struct {
	Vendor  string `yaml:"vendor"`  // hex vendor ID
	Product string `yaml:"product"` // hex product ID
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Log:  LogConfig{Level: "warn", Format: "text"},
		FIFO: FIFOConfig{Dir: filepath.Join(xdg.RuntimeDir, "hidpoll")},
	}
}

// DefaultConfigPath returns the XDG location consulted when --config
// is not given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "hidpoll", "config.yaml")
}

// LoadConfig reads the configuration at path, or at DefaultConfigPath
// when path is empty. A missing file at the default location is not an
// error; the defaults apply unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field against its accepted values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", pkg.ErrInvalidParameter, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", pkg.ErrInvalidParameter, c.Log.Format)
	}
	if c.Engine.TickHz < 0 {
		return fmt.Errorf("%w: tick rate %d", pkg.ErrInvalidParameter, c.Engine.TickHz)
	}
	if c.FIFO.Dir == "" {
		return fmt.Errorf("%w: empty fifo bus directory", pkg.ErrInvalidParameter)
	}
	if c.USB.Vendor != "" {
		if _, err := parseID(c.USB.Vendor); err != nil {
			return err
		}
	}
	if c.USB.Product != "" {
		if _, err := parseID(c.USB.Product); err != nil {
			return err
		}
	}
	return nil
}

// LogLevel maps the configured level name to its slog level.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// LogFormat maps the configured format name to its pkg format.
func (c *Config) LogFormat() pkg.LogFormat {
	if strings.EqualFold(c.Log.Format, "json") {
		return pkg.LogFormatJSON
	}
	return pkg.LogFormatText
}

// VendorProduct parses the configured USB identifiers. Zero values
// mean no filter.
func (c *Config) VendorProduct() (vendor, product uint16, err error) {
	if c.USB.Vendor != "" {
		if vendor, err = parseID(c.USB.Vendor); err != nil {
			return 0, 0, err
		}
	}
	if c.USB.Product != "" {
		if product, err = parseID(c.USB.Product); err != nil {
			return 0, 0, err
		}
	}
	return vendor, product, nil
}

// parseID parses a hexadecimal USB identifier such as "16c0" or
// "0x16c0".
func parseID(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: USB identifier %q", pkg.ErrInvalidParameter, s)
	}
	return uint16(v), nil
}
