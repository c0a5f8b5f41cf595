package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/hidpoll/pkg"
)

// writeConfig writes text to a fresh config file and returns its path.
func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// === Defaults ===

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.LogLevel(); got != slog.LevelWarn {
		t.Errorf("default level = %v, want warn", got)
	}
	if got := cfg.LogFormat(); got != pkg.LogFormatText {
		t.Errorf("default format = %v, want text", got)
	}
	if cfg.FIFO.Dir == "" {
		t.Error("default fifo dir is empty")
	}
	if cfg.Engine.TickHz != 0 {
		t.Errorf("default tickhz = %d, want 0 (backend native)", cfg.Engine.TickHz)
	}
	if DefaultConfigPath() == "" {
		t.Error("default config path is empty")
	}
}

// === Loading ===

func TestLoadConfigMerge(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
engine:
  tickhz: 2000
usb:
  vendor: "0x16c0"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got := cfg.LogLevel(); got != slog.LevelDebug {
		t.Errorf("level = %v, want debug", got)
	}
	if cfg.Engine.TickHz != 2000 {
		t.Errorf("tickhz = %d, want 2000", cfg.Engine.TickHz)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Log.Format != "text" {
		t.Errorf("format = %q, want default text", cfg.Log.Format)
	}
	if cfg.FIFO.Dir == "" {
		t.Error("fifo dir lost its default")
	}

	vendor, product, err := cfg.VendorProduct()
	if err != nil {
		t.Fatalf("VendorProduct: %v", err)
	}
	if vendor != 0x16C0 || product != 0 {
		t.Errorf("identifiers = %04x:%04x, want 16c0:0000", vendor, product)
	}
}

func TestLoadConfigMissingExplicit(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "log: [unterminated")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, "log:\n  level: noisy\n")
	_, err := LoadConfig(path)
	if !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}
}

// === Validation ===

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"json format", func(c *Config) { c.Log.Format = "json" }, true},
		{"usb match", func(c *Config) { c.USB.Vendor = "16c0"; c.USB.Product = "27db" }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"negative tickhz", func(c *Config) { c.Engine.TickHz = -1 }, false},
		{"empty fifo dir", func(c *Config) { c.FIFO.Dir = "" }, false},
		{"bad vendor", func(c *Config) { c.USB.Vendor = "none" }, false},
		{"vendor too wide", func(c *Config) { c.USB.Product = "12345" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, pkg.ErrInvalidParameter) {
				t.Errorf("Validate() = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

// === Identifiers ===

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
		ok   bool
	}{
		{"16c0", 0x16C0, true},
		{"0x27DB", 0x27DB, true},
		{"0", 0, true},
		{"", 0, false},
		{"zz", 0, false},
		{"12345", 0, false},
	}

	for _, tt := range tests {
		got, err := parseID(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("parseID(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("parseID(%q) = %04x, want %04x", tt.in, got, tt.want)
		}
	}
}

func TestHexIDFlag(t *testing.T) {
	var id hexID
	if got := id.String(); got != "" {
		t.Errorf("unset String() = %q, want empty", got)
	}
	if err := id.Set("not hex"); err == nil {
		t.Error("Set(not hex) = nil, want error")
	}
	if id.set {
		t.Error("failed Set() marked the value as set")
	}
	if err := id.Set("0x16C0"); err != nil {
		t.Fatalf("Set(0x16C0) = %v", err)
	}
	if !id.set || id.val != 0x16C0 {
		t.Errorf("Set(0x16C0) stored %04x, set=%v", id.val, id.set)
	}
	if got := id.String(); got != "16c0" {
		t.Errorf("String() = %q, want 16c0", got)
	}
	if got := id.Type(); got != "hex" {
		t.Errorf("Type() = %q, want hex", got)
	}
}
