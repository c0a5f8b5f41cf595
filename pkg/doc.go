// Package pkg provides shared utilities for the hidpoll engine.
//
// This package contains common functionality used across the polling
// engine, its bus backends, and the command-line tools, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for polling and bus faults
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with engine-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentEngine, "poll fired", "interval", 8)
//
// # Errors
//
// Common polling faults are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrStall) {
//	    // Handle endpoint stall
//	}
package pkg
