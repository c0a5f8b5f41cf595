package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"

	"github.com/ardnew/hidpoll/pkg"
)

// ErrCPUActive is returned by StartCPU while a capture is running.
var ErrCPUActive = errors.New("cpu profile already active")

var (
	cpuMu   sync.Mutex
	cpuFile *os.File
)

// StartCPU begins writing a CPU profile to path. Only one capture may
// run per process; stop it with StopCPU.
func StartCPU(path string) error {
	cpuMu.Lock()
	defer cpuMu.Unlock()

	if cpuFile != nil {
		return ErrCPUActive
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	cpuFile = f
	return nil
}

// StopCPU flushes and closes the active CPU profile. It is a no-op
// when no capture is running.
func StopCPU() {
	cpuMu.Lock()
	defer cpuMu.Unlock()

	if cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	cpuFile.Close()
	cpuFile = nil
}

// WriteHeap runs a garbage collection and writes the heap profile to
// path, so the snapshot reflects live allocations.
func WriteHeap(path string) error {
	runtime.GC()
	return Write("heap", path)
}

// Write writes the named runtime profile to path. Names are those
// understood by [pprof.Lookup]: "heap", "allocs", "goroutine",
// "threadcreate", "block", and "mutex". CPU profiling is a capture,
// not a snapshot; use StartCPU and StopCPU.
func Write(name, path string) error {
	p := pprof.Lookup(name)
	if p == nil {
		return fmt.Errorf("%w: unknown profile %q", pkg.ErrInvalidParameter, name)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.WriteTo(f, 0)
}
