// Package prof captures runtime profiles to files for offline
// analysis with go tool pprof.
//
// CPU capture brackets a run:
//
//	prof.StartCPU("cpu.prof")
//	defer prof.StopCPU()
//
// The other profile kinds are point-in-time snapshots written with
// [Write] or [WriteHeap].
package prof
