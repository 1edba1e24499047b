package util

import "runtime"

// DefaultParallelism sizes worker and parser pools for parse-heavy
// workloads: twice the CPU count so goroutines blocked in CGO calls
// don't idle a core, floored at 4 and capped at 32 to bound per-parser
// memory on large machines.
func DefaultParallelism() int {
	n := runtime.NumCPU() * 2
	if n < 4 {
		return 4
	}
	if n > 32 {
		return 32
	}
	return n
}
