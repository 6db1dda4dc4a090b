// Package workers sizes worker pools from the available CPU count.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the worker count for a task type. GOMAXPROCS reflects
// container CPU limits (Go 1.19+), so the result respects cgroup quotas.
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound,
// 2.0 for I/O-bound. limit caps the result; 0 means no cap. The
// RENDER_WORKERS environment variable overrides everything.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("RENDER_WORKERS"); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			if limit > 0 && n > limit {
				return limit
			}
			return n
		}
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForCPU returns the worker count for CPU-bound work such as rendering.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the worker count for I/O-bound work such as thumbnailing
// from disk.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
