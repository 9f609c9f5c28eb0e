// Package parallel splits independent row-wise work across goroutines.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled
	NumWorkers   int  // Maximum number of goroutines
	MinChunkSize int  // Minimum rows per goroutine to avoid overhead
}

// DefaultConfig returns defaults sized to the physical core count, falling
// back to the logical CPU count when it cannot be detected.
func DefaultConfig() Config {
	n := cpuid.CPU.PhysicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 32,
	}
}

var defaultConfig = DefaultConfig()

// Range calls f on contiguous, non-overlapping chunks [lo, hi) covering
// [0, n). Chunks run concurrently unless parallelism is disabled or n is
// smaller than two chunks; f must only touch rows in its own chunk.
func Range(n int, cfg Config, f func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*cfg.MinChunkSize {
		f(0, n)
		return
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(start, end)
	}
	wg.Wait()
}

// Rows is Range with the package default configuration.
func Rows(n int, f func(lo, hi int)) {
	Range(n, defaultConfig, f)
}

// CPUInfo describes the host processor.
type CPUInfo struct {
	Brand         string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	FMA3          bool
}

// DetectCPU reports the host processor's name, core counts and the SIMD
// extensions gonum's assembly kernels benefit from.
func DetectCPU() CPUInfo {
	return CPUInfo{
		Brand:         cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		FMA3:          cpuid.CPU.Supports(cpuid.FMA3),
	}
}
