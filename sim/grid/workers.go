package grid

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// DefaultWorkers returns the number of physical cores minus one, never less
// than one. Falls back to logical CPUs when physical cores are undetectable.
func DefaultWorkers() int {
	return workersFor(cpuid.CPU.PhysicalCores, runtime.NumCPU())
}

func workersFor(physical, logical int) int {
	cores := physical
	if cores <= 0 {
		cores = logical
	}
	return max(cores-1, 1)
}
