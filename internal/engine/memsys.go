package engine

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// AvailableMemoryMB reports the system's currently available memory. It
// backs the CLI's chunk-size suggestion; the estimator itself stays pure.
func AvailableMemoryMB() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("reading system memory: %w", err)
	}
	return float64(vm.Available) / bytesPerMB, nil
}
