package process

import (
	"rorsplit/process/memory_map"
)

// Process is the interface that defines read-only operations on a system process.
// Implementations never write to the target.
type Process interface {
	// GetPID returns the process ID
	GetPID() ProcessID

	// Close closes the process and releases resources
	Close() error

	// IsRunning reports whether the target still exists
	IsRunning() bool

	// UpdateMemoryMap refreshes the memory map for the process
	UpdateMemoryMap() error

	// IsValidAddress checks if the given memory address is valid and readable
	IsValidAddress(addr ProcessMemoryAddress) bool

	// GetMemoryMap returns a copy of the current memory map
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)

	// ReadMemory reads memory from the process at the specified address
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)
}
