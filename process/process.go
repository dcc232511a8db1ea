// Package process provides interfaces and types for reading the memory of
// another process
package process

import "errors"

// The types are split across files:
// - types.go: ProcessID, ProcessInfo
// - memory_types.go: ProcessMemoryAddress, ProcessMemorySize, AOB
// - process_interface.go: Process interface
// - process_finder.go: ProcessFinder interface
// - process_helper.go: ProcessOpener interface
// - path.go: typed reads, pointer paths and module lookup

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	ErrInvalidPointer = errors.New("invalid pointer read")

	// ErrModuleNotFound is returned when no mapping of the process belongs to the named module.
	ErrModuleNotFound = errors.New("module not found")
)
