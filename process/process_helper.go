package process

// ProcessOpener opens a process for reading
type ProcessOpener interface {
	// OpenProcessByName opens a process by its name (returns the lowest PID match)
	OpenProcessByName(name string) (Process, error)

	// NewWithPID opens the process with the given PID
	NewWithPID(pid ProcessID) (Process, error)
}
