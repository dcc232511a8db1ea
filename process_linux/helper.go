//go:build linux

package process_linux

import (
	"fmt"

	"rorsplit/process"
)

// LinuxProcessHelper implements the process.ProcessOpener interface
type LinuxProcessHelper struct {
	Finder process.ProcessFinder
}

// NewHelper creates a new LinuxProcessHelper
func NewHelper() process.ProcessOpener {
	return &LinuxProcessHelper{
		Finder: NewProcessFinder(),
	}
}

// NewWithPID creates a new Process instance and opens it with the given PID
func (h *LinuxProcessHelper) NewWithPID(pid process.ProcessID) (process.Process, error) {
	p, err := NewWithPID(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OpenProcessByName opens the lowest PID process with the given name
func (h *LinuxProcessHelper) OpenProcessByName(name string) (process.Process, error) {
	processes, err := h.Finder.FindProcessByName(name)
	if err != nil {
		return nil, err
	}

	if len(processes) == 0 {
		return nil, fmt.Errorf("no process found with name '%s'", name)
	}

	return h.NewWithPID(processes[0].PID)
}
