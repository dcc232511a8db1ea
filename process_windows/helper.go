//go:build windows

package process_windows

import (
	"fmt"

	"rorsplit/process"
)

// WindowsProcessHelper implements the process.ProcessOpener interface
type WindowsProcessHelper struct {
	Finder process.ProcessFinder
}

func NewHelper() process.ProcessOpener {
	return &WindowsProcessHelper{
		Finder: NewProcessFinder(),
	}
}

func (h *WindowsProcessHelper) NewWithPID(pid process.ProcessID) (process.Process, error) {
	p, err := NewWithPID(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OpenProcessByName opens the lowest PID process with the given name
func (h *WindowsProcessHelper) OpenProcessByName(name string) (process.Process, error) {
	processes, err := h.Finder.FindProcessByName(name)
	if err != nil {
		return nil, err
	}

	if len(processes) == 0 {
		return nil, fmt.Errorf("no process found with name '%s'", name)
	}

	return h.NewWithPID(processes[0].PID)
}
