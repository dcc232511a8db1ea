package main

import (
	"rorsplit/process"
	"rorsplit/process_windows"
)

func newOpener() process.ProcessOpener {
	return process_windows.NewHelper()
}

func saveProcess(pid process.ProcessID, dir string) error {
	p, err := process_windows.NewWithPID(pid)
	if err != nil {
		return err
	}
	defer p.Close()
	return p.Save(dir)
}
