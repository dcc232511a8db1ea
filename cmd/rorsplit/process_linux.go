package main

import (
	"rorsplit/process"
	"rorsplit/process_linux"
)

func newOpener() process.ProcessOpener {
	return process_linux.NewHelper()
}

func saveProcess(pid process.ProcessID, dir string) error {
	p, err := process_linux.NewWithPID(pid)
	if err != nil {
		return err
	}
	defer p.Close()
	return p.Save(dir)
}
