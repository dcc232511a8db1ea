//go:build !linux && !windows

package main

import (
	"fmt"
	"runtime"

	"rorsplit/process"
)

var errUnsupported = fmt.Errorf("reading process memory is not supported on %s", runtime.GOOS)

type unsupportedOpener struct{}

func (unsupportedOpener) OpenProcessByName(string) (process.Process, error) {
	return nil, errUnsupported
}

func (unsupportedOpener) NewWithPID(process.ProcessID) (process.Process, error) {
	return nil, errUnsupported
}

func newOpener() process.ProcessOpener {
	return unsupportedOpener{}
}

func saveProcess(process.ProcessID, string) error {
	return errUnsupported
}
