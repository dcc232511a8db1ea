//go:build linux

package process_linux

import (
	"rorsplit/process_blob"
)

// Save writes the readable memory of the process to dirname, see
// process_blob.Save
func (p *LinuxProcess) Save(dirname string) error {
	name := "unknown"
	if info, err := getProcessInfo(p.GetPID()); err == nil {
		name = info.Name
	}
	return process_blob.Save(p, name, dirname)
}
