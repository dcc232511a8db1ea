//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unsafe"

	"rorsplit/process"

	"golang.org/x/sys/windows"
)

var _ process.ProcessFinder = (*WindowsProcessFinder)(nil)

// WindowsProcessFinder lists processes with a toolhelp snapshot
type WindowsProcessFinder struct{}

func NewProcessFinder() process.ProcessFinder {
	return &WindowsProcessFinder{}
}

func (f *WindowsProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	var found *process.ProcessInfo
	err := eachProcess(func(info process.ProcessInfo) bool {
		if info.PID == pid {
			found = &info
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("process %d not found", pid)
	}
	return found, nil
}

func (f *WindowsProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	self := process.ProcessID(os.Getpid())
	var out []process.ProcessInfo
	err := eachProcess(func(info process.ProcessInfo) bool {
		if info.PID != self && strings.EqualFold(info.Name, name) {
			out = append(out, info)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PID < out[j].PID
	})
	return out, nil
}

func eachProcess(fn func(process.ProcessInfo) bool) error {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snapshot, &entry); err == nil; err = windows.Process32Next(snapshot, &entry) {
		exe := windows.UTF16ToString(entry.ExeFile[:])
		if !fn(process.ProcessInfo{PID: process.ProcessID(entry.ProcessID), Name: exe, Exe: exe}) {
			return nil
		}
	}
	if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return nil
	}
	return err
}
