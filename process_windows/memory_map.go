//go:build windows

package process_windows

import (
	"path/filepath"
	"unsafe"

	"rorsplit/process/memory_map"

	"golang.org/x/sys/windows"
)

// page protection values of VirtualQueryEx
const (
	pageNoAccess         = 0x01
	pageReadOnly         = 0x02
	pageReadWrite        = 0x04
	pageWriteCopy        = 0x08
	pageExecute          = 0x10
	pageExecuteRead      = 0x20
	pageExecuteReadWrite = 0x40
	pageExecuteWriteCopy = 0x80
	pageGuard            = 0x100

	memCommit = 0x1000

	// top of the user address space on x64
	maxUserAddress = 0x7FFFFFFEFFFF
)

// queryRegions walks the address space with VirtualQueryEx and returns the
// committed regions with /proc/pid/maps style permissions
func queryRegions(handle windows.Handle) ([]memory_map.MemoryMapItem, error) {
	var (
		mm   []memory_map.MemoryMapItem
		info windows.MemoryBasicInformation
		addr uintptr
	)
	for addr < maxUserAddress {
		if err := windows.VirtualQueryEx(handle, addr, &info, unsafe.Sizeof(info)); err != nil {
			if len(mm) == 0 {
				return nil, err
			}
			break
		}
		if info.RegionSize == 0 {
			break
		}
		if info.State == memCommit {
			mm = append(mm, memory_map.MemoryMapItem{
				Address: uint64(info.BaseAddress),
				Size:    uint(info.RegionSize),
				Perms:   protectPerms(info.Protect),
			})
		}
		addr = info.BaseAddress + info.RegionSize
	}
	return mm, nil
}

func protectPerms(protect uint32) string {
	if protect&pageGuard != 0 || protect&pageNoAccess != 0 {
		return "---p"
	}
	switch protect &^ 0x700 {
	case pageReadOnly:
		return "r--p"
	case pageReadWrite, pageWriteCopy:
		return "rw-p"
	case pageExecute:
		return "--xp"
	case pageExecuteRead:
		return "r-xp"
	case pageExecuteReadWrite, pageExecuteWriteCopy:
		return "rwxp"
	}
	return "---p"
}

type module struct {
	path string
	base uint64
	size uint64
}

func listModules(handle windows.Handle) ([]module, error) {
	var needed uint32
	handles := make([]windows.Handle, 1024)
	for {
		cb := uint32(len(handles)) * uint32(unsafe.Sizeof(handles[0]))
		if err := windows.EnumProcessModulesEx(handle, &handles[0], cb, &needed, windows.LIST_MODULES_ALL); err != nil {
			return nil, err
		}
		if needed <= cb {
			break
		}
		handles = make([]windows.Handle, needed/uint32(unsafe.Sizeof(handles[0])))
	}
	handles = handles[:needed/uint32(unsafe.Sizeof(handles[0]))]

	modules := make([]module, 0, len(handles))
	name := make([]uint16, windows.MAX_PATH)
	for _, h := range handles {
		var info windows.ModuleInfo
		if err := windows.GetModuleInformation(handle, h, &info, uint32(unsafe.Sizeof(info))); err != nil {
			continue
		}
		if err := windows.GetModuleFileNameEx(handle, h, &name[0], uint32(len(name))); err != nil {
			continue
		}
		modules = append(modules, module{
			path: filepath.Clean(windows.UTF16ToString(name)),
			base: uint64(info.BaseOfDll),
			size: uint64(info.SizeOfImage),
		})
	}
	return modules, nil
}

// nameRegions sets Path on the regions inside a module image
func nameRegions(mm []memory_map.MemoryMapItem, modules []module) {
	for i := range mm {
		for _, m := range modules {
			if mm[i].Address >= m.base && mm[i].Address < m.base+m.size {
				mm[i].Path = m.path
				break
			}
		}
	}
}
