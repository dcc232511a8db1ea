package memory_map

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint   // The size of the memory region in bytes
	Perms   string // Permissions (e.g., "r-xp" for read, execute, private)
	Path    string // Backing file, empty for anonymous mappings
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Path)
}

// End returns the first address after the region
func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

// MemoryMap defines the interface for operations related to a process's memory map
type MemoryMap interface {
	// ReadMemoryMap reads and parses the memory map for a process
	ReadMemoryMap(pid int) ([]MemoryMapItem, error)

	// IsReadablePerms checks if a memory region has read permissions
	IsReadablePerms(perms string) bool
}

// IsValidAddress2 finds the region containing addr. The map must be sorted by address.
func IsValidAddress2(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// GetMemoryRegionForAddress returns the memory region containing an address
func GetMemoryRegionForAddress(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	for i := range memoryMap {
		if addr >= memoryMap[i].Address && addr < memoryMap[i].End() {
			return &memoryMap[i]
		}
	}
	return nil
}

// FindModule returns the lowest address and total extent of all mappings
// whose backing file has the given base name. Windows modules loaded under
// Wine keep their file names, so the match is case-insensitive.
func FindModule(name string, memoryMap []MemoryMapItem) (base uint64, size uint64, ok bool) {
	var end uint64
	for _, item := range memoryMap {
		if item.Path == "" || !strings.EqualFold(filepath.Base(item.Path), name) {
			continue
		}
		if !ok || item.Address < base {
			base = item.Address
		}
		if item.End() > end {
			end = item.End()
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return base, end - base, true
}

// ReadableSpans merges the readable regions overlapping [start, start+size)
// into contiguous spans clipped to that window.
func ReadableSpans(start, size uint64, memoryMap []MemoryMapItem) []MemoryMapItem {
	end := start + size
	var spans []MemoryMapItem
	for _, item := range memoryMap {
		if !item.IsReadable() || item.End() <= start || item.Address >= end {
			continue
		}
		lo, hi := max(item.Address, start), min(item.End(), end)
		if n := len(spans); n > 0 && spans[n-1].End() == lo {
			spans[n-1].Size += uint(hi - lo)
			continue
		}
		spans = append(spans, MemoryMapItem{Address: lo, Size: uint(hi - lo), Perms: item.Perms, Path: item.Path})
	}
	return spans
}
