package process

import (
	"fmt"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// Add returns the address offset by n bytes
func (pma ProcessMemoryAddress) Add(n uint64) ProcessMemoryAddress {
	return pma + ProcessMemoryAddress(n)
}

// AddSigned returns the address offset by a signed displacement, as used by
// rip-relative operands
func (pma ProcessMemoryAddress) AddSigned(n int64) ProcessMemoryAddress {
	return ProcessMemoryAddress(int64(pma) + n)
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// AOB (Array of Bytes) represents a pattern to search for in memory
type AOB struct {
	Pattern []byte // The byte pattern to search for
	Mask    []byte // Optional mask where 0xFF means exact match and 0x00 means wildcard
}

// IsValid checks if the AOB pattern is valid
func (aob AOB) IsValid() bool {
	return len(aob.Pattern) > 0 && len(aob.Pattern) == len(aob.Mask)
}

// MatchAt reports whether the pattern matches data starting at offset i.
// Only the bits set in the mask are compared, so a mask of 0x0F matches
// any high nibble.
func (aob AOB) MatchAt(data []byte, i int) bool {
	if i < 0 || i+len(aob.Pattern) > len(data) {
		return false
	}
	for j := 0; j < len(aob.Pattern); j++ {
		if aob.Mask[j] == 0 {
			continue
		}
		if data[i+j]&aob.Mask[j] != aob.Pattern[j]&aob.Mask[j] {
			return false
		}
	}
	return true
}

// IndexIn returns the offset of the first match in data, or -1
func (aob AOB) IndexIn(data []byte) int {
	for i := 0; i <= len(data)-len(aob.Pattern); i++ {
		if aob.MatchAt(data, i) {
			return i
		}
	}
	return -1
}

func NewAOB(pattern, mask []byte) (AOB, error) {
	if len(pattern) != len(mask) {
		return AOB{}, fmt.Errorf("pattern and mask must be of the same length")
	}
	return AOB{Pattern: pattern, Mask: mask}, nil
}
