// Package signature locates byte patterns with wildcards inside a bounded
// window of a process
package signature

import (
	"errors"
	"fmt"
	"strings"

	"rorsplit/process"
	"rorsplit/process/memory_map"
)

// ErrNotFound is returned when the window holds no match
var ErrNotFound = errors.New("signature not found")

// chunkSize bounds a single read; consecutive chunks overlap by the pattern
// length so a match across a chunk boundary is still found
const chunkSize = 1 << 20

// Signature is a byte pattern where any nibble may be a wildcard.
type Signature struct {
	text string
	aob  process.AOB
}

// Parse reads a pattern such as "48 83 EC 20 4C 8B ?5 ???????? 33 F6".
// Whitespace is ignored; every pair of characters is one byte and '?'
// stands for any nibble.
func Parse(text string) (Signature, error) {
	compact := strings.Join(strings.Fields(text), "")
	if compact == "" {
		return Signature{}, errors.New("empty signature")
	}
	if len(compact)%2 != 0 {
		return Signature{}, fmt.Errorf("signature %q has an odd number of nibbles", text)
	}

	pattern := make([]byte, len(compact)/2)
	mask := make([]byte, len(compact)/2)
	for i := 0; i < len(compact); i += 2 {
		hi, hiMask, err := nibble(compact[i])
		if err != nil {
			return Signature{}, fmt.Errorf("signature %q: %w", text, err)
		}
		lo, loMask, err := nibble(compact[i+1])
		if err != nil {
			return Signature{}, fmt.Errorf("signature %q: %w", text, err)
		}
		pattern[i/2] = hi<<4 | lo
		mask[i/2] = hiMask<<4 | loMask
	}

	aob, err := process.NewAOB(pattern, mask)
	if err != nil {
		return Signature{}, err
	}
	return Signature{text: text, aob: aob}, nil
}

// MustParse is Parse for patterns fixed at compile time
func MustParse(text string) Signature {
	sig, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return sig
}

func nibble(c byte) (value, mask byte, err error) {
	switch {
	case c == '?':
		return 0, 0, nil
	case c >= '0' && c <= '9':
		return c - '0', 0xF, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, 0xF, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, 0xF, nil
	}
	return 0, 0, fmt.Errorf("invalid character %q", c)
}

// Len is the pattern length in bytes
func (s Signature) Len() int {
	return len(s.aob.Pattern)
}

// AOB exposes the pattern and mask
func (s Signature) AOB() process.AOB {
	return s.aob
}

func (s Signature) String() string {
	return s.text
}

// Scan returns the address of the first match in [base, base+size). Only
// readable mapped memory inside the window is searched.
func (s Signature) Scan(proc process.Process, base process.ProcessMemoryAddress, size process.ProcessMemorySize) (process.ProcessMemoryAddress, error) {
	if !s.aob.IsValid() {
		return 0, errors.New("empty signature")
	}

	memMap, err := proc.GetMemoryMap()
	if err != nil {
		return 0, fmt.Errorf("failed to get memory map: %w", err)
	}

	for _, span := range memory_map.ReadableSpans(uint64(base), uint64(size), memMap) {
		if addr, ok := s.scanSpan(proc, span); ok {
			return addr, nil
		}
	}

	return 0, fmt.Errorf("%s in window %s+0x%x: %w", s.text, base.ToString(), uint(size), ErrNotFound)
}

func (s Signature) scanSpan(proc process.Process, span memory_map.MemoryMapItem) (process.ProcessMemoryAddress, bool) {
	overlap := uint64(s.Len() - 1)
	for start := span.Address; start < span.End(); start += chunkSize {
		n := min(uint64(chunkSize)+overlap, span.End()-start)
		if n < uint64(s.Len()) {
			break
		}
		data, err := proc.ReadMemory(process.ProcessMemoryAddress(start), process.ProcessMemorySize(n))
		if err != nil {
			// Regions can be unmapped between reading the map and the scan
			continue
		}
		if i := s.aob.IndexIn(data); i >= 0 {
			return process.ProcessMemoryAddress(start + uint64(i)), true
		}
	}
	return 0, false
}
