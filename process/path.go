package process

import (
	"bytes"
	"fmt"
	"unsafe"

	"rorsplit/process/memory_map"
)

// PointerPath is a base address plus an ordered chain of offsets. Every offset
// except the last is dereferenced as a pointer; the last one is added to the
// final pointer and the value is read there.
type PointerPath struct {
	Base    ProcessMemoryAddress
	Offsets []ProcessMemorySize
}

// NewPointerPath builds a path. The offsets are copied so the path stays
// immutable once constructed.
func NewPointerPath(base ProcessMemoryAddress, offsets ...ProcessMemorySize) PointerPath {
	return PointerPath{Base: base, Offsets: append([]ProcessMemorySize(nil), offsets...)}
}

func (pp PointerPath) String() string {
	return fmt.Sprintf("%s%v", pp.Base.ToString(), pp.Offsets)
}

// ReadPointerPath reads a T at the end of the path
func ReadPointerPath[T any](proc Process, pp PointerPath) (T, error) {
	return ReadPath[T](proc, pp.Base, pp.Offsets...)
}

// ReadPath reads a value of type T at the end of a pointer path.
// It starts at base, adds the first offset, reads a pointer, adds the next offset, reads a pointer, etc.
// The last offset is added to the final pointer, and then T is read from that address.
// If offsets is empty, it reads T from base.
func ReadPath[T any](proc Process, base ProcessMemoryAddress, offsets ...ProcessMemorySize) (T, error) {
	var zero T
	currentAddr := base

	// Iterate over all offsets except the last one
	for i := 0; i < len(offsets)-1; i++ {
		ptrAddr := currentAddr + ProcessMemoryAddress(offsets[i])

		// Pointers are 8 bytes, the target is a 64-bit process
		ptrVal, err := Read[uint64](proc, ptrAddr)
		if err != nil {
			return zero, fmt.Errorf("failed to read pointer at offset %d (addr 0x%x): %w", i, ptrAddr, err)
		}

		if ptrVal == 0 {
			return zero, fmt.Errorf("pointer at offset %d (addr 0x%x) is null: %w", i, ptrAddr, ErrInvalidPointer)
		}

		currentAddr = ProcessMemoryAddress(ptrVal)
	}

	finalOffset := ProcessMemorySize(0)
	if len(offsets) > 0 {
		finalOffset = offsets[len(offsets)-1]
	}

	finalAddr := currentAddr + ProcessMemoryAddress(finalOffset)

	val, err := Read[T](proc, finalAddr)
	if err != nil {
		return zero, fmt.Errorf("failed to read final value at 0x%x: %w", finalAddr, err)
	}

	return val, nil
}

// Read is a helper to read a single value of type T from memory.
// T must be plain data (no Go pointers); bool reads any non-zero byte as true.
func Read[T any](proc Process, addr ProcessMemoryAddress) (T, error) {
	var t T
	size := ProcessMemorySize(unsafe.Sizeof(t))
	if size == 0 {
		return t, nil
	}

	data, err := proc.ReadMemory(addr, size)
	if err != nil {
		return t, err
	}
	if len(data) < int(size) {
		return t, fmt.Errorf("short read at 0x%x: %d of %d bytes", addr, len(data), size)
	}

	if b, ok := any(&t).(*bool); ok {
		*b = data[0] != 0
		return t, nil
	}

	copyTo(&t, data)
	return t, nil
}

// ReadPointer reads a non-null pointer
func ReadPointer(proc Process, addr ProcessMemoryAddress) (ProcessMemoryAddress, error) {
	ptr, err := Read[uint64](proc, addr)
	if err != nil {
		return 0, err
	}
	if ptr == 0 {
		return 0, fmt.Errorf("null pointer at 0x%x: %w", addr, ErrInvalidPointer)
	}
	return ProcessMemoryAddress(ptr), nil
}

const cStringChunk = 32

// ReadCString reads a NUL-terminated string of at most maxLength bytes. It
// reads in small chunks so a string ending near the edge of a mapping is
// still readable.
func ReadCString(proc Process, addr ProcessMemoryAddress, maxLength ProcessMemorySize) (string, error) {
	var out []byte
	for uint(len(out)) < uint(maxLength) {
		n := ProcessMemorySize(cStringChunk)
		if rest := maxLength - ProcessMemorySize(len(out)); rest < n {
			n = rest
		}
		chunk, err := proc.ReadMemory(addr+ProcessMemoryAddress(len(out)), n)
		if err != nil {
			if len(out) == 0 {
				return "", err
			}
			return "", fmt.Errorf("unterminated string at 0x%x: %w", addr, err)
		}
		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			return string(append(out, chunk[:i]...)), nil
		}
		out = append(out, chunk...)
	}
	return string(out), nil
}

// FindModule returns the base address and extent of the named module from
// the process memory map
func FindModule(proc Process, name string) (ProcessMemoryAddress, ProcessMemorySize, error) {
	mm, err := proc.GetMemoryMap()
	if err != nil {
		return 0, 0, err
	}
	base, size, ok := memory_map.FindModule(name, mm)
	if !ok {
		return 0, 0, fmt.Errorf("%s: %w", name, ErrModuleNotFound)
	}
	return ProcessMemoryAddress(base), ProcessMemorySize(size), nil
}

// copyTo copies bytes to *T
func copyTo[T any](dst *T, src []byte) {
	size := int(unsafe.Sizeof(*dst))
	if len(src) < size {
		return
	}

	dstBytes := unsafe.Slice((*byte)(unsafe.Pointer(dst)), size)
	copy(dstBytes, src)
}
