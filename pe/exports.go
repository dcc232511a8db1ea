// Package pe reads the export table of a PE image mapped in a process
package pe

import (
	"errors"
	"fmt"

	"rorsplit/process"
)

var (
	ErrExportNotFound = errors.New("export not found")
	ErrNotPE          = errors.New("not a PE image")
)

const (
	dosMagic   = 0x5A4D     // "MZ"
	peMagic    = 0x00004550 // "PE\0\0"
	magicPE32  = 0x10B
	magicPE32P = 0x20B

	offNewHeader     = 0x3C
	offOptional      = 0x18
	offExportDir32   = 0x60
	offExportDir32P  = 0x70
	offNumberOfNames = 0x18
	offFunctions     = 0x1C
	offNames         = 0x20
	offOrdinals      = 0x24

	maxExportName = 128
)

// Export is one named entry of the export table
type Export struct {
	Name    string
	Address process.ProcessMemoryAddress
}

type exportDir struct {
	names     uint32
	functions process.ProcessMemoryAddress
	nameRVAs  process.ProcessMemoryAddress
	ordinals  process.ProcessMemoryAddress
}

// Is64 reports whether the image at base is PE32+
func Is64(proc process.Process, base process.ProcessMemoryAddress) (bool, error) {
	magic, err := optionalMagic(proc, base)
	if err != nil {
		return false, err
	}
	return magic == magicPE32P, nil
}

// FindExport returns the address of the named export of the module at base
func FindExport(proc process.Process, base process.ProcessMemoryAddress, name string) (process.ProcessMemoryAddress, error) {
	var found process.ProcessMemoryAddress
	err := walkExports(proc, base, func(e Export) bool {
		if e.Name == name {
			found = e.Address
			return false
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if found == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrExportNotFound)
	}
	return found, nil
}

// Exports lists all named exports
func Exports(proc process.Process, base process.ProcessMemoryAddress) ([]Export, error) {
	var out []Export
	err := walkExports(proc, base, func(e Export) bool {
		out = append(out, e)
		return true
	})
	return out, err
}

func optionalMagic(proc process.Process, base process.ProcessMemoryAddress) (uint16, error) {
	mz, err := process.Read[uint16](proc, base)
	if err != nil {
		return 0, err
	}
	if mz != dosMagic {
		return 0, fmt.Errorf("bad DOS header at %s: %w", base.ToString(), ErrNotPE)
	}
	lfanew, err := process.Read[uint32](proc, base.Add(offNewHeader))
	if err != nil {
		return 0, err
	}
	nt := base.Add(uint64(lfanew))
	sig, err := process.Read[uint32](proc, nt)
	if err != nil {
		return 0, err
	}
	if sig != peMagic {
		return 0, fmt.Errorf("bad NT header at %s: %w", nt.ToString(), ErrNotPE)
	}
	return process.Read[uint16](proc, nt.Add(offOptional))
}

func readExportDir(proc process.Process, base process.ProcessMemoryAddress) (exportDir, error) {
	magic, err := optionalMagic(proc, base)
	if err != nil {
		return exportDir{}, err
	}

	lfanew, err := process.Read[uint32](proc, base.Add(offNewHeader))
	if err != nil {
		return exportDir{}, err
	}
	optional := base.Add(uint64(lfanew) + offOptional)

	var dirEntry process.ProcessMemoryAddress
	switch magic {
	case magicPE32:
		dirEntry = optional.Add(offExportDir32)
	case magicPE32P:
		dirEntry = optional.Add(offExportDir32P)
	default:
		return exportDir{}, fmt.Errorf("optional header magic 0x%x: %w", magic, ErrNotPE)
	}

	rva, err := process.Read[uint32](proc, dirEntry)
	if err != nil {
		return exportDir{}, err
	}
	if rva == 0 {
		return exportDir{}, fmt.Errorf("module has no export table: %w", ErrExportNotFound)
	}
	dir := base.Add(uint64(rva))

	var fields [4]uint32
	for i, off := range []uint64{offNumberOfNames, offFunctions, offNames, offOrdinals} {
		if fields[i], err = process.Read[uint32](proc, dir.Add(off)); err != nil {
			return exportDir{}, err
		}
	}

	return exportDir{
		names:     fields[0],
		functions: base.Add(uint64(fields[1])),
		nameRVAs:  base.Add(uint64(fields[2])),
		ordinals:  base.Add(uint64(fields[3])),
	}, nil
}

func walkExports(proc process.Process, base process.ProcessMemoryAddress, fn func(Export) bool) error {
	dir, err := readExportDir(proc, base)
	if err != nil {
		return err
	}

	for i := uint64(0); i < uint64(dir.names); i++ {
		nameRVA, err := process.Read[uint32](proc, dir.nameRVAs.Add(i*4))
		if err != nil {
			return err
		}
		name, err := process.ReadCString(proc, base.Add(uint64(nameRVA)), maxExportName)
		if err != nil {
			return err
		}
		ordinal, err := process.Read[uint16](proc, dir.ordinals.Add(i*2))
		if err != nil {
			return err
		}
		funcRVA, err := process.Read[uint32](proc, dir.functions.Add(uint64(ordinal)*4))
		if err != nil {
			return err
		}
		if !fn(Export{Name: name, Address: base.Add(uint64(funcRVA))}) {
			return nil
		}
	}
	return nil
}
