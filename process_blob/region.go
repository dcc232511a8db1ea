package process_blob

import (
	"encoding/binary"
	"fmt"
)

// Region is a block of zeroed memory filled in before it is mapped into a
// ProcessDump. Addresses are absolute; writes outside the block panic.
type Region struct {
	Address uint64
	Data    []byte
}

func NewRegion(addr uint64, size int) *Region {
	return &Region{Address: addr, Data: make([]byte, size)}
}

func (r *Region) at(addr uint64, n int) []byte {
	if addr < r.Address || addr+uint64(n) > r.Address+uint64(len(r.Data)) {
		panic(fmt.Sprintf("write of %d bytes at 0x%x outside region 0x%x+0x%x", n, addr, r.Address, len(r.Data)))
	}
	off := addr - r.Address
	return r.Data[off : off+uint64(n)]
}

func (r *Region) PutUint64(addr, v uint64) *Region {
	binary.LittleEndian.PutUint64(r.at(addr, 8), v)
	return r
}

func (r *Region) PutUint32(addr uint64, v uint32) *Region {
	binary.LittleEndian.PutUint32(r.at(addr, 4), v)
	return r
}

func (r *Region) PutUint16(addr uint64, v uint16) *Region {
	binary.LittleEndian.PutUint16(r.at(addr, 2), v)
	return r
}

func (r *Region) PutBytes(addr uint64, b []byte) *Region {
	copy(r.at(addr, len(b)), b)
	return r
}

// PutCString writes s and its terminating NUL
func (r *Region) PutCString(addr uint64, s string) *Region {
	return r.PutBytes(addr, append([]byte(s), 0))
}

// MapRegion maps the bytes of r. Later changes to r are visible to reads.
func (p *ProcessDump) MapRegion(r *Region, perms, path string) {
	p.AddRegion(r.Address, r.Data, perms, path)
}
