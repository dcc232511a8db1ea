package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"rorsplit/process"
	"rorsplit/process/memory_map"
)

const (
	MetadataFile  = "metadata.json"
	MemoryMapFile = "process_memory_map.json"
)

// Metadata identifies the process a dump was taken from
type Metadata struct {
	PID  process.ProcessID `json:"pid"`
	Name string            `json:"name"`
}

// BlobFileName is the file holding the bytes of one saved region
func BlobFileName(region memory_map.MemoryMapItem) string {
	return fmt.Sprintf("blob_0x%x_%d.bin", region.Address, region.Size)
}

var _ process.Process = (*ProcessDump)(nil)

// ProcessDump implements process.Process over a memory image held in memory,
// either loaded from a saved dump or assembled region by region.
type ProcessDump struct {
	mu        sync.Mutex
	PID       process.ProcessID
	Name      string
	MemoryMap []memory_map.MemoryMapItem
	Blobs     map[uint64][]byte // Address -> Data
	exited    bool
}

// NewProcessDump creates a new ProcessDump instance
func NewProcessDump() *ProcessDump {
	return &ProcessDump{
		Blobs: make(map[uint64][]byte),
	}
}

// AddRegion maps data at addr. path names the backing module, if any.
func (p *ProcessDump) AddRegion(addr uint64, data []byte, perms, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.MemoryMap = append(p.MemoryMap, memory_map.MemoryMapItem{
		Address: addr,
		Size:    uint(len(data)),
		Perms:   perms,
		Path:    path,
	})
	sort.Slice(p.MemoryMap, func(i, j int) bool {
		return p.MemoryMap[i].Address < p.MemoryMap[j].Address
	})
	p.Blobs[addr] = data
}

// Patch overwrites bytes of the image, so a test can move the state of the
// imaged program forward between ticks
func (p *ProcessDump) Patch(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	blob, offset, err := p.locate(addr, process.ProcessMemorySize(len(data)))
	if err != nil {
		return err
	}
	copy(blob[offset:], data)
	return nil
}

// Exit marks the imaged process as gone
func (p *ProcessDump) Exit() {
	p.mu.Lock()
	p.exited = true
	p.mu.Unlock()
}

func (p *ProcessDump) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Blobs = nil
	p.MemoryMap = nil
	p.exited = true
	return nil
}

func (p *ProcessDump) GetPID() process.ProcessID {
	return p.PID
}

func (p *ProcessDump) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.exited
}

func (p *ProcessDump) UpdateMemoryMap() error {
	return nil // Memory map is static in a dump
}

func (p *ProcessDump) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return memory_map.IsValidAddress2(uint64(addr), p.MemoryMap) != nil
}

func (p *ProcessDump) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]memory_map.MemoryMapItem, len(p.MemoryMap))
	copy(result, p.MemoryMap)
	return result, nil
}

func (p *ProcessDump) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exited {
		return nil, process.ErrProcessNotOpen
	}

	blob, offset, err := p.locate(addr, size)
	if err != nil {
		return nil, err
	}

	result := make([]byte, size)
	copy(result, blob[offset:offset+uint64(size)])
	return result, nil
}

// locate finds the blob backing [addr, addr+size). Assumes the mutex is held.
func (p *ProcessDump) locate(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, uint64, error) {
	region := memory_map.IsValidAddress2(uint64(addr), p.MemoryMap)
	if region == nil {
		return nil, 0, process.ErrAddressNotMapped
	}

	data, ok := p.Blobs[region.Address]
	if !ok {
		return nil, 0, fmt.Errorf("no data for region 0x%x: %w", region.Address, process.ErrAddressNotMapped)
	}

	offset := uint64(addr) - region.Address
	if offset+uint64(size) > uint64(len(data)) {
		return nil, 0, fmt.Errorf("read of %d bytes at 0x%x exceeds region data bounds: %w", size, addr, process.ErrAddressNotMapped)
	}

	return data, offset, nil
}

// Load reads a dump written by Save
func (p *ProcessDump) Load(dirname string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	metadataBytes, err := os.ReadFile(filepath.Join(dirname, MetadataFile))
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	p.PID = metadata.PID
	p.Name = metadata.Name

	mmBytes, err := os.ReadFile(filepath.Join(dirname, MemoryMapFile))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	var mm []memory_map.MemoryMapItem
	if err := json.Unmarshal(mmBytes, &mm); err != nil {
		return fmt.Errorf("failed to unmarshal memory map: %w", err)
	}

	sort.Slice(mm, func(i, j int) bool {
		return mm[i].Address < mm[j].Address
	})

	// Only regions whose bytes were saved are mapped; the rest read as unmapped
	p.MemoryMap = p.MemoryMap[:0]
	for _, region := range mm {
		filename := filepath.Join(dirname, BlobFileName(region))
		data, err := os.ReadFile(filename)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read blob %s: %w", filename, err)
		}

		p.MemoryMap = append(p.MemoryMap, region)
		p.Blobs[region.Address] = data
	}

	return nil
}
