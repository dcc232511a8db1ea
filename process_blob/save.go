package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rorsplit/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// MaxSavedRegion skips regions that are mostly heap reservations
const MaxSavedRegion = 100 * 1024 * 1024

// Save writes the readable memory of proc and its metadata to a directory
// in the layout Load expects
func Save(proc process.Process, name, dirname string) error {
	log := logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "save"))

	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	pid := proc.GetPID()
	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	log.Infoln("Saving process", pid, "to directory:", dirname)

	if err := writeJSON(filepath.Join(dirname, MetadataFile), Metadata{PID: pid, Name: name}); err != nil {
		return err
	}

	if err := proc.UpdateMemoryMap(); err != nil {
		return fmt.Errorf("failed to update memory map: %w", err)
	}

	mm, err := proc.GetMemoryMap()
	if err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(dirname, MemoryMapFile), mm); err != nil {
		return err
	}

	savedCount, skippedCount, errorCount := 0, 0, 0
	for _, region := range mm {
		if !region.IsReadable() || region.Size > MaxSavedRegion {
			skippedCount++
			continue
		}

		data, err := proc.ReadMemory(process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
		if err != nil {
			log.Debugln("Failed to read memory region at", fmt.Sprintf("%x", region.Address), err)
			errorCount++
			continue
		}

		if err := os.WriteFile(filepath.Join(dirname, BlobFileName(region)), data, 0644); err != nil {
			return fmt.Errorf("failed to write region 0x%x: %w", region.Address, err)
		}
		savedCount++
	}

	log.Infoln("Process dump saved:", savedCount, "regions saved,", skippedCount, "skipped,", errorCount, "unreadable")

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
