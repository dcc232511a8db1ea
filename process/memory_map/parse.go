package memory_map

import (
	"bufio"
	"strconv"
	"strings"
)

// ParseMaps parses lines in the /proc/[pid]/maps format:
//
//	00400000-0040b000 r-xp 00000000 08:02 173521   /usr/bin/foo
func ParseMaps(scanner *bufio.Scanner) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}

		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil {
			continue
		}

		item := MemoryMapItem{
			Address: startAddr,
			Size:    uint(endAddr - startAddr),
			Perms:   fields[1],
		}
		// The path may contain spaces ("Risk of Rain 2_Data/..."), so it is
		// everything after the inode column.
		if len(fields) >= 6 {
			item.Path = strings.Join(fields[5:], " ")
		}

		memoryMap = append(memoryMap, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return memoryMap, nil
}
