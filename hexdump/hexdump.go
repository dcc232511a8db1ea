// Package hexdump renders target memory for the developer commands
package hexdump

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"rorsplit/process"
	"rorsplit/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

const bytesPerLine = 16

// Options control one dump
type Options struct {
	// Address of the first byte
	Address process.ProcessMemoryAddress

	// Highlight marks [HighlightStart, HighlightStart+HighlightLen) relative to data
	HighlightStart int
	HighlightLen   int

	// MemoryMap enables the pointer column: qwords at the start and middle
	// of a line are shown when they point into a mapped region
	MemoryMap []memory_map.MemoryMapItem

	Color bool
}

// Dump renders data as text
func Dump(data []byte, opts Options) string {
	var sb strings.Builder
	Write(&sb, data, opts)
	return sb.String()
}

// Write renders data to w, one line per 16 bytes:
//
//	addr  00 01 02 03 04 05 06 07 | 08 09 0a 0b 0c 0d 0e 0f  ascii  pointers
func Write(w io.Writer, data []byte, opts Options) {
	for off := 0; off < len(data); off += bytesPerLine {
		end := min(off+bytesPerLine, len(data))
		line := data[off:end]

		fmt.Fprintf(w, "%016x  ", uint64(opts.Address)+uint64(off))

		for i := 0; i < bytesPerLine; i++ {
			if i == bytesPerLine/2 {
				fmt.Fprint(w, "| ")
			}
			if i >= len(line) {
				fmt.Fprint(w, "   ")
				continue
			}
			fmt.Fprint(w, opts.paint(off+i, fmt.Sprintf("%02x", line[i])), " ")
		}

		fmt.Fprint(w, " ")
		for i, b := range line {
			c := "."
			if b >= 0x20 && b < 0x7f {
				c = string(rune(b))
			}
			fmt.Fprint(w, opts.paint(off+i, c))
		}

		if ptrs := opts.pointers(line); ptrs != "" {
			fmt.Fprint(w, strings.Repeat(" ", bytesPerLine-len(line)), "  ", ptrs)
		}
		fmt.Fprintln(w)
	}
}

func (o Options) highlighted(i int) bool {
	return o.HighlightLen > 0 && i >= o.HighlightStart && i < o.HighlightStart+o.HighlightLen
}

func (o Options) paint(i int, s string) string {
	if o.Color && o.highlighted(i) {
		return coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, s)
	}
	return s
}

func (o Options) pointers(line []byte) string {
	if len(o.MemoryMap) == 0 {
		return ""
	}
	var out []string
	for at := 0; at+8 <= len(line); at += 8 {
		ptr := binary.LittleEndian.Uint64(line[at:])
		if memory_map.GetMemoryRegionForAddress(ptr, o.MemoryMap) != nil {
			out = append(out, fmt.Sprintf("0x%x", ptr))
		}
	}
	return strings.Join(out, " ")
}
