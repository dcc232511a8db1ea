package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"rorsplit/game"
	"rorsplit/hexdump"
	"rorsplit/mono"
	"rorsplit/process"
	"rorsplit/process_blob"
	"rorsplit/unity"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <dir>",
	Short: "Resolve the game state from a saved dump",
	Long: `Loads a directory written by dump and runs one resolution pass over
it: runtime, scene manager, image, classes and field readings. With --addr
the memory at that address is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dump := process_blob.NewProcessDump()
		if err := dump.Load(args[0]); err != nil {
			return err
		}
		fmt.Printf("Loaded %s: pid %d, %q, %d regions\n", args[0], dump.PID, dump.Name, len(dump.MemoryMap))

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			size, _ := cmd.Flags().GetInt("size")
			return dumpAt(os.Stdout, dump, addr, size)
		}
		return inspect(os.Stdout, dump)
	},
}

func init() {
	inspectCmd.Flags().String("addr", "", "address to print (hex)")
	inspectCmd.Flags().Int("size", 256, "bytes to print with --addr")
	rootCmd.AddCommand(inspectCmd)
}

func dumpAt(w io.Writer, proc process.Process, text string, size int) error {
	v, err := strconv.ParseUint(strings.TrimPrefix(text, "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("parse address: %w", err)
	}
	addr := process.ProcessMemoryAddress(v)
	data, err := proc.ReadMemory(addr, process.ProcessMemorySize(size))
	if err != nil {
		return fmt.Errorf("read 0x%x: %w", v, err)
	}
	mm, _ := proc.GetMemoryMap()
	hexdump.Write(w, data, hexdump.Options{Address: addr, MemoryMap: mm})
	return nil
}

// printSink writes published readings as they arrive
type printSink struct {
	w io.Writer
}

func (s printSink) SetVariable(key, value string) {
	fmt.Fprintf(s.w, "  %-34s %s\n", key, value)
}

// inspect runs the bootstrap and one tick of reads without retrying
func inspect(w io.Writer, proc process.Process) error {
	rt, err := mono.Attach(proc, mono.V2)
	if err != nil {
		return fmt.Errorf("mono runtime: %w", err)
	}
	fmt.Fprintf(w, "%s at 0x%x, %d assemblies\n", mono.V2.ModuleName(), uint64(rt.Base()), len(rt.Assemblies()))

	var state game.State
	if sm, err := unity.NewSceneManager(proc); err != nil {
		fmt.Fprintln(w, "scene manager:", err)
	} else {
		fmt.Fprintf(w, "scene manager pointer at 0x%x\n", uint64(sm.Address()))
		state.UpdateScene(sm)
	}

	img, ok := mono.ImageOrDefault(rt, game.ImageName)
	if !ok {
		return fmt.Errorf("neither %s nor %s is loaded", game.ImageName, mono.DefaultImageName)
	}
	fmt.Fprintln(w, "image", img.Name())

	loc := game.NewLocator(proc, img)
	loc.Refresh()
	paths := loc.Paths()
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-20s %s\n", name, paths[name].String())
	}
	if !loc.Resolved() {
		fmt.Fprintln(w, "some classes are not resolved yet")
	}

	loc.Update(&state)
	fmt.Fprintln(w, "readings:")
	state.Publish(printSink{w: w})
	return nil
}
