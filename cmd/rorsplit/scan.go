package main

import (
	"fmt"

	"rorsplit/hexdump"
	"rorsplit/process"
	"rorsplit/signature"
	"rorsplit/unity"

	"github.com/spf13/cobra"
)

// bytes of context printed around a match
const scanContext = 32

var scanCmd = &cobra.Command{
	Use:   "scan [pattern]",
	Short: "Search a module of the game for a byte pattern",
	Long: `Scans a module of the running game for a byte pattern such as
"48 8B ?? ???????? 33 F6" and prints the first match with its surroundings.
Without a pattern the scene manager signature is used and the scene
manager it leads to is reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := unity.SceneManagerSignature
		if len(args) == 1 {
			text = args[0]
		}
		sig, err := signature.Parse(text)
		if err != nil {
			return err
		}

		proc, err := openTarget(cmd)
		if err != nil {
			return err
		}
		defer proc.Close()

		module, _ := cmd.Flags().GetString("module")
		window, _ := cmd.Flags().GetUint64("window")
		color, _ := cmd.Flags().GetBool("color")

		base, size, err := process.FindModule(proc, module)
		if err != nil {
			return err
		}
		if window == 0 {
			window = uint64(size)
		}
		fmt.Printf("%s at 0x%x (%d bytes), scanning 0x%x bytes for %s\n", module, uint64(base), uint64(size), window, sig)

		hit, err := sig.Scan(proc, base, process.ProcessMemorySize(window))
		if err != nil {
			return err
		}
		fmt.Printf("match at 0x%x (%s+0x%x)\n", uint64(hit), module, uint64(hit)-uint64(base))

		start := hit
		if uint64(hit) >= uint64(base)+scanContext {
			start = process.ProcessMemoryAddress(uint64(hit) - scanContext)
		}
		if data, err := proc.ReadMemory(start, process.ProcessMemorySize(int(hit-start)+sig.Len()+scanContext)); err == nil {
			mm, _ := proc.GetMemoryMap()
			fmt.Print(hexdump.Dump(data, hexdump.Options{
				Address:        start,
				HighlightStart: int(hit - start),
				HighlightLen:   sig.Len(),
				MemoryMap:      mm,
				Color:          color,
			}))
		}

		if len(args) == 0 {
			sm, err := unity.NewSceneManagerAt(proc, base)
			if err != nil {
				return err
			}
			fmt.Printf("scene manager pointer at 0x%x\n", uint64(sm.Address()))
			if path, err := sm.CurrentScenePath(); err == nil {
				fmt.Printf("active scene %q (%s)\n", unity.SceneName(path), path)
			} else {
				fmt.Println("no active scene:", err)
			}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().Int("pid", 0, "process ID, the game is looked up by name when omitted")
	scanCmd.Flags().String("module", unity.PlayerModule, "module to scan")
	scanCmd.Flags().Uint64("window", unity.ScanWindow, "bytes to scan from the module base, 0 for the whole module")
	scanCmd.Flags().Bool("color", true, "highlight the match")
	rootCmd.AddCommand(scanCmd)
}
