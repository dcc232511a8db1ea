package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <dir>",
	Short: "Save the readable memory of the game to a directory",
	Long: `Saves the memory map and the readable regions of the game to a
directory, for later use with inspect.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, err := openTarget(cmd)
		if err != nil {
			return err
		}
		pid := proc.GetPID()
		proc.Close()

		fmt.Printf("Saving process %d to %s\n", pid, args[0])
		if err := saveProcess(pid, args[0]); err != nil {
			return err
		}
		fmt.Println("Dump saved")
		return nil
	},
}

func init() {
	dumpCmd.Flags().Int("pid", 0, "process ID, the game is looked up by name when omitted")
	rootCmd.AddCommand(dumpCmd)
}
