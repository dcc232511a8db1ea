package main

import (
	"fmt"
	"os"
	"runtime"

	"rorsplit/config"
	"rorsplit/process"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rorsplit",
	Short: "Auto splitter for Risk of Rain 2",
	Long: `rorsplit reads the memory of a running Risk of Rain 2 and drives a
LiveSplit timer: it starts on the first stage, splits on stage clears and
special scenes, resets in the menus and pauses game time during loads.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// openTarget opens --pid when given, the game by name otherwise
func openTarget(cmd *cobra.Command) (process.Process, error) {
	opener := newOpener()
	if pid, _ := cmd.Flags().GetInt("pid"); pid != 0 {
		return opener.NewWithPID(process.ProcessID(pid))
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return opener.OpenProcessByName(cfg.ProcessNameFor(runtime.GOOS))
}
