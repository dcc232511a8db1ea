package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"rorsplit/config"
	"rorsplit/session"
	"rorsplit/telemetry"
	"rorsplit/tick"
	"rorsplit/timer"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach to the game and drive the timer",
	Long: `Waits for the game to start, attaches, and drives the timer until
interrupted. The game may be restarted any number of times.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyRunFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return run(ctx, cfg, dryRun)
	},
}

func init() {
	runCmd.Flags().String("livesplit", "", "LiveSplit Server address (host:port)")
	runCmd.Flags().String("listen", "", "serve /metrics and /variables on this address")
	runCmd.Flags().Float64("tick-rate", 0, "ticks per second")
	runCmd.Flags().Bool("dry-run", false, "log timer actions instead of sending them to LiveSplit")
	rootCmd.AddCommand(runCmd)
}

// flags override the file and the environment
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("livesplit") {
		cfg.LiveSplit, _ = cmd.Flags().GetString("livesplit")
	}
	if cmd.Flags().Changed("listen") {
		cfg.Listen, _ = cmd.Flags().GetString("listen")
	}
	if cmd.Flags().Changed("tick-rate") {
		cfg.TickRate, _ = cmd.Flags().GetFloat64("tick-rate")
	}
}

// run drives the timer until ctx is done. A telemetry server that cannot
// serve ends the run with its error.
func run(ctx context.Context, cfg config.Config, dryRun bool) error {
	reg := telemetry.NewRegistry()
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Listen != "" {
		g.Go(func() error {
			if err := telemetry.Serve(gctx, cfg.Listen, reg); err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
			return nil
		})
	}

	var t timer.Timer
	if dryRun {
		t = timer.NewLocal(0)
	} else {
		ls := timer.NewLiveSplit(cfg.LiveSplit, cfg.LiveSplitTimeout)
		defer ls.Close()
		t = ls
	}

	ticker := tick.NewTicker(cfg.TickRate)
	defer ticker.Stop()

	runner := session.NewRunner(newOpener(), cfg.ProcessNameFor(runtime.GOOS), ticker, t, reg, reg, session.Options{
		Permissions:     cfg.Permissions,
		Policy:          cfg.Splits,
		MapRefreshTicks: cfg.MapRefreshTicks,
	})

	g.Go(func() error {
		err := runner.Run(gctx)
		if gctx.Err() != nil && errors.Is(err, gctx.Err()) {
			return nil
		}
		return err
	})
	return g.Wait()
}
