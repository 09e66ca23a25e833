package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kenykau/reinforcement-forex/backtest"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a grid of strategies and seeds in parallel",
	Long: `Sweep crosses every strategy with every seed and runs each pair as an
independent session over the same raw rows. At most --parallel sessions run
at once. Each finished session is journaled under its own run ID.

Example:
  fxsim sweep -c simulation.yaml --strategies hold,open-once,ema-cross --seeds 1,2,3 -p 4`,
	RunE: runSweep,
}

var (
	sweepStrategies []string
	sweepSeeds      []int64
	sweepParallel   int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringSliceVar(&sweepStrategies, "strategies", nil, "strategy names (default simulation.strategy)")
	sweepCmd.Flags().Int64SliceVar(&sweepSeeds, "seeds", nil, "spread seeds (default simulation.seed)")
	sweepCmd.Flags().IntVarP(&sweepParallel, "parallel", "p", 0, "concurrent sessions, overrides simulation.parallel")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rows, err := loadRows(cfg)
	if err != nil {
		return err
	}

	names := sweepStrategies
	if len(names) == 0 {
		names = []string{cfg.Simulation.Strategy}
	}
	seeds := sweepSeeds
	if len(seeds) == 0 {
		seeds = []int64{cfg.Simulation.Seed}
	}
	limit := cfg.Simulation.Parallel
	if sweepParallel > 0 {
		limit = sweepParallel
	}

	rec, err := newRecorder(cfg)
	if err != nil {
		return err
	}
	defer rec.Close()

	ctx := cmd.Context()
	sink := func(r backtest.Result, s *backtest.Session) error {
		return rec.Record(ctx, r, s)
	}
	results, err := backtest.Sweep(ctx, cfg, rows, backtest.Grid(names, seeds), limit, sink, logger)
	if err != nil {
		return err
	}

	backtest.PrintSummary(cmd.OutOrStdout(), results)
	if err := rec.Close(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}
