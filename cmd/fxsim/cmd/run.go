package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kenykau/reinforcement-forex/backtest"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one strategy over a dataset",
	Long: `Run replays the configured dataset bar by bar through a single
session, journals every closed trade and equity row, then prints a summary.

The session ends at the last bar, after max_steps, or when the account
stops out. Open positions are closed at the final bar unless close_end is
false and the data simply ran out.

Example:
  fxsim run -c simulation.yaml --data data/eurusd_h1.csv -s ema-cross`,
	RunE: runRun,
}

var (
	runStrategy string
	runSeed     int64
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name, overrides simulation.strategy")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "spread seed, overrides simulation.seed")
}

func runRun(cmd *cobra.Command, args []string) error {
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

	job := backtest.Job{Strategy: cfg.Simulation.Strategy, Seed: cfg.Simulation.Seed}
	if runStrategy != "" {
		job.Strategy = runStrategy
	}
	if cmd.Flags().Changed("seed") {
		job.Seed = runSeed
	}
	job.Name = job.Strategy

	rec, err := newRecorder(cfg)
	if err != nil {
		return err
	}
	defer rec.Close()

	res, s, err := backtest.RunOne(cmd.Context(), cfg, rows, job, logger)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := rec.Record(cmd.Context(), res, s); err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	backtest.PrintResult(cmd.OutOrStdout(), res)
	return rec.Close()
}
