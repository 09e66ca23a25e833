package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kenykau/reinforcement-forex/market"
)

var resampleCmd = &cobra.Command{
	Use:   "resample",
	Short: "Aggregate a dataset onto a coarser timeframe",
	Long: `Resample aligns the configured dataset and aggregates every symbol
onto buckets of the target timeframe: first open, highest high, lowest low,
last close and summed volume. Buckets with fewer than --min-bars source bars
are dropped. The output uses the default column names.

Example:
  fxsim resample --data data/eurusd_m1.csv --to H1 -o data/eurusd_h1.csv`,
	RunE: runResample,
}

var (
	resampleTo      string
	resampleOutput  string
	resampleMinBars int
)

func init() {
	rootCmd.AddCommand(resampleCmd)

	resampleCmd.Flags().StringVar(&resampleTo, "to", "H1", "target timeframe (M5, M15, H1, H4, D1, ... or minutes)")
	resampleCmd.Flags().StringVarP(&resampleOutput, "output", "o", "", "output CSV path (required)")
	resampleCmd.Flags().IntVar(&resampleMinBars, "min-bars", 1, "minimum source bars per bucket")
	resampleCmd.MarkFlagRequired("output")
}

func runResample(cmd *cobra.Command, args []string) error {
	to, err := market.ParseTimeframe(resampleTo)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rows, err := loadRows(cfg)
	if err != nil {
		return err
	}
	mapping := cfg.Data.Mapping()
	d, err := market.Load(rows, mapping)
	if err != nil {
		return err
	}
	out, err := d.Resample(to, resampleMinBars)
	if err != nil {
		return err
	}

	f, err := os.Create(resampleOutput)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := market.WriteCSV(f, out, mapping.TimeLayout); err != nil {
		return fmt.Errorf("write %s: %w", resampleOutput, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Resampled %d bars into %d %s bars: %s\n", d.Len(), out.Len(), resampleTo, resampleOutput)
	return nil
}
