package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kenykau/reinforcement-forex/backtest"
	"github.com/kenykau/reinforcement-forex/market"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load a dataset and print its shape",
	Long: `Inspect aligns the configured dataset, attaches the configured
features and the simulated symbol's spread column, then reports what a
session would see: bar count, alignment losses, holes in the time index,
the first bar with every value present, and the columns of each symbol.

Example:
  fxsim inspect --data data/eurusd_h1.csv`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rows, err := loadRows(cfg)
	if err != nil {
		return err
	}
	env, err := backtest.Prepare(cfg, rows, cfg.Simulation.Seed)
	if err != nil {
		return err
	}
	d := env.Data

	w := cmd.OutOrStdout()
	st := d.Stats()
	fmt.Fprintf(w, "Dataset:     %s\n", cfg.Data.File)
	fmt.Fprintf(w, "Rows:        %d\n", st.Rows)
	fmt.Fprintf(w, "Duplicates:  %d\n", st.Duplicates)
	fmt.Fprintf(w, "Dropped:     %d\n", st.Dropped)
	fmt.Fprintf(w, "Bars:        %d\n", d.Len())
	fmt.Fprintf(w, "Start:       %s\n", d.Time(0).Format(time.RFC3339))
	fmt.Fprintf(w, "End:         %s\n", d.Time(d.Len()-1).Format(time.RFC3339))

	if step := d.Step(); step > 0 {
		tf, err := market.FormatTimeframe(step)
		if err != nil {
			tf = step.String()
		}
		gs := d.GapReport(step)
		fmt.Fprintf(w, "Timeframe:   %s\n", tf)
		fmt.Fprintf(w, "Gaps:        %d (%d weekend, %d suspicious), %d of %d bars missing\n",
			gs.Gaps, gs.Weekend, gs.Suspicious, gs.Missing, gs.Expected)
		if gs.Longest > 0 {
			fmt.Fprintf(w, "Longest gap: %d bars (%s)\n", gs.Longest, gs.LongestKind)
		}
	}

	first, err := d.FirstValid()
	if err != nil {
		fmt.Fprintf(w, "First valid: none (%v)\n", err)
	} else {
		fmt.Fprintf(w, "First valid: %d (%s)\n", first, d.Time(first).Format(time.RFC3339))
	}

	for _, sym := range d.Symbols() {
		t, err := d.Table(sym)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s\n", sym)
		fmt.Fprintf(w, "  columns: %s\n", strings.Join(t.Columns(), ", "))
	}
	return nil
}
