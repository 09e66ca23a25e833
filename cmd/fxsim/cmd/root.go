package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kenykau/reinforcement-forex/config"
	"github.com/kenykau/reinforcement-forex/internal/logging"
	"github.com/kenykau/reinforcement-forex/market"
)

var rootCmd = &cobra.Command{
	Use:   "fxsim",
	Short: "A bar-by-bar forex and CFD trading simulator",
	Long: `fxsim replays aligned OHLC bars through a margin account.

It provides tools for:
  - Running a strategy over a dataset and journaling every trade
  - Sweeping strategies and seeds in parallel
  - Inspecting datasets and their indicator columns
  - Generating and validating configuration files
  - Reading back journaled runs as Org-mode`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	dataFile string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default settings when empty)")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "bar CSV path, overrides data.file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides logging.level")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile == "" {
		cfg = config.Default()
	} else {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if dataFile != "" {
		cfg.Data.File = dataFile
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}

func loadRows(cfg *config.Config) ([]market.RawRow, error) {
	if cfg.Data.File == "" {
		return nil, fmt.Errorf("no data file: set data.file or --data")
	}
	rows, err := market.ReadFile(cfg.Data.File)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cfg.Data.File, err)
	}
	return rows, nil
}
