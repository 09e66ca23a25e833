package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kenykau/reinforcement-forex/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage simulation configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  fxsim config init -o my-config.yaml
  fxsim config validate -f my-config.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The format
follows the extension: .yaml or .yml writes YAML, anything else JSON.

Example:
  fxsim config init -o simulation.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded. Every
violation is reported, not just the first.

Example:
  fxsim config validate -f simulation.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "simulation.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(w, "\nSet data.file and run with:")
	fmt.Fprintf(w, "  fxsim run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(w, "  Account: %s (%.2f %s, stop out %.0f%%)\n",
		cfg.Account.ID, cfg.Account.Balance, cfg.Account.Currency, cfg.Account.StopOut*100)
	fmt.Fprintf(w, "  Symbols: %d\n", len(cfg.Symbols))
	fmt.Fprintf(w, "  Simulation: %s %s (%.2f lots)\n", cfg.Simulation.Strategy, cfg.Simulation.Symbol, cfg.Simulation.Lots)
	fmt.Fprintf(w, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}
