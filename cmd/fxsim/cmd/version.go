package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the fxsim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "fxsim version %s\n", version)
		fmt.Fprintln(w, "A bar-by-bar forex and CFD trading simulator")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
