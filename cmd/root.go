package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "crossmkt-arb",
	Short: "Cross-venue prediction-market arbitrage engine",
	Long: `Cross-venue prediction-market arbitrage engine that matches
complementary YES/NO markets between a fee-bearing venue and a fee-free
venue, detects crossings where the combined ask price sits below 1.00,
and executes or rests hedged positions to capture the spread.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
