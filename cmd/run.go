package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mselser95/crossmkt-arb/internal/supervisor"
	"github.com/mselser95/crossmkt-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage engine",
	Long: `Starts the cross-venue arbitrage engine, which will:
1. Bind matching markets between both venues
2. Poll order books for every bound pair
3. Detect crossings and classify them immediate or liquidity
4. Execute or rest hedged positions, reconciling any under-filled hedge leg`,
	RunE: runEngine,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	s, err := supervisor.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}

	if err := s.Run(); err != nil {
		return fmt.Errorf("run supervisor: %w", err)
	}

	return nil
}
