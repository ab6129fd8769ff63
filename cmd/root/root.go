// Package root contains the root command for the application
package root

import (
	"openmuni/fiscalcast/internal/config"
	"openmuni/fiscalcast/internal/validation"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Funds        string
	Transactions string
	Instruments  string
	Scenario     string
	Output       string
	Format       string
	AsOf         string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "fiscalcast",
		Short: "A CLI tool for municipal fund forecasting and debt scenario analysis.",
		Long: `fiscalcast projects multi-year fund balances from revenue and expense
models, generates amortization and debt service schedules, and evaluates
what-if debt decisions: new issuance, early payoff, refunding and capacity.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to fiscalcast!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize and configure logging
			config.LoadEnv()
			Log = config.ConfigureLogging()

			// Fill unset file flags from the hierarchical configuration
			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Warnf("Failed to load configuration, using flags only: %v", err)
				return
			}
			if SharedFlags.Funds == "" {
				SharedFlags.Funds = cfg.Data.FundsFile
			}
			if SharedFlags.Transactions == "" {
				SharedFlags.Transactions = cfg.Data.TransactionsFile
			}
			if SharedFlags.Instruments == "" {
				SharedFlags.Instruments = cfg.Data.InstrumentsFile
			}
			if SharedFlags.Format == "" {
				SharedFlags.Format = cfg.Report.Format
			}
			if err := validation.IsValidOutputFormat(SharedFlags.Format); err != nil {
				Log.Fatalf("Invalid --format: %v", err)
			}
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}

	// Specific compare command flags
	BaseScenario      string
	AlternateScenario string

	// Specific sensitivity command flags
	Variable string
	Values   string
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Scenario, "scenario", "s", "", "Scenario YAML file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file (default stdout)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Format, "format", "f", "", "Output format: json or csv")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Funds, "funds", "", "Funds ledger CSV file")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Transactions, "transactions", "", "Transactions ledger CSV file")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Instruments, "instruments", "", "Debt instruments CSV file")
	Cmd.PersistentFlags().StringVar(&SharedFlags.AsOf, "as-of", "", "Valuation date (defaults to today)")
}
