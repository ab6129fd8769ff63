// Package sensitivity handles the single-variable sensitivity sweep command
package sensitivity

import (
	"openmuni/fiscalcast/cmd/common"
	"openmuni/fiscalcast/cmd/root"
	"openmuni/fiscalcast/internal/forecast"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/report"

	"github.com/spf13/cobra"
)

// Cmd represents the sensitivity command
var Cmd = &cobra.Command{
	Use:   "sensitivity",
	Short: "Sweep one scenario variable and measure the balance impact",
	Long: `Re-run a forecast substituting each tested value for one economic variable
(inflation_rate, wage_growth, property_growth, interest_rate, revenue_growth
or expense_growth) and report the ending balance swing.`,
	Run: sensitivityFunc,
}

func init() {
	Cmd.Flags().StringVar(&root.Variable, "variable", "", "Variable to sweep")
	Cmd.Flags().StringVar(&root.Values, "values", "", "Comma-separated test values, e.g. 0.01,0.03,0.05")
}

func sensitivityFunc(cmd *cobra.Command, args []string) {
	log := logging.NewLogrusAdapterFromLogger(root.Log)

	testValues, err := common.ParseFloatList(root.Values)
	if err != nil {
		log.Fatalf("Invalid --values list: %v", err)
	}

	scenario := common.LoadForecastScenario(root.SharedFlags.Scenario, log)
	asOf := common.ResolveAsOf(root.SharedFlags.AsOf, log)
	state := common.LoadState(root.SharedFlags.Funds, root.SharedFlags.Transactions,
		root.SharedFlags.Instruments, asOf, log)

	engine := forecast.NewEngine(log)
	analysis, err := engine.RunSensitivityAnalysis(state, scenario,
		models.SensitivityVariable(root.Variable), testValues)
	if err != nil {
		log.Fatalf("Error running sensitivity analysis: %v", err)
	}

	writer := report.NewWriter(log)
	data, err := writer.RenderSensitivity(analysis, root.SharedFlags.Format)
	if err != nil {
		log.Fatalf("Error rendering analysis: %v", err)
	}
	common.WriteReport(writer, root.SharedFlags.Output, data, log)

	log.Info("Sensitivity analysis completed",
		logging.Field{Key: "variable", Value: analysis.Variable},
		logging.Field{Key: "impact", Value: analysis.Impact})
}
