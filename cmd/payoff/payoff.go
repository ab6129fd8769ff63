// Package payoff handles the early payoff analysis command
package payoff

import (
	"openmuni/fiscalcast/cmd/common"
	"openmuni/fiscalcast/cmd/root"
	"openmuni/fiscalcast/internal/debtscenario"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/report"

	"github.com/spf13/cobra"
)

// Cmd represents the payoff command
var Cmd = &cobra.Command{
	Use:   "payoff",
	Short: "Analyze retiring an instrument before maturity",
	Long: `Compute the total cost of an early payoff (outstanding principal, accrued
interest, call premium) against the present value of the remaining debt
service, and advise whether the payoff saves money.`,
	Run: payoffFunc,
}

func payoffFunc(cmd *cobra.Command, args []string) {
	log := logging.NewLogrusAdapterFromLogger(root.Log)

	scenario := common.LoadDebtScenario(root.SharedFlags.Scenario, log)
	if _, ok := scenario.(models.EarlyPayoffScenario); !ok {
		log.Fatalf("Scenario %q is not an early payoff scenario", scenario.ScenarioName())
	}
	asOf := common.ResolveAsOf(root.SharedFlags.AsOf, log)

	analyzer := debtscenario.NewAnalyzer(log)
	result, err := analyzer.Analyze(asOf, scenario)
	if err != nil {
		log.Fatalf("Error analyzing payoff: %v", err)
	}

	writer := report.NewWriter(log)
	data, err := writer.RenderAnalysis(result, root.SharedFlags.Format)
	if err != nil {
		log.Fatalf("Error rendering analysis: %v", err)
	}
	common.WriteReport(writer, root.SharedFlags.Output, data, log)

	log.Info("Payoff analysis completed",
		logging.Field{Key: "scenario", Value: result.ScenarioName},
		logging.Field{Key: "net_savings", Value: result.Payoff.NetSavings.StringFixed(2)},
		logging.Field{Key: "advised", Value: result.Payoff.Advised})
}
