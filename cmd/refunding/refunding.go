// Package refunding handles the refunding analysis command
package refunding

import (
	"openmuni/fiscalcast/cmd/common"
	"openmuni/fiscalcast/cmd/root"
	"openmuni/fiscalcast/internal/debtscenario"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/report"

	"github.com/spf13/cobra"
)

// Cmd represents the refunding command
var Cmd = &cobra.Command{
	Use:   "refunding",
	Short: "Analyze refinancing an instrument with new bonds",
	Long: `Size the refunding escrow, the new issue, and the net present value savings
of replacing an outstanding instrument, with an advisability grade. A payoff
before the call date is treated as an advance refunding.`,
	Run: refundingFunc,
}

func refundingFunc(cmd *cobra.Command, args []string) {
	log := logging.NewLogrusAdapterFromLogger(root.Log)

	scenario := common.LoadDebtScenario(root.SharedFlags.Scenario, log)
	if _, ok := scenario.(models.RefundingScenario); !ok {
		log.Fatalf("Scenario %q is not a refunding scenario", scenario.ScenarioName())
	}
	asOf := common.ResolveAsOf(root.SharedFlags.AsOf, log)

	analyzer := debtscenario.NewAnalyzer(log)
	result, err := analyzer.Analyze(asOf, scenario)
	if err != nil {
		log.Fatalf("Error analyzing refunding: %v", err)
	}

	writer := report.NewWriter(log)
	data, err := writer.RenderAnalysis(result, root.SharedFlags.Format)
	if err != nil {
		log.Fatalf("Error rendering analysis: %v", err)
	}
	common.WriteReport(writer, root.SharedFlags.Output, data, log)

	log.Info("Refunding analysis completed",
		logging.Field{Key: "scenario", Value: result.ScenarioName},
		logging.Field{Key: "npv_savings", Value: result.Refunding.NPVSavings.StringFixed(2)},
		logging.Field{Key: "recommendation", Value: result.Refunding.Recommendation})
}
