// Package issuance handles the new bond issuance analysis command
package issuance

import (
	"openmuni/fiscalcast/cmd/common"
	"openmuni/fiscalcast/cmd/root"
	"openmuni/fiscalcast/internal/debtscenario"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
	"openmuni/fiscalcast/internal/report"

	"github.com/spf13/cobra"
)

// Cmd represents the issuance command
var Cmd = &cobra.Command{
	Use:   "issuance",
	Short: "Analyze a proposed new bond issue",
	Long: `Size a proposed issue: full debt service schedule, issuance costs, reserve
requirement, true interest cost and net proceeds.`,
	Run: issuanceFunc,
}

func issuanceFunc(cmd *cobra.Command, args []string) {
	log := logging.NewLogrusAdapterFromLogger(root.Log)

	scenario := common.LoadDebtScenario(root.SharedFlags.Scenario, log)
	if _, ok := scenario.(models.NewIssuanceScenario); !ok {
		log.Fatalf("Scenario %q is not a new issuance scenario", scenario.ScenarioName())
	}
	asOf := common.ResolveAsOf(root.SharedFlags.AsOf, log)

	analyzer := debtscenario.NewAnalyzer(log)
	result, err := analyzer.Analyze(asOf, scenario)
	if err != nil {
		log.Fatalf("Error analyzing issuance: %v", err)
	}

	writer := report.NewWriter(log)
	data, err := writer.RenderAnalysis(result, root.SharedFlags.Format)
	if err != nil {
		log.Fatalf("Error rendering analysis: %v", err)
	}
	common.WriteReport(writer, root.SharedFlags.Output, data, log)

	log.Info("Issuance analysis completed",
		logging.Field{Key: "scenario", Value: result.ScenarioName},
		logging.Field{Key: "net_proceeds", Value: result.Issuance.NetProceeds.StringFixed(2)},
		logging.Field{Key: "net_interest_cost", Value: moneyutils.FormatPercent(result.Issuance.NetInterestCost)})
}
