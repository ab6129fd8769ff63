// Package compare handles the scenario comparison command
package compare

import (
	"openmuni/fiscalcast/cmd/common"
	"openmuni/fiscalcast/cmd/root"
	"openmuni/fiscalcast/internal/forecast"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/report"

	"github.com/spf13/cobra"
)

// Cmd represents the compare command
var Cmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two forecast scenarios period by period",
	Long:  `Run two scenarios against the same financial state and report per-period revenue, expense and balance deltas.`,
	Run:   compareFunc,
}

func init() {
	Cmd.Flags().StringVar(&root.BaseScenario, "base", "", "Base scenario YAML file")
	Cmd.Flags().StringVar(&root.AlternateScenario, "alternate", "", "Alternate scenario YAML file")
}

func compareFunc(cmd *cobra.Command, args []string) {
	log := logging.NewLogrusAdapterFromLogger(root.Log)

	if root.BaseScenario == "" || root.AlternateScenario == "" {
		log.Fatal("Both --base and --alternate scenario files are required")
	}
	base := common.LoadForecastScenario(root.BaseScenario, log)
	alternate := common.LoadForecastScenario(root.AlternateScenario, log)
	asOf := common.ResolveAsOf(root.SharedFlags.AsOf, log)
	state := common.LoadState(root.SharedFlags.Funds, root.SharedFlags.Transactions,
		root.SharedFlags.Instruments, asOf, log)

	engine := forecast.NewEngine(log)
	comparison, err := engine.CompareScenarios(state, base, alternate)
	if err != nil {
		log.Fatalf("Error comparing scenarios: %v", err)
	}

	writer := report.NewWriter(log)
	data, err := writer.RenderComparison(comparison, root.SharedFlags.Format)
	if err != nil {
		log.Fatalf("Error rendering comparison: %v", err)
	}
	common.WriteReport(writer, root.SharedFlags.Output, data, log)

	log.Info("Comparison completed",
		logging.Field{Key: "base", Value: comparison.BaseScenario},
		logging.Field{Key: "alternate", Value: comparison.AlternateScenario})
}
