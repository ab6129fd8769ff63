// Package forecast handles the fund balance projection command
package forecast

import (
	"openmuni/fiscalcast/cmd/common"
	"openmuni/fiscalcast/cmd/root"
	"openmuni/fiscalcast/internal/forecast"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/report"

	"github.com/spf13/cobra"
)

// Cmd represents the forecast command
var Cmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project fund balances over a multi-year horizon",
	Long:  `Project fund balances from a scenario's revenue and expense models, including scheduled debt service.`,
	Run:   forecastFunc,
}

func forecastFunc(cmd *cobra.Command, args []string) {
	log := logging.NewLogrusAdapterFromLogger(root.Log)
	log.Info("Forecast command called",
		logging.Field{Key: "scenario", Value: root.SharedFlags.Scenario})

	scenario := common.LoadForecastScenario(root.SharedFlags.Scenario, log)
	asOf := common.ResolveAsOf(root.SharedFlags.AsOf, log)
	state := common.LoadState(root.SharedFlags.Funds, root.SharedFlags.Transactions,
		root.SharedFlags.Instruments, asOf, log)

	engine := forecast.NewEngine(log)
	result, err := engine.GenerateForecast(state, scenario)
	if err != nil {
		log.Fatalf("Error generating forecast: %v", err)
	}

	writer := report.NewWriter(log)
	data, err := writer.RenderForecast(result, root.SharedFlags.Format)
	if err != nil {
		log.Fatalf("Error rendering forecast: %v", err)
	}
	common.WriteReport(writer, root.SharedFlags.Output, data, log)

	log.Info("Forecast completed",
		logging.Field{Key: "periods", Value: len(result.Periods)},
		logging.Field{Key: "risk", Value: result.Summary.RiskLevel})
}
