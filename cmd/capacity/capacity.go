// Package capacity handles the debt capacity report command
package capacity

import (
	"openmuni/fiscalcast/cmd/common"
	"openmuni/fiscalcast/cmd/root"
	"openmuni/fiscalcast/internal/debtscenario"
	"openmuni/fiscalcast/internal/ledger"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/report"
	"openmuni/fiscalcast/internal/scenario"
	"openmuni/fiscalcast/internal/validation"

	"github.com/spf13/cobra"
)

var inputFile string

// Cmd represents the capacity command
var Cmd = &cobra.Command{
	Use:   "capacity",
	Short: "Report debt capacity, coverage ratios and stress indicators",
	Long: `Measure outstanding debt against revenue sources, population and assessed
value. Instruments come from the capacity input document or, when the
document lists none, from the instruments ledger file.`,
	Run: capacityFunc,
}

func init() {
	Cmd.Flags().StringVar(&inputFile, "input", "", "Capacity input YAML file")
}

func capacityFunc(cmd *cobra.Command, args []string) {
	log := logging.NewLogrusAdapterFromLogger(root.Log)

	if inputFile == "" {
		log.Fatal("A capacity input file is required (--input)")
	}
	if err := validation.IsValidInputFile(inputFile); err != nil {
		log.Fatalf("Invalid capacity input file: %v", err)
	}
	input, err := scenario.LoadCapacityInput(inputFile)
	if err != nil {
		log.Fatalf("Error loading capacity input: %v", err)
	}

	if len(input.Instruments) == 0 && root.SharedFlags.Instruments != "" {
		instruments, err := ledger.New("", "", root.SharedFlags.Instruments, log).LoadInstruments()
		if err != nil {
			log.Fatalf("Error loading instruments: %v", err)
		}
		input.Instruments = instruments
	}

	analyzer := debtscenario.NewAnalyzer(log)
	result, err := analyzer.AnalyzeCapacity(input)
	if err != nil {
		log.Fatalf("Error analyzing capacity: %v", err)
	}

	writer := report.NewWriter(log)
	data, err := writer.RenderJSON(result)
	if err != nil {
		log.Fatalf("Error rendering report: %v", err)
	}
	common.WriteReport(writer, root.SharedFlags.Output, data, log)

	log.Info("Capacity report generated",
		logging.Field{Key: "outstanding", Value: result.OutstandingPrincipal.StringFixed(2)},
		logging.Field{Key: "coverage_sources", Value: len(result.CoverageRatios)})
}
