// Package debtservice handles the debt service schedule command
package debtservice

import (
	"openmuni/fiscalcast/cmd/common"
	"openmuni/fiscalcast/cmd/root"
	"openmuni/fiscalcast/internal/debtservice"
	"openmuni/fiscalcast/internal/ledger"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/report"

	"github.com/spf13/cobra"
)

var (
	instrumentID string
	horizonYears int
)

// Cmd represents the debtservice command
var Cmd = &cobra.Command{
	Use:   "debtservice",
	Short: "Report debt service schedules for existing instruments",
	Long: `Report the payment schedule for one instrument, or annual debt service
totals bucketed by fund for the whole portfolio.`,
	Run: debtserviceFunc,
}

func init() {
	Cmd.Flags().StringVar(&instrumentID, "instrument", "", "Report the full schedule for this instrument only")
	Cmd.Flags().IntVar(&horizonYears, "years", 10, "Horizon in years for the annual totals view")
}

func debtserviceFunc(cmd *cobra.Command, args []string) {
	log := logging.NewLogrusAdapterFromLogger(root.Log)

	if root.SharedFlags.Instruments == "" {
		log.Fatal("An instruments file is required (--instruments or data.instruments_file)")
	}
	instruments, err := ledger.New("", "", root.SharedFlags.Instruments, log).LoadInstruments()
	if err != nil {
		log.Fatalf("Error loading instruments: %v", err)
	}
	writer := report.NewWriter(log)

	if instrumentID != "" {
		for _, inst := range instruments {
			if inst.ID != instrumentID {
				continue
			}
			schedule, err := debtservice.FullSchedule(inst)
			if err != nil {
				log.Fatalf("Error building schedule: %v", err)
			}
			data, err := writer.RenderSchedule(schedule, root.SharedFlags.Format)
			if err != nil {
				log.Fatalf("Error rendering schedule: %v", err)
			}
			common.WriteReport(writer, root.SharedFlags.Output, data, log)
			return
		}
		log.Fatalf("Instrument not found: %s", instrumentID)
	}

	asOf := common.ResolveAsOf(root.SharedFlags.AsOf, log)
	annual, err := debtservice.AnnualByFund(instruments, asOf, horizonYears)
	if err != nil {
		log.Fatalf("Error computing annual debt service: %v", err)
	}
	data, err := writer.RenderJSON(annual)
	if err != nil {
		log.Fatalf("Error rendering totals: %v", err)
	}
	common.WriteReport(writer, root.SharedFlags.Output, data, log)

	log.Info("Debt service report generated",
		logging.Field{Key: "instruments", Value: len(instruments)},
		logging.Field{Key: "years", Value: horizonYears})
}
