// Package report renders forecast and debt analysis results for output.
// JSON carries the full nested result; CSV flattens to one row per period,
// schedule entry, delta or sensitivity point for spreadsheet work.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"openmuni/fiscalcast/internal/dateutils"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// UnsupportedFormatError is returned when a result cannot be rendered in the
// requested format.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported report format: '%s'", e.Format)
}

// Writer renders results to their output representation.
type Writer struct {
	log logging.Logger
}

// NewWriter creates a report writer. A nil logger disables logging.
func NewWriter(log logging.Logger) *Writer {
	return &Writer{log: logging.OrNop(log)}
}

// RenderForecast renders a forecast result in the given format. CSV output is
// one row per projected period.
func (w *Writer) RenderForecast(result models.ForecastResult, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return w.RenderJSON(result)
	case FormatCSV:
		rows := make([]forecastRow, 0, len(result.Periods))
		for _, p := range result.Periods {
			rows = append(rows, forecastRow{
				Index:            p.Index,
				Label:            p.Label,
				StartDate:        dateutils.ToISODate(p.StartDate),
				EndDate:          dateutils.ToISODate(p.EndDate),
				BeginningBalance: p.BeginningBalance.StringFixed(2),
				TotalRevenue:     p.TotalRevenue.StringFixed(2),
				TotalExpense:     p.TotalExpense.StringFixed(2),
				DebtService:      p.DebtService.StringFixed(2),
				NetChange:        p.NetChange.StringFixed(2),
				EndingBalance:    p.EndingBalance.StringFixed(2),
				Warnings:         len(p.Warnings),
			})
		}
		return w.renderCSV(rows)
	}
	return nil, &UnsupportedFormatError{Format: format}
}

// RenderSchedule renders a debt service schedule. CSV output is one row per
// payment period.
func (w *Writer) RenderSchedule(schedule models.DebtServiceSchedule, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return w.RenderJSON(schedule)
	case FormatCSV:
		rows := make([]scheduleRow, 0, len(schedule.Entries))
		for _, e := range schedule.Entries {
			rows = append(rows, scheduleRow{
				Period:           e.Period,
				BeginningBalance: e.BeginningBalance.StringFixed(2),
				Principal:        e.Principal.StringFixed(2),
				Interest:         e.Interest.StringFixed(2),
				Payment:          e.Payment.StringFixed(2),
				EndingBalance:    e.EndingBalance.StringFixed(2),
			})
		}
		return w.renderCSV(rows)
	}
	return nil, &UnsupportedFormatError{Format: format}
}

// RenderComparison renders a scenario comparison. CSV output is one delta row
// per period.
func (w *Writer) RenderComparison(cmp models.ScenarioComparison, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return w.RenderJSON(cmp)
	case FormatCSV:
		rows := make([]comparisonRow, 0, len(cmp.PeriodDeltas))
		for _, d := range cmp.PeriodDeltas {
			rows = append(rows, comparisonRow{
				Index:              d.Index,
				Label:              d.Label,
				RevenueDelta:       d.RevenueDelta.StringFixed(2),
				ExpenseDelta:       d.ExpenseDelta.StringFixed(2),
				EndingBalanceDelta: d.EndingBalanceDelta.StringFixed(2),
			})
		}
		return w.renderCSV(rows)
	}
	return nil, &UnsupportedFormatError{Format: format}
}

// RenderSensitivity renders a sensitivity analysis. CSV output is one row per
// tested value.
func (w *Writer) RenderSensitivity(analysis models.SensitivityAnalysis, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return w.RenderJSON(analysis)
	case FormatCSV:
		rows := make([]sensitivityRow, 0, len(analysis.Points))
		for _, p := range analysis.Points {
			rows = append(rows, sensitivityRow{
				Value:         p.Value,
				EndingBalance: p.EndingBalance.StringFixed(2),
				Delta:         p.Delta.StringFixed(2),
				PercentChange: p.PercentChange.StringFixed(2),
			})
		}
		return w.renderCSV(rows)
	}
	return nil, &UnsupportedFormatError{Format: format}
}

// RenderJSON renders any result as indented JSON. Debt analysis envelopes
// have no natural row shape, so JSON is their only representation.
func (w *Writer) RenderJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		w.log.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("error marshaling JSON report: %w", err)
	}
	return data, nil
}

// RenderAnalysis renders a debt scenario analysis result. Only JSON is
// supported; any other format is rejected.
func (w *Writer) RenderAnalysis(result models.CombinedResult, format string) ([]byte, error) {
	if format != FormatJSON {
		return nil, &UnsupportedFormatError{Format: format}
	}
	return w.RenderJSON(result)
}

// WriteFile writes rendered output to path, creating parent directories as
// needed. An empty path writes to stdout.
func (w *Writer) WriteFile(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			w.log.WithError(err).Error("Failed to create output directory")
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		w.log.WithError(err).Error("Failed to write report file")
		return fmt.Errorf("error writing report file: %w", err)
	}

	w.log.Info("Wrote report",
		logging.Field{Key: "file", Value: path},
		logging.Field{Key: "bytes", Value: len(data)})
	return nil
}

func (w *Writer) renderCSV(rows any) ([]byte, error) {
	var buf bytes.Buffer
	csvWriter := csv.NewWriter(&buf)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		w.log.WithError(err).Error("Failed to marshal CSV report")
		return nil, fmt.Errorf("error writing CSV data: %w", err)
	}
	return buf.Bytes(), nil
}

type forecastRow struct {
	Index            int    `csv:"index"`
	Label            string `csv:"label"`
	StartDate        string `csv:"start_date"`
	EndDate          string `csv:"end_date"`
	BeginningBalance string `csv:"beginning_balance"`
	TotalRevenue     string `csv:"total_revenue"`
	TotalExpense     string `csv:"total_expense"`
	DebtService      string `csv:"debt_service"`
	NetChange        string `csv:"net_change"`
	EndingBalance    string `csv:"ending_balance"`
	Warnings         int    `csv:"warnings"`
}

type scheduleRow struct {
	Period           int    `csv:"period"`
	BeginningBalance string `csv:"beginning_balance"`
	Principal        string `csv:"principal"`
	Interest         string `csv:"interest"`
	Payment          string `csv:"payment"`
	EndingBalance    string `csv:"ending_balance"`
}

type comparisonRow struct {
	Index              int    `csv:"index"`
	Label              string `csv:"label"`
	RevenueDelta       string `csv:"revenue_delta"`
	ExpenseDelta       string `csv:"expense_delta"`
	EndingBalanceDelta string `csv:"ending_balance_delta"`
}

type sensitivityRow struct {
	Value         float64 `csv:"value"`
	EndingBalance string  `csv:"ending_balance"`
	Delta         string  `csv:"delta"`
	PercentChange string  `csv:"percent_change"`
}
