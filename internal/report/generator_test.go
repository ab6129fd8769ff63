package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmuni/fiscalcast/internal/models"
)

func sampleForecast() models.ForecastResult {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.ForecastResult{
		ID:           "f-1",
		FundID:       "general",
		ScenarioName: "Baseline",
		GeneratedAt:  time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		Periods: []models.ForecastPeriod{
			{
				Index:            0,
				Label:            "FY2026",
				StartDate:        start,
				EndDate:          start.AddDate(1, 0, -1),
				BeginningBalance: decimal.NewFromInt(50000),
				TotalRevenue:     decimal.NewFromInt(120000),
				TotalExpense:     decimal.NewFromInt(125000),
				NetChange:        decimal.NewFromInt(-5000),
				EndingBalance:    decimal.NewFromInt(45000),
				Warnings:         []models.Warning{{Code: models.WarningBelowMinimum}},
			},
			{
				Index:            1,
				Label:            "FY2027",
				StartDate:        start.AddDate(1, 0, 0),
				EndDate:          start.AddDate(2, 0, -1),
				BeginningBalance: decimal.NewFromInt(45000),
				TotalRevenue:     decimal.NewFromInt(122400),
				TotalExpense:     decimal.NewFromInt(128750),
				NetChange:        decimal.NewFromInt(-6350),
				EndingBalance:    decimal.NewFromInt(38650),
			},
		},
		Summary: models.ForecastSummary{
			EndingBalance: decimal.NewFromInt(38650),
			RiskLevel:     models.RiskModerate,
		},
	}
}

func TestRenderForecastJSON(t *testing.T) {
	w := NewWriter(nil)

	data, err := w.RenderForecast(sampleForecast(), FormatJSON)
	require.NoError(t, err)

	var decoded models.ForecastResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Baseline", decoded.ScenarioName)
	require.Len(t, decoded.Periods, 2)
	assert.True(t, decoded.Periods[1].EndingBalance.Equal(decimal.NewFromInt(38650)))
	assert.Equal(t, models.RiskModerate, decoded.Summary.RiskLevel)
}

func TestRenderForecastCSV(t *testing.T) {
	w := NewWriter(nil)

	data, err := w.RenderForecast(sampleForecast(), FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "index,label,start_date,end_date,beginning_balance,total_revenue,total_expense,debt_service,net_change,ending_balance,warnings", lines[0])
	assert.Equal(t, "0,FY2026,2026-01-01,2026-12-31,50000.00,120000.00,125000.00,0.00,-5000.00,45000.00,1", lines[1])
	assert.Contains(t, lines[2], "FY2027")
	assert.Contains(t, lines[2], "38650.00")
}

func TestRenderForecastUnsupportedFormat(t *testing.T) {
	w := NewWriter(nil)

	_, err := w.RenderForecast(sampleForecast(), "xml")
	require.Error(t, err)

	var formatErr *UnsupportedFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "xml", formatErr.Format)
}

func TestRenderScheduleCSV(t *testing.T) {
	w := NewWriter(nil)
	schedule := models.DebtServiceSchedule{
		InstrumentID: "bond-1",
		Entries: []models.AmortizationEntry{
			{
				Period:           1,
				BeginningBalance: decimal.NewFromInt(100000),
				Principal:        decimal.NewFromFloat(8024.26),
				Interest:         decimal.NewFromInt(4000),
				Payment:          decimal.NewFromFloat(12024.26),
				EndingBalance:    decimal.NewFromFloat(91975.74),
			},
		},
	}

	data, err := w.RenderSchedule(schedule, FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "period,beginning_balance,principal,interest,payment,ending_balance", lines[0])
	assert.Equal(t, "1,100000.00,8024.26,4000.00,12024.26,91975.74", lines[1])
}

func TestRenderComparisonCSV(t *testing.T) {
	w := NewWriter(nil)
	cmp := models.ScenarioComparison{
		BaseScenario:      "Baseline",
		AlternateScenario: "Recession",
		PeriodDeltas: []models.PeriodDelta{
			{
				Index:              0,
				Label:              "FY2026",
				RevenueDelta:       decimal.NewFromInt(-5000),
				EndingBalanceDelta: decimal.NewFromInt(-5000),
			},
		},
	}

	data, err := w.RenderComparison(cmp, FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(data), "revenue_delta")
	assert.Contains(t, string(data), "-5000.00")
}

func TestRenderAnalysisRejectsCSV(t *testing.T) {
	w := NewWriter(nil)
	result := models.CombinedResult{ID: "a-1", ScenarioName: "New Issue"}

	_, err := w.RenderAnalysis(result, FormatCSV)
	var formatErr *UnsupportedFormatError
	require.ErrorAs(t, err, &formatErr)

	data, err := w.RenderAnalysis(result, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "New Issue"`)
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	w := NewWriter(nil)
	path := filepath.Join(t.TempDir(), "reports", "out.json")

	require.NoError(t, w.WriteFile(path, []byte(`{"ok":true}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}
