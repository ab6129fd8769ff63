package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/models"
)

func testState(balance float64) CurrentState {
	return CurrentState{
		Funds: []models.Fund{
			{
				ID:             "general",
				Code:           "100",
				Name:           "General Fund",
				FundType:       models.FundTypeGeneral,
				CurrentBalance: decimal.NewFromFloat(balance),
			},
		},
	}
}

func activeGate(name string) models.ModelGate {
	return models.ModelGate{Name: name, Active: true}
}

func TestStartingBalanceFromTransactions(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	state := CurrentState{
		Funds: []models.Fund{
			{
				ID:               "general",
				BeginningBalance: decimal.NewFromInt(10000),
				CurrentBalance:   decimal.NewFromInt(99999),
			},
		},
		Transactions: []models.Transaction{
			{ID: "t1", FundID: "general", Date: asOf.AddDate(0, -2, 0), Type: models.TransactionTypeRevenue, Amount: decimal.NewFromInt(5000)},
			{ID: "t2", FundID: "general", Date: asOf.AddDate(0, -1, 0), Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(3000)},
			{ID: "t3", FundID: "general", Date: asOf.AddDate(0, 1, 0), Type: models.TransactionTypeRevenue, Amount: decimal.NewFromInt(7000)},
			{ID: "t4", FundID: "general", Date: asOf.AddDate(0, -1, 0), Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(500), Void: true},
			{ID: "t5", FundID: "water", Date: asOf.AddDate(0, -1, 0), Type: models.TransactionTypeRevenue, Amount: decimal.NewFromInt(800)},
		},
		AsOf: asOf,
	}

	balance, err := state.StartingBalance("general")
	require.NoError(t, err)
	// 10000 + 5000 - 3000; future, void and other-fund rows excluded.
	assert.True(t, balance.Equal(decimal.NewFromInt(12000)), "got %s", balance)
}

func TestStartingBalanceWithoutHistoryUsesCurrentBalance(t *testing.T) {
	state := testState(50000)
	balance, err := state.StartingBalance("general")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(50000)))
}

func TestStartingBalanceUnknownFund(t *testing.T) {
	state := testState(50000)
	_, err := state.StartingBalance("sewer")
	require.Error(t, err)

	var verr *calcerror.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Issues[0], "sewer")
}

func TestGenerateForecastDecliningFund(t *testing.T) {
	engine := NewEngine(nil)
	scenario := models.ForecastScenario{
		ID:             "declining",
		Name:           "Declining Fund",
		FundID:         "general",
		HorizonPeriods: 5,
		Granularity:    models.GranularityAnnual,
		StartDate:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Revenues: []models.RevenueModel{
			models.GrowingRevenue{ModelGate: activeGate("Sales Tax"), BaseAmount: decimal.NewFromInt(120000), GrowthRate: 0.02},
		},
		Expenses: []models.ExpenseModel{
			models.GrowingExpense{ModelGate: activeGate("Operations"), BaseAmount: decimal.NewFromInt(125000), GrowthRate: 0.03},
		},
	}

	result, err := engine.GenerateForecast(testState(50000), scenario)
	require.NoError(t, err)

	require.Len(t, result.Periods, 5)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "general", result.FundID)

	first := result.Periods[0]
	assert.Equal(t, "FY2026", first.Label)
	assert.True(t, first.TotalRevenue.Equal(decimal.NewFromInt(120000)), "got %s", first.TotalRevenue)
	assert.True(t, first.TotalExpense.Equal(decimal.NewFromInt(125000)), "got %s", first.TotalExpense)
	assert.True(t, first.EndingBalance.Equal(decimal.NewFromInt(45000)), "got %s", first.EndingBalance)

	// Balances chain exactly from one period into the next.
	previous := decimal.NewFromInt(50000)
	for _, period := range result.Periods {
		assert.True(t, period.BeginningBalance.Equal(previous))
		expected := period.BeginningBalance.Add(period.TotalRevenue).Sub(period.TotalExpense).Sub(period.DebtService)
		assert.True(t, period.EndingBalance.Equal(expected))
		previous = period.EndingBalance
	}

	last := result.Periods[len(result.Periods)-1]
	assert.True(t, result.Summary.EndingBalance.Equal(last.EndingBalance))
	assert.True(t, result.Summary.LowestBalance.Equal(last.EndingBalance))
	assert.Equal(t, last.Label, result.Summary.LowestBalanceLabel)
	assert.True(t, result.Summary.NetChange.Equal(last.EndingBalance.Sub(decimal.NewFromInt(50000))))

	// Expenses outgrow revenues, so the balance declines well past 20%.
	assert.Equal(t, models.RiskModerate, result.Summary.RiskLevel)
}

func TestGenerateForecastRejectsInvalidScenario(t *testing.T) {
	engine := NewEngine(nil)
	scenario := models.ForecastScenario{
		FundID:         "general",
		HorizonPeriods: 5,
		Granularity:    models.GranularityAnnual,
		StartDate:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := engine.GenerateForecast(testState(50000), scenario)
	require.Error(t, err)

	var verr *calcerror.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Issues)
}

func TestGenerateForecastNegativeBalanceWarnsOnce(t *testing.T) {
	engine := NewEngine(nil)
	scenario := models.ForecastScenario{
		ID:             "overdrawn",
		Name:           "Overdrawn",
		FundID:         "general",
		HorizonPeriods: 3,
		Granularity:    models.GranularityAnnual,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Expenses: []models.ExpenseModel{
			models.FixedExpense{ModelGate: activeGate("Operations"), Amount: decimal.NewFromInt(12000)},
		},
	}

	result, err := engine.GenerateForecast(testState(1000), scenario)
	require.NoError(t, err)

	negatives := 0
	for _, warning := range result.Warnings {
		if warning.Code == models.WarningNegativeBalance {
			negatives++
			assert.Equal(t, models.SeverityCritical, warning.Severity)
			assert.Equal(t, 0, warning.PeriodIndex)
		}
	}
	assert.Equal(t, 1, negatives, "the negative-balance warning fires only on first occurrence")
	assert.Equal(t, models.RiskCritical, result.Summary.RiskLevel)
}

func TestGenerateForecastBelowMinimumEveryPeriod(t *testing.T) {
	engine := NewEngine(nil)
	scenario := models.ForecastScenario{
		ID:             "thin-reserves",
		Name:           "Thin Reserves",
		FundID:         "general",
		HorizonPeriods: 5,
		Granularity:    models.GranularityAnnual,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Revenues: []models.RevenueModel{
			models.FixedRevenue{ModelGate: activeGate("Levy"), Amount: decimal.NewFromInt(100000)},
		},
		Expenses: []models.ExpenseModel{
			models.FixedExpense{ModelGate: activeGate("Operations"), Amount: decimal.NewFromInt(100000)},
		},
		MinimumBalance: &models.MinimumBalancePolicy{
			Kind:  models.MinimumBalanceAmount,
			Value: decimal.NewFromInt(100000),
		},
	}

	result, err := engine.GenerateForecast(testState(50000), scenario)
	require.NoError(t, err)

	belowMinimum := 0
	for _, warning := range result.Warnings {
		if warning.Code == models.WarningBelowMinimum {
			belowMinimum++
			assert.Equal(t, models.SeverityHigh, warning.Severity)
		}
	}
	assert.Equal(t, 5, belowMinimum, "below-minimum fires every violating period")
	assert.Equal(t, models.RiskHigh, result.Summary.RiskLevel)
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name           string
		negative       int
		belowMinimum   int
		declinePercent float64
		expected       models.RiskLevel
	}{
		{"healthy", 0, 0, 5, models.RiskLow},
		{"steep decline", 0, 0, 25, models.RiskModerate},
		{"few below minimum", 0, 2, 0, models.RiskModerate},
		{"many below minimum", 0, 4, 0, models.RiskHigh},
		{"any negative dominates", 1, 0, 0, models.RiskCritical},
		{"negative beats below minimum", 2, 5, 90, models.RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRisk(tt.negative, tt.belowMinimum, decimal.NewFromFloat(tt.declinePercent))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCompareScenarios(t *testing.T) {
	engine := NewEngine(nil)
	base := models.ForecastScenario{
		ID:             "base",
		Name:           "Base",
		FundID:         "general",
		HorizonPeriods: 3,
		Granularity:    models.GranularityAnnual,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Revenues: []models.RevenueModel{
			models.FixedRevenue{ModelGate: activeGate("Levy"), Amount: decimal.NewFromInt(100000)},
		},
		Expenses: []models.ExpenseModel{
			models.FixedExpense{ModelGate: activeGate("Operations"), Amount: decimal.NewFromInt(90000)},
		},
	}

	alternate := base.Clone()
	alternate.ID = "cut"
	alternate.Name = "Revenue Cut"
	alternate.Revenues = []models.RevenueModel{
		models.FixedRevenue{ModelGate: activeGate("Levy"), Amount: decimal.NewFromInt(95000)},
	}

	comparison, err := engine.CompareScenarios(testState(50000), base, alternate)
	require.NoError(t, err)

	assert.Equal(t, "Base", comparison.BaseScenario)
	assert.Equal(t, "Revenue Cut", comparison.AlternateScenario)
	require.Len(t, comparison.PeriodDeltas, 3)

	for _, delta := range comparison.PeriodDeltas {
		assert.True(t, delta.RevenueDelta.Equal(decimal.NewFromInt(-5000)))
		assert.True(t, delta.ExpenseDelta.IsZero())
	}
	// Cumulative ending-balance gap widens by 5000 per year.
	assert.True(t, comparison.PeriodDeltas[2].EndingBalanceDelta.Equal(decimal.NewFromInt(-15000)))
	assert.True(t, comparison.RevenueVariance.Equal(decimal.NewFromInt(-15000)))
	assert.True(t, comparison.EndingBalanceVariance.Equal(decimal.NewFromInt(-15000)))
	assert.Contains(t, comparison.RiskTransition, "->")
}

func TestRunSensitivityAnalysis(t *testing.T) {
	engine := NewEngine(nil)
	scenario := models.ForecastScenario{
		ID:             "growth-sweep",
		Name:           "Growth Sweep",
		FundID:         "general",
		HorizonPeriods: 5,
		Granularity:    models.GranularityAnnual,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Revenues: []models.RevenueModel{
			models.GrowingRevenue{ModelGate: activeGate("Sales Tax"), BaseAmount: decimal.NewFromInt(100000), GrowthRate: 0.02},
		},
		Expenses: []models.ExpenseModel{
			models.FixedExpense{ModelGate: activeGate("Operations"), Amount: decimal.NewFromInt(100000)},
		},
	}

	analysis, err := engine.RunSensitivityAnalysis(testState(50000), scenario,
		models.VariableRevenueGrowth, []float64{0.0, 0.05})
	require.NoError(t, err)

	assert.Equal(t, models.VariableRevenueGrowth, analysis.Variable)
	assert.Equal(t, 0.02, analysis.BaselineValue)
	require.Len(t, analysis.Points, 2)

	// Zero growth loses the compounding upside; higher growth gains it.
	assert.True(t, analysis.Points[0].Delta.IsNegative())
	assert.True(t, analysis.Points[1].Delta.IsPositive())
	assert.Equal(t, models.ImpactHigh, analysis.Impact)

	// The sweep mutates clones only.
	growing := scenario.Revenues[0].(models.GrowingRevenue)
	assert.Equal(t, 0.02, growing.GrowthRate)
}

func TestRunSensitivityAnalysisRejectsUnknownVariable(t *testing.T) {
	engine := NewEngine(nil)
	scenario := models.ForecastScenario{
		ID:             "s",
		Name:           "S",
		FundID:         "general",
		HorizonPeriods: 1,
		Granularity:    models.GranularityAnnual,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := engine.RunSensitivityAnalysis(testState(1000), scenario,
		models.SensitivityVariable("phase_of_moon"), []float64{0.1})
	require.Error(t, err)

	var verr *calcerror.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestGrantRenewalIsReproducible(t *testing.T) {
	engine := NewEngine(nil)
	scenario := models.ForecastScenario{
		ID:             "grant-funded",
		Name:           "Grant Funded",
		FundID:         "general",
		HorizonPeriods: 10,
		Granularity:    models.GranularityAnnual,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Revenues: []models.RevenueModel{
			models.GrantRevenue{
				ModelGate:          activeGate("State Grant"),
				Amount:             decimal.NewFromInt(50000),
				Years:              2,
				RenewalProbability: 0.5,
			},
		},
		RandomSeed: 42,
	}

	first, err := engine.GenerateForecast(testState(10000), scenario)
	require.NoError(t, err)
	second, err := engine.GenerateForecast(testState(10000), scenario)
	require.NoError(t, err)

	assert.True(t, first.Summary.TotalRevenue.Equal(second.Summary.TotalRevenue))
	assert.True(t, first.Summary.EndingBalance.Equal(second.Summary.EndingBalance))

	// The first two years are guaranteed regardless of renewal draws.
	assert.True(t, first.Periods[0].TotalRevenue.Equal(decimal.NewFromInt(50000)))
	assert.True(t, first.Periods[1].TotalRevenue.Equal(decimal.NewFromInt(50000)))
}

func TestGenerateForecastQuarterlySpreadsAnnualAmounts(t *testing.T) {
	engine := NewEngine(nil)
	scenario := models.ForecastScenario{
		ID:             "quarterly",
		Name:           "Quarterly",
		FundID:         "general",
		HorizonPeriods: 4,
		Granularity:    models.GranularityQuarterly,
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Revenues: []models.RevenueModel{
			models.FixedRevenue{ModelGate: activeGate("Levy"), Amount: decimal.NewFromInt(120000)},
		},
		Expenses: []models.ExpenseModel{
			models.FixedExpense{ModelGate: activeGate("Operations"), Amount: decimal.NewFromInt(80000)},
		},
	}

	result, err := engine.GenerateForecast(testState(10000), scenario)
	require.NoError(t, err)
	require.Len(t, result.Periods, 4)

	for _, period := range result.Periods {
		assert.True(t, period.TotalRevenue.Equal(decimal.NewFromInt(30000)), "got %s", period.TotalRevenue)
		assert.True(t, period.TotalExpense.Equal(decimal.NewFromInt(20000)))
	}
	assert.Equal(t, "2026-Q1", result.Periods[0].Label)
	assert.True(t, result.Summary.TotalRevenue.Equal(decimal.NewFromInt(120000)))
	assert.True(t, result.Summary.EndingBalance.Equal(decimal.NewFromInt(50000)))
}

func TestRiskNeverImprovesWithLowerRevenueGrowth(t *testing.T) {
	engine := NewEngine(nil)
	buildScenario := func(growth float64) models.ForecastScenario {
		return models.ForecastScenario{
			ID:             "growth-sweep",
			Name:           "Growth Sweep",
			FundID:         "general",
			HorizonPeriods: 10,
			Granularity:    models.GranularityAnnual,
			StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Revenues: []models.RevenueModel{
				models.GrowingRevenue{ModelGate: activeGate("Sales Tax"), BaseAmount: decimal.NewFromInt(100000), GrowthRate: growth},
			},
			Expenses: []models.ExpenseModel{
				models.GrowingExpense{ModelGate: activeGate("Operations"), BaseAmount: decimal.NewFromInt(103000), GrowthRate: 0.03},
			},
		}
	}

	rates := []float64{0.00, 0.02, 0.03, 0.035, 0.05, 0.08}
	risks := make([]models.RiskLevel, len(rates))
	for i, rate := range rates {
		result, err := engine.GenerateForecast(testState(25000), buildScenario(rate))
		require.NoError(t, err)
		risks[i] = result.Summary.RiskLevel
	}

	// The sweep spans three bands, so the ordering check is not vacuous.
	assert.Equal(t, models.RiskCritical, risks[0])
	assert.Equal(t, models.RiskModerate, risks[3])
	assert.Equal(t, models.RiskLow, risks[len(risks)-1])

	// Under identical state and expenses, lower revenue growth must never
	// classify better than higher revenue growth.
	for i := range rates {
		for j := i + 1; j < len(rates); j++ {
			assert.False(t, risks[j].WorseThan(risks[i]),
				"growth %.3f classified %s but lower growth %.3f classified %s",
				rates[j], risks[j], rates[i], risks[i])
		}
	}
}
