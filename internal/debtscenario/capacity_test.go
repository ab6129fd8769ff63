package debtscenario

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmuni/fiscalcast/internal/models"
)

func TestAnalyzeCapacity(t *testing.T) {
	asOf := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inst := models.DebtInstrument{
		ID:               "water-2026",
		Name:             "Water Revenue Bonds",
		FundID:           "water",
		PledgedFundID:    "water",
		MinCoverageRatio: 1.25,
		Principal:        decimal.NewFromInt(1000000),
		AnnualRate:       0.04,
		TermYears:        20,
		AmortizationType: models.AmortizationLevelPrincipal,
		PaymentFrequency: models.FrequencyAnnual,
		IssueDate:        asOf,
		FirstPaymentDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	analyzer := NewAnalyzer(nil)
	report, err := analyzer.AnalyzeCapacity(models.DebtCapacityInput{
		AsOf:        asOf,
		Instruments: []models.DebtInstrument{inst},
		RevenueSources: []models.RevenueSource{
			{Name: "General Revenues", AnnualRevenue: decimal.NewFromInt(150000)},
			{Name: "Water Charges", AnnualRevenue: decimal.NewFromInt(110000), PledgedFundID: "water"},
		},
		Population:    1000,
		AssessedValue: decimal.NewFromInt(20000000),
	})
	require.NoError(t, err)

	// No payments have been made yet.
	assert.True(t, report.OutstandingPrincipal.Equal(decimal.NewFromInt(1000000)))

	// Year one of level principal: 50,000 principal + 40,000 interest.
	assert.True(t, report.CurrentYearDebtService.Equal(decimal.NewFromInt(90000)),
		"got %s", report.CurrentYearDebtService)

	require.Len(t, report.CoverageRatios, 2)

	general := report.CoverageRatios[0]
	assert.InDelta(t, 150000.0/90000.0, general.Ratio, 0.001)
	assert.Equal(t, models.CoverageAdequate, general.Rating)
	assert.True(t, general.MeetsRequirement)

	water := report.CoverageRatios[1]
	assert.InDelta(t, 110000.0/90000.0, water.Ratio, 0.001)
	assert.Equal(t, models.CoverageMarginal, water.Rating)
	assert.Equal(t, 1.25, water.MinRequired)
	assert.False(t, water.MeetsRequirement, "1.22x coverage misses the 1.25x covenant")

	// $1M across 1,000 residents is exactly the per-capita GOOD limit.
	assert.True(t, report.PerCapitaDebt.Equal(decimal.NewFromInt(1000)))
	assert.InDelta(t, 0.05, report.DebtToAssessedValue, 1e-9)

	require.Len(t, report.Indicators, 3)
	byName := map[string]models.StressIndicator{}
	for _, indicator := range report.Indicators {
		byName[indicator.Name] = indicator
	}
	assert.Equal(t, models.IndicatorGood, byName["per_capita_debt"].Rating)
	assert.Equal(t, models.IndicatorWarning, byName["debt_to_assessed_value"].Rating)
	assert.Equal(t, models.IndicatorWarning, byName["debt_service_to_revenue"].Rating)
}

func TestAnalyzeCapacityMidLife(t *testing.T) {
	inst := twentyYearBond(0.04)

	analyzer := NewAnalyzer(nil)
	report, err := analyzer.AnalyzeCapacity(models.DebtCapacityInput{
		AsOf:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Instruments: []models.DebtInstrument{inst},
	})
	require.NoError(t, err)

	// Eleven of twenty payments are behind us; the balance has amortized.
	assert.True(t, report.OutstandingPrincipal.LessThan(inst.Principal))
	assert.True(t, report.OutstandingPrincipal.IsPositive())
	assert.True(t, report.CurrentYearDebtService.IsPositive())

	// Optional ratios are skipped without population or assessed value.
	assert.True(t, report.PerCapitaDebt.IsZero())
	assert.Zero(t, report.DebtToAssessedValue)
	assert.Empty(t, report.Indicators)
}

func TestAnalyzeCapacityRequiresAsOf(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	_, err := analyzer.AnalyzeCapacity(models.DebtCapacityInput{})
	require.Error(t, err)
}

func TestValidateInstrumentCustomPrincipalMustSum(t *testing.T) {
	inst := models.DebtInstrument{
		Name:             "Custom Note",
		Principal:        decimal.NewFromInt(100000),
		TermYears:        2,
		AmortizationType: models.AmortizationCustom,
		PaymentFrequency: models.FrequencyAnnual,
		FirstPaymentDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		CustomPayments: []models.CustomPayment{
			{Period: 0, Principal: decimal.NewFromInt(40000), Interest: decimal.NewFromInt(4000)},
			{Period: 1, Principal: decimal.NewFromInt(50000), Interest: decimal.NewFromInt(2400)},
		},
	}

	err := ValidateInstrument(inst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not sum")

	inst.CustomPayments[1].Principal = decimal.NewFromInt(60000)
	assert.NoError(t, ValidateInstrument(inst))
}
