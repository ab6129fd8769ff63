package debtservice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmuni/fiscalcast/internal/models"
)

func testBond() models.DebtInstrument {
	return models.DebtInstrument{
		ID:               "bond-go-2020",
		Name:             "2020 GO Bonds",
		FundID:           "fund-debt",
		Principal:        decimal.NewFromInt(1000000),
		AnnualRate:       0.04,
		TermYears:        20,
		AmortizationType: models.AmortizationLevelDebtService,
		PaymentFrequency: models.FrequencyAnnual,
		IssueDate:        time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		FirstPaymentDate: time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestFullSchedule(t *testing.T) {
	schedule, err := FullSchedule(testBond())
	require.NoError(t, err)

	assert.Equal(t, "bond-go-2020", schedule.InstrumentID)
	assert.Equal(t, "fund-debt", schedule.FundID)
	require.Len(t, schedule.Entries, 20)

	assert.True(t, schedule.TotalPrincipal.Equal(decimal.NewFromInt(1000000)),
		"total principal %s != issue principal", schedule.TotalPrincipal)
	assert.True(t, schedule.Entries[19].EndingBalance.IsZero())
}

func TestForHorizonClipsEntries(t *testing.T) {
	schedule, err := ForHorizon(testBond(), 5, 0)
	require.NoError(t, err)

	require.Len(t, schedule.Entries, 5)
	assert.Equal(t, 0, schedule.Entries[0].Period)
	assert.Equal(t, 4, schedule.Entries[4].Period)

	// Clipped totals cover only the included payments.
	expected := decimal.Zero
	for _, entry := range schedule.Entries {
		expected = expected.Add(entry.Payment)
	}
	assert.True(t, schedule.TotalPayment.Equal(expected))
}

func TestForHorizonResumesMidAmortization(t *testing.T) {
	full, err := FullSchedule(testBond())
	require.NoError(t, err)

	resumed, err := ForHorizon(testBond(), 5, 10)
	require.NoError(t, err)
	require.Len(t, resumed.Entries, 5)

	// The resumed schedule must agree with the tail of the full schedule
	// within $1 of closed-form rounding drift.
	tolerance := decimal.NewFromInt(1)
	for i, entry := range resumed.Entries {
		fullEntry := full.Entries[10+i]
		assert.Equal(t, fullEntry.Period, entry.Period)

		diff := entry.BeginningBalance.Sub(fullEntry.BeginningBalance).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance),
			"period %d beginning balance: resumed %s vs full %s", entry.Period, entry.BeginningBalance, fullEntry.BeginningBalance)

		paymentDiff := entry.Payment.Sub(fullEntry.Payment).Abs()
		assert.True(t, paymentDiff.LessThanOrEqual(tolerance),
			"period %d payment: resumed %s vs full %s", entry.Period, entry.Payment, fullEntry.Payment)
	}
}

func TestForHorizonOutsideTermIsEmpty(t *testing.T) {
	schedule, err := ForHorizon(testBond(), 10, 25)
	require.NoError(t, err)

	assert.True(t, schedule.IsEmpty())
	assert.True(t, schedule.TotalPayment.IsZero())
}

func TestForHorizonRejectsNegativeArguments(t *testing.T) {
	_, err := ForHorizon(testBond(), -1, 0)
	assert.Error(t, err)

	_, err = ForHorizon(testBond(), 5, -3)
	assert.Error(t, err)
}

func TestAnnualForInstrument(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	annual, err := AnnualForInstrument(testBond(), start, 5)
	require.NoError(t, err)
	require.Len(t, annual, 5)

	// One annual payment of ~73,582 lands in each forecast year.
	for year, amount := range annual {
		value, _ := amount.Float64()
		assert.InDelta(t, 73582, value, 2.0, "year %d", year)
	}
}

func TestAnnualForInstrumentMaturedBond(t *testing.T) {
	matured := testBond()
	matured.TermYears = 3
	matured.FirstPaymentDate = time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)

	annual, err := AnnualForInstrument(matured, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, err)

	for _, amount := range annual {
		assert.True(t, amount.IsZero())
	}
}

func TestAnnualByFund(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	water := testBond()
	water.ID = "bond-water"
	water.FundID = "fund-water"
	water.Principal = decimal.NewFromInt(500000)

	instruments := []models.DebtInstrument{testBond(), water}

	byFund, err := AnnualByFund(instruments, start, 3)
	require.NoError(t, err)
	require.Len(t, byFund, 2)

	debtYear0, _ := byFund["fund-debt"][0].Float64()
	waterYear0, _ := byFund["fund-water"][0].Float64()
	assert.InDelta(t, 73582, debtYear0, 2.0)
	assert.InDelta(t, 36791, waterYear0, 2.0)
}

func TestAnnualForFundUnknownFund(t *testing.T) {
	annual, err := AnnualForFund([]models.DebtInstrument{testBond()}, "fund-none",
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), 4)
	require.NoError(t, err)
	require.Len(t, annual, 4)

	for _, amount := range annual {
		assert.True(t, amount.IsZero())
	}
}
