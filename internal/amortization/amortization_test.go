package amortization

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/models"
)

func levelDebtServiceInput() Input {
	return Input{
		Principal:    decimal.NewFromInt(1000000),
		PeriodicRate: 0.04,
		TotalPeriods: 20,
		Type:         models.AmortizationLevelDebtService,
	}
}

func TestLevelDebtServiceSchedule(t *testing.T) {
	entries, err := Schedule(levelDebtServiceInput())
	require.NoError(t, err)
	require.Len(t, entries, 20)

	// $1,000,000 at 4% over 20 annual payments is the classic worked
	// example: constant payment of about $73,582.
	payment, _ := entries[0].Payment.Float64()
	assert.InDelta(t, 73582, payment, 1.0)

	// Payment is identical across all periods except the final sweep, which
	// stays within a cent of the constant payment.
	for _, entry := range entries[:len(entries)-1] {
		assert.True(t, entry.Payment.Equal(entries[0].Payment),
			"period %d payment %s != %s", entry.Period, entry.Payment, entries[0].Payment)
	}
	finalDrift := entries[19].Payment.Sub(entries[0].Payment).Abs()
	assert.True(t, finalDrift.LessThanOrEqual(decimal.NewFromFloat(0.50)),
		"final payment drift %s too large", finalDrift)

	// Principal rises and interest falls monotonically.
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].Principal.GreaterThan(entries[i-1].Principal),
			"principal not increasing at period %d", i)
		assert.True(t, entries[i].Interest.LessThan(entries[i-1].Interest),
			"interest not decreasing at period %d", i)
	}

	assertScheduleInvariants(t, entries, decimal.NewFromInt(1000000))
}

func TestLevelDebtServiceZeroRate(t *testing.T) {
	entries, err := Schedule(Input{
		Principal:    decimal.NewFromInt(120000),
		PeriodicRate: 0,
		TotalPeriods: 12,
		Type:         models.AmortizationLevelDebtService,
	})
	require.NoError(t, err)
	require.Len(t, entries, 12)

	// Degenerates to equal principal installments with no interest.
	for _, entry := range entries {
		assert.Equal(t, "10000.00", entry.Principal.StringFixed(2))
		assert.True(t, entry.Interest.IsZero())
	}
	assertScheduleInvariants(t, entries, decimal.NewFromInt(120000))
}

func TestLevelPrincipalSchedule(t *testing.T) {
	principal := decimal.NewFromInt(500000)
	entries, err := Schedule(Input{
		Principal:    principal,
		PeriodicRate: 0.05,
		TotalPeriods: 10,
		Type:         models.AmortizationLevelPrincipal,
	})
	require.NoError(t, err)
	require.Len(t, entries, 10)

	// Equal principal every period; interest recomputed on the declining
	// balance.
	assert.Equal(t, "50000.00", entries[0].Principal.StringFixed(2))
	assert.Equal(t, "50000.00", entries[5].Principal.StringFixed(2))
	assert.Equal(t, "25000.00", entries[0].Interest.StringFixed(2))
	assert.Equal(t, "12500.00", entries[5].Interest.StringFixed(2))

	assertScheduleInvariants(t, entries, principal)
}

func TestInterestOnlySchedule(t *testing.T) {
	principal := decimal.NewFromInt(200000)
	entries, err := Schedule(Input{
		Principal:    principal,
		PeriodicRate: 0.03,
		TotalPeriods: 5,
		Type:         models.AmortizationInterestOnly,
	})
	require.NoError(t, err)
	require.Len(t, entries, 5)

	for _, entry := range entries[:4] {
		assert.True(t, entry.Principal.IsZero())
		assert.Equal(t, "6000.00", entry.Interest.StringFixed(2))
	}

	// Balloon payment retires the full principal in the final period.
	final := entries[4]
	assert.Equal(t, "200000.00", final.Principal.StringFixed(2))
	assert.Equal(t, "206000.00", final.Payment.StringFixed(2))

	assertScheduleInvariants(t, entries, principal)
}

func TestCustomSchedule(t *testing.T) {
	principal := decimal.NewFromInt(100000)
	entries, err := Schedule(Input{
		Principal:    principal,
		TotalPeriods: 3,
		Type:         models.AmortizationCustom,
		CustomPayments: []models.CustomPayment{
			{Period: 0, Principal: decimal.NewFromInt(20000), Interest: decimal.NewFromInt(4000)},
			{Period: 1, Principal: decimal.NewFromInt(30000), Interest: decimal.NewFromInt(3200)},
			{Period: 2, Principal: decimal.NewFromInt(50000), Interest: decimal.NewFromInt(2000)},
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "24000.00", entries[0].Payment.StringFixed(2))
	assertScheduleInvariants(t, entries, principal)
}

func TestCustomScheduleOverpaymentRejected(t *testing.T) {
	_, err := Schedule(Input{
		Principal:    decimal.NewFromInt(1000),
		TotalPeriods: 1,
		Type:         models.AmortizationCustom,
		CustomPayments: []models.CustomPayment{
			{Period: 0, Principal: decimal.NewFromInt(2000)},
		},
	})
	require.Error(t, err)

	var schedErr *calcerror.ScheduleError
	assert.ErrorAs(t, err, &schedErr)
}

func TestScheduleEdgeCases(t *testing.T) {
	t.Run("zero principal yields empty schedule", func(t *testing.T) {
		entries, err := Schedule(Input{
			Principal:    decimal.Zero,
			PeriodicRate: 0.04,
			TotalPeriods: 10,
			Type:         models.AmortizationLevelDebtService,
		})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("zero periods yields empty schedule", func(t *testing.T) {
		entries, err := Schedule(Input{
			Principal:    decimal.NewFromInt(1000),
			PeriodicRate: 0.04,
			TotalPeriods: 0,
			Type:         models.AmortizationLevelDebtService,
		})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("negative inputs rejected", func(t *testing.T) {
		_, err := Schedule(Input{
			Principal:    decimal.NewFromInt(-1000),
			PeriodicRate: 0.04,
			TotalPeriods: -5,
			Type:         models.AmortizationLevelDebtService,
		})
		require.Error(t, err)

		var valErr *calcerror.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Len(t, valErr.Issues, 2)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := Schedule(Input{
			Principal:    decimal.NewFromInt(1000),
			TotalPeriods: 5,
			Type:         models.AmortizationType("BULLET"),
		})
		require.Error(t, err)
	})
}

func TestRemainingBalanceMatchesScheduleReplay(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{"level debt service", levelDebtServiceInput()},
		{
			"level principal",
			Input{
				Principal:    decimal.NewFromInt(750000),
				PeriodicRate: 0.035,
				TotalPeriods: 15,
				Type:         models.AmortizationLevelPrincipal,
			},
		},
		{
			"interest only",
			Input{
				Principal:    decimal.NewFromInt(300000),
				PeriodicRate: 0.05,
				TotalPeriods: 8,
				Type:         models.AmortizationInterestOnly,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := Schedule(tc.input)
			require.NoError(t, err)

			// The closed form must agree with replaying the schedule at
			// every intermediate period, within $1 of rounding drift.
			tolerance := decimal.NewFromInt(1)
			for paid := 1; paid < tc.input.TotalPeriods; paid++ {
				closed, err := RemainingBalance(tc.input, paid)
				require.NoError(t, err)

				replayed := entries[paid].BeginningBalance
				diff := closed.Sub(replayed).Abs()
				assert.True(t, diff.LessThanOrEqual(tolerance),
					"after %d payments: closed form %s vs replay %s", paid, closed, replayed)
			}
		})
	}
}

func TestRemainingBalanceBoundaries(t *testing.T) {
	in := levelDebtServiceInput()

	before, err := RemainingBalance(in, 0)
	require.NoError(t, err)
	assert.True(t, before.Equal(in.Principal))

	after, err := RemainingBalance(in, in.TotalPeriods)
	require.NoError(t, err)
	assert.True(t, after.IsZero())

	past, err := RemainingBalance(in, in.TotalPeriods+7)
	require.NoError(t, err)
	assert.True(t, past.IsZero())
}

func TestRemainingBalanceCustom(t *testing.T) {
	in := Input{
		Principal:    decimal.NewFromInt(100000),
		TotalPeriods: 3,
		Type:         models.AmortizationCustom,
		CustomPayments: []models.CustomPayment{
			{Period: 0, Principal: decimal.NewFromInt(20000)},
			{Period: 1, Principal: decimal.NewFromInt(30000)},
			{Period: 2, Principal: decimal.NewFromInt(50000)},
		},
	}

	balance, err := RemainingBalance(in, 2)
	require.NoError(t, err)
	assert.Equal(t, "50000", balance.String())
}

// assertScheduleInvariants checks the closure properties every schedule must
// satisfy: balances chain exactly, principal sums to the original principal,
// and the final balance is exactly zero.
func assertScheduleInvariants(t *testing.T, entries []models.AmortizationEntry, principal decimal.Decimal) {
	t.Helper()

	totalPrincipal := decimal.Zero
	for i, entry := range entries {
		assert.True(t, entry.EndingBalance.Equal(entry.BeginningBalance.Sub(entry.Principal)),
			"period %d: ending != beginning - principal", i)
		assert.True(t, entry.Payment.Equal(entry.Principal.Add(entry.Interest)),
			"period %d: payment != principal + interest", i)
		if i > 0 {
			assert.True(t, entry.BeginningBalance.Equal(entries[i-1].EndingBalance),
				"period %d: balance chain broken", i)
		}
		totalPrincipal = totalPrincipal.Add(entry.Principal)
	}

	assert.True(t, totalPrincipal.Equal(principal),
		"principal sum %s != original %s", totalPrincipal, principal)
	assert.True(t, entries[len(entries)-1].EndingBalance.IsZero(),
		"final ending balance not exactly zero")
}
