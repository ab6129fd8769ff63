// Package amortization generates payment-by-payment debt schedules under the
// supported amortization conventions.
//
// Level debt service uses the standard annuity formula
//
//	PMT = P·r·(1+r)^n / ((1+r)^n − 1)
//
// with interest recomputed on the declining balance each period. Payment
// amounts come from float64 transcendental math and convert to decimal at the
// boundary; balance chaining itself is exact decimal arithmetic, so every
// schedule satisfies EndingBalance = BeginningBalance − Principal to the
// cent and the final entry ends at exactly zero (rounding drift is swept
// into the final principal payment).
package amortization

import (
	"math"

	"github.com/shopspring/decimal"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

// Input holds the parameters for one schedule generation.
type Input struct {
	Principal    decimal.Decimal
	PeriodicRate float64
	TotalPeriods int
	Type         models.AmortizationType
	// CustomPayments is required when Type is CUSTOM and ignored otherwise.
	CustomPayments []models.CustomPayment
}

// Schedule produces the full amortization schedule for the input. A zero
// principal or zero periods yields an empty schedule; negative values and
// unrecognized amortization types are rejected.
func Schedule(in Input) ([]models.AmortizationEntry, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.Principal.IsZero() || in.TotalPeriods == 0 {
		return []models.AmortizationEntry{}, nil
	}

	switch in.Type {
	case models.AmortizationLevelDebtService:
		return levelDebtService(in), nil
	case models.AmortizationLevelPrincipal:
		return levelPrincipal(in), nil
	case models.AmortizationInterestOnly:
		return interestOnly(in), nil
	case models.AmortizationCustom:
		return custom(in)
	}
	// validate already rejected unknown types.
	return nil, &calcerror.ScheduleError{Reason: "unreachable amortization type"}
}

func validate(in Input) error {
	var reasons []string
	if in.Principal.IsNegative() {
		reasons = append(reasons, "principal must not be negative")
	}
	if in.TotalPeriods < 0 {
		reasons = append(reasons, "total periods must not be negative")
	}
	if in.PeriodicRate < 0 {
		reasons = append(reasons, "periodic rate must not be negative")
	}
	if !in.Type.IsValid() {
		reasons = append(reasons, "unrecognized amortization type '"+string(in.Type)+"'")
	}
	if in.Type == models.AmortizationCustom && in.TotalPeriods > 0 && len(in.CustomPayments) == 0 {
		reasons = append(reasons, "custom amortization requires custom payments")
	}
	if len(reasons) > 0 {
		return &calcerror.ValidationError{Subject: "amortization input", Issues: reasons}
	}
	return nil
}

// AnnuityPayment returns the constant per-period payment for a level debt
// service loan. A zero rate degenerates to equal principal installments.
func AnnuityPayment(principal, periodicRate float64, totalPeriods int) float64 {
	if totalPeriods == 0 {
		return 0
	}
	if periodicRate == 0 {
		return principal / float64(totalPeriods)
	}
	factor := math.Pow(1+periodicRate, float64(totalPeriods))
	return principal * periodicRate * factor / (factor - 1)
}

func levelDebtService(in Input) []models.AmortizationEntry {
	principalFloat, _ := in.Principal.Float64()
	payment := moneyutils.RoundFloat(AnnuityPayment(principalFloat, in.PeriodicRate, in.TotalPeriods))
	rate := decimal.NewFromFloat(in.PeriodicRate)

	entries := make([]models.AmortizationEntry, 0, in.TotalPeriods)
	balance := in.Principal
	for period := 0; period < in.TotalPeriods; period++ {
		interest := moneyutils.Round(balance.Mul(rate))
		principal := payment.Sub(interest)
		entries = append(entries, newEntry(period, balance, principal, interest))
		balance = balance.Sub(principal)
	}
	return sweepFinal(entries)
}

func levelPrincipal(in Input) []models.AmortizationEntry {
	installment := moneyutils.Round(in.Principal.Div(decimal.NewFromInt(int64(in.TotalPeriods))))
	rate := decimal.NewFromFloat(in.PeriodicRate)

	entries := make([]models.AmortizationEntry, 0, in.TotalPeriods)
	balance := in.Principal
	for period := 0; period < in.TotalPeriods; period++ {
		interest := moneyutils.Round(balance.Mul(rate))
		entries = append(entries, newEntry(period, balance, installment, interest))
		balance = balance.Sub(installment)
	}
	return sweepFinal(entries)
}

func interestOnly(in Input) []models.AmortizationEntry {
	rate := decimal.NewFromFloat(in.PeriodicRate)
	interest := moneyutils.Round(in.Principal.Mul(rate))

	entries := make([]models.AmortizationEntry, 0, in.TotalPeriods)
	for period := 0; period < in.TotalPeriods; period++ {
		entries = append(entries, newEntry(period, in.Principal, decimal.Zero, interest))
	}
	return sweepFinal(entries)
}

func custom(in Input) ([]models.AmortizationEntry, error) {
	entries := make([]models.AmortizationEntry, 0, len(in.CustomPayments))
	balance := in.Principal
	for i, payment := range in.CustomPayments {
		if payment.Principal.GreaterThan(balance) {
			return nil, &calcerror.ScheduleError{
				Reason: "custom payment principal exceeds remaining balance",
			}
		}
		entries = append(entries, newEntry(i, balance, payment.Principal, payment.Interest))
		balance = balance.Sub(payment.Principal)
	}
	return sweepFinal(entries), nil
}

func newEntry(period int, balance, principal, interest decimal.Decimal) models.AmortizationEntry {
	return models.AmortizationEntry{
		Period:           period,
		BeginningBalance: balance,
		Principal:        principal,
		Interest:         interest,
		Payment:          principal.Add(interest),
		EndingBalance:    balance.Sub(principal),
	}
}

// sweepFinal forces the last entry's principal to equal its beginning
// balance, eliminating accumulated rounding drift, and recomputes the
// payment as principal plus interest.
func sweepFinal(entries []models.AmortizationEntry) []models.AmortizationEntry {
	if len(entries) == 0 {
		return entries
	}
	last := &entries[len(entries)-1]
	last.Principal = last.BeginningBalance
	last.Payment = last.Principal.Add(last.Interest)
	last.EndingBalance = decimal.Zero
	return entries
}

// RemainingBalance returns the principal outstanding after periodsPaid
// payments, using the amortization-type-specific closed form instead of
// replaying the schedule:
//
//	level debt service: P · ((1+r)^n − (1+r)^k) / ((1+r)^n − 1)
//	level principal:    P · (n − k) / n
//	interest only:      P until the final period, then 0
func RemainingBalance(in Input, periodsPaid int) (decimal.Decimal, error) {
	if err := validate(in); err != nil {
		return decimal.Zero, err
	}
	if periodsPaid <= 0 {
		return in.Principal, nil
	}
	if periodsPaid >= in.TotalPeriods {
		return decimal.Zero, nil
	}

	switch in.Type {
	case models.AmortizationLevelDebtService:
		if in.PeriodicRate == 0 {
			return linearRemaining(in, periodsPaid), nil
		}
		principal, _ := in.Principal.Float64()
		n := math.Pow(1+in.PeriodicRate, float64(in.TotalPeriods))
		k := math.Pow(1+in.PeriodicRate, float64(periodsPaid))
		return moneyutils.RoundFloat(principal * (n - k) / (n - 1)), nil

	case models.AmortizationLevelPrincipal:
		return linearRemaining(in, periodsPaid), nil

	case models.AmortizationInterestOnly:
		return in.Principal, nil

	case models.AmortizationCustom:
		balance := in.Principal
		for i := 0; i < periodsPaid && i < len(in.CustomPayments); i++ {
			balance = balance.Sub(in.CustomPayments[i].Principal)
		}
		return balance, nil
	}
	return decimal.Zero, &calcerror.ScheduleError{Reason: "unreachable amortization type"}
}

func linearRemaining(in Input, periodsPaid int) decimal.Decimal {
	remaining := decimal.NewFromInt(int64(in.TotalPeriods - periodsPaid))
	total := decimal.NewFromInt(int64(in.TotalPeriods))
	return moneyutils.Round(in.Principal.Mul(remaining).Div(total))
}
