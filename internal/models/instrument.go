package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationType identifies how a debt instrument repays principal.
type AmortizationType string

const (
	// AmortizationLevelDebtService keeps total payment constant each period.
	AmortizationLevelDebtService AmortizationType = "LEVEL_DEBT_SERVICE"
	// AmortizationLevelPrincipal repays equal principal each period.
	AmortizationLevelPrincipal AmortizationType = "LEVEL_PRINCIPAL"
	// AmortizationInterestOnly pays interest until a balloon final payment.
	AmortizationInterestOnly AmortizationType = "INTEREST_ONLY"
	// AmortizationCustom follows a caller-supplied payment plan.
	AmortizationCustom AmortizationType = "CUSTOM"
)

// IsValid reports whether the amortization type is recognized.
func (a AmortizationType) IsValid() bool {
	switch a {
	case AmortizationLevelDebtService, AmortizationLevelPrincipal,
		AmortizationInterestOnly, AmortizationCustom:
		return true
	}
	return false
}

// PaymentFrequency is the number of debt service payments per year.
type PaymentFrequency string

const (
	FrequencyAnnual     PaymentFrequency = "ANNUAL"
	FrequencySemiannual PaymentFrequency = "SEMIANNUAL"
	FrequencyQuarterly  PaymentFrequency = "QUARTERLY"
	FrequencyMonthly    PaymentFrequency = "MONTHLY"
)

// PaymentsPerYear returns the payment count for the frequency, or zero for an
// unrecognized value.
func (f PaymentFrequency) PaymentsPerYear() int {
	switch f {
	case FrequencyAnnual:
		return 1
	case FrequencySemiannual:
		return 2
	case FrequencyQuarterly:
		return 4
	case FrequencyMonthly:
		return 12
	}
	return 0
}

// IsValid reports whether the payment frequency is recognized.
func (f PaymentFrequency) IsValid() bool {
	return f.PaymentsPerYear() > 0
}

// CustomPayment is one entry of a caller-defined amortization plan.
type CustomPayment struct {
	Period    int             `json:"period" yaml:"period"`
	Principal decimal.Decimal `json:"principal" yaml:"principal"`
	Interest  decimal.Decimal `json:"interest" yaml:"interest"`
}

// DebtInstrument represents an outstanding or proposed bond, note or loan.
// The engine only derives schedules from instruments; it never mutates them.
type DebtInstrument struct {
	ID               string           `json:"id" yaml:"id"`
	Name             string           `json:"name" yaml:"name"`
	FundID           string           `json:"fund_id" yaml:"fund_id"`
	Principal        decimal.Decimal  `json:"principal" yaml:"principal"`
	AnnualRate       float64          `json:"annual_rate" yaml:"annual_rate"`
	TermYears        int              `json:"term_years" yaml:"term_years"`
	AmortizationType AmortizationType `json:"amortization_type" yaml:"amortization_type"`
	PaymentFrequency PaymentFrequency `json:"payment_frequency" yaml:"payment_frequency"`
	IssueDate        time.Time        `json:"issue_date" yaml:"issue_date"`
	FirstPaymentDate time.Time        `json:"first_payment_date" yaml:"first_payment_date"`
	CallDate         *time.Time       `json:"call_date,omitempty" yaml:"call_date,omitempty"`
	CallPremiumRate  float64          `json:"call_premium_rate" yaml:"call_premium_rate"`
	PledgedFundID    string           `json:"pledged_fund_id,omitempty" yaml:"pledged_fund_id,omitempty"`
	MinCoverageRatio float64          `json:"min_coverage_ratio" yaml:"min_coverage_ratio"`
	CustomPayments   []CustomPayment  `json:"custom_payments,omitempty" yaml:"custom_payments,omitempty"`
}

// TotalPeriods returns the number of scheduled payments over the full term.
func (d DebtInstrument) TotalPeriods() int {
	return d.TermYears * d.PaymentFrequency.PaymentsPerYear()
}

// PeriodicRate returns the per-payment interest rate.
func (d DebtInstrument) PeriodicRate() float64 {
	per := d.PaymentFrequency.PaymentsPerYear()
	if per == 0 {
		return 0
	}
	return d.AnnualRate / float64(per)
}

// PaymentDate returns the scheduled date of payment period (zero-based).
func (d DebtInstrument) PaymentDate(period int) time.Time {
	monthsPerPayment := 12 / d.PaymentFrequency.PaymentsPerYear()
	return d.FirstPaymentDate.AddDate(0, monthsPerPayment*period, 0)
}

// MaturityDate returns the date of the final scheduled payment.
func (d DebtInstrument) MaturityDate() time.Time {
	return d.PaymentDate(d.TotalPeriods() - 1)
}

// IsCallable reports whether the instrument carries an optional call.
func (d DebtInstrument) IsCallable() bool {
	return d.CallDate != nil
}

// IsPledged reports whether the instrument is secured by pledged fund revenue.
func (d DebtInstrument) IsPledged() bool {
	return d.PledgedFundID != ""
}
