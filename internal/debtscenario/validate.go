package debtscenario

import (
	"fmt"

	"github.com/shopspring/decimal"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/models"
)

// ValidateInstrument checks the structural invariants an analysis relies on.
// CUSTOM amortization additionally requires the custom principal payments to
// sum exactly to the instrument's principal.
func ValidateInstrument(inst models.DebtInstrument) error {
	var issues []string
	if inst.Principal.LessThanOrEqual(decimal.Zero) {
		issues = append(issues, "principal must be positive")
	}
	if inst.AnnualRate < 0 {
		issues = append(issues, "annual rate must not be negative")
	}
	if inst.TermYears < 1 {
		issues = append(issues, "term must be at least one year")
	}
	if !inst.AmortizationType.IsValid() {
		issues = append(issues, fmt.Sprintf("unrecognized amortization type '%s'", inst.AmortizationType))
	}
	if !inst.PaymentFrequency.IsValid() {
		issues = append(issues, fmt.Sprintf("unrecognized payment frequency '%s'", inst.PaymentFrequency))
	}
	if inst.FirstPaymentDate.IsZero() {
		issues = append(issues, "first payment date is required")
	}
	if inst.AmortizationType == models.AmortizationCustom {
		if len(inst.CustomPayments) == 0 {
			issues = append(issues, "custom amortization requires custom payments")
		} else {
			total := decimal.Zero
			for _, p := range inst.CustomPayments {
				total = total.Add(p.Principal)
			}
			if !total.Equal(inst.Principal) {
				issues = append(issues, fmt.Sprintf(
					"custom payment principal %s does not sum to instrument principal %s",
					total, inst.Principal))
			}
		}
	}

	if len(issues) > 0 {
		return &calcerror.ValidationError{
			Subject: fmt.Sprintf("debt instrument '%s'", inst.Name),
			Issues:  issues,
		}
	}
	return nil
}

func validateIssuance(s models.NewIssuanceScenario) error {
	var issues []string
	if s.Principal.LessThanOrEqual(decimal.Zero) {
		issues = append(issues, "principal must be positive")
	}
	if s.AnnualRate < 0 {
		issues = append(issues, "annual rate must not be negative")
	}
	if s.TermYears < 1 {
		issues = append(issues, "term must be at least one year")
	}
	if !s.PaymentFrequency.IsValid() {
		issues = append(issues, fmt.Sprintf("unrecognized payment frequency '%s'", s.PaymentFrequency))
	}
	if !s.AmortizationType.IsValid() {
		issues = append(issues, fmt.Sprintf("unrecognized amortization type '%s'", s.AmortizationType))
	}
	if s.IssuanceCostRate < 0 || s.IssuanceCostRate >= 1 {
		issues = append(issues, "issuance cost rate must be in [0, 1)")
	}
	if s.FlatIssuanceCost.IsNegative() {
		issues = append(issues, "flat issuance cost must not be negative")
	}
	if s.ReserveKind != "" && !s.ReserveKind.IsValid() {
		issues = append(issues, fmt.Sprintf("unrecognized reserve kind '%s'", s.ReserveKind))
	}
	if s.ReserveKind == models.ReservePercentOfPrincipal && s.ReservePercent <= 0 {
		issues = append(issues, "reserve percent must be positive for PERCENT_OF_PRINCIPAL")
	}

	if len(issues) > 0 {
		return &calcerror.ValidationError{
			Subject: fmt.Sprintf("new issuance scenario '%s'", s.Name),
			Issues:  issues,
		}
	}
	return nil
}

func validatePayoff(s models.EarlyPayoffScenario) error {
	if err := ValidateInstrument(s.Instrument); err != nil {
		return err
	}
	var issues []string
	if s.PayoffDate.IsZero() {
		issues = append(issues, "payoff date is required")
	} else if s.PayoffDate.After(s.Instrument.MaturityDate()) {
		issues = append(issues, "payoff date falls after maturity")
	}
	if s.AdditionalCosts.IsNegative() {
		issues = append(issues, "additional costs must not be negative")
	}

	if len(issues) > 0 {
		return &calcerror.ValidationError{
			Subject: fmt.Sprintf("early payoff scenario '%s'", s.Name),
			Issues:  issues,
		}
	}
	return nil
}

func validateRefunding(s models.RefundingScenario) error {
	if err := ValidateInstrument(s.Instrument); err != nil {
		return err
	}
	var issues []string
	if s.NewRate < 0 {
		issues = append(issues, "new rate must not be negative")
	}
	if s.NewTermYears < 1 {
		issues = append(issues, "new term must be at least one year")
	}
	if !s.NewPaymentFrequency.IsValid() {
		issues = append(issues, fmt.Sprintf("unrecognized payment frequency '%s'", s.NewPaymentFrequency))
	}
	if s.EscrowYield < 0 {
		issues = append(issues, "escrow yield must not be negative")
	}
	if s.IssuanceCostRate < 0 || s.IssuanceCostRate >= 1 {
		issues = append(issues, "issuance cost rate must be in [0, 1)")
	}

	if len(issues) > 0 {
		return &calcerror.ValidationError{
			Subject: fmt.Sprintf("refunding scenario '%s'", s.Name),
			Issues:  issues,
		}
	}
	return nil
}
