// Package debtscenario evaluates what-if debt decisions: new bond issues,
// early payoffs, refundings and the aggregate debt capacity report. Every
// analysis is a pure function of its inputs; advisory grades come from
// net-present-value thresholds against the affected principal.
package debtscenario

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"openmuni/fiscalcast/internal/amortization"
	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/dateutils"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

// Advisory thresholds, as percent of the affected principal.
const (
	payoffAdvisedPercent     = 3.0
	refundingStrongPercent   = 5.0
	refundingAdvisedPercent  = 3.0
	refundingMarginalPercent = 1.0
)

// Analyzer evaluates debt scenarios. It holds only a logger; all calculation
// state lives per call.
type Analyzer struct {
	log logging.Logger
}

// NewAnalyzer creates a debt scenario analyzer. A nil logger keeps it quiet.
func NewAnalyzer(log logging.Logger) *Analyzer {
	return &Analyzer{log: logging.OrNop(log)}
}

// Analyze dispatches over the closed scenario sum and wraps the outcome in a
// CombinedResult envelope. asOf anchors settlement for payoff-free variants
// that need a valuation date.
func (a *Analyzer) Analyze(asOf time.Time, scenario models.DebtScenario) (models.CombinedResult, error) {
	switch s := scenario.(type) {
	case models.NewIssuanceScenario:
		result, err := a.AnalyzeNewIssuance(s)
		if err != nil {
			return models.CombinedResult{}, err
		}
		return models.CombinedResult{
			ID:            uuid.NewString(),
			ScenarioName:  s.Name,
			GeneratedAt:   time.Now().UTC(),
			Issuance:      &result,
			NetCashImpact: result.NetProceeds,
		}, nil

	case models.EarlyPayoffScenario:
		result, err := a.AnalyzeEarlyPayoff(s)
		if err != nil {
			return models.CombinedResult{}, err
		}
		return models.CombinedResult{
			ID:            uuid.NewString(),
			ScenarioName:  s.Name,
			GeneratedAt:   time.Now().UTC(),
			Payoff:        &result,
			NetCashImpact: result.TotalPayoffAmount.Neg(),
		}, nil

	case models.RefundingScenario:
		result, err := a.AnalyzeRefunding(asOf, s)
		if err != nil {
			return models.CombinedResult{}, err
		}
		return models.CombinedResult{
			ID:            uuid.NewString(),
			ScenarioName:  s.Name,
			GeneratedAt:   time.Now().UTC(),
			Refunding:     &result,
			NetCashImpact: result.NPVSavings,
		}, nil

	case models.CombinedScenario:
		return a.AnalyzeCombined(asOf, s)
	}

	return models.CombinedResult{}, &calcerror.UnknownModelError{
		Kind: "debt scenario", Tag: fmt.Sprintf("%T", scenario),
	}
}

// AnalyzeCombined evaluates each present component independently and sums
// their net cash effects: issuance proceeds in, payoff cash out, refunding
// NPV savings.
func (a *Analyzer) AnalyzeCombined(asOf time.Time, s models.CombinedScenario) (models.CombinedResult, error) {
	result := models.CombinedResult{
		ID:            uuid.NewString(),
		ScenarioName:  s.Name,
		GeneratedAt:   time.Now().UTC(),
		NetCashImpact: decimal.Zero,
	}
	if s.Issuance == nil && s.Payoff == nil && s.Refunding == nil {
		return models.CombinedResult{}, &calcerror.ValidationError{
			Subject: fmt.Sprintf("combined scenario '%s'", s.Name),
			Issues:  []string{"at least one component is required"},
		}
	}

	if s.Issuance != nil {
		issuance, err := a.AnalyzeNewIssuance(*s.Issuance)
		if err != nil {
			return models.CombinedResult{}, fmt.Errorf("issuance component: %w", err)
		}
		result.Issuance = &issuance
		result.NetCashImpact = result.NetCashImpact.Add(issuance.NetProceeds)
	}
	if s.Payoff != nil {
		payoff, err := a.AnalyzeEarlyPayoff(*s.Payoff)
		if err != nil {
			return models.CombinedResult{}, fmt.Errorf("payoff component: %w", err)
		}
		result.Payoff = &payoff
		result.NetCashImpact = result.NetCashImpact.Sub(payoff.TotalPayoffAmount)
	}
	if s.Refunding != nil {
		refunding, err := a.AnalyzeRefunding(asOf, *s.Refunding)
		if err != nil {
			return models.CombinedResult{}, fmt.Errorf("refunding component: %w", err)
		}
		result.Refunding = &refunding
		result.NetCashImpact = result.NetCashImpact.Add(refunding.NPVSavings)
	}

	return result, nil
}

// AnalyzeNewIssuance prices a proposed bond issue: amortization schedule,
// issuance costs, reserve requirement, and both interest cost measures. TIC
// discounts the payment stream to proceeds net of issuance costs; the reserve
// is excluded because it remains the issuer's asset.
func (a *Analyzer) AnalyzeNewIssuance(s models.NewIssuanceScenario) (models.NewIssuanceResult, error) {
	if err := validateIssuance(s); err != nil {
		return models.NewIssuanceResult{}, err
	}

	perYear := s.PaymentFrequency.PaymentsPerYear()
	schedule, err := amortization.Schedule(amortization.Input{
		Principal:    s.Principal,
		PeriodicRate: s.AnnualRate / float64(perYear),
		TotalPeriods: s.TermYears * perYear,
		Type:         s.AmortizationType,
	})
	if err != nil {
		return models.NewIssuanceResult{}, err
	}

	issuanceCosts := moneyutils.Round(
		s.Principal.Mul(decimal.NewFromFloat(s.IssuanceCostRate)).Add(s.FlatIssuanceCost))

	totalInterest := decimal.Zero
	for _, entry := range schedule {
		totalInterest = totalInterest.Add(entry.Interest)
	}

	annual := annualTotals(schedule, perYear)
	maxAnnual, avgAnnual := maxAvg(annual)

	reserve := reserveRequirement(s, maxAnnual, avgAnnual)

	costBase := s.Principal.Sub(issuanceCosts)
	proceedsFloat, _ := costBase.Float64()
	ticPeriodic, iterations, err := solveTIC(proceedsFloat, paymentStream(schedule), ticInitialGuess/float64(perYear))
	if err != nil {
		return models.NewIssuanceResult{}, err
	}

	nic := decimal.Zero
	if s.Principal.IsPositive() {
		nic = totalInterest.Add(issuanceCosts).Div(s.Principal)
	}

	result := models.NewIssuanceResult{
		ID:                   uuid.NewString(),
		ScenarioName:         s.Name,
		GeneratedAt:          time.Now().UTC(),
		Principal:            s.Principal,
		IssuanceCosts:        issuanceCosts,
		ReserveRequirement:   reserve,
		NetProceeds:          costBase.Sub(reserve),
		TotalInterest:        totalInterest,
		MaxAnnualDebtService: maxAnnual,
		AvgAnnualDebtService: avgAnnual,
		TrueInterestCost:     ticPeriodic * float64(perYear),
		TICIterations:        iterations,
		NetInterestCost:      nic,
		Schedule:             schedule,
	}

	a.log.Info("new issuance analyzed",
		logging.Field{Key: logging.FieldScenario, Value: s.Name},
		logging.Field{Key: logging.FieldIterations, Value: iterations},
	)

	return result, nil
}

func reserveRequirement(s models.NewIssuanceScenario, maxAnnual, avgAnnual decimal.Decimal) decimal.Decimal {
	switch s.ReserveKind {
	case models.ReservePercentOfPrincipal:
		return moneyutils.Round(s.Principal.Mul(decimal.NewFromFloat(s.ReservePercent)))
	case models.ReserveMaxAnnualDebtService:
		return maxAnnual
	case models.ReserveAverageAnnualDebtService:
		return avgAnnual
	}
	return decimal.Zero
}

// AnalyzeEarlyPayoff prices retiring an instrument on the scenario's payoff
// date. The call premium applies only on or after the call date; an earlier
// payoff warns that a make-whole provision may govern instead. Avoided debt
// service is discounted at the instrument's own rate.
func (a *Analyzer) AnalyzeEarlyPayoff(s models.EarlyPayoffScenario) (models.EarlyPayoffResult, error) {
	if err := validatePayoff(s); err != nil {
		return models.EarlyPayoffResult{}, err
	}

	inst := s.Instrument
	input := instrumentInput(inst)
	periodsPaid := periodsPaidAt(inst, s.PayoffDate)

	outstanding, err := amortization.RemainingBalance(input, periodsPaid)
	if err != nil {
		return models.EarlyPayoffResult{}, err
	}

	accrued := accruedInterest(inst, outstanding, periodsPaid, s.PayoffDate)

	var warnings []string
	callPremium := decimal.Zero
	if inst.IsCallable() {
		if s.PayoffDate.Before(*inst.CallDate) {
			warnings = append(warnings,
				"payoff date precedes the call date; a make-whole provision may apply instead of the call premium")
		} else if inst.CallPremiumRate > 0 {
			callPremium = moneyutils.Round(outstanding.Mul(decimal.NewFromFloat(inst.CallPremiumRate)))
		}
	}

	total := outstanding.Add(callPremium).Add(accrued).Add(s.AdditionalCosts)

	schedule, err := amortization.Schedule(input)
	if err != nil {
		return models.EarlyPayoffResult{}, err
	}
	remaining := paymentStream(schedule[periodsPaid:])
	npv := moneyutils.RoundFloat(presentValue(remaining, inst.PeriodicRate()))

	netSavings := npv.Sub(total)
	savingsPercent := decimal.Zero
	if outstanding.IsPositive() {
		savingsPercent = moneyutils.Round(
			netSavings.Div(outstanding).Mul(decimal.NewFromInt(100)))
	}

	result := models.EarlyPayoffResult{
		ID:                      uuid.NewString(),
		InstrumentID:            inst.ID,
		GeneratedAt:             time.Now().UTC(),
		PayoffDate:              s.PayoffDate,
		OutstandingPrincipal:    outstanding,
		AccruedInterest:         accrued,
		CallPremium:             callPremium,
		AdditionalCosts:         s.AdditionalCosts,
		TotalPayoffAmount:       total,
		RemainingDebtServiceNPV: npv,
		NetSavings:              netSavings,
		SavingsPercent:          savingsPercent,
		Advised:                 savingsPercent.GreaterThanOrEqual(decimal.NewFromFloat(payoffAdvisedPercent)),
		Warnings:                warnings,
	}

	a.log.Info("early payoff analyzed",
		logging.Field{Key: logging.FieldInstrument, Value: inst.ID},
		logging.Field{Key: logging.FieldStatus, Value: fmt.Sprintf("advised=%t", result.Advised)},
	)

	return result, nil
}

// AnalyzeRefunding prices refinancing an instrument as of a settlement date.
// Before the call date the refunding is an advance refunding: the escrow must
// cover scheduled debt service through the call plus the redemption price,
// discounted at the assumed escrow yield. Savings compare the present value of
// old and new debt service at the new rate, graded against the refunded
// principal.
func (a *Analyzer) AnalyzeRefunding(asOf time.Time, s models.RefundingScenario) (models.RefundingResult, error) {
	if err := validateRefunding(s); err != nil {
		return models.RefundingResult{}, err
	}
	if asOf.IsZero() {
		return models.RefundingResult{}, &calcerror.ValidationError{
			Subject: fmt.Sprintf("refunding scenario '%s'", s.Name),
			Issues:  []string{"settlement date is required"},
		}
	}

	inst := s.Instrument
	input := instrumentInput(inst)
	periodsPaid := periodsPaidAt(inst, asOf)
	if periodsPaid >= inst.TotalPeriods() {
		return models.RefundingResult{}, &calcerror.ValidationError{
			Subject: fmt.Sprintf("refunding scenario '%s'", s.Name),
			Issues:  []string{"instrument is fully repaid as of the settlement date"},
		}
	}

	outstanding, err := amortization.RemainingBalance(input, periodsPaid)
	if err != nil {
		return models.RefundingResult{}, err
	}

	schedule, err := amortization.Schedule(input)
	if err != nil {
		return models.RefundingResult{}, err
	}

	var warnings []string
	advance := inst.IsCallable() && asOf.Before(*inst.CallDate)

	var escrow decimal.Decimal
	if advance {
		escrow, err = escrowToCall(inst, input, schedule, periodsPaid, s.EscrowYield)
		if err != nil {
			return models.RefundingResult{}, err
		}
	} else {
		redemption := outstanding
		if inst.IsCallable() && inst.CallPremiumRate > 0 {
			redemption = redemption.Add(
				moneyutils.Round(outstanding.Mul(decimal.NewFromFloat(inst.CallPremiumRate))))
		}
		escrow = redemption
	}

	newIssueSize := escrow
	if s.IssuanceCostRate > 0 {
		newIssueSize = moneyutils.Round(
			escrow.Div(decimal.NewFromFloat(1 - s.IssuanceCostRate)))
	}

	newPerYear := s.NewPaymentFrequency.PaymentsPerYear()
	newSchedule, err := amortization.Schedule(amortization.Input{
		Principal:    newIssueSize,
		PeriodicRate: s.NewRate / float64(newPerYear),
		TotalPeriods: s.NewTermYears * newPerYear,
		Type:         models.AmortizationLevelDebtService,
	})
	if err != nil {
		return models.RefundingResult{}, err
	}

	oldPerYear := inst.PaymentFrequency.PaymentsPerYear()
	oldNPV := moneyutils.RoundFloat(presentValue(
		paymentStream(schedule[periodsPaid:]), s.NewRate/float64(oldPerYear)))
	newNPV := moneyutils.RoundFloat(presentValue(
		paymentStream(newSchedule), s.NewRate/float64(newPerYear)))

	savings := oldNPV.Sub(newNPV)
	savingsPercent := decimal.Zero
	if outstanding.IsPositive() {
		savingsPercent = moneyutils.Round(savings.Div(outstanding).Mul(decimal.NewFromInt(100)))
	}

	negativeArbitrage := advance && s.EscrowYield < s.NewRate
	if negativeArbitrage {
		warnings = append(warnings,
			"escrow yield is below the new bond yield; the escrow carries negative arbitrage")
	}

	remainingYears := (inst.TotalPeriods() - periodsPaid + oldPerYear - 1) / oldPerYear
	if s.NewTermYears > remainingYears {
		warnings = append(warnings, fmt.Sprintf(
			"new term of %d years extends %d years beyond the refunded maturity",
			s.NewTermYears, s.NewTermYears-remainingYears))
	}

	result := models.RefundingResult{
		ID:                uuid.NewString(),
		InstrumentID:      inst.ID,
		GeneratedAt:       time.Now().UTC(),
		EscrowRequirement: escrow,
		NegativeArbitrage: negativeArbitrage,
		NewIssueSize:      newIssueSize,
		OldDebtServiceNPV: oldNPV,
		NewDebtServiceNPV: newNPV,
		NPVSavings:        savings,
		SavingsPercent:    savingsPercent,
		Recommendation:    gradeRefunding(savingsPercent),
		Warnings:          warnings,
	}

	a.log.Info("refunding analyzed",
		logging.Field{Key: logging.FieldInstrument, Value: inst.ID},
		logging.Field{Key: logging.FieldStatus, Value: string(result.Recommendation)},
	)

	return result, nil
}

// escrowToCall sizes an advance refunding escrow: the scheduled payments
// falling after periodsPaid through the call date, plus the redemption price
// at the call, each discounted at the escrow yield.
func escrowToCall(inst models.DebtInstrument, input amortization.Input, schedule []models.AmortizationEntry, periodsPaid int, escrowYield float64) (decimal.Decimal, error) {
	perYear := inst.PaymentFrequency.PaymentsPerYear()
	periodsAtCall := periodsPaidAt(inst, *inst.CallDate)

	outstandingAtCall, err := amortization.RemainingBalance(input, periodsAtCall)
	if err != nil {
		return decimal.Zero, err
	}
	redemption := outstandingAtCall
	if inst.CallPremiumRate > 0 {
		redemption = redemption.Add(
			moneyutils.Round(outstandingAtCall.Mul(decimal.NewFromFloat(inst.CallPremiumRate))))
	}

	periodicYield := escrowYield / float64(perYear)
	pv := 0.0
	for period := periodsPaid; period < periodsAtCall && period < len(schedule); period++ {
		payment, _ := schedule[period].Payment.Float64()
		pv += payment / math.Pow(1+periodicYield, float64(period-periodsPaid+1))
	}
	redemptionFloat, _ := redemption.Float64()
	pv += redemptionFloat / math.Pow(1+periodicYield, float64(periodsAtCall-periodsPaid))

	return moneyutils.RoundFloat(pv), nil
}

func gradeRefunding(savingsPercent decimal.Decimal) models.Recommendation {
	switch {
	case savingsPercent.GreaterThanOrEqual(decimal.NewFromFloat(refundingStrongPercent)):
		return models.RecommendationStronglyAdvised
	case savingsPercent.GreaterThanOrEqual(decimal.NewFromFloat(refundingAdvisedPercent)):
		return models.RecommendationAdvised
	case savingsPercent.GreaterThanOrEqual(decimal.NewFromFloat(refundingMarginalPercent)):
		return models.RecommendationMarginal
	}
	return models.RecommendationNotAdvised
}

// instrumentInput maps an instrument onto an amortization input.
func instrumentInput(inst models.DebtInstrument) amortization.Input {
	return amortization.Input{
		Principal:      inst.Principal,
		PeriodicRate:   inst.PeriodicRate(),
		TotalPeriods:   inst.TotalPeriods(),
		Type:           inst.AmortizationType,
		CustomPayments: inst.CustomPayments,
	}
}

// periodsPaidAt counts the scheduled payments falling on or before the date.
func periodsPaidAt(inst models.DebtInstrument, date time.Time) int {
	months := dateutils.MonthsBetween(inst.FirstPaymentDate, date)
	if months < 0 {
		return 0
	}
	monthsPerPayment := 12 / inst.PaymentFrequency.PaymentsPerYear()
	paid := months/monthsPerPayment + 1
	if total := inst.TotalPeriods(); paid > total {
		return total
	}
	return paid
}

// accruedInterest computes simple interest on the outstanding balance from the
// last payment date (or issue date before the first payment) to the payoff.
func accruedInterest(inst models.DebtInstrument, outstanding decimal.Decimal, periodsPaid int, payoff time.Time) decimal.Decimal {
	anchor := inst.IssueDate
	if periodsPaid > 0 {
		anchor = inst.PaymentDate(periodsPaid - 1)
	}
	if !payoff.After(anchor) {
		return decimal.Zero
	}
	fraction := dateutils.YearFractionBetween(anchor, payoff)
	return moneyutils.Round(outstanding.
		Mul(decimal.NewFromFloat(inst.AnnualRate)).
		Mul(decimal.NewFromFloat(fraction)))
}

// paymentStream extracts payments as floats for discounting.
func paymentStream(entries []models.AmortizationEntry) []float64 {
	payments := make([]float64, len(entries))
	for i, entry := range entries {
		payments[i], _ = entry.Payment.Float64()
	}
	return payments
}

// annualTotals buckets a schedule's payments into whole years.
func annualTotals(entries []models.AmortizationEntry, paymentsPerYear int) []decimal.Decimal {
	if len(entries) == 0 {
		return nil
	}
	years := (len(entries) + paymentsPerYear - 1) / paymentsPerYear
	totals := make([]decimal.Decimal, years)
	for i := range totals {
		totals[i] = decimal.Zero
	}
	for i, entry := range entries {
		totals[i/paymentsPerYear] = totals[i/paymentsPerYear].Add(entry.Payment)
	}
	return totals
}

func maxAvg(annual []decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if len(annual) == 0 {
		return decimal.Zero, decimal.Zero
	}
	maxDS := annual[0]
	for _, v := range annual {
		if v.GreaterThan(maxDS) {
			maxDS = v
		}
	}
	avg := moneyutils.Round(moneyutils.Sum(annual).Div(decimal.NewFromInt(int64(len(annual)))))
	return maxDS, avg
}
