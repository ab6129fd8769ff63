package debtscenario

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"openmuni/fiscalcast/internal/amortization"
	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/debtservice"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

// Coverage ratio thresholds.
const (
	coverageAdequateRatio = 1.5
	coverageMarginalRatio = 1.1
)

// Stress indicator thresholds. Per-capita debt is in dollars; the other two
// are fractions of the relevant base.
const (
	perCapitaGoodLimit    = 1000.0
	perCapitaCautionLimit = 2500.0

	debtToValueGoodLimit    = 0.02
	debtToValueCautionLimit = 0.04

	dsToRevenueGoodLimit    = 0.10
	dsToRevenueCautionLimit = 0.15
)

// AnalyzeCapacity aggregates outstanding principal and current-year debt
// service across the supplied instruments, measures each revenue source's
// coverage, and derives optional per-capita, debt-to-assessed-value and
// stress indicators.
func (a *Analyzer) AnalyzeCapacity(input models.DebtCapacityInput) (models.DebtCapacityReport, error) {
	if input.AsOf.IsZero() {
		return models.DebtCapacityReport{}, &calcerror.ValidationError{
			Subject: "debt capacity input",
			Issues:  []string{"as-of date is required"},
		}
	}
	for _, inst := range input.Instruments {
		if err := ValidateInstrument(inst); err != nil {
			return models.DebtCapacityReport{}, err
		}
	}

	outstanding := decimal.Zero
	currentYearDS := decimal.Zero
	for _, inst := range input.Instruments {
		balance, err := amortizationBalanceAt(inst, input.AsOf)
		if err != nil {
			return models.DebtCapacityReport{}, err
		}
		outstanding = outstanding.Add(balance)

		annual, err := debtservice.AnnualForInstrument(inst, input.AsOf, 1)
		if err != nil {
			return models.DebtCapacityReport{}, err
		}
		if len(annual) > 0 {
			currentYearDS = currentYearDS.Add(annual[0])
		}
	}

	report := models.DebtCapacityReport{
		ID:                     uuid.NewString(),
		GeneratedAt:            time.Now().UTC(),
		AsOf:                   input.AsOf,
		OutstandingPrincipal:   outstanding,
		CurrentYearDebtService: currentYearDS,
	}

	totalRevenue := decimal.Zero
	for _, source := range input.RevenueSources {
		ratio, err := a.coverageFor(source, input)
		if err != nil {
			return models.DebtCapacityReport{}, err
		}
		report.CoverageRatios = append(report.CoverageRatios, ratio)
		totalRevenue = totalRevenue.Add(source.AnnualRevenue)
	}

	if input.Population > 0 {
		report.PerCapitaDebt = moneyutils.Round(
			outstanding.Div(decimal.NewFromInt(input.Population)))
		report.Indicators = append(report.Indicators, perCapitaIndicator(report.PerCapitaDebt))
	}
	if input.AssessedValue.IsPositive() {
		ratio, _ := outstanding.Div(input.AssessedValue).Float64()
		report.DebtToAssessedValue = ratio
		report.Indicators = append(report.Indicators, debtToValueIndicator(ratio))
	}
	if totalRevenue.IsPositive() {
		report.Indicators = append(report.Indicators,
			debtServiceToRevenueIndicator(currentYearDS, totalRevenue))
	}

	a.log.Info("debt capacity analyzed",
		logging.Field{Key: logging.FieldCount, Value: len(input.Instruments)},
		logging.Field{Key: logging.FieldStatus, Value: moneyutils.FormatAmount(outstanding)},
	)

	return report, nil
}

// coverageFor measures one revenue source against the annual debt service of
// the instruments it covers: all instruments for a general source, or only
// those pledged against the source's fund.
func (a *Analyzer) coverageFor(source models.RevenueSource, input models.DebtCapacityInput) (models.CoverageRatio, error) {
	debtService := decimal.Zero
	minRequired := 0.0
	for _, inst := range input.Instruments {
		if source.PledgedFundID != "" && inst.PledgedFundID != source.PledgedFundID {
			continue
		}
		annual, err := debtservice.AnnualForInstrument(inst, input.AsOf, 1)
		if err != nil {
			return models.CoverageRatio{}, err
		}
		if len(annual) > 0 {
			debtService = debtService.Add(annual[0])
		}
		if inst.MinCoverageRatio > minRequired {
			minRequired = inst.MinCoverageRatio
		}
	}

	ratio := 0.0
	if debtService.IsPositive() {
		ratio, _ = source.AnnualRevenue.Div(debtService).Float64()
	}

	return models.CoverageRatio{
		Source:           source.Name,
		Revenue:          source.AnnualRevenue,
		DebtService:      debtService,
		Ratio:            ratio,
		Rating:           gradeCoverage(ratio),
		MinRequired:      minRequired,
		MeetsRequirement: ratio >= minRequired,
	}, nil
}

func gradeCoverage(ratio float64) models.CoverageRating {
	switch {
	case ratio >= coverageAdequateRatio:
		return models.CoverageAdequate
	case ratio >= coverageMarginalRatio:
		return models.CoverageMarginal
	}
	return models.CoverageInsufficient
}

func perCapitaIndicator(perCapita decimal.Decimal) models.StressIndicator {
	rating := models.IndicatorWarning
	switch {
	case perCapita.LessThanOrEqual(decimal.NewFromFloat(perCapitaGoodLimit)):
		rating = models.IndicatorGood
	case perCapita.LessThanOrEqual(decimal.NewFromFloat(perCapitaCautionLimit)):
		rating = models.IndicatorCaution
	}
	return models.StressIndicator{Name: "per_capita_debt", Value: perCapita, Rating: rating}
}

func debtToValueIndicator(ratio float64) models.StressIndicator {
	rating := models.IndicatorWarning
	switch {
	case ratio <= debtToValueGoodLimit:
		rating = models.IndicatorGood
	case ratio <= debtToValueCautionLimit:
		rating = models.IndicatorCaution
	}
	return models.StressIndicator{
		Name:   "debt_to_assessed_value",
		Value:  decimal.NewFromFloat(ratio),
		Rating: rating,
	}
}

func debtServiceToRevenueIndicator(debtService, revenue decimal.Decimal) models.StressIndicator {
	ratio, _ := debtService.Div(revenue).Float64()
	rating := models.IndicatorWarning
	switch {
	case ratio <= dsToRevenueGoodLimit:
		rating = models.IndicatorGood
	case ratio <= dsToRevenueCautionLimit:
		rating = models.IndicatorCaution
	}
	return models.StressIndicator{
		Name:   "debt_service_to_revenue",
		Value:  decimal.NewFromFloat(ratio),
		Rating: rating,
	}
}

// amortizationBalanceAt returns an instrument's outstanding principal as of a
// date using the closed-form remaining balance.
func amortizationBalanceAt(inst models.DebtInstrument, asOf time.Time) (decimal.Decimal, error) {
	return amortization.RemainingBalance(instrumentInput(inst), periodsPaidAt(inst, asOf))
}
