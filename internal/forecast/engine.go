// Package forecast projects fund balances period by period under a scenario's
// revenue and expense models and classifies the resulting fiscal risk. The
// engine is stateless: every call is a pure function of its inputs, so
// callers may fan out scenario evaluations across goroutines freely.
package forecast

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/debtservice"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

// Impact classification thresholds for sensitivity analysis, as max absolute
// percent change of ending balance across tested values.
const (
	impactHighPercent     = 10.0
	impactModeratePercent = 3.0
)

// CurrentState is the caller-supplied, read-only view of fund balances and
// outstanding debt a forecast starts from.
type CurrentState struct {
	Funds        []models.Fund
	Transactions []models.Transaction
	Instruments  []models.DebtInstrument
	AsOf         time.Time
}

// StartingBalance derives a fund's balance as of the state's AsOf date:
// beginning balance plus signed, non-void transactions dated on or before
// AsOf. Without transaction history the fund's current balance is used.
func (s CurrentState) StartingBalance(fundID string) (decimal.Decimal, error) {
	var fund *models.Fund
	for i := range s.Funds {
		if s.Funds[i].ID == fundID {
			fund = &s.Funds[i]
			break
		}
	}
	if fund == nil {
		return decimal.Zero, &calcerror.ValidationError{
			Subject: "forecast state",
			Issues:  []string{fmt.Sprintf("unknown fund '%s'", fundID)},
		}
	}

	if len(s.Transactions) == 0 {
		return fund.CurrentBalance, nil
	}

	balance := fund.BeginningBalance
	for _, txn := range s.Transactions {
		if txn.FundID != fundID {
			continue
		}
		if !s.AsOf.IsZero() && txn.Date.After(s.AsOf) {
			continue
		}
		balance = balance.Add(txn.SignedAmount())
	}
	return balance, nil
}

// Engine orchestrates projections, scenario comparison and sensitivity
// analysis. It holds only a logger; all calculation state lives per call.
type Engine struct {
	log logging.Logger
}

// NewEngine creates a forecast engine. A nil logger keeps the engine quiet.
func NewEngine(log logging.Logger) *Engine {
	return &Engine{log: logging.OrNop(log)}
}

// GenerateForecast validates the scenario and projects every period in
// sequence. Validation errors reject the run; validation warnings are
// attached to the result and the projection proceeds.
func (e *Engine) GenerateForecast(state CurrentState, scenario models.ForecastScenario) (models.ForecastResult, error) {
	validation := ValidateScenario(scenario)
	if !validation.Valid() {
		return models.ForecastResult{}, &calcerror.ValidationError{
			Subject: fmt.Sprintf("forecast scenario '%s'", scenario.Name),
			Issues:  validation.Errors,
		}
	}

	starting, err := state.StartingBalance(scenario.FundID)
	if err != nil {
		return models.ForecastResult{}, err
	}

	annualDebt, err := e.annualDebtService(state, scenario)
	if err != nil {
		return models.ForecastResult{}, err
	}

	e.log.Info("generating forecast",
		logging.Field{Key: logging.FieldScenario, Value: scenario.Name},
		logging.Field{Key: logging.FieldFund, Value: scenario.FundID},
		logging.Field{Key: logging.FieldPeriods, Value: scenario.HorizonPeriods},
		logging.Field{Key: logging.FieldGranularity, Value: string(scenario.Granularity)},
	)

	result := models.ForecastResult{
		ID:           uuid.NewString(),
		FundID:       scenario.FundID,
		ScenarioName: scenario.Name,
		GeneratedAt:  time.Now().UTC(),
		Periods:      make([]models.ForecastPeriod, 0, scenario.HorizonPeriods),
	}
	for _, warning := range validation.Warnings {
		result.Warnings = append(result.Warnings, models.Warning{
			Code:        models.WarningValidation,
			Severity:    models.SeverityLow,
			Message:     warning,
			PeriodIndex: -1,
		})
	}

	proj := newProjector(scenario, annualDebt)
	balance := starting
	for index := 0; index < scenario.HorizonPeriods; index++ {
		period, err := proj.project(index, balance)
		if err != nil {
			return models.ForecastResult{}, fmt.Errorf("projecting period %d: %w", index, err)
		}
		result.Periods = append(result.Periods, period)
		result.Warnings = append(result.Warnings, period.Warnings...)
		balance = period.EndingBalance
	}

	result.Summary = summarize(starting, result.Periods)

	e.log.Info("forecast complete",
		logging.Field{Key: logging.FieldScenario, Value: scenario.Name},
		logging.Field{Key: logging.FieldRiskLevel, Value: string(result.Summary.RiskLevel)},
	)

	return result, nil
}

func (e *Engine) annualDebtService(state CurrentState, scenario models.ForecastScenario) ([]decimal.Decimal, error) {
	horizonYears := (scenario.HorizonPeriods + scenario.Granularity.PeriodsPerYear() - 1) /
		scenario.Granularity.PeriodsPerYear()
	if !scenario.IncludeDebtService {
		return make([]decimal.Decimal, horizonYears), nil
	}
	return debtservice.AnnualForFund(state.Instruments, scenario.FundID, scenario.StartDate, horizonYears)
}

// summarize aggregates periods into the result summary, tracking running
// lowest/highest balances and classifying overall risk.
func summarize(starting decimal.Decimal, periods []models.ForecastPeriod) models.ForecastSummary {
	summary := models.ForecastSummary{
		TotalRevenue:     decimal.Zero,
		TotalExpense:     decimal.Zero,
		TotalDebtService: decimal.Zero,
		EndingBalance:    starting,
		LowestBalance:    starting,
		HighestBalance:   starting,
	}

	negativePeriods := 0
	belowMinimumPeriods := 0

	for _, period := range periods {
		summary.TotalRevenue = summary.TotalRevenue.Add(period.TotalRevenue)
		summary.TotalExpense = summary.TotalExpense.Add(period.TotalExpense)
		summary.TotalDebtService = summary.TotalDebtService.Add(period.DebtService)
		summary.EndingBalance = period.EndingBalance

		if period.EndingBalance.LessThan(summary.LowestBalance) {
			summary.LowestBalance = period.EndingBalance
			summary.LowestBalanceLabel = period.Label
		}
		if period.EndingBalance.GreaterThan(summary.HighestBalance) {
			summary.HighestBalance = period.EndingBalance
			summary.HighestBalanceLabel = period.Label
		}

		if period.EndingBalance.IsNegative() {
			negativePeriods++
		}
		for _, warning := range period.Warnings {
			if warning.Code == models.WarningBelowMinimum {
				belowMinimumPeriods++
			}
		}
	}

	summary.NetChange = summary.EndingBalance.Sub(starting)
	if starting.IsPositive() {
		summary.BalanceDeclinePercent = moneyutils.Round(
			starting.Sub(summary.EndingBalance).Div(starting).Mul(decimal.NewFromInt(100)))
	}
	summary.RiskLevel = classifyRisk(negativePeriods, belowMinimumPeriods, summary.BalanceDeclinePercent)

	return summary
}

// classifyRisk orders CRITICAL > HIGH > MODERATE > LOW: any negative-balance
// period is CRITICAL, more than three below-minimum periods is HIGH, one to
// three below-minimum periods or a balance decline over 20% is MODERATE.
func classifyRisk(negativePeriods, belowMinimumPeriods int, declinePercent decimal.Decimal) models.RiskLevel {
	switch {
	case negativePeriods > 0:
		return models.RiskCritical
	case belowMinimumPeriods > 3:
		return models.RiskHigh
	case belowMinimumPeriods >= 1,
		declinePercent.GreaterThan(decimal.NewFromInt(20)):
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// CompareScenarios runs both scenarios against the same state and pairs
// their periods by index. Deltas are alternate minus base.
func (e *Engine) CompareScenarios(state CurrentState, base, alternate models.ForecastScenario) (models.ScenarioComparison, error) {
	baseResult, err := e.GenerateForecast(state, base)
	if err != nil {
		return models.ScenarioComparison{}, fmt.Errorf("base scenario: %w", err)
	}
	altResult, err := e.GenerateForecast(state, alternate)
	if err != nil {
		return models.ScenarioComparison{}, fmt.Errorf("alternate scenario: %w", err)
	}

	comparison := models.ScenarioComparison{
		BaseScenario:      base.Name,
		AlternateScenario: alternate.Name,
	}

	paired := len(baseResult.Periods)
	if len(altResult.Periods) < paired {
		paired = len(altResult.Periods)
	}
	for i := 0; i < paired; i++ {
		basePeriod := baseResult.Periods[i]
		altPeriod := altResult.Periods[i]
		comparison.PeriodDeltas = append(comparison.PeriodDeltas, models.PeriodDelta{
			Index:              i,
			Label:              basePeriod.Label,
			RevenueDelta:       altPeriod.TotalRevenue.Sub(basePeriod.TotalRevenue),
			ExpenseDelta:       altPeriod.TotalExpense.Sub(basePeriod.TotalExpense),
			EndingBalanceDelta: altPeriod.EndingBalance.Sub(basePeriod.EndingBalance),
		})
	}

	comparison.RevenueVariance = altResult.Summary.TotalRevenue.Sub(baseResult.Summary.TotalRevenue)
	comparison.ExpenseVariance = altResult.Summary.TotalExpense.Sub(baseResult.Summary.TotalExpense)
	comparison.EndingBalanceVariance = altResult.Summary.EndingBalance.Sub(baseResult.Summary.EndingBalance)
	comparison.RiskTransition = riskTransition(baseResult.Summary.RiskLevel, altResult.Summary.RiskLevel)

	return comparison, nil
}

func riskTransition(base, alternate models.RiskLevel) string {
	switch {
	case alternate.WorseThan(base):
		return fmt.Sprintf("%s -> %s (risk increases)", base, alternate)
	case base.WorseThan(alternate):
		return fmt.Sprintf("%s -> %s (risk decreases)", base, alternate)
	default:
		return fmt.Sprintf("%s -> %s (unchanged)", base, alternate)
	}
}

// RunSensitivityAnalysis re-runs the forecast once per test value with a
// single variable substituted on a deep copy of the scenario. The copies
// keep the scenario's random seed, so points differ only in the substituted
// variable.
func (e *Engine) RunSensitivityAnalysis(state CurrentState, scenario models.ForecastScenario, variable models.SensitivityVariable, testValues []float64) (models.SensitivityAnalysis, error) {
	if !variable.IsValid() {
		return models.SensitivityAnalysis{}, &calcerror.ValidationError{
			Subject: "sensitivity analysis",
			Issues:  []string{fmt.Sprintf("unrecognized variable '%s'", variable)},
		}
	}
	if len(testValues) == 0 {
		return models.SensitivityAnalysis{}, &calcerror.ValidationError{
			Subject: "sensitivity analysis",
			Issues:  []string{"at least one test value is required"},
		}
	}

	baseline, err := e.GenerateForecast(state, scenario)
	if err != nil {
		return models.SensitivityAnalysis{}, fmt.Errorf("baseline forecast: %w", err)
	}

	analysis := models.SensitivityAnalysis{
		Variable:        variable,
		BaselineValue:   baselineValue(scenario, variable),
		BaselineBalance: baseline.Summary.EndingBalance,
	}

	maxSwing := decimal.Zero
	for _, value := range testValues {
		candidate := scenario.Clone()
		applyVariable(&candidate, variable, value)

		result, err := e.GenerateForecast(state, candidate)
		if err != nil {
			return models.SensitivityAnalysis{}, fmt.Errorf("forecast at %s=%v: %w", variable, value, err)
		}

		delta := result.Summary.EndingBalance.Sub(baseline.Summary.EndingBalance)
		percent := moneyutils.Round(moneyutils.PercentChange(baseline.Summary.EndingBalance, result.Summary.EndingBalance))
		analysis.Points = append(analysis.Points, models.SensitivityPoint{
			Value:         value,
			EndingBalance: result.Summary.EndingBalance,
			Delta:         delta,
			PercentChange: percent,
		})

		if percent.Abs().GreaterThan(maxSwing) {
			maxSwing = percent.Abs()
		}
	}

	analysis.Impact = classifyImpact(maxSwing)

	e.log.Info("sensitivity analysis complete",
		logging.Field{Key: logging.FieldScenario, Value: scenario.Name},
		logging.Field{Key: logging.FieldVariable, Value: string(variable)},
		logging.Field{Key: logging.FieldCount, Value: len(testValues)},
	)

	return analysis, nil
}

func classifyImpact(maxSwingPercent decimal.Decimal) models.ImpactLevel {
	switch {
	case maxSwingPercent.GreaterThanOrEqual(decimal.NewFromFloat(impactHighPercent)):
		return models.ImpactHigh
	case maxSwingPercent.GreaterThanOrEqual(decimal.NewFromFloat(impactModeratePercent)):
		return models.ImpactModerate
	default:
		return models.ImpactLow
	}
}

func baselineValue(scenario models.ForecastScenario, variable models.SensitivityVariable) float64 {
	switch variable {
	case models.VariableInflationRate:
		return scenario.Assumptions.InflationRate
	case models.VariableWageGrowth:
		return scenario.Assumptions.WageGrowth
	case models.VariablePropertyGrowth:
		return scenario.Assumptions.PropertyGrowth
	case models.VariableInterestRate:
		return scenario.Assumptions.InterestRate
	case models.VariableRevenueGrowth:
		for _, model := range scenario.Revenues {
			if growing, ok := model.(models.GrowingRevenue); ok {
				return growing.GrowthRate
			}
		}
	case models.VariableExpenseGrowth:
		for _, model := range scenario.Expenses {
			if growing, ok := model.(models.GrowingExpense); ok {
				return growing.GrowthRate
			}
		}
	}
	return 0
}

// applyVariable substitutes one variable on an already-cloned scenario.
func applyVariable(scenario *models.ForecastScenario, variable models.SensitivityVariable, value float64) {
	switch variable {
	case models.VariableInflationRate:
		scenario.Assumptions.InflationRate = value
	case models.VariableWageGrowth:
		scenario.Assumptions.WageGrowth = value
	case models.VariablePropertyGrowth:
		scenario.Assumptions.PropertyGrowth = value
	case models.VariableInterestRate:
		scenario.Assumptions.InterestRate = value
	case models.VariableRevenueGrowth:
		for i, model := range scenario.Revenues {
			if growing, ok := model.(models.GrowingRevenue); ok {
				growing.GrowthRate = value
				scenario.Revenues[i] = growing
			}
		}
	case models.VariableExpenseGrowth:
		for i, model := range scenario.Expenses {
			if growing, ok := model.(models.GrowingExpense); ok {
				growing.GrowthRate = value
				scenario.Expenses[i] = growing
			}
		}
	}
}
