package forecast

import (
	"fmt"

	"openmuni/fiscalcast/internal/formula"
	"openmuni/fiscalcast/internal/models"
)

// weightSumTolerance bounds how far monthly weights may drift from 1.
const weightSumTolerance = 0.001

// ValidateScenario checks a scenario's structure. Errors reject the forecast;
// warnings are attached to the result and the calculation proceeds.
func ValidateScenario(scenario models.ForecastScenario) models.ValidationResult {
	var result models.ValidationResult

	if scenario.Name == "" {
		result.AddError("scenario name is required")
	}
	if scenario.FundID == "" {
		result.AddError("fund id is required")
	}
	if scenario.HorizonPeriods < 1 {
		result.AddError("horizon must be at least 1 period")
	}
	if !scenario.Granularity.IsValid() {
		result.AddError(fmt.Sprintf("unrecognized granularity '%s'", scenario.Granularity))
	}
	if scenario.StartDate.IsZero() {
		result.AddError("start date is required")
	}

	if scenario.MinimumBalance != nil {
		if !scenario.MinimumBalance.Kind.IsValid() {
			result.AddError(fmt.Sprintf("unrecognized minimum balance kind '%s'", scenario.MinimumBalance.Kind))
		}
		if scenario.MinimumBalance.Value.IsNegative() {
			result.AddError("minimum balance value must not be negative")
		}
	}

	for i, model := range scenario.Revenues {
		validateRevenueModel(&result, i, model)
	}
	for i, model := range scenario.Expenses {
		validateExpenseModel(&result, i, model)
	}

	// Soft issues: the forecast still runs, but the caller should know.
	if len(scenario.Revenues) == 0 {
		result.AddWarning("no revenue models defined")
	}
	if scenario.Assumptions.InflationRate < 0 {
		result.AddWarning("negative inflation assumption")
	}
	if scenario.Granularity.IsValid() &&
		scenario.HorizonPeriods > 10*scenario.Granularity.PeriodsPerYear() {
		result.AddWarning("horizon exceeds 10 years; long-range projections are unreliable")
	}

	return result
}

func validateRevenueModel(result *models.ValidationResult, index int, model models.RevenueModel) {
	label := modelLabel("revenue", index, model.Gate())
	validateGate(result, label, model.Gate())

	switch m := model.(type) {
	case models.FixedRevenue:
		validateAmount(result, label, m.Amount.IsNegative())
		validateWeights(result, label, m.MonthlyWeights, true)
		warnZero(result, label, m.Amount.IsZero())
	case models.GrowingRevenue:
		validateAmount(result, label, m.BaseAmount.IsNegative())
		warnZero(result, label, m.BaseAmount.IsZero())
	case models.TaxLevyRevenue:
		validateAmount(result, label, m.AssessedValue.IsNegative())
		if m.MillRate < 0 {
			result.AddError(label + ": mill rate must not be negative")
		}
		if m.LevyGrowthCap < 0 {
			result.AddError(label + ": levy growth cap must not be negative")
		}
	case models.GrantRevenue:
		validateAmount(result, label, m.Amount.IsNegative())
		if m.RenewalProbability < 0 || m.RenewalProbability > 1 {
			result.AddError(label + ": renewal probability must be between 0 and 1")
		}
		if m.OneTime && m.Years > 1 {
			result.AddError(label + ": one-time grant cannot span multiple years")
		}
		warnZero(result, label, m.Amount.IsZero())
	case models.SeasonalRevenue:
		validateAmount(result, label, m.AnnualAmount.IsNegative())
		validateWeights(result, label, m.MonthlyWeights, false)
	case models.FormulaRevenue:
		validateFormula(result, label, m.Expression, m.Variables)
	}
}

func validateExpenseModel(result *models.ValidationResult, index int, model models.ExpenseModel) {
	label := modelLabel("expense", index, model.Gate())
	validateGate(result, label, model.Gate())

	switch m := model.(type) {
	case models.FixedExpense:
		validateAmount(result, label, m.Amount.IsNegative())
		validateWeights(result, label, m.MonthlyWeights, true)
		warnZero(result, label, m.Amount.IsZero())
	case models.GrowingExpense:
		validateAmount(result, label, m.BaseAmount.IsNegative())
		warnZero(result, label, m.BaseAmount.IsZero())
	case models.PersonnelExpense:
		validateAmount(result, label, m.BaseSalaries.IsNegative())
		if m.BenefitsRate < 0 {
			result.AddError(label + ": benefits rate must not be negative")
		}
	case models.SeasonalExpense:
		validateAmount(result, label, m.AnnualAmount.IsNegative())
		validateWeights(result, label, m.MonthlyWeights, false)
	case models.FormulaExpense:
		validateFormula(result, label, m.Expression, m.Variables)
	}
}

func modelLabel(kind string, index int, gate models.ModelGate) string {
	if gate.Name != "" {
		return fmt.Sprintf("%s model '%s'", kind, gate.Name)
	}
	return fmt.Sprintf("%s model %d", kind, index)
}

func validateGate(result *models.ValidationResult, label string, gate models.ModelGate) {
	if gate.EndDate != nil && !gate.StartDate.IsZero() && gate.EndDate.Before(gate.StartDate) {
		result.AddError(label + ": end date precedes start date")
	}
}

func validateAmount(result *models.ValidationResult, label string, negative bool) {
	if negative {
		result.AddError(label + ": amount must not be negative")
	}
}

func warnZero(result *models.ValidationResult, label string, zero bool) {
	if zero {
		result.AddWarning(label + ": zero amount contributes nothing")
	}
}

// validateWeights checks a 12-entry monthly weight vector. Fixed models
// require weights summing to 1; seasonal models normalize, so only the length
// and sign are enforced.
func validateWeights(result *models.ValidationResult, label string, weights []float64, requireUnitSum bool) {
	if len(weights) == 0 {
		return
	}
	if len(weights) != 12 {
		result.AddError(fmt.Sprintf("%s: monthly weights need 12 entries, got %d", label, len(weights)))
		return
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			result.AddError(label + ": monthly weights must not be negative")
			return
		}
		sum += w
	}
	if requireUnitSum && (sum < 1-weightSumTolerance || sum > 1+weightSumTolerance) {
		result.AddError(fmt.Sprintf("%s: monthly weights must sum to 1, got %.4f", label, sum))
	}
	if !requireUnitSum && sum == 0 {
		result.AddError(label + ": monthly weights must not all be zero")
	}
}

// validateFormula parses the expression and test-evaluates it against the
// model's variables plus the ambient variables the projector supplies, so a
// bad formula fails at validation instead of mid-projection.
func validateFormula(result *models.ValidationResult, label, expression string, vars map[string]float64) {
	if expression == "" {
		result.AddError(label + ": formula expression is required")
		return
	}

	expr, err := formula.Parse(expression)
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", label, err))
		return
	}

	probe := make(map[string]float64, len(vars)+len(ambientVariables))
	for k, v := range vars {
		probe[k] = v
	}
	for _, name := range ambientVariables {
		if _, ok := probe[name]; !ok {
			probe[name] = 0
		}
	}
	for _, name := range expr.Variables() {
		if _, ok := probe[name]; !ok {
			result.AddError(fmt.Sprintf("%s: undefined formula variable '%s'", label, name))
		}
	}
}
