package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WarningCode identifies a condition raised during projection or validation.
type WarningCode string

const (
	WarningNegativeBalance WarningCode = "NEGATIVE_BALANCE"
	WarningBelowMinimum    WarningCode = "BELOW_MINIMUM"
	WarningValidation      WarningCode = "VALIDATION"
)

// Severity grades how serious a warning is.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityModerate Severity = "MODERATE"
	SeverityLow      Severity = "LOW"
)

// Warning is a non-fatal condition attached to a forecast period or result.
type Warning struct {
	Code        WarningCode `json:"code" yaml:"code"`
	Severity    Severity    `json:"severity" yaml:"severity"`
	Message     string      `json:"message" yaml:"message"`
	PeriodIndex int         `json:"period_index" yaml:"period_index"`
}

// LineItem is one model's contribution to a period, itemized so reports can
// break revenue and expense down by source.
type LineItem struct {
	Name   string          `json:"name" yaml:"name"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// ForecastPeriod is one projected period. Balances chain exactly:
// EndingBalance = BeginningBalance + TotalRevenue - TotalExpense - DebtService,
// and the next period begins at this period's ending balance.
type ForecastPeriod struct {
	Index            int             `json:"index" yaml:"index"`
	Label            string          `json:"label" yaml:"label"`
	StartDate        time.Time       `json:"start_date" yaml:"start_date"`
	EndDate          time.Time       `json:"end_date" yaml:"end_date"`
	BeginningBalance decimal.Decimal `json:"beginning_balance" yaml:"beginning_balance"`
	RevenueLines     []LineItem      `json:"revenue_lines" yaml:"revenue_lines"`
	ExpenseLines     []LineItem      `json:"expense_lines" yaml:"expense_lines"`
	TotalRevenue     decimal.Decimal `json:"total_revenue" yaml:"total_revenue"`
	TotalExpense     decimal.Decimal `json:"total_expense" yaml:"total_expense"`
	DebtService      decimal.Decimal `json:"debt_service" yaml:"debt_service"`
	NetChange        decimal.Decimal `json:"net_change" yaml:"net_change"`
	EndingBalance    decimal.Decimal `json:"ending_balance" yaml:"ending_balance"`
	Warnings         []Warning       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// RiskLevel classifies a forecast's overall fiscal risk.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
)

// rank orders risk levels for comparisons; higher is worse.
func (r RiskLevel) rank() int {
	switch r {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskModerate:
		return 1
	}
	return 0
}

// WorseThan reports whether r is a worse classification than other.
func (r RiskLevel) WorseThan(other RiskLevel) bool {
	return r.rank() > other.rank()
}

// ForecastSummary aggregates a forecast's periods.
type ForecastSummary struct {
	TotalRevenue          decimal.Decimal `json:"total_revenue" yaml:"total_revenue"`
	TotalExpense          decimal.Decimal `json:"total_expense" yaml:"total_expense"`
	TotalDebtService      decimal.Decimal `json:"total_debt_service" yaml:"total_debt_service"`
	NetChange             decimal.Decimal `json:"net_change" yaml:"net_change"`
	EndingBalance         decimal.Decimal `json:"ending_balance" yaml:"ending_balance"`
	LowestBalance         decimal.Decimal `json:"lowest_balance" yaml:"lowest_balance"`
	LowestBalanceLabel    string          `json:"lowest_balance_label" yaml:"lowest_balance_label"`
	HighestBalance        decimal.Decimal `json:"highest_balance" yaml:"highest_balance"`
	HighestBalanceLabel   string          `json:"highest_balance_label" yaml:"highest_balance_label"`
	BalanceDeclinePercent decimal.Decimal `json:"balance_decline_percent" yaml:"balance_decline_percent"`
	RiskLevel             RiskLevel       `json:"risk_level" yaml:"risk_level"`
}

// ForecastResult is the immutable output of one forecast run. It is plain
// data, safe to serialize directly for downstream report generation.
type ForecastResult struct {
	ID           string           `json:"id" yaml:"id"`
	FundID       string           `json:"fund_id" yaml:"fund_id"`
	ScenarioName string           `json:"scenario_name" yaml:"scenario_name"`
	GeneratedAt  time.Time        `json:"generated_at" yaml:"generated_at"`
	Periods      []ForecastPeriod `json:"periods" yaml:"periods"`
	Summary      ForecastSummary  `json:"summary" yaml:"summary"`
	Warnings     []Warning        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// PeriodDelta is the per-period difference between two scenarios.
type PeriodDelta struct {
	Index                int             `json:"index" yaml:"index"`
	Label                string          `json:"label" yaml:"label"`
	RevenueDelta         decimal.Decimal `json:"revenue_delta" yaml:"revenue_delta"`
	ExpenseDelta         decimal.Decimal `json:"expense_delta" yaml:"expense_delta"`
	EndingBalanceDelta   decimal.Decimal `json:"ending_balance_delta" yaml:"ending_balance_delta"`
}

// ScenarioComparison pairs two forecasts period by period.
type ScenarioComparison struct {
	BaseScenario          string          `json:"base_scenario" yaml:"base_scenario"`
	AlternateScenario     string          `json:"alternate_scenario" yaml:"alternate_scenario"`
	PeriodDeltas          []PeriodDelta   `json:"period_deltas" yaml:"period_deltas"`
	RevenueVariance       decimal.Decimal `json:"revenue_variance" yaml:"revenue_variance"`
	ExpenseVariance       decimal.Decimal `json:"expense_variance" yaml:"expense_variance"`
	EndingBalanceVariance decimal.Decimal `json:"ending_balance_variance" yaml:"ending_balance_variance"`
	RiskTransition        string          `json:"risk_transition" yaml:"risk_transition"`
}

// SensitivityVariable names a scenario input a sensitivity sweep can vary.
type SensitivityVariable string

const (
	VariableInflationRate  SensitivityVariable = "inflation_rate"
	VariableWageGrowth     SensitivityVariable = "wage_growth"
	VariablePropertyGrowth SensitivityVariable = "property_growth"
	VariableInterestRate   SensitivityVariable = "interest_rate"
	VariableRevenueGrowth  SensitivityVariable = "revenue_growth"
	VariableExpenseGrowth  SensitivityVariable = "expense_growth"
)

// IsValid reports whether the sensitivity variable is recognized.
func (v SensitivityVariable) IsValid() bool {
	switch v {
	case VariableInflationRate, VariableWageGrowth, VariablePropertyGrowth,
		VariableInterestRate, VariableRevenueGrowth, VariableExpenseGrowth:
		return true
	}
	return false
}

// ImpactLevel grades how strongly a variable moves the forecast outcome.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "LOW"
	ImpactModerate ImpactLevel = "MODERATE"
	ImpactHigh     ImpactLevel = "HIGH"
)

// SensitivityPoint is one tested value in a sensitivity sweep.
type SensitivityPoint struct {
	Value         float64         `json:"value" yaml:"value"`
	EndingBalance decimal.Decimal `json:"ending_balance" yaml:"ending_balance"`
	Delta         decimal.Decimal `json:"delta" yaml:"delta"`
	PercentChange decimal.Decimal `json:"percent_change" yaml:"percent_change"`
}

// SensitivityAnalysis reports how the forecast's ending balance responds to a
// single-variable sweep.
type SensitivityAnalysis struct {
	Variable        SensitivityVariable `json:"variable" yaml:"variable"`
	BaselineValue   float64             `json:"baseline_value" yaml:"baseline_value"`
	BaselineBalance decimal.Decimal     `json:"baseline_balance" yaml:"baseline_balance"`
	Points          []SensitivityPoint  `json:"points" yaml:"points"`
	Impact          ImpactLevel         `json:"impact" yaml:"impact"`
}

// ValidationResult collects structural issues found in a scenario. Errors
// reject the calculation; warnings are reported and the calculation proceeds.
type ValidationResult struct {
	Errors   []string `json:"errors" yaml:"errors"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// Valid reports whether the subject passed validation (no errors; warnings
// are allowed).
func (v ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}

// AddError appends a blocking issue.
func (v *ValidationResult) AddError(msg string) {
	v.Errors = append(v.Errors, msg)
}

// AddWarning appends a non-blocking issue.
func (v *ValidationResult) AddWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}
