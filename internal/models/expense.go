package models

import (
	"github.com/shopspring/decimal"
)

// ExpenseModel is the closed set of expense growth laws, mirroring
// RevenueModel.
type ExpenseModel interface {
	expenseModel()
	Gate() ModelGate
}

// FixedExpense is a flat annual amount, optionally distributed across months
// by weight.
type FixedExpense struct {
	ModelGate
	Amount         decimal.Decimal
	MonthlyWeights []float64 // optional, 12 entries summing to 1
}

func (FixedExpense) expenseModel() {}

// Gate returns the model's activation window.
func (m FixedExpense) Gate() ModelGate { return m.ModelGate }

// GrowingExpense compounds a base amount at a fixed annual growth rate.
type GrowingExpense struct {
	ModelGate
	BaseAmount decimal.Decimal
	GrowthRate float64
}

func (GrowingExpense) expenseModel() {}

// Gate returns the model's activation window.
func (m GrowingExpense) Gate() ModelGate { return m.ModelGate }

// PersonnelExpense models salaries plus a benefits load, growing at the
// model's wage growth rate. When WageGrowth is zero the scenario's
// wage-growth assumption applies instead.
type PersonnelExpense struct {
	ModelGate
	BaseSalaries decimal.Decimal
	BenefitsRate float64
	WageGrowth   float64
}

func (PersonnelExpense) expenseModel() {}

// Gate returns the model's activation window.
func (m PersonnelExpense) Gate() ModelGate { return m.ModelGate }

// SeasonalExpense spreads an annual amount across months by weight.
type SeasonalExpense struct {
	ModelGate
	AnnualAmount   decimal.Decimal
	MonthlyWeights []float64 // 12 entries, normalized before use
}

func (SeasonalExpense) expenseModel() {}

// Gate returns the model's activation window.
func (m SeasonalExpense) Gate() ModelGate { return m.ModelGate }

// FormulaExpense evaluates an arithmetic expression over named variables,
// like FormulaRevenue.
type FormulaExpense struct {
	ModelGate
	Expression string
	Variables  map[string]float64
}

func (FormulaExpense) expenseModel() {}

// Gate returns the model's activation window.
func (m FormulaExpense) Gate() ModelGate { return m.ModelGate }
