package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModelGate is the activation window shared by every revenue and expense
// model. A model contributes to a period only when it is active and the
// period overlaps [StartDate, EndDate].
type ModelGate struct {
	Name      string     `json:"name" yaml:"name"`
	Active    bool       `json:"active" yaml:"active"`
	StartDate time.Time  `json:"start_date" yaml:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// AppliesTo reports whether the model contributes to the period spanning
// [periodStart, periodEnd]. A zero StartDate means active from the forecast
// start; a nil EndDate means no expiry.
func (g ModelGate) AppliesTo(periodStart, periodEnd time.Time) bool {
	if !g.Active {
		return false
	}
	if !g.StartDate.IsZero() && periodEnd.Before(g.StartDate) {
		return false
	}
	if g.EndDate != nil && periodStart.After(*g.EndDate) {
		return false
	}
	return true
}

// RevenueModel is the closed set of revenue growth laws. The projector
// dispatches with an exhaustive type switch; an unlisted variant cannot be
// constructed outside this package, so an unknown tag can only be raised at
// the parse boundary, never silently dropped mid-calculation.
type RevenueModel interface {
	revenueModel()
	Gate() ModelGate
}

// FixedRevenue is a flat annual amount, optionally distributed across months
// by weight.
type FixedRevenue struct {
	ModelGate
	Amount         decimal.Decimal
	MonthlyWeights []float64 // optional, 12 entries summing to 1
}

func (FixedRevenue) revenueModel() {}

// Gate returns the model's activation window.
func (m FixedRevenue) Gate() ModelGate { return m.ModelGate }

// GrowingRevenue compounds a base amount at a fixed annual growth rate.
type GrowingRevenue struct {
	ModelGate
	BaseAmount decimal.Decimal
	GrowthRate float64
}

func (GrowingRevenue) revenueModel() {}

// Gate returns the model's activation window.
func (m GrowingRevenue) Gate() ModelGate { return m.ModelGate }

// TaxLevyRevenue models a property tax levy: assessed value times mill rate,
// with assessed value growing at the scenario's property-growth assumption
// and the year-over-year levy increase capped at LevyGrowthCap.
type TaxLevyRevenue struct {
	ModelGate
	AssessedValue decimal.Decimal
	MillRate      float64 // dollars of tax per $1,000 of assessed value
	LevyGrowthCap float64 // max year-over-year levy increase, 0 = uncapped
}

func (TaxLevyRevenue) revenueModel() {}

// Gate returns the model's activation window.
func (m TaxLevyRevenue) Gate() ModelGate { return m.ModelGate }

// GrantRevenue models grant funding: a one-time award, a fixed multi-year
// award, or an award that renews each year with some probability once the
// fixed years are exhausted. A failed renewal ends the grant permanently.
type GrantRevenue struct {
	ModelGate
	Amount             decimal.Decimal
	OneTime            bool
	Years              int
	RenewalProbability float64 // in [0,1]; 0 = never renews
}

func (GrantRevenue) revenueModel() {}

// Gate returns the model's activation window.
func (m GrantRevenue) Gate() ModelGate { return m.ModelGate }

// SeasonalRevenue spreads an annual amount across months by weight.
type SeasonalRevenue struct {
	ModelGate
	AnnualAmount   decimal.Decimal
	MonthlyWeights []float64 // 12 entries, normalized before use
}

func (SeasonalRevenue) revenueModel() {}

// Gate returns the model's activation window.
func (m SeasonalRevenue) Gate() ModelGate { return m.ModelGate }

// FormulaRevenue evaluates an arithmetic expression over named variables.
// The variable years_elapsed is supplied by the projector, so growth over the
// horizon applies only when the expression references it.
type FormulaRevenue struct {
	ModelGate
	Expression string
	Variables  map[string]float64
}

func (FormulaRevenue) revenueModel() {}

// Gate returns the model's activation window.
func (m FormulaRevenue) Gate() ModelGate { return m.ModelGate }
