package forecast

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/dateutils"
	"openmuni/fiscalcast/internal/formula"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

// ambientVariables are supplied to every formula model alongside its own
// variables, so formulas can reference the scenario's economic assumptions
// and elapsed time.
var ambientVariables = []string{
	"years_elapsed",
	"inflation_rate",
	"wage_growth",
	"property_growth",
	"interest_rate",
}

// projector advances one fund's balance period by period under a scenario.
// It carries the per-run state a projection needs: the seeded random source
// for grant renewals, year-bucketed debt service, and caches for levy paths
// and parsed formulas. A projector serves exactly one forecast run.
type projector struct {
	scenario        models.ForecastScenario
	periodsPerYear  int
	monthsPerPeriod int
	rng             *rand.Rand
	annualDebt      []decimal.Decimal
	grants          map[int]*grantState
	levies          map[int][]decimal.Decimal
	formulas        map[string]*formula.Expr
	negativeWarned  bool
}

func newProjector(scenario models.ForecastScenario, annualDebt []decimal.Decimal) *projector {
	return &projector{
		scenario:        scenario,
		periodsPerYear:  scenario.Granularity.PeriodsPerYear(),
		monthsPerPeriod: scenario.Granularity.MonthsPerPeriod(),
		rng:             rand.New(rand.NewSource(scenarioSeed(scenario))),
		annualDebt:      annualDebt,
		grants:          make(map[int]*grantState),
		levies:          make(map[int][]decimal.Decimal),
		formulas:        make(map[string]*formula.Expr),
	}
}

// scenarioSeed returns the seed for grant-renewal draws. A zero RandomSeed
// derives a stable seed from the scenario ID so repeated runs of the same
// saved scenario agree.
func scenarioSeed(scenario models.ForecastScenario) int64 {
	if scenario.RandomSeed != 0 {
		return scenario.RandomSeed
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(scenario.ID))
	return int64(h.Sum64())
}

// project computes one forecast period from its beginning balance.
// Ending balance chains exactly: beginning + revenue - expense - debt service.
func (p *projector) project(index int, beginning decimal.Decimal) (models.ForecastPeriod, error) {
	periodStart := dateutils.PeriodStart(p.scenario.StartDate, p.monthsPerPeriod, index)
	periodEnd := dateutils.PeriodEnd(p.scenario.StartDate, p.monthsPerPeriod, index)

	period := models.ForecastPeriod{
		Index:            index,
		Label:            dateutils.PeriodLabel(p.scenario.StartDate, p.periodsPerYear, index),
		StartDate:        periodStart,
		EndDate:          periodEnd,
		BeginningBalance: beginning,
		RevenueLines:     []models.LineItem{},
		ExpenseLines:     []models.LineItem{},
		TotalRevenue:     decimal.Zero,
		TotalExpense:     decimal.Zero,
		DebtService:      decimal.Zero,
	}

	for i, model := range p.scenario.Revenues {
		if !model.Gate().AppliesTo(periodStart, periodEnd) {
			continue
		}
		amount, err := p.revenueAmount(i, model, index, periodStart)
		if err != nil {
			return models.ForecastPeriod{}, err
		}
		amount = moneyutils.Round(amount)
		period.RevenueLines = append(period.RevenueLines, models.LineItem{
			Name:   lineName("revenue", i, model.Gate()),
			Amount: amount,
		})
		period.TotalRevenue = period.TotalRevenue.Add(amount)
	}

	for i, model := range p.scenario.Expenses {
		if !model.Gate().AppliesTo(periodStart, periodEnd) {
			continue
		}
		amount, err := p.expenseAmount(i, model, index, periodStart)
		if err != nil {
			return models.ForecastPeriod{}, err
		}
		amount = moneyutils.Round(amount)
		period.ExpenseLines = append(period.ExpenseLines, models.LineItem{
			Name:   lineName("expense", i, model.Gate()),
			Amount: amount,
		})
		period.TotalExpense = period.TotalExpense.Add(amount)
	}

	if p.scenario.IncludeDebtService {
		period.DebtService = p.debtServiceForPeriod(index)
	}

	period.NetChange = period.TotalRevenue.Sub(period.TotalExpense).Sub(period.DebtService)
	period.EndingBalance = beginning.Add(period.NetChange)

	p.emitWarnings(&period)

	return period, nil
}

// debtServiceForPeriod slices the fund's annual debt service into the period.
// Annual granularity applies the full-year amount once; quarterly and monthly
// spread it evenly across the year's sub-periods.
func (p *projector) debtServiceForPeriod(index int) decimal.Decimal {
	year := dateutils.YearIndex(index, p.periodsPerYear)
	if year >= len(p.annualDebt) {
		return decimal.Zero
	}
	annual := p.annualDebt[year]
	if p.periodsPerYear == 1 {
		return annual
	}
	return moneyutils.Round(annual.Div(decimal.NewFromInt(int64(p.periodsPerYear))))
}

func (p *projector) emitWarnings(period *models.ForecastPeriod) {
	if period.EndingBalance.IsNegative() && !p.negativeWarned {
		p.negativeWarned = true
		period.Warnings = append(period.Warnings, models.Warning{
			Code:        models.WarningNegativeBalance,
			Severity:    models.SeverityCritical,
			Message:     fmt.Sprintf("projected balance turns negative in %s", period.Label),
			PeriodIndex: period.Index,
		})
	}

	minimum, ok := p.minimumBalance(period.TotalExpense)
	if ok && period.EndingBalance.LessThan(minimum) {
		period.Warnings = append(period.Warnings, models.Warning{
			Code:     models.WarningBelowMinimum,
			Severity: models.SeverityHigh,
			Message: fmt.Sprintf("projected balance %s falls below minimum %s in %s",
				moneyutils.FormatAmount(period.EndingBalance), moneyutils.FormatAmount(minimum), period.Label),
			PeriodIndex: period.Index,
		})
	}
}

// minimumBalance resolves the scenario's minimum-balance policy for a period.
// Percentage policies are recomputed each period against the period's expense
// annualized to a full-year run rate.
func (p *projector) minimumBalance(periodExpense decimal.Decimal) (decimal.Decimal, bool) {
	policy := p.scenario.MinimumBalance
	if policy == nil {
		return decimal.Zero, false
	}
	if policy.Kind == models.MinimumBalanceAmount {
		return policy.Value, true
	}
	annualized := periodExpense.Mul(decimal.NewFromInt(int64(p.periodsPerYear)))
	return moneyutils.Round(annualized.Mul(policy.Value).Div(decimal.NewFromInt(100))), true
}

// ---------------------------------------------------------------------------
// Revenue growth laws
// ---------------------------------------------------------------------------

func (p *projector) revenueAmount(index int, model models.RevenueModel, periodIndex int, periodStart time.Time) (decimal.Decimal, error) {
	years := dateutils.YearsElapsed(periodIndex, p.periodsPerYear)
	yearIndex := dateutils.YearIndex(periodIndex, p.periodsPerYear)

	switch m := model.(type) {
	case models.FixedRevenue:
		return p.weightedAnnual(m.Amount, m.MonthlyWeights, periodStart), nil

	case models.GrowingRevenue:
		return p.periodShare(grow(m.BaseAmount, m.GrowthRate, years)), nil

	case models.TaxLevyRevenue:
		return p.periodShare(p.levyForYear(index, m, yearIndex)), nil

	case models.GrantRevenue:
		if !p.grantActive(index, m, yearIndex) {
			return decimal.Zero, nil
		}
		return p.periodShare(m.Amount), nil

	case models.SeasonalRevenue:
		return p.seasonalAmount(m.AnnualAmount, m.MonthlyWeights, periodStart), nil

	case models.FormulaRevenue:
		return p.formulaAmount(m.Expression, m.Variables, years)
	}

	return decimal.Zero, &calcerror.UnknownModelError{Kind: "revenue model", Tag: fmt.Sprintf("%T", model)}
}

func (p *projector) expenseAmount(index int, model models.ExpenseModel, periodIndex int, periodStart time.Time) (decimal.Decimal, error) {
	years := dateutils.YearsElapsed(periodIndex, p.periodsPerYear)

	switch m := model.(type) {
	case models.FixedExpense:
		return p.weightedAnnual(m.Amount, m.MonthlyWeights, periodStart), nil

	case models.GrowingExpense:
		return p.periodShare(grow(m.BaseAmount, m.GrowthRate, years)), nil

	case models.PersonnelExpense:
		wage := m.WageGrowth
		if wage == 0 {
			wage = p.scenario.Assumptions.WageGrowth
		}
		loaded := m.BaseSalaries.Mul(decimal.NewFromFloat(1 + m.BenefitsRate))
		return p.periodShare(grow(loaded, wage, years)), nil

	case models.SeasonalExpense:
		return p.seasonalAmount(m.AnnualAmount, m.MonthlyWeights, periodStart), nil

	case models.FormulaExpense:
		return p.formulaAmount(m.Expression, m.Variables, years)
	}

	return decimal.Zero, &calcerror.UnknownModelError{Kind: "expense model", Tag: fmt.Sprintf("%T", model)}
}

// grow compounds base at an annual rate over elapsed years:
// base × (1+rate)^years.
func grow(base decimal.Decimal, rate, years float64) decimal.Decimal {
	if rate == 0 || years == 0 {
		return base
	}
	return base.Mul(decimal.NewFromFloat(math.Pow(1+rate, years)))
}

// periodShare scales an annual amount to one period's share.
func (p *projector) periodShare(annual decimal.Decimal) decimal.Decimal {
	if p.periodsPerYear == 1 {
		return annual
	}
	return annual.Div(decimal.NewFromInt(int64(p.periodsPerYear)))
}

// weightedAnnual distributes a flat annual amount into the period, honoring
// an optional monthly weight vector.
func (p *projector) weightedAnnual(annual decimal.Decimal, weights []float64, periodStart time.Time) decimal.Decimal {
	if len(weights) != 12 {
		return p.periodShare(annual)
	}
	return annual.Mul(decimal.NewFromFloat(p.periodWeight(weights, periodStart, 1)))
}

// seasonalAmount distributes an annual amount by normalized monthly weights.
func (p *projector) seasonalAmount(annual decimal.Decimal, weights []float64, periodStart time.Time) decimal.Decimal {
	if len(weights) != 12 {
		return p.periodShare(annual)
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return decimal.Zero
	}
	return annual.Mul(decimal.NewFromFloat(p.periodWeight(weights, periodStart, 1.0/sum)))
}

// periodWeight sums the calendar-month weights the period spans, scaled.
func (p *projector) periodWeight(weights []float64, periodStart time.Time, scale float64) float64 {
	weight := 0.0
	for m := 0; m < p.monthsPerPeriod; m++ {
		month := int(periodStart.AddDate(0, m, 0).Month()) - 1
		weight += weights[month]
	}
	return weight * scale
}

// levyForYear computes the tax levy for a forecast year: assessed value grows
// at the scenario's property-growth assumption, and the year-over-year levy
// increase is capped at the model's growth cap. The per-model path is built
// iteratively once and cached.
func (p *projector) levyForYear(modelIndex int, m models.TaxLevyRevenue, yearIndex int) decimal.Decimal {
	path := p.levies[modelIndex]

	for len(path) <= yearIndex {
		year := len(path)
		assessed := grow(m.AssessedValue, p.scenario.Assumptions.PropertyGrowth, float64(year))
		levy := assessed.Mul(decimal.NewFromFloat(m.MillRate / 1000))

		if year > 0 && m.LevyGrowthCap > 0 {
			capped := path[year-1].Mul(decimal.NewFromFloat(1 + m.LevyGrowthCap))
			if levy.GreaterThan(capped) {
				levy = capped
			}
		}
		path = append(path, levy)
	}

	p.levies[modelIndex] = path
	return path[yearIndex]
}

// grantState tracks one grant model's renewal outcomes across the run.
type grantState struct {
	ended        bool
	decidedYears int // renewal decided through year decidedYears-1
}

// grantActive reports whether a grant funds the given forecast year. Renewal
// is drawn once per fiscal year, in year order, from the run's seeded random
// source. A failed renewal ends the grant permanently.
func (p *projector) grantActive(modelIndex int, m models.GrantRevenue, yearIndex int) bool {
	if m.OneTime {
		return yearIndex == 0
	}

	guaranteed := m.Years
	if guaranteed < 1 {
		guaranteed = 1
	}

	state, ok := p.grants[modelIndex]
	if !ok {
		state = &grantState{decidedYears: guaranteed}
		p.grants[modelIndex] = state
	}

	for !state.ended && state.decidedYears <= yearIndex {
		if p.rng.Float64() >= m.RenewalProbability {
			state.ended = true
		}
		state.decidedYears++
	}

	if state.ended {
		// The failed draw was for year decidedYears-1.
		return yearIndex < state.decidedYears-1
	}
	return true
}

func (p *projector) formulaAmount(expression string, vars map[string]float64, years float64) (decimal.Decimal, error) {
	expr, ok := p.formulas[expression]
	if !ok {
		parsed, err := formula.Parse(expression)
		if err != nil {
			return decimal.Zero, err
		}
		expr = parsed
		p.formulas[expression] = expr
	}

	scope := make(map[string]float64, len(vars)+len(ambientVariables))
	for k, v := range vars {
		scope[k] = v
	}
	scope["years_elapsed"] = years
	scope["inflation_rate"] = p.scenario.Assumptions.InflationRate
	scope["wage_growth"] = p.scenario.Assumptions.WageGrowth
	scope["property_growth"] = p.scenario.Assumptions.PropertyGrowth
	scope["interest_rate"] = p.scenario.Assumptions.InterestRate

	annual, err := expr.Eval(scope)
	if err != nil {
		return decimal.Zero, err
	}
	return p.periodShare(decimal.NewFromFloat(annual)), nil
}

func lineName(kind string, index int, gate models.ModelGate) string {
	if gate.Name != "" {
		return gate.Name
	}
	return fmt.Sprintf("%s %d", kind, index+1)
}
