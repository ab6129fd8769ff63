// Package scenario reads forecast and debt scenario documents from YAML.
// Revenue, expense and debt scenario variants are tagged with a type: field;
// the constructor switches turn tags into closed-sum model values, and an
// unknown tag is a hard error at this boundary so it can never surface as a
// silent zero contribution mid-calculation.
package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/dateutils"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

// Revenue model type tags.
const (
	tagFixed    = "fixed"
	tagGrowing  = "growing"
	tagTaxLevy  = "tax_levy"
	tagGrant    = "grant"
	tagSeasonal = "seasonal"
	tagFormula  = "formula"
	// tagPersonnel is expense-only.
	tagPersonnel = "personnel"
)

// LoadForecastScenario reads and parses a forecast scenario document.
func LoadForecastScenario(path string) (models.ForecastScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ForecastScenario{}, fmt.Errorf("error reading scenario file: %w", err)
	}
	scenario, err := ParseForecastScenario(data)
	if err != nil {
		return models.ForecastScenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

type forecastDoc struct {
	ID             string     `yaml:"id"`
	Name           string     `yaml:"name"`
	FundID         string     `yaml:"fund_id"`
	HorizonPeriods int        `yaml:"horizon_periods"`
	Granularity    string     `yaml:"granularity"`
	StartDate      string     `yaml:"start_date"`
	Revenues       []modelDoc `yaml:"revenues"`
	Expenses       []modelDoc `yaml:"expenses"`
	Assumptions    struct {
		InflationRate  float64 `yaml:"inflation_rate"`
		WageGrowth     float64 `yaml:"wage_growth"`
		PropertyGrowth float64 `yaml:"property_growth"`
		InterestRate   float64 `yaml:"interest_rate"`
	} `yaml:"assumptions"`
	MinimumBalance *struct {
		Kind  string `yaml:"kind"`
		Value string `yaml:"value"`
	} `yaml:"minimum_balance"`
	IncludeDebtService bool  `yaml:"include_debt_service"`
	RandomSeed         int64 `yaml:"random_seed"`
}

// modelDoc is the union of every revenue and expense variant's fields; the
// type tag selects which subset is read.
type modelDoc struct {
	Type      string `yaml:"type"`
	Name      string `yaml:"name"`
	Active    *bool  `yaml:"active"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`

	Amount             string             `yaml:"amount"`
	BaseAmount         string             `yaml:"base_amount"`
	GrowthRate         float64            `yaml:"growth_rate"`
	AssessedValue      string             `yaml:"assessed_value"`
	MillRate           float64            `yaml:"mill_rate"`
	LevyGrowthCap      float64            `yaml:"levy_growth_cap"`
	OneTime            bool               `yaml:"one_time"`
	Years              int                `yaml:"years"`
	RenewalProbability float64            `yaml:"renewal_probability"`
	AnnualAmount       string             `yaml:"annual_amount"`
	MonthlyWeights     []float64          `yaml:"monthly_weights"`
	Expression         string             `yaml:"expression"`
	Variables          map[string]float64 `yaml:"variables"`
	BaseSalaries       string             `yaml:"base_salaries"`
	BenefitsRate       float64            `yaml:"benefits_rate"`
	WageGrowth         float64            `yaml:"wage_growth"`
}

// ParseForecastScenario parses a forecast scenario document.
func ParseForecastScenario(data []byte) (models.ForecastScenario, error) {
	var doc forecastDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.ForecastScenario{}, fmt.Errorf("error parsing scenario document: %w", err)
	}

	scenario := models.ForecastScenario{
		ID:                 doc.ID,
		Name:               doc.Name,
		FundID:             doc.FundID,
		HorizonPeriods:     doc.HorizonPeriods,
		Granularity:        models.Granularity(doc.Granularity),
		IncludeDebtService: doc.IncludeDebtService,
		RandomSeed:         doc.RandomSeed,
	}
	scenario.Assumptions = models.EconomicAssumptions{
		InflationRate:  doc.Assumptions.InflationRate,
		WageGrowth:     doc.Assumptions.WageGrowth,
		PropertyGrowth: doc.Assumptions.PropertyGrowth,
		InterestRate:   doc.Assumptions.InterestRate,
	}

	if doc.StartDate != "" {
		start, _, err := dateutils.ParseDate(doc.StartDate)
		if err != nil {
			return models.ForecastScenario{}, err
		}
		scenario.StartDate = start
	}

	if doc.MinimumBalance != nil {
		value, err := moneyutils.ParseAmount(doc.MinimumBalance.Value)
		if err != nil {
			return models.ForecastScenario{}, fmt.Errorf("minimum balance: %w", err)
		}
		scenario.MinimumBalance = &models.MinimumBalancePolicy{
			Kind:  models.MinimumBalanceKind(doc.MinimumBalance.Kind),
			Value: value,
		}
	}

	for i, m := range doc.Revenues {
		model, err := buildRevenueModel(m)
		if err != nil {
			return models.ForecastScenario{}, fmt.Errorf("revenues[%d]: %w", i, err)
		}
		scenario.Revenues = append(scenario.Revenues, model)
	}
	for i, m := range doc.Expenses {
		model, err := buildExpenseModel(m)
		if err != nil {
			return models.ForecastScenario{}, fmt.Errorf("expenses[%d]: %w", i, err)
		}
		scenario.Expenses = append(scenario.Expenses, model)
	}

	return scenario, nil
}

func buildGate(doc modelDoc) (models.ModelGate, error) {
	gate := models.ModelGate{Name: doc.Name, Active: true}
	if doc.Active != nil {
		gate.Active = *doc.Active
	}
	if doc.StartDate != "" {
		start, _, err := dateutils.ParseDate(doc.StartDate)
		if err != nil {
			return models.ModelGate{}, err
		}
		gate.StartDate = start
	}
	if doc.EndDate != "" {
		end, _, err := dateutils.ParseDate(doc.EndDate)
		if err != nil {
			return models.ModelGate{}, err
		}
		gate.EndDate = &end
	}
	return gate, nil
}

func buildRevenueModel(doc modelDoc) (models.RevenueModel, error) {
	gate, err := buildGate(doc)
	if err != nil {
		return nil, err
	}

	switch doc.Type {
	case tagFixed:
		amount, err := moneyutils.ParseAmount(doc.Amount)
		if err != nil {
			return nil, err
		}
		return models.FixedRevenue{ModelGate: gate, Amount: amount, MonthlyWeights: doc.MonthlyWeights}, nil

	case tagGrowing:
		base, err := moneyutils.ParseAmount(doc.BaseAmount)
		if err != nil {
			return nil, err
		}
		return models.GrowingRevenue{ModelGate: gate, BaseAmount: base, GrowthRate: doc.GrowthRate}, nil

	case tagTaxLevy:
		assessed, err := moneyutils.ParseAmount(doc.AssessedValue)
		if err != nil {
			return nil, err
		}
		return models.TaxLevyRevenue{
			ModelGate:     gate,
			AssessedValue: assessed,
			MillRate:      doc.MillRate,
			LevyGrowthCap: doc.LevyGrowthCap,
		}, nil

	case tagGrant:
		amount, err := moneyutils.ParseAmount(doc.Amount)
		if err != nil {
			return nil, err
		}
		return models.GrantRevenue{
			ModelGate:          gate,
			Amount:             amount,
			OneTime:            doc.OneTime,
			Years:              doc.Years,
			RenewalProbability: doc.RenewalProbability,
		}, nil

	case tagSeasonal:
		annual, err := moneyutils.ParseAmount(doc.AnnualAmount)
		if err != nil {
			return nil, err
		}
		return models.SeasonalRevenue{ModelGate: gate, AnnualAmount: annual, MonthlyWeights: doc.MonthlyWeights}, nil

	case tagFormula:
		return models.FormulaRevenue{ModelGate: gate, Expression: doc.Expression, Variables: doc.Variables}, nil
	}

	return nil, &calcerror.UnknownModelError{Kind: "revenue model", Tag: doc.Type}
}

func buildExpenseModel(doc modelDoc) (models.ExpenseModel, error) {
	gate, err := buildGate(doc)
	if err != nil {
		return nil, err
	}

	switch doc.Type {
	case tagFixed:
		amount, err := moneyutils.ParseAmount(doc.Amount)
		if err != nil {
			return nil, err
		}
		return models.FixedExpense{ModelGate: gate, Amount: amount, MonthlyWeights: doc.MonthlyWeights}, nil

	case tagGrowing:
		base, err := moneyutils.ParseAmount(doc.BaseAmount)
		if err != nil {
			return nil, err
		}
		return models.GrowingExpense{ModelGate: gate, BaseAmount: base, GrowthRate: doc.GrowthRate}, nil

	case tagPersonnel:
		salaries, err := moneyutils.ParseAmount(doc.BaseSalaries)
		if err != nil {
			return nil, err
		}
		return models.PersonnelExpense{
			ModelGate:    gate,
			BaseSalaries: salaries,
			BenefitsRate: doc.BenefitsRate,
			WageGrowth:   doc.WageGrowth,
		}, nil

	case tagSeasonal:
		annual, err := moneyutils.ParseAmount(doc.AnnualAmount)
		if err != nil {
			return nil, err
		}
		return models.SeasonalExpense{ModelGate: gate, AnnualAmount: annual, MonthlyWeights: doc.MonthlyWeights}, nil

	case tagFormula:
		return models.FormulaExpense{ModelGate: gate, Expression: doc.Expression, Variables: doc.Variables}, nil
	}

	return nil, &calcerror.UnknownModelError{Kind: "expense model", Tag: doc.Type}
}

// parseDateField parses a required date field.
func parseDateField(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	date, _, err := dateutils.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return date, nil
}
