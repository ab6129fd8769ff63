package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

// Debt scenario type tags.
const (
	tagNewIssuance = "new_issuance"
	tagEarlyPayoff = "early_payoff"
	tagRefunding   = "refunding"
	tagCombined    = "combined"
)

// LoadDebtScenario reads and parses a debt scenario document.
func LoadDebtScenario(path string) (models.DebtScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scenario file: %w", err)
	}
	scenario, err := ParseDebtScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

type debtDoc struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`

	// New issuance.
	Principal        string  `yaml:"principal"`
	AnnualRate       float64 `yaml:"annual_rate"`
	TermYears        int     `yaml:"term_years"`
	PaymentFrequency string  `yaml:"payment_frequency"`
	AmortizationType string  `yaml:"amortization_type"`
	IssuanceCostRate float64 `yaml:"issuance_cost_rate"`
	FlatIssuanceCost string  `yaml:"flat_issuance_cost"`
	ReserveKind      string  `yaml:"reserve_kind"`
	ReservePercent   float64 `yaml:"reserve_percent"`

	// Early payoff and refunding.
	Instrument      *instrumentDoc `yaml:"instrument"`
	PayoffDate      string         `yaml:"payoff_date"`
	AdditionalCosts string         `yaml:"additional_costs"`

	// Refunding.
	NewRate             float64 `yaml:"new_rate"`
	NewTermYears        int     `yaml:"new_term_years"`
	NewPaymentFrequency string  `yaml:"new_payment_frequency"`
	EscrowYield         float64 `yaml:"escrow_yield"`

	// Combined.
	Issuance  *debtDoc `yaml:"issuance"`
	Payoff    *debtDoc `yaml:"payoff"`
	Refunding *debtDoc `yaml:"refunding"`
}

type instrumentDoc struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	FundID           string  `yaml:"fund_id"`
	Principal        string  `yaml:"principal"`
	AnnualRate       float64 `yaml:"annual_rate"`
	TermYears        int     `yaml:"term_years"`
	AmortizationType string  `yaml:"amortization_type"`
	PaymentFrequency string  `yaml:"payment_frequency"`
	IssueDate        string  `yaml:"issue_date"`
	FirstPaymentDate string  `yaml:"first_payment_date"`
	CallDate         string  `yaml:"call_date"`
	CallPremiumRate  float64 `yaml:"call_premium_rate"`
	PledgedFundID    string  `yaml:"pledged_fund_id"`
	MinCoverageRatio float64 `yaml:"min_coverage_ratio"`
	CustomPayments   []struct {
		Period    int    `yaml:"period"`
		Principal string `yaml:"principal"`
		Interest  string `yaml:"interest"`
	} `yaml:"custom_payments"`
}

// ParseDebtScenario parses a debt scenario document.
func ParseDebtScenario(data []byte) (models.DebtScenario, error) {
	var doc debtDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing scenario document: %w", err)
	}
	return buildDebtScenario(&doc)
}

func buildDebtScenario(doc *debtDoc) (models.DebtScenario, error) {
	switch doc.Type {
	case tagNewIssuance:
		issuance, err := buildIssuance(doc)
		if err != nil {
			return nil, err
		}
		return *issuance, nil

	case tagEarlyPayoff:
		payoff, err := buildPayoff(doc)
		if err != nil {
			return nil, err
		}
		return *payoff, nil

	case tagRefunding:
		refunding, err := buildRefunding(doc)
		if err != nil {
			return nil, err
		}
		return *refunding, nil

	case tagCombined:
		combined := models.CombinedScenario{Name: doc.Name}
		var err error
		if doc.Issuance != nil {
			if combined.Issuance, err = buildIssuance(doc.Issuance); err != nil {
				return nil, fmt.Errorf("issuance: %w", err)
			}
		}
		if doc.Payoff != nil {
			if combined.Payoff, err = buildPayoff(doc.Payoff); err != nil {
				return nil, fmt.Errorf("payoff: %w", err)
			}
		}
		if doc.Refunding != nil {
			if combined.Refunding, err = buildRefunding(doc.Refunding); err != nil {
				return nil, fmt.Errorf("refunding: %w", err)
			}
		}
		return combined, nil
	}

	return nil, &calcerror.UnknownModelError{Kind: "debt scenario", Tag: doc.Type}
}

func buildIssuance(doc *debtDoc) (*models.NewIssuanceScenario, error) {
	principal, err := moneyutils.ParseAmount(doc.Principal)
	if err != nil {
		return nil, fmt.Errorf("principal: %w", err)
	}
	scenario := models.NewIssuanceScenario{
		Name:             doc.Name,
		Principal:        principal,
		AnnualRate:       doc.AnnualRate,
		TermYears:        doc.TermYears,
		PaymentFrequency: models.PaymentFrequency(doc.PaymentFrequency),
		AmortizationType: models.AmortizationType(doc.AmortizationType),
		IssuanceCostRate: doc.IssuanceCostRate,
		ReserveKind:      models.ReserveKind(doc.ReserveKind),
		ReservePercent:   doc.ReservePercent,
	}
	if scenario.ReserveKind == "" {
		scenario.ReserveKind = models.ReserveNone
	}
	if doc.FlatIssuanceCost != "" {
		if scenario.FlatIssuanceCost, err = moneyutils.ParseAmount(doc.FlatIssuanceCost); err != nil {
			return nil, fmt.Errorf("flat_issuance_cost: %w", err)
		}
	}
	return &scenario, nil
}

func buildPayoff(doc *debtDoc) (*models.EarlyPayoffScenario, error) {
	if doc.Instrument == nil {
		return nil, fmt.Errorf("instrument is required")
	}
	inst, err := buildInstrument(doc.Instrument)
	if err != nil {
		return nil, err
	}
	payoffDate, err := parseDateField(doc.PayoffDate, "payoff_date")
	if err != nil {
		return nil, err
	}
	scenario := models.EarlyPayoffScenario{
		Name:       doc.Name,
		Instrument: inst,
		PayoffDate: payoffDate,
	}
	if doc.AdditionalCosts != "" {
		if scenario.AdditionalCosts, err = moneyutils.ParseAmount(doc.AdditionalCosts); err != nil {
			return nil, fmt.Errorf("additional_costs: %w", err)
		}
	}
	return &scenario, nil
}

func buildRefunding(doc *debtDoc) (*models.RefundingScenario, error) {
	if doc.Instrument == nil {
		return nil, fmt.Errorf("instrument is required")
	}
	inst, err := buildInstrument(doc.Instrument)
	if err != nil {
		return nil, err
	}
	return &models.RefundingScenario{
		Name:                doc.Name,
		Instrument:          inst,
		NewRate:             doc.NewRate,
		NewTermYears:        doc.NewTermYears,
		NewPaymentFrequency: models.PaymentFrequency(doc.NewPaymentFrequency),
		EscrowYield:         doc.EscrowYield,
		IssuanceCostRate:    doc.IssuanceCostRate,
	}, nil
}

func buildInstrument(doc *instrumentDoc) (models.DebtInstrument, error) {
	principal, err := moneyutils.ParseAmount(doc.Principal)
	if err != nil {
		return models.DebtInstrument{}, fmt.Errorf("instrument principal: %w", err)
	}
	inst := models.DebtInstrument{
		ID:               doc.ID,
		Name:             doc.Name,
		FundID:           doc.FundID,
		Principal:        principal,
		AnnualRate:       doc.AnnualRate,
		TermYears:        doc.TermYears,
		AmortizationType: models.AmortizationType(doc.AmortizationType),
		PaymentFrequency: models.PaymentFrequency(doc.PaymentFrequency),
		CallPremiumRate:  doc.CallPremiumRate,
		PledgedFundID:    doc.PledgedFundID,
		MinCoverageRatio: doc.MinCoverageRatio,
	}
	if inst.IssueDate, err = parseDateField(doc.IssueDate, "issue_date"); err != nil {
		return models.DebtInstrument{}, err
	}
	if inst.FirstPaymentDate, err = parseDateField(doc.FirstPaymentDate, "first_payment_date"); err != nil {
		return models.DebtInstrument{}, err
	}
	if doc.CallDate != "" {
		callDate, err := parseDateField(doc.CallDate, "call_date")
		if err != nil {
			return models.DebtInstrument{}, err
		}
		inst.CallDate = &callDate
	}
	for i, p := range doc.CustomPayments {
		principal, err := moneyutils.ParseAmount(p.Principal)
		if err != nil {
			return models.DebtInstrument{}, fmt.Errorf("custom_payments[%d] principal: %w", i, err)
		}
		interest, err := moneyutils.ParseAmount(p.Interest)
		if err != nil {
			return models.DebtInstrument{}, fmt.Errorf("custom_payments[%d] interest: %w", i, err)
		}
		inst.CustomPayments = append(inst.CustomPayments, models.CustomPayment{
			Period:    p.Period,
			Principal: principal,
			Interest:  interest,
		})
	}
	return inst, nil
}
