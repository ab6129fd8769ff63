package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtScenario is the closed set of what-if debt decisions the analyzer
// evaluates. Like the revenue and expense model sums, variants outside this
// package cannot exist, so dispatch is exhaustive.
type DebtScenario interface {
	debtScenario()
	ScenarioName() string
}

// NewIssuanceScenario proposes a new bond issue.
type NewIssuanceScenario struct {
	Name             string
	Principal        decimal.Decimal
	AnnualRate       float64
	TermYears        int
	PaymentFrequency PaymentFrequency
	AmortizationType AmortizationType
	// IssuanceCostRate is a fraction of principal; FlatIssuanceCost is added
	// on top. Either may be zero.
	IssuanceCostRate float64
	FlatIssuanceCost decimal.Decimal
	ReserveKind      ReserveKind
	// ReservePercent is the fraction of principal reserved when ReserveKind
	// is PERCENT_OF_PRINCIPAL.
	ReservePercent float64
}

func (NewIssuanceScenario) debtScenario() {}

// ScenarioName returns the scenario's display name.
func (s NewIssuanceScenario) ScenarioName() string { return s.Name }

// EarlyPayoffScenario proposes retiring an existing instrument on PayoffDate.
type EarlyPayoffScenario struct {
	Name            string
	Instrument      DebtInstrument
	PayoffDate      time.Time
	AdditionalCosts decimal.Decimal
}

func (EarlyPayoffScenario) debtScenario() {}

// ScenarioName returns the scenario's display name.
func (s EarlyPayoffScenario) ScenarioName() string { return s.Name }

// RefundingScenario proposes refinancing an existing instrument with new
// bonds. When the payoff happens before the instrument's call date the
// refunding is an advance refunding and requires an escrow bridging to the
// call date.
type RefundingScenario struct {
	Name                string
	Instrument          DebtInstrument
	NewRate             float64
	NewTermYears        int
	NewPaymentFrequency PaymentFrequency
	// EscrowYield is the assumed investment yield on the refunding escrow.
	EscrowYield      float64
	IssuanceCostRate float64
}

func (RefundingScenario) debtScenario() {}

// ScenarioName returns the scenario's display name.
func (s RefundingScenario) ScenarioName() string { return s.Name }

// CombinedScenario bundles component decisions evaluated together. Components
// are analyzed independently; the result aggregates their net cash effects.
type CombinedScenario struct {
	Name      string
	Issuance  *NewIssuanceScenario
	Payoff    *EarlyPayoffScenario
	Refunding *RefundingScenario
}

func (CombinedScenario) debtScenario() {}

// ScenarioName returns the scenario's display name.
func (s CombinedScenario) ScenarioName() string { return s.Name }

// CombinedResult aggregates the component analyses of a CombinedScenario.
type CombinedResult struct {
	ID            string             `json:"id" yaml:"id"`
	ScenarioName  string             `json:"scenario_name" yaml:"scenario_name"`
	GeneratedAt   time.Time          `json:"generated_at" yaml:"generated_at"`
	Issuance      *NewIssuanceResult `json:"issuance,omitempty" yaml:"issuance,omitempty"`
	Payoff        *EarlyPayoffResult `json:"payoff,omitempty" yaml:"payoff,omitempty"`
	Refunding     *RefundingResult   `json:"refunding,omitempty" yaml:"refunding,omitempty"`
	NetCashImpact decimal.Decimal    `json:"net_cash_impact" yaml:"net_cash_impact"`
}

// RevenueSource is one revenue stream measured against debt service in a
// capacity report.
type RevenueSource struct {
	Name          string          `json:"name" yaml:"name"`
	AnnualRevenue decimal.Decimal `json:"annual_revenue" yaml:"annual_revenue"`
	// PledgedFundID, when set, limits the coverage test to instruments
	// pledged against that fund.
	PledgedFundID string `json:"pledged_fund_id,omitempty" yaml:"pledged_fund_id,omitempty"`
}

// DebtCapacityInput is the caller-supplied view of the municipality's debt
// position used to build a DebtCapacityReport.
type DebtCapacityInput struct {
	AsOf           time.Time
	Instruments    []DebtInstrument
	RevenueSources []RevenueSource
	// Population enables per-capita debt; zero skips the ratio.
	Population int64
	// AssessedValue enables debt-to-assessed-value; zero skips the ratio.
	AssessedValue decimal.Decimal
}
