package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationEntry is one payment period of an amortization schedule.
// Invariants: EndingBalance = BeginningBalance - Principal exactly, and the
// final entry's ending balance is exactly zero.
type AmortizationEntry struct {
	Period           int             `json:"period" csv:"period" yaml:"period"`
	BeginningBalance decimal.Decimal `json:"beginning_balance" csv:"beginning_balance" yaml:"beginning_balance"`
	Principal        decimal.Decimal `json:"principal" csv:"principal" yaml:"principal"`
	Interest         decimal.Decimal `json:"interest" csv:"interest" yaml:"interest"`
	Payment          decimal.Decimal `json:"payment" csv:"payment" yaml:"payment"`
	EndingBalance    decimal.Decimal `json:"ending_balance" csv:"ending_balance" yaml:"ending_balance"`
}

// DebtServiceSchedule is an instrument's payment schedule, possibly clipped
// to a forecast horizon, with totals over the included entries.
type DebtServiceSchedule struct {
	InstrumentID   string              `json:"instrument_id" yaml:"instrument_id"`
	InstrumentName string              `json:"instrument_name" yaml:"instrument_name"`
	FundID         string              `json:"fund_id" yaml:"fund_id"`
	Entries        []AmortizationEntry `json:"entries" yaml:"entries"`
	TotalPrincipal decimal.Decimal     `json:"total_principal" yaml:"total_principal"`
	TotalInterest  decimal.Decimal     `json:"total_interest" yaml:"total_interest"`
	TotalPayment   decimal.Decimal     `json:"total_payment" yaml:"total_payment"`
}

// IsEmpty reports whether the schedule contains no payments, e.g. when an
// instrument's term lies entirely outside the requested horizon.
func (s DebtServiceSchedule) IsEmpty() bool {
	return len(s.Entries) == 0
}

// ReserveKind selects how a new issue's debt service reserve is sized.
type ReserveKind string

const (
	// ReserveNone requires no reserve fund.
	ReserveNone ReserveKind = "NONE"
	// ReservePercentOfPrincipal sizes the reserve as a fraction of principal.
	ReservePercentOfPrincipal ReserveKind = "PERCENT_OF_PRINCIPAL"
	// ReserveMaxAnnualDebtService sizes the reserve at the largest annual
	// debt service over the issue's life.
	ReserveMaxAnnualDebtService ReserveKind = "MAX_ANNUAL_DS"
	// ReserveAverageAnnualDebtService sizes the reserve at the average annual
	// debt service over the issue's life.
	ReserveAverageAnnualDebtService ReserveKind = "AVG_ANNUAL_DS"
)

// IsValid reports whether the reserve kind is recognized.
func (k ReserveKind) IsValid() bool {
	switch k {
	case ReserveNone, ReservePercentOfPrincipal,
		ReserveMaxAnnualDebtService, ReserveAverageAnnualDebtService:
		return true
	}
	return false
}

// NewIssuanceResult reports the economics of a proposed bond issue.
type NewIssuanceResult struct {
	ID                    string              `json:"id" yaml:"id"`
	ScenarioName          string              `json:"scenario_name" yaml:"scenario_name"`
	GeneratedAt           time.Time           `json:"generated_at" yaml:"generated_at"`
	Principal             decimal.Decimal     `json:"principal" yaml:"principal"`
	IssuanceCosts         decimal.Decimal     `json:"issuance_costs" yaml:"issuance_costs"`
	ReserveRequirement    decimal.Decimal     `json:"reserve_requirement" yaml:"reserve_requirement"`
	NetProceeds           decimal.Decimal     `json:"net_proceeds" yaml:"net_proceeds"`
	TotalInterest         decimal.Decimal     `json:"total_interest" yaml:"total_interest"`
	MaxAnnualDebtService  decimal.Decimal     `json:"max_annual_debt_service" yaml:"max_annual_debt_service"`
	AvgAnnualDebtService  decimal.Decimal     `json:"avg_annual_debt_service" yaml:"avg_annual_debt_service"`
	TrueInterestCost      float64             `json:"true_interest_cost" yaml:"true_interest_cost"`
	TICIterations         int                 `json:"tic_iterations" yaml:"tic_iterations"`
	// NetInterestCost is the undiscounted ratio of total interest plus
	// issuance costs to principal.
	NetInterestCost decimal.Decimal     `json:"net_interest_cost" yaml:"net_interest_cost"`
	Schedule        []AmortizationEntry `json:"schedule" yaml:"schedule"`
}

// EarlyPayoffResult reports the economics of retiring an instrument before
// maturity.
type EarlyPayoffResult struct {
	ID                      string          `json:"id" yaml:"id"`
	InstrumentID            string          `json:"instrument_id" yaml:"instrument_id"`
	GeneratedAt             time.Time       `json:"generated_at" yaml:"generated_at"`
	PayoffDate              time.Time       `json:"payoff_date" yaml:"payoff_date"`
	OutstandingPrincipal    decimal.Decimal `json:"outstanding_principal" yaml:"outstanding_principal"`
	AccruedInterest         decimal.Decimal `json:"accrued_interest" yaml:"accrued_interest"`
	CallPremium             decimal.Decimal `json:"call_premium" yaml:"call_premium"`
	AdditionalCosts         decimal.Decimal `json:"additional_costs" yaml:"additional_costs"`
	TotalPayoffAmount       decimal.Decimal `json:"total_payoff_amount" yaml:"total_payoff_amount"`
	RemainingDebtServiceNPV decimal.Decimal `json:"remaining_debt_service_npv" yaml:"remaining_debt_service_npv"`
	NetSavings              decimal.Decimal `json:"net_savings" yaml:"net_savings"`
	SavingsPercent          decimal.Decimal `json:"savings_percent" yaml:"savings_percent"`
	Advised                 bool            `json:"advised" yaml:"advised"`
	Warnings                []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Recommendation grades a refunding's advisability against the NPV savings
// thresholds.
type Recommendation string

const (
	RecommendationStronglyAdvised Recommendation = "STRONGLY_ADVISED"
	RecommendationAdvised         Recommendation = "ADVISED"
	RecommendationMarginal        Recommendation = "MARGINAL"
	RecommendationNotAdvised      Recommendation = "NOT_ADVISED"
)

// RefundingResult reports the economics of refinancing an instrument.
type RefundingResult struct {
	ID                string          `json:"id" yaml:"id"`
	InstrumentID      string          `json:"instrument_id" yaml:"instrument_id"`
	GeneratedAt       time.Time       `json:"generated_at" yaml:"generated_at"`
	EscrowRequirement decimal.Decimal `json:"escrow_requirement" yaml:"escrow_requirement"`
	NegativeArbitrage bool            `json:"negative_arbitrage" yaml:"negative_arbitrage"`
	NewIssueSize      decimal.Decimal `json:"new_issue_size" yaml:"new_issue_size"`
	OldDebtServiceNPV decimal.Decimal `json:"old_debt_service_npv" yaml:"old_debt_service_npv"`
	NewDebtServiceNPV decimal.Decimal `json:"new_debt_service_npv" yaml:"new_debt_service_npv"`
	NPVSavings        decimal.Decimal `json:"npv_savings" yaml:"npv_savings"`
	SavingsPercent    decimal.Decimal `json:"savings_percent" yaml:"savings_percent"`
	Recommendation    Recommendation  `json:"recommendation" yaml:"recommendation"`
	Warnings          []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// CoverageRating grades a coverage ratio.
type CoverageRating string

const (
	CoverageAdequate     CoverageRating = "ADEQUATE"
	CoverageMarginal     CoverageRating = "MARGINAL"
	CoverageInsufficient CoverageRating = "INSUFFICIENT"
)

// CoverageRatio is pledged or available revenue measured against debt service.
type CoverageRatio struct {
	Source           string          `json:"source" yaml:"source"`
	Revenue          decimal.Decimal `json:"revenue" yaml:"revenue"`
	DebtService      decimal.Decimal `json:"debt_service" yaml:"debt_service"`
	Ratio            float64         `json:"ratio" yaml:"ratio"`
	Rating           CoverageRating  `json:"rating" yaml:"rating"`
	MinRequired      float64         `json:"min_required" yaml:"min_required"`
	MeetsRequirement bool            `json:"meets_requirement" yaml:"meets_requirement"`
}

// IndicatorRating grades a debt stress indicator.
type IndicatorRating string

const (
	IndicatorGood    IndicatorRating = "GOOD"
	IndicatorCaution IndicatorRating = "CAUTION"
	IndicatorWarning IndicatorRating = "WARNING"
)

// StressIndicator is one measured debt burden metric with its rating.
type StressIndicator struct {
	Name   string          `json:"name" yaml:"name"`
	Value  decimal.Decimal `json:"value" yaml:"value"`
	Rating IndicatorRating `json:"rating" yaml:"rating"`
}

// DebtCapacityReport aggregates the municipality's debt position.
type DebtCapacityReport struct {
	ID                     string            `json:"id" yaml:"id"`
	GeneratedAt            time.Time         `json:"generated_at" yaml:"generated_at"`
	AsOf                   time.Time         `json:"as_of" yaml:"as_of"`
	OutstandingPrincipal   decimal.Decimal   `json:"outstanding_principal" yaml:"outstanding_principal"`
	CurrentYearDebtService decimal.Decimal   `json:"current_year_debt_service" yaml:"current_year_debt_service"`
	CoverageRatios         []CoverageRatio   `json:"coverage_ratios" yaml:"coverage_ratios"`
	PerCapitaDebt          decimal.Decimal   `json:"per_capita_debt" yaml:"per_capita_debt"`
	DebtToAssessedValue    float64           `json:"debt_to_assessed_value" yaml:"debt_to_assessed_value"`
	Indicators             []StressIndicator `json:"indicators" yaml:"indicators"`
}
