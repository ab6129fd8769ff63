package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/models"
)

const refundingDoc = `
type: refunding
name: Refund 2015 Water Bonds
new_rate: 0.03
new_term_years: 9
new_payment_frequency: ANNUAL
escrow_yield: 0.02
issuance_cost_rate: 0.015
instrument:
  id: water-2015
  name: Water Revenue Bonds 2015
  fund_id: water
  principal: "5,000,000"
  annual_rate: 0.06
  term_years: 20
  amortization_type: LEVEL_DEBT_SERVICE
  payment_frequency: ANNUAL
  issue_date: 2015-07-01
  first_payment_date: 2016-07-01
  call_date: 2025-07-01
  call_premium_rate: 0.01
  pledged_fund_id: water
  min_coverage_ratio: 1.25
`

func TestParseDebtScenarioRefunding(t *testing.T) {
	scenario, err := ParseDebtScenario([]byte(refundingDoc))
	require.NoError(t, err)

	refunding, ok := scenario.(models.RefundingScenario)
	require.True(t, ok)
	assert.Equal(t, "Refund 2015 Water Bonds", refunding.ScenarioName())
	assert.InDelta(t, 0.03, refunding.NewRate, 1e-12)
	assert.Equal(t, 9, refunding.NewTermYears)
	assert.Equal(t, models.FrequencyAnnual, refunding.NewPaymentFrequency)
	assert.InDelta(t, 0.02, refunding.EscrowYield, 1e-12)

	inst := refunding.Instrument
	assert.Equal(t, "water-2015", inst.ID)
	assert.Equal(t, "5000000", inst.Principal.String())
	assert.Equal(t, models.AmortizationLevelDebtService, inst.AmortizationType)
	require.NotNil(t, inst.CallDate)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *inst.CallDate)
	assert.InDelta(t, 1.25, inst.MinCoverageRatio, 1e-12)
}

func TestParseDebtScenarioNewIssuanceDefaultsReserve(t *testing.T) {
	doc := `
type: new_issuance
name: Fire Station Bonds
principal: 2500000
annual_rate: 0.045
term_years: 20
payment_frequency: SEMIANNUAL
amortization_type: LEVEL_DEBT_SERVICE
issuance_cost_rate: 0.02
flat_issuance_cost: 10000
`
	scenario, err := ParseDebtScenario([]byte(doc))
	require.NoError(t, err)

	issuance, ok := scenario.(models.NewIssuanceScenario)
	require.True(t, ok)
	assert.Equal(t, "2500000", issuance.Principal.String())
	assert.Equal(t, models.ReserveNone, issuance.ReserveKind)
	assert.Equal(t, "10000", issuance.FlatIssuanceCost.String())
}

func TestParseDebtScenarioCombined(t *testing.T) {
	doc := `
type: combined
name: Restructure
issuance:
  name: New Money
  principal: 1000000
  annual_rate: 0.04
  term_years: 10
  payment_frequency: ANNUAL
  amortization_type: LEVEL_DEBT_SERVICE
payoff:
  name: Retire Equipment Note
  payoff_date: 2027-01-01
  instrument:
    id: note-1
    principal: 200000
    annual_rate: 0.05
    term_years: 5
    amortization_type: LEVEL_PRINCIPAL
    payment_frequency: ANNUAL
    issue_date: 2025-01-01
    first_payment_date: 2026-01-01
`
	scenario, err := ParseDebtScenario([]byte(doc))
	require.NoError(t, err)

	combined, ok := scenario.(models.CombinedScenario)
	require.True(t, ok)
	require.NotNil(t, combined.Issuance)
	require.NotNil(t, combined.Payoff)
	assert.Nil(t, combined.Refunding)
	assert.Equal(t, "1000000", combined.Issuance.Principal.String())
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), combined.Payoff.PayoffDate)
}

func TestParseDebtScenarioUnknownTag(t *testing.T) {
	_, err := ParseDebtScenario([]byte("type: swap\nname: Rate Swap\n"))
	require.Error(t, err)

	var unknownErr *calcerror.UnknownModelError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "debt scenario", unknownErr.Kind)
	assert.Equal(t, "swap", unknownErr.Tag)
}

func TestParseDebtScenarioPayoffRequiresInstrument(t *testing.T) {
	doc := `
type: early_payoff
name: Missing Instrument
payoff_date: 2027-01-01
`
	_, err := ParseDebtScenario([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instrument is required")
}
