package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFunds(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "funds.csv",
		"id,code,name,fund_type,current_balance,beginning_balance\n"+
			"general,100,General Fund,GENERAL,\"1,250,000.50\",1000000.00\n"+
			"water,200,Water Fund,ENTERPRISE,(500.00),0\n")

	ledger := New(path, "", "", nil)
	funds, err := ledger.LoadFunds()
	require.NoError(t, err)
	require.Len(t, funds, 2)

	assert.Equal(t, "general", funds[0].ID)
	assert.Equal(t, models.FundTypeGeneral, funds[0].FundType)
	assert.True(t, funds[0].CurrentBalance.Equal(decimal.NewFromFloat(1250000.50)))

	// Accounting-style negative.
	assert.True(t, funds[1].CurrentBalance.Equal(decimal.NewFromInt(-500)))
}

func TestLoadFundsRejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "funds.csv",
		"id,code,name,fund_type,current_balance,beginning_balance\n"+
			"general,100,General Fund,SLUSH,100,100\n")

	ledger := New(path, "", "", nil)
	_, err := ledger.LoadFunds()
	require.Error(t, err)

	var rerr *calcerror.RowError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 1, rerr.Row)
	assert.Equal(t, "fund_type", rerr.Field)
	assert.Equal(t, "SLUSH", rerr.Value)
}

func TestLoadTransactions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "transactions.csv",
		"id,date,type,amount,fund_id,description,void\n"+
			"t1,2026-01-15,REVENUE,$5000.00,general,Permit fees,\n"+
			"t2,2026-02-01,EXPENSE,1200.25,general,Fleet fuel,true\n")

	ledger := New("", path, "", nil)
	transactions, err := ledger.LoadTransactions()
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), transactions[0].Date)
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(5000)))
	assert.False(t, transactions[0].Void)
	assert.True(t, transactions[1].Void)
	assert.True(t, transactions[1].SignedAmount().IsZero(), "void transactions carry no balance effect")
}

func TestLoadTransactionsReportsBadRow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "transactions.csv",
		"id,date,type,amount,fund_id,description,void\n"+
			"t1,2026-01-15,REVENUE,100,general,ok,\n"+
			"t2,not-a-date,EXPENSE,50,general,bad,\n")

	ledger := New("", path, "", nil)
	_, err := ledger.LoadTransactions()
	require.Error(t, err)

	var rerr *calcerror.RowError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 2, rerr.Row)
	assert.Equal(t, "date", rerr.Field)
}

func TestLoadInstruments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "instruments.csv",
		"id,name,fund_id,principal,annual_rate,term_years,amortization_type,payment_frequency,issue_date,first_payment_date,call_date,call_premium_rate,pledged_fund_id,min_coverage_ratio\n"+
			"b1,Series 2026,debt-service,1000000,0.04,20,LEVEL_DEBT_SERVICE,ANNUAL,2026-07-01,2027-01-01,2036-01-01,0.01,water,1.25\n"+
			"b2,Equipment Note,general,50000,0.05,5,LEVEL_PRINCIPAL,MONTHLY,2026-01-01,2026-02-01,,,,\n")

	ledger := New("", "", path, nil)
	instruments, err := ledger.LoadInstruments()
	require.NoError(t, err)
	require.Len(t, instruments, 2)

	bond := instruments[0]
	assert.True(t, bond.Principal.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, 0.04, bond.AnnualRate)
	assert.Equal(t, 20, bond.TermYears)
	require.NotNil(t, bond.CallDate)
	assert.Equal(t, time.Date(2036, 1, 1, 0, 0, 0, 0, time.UTC), *bond.CallDate)
	assert.Equal(t, 0.01, bond.CallPremiumRate)
	assert.Equal(t, "water", bond.PledgedFundID)
	assert.Equal(t, 1.25, bond.MinCoverageRatio)

	note := instruments[1]
	assert.Nil(t, note.CallDate)
	assert.Equal(t, models.FrequencyMonthly, note.PaymentFrequency)
	assert.Equal(t, 60, note.TotalPeriods())
}

func TestLoadState(t *testing.T) {
	dir := t.TempDir()
	funds := writeFile(t, dir, "funds.csv",
		"id,code,name,fund_type,current_balance,beginning_balance\n"+
			"general,100,General Fund,GENERAL,80000,50000\n")
	transactions := writeFile(t, dir, "transactions.csv",
		"id,date,type,amount,fund_id,description,void\n"+
			"t1,2026-03-01,REVENUE,40000,general,Levy,\n"+
			"t2,2026-09-01,EXPENSE,10000,general,Late posting,\n")

	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	ledger := New(funds, transactions, "", nil)
	state, err := ledger.LoadState(asOf)
	require.NoError(t, err)

	assert.Equal(t, asOf, state.AsOf)
	require.Len(t, state.Funds, 1)
	require.Len(t, state.Transactions, 2)
	assert.Empty(t, state.Instruments)

	// Balance derivation honors the as-of cutoff: the September expense is
	// excluded.
	balance, err := state.StartingBalance("general")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(90000)), "got %s", balance)
}

func TestMissingFileIsAnError(t *testing.T) {
	ledger := New("/nonexistent/funds.csv", "", "", nil)
	_, err := ledger.LoadFunds()
	require.Error(t, err)
}
