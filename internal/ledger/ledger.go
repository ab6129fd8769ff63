// Package ledger ingests the caller's financial data from CSV files: funds,
// posted transactions and debt instruments. Rows are read through gocsv into
// string-typed row structs and converted to engine models one at a time, so a
// bad amount or date is reported with its file and row instead of failing the
// whole load opaquely.
package ledger

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/dateutils"
	"openmuni/fiscalcast/internal/forecast"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/moneyutils"
)

// Ledger locates the CSV files a forecast starts from.
type Ledger struct {
	FundsFile        string
	TransactionsFile string
	InstrumentsFile  string

	log logging.Logger
}

// New creates a ledger over the given files. Any path may be empty; the
// corresponding Load call then returns an empty slice.
func New(fundsFile, transactionsFile, instrumentsFile string, log logging.Logger) *Ledger {
	return &Ledger{
		FundsFile:        fundsFile,
		TransactionsFile: transactionsFile,
		InstrumentsFile:  instrumentsFile,
		log:              logging.OrNop(log),
	}
}

// LoadState reads every configured file and assembles the starting state for
// a forecast run.
func (l *Ledger) LoadState(asOf time.Time) (forecast.CurrentState, error) {
	funds, err := l.LoadFunds()
	if err != nil {
		return forecast.CurrentState{}, err
	}
	transactions, err := l.LoadTransactions()
	if err != nil {
		return forecast.CurrentState{}, err
	}
	instruments, err := l.LoadInstruments()
	if err != nil {
		return forecast.CurrentState{}, err
	}

	return forecast.CurrentState{
		Funds:        funds,
		Transactions: transactions,
		Instruments:  instruments,
		AsOf:         asOf,
	}, nil
}

type fundRow struct {
	ID               string `csv:"id"`
	Code             string `csv:"code"`
	Name             string `csv:"name"`
	FundType         string `csv:"fund_type"`
	CurrentBalance   string `csv:"current_balance"`
	BeginningBalance string `csv:"beginning_balance"`
}

type transactionRow struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Type        string `csv:"type"`
	Amount      string `csv:"amount"`
	FundID      string `csv:"fund_id"`
	Description string `csv:"description"`
	Void        string `csv:"void"`
}

type instrumentRow struct {
	ID               string `csv:"id"`
	Name             string `csv:"name"`
	FundID           string `csv:"fund_id"`
	Principal        string `csv:"principal"`
	AnnualRate       string `csv:"annual_rate"`
	TermYears        string `csv:"term_years"`
	AmortizationType string `csv:"amortization_type"`
	PaymentFrequency string `csv:"payment_frequency"`
	IssueDate        string `csv:"issue_date"`
	FirstPaymentDate string `csv:"first_payment_date"`
	CallDate         string `csv:"call_date"`
	CallPremiumRate  string `csv:"call_premium_rate"`
	PledgedFundID    string `csv:"pledged_fund_id"`
	MinCoverageRatio string `csv:"min_coverage_ratio"`
}

// LoadFunds reads the funds file into engine models.
func (l *Ledger) LoadFunds() ([]models.Fund, error) {
	rows, err := readCSV[fundRow](l.FundsFile, l.log)
	if err != nil || rows == nil {
		return nil, err
	}

	funds := make([]models.Fund, 0, len(rows))
	for i, row := range rows {
		fund, err := row.toModel()
		if err != nil {
			return nil, rowError(l.FundsFile, i, err)
		}
		funds = append(funds, fund)
	}
	return funds, nil
}

func (r fundRow) toModel() (models.Fund, error) {
	fundType := models.FundType(r.FundType)
	if !fundType.IsValid() {
		return models.Fund{}, &calcerror.RowError{
			Field: "fund_type", Value: r.FundType,
			Err: fmt.Errorf("unrecognized fund type"),
		}
	}
	current, err := moneyutils.ParseAmount(r.CurrentBalance)
	if err != nil {
		return models.Fund{}, &calcerror.RowError{Field: "current_balance", Value: r.CurrentBalance, Err: err}
	}
	beginning, err := moneyutils.ParseAmount(r.BeginningBalance)
	if err != nil {
		return models.Fund{}, &calcerror.RowError{Field: "beginning_balance", Value: r.BeginningBalance, Err: err}
	}

	return models.Fund{
		ID:               r.ID,
		Code:             r.Code,
		Name:             r.Name,
		FundType:         fundType,
		CurrentBalance:   current,
		BeginningBalance: beginning,
	}, nil
}

// LoadTransactions reads the transactions file into engine models.
func (l *Ledger) LoadTransactions() ([]models.Transaction, error) {
	rows, err := readCSV[transactionRow](l.TransactionsFile, l.log)
	if err != nil || rows == nil {
		return nil, err
	}

	transactions := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		txn, err := row.toModel()
		if err != nil {
			return nil, rowError(l.TransactionsFile, i, err)
		}
		transactions = append(transactions, txn)
	}
	return transactions, nil
}

func (r transactionRow) toModel() (models.Transaction, error) {
	txnType := models.TransactionType(r.Type)
	if !txnType.IsValid() {
		return models.Transaction{}, &calcerror.RowError{
			Field: "type", Value: r.Type,
			Err: fmt.Errorf("unrecognized transaction type"),
		}
	}
	date, _, err := dateutils.ParseDate(r.Date)
	if err != nil {
		return models.Transaction{}, &calcerror.RowError{Field: "date", Value: r.Date, Err: err}
	}
	amount, err := moneyutils.ParseAmount(r.Amount)
	if err != nil {
		return models.Transaction{}, &calcerror.RowError{Field: "amount", Value: r.Amount, Err: err}
	}
	void := false
	if r.Void != "" {
		void, err = strconv.ParseBool(r.Void)
		if err != nil {
			return models.Transaction{}, &calcerror.RowError{Field: "void", Value: r.Void, Err: err}
		}
	}

	return models.Transaction{
		ID:          r.ID,
		Date:        date,
		Type:        txnType,
		Amount:      amount,
		FundID:      r.FundID,
		Description: r.Description,
		Void:        void,
	}, nil
}

// LoadInstruments reads the debt instruments file into engine models.
func (l *Ledger) LoadInstruments() ([]models.DebtInstrument, error) {
	rows, err := readCSV[instrumentRow](l.InstrumentsFile, l.log)
	if err != nil || rows == nil {
		return nil, err
	}

	instruments := make([]models.DebtInstrument, 0, len(rows))
	for i, row := range rows {
		inst, err := row.toModel()
		if err != nil {
			return nil, rowError(l.InstrumentsFile, i, err)
		}
		instruments = append(instruments, inst)
	}
	return instruments, nil
}

func (r instrumentRow) toModel() (models.DebtInstrument, error) {
	amortType := models.AmortizationType(r.AmortizationType)
	if !amortType.IsValid() {
		return models.DebtInstrument{}, &calcerror.RowError{
			Field: "amortization_type", Value: r.AmortizationType,
			Err: fmt.Errorf("unrecognized amortization type"),
		}
	}
	frequency := models.PaymentFrequency(r.PaymentFrequency)
	if !frequency.IsValid() {
		return models.DebtInstrument{}, &calcerror.RowError{
			Field: "payment_frequency", Value: r.PaymentFrequency,
			Err: fmt.Errorf("unrecognized payment frequency"),
		}
	}

	principal, err := moneyutils.ParseAmount(r.Principal)
	if err != nil {
		return models.DebtInstrument{}, &calcerror.RowError{Field: "principal", Value: r.Principal, Err: err}
	}
	rate, err := parseFloat(r.AnnualRate, "annual_rate")
	if err != nil {
		return models.DebtInstrument{}, err
	}
	termYears, err := strconv.Atoi(r.TermYears)
	if err != nil {
		return models.DebtInstrument{}, &calcerror.RowError{Field: "term_years", Value: r.TermYears, Err: err}
	}
	issueDate, _, err := dateutils.ParseDate(r.IssueDate)
	if err != nil {
		return models.DebtInstrument{}, &calcerror.RowError{Field: "issue_date", Value: r.IssueDate, Err: err}
	}
	firstPayment, _, err := dateutils.ParseDate(r.FirstPaymentDate)
	if err != nil {
		return models.DebtInstrument{}, &calcerror.RowError{Field: "first_payment_date", Value: r.FirstPaymentDate, Err: err}
	}

	inst := models.DebtInstrument{
		ID:               r.ID,
		Name:             r.Name,
		FundID:           r.FundID,
		Principal:        principal,
		AnnualRate:       rate,
		TermYears:        termYears,
		AmortizationType: amortType,
		PaymentFrequency: frequency,
		IssueDate:        issueDate,
		FirstPaymentDate: firstPayment,
		PledgedFundID:    r.PledgedFundID,
	}

	if r.CallDate != "" {
		callDate, _, err := dateutils.ParseDate(r.CallDate)
		if err != nil {
			return models.DebtInstrument{}, &calcerror.RowError{Field: "call_date", Value: r.CallDate, Err: err}
		}
		inst.CallDate = &callDate
	}
	if r.CallPremiumRate != "" {
		inst.CallPremiumRate, err = parseFloat(r.CallPremiumRate, "call_premium_rate")
		if err != nil {
			return models.DebtInstrument{}, err
		}
	}
	if r.MinCoverageRatio != "" {
		inst.MinCoverageRatio, err = parseFloat(r.MinCoverageRatio, "min_coverage_ratio")
		if err != nil {
			return models.DebtInstrument{}, err
		}
	}

	return inst, nil
}

func parseFloat(value, field string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &calcerror.RowError{Field: field, Value: value, Err: err}
	}
	return f, nil
}

// readCSV reads a CSV file into a slice of row structs using gocsv. An empty
// path yields a nil slice without error.
func readCSV[TRow any](path string, log logging.Logger) ([]TRow, error) {
	if path == "" {
		return nil, nil
	}

	log.Info("reading CSV file", logging.Field{Key: logging.FieldInputFile, Value: path})

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn("failed to close file", logging.Field{Key: logging.FieldError, Value: err})
		}
	}()

	var rows []TRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file %s: %w", path, err)
	}

	log.Info("read CSV data",
		logging.Field{Key: logging.FieldInputFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(rows)},
	)
	return rows, nil
}

// rowError stamps a conversion error with its file and 1-based row number.
func rowError(file string, index int, err error) error {
	if rerr, ok := err.(*calcerror.RowError); ok {
		rerr.File = file
		rerr.Row = index + 1
		return rerr
	}
	return fmt.Errorf("%s row %d: %w", file, index+1, err)
}
