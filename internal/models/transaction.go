package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the direction of a fund transaction.
type TransactionType string

const (
	TransactionTypeRevenue TransactionType = "REVENUE"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// IsValid reports whether the transaction type is recognized.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeRevenue || t == TransactionTypeExpense
}

// Transaction represents a single posted fund transaction. The engine treats
// transactions as a read-only history used to derive as-of balances.
type Transaction struct {
	ID          string          `json:"id" yaml:"id"`
	Date        time.Time       `json:"date" yaml:"date"`
	Type        TransactionType `json:"type" yaml:"type"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	FundID      string          `json:"fund_id" yaml:"fund_id"`
	Description string          `json:"description" yaml:"description"`
	Void        bool            `json:"void" yaml:"void"`
}

// SignedAmount returns the transaction's effect on fund balance: positive for
// revenue, negative for expense, zero when voided.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Void {
		return decimal.Zero
	}
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
