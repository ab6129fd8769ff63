// Package models defines the value objects shared by the forecasting and
// debt analysis engines: funds, transactions, debt instruments, scenarios
// and the result shapes each calculation produces. All entities are plain
// data; the engines never mutate caller-owned values.
package models

import (
	"github.com/shopspring/decimal"
)

// FundType identifies the governmental accounting classification of a fund.
type FundType string

const (
	// FundTypeGeneral is the municipality's primary operating fund.
	FundTypeGeneral FundType = "GENERAL"
	// FundTypeSpecialRevenue tracks revenue restricted to a specific purpose.
	FundTypeSpecialRevenue FundType = "SPECIAL_REVENUE"
	// FundTypeDebtService accumulates resources for principal and interest payments.
	FundTypeDebtService FundType = "DEBT_SERVICE"
	// FundTypeCapitalProjects tracks major acquisition and construction spending.
	FundTypeCapitalProjects FundType = "CAPITAL_PROJECTS"
	// FundTypeEnterprise covers business-type activities funded by user charges.
	FundTypeEnterprise FundType = "ENTERPRISE"
)

// IsValid reports whether the fund type is a recognized classification.
func (t FundType) IsValid() bool {
	switch t {
	case FundTypeGeneral, FundTypeSpecialRevenue, FundTypeDebtService,
		FundTypeCapitalProjects, FundTypeEnterprise:
		return true
	}
	return false
}

// Fund represents a municipal fund as supplied by the caller's data source.
type Fund struct {
	ID               string          `json:"id" yaml:"id"`
	Code             string          `json:"code" yaml:"code"`
	Name             string          `json:"name" yaml:"name"`
	FundType         FundType        `json:"fund_type" yaml:"fund_type"`
	CurrentBalance   decimal.Decimal `json:"current_balance" yaml:"current_balance"`
	BeginningBalance decimal.Decimal `json:"beginning_balance" yaml:"beginning_balance"`
}
