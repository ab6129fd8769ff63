// Package moneyutils provides common monetary operations used throughout the
// application. All amounts are shopspring decimals; rounding to currency
// precision happens in exactly one place (Round) so every aggregation boundary
// applies the same rule.
package moneyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places for currency amounts.
const CurrencyPlaces int32 = 2

// Round rounds an amount to currency precision using round-half-up
// (half away from zero). This is the only rounding rule in the engine.
// Apply it at aggregation boundaries, not after every intermediate operation.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(CurrencyPlaces)
}

// RoundFloat converts a float64 to a decimal rounded to currency precision.
// Use it at the boundary where transcendental math (powers, solver iterates)
// returns to decimal amounts.
func RoundFloat(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(CurrencyPlaces)
}

// ParseAmount parses a string representation of an amount into a decimal
// value. It handles formats like "1,234.56", "1234.56" and "$1,234.56".
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if amountStr == "" {
		return decimal.Zero, nil
	}

	standardized := StandardizeAmount(amountStr)

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

var currencyChars = regexp.MustCompile(`[$€£\s]`)

// StandardizeAmount strips currency symbols, whitespace and thousands
// separators so the result can be parsed by decimal.NewFromString.
// Handles patterns like "$1,234.56", "1 234.56" and "(500.00)" for negatives.
func StandardizeAmount(amountStr string) string {
	amountStr = strings.TrimSpace(amountStr)

	// Accounting-style negatives: (500.00) -> -500.00
	if strings.HasPrefix(amountStr, "(") && strings.HasSuffix(amountStr, ")") {
		amountStr = "-" + amountStr[1:len(amountStr)-1]
	}

	amountStr = currencyChars.ReplaceAllString(amountStr, "")
	amountStr = strings.ReplaceAll(amountStr, ",", "")

	return amountStr
}

// FormatAmount formats a decimal amount for display with two decimal places
// and a leading dollar sign, e.g. "$1234.56" or "-$500.00".
func FormatAmount(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Abs().StringFixed(CurrencyPlaces)
	}
	return "$" + amount.StringFixed(CurrencyPlaces)
}

// FormatPercent formats a fractional rate for display, e.g. 0.04 -> "4.00%".
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// PercentChange returns (current - base) / base as a percentage, or zero when
// base is zero.
func PercentChange(base, current decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return current.Sub(base).Div(base).Mul(decimal.NewFromInt(100))
}

// Sum adds a slice of decimal amounts.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
