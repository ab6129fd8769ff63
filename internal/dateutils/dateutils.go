// Package dateutils provides common date and fiscal-period operations used
// throughout the application.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO   = "2006-01-02"
	DateLayoutUS    = "01/02/2006"
	DateLayoutFull  = "2006-01-02 15:04:05"
	DateLayoutMonth = "2006-01"
)

// CommonFormats is a list of standard formats to try when parsing dates
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutUS,
	DateLayoutFull,
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate attempts to parse a date string using multiple common formats.
// Returns the parsed time and the detected format.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = strings.TrimSpace(dateStr)

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// StartOfMonth returns the first day of the month for a given date
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth returns the last day of the month for a given date
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, -1)
}

// PeriodStart returns the first day of forecast period index, where periods
// are monthsPerPeriod months long starting at start.
func PeriodStart(start time.Time, monthsPerPeriod, index int) time.Time {
	return StartOfMonth(start).AddDate(0, monthsPerPeriod*index, 0)
}

// PeriodEnd returns the last day of forecast period index.
func PeriodEnd(start time.Time, monthsPerPeriod, index int) time.Time {
	return EndOfMonth(PeriodStart(start, monthsPerPeriod, index).AddDate(0, monthsPerPeriod-1, 0))
}

// YearsElapsed returns elapsed time at the start of period index, in years.
// This is the exponent base for growth compounding.
func YearsElapsed(index, periodsPerYear int) float64 {
	return float64(index) / float64(periodsPerYear)
}

// YearIndex returns the zero-based forecast year a period falls in.
func YearIndex(index, periodsPerYear int) int {
	return index / periodsPerYear
}

// PeriodLabel returns a human-readable label for a forecast period:
// "FY2026" for annual, "2026-Q2" for quarterly, "2026-03" for monthly.
func PeriodLabel(start time.Time, periodsPerYear, index int) string {
	switch periodsPerYear {
	case 1:
		return fmt.Sprintf("FY%d", PeriodStart(start, 12, index).Year())
	case 4:
		s := PeriodStart(start, 3, index)
		quarter := (int(s.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", s.Year(), quarter)
	default:
		return PeriodStart(start, 1, index).Format(DateLayoutMonth)
	}
}

// MonthsBetween returns the number of whole months from a to b.
// Returns a negative count when b precedes a.
func MonthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	return months
}

// YearFractionBetween returns the ACT/365 year fraction from a to b.
// Used for accrued interest between scheduled payment dates.
func YearFractionBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24.0 / 365.0
}
