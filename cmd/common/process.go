// Package common contains shared functionality for command handlers
package common

import (
	"strconv"
	"strings"
	"time"

	"openmuni/fiscalcast/internal/dateutils"
	"openmuni/fiscalcast/internal/forecast"
	"openmuni/fiscalcast/internal/ledger"
	"openmuni/fiscalcast/internal/logging"
	"openmuni/fiscalcast/internal/models"
	"openmuni/fiscalcast/internal/report"
	"openmuni/fiscalcast/internal/scenario"
	"openmuni/fiscalcast/internal/validation"
)

// ResolveAsOf parses the --as-of flag, defaulting to today when unset.
func ResolveAsOf(value string, log logging.Logger) time.Time {
	if value == "" {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	asOf, _, err := dateutils.ParseDate(value)
	if err != nil {
		log.Fatalf("Invalid --as-of date: %v", err)
	}
	return asOf
}

// LoadState reads the ledger CSV files into the current financial state.
func LoadState(funds, transactions, instruments string, asOf time.Time, log logging.Logger) forecast.CurrentState {
	if funds == "" {
		log.Fatal("A funds ledger file is required (--funds or data.funds_file)")
	}
	for _, path := range []string{funds, transactions, instruments} {
		if path == "" {
			continue
		}
		if err := validation.IsValidInputFile(path); err != nil {
			log.Fatalf("Invalid ledger file: %v", err)
		}
	}
	state, err := ledger.New(funds, transactions, instruments, log).LoadState(asOf)
	if err != nil {
		log.Fatalf("Error loading ledger: %v", err)
	}
	return state
}

// LoadForecastScenario reads a forecast scenario document from disk.
func LoadForecastScenario(path string, log logging.Logger) models.ForecastScenario {
	if path == "" {
		log.Fatal("A scenario file is required (--scenario)")
	}
	if err := validation.IsValidInputFile(path); err != nil {
		log.Fatalf("Invalid scenario file: %v", err)
	}
	s, err := scenario.LoadForecastScenario(path)
	if err != nil {
		log.Fatalf("Error loading scenario: %v", err)
	}
	return s
}

// LoadDebtScenario reads a debt scenario document from disk.
func LoadDebtScenario(path string, log logging.Logger) models.DebtScenario {
	if path == "" {
		log.Fatal("A scenario file is required (--scenario)")
	}
	if err := validation.IsValidInputFile(path); err != nil {
		log.Fatalf("Invalid scenario file: %v", err)
	}
	s, err := scenario.LoadDebtScenario(path)
	if err != nil {
		log.Fatalf("Error loading scenario: %v", err)
	}
	return s
}

// WriteReport writes rendered output to the requested destination.
func WriteReport(w *report.Writer, output string, data []byte, log logging.Logger) {
	if err := w.WriteFile(output, data); err != nil {
		log.Fatalf("Error writing report: %v", err)
	}
}

// ParseFloatList parses a comma-separated list of numbers, e.g. "0.01,0.03".
func ParseFloatList(values string) ([]float64, error) {
	parts := strings.Split(values, ",")
	parsed := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, f)
	}
	return parsed, nil
}
