// Package debtservice builds fund-scoped, horizon-clipped debt service
// schedules from debt instrument records and aggregates them for the
// forecast projector.
package debtservice

import (
	"time"

	"github.com/shopspring/decimal"

	"openmuni/fiscalcast/internal/amortization"
	"openmuni/fiscalcast/internal/calcerror"
	"openmuni/fiscalcast/internal/dateutils"
	"openmuni/fiscalcast/internal/models"
)

// FullSchedule generates the instrument's complete payment schedule from its
// first payment to maturity.
func FullSchedule(inst models.DebtInstrument) (models.DebtServiceSchedule, error) {
	return ForHorizon(inst, inst.TotalPeriods(), 0)
}

// ForHorizon returns the instrument's schedule clipped to payment periods
// [startPeriod, startPeriod+horizonPeriods). When the clip starts
// mid-amortization the remaining principal is reconstructed with the
// amortization-type-specific closed form rather than replaying the skipped
// periods. A term entirely outside the horizon yields an empty schedule,
// not an error.
func ForHorizon(inst models.DebtInstrument, horizonPeriods, startPeriod int) (models.DebtServiceSchedule, error) {
	if horizonPeriods < 0 || startPeriod < 0 {
		return models.DebtServiceSchedule{}, &calcerror.ScheduleError{
			Instrument: inst.Name,
			Reason:     "horizon and start period must not be negative",
		}
	}

	schedule := models.DebtServiceSchedule{
		InstrumentID:   inst.ID,
		InstrumentName: inst.Name,
		FundID:         inst.FundID,
		TotalPrincipal: decimal.Zero,
		TotalInterest:  decimal.Zero,
		TotalPayment:   decimal.Zero,
	}

	total := inst.TotalPeriods()
	if startPeriod >= total || horizonPeriods == 0 {
		schedule.Entries = []models.AmortizationEntry{}
		return schedule, nil
	}

	in := amortization.Input{
		Principal:      inst.Principal,
		PeriodicRate:   inst.PeriodicRate(),
		TotalPeriods:   total,
		Type:           inst.AmortizationType,
		CustomPayments: inst.CustomPayments,
	}

	entries, err := resumeFrom(in, startPeriod)
	if err != nil {
		return models.DebtServiceSchedule{}, &calcerror.ScheduleError{
			Instrument: inst.Name,
			Reason:     "schedule generation failed",
			Err:        err,
		}
	}

	if horizonPeriods < len(entries) {
		entries = entries[:horizonPeriods]
	}

	// Renumber to absolute instrument periods.
	for i := range entries {
		entries[i].Period = startPeriod + i
		schedule.TotalPrincipal = schedule.TotalPrincipal.Add(entries[i].Principal)
		schedule.TotalInterest = schedule.TotalInterest.Add(entries[i].Interest)
		schedule.TotalPayment = schedule.TotalPayment.Add(entries[i].Payment)
	}
	schedule.Entries = entries

	return schedule, nil
}

// resumeFrom generates the schedule for periods startPeriod onward. The
// remaining principal at startPeriod comes from the closed form, then the
// remaining term amortizes from that balance; for every supported type the
// resumed schedule matches the tail of the full schedule.
func resumeFrom(in amortization.Input, startPeriod int) ([]models.AmortizationEntry, error) {
	if startPeriod == 0 {
		return amortization.Schedule(in)
	}

	remaining, err := amortization.RemainingBalance(in, startPeriod)
	if err != nil {
		return nil, err
	}

	resumed := amortization.Input{
		Principal:    remaining,
		PeriodicRate: in.PeriodicRate,
		TotalPeriods: in.TotalPeriods - startPeriod,
		Type:         in.Type,
	}
	if in.Type == models.AmortizationCustom {
		if startPeriod < len(in.CustomPayments) {
			resumed.CustomPayments = in.CustomPayments[startPeriod:]
		}
	}

	return amortization.Schedule(resumed)
}

// AnnualByFund aggregates annual debt service per fund over the forecast
// horizon. The returned slices are indexed by forecast year (year 0 starts
// at start); payments dated before start or beyond the horizon are excluded.
func AnnualByFund(instruments []models.DebtInstrument, start time.Time, horizonYears int) (map[string][]decimal.Decimal, error) {
	totals := make(map[string][]decimal.Decimal)

	for _, inst := range instruments {
		annual, err := AnnualForInstrument(inst, start, horizonYears)
		if err != nil {
			return nil, err
		}

		bucket, ok := totals[inst.FundID]
		if !ok {
			bucket = zeroYears(horizonYears)
			totals[inst.FundID] = bucket
		}
		for year, amount := range annual {
			bucket[year] = bucket[year].Add(amount)
		}
	}

	return totals, nil
}

// AnnualForFund returns the per-year debt service for one fund's instruments.
func AnnualForFund(instruments []models.DebtInstrument, fundID string, start time.Time, horizonYears int) ([]decimal.Decimal, error) {
	byFund, err := AnnualByFund(instruments, start, horizonYears)
	if err != nil {
		return nil, err
	}
	if annual, ok := byFund[fundID]; ok {
		return annual, nil
	}
	return zeroYears(horizonYears), nil
}

// AnnualForInstrument buckets one instrument's payments into forecast years.
func AnnualForInstrument(inst models.DebtInstrument, start time.Time, horizonYears int) ([]decimal.Decimal, error) {
	annual := zeroYears(horizonYears)

	if inst.MaturityDate().Before(start) {
		return annual, nil
	}

	// Resume mid-amortization when payments began before the horizon.
	startPeriod := 0
	if inst.FirstPaymentDate.Before(start) {
		monthsPerPayment := 12 / inst.PaymentFrequency.PaymentsPerYear()
		startPeriod = dateutils.MonthsBetween(inst.FirstPaymentDate, start) / monthsPerPayment
		if inst.PaymentDate(startPeriod).Before(start) {
			startPeriod++
		}
	}

	schedule, err := ForHorizon(inst, inst.TotalPeriods()-startPeriod, startPeriod)
	if err != nil {
		return nil, err
	}

	for _, entry := range schedule.Entries {
		payDate := inst.PaymentDate(entry.Period)
		year := dateutils.MonthsBetween(start, payDate) / 12
		if year < 0 || year >= horizonYears {
			continue
		}
		annual[year] = annual[year].Add(entry.Payment)
	}

	return annual, nil
}

func zeroYears(horizonYears int) []decimal.Decimal {
	years := make([]decimal.Decimal, horizonYears)
	for i := range years {
		years[i] = decimal.Zero
	}
	return years
}
