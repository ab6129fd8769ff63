package debtscenario

import (
	"math"

	"openmuni/fiscalcast/internal/calcerror"
)

// Newton-Raphson parameters for the true interest cost solver.
const (
	ticInitialGuess  = 0.05
	ticTolerance     = 1e-7
	ticMaxIterations = 100
)

// solveTIC finds the periodic discount rate at which the present value of the
// payment stream equals the issue's net proceeds. payments[t] falls due at the
// end of period t+1. Non-convergence within the iteration budget is a tagged
// error; the last iterate is reported for diagnostics but never returned as
// the answer.
func solveTIC(netProceeds float64, payments []float64, guess float64) (float64, int, error) {
	if netProceeds <= 0 || len(payments) == 0 {
		return 0, 0, &calcerror.ConvergenceError{
			Solver:     "true interest cost",
			Iterations: 0,
		}
	}

	rate := guess
	for iteration := 1; iteration <= ticMaxIterations; iteration++ {
		value := netProceeds
		derivative := 0.0
		for t, payment := range payments {
			periods := float64(t + 1)
			discount := math.Pow(1+rate, -periods)
			value -= payment * discount
			derivative += payment * periods * discount / (1 + rate)
		}

		if derivative == 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, iteration, &calcerror.ConvergenceError{
				Solver:       "true interest cost",
				Iterations:   iteration,
				LastEstimate: rate,
			}
		}

		next := rate - value/derivative
		if next <= -1 {
			// Keep the iterate inside the domain of (1+r)^-t.
			next = (rate - 1) / 2
		}

		if math.Abs(next-rate) < ticTolerance {
			return next, iteration, nil
		}
		rate = next
	}

	return 0, ticMaxIterations, &calcerror.ConvergenceError{
		Solver:       "true interest cost",
		Iterations:   ticMaxIterations,
		LastEstimate: rate,
	}
}

// presentValue discounts a payment stream at a periodic rate; payments[t]
// falls due at the end of period t+1.
func presentValue(payments []float64, periodicRate float64) float64 {
	pv := 0.0
	for t, payment := range payments {
		pv += payment / math.Pow(1+periodicRate, float64(t+1))
	}
	return pv
}
