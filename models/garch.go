package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// GARCH is the GARCH(1,1) volatility estimator: the one-day-ahead
// conditional variance of a model fitted to the window's returns.
const GARCH Estimator = "garch"

const minGARCHReturns = 20

// GARCH11 holds σ²ₜ = Omega + Alpha·r²ₜ₋₁ + Beta·σ²ₜ₋₁.
type GARCH11 struct {
	Omega float64 `json:"omega"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// LogLikelihood is the Gaussian log-likelihood of returns, with the
// recursion started at variance v0.
func (g GARCH11) LogLikelihood(returns []float64, v0 float64) float64 {
	ll := 0.0
	variance := v0
	for i, r := range returns {
		if i > 0 {
			variance = g.Omega + g.Alpha*returns[i-1]*returns[i-1] + g.Beta*variance
		}
		ll += -0.5*math.Log(2*math.Pi) - 0.5*math.Log(variance) - 0.5*r*r/variance
	}
	return ll
}

// Forecast returns the variance expected for the day after returns.
func (g GARCH11) Forecast(returns []float64, v0 float64) float64 {
	variance := v0
	for _, r := range returns {
		variance = g.Omega + g.Alpha*r*r + g.Beta*variance
	}
	return variance
}

// FitGARCH11 fits the model to demeaned returns by maximum likelihood. The
// search runs over an unconstrained parameterisation so every candidate has
// Omega > 0, Alpha, Beta ≥ 0 and Alpha + Beta < 1.
func FitGARCH11(returns []float64) (GARCH11, float64, error) {
	if len(returns) < minGARCHReturns {
		return GARCH11{}, 0, fmt.Errorf("%w: garch needs %d returns, got %d", ErrShortHistory, minGARCHReturns, len(returns))
	}
	mean, v0 := stat.MeanVariance(returns, nil)
	if !(v0 > 0) {
		return GARCH11{}, 0, errors.New("returns have no variance")
	}
	demeaned := make([]float64, len(returns))
	for i, r := range returns {
		demeaned[i] = r - mean
	}

	decode := func(x []float64) GARCH11 {
		persistence := sigmoid(x[1])
		share := sigmoid(x[2])
		return GARCH11{
			Omega: math.Exp(x[0]),
			Alpha: persistence * share,
			Beta:  persistence * (1 - share),
		}
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			ll := decode(x).LogLikelihood(demeaned, v0)
			if math.IsNaN(ll) {
				return math.Inf(1)
			}
			return -ll
		},
	}
	// α = 0.1, β = 0.8 with the unconditional variance matching the sample.
	init := []float64{math.Log(v0 * 0.1), logit(0.9), logit(1.0 / 9)}

	result, err := optimize.Minimize(problem, init, nil, &optimize.NelderMead{})
	if err != nil {
		return GARCH11{}, 0, fmt.Errorf("fit garch: %w", err)
	}
	return decode(result.X), v0, nil
}

func garchVariance(bars []Bar) (float64, error) {
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	g, v0, err := FitGARCH11(returns)
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(returns, nil)
	for i := range returns {
		returns[i] -= mean
	}
	return g.Forecast(returns, v0), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
