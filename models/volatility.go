package models

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualises daily variance.
const TradingDaysPerYear = 252

var ErrShortHistory = errors.New("not enough price history")

// Bar is one day of open, high, low and close prices.
type Bar struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Estimator names a historical volatility estimator.
type Estimator string

const (
	CloseToClose   Estimator = "close"
	Parkinson      Estimator = "parkinson"
	GarmanKlass    Estimator = "garman_klass"
	RogersSatchell Estimator = "rogers_satchell"
	YangZhang      Estimator = "yang_zhang"
)

func ParseEstimator(s string) (Estimator, error) {
	switch e := Estimator(strings.ToLower(strings.TrimSpace(s))); e {
	case CloseToClose, Parkinson, GarmanKlass, RogersSatchell, YangZhang, GARCH:
		return e, nil
	}
	return "", fmt.Errorf("unknown volatility estimator %q", s)
}

// HistoricalVolatility estimates annualised volatility from the last window
// bars. Close-to-close and GARCH use one extra bar for the first return.
func HistoricalVolatility(bars []Bar, window int, est Estimator) (float64, error) {
	if window < 2 {
		return 0, fmt.Errorf("volatility window must be at least 2, got %d", window)
	}
	need := window
	if est == CloseToClose || est == GARCH {
		need++
	}
	if len(bars) < need {
		return 0, fmt.Errorf("%w: %s over %d days needs %d bars, got %d", ErrShortHistory, est, window, need, len(bars))
	}
	bars = bars[len(bars)-need:]
	for i, b := range bars {
		if !(b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0) || b.Low > b.High {
			return 0, fmt.Errorf("bar %d has invalid prices %+v", i, b)
		}
	}

	var variance float64
	switch est {
	case CloseToClose:
		variance = closeToCloseVariance(bars)
	case Parkinson:
		variance = parkinsonVariance(bars)
	case GarmanKlass:
		variance = garmanKlassVariance(bars)
	case RogersSatchell:
		variance = rogersSatchellVariance(bars)
	case YangZhang:
		variance = yangZhangVariance(bars)
	case GARCH:
		v, err := garchVariance(bars)
		if err != nil {
			return 0, err
		}
		variance = v
	default:
		return 0, fmt.Errorf("unknown volatility estimator %q", est)
	}
	if variance < 0 {
		// Garman-Klass can go slightly negative on flat, gapping bars.
		variance = 0
	}
	return math.Sqrt(variance * TradingDaysPerYear), nil
}

func closeToCloseVariance(bars []Bar) float64 {
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	return stat.Variance(returns, nil)
}

func parkinsonVariance(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		sum += hl * hl
	}
	return sum / (4 * float64(len(bars)) * math.Ln2)
}

func garmanKlassVariance(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	return sum / float64(len(bars))
}

func rogersSatchellVariance(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		sum += math.Log(b.High/b.Close)*math.Log(b.High/b.Open) +
			math.Log(b.Low/b.Close)*math.Log(b.Low/b.Open)
	}
	return sum / float64(len(bars))
}

func yangZhangVariance(bars []Bar) float64 {
	n := float64(len(bars))
	k := 0.34 / (1.34 + (n+1)/(n-1))

	overnight := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		overnight[i-1] = math.Log(bars[i].Open / bars[i-1].Close)
	}
	openClose := make([]float64, len(bars))
	for i, b := range bars {
		openClose[i] = math.Log(b.Close / b.Open)
	}

	var vo float64
	if len(overnight) > 1 {
		vo = stat.Variance(overnight, nil)
	}
	return vo + k*stat.Variance(openClose, nil) + (1-k)*rogersSatchellVariance(bars)
}
