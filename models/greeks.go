package models

import (
	"fmt"
	"strings"
)

// Variable names a scalar input the pricing function can be differentiated
// against. It owns no value; it selects which partials are reported.
type Variable int

const (
	Spot Variable = iota
	Maturity
	Rate
	Volatility
	Dividend
)

// AllVariables lists every differentiable input in declaration order.
var AllVariables = []Variable{Spot, Maturity, Rate, Volatility, Dividend}

func (v Variable) String() string {
	switch v {
	case Spot:
		return "spot"
	case Maturity:
		return "maturity"
	case Rate:
		return "rate"
	case Volatility:
		return "volatility"
	case Dividend:
		return "dividend"
	default:
		return fmt.Sprintf("Variable(%d)", int(v))
	}
}

func ParseVariable(s string) (Variable, error) {
	for _, v := range AllVariables {
		if strings.EqualFold(strings.TrimSpace(s), v.String()) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown variable %q", s)
}

type Greek string

const (
	Delta Greek = "delta" // ∂V/∂S
	Gamma Greek = "gamma" // ∂²V/∂S²
	Vega  Greek = "vega"  // ∂V/∂σ
	Theta Greek = "theta" // −∂V/∂T
	Rho   Greek = "rho"   // ∂V/∂r
	Psi   Greek = "psi"   // ∂V/∂q
	Vanna Greek = "vanna" // ∂²V/∂S∂σ
	Volga Greek = "volga" // ∂²V/∂σ²
	Charm Greek = "charm" // −∂²V/∂S∂T
)

// AllGreeks lists the greeks in reporting order.
var AllGreeks = []Greek{Delta, Gamma, Vega, Theta, Rho, Psi, Vanna, Volga, Charm}

// ParseGreek accepts a greek name, or "price" for the option value.
func ParseGreek(s string) (Greek, error) {
	g := Greek(strings.ToLower(strings.TrimSpace(s)))
	if g == Price {
		return g, nil
	}
	for _, known := range AllGreeks {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown greek %q", s)
}

// Price is not a greek but selects PricingResult.Price wherever a greek
// name is accepted, so charts can plot the option value on the same axis.
const Price Greek = "price"

// DayCount selects the unit theta and charm are quoted in.
type DayCount string

const (
	PerYear        DayCount = "year"
	PerCalendarDay DayCount = "calendar_day"
	PerTradingDay  DayCount = "trading_day"
)

func ParseDayCount(s string) (DayCount, error) {
	switch d := DayCount(strings.ToLower(strings.TrimSpace(s))); d {
	case PerYear, PerCalendarDay, PerTradingDay:
		return d, nil
	}
	return "", fmt.Errorf("unknown day count %q", s)
}

// Scale converts a per-year rate into the convention's unit.
func (d DayCount) Scale() float64 {
	switch d {
	case PerCalendarDay:
		return 1.0 / 365
	case PerTradingDay:
		return 1.0 / 252
	default:
		return 1
	}
}

// PricingResult is the price and sensitivities computed from one
// evaluation of one parameter snapshot.
type PricingResult struct {
	Price  float64           `json:"price"`
	Greeks map[Greek]float64 `json:"greeks"`
}

// Get returns the named greek, or the price for Price.
func (r PricingResult) Get(g Greek) (float64, bool) {
	if g == Price {
		return r.Price, true
	}
	v, ok := r.Greeks[g]
	return v, ok
}
