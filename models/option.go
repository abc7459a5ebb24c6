package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"
)

// ErrNoVolatility reports a quote that carries no usable volatility.
var ErrNoVolatility = errors.New("no implied volatility quoted")

type OptionType int

const (
	Call OptionType = iota
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

// ParseOptionType accepts "call" or "put", or the short forms "c" and "p",
// in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return 0, fmt.Errorf("unknown option type %q", s)
}

func (t OptionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *OptionType) UnmarshalText(b []byte) error {
	v, err := ParseOptionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// OptionContract is a European option. It is a value type; a changed
// contract is a new contract.
type OptionContract struct {
	Strike     float64    `json:"strike"`
	Expiration time.Time  `json:"expiration"`
	Type       OptionType `json:"type"`
}

// MarketState is a snapshot of the market inputs at Valuation.
type MarketState struct {
	Spot          float64   `json:"spot"`
	Rate          float64   `json:"rate"`
	DividendYield float64   `json:"dividend_yield"`
	Volatility    float64   `json:"volatility"`
	Valuation     time.Time `json:"valuation"`
}

// Params is the flattened (S, K, T, r, q, σ, type) point the pricing
// function is evaluated at. Maturity is in years.
type Params struct {
	Spot       float64    `json:"spot"`
	Strike     float64    `json:"strike"`
	Maturity   float64    `json:"maturity"`
	Rate       float64    `json:"rate"`
	Dividend   float64    `json:"dividend"`
	Volatility float64    `json:"volatility"`
	Type       OptionType `json:"type"`
}

func NewParams(c OptionContract, m MarketState) Params {
	return Params{
		Spot:       m.Spot,
		Strike:     c.Strike,
		Maturity:   TimeToMaturity(c.Expiration, m.Valuation),
		Rate:       m.Rate,
		Dividend:   m.DividendYield,
		Volatility: m.Volatility,
		Type:       c.Type,
	}
}

// With returns a copy of p with the axis coordinate replaced by x.
func (p Params) With(axis Axis, x float64) Params {
	switch axis {
	case AxisSpot:
		p.Spot = x
	case AxisMaturity:
		p.Maturity = x
	case AxisVolatility:
		p.Volatility = x
	}
	return p
}

// At returns the axis coordinate of p.
func (p Params) At(axis Axis) float64 {
	switch axis {
	case AxisSpot:
		return p.Spot
	case AxisMaturity:
		return p.Maturity
	case AxisVolatility:
		return p.Volatility
	}
	return math.NaN()
}

const hoursPerYear = 24 * 365

// TimeToMaturity returns the ACT/365 year fraction from valuation to
// expiration. It is negative once the option has expired.
func TimeToMaturity(expiration, valuation time.Time) float64 {
	return expiration.Sub(valuation).Hours() / hoursPerYear
}

// ExpirationClose parses a 2006-01-02 expiration date and returns the
// 16:00 New York market close of that day.
func ExpirationClose(date string) (time.Time, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Time{}, fmt.Errorf("load exchange timezone: %w", err)
	}
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiration date: %w", err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, loc), nil
}

// IntrinsicValue is the payoff of exercising now. Callers use it where the
// pricing function refuses to value an expired contract.
func IntrinsicValue(p Params) float64 {
	if p.Type == Call {
		return math.Max(0, p.Spot-p.Strike)
	}
	return math.Max(0, p.Strike-p.Spot)
}
