package models

import (
	"fmt"
	"strings"

	"github.com/xhhuango/json"
)

// Axis is the parameter a sweep varies.
type Axis int

const (
	AxisSpot Axis = iota
	AxisMaturity
	AxisVolatility
)

func (a Axis) String() string {
	switch a {
	case AxisSpot:
		return "spot"
	case AxisMaturity:
		return "maturity"
	case AxisVolatility:
		return "volatility"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spot", "stock_price", "s":
		return AxisSpot, nil
	case "maturity", "days_to_expiration", "t":
		return AxisMaturity, nil
	case "volatility", "implied_vol", "vol", "sigma":
		return AxisVolatility, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// SweepSpec asks for Samples linearly spaced points from Lo to Hi along
// Axis. Lo > Hi produces a descending sequence.
type SweepSpec struct {
	Axis    Axis    `json:"axis"`
	Lo      float64 `json:"lo"`
	Hi      float64 `json:"hi"`
	Samples int     `json:"samples"`
}

// SweepPoint is one sample of a sweep. Err is set, and Result is empty,
// when the point could not be valued.
type SweepPoint struct {
	X      float64
	Result PricingResult
	Err    error
}

func (p SweepPoint) MarshalJSON() ([]byte, error) {
	out := struct {
		X      float64        `json:"x"`
		Result *PricingResult `json:"result,omitempty"`
		Error  string         `json:"error,omitempty"`
	}{X: p.X}
	if p.Err != nil {
		out.Error = p.Err.Error()
	} else {
		out.Result = &p.Result
	}
	return json.Marshal(out)
}

// Sweep is an ordered, materialised batch of evaluations along one axis.
// It may be read any number of times.
type Sweep struct {
	Axis   Axis         `json:"axis"`
	Points []SweepPoint `json:"points"`
}

func (s Sweep) Len() int {
	return len(s.Points)
}

// Series returns the axis values and the selected greek for every point
// that was valued, in sweep order.
func (s Sweep) Series(g Greek) (xs, ys []float64) {
	xs = make([]float64, 0, len(s.Points))
	ys = make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Err != nil {
			continue
		}
		y, ok := p.Result.Get(g)
		if !ok {
			continue
		}
		xs = append(xs, p.X)
		ys = append(ys, y)
	}
	return xs, ys
}

// Failed returns the indices of points that carry an error.
func (s Sweep) Failed() []int {
	var idx []int
	for i, p := range s.Points {
		if p.Err != nil {
			idx = append(idx, i)
		}
	}
	return idx
}
