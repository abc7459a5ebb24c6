package positions

import (
	"math"

	"github.com/bcdannyboy/dgreeks/autodiff"
	"github.com/bcdannyboy/dgreeks/models"
)

// Inputs are the Black-Scholes-Merton parameters as differentiable values.
// Which of them vary is decided by the caller when creating them on an
// autodiff.Engine.
type Inputs struct {
	Spot       autodiff.Value
	Strike     autodiff.Value
	Maturity   autodiff.Value // years
	Rate       autodiff.Value
	Dividend   autodiff.Value // continuous yield
	Volatility autodiff.Value
}

// BlackScholes prices a European option with continuous dividend yield:
//
//	d1 = (ln(S/K) + (r − q + σ²/2)·T) / (σ·√T)
//	d2 = d1 − σ·√T
//	C  = S·e^(−qT)·Φ(d1) − K·e^(−rT)·Φ(d2)
//	P  = K·e^(−rT)·Φ(−d2) − S·e^(−qT)·Φ(−d1)
//
// The returned value carries derivatives with respect to every input that
// was created as a variable. Inputs outside the model's domain are rejected
// with an *InputError; nothing is clamped.
func BlackScholes(in Inputs, typ models.OptionType) (autodiff.Value, error) {
	if err := validateInputs(in); err != nil {
		return autodiff.Value{}, err
	}

	S, K, T := in.Spot, in.Strike, in.Maturity
	r, q, sigma := in.Rate, in.Dividend, in.Volatility

	volSqrtT := sigma.Mul(T.Sqrt())
	drift := r.Sub(q).Add(sigma.Square().Scale(0.5)).Mul(T)
	d1 := S.Div(K).Log().Add(drift).Div(volSqrtT)
	d2 := d1.Sub(volSqrtT)

	fwdSpot := S.Mul(q.Mul(T).Neg().Exp())
	pvStrike := K.Mul(r.Mul(T).Neg().Exp())

	var price autodiff.Value
	switch typ {
	case models.Call:
		price = fwdSpot.Mul(d1.NormCDF()).Sub(pvStrike.Mul(d2.NormCDF()))
	case models.Put:
		price = pvStrike.Mul(d2.Neg().NormCDF()).Sub(fwdSpot.Mul(d1.Neg().NormCDF()))
	default:
		return autodiff.Value{}, &InputError{Kind: ErrInvalidContract, Param: "type", Value: float64(typ), Reason: "must be call or put"}
	}
	if err := price.Err(); err != nil {
		return autodiff.Value{}, err
	}
	return price, nil
}

func validateInputs(in Inputs) error {
	checks := []struct {
		v      autodiff.Value
		kind   error
		param  string
		reason string
		ok     func(float64) bool
	}{
		{in.Maturity, ErrInvalidContract, "maturity", "must be positive", positive},
		{in.Strike, ErrInvalidContract, "strike", "must be positive", positive},
		{in.Spot, ErrInvalidMarketState, "spot", "must be positive", positive},
		{in.Volatility, ErrInvalidMarketState, "volatility", "must be positive", positive},
		{in.Dividend, ErrInvalidMarketState, "dividend", "must be non-negative", nonNegative},
		{in.Rate, ErrInvalidMarketState, "rate", "must be finite", finite},
	}
	for _, c := range checks {
		if err := c.v.Err(); err != nil {
			return err
		}
		if x := c.v.Val(); !c.ok(x) {
			return &InputError{Kind: c.kind, Param: c.param, Value: x, Reason: c.reason}
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func positive(x float64) bool {
	return finite(x) && x > 0
}

func nonNegative(x float64) bool {
	return finite(x) && x >= 0
}
