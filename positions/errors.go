package positions

import (
	"errors"
	"fmt"

	"github.com/bcdannyboy/dgreeks/autodiff"
)

var (
	// ErrInvalidContract reports a non-positive or non-finite strike or
	// time to maturity.
	ErrInvalidContract = errors.New("invalid contract")
	// ErrInvalidMarketState reports a non-positive spot or volatility, a
	// negative dividend yield, or a non-finite rate.
	ErrInvalidMarketState = errors.New("invalid market state")
	// ErrNumericDomain reports an elementary operation evaluated outside
	// its domain.
	ErrNumericDomain = autodiff.ErrDomain
	// ErrInvalidSweep reports an unusable sweep request.
	ErrInvalidSweep = errors.New("invalid sweep")
)

// InputError names the parameter that put a valuation outside the model's
// domain. Kind is ErrInvalidContract or ErrInvalidMarketState.
type InputError struct {
	Kind   error
	Param  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%v: %s %s, got %g", e.Kind, e.Param, e.Reason, e.Value)
}

func (e *InputError) Unwrap() error {
	return e.Kind
}
