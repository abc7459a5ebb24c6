package positions

import (
	"context"
	"fmt"

	"github.com/bcdannyboy/dgreeks/models"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// DefaultSamples is the resolution used when a caller does not choose one.
const DefaultSamples = 200

// Sweep evaluates the contract at spec.Samples points along spec.Axis,
// holding every other parameter at its base value.
func (e *Evaluator) Sweep(ctx context.Context, c models.OptionContract, m models.MarketState, spec models.SweepSpec) (models.Sweep, error) {
	return e.SweepParams(ctx, models.NewParams(c, m), spec)
}

// SweepParams is Sweep over an already flattened parameter set.
//
// Points are ordered as the samples are, from spec.Lo to spec.Hi. A point
// that cannot be valued carries its error and does not stop the others.
// Cancelling ctx abandons the sweep and returns ctx.Err().
func (e *Evaluator) SweepParams(ctx context.Context, base models.Params, spec models.SweepSpec) (models.Sweep, error) {
	if err := validateSweep(spec); err != nil {
		return models.Sweep{}, err
	}
	xs := floats.Span(make([]float64, spec.Samples), spec.Lo, spec.Hi)
	return e.SweepAt(ctx, base, spec.Axis, xs)
}

// SweepAt evaluates base at each of xs along axis, in the order given.
// Failures are isolated per point as in SweepParams.
func (e *Evaluator) SweepAt(ctx context.Context, base models.Params, axis models.Axis, xs []float64) (models.Sweep, error) {
	if err := validateAxis(axis); err != nil {
		return models.Sweep{}, err
	}
	points := make([]models.SweepPoint, len(xs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, x := range xs {
		if gctx.Err() != nil {
			break
		}
		i, x := i, x
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.EvaluateParams(base.With(axis, x))
			points[i] = models.SweepPoint{X: x, Result: res, Err: err}
			if err != nil {
				e.log.Debug().Err(err).Str("axis", axis.String()).Float64("x", x).Msg("sweep point not valued")
			}
			if e.progress != nil {
				e.progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Sweep{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Sweep{}, err
	}

	sweep := models.Sweep{Axis: axis, Points: points}
	if failed := sweep.Failed(); len(failed) > 0 {
		e.log.Warn().Str("axis", axis.String()).Int("samples", len(xs)).Int("failed", len(failed)).Msg("sweep completed with unvalued points")
	} else {
		e.log.Debug().Str("axis", axis.String()).Int("samples", len(xs)).Msg("sweep completed")
	}
	return sweep, nil
}

func validateAxis(axis models.Axis) error {
	switch axis {
	case models.AxisSpot, models.AxisMaturity, models.AxisVolatility:
		return nil
	}
	return fmt.Errorf("%w: unknown axis %v", ErrInvalidSweep, axis)
}

func validateSweep(spec models.SweepSpec) error {
	if err := validateAxis(spec.Axis); err != nil {
		return err
	}
	if spec.Samples < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidSweep, spec.Samples)
	}
	if !finite(spec.Lo) || !finite(spec.Hi) {
		return fmt.Errorf("%w: range [%g, %g] is not finite", ErrInvalidSweep, spec.Lo, spec.Hi)
	}
	if spec.Lo == spec.Hi {
		return fmt.Errorf("%w: empty range at %g", ErrInvalidSweep, spec.Lo)
	}
	return nil
}

// DefaultRange returns the chart range used for an axis around p: half to
// double the spot or volatility, and the remaining life of the option
// counted down to expiry for maturity.
func DefaultRange(axis models.Axis, p models.Params, samples int) models.SweepSpec {
	if samples < 2 {
		samples = DefaultSamples
	}
	spec := models.SweepSpec{Axis: axis, Samples: samples}
	switch axis {
	case models.AxisSpot:
		spec.Lo, spec.Hi = p.Spot/2, p.Spot*2
	case models.AxisVolatility:
		spec.Lo, spec.Hi = p.Volatility/2, p.Volatility*2
	case models.AxisMaturity:
		spec.Lo, spec.Hi = p.Maturity, 0
	}
	return spec
}
