package positions

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bcdannyboy/dgreeks/models"
	"gonum.org/v1/gonum/floats"
)

func TestSweepSpotIsOrdered(t *testing.T) {
	base := atTheMoney(models.Call)
	s, err := NewEvaluator(WithWorkers(8)).SweepParams(context.Background(), base, models.SweepSpec{Axis: models.AxisSpot, Lo: 50, Hi: 150, Samples: 101})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 101 {
		t.Fatalf("len = %d, want 101", s.Len())
	}
	if s.Axis != models.AxisSpot {
		t.Errorf("axis = %v", s.Axis)
	}
	if s.Points[0].X != 50 || s.Points[100].X != 150 {
		t.Errorf("endpoints = %g, %g", s.Points[0].X, s.Points[100].X)
	}
	e := NewEvaluator()
	for i, p := range s.Points {
		if p.Err != nil {
			t.Fatalf("point %d: %v", i, p.Err)
		}
		if !almostEqual(p.X, 50+float64(i), 1e-12) {
			t.Errorf("point %d at %g, want %d", i, p.X, 50+i)
		}
		if i > 0 && p.X <= s.Points[i-1].X {
			t.Errorf("point %d not after point %d", i, i-1)
		}
		want, err := e.EvaluateParams(base.With(models.AxisSpot, p.X))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(p.Result, want) {
			t.Errorf("point %d differs from a single evaluation", i)
		}
	}
	xs, ys := s.Series(models.Delta)
	if len(xs) != 101 || len(ys) != 101 {
		t.Fatalf("series lengths %d, %d", len(xs), len(ys))
	}
	for i := 1; i < len(ys); i++ {
		if ys[i] < ys[i-1] {
			t.Errorf("call delta decreases between %g and %g", xs[i-1], xs[i])
		}
	}
}

func TestSweepDescendingRange(t *testing.T) {
	s, err := NewEvaluator().SweepParams(context.Background(), atTheMoney(models.Put), models.SweepSpec{Axis: models.AxisVolatility, Lo: 0.6, Hi: 0.1, Samples: 6})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	for i, p := range s.Points {
		if !almostEqual(p.X, want[i], 1e-12) {
			t.Errorf("point %d at %g, want %g", i, p.X, want[i])
		}
		if p.Err != nil {
			t.Errorf("point %d: %v", i, p.Err)
		}
	}
}

func TestSweepIsolatesFailedPoints(t *testing.T) {
	s, err := NewEvaluator().SweepParams(context.Background(), atTheMoney(models.Call), models.SweepSpec{Axis: models.AxisMaturity, Lo: 0, Hi: 1, Samples: 11})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Failed(); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("failed = %v, want [0]", got)
	}
	if !errors.Is(s.Points[0].Err, ErrInvalidContract) {
		t.Errorf("point 0 err = %v, want %v", s.Points[0].Err, ErrInvalidContract)
	}
	if s.Points[0].Result.Greeks != nil {
		t.Errorf("failed point carries a result")
	}
	for i, p := range s.Points[1:] {
		if p.Err != nil || p.Result.Price <= 0 {
			t.Errorf("point %d: price %g err %v", i+1, p.Result.Price, p.Err)
		}
	}
	xs, _ := s.Series(models.Theta)
	if len(xs) != 10 || xs[0] != s.Points[1].X {
		t.Errorf("series skips failed points incorrectly: %v", xs)
	}
}

func TestSweepAtIsolatesInteriorPoint(t *testing.T) {
	base := atTheMoney(models.Call)
	xs := floats.Span(make([]float64, 11), 0.1, 1.1)
	clean, err := NewEvaluator().SweepAt(context.Background(), base, models.AxisMaturity, xs)
	if err != nil {
		t.Fatal(err)
	}

	for _, bad := range []float64{0, -0.25} {
		xs := append([]float64(nil), xs...)
		xs[5] = bad
		s, err := NewEvaluator(WithWorkers(4)).SweepAt(context.Background(), base, models.AxisMaturity, xs)
		if err != nil {
			t.Fatal(err)
		}
		if got := s.Failed(); !reflect.DeepEqual(got, []int{5}) {
			t.Fatalf("T=%g: failed = %v, want [5]", bad, got)
		}
		if !errors.Is(s.Points[5].Err, ErrInvalidContract) || s.Points[5].X != bad {
			t.Errorf("T=%g: point 5 = %+v", bad, s.Points[5])
		}
		for _, i := range []int{4, 6} {
			p := s.Points[i]
			if p.Err != nil || p.X != xs[i] || p.Result.Price != clean.Points[i].Result.Price {
				t.Errorf("T=%g: neighbour %d = %+v, want %+v", bad, i, p, clean.Points[i])
			}
		}
	}
}

func TestSweepMaturityPastExpiry(t *testing.T) {
	s, err := NewEvaluator().SweepParams(context.Background(), atTheMoney(models.Put), models.SweepSpec{Axis: models.AxisMaturity, Lo: 0.55, Hi: -0.45, Samples: 11})
	if err != nil {
		t.Fatal(err)
	}
	first := -1
	for i, p := range s.Points {
		if p.X <= 0 {
			first = i
			break
		}
	}
	if first <= 0 {
		t.Fatalf("no interior expiry in %v", s.Points)
	}
	for i, p := range s.Points {
		if (p.Err != nil) != (i >= first) {
			t.Errorf("point %d at T=%g: err %v", i, p.X, p.Err)
		}
	}
	if s.Points[first-1].Result.Price <= 0 {
		t.Errorf("last valid point before expiry has price %g", s.Points[first-1].Result.Price)
	}
}

func TestSweepAtEdges(t *testing.T) {
	s, err := NewEvaluator().SweepAt(context.Background(), atTheMoney(models.Call), models.AxisSpot, nil)
	if err != nil || s.Len() != 0 {
		t.Errorf("empty sweep = %v, %v", s, err)
	}
	if _, err := NewEvaluator().SweepAt(context.Background(), atTheMoney(models.Call), models.Axis(9), []float64{1}); !errors.Is(err, ErrInvalidSweep) {
		t.Errorf("unknown axis err = %v", err)
	}
}

func TestSweepIsDeterministic(t *testing.T) {
	base := models.Params{Spot: 95, Strike: 100, Maturity: 0.5, Rate: 0.03, Dividend: 0.01, Volatility: 0.25, Type: models.Put}
	spec := models.SweepSpec{Axis: models.AxisMaturity, Lo: 0.5, Hi: 0, Samples: 50}
	serial, err := NewEvaluator(WithWorkers(1)).SweepParams(context.Background(), base, spec)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		parallel, err := NewEvaluator(WithWorkers(16)).SweepParams(context.Background(), base, spec)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(serial, parallel) {
			t.Fatalf("run %d: parallel sweep differs from serial sweep", i)
		}
	}
}

func TestSweepRejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec models.SweepSpec
	}{
		{"one sample", models.SweepSpec{Axis: models.AxisSpot, Lo: 50, Hi: 150, Samples: 1}},
		{"no samples", models.SweepSpec{Axis: models.AxisSpot, Lo: 50, Hi: 150}},
		{"empty range", models.SweepSpec{Axis: models.AxisSpot, Lo: 100, Hi: 100, Samples: 10}},
		{"nan bound", models.SweepSpec{Axis: models.AxisSpot, Lo: math.NaN(), Hi: 150, Samples: 10}},
		{"infinite bound", models.SweepSpec{Axis: models.AxisVolatility, Lo: 0.1, Hi: math.Inf(1), Samples: 10}},
		{"unknown axis", models.SweepSpec{Axis: models.Axis(9), Lo: 50, Hi: 150, Samples: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvaluator().SweepParams(context.Background(), atTheMoney(models.Call), tt.spec)
			if !errors.Is(err, ErrInvalidSweep) {
				t.Fatalf("err = %v, want %v", err, ErrInvalidSweep)
			}
		})
	}
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := NewEvaluator().SweepParams(ctx, atTheMoney(models.Call), models.SweepSpec{Axis: models.AxisSpot, Lo: 50, Hi: 150, Samples: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want %v", err, context.Canceled)
	}
	if s.Points != nil {
		t.Errorf("cancelled sweep returned %d points", len(s.Points))
	}
}

func TestSweepCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var n atomic.Int64
	e := NewEvaluator(WithWorkers(2), WithProgress(func() {
		if n.Add(1) == 10 {
			cancel()
		}
	}))
	_, err := e.SweepParams(ctx, atTheMoney(models.Call), models.SweepSpec{Axis: models.AxisSpot, Lo: 50, Hi: 150, Samples: 10000})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want %v", err, context.Canceled)
	}
	if n.Load() >= 10000 {
		t.Errorf("sweep ran every point after cancellation")
	}
}

func TestSweepDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := NewEvaluator().SweepParams(ctx, atTheMoney(models.Call), models.SweepSpec{Axis: models.AxisSpot, Lo: 50, Hi: 150, Samples: 10})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestSweepReportsProgress(t *testing.T) {
	var n atomic.Int64
	e := NewEvaluator(WithWorkers(4), WithProgress(func() { n.Add(1) }))
	if _, err := e.SweepParams(context.Background(), atTheMoney(models.Call), models.SweepSpec{Axis: models.AxisMaturity, Lo: 0, Hi: 2, Samples: 64}); err != nil {
		t.Fatal(err)
	}
	if got := n.Load(); got != 64 {
		t.Fatalf("progress called %d times, want 64", got)
	}
}

func TestSweepFromContract(t *testing.T) {
	val := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
	c := models.OptionContract{Strike: 100, Expiration: val.Add(365 * 24 * time.Hour), Type: models.Call}
	m := models.MarketState{Spot: 100, Rate: 0.05, Volatility: 0.2, Valuation: val}
	s, err := NewEvaluator().Sweep(context.Background(), c, m, models.SweepSpec{Axis: models.AxisSpot, Lo: 90, Hi: 110, Samples: 3})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(s.Points[1].Result.Price, 10.450583572185565, 1e-10) {
		t.Errorf("mid price = %.15f", s.Points[1].Result.Price)
	}
}

func TestDefaultRange(t *testing.T) {
	p := atTheMoney(models.Call)
	tests := []struct {
		axis   models.Axis
		lo, hi float64
	}{
		{models.AxisSpot, 50, 200},
		{models.AxisVolatility, 0.1, 0.4},
		{models.AxisMaturity, 1, 0},
	}
	for _, tt := range tests {
		spec := DefaultRange(tt.axis, p, 0)
		if spec.Axis != tt.axis || spec.Lo != tt.lo || spec.Hi != tt.hi || spec.Samples != DefaultSamples {
			t.Errorf("DefaultRange(%v) = %+v", tt.axis, spec)
		}
	}
	if got := DefaultRange(models.AxisSpot, p, 25).Samples; got != 25 {
		t.Errorf("samples = %d, want 25", got)
	}
}
