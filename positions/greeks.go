package positions

import (
	"runtime"

	"github.com/bcdannyboy/dgreeks/autodiff"
	"github.com/bcdannyboy/dgreeks/models"
	"github.com/rs/zerolog"
)

// Evaluator prices options and reports their greeks by differentiating
// BlackScholes. An Evaluator is immutable once built and safe for
// concurrent use.
type Evaluator struct {
	vars     []models.Variable
	theta    models.DayCount
	workers  int
	progress func()
	log      zerolog.Logger
}

type Option func(*Evaluator)

// WithVariables declares the inputs to differentiate against. Greeks that
// need an undeclared input are omitted from results.
func WithVariables(vars ...models.Variable) Option {
	return func(e *Evaluator) {
		seen := make(map[models.Variable]bool, len(vars))
		e.vars = e.vars[:0:0]
		for _, v := range vars {
			if !seen[v] {
				seen[v] = true
				e.vars = append(e.vars, v)
			}
		}
	}
}

// WithThetaConvention sets the time unit theta and charm are quoted in.
func WithThetaConvention(d models.DayCount) Option {
	return func(e *Evaluator) {
		e.theta = d
	}
}

// WithWorkers bounds the number of sweep points evaluated at once.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// WithProgress registers a callback run after every sweep point. It is
// called from several goroutines.
func WithProgress(fn func()) Option {
	return func(e *Evaluator) {
		e.progress = fn
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.log = l
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		vars:    append([]models.Variable(nil), models.AllVariables...),
		theta:   models.PerYear,
		workers: runtime.GOMAXPROCS(0),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Variables returns the declared differentiation variables.
func (e *Evaluator) Variables() []models.Variable {
	return append([]models.Variable(nil), e.vars...)
}

// Evaluate prices the contract under the market state. Domain errors from
// the pricing function are returned as they are.
func (e *Evaluator) Evaluate(c models.OptionContract, m models.MarketState) (models.PricingResult, error) {
	return e.EvaluateParams(models.NewParams(c, m))
}

// EvaluateParams prices p and reports every greek from the same single
// differentiation pass, so price and greeks always describe the same point.
func (e *Evaluator) EvaluateParams(p models.Params) (models.PricingResult, error) {
	eng := autodiff.New(max(1, len(e.vars)))
	idx := make(map[models.Variable]int, len(e.vars))
	for i, v := range e.vars {
		idx[v] = i
	}
	input := func(v models.Variable, x float64) autodiff.Value {
		if i, ok := idx[v]; ok {
			return eng.Var(i, x)
		}
		return eng.Const(x)
	}

	price, err := BlackScholes(Inputs{
		Spot:       input(models.Spot, p.Spot),
		Strike:     eng.Const(p.Strike),
		Maturity:   input(models.Maturity, p.Maturity),
		Rate:       input(models.Rate, p.Rate),
		Dividend:   input(models.Dividend, p.Dividend),
		Volatility: input(models.Volatility, p.Volatility),
	}, p.Type)
	if err != nil {
		return models.PricingResult{}, err
	}
	return models.PricingResult{
		Price:  price.Val(),
		Greeks: e.greeks(price, idx),
	}, nil
}

func (e *Evaluator) greeks(price autodiff.Value, idx map[models.Variable]int) map[models.Greek]float64 {
	out := make(map[models.Greek]float64, len(models.AllGreeks))
	perTime := e.theta.Scale()

	s, hasS := idx[models.Spot]
	t, hasT := idx[models.Maturity]
	v, hasV := idx[models.Volatility]

	if hasS {
		out[models.Delta] = price.Derivative(s)
		out[models.Gamma] = price.Second(s, s)
	}
	if hasV {
		out[models.Vega] = price.Derivative(v)
		out[models.Volga] = price.Second(v, v)
	}
	if hasT {
		// Time to maturity shrinks as the calendar advances.
		out[models.Theta] = -price.Derivative(t) * perTime
	}
	if r, ok := idx[models.Rate]; ok {
		out[models.Rho] = price.Derivative(r)
	}
	if q, ok := idx[models.Dividend]; ok {
		out[models.Psi] = price.Derivative(q)
	}
	if hasS && hasV {
		out[models.Vanna] = price.Second(s, v)
	}
	if hasS && hasT {
		out[models.Charm] = -price.Second(s, t) * perTime
	}
	return out
}
