package positions

import (
	"context"
	"errors"
	"time"

	"github.com/bcdannyboy/dgreeks/models"
	"github.com/xhhuango/json"
	"golang.org/x/sync/errgroup"
)

// Quote is a listed option as a market-data source reports it.
type Quote interface {
	Name() string
	Contract() (models.OptionContract, error)
	// ImpliedVolatility returns an error wrapping models.ErrNoVolatility
	// when the source quotes none.
	ImpliedVolatility() (float64, error)
}

// ChainMarket is the market every option of a chain is valued in; only the
// volatility is taken from each option's own quote. FallbackVolatility, if
// positive, values options quoted without one.
type ChainMarket struct {
	Spot               float64
	Rate               float64
	Dividend           float64
	Valuation          time.Time
	FallbackVolatility float64
}

// OptionValuation is one quote priced by the evaluator. Quote is kept so
// the source's own figures can be shown next to ours.
type OptionValuation struct {
	Symbol   string
	Contract models.OptionContract
	Market   models.MarketState
	Result   models.PricingResult
	Quote    Quote
	Err      error
}

func (v OptionValuation) MarshalJSON() ([]byte, error) {
	out := struct {
		Symbol   string                `json:"symbol"`
		Contract models.OptionContract `json:"contract"`
		Market   *models.MarketState   `json:"market,omitempty"`
		Result   *models.PricingResult `json:"result,omitempty"`
		Quote    Quote                 `json:"quote,omitempty"`
		Error    string                `json:"error,omitempty"`
	}{Symbol: v.Symbol, Contract: v.Contract, Quote: v.Quote}
	if v.Err != nil {
		out.Error = v.Err.Error()
	} else {
		out.Market, out.Result = &v.Market, &v.Result
	}
	return json.Marshal(out)
}

// ValueChain prices every quote, keeping their order. A quote that cannot
// be converted or priced carries its error; cancelling ctx abandons the lot.
func (e *Evaluator) ValueChain(ctx context.Context, quotes []Quote, m ChainMarket) ([]OptionValuation, error) {
	out := make([]OptionValuation, len(quotes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, q := range quotes {
		if gctx.Err() != nil {
			break
		}
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.valueQuote(q, m)
			if e.progress != nil {
				e.progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, v := range out {
		if v.Err != nil {
			failed++
		}
	}
	e.log.Info().Int("options", len(out)).Int("failed", failed).Msg("chain valued")
	return out, nil
}

func (e *Evaluator) valueQuote(q Quote, m ChainMarket) OptionValuation {
	v := OptionValuation{Symbol: q.Name(), Quote: q}
	c, err := q.Contract()
	if err != nil {
		v.Err = err
		return v
	}
	v.Contract = c
	vol, err := q.ImpliedVolatility()
	if errors.Is(err, models.ErrNoVolatility) && m.FallbackVolatility > 0 {
		vol, err = m.FallbackVolatility, nil
	}
	if err != nil {
		v.Err = err
		return v
	}
	v.Market = models.MarketState{
		Spot:          m.Spot,
		Rate:          m.Rate,
		DividendYield: m.Dividend,
		Volatility:    vol,
		Valuation:     m.Valuation,
	}
	v.Result, v.Err = e.Evaluate(c, v.Market)
	if v.Err != nil {
		e.log.Debug().Err(v.Err).Str("symbol", v.Symbol).Msg("option not valued")
	}
	return v
}
