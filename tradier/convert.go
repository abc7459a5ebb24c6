package tradier

import (
	"fmt"
	"sort"

	"github.com/bcdannyboy/dgreeks/models"
)

var ErrNoVolatility = models.ErrNoVolatility

// ContractFromOption converts a chain entry into a contract expiring at the
// New York close of its expiration date.
func ContractFromOption(opt Option) (models.OptionContract, error) {
	typ, err := models.ParseOptionType(opt.OptionType)
	if err != nil {
		return models.OptionContract{}, fmt.Errorf("%s: %w", opt.Symbol, err)
	}
	exp, err := models.ExpirationClose(opt.ExpirationDate)
	if err != nil {
		return models.OptionContract{}, fmt.Errorf("%s: %w", opt.Symbol, err)
	}
	return models.OptionContract{Strike: opt.Strike, Expiration: exp, Type: typ}, nil
}

// ImpliedVolatility picks the volatility to value opt at: the mid implied
// volatility, else the smoothed surface volatility, else the average of the
// bid and ask implied volatilities.
func ImpliedVolatility(opt Option) (float64, error) {
	g := opt.Greeks
	switch {
	case g == nil:
	case g.MidIv > 0:
		return g.MidIv, nil
	case g.SmvVol > 0:
		return g.SmvVol, nil
	case g.BidIv > 0 && g.AskIv > 0:
		return (g.BidIv + g.AskIv) / 2, nil
	}
	return 0, fmt.Errorf("%s: %w", opt.Symbol, ErrNoVolatility)
}

func (o Option) Name() string {
	return o.Symbol
}

func (o Option) Contract() (models.OptionContract, error) {
	return ContractFromOption(o)
}

func (o Option) ImpliedVolatility() (float64, error) {
	return ImpliedVolatility(o)
}

// Flatten merges chains keyed by expiration into one list ordered by
// expiration, then strike, calls before puts.
func Flatten(chains map[string][]Option) []Option {
	var opts []Option
	for _, chain := range chains {
		opts = append(opts, chain...)
	}
	sort.Slice(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		if a.ExpirationDate != b.ExpirationDate {
			return a.ExpirationDate < b.ExpirationDate
		}
		if a.Strike != b.Strike {
			return a.Strike < b.Strike
		}
		if a.OptionType != b.OptionType {
			return a.OptionType < b.OptionType
		}
		return a.Symbol < b.Symbol
	})
	return opts
}

// Bars converts daily history into the bars volatility estimators read.
func Bars(days []Day) []models.Bar {
	bars := make([]models.Bar, len(days))
	for i, d := range days {
		bars[i] = models.Bar{Open: d.Open, High: d.High, Low: d.Low, Close: d.Close}
	}
	return bars
}
