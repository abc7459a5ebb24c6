package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcdannyboy/dgreeks/config"
	"github.com/bcdannyboy/dgreeks/logger"
	"github.com/bcdannyboy/dgreeks/models"
	"github.com/bcdannyboy/dgreeks/positions"
	dgreeksslack "github.com/bcdannyboy/dgreeks/slack"
	"github.com/bcdannyboy/dgreeks/tradier"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"github.com/xhhuango/json"
)

type options struct {
	configPath string
	envFile    string
	mode       string
	out        string

	optionType string
	spot       float64
	strike     float64
	days       float64
	expiration string
	vol        float64
	rate       float64
	dividend   float64

	axis    string
	lo, hi  float64
	samples int

	symbol         string
	minDTE, maxDTE int
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("dgreeks", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.envFile, "env", ".env", "dotenv file with API tokens")
	fs.StringVar(&o.mode, "mode", "point", "point, sweep, chain or slack")
	fs.StringVar(&o.out, "out", "", "write JSON here instead of stdout")

	fs.StringVar(&o.optionType, "type", "call", "call or put")
	fs.Float64Var(&o.spot, "spot", 0, "underlying price")
	fs.Float64Var(&o.strike, "strike", 0, "strike price")
	fs.Float64Var(&o.days, "days", 0, "calendar days to expiry")
	fs.StringVar(&o.expiration, "expiration", "", "expiration date (2006-01-02), instead of -days")
	fs.Float64Var(&o.vol, "vol", 0, "volatility, annualised")
	fs.Float64Var(&o.rate, "rate", math.NaN(), "risk-free rate (default from config)")
	fs.Float64Var(&o.dividend, "div", math.NaN(), "continuous dividend yield (default from config)")

	fs.StringVar(&o.axis, "axis", "spot", "sweep axis: spot, maturity or volatility")
	fs.Float64Var(&o.lo, "lo", math.NaN(), "sweep start (default from axis)")
	fs.Float64Var(&o.hi, "hi", math.NaN(), "sweep end (default from axis)")
	fs.IntVar(&o.samples, "n", 0, "sweep samples (default from config)")

	fs.StringVar(&o.symbol, "symbol", "SPY", "underlying for chain mode")
	fs.IntVar(&o.minDTE, "min-dte", 5, "shortest expiry for chain mode, in days")
	fs.IntVar(&o.maxDTE, "max-dte", 45, "longest expiry for chain mode, in days")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.LoadWithEnv(o.configPath, o.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %s\n", err)
		os.Exit(1)
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %s\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, cfg, log); err != nil {
		log.Error().Err(err).Str("mode", o.mode).Msg("dgreeks failed")
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, cfg *config.Config, log zerolog.Logger) error {
	if math.IsNaN(o.rate) {
		o.rate = cfg.Market.Rate
	}
	if math.IsNaN(o.dividend) {
		o.dividend = cfg.Market.DividendYield
	}
	if o.samples == 0 {
		o.samples = cfg.Sweep.Samples
	}

	evalOpts := []positions.Option{
		positions.WithVariables(cfg.Variables()...),
		positions.WithThetaConvention(cfg.ThetaConvention()),
		positions.WithWorkers(workers(cfg, log)),
		positions.WithLogger(log),
	}

	switch o.mode {
	case "point":
		p, err := pointParams(o, time.Now())
		if err != nil {
			return err
		}
		res, err := positions.NewEvaluator(evalOpts...).EvaluateParams(p)
		if err != nil {
			return err
		}
		return writeJSON(o.out, struct {
			Params models.Params        `json:"params"`
			Result models.PricingResult `json:"result"`
		}{p, res})

	case "sweep":
		p, err := pointParams(o, time.Now())
		if err != nil {
			return err
		}
		axis, err := models.ParseAxis(o.axis)
		if err != nil {
			return err
		}
		spec := positions.DefaultRange(axis, p, o.samples)
		if !math.IsNaN(o.lo) {
			spec.Lo = o.lo
		}
		if !math.IsNaN(o.hi) {
			spec.Hi = o.hi
		}

		bar := newProgress(int64(spec.Samples))
		sweep, err := positions.NewEvaluator(append(evalOpts, positions.WithProgress(bar.increment))...).SweepParams(ctx, p, spec)
		bar.finish(err)
		if err != nil {
			return err
		}
		log.Info().Str("axis", axis.String()).Int("samples", sweep.Len()).Int("failed", len(sweep.Failed())).Msg("sweep written")
		return writeJSON(o.out, sweep)

	case "chain":
		if cfg.Tradier.APIKey == "" {
			return errors.New("chain mode needs TRADIER_KEY")
		}
		client := tradier.NewClient(cfg.Tradier.APIKey, cfg.Tradier.BaseURL)
		now := time.Now()

		spot, err := client.LastClose(ctx, o.symbol, now)
		if err != nil {
			return fmt.Errorf("fetch %s price: %w", o.symbol, err)
		}
		chains, err := client.Chains(ctx, o.symbol, o.minDTE, o.maxDTE, now)
		if err != nil {
			return fmt.Errorf("fetch %s chains: %w", o.symbol, err)
		}
		opts := tradier.Flatten(chains)
		quotes := make([]positions.Quote, len(opts))
		for i, opt := range opts {
			quotes[i] = opt
		}
		log.Info().Str("symbol", o.symbol).Float64("spot", spot).Int("expirations", len(chains)).Int("options", len(quotes)).Msg("chain fetched")

		fallback := historicalVolatility(ctx, client, o.symbol, cfg, now, log)

		bar := newProgress(int64(len(quotes)))
		vals, err := positions.NewEvaluator(append(evalOpts, positions.WithProgress(bar.increment))...).ValueChain(ctx, quotes, positions.ChainMarket{
			Spot:               spot,
			Rate:               o.rate,
			Dividend:           o.dividend,
			Valuation:          now,
			FallbackVolatility: fallback,
		})
		bar.finish(err)
		if err != nil {
			return err
		}
		return writeJSON(o.out, vals)

	case "slack":
		if cfg.Slack.AppToken == "" || cfg.Slack.BotToken == "" {
			return errors.New("slack mode needs SLACK_APP_TOKEN and SLACK_BOT_TOKEN")
		}
		bot := dgreeksslack.NewSlackBot(cfg.Slack.AppToken, cfg.Slack.BotToken,
			positions.NewEvaluator(evalOpts...),
			dgreeksslack.Defaults{Rate: o.rate, Dividend: o.dividend},
			log)
		err := bot.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown mode %q", o.mode)
}

// pointParams builds the evaluation point from flags. An expiration date
// takes precedence over -days.
func pointParams(o options, now time.Time) (models.Params, error) {
	typ, err := models.ParseOptionType(o.optionType)
	if err != nil {
		return models.Params{}, err
	}
	maturity := o.days / 365
	if o.expiration != "" {
		exp, err := models.ExpirationClose(o.expiration)
		if err != nil {
			return models.Params{}, err
		}
		maturity = models.TimeToMaturity(exp, now)
	}
	return models.Params{
		Spot:       o.spot,
		Strike:     o.strike,
		Maturity:   maturity,
		Rate:       o.rate,
		Dividend:   o.dividend,
		Volatility: o.vol,
		Type:       typ,
	}, nil
}

// historicalVolatility estimates the fallback volatility for chain entries
// quoted without one. It returns zero, disabling the fallback, on failure.
func historicalVolatility(ctx context.Context, client *tradier.Client, symbol string, cfg *config.Config, now time.Time, log zerolog.Logger) float64 {
	window := cfg.Market.VolWindow
	// Calendar days comfortably covering window+1 sessions.
	days, err := client.History(ctx, symbol, now.AddDate(0, 0, -2*window-10), now)
	if err != nil {
		log.Warn().Err(err).Msg("no history for fallback volatility")
		return 0
	}
	vol, err := models.HistoricalVolatility(tradier.Bars(days), window, cfg.VolEstimator())
	if err != nil {
		log.Warn().Err(err).Msg("no fallback volatility")
		return 0
	}
	log.Info().Str("estimator", string(cfg.VolEstimator())).Int("window", window).Float64("volatility", vol).Msg("fallback volatility")
	return vol
}

func workers(cfg *config.Config, log zerolog.Logger) int {
	if cfg.Pricing.Workers > 0 {
		return cfg.Pricing.Workers
	}
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		log.Warn().Err(err).Msg("cannot count CPUs, evaluating serially")
		return 1
	}
	log.Debug().Int("cpus", n).Msg("sizing workers from CPU count")
	return n
}

type progress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newProgress(total int64) *progress {
	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(total,
		mpb.PrependDecorators(
			decor.Name("Progress"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)
	return &progress{p: p, bar: bar}
}

func (pr *progress) increment() {
	pr.bar.Increment()
}

// finish waits for the bar to render. A bar with a positive total completes
// by itself once its increments land; SetTotal only completes an empty one.
func (pr *progress) finish(err error) {
	if err != nil {
		pr.bar.Abort(false)
	} else {
		pr.bar.SetTotal(-1, true)
	}
	pr.p.Wait()
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	b = append(b, '\n')
	if path == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
