package dgreeksslack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bcdannyboy/dgreeks/models"
	"github.com/bcdannyboy/dgreeks/positions"
	"github.com/slack-go/slack"
)

const greeksUsage = "Usage: /greeks <call|put> <spot> <strike> <days> <vol> [rate] [dividend]"

// Defaults fill the optional /greeks arguments.
type Defaults struct {
	Rate     float64
	Dividend float64
}

type GreeksHandler struct {
	eval     *positions.Evaluator
	defaults Defaults
}

func NewGreeksHandler(eval *positions.Evaluator, defaults Defaults) *GreeksHandler {
	return &GreeksHandler{eval: eval, defaults: defaults}
}

func (h *GreeksHandler) HandleCommand(data slack.SlashCommand, p poster) error {
	params, err := ParseGreeksCommand(data.Text, h.defaults)
	if err != nil {
		_, _, perr := p.PostMessage(data.ChannelID,
			slack.MsgOptionText(fmt.Sprintf("%v\n%s", err, greeksUsage), false))
		return perr
	}

	var text string
	res, err := h.eval.EvaluateParams(params)
	if err != nil {
		text = fmt.Sprintf("Cannot price this option: %v", err)
	} else {
		text = FormatResult(params, res)
	}
	_, _, err = p.PostMessage(data.ChannelID, slack.MsgOptionText(text, false))
	return err
}

// ParseGreeksCommand reads "<call|put> <spot> <strike> <days> <vol> [rate]
// [dividend]". Days are calendar days to expiry.
func ParseGreeksCommand(text string, defaults Defaults) (models.Params, error) {
	args := strings.Fields(text)
	if len(args) < 5 || len(args) > 7 {
		return models.Params{}, fmt.Errorf("expected 5 to 7 arguments, got %d", len(args))
	}

	typ, err := models.ParseOptionType(args[0])
	if err != nil {
		return models.Params{}, err
	}

	names := []string{"spot", "strike", "days", "vol", "rate", "dividend"}
	vals := []float64{0, 0, 0, 0, defaults.Rate, defaults.Dividend}
	for i, a := range args[1:] {
		v, err := parseNumber(a, i >= 3)
		if err != nil {
			return models.Params{}, fmt.Errorf("invalid %s %q", names[i], a)
		}
		vals[i] = v
	}

	return models.Params{
		Spot:       vals[0],
		Strike:     vals[1],
		Maturity:   vals[2] / 365,
		Volatility: vals[3],
		Rate:       vals[4],
		Dividend:   vals[5],
		Type:       typ,
	}, nil
}

func parseNumber(s string, percent bool) (float64, error) {
	if percent && strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return v / 100, err
	}
	return strconv.ParseFloat(s, 64)
}

// FormatResult renders a result as a fixed-width block.
func FormatResult(p models.Params, res models.PricingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s S=%g K=%g T=%.4fy σ=%g r=%g q=%g\n", p.Type, p.Spot, p.Strike, p.Maturity, p.Volatility, p.Rate, p.Dividend)
	b.WriteString("```\n")
	fmt.Fprintf(&b, "%-6s %14.6f\n", models.Price, res.Price)
	for _, g := range models.AllGreeks {
		if v, ok := res.Greeks[g]; ok {
			fmt.Fprintf(&b, "%-6s %14.6f\n", g, v)
		}
	}
	b.WriteString("```")
	return b.String()
}
