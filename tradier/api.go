package tradier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xhhuango/json"
)

const DefaultBaseURL = "https://api.tradier.com/v1"

// Client reads market data from the Tradier brokerage API.
type Client struct {
	Token   string
	BaseURL string
	HTTP    *http.Client
}

func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Token:   token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tradier: unexpected status %d: %s", e.Code, e.Body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	r.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	r.Header.Add("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(r)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", path, err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response data: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(responseData))}
	}
	if err := json.Unmarshal(responseData, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// History returns daily bars for symbol between start and end, inclusive.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) ([]Day, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "daily")
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	q.Set("session_filter", "all")

	var h QuoteHistory
	if err := c.get(ctx, "/markets/history", q, &h); err != nil {
		return nil, err
	}
	if h.History == nil {
		return nil, nil
	}
	return h.History.Day, nil
}

// LastClose returns the most recent daily close of symbol on or before asOf.
func (c *Client) LastClose(ctx context.Context, symbol string, asOf time.Time) (float64, error) {
	bars, err := c.History(ctx, symbol, asOf.AddDate(0, 0, -14), asOf)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no price history for %s", symbol)
	}
	return bars[len(bars)-1].Close, nil
}

// Expirations lists the expiration dates listed for symbol, as 2006-01-02.
func (c *Client) Expirations(ctx context.Context, symbol string) ([]string, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("includeAllRoots", "true")

	var e OptionExpirations
	if err := c.get(ctx, "/markets/options/expirations", q, &e); err != nil {
		return nil, err
	}
	if e.Expirations == nil {
		return nil, nil
	}
	return e.Expirations.Date, nil
}

// Chain returns the options expiring on expiration, with the broker's greeks.
func (c *Client) Chain(ctx context.Context, symbol, expiration string) ([]Option, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("expiration", expiration)
	q.Set("greeks", "true")

	var oc OptionChain
	if err := c.get(ctx, "/markets/options/chains", q, &oc); err != nil {
		return nil, err
	}
	if oc.Options == nil {
		return nil, nil
	}
	return oc.Options.Option, nil
}

// Chains fetches every chain whose expiration is between minDTE and maxDTE
// calendar days after now, keyed by expiration date.
func (c *Client) Chains(ctx context.Context, symbol string, minDTE, maxDTE int, now time.Time) (map[string][]Option, error) {
	exps, err := c.Expirations(ctx, symbol)
	if err != nil {
		return nil, err
	}

	chains := make(map[string][]Option)
	for _, exp := range exps {
		expirationTime, err := time.Parse("2006-01-02", exp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expiration date: %w", err)
		}
		dte := int(expirationTime.Sub(now).Hours() / 24)
		if dte < minDTE || dte > maxDTE {
			continue
		}

		opts, err := c.Chain(ctx, symbol, exp)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", exp, err)
		}
		chains[exp] = opts
	}
	return chains, nil
}
