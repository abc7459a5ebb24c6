package tradier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			http.Error(w, "bad accept header", http.StatusNotAcceptable)
			return
		}
		key := r.URL.Path
		if exp := r.URL.Query().Get("expiration"); exp != "" {
			key += "?" + exp
		}
		body, ok := routes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient("test-token", srv.URL+"/")
}

func TestLastClose(t *testing.T) {
	c := newTestServer(t, map[string]string{
		"/markets/history": `{"history":{"day":[{"date":"2024-03-07","close":510.1},{"date":"2024-03-08","close":512.3}]}}`,
	})
	got, err := c.LastClose(context.Background(), "SPY", time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if got != 512.3 {
		t.Errorf("LastClose = %g, want 512.3", got)
	}
}

func TestHistorySingleDayAndEmpty(t *testing.T) {
	c := newTestServer(t, map[string]string{
		"/markets/history": `{"history":{"day":{"date":"2024-03-08","close":99.5}}}`,
	})
	bars, err := c.History(context.Background(), "X", time.Now(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 1 || bars[0].Close != 99.5 {
		t.Errorf("bars = %+v", bars)
	}

	c = newTestServer(t, map[string]string{"/markets/history": `{"history":null}`})
	if _, err := c.LastClose(context.Background(), "X", time.Now()); err == nil {
		t.Error("expected an error without history")
	}
}

func TestExpirations(t *testing.T) {
	c := newTestServer(t, map[string]string{
		"/markets/options/expirations": `{"expirations":{"date":["2024-03-15","2024-03-22"]}}`,
	})
	got, err := c.Expirations(context.Background(), "SPY")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "2024-03-15" {
		t.Errorf("expirations = %v", got)
	}
}

func TestChainShapes(t *testing.T) {
	c := newTestServer(t, map[string]string{
		"/markets/options/chains?2024-03-15": `{"options":{"option":[
			{"symbol":"SPY240315C00510000","strike":510,"option_type":"call","expiration_date":"2024-03-15","greeks":{"mid_iv":0.14}},
			{"symbol":"SPY240315P00510000","strike":510,"option_type":"put","expiration_date":"2024-03-15","greeks":null}
		]}}`,
		"/markets/options/chains?2024-03-22": `{"options":{"option":{"symbol":"SPY240322C00520000","strike":520,"option_type":"call","expiration_date":"2024-03-22"}}}`,
		"/markets/options/chains?2024-03-29": `{"options":null}`,
	})
	tests := []struct {
		exp  string
		want int
	}{
		{"2024-03-15", 2},
		{"2024-03-22", 1},
		{"2024-03-29", 0},
	}
	for _, tt := range tests {
		opts, err := c.Chain(context.Background(), "SPY", tt.exp)
		if err != nil {
			t.Fatalf("%s: %v", tt.exp, err)
		}
		if len(opts) != tt.want {
			t.Errorf("%s: %d options, want %d", tt.exp, len(opts), tt.want)
		}
	}
}

func TestChainsFiltersByDaysToExpiry(t *testing.T) {
	c := newTestServer(t, map[string]string{
		"/markets/options/expirations":       `{"expirations":{"date":["2024-03-04","2024-03-15","2024-05-17"]}}`,
		"/markets/options/chains?2024-03-15": `{"options":{"option":[{"symbol":"A","strike":1,"option_type":"call","expiration_date":"2024-03-15"}]}}`,
	})
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	chains, err := c.Chains(context.Background(), "SPY", 5, 45, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(chains) != 1 || len(chains["2024-03-15"]) != 1 {
		t.Errorf("chains = %v", chains)
	}
}

func TestStatusError(t *testing.T) {
	c := newTestServer(t, nil)
	c.Token = "wrong"
	_, err := c.Expirations(context.Background(), "SPY")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 StatusError", err)
	}
}

func TestCancelledRequest(t *testing.T) {
	c := newTestServer(t, map[string]string{"/markets/options/expirations": `{}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Expirations(ctx, "SPY"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want %v", err, context.Canceled)
	}
}
