package models

import (
	"math"
	"testing"
	"time"
)

func TestParseOptionType(t *testing.T) {
	tests := []struct {
		in   string
		want OptionType
		ok   bool
	}{
		{"call", Call, true},
		{" PUT ", Put, true},
		{"c", Call, true},
		{"P", Put, true},
		{"straddle", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseOptionType(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseOptionType(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseOptionType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOptionTypeText(t *testing.T) {
	var typ OptionType
	if err := typ.UnmarshalText([]byte("put")); err != nil || typ != Put {
		t.Fatalf("UnmarshalText = %v, %v", typ, err)
	}
	b, err := Call.MarshalText()
	if err != nil || string(b) != "call" {
		t.Fatalf("MarshalText = %q, %v", b, err)
	}
	if err := typ.UnmarshalText([]byte("future")); err == nil {
		t.Fatal("expected an error for an unknown type")
	}
}

func TestExpirationClose(t *testing.T) {
	tests := []struct {
		date string
		utc  time.Time
	}{
		// EST, UTC-5
		{"2024-01-19", time.Date(2024, 1, 19, 21, 0, 0, 0, time.UTC)},
		// EDT, UTC-4
		{"2024-07-19", time.Date(2024, 7, 19, 20, 0, 0, 0, time.UTC)},
		// DST starts that morning
		{"2024-03-10", time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ExpirationClose(tt.date)
		if err != nil {
			t.Fatalf("ExpirationClose(%q): %v", tt.date, err)
		}
		if !got.Equal(tt.utc) {
			t.Errorf("ExpirationClose(%q) = %v, want %v", tt.date, got.UTC(), tt.utc)
		}
	}
	if _, err := ExpirationClose("19/01/2024"); err == nil {
		t.Error("expected an error for a malformed date")
	}
}

func TestTimeToMaturity(t *testing.T) {
	val := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		exp  time.Time
		want float64
	}{
		{val.Add(365 * 24 * time.Hour), 1},
		{val.Add(73 * 24 * time.Hour), 0.2},
		{val.Add(12 * time.Hour), 0.5 / 365},
		{val, 0},
		{val.Add(-24 * time.Hour), -1.0 / 365},
	}
	for _, tt := range tests {
		if got := TimeToMaturity(tt.exp, val); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("TimeToMaturity(%v) = %g, want %g", tt.exp, got, tt.want)
		}
	}
}

func TestNewParams(t *testing.T) {
	val := time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)
	c := OptionContract{Strike: 105, Expiration: val.Add(182 * 24 * time.Hour), Type: Put}
	m := MarketState{Spot: 99, Rate: 0.04, DividendYield: 0.015, Volatility: 0.31, Valuation: val}
	p := NewParams(c, m)
	want := Params{Spot: 99, Strike: 105, Maturity: 182.0 / 365, Rate: 0.04, Dividend: 0.015, Volatility: 0.31, Type: Put}
	if math.Abs(p.Maturity-want.Maturity) > 1e-12 {
		t.Fatalf("maturity = %g, want %g", p.Maturity, want.Maturity)
	}
	p.Maturity = want.Maturity
	if p != want {
		t.Fatalf("NewParams = %+v, want %+v", p, want)
	}
}

func TestParamsWithAndAt(t *testing.T) {
	p := Params{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2}
	for _, axis := range []Axis{AxisSpot, AxisMaturity, AxisVolatility} {
		q := p.With(axis, 7)
		if q.At(axis) != 7 {
			t.Errorf("%v: At = %g after With", axis, q.At(axis))
		}
		if p.At(axis) == 7 {
			t.Errorf("%v: With modified the receiver", axis)
		}
		q = q.With(axis, p.At(axis))
		if q != p {
			t.Errorf("%v: With touched another field: %+v", axis, q)
		}
	}
	if !math.IsNaN(p.At(Axis(42))) {
		t.Error("At on an unknown axis should be NaN")
	}
}

func TestIntrinsicValue(t *testing.T) {
	tests := []struct {
		typ          OptionType
		spot, strike float64
		want         float64
	}{
		{Call, 110, 100, 10},
		{Call, 90, 100, 0},
		{Put, 90, 100, 10},
		{Put, 110, 100, 0},
		{Put, 100, 100, 0},
	}
	for _, tt := range tests {
		p := Params{Spot: tt.spot, Strike: tt.strike, Type: tt.typ}
		if got := IntrinsicValue(p); got != tt.want {
			t.Errorf("IntrinsicValue(%v S=%g K=%g) = %g, want %g", tt.typ, tt.spot, tt.strike, got, tt.want)
		}
	}
}
