package tradier

import (
	"bytes"

	"github.com/xhhuango/json"
)

type QuoteHistory struct {
	History *struct {
		Day days `json:"day"`
	} `json:"history"`
}

type Day struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int     `json:"volume"`
}

type OptionExpirations struct {
	Expirations *struct {
		Date dates `json:"date"`
	} `json:"expirations"`
}

type Option struct {
	Symbol         string  `json:"symbol"`
	Description    string  `json:"description"`
	Underlying     string  `json:"underlying"`
	Strike         float64 `json:"strike"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Volume         int     `json:"volume"`
	OpenInterest   int     `json:"open_interest"`
	ContractSize   int     `json:"contract_size"`
	ExpirationDate string  `json:"expiration_date"`
	ExpirationType string  `json:"expiration_type"`
	OptionType     string  `json:"option_type"`
	RootSymbol     string  `json:"root_symbol"`
	Greeks         *Greeks `json:"greeks"`
}

// Greeks are the broker's own figures, as published with the chain.
type Greeks struct {
	Delta     float64 `json:"delta"`
	Gamma     float64 `json:"gamma"`
	Theta     float64 `json:"theta"`
	Vega      float64 `json:"vega"`
	Rho       float64 `json:"rho"`
	Phi       float64 `json:"phi"`
	BidIv     float64 `json:"bid_iv"`
	MidIv     float64 `json:"mid_iv"`
	AskIv     float64 `json:"ask_iv"`
	SmvVol    float64 `json:"smv_vol"`
	UpdatedAt string  `json:"updated_at"`
}

type OptionChain struct {
	Options *struct {
		Option options `json:"option"`
	} `json:"options"`
}

// The API collapses one-element arrays into a bare object and reports an
// empty list as null, so the list types below accept all three shapes.

type days []Day

func (d *days) UnmarshalJSON(b []byte) error {
	return unmarshalOneOrMany(b, (*[]Day)(d))
}

type dates []string

func (d *dates) UnmarshalJSON(b []byte) error {
	return unmarshalOneOrMany(b, (*[]string)(d))
}

type options []Option

func (o *options) UnmarshalJSON(b []byte) error {
	return unmarshalOneOrMany(b, (*[]Option)(o))
}

func unmarshalOneOrMany[T any](b []byte, dst *[]T) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*dst = nil
		return nil
	case len(b) > 0 && b[0] == '[':
		return json.Unmarshal(b, dst)
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*dst = []T{one}
	return nil
}
