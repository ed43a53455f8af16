package models

import "time"

type TokenMetadata struct {
	Name              string            `json:"name"`
	Symbol            string            `json:"symbol"`
	Logo              string            `json:"logo"`
	Decimals          int               `json:"decimals"`
	Links             map[string]string `json:"links"`
	FullyDilutedValue float64           `json:"fullyDilutedValue"`
}

// UnknownToken is what a failed metadata lookup degrades to.
func UnknownToken() TokenMetadata {
	return TokenMetadata{
		Name:   "Unknown",
		Symbol: "UNK",
		Links:  map[string]string{},
	}
}

type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}
