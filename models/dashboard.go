package models

import "time"

// Rows written by the trading bot. The dashboard only reads them.

type Heartbeat struct {
	InstanceID        string    `json:"instance_id"`
	LastHeartbeat     time.Time `json:"last_heartbeat"`
	CurrentBalanceSol float64   `json:"current_balance_sol"`
	NumTrackedTokens  int       `json:"num_tracked_tokens"`
}

type TrackedToken struct {
	TokenMint string        `json:"token_mint"`
	BuyPrice  float64       `json:"buy_price"`
	BuySig    string        `json:"buy_sig"`
	BoughtAt  time.Time     `json:"bought_at"`
	Enriched  TokenMetadata `json:"enriched"`
}

type Trade struct {
	TokenMint          string        `json:"token_mint"`
	BuyPrice           float64       `json:"buy_price"`
	SellPrice          float64       `json:"sell_price"`
	PriceChangePercent float64       `json:"price_change_percent"`
	EstimatedProfitSol float64       `json:"estimated_profit_sol"`
	BuyTimestamp       *time.Time    `json:"buy_timestamp"`
	SellTimestamp      *time.Time    `json:"sell_timestamp"`
	TokenAmountSold    *string       `json:"token_amount_sold"`
	Decimals           *int          `json:"decimals"`
	Enriched           TokenMetadata `json:"enriched"`

	BuyUsd    float64 `json:"buy_usd"`
	SellUsd   float64 `json:"sell_usd"`
	ProfitUsd float64 `json:"profit_usd"`
}

type BotLog struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	TokenMint string    `json:"token_mint"`
	Sig       string    `json:"sig"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

type EverBought struct {
	TokenMint string        `json:"token_mint"`
	Name      string        `json:"name"`
	Symbol    string        `json:"symbol"`
	MarketCap float64       `json:"market_cap"`
	Holders   int           `json:"holders"`
	Price     float64       `json:"price"`
	CreatedAt time.Time     `json:"created_at"`
	Enriched  TokenMetadata `json:"enriched"`
}

type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type SwapVolume struct {
	Time   time.Time `json:"time"`
	Volume float64   `json:"volume"`
}

type TokenInsight struct {
	TokenMint   string       `json:"token_mint"`
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Price       float64      `json:"price"`
	MarketCap   float64      `json:"marketCap"`
	Holders     int          `json:"holders"`
	CreatedAt   time.Time    `json:"createdAt"`
	Volume      float64      `json:"volume"`
	Logs        []BotLog     `json:"logs"`
	Ohlcv       []Candle     `json:"ohlcv"`
	SwapVolumes []SwapVolume `json:"swapVolumes"`
}
