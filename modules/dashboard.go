package modules

import (
	"context"
	"strings"
	"time"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Dashboard assembles the read-only views. Market data is optional
// everywhere: a failed fetch leaves defaults in place and never fails the view.
type Dashboard struct {
	DB       *DB
	Market   MarketDataClient
	Instance string
	Logger   *logrus.Entry
}

func NewDashboard(db *DB, market MarketDataClient, instance string) *Dashboard {
	return &Dashboard{
		DB:       db,
		Market:   market,
		Instance: instance,
		Logger:   logrus.WithField("module", "dashboard"),
	}
}

func (d *Dashboard) Heartbeat(ctx context.Context) (*models.Heartbeat, error) {
	return d.DB.GetHeartbeat(ctx, d.Instance)
}

func (d *Dashboard) TrackedTokens(ctx context.Context) ([]models.TrackedToken, error) {
	tokens, err := d.DB.GetTrackedTokens(ctx)
	if err != nil {
		return nil, err
	}

	enriched := d.Market.Enrich(lo.Map(tokens, func(t models.TrackedToken, _ int) string {
		return t.TokenMint
	}))

	for i := range tokens {
		tokens[i].Enriched = enriched[tokens[i].TokenMint]
	}

	return tokens, nil
}

// Trades returns the trade history with token metadata and USD values. The
// SOL price and the metadata are fetched at the same time.
func (d *Dashboard) Trades(ctx context.Context) ([]models.Trade, error) {
	trades, err := d.DB.GetTrades(ctx)
	if err != nil {
		return nil, err
	}

	var (
		solPrice float64
		enriched map[string]models.TokenMetadata
		g        errgroup.Group
	)

	g.Go(func() error {
		solPrice = d.Market.SolPrice()
		return nil
	})

	g.Go(func() error {
		enriched = d.Market.Enrich(lo.Map(trades, func(t models.Trade, _ int) string {
			return t.TokenMint
		}))
		return nil
	})

	g.Wait()

	for i := range trades {
		trades[i].Enriched = enriched[trades[i].TokenMint]
		PriceTrade(&trades[i], solPrice)
	}

	return trades, nil
}

// PriceTrade fills the USD columns of a trade and derives the price change
// when the bot did not record one.
func PriceTrade(t *models.Trade, solPrice float64) {
	sol := decimal.NewFromFloat(solPrice)
	buy := decimal.NewFromFloat(t.BuyPrice)
	sell := decimal.NewFromFloat(t.SellPrice)

	t.BuyUsd, _ = buy.Mul(sol).Float64()
	t.SellUsd, _ = sell.Mul(sol).Float64()
	t.ProfitUsd, _ = decimal.NewFromFloat(t.EstimatedProfitSol).Mul(sol).Float64()

	if t.PriceChangePercent == 0 && buy.IsPositive() && sell.IsPositive() {
		t.PriceChangePercent, _ = sell.
			Sub(buy).
			Div(buy).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			Float64()
	}
}

// Logs returns the latest bot logs, keeping only rows where any column
// contains filter (case-insensitive).
func (d *Dashboard) Logs(ctx context.Context, filter string) ([]models.BotLog, error) {
	logs, err := d.DB.GetLogs(ctx)
	if err != nil {
		return nil, err
	}

	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return logs, nil
	}

	return lo.Filter(logs, func(l models.BotLog, _ int) bool {
		return lo.SomeBy([]string{l.Type, l.Message, l.TokenMint, l.Sig, l.Data}, func(column string) bool {
			return strings.Contains(strings.ToLower(column), filter)
		})
	}), nil
}

func (d *Dashboard) EverBought(ctx context.Context) ([]models.EverBought, error) {
	tokens, err := d.DB.GetEverBought(ctx)
	if err != nil {
		return nil, err
	}

	enriched := d.Market.Enrich(lo.Map(tokens, func(t models.EverBought, _ int) string {
		return t.TokenMint
	}))

	for i := range tokens {
		tokens[i].Enriched = enriched[tokens[i].TokenMint]
	}

	return tokens, nil
}

// Insights needs the ever-bought row for mint; everything else is optional
// and fetched concurrently.
func (d *Dashboard) Insights(ctx context.Context, mint string) (*models.TokenInsight, error) {
	token, err := d.DB.GetEverBoughtToken(ctx, mint)
	if err != nil {
		return nil, err
	}

	insight := &models.TokenInsight{
		TokenMint:   token.TokenMint,
		Name:        token.Name,
		Symbol:      token.Symbol,
		Price:       token.Price,
		MarketCap:   token.MarketCap,
		Holders:     token.Holders,
		CreatedAt:   token.CreatedAt,
		Logs:        []models.BotLog{},
		Ohlcv:       []models.Candle{},
		SwapVolumes: []models.SwapVolume{},
	}

	var (
		metadata models.TokenMetadata
		holders  int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if logs, err := d.DB.GetTokenLogs(gctx, mint); err == nil {
			insight.Logs = logs
		} else {
			d.Logger.WithField("mint", mint).WithError(err).Warn("token logs unavailable")
		}
		return nil
	})

	g.Go(func() error {
		if candles, err := d.DB.GetOhlcv(gctx, mint); err == nil {
			insight.Ohlcv = candles
		} else {
			d.Logger.WithField("mint", mint).WithError(err).Warn("ohlcv unavailable")
		}
		return nil
	})

	g.Go(func() error {
		if volumes, err := d.DB.GetSwapVolume(gctx, mint); err == nil {
			insight.SwapVolumes = volumes
		} else {
			d.Logger.WithField("mint", mint).WithError(err).Warn("swap volume unavailable")
		}
		return nil
	})

	g.Go(func() error {
		metadata = d.Market.TokenMetadata(mint)
		return nil
	})

	if insight.Holders == 0 {
		g.Go(func() error {
			holders = d.Market.HolderCount(mint)
			return nil
		})
	}

	g.Wait()

	if insight.Name == "" {
		insight.Name = metadata.Name
	}

	if insight.Symbol == "" {
		insight.Symbol = metadata.Symbol
	}

	if insight.Holders == 0 {
		insight.Holders = holders
	}

	insight.Volume = lo.SumBy(insight.SwapVolumes, func(v models.SwapVolume) float64 {
		return v.Volume
	})

	return insight, nil
}

func (d *Dashboard) PriceHistory(ctx context.Context, mint string) ([]models.PricePoint, error) {
	return d.DB.GetPriceHistory(ctx, mint, time.Now().UTC())
}
