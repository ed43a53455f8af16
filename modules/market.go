package modules

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/bytedance/sonic"
	"github.com/parnurzeal/gorequest"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

const (
	MORALIS_ENDPOINT       string = "https://solana-gateway.moralis.io"
	MORALIS_METADATA       string = "/token/mainnet/%s/metadata"
	MORALIS_HOLDERS        string = "/token/mainnet/holders/%s"
	COINGECKO_ENDPOINT     string = "https://api.coingecko.com/api/v3"
	COINGECKO_SIMPLE_PRICE string = "/simple/price"
	GECKOTERMINAL_ENDPOINT string = "https://api.geckoterminal.com/api/v2"
	GECKOTERMINAL_OHLCV    string = "/networks/solana/pools/%s/ohlcv/minute"

	DEFAULT_TIMEOUT    float64 = 10
	DEFAULT_PER_SECOND int     = 5
	OHLCV_AGGREGATE    string  = "15"
	OHLCV_LIMIT        string  = "48"
	ENRICH_PARALLEL    int     = 4

	SOURCE_METADATA string = "metadata"
	SOURCE_HOLDERS  string = "holders"
	SOURCE_PRICE    string = "price"
	SOURCE_OHLCV    string = "ohlcv"
)

// MarketDataClient fetches third-party market data. Every call is best
// effort: failures are logged and degrade to a default value.
type MarketDataClient interface {
	TokenMetadata(mint string) models.TokenMetadata
	HolderCount(mint string) int
	SolPrice() float64
	OHLCV(pair string) []models.Candle
	Enrich(mints []string) map[string]models.TokenMetadata
}

type Market struct {
	Setting     models.MarketConfig
	RateLimiter ratelimit.Limiter
	Logger      *logrus.Entry
}

func NewMarket(setting models.MarketConfig, ratelimiter ratelimit.Limiter) *Market {
	if setting.MoralisEndpoint == "" {
		setting.MoralisEndpoint = MORALIS_ENDPOINT
	}

	if setting.CoinGeckoEndpoint == "" {
		setting.CoinGeckoEndpoint = COINGECKO_ENDPOINT
	}

	if setting.GeckoTerminalEndpoint == "" {
		setting.GeckoTerminalEndpoint = GECKOTERMINAL_ENDPOINT
	}

	if setting.Timeout <= 0 {
		setting.Timeout = DEFAULT_TIMEOUT
	}

	return &Market{
		Setting:     setting,
		RateLimiter: ratelimiter,
		Logger:      logrus.WithField("module", "market"),
	}
}

func (m *Market) MakeRequest(
	endpoint,
	path string,
	query map[string]string,
) *gorequest.SuperAgent {
	if len(query) > 0 {
		params := url.Values{}

		for key, value := range query {
			params.Add(key, value)
		}

		path += "?" + params.Encode()
	}

	req := gorequest.
		New().
		Get(strings.TrimRight(endpoint, "/")+path).
		Timeout(time.Duration(m.Setting.Timeout*float64(time.Second))).
		Set("Accept", "application/json")

	if endpoint == m.Setting.MoralisEndpoint && m.Setting.MoralisApiKey != "" {
		req.Set("X-API-Key", m.Setting.MoralisApiKey)
	}

	return req
}

func (m *Market) fetch(source, endpoint, path string, query map[string]string, v any) error {
	if m.RateLimiter != nil {
		m.RateLimiter.Take()
	}

	resp, body, errs := m.MakeRequest(endpoint, path, query).EndBytes()

	var err error
	switch {
	case len(errs) > 0:
		err = errors.Join(errs...)
	case resp == nil:
		err = errors.New("empty response")
	case resp.StatusCode != http.StatusOK:
		err = fmt.Errorf("%s returned %d", source, resp.StatusCode)
	default:
		err = sonic.Unmarshal(body, v)
	}

	if err != nil {
		marketFailures.WithLabelValues(source).Inc()
		m.Logger.
			WithField("source", source).
			WithField("path", path).
			WithError(err).
			Warn("market data unavailable")
	}

	return err
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return 0
		}

		f, _ := d.Float64()

		return f
	}

	return 0
}

func (m *Market) TokenMetadata(mint string) models.TokenMetadata {
	var body struct {
		Name              string         `json:"name"`
		Symbol            string         `json:"symbol"`
		Logo              string         `json:"logo"`
		Decimals          any            `json:"decimals"`
		Links             map[string]any `json:"links"`
		FullyDilutedValue any            `json:"fullyDilutedValue"`
	}

	result := models.UnknownToken()

	if err := m.fetch(SOURCE_METADATA, m.Setting.MoralisEndpoint, fmt.Sprintf(MORALIS_METADATA, mint), nil, &body); err != nil {
		return result
	}

	if body.Name != "" {
		result.Name = body.Name
	}

	if body.Symbol != "" {
		result.Symbol = body.Symbol
	}

	result.Logo = body.Logo
	result.Decimals = int(toFloat(body.Decimals))
	result.FullyDilutedValue = toFloat(body.FullyDilutedValue)

	for key, value := range body.Links {
		if link, ok := value.(string); ok {
			result.Links[key] = link
		}
	}

	return result
}

func (m *Market) HolderCount(mint string) int {
	var body struct {
		TotalHolders int `json:"totalHolders"`
	}

	if err := m.fetch(SOURCE_HOLDERS, m.Setting.MoralisEndpoint, fmt.Sprintf(MORALIS_HOLDERS, mint), nil, &body); err != nil {
		return 0
	}

	return body.TotalHolders
}

// SolPrice is the SOL/USD price, or 0 when it cannot be fetched.
func (m *Market) SolPrice() float64 {
	var body map[string]map[string]float64

	query := map[string]string{
		"ids":           "solana",
		"vs_currencies": "usd",
	}

	if err := m.fetch(SOURCE_PRICE, m.Setting.CoinGeckoEndpoint, COINGECKO_SIMPLE_PRICE, query, &body); err != nil {
		return 0
	}

	return body["solana"]["usd"]
}

// OHLCV returns candles for a pool address, oldest first.
func (m *Market) OHLCV(pair string) []models.Candle {
	var body struct {
		Data struct {
			Attributes struct {
				OhlcvList [][]float64 `json:"ohlcv_list"`
			} `json:"attributes"`
		} `json:"data"`
	}

	query := map[string]string{
		"aggregate": OHLCV_AGGREGATE,
		"limit":     OHLCV_LIMIT,
	}

	if err := m.fetch(SOURCE_OHLCV, m.Setting.GeckoTerminalEndpoint, fmt.Sprintf(GECKOTERMINAL_OHLCV, pair), query, &body); err != nil {
		return []models.Candle{}
	}

	candles := lo.FilterMap(body.Data.Attributes.OhlcvList, func(row []float64, _ int) (models.Candle, bool) {
		if len(row) < 6 {
			return models.Candle{}, false
		}

		return models.Candle{
			Time:   time.Unix(int64(row[0]), 0).UTC(),
			Open:   row[1],
			High:   row[2],
			Low:    row[3],
			Close:  row[4],
			Volume: row[5],
		}, true
	})

	// the provider answers newest first
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles
}

// Enrich looks up metadata for every distinct mint concurrently. A failed
// lookup only affects its own mint.
func (m *Market) Enrich(mints []string) map[string]models.TokenMetadata {
	var (
		mu     sync.Mutex
		result = make(map[string]models.TokenMetadata, len(mints))
		g      errgroup.Group
	)

	g.SetLimit(ENRICH_PARALLEL)

	for _, mint := range lo.Uniq(mints) {
		mint := mint
		g.Go(func() error {
			metadata := m.TokenMetadata(mint)

			mu.Lock()
			result[mint] = metadata
			mu.Unlock()

			return nil
		})
	}

	g.Wait()

	return result
}
