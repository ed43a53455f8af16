package models

type MarketConfig struct {
	MoralisEndpoint       string  `yaml:"moralisEndpoint" json:"moralisEndpoint"`
	MoralisApiKey         string  `yaml:"moralisApiKey" json:"-"`
	CoinGeckoEndpoint     string  `yaml:"coinGeckoEndpoint" json:"coinGeckoEndpoint"`
	GeckoTerminalEndpoint string  `yaml:"geckoTerminalEndpoint" json:"geckoTerminalEndpoint"`
	Timeout               float64 `yaml:"timeout" json:"timeout"`
	PerSecond             int     `yaml:"perSecond" json:"perSecond"`
}

type BaseConfig struct {
	Listen      string `yaml:"listen" json:"listen"`
	Database    string `yaml:"database" json:"database"`
	Secret      string `yaml:"secret" json:"-"`
	BotInstance string `yaml:"botInstance" json:"botInstance"`
}

// Config is the dashboard's own configuration file. Defaults seeds the
// store with entries that do not exist yet.
type Config struct {
	BaseConfig `yaml:",inline"`
	Market     MarketConfig            `yaml:"market"`
	Defaults   map[Table][]ConfigEntry `yaml:"defaults"`
}
