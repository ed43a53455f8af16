package models

// Table is one of the key/value tables the dashboard edits.
type Table string

const (
	TableBotConfig      Table = "bot_config"
	TableStrategyConfig Table = "strategy_config"
	TableWhaleWallets   Table = "whale_wallets"
)

var Tables = []Table{TableBotConfig, TableStrategyConfig, TableWhaleWallets}

// ConfigEntry is one persisted row. Value is always the canonical text form.
type ConfigEntry struct {
	Key         string `yaml:"key" json:"key"`
	Value       string `yaml:"value" json:"value"`
	Description string `yaml:"description" json:"description"`
}
