package strategy

import "strings"

const (
	KEY_ACTIVE_STRATEGY string = "active_strategy"
	KEY_RECOVER_INITIAL string = "trailing_recover_initial_at_multiple"
	WALLET_KEY_PREFIX   string = "whale_wallet_"
	TRAILING_KEY_PREFIX string = "trailing_"
	SIMPLE_KEY_PREFIX   string = "simple_"
	DISABLED_SENTINEL   string = "null"
	MIN_WALLET_ADDRESS  int    = 32
	CUSHION_FRAGMENT    string = "cushion"
)

// Kind is the semantic type of a configuration parameter.
type Kind int

const (
	KindFreeText Kind = iota
	KindRecoverMultiple
	KindStrategySelector
	KindTakeProfitList
	KindStopLossRatio
	KindCushion
	KindGenericRatio
	KindPercent
	KindWalletAddress
)

func (k Kind) String() string {
	switch k {
	case KindRecoverMultiple:
		return "recover_multiple"
	case KindStrategySelector:
		return "strategy_selector"
	case KindTakeProfitList:
		return "take_profit_list"
	case KindStopLossRatio:
		return "stop_loss_ratio"
	case KindCushion:
		return "cushion"
	case KindGenericRatio:
		return "ratio"
	case KindPercent:
		return "percent"
	case KindWalletAddress:
		return "wallet_address"
	default:
		return "text"
	}
}

// Classify derives the parameter kind from its key. The order of the checks
// matters: exact keys first, then list keys, then substring families.
func Classify(key string) Kind {
	switch {
	case key == KEY_RECOVER_INITIAL:
		return KindRecoverMultiple
	case key == KEY_ACTIVE_STRATEGY:
		return KindStrategySelector
	case strings.Contains(key, "take_profit_levels"), strings.Contains(key, "take_profit_steps"):
		return KindTakeProfitList
	case strings.Contains(key, "stop_loss_ratio"):
		return KindStopLossRatio
	case strings.Contains(key, CUSHION_FRAGMENT):
		return KindCushion
	case strings.Contains(key, "ratio"), strings.Contains(key, "multiple"):
		return KindGenericRatio
	case strings.Contains(key, "percent"):
		return KindPercent
	case strings.HasPrefix(key, WALLET_KEY_PREFIX):
		return KindWalletAddress
	}

	return KindFreeText
}
