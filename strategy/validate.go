package strategy

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

var (
	zero         = decimal.Zero
	one          = decimal.NewFromInt(1)
	hundred      = decimal.NewFromInt(100)
	maxCushion   = decimal.RequireFromString("0.5")
	strategyKeys = []string{string(Trailing), string(Simple)}
)

var errNotFinite = errors.New("not a finite number")

// ParseNumber reads a decimal value that the bot can also read as a float64.
// NaN is rejected by the decimal parser; values that overflow or underflow a
// float64 are rejected here.
func ParseNumber(raw string) (decimal.Decimal, error) {
	n, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return n, err
	}

	if f, _ := n.Float64(); math.IsInf(f, 0) || (f == 0 && !n.IsZero()) {
		return n, errNotFinite
	}

	return n, nil
}

// ValidateScalar checks a proposed raw value against the rules of the key's
// kind. It returns nil or a *ValidationError.
func ValidateScalar(key, raw string) error {
	switch kind := Classify(key); kind {
	case KindRecoverMultiple:
		if strings.EqualFold(strings.TrimSpace(raw), DISABLED_SENTINEL) {
			return nil
		}

		if _, err := positive(key, raw); err != nil {
			return fail(key, InvalidNumber, "must be %q or a number greater than 0", DISABLED_SENTINEL)
		}

		return nil
	case KindStrategySelector:
		if !slices.Contains(strategyKeys, strings.ToLower(raw)) {
			return fail(key, InvalidEnum, "must be one of %s", strings.Join(strategyKeys, ", "))
		}

		return nil
	case KindStopLossRatio:
		n, err := positive(key, raw)
		if err != nil {
			return err
		}

		if !n.LessThan(one) {
			return fail(key, OutOfRange, "stop-loss ratio must be less than 1")
		}

		// a stop-loss cushion carries both bounds
		if strings.Contains(key, CUSHION_FRAGMENT) && n.GreaterThan(maxCushion) {
			return fail(key, OutOfRange, "cushion must be at most %s", maxCushion)
		}

		return nil
	case KindCushion:
		n, err := positive(key, raw)
		if err != nil {
			return err
		}

		if n.GreaterThan(maxCushion) {
			return fail(key, OutOfRange, "cushion must be at most %s", maxCushion)
		}

		return nil
	case KindGenericRatio:
		_, err := positive(key, raw)

		return err
	case KindPercent:
		return percent(key, raw)
	case KindTakeProfitList, KindWalletAddress, KindFreeText:
		return nil
	default:
		panic("strategy: unhandled kind " + kind.String())
	}
}

// ValidateWalletAddress only enforces the minimum length the dashboard has
// always asked for; no base58 or checksum validation is attempted.
func ValidateWalletAddress(key, address string) error {
	if len(strings.TrimSpace(address)) < MIN_WALLET_ADDRESS {
		return fail(key, InvalidAddress, "wallet address must be at least %d characters", MIN_WALLET_ADDRESS)
	}

	return nil
}

// Normalize returns the canonical persisted form of an already valid value.
func Normalize(key, raw string) string {
	switch Classify(key) {
	case KindRecoverMultiple:
		trimmed := strings.TrimSpace(raw)
		if strings.EqualFold(trimmed, DISABLED_SENTINEL) {
			return DISABLED_SENTINEL
		}

		return trimmed
	case KindStrategySelector:
		return strings.ToLower(raw)
	case KindStopLossRatio, KindCushion, KindGenericRatio, KindPercent, KindWalletAddress:
		return strings.TrimSpace(raw)
	case KindTakeProfitList:
		return SerializeTakeProfitList(ParseTakeProfitList(raw))
	}

	return raw
}

func positive(key, raw string) (decimal.Decimal, error) {
	n, err := ParseNumber(raw)
	if err != nil {
		return n, fail(key, InvalidNumber, "must be a finite number")
	}

	if !n.GreaterThan(zero) {
		return n, fail(key, InvalidNumber, "must be greater than 0")
	}

	return n, nil
}

func percent(key, raw string) error {
	n, err := ParseNumber(raw)
	if err != nil {
		return fail(key, InvalidNumber, "must be a finite number")
	}

	if n.LessThan(zero) || n.GreaterThan(hundred) {
		return fail(key, OutOfRange, "percent must be between 0 and 100")
	}

	return nil
}
