package strategy

import (
	"strings"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/samber/lo"
)

// Strategy is one of the two mutually exclusive sell strategies.
type Strategy string

const (
	Trailing Strategy = "trailing"
	Simple   Strategy = "simple"
)

// Namespace groups keys by prefix.
type Namespace string

const (
	NamespaceTrailing Namespace = "trailing"
	NamespaceSimple   Namespace = "simple"
	NamespaceWallet   Namespace = "wallet"
	NamespaceGlobal   Namespace = "global"
)

func KeyNamespace(key string) Namespace {
	switch {
	case strings.HasPrefix(key, TRAILING_KEY_PREFIX):
		return NamespaceTrailing
	case strings.HasPrefix(key, SIMPLE_KEY_PREFIX):
		return NamespaceSimple
	case strings.HasPrefix(key, WALLET_KEY_PREFIX):
		return NamespaceWallet
	}

	return NamespaceGlobal
}

// Selection is the active strategy as read from one loaded configuration
// snapshot. It is passed to whatever filters or renders parameters instead
// of being looked up again.
type Selection struct {
	Active Strategy `json:"active"`
	// Configured is false when the snapshot had no usable active_strategy
	// row and Active fell back to Trailing.
	Configured bool `json:"configured"`
}

func SelectionFrom(entries []models.ConfigEntry) Selection {
	entry, found := lo.Find(entries, func(e models.ConfigEntry) bool {
		return e.Key == KEY_ACTIVE_STRATEGY
	})

	if !found || ValidateScalar(entry.Key, entry.Value) != nil {
		return Selection{Active: Trailing}
	}

	return Selection{
		Active:     Strategy(Normalize(entry.Key, entry.Value)),
		Configured: true,
	}
}

// InEffect reports whether the external bot reads key under this selection.
// Global and wallet keys are always in effect; strategy keys only when their
// namespace matches the active strategy.
func (s Selection) InEffect(key string) bool {
	switch ns := KeyNamespace(key); ns {
	case NamespaceTrailing, NamespaceSimple:
		return string(ns) == string(s.Active)
	}

	return true
}

// Filter keeps the entries that are in effect, preserving order.
func (s Selection) Filter(entries []models.ConfigEntry) []models.ConfigEntry {
	return lo.Filter(entries, func(e models.ConfigEntry, _ int) bool {
		return s.InEffect(e.Key)
	})
}
