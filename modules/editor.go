package modules

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/CapsLock-Studio/sniper-dashboard/strategy"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	NEW_LEVEL_TRIGGER float64 = 2
	NEW_LEVEL_PERCENT float64 = 10
)

// Snapshot is one load of every editable table.
type Snapshot struct {
	Bot       []models.ConfigEntry `json:"bot"`
	Strategy  []models.ConfigEntry `json:"strategy"`
	Wallets   []models.ConfigEntry `json:"wallets"`
	Whales    []models.ConfigEntry `json:"whales"`
	Selection strategy.Selection   `json:"selection"`
}

// Editor validates and normalizes edits before they reach the store. Every
// commit is independent; a rejected field never blocks another one.
type Editor struct {
	Store  ConfigStore
	Logger *logrus.Entry
}

func NewEditor(store ConfigStore) *Editor {
	return &Editor{
		Store:  store,
		Logger: logrus.WithField("module", "editor"),
	}
}

func (e *Editor) Load(ctx context.Context) (*Snapshot, error) {
	bot, err := e.Store.ListAll(ctx, models.TableBotConfig)
	if err != nil {
		return nil, err
	}

	all, err := e.Store.ListAll(ctx, models.TableStrategyConfig)
	if err != nil {
		return nil, err
	}

	whales, err := e.Store.ListAll(ctx, models.TableWhaleWallets)
	if err != nil {
		return nil, err
	}

	wallets, params := lo.FilterReject(all, func(entry models.ConfigEntry, _ int) bool {
		return strategy.KeyNamespace(entry.Key) == strategy.NamespaceWallet
	})

	return &Snapshot{
		Bot:       bot,
		Strategy:  params,
		Wallets:   wallets,
		Whales:    whales,
		Selection: strategy.SelectionFrom(append(append([]models.ConfigEntry{}, bot...), params...)),
	}, nil
}

func (e *Editor) reject(table models.Table, err error) error {
	rule := strategy.RuleOf(err)
	validationRejections.WithLabelValues(string(rule)).Inc()
	configCommits.WithLabelValues(string(table), "rejected").Inc()

	e.Logger.
		WithField("table", table).
		WithField("rule", rule).
		Info(err.Error())

	return err
}

func (e *Editor) save(ctx context.Context, table models.Table, key, value string, description *string) error {
	if err := e.Store.Upsert(ctx, table, key, value, description); err != nil {
		configCommits.WithLabelValues(string(table), "failed").Inc()
		e.Logger.
			WithField("table", table).
			WithField("key", key).
			WithError(err).
			Error("could not save")

		return err
	}

	configCommits.WithLabelValues(string(table), "saved").Inc()

	return nil
}

// Commit validates raw for key, normalizes it and writes it. It returns the
// persisted value. Validation failures come back as *strategy.ValidationError
// and nothing is written; store failures come back as *StoreError.
func (e *Editor) Commit(ctx context.Context, table models.Table, key, raw string) (string, error) {
	if table == models.TableWhaleWallets {
		return "", fmt.Errorf("%w: whale wallets are edited by address", ErrUnknownTable)
	}

	if err := checkTable(table); err != nil {
		return "", err
	}

	if err := strategy.ValidateScalar(key, raw); err != nil {
		return "", e.reject(table, err)
	}

	if strategy.Classify(key) == strategy.KindWalletAddress {
		if err := strategy.ValidateWalletAddress(key, raw); err != nil {
			return "", e.reject(table, err)
		}
	}

	if strategy.Classify(key) == strategy.KindTakeProfitList {
		if _, dropped := strategy.DecodeTakeProfitList(raw); dropped > 0 {
			droppedLevels.Add(float64(dropped))
			e.Logger.
				WithField("key", key).
				WithField("dropped", dropped).
				Warn("dropped malformed take-profit levels")
		}
	}

	value := strategy.Normalize(key, raw)

	if err := e.save(ctx, table, key, value, nil); err != nil {
		return "", err
	}

	return value, nil
}

// Describe edits the help text of an existing entry without touching its value.
func (e *Editor) Describe(ctx context.Context, table models.Table, key, description string) error {
	entry, err := e.Store.Get(ctx, table, key)
	if err != nil {
		return err
	}

	return e.save(ctx, table, key, entry.Value, &description)
}

func (e *Editor) levels(ctx context.Context, key string) ([]strategy.TakeProfitLevel, error) {
	if strategy.Classify(key) != strategy.KindTakeProfitList {
		return nil, ErrNotList
	}

	entry, err := e.Store.Get(ctx, models.TableStrategyConfig, key)
	if errors.Is(err, ErrNotFound) {
		return []strategy.TakeProfitLevel{}, nil
	}

	if err != nil {
		return nil, err
	}

	return strategy.ParseTakeProfitList(entry.Value), nil
}

func (e *Editor) writeLevels(ctx context.Context, key string, levels []strategy.TakeProfitLevel) error {
	value, err := strategy.EncodeTakeProfitList(levels)
	if err != nil {
		configCommits.WithLabelValues(string(models.TableStrategyConfig), "failed").Inc()

		return storeError("encode", models.TableStrategyConfig, key, err)
	}

	return e.save(ctx, models.TableStrategyConfig, key, value, nil)
}

// EditLevel validates one field of one take-profit level and persists the
// whole list. On failure the stored list is left as it was.
func (e *Editor) EditLevel(ctx context.Context, key string, index int, field, raw string) ([]strategy.TakeProfitLevel, error) {
	levels, err := e.levels(ctx, key)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(levels) {
		return nil, ErrLevelIndex
	}

	updated, err := strategy.ValidateTakeProfitLevelEdit(levels[index], field, raw)
	if err != nil {
		var v *strategy.ValidationError
		if errors.As(err, &v) {
			v.Key = key
		}

		return nil, e.reject(models.TableStrategyConfig, err)
	}

	levels[index] = updated

	if err := e.writeLevels(ctx, key, levels); err != nil {
		return nil, err
	}

	return levels, nil
}

func (e *Editor) AddLevel(ctx context.Context, key string) ([]strategy.TakeProfitLevel, error) {
	levels, err := e.levels(ctx, key)
	if err != nil {
		return nil, err
	}

	level := strategy.TakeProfitLevel{Percent: NEW_LEVEL_PERCENT}
	if strategy.TriggerField(key) == strategy.FIELD_RATIO {
		level.Ratio = lo.ToPtr(NEW_LEVEL_TRIGGER)
	} else {
		level.Multiple = lo.ToPtr(NEW_LEVEL_TRIGGER)
	}

	levels = append(levels, level)

	if err := e.writeLevels(ctx, key, levels); err != nil {
		return nil, err
	}

	return levels, nil
}

func (e *Editor) RemoveLevel(ctx context.Context, key string, index int) ([]strategy.TakeProfitLevel, error) {
	levels, err := e.levels(ctx, key)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(levels) {
		return nil, ErrLevelIndex
	}

	levels = append(levels[:index], levels[index+1:]...)

	if err := e.writeLevels(ctx, key, levels); err != nil {
		return nil, err
	}

	return levels, nil
}

// AddWallet stores a followed wallet as the next whale_wallet_<n> entry.
func (e *Editor) AddWallet(ctx context.Context, address string) (string, error) {
	address = strings.TrimSpace(address)

	if err := strategy.ValidateWalletAddress(strategy.WALLET_KEY_PREFIX, address); err != nil {
		return "", e.reject(models.TableStrategyConfig, err)
	}

	entries, err := e.Store.ListAll(ctx, models.TableStrategyConfig)
	if err != nil {
		return "", err
	}

	next := 1
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Key, strategy.WALLET_KEY_PREFIX) {
			continue
		}

		if n, err := strconv.Atoi(strings.TrimPrefix(entry.Key, strategy.WALLET_KEY_PREFIX)); err == nil && n >= next {
			next = n + 1
		}
	}

	key := strategy.WALLET_KEY_PREFIX + strconv.Itoa(next)

	if err := e.save(ctx, models.TableStrategyConfig, key, address, nil); err != nil {
		return "", err
	}

	return key, nil
}

// DeleteWallet removes a whale_wallet_* entry. Nothing else is ever deleted.
func (e *Editor) DeleteWallet(ctx context.Context, key string) error {
	if strategy.KeyNamespace(key) != strategy.NamespaceWallet {
		return ErrNotDeletable
	}

	return e.Store.Delete(ctx, models.TableStrategyConfig, key)
}

func (e *Editor) AddWhale(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)

	if err := strategy.ValidateWalletAddress("address", address); err != nil {
		return e.reject(models.TableWhaleWallets, err)
	}

	return e.save(ctx, models.TableWhaleWallets, address, strconv.FormatBool(true), nil)
}

func (e *Editor) ToggleWhale(ctx context.Context, address string, active bool) error {
	if _, err := e.Store.Get(ctx, models.TableWhaleWallets, address); err != nil {
		return err
	}

	return e.save(ctx, models.TableWhaleWallets, address, strconv.FormatBool(active), nil)
}

func (e *Editor) DeleteWhale(ctx context.Context, address string) error {
	return e.Store.Delete(ctx, models.TableWhaleWallets, address)
}
