package modules

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/CapsLock-Studio/sniper-dashboard/strategy"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "suqh5sHtr8HyJ7q8scBimULPkPpA557prMG47xCHQfK"

// brokenStore reads fine and fails every write.
type brokenStore struct {
	ConfigStore
	writes int
}

func (s *brokenStore) Upsert(ctx context.Context, table models.Table, key, value string, description *string) error {
	s.writes++
	return storeError("save", table, key, errors.New("connection reset"))
}

func newTestEditor(t *testing.T) (*Editor, *DB) {
	t.Helper()

	db := newTestDB(t)

	return NewEditor(db), db
}

func storedValue(t *testing.T, db *DB, table models.Table, key string) string {
	t.Helper()

	entry, err := db.Get(context.Background(), table, key)
	require.NoError(t, err)

	return entry.Value
}

func TestCommitRejectsAndKeepsStoredValue(t *testing.T) {
	editor, db := newTestEditor(t)
	ctx := context.Background()

	_, err := editor.Commit(ctx, models.TableStrategyConfig, "trailing_cushion", "0.2")
	require.NoError(t, err)

	_, err = editor.Commit(ctx, models.TableStrategyConfig, "trailing_cushion", "0.6")
	assert.ErrorIs(t, err, strategy.ErrOutOfRange)
	assert.Equal(t, "0.2", storedValue(t, db, models.TableStrategyConfig, "trailing_cushion"))

	saved, err := editor.Commit(ctx, models.TableStrategyConfig, "trailing_cushion", " 0.25 ")
	require.NoError(t, err)
	assert.Equal(t, "0.25", saved)
	assert.Equal(t, "0.25", storedValue(t, db, models.TableStrategyConfig, "trailing_cushion"))
}

func TestCommitNormalizes(t *testing.T) {
	editor, db := newTestEditor(t)
	ctx := context.Background()

	saved, err := editor.Commit(ctx, models.TableStrategyConfig, strategy.KEY_RECOVER_INITIAL, "NULL")
	require.NoError(t, err)
	assert.Equal(t, "null", saved)

	saved, err = editor.Commit(ctx, models.TableStrategyConfig, "trailing_take_profit_levels", `[{"multiple":2,"percent":10},{"multiple":"x"}]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"multiple":2,"percent":10}]`, saved)
	assert.JSONEq(t, `[{"multiple":2,"percent":10}]`, storedValue(t, db, models.TableStrategyConfig, "trailing_take_profit_levels"))
}

func TestToggleStrategy(t *testing.T) {
	editor, _ := newTestEditor(t)
	ctx := context.Background()

	for key, raw := range map[string]string{
		"trailing_cushion":         "0.2",
		"simple_take_profit_ratio": "2",
		"active_strategy":          "trailing",
	} {
		_, err := editor.Commit(ctx, models.TableStrategyConfig, key, raw)
		require.NoError(t, err)
	}

	_, err := editor.Commit(ctx, models.TableBotConfig, "rpc_url", "https://rpc.example")
	require.NoError(t, err)

	snapshot, err := editor.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, strategy.Trailing, snapshot.Selection.Active)
	assert.True(t, snapshot.Selection.InEffect("trailing_cushion"))

	saved, err := editor.Commit(ctx, models.TableStrategyConfig, "active_strategy", "Simple")
	require.NoError(t, err)
	assert.Equal(t, "simple", saved)

	snapshot, err = editor.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, strategy.Selection{Active: strategy.Simple, Configured: true}, snapshot.Selection)
	assert.False(t, snapshot.Selection.InEffect("trailing_cushion"))

	keys := lo.Map(snapshot.Selection.Filter(snapshot.Strategy), func(e models.ConfigEntry, _ int) string {
		return e.Key
	})
	assert.Equal(t, []string{"active_strategy", "simple_take_profit_ratio"}, keys)
}

func TestCommitUnknownTable(t *testing.T) {
	editor, _ := newTestEditor(t)
	ctx := context.Background()

	_, err := editor.Commit(ctx, models.Table("users"), "name", "x")
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = editor.Commit(ctx, models.TableWhaleWallets, testAddress, "true")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestStoreFailureIsNotValidation(t *testing.T) {
	db := newTestDB(t)
	store := &brokenStore{ConfigStore: db}
	editor := NewEditor(store)
	ctx := context.Background()

	_, err := editor.Commit(ctx, models.TableStrategyConfig, "trailing_cushion", "0.9")
	assert.Equal(t, strategy.OutOfRange, strategy.RuleOf(err))
	assert.Equal(t, 0, store.writes)

	_, err = editor.Commit(ctx, models.TableStrategyConfig, "trailing_cushion", "0.2")
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, strategy.Rule(""), strategy.RuleOf(err))
	assert.Equal(t, 1, store.writes)
}

func TestTakeProfitLevels(t *testing.T) {
	editor, db := newTestEditor(t)
	ctx := context.Background()
	key := "trailing_take_profit_levels"

	levels, err := editor.AddLevel(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []strategy.TakeProfitLevel{{Multiple: lo.ToPtr(NEW_LEVEL_TRIGGER), Percent: NEW_LEVEL_PERCENT}}, levels)

	_, err = editor.EditLevel(ctx, key, 0, "multiple", "0.5")
	assert.ErrorIs(t, err, strategy.ErrOutOfRange)

	var v *strategy.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, key, v.Key)
	assert.Equal(t, "multiple", v.Field)
	assert.JSONEq(t, `[{"multiple":2,"percent":10}]`, storedValue(t, db, models.TableStrategyConfig, key))

	levels, err = editor.EditLevel(ctx, key, 0, "percent", "25")
	require.NoError(t, err)
	assert.Equal(t, 25.0, levels[0].Percent)

	_, err = editor.AddLevel(ctx, key)
	require.NoError(t, err)

	levels, err = editor.EditLevel(ctx, key, 1, "multiple", "4")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"multiple":2,"percent":25},{"multiple":4,"percent":10}]`, storedValue(t, db, models.TableStrategyConfig, key))
	assert.Len(t, levels, 2)

	_, err = editor.EditLevel(ctx, key, 2, "percent", "5")
	assert.ErrorIs(t, err, ErrLevelIndex)

	_, err = editor.RemoveLevel(ctx, key, -1)
	assert.ErrorIs(t, err, ErrLevelIndex)

	levels, err = editor.RemoveLevel(ctx, key, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"multiple":4,"percent":10}]`, storedValue(t, db, models.TableStrategyConfig, key))
	assert.Len(t, levels, 1)

	_, err = editor.AddLevel(ctx, "trailing_cushion")
	assert.ErrorIs(t, err, ErrNotList)
}

func TestEditLevelRejectsOverflow(t *testing.T) {
	editor, db := newTestEditor(t)
	ctx := context.Background()
	key := "trailing_take_profit_levels"
	stored := `[{"multiple":2,"percent":25},{"multiple":5,"percent":50}]`

	require.NoError(t, db.Upsert(ctx, models.TableStrategyConfig, key, stored, nil))

	for _, raw := range []string{"1e400", "-1e400", "1e-400"} {
		_, err := editor.EditLevel(ctx, key, 0, "multiple", raw)
		assert.ErrorIs(t, err, strategy.ErrInvalidNumber, raw)
		assert.JSONEq(t, stored, storedValue(t, db, models.TableStrategyConfig, key), raw)
	}

	err := editor.writeLevels(ctx, key, []strategy.TakeProfitLevel{{Multiple: lo.ToPtr(math.Inf(1)), Percent: 10}})

	var s *StoreError
	require.True(t, errors.As(err, &s))
	assert.Equal(t, "encode", s.Op)
	assert.JSONEq(t, stored, storedValue(t, db, models.TableStrategyConfig, key))
}

func TestSimpleLevelsUseRatio(t *testing.T) {
	editor, _ := newTestEditor(t)

	levels, err := editor.AddLevel(context.Background(), "simple_take_profit_steps")
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Nil(t, levels[0].Multiple)
	assert.Equal(t, NEW_LEVEL_TRIGGER, *levels[0].Ratio)
}

func TestWallets(t *testing.T) {
	editor, db := newTestEditor(t)
	ctx := context.Background()

	_, err := editor.AddWallet(ctx, "short")
	assert.ErrorIs(t, err, strategy.ErrInvalidAddress)

	key, err := editor.AddWallet(ctx, " "+testAddress+" ")
	require.NoError(t, err)
	assert.Equal(t, "whale_wallet_1", key)
	assert.Equal(t, testAddress, storedValue(t, db, models.TableStrategyConfig, key))

	require.NoError(t, db.Upsert(ctx, models.TableStrategyConfig, "whale_wallet_7", testAddress, nil))

	key, err = editor.AddWallet(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "whale_wallet_8", key)

	_, err = editor.Commit(ctx, models.TableStrategyConfig, "whale_wallet_1", "short")
	assert.ErrorIs(t, err, strategy.ErrInvalidAddress)

	snapshot, err := editor.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot.Wallets, 3)
	assert.Empty(t, snapshot.Strategy)

	assert.ErrorIs(t, editor.DeleteWallet(ctx, "trailing_cushion"), ErrNotDeletable)
	require.NoError(t, editor.DeleteWallet(ctx, "whale_wallet_7"))

	_, err = db.Get(ctx, models.TableStrategyConfig, "whale_wallet_7")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWhales(t *testing.T) {
	editor, db := newTestEditor(t)
	ctx := context.Background()

	assert.ErrorIs(t, editor.AddWhale(ctx, "short"), strategy.ErrInvalidAddress)

	require.NoError(t, editor.AddWhale(ctx, testAddress))
	assert.Equal(t, "true", storedValue(t, db, models.TableWhaleWallets, testAddress))

	require.NoError(t, editor.ToggleWhale(ctx, testAddress, false))
	assert.Equal(t, "false", storedValue(t, db, models.TableWhaleWallets, testAddress))

	assert.ErrorIs(t, editor.ToggleWhale(ctx, "unknown-whale-address-0000000000000", true), ErrNotFound)

	require.NoError(t, editor.DeleteWhale(ctx, testAddress))

	whales, err := db.ListAll(ctx, models.TableWhaleWallets)
	require.NoError(t, err)
	assert.Empty(t, whales)
}

func TestDescribe(t *testing.T) {
	editor, db := newTestEditor(t)
	ctx := context.Background()

	assert.ErrorIs(t, editor.Describe(ctx, models.TableStrategyConfig, "trailing_cushion", "help"), ErrNotFound)

	_, err := editor.Commit(ctx, models.TableStrategyConfig, "trailing_cushion", "0.2")
	require.NoError(t, err)
	require.NoError(t, editor.Describe(ctx, models.TableStrategyConfig, "trailing_cushion", "distance below peak"))

	entry, err := db.Get(ctx, models.TableStrategyConfig, "trailing_cushion")
	require.NoError(t, err)
	assert.Equal(t, models.ConfigEntry{Key: "trailing_cushion", Value: "0.2", Description: "distance below peak"}, entry)
}
