package modules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

const (
	LOGS_LIMIT          int           = 100
	INSIGHT_LOGS_LIMIT  int           = 10
	INSIGHT_OHLCV_LIMIT int           = 48
	INSIGHT_SWAP_LIMIT  int           = 24
	PRICE_HISTORY_SPAN  time.Duration = 24 * time.Hour
)

// ConfigStore is the key/value persistence behind the configuration editor.
// Writes are last-writer-wins; there is no version check.
type ConfigStore interface {
	ListAll(ctx context.Context, table models.Table) ([]models.ConfigEntry, error)
	Get(ctx context.Context, table models.Table, key string) (models.ConfigEntry, error)
	Upsert(ctx context.Context, table models.Table, key, value string, description *string) error
	Delete(ctx context.Context, table models.Table, key string) error
}

var schema = []string{
	"CREATE TABLE IF NOT EXISTS `bot_config` (key varchar PRIMARY KEY, value text NOT NULL DEFAULT '', description text NOT NULL DEFAULT '')",
	"CREATE TABLE IF NOT EXISTS `strategy_config` (key varchar PRIMARY KEY, value text NOT NULL DEFAULT '', description text NOT NULL DEFAULT '')",
	"CREATE TABLE IF NOT EXISTS `whale_wallets` (key varchar PRIMARY KEY, value text NOT NULL DEFAULT 'true', description text NOT NULL DEFAULT '')",
	"CREATE TABLE IF NOT EXISTS `bot_heartbeat` (instance_id varchar PRIMARY KEY, last_heartbeat datetime, current_balance_sol real, num_tracked_tokens integer)",
	"CREATE TABLE IF NOT EXISTS `tracked_tokens` (token_mint varchar, buy_price real, buy_sig varchar, bought_at datetime)",
	"CREATE TABLE IF NOT EXISTS `trades` (token_mint varchar, buy_price real, sell_price real, price_change_percent real, estimated_profit_sol real, buy_timestamp datetime, sell_timestamp datetime, token_amount_sold varchar, decimals integer)",
	"CREATE TABLE IF NOT EXISTS `bot_logs` (type varchar, message text, token_mint varchar, sig varchar, data text, created_at datetime)",
	"CREATE TABLE IF NOT EXISTS `ever_bought_tokens` (token_mint varchar PRIMARY KEY, name varchar, symbol varchar, market_cap real, holders integer, price real, created_at datetime)",
	"CREATE TABLE IF NOT EXISTS `price_snapshots` (token_mint varchar, price real, timestamp datetime)",
	"CREATE TABLE IF NOT EXISTS `ohlcv` (token_mint varchar, time datetime, open real, high real, low real, close real, volume real)",
	"CREATE TABLE IF NOT EXISTS `swap_volume` (token_mint varchar, time datetime, volume real)",
}

type DB struct {
	DB     *sql.DB
	Crypto *Crypto
	Logger *logrus.Entry
}

func NewDB(path string, secret string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	crypto, err := NewCrypto(secret)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		DB:     db,
		Crypto: crypto,
		Logger: logrus.WithField("module", "db"),
	}, nil
}

func (d *DB) Close() {
	d.DB.Close()
}

func checkTable(table models.Table) error {
	if !slices.Contains(models.Tables, table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	return nil
}

func encrypted(table models.Table, key string) bool {
	return table == models.TableBotConfig && IsSecretKey(key)
}

func (d *DB) reveal(table models.Table, entry models.ConfigEntry) models.ConfigEntry {
	if !encrypted(table, entry.Key) {
		return entry
	}

	v, err := d.Crypto.Decrypt(entry.Value)
	switch {
	case err == nil:
		entry.Value = v
	case errors.Is(err, ErrNotEncrypted):
		d.Logger.WithField("key", entry.Key).Warn("stored secret is not encrypted")
	default:
		d.Logger.WithField("key", entry.Key).WithError(err).Error("could not decrypt stored secret")
	}

	return entry
}

func (d *DB) ListAll(ctx context.Context, table models.Table) (result []models.ConfigEntry, err error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	rows, err := d.DB.QueryContext(ctx, fmt.Sprintf("SELECT key, value, description FROM `%s` ORDER BY key", table))
	if err != nil {
		return nil, storeError("list", table, "", err)
	}
	defer rows.Close()

	result = make([]models.ConfigEntry, 0)

	for rows.Next() {
		var entry models.ConfigEntry
		if err := rows.Scan(&entry.Key, &entry.Value, &entry.Description); err != nil {
			continue
		}

		result = append(result, d.reveal(table, entry))
	}

	return result, storeError("list", table, "", rows.Err())
}

func (d *DB) Get(ctx context.Context, table models.Table, key string) (models.ConfigEntry, error) {
	var entry models.ConfigEntry

	if err := checkTable(table); err != nil {
		return entry, err
	}

	err := d.DB.
		QueryRowContext(ctx, fmt.Sprintf("SELECT key, value, description FROM `%s` WHERE key=?", table), key).
		Scan(&entry.Key, &entry.Value, &entry.Description)

	if errors.Is(err, sql.ErrNoRows) {
		return entry, ErrNotFound
	}

	if err != nil {
		return entry, storeError("read", table, key, err)
	}

	return d.reveal(table, entry), nil
}

// Upsert writes value, creating the row when needed. A nil description
// keeps whatever description is already stored.
func (d *DB) Upsert(ctx context.Context, table models.Table, key, value string, description *string) error {
	if err := checkTable(table); err != nil {
		return err
	}

	if encrypted(table, key) {
		v, err := d.Crypto.Encrypt(value)
		if err != nil {
			return storeError("encrypt", table, key, err)
		}

		value = v
	}

	_, err := d.DB.ExecContext(
		ctx,
		fmt.Sprintf("INSERT INTO `%s`(key, value, description) VALUES(?, ?, COALESCE(?, '')) ON CONFLICT(key) DO UPDATE SET value=excluded.value, description=COALESCE(?, description)", table),
		key,
		value,
		description,
		description,
	)

	return storeError("save", table, key, err)
}

func (d *DB) Delete(ctx context.Context, table models.Table, key string) error {
	if err := checkTable(table); err != nil {
		return err
	}

	_, err := d.DB.ExecContext(ctx, fmt.Sprintf("DELETE FROM `%s` WHERE key=?", table), key)

	return storeError("delete", table, key, err)
}

func (d *DB) GetHeartbeat(ctx context.Context, instanceID string) (*models.Heartbeat, error) {
	var h models.Heartbeat

	err := d.DB.
		QueryRowContext(ctx, "SELECT instance_id, last_heartbeat, current_balance_sol, num_tracked_tokens FROM `bot_heartbeat` WHERE instance_id=?", instanceID).
		Scan(&h.InstanceID, &h.LastHeartbeat, &h.CurrentBalanceSol, &h.NumTrackedTokens)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &h, nil
}

func (d *DB) GetTrackedTokens(ctx context.Context) (result []models.TrackedToken, err error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT token_mint, buy_price, buy_sig, bought_at FROM `tracked_tokens` ORDER BY bought_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result = make([]models.TrackedToken, 0)

	for rows.Next() {
		var t models.TrackedToken
		if err := rows.Scan(&t.TokenMint, &t.BuyPrice, &t.BuySig, &t.BoughtAt); err != nil {
			continue
		}

		result = append(result, t)
	}

	return result, rows.Err()
}

func (d *DB) GetTrades(ctx context.Context) (result []models.Trade, err error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT token_mint, buy_price, sell_price, price_change_percent, estimated_profit_sol, buy_timestamp, sell_timestamp, token_amount_sold, decimals FROM `trades` ORDER BY sell_timestamp DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result = make([]models.Trade, 0)

	for rows.Next() {
		var (
			t            models.Trade
			buyAt        sql.NullTime
			sellAt       sql.NullTime
			amountSold   sql.NullString
			decimals     sql.NullInt64
			changePct    sql.NullFloat64
			estimatedSol sql.NullFloat64
		)

		if err := rows.Scan(&t.TokenMint, &t.BuyPrice, &t.SellPrice, &changePct, &estimatedSol, &buyAt, &sellAt, &amountSold, &decimals); err != nil {
			d.Logger.WithError(err).Warn("skip unreadable trade row")
			continue
		}

		t.PriceChangePercent = changePct.Float64
		t.EstimatedProfitSol = estimatedSol.Float64

		if buyAt.Valid {
			t.BuyTimestamp = &buyAt.Time
		}

		if sellAt.Valid {
			t.SellTimestamp = &sellAt.Time
		}

		if amountSold.Valid {
			t.TokenAmountSold = &amountSold.String
		}

		if decimals.Valid {
			n := int(decimals.Int64)
			t.Decimals = &n
		}

		result = append(result, t)
	}

	return result, rows.Err()
}

func (d *DB) scanLogs(rows *sql.Rows) (result []models.BotLog, err error) {
	defer rows.Close()

	result = make([]models.BotLog, 0)

	for rows.Next() {
		var (
			l         models.BotLog
			tokenMint sql.NullString
			sig       sql.NullString
			data      sql.NullString
		)

		if err := rows.Scan(&l.Type, &l.Message, &tokenMint, &sig, &data, &l.CreatedAt); err != nil {
			continue
		}

		l.TokenMint = tokenMint.String
		l.Sig = sig.String
		l.Data = data.String

		result = append(result, l)
	}

	return result, rows.Err()
}

func (d *DB) GetLogs(ctx context.Context) ([]models.BotLog, error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT type, message, token_mint, sig, data, created_at FROM `bot_logs` ORDER BY created_at DESC LIMIT ?", LOGS_LIMIT)
	if err != nil {
		return nil, err
	}

	return d.scanLogs(rows)
}

func (d *DB) GetTokenLogs(ctx context.Context, mint string) ([]models.BotLog, error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT type, message, token_mint, sig, data, created_at FROM `bot_logs` WHERE token_mint=? ORDER BY created_at DESC LIMIT ?", mint, INSIGHT_LOGS_LIMIT)
	if err != nil {
		return nil, err
	}

	return d.scanLogs(rows)
}

func (d *DB) GetEverBought(ctx context.Context) (result []models.EverBought, err error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT token_mint, name, symbol, market_cap, holders, price, created_at FROM `ever_bought_tokens` ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result = make([]models.EverBought, 0)

	for rows.Next() {
		e, err := scanEverBought(rows)
		if err != nil {
			continue
		}

		result = append(result, e)
	}

	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEverBought(row scanner) (models.EverBought, error) {
	var (
		e         models.EverBought
		name      sql.NullString
		symbol    sql.NullString
		marketCap sql.NullFloat64
		holders   sql.NullInt64
		price     sql.NullFloat64
	)

	if err := row.Scan(&e.TokenMint, &name, &symbol, &marketCap, &holders, &price, &e.CreatedAt); err != nil {
		return e, err
	}

	e.Name = name.String
	e.Symbol = symbol.String
	e.MarketCap = marketCap.Float64
	e.Holders = int(holders.Int64)
	e.Price = price.Float64

	return e, nil
}

func (d *DB) GetEverBoughtToken(ctx context.Context, mint string) (*models.EverBought, error) {
	row := d.DB.QueryRowContext(ctx, "SELECT token_mint, name, symbol, market_cap, holders, price, created_at FROM `ever_bought_tokens` WHERE token_mint=?", mint)

	e, err := scanEverBought(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (d *DB) GetPriceHistory(ctx context.Context, mint string, now time.Time) (result []models.PricePoint, err error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT price, timestamp FROM `price_snapshots` WHERE token_mint=? AND timestamp >= ? ORDER BY timestamp ASC", mint, now.Add(-PRICE_HISTORY_SPAN))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result = make([]models.PricePoint, 0)

	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Price, &p.Timestamp); err != nil {
			continue
		}

		result = append(result, p)
	}

	return result, rows.Err()
}

func (d *DB) GetOhlcv(ctx context.Context, mint string) (result []models.Candle, err error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT time, open, high, low, close, volume FROM `ohlcv` WHERE token_mint=? ORDER BY time ASC LIMIT ?", mint, INSIGHT_OHLCV_LIMIT)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result = make([]models.Candle, 0)

	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			continue
		}

		result = append(result, c)
	}

	return result, rows.Err()
}

func (d *DB) GetSwapVolume(ctx context.Context, mint string) (result []models.SwapVolume, err error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT time, volume FROM `swap_volume` WHERE token_mint=? ORDER BY time ASC LIMIT ?", mint, INSIGHT_SWAP_LIMIT)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result = make([]models.SwapVolume, 0)

	for rows.Next() {
		var v models.SwapVolume
		if err := rows.Scan(&v.Time, &v.Volume); err != nil {
			continue
		}

		result = append(result, v)
	}

	return result, rows.Err()
}
