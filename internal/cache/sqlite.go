package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// SQLiteCache persists fetched series so they survive restarts.
type SQLiteCache struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteCache opens (or creates) the SQLite database and runs migrations.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite cache opened: %s", dbPath)
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series_cache (
			symbol      TEXT    NOT NULL,
			period_days INTEGER NOT NULL,
			bar_interval TEXT   NOT NULL,
			fetched_at  INTEGER NOT NULL,
			bar_count   INTEGER NOT NULL,
			bars        TEXT    NOT NULL,
			PRIMARY KEY (symbol, period_days, bar_interval)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_series_fetched ON series_cache(fetched_at)`,
	}

	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, key Key) (*model.BarSeries, bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT bars FROM series_cache WHERE symbol = ? AND period_days = ? AND bar_interval = ?`,
		key.Symbol, key.PeriodDays, string(key.Interval),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache %s: %w", key, err)
	}
	series, err := decodeBars(key, []byte(payload))
	if err != nil {
		return nil, false, err
	}
	return series, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, key Key, series *model.BarSeries) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := encodeBars(series)
	if err != nil {
		return fmt.Errorf("encode bars %s: %w", key, err)
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO series_cache
		(symbol, period_days, bar_interval, fetched_at, bar_count, bars)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(symbol, period_days, bar_interval) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			bar_count  = excluded.bar_count,
			bars       = excluded.bars`,
		key.Symbol, key.PeriodDays, string(key.Interval),
		time.Now().Unix(), series.Len(), string(payload),
	)
	return err
}

func (c *SQLiteCache) Close() error {
	log.Println("[INFO] closing sqlite cache")
	return c.db.Close()
}
