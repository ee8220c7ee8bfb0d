package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

// SQLiteLedger persists trades to a SQLite database.
type SQLiteLedger struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteLedger opens (or creates) the SQLite database and runs migrations.
func NewSQLiteLedger(dbPath string, log zerolog.Logger) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the loop writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	lg := logger.Component(log, "ledger")
	lg.Info().Str("path", dbPath).Msg("sqlite ledger opened")
	return l, nil
}

func (l *SQLiteLedger) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			order_id    TEXT NOT NULL,
			ticker      TEXT NOT NULL,
			side        TEXT NOT NULL,
			quantity    REAL,
			price       REAL,
			total       REAL,
			status      TEXT,
			broker      TEXT,
			source      TEXT,
			signal      TEXT,
			rsi         REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (l *SQLiteLedger) Name() string { return "sqlite" }

func (l *SQLiteLedger) RecordTrade(ctx context.Context, t *model.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := t.SubmittedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `INSERT INTO trades
		(timestamp, order_id, ticker, side, quantity, price, total, status, broker, source, signal, rsi)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixMilli(), t.OrderID, t.Ticker, string(t.Side), t.Quantity, t.Price, t.Total,
		t.Status, t.Broker, t.Source, string(t.Signal), t.RSI,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}
	return nil
}

func (l *SQLiteLedger) RecentTrades(ctx context.Context, limit int) ([]model.Trade, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT
		timestamp, order_id, ticker, side, quantity, price, total, status, broker, source, signal, rsi
		FROM trades ORDER BY timestamp DESC, id DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		var (
			t            model.Trade
			ms           int64
			side, signal string
		)
		if err := rows.Scan(&ms, &t.OrderID, &t.Ticker, &side, &t.Quantity, &t.Price, &t.Total,
			&t.Status, &t.Broker, &t.Source, &signal, &t.RSI); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.SubmittedAt = time.UnixMilli(ms).UTC()
		t.Side = model.Side(side)
		t.Signal = model.Signal(signal)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
