// Package db reads and writes price candles in PostgreSQL.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/utils"
	_ "github.com/lib/pq"
)

// Schema creates the candles table. The create_hypertable statement only applies
// when TimescaleDB is installed; ApplySchema skips it otherwise.
//
//go:embed schema.sql
var Schema string

// Transaction context key
type txKey struct{}

// WithTransaction adds a transaction to the context
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction retrieves a transaction from context, or returns nil if not present
func GetTransaction(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// Default is the PostgreSQL candle store.
type Default struct {
	db *sql.DB
}

var _ candle.Storage = (*Default)(nil)

// New wraps an open connection pool.
func New(db *sql.DB) *Default {
	return &Default{db: db}
}

// Open connects to connStr and checks the connection.
func Open(ctx context.Context, connStr string, maxOpen, maxIdle int) (*Default, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db), nil
}

func (p *Default) Close() error {
	return p.db.Close()
}

// executeWithTransaction executes a function with proper transaction management
// If a transaction exists in context, it uses that. Otherwise, it creates a new one.
func (p *Default) executeWithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if tx := GetTransaction(ctx); tx != nil {
		return fn(tx)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if fnErr := fn(tx); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %w (original error: %v)", rbErr, fnErr)
		}
		return fnErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("transaction commit failed: %w", commitErr)
	}
	return nil
}

// queryWithTransaction executes a query using transaction from context if available
func (p *Default) queryWithTransaction(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if tx := GetTransaction(ctx); tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	return p.db.QueryContext(ctx, query, args...)
}

// ApplySchema runs each statement of schema, skipping create_hypertable when
// TimescaleDB is not available.
func ApplySchema(ctx context.Context, db *sql.DB, schema string) error {
	var hasTimescaleDB bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')").Scan(&hasTimescaleDB); err != nil {
		return fmt.Errorf("failed to check for timescaledb: %w", err)
	}

	log := utils.Component("db")
	for _, stmt := range SplitStatements(schema) {
		if !hasTimescaleDB && strings.Contains(strings.ToLower(stmt), "create_hypertable") {
			log.Debug().Msg("timescaledb not installed, skipping hypertable")
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

// SplitStatements splits a script on semicolons and drops empty statements.
func SplitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// SaveCandles upserts candles in one transaction
func (p *Default) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid candle at index %d for %s %s at %s: %w",
				i, c.Symbol, c.Timeframe, c.Timestamp, err)
		}
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO candles (symbol, timeframe, timestamp, open, high, low, close, volume, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (symbol, timeframe, timestamp, source) DO UPDATE SET
				open=EXCLUDED.open, high=EXCLUDED.high, low=EXCLUDED.low,
				close=EXCLUDED.close, volume=EXCLUDED.volume
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement: %w", err)
		}
		defer stmt.Close()

		for i, c := range candles {
			if _, err := stmt.ExecContext(ctx,
				c.Symbol, c.Timeframe, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume, c.Source); err != nil {
				return fmt.Errorf("failed to save candle at index %d (%s %s at %s): %w",
					i, c.Symbol, c.Timeframe, c.Timestamp, err)
			}
		}
		return nil
	})
}

// ImportCandles saves candles in batches of batchSize inside a single
// transaction, so a failed batch leaves nothing behind.
func (p *Default) ImportCandles(ctx context.Context, candles []candle.Candle, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(candles)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	txCtx := WithTransaction(ctx, tx)

	log := utils.Component("db")
	for start := 0; start < len(candles); start += batchSize {
		end := min(start+batchSize, len(candles))
		if err := p.SaveCandles(txCtx, candles[start:end]); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("transaction rollback failed: %w (original error: %v)", rbErr, err)
			}
			return err
		}
		log.Debug().Int("from", start).Int("to", end).Msg("batch saved")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// GetCandles retrieves candles in a specific time range for a symbol and
// timeframe, oldest first. An empty source reads every source; rows sharing a
// timestamp then collapse to the one whose source sorts first.
func (p *Default) GetCandles(ctx context.Context, symbol, timeframe, source string, start, end time.Time) ([]candle.Candle, error) {
	columns := "timestamp, open, high, low, close, volume, symbol, timeframe, source"
	where := "symbol=$1 AND timeframe=$2 AND timestamp >= $3 AND timestamp < $4"
	args := []any{symbol, timeframe, start, end}

	var query string
	if source != "" {
		args = append(args, source)
		query = "SELECT " + columns + " FROM candles WHERE " + where + " AND source=$5 ORDER BY timestamp ASC"
	} else {
		query = "SELECT DISTINCT ON (timestamp) " + columns + " FROM candles WHERE " + where + " ORDER BY timestamp ASC, source ASC"
	}

	rows, err := p.queryWithTransaction(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles in range: %w", err)
	}
	defer rows.Close()

	var candles []candle.Candle
	for rows.Next() {
		var c candle.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Symbol, &c.Timeframe, &c.Source); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candle rows: %w", err)
	}

	return candles, nil
}

// GetCandleCount counts the candles GetCandles would return for the same arguments
func (p *Default) GetCandleCount(ctx context.Context, symbol, timeframe, source string, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT timestamp) FROM candles
		WHERE symbol=$1 AND timeframe=$2 AND timestamp >= $3 AND timestamp < $4`
	args := []any{symbol, timeframe, start, end}
	if source != "" {
		query += " AND source=$5"
		args = append(args, source)
	}

	var count int
	err := p.db.QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count candles: %w", err)
	}
	return count, nil
}
