package table

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gridwalk-cli/gridwalk"
	"go.uber.org/zap"
)

// OpenDuckDB opens a fresh in-memory (or file-backed, if cfg.DBPath is set)
// DuckDB connection: single connection, bounded ping timeout.
func OpenDuckDB(ctx context.Context, cfg gridwalk.DuckDBConfig) (*sql.DB, error) {
	dsn := cfg.DBPath
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, gridwalk.NewRuntimeError("duckdb_open_failed", "failed to open duckdb connection").WithCause(err)
	}
	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, gridwalk.NewRuntimeError("duckdb_ping_failed", "duckdb did not respond to ping").WithCause(err)
	}
	return db, nil
}

// execBatch runs a single multi-row INSERT built by insertRows, one
// call per load batch (sized by Config.Query.LoadBatchSize).
func execBatch(ctx context.Context, db *sql.DB, query string, args []any) error {
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("table: batch insert failed: %w", err)
	}
	return nil
}

func logDuckDBWarning(msg string, err error) {
	zap.S().Warnw(msg, "error", err)
}
