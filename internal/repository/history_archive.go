package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
	pkgch "github.com/BurhanCantCode/BaqiAI/pkg/clickhouse"
	applogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"
)

// CHHistoryArchive implements HistoryArchive backed by ClickHouse. The
// archive is best-effort analytics storage: batch correctness never
// depends on it.
type CHHistoryArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHHistoryArchive creates a ClickHouse history archive.
func NewCHHistoryArchive(ch *pkgch.Client, table string) drepo.HistoryArchive {
	if table == "" {
		table = "psx_ohlcv"
	}
	return &CHHistoryArchive{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (a *CHHistoryArchive) SetLogger(l *applogger.Logger) { a.l = l }

// Init ensures the archive table exists (idempotent). ReplacingMergeTree
// keyed on (symbol, date) makes re-archiving a full series safe.
func (a *CHHistoryArchive) Init(ctx context.Context) error {
	q := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol LowCardinality(String),
            date Date,
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            volume Float64,
            fetched_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(fetched_at)
        ORDER BY (symbol, date)
    `, a.table)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init history archive: %w", err)
	}
	return nil
}

// StoreSeries archives a full fetched series for one symbol using
// chunked multi-row inserts.
func (a *CHHistoryArchive) StoreSeries(ctx context.Context, symbol string, series []models.Candle) error {
	if len(series) == 0 {
		return nil
	}
	start := time.Now()

	const chunkSize = 2000
	for lo := 0; lo < len(series); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(series) {
			hi = len(series)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*7)
		for _, c := range series[lo:hi] {
			if c.Date == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, symbol, c.Date, c.Open, c.High, c.Low, c.Close, c.Volume)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, volume) VALUES %s",
			a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive series %s: %w", symbol, err)
		}
	}

	if a.l != nil {
		a.l.Info("clickhouse series archived",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(series)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Health performs health check.
func (a *CHHistoryArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close is a no-op; the connection pool is owned by pkg/clickhouse.
func (a *CHHistoryArchive) Close() error {
	return nil
}
