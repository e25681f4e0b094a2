package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
)

// ClickHouseConfig locates a bar table. The table is expected to hold one row
// per (symbol, ts) with open/high/low/close/volume columns.
type ClickHouseConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ClickHouseSource loads validated bar series from a ClickHouse bar table.
// Read-only: ingestion is somebody else's job.
type ClickHouseSource struct {
	conn     driver.Conn
	database string
	table    string
}

func NewClickHouseSource(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseSource, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &ClickHouseSource{conn: conn, database: cfg.Database, table: cfg.Table}, nil
}

func (s *ClickHouseSource) Close() error { return s.conn.Close() }

// LoadBars queries the [from, to) window for one symbol, ordered by time.
// Prices are pulled as strings so decimal parsing is exact regardless of the
// column type on the server.
func (s *ClickHouseSource) LoadBars(ctx context.Context, symbol string, from, to time.Time) ([]engine.Bar, error) {
	query := fmt.Sprintf(`
SELECT
    toDateTime(ts, 'UTC') AS ts,
    toString(open)  AS open,
    toString(high)  AS high,
    toString(low)   AS low,
    toString(close) AS close,
    toInt64(volume) AS volume
FROM %s.%s
WHERE symbol = ? AND ts >= ? AND ts < ?
ORDER BY ts`, s.database, s.table)

	rows, err := s.conn.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []engine.Bar
	for rows.Next() {
		var (
			ts                         time.Time
			openS, highS, lowS, closeS string
			volume                     int64
		)
		if err := rows.Scan(&ts, &openS, &highS, &lowS, &closeS, &volume); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		bar, err := parseClickHouseBar(ts, openS, highS, lowS, closeS, volume)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s in [%s, %s)", symbol,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	if err := ValidateSeries(bars); err != nil {
		return nil, fmt.Errorf("series for %s: %w", symbol, err)
	}
	return bars, nil
}

func parseClickHouseBar(ts time.Time, openS, highS, lowS, closeS string, volume int64) (engine.Bar, error) {
	parse := func(name, raw string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("bar %s: parse %s %q: %w", ts.Format("2006-01-02"), name, raw, err)
		}
		return d, nil
	}

	open, err := parse("open", openS)
	if err != nil {
		return engine.Bar{}, err
	}
	high, err := parse("high", highS)
	if err != nil {
		return engine.Bar{}, err
	}
	low, err := parse("low", lowS)
	if err != nil {
		return engine.Bar{}, err
	}
	close, err := parse("close", closeS)
	if err != nil {
		return engine.Bar{}, err
	}
	return engine.NewBar(ts.UTC(), open, high, low, close, volume)
}
