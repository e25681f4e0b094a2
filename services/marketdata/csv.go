// Package marketdata loads and validates historical bar series. The engine
// assumes its input is already validated, so every source here runs the same
// series checks before handing bars over: strictly ascending timestamps, no
// duplicates, per-bar invariants enforced at construction.
package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
)

var csvColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadCSV reads bars from a CSV file with a timestamp,open,high,low,close,volume
// header. Row errors carry the 1-based file row number (the header is row 1).
func LoadCSV(path string) ([]engine.Bar, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bar data: %w", err)
	}
	defer fh.Close()

	bars, err := ReadCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses and validates a bar series from CSV content.
func ReadCSV(r io.Reader) ([]engine.Bar, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	colIdx, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []engine.Bar
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		bar, err := parseBar(record, colIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no bar data located")
	}
	if err := ValidateSeries(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func mapColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	var missing []string
	for _, name := range csvColumns {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseBar(record []string, colIdx map[string]int) (engine.Bar, error) {
	field := func(name string) (string, error) {
		i := colIdx[name]
		if i >= len(record) {
			return "", fmt.Errorf("missing %s field", name)
		}
		return strings.TrimSpace(record[i]), nil
	}

	tsRaw, err := field("timestamp")
	if err != nil {
		return engine.Bar{}, err
	}
	ts, err := parseTimestamp(tsRaw)
	if err != nil {
		return engine.Bar{}, err
	}

	prices := make(map[string]decimal.Decimal, 4)
	for _, name := range []string{"open", "high", "low", "close"} {
		raw, err := field(name)
		if err != nil {
			return engine.Bar{}, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return engine.Bar{}, fmt.Errorf("parse %s %q: %w", name, raw, err)
		}
		prices[name] = d
	}

	volRaw, err := field("volume")
	if err != nil {
		return engine.Bar{}, err
	}
	volume, err := strconv.ParseInt(volRaw, 10, 64)
	if err != nil {
		return engine.Bar{}, fmt.Errorf("parse volume %q: %w", volRaw, err)
	}

	return engine.NewBar(ts, prices["open"], prices["high"], prices["low"], prices["close"], volume)
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported format", raw)
}
