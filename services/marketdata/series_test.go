package marketdata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
)

func barOn(t *testing.T, ts time.Time) engine.Bar {
	t.Helper()
	price := decimal.NewFromInt(10)
	bar, err := engine.NewBar(ts, price, price, price, price, 100)
	if err != nil {
		t.Fatalf("NewBar: %v", err)
	}
	return bar
}

func TestValidateSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sorted := []engine.Bar{
		barOn(t, start),
		barOn(t, start.AddDate(0, 0, 1)),
		barOn(t, start.AddDate(0, 0, 2)),
	}
	if err := ValidateSeries(sorted); err != nil {
		t.Fatalf("sorted series rejected: %v", err)
	}
	if err := ValidateSeries(nil); err != nil {
		t.Fatalf("empty series rejected: %v", err)
	}

	unsorted := []engine.Bar{sorted[1], sorted[0]}
	if err := ValidateSeries(unsorted); err == nil {
		t.Fatal("unsorted series must be rejected")
	}

	duplicated := []engine.Bar{sorted[0], sorted[0]}
	if err := ValidateSeries(duplicated); err == nil {
		t.Fatal("duplicate timestamps must be rejected")
	}
}

func TestDetectGaps(t *testing.T) {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) // a Friday
	bars := []engine.Bar{
		barOn(t, start),
		barOn(t, start.AddDate(0, 0, 3)), // Monday: weekend gap
		barOn(t, start.AddDate(0, 0, 4)),
		barOn(t, start.AddDate(0, 0, 14)), // long gap
	}

	gaps := DetectGaps(bars, 3*24*time.Hour)
	if len(gaps) != 1 {
		t.Fatalf("got %d gaps with weekend-tolerant step, want 1: %v", len(gaps), gaps)
	}
	if !gaps[0].Equal(bars[2].Timestamp) {
		t.Fatalf("gap reported at %s, want %s", gaps[0], bars[2].Timestamp)
	}

	if gaps := DetectGaps(bars, 30*24*time.Hour); len(gaps) != 0 {
		t.Fatalf("got %d gaps with generous step, want 0", len(gaps))
	}
}
