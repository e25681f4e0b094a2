package marketdata

import (
	"fmt"
	"time"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
)

// ValidateSeries enforces the sequence-level invariants the engine relies on:
// strictly ascending timestamps with no duplicates. Per-bar invariants are
// already enforced by engine.NewBar.
func ValidateSeries(bars []engine.Bar) error {
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Timestamp, bars[i].Timestamp
		if cur.Equal(prev) {
			return fmt.Errorf("duplicate timestamp %s at position %d", cur.Format(time.RFC3339), i)
		}
		if cur.Before(prev) {
			return fmt.Errorf("bars not sorted: %s follows %s at position %d",
				cur.Format(time.RFC3339), prev.Format(time.RFC3339), i)
		}
	}
	return nil
}

// DetectGaps returns the timestamp preceding each gap larger than the
// expected step. Gaps are not errors — weekends and holidays are normal in
// daily data — but callers may want to surface them.
func DetectGaps(bars []engine.Bar, expectedStep time.Duration) []time.Time {
	var gaps []time.Time
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Sub(bars[i-1].Timestamp) > expectedStep {
			gaps = append(gaps, bars[i-1].Timestamp)
		}
	}
	return gaps
}
