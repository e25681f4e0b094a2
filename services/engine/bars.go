package engine

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one day's OHLCV observation. Constructed once via NewBar and never
// mutated; the engine only ever borrows read access to a bar sequence.
type Bar struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

// NewBar validates the OHLCV invariants at construction:
// all prices positive, low <= min(open, close), high >= max(open, close),
// low <= high, volume non-negative.
func NewBar(ts time.Time, open, high, low, close decimal.Decimal, volume int64) (Bar, error) {
	for _, p := range []decimal.Decimal{open, high, low, close} {
		if !p.IsPositive() {
			return Bar{}, fmt.Errorf("bar %s: prices must be positive", ts.Format("2006-01-02"))
		}
	}
	if high.Cmp(maxDecimal(open, close)) < 0 {
		return Bar{}, fmt.Errorf("bar %s: high must be >= open and close", ts.Format("2006-01-02"))
	}
	if low.Cmp(minDecimal(open, close)) > 0 {
		return Bar{}, fmt.Errorf("bar %s: low must be <= open and close", ts.Format("2006-01-02"))
	}
	if high.Cmp(low) < 0 {
		return Bar{}, fmt.Errorf("bar %s: high must be >= low", ts.Format("2006-01-02"))
	}
	if volume < 0 {
		return Bar{}, fmt.Errorf("bar %s: volume cannot be negative", ts.Format("2006-01-02"))
	}
	return Bar{Timestamp: ts, Open: open, High: high, Low: low, Close: close, Volume: volume}, nil
}

// SeriesChecksum returns a SHA-256 hex digest over the canonical text form of
// a bar sequence. Recorded in the run manifest so a result can be tied back to
// the exact dataset it was produced from.
func SeriesChecksum(bars []Bar) string {
	h := sha256.New()
	for _, b := range bars {
		fmt.Fprintf(h, "%d,%s,%s,%s,%s,%s\n",
			b.Timestamp.UTC().Unix(),
			b.Open.String(), b.High.String(), b.Low.String(), b.Close.String(),
			strconv.FormatInt(b.Volume, 10))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
