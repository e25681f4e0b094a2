package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return v
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func mustBar(t *testing.T, n int, open, high, low, close string) Bar {
	t.Helper()
	bar, err := NewBar(day(n), d(t, open), d(t, high), d(t, low), d(t, close), 1000)
	if err != nil {
		t.Fatalf("NewBar: %v", err)
	}
	return bar
}

// flatBar has all four prices equal.
func flatBar(t *testing.T, n int, price string) Bar {
	t.Helper()
	return mustBar(t, n, price, price, price, price)
}

func TestNewBarRejectsInvalidShapes(t *testing.T) {
	cases := []struct {
		name                   string
		open, high, low, close string
		volume                 int64
	}{
		{"high below open", "10", "9.5", "9", "9.2", 100},
		{"high below close", "9", "9.5", "9", "9.8", 100},
		{"low above open", "10", "11", "10.5", "10.8", 100},
		{"low above close", "10.8", "11", "10.5", "10.2", 100},
		{"zero price", "0", "1", "0", "1", 100},
		{"negative price", "-1", "1", "-1", "1", 100},
		{"negative volume", "10", "10", "10", "10", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBar(day(0), d(t, tc.open), d(t, tc.high), d(t, tc.low), d(t, tc.close), tc.volume)
			if err == nil {
				t.Fatalf("expected construction to fail")
			}
		})
	}
}

func TestNewBarAcceptsValidShapes(t *testing.T) {
	if _, err := NewBar(day(0), d(t, "10"), d(t, "11"), d(t, "9.5"), d(t, "10.5"), 0); err != nil {
		t.Fatalf("valid bar rejected: %v", err)
	}
	// Degenerate flat bar: all prices equal, zero volume.
	if _, err := NewBar(day(1), d(t, "10"), d(t, "10"), d(t, "10"), d(t, "10"), 0); err != nil {
		t.Fatalf("flat bar rejected: %v", err)
	}
}

func TestSeriesChecksum(t *testing.T) {
	a := []Bar{flatBar(t, 0, "10"), flatBar(t, 1, "11")}
	b := []Bar{flatBar(t, 0, "10"), flatBar(t, 1, "11")}
	if SeriesChecksum(a) != SeriesChecksum(b) {
		t.Fatal("identical series must hash identically")
	}
	c := []Bar{flatBar(t, 0, "10"), flatBar(t, 1, "11.01")}
	if SeriesChecksum(a) == SeriesChecksum(c) {
		t.Fatal("different series must hash differently")
	}
}
