package engine

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

type holdOnly struct{}

func (holdOnly) Name() string                          { return "hold_only" }
func (holdOnly) SignalAt(bars []Bar, i int) SignalType { return SignalHold }

func sweepBars(t *testing.T) []Bar {
	t.Helper()
	bars := make([]Bar, 0, 8)
	for n := 0; n < 8; n++ {
		bars = append(bars, flatBar(t, n, fmt.Sprintf("%d", 10+n)))
	}
	return bars
}

func sweepConfig() Config {
	return Config{
		InitialCash:   decimal.NewFromInt(10_000),
		FillOn:        FillOnOpen,
		OrderQuantity: 1,
	}
}

func TestRunSweepReturnsResultsInGridOrder(t *testing.T) {
	points := []SweepPoint{{Fast: 1, Slow: 2}, {Fast: 1, Slow: 3}, {Fast: 2, Slow: 4}}

	results := RunSweep(sweepBars(t), sweepConfig(), points, 2, func(p SweepPoint) (Strategy, error) {
		return holdOnly{}, nil
	})

	if len(results) != len(points) {
		t.Fatalf("got %d results, want %d", len(results), len(points))
	}
	for i, r := range results {
		if r.Point != points[i] {
			t.Fatalf("result %d is for point %+v, want %+v", i, r.Point, points[i])
		}
		if r.Err != "" {
			t.Fatalf("point %+v failed: %s", r.Point, r.Err)
		}
		if r.Result == nil {
			t.Fatalf("point %+v has no result", r.Point)
		}
	}
}

func TestRunSweepBadCellDoesNotFailSweep(t *testing.T) {
	points := []SweepPoint{{Fast: 1, Slow: 2}, {Fast: 5, Slow: 2}}

	results := RunSweep(sweepBars(t), sweepConfig(), points, 0, func(p SweepPoint) (Strategy, error) {
		if p.Fast >= p.Slow {
			return nil, fmt.Errorf("fast window %d must be below slow window %d", p.Fast, p.Slow)
		}
		return holdOnly{}, nil
	})

	if results[0].Err != "" || results[0].Result == nil {
		t.Fatalf("valid cell failed: %+v", results[0])
	}
	if results[1].Err == "" || results[1].Result != nil {
		t.Fatalf("invalid cell must carry an error, got %+v", results[1])
	}
}

func TestRunSweepDeterministicAcrossWorkerCounts(t *testing.T) {
	var points []SweepPoint
	for f := 1; f <= 3; f++ {
		for s := 4; s <= 6; s++ {
			points = append(points, SweepPoint{Fast: f, Slow: s})
		}
	}
	bars := sweepBars(t)
	cfg := sweepConfig()
	factory := func(p SweepPoint) (Strategy, error) { return holdOnly{}, nil }

	serial := RunSweep(bars, cfg, points, 1, factory)
	parallel := RunSweep(bars, cfg, points, 4, factory)

	for i := range serial {
		a, b := serial[i], parallel[i]
		if a.Point != b.Point {
			t.Fatalf("cell %d point mismatch: %+v vs %+v", i, a.Point, b.Point)
		}
		if !a.Result.Metrics.TotalReturn.Equal(b.Result.Metrics.TotalReturn) {
			t.Fatalf("cell %d total return differs across worker counts", i)
		}
		if len(a.Result.Trades) != len(b.Result.Trades) {
			t.Fatalf("cell %d trade count differs across worker counts", i)
		}
	}
}
