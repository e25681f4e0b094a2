package engine

import (
	"runtime"
	"sync"
)

// SweepPoint is one cell of a parameter grid.
type SweepPoint struct {
	Fast int `json:"fast"`
	Slow int `json:"slow"`
}

// SweepResult pairs a grid point with its run outcome. A point whose strategy
// cannot be constructed (e.g. fast >= slow) carries Err instead of a result;
// one bad cell never fails the sweep.
type SweepResult struct {
	Point  SweepPoint
	Result *Result
	Err    string
}

// StrategyFactory builds the strategy for one grid point.
type StrategyFactory func(p SweepPoint) (Strategy, error)

// RunSweep runs one backtest per grid point across a bounded worker pool.
// Runs share nothing mutable: each owns its portfolio and reads the same
// immutable bar slice, so they are embarrassingly parallel. Results come back
// in grid order regardless of worker scheduling.
func RunSweep(bars []Bar, cfg Config, points []SweepPoint, workers int, factory StrategyFactory) []SweepResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(points) {
		workers = len(points)
	}

	results := make([]SweepResult, len(points))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				point := points[idx]
				results[idx] = runPoint(bars, cfg, point, factory)
			}
		}()
	}

	for idx := range points {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

func runPoint(bars []Bar, cfg Config, point SweepPoint, factory StrategyFactory) SweepResult {
	strat, err := factory(point)
	if err != nil {
		return SweepResult{Point: point, Err: err.Error()}
	}
	res, err := Run(bars, cfg, strat)
	if err != nil {
		return SweepResult{Point: point, Err: err.Error()}
	}
	return SweepResult{Point: point, Result: res}
}
