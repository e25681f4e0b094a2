// Package strategies provides the built-in trading strategies. Each one
// implements engine.Strategy over read-only bar history and keeps no mutable
// state, so a strategy value can be shared across runs.
package strategies

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
)

// SMACross is the reference fast/slow simple-moving-average crossover
// strategy. It emits BUY when the fast average crosses from at-or-below to
// above the slow average, SELL on the reverse crossing, and HOLD otherwise —
// a single signal per crossing event, not a re-signal on every bar spent
// above or below.
//
// During warm-up, before the slow window is full, the relation is undefined
// and treated as neither above nor below; the first bar with both windows
// full can therefore fire if the averages are already separated.
type SMACross struct {
	fast int
	slow int
}

func NewSMACross(fast, slow int) (*SMACross, error) {
	if fast < 1 {
		return nil, fmt.Errorf("fast window must be >= 1, got %d", fast)
	}
	if slow <= fast {
		return nil, fmt.Errorf("slow window (%d) must be greater than fast window (%d)", slow, fast)
	}
	return &SMACross{fast: fast, slow: slow}, nil
}

func (s *SMACross) Name() string { return fmt.Sprintf("sma_cross(%d,%d)", s.fast, s.slow) }

func (s *SMACross) SignalAt(bars []engine.Bar, i int) engine.SignalType {
	if i < s.slow-1 {
		return engine.SignalHold
	}

	diffNow := sma(bars, i, s.fast).Sub(sma(bars, i, s.slow))

	if i-1 < s.slow-1 {
		// First bar with both windows full: warm-up state counts as
		// at-or-below for BUY and at-or-above for SELL.
		switch diffNow.Sign() {
		case 1:
			return engine.SignalBuy
		case -1:
			return engine.SignalSell
		}
		return engine.SignalHold
	}

	diffPrev := sma(bars, i-1, s.fast).Sub(sma(bars, i-1, s.slow))
	if diffPrev.Sign() <= 0 && diffNow.Sign() > 0 {
		return engine.SignalBuy
	}
	if diffPrev.Sign() >= 0 && diffNow.Sign() < 0 {
		return engine.SignalSell
	}
	return engine.SignalHold
}

// sma is the simple mean of closes over bars[i-window+1 .. i]. The caller
// guarantees the window is full.
func sma(bars []engine.Bar, i, window int) decimal.Decimal {
	sum := decimal.Zero
	for j := i - window + 1; j <= i; j++ {
		sum = sum.Add(bars[j].Close)
	}
	return sum.Div(decimal.NewFromInt(int64(window)))
}
