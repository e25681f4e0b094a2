package strategies

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
)

// MeanReversion buys dips below the moving average and sells stretches above
// it: BUY when close crosses below sma*(1-band), SELL when it crosses above
// sma*(1+band). One signal per crossing.
type MeanReversion struct {
	window int
	band   decimal.Decimal // fractional deviation, e.g. 0.02 for 2%
}

func NewMeanReversion(window int, band decimal.Decimal) (*MeanReversion, error) {
	if window < 1 {
		return nil, fmt.Errorf("window must be >= 1, got %d", window)
	}
	if !band.IsPositive() {
		return nil, fmt.Errorf("band must be > 0, got %s", band)
	}
	return &MeanReversion{window: window, band: band}, nil
}

func (m *MeanReversion) Name() string {
	return fmt.Sprintf("mean_reversion(%d,%s)", m.window, m.band.String())
}

func (m *MeanReversion) SignalAt(bars []engine.Bar, i int) engine.SignalType {
	if i < m.window-1 {
		return engine.SignalHold
	}

	now := m.zone(bars, i)
	if i-1 < m.window-1 {
		switch now {
		case zoneBelow:
			return engine.SignalBuy
		case zoneAbove:
			return engine.SignalSell
		}
		return engine.SignalHold
	}

	prev := m.zone(bars, i-1)
	if now == zoneBelow && prev != zoneBelow {
		return engine.SignalBuy
	}
	if now == zoneAbove && prev != zoneAbove {
		return engine.SignalSell
	}
	return engine.SignalHold
}

func (m *MeanReversion) zone(bars []engine.Bar, i int) zone {
	avg := sma(bars, i, m.window)
	one := decimal.NewFromInt(1)
	if bars[i].Close.Cmp(avg.Mul(one.Sub(m.band))) < 0 {
		return zoneBelow
	}
	if bars[i].Close.Cmp(avg.Mul(one.Add(m.band))) > 0 {
		return zoneAbove
	}
	return zoneNeutral
}
