package strategies

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
)

// Momentum trades lookback returns: BUY when the trailing return crosses
// above +threshold, SELL when it crosses below -threshold. Like the crossover
// reference it fires once per crossing, holding through the region in
// between.
type Momentum struct {
	lookback  int
	threshold decimal.Decimal
}

func NewMomentum(lookback int, threshold decimal.Decimal) (*Momentum, error) {
	if lookback < 1 {
		return nil, fmt.Errorf("lookback must be >= 1, got %d", lookback)
	}
	if threshold.IsNegative() {
		return nil, fmt.Errorf("threshold must be >= 0, got %s", threshold)
	}
	return &Momentum{lookback: lookback, threshold: threshold}, nil
}

func (m *Momentum) Name() string {
	return fmt.Sprintf("momentum(%d,%s)", m.lookback, m.threshold.String())
}

func (m *Momentum) SignalAt(bars []engine.Bar, i int) engine.SignalType {
	if i < m.lookback {
		return engine.SignalHold
	}

	now := m.zone(bars, i)
	if i-1 < m.lookback {
		return zoneEntrySignal(now)
	}
	prev := m.zone(bars, i-1)
	if now == zoneAbove && prev != zoneAbove {
		return engine.SignalBuy
	}
	if now == zoneBelow && prev != zoneBelow {
		return engine.SignalSell
	}
	return engine.SignalHold
}

type zone int

const (
	zoneNeutral zone = iota
	zoneAbove
	zoneBelow
)

func (m *Momentum) zone(bars []engine.Bar, i int) zone {
	ret := bars[i].Close.Div(bars[i-m.lookback].Close).Sub(decimal.NewFromInt(1))
	if ret.Cmp(m.threshold) > 0 {
		return zoneAbove
	}
	if ret.Cmp(m.threshold.Neg()) < 0 {
		return zoneBelow
	}
	return zoneNeutral
}

func zoneEntrySignal(z zone) engine.SignalType {
	switch z {
	case zoneAbove:
		return engine.SignalBuy
	case zoneBelow:
		return engine.SignalSell
	default:
		return engine.SignalHold
	}
}
