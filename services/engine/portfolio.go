package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Position is the aggregated long-only holding: quantity held and its
// weighted-average cost basis. Quantity never goes negative.
type Position struct {
	Quantity int64
	AvgCost  decimal.Decimal
}

// PortfolioSnapshot is the portfolio state marked at one bar's close. The
// append-only snapshot sequence forms the equity curve consumed by the
// metrics engine.
type PortfolioSnapshot struct {
	Time        time.Time
	Cash        decimal.Decimal
	Quantity    int64
	MarketValue decimal.Decimal
	Equity      decimal.Decimal // cash + market value
	RealizedPnL decimal.Decimal // cumulative
}

// Portfolio is the single evolving state machine of a run: cash and position,
// mutated only by trade application, plus the append-only trade log and
// equity curve it owns. One instance per run; the simulation loop is the sole
// writer.
type Portfolio struct {
	cash     decimal.Decimal
	position Position
	realized decimal.Decimal

	trades      []Trade
	perTradePnL []decimal.Decimal // realized P&L of each SELL, aligned with sells in order
	curve       []PortfolioSnapshot
}

func NewPortfolio(initialCash decimal.Decimal) *Portfolio {
	return &Portfolio{cash: initialCash}
}

func (p *Portfolio) Cash() decimal.Decimal        { return p.cash }
func (p *Portfolio) Position() Position           { return p.position }
func (p *Portfolio) RealizedPnL() decimal.Decimal { return p.realized }
func (p *Portfolio) Trades() []Trade              { return p.trades }

// RealizedPerTrade returns the realized P&L of each closing trade, in trade
// order. Input to the win-rate and average win/loss metrics.
func (p *Portfolio) RealizedPerTrade() []decimal.Decimal { return p.perTradePnL }

// EquityCurve returns the snapshot sequence accumulated so far.
func (p *Portfolio) EquityCurve() []PortfolioSnapshot { return p.curve }

// ApplyTrade applies an executed trade to cash and position. A BUY that would
// drive cash negative fails with ErrInsufficientCash and a SELL exceeding the
// position fails with ErrInsufficientPosition; both leave the state untouched,
// equivalent to a gap in the trade log.
func (p *Portfolio) ApplyTrade(t Trade) error {
	switch t.Side {
	case SideBuy:
		cost := t.NetCash.Neg()
		if p.cash.Cmp(cost) < 0 {
			return fmt.Errorf("buy of %d at %s costs %s with %s available: %w",
				t.Quantity, t.Price.String(), cost.String(), p.cash.String(), ErrInsufficientCash)
		}
		p.cash = p.cash.Add(t.NetCash)

		oldQty := decimal.NewFromInt(p.position.Quantity)
		addQty := decimal.NewFromInt(t.Quantity)
		newQty := oldQty.Add(addQty)
		p.position.AvgCost = p.position.AvgCost.Mul(oldQty).Add(t.Price.Mul(addQty)).Div(newQty)
		p.position.Quantity += t.Quantity

	case SideSell:
		if p.position.Quantity < t.Quantity {
			return fmt.Errorf("sell of %d with position %d: %w",
				t.Quantity, p.position.Quantity, ErrInsufficientPosition)
		}
		p.cash = p.cash.Add(t.NetCash)

		pnl := t.Price.Sub(p.position.AvgCost).Mul(decimal.NewFromInt(t.Quantity))
		p.realized = p.realized.Add(pnl)
		p.perTradePnL = append(p.perTradePnL, pnl)

		p.position.Quantity -= t.Quantity
		if p.position.Quantity == 0 {
			p.position.AvgCost = decimal.Zero
		}
	}

	p.trades = append(p.trades, t)
	return nil
}

// MarkToMarket values the position at the bar's close without mutating cash or
// position, appends the snapshot to the equity curve and returns it. Called
// once per bar, every bar, so the curve has one snapshot per bar timestamp
// with no gaps.
func (p *Portfolio) MarkToMarket(bar Bar) PortfolioSnapshot {
	mv := bar.Close.Mul(decimal.NewFromInt(p.position.Quantity))
	snap := PortfolioSnapshot{
		Time:        bar.Timestamp,
		Cash:        p.cash,
		Quantity:    p.position.Quantity,
		MarketValue: mv,
		Equity:      p.cash.Add(mv),
		RealizedPnL: p.realized,
	}
	p.curve = append(p.curve, snap)
	return snap
}

// Replay applies an existing trade log in order onto a fresh portfolio with
// the same starting cash. Replaying a run's trade log and marking the final
// bar reproduces the run's final snapshot exactly.
func Replay(initialCash decimal.Decimal, trades []Trade) (*Portfolio, error) {
	p := NewPortfolio(initialCash)
	for i, t := range trades {
		if err := p.ApplyTrade(t); err != nil {
			return nil, fmt.Errorf("replay trade %d: %w", i, err)
		}
	}
	return p, nil
}
