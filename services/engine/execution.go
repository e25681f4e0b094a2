package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// FillPolicy selects which price of the fill bar an order executes at.
type FillPolicy int

const (
	FillOnOpen FillPolicy = iota
	FillOnClose
)

func (p FillPolicy) String() string {
	if p == FillOnClose {
		return "close"
	}
	return "open"
}

// CashPrecision is the number of fractional digits cash is posted at.
// Rounding happens only there, using round-half-even.
const CashPrecision = 2

var bpsDivisor = decimal.NewFromInt(10_000)

// Trade is the immutable record of an executed order.
type Trade struct {
	Time         time.Time
	Side         Side
	Quantity     int64
	Price        decimal.Decimal // fill price after slippage
	Fee          decimal.Decimal
	SlippageCost decimal.Decimal
	Notional     decimal.Decimal // gross value: quantity x fill price
	NetCash      decimal.Decimal // signed cash impact, rounded half-even at CashPrecision
}

// ExecutionModel resolves orders against the bar following the decision bar,
// applying directional slippage and a fixed per-trade fee.
type ExecutionModel struct {
	FeePerTrade decimal.Decimal
	SlippageBps decimal.Decimal
	FillOn      FillPolicy
}

// Execute converts an order into a trade against the fill bar. Slippage always
// works against the trader: a BUY fills at base*(1+bps/10000), a SELL at
// base*(1-bps/10000). The fee is charged per trade, not per share.
func (m ExecutionModel) Execute(order Order, bar Bar) Trade {
	base := bar.Open
	if m.FillOn == FillOnClose {
		base = bar.Close
	}

	rate := m.SlippageBps.Div(bpsDivisor)
	var price decimal.Decimal
	if order.Side == SideBuy {
		price = base.Mul(decimal.NewFromInt(1).Add(rate))
	} else {
		price = base.Mul(decimal.NewFromInt(1).Sub(rate))
	}

	qty := decimal.NewFromInt(order.Quantity)
	notional := price.Mul(qty)
	slippageCost := price.Sub(base).Abs().Mul(qty)

	var netCash decimal.Decimal
	if order.Side == SideBuy {
		netCash = notional.Add(m.FeePerTrade).Neg()
	} else {
		netCash = notional.Sub(m.FeePerTrade)
	}

	return Trade{
		Time:         bar.Timestamp,
		Side:         order.Side,
		Quantity:     order.Quantity,
		Price:        price,
		Fee:          m.FeePerTrade,
		SlippageCost: slippageCost,
		Notional:     notional,
		NetCash:      netCash.RoundBank(CashPrecision),
	}
}
