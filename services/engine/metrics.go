package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// TradingDaysPerYear is the period count used to annualize per-bar statistics.
const TradingDaysPerYear = 252

// Metrics are derived once from the completed equity curve and trade log.
// Accounting values stay decimal; statistical values are float64, matching
// how they are consumed downstream. Degenerate inputs (empty curve, single
// snapshot, zero variance) yield sentinels, never a failure: Sharpe is NaN
// with SharpeDefined false, averages are nil when a side has no trades.
type Metrics struct {
	TotalReturn          decimal.Decimal
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	Sharpe               float64
	SharpeDefined        bool
	MaxDrawdown          float64 // non-positive fraction, e.g. -0.25 for a 25% decline
	WinRate              float64
	TradeCount           int
	Turnover             decimal.Decimal
	AvgWin               *decimal.Decimal
	AvgLoss              *decimal.Decimal
}

// ReturnsSeries computes per-bar simple returns, equity[i]/equity[i-1] - 1.
// The first snapshot has no prior value and produces no return. A snapshot
// with zero prior equity contributes a zero return rather than failing; it
// cannot occur while cash stays non-negative and positions are long-only on
// positive prices.
func ReturnsSeries(curve []PortfolioSnapshot) []decimal.Decimal {
	if len(curve) < 2 {
		return nil
	}
	out := make([]decimal.Decimal, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev.IsZero() {
			out = append(out, decimal.Zero)
			continue
		}
		out = append(out, curve[i].Equity.Div(prev).Sub(decimal.NewFromInt(1)))
	}
	return out
}

// ComputeMetrics derives the full metrics record. realizedPnLs is the
// per-closing-trade realized P&L series from the portfolio; initialCash
// anchors turnover.
func ComputeMetrics(curve []PortfolioSnapshot, trades []Trade, realizedPnLs []decimal.Decimal, initialCash decimal.Decimal) Metrics {
	m := Metrics{
		TotalReturn: decimal.Zero,
		Turnover:    decimal.Zero,
		Sharpe:      math.NaN(),
		TradeCount:  len(trades),
	}

	if len(curve) > 0 {
		initial := curve[0].Equity
		final := curve[len(curve)-1].Equity
		if !initial.IsZero() {
			m.TotalReturn = final.Sub(initial).Div(initial)
		}
	}

	returns := ReturnsSeries(curve)
	values := make([]float64, len(returns))
	for i, r := range returns {
		values[i] = r.InexactFloat64()
	}

	if n := len(values); n > 0 {
		growth := 1.0 + m.TotalReturn.InexactFloat64()
		if growth > 0 {
			m.AnnualizedReturn = math.Pow(growth, float64(TradingDaysPerYear)/float64(n)) - 1
		} else {
			m.AnnualizedReturn = -1
		}

		sigma := pstdev(values)
		m.AnnualizedVolatility = sigma * math.Sqrt(TradingDaysPerYear)
		if sigma > 0 {
			m.Sharpe = mean(values) / sigma * math.Sqrt(TradingDaysPerYear)
			m.SharpeDefined = true
		}
	}

	m.MaxDrawdown = maxDrawdown(curve)

	if len(realizedPnLs) > 0 {
		wins := 0
		winSum, lossSum := decimal.Zero, decimal.Zero
		losses := 0
		for _, pnl := range realizedPnLs {
			if pnl.IsPositive() {
				wins++
				winSum = winSum.Add(pnl)
			} else if pnl.IsNegative() {
				losses++
				lossSum = lossSum.Add(pnl)
			}
		}
		m.WinRate = float64(wins) / float64(len(realizedPnLs))
		if wins > 0 {
			avg := winSum.Div(decimal.NewFromInt(int64(wins)))
			m.AvgWin = &avg
		}
		if losses > 0 {
			avg := lossSum.Div(decimal.NewFromInt(int64(losses)))
			m.AvgLoss = &avg
		}
	}

	if !initialCash.IsZero() {
		traded := decimal.Zero
		for _, t := range trades {
			traded = traded.Add(t.Notional)
		}
		m.Turnover = traded.Div(initialCash)
	}

	return m
}

// maxDrawdown is the largest peak-to-trough decline over the whole curve,
// computed in one linear pass tracking the running peak.
func maxDrawdown(curve []PortfolioSnapshot) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Equity
	worst := decimal.Zero
	for _, snap := range curve {
		if snap.Equity.Cmp(peak) > 0 {
			peak = snap.Equity
		}
		if peak.IsZero() {
			continue
		}
		dd := snap.Equity.Sub(peak).Div(peak)
		if dd.Cmp(worst) < 0 {
			worst = dd
		}
	}
	return worst.InexactFloat64()
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// pstdev is the population standard deviation.
func pstdev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mu := mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}
