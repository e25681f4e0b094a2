package engine

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func snapAt(t *testing.T, n int, equity string) PortfolioSnapshot {
	t.Helper()
	return PortfolioSnapshot{Time: day(n), Cash: d(t, equity), Equity: d(t, equity)}
}

func TestComputeMetricsEmptyCurve(t *testing.T) {
	m := ComputeMetrics(nil, nil, nil, decimal.NewFromInt(1000))

	if !m.TotalReturn.IsZero() {
		t.Fatalf("total return = %s, want 0", m.TotalReturn)
	}
	if m.SharpeDefined {
		t.Fatal("sharpe must be undefined for an empty curve")
	}
	if !math.IsNaN(m.Sharpe) {
		t.Fatalf("sharpe = %v, want NaN", m.Sharpe)
	}
	if m.MaxDrawdown != 0 {
		t.Fatalf("max drawdown = %v, want 0", m.MaxDrawdown)
	}
	if m.TradeCount != 0 {
		t.Fatalf("trade count = %d, want 0", m.TradeCount)
	}
}

func TestComputeMetricsSingleSnapshot(t *testing.T) {
	curve := []PortfolioSnapshot{snapAt(t, 0, "1000")}
	m := ComputeMetrics(curve, nil, nil, decimal.NewFromInt(1000))

	if !m.TotalReturn.IsZero() {
		t.Fatalf("total return = %s, want 0", m.TotalReturn)
	}
	if m.SharpeDefined {
		t.Fatal("one snapshot yields no returns, sharpe must be undefined")
	}
	if m.AnnualizedVolatility != 0 {
		t.Fatalf("volatility = %v, want 0", m.AnnualizedVolatility)
	}
}

func TestComputeMetricsFlatCurveSharpeUndefined(t *testing.T) {
	curve := []PortfolioSnapshot{
		snapAt(t, 0, "1000"),
		snapAt(t, 1, "1000"),
		snapAt(t, 2, "1000"),
	}
	m := ComputeMetrics(curve, nil, nil, decimal.NewFromInt(1000))

	if m.SharpeDefined {
		t.Fatal("zero-variance returns must leave sharpe undefined")
	}
	if !math.IsNaN(m.Sharpe) {
		t.Fatalf("sharpe = %v, want NaN", m.Sharpe)
	}
	if m.AnnualizedVolatility != 0 {
		t.Fatalf("volatility = %v, want 0", m.AnnualizedVolatility)
	}
	if m.AnnualizedReturn != 0 {
		t.Fatalf("annualized return = %v, want 0", m.AnnualizedReturn)
	}
}

func TestComputeMetricsTotalReturnAndDrawdown(t *testing.T) {
	curve := []PortfolioSnapshot{
		snapAt(t, 0, "100"),
		snapAt(t, 1, "110"),
		snapAt(t, 2, "99"),
	}
	m := ComputeMetrics(curve, nil, nil, decimal.NewFromInt(100))

	if !m.TotalReturn.Equal(d(t, "-0.01")) {
		t.Fatalf("total return = %s, want -0.01", m.TotalReturn)
	}
	// Peak 110, trough 99: (99-110)/110 = -0.1.
	if math.Abs(m.MaxDrawdown - -0.1) > 1e-12 {
		t.Fatalf("max drawdown = %v, want -0.1", m.MaxDrawdown)
	}
	if !m.SharpeDefined {
		t.Fatal("varying returns must define sharpe")
	}
}

func TestComputeMetricsDrawdownRecoveryKeepsWorst(t *testing.T) {
	curve := []PortfolioSnapshot{
		snapAt(t, 0, "100"),
		snapAt(t, 1, "80"),
		snapAt(t, 2, "120"),
		snapAt(t, 3, "114"),
	}
	m := ComputeMetrics(curve, nil, nil, decimal.NewFromInt(100))

	// Worst decline is 100 -> 80 even though the curve later recovers.
	if math.Abs(m.MaxDrawdown - -0.2) > 1e-12 {
		t.Fatalf("max drawdown = %v, want -0.2", m.MaxDrawdown)
	}
}

func TestComputeMetricsWinRateAndAverages(t *testing.T) {
	realized := []decimal.Decimal{d(t, "5"), d(t, "-2"), d(t, "3"), d(t, "0")}
	m := ComputeMetrics(nil, nil, realized, decimal.NewFromInt(1000))

	if m.WinRate != 0.5 {
		t.Fatalf("win rate = %v, want 0.5", m.WinRate)
	}
	if m.AvgWin == nil || !m.AvgWin.Equal(d(t, "4")) {
		t.Fatalf("avg win = %v, want 4", m.AvgWin)
	}
	if m.AvgLoss == nil || !m.AvgLoss.Equal(d(t, "-2")) {
		t.Fatalf("avg loss = %v, want -2", m.AvgLoss)
	}
}

func TestComputeMetricsAveragesNilWhenSideAbsent(t *testing.T) {
	realized := []decimal.Decimal{d(t, "5"), d(t, "3")}
	m := ComputeMetrics(nil, nil, realized, decimal.NewFromInt(1000))

	if m.WinRate != 1 {
		t.Fatalf("win rate = %v, want 1", m.WinRate)
	}
	if m.AvgLoss != nil {
		t.Fatalf("avg loss = %s, want nil with no losing trades", m.AvgLoss)
	}
}

func TestComputeMetricsTurnover(t *testing.T) {
	trades := []Trade{
		{Side: SideBuy, Quantity: 10, Notional: d(t, "100")},
		{Side: SideSell, Quantity: 10, Notional: d(t, "200")},
	}
	m := ComputeMetrics(nil, trades, nil, decimal.NewFromInt(1000))

	// Gross traded notional over initial cash: (100+200)/1000.
	if !m.Turnover.Equal(d(t, "0.3")) {
		t.Fatalf("turnover = %s, want 0.3", m.Turnover)
	}
	if m.TradeCount != 2 {
		t.Fatalf("trade count = %d, want 2", m.TradeCount)
	}
}

func TestReturnsSeries(t *testing.T) {
	curve := []PortfolioSnapshot{
		snapAt(t, 0, "100"),
		snapAt(t, 1, "110"),
		snapAt(t, 2, "99"),
	}
	returns := ReturnsSeries(curve)

	if len(returns) != 2 {
		t.Fatalf("got %d returns, want 2", len(returns))
	}
	if !returns[0].Equal(d(t, "0.1")) {
		t.Fatalf("first return = %s, want 0.1", returns[0])
	}
	if !returns[1].Equal(d(t, "-0.1")) {
		t.Fatalf("second return = %s, want -0.1", returns[1])
	}
	if ReturnsSeries(curve[:1]) != nil {
		t.Fatal("single snapshot must yield no returns")
	}
}
