package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExecuteBuyAppliesSlippageAgainstTrader(t *testing.T) {
	model := ExecutionModel{
		FeePerTrade: d(t, "1"),
		SlippageBps: d(t, "25"),
		FillOn:      FillOnOpen,
	}
	bar := flatBar(t, 1, "100")
	order := Order{Time: day(0), Side: SideBuy, Quantity: 2}

	trade := model.Execute(order, bar)

	if !trade.Price.Equal(d(t, "100.25")) {
		t.Fatalf("buy price = %s, want 100.25", trade.Price)
	}
	if !trade.Notional.Equal(d(t, "200.5")) {
		t.Fatalf("notional = %s, want 200.5", trade.Notional)
	}
	if !trade.SlippageCost.Equal(d(t, "0.5")) {
		t.Fatalf("slippage cost = %s, want 0.5", trade.SlippageCost)
	}
	// notional + fee, negated: -(200.50 + 1)
	if !trade.NetCash.Equal(d(t, "-201.5")) {
		t.Fatalf("net cash = %s, want -201.5", trade.NetCash)
	}
	if !trade.Time.Equal(bar.Timestamp) {
		t.Fatalf("trade stamped %s, want fill bar %s", trade.Time, bar.Timestamp)
	}
}

func TestExecuteSellAppliesSlippageAgainstTrader(t *testing.T) {
	model := ExecutionModel{
		FeePerTrade: d(t, "1"),
		SlippageBps: d(t, "25"),
		FillOn:      FillOnOpen,
	}
	trade := model.Execute(Order{Time: day(0), Side: SideSell, Quantity: 2}, flatBar(t, 1, "100"))

	if !trade.Price.Equal(d(t, "99.75")) {
		t.Fatalf("sell price = %s, want 99.75", trade.Price)
	}
	// notional - fee: 199.50 - 1
	if !trade.NetCash.Equal(d(t, "198.5")) {
		t.Fatalf("net cash = %s, want 198.5", trade.NetCash)
	}
}

func TestExecuteFillPolicySelectsPrice(t *testing.T) {
	model := ExecutionModel{FillOn: FillOnClose}
	bar := mustBar(t, 1, "10", "11", "10", "11")

	trade := model.Execute(Order{Side: SideBuy, Quantity: 1}, bar)
	if !trade.Price.Equal(d(t, "11")) {
		t.Fatalf("fill-on-close price = %s, want 11", trade.Price)
	}

	model.FillOn = FillOnOpen
	trade = model.Execute(Order{Side: SideBuy, Quantity: 1}, bar)
	if !trade.Price.Equal(d(t, "10")) {
		t.Fatalf("fill-on-open price = %s, want 10", trade.Price)
	}
}

func TestExecuteRoundsCashHalfEven(t *testing.T) {
	model := ExecutionModel{FeePerTrade: decimal.Zero, SlippageBps: decimal.Zero, FillOn: FillOnOpen}

	// 10.005 rounds to the even cent: 10.00.
	trade := model.Execute(Order{Side: SideBuy, Quantity: 1}, flatBar(t, 1, "10.005"))
	if !trade.NetCash.Equal(d(t, "-10")) {
		t.Fatalf("net cash = %s, want -10", trade.NetCash)
	}

	// 10.015 rounds to the even cent: 10.02.
	trade = model.Execute(Order{Side: SideSell, Quantity: 1}, flatBar(t, 2, "10.015"))
	if !trade.NetCash.Equal(d(t, "10.02")) {
		t.Fatalf("net cash = %s, want 10.02", trade.NetCash)
	}

	// The fill price itself stays unrounded.
	trade = model.Execute(Order{Side: SideBuy, Quantity: 1}, flatBar(t, 3, "10.005"))
	if !trade.Price.Equal(d(t, "10.005")) {
		t.Fatalf("price = %s, want unrounded 10.005", trade.Price)
	}
}

func TestExecuteZeroSlippageZeroFee(t *testing.T) {
	model := ExecutionModel{FillOn: FillOnOpen}
	trade := model.Execute(Order{Side: SideBuy, Quantity: 3}, flatBar(t, 1, "42"))

	if !trade.Price.Equal(d(t, "42")) {
		t.Fatalf("price = %s, want 42", trade.Price)
	}
	if !trade.SlippageCost.IsZero() {
		t.Fatalf("slippage cost = %s, want 0", trade.SlippageCost)
	}
	if !trade.NetCash.Equal(d(t, "-126")) {
		t.Fatalf("net cash = %s, want -126", trade.NetCash)
	}
}
