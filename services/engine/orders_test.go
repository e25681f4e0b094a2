package engine

import "testing"

func TestOrderBuilderHoldProducesNothing(t *testing.T) {
	b := OrderBuilder{Quantity: 5}
	order, diag := b.Build(Signal{Time: day(0), BarIndex: 0, Type: SignalHold}, 0)
	if order != nil || diag != nil {
		t.Fatalf("hold produced order=%v diag=%v, want neither", order, diag)
	}
}

func TestOrderBuilderBuy(t *testing.T) {
	b := OrderBuilder{Quantity: 5}
	order, diag := b.Build(Signal{Time: day(2), BarIndex: 2, Type: SignalBuy}, 0)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %+v", diag)
	}
	if order == nil || order.Side != SideBuy || order.Quantity != 5 {
		t.Fatalf("order = %+v, want BUY of 5", order)
	}
	if !order.Time.Equal(day(2)) {
		t.Fatalf("order stamped %s, want decision bar time %s", order.Time, day(2))
	}
}

func TestOrderBuilderRejectsOversell(t *testing.T) {
	b := OrderBuilder{Quantity: 5}

	order, diag := b.Build(Signal{Time: day(1), BarIndex: 1, Type: SignalSell}, 3)
	if order != nil {
		t.Fatalf("oversell produced an order: %+v", order)
	}
	if diag == nil || diag.Code != DiagInsufficientPosition {
		t.Fatalf("diagnostic = %+v, want %s", diag, DiagInsufficientPosition)
	}
	if diag.BarIndex != 1 {
		t.Fatalf("diagnostic bar index = %d, want 1", diag.BarIndex)
	}

	// Position exactly covering the quantity is sellable.
	order, diag = b.Build(Signal{Time: day(1), BarIndex: 1, Type: SignalSell}, 5)
	if diag != nil || order == nil || order.Side != SideSell {
		t.Fatalf("exact-cover sell: order=%+v diag=%+v", order, diag)
	}
}
