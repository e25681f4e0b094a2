package engine

import (
	"fmt"
	"time"
)

// Side is the direction of an executed market transaction, used by orders and
// trades once a decision has been translated into an action.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

// Order is an intent to trade, stamped with the decision bar's timestamp. It
// is consumed immediately by the execution model and not persisted.
type Order struct {
	Time     time.Time
	Side     Side
	Quantity int64
}

// OrderBuilder converts non-HOLD signals into orders of a fixed configured
// quantity. Position sizing is out of core scope; the quantity is an injected
// constant.
type OrderBuilder struct {
	Quantity int64
}

// Build returns the order for a signal, or a diagnostic when the signal must
// be rejected. HOLD produces neither. A SELL is only valid while the current
// position covers the order quantity; an oversell is rejected as
// INSUFFICIENT_POSITION and the bar is skipped.
func (b OrderBuilder) Build(sig Signal, positionQty int64) (*Order, *Diagnostic) {
	switch sig.Type {
	case SignalBuy:
		return &Order{Time: sig.Time, Side: SideBuy, Quantity: b.Quantity}, nil
	case SignalSell:
		if positionQty < b.Quantity {
			return nil, &Diagnostic{
				BarIndex: sig.BarIndex,
				Time:     sig.Time,
				Code:     DiagInsufficientPosition,
				Detail:   fmt.Sprintf("sell %d rejected: position is %d: %v", b.Quantity, positionQty, ErrInsufficientPosition),
			}
		}
		return &Order{Time: sig.Time, Side: SideSell, Quantity: b.Quantity}, nil
	default:
		return nil, nil
	}
}
