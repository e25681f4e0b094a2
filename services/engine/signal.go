package engine

import "time"

// SignalType is a directional strategy decision. It does not represent an
// executed transaction.
type SignalType int

const (
	SignalHold SignalType = iota
	SignalBuy
	SignalSell
)

func (s SignalType) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Signal tags a decision with the bar it was produced at. Signals are
// ephemeral: produced and consumed within a single loop iteration.
type Signal struct {
	Time     time.Time
	BarIndex int
	Type     SignalType
}

// Strategy maps a prefix of the bar sequence to a decision. SignalAt must read
// bars[0..i] only; implementations must not rely on wall-clock time,
// randomness, or mutable external state, so that identical inputs always
// produce identical runs.
type Strategy interface {
	Name() string
	SignalAt(bars []Bar, i int) SignalType
}
