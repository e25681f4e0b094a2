package engine

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Config is the immutable run configuration, passed by value into the core.
type Config struct {
	InitialCash   decimal.Decimal `json:"initial_cash"`
	FeePerTrade   decimal.Decimal `json:"fee_per_trade"`
	SlippageBps   decimal.Decimal `json:"slippage_bps"`
	FillOn        FillPolicy      `json:"fill_on"`
	OrderQuantity int64           `json:"order_quantity"`
}

func (c Config) Validate() error {
	if !c.InitialCash.IsPositive() {
		return errors.New("initial cash must be > 0")
	}
	if c.FeePerTrade.IsNegative() {
		return errors.New("fee per trade must be >= 0")
	}
	if c.SlippageBps.IsNegative() {
		return errors.New("slippage bps must be >= 0")
	}
	if c.FillOn != FillOnOpen && c.FillOn != FillOnClose {
		return errors.New("fill policy must be open or close")
	}
	if c.OrderQuantity <= 0 {
		return errors.New("order quantity must be > 0")
	}
	return nil
}
