package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Result is everything a run produces, handed to the exporter as opaque
// records: the ordered trade log, one snapshot per bar after the seed bar,
// the metrics record, and every non-fatal diagnostic raised along the way.
//
// An open position at the end of the run is left unliquidated: final equity
// reflects its marked, not realized, value. That is a modeling choice, not an
// omission.
type Result struct {
	RunID       string
	Strategy    string
	Config      Config
	Trades      []Trade
	Snapshots   []PortfolioSnapshot
	Metrics     Metrics
	Diagnostics []Diagnostic
	Manifest    RunManifest
}

// Run executes one backtest: a synchronous fold over the bar sequence.
//
// Bar 0 only seeds the strategy. For each subsequent bar i, the strategy reads
// bars[0..i-1], a non-HOLD signal becomes an order stamped at bar i-1, the
// order fills against bar i (the no-lookahead guarantee), and the portfolio is
// marked at bar i's close. A decision at the final bar has no next bar to fill
// against and is dropped as UNFILLABLE_ORDER.
//
// The bar sequence is assumed validated upstream: strictly time-ordered,
// duplicate-free, with per-bar invariants enforced at construction. No
// condition short of bar exhaustion halts the run.
func Run(bars []Bar, cfg Config, strat Strategy) (*Result, error) {
	if strat == nil {
		return nil, errors.New("strategy is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	portfolio := NewPortfolio(cfg.InitialCash)
	execModel := ExecutionModel{FeePerTrade: cfg.FeePerTrade, SlippageBps: cfg.SlippageBps, FillOn: cfg.FillOn}
	builder := OrderBuilder{Quantity: cfg.OrderQuantity}
	diags := &DiagnosticLog{}

	for i := 1; i < len(bars); i++ {
		decision := i - 1
		sig := Signal{
			Time:     bars[decision].Timestamp,
			BarIndex: decision,
			Type:     strat.SignalAt(bars, decision),
		}

		order, rejected := builder.Build(sig, portfolio.Position().Quantity)
		if rejected != nil {
			diags.Append(*rejected)
		}
		if order != nil {
			trade := execModel.Execute(*order, bars[i])
			if err := portfolio.ApplyTrade(trade); err != nil {
				diags.Append(Diagnostic{
					BarIndex: decision,
					Time:     sig.Time,
					Code:     codeForRejection(err),
					Detail:   err.Error(),
				})
			}
		}

		portfolio.MarkToMarket(bars[i])
	}

	// The final bar can still produce a signal, but there is no next bar to
	// fill against.
	if n := len(bars); n > 0 {
		last := n - 1
		sig := Signal{
			Time:     bars[last].Timestamp,
			BarIndex: last,
			Type:     strat.SignalAt(bars, last),
		}
		order, rejected := builder.Build(sig, portfolio.Position().Quantity)
		if rejected != nil {
			diags.Append(*rejected)
		}
		if order != nil {
			diags.Append(Diagnostic{
				BarIndex: last,
				Time:     sig.Time,
				Code:     DiagUnfillableOrder,
				Detail:   fmt.Sprintf("%s order at final bar dropped: no next bar to fill against", order.Side),
			})
		}
	}

	runID := uuid.New().String()
	return &Result{
		RunID:       runID,
		Strategy:    strat.Name(),
		Config:      cfg,
		Trades:      portfolio.Trades(),
		Snapshots:   portfolio.EquityCurve(),
		Metrics:     ComputeMetrics(portfolio.EquityCurve(), portfolio.Trades(), portfolio.RealizedPerTrade(), cfg.InitialCash),
		Diagnostics: diags.Entries,
		Manifest:    newRunManifest(runID, strat, cfg, bars),
	}, nil
}

func codeForRejection(err error) DiagnosticCode {
	switch {
	case errors.Is(err, ErrInsufficientCash):
		return DiagInsufficientCash
	case errors.Is(err, ErrInsufficientPosition):
		return DiagInsufficientPosition
	default:
		return DiagnosticCode("REJECTED")
	}
}
