// Package report renders a completed run into filesystem artifacts: CSV
// equity curve and trade log, JSON metrics and manifest, and a human summary.
// The engine's output structures are treated as opaque records to serialize.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shopspring/decimal"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
)

var hundred = decimal.NewFromInt(100)

// Export writes all artifacts for a run into a fresh run_<stamp> directory
// under outputRoot and returns the directory path.
func Export(outputRoot string, res *engine.Result) (string, error) {
	runDir, err := makeRunDirectory(outputRoot)
	if err != nil {
		return "", err
	}

	steps := []struct {
		name  string
		write func(path string) error
	}{
		{"equity_curve.csv", func(p string) error { return writeEquityCurveCSV(p, res.Snapshots) }},
		{"trades.csv", func(p string) error { return writeTradesCSV(p, res.Trades) }},
		{"metrics.json", func(p string) error { return writeJSON(p, MetricsFrom(res.Metrics)) }},
		{"manifest.json", func(p string) error { return writeJSON(p, res.Manifest) }},
		{"diagnostics.json", func(p string) error { return writeJSON(p, res.Diagnostics) }},
		{"summary.md", func(p string) error { return writeSummary(p, res) }},
	}
	for _, step := range steps {
		if err := step.write(filepath.Join(runDir, step.name)); err != nil {
			return "", fmt.Errorf("write %s: %w", step.name, err)
		}
	}
	return runDir, nil
}

func makeRunDirectory(outputRoot string) (string, error) {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return "", fmt.Errorf("create output root: %w", err)
	}
	stamp := time.Now().Format("2006-01-02_15-04-05")
	runDir := filepath.Join(outputRoot, "run_"+stamp)
	if err := os.Mkdir(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	return runDir, nil
}

func writeEquityCurveCSV(path string, curve []engine.PortfolioSnapshot) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	if err := w.Write([]string{"timestamp", "cash", "quantity", "market_value", "equity", "realized_pnl"}); err != nil {
		return err
	}
	for _, snap := range curve {
		record := []string{
			snap.Time.UTC().Format(time.RFC3339),
			snap.Cash.String(),
			strconv.FormatInt(snap.Quantity, 10),
			snap.MarketValue.String(),
			snap.Equity.String(),
			snap.RealizedPnL.String(),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeTradesCSV(path string, trades []engine.Trade) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	if err := w.Write([]string{"timestamp", "side", "quantity", "price", "fee", "slippage_cost", "notional", "net_cash"}); err != nil {
		return err
	}
	for _, t := range trades {
		record := []string{
			t.Time.UTC().Format(time.RFC3339),
			t.Side.String(),
			strconv.FormatInt(t.Quantity, 10),
			t.Price.String(),
			t.Fee.String(),
			t.SlippageCost.String(),
			t.Notional.String(),
			t.NetCash.String(),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Metrics mirrors engine.Metrics with JSON-safe sentinels: an undefined
// Sharpe serializes as null instead of NaN, absent win/loss averages as null.
type Metrics struct {
	TotalReturn          string   `json:"total_return"`
	AnnualizedReturn     float64  `json:"annualized_return"`
	AnnualizedVolatility float64  `json:"annualized_volatility"`
	Sharpe               *float64 `json:"sharpe"`
	SharpeDefined        bool     `json:"sharpe_defined"`
	MaxDrawdown          float64  `json:"max_drawdown"`
	WinRate              float64  `json:"win_rate"`
	TradeCount           int      `json:"trade_count"`
	Turnover             string   `json:"turnover"`
	AvgWin               *string  `json:"avg_win"`
	AvgLoss              *string  `json:"avg_loss"`
}

func MetricsFrom(m engine.Metrics) Metrics {
	payload := Metrics{
		TotalReturn:          m.TotalReturn.String(),
		AnnualizedReturn:     m.AnnualizedReturn,
		AnnualizedVolatility: m.AnnualizedVolatility,
		SharpeDefined:        m.SharpeDefined,
		MaxDrawdown:          m.MaxDrawdown,
		WinRate:              m.WinRate,
		TradeCount:           m.TradeCount,
		Turnover:             m.Turnover.String(),
	}
	if m.SharpeDefined {
		sharpe := m.Sharpe
		payload.Sharpe = &sharpe
	}
	if m.AvgWin != nil {
		s := m.AvgWin.String()
		payload.AvgWin = &s
	}
	if m.AvgLoss != nil {
		s := m.AvgLoss.String()
		payload.AvgLoss = &s
	}
	return payload
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeSummary(path string, res *engine.Result) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "# Backtest Run %s\n\n", res.RunID)
	fmt.Fprintf(&b, "- Strategy: `%s`\n", res.Strategy)
	fmt.Fprintf(&b, "- Bars: %s (%s to %s)\n",
		p.Sprintf("%d", res.Manifest.BarCount),
		res.Manifest.FirstBar.Format("2006-01-02"),
		res.Manifest.LastBar.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Initial cash: %s\n", res.Config.InitialCash.String())
	fmt.Fprintf(&b, "- Fee per trade: %s, slippage: %s bps, fill on: %s\n",
		res.Config.FeePerTrade.String(), res.Config.SlippageBps.String(), res.Config.FillOn)
	fmt.Fprintf(&b, "- Order quantity: %s\n\n", p.Sprintf("%d", res.Config.OrderQuantity))

	m := res.Metrics
	sharpe := "undefined (insufficient data)"
	if m.SharpeDefined {
		sharpe = p.Sprintf("%.4f", m.Sharpe)
	}
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total return | %s%% |\n", m.TotalReturn.Mul(hundred).StringFixed(4))
	fmt.Fprintf(&b, "| Annualized return | %s |\n", p.Sprintf("%.4f", m.AnnualizedReturn))
	fmt.Fprintf(&b, "| Annualized volatility | %s |\n", p.Sprintf("%.4f", m.AnnualizedVolatility))
	fmt.Fprintf(&b, "| Sharpe ratio | %s |\n", sharpe)
	fmt.Fprintf(&b, "| Max drawdown | %s |\n", p.Sprintf("%.4f", m.MaxDrawdown))
	fmt.Fprintf(&b, "| Win rate | %s |\n", p.Sprintf("%.2f", m.WinRate))
	fmt.Fprintf(&b, "| Trades | %s |\n", p.Sprintf("%d", m.TradeCount))
	fmt.Fprintf(&b, "| Turnover | %s |\n\n", m.Turnover.StringFixed(4))

	if len(res.Snapshots) > 0 {
		last := res.Snapshots[len(res.Snapshots)-1]
		if last.Quantity > 0 {
			fmt.Fprintf(&b, "Open position at end of run: %s units marked at close. "+
				"Final equity reflects marked, not realized, value.\n\n",
				p.Sprintf("%d", last.Quantity))
		}
	}

	if len(res.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&b, "- bar %d (%s) %s: %s\n",
				d.BarIndex, d.Time.Format("2006-01-02"), d.Code, d.Detail)
		}
		b.WriteString("\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
