// Command backtest runs one backtest (or a parameter sweep) from the command
// line: load bars from CSV or ClickHouse, run the engine, export artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/marketdata"
	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/report"
	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/strategies"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file; flags override it")

	dataPath := flag.String("data", "", "Path to local bar CSV")
	output := flag.String("output", "output", "Output root for run artifacts")

	cash := flag.String("cash", "10000", "Initial cash")
	fee := flag.String("fee", "0", "Fixed fee per trade")
	slippage := flag.String("slippage-bps", "0", "Slippage in basis points")
	fillOn := flag.String("fill-on", "open", "Fill price of the next bar: open or close")
	quantity := flag.Int64("quantity", 1, "Fixed order quantity")

	strategyName := flag.String("strategy", "sma_cross", "Strategy: sma_cross, momentum, mean_reversion")
	fastWindow := flag.Int("fast-window", 5, "SMA crossover fast window")
	slowWindow := flag.Int("slow-window", 10, "SMA crossover slow window")
	lookback := flag.Int("lookback", 20, "Momentum lookback")
	threshold := flag.String("threshold", "0.02", "Momentum return threshold")
	window := flag.Int("window", 20, "Mean reversion SMA window")
	band := flag.String("band", "0.02", "Mean reversion band fraction")

	sweepFast := flag.String("sweep-fast", "", "Comma-separated fast windows; with -sweep-slow runs a sweep")
	sweepSlow := flag.String("sweep-slow", "", "Comma-separated slow windows")
	sweepWorkers := flag.Int("sweep-workers", 0, "Sweep worker count (0 = GOMAXPROCS)")

	chAddr := flag.String("ch-addr", "", "ClickHouse address; when set, bars load from ClickHouse instead of CSV")
	chDatabase := flag.String("ch-db", "backtest", "ClickHouse database")
	chTable := flag.String("ch-table", "bars", "ClickHouse table")
	chUser := flag.String("ch-user", "backtest", "ClickHouse user")
	chPass := flag.String("ch-pass", "", "ClickHouse password")
	symbol := flag.String("symbol", "AAPL", "Symbol to query from ClickHouse")
	from := flag.String("from", "", "Query start date (YYYY-MM-DD)")
	to := flag.String("to", "", "Query end date (YYYY-MM-DD, exclusive)")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *configPath != "" {
		if err := applyFileConfig(*configPath); err != nil {
			logger.Fatal("load config file", zap.String("path", *configPath), zap.Error(err))
		}
	}

	cfg, err := buildConfig(*cash, *fee, *slippage, *fillOn, *quantity)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	bars, err := loadBars(logger, *dataPath, *chAddr, *chDatabase, *chTable, *chUser, *chPass, *symbol, *from, *to)
	if err != nil {
		logger.Fatal("load bars", zap.Error(err))
	}
	logger.Info("bars loaded",
		zap.Int("count", len(bars)),
		zap.Time("first", bars[0].Timestamp),
		zap.Time("last", bars[len(bars)-1].Timestamp),
	)
	if gaps := marketdata.DetectGaps(bars, 4*24*time.Hour); len(gaps) > 0 {
		logger.Warn("gaps detected in bar series", zap.Int("count", len(gaps)))
	}

	if *sweepFast != "" && *sweepSlow != "" {
		if err := runSweep(logger, bars, cfg, *sweepFast, *sweepSlow, *sweepWorkers); err != nil {
			logger.Fatal("sweep failed", zap.Error(err))
		}
		return
	}

	strat, err := buildStrategy(*strategyName, *fastWindow, *slowWindow, *lookback, *threshold, *window, *band)
	if err != nil {
		logger.Fatal("build strategy", zap.Error(err))
	}

	started := time.Now()
	res, err := engine.Run(bars, cfg, strat)
	if err != nil {
		logger.Fatal("run backtest", zap.Error(err))
	}

	runDir, err := report.Export(*output, res)
	if err != nil {
		logger.Fatal("export artifacts", zap.Error(err))
	}

	logger.Info("backtest completed",
		zap.String("run_id", res.RunID),
		zap.String("strategy", res.Strategy),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("trades", res.Metrics.TradeCount),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.String("total_return", res.Metrics.TotalReturn.String()),
		zap.String("artifacts", runDir),
	)
}

func buildConfig(cash, fee, slippage, fillOn string, quantity int64) (engine.Config, error) {
	cashD, err := decimal.NewFromString(cash)
	if err != nil {
		return engine.Config{}, fmt.Errorf("parse cash %q: %w", cash, err)
	}
	feeD, err := decimal.NewFromString(fee)
	if err != nil {
		return engine.Config{}, fmt.Errorf("parse fee %q: %w", fee, err)
	}
	slipD, err := decimal.NewFromString(slippage)
	if err != nil {
		return engine.Config{}, fmt.Errorf("parse slippage %q: %w", slippage, err)
	}
	policy, err := parseFillPolicy(fillOn)
	if err != nil {
		return engine.Config{}, err
	}
	cfg := engine.Config{
		InitialCash:   cashD,
		FeePerTrade:   feeD,
		SlippageBps:   slipD,
		FillOn:        policy,
		OrderQuantity: quantity,
	}
	return cfg, cfg.Validate()
}

func parseFillPolicy(s string) (engine.FillPolicy, error) {
	switch strings.ToLower(s) {
	case "open":
		return engine.FillOnOpen, nil
	case "close":
		return engine.FillOnClose, nil
	default:
		return 0, fmt.Errorf("fill policy must be open or close, got %q", s)
	}
}

func buildStrategy(name string, fast, slow, lookback int, threshold string, window int, band string) (engine.Strategy, error) {
	switch name {
	case "sma_cross":
		return strategies.NewSMACross(fast, slow)
	case "momentum":
		th, err := decimal.NewFromString(threshold)
		if err != nil {
			return nil, fmt.Errorf("parse threshold %q: %w", threshold, err)
		}
		return strategies.NewMomentum(lookback, th)
	case "mean_reversion":
		bd, err := decimal.NewFromString(band)
		if err != nil {
			return nil, fmt.Errorf("parse band %q: %w", band, err)
		}
		return strategies.NewMeanReversion(window, bd)
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func loadBars(logger *zap.Logger, dataPath, chAddr, chDatabase, chTable, chUser, chPass, symbol, from, to string) ([]engine.Bar, error) {
	if chAddr == "" {
		if dataPath == "" {
			return nil, fmt.Errorf("either -data or -ch-addr is required")
		}
		return marketdata.LoadCSV(dataPath)
	}

	fromTs, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("parse -from: %w", err)
	}
	toTs, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("parse -to: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	source, err := marketdata.NewClickHouseSource(ctx, marketdata.ClickHouseConfig{
		Addr:     chAddr,
		Database: chDatabase,
		Table:    chTable,
		Username: chUser,
		Password: chPass,
	})
	if err != nil {
		return nil, err
	}
	defer source.Close()

	logger.Info("loading bars from clickhouse",
		zap.String("addr", chAddr),
		zap.String("symbol", symbol),
		zap.String("from", from),
		zap.String("to", to),
	)
	return source.LoadBars(ctx, symbol, fromTs, toTs)
}

func runSweep(logger *zap.Logger, bars []engine.Bar, cfg engine.Config, fastList, slowList string, workers int) error {
	fasts, err := parseIntList(fastList)
	if err != nil {
		return fmt.Errorf("parse -sweep-fast: %w", err)
	}
	slows, err := parseIntList(slowList)
	if err != nil {
		return fmt.Errorf("parse -sweep-slow: %w", err)
	}

	var points []engine.SweepPoint
	for _, f := range fasts {
		for _, s := range slows {
			points = append(points, engine.SweepPoint{Fast: f, Slow: s})
		}
	}

	started := time.Now()
	results := engine.RunSweep(bars, cfg, points, workers, func(p engine.SweepPoint) (engine.Strategy, error) {
		return strategies.NewSMACross(p.Fast, p.Slow)
	})
	logger.Info("sweep completed",
		zap.Int("points", len(points)),
		zap.Duration("elapsed", time.Since(started)),
	)

	fmt.Println("fast\tslow\ttotal_return\tsharpe\tmax_drawdown\ttrades")
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("%d\t%d\tinvalid: %s\n", r.Point.Fast, r.Point.Slow, r.Err)
			continue
		}
		m := r.Result.Metrics
		sharpe := "n/a"
		if m.SharpeDefined {
			sharpe = strconv.FormatFloat(m.Sharpe, 'f', 4, 64)
		}
		fmt.Printf("%d\t%d\t%s\t%s\t%.4f\t%d\n",
			r.Point.Fast, r.Point.Slow, m.TotalReturn.StringFixed(6), sharpe, m.MaxDrawdown, m.TradeCount)
	}
	return nil
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}
