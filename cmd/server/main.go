// Command server exposes backtest runs and parameter sweeps over HTTP.
// Bars are loaded from CSV paths visible to the server process; results are
// kept in memory keyed by job ID and optionally exported to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/engine"
	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/marketdata"
	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/services/report"
	"github.com/James7168/Quantitative-Backtesting-and-Risk-Reporting-Engine/strategies"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	svc := newService(logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", svc.health)
	api := router.Group("/api/v1")
	api.POST("/backtests", svc.runBacktest)
	api.POST("/sweeps", svc.runSweep)
	api.GET("/jobs/:id", svc.getJob)

	server := &http.Server{Addr: *addr, Handler: router}

	go func() {
		logger.Info("server listening", zap.String("addr", *addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

type service struct {
	logger *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

type job struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	Error       string    `json:"error,omitempty"`
	Result      any       `json:"result,omitempty"`
}

func newService(logger *zap.Logger) *service {
	return &service{logger: logger, jobs: make(map[string]*job)}
}

func (s *service) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engine_version": engine.EngineVersion})
}

// runRequest carries one backtest's inputs. Decimal-valued fields travel as
// strings so they parse exactly.
type runRequest struct {
	DataPath      string `json:"data_path" binding:"required"`
	Cash          string `json:"cash"`
	Fee           string `json:"fee"`
	SlippageBps   string `json:"slippage_bps"`
	FillOn        string `json:"fill_on"`
	OrderQuantity int64  `json:"order_quantity"`

	Strategy   string `json:"strategy"`
	FastWindow int    `json:"fast_window"`
	SlowWindow int    `json:"slow_window"`
	Lookback   int    `json:"lookback"`
	Threshold  string `json:"threshold"`
	Window     int    `json:"window"`
	Band       string `json:"band"`

	// When set, artifacts are exported under this directory.
	OutputRoot string `json:"output_root"`
}

type runResponse struct {
	RunID       string              `json:"run_id"`
	Strategy    string              `json:"strategy"`
	Metrics     report.Metrics      `json:"metrics"`
	Trades      int                 `json:"trades"`
	Snapshots   int                 `json:"snapshots"`
	Diagnostics []engine.Diagnostic `json:"diagnostics"`
	Manifest    engine.RunManifest  `json:"manifest"`
	ArtifactDir string              `json:"artifact_dir,omitempty"`
}

func (s *service) runBacktest(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jb := s.newJob("backtest")
	resp, err := s.execute(req)
	if err != nil {
		s.failJob(jb, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"job_id": jb.ID, "error": err.Error()})
		return
	}
	s.completeJob(jb, resp)

	s.logger.Info("backtest completed",
		zap.String("job_id", jb.ID),
		zap.String("run_id", resp.RunID),
		zap.String("strategy", resp.Strategy),
		zap.Int("trades", resp.Trades),
	)
	c.JSON(http.StatusOK, gin.H{"job_id": jb.ID, "result": resp})
}

func (s *service) execute(req runRequest) (*runResponse, error) {
	cfg, err := req.engineConfig()
	if err != nil {
		return nil, err
	}
	strat, err := req.buildStrategy()
	if err != nil {
		return nil, err
	}
	bars, err := marketdata.LoadCSV(req.DataPath)
	if err != nil {
		return nil, err
	}

	res, err := engine.Run(bars, cfg, strat)
	if err != nil {
		return nil, err
	}

	resp := &runResponse{
		RunID:       res.RunID,
		Strategy:    res.Strategy,
		Metrics:     report.MetricsFrom(res.Metrics),
		Trades:      len(res.Trades),
		Snapshots:   len(res.Snapshots),
		Diagnostics: res.Diagnostics,
		Manifest:    res.Manifest,
	}
	if req.OutputRoot != "" {
		dir, err := report.Export(req.OutputRoot, res)
		if err != nil {
			return nil, fmt.Errorf("export artifacts: %w", err)
		}
		resp.ArtifactDir = dir
	}
	return resp, nil
}

type sweepRequest struct {
	DataPath      string `json:"data_path" binding:"required"`
	Cash          string `json:"cash"`
	Fee           string `json:"fee"`
	SlippageBps   string `json:"slippage_bps"`
	FillOn        string `json:"fill_on"`
	OrderQuantity int64  `json:"order_quantity"`

	FastWindows []int `json:"fast_windows" binding:"required"`
	SlowWindows []int `json:"slow_windows" binding:"required"`
	Workers     int   `json:"workers"`
}

type sweepCell struct {
	Fast    int             `json:"fast"`
	Slow    int             `json:"slow"`
	Error   string          `json:"error,omitempty"`
	Metrics *report.Metrics `json:"metrics,omitempty"`
}

func (s *service) runSweep(c *gin.Context) {
	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jb := s.newJob("sweep")

	cfg, err := (runRequest{
		Cash:          req.Cash,
		Fee:           req.Fee,
		SlippageBps:   req.SlippageBps,
		FillOn:        req.FillOn,
		OrderQuantity: req.OrderQuantity,
	}).engineConfig()
	if err != nil {
		s.failJob(jb, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"job_id": jb.ID, "error": err.Error()})
		return
	}
	bars, err := marketdata.LoadCSV(req.DataPath)
	if err != nil {
		s.failJob(jb, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"job_id": jb.ID, "error": err.Error()})
		return
	}

	var points []engine.SweepPoint
	for _, f := range req.FastWindows {
		for _, sl := range req.SlowWindows {
			points = append(points, engine.SweepPoint{Fast: f, Slow: sl})
		}
	}

	started := time.Now()
	results := engine.RunSweep(bars, cfg, points, req.Workers, func(p engine.SweepPoint) (engine.Strategy, error) {
		return strategies.NewSMACross(p.Fast, p.Slow)
	})

	cells := make([]sweepCell, len(results))
	for i, r := range results {
		cells[i] = sweepCell{Fast: r.Point.Fast, Slow: r.Point.Slow, Error: r.Err}
		if r.Result != nil {
			m := report.MetricsFrom(r.Result.Metrics)
			cells[i].Metrics = &m
		}
	}
	s.completeJob(jb, cells)

	s.logger.Info("sweep completed",
		zap.String("job_id", jb.ID),
		zap.Int("points", len(points)),
		zap.Duration("elapsed", time.Since(started)),
	)
	c.JSON(http.StatusOK, gin.H{"job_id": jb.ID, "results": cells})
}

func (s *service) getJob(c *gin.Context) {
	s.mu.RLock()
	jb, ok := s.jobs[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, jb)
}

func (s *service) newJob(kind string) *job {
	jb := &job{
		ID:          uuid.New().String(),
		Kind:        kind,
		Status:      "running",
		SubmittedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[jb.ID] = jb
	s.mu.Unlock()
	return jb
}

func (s *service) completeJob(jb *job, result any) {
	s.mu.Lock()
	jb.Status = "completed"
	jb.Result = result
	s.mu.Unlock()
}

func (s *service) failJob(jb *job, err error) {
	s.mu.Lock()
	jb.Status = "failed"
	jb.Error = err.Error()
	s.mu.Unlock()
}

func (r runRequest) engineConfig() (engine.Config, error) {
	parse := func(name, raw, fallback string) (decimal.Decimal, error) {
		if raw == "" {
			raw = fallback
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", name, raw, err)
		}
		return d, nil
	}

	cash, err := parse("cash", r.Cash, "10000")
	if err != nil {
		return engine.Config{}, err
	}
	fee, err := parse("fee", r.Fee, "0")
	if err != nil {
		return engine.Config{}, err
	}
	slippage, err := parse("slippage_bps", r.SlippageBps, "0")
	if err != nil {
		return engine.Config{}, err
	}

	policy := engine.FillOnOpen
	switch r.FillOn {
	case "", "open":
	case "close":
		policy = engine.FillOnClose
	default:
		return engine.Config{}, fmt.Errorf("fill_on must be open or close, got %q", r.FillOn)
	}

	quantity := r.OrderQuantity
	if quantity == 0 {
		quantity = 1
	}

	cfg := engine.Config{
		InitialCash:   cash,
		FeePerTrade:   fee,
		SlippageBps:   slippage,
		FillOn:        policy,
		OrderQuantity: quantity,
	}
	return cfg, cfg.Validate()
}

func (r runRequest) buildStrategy() (engine.Strategy, error) {
	name := r.Strategy
	if name == "" {
		name = "sma_cross"
	}
	switch name {
	case "sma_cross":
		fast, slow := r.FastWindow, r.SlowWindow
		if fast == 0 {
			fast = 5
		}
		if slow == 0 {
			slow = 10
		}
		return strategies.NewSMACross(fast, slow)
	case "momentum":
		lookback := r.Lookback
		if lookback == 0 {
			lookback = 20
		}
		threshold := r.Threshold
		if threshold == "" {
			threshold = "0.02"
		}
		th, err := decimal.NewFromString(threshold)
		if err != nil {
			return nil, fmt.Errorf("parse threshold %q: %w", threshold, err)
		}
		return strategies.NewMomentum(lookback, th)
	case "mean_reversion":
		window := r.Window
		if window == 0 {
			window = 20
		}
		band := r.Band
		if band == "" {
			band = "0.02"
		}
		bd, err := decimal.NewFromString(band)
		if err != nil {
			return nil, fmt.Errorf("parse band %q: %w", band, err)
		}
		return strategies.NewMeanReversion(window, bd)
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
