package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/stocksage/internal/collector"
	"github.com/newthinker/stocksage/internal/core"
	"github.com/newthinker/stocksage/internal/indicator"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultWindowDays = 30
	DefaultWorkers    = 4
)

// HoldingAnalysis is the per-holding result of an analysis run
type HoldingAnalysis struct {
	Holding             Holding              `json:"holding"`
	CurrentPrice        float64              `json:"current_price"`
	CostBasis           float64              `json:"cost_basis"`
	MarketValue         float64              `json:"market_value"`
	ProfitLoss          float64              `json:"profit_loss"`
	UnrealizedReturnPct float64              `json:"unrealized_return_pct"`
	Indicators          core.IndicatorResult `json:"indicators"`
	Recommendation      core.Recommendation  `json:"recommendation"`
	Reason              string               `json:"reason"`
}

// Summary aggregates all holdings of one run
type Summary struct {
	TotalCost       float64           `json:"total_cost"`
	TotalValue      float64           `json:"total_value"`
	TotalProfitLoss float64           `json:"total_profit_loss"`
	TotalReturnPct  float64           `json:"total_return_pct"`
	Holdings        []HoldingAnalysis `json:"holdings"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// Recorder receives analysis observations
type Recorder interface {
	RecordRecommendation(recommendation string)
	RecordAnalysis(holdings int, seconds float64)
}

// Config holds portfolio engine settings
type Config struct {
	WindowDays int // trailing trading days used for indicators
	Workers    int // concurrent holdings in flight
	Indicator  indicator.Config
	Rules      Rules
}

// DefaultConfig returns the default portfolio settings
func DefaultConfig() Config {
	return Config{
		WindowDays: DefaultWindowDays,
		Workers:    DefaultWorkers,
		Indicator:  indicator.DefaultConfig(),
		Rules:      DefaultRules(),
	}
}

// Engine analyzes holdings against a data provider. It keeps no state between runs.
type Engine struct {
	provider   collector.Provider
	indicators *indicator.Engine
	cfg        Config
	logger     *zap.Logger
	recorder   Recorder
	now        func() time.Time
}

// NewEngine creates a new portfolio engine
func NewEngine(provider collector.Provider, cfg Config, logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Rules == (Rules{}) {
		cfg.Rules = DefaultRules()
	}
	return &Engine{
		provider:   provider,
		indicators: indicator.NewEngine(trailing{provider, cfg.WindowDays}, cfg.Indicator, l),
		cfg:        cfg,
		logger:     l,
		now:        time.Now,
	}
}

// SetRecorder attaches a metrics recorder. A recorder that also records
// indicator computations is handed to the indicator engine.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
	if ir, ok := r.(indicator.Recorder); ok {
		e.indicators.SetRecorder(ir)
	}
}

// SetClock overrides the current time source
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Analyze validates the holdings, analyzes each one and aggregates the totals.
// Output order matches input order. Invalid holdings are all reported together
// before any fetch happens.
func (e *Engine) Analyze(ctx context.Context, holdings []Holding) (*Summary, error) {
	began := time.Now()
	now := e.now()

	summary := &Summary{
		Holdings:    make([]HoldingAnalysis, 0, len(holdings)),
		GeneratedAt: now,
	}
	if len(holdings) == 0 {
		return summary, nil
	}

	var invalid []error
	for i, h := range holdings {
		if err := h.Validate(i, now); err != nil {
			invalid = append(invalid, err)
		}
	}
	if len(invalid) > 0 {
		return nil, errors.Join(invalid...)
	}

	results := make([]HoldingAnalysis, len(holdings))
	errs := make([]error, len(holdings))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup
	for i := range holdings {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			defer func() { <-sem }()

			results[i], errs[i] = e.analyzeHolding(ctx, holdings[i], now)
			if errs[i] != nil {
				cancel()
			}
		}(i)
	}
	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}

	summary.Holdings = results
	aggregate(summary)

	e.logger.Info("portfolio analyzed",
		zap.Int("holdings", len(results)),
		zap.Float64("total_value", summary.TotalValue),
		zap.Float64("total_return_pct", summary.TotalReturnPct),
	)
	if e.recorder != nil {
		for _, r := range results {
			e.recorder.RecordRecommendation(string(r.Recommendation))
		}
		e.recorder.RecordAnalysis(len(results), time.Since(began).Seconds())
	}
	return summary, nil
}

// analyzeHolding fetches the current price and the trailing indicator window
func (e *Engine) analyzeHolding(ctx context.Context, h Holding, now time.Time) (HoldingAnalysis, error) {
	price, err := e.provider.FetchCurrentPrice(ctx, h.Ticker)
	if err != nil {
		return HoldingAnalysis{}, core.WrapError(core.ErrDataProvider, fmt.Errorf("%s price: %w", h.Ticker, err))
	}

	end := now
	start := end.AddDate(0, 0, -calendarDays(e.cfg.WindowDays))
	result, err := e.indicators.Compute(ctx, h.Ticker, start, end)
	switch {
	case errors.Is(err, core.ErrNoData):
		// the price alone still drives the return-based rules
		e.logger.Warn("no indicator window",
			zap.String("ticker", h.Ticker),
			zap.Int("window_days", e.cfg.WindowDays),
		)
		result = core.IndicatorResult{Ticker: h.Ticker, Start: start, End: end}
	case err != nil:
		return HoldingAnalysis{}, err
	}

	analysis := Evaluate(h, price, result, e.cfg.Rules)
	e.logger.Debug("holding analyzed",
		zap.String("ticker", h.Ticker),
		zap.Float64("current_price", price),
		zap.Float64("return_pct", analysis.UnrealizedReturnPct),
		zap.String("recommendation", string(analysis.Recommendation)),
		zap.String("reason", analysis.Reason),
	)
	return analysis, nil
}

// Evaluate derives the return metrics and recommendation for one holding
func Evaluate(h Holding, currentPrice float64, result core.IndicatorResult, rules Rules) HoldingAnalysis {
	returnPct := (currentPrice - h.BuyPrice) / h.BuyPrice * 100
	rec, reason := rules.Recommend(RuleInput{
		RSI:            result.RSI,
		ReturnPct:      returnPct,
		PriceChangePct: result.PriceChangePct,
	})
	return HoldingAnalysis{
		Holding:             h,
		CurrentPrice:        currentPrice,
		CostBasis:           h.CostBasis(),
		MarketValue:         currentPrice * h.Quantity,
		ProfitLoss:          (currentPrice - h.BuyPrice) * h.Quantity,
		UnrealizedReturnPct: returnPct,
		Indicators:          result,
		Recommendation:      rec,
		Reason:              reason,
	}
}

// aggregate sums cost and value exactly and derives the totals
func aggregate(s *Summary) {
	cost := decimal.Zero
	value := decimal.Zero
	for _, a := range s.Holdings {
		qty := decimal.NewFromFloat(a.Holding.Quantity)
		cost = cost.Add(decimal.NewFromFloat(a.Holding.BuyPrice).Mul(qty))
		value = value.Add(decimal.NewFromFloat(a.CurrentPrice).Mul(qty))
	}

	s.TotalCost = cost.InexactFloat64()
	s.TotalValue = value.InexactFloat64()
	s.TotalProfitLoss = value.Sub(cost).InexactFloat64()
	s.TotalReturnPct = 0
	if !cost.IsZero() {
		s.TotalReturnPct = value.Sub(cost).Div(cost).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
}

// firstError prefers a real failure over the cancellations it caused
func firstError(errs []error) error {
	var cancelled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if cancelled == nil {
				cancelled = err
			}
			continue
		}
		return err
	}
	if cancelled != nil {
		return core.WrapError(core.ErrCancelled, cancelled)
	}
	return nil
}

// calendarDays converts a trading-day window into a calendar lookback with slack
// for weekends and holidays
func calendarDays(tradingDays int) int {
	return tradingDays*7/5 + 7
}

// trailing trims fetched series to the last n bars
type trailing struct {
	provider collector.Provider
	n        int
}

func (t trailing) FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error) {
	series, err := t.provider.FetchSeries(ctx, ticker, start, end)
	if err != nil {
		return series, err
	}
	if len(series.Bars) > t.n {
		series.Bars = series.Bars[len(series.Bars)-t.n:]
	}
	return series, nil
}
