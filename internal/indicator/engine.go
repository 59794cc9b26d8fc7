package indicator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/stocksage/internal/core"
	"go.uber.org/zap"
)

const (
	DefaultRSIPeriod = 14
	DefaultATRPeriod = 14
)

// SeriesFetcher is the part of a data provider the engine needs
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error)
}

// Config holds indicator periods
type Config struct {
	RSIPeriod int
	ATRPeriod int
}

// DefaultConfig returns the conventional 14-period settings
func DefaultConfig() Config {
	return Config{RSIPeriod: DefaultRSIPeriod, ATRPeriod: DefaultATRPeriod}
}

// Recorder receives the outcome of each Compute call
type Recorder interface {
	RecordIndicators(status string)
}

// Engine fetches a series and reduces it to an IndicatorResult.
// It keeps no state between calls.
type Engine struct {
	fetcher  SeriesFetcher
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
}

// NewEngine creates a new indicator engine
func NewEngine(fetcher SeriesFetcher, cfg Config, logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = DefaultRSIPeriod
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = DefaultATRPeriod
	}
	return &Engine{fetcher: fetcher, cfg: cfg, logger: l}
}

// SetRecorder attaches a metrics recorder
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// Config returns the effective periods
func (e *Engine) Config() Config {
	return e.cfg
}

// ValidateRequest checks ticker and range before any provider call
func ValidateRequest(ticker string, start, end time.Time) error {
	if strings.TrimSpace(ticker) == "" {
		return core.WrapError(core.ErrInvalidTicker, fmt.Errorf("ticker cannot be empty"))
	}
	if start.IsZero() || end.IsZero() {
		return core.WrapError(core.ErrInvalidRange, fmt.Errorf("start and end dates are required"))
	}
	if start.After(end) {
		return core.WrapError(core.ErrInvalidRange,
			fmt.Errorf("start %s is after end %s", start.Format(core.DateFormat), end.Format(core.DateFormat)))
	}
	return nil
}

// Compute fetches the series for [start, end] and computes every indicator over it.
func (e *Engine) Compute(ctx context.Context, ticker string, start, end time.Time) (core.IndicatorResult, error) {
	result, err := e.compute(ctx, ticker, start, end)
	if e.recorder != nil {
		e.recorder.RecordIndicators(outcome(err))
	}
	return result, err
}

func (e *Engine) compute(ctx context.Context, ticker string, start, end time.Time) (core.IndicatorResult, error) {
	if err := ValidateRequest(ticker, start, end); err != nil {
		return core.IndicatorResult{}, err
	}

	series, err := e.fetcher.FetchSeries(ctx, ticker, start, end)
	if err != nil {
		if ctx.Err() != nil {
			return core.IndicatorResult{}, core.WrapError(core.ErrCancelled, err)
		}
		return core.IndicatorResult{}, core.WrapError(core.ErrDataProvider, err)
	}
	if series.IsEmpty() {
		return core.IndicatorResult{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("%s %s..%s", ticker, start.Format(core.DateFormat), end.Format(core.DateFormat)))
	}
	if series.Ticker == "" {
		series.Ticker = ticker
	}
	series.Start, series.End = start, end

	result := e.ComputeSeries(series)
	e.logger.Debug("indicators computed",
		zap.String("ticker", ticker),
		zap.Int("bars", result.Bars),
		zap.Bool("rsi", result.RSI != nil),
		zap.Bool("atr", result.ATR != nil),
		zap.Bool("pe", result.PriceToEarnings != nil),
	)
	return result, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrNoData):
		return "no_data"
	case errors.Is(err, core.ErrInvalidTicker), errors.Is(err, core.ErrInvalidRange):
		return "invalid"
	case errors.Is(err, core.ErrCancelled):
		return "cancelled"
	default:
		return "error"
	}
}

// ComputeSeries is the pure reduction behind Compute
func (e *Engine) ComputeSeries(series core.StockSeries) core.IndicatorResult {
	return Reduce(series, e.cfg)
}

// Reduce computes all indicators for a series with the given periods
func Reduce(series core.StockSeries, cfg Config) core.IndicatorResult {
	last := series.LastClose()
	return core.IndicatorResult{
		Ticker:          series.Ticker,
		Start:           series.Start,
		End:             series.End,
		Bars:            len(series.Bars),
		LastClose:       last,
		PriceToEarnings: PE(last, series.EPS),
		PriceChangePct:  PriceChangePct(series.Bars),
		VWAP:            VWAP(series.Bars),
		RSI:             RSI(series.Closes(), cfg.RSIPeriod),
		ATR:             ATR(series.Bars, cfg.ATRPeriod),
	}
}
