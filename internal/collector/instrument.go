// internal/collector/instrument.go
package collector

import (
	"context"
	"time"

	"github.com/newthinker/stocksage/internal/core"
	"go.uber.org/zap"
)

// FetchRecorder receives one observation per provider call
type FetchRecorder interface {
	RecordFetch(provider, operation, status string, seconds float64)
}

type instrumented struct {
	Provider
	recorder FetchRecorder
	logger   *zap.Logger
}

// Instrument wraps p so that every fetch is timed, counted and logged.
// Either rec or logger may be nil.
func Instrument(p Provider, rec FetchRecorder, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumented{Provider: p, recorder: rec, logger: logger}
}

func (i *instrumented) FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error) {
	began := time.Now()
	series, err := i.Provider.FetchSeries(ctx, ticker, start, end)
	i.observe("series", ticker, began, err)
	return series, err
}

func (i *instrumented) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	began := time.Now()
	price, err := i.Provider.FetchCurrentPrice(ctx, ticker)
	i.observe("price", ticker, began, err)
	return price, err
}

// FetchEPS forwards to the wrapped provider when it supplies fundamentals
func (i *instrumented) FetchEPS(ctx context.Context, ticker string) (*float64, error) {
	f, ok := i.Provider.(FundamentalProvider)
	if !ok {
		return nil, nil
	}
	began := time.Now()
	eps, err := f.FetchEPS(ctx, ticker)
	i.observe("eps", ticker, began, err)
	return eps, err
}

func (i *instrumented) observe(op, ticker string, began time.Time, err error) {
	elapsed := time.Since(began)
	status := "ok"
	if err != nil {
		status = "error"
		i.logger.Warn("provider fetch failed",
			zap.String("provider", i.Name()),
			zap.String("operation", op),
			zap.String("ticker", ticker),
			zap.Error(err),
		)
	} else {
		i.logger.Debug("provider fetch",
			zap.String("provider", i.Name()),
			zap.String("operation", op),
			zap.String("ticker", ticker),
			zap.Duration("elapsed", elapsed),
		)
	}
	if i.recorder != nil {
		i.recorder.RecordFetch(i.Name(), op, status, elapsed.Seconds())
	}
}
