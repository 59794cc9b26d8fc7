// internal/collector/fundamental.go
package collector

import (
	"context"
	"time"

	"github.com/newthinker/stocksage/internal/core"
	"go.uber.org/zap"
)

// FundamentalProvider supplies earnings per share for a ticker.
// A nil value with a nil error means the provider has no figure.
type FundamentalProvider interface {
	FetchEPS(ctx context.Context, ticker string) (*float64, error)
}

// withFundamentals attaches EPS from a separate source to every fetched series
type withFundamentals struct {
	Provider
	fundamentals FundamentalProvider
	logger       *zap.Logger
}

// WithFundamentals decorates p so that series without EPS get it from f.
// EPS lookup failures are logged and leave the field empty.
func WithFundamentals(p Provider, f FundamentalProvider, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &withFundamentals{Provider: p, fundamentals: f, logger: logger}
}

func (w *withFundamentals) FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error) {
	series, err := w.Provider.FetchSeries(ctx, ticker, start, end)
	if err != nil || series.EPS != nil || series.IsEmpty() {
		return series, err
	}

	eps, err := w.fundamentals.FetchEPS(ctx, ticker)
	if err != nil {
		w.logger.Debug("eps lookup failed",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		return series, nil
	}
	series.EPS = eps
	return series, nil
}
