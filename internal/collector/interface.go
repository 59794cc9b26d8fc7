package collector

import (
	"context"
	"time"

	"github.com/newthinker/stocksage/internal/core"
)

// Config holds provider configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Provider is a source of daily series and current prices.
// Series are ascending by date; missing trading days are simply absent.
type Provider interface {
	Name() string

	FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error)
	FetchCurrentPrice(ctx context.Context, ticker string) (float64, error)
}
