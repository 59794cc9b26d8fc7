// internal/indicator/atr.go
package indicator

import (
	"math"

	"github.com/newthinker/stocksage/internal/core"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|)
func TrueRange(bar core.PriceBar, prevClose float64) float64 {
	return math.Max(bar.High-bar.Low,
		math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}

// ATR calculates the Average True Range as the mean true range of the last period bars.
// Every bar in the window needs a previous close, so period+1 bars are required.
func ATR(bars []core.PriceBar, period int) *float64 {
	if period <= 0 || len(bars) < period+1 {
		return nil
	}

	var sum float64
	for i := len(bars) - period; i < len(bars); i++ {
		sum += TrueRange(bars[i], bars[i-1].Close)
	}
	atr := sum / float64(period)
	return &atr
}
