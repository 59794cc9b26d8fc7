// internal/indicator/price.go
package indicator

import "github.com/newthinker/stocksage/internal/core"

// PriceChangePct returns the percentage change from the first to the last close.
// A single bar, an empty series or a zero first close yields 0.
func PriceChangePct(bars []core.PriceBar) float64 {
	if len(bars) < 2 {
		return 0
	}
	first := bars[0].Close
	if first == 0 {
		return 0
	}
	return (bars[len(bars)-1].Close - first) / first * 100
}

// VWAP calculates the volume weighted average of the typical price.
// Returns nil when the series carries no volume.
func VWAP(bars []core.PriceBar) *float64 {
	var pv, volume float64
	for _, b := range bars {
		v := float64(b.Volume)
		pv += b.TypicalPrice() * v
		volume += v
	}
	if volume == 0 {
		return nil
	}
	vwap := pv / volume
	return &vwap
}

// PE returns price / eps. Missing or zero eps yields nil.
func PE(price float64, eps *float64) *float64 {
	if eps == nil || *eps == 0 {
		return nil
	}
	pe := price / *eps
	return &pe
}
