package indicator

import (
	"testing"

	"github.com/newthinker/stocksage/internal/core"
)

func TestPriceChangePct(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"rise", []float64{100, 90, 125}, 25},
		{"fall", []float64{200, 150}, -25},
		{"single bar", []float64{42}, 0},
		{"empty", nil, 0},
		{"zero first close", []float64{0, 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := make([]core.PriceBar, len(tt.closes))
			for i, c := range tt.closes {
				bars[i] = core.PriceBar{Close: c}
			}
			got := PriceChangePct(bars)
			if !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("PriceChangePct = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestVWAP_Calculate(t *testing.T) {
	bars := []core.PriceBar{
		{High: 12, Low: 9, Close: 9, Volume: 100},  // typical 10
		{High: 22, Low: 18, Close: 20, Volume: 300}, // typical 20
	}

	// (10*100 + 20*300) / 400 = 17.5
	vwap := VWAP(bars)
	if vwap == nil {
		t.Fatal("expected VWAP value")
	}
	if !almostEqual(*vwap, 17.5, 1e-9) {
		t.Errorf("VWAP = %f, want 17.5", *vwap)
	}
	if *vwap < 9 || *vwap > 22 {
		t.Errorf("VWAP %f outside [min low, max high]", *vwap)
	}
}

func TestVWAP_NoVolume(t *testing.T) {
	bars := []core.PriceBar{{High: 2, Low: 1, Close: 1.5}}
	if vwap := VWAP(bars); vwap != nil {
		t.Errorf("expected nil without volume, got %f", *vwap)
	}
	if vwap := VWAP(nil); vwap != nil {
		t.Errorf("expected nil for empty series, got %f", *vwap)
	}
}

func TestPE(t *testing.T) {
	pe := PE(150, core.Float(5))
	if pe == nil || *pe != 30 {
		t.Errorf("PE = %v, want 30", pe)
	}
	if PE(150, nil) != nil {
		t.Error("expected nil without eps")
	}
	if PE(150, core.Float(0)) != nil {
		t.Error("expected nil for zero eps")
	}
}
