package core

import "time"

// DateFormat is the calendar date layout used for input and output
const DateFormat = "2006-01-02"

// PriceBar represents one trading day of a series
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// TypicalPrice returns (high+low+close)/3
func (b PriceBar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// StockSeries is the daily series for a ticker over [Start, End].
// Bars are ascending by date and may be empty.
type StockSeries struct {
	Ticker string
	Start  time.Time
	End    time.Time
	Bars   []PriceBar
	EPS    *float64 // latest earnings per share, nil when the provider has none
	Source string
}

// IsEmpty reports whether the series has no trading days
func (s StockSeries) IsEmpty() bool {
	return len(s.Bars) == 0
}

// Closes returns the close prices in series order
func (s StockSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// LastClose returns the most recent close, or 0 for an empty series
func (s StockSeries) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// IndicatorResult holds the indicators computed for one series.
// Nil pointers mean the value could not be computed (short history, no fundamentals).
type IndicatorResult struct {
	Ticker          string    `json:"ticker"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Bars            int       `json:"bars"`
	LastClose       float64   `json:"last_close"`
	PriceToEarnings *float64  `json:"price_to_earnings"`
	PriceChangePct  float64   `json:"price_change_pct"`
	VWAP            *float64  `json:"vwap"`
	RSI             *float64  `json:"rsi"`
	ATR             *float64  `json:"atr"`
}

// Recommendation is the guidance emitted for a holding
type Recommendation string

const (
	RecommendBuy  Recommendation = "BUY"
	RecommendHold Recommendation = "HOLD"
	RecommendSell Recommendation = "SELL"
)

// Day returns the calendar date of t, in t's own location, as UTC midnight:
// the same instant time.Parse(DateFormat, ...) yields for that date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v, for optional fields
func Float(v float64) *float64 {
	return &v
}
