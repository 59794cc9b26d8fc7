// internal/portfolio/rules.go
package portfolio

import (
	"fmt"

	"github.com/newthinker/stocksage/internal/core"
)

// Rules holds the recommendation thresholds
type Rules struct {
	Overbought    float64 `json:"overbought"`
	Oversold      float64 `json:"oversold"`
	StopLossPct   float64 `json:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct"`
}

// DefaultRules returns RSI 70/30, -10% stop-loss and +20% take-profit
func DefaultRules() Rules {
	return Rules{
		Overbought:    70,
		Oversold:      30,
		StopLossPct:   -10,
		TakeProfitPct: 20,
	}
}

// Validate checks that the thresholds are consistent
func (r Rules) Validate() error {
	if r.Oversold < 0 || r.Overbought > 100 || r.Oversold >= r.Overbought {
		return fmt.Errorf("rsi thresholds must satisfy 0 <= oversold < overbought <= 100, got %v/%v",
			r.Oversold, r.Overbought)
	}
	if r.StopLossPct >= r.TakeProfitPct {
		return fmt.Errorf("stop_loss_pct (%v) must be below take_profit_pct (%v)", r.StopLossPct, r.TakeProfitPct)
	}
	return nil
}

// RuleInput is what a recommendation is derived from
type RuleInput struct {
	RSI            *float64
	ReturnPct      float64
	PriceChangePct float64
}

type guard struct {
	action core.Recommendation
	reason string
	match  func(Rules, RuleInput) bool
}

// guards are evaluated in order; the first match wins
var guards = []guard{
	{core.RecommendSell, "overbought", func(r Rules, in RuleInput) bool {
		return in.RSI != nil && *in.RSI >= r.Overbought
	}},
	{core.RecommendBuy, "oversold", func(r Rules, in RuleInput) bool {
		return in.RSI != nil && *in.RSI <= r.Oversold
	}},
	{core.RecommendSell, "stop-loss", func(r Rules, in RuleInput) bool {
		return in.ReturnPct <= r.StopLossPct
	}},
	{core.RecommendSell, "take-profit on weakening trend", func(r Rules, in RuleInput) bool {
		return in.ReturnPct >= r.TakeProfitPct && in.PriceChangePct < 0
	}},
}

// Recommend returns the action and the name of the rule that produced it
func (r Rules) Recommend(in RuleInput) (core.Recommendation, string) {
	for _, g := range guards {
		if g.match(r, in) {
			return g.action, g.reason
		}
	}
	return core.RecommendHold, "no rule triggered"
}
