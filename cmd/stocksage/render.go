// cmd/stocksage/render.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/newthinker/stocksage/internal/core"
	"github.com/newthinker/stocksage/internal/portfolio"
)

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func renderIndicators(out io.Writer, r core.IndicatorResult) {
	fmt.Fprintf(out, "=== %s %s to %s (%d bars) ===\n",
		r.Ticker, r.Start.Format(core.DateFormat), r.End.Format(core.DateFormat), r.Bars)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Last close\t%.2f\n", r.LastClose)
	fmt.Fprintf(w, "Price change\t%.2f%%\n", r.PriceChangePct)
	fmt.Fprintf(w, "RSI\t%s\n", optional(r.RSI))
	fmt.Fprintf(w, "ATR\t%s\n", optional(r.ATR))
	fmt.Fprintf(w, "VWAP\t%s\n", optional(r.VWAP))
	fmt.Fprintf(w, "P/E\t%s\n", optional(r.PriceToEarnings))
	w.Flush()
}

func renderSummary(out io.Writer, s *portfolio.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tQTY\tBUY\tPRICE\tP/L\tRETURN\tRSI\tACTION\tREASON")
	for _, a := range s.Holdings {
		fmt.Fprintf(w, "%s\t%g\t%.2f\t%.2f\t%.2f\t%.2f%%\t%s\t%s\t%s\n",
			a.Holding.Ticker,
			a.Holding.Quantity,
			a.Holding.BuyPrice,
			a.CurrentPrice,
			a.ProfitLoss,
			a.UnrealizedReturnPct,
			optional(a.Indicators.RSI),
			a.Recommendation,
			a.Reason,
		)
	}
	w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total cost:   %.2f\n", s.TotalCost)
	fmt.Fprintf(out, "Total value:  %.2f\n", s.TotalValue)
	fmt.Fprintf(out, "Total P/L:    %.2f (%.2f%%)\n", s.TotalProfitLoss, s.TotalReturnPct)
}
