// cmd/stocksage/indicators.go
package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/stocksage/internal/app"
	"github.com/newthinker/stocksage/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	indicatorsStart string
	indicatorsEnd   string
	indicatorsJSON  bool
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators [ticker]",
	Short: "Compute indicators for a ticker",
	Long:  "Fetch daily prices for a ticker and compute RSI, ATR, VWAP, P/E and price change over the range",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndicators,
}

func init() {
	indicatorsCmd.Flags().StringVar(&indicatorsStart, "start", "", "Start date YYYY-MM-DD (required)")
	indicatorsCmd.Flags().StringVar(&indicatorsEnd, "end", "", "End date YYYY-MM-DD (default today)")
	indicatorsCmd.Flags().BoolVar(&indicatorsJSON, "json", false, "Print the result as JSON")

	indicatorsCmd.MarkFlagRequired("start")

	rootCmd.AddCommand(indicatorsCmd)
}

func runIndicators(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))

	start, err := time.Parse(core.DateFormat, indicatorsStart)
	if err != nil {
		return fmt.Errorf("invalid start date format (expected YYYY-MM-DD): %w", err)
	}
	end := core.Day(time.Now())
	if indicatorsEnd != "" {
		if end, err = time.Parse(core.DateFormat, indicatorsEnd); err != nil {
			return fmt.Errorf("invalid end date format (expected YYYY-MM-DD): %w", err)
		}
	}

	return withApp(func(a *app.App, log *zap.Logger) error {
		result, err := a.Indicators().Compute(cmd.Context(), ticker, start, end)
		if err != nil {
			return err
		}

		if indicatorsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		renderIndicators(cmd.OutOrStdout(), result)
		return nil
	})
}
