// cmd/stocksage/portfolio.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/newthinker/stocksage/internal/app"
	"github.com/newthinker/stocksage/internal/portfolio"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	portfolioFile     string
	portfolioHoldings []string
	portfolioReport   bool
	portfolioJSON     bool
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Analyze a portfolio",
	Long: `Analyze holdings from a JSON portfolio file or from --holding flags and print
per-holding recommendations with profit and loss totals.

Holdings on the command line use TICKER:YYYY-MM-DD:PRICE:QUANTITY, e.g.
  stocksage portfolio --holding AAPL:2023-06-01:180.5:10 --holding MSFT:2023-06-01:330:4`,
	RunE: runPortfolio,
}

func init() {
	portfolioCmd.Flags().StringVarP(&portfolioFile, "file", "f", "", "Portfolio JSON file")
	portfolioCmd.Flags().StringArrayVar(&portfolioHoldings, "holding", nil, "Holding as TICKER:YYYY-MM-DD:PRICE:QUANTITY (repeatable)")
	portfolioCmd.Flags().BoolVar(&portfolioReport, "report", false, "Archive the analysis with price history")
	portfolioCmd.Flags().BoolVar(&portfolioJSON, "json", false, "Print the summary as JSON")

	portfolioCmd.MarkFlagsMutuallyExclusive("file", "holding")

	rootCmd.AddCommand(portfolioCmd)
}

func loadHoldings() ([]portfolio.Holding, error) {
	if portfolioFile != "" {
		return portfolio.LoadFile(portfolioFile)
	}
	if len(portfolioHoldings) == 0 {
		return nil, errors.New("either --file or --holding is required")
	}

	holdings := make([]portfolio.Holding, 0, len(portfolioHoldings))
	for _, raw := range portfolioHoldings {
		h, err := portfolio.ParseHolding(raw)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	holdings, err := loadHoldings()
	if err != nil {
		return err
	}

	return withApp(func(a *app.App, log *zap.Logger) error {
		summary, err := a.Portfolio().Analyze(cmd.Context(), holdings)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if portfolioJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return err
			}
		} else {
			renderSummary(out, summary)
		}

		if !portfolioReport {
			return nil
		}
		reports, err := a.Reports()
		if err != nil {
			return err
		}
		res, err := reports.Build(cmd.Context(), summary)
		if err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		log.Debug("report archived", zap.Strings("paths", res.Paths))
		fmt.Fprintf(cmd.ErrOrStderr(), "Report %s saved (%d files)\n", res.RunID, len(res.Paths))
		return nil
	})
}
