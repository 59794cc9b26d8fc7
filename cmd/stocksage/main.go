package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stocksage",
	Short: "stocksage - stock indicators and portfolio recommendations",
	Long: `stocksage computes technical indicators (RSI, ATR, VWAP, P/E, price change)
for a ticker over a date range, and analyzes portfolios of holdings into
BUY/HOLD/SELL recommendations with profit and loss totals.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
