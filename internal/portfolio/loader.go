// internal/portfolio/loader.go
package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/stocksage/internal/core"
)

// File is the on-disk portfolio format. Either form may be used:
//
//	{"portfolio": {"AAPL": {"buy_date": "2022-08-02", "buy_price": 200, "quantity": 5}}}
//	{"holdings": [{"ticker": "AAPL", "buy_date": "2022-08-02", "buy_price": 200, "quantity": 5}]}
type File struct {
	Portfolio map[string]fileLot `json:"portfolio,omitempty"`
	Holdings  []fileHolding      `json:"holdings,omitempty"`
}

type fileLot struct {
	BuyDate  string   `json:"buy_date"`
	BuyPrice *float64 `json:"buy_price"`
	Quantity *float64 `json:"quantity"`
}

type fileHolding struct {
	Ticker string `json:"ticker"`
	fileLot
}

// LoadFile reads holdings from a JSON portfolio file
func LoadFile(path string) ([]Holding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrPortfolioFile, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads holdings from JSON. Map entries are returned sorted by ticker.
func Decode(r io.Reader) ([]Holding, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, core.WrapError(core.ErrPortfolioFile, err)
	}

	var file File
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&file); err != nil {
		return nil, core.WrapError(core.ErrPortfolioFile, fmt.Errorf("decoding json: %w", err))
	}

	if file.Portfolio == nil && file.Holdings == nil {
		return nil, core.WrapError(core.ErrPortfolioFile, fmt.Errorf("'portfolio' key not found"))
	}
	if len(file.Portfolio) == 0 && len(file.Holdings) == 0 {
		return nil, core.WrapError(core.ErrPortfolioFile, fmt.Errorf("portfolio is empty"))
	}

	tickers := make([]string, 0, len(file.Portfolio))
	for t := range file.Portfolio {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	holdings := make([]Holding, 0, len(tickers)+len(file.Holdings))
	for _, t := range tickers {
		h, err := file.Portfolio[t].holding(t)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	for _, fh := range file.Holdings {
		h, err := fh.holding(fh.Ticker)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

func (l fileLot) holding(ticker string) (Holding, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Holding{}, core.WrapError(core.ErrPortfolioFile, fmt.Errorf("holding without ticker"))
	}
	if l.BuyPrice == nil || l.Quantity == nil {
		return Holding{}, core.WrapError(core.ErrPortfolioFile,
			fmt.Errorf("%s: buy_price and quantity are required", ticker))
	}
	buyDate, err := time.Parse(core.DateFormat, l.BuyDate)
	if err != nil {
		return Holding{}, core.WrapError(core.ErrPortfolioFile,
			fmt.Errorf("%s: invalid buy_date %q, want yyyy-mm-dd", ticker, l.BuyDate))
	}
	return Holding{
		Ticker:   ticker,
		BuyDate:  buyDate,
		BuyPrice: *l.BuyPrice,
		Quantity: *l.Quantity,
	}, nil
}
