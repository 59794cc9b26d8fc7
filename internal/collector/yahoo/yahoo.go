package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/stocksage/internal/collector"
	"github.com/newthinker/stocksage/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	chartPath      = "/v8/finance/chart"
	quotePath      = "/v7/finance/quote"
)

// validSymbol matches stock symbols like AAPL, BRK-B, 600519.SH, 0700.HK, ^GSPC
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance data provider
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo provider
func New(cfg collector.Config) *Yahoo {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Yahoo{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	symbol = strings.ToUpper(symbol)
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchCurrentPrice returns the regular market price
func (y *Yahoo) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := validateSymbol(symbol); err != nil {
		return 0, err
	}
	endpoint := fmt.Sprintf("%s%s/%s?interval=1d&range=1d",
		y.baseURL, chartPath, url.PathEscape(y.toYahooSymbol(symbol)))

	r, err := y.chart(ctx, endpoint, symbol)
	if err != nil {
		return 0, err
	}
	if r.Meta.RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("no market price for symbol: %s", symbol)
	}
	return r.Meta.RegularMarketPrice, nil
}

// FetchSeries fetches daily bars for [start, end], both inclusive
func (y *Yahoo) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (core.StockSeries, error) {
	if err := validateSymbol(symbol); err != nil {
		return core.StockSeries{}, err
	}
	until := end.AddDate(0, 0, 1)
	endpoint := fmt.Sprintf("%s%s/%s?interval=1d&period1=%d&period2=%d",
		y.baseURL, chartPath, url.PathEscape(y.toYahooSymbol(symbol)), start.Unix(), until.Unix())

	r, err := y.chart(ctx, endpoint, symbol)
	if err != nil {
		return core.StockSeries{}, err
	}

	series := core.StockSeries{
		Ticker: symbol,
		Start:  start,
		End:    end,
		Source: y.Name(),
	}
	if len(r.Indicators.Quote) == 0 {
		return series, nil
	}
	quotes := r.Indicators.Quote[0]

	series.Bars = make([]core.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if !quotes.complete(i) {
			continue // Skip missing data
		}
		at := time.Unix(ts, 0).UTC()
		if at.Before(start) || !at.Before(until) {
			continue
		}
		series.Bars = append(series.Bars, core.PriceBar{
			Time:   at,
			Open:   *quotes.Open[i],
			High:   *quotes.High[i],
			Low:    *quotes.Low[i],
			Close:  *quotes.Close[i],
			Volume: *quotes.Volume[i],
		})
	}

	return series, nil
}

// FetchEPS returns trailing twelve month earnings per share, nil when Yahoo has none
func (y *Yahoo) FetchEPS(ctx context.Context, symbol string) (*float64, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s%s?symbols=%s", y.baseURL, quotePath, url.QueryEscape(y.toYahooSymbol(symbol)))

	var result quoteResponse
	if err := y.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", result.QuoteResponse.Error.Description)
	}
	if len(result.QuoteResponse.Result) == 0 {
		return nil, nil
	}
	return result.QuoteResponse.Result[0].EPSTrailingTwelveMonths, nil
}

func (y *Yahoo) chart(ctx context.Context, endpoint, symbol string) (*chartResult, error) {
	var result chartResponse
	if err := y.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}

	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data for symbol: %s", symbol)
	}
	return &result.Chart.Result[0], nil
}

func (y *Yahoo) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// complete reports whether row i has every OHLCV field
func (q quoteIndicator) complete(i int) bool {
	return i < len(q.Open) && q.Open[i] != nil &&
		i < len(q.High) && q.High[i] != nil &&
		i < len(q.Low) && q.Low[i] != nil &&
		i < len(q.Close) && q.Close[i] != nil &&
		i < len(q.Volume) && q.Volume[i] != nil
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                  string   `json:"symbol"`
			EPSTrailingTwelveMonths *float64 `json:"epsTrailingTwelveMonths"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteResponse"`
}
