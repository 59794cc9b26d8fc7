package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/stocksage/internal/collector"
)

func TestYahoo_ImplementsProvider(t *testing.T) {
	var _ collector.Provider = (*Yahoo)(nil)
	var _ collector.FundamentalProvider = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y := New(collector.Config{})
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestYahoo_ToYahooSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{"0700.HK", "0700.HK"},
		{"600519.SH", "600519.SS"}, // Shanghai -> SS for Yahoo
		{"000001.SZ", "000001.SZ"},
	}

	y := New(collector.Config{})
	for _, tc := range tests {
		got := y.toYahooSymbol(tc.input)
		if got != tc.expected {
			t.Errorf("toYahooSymbol(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestValidateSymbol(t *testing.T) {
	valid := []string{"AAPL", "BRK-B", "600519.SH", "^GSPC"}
	for _, s := range valid {
		if err := validateSymbol(s); err != nil {
			t.Errorf("validateSymbol(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"", "AA PL", "../etc", strings.Repeat("A", 21)}
	for _, s := range invalid {
		if err := validateSymbol(s); err == nil {
			t.Errorf("validateSymbol(%q) expected error", s)
		}
	}
}

func chartFixture(ts []int64) string {
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"symbol":"AAPL","regularMarketPrice":187.25,"regularMarketTime":%d},
		"timestamp":[%d,%d,%d],
		"indicators":{"quote":[{
			"open":[185.0,null,186.0],
			"high":[186.5,null,188.0],
			"low":[184.0,null,185.5],
			"close":[186.0,null,187.25],
			"volume":[1000,null,2000]
		}]}
	}],"error":null}}`, ts[2], ts[0], ts[1], ts[2])
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Yahoo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(collector.Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestYahoo_FetchSeries(t *testing.T) {
	start := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC)
	ts := []int64{
		start.Add(14*time.Hour + 30*time.Minute).Unix(),
		start.AddDate(0, 0, 1).Add(14*time.Hour + 30*time.Minute).Unix(),
		end.Add(14*time.Hour + 30*time.Minute).Unix(),
	}

	var gotPath, gotQuery string
	y := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		fmt.Fprint(w, chartFixture(ts))
	})

	series, err := y.FetchSeries(context.Background(), "AAPL", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v8/finance/chart/AAPL" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if !strings.Contains(gotQuery, fmt.Sprintf("period1=%d", start.Unix())) {
		t.Errorf("query missing period1: %s", gotQuery)
	}

	// the null row is skipped
	if len(series.Bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(series.Bars))
	}
	if series.Bars[1].Close != 187.25 || series.Bars[1].Volume != 2000 {
		t.Errorf("unexpected last bar: %+v", series.Bars[1])
	}
	if !series.Bars[0].Time.Before(series.Bars[1].Time) {
		t.Error("bars should be ascending")
	}
	if series.Source != "yahoo" {
		t.Errorf("expected source yahoo, got %s", series.Source)
	}
}

func TestYahoo_FetchCurrentPrice(t *testing.T) {
	now := time.Now().Unix()
	y := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartFixture([]int64{now, now, now}))
	})

	price, err := y.FetchCurrentPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 187.25 {
		t.Errorf("expected 187.25, got %f", price)
	}
}

func TestYahoo_ChartError(t *testing.T) {
	y := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	})

	_, err := y.FetchCurrentPrice(context.Background(), "ZZZZ")
	if err == nil || !strings.Contains(err.Error(), "delisted") {
		t.Errorf("expected yahoo error, got %v", err)
	}
}

func TestYahoo_BadStatus(t *testing.T) {
	y := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := y.FetchSeries(context.Background(), "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestYahoo_FetchEPS(t *testing.T) {
	y := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/finance/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"AAPL","epsTrailingTwelveMonths":6.42}],"error":null}}`)
	})

	eps, err := y.FetchEPS(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eps == nil || *eps != 6.42 {
		t.Errorf("expected eps 6.42, got %v", eps)
	}
}

func TestYahoo_FetchEPS_Missing(t *testing.T) {
	y := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"SPY"}],"error":null}}`)
	})

	eps, err := y.FetchEPS(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eps != nil {
		t.Errorf("expected nil eps, got %f", *eps)
	}
}

func TestYahoo_InvalidSymbolSkipsRequest(t *testing.T) {
	called := false
	y := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	if _, err := y.FetchCurrentPrice(context.Background(), ""); err == nil {
		t.Error("expected error for empty symbol")
	}
	if called {
		t.Error("no request expected for invalid symbol")
	}
}
