// Package memory provides an in-memory data provider backed by static series,
// used for tests and for offline analysis of CSV exports.
package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newthinker/stocksage/internal/core"
)

// Provider serves series and prices from memory
type Provider struct {
	mu     sync.RWMutex
	bars   map[string][]core.PriceBar
	prices map[string]float64
	eps    map[string]float64
	errs   map[string]error

	seriesCalls atomic.Int64
	priceCalls  atomic.Int64
}

// New creates an empty provider
func New() *Provider {
	return &Provider{
		bars:   make(map[string][]core.PriceBar),
		prices: make(map[string]float64),
		eps:    make(map[string]float64),
		errs:   make(map[string]error),
	}
}

func (p *Provider) Name() string { return "memory" }

func key(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// SetBars stores the bars for ticker, sorted by date
func (p *Provider) SetBars(ticker string, bars []core.PriceBar) {
	sorted := make([]core.PriceBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars[key(ticker)] = sorted
}

// SetPrice overrides the current price for ticker
func (p *Provider) SetPrice(ticker string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[key(ticker)] = price
}

// SetEPS sets earnings per share for ticker
func (p *Provider) SetEPS(ticker string, eps float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eps[key(ticker)] = eps
}

// SetError makes every fetch for ticker fail with err
func (p *Provider) SetError(ticker string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[key(ticker)] = err
}

// SeriesCalls returns how many series fetches were served
func (p *Provider) SeriesCalls() int64 { return p.seriesCalls.Load() }

// PriceCalls returns how many price fetches were served
func (p *Provider) PriceCalls() int64 { return p.priceCalls.Load() }

// FetchSeries returns the stored bars whose date falls in [start, end]
func (p *Provider) FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error) {
	p.seriesCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return core.StockSeries{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	k := key(ticker)
	if err := p.errs[k]; err != nil {
		return core.StockSeries{}, err
	}
	all, ok := p.bars[k]
	if !ok {
		return core.StockSeries{}, fmt.Errorf("unknown ticker: %s", ticker)
	}

	from := core.Day(start)
	to := core.Day(end)
	series := core.StockSeries{Ticker: ticker, Start: start, End: end, Source: p.Name()}
	for _, b := range all {
		d := core.Day(b.Time)
		if d.Before(from) || d.After(to) {
			continue
		}
		series.Bars = append(series.Bars, b)
	}
	if eps, ok := p.eps[k]; ok {
		series.EPS = core.Float(eps)
	}
	return series, nil
}

// FetchCurrentPrice returns the explicit price or the last stored close
func (p *Provider) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	p.priceCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	k := key(ticker)
	if err := p.errs[k]; err != nil {
		return 0, err
	}
	if price, ok := p.prices[k]; ok {
		return price, nil
	}
	bars, ok := p.bars[k]
	if !ok || len(bars) == 0 {
		return 0, fmt.Errorf("unknown ticker: %s", ticker)
	}
	return bars[len(bars)-1].Close, nil
}

// FetchEPS returns the stored eps or nil
func (p *Provider) FetchEPS(ctx context.Context, ticker string) (*float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if eps, ok := p.eps[key(ticker)]; ok {
		return core.Float(eps), nil
	}
	return nil, nil
}

// LoadCSV reads Date,Open,High,Low,Close,Volume rows (header required) into ticker.
// Extra columns such as Adj Close are ignored.
func (p *Provider) LoadCSV(ticker string, r io.Reader) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("missing column %q", c)
		}
	}

	var bars []core.PriceBar
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		bar, err := parseRow(rec, cols)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	p.SetBars(ticker, bars)
	return nil
}

// LoadDir loads every <TICKER>.csv file in dir
func (p *Provider) LoadDir(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		ticker := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		err = p.LoadCSV(ticker, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func parseRow(rec []string, cols map[string]int) (core.PriceBar, error) {
	field := func(name string) string {
		if i := cols[name]; i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	date, err := time.Parse(core.DateFormat, field("date"))
	if err != nil {
		return core.PriceBar{}, fmt.Errorf("invalid date: %w", err)
	}
	var bar core.PriceBar
	bar.Time = date
	for name, dst := range map[string]*float64{
		"open": &bar.Open, "high": &bar.High, "low": &bar.Low, "close": &bar.Close,
	} {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return core.PriceBar{}, fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = v
	}
	vol, err := strconv.ParseFloat(field("volume"), 64)
	if err != nil {
		return core.PriceBar{}, fmt.Errorf("invalid volume: %w", err)
	}
	bar.Volume = int64(vol)
	return bar, nil
}
