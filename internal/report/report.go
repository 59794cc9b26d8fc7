// Package report archives portfolio analyses: one JSON document per run plus
// the price history behind every holding as CSV.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/stocksage/internal/core"
	"github.com/newthinker/stocksage/internal/indicator"
	"github.com/newthinker/stocksage/internal/portfolio"
	"github.com/newthinker/stocksage/internal/storage/archive"
	"go.uber.org/zap"
)

const (
	DefaultPrefix = "analysis"
	DocumentName  = "analysis.json"

	shortSMA = 10
	longSMA  = 50

	// history fetched for holdings without a buy date
	defaultLookback = 365 * 24 * time.Hour
)

var csvHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume", "SMA10", "SMA50"}

// SeriesFetcher provides the history written next to the analysis
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error)
}

// Recorder receives report outcomes
type Recorder interface {
	RecordReport(status string)
}

// Averages are column means over the reported history. SMA averages are the
// means of the defined moving-average values and stay nil when the history is
// shorter than the window.
type Averages struct {
	Open   float64  `json:"open_avg"`
	High   float64  `json:"high_avg"`
	Low    float64  `json:"low_avg"`
	Close  float64  `json:"close_avg"`
	Volume float64  `json:"volume_avg"`
	SMA10  *float64 `json:"sma10_avg"`
	SMA50  *float64 `json:"sma50_avg"`
}

// TickerReport describes the history archived for one ticker
type TickerReport struct {
	Ticker   string    `json:"ticker"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Bars     int       `json:"bars"`
	File     string    `json:"file"`
	Averages *Averages `json:"averages"`
}

// Document is the archived analysis.json
type Document struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Summary     *portfolio.Summary `json:"summary"`
	Tickers     []TickerReport     `json:"tickers"`
}

// Result names the run and every object written for it
type Result struct {
	RunID string   `json:"run_id"`
	Paths []string `json:"paths"`
}

// Builder writes reports to an archive backend
type Builder struct {
	store    archive.Storage
	fetcher  SeriesFetcher
	prefix   string
	logger   *zap.Logger
	recorder Recorder
	newID    func() string
}

// NewBuilder creates a report builder. An empty prefix uses DefaultPrefix.
func NewBuilder(store archive.Storage, fetcher SeriesFetcher, prefix string, logger ...*zap.Logger) *Builder {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Builder{
		store:   store,
		fetcher: fetcher,
		prefix:  prefix,
		logger:  l,
		newID:   uuid.NewString,
	}
}

// SetRecorder attaches a metrics recorder
func (b *Builder) SetRecorder(r Recorder) {
	b.recorder = r
}

// SetIDGenerator overrides how run ids are generated
func (b *Builder) SetIDGenerator(newID func() string) {
	b.newID = newID
}

// Build fetches the history of every held ticker and writes one CSV per
// ticker, then the analysis document, under <prefix>/<run-id>/.
func (b *Builder) Build(ctx context.Context, summary *portfolio.Summary) (*Result, error) {
	res, err := b.build(ctx, summary)
	if b.recorder != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		b.recorder.RecordReport(status)
	}
	return res, err
}

func (b *Builder) build(ctx context.Context, summary *portfolio.Summary) (*Result, error) {
	if summary == nil || len(summary.Holdings) == 0 {
		return nil, core.WrapError(core.ErrNoData, errors.New("no analyzed holdings to report"))
	}

	runID := b.newID()
	dir := path.Join(b.prefix, runID)
	end := summary.GeneratedAt
	if end.IsZero() {
		end = time.Now()
	}

	doc := Document{
		RunID:       runID,
		GeneratedAt: end,
		Summary:     summary,
	}
	result := &Result{RunID: runID}

	for _, w := range windows(summary.Holdings, end) {
		series, err := b.fetcher.FetchSeries(ctx, w.ticker, w.start, end)
		if err != nil {
			return nil, core.WrapError(core.ErrDataProvider, fmt.Errorf("%s history: %w", w.ticker, err))
		}

		data, err := encodeCSV(series.Bars)
		if err != nil {
			return nil, fmt.Errorf("encoding %s csv: %w", w.ticker, err)
		}
		name := path.Join(dir, w.ticker+".csv")
		if err := b.store.Write(ctx, name, data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		result.Paths = append(result.Paths, name)

		doc.Tickers = append(doc.Tickers, TickerReport{
			Ticker:   w.ticker,
			Start:    w.start,
			End:      end,
			Bars:     len(series.Bars),
			File:     w.ticker + ".csv",
			Averages: average(series.Bars),
		})
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	name := path.Join(dir, DocumentName)
	if err := b.store.Write(ctx, name, data); err != nil {
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}
	result.Paths = append(result.Paths, name)

	b.logger.Info("report written",
		zap.String("run_id", runID),
		zap.Int("tickers", len(doc.Tickers)),
		zap.String("dir", dir),
	)
	return result, nil
}

// Load reads back the document of a previous run
func (b *Builder) Load(ctx context.Context, runID string) (*Document, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, core.WrapError(core.ErrInvalidReport, fmt.Errorf("run id %q: %w", runID, err))
	}
	data, err := b.store.Read(ctx, path.Join(b.prefix, runID, DocumentName))
	if errors.Is(err, archive.ErrNotFound) {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("report %s not found", runID))
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", runID, err)
	}
	return &doc, nil
}

type window struct {
	ticker string
	start  time.Time
}

// windows returns one history window per distinct ticker in holding order,
// starting at the earliest buy date held
func windows(holdings []portfolio.HoldingAnalysis, end time.Time) []window {
	var out []window
	index := make(map[string]int)
	for _, a := range holdings {
		start := a.Holding.BuyDate
		if start.IsZero() {
			start = end.Add(-defaultLookback)
		}
		if i, ok := index[a.Holding.Ticker]; ok {
			if start.Before(out[i].start) {
				out[i].start = start
			}
			continue
		}
		index[a.Holding.Ticker] = len(out)
		out = append(out, window{ticker: a.Holding.Ticker, start: start})
	}
	return out
}

func encodeCSV(bars []core.PriceBar) ([]byte, error) {
	closes := core.StockSeries{Bars: bars}.Closes()
	short := indicator.SMA(closes, shortSMA)
	long := indicator.SMA(closes, longSMA)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for i, bar := range bars {
		row := []string{
			bar.Time.Format(core.DateFormat),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			strconv.FormatInt(bar.Volume, 10),
			formatOptional(short[i]),
			formatOptional(long[i]),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// formatOptional leaves the cell blank while a moving average is undefined
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func average(bars []core.PriceBar) *Averages {
	if len(bars) == 0 {
		return nil
	}
	var a Averages
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		a.Open += bar.Open
		a.High += bar.High
		a.Low += bar.Low
		a.Close += bar.Close
		a.Volume += float64(bar.Volume)
		closes[i] = bar.Close
	}
	n := float64(len(bars))
	a.Open /= n
	a.High /= n
	a.Low /= n
	a.Close /= n
	a.Volume /= n
	a.SMA10 = mean(indicator.SMA(closes, shortSMA))
	a.SMA50 = mean(indicator.SMA(closes, longSMA))
	return &a
}

// mean averages the defined entries, nil when there are none
func mean(values []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return core.Float(sum / float64(n))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
