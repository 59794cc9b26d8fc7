package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/stocksage/internal/core"
)

// mockProvider for testing
type mockProvider struct {
	name   string
	series core.StockSeries
	price  float64
	eps    *float64
	err    error
	calls  int
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) FetchSeries(ctx context.Context, ticker string, start, end time.Time) (core.StockSeries, error) {
	m.calls++
	if m.err != nil {
		return core.StockSeries{}, m.err
	}
	return m.series, nil
}
func (m *mockProvider) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.price, nil
}
func (m *mockProvider) FetchEPS(ctx context.Context, ticker string) (*float64, error) {
	return m.eps, nil
}

func oneBar() core.StockSeries {
	return core.StockSeries{Ticker: "AAPL", Bars: []core.PriceBar{{Close: 100}}}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	r.Register(&mockProvider{name: "mock"})

	p, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered provider")
	}

	if p.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", p.Name())
	}
}

func TestRegistry_GetAllKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{name: "b"})
	r.Register(&mockProvider{name: "a"})
	r.Register(&mockProvider{name: "b"})

	all := r.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(all))
	}
	if all[0].Name() != "b" || all[1].Name() != "a" {
		t.Errorf("unexpected order: %s, %s", all[0].Name(), all[1].Name())
	}
}

func TestFallback_FirstSeriesWins(t *testing.T) {
	r := NewRegistry()
	failing := &mockProvider{name: "down", err: errors.New("503")}
	healthy := &mockProvider{name: "up", series: oneBar(), price: 101}
	r.Register(failing)
	r.Register(healthy)

	series, err := r.Fallback().FetchSeries(context.Background(), "AAPL", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Bars) != 1 {
		t.Errorf("expected 1 bar, got %d", len(series.Bars))
	}
}

func TestFallback_PriceOnlyFromPrimary(t *testing.T) {
	cause := errors.New("503")
	r := NewRegistry()
	r.Register(&mockProvider{name: "down", err: cause})
	backup := &mockProvider{name: "up", series: oneBar(), price: 80}
	r.Register(backup)

	price, err := r.Fallback().FetchCurrentPrice(context.Background(), "AAPL")
	if !errors.Is(err, cause) {
		t.Fatalf("expected primary error, got price %f, err %v", price, err)
	}
	if backup.calls != 0 {
		t.Errorf("backup should not be asked for a price, got %d calls", backup.calls)
	}
}

func TestFallback_EmptyAfterErrorIsAnError(t *testing.T) {
	cause := errors.New("connection reset")
	r := NewRegistry()
	r.Register(&mockProvider{name: "down", err: cause})
	r.Register(&mockProvider{name: "empty"})

	_, err := r.Fallback().FetchSeries(context.Background(), "AAPL", time.Now(), time.Now())
	if !errors.Is(err, cause) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestFallback_EmptySeriesIsNotAnError(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{name: "empty"})

	series, err := r.Fallback().FetchSeries(context.Background(), "AAPL", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !series.IsEmpty() {
		t.Error("expected empty series")
	}
}

func TestFallback_AllFail(t *testing.T) {
	cause := errors.New("unknown ticker")
	r := NewRegistry()
	r.Register(&mockProvider{name: "a", err: cause})
	r.Register(&mockProvider{name: "b", err: cause})

	_, err := r.Fallback().FetchSeries(context.Background(), "NOPE", time.Now(), time.Now())
	if !errors.Is(err, cause) {
		t.Errorf("expected joined cause, got %v", err)
	}
}

func TestFallback_NoProviders(t *testing.T) {
	_, err := NewRegistry().Fallback().FetchCurrentPrice(context.Background(), "AAPL")
	if err == nil {
		t.Error("expected error with empty registry")
	}
}

func TestWithFundamentals_AttachesEPS(t *testing.T) {
	prices := &mockProvider{name: "prices", series: oneBar()}
	funda := &mockProvider{name: "funda", eps: core.Float(6.5)}

	p := WithFundamentals(prices, funda, nil)
	series, err := p.FetchSeries(context.Background(), "AAPL", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.EPS == nil || *series.EPS != 6.5 {
		t.Errorf("expected eps 6.5, got %v", series.EPS)
	}
}

func TestWithFundamentals_SkipsEmptySeries(t *testing.T) {
	p := WithFundamentals(&mockProvider{name: "prices"}, &mockProvider{eps: core.Float(1)}, nil)
	series, err := p.FetchSeries(context.Background(), "AAPL", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.EPS != nil {
		t.Error("empty series should not get eps")
	}
}

type fetchObservation struct {
	provider, op, status string
}

type recorderStub struct {
	seen []fetchObservation
}

func (r *recorderStub) RecordFetch(provider, operation, status string, seconds float64) {
	r.seen = append(r.seen, fetchObservation{provider, operation, status})
}

func TestInstrument_RecordsStatus(t *testing.T) {
	rec := &recorderStub{}
	ok := Instrument(&mockProvider{name: "mock", series: oneBar(), price: 10}, rec, nil)
	bad := Instrument(&mockProvider{name: "broken", err: errors.New("boom")}, rec, nil)

	ok.FetchSeries(context.Background(), "AAPL", time.Now(), time.Now())
	ok.FetchCurrentPrice(context.Background(), "AAPL")
	bad.FetchCurrentPrice(context.Background(), "AAPL")

	want := []fetchObservation{
		{"mock", "series", "ok"},
		{"mock", "price", "ok"},
		{"broken", "price", "error"},
	}
	if len(rec.seen) != len(want) {
		t.Fatalf("expected %d observations, got %d", len(want), len(rec.seen))
	}
	for i, w := range want {
		if rec.seen[i] != w {
			t.Errorf("observation %d = %+v, want %+v", i, rec.seen[i], w)
		}
	}
}
