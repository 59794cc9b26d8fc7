package app

import (
	"fmt"
	"strings"
	"sync"

	"github.com/newthinker/stocksage/internal/api"
	"github.com/newthinker/stocksage/internal/collector"
	"github.com/newthinker/stocksage/internal/collector/memory"
	"github.com/newthinker/stocksage/internal/collector/yahoo"
	"github.com/newthinker/stocksage/internal/config"
	"github.com/newthinker/stocksage/internal/indicator"
	"github.com/newthinker/stocksage/internal/metrics"
	"github.com/newthinker/stocksage/internal/portfolio"
	"github.com/newthinker/stocksage/internal/report"
	"github.com/newthinker/stocksage/internal/storage/archive"
	"go.uber.org/zap"
)

// App is the main application orchestrator. It wires providers, engines and
// the report archive from configuration.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Registry
	providers *collector.Registry
	provider  collector.Provider

	indicators *indicator.Engine
	portfolio  *portfolio.Engine

	reportsOnce sync.Once
	reports     *report.Builder
	reportsErr  error
}

// New creates a new App instance from a validated configuration
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics.NewRegistry(),
		providers: collector.NewRegistry(),
	}

	primary, err := a.newProvider(cfg.Provider.Name)
	if err != nil {
		return nil, err
	}
	a.providers.Register(primary)

	// local CSV history backs up a remote provider for series only
	if cfg.Provider.Name != "memory" && cfg.Provider.DataDir != "" {
		local, err := a.newProvider("memory")
		if err != nil {
			return nil, err
		}
		a.providers.Register(local)
	}

	a.provider = a.providers.Fallback()
	if cfg.Provider.Fundamentals {
		if f, ok := primary.(collector.FundamentalProvider); ok {
			a.provider = collector.WithFundamentals(a.provider, f, logger)
		}
	}

	a.indicators = indicator.NewEngine(a.provider, indicator.Config{
		RSIPeriod: cfg.Indicators.RSIPeriod,
		ATRPeriod: cfg.Indicators.ATRPeriod,
	}, logger)
	a.indicators.SetRecorder(a.metrics)

	a.portfolio = portfolio.NewEngine(a.provider, portfolio.Config{
		WindowDays: cfg.Portfolio.WindowDays,
		Workers:    cfg.Portfolio.Workers,
		Indicator:  a.indicators.Config(),
		Rules: portfolio.Rules{
			Overbought:    cfg.Portfolio.Overbought,
			Oversold:      cfg.Portfolio.Oversold,
			StopLossPct:   cfg.Portfolio.StopLossPct,
			TakeProfitPct: cfg.Portfolio.TakeProfitPct,
		},
	}, logger)
	a.portfolio.SetRecorder(a.metrics)

	logger.Debug("app wired",
		zap.Strings("providers", a.providerNames()),
		zap.Bool("fundamentals", cfg.Provider.Fundamentals),
	)
	return a, nil
}

// newProvider builds one instrumented provider by name
func (a *App) newProvider(name string) (collector.Provider, error) {
	var p collector.Provider
	switch name {
	case "yahoo":
		p = yahoo.New(collector.Config{
			BaseURL: a.cfg.Provider.BaseURL,
			Timeout: a.cfg.Provider.Timeout,
		})
	case "memory":
		m := memory.New()
		if err := m.LoadDir(a.cfg.Provider.DataDir); err != nil {
			return nil, fmt.Errorf("loading price history: %w", err)
		}
		p = m
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return collector.Instrument(p, a.metrics, a.logger), nil
}

func (a *App) providerNames() []string {
	var names []string
	for _, p := range a.providers.GetAll() {
		names = append(names, p.Name())
	}
	return names
}

// Config returns the validated configuration
func (a *App) Config() *config.Config {
	return a.cfg
}

// Indicators returns the indicator engine
func (a *App) Indicators() *indicator.Engine {
	return a.indicators
}

// Portfolio returns the portfolio engine
func (a *App) Portfolio() *portfolio.Engine {
	return a.portfolio
}

// Metrics returns the metrics registry
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Reports returns the report builder. The archive backend is opened on first
// use so that commands which never write reports do not touch storage.
func (a *App) Reports() (*report.Builder, error) {
	a.reportsOnce.Do(func() {
		s := a.cfg.Storage
		store, err := archive.New(archive.Config{
			Type: s.Type,
			Path: s.Path,
			S3: archive.S3Config{
				Bucket:    s.S3.Bucket,
				Endpoint:  s.S3.Endpoint,
				Region:    s.S3.Region,
				AccessKey: s.S3.AccessKey,
				SecretKey: s.S3.SecretKey,
				Prefix:    s.S3.Prefix,
			},
		})
		if err != nil {
			a.reportsErr = fmt.Errorf("opening report storage: %w", err)
			return
		}
		a.reports = report.NewBuilder(store, a.provider, s.Prefix, a.logger)
		a.reports.SetRecorder(a.metrics)
	})
	return a.reports, a.reportsErr
}

// Server builds the HTTP API server
func (a *App) Server() (*api.Server, error) {
	deps := api.Dependencies{
		Indicators: a.indicators,
		Portfolio:  a.portfolio,
		Provider:   strings.Join(a.providerNames(), ","),
	}
	if reports, err := a.Reports(); err != nil {
		a.logger.Warn("reports disabled", zap.Error(err))
	} else {
		deps.Reports = reports
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		deps.Metrics = a.metrics
		metricsPath = a.cfg.Metrics.Path
	}

	return api.NewServer(api.Config{
		Host:        a.cfg.Server.Host,
		Port:        a.cfg.Server.Port,
		APIKey:      a.cfg.Server.APIKey,
		MetricsPath: metricsPath,
	}, deps, a.logger)
}
