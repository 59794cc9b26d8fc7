package main

import (
	"fmt"

	"github.com/newthinker/stocksage/internal/app"
	"github.com/newthinker/stocksage/internal/config"
	"github.com/newthinker/stocksage/internal/logger"
	"go.uber.org/zap"
)

// withApp loads configuration, builds the application and runs fn with it.
// Without --config the defaults apply, overridable through STOCKSAGE_* env vars.
func withApp(fn func(a *app.App, log *zap.Logger) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(debug || cfg.Log.Development, level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return fn(a, log)
}
