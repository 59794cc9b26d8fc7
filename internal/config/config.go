package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/stocksage/internal/core"
	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. STOCKSAGE_SERVER_PORT
const envPrefix = "STOCKSAGE"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Indicators IndicatorsConfig `mapstructure:"indicators"`
	Portfolio  PortfolioConfig  `mapstructure:"portfolio"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	APIKey          string        `mapstructure:"api_key"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ProviderConfig selects the market data source.
// Name is "yahoo" or "memory"; memory serves CSV files from DataDir.
type ProviderConfig struct {
	Name         string        `mapstructure:"name"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DataDir      string        `mapstructure:"data_dir"`
	Fundamentals bool          `mapstructure:"fundamentals"`
}

type IndicatorsConfig struct {
	RSIPeriod int `mapstructure:"rsi_period"`
	ATRPeriod int `mapstructure:"atr_period"`
}

type PortfolioConfig struct {
	WindowDays    int     `mapstructure:"window_days"`
	Workers       int     `mapstructure:"workers"`
	Overbought    float64 `mapstructure:"overbought"`
	Oversold      float64 `mapstructure:"oversold"`
	StopLossPct   float64 `mapstructure:"stop_loss_pct"`
	TakeProfitPct float64 `mapstructure:"take_profit_pct"`
}

// StorageConfig holds where generated reports are archived
type StorageConfig struct {
	Type   string   `mapstructure:"type"` // "localfs" or "s3"
	Path   string   `mapstructure:"path"` // For localfs
	Prefix string   `mapstructure:"prefix"`
	S3     S3Config `mapstructure:"s3"` // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file. An empty path yields the defaults with
// environment overrides applied.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return &cfg, nil
}

// setDefaults registers every default so env overrides resolve without a file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)

	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.data_dir", d.Provider.DataDir)
	v.SetDefault("provider.fundamentals", d.Provider.Fundamentals)

	v.SetDefault("indicators.rsi_period", d.Indicators.RSIPeriod)
	v.SetDefault("indicators.atr_period", d.Indicators.ATRPeriod)

	v.SetDefault("portfolio.window_days", d.Portfolio.WindowDays)
	v.SetDefault("portfolio.workers", d.Portfolio.Workers)
	v.SetDefault("portfolio.overbought", d.Portfolio.Overbought)
	v.SetDefault("portfolio.oversold", d.Portfolio.Oversold)
	v.SetDefault("portfolio.stop_loss_pct", d.Portfolio.StopLossPct)
	v.SetDefault("portfolio.take_profit_pct", d.Portfolio.TakeProfitPct)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.prefix", d.Storage.Prefix)
	v.SetDefault("storage.s3.bucket", d.Storage.S3.Bucket)
	v.SetDefault("storage.s3.endpoint", d.Storage.S3.Endpoint)
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("storage.s3.access_key", d.Storage.S3.AccessKey)
	v.SetDefault("storage.s3.secret_key", d.Storage.S3.SecretKey)
	v.SetDefault("storage.s3.prefix", d.Storage.S3.Prefix)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Provider: ProviderConfig{
			Name:         "yahoo",
			Timeout:      30 * time.Second,
			Fundamentals: true,
		},
		Indicators: IndicatorsConfig{
			RSIPeriod: 14,
			ATRPeriod: 14,
		},
		Portfolio: PortfolioConfig{
			WindowDays:    30,
			Workers:       4,
			Overbought:    70,
			Oversold:      30,
			StopLossPct:   -10,
			TakeProfitPct: 20,
		},
		Storage: StorageConfig{
			Type:   "localfs",
			Path:   "reports",
			Prefix: "analysis",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Provider.Name {
	case "yahoo":
	case "memory":
		if c.Provider.DataDir == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("provider.data_dir required when provider is memory"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown provider %q", c.Provider.Name))
	}

	if c.Indicators.RSIPeriod < 1 || c.Indicators.ATRPeriod < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("indicator periods must be positive, got rsi=%d atr=%d",
				c.Indicators.RSIPeriod, c.Indicators.ATRPeriod))
	}

	p := c.Portfolio
	if p.WindowDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("window_days must be positive, got %d", p.WindowDays))
	}
	if p.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("workers must be positive, got %d", p.Workers))
	}
	if p.Oversold >= p.Overbought {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("oversold (%v) must be below overbought (%v)", p.Oversold, p.Overbought))
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.path required when type is localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.s3.bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	return nil
}
