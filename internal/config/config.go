package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Freshness FreshnessConfig `yaml:"freshness" mapstructure:"freshness"`
	Coverage  CoverageConfig  `yaml:"coverage" mapstructure:"coverage"`
	Consensus ConsensusConfig `yaml:"consensus" mapstructure:"consensus"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the registry/crosswalk database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// WarehouseConfig locates the partitioned snapshot files on disk.
type WarehouseConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// CatalogConfig points at the dataset catalog file.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SourceThresholds holds per-source staleness thresholds. Provider cadence
// varies by an order of magnitude, so thresholds are never global.
type SourceThresholds struct {
	WarnAfterHours  int `yaml:"warn_after_hours" mapstructure:"warn_after_hours"`
	ErrorAfterHours int `yaml:"error_after_hours" mapstructure:"error_after_hours"`
}

// WarnAfter returns the warn threshold as a duration.
func (s SourceThresholds) WarnAfter() time.Duration {
	return time.Duration(s.WarnAfterHours) * time.Hour
}

// ErrorAfter returns the error threshold as a duration.
func (s SourceThresholds) ErrorAfter() time.Duration {
	return time.Duration(s.ErrorAfterHours) * time.Hour
}

// FreshnessConfig configures the freshness evaluator.
type FreshnessConfig struct {
	Default SourceThresholds            `yaml:"default" mapstructure:"default"`
	Sources map[string]SourceThresholds `yaml:"sources" mapstructure:"sources"`
}

// CoverageConfig configures the coverage/row-delta analyzer.
type CoverageConfig struct {
	RowDeltaThreshold float64 `yaml:"row_delta_threshold" mapstructure:"row_delta_threshold"`
}

// ConsensusConfig holds per-provider aggregation weights.
type ConsensusConfig struct {
	Weights map[string]float64 `yaml:"weights" mapstructure:"weights"`
}

// ServerConfig configures the read-only status API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WAREHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "warehouse.db")
	v.SetDefault("warehouse.root", "warehouse")
	v.SetDefault("catalog.path", "datasets.yaml")
	v.SetDefault("freshness.default.warn_after_hours", 48)
	v.SetDefault("freshness.default.error_after_hours", 168)
	v.SetDefault("coverage.row_delta_threshold", 0.30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Thresholds returns the staleness thresholds for a source, falling back to
// the default block when the source has no entry of its own.
func (c *Config) Thresholds(source string) SourceThresholds {
	if t, ok := c.Freshness.Sources[source]; ok {
		return t
	}
	return c.Freshness.Default
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
