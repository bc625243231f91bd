package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int    `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int    `yaml:"min_conns" mapstructure:"min_conns"`
}

// EngineConfig configures score recomputation.
type EngineConfig struct {
	Workers       int `yaml:"workers" mapstructure:"workers"`
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// ImportConfig configures bulk geography and value imports.
type ImportConfig struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int     `yaml:"port" mapstructure:"port"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
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
	v.SetEnvPrefix("SUITABILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "suitability.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.retry_attempts", 3)
	v.SetDefault("import.batch_size", 1000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.requests_per_sec", 20)
	v.SetDefault("server.burst", 40)
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

// Validate checks the fields required to open the store and, for the
// serve mode, run the HTTP server. Collects all problems into one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	default:
		problems = append(problems, "store.driver must be postgres or sqlite")
	}

	if c.Engine.Workers < 1 || c.Engine.Workers > 64 {
		problems = append(problems, "engine.workers must be between 1 and 64")
	}
	if c.Engine.RetryAttempts < 1 {
		problems = append(problems, "engine.retry_attempts must be >= 1")
	}
	if c.Import.BatchSize < 1 {
		problems = append(problems, "import.batch_size must be >= 1")
	}

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RequestsPerSec <= 0 {
			problems = append(problems, "server.requests_per_sec must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
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
