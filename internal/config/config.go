package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WRAPPED_SERVER_PORT
const EnvPrefix = "WRAPPED"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DataConfig locates and describes the input files
type DataConfig struct {
	HistoryPath    string   `mapstructure:"history_path"`
	GenresPath     string   `mapstructure:"genres_path"`
	Delimiter      string   `mapstructure:"delimiter"`
	DateColumn     string   `mapstructure:"date_column"`
	DurationColumn string   `mapstructure:"duration_column"`
	SeriesColumn   string   `mapstructure:"series_column"`
	TitleColumn    string   `mapstructure:"title_column"`
	DateLayouts    []string `mapstructure:"date_layouts"`
	BatchSize      int      `mapstructure:"batch_size"`
}

// DashboardConfig selects what the dashboard shows
type DashboardConfig struct {
	Year      int    `mapstructure:"year"`
	Title     string `mapstructure:"title"`
	PlotlyURL string `mapstructure:"plotly_url"`
}

// MetadataConfig configures the OMDb genre lookups
type MetadataConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Concurrency       int           `mapstructure:"concurrency"`
	FailureThreshold  uint32        `mapstructure:"failure_threshold"`
	OpenTimeout       time.Duration `mapstructure:"open_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8050)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("data.history_path", "viewedHistory.csv")
	v.SetDefault("data.genres_path", "genres.json")
	v.SetDefault("data.delimiter", ";")
	v.SetDefault("data.date_column", "dateStr")
	v.SetDefault("data.duration_column", "duration")
	v.SetDefault("data.series_column", "seriesTitle")
	v.SetDefault("data.title_column", "title")
	v.SetDefault("data.date_layouts", []string{})
	v.SetDefault("data.batch_size", 1000)

	v.SetDefault("dashboard.year", 2020)
	v.SetDefault("dashboard.title", "Netflix Wrapped")
	v.SetDefault("dashboard.plotly_url", "https://cdn.plot.ly/plotly-2.35.2.min.js")

	v.SetDefault("metadata.base_url", "https://www.omdbapi.com/")
	v.SetDefault("metadata.api_key", "")
	v.SetDefault("metadata.timeout", 10*time.Second)
	v.SetDefault("metadata.requests_per_second", 5.0)
	v.SetDefault("metadata.burst", 1)
	v.SetDefault("metadata.concurrency", 4)
	v.SetDefault("metadata.failure_threshold", 5)
	v.SetDefault("metadata.open_timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// LoadConfig reads configuration from defaults, an optional YAML file, a .env
// file and WRAPPED_ environment variables, in increasing precedence.
// An empty path searches for config.yaml in . and ./config.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Data.HistoryPath == "" {
		return fmt.Errorf("data.history_path is required")
	}
	if c.Data.GenresPath == "" {
		return fmt.Errorf("data.genres_path is required")
	}
	if c.Data.Delimiter != `\t` && utf8.RuneCountInString(c.Data.Delimiter) != 1 {
		return fmt.Errorf("data.delimiter must be a single character, got %q", c.Data.Delimiter)
	}
	if c.Data.DateColumn == "" || c.Data.DurationColumn == "" {
		return fmt.Errorf("data.date_column and data.duration_column are required")
	}
	if c.Data.BatchSize <= 0 {
		return fmt.Errorf("data.batch_size must be positive, got %d", c.Data.BatchSize)
	}
	if c.Dashboard.Year < 1900 || c.Dashboard.Year > 9999 {
		return fmt.Errorf("dashboard.year out of range: %d", c.Dashboard.Year)
	}
	if c.Metadata.RequestsPerSecond <= 0 {
		return fmt.Errorf("metadata.requests_per_second must be positive")
	}
	if c.Metadata.Burst <= 0 || c.Metadata.Concurrency <= 0 {
		return fmt.Errorf("metadata.burst and metadata.concurrency must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
