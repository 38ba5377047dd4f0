package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	PSX struct {
		BaseURL        string        `yaml:"base_url"`
		StartYear      int           `yaml:"start_year"`
		StartMonth     int           `yaml:"start_month"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		RequestsPerSec float64       `yaml:"requests_per_sec"`
		MinRecords     int           `yaml:"min_records"`
	} `yaml:"psx"`
	Forecast struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		Horizon    int           `yaml:"horizon"`
		Retries    int           `yaml:"retries"`
	} `yaml:"forecast"`
	Store struct {
		Backend      string        `yaml:"backend"` // file or redis
		DataDir      string        `yaml:"data_dir"`
		SeedDir      string        `yaml:"seed_dir"`
		MaxAge       time.Duration `yaml:"max_age"`
		SentimentTTL time.Duration `yaml:"sentiment_ttl"`
	} `yaml:"store"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled         bool          `yaml:"enabled"`
		Brokers         []string      `yaml:"brokers"`
		ProgressTopic   string        `yaml:"progress_topic"`
		PredictionTopic string        `yaml:"prediction_topic"`
		RequiredAcks    int           `yaml:"required_acks"`
		Compression     string        `yaml:"compression"`
		MaxAttempts     int           `yaml:"max_attempts"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		Async           bool          `yaml:"async"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	// Stocks is the immutable prediction registry; slice order is the
	// sequential execution order of the batch.
	Stocks []models.Stock `yaml:"stocks"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PSX_BASE_URL"); v != "" {
		c.PSX.BaseURL = v
	}
	if v := os.Getenv("FORECAST_SERVICE_URL"); v != "" {
		c.Forecast.ServiceURL = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.PSX.BaseURL == "" {
		c.PSX.BaseURL = "https://dps.psx.com.pk"
	}
	if c.PSX.StartYear == 0 {
		c.PSX.StartYear = 2020
	}
	if c.PSX.StartMonth == 0 {
		c.PSX.StartMonth = 1
	}
	if c.PSX.MinRecords == 0 {
		c.PSX.MinRecords = 200
	}
	if c.PSX.RequestsPerSec == 0 {
		c.PSX.RequestsPerSec = 10
	}
	if c.Forecast.Horizon == 0 {
		c.Forecast.Horizon = models.ForecastHorizon
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	if c.Store.SeedDir == "" {
		c.Store.SeedDir = "data/psx_seed"
	}
	if c.Store.MaxAge == 0 {
		c.Store.MaxAge = 24 * time.Hour
	}
	if c.Store.SentimentTTL == 0 {
		c.Store.SentimentTTL = 4 * time.Hour
	}
	if c.Kafka.ProgressTopic == "" {
		c.Kafka.ProgressTopic = "psx.progress"
	}
	if c.Kafka.PredictionTopic == "" {
		c.Kafka.PredictionTopic = "psx.predictions"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Store.Backend != "file" && c.Store.Backend != "redis" {
		return fmt.Errorf("store.backend must be 'file' or 'redis', got '%s'", c.Store.Backend)
	}
	if c.Forecast.ServiceURL == "" {
		return fmt.Errorf("forecast.service_url is required")
	}
	if c.Forecast.Horizon <= 0 {
		return fmt.Errorf("forecast.horizon must be positive")
	}
	if len(c.Stocks) == 0 {
		return fmt.Errorf("stocks registry cannot be empty")
	}
	seen := make(map[string]bool, len(c.Stocks))
	for _, s := range c.Stocks {
		if s.Symbol == "" {
			return fmt.Errorf("stocks entries require a symbol")
		}
		if seen[s.Symbol] {
			return fmt.Errorf("duplicate stock symbol '%s'", s.Symbol)
		}
		seen[s.Symbol] = true
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host required when clickhouse is enabled")
	}
	return nil
}

// Registry returns the ordered prediction registry as a defensive copy.
func (c *Config) Registry() []models.Stock {
	out := make([]models.Stock, len(c.Stocks))
	copy(out, c.Stocks)
	return out
}
