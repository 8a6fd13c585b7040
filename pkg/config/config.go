package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Providers struct {
		Brapi struct {
			BaseURL string        `yaml:"base_url"`
			Token   string        `yaml:"token"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"brapi"`
		Finnhub struct {
			BaseURL      string        `yaml:"base_url"`
			APIKey       string        `yaml:"api_key"`
			LookbackDays int           `yaml:"lookback_days"`
			Timeout      time.Duration `yaml:"timeout"`
		} `yaml:"finnhub"`
		Yahoo struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"yahoo"`
		Polymarket struct {
			BaseURL   string        `yaml:"base_url"`
			PageLimit int           `yaml:"page_limit"`
			Timeout   time.Duration `yaml:"timeout"`
		} `yaml:"polymarket"`
	} `yaml:"providers"`
	Cache struct {
		TTL struct {
			Registry     time.Duration `yaml:"registry"`
			Fundamentals time.Duration `yaml:"fundamentals"`
			News         time.Duration `yaml:"news"`
			Markets      time.Duration `yaml:"markets"`
		} `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Scan struct {
		UniverseCap     int           `yaml:"universe_cap"`
		NewsCap         int           `yaml:"news_cap"`
		InterCallDelay  time.Duration `yaml:"inter_call_delay"`
		MinRegistrySize int           `yaml:"min_registry_size"`
		ProviderRPS     float64       `yaml:"provider_rps"`
		HistoryMax      int           `yaml:"history_max"`
	} `yaml:"scan"`
	Sink struct {
		Backend string `yaml:"backend"` // none, kafka, clickhouse
		Kafka   struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			BatchBytes   int           `yaml:"batch_bytes"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`
		ClickHouse struct {
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
	} `yaml:"sink"`
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

// LoadWithEnv loads config from YAML and overrides with environment
// variables. API credentials are only ever sourced from config or env;
// there are no built-in fallback values.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if v := os.Getenv("BRAPI_API_TOKEN"); v != "" {
		c.Providers.Brapi.Token = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("SINK_BACKEND"); v != "" {
		c.Sink.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Sink.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Sink.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			c.Cache.Redis.Host = host
			fmt.Sscanf(port, "%d", &c.Cache.Redis.Port)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Providers.Brapi.BaseURL == "" {
		c.Providers.Brapi.BaseURL = "https://brapi.dev/api"
	}
	if c.Providers.Finnhub.BaseURL == "" {
		c.Providers.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if c.Providers.Finnhub.LookbackDays <= 0 {
		c.Providers.Finnhub.LookbackDays = 7
	}
	if c.Providers.Yahoo.BaseURL == "" {
		c.Providers.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Providers.Polymarket.BaseURL == "" {
		c.Providers.Polymarket.BaseURL = "https://clob.polymarket.com"
	}
	if c.Providers.Polymarket.PageLimit <= 0 {
		c.Providers.Polymarket.PageLimit = 2000
	}
	if c.Cache.TTL.Registry <= 0 {
		c.Cache.TTL.Registry = 24 * time.Hour
	}
	if c.Cache.TTL.Fundamentals <= 0 {
		c.Cache.TTL.Fundamentals = time.Hour
	}
	if c.Cache.TTL.News <= 0 {
		c.Cache.TTL.News = 30 * time.Minute
	}
	if c.Cache.TTL.Markets <= 0 {
		c.Cache.TTL.Markets = time.Hour
	}
	if c.Scan.UniverseCap <= 0 {
		c.Scan.UniverseCap = 100
	}
	if c.Scan.NewsCap <= 0 {
		c.Scan.NewsCap = 50
	}
	if c.Scan.InterCallDelay <= 0 {
		c.Scan.InterCallDelay = 50 * time.Millisecond
	}
	if c.Scan.MinRegistrySize <= 0 {
		c.Scan.MinRegistrySize = 10
	}
	if c.Scan.ProviderRPS <= 0 {
		c.Scan.ProviderRPS = 20
	}
	if c.Scan.HistoryMax <= 0 {
		c.Scan.HistoryMax = 100
	}
	if c.Sink.Backend == "" {
		c.Sink.Backend = "none"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Providers.Brapi.Token == "" {
		return fmt.Errorf("providers.brapi.token is required (set BRAPI_API_TOKEN)")
	}
	if c.Providers.Finnhub.APIKey == "" {
		return fmt.Errorf("providers.finnhub.api_key is required (set FINNHUB_API_KEY)")
	}
	switch c.Sink.Backend {
	case "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("sink.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Sink.Backend)
	}
	if c.Sink.Backend == "kafka" && len(c.Sink.Kafka.Brokers) == 0 {
		return fmt.Errorf("sink.kafka.brokers cannot be empty")
	}
	if c.Sink.Backend == "clickhouse" && c.Sink.ClickHouse.Host == "" {
		return fmt.Errorf("sink.clickhouse.host is required")
	}
	return nil
}
