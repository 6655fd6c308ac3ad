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
	Engine struct {
		Mode            string        `yaml:"mode"`        // percent or calculated
		DTEPreset       string        `yaml:"dte_preset"`  // default or intraday
		TPPercent       float64       `yaml:"tp_percent"`  // percent-mode take profit
		SLPercent       float64       `yaml:"sl_percent"`  // percent-mode stop loss
		ORBMinutes      int           `yaml:"orb_minutes"`
		BollingerPeriod int           `yaml:"bollinger_period"`
		BollingerK      float64       `yaml:"bollinger_k"`
		CandleLookback  time.Duration `yaml:"candle_lookback"`
		Replan          struct {
			Enabled        bool          `yaml:"enabled"`
			DriftPercent   float64       `yaml:"drift_percent"`          // underlying drift that triggers a replan
			ZeroDTEDrift   float64       `yaml:"zero_dte_drift_percent"` // tighter drift for same-day expiry
			LevelTolerance float64       `yaml:"level_tolerance"`        // proximity to a level that triggers a replan
			MinInterval    time.Duration `yaml:"min_interval"`
		} `yaml:"replan"`
	} `yaml:"engine"`
	Ingest struct {
		Backend string `yaml:"backend"` // kafka or direct
	} `yaml:"ingest"`
	Feed struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"feed"`
	Flow struct {
		Enabled  bool          `yaml:"enabled"`
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"flow"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		TicksTopic   string   `yaml:"ticks_topic"`
		PlansTopic   string   `yaml:"plans_topic"`
		LogsTopic    string   `yaml:"logs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
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
	Cache struct {
		PlanTTL   time.Duration `yaml:"plan_ttl"`
		LevelsTTL time.Duration `yaml:"levels_ttl"`
		Redis     struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   int     `yaml:"burst"`
	} `yaml:"rate_limit"`
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

	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("FLOW_API_KEY"); v != "" {
		c.Flow.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Feed.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Engine.Mode != "" && c.Engine.Mode != "percent" && c.Engine.Mode != "calculated" {
		return fmt.Errorf("engine.mode must be 'percent' or 'calculated', got '%s'", c.Engine.Mode)
	}
	if c.Engine.DTEPreset != "" && c.Engine.DTEPreset != "default" && c.Engine.DTEPreset != "intraday" {
		return fmt.Errorf("engine.dte_preset must be 'default' or 'intraday', got '%s'", c.Engine.DTEPreset)
	}
	if c.Ingest.Backend != "" && c.Ingest.Backend != "kafka" && c.Ingest.Backend != "direct" {
		return fmt.Errorf("ingest.backend must be 'kafka' or 'direct', got '%s'", c.Ingest.Backend)
	}
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("feed.symbols cannot be empty")
	}
	if c.Feed.APIKey == "" && os.Getenv("FEED_API_KEY") == "" {
		return fmt.Errorf("feed.api_key is required")
	}
	if c.Flow.Enabled && c.Flow.BaseURL == "" {
		return fmt.Errorf("flow.base_url is required when flow is enabled")
	}
	return nil
}
