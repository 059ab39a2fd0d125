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
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Exchange struct {
		RESTURL           string        `yaml:"rest_url"`
		WebSocketURL      string        `yaml:"websocket_url"`
		APIKey            string        `yaml:"api_key"`
		APISecret         string        `yaml:"api_secret"`
		QuoteAsset        string        `yaml:"quote_asset"`
		ReconnectBase     time.Duration `yaml:"reconnect_base"`
		ReconnectAttempts int           `yaml:"reconnect_attempts"`
		PingInterval      time.Duration `yaml:"ping_interval"`
	} `yaml:"exchange"`
	Screener struct {
		Interval        string        `yaml:"interval"`
		WorkingSetSize  int           `yaml:"working_set_size"`
		MaxStreams      int           `yaml:"max_streams"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
		ThrottleWindow  time.Duration `yaml:"throttle_window"`
		BaselineWindow  int           `yaml:"baseline_window"`
	} `yaml:"screener"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		Linger       time.Duration `yaml:"linger"`
		BatchSize    int           `yaml:"batch_size"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
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

	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv("QUOTE_ASSET"); v != "" {
		c.Exchange.QuoteAsset = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Exchange.QuoteAsset == "" {
		c.Exchange.QuoteAsset = "USDT"
	}
	if c.Exchange.ReconnectBase == 0 {
		c.Exchange.ReconnectBase = time.Second
	}
	if c.Exchange.ReconnectAttempts == 0 {
		c.Exchange.ReconnectAttempts = 5
	}
	if c.Exchange.PingInterval == 0 {
		c.Exchange.PingInterval = 30 * time.Second
	}
	if c.Screener.Interval == "" {
		c.Screener.Interval = "15m"
	}
	if c.Screener.WorkingSetSize == 0 {
		c.Screener.WorkingSetSize = 30
	}
	if c.Screener.MaxStreams == 0 {
		c.Screener.MaxStreams = 50
	}
	if c.Screener.RefreshInterval == 0 {
		c.Screener.RefreshInterval = time.Minute
	}
	if c.Screener.ThrottleWindow == 0 {
		c.Screener.ThrottleWindow = time.Second
	}
	if c.Screener.BaselineWindow == 0 {
		c.Screener.BaselineWindow = 20
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Exchange.RESTURL == "" {
		return fmt.Errorf("exchange.rest_url is required")
	}
	if c.Exchange.WebSocketURL == "" {
		return fmt.Errorf("exchange.websocket_url is required")
	}
	if c.Screener.WorkingSetSize > c.Screener.MaxStreams {
		return fmt.Errorf("screener.working_set_size must not exceed screener.max_streams (%d)", c.Screener.MaxStreams)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
