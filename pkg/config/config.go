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
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled    bool          `yaml:"enabled"`
		Brokers    []string      `yaml:"brokers"`
		Topic      string        `yaml:"topic"`
		GroupID    string        `yaml:"group_id"`
		Workers    int           `yaml:"workers"`
		MinBytes   int           `yaml:"min_bytes"`
		MaxBytes   int           `yaml:"max_bytes"`
		RetryMax   int           `yaml:"retry_max"`
		BackoffMin time.Duration `yaml:"backoff_min"`
		BackoffMax time.Duration `yaml:"backoff_max"`
	} `yaml:"kafka"`
	Taostats struct {
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		BackupAPIKey string        `yaml:"backup_api_key"`
		Timeout      time.Duration `yaml:"timeout"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
	} `yaml:"taostats"`
	PriceFeed struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		RestURL        string        `yaml:"rest_url"`
		Symbol         string        `yaml:"symbol"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"pricefeed"`
	History struct {
		MaxEntries int    `yaml:"max_entries"`
		WriteToken string `yaml:"write_token"`
	} `yaml:"history"`
	Halving struct {
		MaxSupply float64 `yaml:"max_supply"`
		MaxEvents int     `yaml:"max_events"`
	} `yaml:"halving"`
	Decentralization struct {
		WalletWeight    float64 `yaml:"wallet_weight"`
		ValidatorWeight float64 `yaml:"validator_weight"`
		SubnetWeight    float64 `yaml:"subnet_weight"`
	} `yaml:"decentralization"`
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

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v)
		c.Redis.Host = host
		if port != 0 {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("TAOSTATS_API_KEY"); v != "" {
		c.Taostats.APIKey = v
	}
	if v := os.Getenv("TAOSTATS_BACKUP_API_KEY"); v != "" {
		c.Taostats.BackupAPIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("HISTORY_WRITE_TOKEN"); v != "" {
		c.History.WriteToken = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "taometrics"
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = 672 // 4 weeks at a 6h refresh cadence
	}
	if c.Halving.MaxSupply == 0 {
		c.Halving.MaxSupply = 21_000_000
	}
	if c.Halving.MaxEvents == 0 {
		c.Halving.MaxEvents = 6
	}
	if c.Decentralization.WalletWeight == 0 &&
		c.Decentralization.ValidatorWeight == 0 &&
		c.Decentralization.SubnetWeight == 0 {
		c.Decentralization.WalletWeight = 0.5
		c.Decentralization.ValidatorWeight = 0.25
		c.Decentralization.SubnetWeight = 0.25
	}
	if c.Taostats.Timeout == 0 {
		c.Taostats.Timeout = 5 * time.Second
	}
	if c.Taostats.CacheTTL == 0 {
		c.Taostats.CacheTTL = time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.PriceFeed.Enabled && c.PriceFeed.WebSocketURL == "" && c.PriceFeed.RestURL == "" {
		return fmt.Errorf("pricefeed requires websocket_url or rest_url")
	}
	return nil
}

func splitHostPort(addr string) (string, int) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return addr, 0
	}
	var port int
	_, err := fmt.Sscanf(addr[i+1:], "%d", &port)
	if err != nil {
		return addr, 0
	}
	return addr[:i], port
}
