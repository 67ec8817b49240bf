package kv

import "time"

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	PoolTimeout  time.Duration
	MinIdleConns int
	Prefix       string
}

// RedisOption configures RedisStore.
type RedisOption func(*RedisConfig)

func WithAddr(host string, port int) RedisOption {
	return func(c *RedisConfig) {
		c.Host = host
		c.Port = port
	}
}

func WithPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

func WithDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

func WithPool(size int, timeout time.Duration, minIdle int) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = size
		c.PoolTimeout = timeout
		c.MinIdleConns = minIdle
	}
}
