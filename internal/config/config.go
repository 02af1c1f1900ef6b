package config

import "time"

// Config holds relay and client configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabaseDriver string `mapstructure:"database_driver" yaml:"database_driver"`
	DatabaseDSN    string `mapstructure:"database_dsn" yaml:"database_dsn"`
	RedisURL       string `mapstructure:"redis_url" yaml:"redis_url"`

	MaxMessageBytes    int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int   `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	SendBuffer         int   `mapstructure:"send_buffer" yaml:"send_buffer"`

	RelayURL  string `mapstructure:"relay_url" yaml:"relay_url"`
	RosterURL string `mapstructure:"roster_url" yaml:"roster_url"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		DatabaseDriver:     DriverSQLite,
		DatabaseDSN:        "portalchat.db",
		MaxMessageBytes:    1 << 16,
		RateLimitPerMinute: 120,
		SendBuffer:         32,
		RelayURL:           "ws://localhost:8080/ws",
		RosterURL:          "http://localhost:8080",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabaseDriver != "" {
		c.DatabaseDriver = other.DatabaseDriver
	}
	if other.DatabaseDSN != "" {
		c.DatabaseDSN = other.DatabaseDSN
	}
	if other.RedisURL != "" {
		c.RedisURL = other.RedisURL
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.SendBuffer != 0 {
		c.SendBuffer = other.SendBuffer
	}
	if other.RelayURL != "" {
		c.RelayURL = other.RelayURL
	}
	if other.RosterURL != "" {
		c.RosterURL = other.RosterURL
	}
}
