package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Latency   LatencyConfig   `yaml:"latency"`
	Session   SessionConfig   `yaml:"session"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Tickets   TicketsConfig   `yaml:"tickets"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LatencyConfig sets the simulated round-trip times.
type LatencyConfig struct {
	Auth    time.Duration `yaml:"auth"`
	Tickets time.Duration `yaml:"tickets"`
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
}

// RateLimitConfig throttles signup and login per client IP. Zero requests
// disables it.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	Burst    int           `yaml:"burst"`
}

type TicketsConfig struct {
	ProtectIdentity bool `yaml:"protect_identity"`
	RecentLimit     int  `yaml:"recent_limit"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "mockdesk.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Latency: LatencyConfig{
			Auth:    500 * time.Millisecond,
			Tickets: 300 * time.Millisecond,
		},
		Session: SessionConfig{
			CookieName: "ticketapp_session",
		},
		RateLimit: RateLimitConfig{
			Requests: 10,
			Window:   time.Minute,
			Burst:    5,
		},
		Tickets: TicketsConfig{
			RecentLimit: 5,
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. An empty path falls back to MOCKDESK_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MOCKDESK_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Latency.Auth < 0 || c.Latency.Tickets < 0 {
		return fmt.Errorf("latency must not be negative")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if c.RateLimit.Requests < 0 || c.RateLimit.Burst < 0 || c.RateLimit.Window < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.Tickets.RecentLimit < 0 {
		return fmt.Errorf("recent limit must not be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("MOCKDESK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if err := envInt("MOCKDESK_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if mode := os.Getenv("MOCKDESK_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if driver := os.Getenv("MOCKDESK_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if dbPath := os.Getenv("MOCKDESK_DB_PATH"); dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if level := os.Getenv("MOCKDESK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if err := envDuration("MOCKDESK_AUTH_LATENCY", &cfg.Latency.Auth); err != nil {
		return err
	}
	if err := envDuration("MOCKDESK_TICKET_LATENCY", &cfg.Latency.Tickets); err != nil {
		return err
	}
	if name := os.Getenv("MOCKDESK_SESSION_COOKIE"); name != "" {
		cfg.Session.CookieName = name
	}
	if err := envInt("MOCKDESK_RATELIMIT_REQUESTS", &cfg.RateLimit.Requests); err != nil {
		return err
	}
	if err := envDuration("MOCKDESK_RATELIMIT_WINDOW", &cfg.RateLimit.Window); err != nil {
		return err
	}
	if err := envInt("MOCKDESK_RATELIMIT_BURST", &cfg.RateLimit.Burst); err != nil {
		return err
	}
	if v := os.Getenv("MOCKDESK_PROTECT_IDENTITY"); v != "" {
		protect, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MOCKDESK_PROTECT_IDENTITY: %w", err)
		}
		cfg.Tickets.ProtectIdentity = protect
	}
	return envInt("MOCKDESK_RECENT_LIMIT", &cfg.Tickets.RecentLimit)
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
