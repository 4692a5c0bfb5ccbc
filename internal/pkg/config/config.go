package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Months    MonthsConfig    `mapstructure:"months"`
	TimeZone  TimeZoneConfig  `mapstructure:"timezone"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
	RateLimit      int `mapstructure:"rate_limit"` // requests per minute per IP, 0 disables
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MonthsConfig struct {
	MaxRange     int    `mapstructure:"max_range"`     // months per request, 0 = unlimited
	DateLocation string `mapstructure:"date_location"` // zone for offset-less date strings
}

// Location loads DateLocation.
func (m MonthsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(m.DateLocation)
}

type TimeZoneConfig struct {
	Backend     string   `mapstructure:"backend"`
	Fallbacks   []string `mapstructure:"fallbacks"`
	RejectOcean bool     `mapstructure:"reject_ocean"`
	CacheTTL    int      `mapstructure:"cache_ttl"`   // seconds
	LocalCache  int      `mapstructure:"local_cache"` // bytes, 0 disables
}

// Backends returns the primary backend followed by fallbacks, without duplicates.
func (t TimeZoneConfig) Backends() []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range append([]string{t.Backend}, t.Fallbacks...) {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxWait  int    `mapstructure:"max_wait"` // seconds to wait for the first ping
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
	Queue   string `mapstructure:"queue"`
}

type ValkeyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

var backends = map[string]bool{"tzf": true, "latlong": true, "postgis": true}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", 5)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("months.max_range", 1200)
	v.SetDefault("months.date_location", "UTC")
	v.SetDefault("timezone.backend", "tzf")
	v.SetDefault("timezone.fallbacks", []string{})
	v.SetDefault("timezone.reject_ocean", true)
	v.SetDefault("timezone.cache_ttl", 86400)
	v.SetDefault("timezone.local_cache", 32*1024*1024)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tzmonths")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "tzmonths")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_wait", 30)
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "tzmonths.monthstarts")
	v.SetDefault("nats.queue", "tzmonths")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TZMONTHS_TIMEZONE_BACKEND → timezone.backend
	v.SetEnvPrefix("TZMONTHS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}
	if c.Months.MaxRange < 0 {
		errs = append(errs, "months.max_range must not be negative")
	}
	if _, err := c.Months.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("months.date_location: %v", err))
	}

	tzBackends := c.TimeZone.Backends()
	if len(tzBackends) == 0 {
		errs = append(errs, "timezone.backend is required")
	}
	for _, b := range tzBackends {
		if !backends[b] {
			errs = append(errs, fmt.Sprintf("timezone backend %q is not one of tzf, latlong, postgis", b))
		}
		if b == "postgis" && !c.Database.Enabled {
			errs = append(errs, "timezone backend postgis requires database.enabled")
		}
	}
	if c.TimeZone.CacheTTL < 0 {
		errs = append(errs, "timezone.cache_ttl must not be negative")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
