package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Discord    DiscordConfig    `mapstructure:"discord" json:"discord"`
	JSearch    JSearchConfig    `mapstructure:"jsearch" json:"jsearch"`
	Storage    StorageConfig    `mapstructure:"storage" json:"storage"`
	Recent     RecentConfig     `mapstructure:"recent" json:"recent"`
	Session    SessionConfig    `mapstructure:"session" json:"session"`
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" json:"monitoring"`
}

// DiscordConfig holds the chat gateway configuration
type DiscordConfig struct {
	Token  string `mapstructure:"token" json:"token"`
	Prefix string `mapstructure:"prefix" json:"prefix"`
}

// JSearchConfig holds the job-search provider configuration
type JSearchConfig struct {
	APIKey         string        `mapstructure:"api_key" json:"api_key"`
	BaseURL        string        `mapstructure:"base_url" json:"base_url"`
	Host           string        `mapstructure:"host" json:"host"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
}

// StorageConfig selects and configures the bookmark/history backend
type StorageConfig struct {
	Driver      string `mapstructure:"driver" json:"driver"` // sqlite, postgres, supabase
	Path        string `mapstructure:"path" json:"path"`
	DSN         string `mapstructure:"dsn" json:"dsn"`
	SupabaseURL string `mapstructure:"supabase_url" json:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_key" json:"supabase_key"`
}

// RecentConfig holds the shared recent-jobs buffer configuration
type RecentConfig struct {
	Capacity  int    `mapstructure:"capacity" json:"capacity"`
	PerSearch int    `mapstructure:"per_search" json:"per_search"`
	RedisURL  string `mapstructure:"redis_url" json:"redis_url"`
	RedisKey  string `mapstructure:"redis_key" json:"redis_key"`
}

// SessionConfig holds pagination session lifetimes
type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout" json:"idle_timeout"`
	SweepSpec   string        `mapstructure:"sweep_spec" json:"sweep_spec"`
}

// ServerConfig holds the health endpoint configuration
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Address string `mapstructure:"address" json:"address"`
}

// MonitoringConfig holds logging configuration
type MonitoringConfig struct {
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogFile  string `mapstructure:"log_file" json:"log_file"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"
)

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"discord.token":           "DISCORD_TOKEN",
	"discord.prefix":          "DISCORD_PREFIX",
	"jsearch.api_key":         "RAPIDAPI_KEY",
	"jsearch.base_url":        "JSEARCH_BASE_URL",
	"jsearch.host":            "JSEARCH_HOST",
	"jsearch.request_timeout": "JSEARCH_TIMEOUT",
	"storage.driver":          "STORE_DRIVER",
	"storage.path":            "STORE_PATH",
	"storage.dsn":             "DATABASE_URL",
	"storage.supabase_url":    "SUPABASE_URL",
	"storage.supabase_key":    "SUPABASE_KEY",
	"recent.redis_url":        "REDIS_URL",
	"session.idle_timeout":    "SESSION_IDLE_TIMEOUT",
	"server.enabled":          "HEALTH_ENABLED",
	"server.address":          "HEALTH_ADDR",
	"monitoring.log_level":    "LOG_LEVEL",
	"monitoring.log_file":     "LOG_FILE",
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			Prefix: ".",
		},
		JSearch: JSearchConfig{
			BaseURL:        "https://jsearch.p.rapidapi.com",
			Host:           "jsearch.p.rapidapi.com",
			RequestTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "job_bot.db",
		},
		Recent: RecentConfig{
			Capacity:  20,
			PerSearch: 5,
			RedisKey:  "jobbot:recent",
		},
		Session: SessionConfig{
			IdleTimeout: 5 * time.Minute,
			SweepSpec:   "@every 30s",
		},
		Server: ServerConfig{
			Enabled: true,
			Address: ":8080",
		},
		Monitoring: MonitoringConfig{
			LogLevel: "info",
		},
	}
}

// LoadConfig starts from DefaultConfig, applies the JSON file at filename when
// it exists and then the environment variables in envBindings.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			v.SetConfigFile(filename)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("discord.token", d.Discord.Token)
	v.SetDefault("discord.prefix", d.Discord.Prefix)
	v.SetDefault("jsearch.api_key", d.JSearch.APIKey)
	v.SetDefault("jsearch.base_url", d.JSearch.BaseURL)
	v.SetDefault("jsearch.host", d.JSearch.Host)
	v.SetDefault("jsearch.request_timeout", d.JSearch.RequestTimeout)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.supabase_url", d.Storage.SupabaseURL)
	v.SetDefault("storage.supabase_key", d.Storage.SupabaseKey)
	v.SetDefault("recent.capacity", d.Recent.Capacity)
	v.SetDefault("recent.per_search", d.Recent.PerSearch)
	v.SetDefault("recent.redis_url", d.Recent.RedisURL)
	v.SetDefault("recent.redis_key", d.Recent.RedisKey)
	v.SetDefault("session.idle_timeout", d.Session.IdleTimeout)
	v.SetDefault("session.sweep_spec", d.Session.SweepSpec)
	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("monitoring.log_level", d.Monitoring.LogLevel)
	v.SetDefault("monitoring.log_file", d.Monitoring.LogFile)
}

// Validate validates the configuration needed to run the bot
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN not found in environment variables")
	}

	if c.Discord.Prefix == "" {
		return fmt.Errorf("command prefix cannot be empty")
	}

	return c.ValidateSearch()
}

// ValidateSearch validates everything except the chat gateway, which the
// operator CLI does not use.
func (c *Config) ValidateSearch() error {
	if c.JSearch.APIKey == "" {
		return fmt.Errorf("RAPIDAPI_KEY not found in environment variables")
	}

	if c.JSearch.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("sqlite storage requires a path")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("postgres storage requires DATABASE_URL")
		}
	case DriverSupabase:
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			return fmt.Errorf("supabase storage requires SUPABASE_URL and SUPABASE_KEY")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Recent.Capacity <= 0 {
		return fmt.Errorf("recent buffer capacity must be positive")
	}

	if c.Recent.PerSearch <= 0 {
		return fmt.Errorf("recent jobs per search must be positive")
	}

	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session idle timeout must be positive")
	}

	return nil
}
