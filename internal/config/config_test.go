package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	require.Equal(t, ".", cfg.Discord.Prefix)
	require.Equal(t, "https://jsearch.p.rapidapi.com", cfg.JSearch.BaseURL)
	require.Equal(t, 30*time.Second, cfg.JSearch.RequestTimeout)
	require.Equal(t, DriverSQLite, cfg.Storage.Driver)
	require.Equal(t, "job_bot.db", cfg.Storage.Path)
	require.Equal(t, 20, cfg.Recent.Capacity)
	require.Equal(t, 5, cfg.Recent.PerSearch)
	require.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test_discord_token")
	t.Setenv("RAPIDAPI_KEY", "test_rapidapi_key")
	t.Setenv("STORE_DRIVER", DriverPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("SESSION_IDLE_TIMEOUT", "10m")
	t.Setenv("HEALTH_ENABLED", "false")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "test_discord_token", cfg.Discord.Token)
	require.Equal(t, "test_rapidapi_key", cfg.JSearch.APIKey)
	require.Equal(t, DriverPostgres, cfg.Storage.Driver)
	require.Equal(t, "postgres://localhost/jobs", cfg.Storage.DSN)
	require.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
	require.False(t, cfg.Server.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"discord": {"prefix": "!"},
		"recent": {"capacity": 40},
		"session": {"idle_timeout": "90s"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("DISCORD_PREFIX", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "!", cfg.Discord.Prefix)
	require.Equal(t, 40, cfg.Recent.Capacity)
	require.Equal(t, 90*time.Second, cfg.Session.IdleTimeout)
	// untouched sections keep their defaults
	require.Equal(t, 5, cfg.Recent.PerSearch)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Discord.Token = "token"
		cfg.JSearch.APIKey = "key"
		return cfg
	}

	testCases := []struct {
		name   string
		mutate func(cfg *Config)
		ok     bool
	}{
		{name: "OK", mutate: func(cfg *Config) {}, ok: true},
		{name: "MissingToken", mutate: func(cfg *Config) { cfg.Discord.Token = "" }},
		{name: "MissingAPIKey", mutate: func(cfg *Config) { cfg.JSearch.APIKey = "" }},
		{name: "UnknownDriver", mutate: func(cfg *Config) { cfg.Storage.Driver = "mongo" }},
		{name: "PostgresWithoutDSN", mutate: func(cfg *Config) { cfg.Storage.Driver = DriverPostgres }},
		{name: "SupabaseWithoutKey", mutate: func(cfg *Config) {
			cfg.Storage.Driver = DriverSupabase
			cfg.Storage.SupabaseURL = "https://example.supabase.co"
		}},
		{name: "ZeroCapacity", mutate: func(cfg *Config) { cfg.Recent.Capacity = 0 }},
		{name: "ZeroIdleTimeout", mutate: func(cfg *Config) { cfg.Session.IdleTimeout = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			if tc.ok {
				require.NoError(t, cfg.Validate())
			} else {
				require.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidateSearch_NoDiscordToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JSearch.APIKey = "key"

	require.Error(t, cfg.Validate())
	require.NoError(t, cfg.ValidateSearch())
}
