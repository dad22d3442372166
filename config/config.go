/*
Package config loads server configuration.

SOURCES (later wins):
  1. Built-in defaults
  2. Optional YAML file (path given to Load; missing file is fine when
     the path is empty)
  3. Environment variables with prefix LEDGER_, dots replaced by
     underscores: LEDGER_SERVER_PORT, LEDGER_STORAGE_DRIVER, ...

EXAMPLE (ledger.yaml):
  server:
    port: 8080
    allowed_origins: ["http://localhost:5173"]
  storage:
    driver: sqlite          # file | sqlite | postgres | memory
    path: ./data/ledger.db
    history: 20
  insight:
    api_key: ...
    model: gemini-3-flash-preview
  backup:
    dir: ./backups          # empty disables daily backups
    interval: 1h
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	Driver  string `mapstructure:"driver"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	Key     string `mapstructure:"key"`
	History int    `mapstructure:"history"`
}

type InsightConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// BackupConfig controls the daily export scheduler. Empty Dir disables it.
type BackupConfig struct {
	Dir      string        `mapstructure:"dir"`
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Insight InsightConfig `mapstructure:"insight"`
	Backup  BackupConfig  `mapstructure:"backup"`
}

// Storage drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.key", "retail_ledger_data")
	v.SetDefault("storage.history", 20)
	v.SetDefault("insight.api_key", "")
	v.SetDefault("insight.model", "gemini-3-flash-preview")
	v.SetDefault("backup.dir", "")
	v.SetDefault("backup.interval", time.Hour)
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Backup.Dir != "" && c.Backup.Interval < time.Minute {
		return fmt.Errorf("backup.interval %v is below one minute", c.Backup.Interval)
	}
	return nil
}
