package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the process-level configuration of the host application.
type Config struct {
	Env          string
	SettingsFile string
	SQLDialect   string

	Log     LogConfig
	Monitor MonitorConfig
	Status  StatusServerConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// MonitorConfig tunes the connection health monitor.
type MonitorConfig struct {
	Interval              time.Duration
	CheckTimeout          time.Duration
	TestConnectionTimeout time.Duration
}

// StatusServerConfig toggles the local health/metrics endpoint.
type StatusServerConfig struct {
	Enabled bool
	Port    int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.SettingsFile = v.GetString("SETTINGS_FILE")
	cfg.SQLDialect = v.GetString("SQL_DIALECT")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Monitor = MonitorConfig{
		Interval:              parseDuration(v.GetString("MONITOR_INTERVAL"), 5*time.Second),
		CheckTimeout:          parseDuration(v.GetString("MONITOR_CHECK_TIMEOUT"), time.Second),
		TestConnectionTimeout: parseDuration(v.GetString("TEST_CONNECTION_TIMEOUT"), 5*time.Second),
	}

	cfg.Status = StatusServerConfig{
		Enabled: v.GetBool("STATUS_SERVER_ENABLED"),
		Port:    v.GetInt("STATUS_SERVER_PORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("SETTINGS_FILE", DefaultSettingsPath())
	v.SetDefault("SQL_DIALECT", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("MONITOR_INTERVAL", "5s")
	v.SetDefault("MONITOR_CHECK_TIMEOUT", "1s")
	v.SetDefault("TEST_CONNECTION_TIMEOUT", "5s")

	v.SetDefault("STATUS_SERVER_ENABLED", false)
	v.SetDefault("STATUS_SERVER_PORT", 8089)
}

// DefaultSettingsPath returns ~/.student_management/dbConfigFile.json.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".student_management", "dbConfigFile.json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
