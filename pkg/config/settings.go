package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig is the persisted connection configuration edited by the user.
type DatabaseConfig struct {
	DatabaseName    string `mapstructure:"databaseName" json:"databaseName" validate:"required"`
	Host            string `mapstructure:"host" json:"host" validate:"required_unless=Driver sqlite"`
	Port            int    `mapstructure:"port" json:"port" validate:"min=0,max=65535"`
	Username        string `mapstructure:"username" json:"username" validate:"required_unless=Driver sqlite"`
	Password        string `mapstructure:"password" json:"password"`
	Driver          string `mapstructure:"driver" json:"driver" validate:"required,oneof=mysql postgres sqlite"`
	MaximumPoolSize int    `mapstructure:"maximumPoolSize" json:"maximumPoolSize" validate:"required,min=1,max=100"`
}

// DefaultDatabaseConfig mirrors the values written on first run.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		DatabaseName:    "student_management",
		Host:            "localhost",
		Port:            3308,
		Username:        "root",
		Password:        "root",
		Driver:          DriverMySQL,
		MaximumPoolSize: 10,
	}
}

var validate = validator.New()

// Validate checks that every required field is present and within range.
func (c DatabaseConfig) Validate() error {
	return validate.Struct(c)
}

// Equal reports whether two configurations describe the same pool.
func (c DatabaseConfig) Equal(other DatabaseConfig) bool {
	return c == other
}

// Address renders host:port for logs; sqlite configs report the database path.
func (c DatabaseConfig) Address() string {
	if c.Driver == DriverSQLite {
		return c.DatabaseName
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SettingsStore persists DatabaseConfig as a JSON file.
type SettingsStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewSettingsStore prepares the settings directory and writes defaults when no file exists yet.
func NewSettingsStore(path string, logger *zap.Logger) (*SettingsStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = DefaultSettingsPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	s := &SettingsStore{path: path, logger: logger}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("settings file not found, writing defaults", zap.String("path", path))
		if err := s.Save(DefaultDatabaseConfig()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the backing file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load re-reads the settings file on every call.
func (s *SettingsStore) Load() (DatabaseConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.newViper()
	defaults := DefaultDatabaseConfig()
	v.SetDefault("databaseName", defaults.DatabaseName)
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("username", defaults.Username)
	v.SetDefault("password", defaults.Password)
	v.SetDefault("driver", defaults.Driver)
	v.SetDefault("maximumPoolSize", defaults.MaximumPoolSize)

	if err := v.ReadInConfig(); err != nil {
		return DatabaseConfig{}, fmt.Errorf("read settings: %w", err)
	}
	var cfg DatabaseConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("decode settings: %w", err)
	}
	return cfg, nil
}

// Save validates and writes cfg, replacing the previous file.
func (s *SettingsStore) Save(cfg DatabaseConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.newViper()
	v.Set("databaseName", cfg.DatabaseName)
	v.Set("host", cfg.Host)
	v.Set("port", cfg.Port)
	v.Set("username", cfg.Username)
	v.Set("password", cfg.Password)
	v.Set("driver", cfg.Driver)
	v.Set("maximumPoolSize", cfg.MaximumPoolSize)
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Watch invokes onChange with the freshly loaded settings whenever the file is written.
// The watch lives for the remainder of the process.
func (s *SettingsStore) Watch(onChange func(DatabaseConfig)) {
	w := s.newViper()
	if err := w.ReadInConfig(); err != nil {
		s.logger.Warn("settings watch: initial read failed", zap.Error(err))
	}
	w.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		cfg, err := s.Load()
		if err != nil {
			s.logger.Warn("settings changed but could not be loaded", zap.Error(err))
			return
		}
		s.logger.Info("settings changed", zap.String("driver", cfg.Driver), zap.String("host", cfg.Address()))
		onChange(cfg)
	})
	w.WatchConfig()
}

func (s *SettingsStore) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	return v
}
