package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (TABLEKIT_DATABASE_HOST).
const EnvPrefix = "TABLEKIT"

// DefaultConfigName is looked up in the working directory when no config file is given.
const DefaultConfigName = "tablekit"

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig         `mapstructure:"database"`
	Log      LogConfig              `mapstructure:"log"`
	Timeouts TimeoutConfig          `mapstructure:"timeouts"`
	Tables   map[string]TableConfig `mapstructure:"tables"`
}

// DatabaseConfig holds the connection parameters.
type DatabaseConfig struct {
	// Driver is one of mysql, sqlite or postgres.
	Driver string `mapstructure:"driver"`
	Host   string `mapstructure:"host"`
	// Port of 0 selects the driver's standard port.
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Name is the schema (database) to connect to.
	Name string `mapstructure:"name"`
	// Path is the database file, sqlite only.
	Path string `mapstructure:"path"`
	// Params are extra driver parameters appended to the DSN.
	Params map[string]string `mapstructure:"params"`

	// ConnectTimeout bounds the initial ping. Filled from TimeoutConfig on Load.
	ConnectTimeout time.Duration `mapstructure:"-"`
}

// LogConfig controls the console and rotating file outputs.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// TableConfig declares the schema of one table.
type TableConfig struct {
	Key     string         `mapstructure:"key"`
	Columns []ColumnConfig `mapstructure:"columns"`
}

// ColumnConfig declares one column. Type is integer, float, text or any.
type ColumnConfig struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

func setDefaults(v *viper.Viper) {
	// Matches the fixed connection the service has always used.
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "mysql")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "pw")
	v.SetDefault("database.name", "my_database")
	v.SetDefault("database.path", "./tablekit.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	defaults := DefaultTimeoutConfig()
	v.SetDefault("timeouts.connect", defaults.Connect)
	v.SetDefault("timeouts.statement", defaults.Statement)
}

// Load reads configuration from path (or tablekit.yaml in the working
// directory when path is empty) and applies TABLEKIT_* environment overrides.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Database.ConnectTimeout = cfg.Timeouts.Connect
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	return cfg, nil
}

// Table returns the declared schema for name.
func (c *Config) Table(name string) (TableConfig, bool) {
	// viper lowercases map keys
	t, ok := c.Tables[strings.ToLower(name)]
	return t, ok
}
