package config

import "time"

// TimeoutConfig holds timeout settings for database operations.
type TimeoutConfig struct {
	// Connect bounds opening and pinging the database.
	// Default: 10s
	Connect time.Duration `mapstructure:"connect"`

	// Statement bounds a single accessor operation issued by the CLI.
	// Default: 30s
	Statement time.Duration `mapstructure:"statement"`
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Connect:   10 * time.Second,
		Statement: 30 * time.Second,
	}
}

// global instance that can be set at startup
var globalTimeouts = DefaultTimeoutConfig()

// SetGlobalTimeouts sets the global timeout configuration
func SetGlobalTimeouts(cfg *TimeoutConfig) {
	globalTimeouts = cfg
}

// GetTimeouts returns the global timeout configuration
func GetTimeouts() *TimeoutConfig {
	return globalTimeouts
}
