package logger

import "fmt"

// Config represents logging configuration
type Config struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	MaxSize    int    `mapstructure:"max_size"`    // MB
	MaxBackups int    `mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `mapstructure:"max_age"`     // days
	Compress   bool   `mapstructure:"compress"`

	// RotateDaily starts a new file on the first write after local midnight,
	// on top of the size limit.
	RotateDaily bool `mapstructure:"rotate_daily"`
}

// DefaultConfig returns the logging defaults: ipsend.log, a week of backups
func DefaultConfig() *Config {
	return &Config{
		File:        "ipsend.log",
		Level:       "info",
		MaxSize:     100,
		MaxBackups:  7,
		MaxAge:      7,
		RotateDaily: true,
	}
}

// SetDefaults fills zero values from DefaultConfig and returns a copy
func (cfg Config) SetDefaults() *Config {
	def := DefaultConfig()
	if cfg.Level == "" {
		cfg.Level = def.Level
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = def.MaxBackups
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}
	return &cfg
}

// Validate validates logging configuration
func (cfg *Config) Validate() error {
	if cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	if cfg.MaxBackups < 0 || cfg.MaxAge < 0 {
		return fmt.Errorf("max_backups and max_age cannot be negative")
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	return nil
}
