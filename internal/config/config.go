package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ipsend/internal/logger"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	CredentialsFile string         `mapstructure:"credentials_file"`
	CacheFile       string         `mapstructure:"cache_file"`
	Poll            PollConfig     `mapstructure:"poll"`
	Resolver        ResolverConfig `mapstructure:"resolver"`
	Notify          NotifyConfig   `mapstructure:"notify"`
	Log             logger.Config  `mapstructure:"log"`
}

// PollConfig represents the poll loop configuration
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// ResolverConfig represents the public address lookup configuration
type ResolverConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NotifyConfig represents the email notification configuration
type NotifyConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Subject string        `mapstructure:"subject"`

	// RequireSuccess keeps the cached address untouched when the send
	// fails, so the next cycle notifies again.
	RequireSuccess bool `mapstructure:"require_success"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("credentials_file", "cred.json")
	v.SetDefault("cache_file", "ip_cache.txt")
	v.SetDefault("poll.interval", 30*time.Minute)
	v.SetDefault("resolver.url", "https://api.ipify.org?format=json")
	v.SetDefault("resolver.timeout", 10*time.Second)
	v.SetDefault("notify.url", "https://api.mailersend.com/v1/email")
	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("notify.subject", "Current Public IP Address")
	v.SetDefault("notify.require_success", false)

	def := logger.DefaultConfig()
	v.SetDefault("log.file", def.File)
	v.SetDefault("log.level", def.Level)
	v.SetDefault("log.max_size", def.MaxSize)
	v.SetDefault("log.max_backups", def.MaxBackups)
	v.SetDefault("log.max_age", def.MaxAge)
	v.SetDefault("log.compress", def.Compress)
	v.SetDefault("log.rotate_daily", def.RotateDaily)
}

// LoadConfig loads the application configuration. An empty path searches
// the default locations; a missing file there is not an error. The
// IPSEND_CONFIG environment variable names an explicit file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(InDot)
		v.AddConfigPath(InHome)
		v.AddConfigPath(InEtc)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (cfg *Config) Validate() error {
	if cfg.CredentialsFile == "" {
		return fmt.Errorf("credentials_file is required")
	}
	if cfg.CacheFile == "" {
		return fmt.Errorf("cache_file is required")
	}
	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if cfg.Resolver.URL == "" || cfg.Notify.URL == "" {
		return fmt.Errorf("resolver.url and notify.url are required")
	}
	if cfg.Resolver.Timeout <= 0 || cfg.Notify.Timeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if cfg.Notify.Subject == "" {
		return fmt.Errorf("notify.subject is required")
	}
	return cfg.Log.Validate()
}
