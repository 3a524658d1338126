package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"ipsend/internal/types"
	"ipsend/internal/validator"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// APIKeyEnv is consulted when the credentials file carries no API key
const APIKeyEnv = "MAILERSEND_API_KEY"

// Credentials holds the mail provider key and the fixed sender/recipient.
// Loaded once at startup and never modified.
type Credentials struct {
	APIKey    string `json:"MAILERSEND_API_KEY" mapstructure:"mailersend_api_key" validate:"required"`
	FromEmail string `json:"FROM_EMAIL" mapstructure:"from_email" validate:"required,email"`
	ToEmail   string `json:"TO_EMAIL" mapstructure:"to_email" validate:"required,email"`
}

// LoadCredentials reads the JSON credentials file at path. A .env file in
// the working directory, when present, is merged into the environment first
// without overriding variables that are already set. All failures wrap
// types.ErrConfig.
func LoadCredentials(path string) (*Credentials, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: configuration file not found: %s", types.ErrConfig, path)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrConfig, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to read credentials: %v", types.ErrConfig, err)
	}

	var creds Credentials
	if err := v.Unmarshal(&creds); err != nil {
		return nil, fmt.Errorf("%w: failed to decode credentials: %v", types.ErrConfig, err)
	}

	if creds.APIKey == "" {
		creds.APIKey = os.Getenv(APIKeyEnv)
	}
	if creds.APIKey == "" {
		return nil, fmt.Errorf("%w: %s not found in config file or environment variables", types.ErrConfig, APIKeyEnv)
	}

	if err := validator.New().Struct(creds); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfig, err)
	}

	return &creds, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: failed to load %s: %v", types.ErrConfig, path, err)
	}
	return nil
}
