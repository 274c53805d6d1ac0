/**
 * @description
 * This package handles configuration for the banking client. It uses the
 * Viper library to read configuration from environment variables (with an
 * optional .env file), providing a centralized way to manage settings.
 *
 * The API credentials live here, injected from the environment, rather than
 * being embedded in source.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the banking client.
// These values are loaded from environment variables.
type Config struct {
	APIBaseURL     string `mapstructure:"VASTRUST_API_BASE_URL"`
	APIUser        string `mapstructure:"VASTRUST_API_USER"`
	APIPassword    string `mapstructure:"VASTRUST_API_PASSWORD"`
	StorePath      string `mapstructure:"VASTRUST_STORE_PATH"`
	RequestTimeout int    `mapstructure:"VASTRUST_REQUEST_TIMEOUT_SECONDS"`
	ResendCooldown int    `mapstructure:"VASTRUST_RESEND_COOLDOWN_SECONDS"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogFormat      string `mapstructure:"LOG_FORMAT"`
}

// LoadConfig reads configuration from environment variables and an optional
// .env file at the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("VASTRUST_API_BASE_URL", "http://localhost/vastrust/public")
	viper.SetDefault("VASTRUST_STORE_PATH", "vastrust.db")
	viper.SetDefault("VASTRUST_REQUEST_TIMEOUT_SECONDS", 30)
	viper.SetDefault("VASTRUST_RESEND_COOLDOWN_SECONDS", 60)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("VASTRUST_API_BASE_URL")
	_ = viper.BindEnv("VASTRUST_API_USER")
	_ = viper.BindEnv("VASTRUST_API_PASSWORD")
	_ = viper.BindEnv("VASTRUST_STORE_PATH")
	_ = viper.BindEnv("VASTRUST_REQUEST_TIMEOUT_SECONDS")
	_ = viper.BindEnv("VASTRUST_RESEND_COOLDOWN_SECONDS")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("LOG_FORMAT")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.APIBaseURL = strings.TrimRight(strings.TrimSpace(config.APIBaseURL), "/")
	config.APIUser = strings.TrimSpace(config.APIUser)
	config.APIPassword = strings.TrimSpace(config.APIPassword)

	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30
	}
	if config.ResendCooldown <= 0 {
		config.ResendCooldown = 60
	}

	return
}
