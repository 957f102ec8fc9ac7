// Package config loads the client configuration: defaults first, optional
// storefront.yaml, STOREFRONT_* environment overrides last.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API   APIConfig
	State StateConfig
	Log   LogConfig
}

type APIConfig struct {
	// BaseURL includes the version prefix, e.g. http://localhost:8080/api/v1.
	BaseURL string
	Timeout time.Duration
}

type StateConfig struct {
	// Path of the JSON state file. Used unless PostgresDSN is set.
	Path string

	// PostgresDSN switches the durable state store to a shared Postgres
	// database with LISTEN/NOTIFY change delivery.
	PostgresDSN string

	// AMQPURL attaches a RabbitMQ fanout notifier to the file store so
	// separate processes sharing the file observe each other's changes.
	AMQPURL string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("storefront")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.storefront")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
			Timeout: v.GetDuration("api.timeout"),
		},
		State: StateConfig{
			Path:        v.GetString("state.path"),
			PostgresDSN: v.GetString("state.postgres_dsn"),
			AMQPURL:     v.GetString("state.amqp_url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if cfg.API.BaseURL == "" {
		return Config{}, fmt.Errorf("api.base_url must not be empty")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("state.path", ".storefront/state.json")
	v.SetDefault("state.postgres_dsn", "")
	v.SetDefault("state.amqp_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
