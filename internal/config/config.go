// Package config loads process configuration from app.env and the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all process settings. Environment variables override app.env.
type Config struct {
	StatusBaseURL string `mapstructure:"STATUS_BASE_URL" validate:"required,url"`
	// Workers are monitored over the half-open range [WorkerIDStart, WorkerIDEnd).
	WorkerIDStart    int           `mapstructure:"WORKER_ID_START" validate:"min=1"`
	WorkerIDEnd      int           `mapstructure:"WORKER_ID_END" validate:"gtfield=WorkerIDStart"`
	PollInterval     time.Duration `mapstructure:"POLL_INTERVAL" validate:"gt=0"`
	FetchTimeout     time.Duration `mapstructure:"FETCH_TIMEOUT" validate:"gt=0"`
	FetchConcurrency int           `mapstructure:"FETCH_CONCURRENCY" validate:"min=1,max=64"`
	LocationPolicy   string        `mapstructure:"LOCATION_POLICY" validate:"oneof=last_point_wins single_point"`

	AlertRecipient     string  `mapstructure:"ALERT_RECIPIENT" validate:"required,email"`
	AlertSender        string  `mapstructure:"ALERT_SENDER" validate:"omitempty,email"`
	AlertDryRun        bool    `mapstructure:"ALERT_DRY_RUN"`
	AlertRatePerSecond float64 `mapstructure:"ALERT_RATE_PER_SECOND" validate:"min=0"`
	AWSRegion          string  `mapstructure:"AWS_REGION"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	ServerPort  string `mapstructure:"SERVER_PORT" validate:"required,numeric"`
	JWTSecret   string `mapstructure:"JWT_SECRET" validate:"omitempty,min=16"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"omitempty,oneof=text json"`
}

var defaults = map[string]any{
	"STATUS_BASE_URL":       "https://3qbqr98twd.execute-api.us-west-2.amazonaws.com/test",
	"WORKER_ID_START":       1,
	"WORKER_ID_END":         7,
	"POLL_INTERVAL":         "60s",
	"FETCH_TIMEOUT":         "15s",
	"FETCH_CONCURRENCY":     1,
	"LOCATION_POLICY":       "last_point_wins",
	"ALERT_RECIPIENT":       "",
	"ALERT_SENDER":          "",
	"ALERT_DRY_RUN":         false,
	"ALERT_RATE_PER_SECOND": 1.0,
	"AWS_REGION":            "us-west-2",
	"DATABASE_URL":          "",
	"SERVER_PORT":           "8080",
	"JWT_SECRET":            "",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "text",
}

// LoadConfig reads <path>/.env.local (if present) into the environment, then
// <path>/app.env (if present) through viper, then environment variables.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load(path + "/.env.local")

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config.LoadConfig: read app.env: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.LoadConfig: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the rules that span fields.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	if !c.AlertDryRun {
		if c.AlertSender == "" {
			return errors.New("config.Validate: ALERT_SENDER is required unless ALERT_DRY_RUN is set")
		}
		if c.AWSRegion == "" {
			return errors.New("config.Validate: AWS_REGION is required unless ALERT_DRY_RUN is set")
		}
	}
	return nil
}

// WorkerIDs returns the monitored IDs in ascending order.
func (c Config) WorkerIDs() []int {
	ids := make([]int, 0, c.WorkerIDEnd-c.WorkerIDStart)
	for id := c.WorkerIDStart; id < c.WorkerIDEnd; id++ {
		ids = append(ids, id)
	}
	return ids
}

// OperatorAPIEnabled reports whether the authenticated routes are served.
func (c Config) OperatorAPIEnabled() bool {
	return c.JWTSecret != ""
}
