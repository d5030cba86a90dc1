package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/umkm-labs/warung/fields"
)

const envPrefix = "WARUNG"

// configKeys are the settings read from config.yaml and the environment.
var configKeys = []string{
	"port", "database_url", "db_path", "db_driver",
	"jwt_secret", "jwt_ttl_minutes", "admin_key", "dev_key",
	"is_debug", "log_sampling_tick_ms", "log_sampling_after_ms",
	"groq_key", "llm_base_url", "llm_model", "llm_temperature", "llm_max_tokens", "llm_timeout_sec",
	"redis_url",
	"forecast_refresh_minutes", "forecast_horizon_days", "low_stock_threshold",
	"otel_enabled", "otel_endpoint", "otel_insecure", "otel_service_name", "otel_service_version", "otel_sample_rate",
}

// legacyEnv are unprefixed variable names deployments already set.
var legacyEnv = map[string]string{
	"port":         "PORT",
	"database_url": "DATABASE_URL",
	"jwt_secret":   "JWT_SECRET",
	"dev_key":      "DEV_KEY",
	"groq_key":     "GROQ_KEY",
	"redis_url":    "REDIS_URL",
}

// loadConfig reads config.yaml (explicit path, ./ or /app/), a .env file and
// the environment. Prefixed variables win over legacy names.
func loadConfig(path, envFile string) (fields.Config, error) {
	var cfg fields.Config
	if err := loadDotEnv(envFile); err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetDefault("db_driver", "default")
	v.SetDefault("forecast_refresh_minutes", 60)
	v.SetDefault("otel_sample_rate", 0.1)
	v.SetDefault("llm_temperature", fields.DefaultLLMTemperature)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/app")
	}

	for _, key := range configKeys {
		names := []string{envPrefix + "_" + strings.ToUpper(key)}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return cfg, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Defaults()
	return cfg, nil
}

// loadDotEnv exports KEY=value pairs from path without overriding variables
// already present in the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}
