package fields

import "strings"

// Config is the service configuration, populated from config.yaml, .env and
// the environment.
type Config struct {
	Port           string `mapstructure:"port" yaml:"port"`
	DatabaseURL    string `mapstructure:"database_url" yaml:"database_url"`
	DatabasePath   string `mapstructure:"db_path" yaml:"db_path"`
	DatabaseDriver string `mapstructure:"db_driver" yaml:"db_driver"`

	JWTSecret     string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTTTLMinutes int    `mapstructure:"jwt_ttl_minutes" yaml:"jwt_ttl_minutes"`
	AdminKey      string `mapstructure:"admin_key" yaml:"admin_key"`

	// DevKey set to "dev" restricts CORS to the local frontend.
	DevKey string `mapstructure:"dev_key" yaml:"dev_key"`

	IsDebug            bool `mapstructure:"is_debug" yaml:"is_debug"`
	LogSamplingTickMs  int  `mapstructure:"log_sampling_tick_ms" yaml:"log_sampling_tick_ms"`
	LogSamplingAfterMs int  `mapstructure:"log_sampling_after_ms" yaml:"log_sampling_after_ms"`

	GroqKey        string  `mapstructure:"groq_key" yaml:"groq_key"`
	LLMBaseURL     string  `mapstructure:"llm_base_url" yaml:"llm_base_url"`
	LLMModel       string  `mapstructure:"llm_model" yaml:"llm_model"`
	LLMTemperature float64 `mapstructure:"llm_temperature" yaml:"llm_temperature"`
	LLMMaxTokens   int     `mapstructure:"llm_max_tokens" yaml:"llm_max_tokens"`
	LLMTimeoutSec  int     `mapstructure:"llm_timeout_sec" yaml:"llm_timeout_sec"`
	RedisURL       string  `mapstructure:"redis_url" yaml:"redis_url"`

	ForecastRefreshMinutes int `mapstructure:"forecast_refresh_minutes" yaml:"forecast_refresh_minutes"`
	ForecastHorizonDays    int `mapstructure:"forecast_horizon_days" yaml:"forecast_horizon_days"`
	LowStockThreshold      int `mapstructure:"low_stock_threshold" yaml:"low_stock_threshold"`

	OtelEnabled        bool    `mapstructure:"otel_enabled" yaml:"otel_enabled"`
	OtelEndpoint       string  `mapstructure:"otel_endpoint" yaml:"otel_endpoint"`
	OtelInsecure       bool    `mapstructure:"otel_insecure" yaml:"otel_insecure"`
	OtelServiceName    string  `mapstructure:"otel_service_name" yaml:"otel_service_name"`
	OtelServiceVersion string  `mapstructure:"otel_service_version" yaml:"otel_service_version"`
	OtelSampleRate     float64 `mapstructure:"otel_sample_rate" yaml:"otel_sample_rate"`
}

const (
	DefaultLLMBaseURL = "https://api.groq.com/openai/v1"
	DefaultLLMModel   = "openai/gpt-oss-120b"

	// DefaultLLMTemperature applies when llm_temperature is not configured.
	// Zero is a valid setting and is kept.
	DefaultLLMTemperature = 0.2
)

// Defaults fills zero values that have no meaningful zero.
func (c *Config) Defaults() {
	if strings.TrimSpace(c.Port) == "" {
		c.Port = ":8080"
	}
	if !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "warung.db"
	}
	if c.JWTTTLMinutes <= 0 {
		c.JWTTTLMinutes = 24 * 60
	}
	if c.LLMBaseURL == "" {
		c.LLMBaseURL = DefaultLLMBaseURL
	}
	if c.LLMModel == "" {
		c.LLMModel = DefaultLLMModel
	}
	if c.LLMTemperature < 0 {
		c.LLMTemperature = DefaultLLMTemperature
	}
	if c.LLMMaxTokens <= 0 {
		c.LLMMaxTokens = 2048
	}
	if c.LLMTimeoutSec <= 0 {
		c.LLMTimeoutSec = 60
	}
	if c.ForecastHorizonDays <= 0 {
		c.ForecastHorizonDays = 7
	}
	if c.LowStockThreshold <= 0 {
		c.LowStockThreshold = 5
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "******"
	}
	c.JWTSecret = mask(c.JWTSecret)
	c.AdminKey = mask(c.AdminKey)
	c.GroqKey = mask(c.GroqKey)
	if c.DatabaseURL != "" {
		c.DatabaseURL = mask(c.DatabaseURL)
	}
	if c.RedisURL != "" {
		c.RedisURL = mask(c.RedisURL)
	}
	return c
}
