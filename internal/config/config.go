// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: model selection, temperature, max tokens
//   - Agent: tool loop bound and per-turn deadline
//   - Sports: upstream sports data API connection (see sports fields below)
//   - Storage: session store backend, PostgreSQL connection
//   - Observability: Datadog APM tracing (see observability.go)
//
// Security: sensitive data (passwords, API keys) are never logged; see MarshalJSON.
// Validation: range checks in validation.go with sentinel errors for errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidMaxToolRounds indicates the agent tool loop bound is out of range.
	ErrInvalidMaxToolRounds = errors.New("invalid max tool rounds")

	// ErrInvalidTurnTimeout indicates the per-turn deadline is out of range.
	ErrInvalidTurnTimeout = errors.New("invalid turn timeout")

	// ErrInvalidSportsAPIURL indicates the sports data API base URL is invalid.
	ErrInvalidSportsAPIURL = errors.New("invalid sports API URL")

	// ErrInvalidFuzzyThreshold indicates the name resolution threshold is out of range.
	ErrInvalidFuzzyThreshold = errors.New("invalid fuzzy threshold")

	// ErrInvalidStartingBalance indicates the seeded balance is negative.
	ErrInvalidStartingBalance = errors.New("invalid starting balance")

	// ErrInvalidSessionBackend indicates the session store backend is not supported.
	ErrInvalidSessionBackend = errors.New("invalid session backend")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Session store backend identifiers used in Config.SessionBackend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// AI model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"` // e.g. "gemini-2.5-flash"
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Agent loop configuration
	MaxToolRounds      int `mapstructure:"max_tool_rounds" json:"max_tool_rounds"`
	TurnTimeoutSeconds int `mapstructure:"turn_timeout_seconds" json:"turn_timeout_seconds"`

	// Sports data API configuration
	SportsAPIURL      string `mapstructure:"sports_api_url" json:"sports_api_url"`
	SportsAPIKey      string `mapstructure:"sports_api_key" json:"sports_api_key"` // SENSITIVE: masked in MarshalJSON
	SportsAPITimeout  int    `mapstructure:"sports_api_timeout_seconds" json:"sports_api_timeout_seconds"`
	SportsAPIRateRPS  int    `mapstructure:"sports_api_rate_rps" json:"sports_api_rate_rps"`
	DefaultSportID    int    `mapstructure:"default_sport_id" json:"default_sport_id"`

	// Name cache configuration
	FuzzyThreshold    float64 `mapstructure:"fuzzy_threshold" json:"fuzzy_threshold"`
	CacheRetrySeconds int     `mapstructure:"cache_retry_seconds" json:"cache_retry_seconds"`

	// Betting configuration
	StartingBalance float64 `mapstructure:"starting_balance" json:"starting_balance"`

	// Session storage configuration
	SessionBackend   string `mapstructure:"session_backend" json:"session_backend"` // "memory" (default) or "postgres"
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For headers (set true behind reverse proxy)

	// Observability configuration (see observability.go for type definition)
	Datadog DatadogConfig `mapstructure:"datadog" json:"datadog"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 2048)

	// Agent defaults
	viper.SetDefault("max_tool_rounds", 5)
	viper.SetDefault("turn_timeout_seconds", 30)

	// Sports data API defaults
	viper.SetDefault("sports_api_url", "https://api.chatbet.gg")
	viper.SetDefault("sports_api_timeout_seconds", 10)
	viper.SetDefault("sports_api_rate_rps", 10)
	viper.SetDefault("default_sport_id", 1)

	// Name cache defaults
	viper.SetDefault("fuzzy_threshold", 0.8)
	viper.SetDefault("cache_retry_seconds", 5)

	// Betting defaults
	viper.SetDefault("starting_balance", 1000.0)

	// Session storage defaults
	viper.SetDefault("session_backend", BackendMemory)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "chatbet")
	viper.SetDefault("postgres_password", "chatbet_dev_password")
	viper.SetDefault("postgres_db_name", "chatbet")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// HTTP server defaults
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("cors_origins", []string{"http://localhost:4200"})
	viper.SetDefault("trust_proxy", false)

	// Datadog defaults
	viper.SetDefault("datadog.agent_host", "localhost:4318")
	viper.SetDefault("datadog.environment", "dev")
	viper.SetDefault("datadog.service_name", "chatbet")
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY is read directly by Genkit (not via Viper); its presence
// is checked in Validate().
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("sports_api_url", "CHATBET_SPORTS_API_URL")
	mustBind("sports_api_key", "CHATBET_SPORTS_API_KEY")
	mustBind("model_name", "CHATBET_MODEL_NAME")
	mustBind("listen_addr", "CHATBET_LISTEN_ADDR")
	mustBind("session_backend", "CHATBET_SESSION_BACKEND")
	mustBind("cors_origins", "CHATBET_CORS_ORIGINS")
	mustBind("trust_proxy", "CHATBET_TRUST_PROXY")
	mustBind("postgres_host", "CHATBET_POSTGRES_HOST")
	mustBind("postgres_password", "CHATBET_POSTGRES_PASSWORD")
	mustBind("datadog.api_key", "DD_API_KEY")
}

// TurnTimeout returns the per-turn wall clock budget as a duration.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutSeconds) * time.Second
}

// CacheRetryDelay returns the delay before the single cache rebuild retry.
func (c *Config) CacheRetryDelay() time.Duration {
	return time.Duration(c.CacheRetrySeconds) * time.Second
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash". If ModelName already contains
// a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return "googleai/" + c.ModelName
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid substring matching against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars
// or fewer are fully masked; longer ones keep the first and last two
// characters for debug utility.
//
// THREAT MODEL: this defends against accidental logging of real secrets.
// It is NOT cryptographically secure; if logs are compromised, rotate secrets.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - SportsAPIKey
//   - PostgresPassword
//   - Datadog.APIKey (via DatadogConfig.MarshalJSON)
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.SportsAPIKey = maskSecret(a.SportsAPIKey)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
