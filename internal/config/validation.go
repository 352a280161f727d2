package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key validation (required for all AI operations)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 2097152 {
		return fmt.Errorf("%w: must be between 1 and 2,097,152, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	// Agent loop bounds. The tool round cap keeps a single turn from
	// looping forever; the timeout is the wall clock budget per turn.
	if c.MaxToolRounds < 1 || c.MaxToolRounds > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidMaxToolRounds, c.MaxToolRounds)
	}

	if c.TurnTimeoutSeconds < 1 || c.TurnTimeoutSeconds > 300 {
		return fmt.Errorf("%w: must be between 1 and 300 seconds, got %d", ErrInvalidTurnTimeout, c.TurnTimeoutSeconds)
	}

	// Sports data API validation
	u, err := url.Parse(c.SportsAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q must be an absolute URL", ErrInvalidSportsAPIURL, c.SportsAPIURL)
	}

	// Name cache validation
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("%w: must be in (0, 1], got %.2f", ErrInvalidFuzzyThreshold, c.FuzzyThreshold)
	}

	if c.StartingBalance < 0 {
		return fmt.Errorf("%w: must be non-negative, got %.2f", ErrInvalidStartingBalance, c.StartingBalance)
	}

	// Session storage validation
	switch c.SessionBackend {
	case BackendMemory:
		return nil
	case BackendPostgres:
		return c.validatePostgres()
	default:
		return fmt.Errorf("%w: %q must be %q or %q",
			ErrInvalidSessionBackend, c.SessionBackend, BackendMemory, BackendPostgres)
	}
}

// validatePostgres checks the PostgreSQL fields. Only called when the
// postgres session backend is selected.
func (c *Config) validatePostgres() error {
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}

	// Warn on the default dev password but don't block; user might be in dev.
	if c.PostgresPassword == "chatbet_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password for production deployments")
	}

	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Modern SSL modes only; allow/prefer are deprecated (MITM vulnerable).
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}
