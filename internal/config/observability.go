package config

import (
	"encoding/json"
	"fmt"
)

// DatadogConfig holds Datadog APM tracing configuration.
//
// Tracing uses the local Datadog Agent for OTLP ingestion.
// See internal/observability/datadog.go for setup instructions.
type DatadogConfig struct {
	// APIKey is the Datadog API key (optional, for observability)
	APIKey string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	// AgentHost is the Datadog Agent OTLP endpoint (default: localhost:4318)
	AgentHost string `mapstructure:"agent_host" json:"agent_host"`
	// Environment is the deployment environment tag (default: dev)
	Environment string `mapstructure:"environment" json:"environment"`
	// ServiceName is the service name in Datadog APM (default: chatbet)
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// MarshalJSON masks the API key.
func (d DatadogConfig) MarshalJSON() ([]byte, error) {
	type alias DatadogConfig
	a := alias(d)
	a.APIKey = maskSecret(a.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal datadog config: %w", err)
	}
	return data, nil
}
