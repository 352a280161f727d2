// Package observability wires OpenTelemetry tracing into Genkit.
//
// Spans go to a local Datadog Agent over OTLP HTTP. The agent owns
// authentication and forwarding, so no API key ever reaches this
// process's outbound requests, and local buffering covers backend
// blips. Enable the OTLP receiver in the agent config:
//
//	otlp_config:
//	  receiver:
//	    protocols:
//	      http:
//	        endpoint: "localhost:4318"
//	  traces:
//	    enabled: true
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/chatbet/chatbet/internal/log"
)

// Config for the Datadog OTEL setup.
type Config struct {
	// AgentHost is the Datadog Agent OTLP endpoint (default: localhost:4318).
	AgentHost string
	// Environment is the deployment environment tag (dev, staging, prod).
	Environment string
	// ServiceName appears in Datadog APM.
	ServiceName string
}

// DefaultAgentHost is the agent's default OTLP HTTP endpoint.
const DefaultAgentHost = "localhost:4318"

// SetupDatadog registers an OTLP span processor on Genkit's
// TracerProvider, so every model call and tool dispatch Genkit traces
// lands in Datadog APM. An unreachable exporter disables tracing
// instead of failing startup.
//
// The returned shutdown func flushes pending spans.
func SetupDatadog(ctx context.Context, cfg Config, logger log.Logger) (shutdown func(context.Context) error, err error) {
	agentHost := cfg.AgentHost
	if agentHost == "" {
		agentHost = DefaultAgentHost
	}

	// Genkit's TracerProvider reads resource attributes from the
	// standard OTEL environment variables.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(), // local agent, no TLS
	)
	if err != nil {
		logger.Warn("creating datadog exporter failed, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("datadog tracing enabled",
		"agent", agentHost,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown, nil
}
