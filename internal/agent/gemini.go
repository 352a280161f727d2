package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/tools"
)

// GeminiConfig configures the Gemini-backed engine.
type GeminiConfig struct {
	// ModelName is the fully qualified model, e.g. "googleai/gemini-2.5-flash".
	ModelName   string
	Temperature float64
	MaxTokens   int

	// Resilience settings; zero values use defaults.
	Retry       RetryConfig
	Breaker     CircuitBreakerConfig
	RateLimiter *rate.Limiter
}

// GeminiEngine reasons with a Gemini model through Genkit. Tool
// execution stays with the orchestrator: generation runs with
// returned tool requests, so the model's calls come back as data
// instead of being run inside Genkit.
type GeminiEngine struct {
	model    string
	genCfg   *ai.GenerationCommonConfig
	toolRefs []ai.ToolRef

	retry   RetryConfig
	breaker *CircuitBreaker
	limiter *rate.Limiter
	logger  log.Logger

	// generate is swappable for tests.
	generate func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)
}

// NewGeminiEngine builds the production engine. The tool refs must
// already be defined on g.
func NewGeminiEngine(g *genkit.Genkit, refs []ai.ToolRef, cfg GeminiConfig, logger log.Logger) *GeminiEngine {
	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	e := &GeminiEngine{
		model: cfg.ModelName,
		genCfg: &ai.GenerationCommonConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxTokens,
		},
		toolRefs: refs,
		retry:    retry,
		breaker:  NewCircuitBreaker(cfg.Breaker),
		limiter:  limiter,
		logger:   logger,
	}
	e.generate = func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
		return genkit.Generate(ctx, g, opts...)
	}
	return e
}

// Reason runs one model call over the conversation and maps the
// response to a Decision.
func (e *GeminiEngine) Reason(ctx context.Context, req Request) (*Decision, error) {
	if err := e.breaker.Allow(); err != nil {
		e.logger.Warn("model call rejected", "state", e.breaker.State().String())
		return nil, fmt.Errorf("model unavailable: %w", err)
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(e.model),
		ai.WithSystem(systemText(req)),
		ai.WithMessages(req.Messages...),
		ai.WithTools(e.toolRefs...),
		ai.WithReturnToolRequests(true),
		ai.WithConfig(e.genCfg),
	}

	resp, err := e.generateWithRetry(ctx, opts)
	if err != nil {
		e.breaker.Failure()
		return nil, err
	}
	e.breaker.Success()

	return decisionFrom(resp)
}

// decisionFrom translates a model response into the orchestrator's
// vocabulary.
func decisionFrom(resp *ai.ModelResponse) (*Decision, error) {
	d := &Decision{Message: resp.Message}

	for _, tr := range resp.ToolRequests() {
		args, err := requestArgs(tr.Input)
		if err != nil {
			return nil, fmt.Errorf("tool request %s: %w", tr.Name, err)
		}
		d.Calls = append(d.Calls, tools.Invocation{
			Name: tr.Name,
			Args: args,
			Ref:  tr.Ref,
		})
	}

	if len(d.Calls) == 0 {
		d.Text = strings.TrimSpace(resp.Text())
	}
	return d, nil
}

// requestArgs normalizes a tool request input to a JSON object. Every
// registered tool takes an object, so anything else is a model bug.
func requestArgs(input any) (map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("arguments are %T, want an object", input)
	}
}
