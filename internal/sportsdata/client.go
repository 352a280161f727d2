package sportsdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/chatbet/chatbet/internal/log"
)

// FixtureQuery filters fixture listings. Zero fields are omitted from
// the request. From and To bound the fixture start time inclusively.
type FixtureQuery struct {
	SportID      int
	TournamentID string
	TeamID       string
	From         time.Time
	To           time.Time
}

// Provider is the read-only contract for upstream sports data.
// Implementations must be safe for concurrent use.
type Provider interface {
	Tournaments(ctx context.Context, sportID int) ([]Tournament, error)
	Teams(ctx context.Context, tournamentID string) ([]Team, error)
	Fixtures(ctx context.Context, q FixtureQuery) ([]Fixture, error)
	FixtureOdds(ctx context.Context, fixtureID string) (*Odds, error)
}

// RetryConfig configures retry behavior for upstream calls.
type RetryConfig struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultRetryConfig returns sensible defaults for the sports API.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithRetryConfig overrides the retry behavior.
func WithRetryConfig(rc RetryConfig) ClientOption {
	return func(c *Client) { c.retry = rc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

// Client is the HTTP implementation of Provider.
//
// Authentication is token based: the client exchanges its API key for a
// short-lived token and sends it in the "token" header, refreshing once
// on 401 before giving up.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	retry   RetryConfig
	logger  log.Logger

	mu    sync.Mutex
	token string
}

// NewClient creates a sports data API client.
func NewClient(baseURL, apiKey string, logger log.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		retry:   DefaultRetryConfig(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tournaments lists the tournaments available for a sport.
func (c *Client) Tournaments(ctx context.Context, sportID int) ([]Tournament, error) {
	q := url.Values{}
	q.Set("sportId", fmt.Sprint(sportID))

	var out []Tournament
	if err := c.get(ctx, "/sports/tournaments", q, &out); err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	return out, nil
}

// Teams lists the teams registered in a tournament.
func (c *Client) Teams(ctx context.Context, tournamentID string) ([]Team, error) {
	q := url.Values{}
	q.Set("tournamentId", tournamentID)

	var out []Team
	if err := c.get(ctx, "/sports/teams", q, &out); err != nil {
		return nil, fmt.Errorf("listing teams for tournament %s: %w", tournamentID, err)
	}
	return out, nil
}

// Fixtures lists fixtures matching the query.
func (c *Client) Fixtures(ctx context.Context, fq FixtureQuery) ([]Fixture, error) {
	q := url.Values{}
	if fq.SportID != 0 {
		q.Set("sportId", fmt.Sprint(fq.SportID))
	}
	if fq.TournamentID != "" {
		q.Set("tournamentId", fq.TournamentID)
	}
	if fq.TeamID != "" {
		q.Set("teamId", fq.TeamID)
	}
	if !fq.From.IsZero() {
		q.Set("from", fq.From.UTC().Format(time.RFC3339))
	}
	if !fq.To.IsZero() {
		q.Set("to", fq.To.UTC().Format(time.RFC3339))
	}

	var out []Fixture
	if err := c.get(ctx, "/sports/fixtures", q, &out); err != nil {
		return nil, fmt.Errorf("listing fixtures: %w", err)
	}
	return out, nil
}

// FixtureOdds fetches the match-winner odds for a fixture.
func (c *Client) FixtureOdds(ctx context.Context, fixtureID string) (*Odds, error) {
	q := url.Values{}
	q.Set("fixtureId", fixtureID)

	var out Odds
	if err := c.get(ctx, "/sports/odds", q, &out); err != nil {
		return nil, fmt.Errorf("fetching odds for fixture %s: %w", fixtureID, err)
	}
	return &out, nil
}

// get performs an authenticated GET with rate limiting and bounded retry.
// 4xx responses other than 401 fail immediately with ErrBadRequest; 429,
// 5xx and network errors retry with exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		// Rate limit each attempt, not just the first.
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		err := c.doGet(ctx, path, query, out)
		if err == nil {
			c.logger.Debug("sports API request succeeded",
				"path", path,
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return nil
		}

		lastErr = err

		if !retryable(err) {
			return err
		}

		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Debug("retrying sports API request",
			"path", path,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.retry.MaxInterval)
		}
	}

	return fmt.Errorf("%w: after %d attempts (elapsed: %v): %v",
		ErrUnavailable, c.retry.MaxRetries+1, time.Since(start), lastErr)
}

// retryable reports whether the request should be attempted again.
// ErrBadRequest and ErrUnauthorized mean the request itself is wrong.
func retryable(err error) bool {
	return !errors.Is(err, ErrBadRequest) && !errors.Is(err, ErrUnauthorized)
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.authToken(ctx, false)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, path, query, token)
	if err != nil {
		return err
	}

	// Token may have expired between requests; refresh once and repeat.
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		token, err = c.authToken(ctx, true)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, path, query, token)
		if err != nil {
			return err
		}
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", path, err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: token rejected after refresh", ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("upstream rate limited %s: status %d", path, resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s returned status %d", ErrBadRequest, path, resp.StatusCode)
	default:
		return fmt.Errorf("upstream error on %s: status %d", path, resp.StatusCode)
	}
}

func (c *Client) send(ctx context.Context, path string, query url.Values, token string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("token", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	return resp, nil
}

// authToken returns the cached token, exchanging the API key for a new
// one when the cache is empty or force is set.
func (c *Client) authToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !force {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{"apiKey": c.apiKey})
	if err != nil {
		return "", fmt.Errorf("encoding auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/generate_token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting auth token: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", fmt.Errorf("%w: token endpoint returned status %d", ErrUnauthorized, resp.StatusCode)
		}
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding auth response: %w", err)
	}
	if tok.Token == "" {
		return "", fmt.Errorf("%w: empty token in auth response", ErrUnauthorized)
	}

	c.token = tok.Token
	return c.token, nil
}

// drain discards any remaining body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
