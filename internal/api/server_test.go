package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chatbet/chatbet/internal/agent"
	"github.com/chatbet/chatbet/internal/api"
	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/namecache"
	"github.com/chatbet/chatbet/internal/session"
	"github.com/chatbet/chatbet/internal/sportsdata"
	"github.com/chatbet/chatbet/internal/testutil"
	"github.com/chatbet/chatbet/internal/tools"
)

type serverOpts struct {
	coldCache  bool
	failBuilds int // provider failures to inject before the cache build
	rateBurst  int
}

func newTestServer(t *testing.T, opts serverOpts, steps ...testutil.ScriptStep) *api.Server {
	t.Helper()

	p := testutil.NewFakeSportsProvider()
	p.TournamentList = []sportsdata.Tournament{{ID: "t1", Name: "Premier League"}}
	p.TeamsByTourney["t1"] = []sportsdata.Team{{ID: "ars", Name: "Arsenal"}}

	cache := namecache.NewManager(p, namecache.Config{
		SportID:    1,
		Threshold:  0.8,
		RetryDelay: time.Millisecond,
	}, log.NewNop())
	switch {
	case opts.failBuilds > 0:
		p.FailNext("Tournaments", opts.failBuilds)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cache.Start(ctx)
		// Terminal state is what the test wants; degraded is expected.
		_ = cache.WaitReady(ctx)
	case !opts.coldCache:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cache.Start(ctx)
		if err := cache.WaitReady(ctx); err != nil {
			t.Fatalf("cache never became ready: %v", err)
		}
	}

	registry := tools.NewRegistry(p, cache, tools.Config{SportID: 1}, log.NewNop())
	store := session.NewMemoryStore(1000)
	orc := agent.NewOrchestrator(store, registry, testutil.NewScriptedEngine(steps...), agent.Config{}, log.NewNop())

	srv, err := api.NewServer(api.ServerConfig{
		Logger:       log.NewNop(),
		Orchestrator: orc,
		Cache:        cache,
		CORSOrigins:  []string{"https://app.chatbet.gg"},
		RateBurst:    opts.rateBurst,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

func postChat(t *testing.T, srv *api.Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChatHappyPath(t *testing.T) {
	srv := newTestServer(t, serverOpts{}, testutil.FinalStep("Hello! Ask me about matches."))

	rec := postChat(t, srv, `{"sessionId":"s1","userInput":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionID string  `json:"sessionId"`
		Reply     string  `json:"reply"`
		Balance   float64 `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SessionID != "s1" || resp.Reply != "Hello! Ask me about matches." || resp.Balance != 1000 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got := rec.Header().Get("X-Request-ID"); got == "" {
		t.Error("missing X-Request-ID header")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("missing security headers, got %q", got)
	}
}

func TestChatSessionContinuity(t *testing.T) {
	srv := newTestServer(t, serverOpts{},
		testutil.FinalStep("first"),
		testutil.FinalStep("second"),
	)

	rec := postChat(t, srv, `{"sessionId":"s1","userInput":"hi"}`)
	var first struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	rec = postChat(t, srv, `{"sessionId":"`+first.SessionID+`","userInput":"again"}`)
	var second struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session id changed between turns: %s vs %s", first.SessionID, second.SessionID)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	srv := newTestServer(t, serverOpts{})

	rec := postChat(t, srv, `{"sessionId":"s1","userInput":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error != "empty_message" {
		t.Errorf("error = %q, want empty_message", resp.Error)
	}
}

func TestChatMissingSessionID(t *testing.T) {
	srv := newTestServer(t, serverOpts{}, testutil.FinalStep("never reached"))

	for _, body := range []string{`{"userInput":"hi"}`, `{"sessionId":"  ","userInput":"hi"}`} {
		rec := postChat(t, srv, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("postChat(%s) status = %d, want 400", body, rec.Code)
		}
		var resp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Error != "missing_session" {
			t.Errorf("error = %q, want missing_session", resp.Error)
		}
	}
}

func TestChatInvalidBody(t *testing.T) {
	srv := newTestServer(t, serverOpts{})

	rec := postChat(t, srv, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChatBodyTooLarge(t *testing.T) {
	srv := newTestServer(t, serverOpts{})

	rec := postChat(t, srv, `{"sessionId":"s1","userInput":"`+strings.Repeat("a", 70<<10)+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, serverOpts{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestChatWorksWhileCacheUnready(t *testing.T) {
	// Chat never blocks on the cache; gated tools fail inside the turn
	// and the model explains. Here the scripted model just answers.
	srv := newTestServer(t, serverOpts{coldCache: true}, testutil.FinalStep("Still warming up, one moment."))

	rec := postChat(t, srv, `{"sessionId":"s1","userInput":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("chat should not 503 on a cold cache, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, serverOpts{coldCache: true})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	cold := newTestServer(t, serverOpts{coldCache: true})
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	cold.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("cold readiness status = %d, want 503", rec.Code)
	}
	var coldResp struct {
		CacheReady bool `json:"cacheReady"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &coldResp); err != nil {
		t.Fatalf("decoding cold readiness: %v", err)
	}
	if coldResp.CacheReady {
		t.Error("cold readiness must report cacheReady=false")
	}

	warm := newTestServer(t, serverOpts{})
	rec = httptest.NewRecorder()
	warm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("warm readiness status = %d, want 200", rec.Code)
	}
	var warmResp struct {
		CacheReady  bool      `json:"cacheReady"`
		StartedAt   time.Time `json:"startedAt"`
		CompletedAt time.Time `json:"completedAt"`
		LastError   string    `json:"lastError"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &warmResp); err != nil {
		t.Fatalf("decoding warm readiness: %v", err)
	}
	if !warmResp.CacheReady || warmResp.StartedAt.IsZero() || warmResp.CompletedAt.IsZero() {
		t.Errorf("warm readiness missing lifecycle fields: %+v", warmResp)
	}
	if warmResp.LastError != "" {
		t.Errorf("clean build should carry no lastError, got %q", warmResp.LastError)
	}
}

func TestReadinessDegraded(t *testing.T) {
	srv := newTestServer(t, serverOpts{failBuilds: 2})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded readiness status = %d, want 503", rec.Code)
	}
	var resp struct {
		CacheReady bool   `json:"cacheReady"`
		Degraded   bool   `json:"degraded"`
		LastError  string `json:"lastError"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding readiness: %v", err)
	}
	if resp.CacheReady || !resp.Degraded || resp.LastError == "" {
		t.Errorf("degraded readiness must expose the failure: %+v", resp)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, serverOpts{rateBurst: 2},
		testutil.FinalStep("one"),
		testutil.FinalStep("two"),
	)

	for i := 0; i < 2; i++ {
		if rec := postChat(t, srv, `{"sessionId":"s1","userInput":"hi"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
	rec := postChat(t, srv, `{"sessionId":"s1","userInput":"hi"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, serverOpts{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "https://app.chatbet.gg")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.chatbet.gg" {
		t.Errorf("allow-origin = %q", got)
	}

	// Unknown origins get no CORS headers.
	req = httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin %q for unknown origin", got)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, serverOpts{}, testutil.FinalStep("ok"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"sessionId":"s1","userInput":"hi"}`))
	req.Header.Set("X-Request-ID", "test-id-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-id-42" {
		t.Errorf("X-Request-ID = %q, want the inbound value kept", got)
	}
}
