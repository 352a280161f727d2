package api

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/namecache"
)

// healthHandler serves liveness and readiness probes.
type healthHandler struct {
	cache  *namecache.Manager
	pool   *pgxpool.Pool // nil when running on the in-memory store
	logger log.Logger
}

// liveness reports the process is up.
func (h *healthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// readinessResponse reports the cache build lifecycle for pollers, so
// startup tooling can tell "still building" from "degraded with a
// recorded error" without reading logs.
type readinessResponse struct {
	CacheReady  bool      `json:"cacheReady"`
	Degraded    bool      `json:"degraded,omitempty"`
	StartedAt   time.Time `json:"startedAt,omitzero"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
	DB          string    `json:"db,omitempty"`
}

// readiness reports whether the service can serve chat turns: the
// name cache has its first snapshot and the database answers pings.
// Chat itself never waits on the cache; unready shows up here and as
// cache_unready tool results.
func (h *healthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	st := h.cache.Status()
	body := readinessResponse{
		CacheReady:  st.Ready,
		Degraded:    st.Degraded,
		StartedAt:   st.StartedAt,
		CompletedAt: st.CompletedAt,
		LastError:   st.LastError,
	}

	if !st.Ready {
		writeJSON(w, http.StatusServiceUnavailable, body, h.logger)
		return
	}

	if h.pool != nil {
		if err := h.pool.Ping(r.Context()); err != nil {
			h.logger.Error("readiness check failed", "error", err)
			body.DB = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, body, h.logger)
			return
		}
	}

	writeJSON(w, http.StatusOK, body, h.logger)
}
