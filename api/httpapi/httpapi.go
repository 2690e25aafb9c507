package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	wsadapter "acrossfc/adapters/websocket"
	"acrossfc/analytics"
	"acrossfc/core"
	"acrossfc/engine"
	"acrossfc/realtime"
	"acrossfc/report"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to API routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// Now dates the clear rate report. Defaults to time.Now.
	Now func() time.Time
}

// Deps are the services behind the routes. Only Service is required.
type Deps struct {
	Service *engine.PointsService
	Clears  engine.ClearStore
	Catalog *core.TierCatalog
	Hub     *realtime.Hub
	Metrics http.Handler
	Stats   *analytics.CategoryTotals
}

type api struct {
	deps Deps
	now  func() time.Time
}

// NewMux builds an http.Handler exposing the FC points REST API and WebSocket stream.
// Routes:
//   - GET  /healthz
//   - GET  /metrics
//   - POST {prefix}/submissions?dry_run=true
//   - GET  {prefix}/members/{id}/points
//   - GET  {prefix}/leaderboard?n=10
//   - GET  {prefix}/reports/clear-rates
//   - GET  {prefix}/reports/cleared-jobs?encounter=P9S
//   - GET  {prefix}/stats/categories
//   - WS   {prefix}/ws
func NewMux(deps Deps, opts Options) http.Handler {
	a := &api{deps: deps, now: opts.Now}
	if a.now == nil {
		a.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if opts.AllowCORSOrigin != "" {
		r.Use(corsMiddleware(opts.AllowCORSOrigin))
	}

	r.Get("/healthz", a.healthCheck)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		if len(opts.APIKeys) > 0 {
			r.Use(apiKeyMiddleware(opts.APIKeys))
		}
		if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
			r.Use(rateLimitMiddleware(opts.RateLimitRPM, opts.RateLimitBurst))
		}
		if prefix := routePrefix(opts.PathPrefix); prefix != "" {
			r.Route(prefix, a.routes)
		} else {
			a.routes(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})
	return r
}

func (a *api) routes(r chi.Router) {
	r.Post("/submissions", a.submit)
	r.Get("/members/{id}/points", a.memberPoints)
	r.Get("/leaderboard", a.leaderboard)
	r.Get("/reports/clear-rates", a.clearRates)
	r.Get("/reports/cleared-jobs", a.clearedJobs)
	r.Get("/stats/categories", a.categoryStats)
	if a.deps.Hub != nil {
		r.Handle("/ws", wsadapter.Handler(a.deps.Hub))
	}
}

// healthCheck verifies the storage backend answers
func (a *api) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "healthy",
		"tier":   a.deps.Service.Tier(),
		"checks": map[string]any{"storage": "ok"},
	}
	code := http.StatusOK
	if err := a.deps.Service.CheckStorage(r.Context()); err != nil {
		code = http.StatusServiceUnavailable
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	}
	writeJSONStatus(w, code, status)
}

func (a *api) submit(w http.ResponseWriter, r *http.Request) {
	var sub engine.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON submission", nil)
		return
	}
	if sub.FFLogsURL == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "fflogs_url is required", nil)
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	if dryRun {
		ev, err := a.deps.Service.Evaluate(r.Context(), sub)
		if err != nil {
			writeSubmitError(w, err)
			return
		}
		writeJSON(w, map[string]any{"dry_run": true, "evaluation": ev})
		return
	}
	res, err := a.deps.Service.Submit(r.Context(), sub)
	if err != nil {
		writeSubmitError(w, err)
		return
	}
	writeJSON(w, res)
}

func writeSubmitError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrInvalidFFLogsURL) {
		writeError(w, http.StatusBadRequest, "invalid_fflogs_url", err.Error(), nil)
		return
	}
	writeError(w, http.StatusBadGateway, "evaluation_failed", err.Error(), nil)
}

func (a *api) memberPoints(w http.ResponseWriter, r *http.Request) {
	member, err := core.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_member", err.Error(), nil)
		return
	}
	pts, err := a.deps.Service.MemberPoints(r.Context(), member)
	if errors.Is(err, core.ErrMemberNotFound) {
		writeJSON(w, core.NewMemberPoints(member, a.deps.Service.Tier()))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	writeJSON(w, pts)
}

func (a *api) leaderboard(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_n", "n must be a positive integer", nil)
			return
		}
		n = v
	}
	writeJSON(w, map[string]any{"tier": a.deps.Service.Tier(), "entries": a.deps.Service.Leaderboard(n)})
}

func (a *api) loadClears(w http.ResponseWriter, r *http.Request) ([]core.Member, []core.Clear, bool) {
	if a.deps.Clears == nil || a.deps.Catalog == nil {
		writeError(w, http.StatusNotImplemented, "reports_disabled", "clear reports are not configured", nil)
		return nil, nil, false
	}
	roster, err := a.deps.Clears.Roster(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return nil, nil, false
	}
	clears, err := a.deps.Clears.Clears(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return nil, nil, false
	}
	return roster, clears, true
}

func (a *api) clearRates(w http.ResponseWriter, r *http.Request) {
	roster, clears, ok := a.loadClears(w, r)
	if !ok {
		return
	}
	names := a.deps.Catalog.ActiveTrackedEncounterNames()
	rep := report.ClearRates(roster, clears, names, a.now())
	writeJSON(w, map[string]any{
		"report":   rep,
		"markdown": rep.Markdown(),
		"rates":    report.ComputeClearRates(roster, clears, names),
	})
}

func (a *api) clearedJobs(w http.ResponseWriter, r *http.Request) {
	roster, clears, ok := a.loadClears(w, r)
	if !ok {
		return
	}
	names := a.deps.Catalog.ActiveTrackedEncounterNames()
	if enc := r.URL.Query().Get("encounter"); enc != "" {
		if !containsName(names, enc) {
			writeError(w, http.StatusBadRequest, "invalid_encounter", "encounter is not tracked this tier", map[string]any{"tracked": names})
			return
		}
		names = []string{enc}
	}
	rep := report.ClearedJobsByMember(roster, clears, names)
	writeJSON(w, map[string]any{
		"report":   rep,
		"markdown": rep.Markdown(),
		"jobs":     report.ComputeClearedJobs(roster, clears, names),
	})
}

func (a *api) categoryStats(w http.ResponseWriter, _ *http.Request) {
	if a.deps.Stats == nil {
		writeError(w, http.StatusNotImplemented, "stats_disabled", "category stats are not configured", nil)
		return
	}
	writeJSON(w, map[string]any{"tier": a.deps.Service.Tier(), "categories": a.deps.Stats.Snapshot()})
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func routePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if prefix[0] != '/' {
		prefix = "/" + prefix
	}
	for len(prefix) > 1 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSONStatus(w, status, apiError{Code: code, Message: msg, Details: details})
}
