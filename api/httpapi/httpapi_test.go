package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "acrossfc/adapters/memory"
	"acrossfc/analytics"
	"acrossfc/core"
	"acrossfc/engine"
)

type stubProvider struct {
	fight    core.FightData
	fightErr error
	roster   []core.Member
}

func (p *stubProvider) GetFightData(context.Context, string) (core.FightData, error) {
	return p.fight, p.fightErr
}

func (p *stubProvider) GetFCRoster(context.Context) ([]core.Member, error) { return p.roster, nil }

func (p *stubProvider) GetClearsForMember(context.Context, core.Member, []core.Encounter) ([]core.Clear, error) {
	return nil, nil
}

type fixture struct {
	store    *mem.Store
	provider *stubProvider
	stats    *analytics.CategoryTotals
	handler  http.Handler
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	catalog, err := core.CatalogFor("6_4")
	require.NoError(t, err)

	roster := make([]core.Member, 4)
	players := make([]string, 0, 8)
	for i := range roster {
		roster[i] = core.Member{ID: core.MemberID(i + 1), Name: fmt.Sprintf("Member %d", i+1)}
		players = append(players, roster[i].Name)
	}
	players = append(players, "Pug A", "Pug B", "Pug C", "Pug D")

	provider := &stubProvider{
		roster: roster,
		fight: core.FightData{
			ReportID:    "abc",
			FightID:     3,
			Encounter:   core.P9S,
			Tracked:     true,
			StartTime:   time.Date(2023, 9, 1, 20, 0, 0, 0, time.UTC),
			PlayerNames: players,
		},
	}
	store := mem.New()
	evaluator := engine.NewPointsEvaluator(provider, store, catalog)
	bus := engine.NewEventBus(engine.DispatchSync)
	stats := analytics.NewCategoryTotals()
	bus.Subscribe(engine.AllCategories, stats.OnEvent)
	svc := engine.NewPointsService(evaluator, store, bus)
	t.Cleanup(svc.Close)

	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2023, 9, 4, 0, 0, 0, 0, time.UTC) }
	}
	h := NewMux(Deps{Service: svc, Clears: store, Catalog: catalog, Stats: stats}, opts)
	return &fixture{store: store, provider: provider, stats: stats, handler: h}
}

func (f *fixture) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const submission = `{"fflogs_url":"https://www.fflogs.com/reports/abc#fight=3"}`

func TestSubmitAwardsPoints(t *testing.T) {
	f := newFixture(t, Options{PathPrefix: "/api"})

	rec := f.do(t, http.MethodPost, "/api/submissions", submission)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	assert.Len(t, resp["awarded"], 8)

	rec = f.do(t, http.MethodGet, "/api/members/1/points", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(30), decode(t, rec)["total"])

	rec = f.do(t, http.MethodGet, "/api/leaderboard?n=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode(t, rec)["entries"].([]any)
	assert.Len(t, entries, 2)
}

func TestCategoryStats(t *testing.T) {
	f := newFixture(t, Options{PathPrefix: "/api"})

	rec := f.do(t, http.MethodGet, "/api/stats/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["categories"])

	rec = f.do(t, http.MethodPost, "/api/submissions", submission)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/stats/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "6_4", resp["tier"])
	var events, points float64
	for _, c := range resp["categories"].([]any) {
		row := c.(map[string]any)
		events += row["events"].(float64)
		points += row["points"].(float64)
	}
	assert.Equal(t, float64(8), events)
	assert.Equal(t, float64(120), points)
	assert.Len(t, f.stats.Snapshot(), len(resp["categories"].([]any)))
}

func TestCategoryStatsDisabled(t *testing.T) {
	f := newFixture(t, Options{})
	f.handler = NewMux(Deps{Service: nil}, Options{})

	rec := f.do(t, http.MethodGet, "/stats/categories", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "stats_disabled", decode(t, rec)["code"])
}

func TestSubmitDryRunDoesNotPersist(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/submissions?dry_run=true", submission)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	assert.Equal(t, true, resp["dry_run"])
	assert.Len(t, resp["evaluation"].(map[string]any)["events"], 8)
	assert.Empty(t, f.store.Events())
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/submissions", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/submissions", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.provider.fightErr = fmt.Errorf("%w: no fight", core.ErrInvalidFFLogsURL)
	rec = f.do(t, http.MethodPost, "/submissions", submission)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_fflogs_url", decode(t, rec)["code"])

	f.provider.fightErr = errors.New("fflogs down")
	rec = f.do(t, http.MethodPost, "/submissions", submission)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMemberPointsUnknownAndInvalid(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodGet, "/members/42/points", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["total"])

	rec = f.do(t, http.MethodGet, "/members/abc/points", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/leaderboard?n=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	roster, _ := f.provider.GetFCRoster(ctx)
	require.NoError(t, f.store.SaveRoster(ctx, roster))
	sam, ok := core.JobByTLA("SAM")
	require.True(t, ok)
	_, err := f.store.SaveClears(ctx, []core.Clear{{
		MemberID: 1, Encounter: core.P9S, Job: sam, ReportCode: "r", ReportFightID: 1, StartTime: time.Unix(1, 0),
	}})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/reports/clear-rates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Contains(t, resp["markdown"], "Across Clear Rates: 2023-09-04")
	assert.Contains(t, resp["markdown"], "1 / 4")

	rec = f.do(t, http.MethodGet, "/reports/cleared-jobs?encounter=P9S", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode(t, rec)
	assert.Contains(t, resp["markdown"], "[P9S]")
	assert.NotContains(t, resp["markdown"], "[P10S]")

	rec = f.do(t, http.MethodGet, "/reports/cleared-jobs?encounter=NOPE", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, Options{PathPrefix: "/api"})
	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestAPIKeyAuth(t *testing.T) {
	f := newFixture(t, Options{PathPrefix: "/api", APIKeys: []string{"secret"}, AllowCORSOrigin: "*"})

	rec := f.do(t, http.MethodGet, "/api/leaderboard", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(t, http.MethodGet, "/api/leaderboard", "", "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/leaderboard", "", "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// health stays open without a key
	rec = f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, Options{AllowCORSOrigin: "https://example.com"})
	rec := f.do(t, http.MethodOptions, "/leaderboard", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, Options{RateLimitEnabled: true, RateLimitRPM: 1, RateLimitBurst: 2})

	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodGet, "/leaderboard", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/leaderboard", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRoutePrefix(t *testing.T) {
	assert.Equal(t, "", routePrefix(""))
	assert.Equal(t, "", routePrefix("/"))
	assert.Equal(t, "/api", routePrefix("api/"))
	assert.Equal(t, "/api/v1", routePrefix("/api/v1"))
}
