package analytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acrossfc/core"
)

func event(member core.MemberID, cat core.PointsCategory, at time.Time) core.PointsEvent {
	return core.NewPointsEvent("id", member, cat, "d", at.Unix())
}

func TestMetricsOnEvent(t *testing.T) {
	m := NewMetrics("")
	now := time.Now()
	m.OnEvent(context.Background(), event(1, core.CategorySavage4_2, now))
	m.OnEvent(context.Background(), event(2, core.CategorySavage4_2, now))
	m.OnEvent(context.Background(), event(1, core.CategoryVet, now))

	assert.Equal(t, 80.0, testutil.ToFloat64(m.points.WithLabelValues("SAVAGE_4_2")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("SAVAGE_4_2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("VET")))
}

func TestMetricsEvaluationsAndSyncs(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveEvaluation("awarded")
	m.ObserveEvaluation("awarded")
	m.ObserveEvaluation("no_points")
	m.SyncObserved(5, nil)
	m.SyncObserved(3, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations.WithLabelValues("awarded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncs.WithLabelValues("error")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.syncClears))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics("")
	m.ObserveEvaluation("error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `acrossfc_evaluations_total{outcome="error"} 1`))
}

func TestCategoryTotalsSnapshot(t *testing.T) {
	totals := NewCategoryTotals()
	assert.Empty(t, totals.Snapshot())

	day := time.Date(2023, 9, 1, 22, 0, 0, 0, time.UTC)
	totals.OnEvent(context.Background(), event(1, core.CategoryFCSavage, day))
	totals.OnEvent(context.Background(), event(1, core.CategoryVet, day))
	totals.OnEvent(context.Background(), event(2, core.CategorySavage1, day))
	totals.OnEvent(context.Background(), event(3, core.CategoryFCSavage, day.Add(24*time.Hour)))

	assert.Equal(t, []CategoryTotal{
		{Category: core.CategoryFCSavage, Points: 20, Events: 2},
		{Category: core.CategorySavage1, Points: 20, Events: 1},
		{Category: core.CategoryVet, Points: 10, Events: 1},
	}, totals.Snapshot())
}
