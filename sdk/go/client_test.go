package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"acrossfc/core"
)

func TestClient_SubmitDryRunPointsLeaderboardHealth(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api", WithAPIKey("k1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	res, err := client.Submit(ctx, Submission{FFLogsURL: "https://www.fflogs.com/reports/abc#fight=1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Awarded) != 1 || res.Totals[7] != 10 {
		t.Fatalf("unexpected submit result: %+v", res)
	}

	ev, err := client.DryRun(ctx, Submission{FFLogsURL: "https://www.fflogs.com/reports/abc#fight=1"})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(ev.Events) != 1 || ev.Events[0].Category != core.CategoryFCPF {
		t.Fatalf("unexpected evaluation: %+v", ev)
	}

	mp, err := client.MemberPoints(ctx, 7)
	if err != nil || mp.Total != 10 || mp.MemberID != 7 {
		t.Fatalf("member points: %+v err=%v", mp, err)
	}

	lb, err := client.Leaderboard(ctx, 5)
	if err != nil || len(lb.Entries) != 1 || lb.Entries[0].Member != 7 {
		t.Fatalf("leaderboard: %+v err=%v", lb, err)
	}

	rep, err := client.ClearRates(ctx)
	if err != nil || rep.Report.Title != "Across Clear Rates: 2023-09-04" {
		t.Fatalf("clear rates: %+v err=%v", rep, err)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Submit(context.Background(), Submission{}); !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("expected ErrEmptyURL, got %v", err)
	}

	_, err = client.ClearedJobs(context.Background(), "NOPE")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Code != "invalid_encounter" {
		t.Fatalf("expected invalid_encounter api error, got %v", err)
	}

	if _, err := NewClient(" "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx, 7, core.CategoryVet)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case evt := <-events:
		if evt.MemberID != 7 || evt.Category != core.CategoryVet {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestDeriveURLs(t *testing.T) {
	if got := deriveWSURL("https://fc.example.com/api"); got != "wss://fc.example.com/api/ws" {
		t.Fatalf("ws url: %s", got)
	}
	if got := deriveRootURL("http://localhost:8080/api"); got != "http://localhost:8080" {
		t.Fatalf("root url: %s", got)
	}
}

// test server implementing the minimal API surface expected by the SDK.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	award := core.NewPointsEvent("e1", 7, core.CategoryFCPF, "FC PF: Unknown", 1)

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","tier":"6_4","checks":{"storage":"ok"}}`))
	})
	mux.HandleFunc("/api/submissions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var sub Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			t.Errorf("decode submission: %v", err)
		}
		eval := Evaluation{Submission: sub, Events: []core.PointsEvent{award}}
		if r.URL.Query().Get("dry_run") == "true" {
			writeJSON(w, http.StatusOK, map[string]any{"dry_run": true, "evaluation": eval})
			return
		}
		writeJSON(w, http.StatusOK, SubmitResult{
			Evaluation: eval,
			Awarded:    []core.PointsEvent{award},
			Totals:     map[core.MemberID]int64{7: 10},
		})
	})
	mux.HandleFunc("/api/members/7/points", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"member_id":7,"tier":"6_4","total":10,"one_time":{}}`))
	})
	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("n") != "5" {
			t.Errorf("unexpected n: %q", r.URL.Query().Get("n"))
		}
		_, _ = w.Write([]byte(`{"tier":"6_4","entries":[{"member_id":7,"score":10}]}`))
	})
	mux.HandleFunc("/api/reports/clear-rates", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"report":{"title":"Across Clear Rates: 2023-09-04","data":""},"markdown":"x"}`))
	})
	mux.HandleFunc("/api/reports/cleared-jobs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "invalid_encounter", "message": "encounter is not tracked this tier"})
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("member") != "7" || r.URL.Query().Get("category") != "VET" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(core.NewPointsEvent("e2", 7, core.CategoryVet, "Veteran", 2))
	})

	return httptest.NewServer(mux)
}
