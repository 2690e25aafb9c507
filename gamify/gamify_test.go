package gamify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	mem "acrossfc/adapters/memory"
	"acrossfc/core"
	"acrossfc/engine"
	"acrossfc/realtime"
)

type staticProvider struct {
	fight  core.FightData
	roster []core.Member
}

func (p staticProvider) GetFightData(context.Context, string) (core.FightData, error) {
	return p.fight, nil
}

func (p staticProvider) GetFCRoster(context.Context) ([]core.Member, error) { return p.roster, nil }

func (p staticProvider) GetClearsForMember(context.Context, core.Member, []core.Encounter) ([]core.Clear, error) {
	return nil, nil
}

func pfProvider() staticProvider {
	roster := []core.Member{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}
	return staticProvider{
		roster: roster,
		fight: core.FightData{
			ReportID:    "abc",
			FightID:     1,
			Encounter:   core.EWEx1,
			StartTime:   time.Date(2023, 9, 1, 20, 0, 0, 0, time.UTC),
			PlayerNames: []string{"Alpha", "Pug"},
		},
	}
}

type recordingHook struct {
	mu     sync.Mutex
	events []core.PointsEvent
}

func (r *recordingHook) OnEvent(_ context.Context, ev core.PointsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type countingObserver struct{ outcomes []string }

func (c *countingObserver) ObserveEvaluation(o string) { c.outcomes = append(c.outcomes, o) }

func TestNewWiresHubHooksAndObserver(t *testing.T) {
	hub := realtime.NewHub()
	hook := &recordingHook{}
	obs := &countingObserver{}
	store := mem.New()
	svc, err := New(pfProvider(),
		WithStorage(store),
		WithRealtime(hub),
		WithHooks(hook),
		WithObserver(obs),
		WithDispatchMode(engine.DispatchSync),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer svc.Close()

	_, ch := hub.Subscribe(4, realtime.Filter{})
	res, err := svc.Submit(context.Background(), engine.Submission{FFLogsURL: "u", IsFCPF: true, FCPFID: "7"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Awarded) != 1 || res.Awarded[0].Category != core.CategoryFCPF {
		t.Fatalf("unexpected awards: %+v", res.Awarded)
	}

	select {
	case ev := <-ch:
		if ev.MemberID != 1 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not receive event")
	}
	if len(hook.events) != 1 {
		t.Fatalf("expected hook to receive 1 event, got %d", len(hook.events))
	}
	if fmt.Sprint(obs.outcomes) != "[awarded]" {
		t.Fatalf("unexpected outcomes: %v", obs.outcomes)
	}
	if len(store.Events()) != 1 {
		t.Fatalf("expected stored event")
	}
}

func TestNewDefaultsAndUnknownTier(t *testing.T) {
	svc, err := New(pfProvider())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer svc.Close()
	if svc.Tier() != "6_4" {
		t.Fatalf("unexpected default tier %s", svc.Tier())
	}
	if _, err := svc.Submit(context.Background(), engine.Submission{FFLogsURL: "u", IsFCPF: true}); err != nil {
		t.Fatalf("fallback submit: %v", err)
	}
	pts, err := svc.MemberPoints(context.Background(), 1)
	if err != nil || pts.Total != core.CategoryFCPF.Points() {
		t.Fatalf("fallback points=%+v err=%v", pts, err)
	}

	if _, err := New(pfProvider(), WithTier("1_0")); err == nil {
		t.Fatal("expected unknown tier error")
	}
}
