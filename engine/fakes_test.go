package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"acrossfc/core"
)

type fakeProvider struct {
	mu        sync.Mutex
	fight     core.FightData
	fightErr  error
	roster    []core.Member
	rosterErr error
	clears    map[core.MemberID][]core.Clear
	clearsErr error
	calls     int
}

func (f *fakeProvider) GetFightData(context.Context, string) (core.FightData, error) {
	return f.fight, f.fightErr
}

func (f *fakeProvider) GetFCRoster(context.Context) ([]core.Member, error) {
	return f.roster, f.rosterErr
}

func (f *fakeProvider) GetClearsForMember(_ context.Context, m core.Member, encounters []core.Encounter) ([]core.Clear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.clearsErr != nil {
		return nil, f.clearsErr
	}
	var out []core.Clear
	for _, c := range f.clears[m.ID] {
		for _, e := range encounters {
			if c.Encounter == e {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

var fightStart = time.Date(2023, 9, 1, 20, 0, 0, 0, time.UTC)

func testRoster(n int) []core.Member {
	out := make([]core.Member, n)
	for i := range out {
		out[i] = core.Member{ID: core.MemberID(i + 1), Name: fmt.Sprintf("Member %d", i+1), Rank: 1}
	}
	return out
}

func names(members []core.Member, extra ...string) []string {
	out := make([]string, 0, len(members)+len(extra))
	for _, m := range members {
		out = append(out, m.Name)
	}
	return append(out, extra...)
}

func priorClear(m core.Member, e core.Encounter, ago time.Duration) core.Clear {
	return core.Clear{
		MemberID:      m.ID,
		Encounter:     e,
		StartTime:     fightStart.Add(-ago),
		ReportCode:    "prior",
		ReportFightID: int(ago / time.Second),
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ev-%d", n)
	}
}

func fixedClock() time.Time { return fightStart }
