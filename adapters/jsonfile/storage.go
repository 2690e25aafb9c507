package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"acrossfc/core"
)

// Store persists the whole points database to a single JSON file.
// Suitable for local runs of the CLI and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	data document
}

type document struct {
	Points map[core.Tier]map[core.MemberID]core.MemberPoints `json:"points"`
	Events map[core.Tier][]core.PointsEvent                  `json:"events"`
	Roster []core.Member                                     `json:"roster"`
	Clears []core.Clear                                      `json:"clears"`
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: document{
		Points: map[core.Tier]map[core.MemberID]core.MemberPoints{},
		Events: map[core.Tier][]core.PointsEvent{},
	}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	for tier, members := range doc.Points {
		for id, p := range members {
			if p.OneTime == nil {
				p.OneTime = map[core.PointsCategory]struct{}{}
			}
			s.tier(tier)[id] = p
		}
	}
	for tier, evs := range doc.Events {
		s.data.Events[tier] = evs
	}
	s.data.Roster = doc.Roster
	s.data.Clears = doc.Clears
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) tier(t core.Tier) map[core.MemberID]core.MemberPoints {
	m, ok := s.data.Points[t]
	if !ok {
		m = map[core.MemberID]core.MemberPoints{}
		s.data.Points[t] = m
	}
	return m
}

func (s *Store) AddPointsEvent(_ context.Context, tier core.Tier, ev core.PointsEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.tier(tier)
	st, ok := members[ev.MemberID]
	if !ok {
		st = core.NewMemberPoints(ev.MemberID, tier)
	} else {
		st = st.Clone()
	}
	if ev.Category.OneTime() && st.HasOneTime(ev.Category) {
		return st.Total, core.ErrOneTimeAwarded
	}
	next, err := core.AddSafe(st.Total, ev.Points)
	if err != nil {
		return 0, err
	}
	st.Total = next
	if ev.Category.OneTime() {
		st.OneTime[ev.Category] = struct{}{}
	}
	st.Updated = time.Now().UTC()

	prev, hadPrev := members[ev.MemberID]
	members[ev.MemberID] = st
	s.data.Events[tier] = append(s.data.Events[tier], ev)
	if err := s.persist(); err != nil {
		// keep memory consistent with the file
		if hadPrev {
			members[ev.MemberID] = prev
		} else {
			delete(members, ev.MemberID)
		}
		s.data.Events[tier] = s.data.Events[tier][:len(s.data.Events[tier])-1]
		return 0, err
	}
	return next, nil
}

func (s *Store) GetMemberPoints(_ context.Context, member core.MemberID, tier core.Tier) (core.MemberPoints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data.Points[tier][member]
	if !ok {
		return core.MemberPoints{}, core.ErrMemberNotFound
	}
	return st.Clone(), nil
}

func (s *Store) ListMemberPoints(_ context.Context, tier core.Tier) ([]core.MemberPoints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MemberPoints, 0, len(s.data.Points[tier]))
	for _, st := range s.data.Points[tier] {
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

// Events returns the tier's points events in insertion order.
func (s *Store) Events(tier core.Tier) []core.PointsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PointsEvent(nil), s.data.Events[tier]...)
}

func (s *Store) SaveRoster(_ context.Context, members []core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Roster = append([]core.Member(nil), members...)
	return s.persist()
}

func (s *Store) Roster(_ context.Context) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Member(nil), s.data.Roster...), nil
}

func (s *Store) SaveClears(_ context.Context, clears []core.Clear) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(s.data.Clears))
	for _, c := range s.data.Clears {
		seen[c.Key()] = struct{}{}
	}
	added := 0
	for _, c := range clears {
		if _, ok := seen[c.Key()]; ok {
			continue
		}
		seen[c.Key()] = struct{}{}
		s.data.Clears = append(s.data.Clears, c)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.persist()
}

func (s *Store) Clears(_ context.Context) ([]core.Clear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Clear(nil), s.data.Clears...), nil
}
