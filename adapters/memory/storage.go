package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"acrossfc/core"
)

// Store is a concurrent in-memory points and clears store.
type Store struct {
	members sync.Map // map[recordKey]*memberRecord

	mu     sync.RWMutex
	events []core.PointsEvent
	roster []core.Member
	clears map[string]core.Clear
	order  []string
}

type recordKey struct {
	member core.MemberID
	tier   core.Tier
}

type memberRecord struct {
	mu    sync.Mutex
	state core.MemberPoints
}

func New() *Store { return &Store{clears: map[string]core.Clear{}} }

func (s *Store) getOrCreate(member core.MemberID, tier core.Tier) *memberRecord {
	key := recordKey{member: member, tier: tier}
	if v, ok := s.members.Load(key); ok {
		return v.(*memberRecord)
	}
	rec := &memberRecord{state: core.NewMemberPoints(member, tier)}
	rec.state.Updated = time.Now().UTC()
	actual, _ := s.members.LoadOrStore(key, rec)
	return actual.(*memberRecord)
}

func (s *Store) AddPointsEvent(_ context.Context, tier core.Tier, ev core.PointsEvent) (int64, error) {
	rec := s.getOrCreate(ev.MemberID, tier)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if ev.Category.OneTime() && rec.state.HasOneTime(ev.Category) {
		return rec.state.Total, core.ErrOneTimeAwarded
	}
	next, err := core.AddSafe(rec.state.Total, ev.Points)
	if err != nil {
		return 0, err
	}
	rec.state.Total = next
	if ev.Category.OneTime() {
		rec.state.OneTime[ev.Category] = struct{}{}
	}
	rec.state.Updated = time.Now().UTC()

	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return next, nil
}

func (s *Store) GetMemberPoints(_ context.Context, member core.MemberID, tier core.Tier) (core.MemberPoints, error) {
	v, ok := s.members.Load(recordKey{member: member, tier: tier})
	if !ok {
		return core.MemberPoints{}, core.ErrMemberNotFound
	}
	rec := v.(*memberRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state.Clone(), nil
}

// ListMemberPoints returns every record of the tier ordered by member id.
func (s *Store) ListMemberPoints(_ context.Context, tier core.Tier) ([]core.MemberPoints, error) {
	var out []core.MemberPoints
	s.members.Range(func(k, v any) bool {
		if k.(recordKey).tier != tier {
			return true
		}
		rec := v.(*memberRecord)
		rec.mu.Lock()
		out = append(out, rec.state.Clone())
		rec.mu.Unlock()
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

// Events returns every recorded points event in insertion order.
func (s *Store) Events() []core.PointsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.PointsEvent(nil), s.events...)
}

func (s *Store) SaveRoster(_ context.Context, members []core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = append([]core.Member(nil), members...)
	return nil
}

func (s *Store) Roster(_ context.Context) ([]core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Member(nil), s.roster...), nil
}

func (s *Store) SaveClears(_ context.Context, clears []core.Clear) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, c := range clears {
		k := c.Key()
		if _, ok := s.clears[k]; ok {
			continue
		}
		s.clears[k] = c
		s.order = append(s.order, k)
		added++
	}
	return added, nil
}

func (s *Store) Clears(_ context.Context) ([]core.Clear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Clear, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.clears[k])
	}
	return out, nil
}

var _ interface {
	AddPointsEvent(context.Context, core.Tier, core.PointsEvent) (int64, error)
	GetMemberPoints(context.Context, core.MemberID, core.Tier) (core.MemberPoints, error)
	ListMemberPoints(context.Context, core.Tier) ([]core.MemberPoints, error)
	SaveRoster(context.Context, []core.Member) error
	Roster(context.Context) ([]core.Member, error)
	SaveClears(context.Context, []core.Clear) (int, error)
	Clears(context.Context) ([]core.Clear, error)
} = (*Store)(nil)
