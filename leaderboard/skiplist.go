package leaderboard

import (
	"math/rand"
	"sync"

	"acrossfc/core"
)

const (
	maxHeight   = 12
	promoteOdds = 4
)

type slot struct {
	member core.MemberID
	score  int64
	links  [maxHeight]*slot
}

// before orders slots by points descending, then member ID ascending.
func (a *slot) before(member core.MemberID, score int64) bool {
	if a.score != score {
		return a.score > score
	}
	return a.member < member
}

// SkipList is a concurrent Board. A roster is a few hundred members at most,
// so a fixed height of 12 levels is plenty.
type SkipList struct {
	mu      sync.RWMutex
	head    slot
	height  int
	members map[core.MemberID]*slot
}

func NewSkipList() *SkipList {
	return &SkipList{height: 1, members: map[core.MemberID]*slot{}}
}

func randomHeight() int {
	h := 1
	for h < maxHeight && rand.Intn(promoteOdds) == 0 {
		h++
	}
	return h
}

// path returns, per level, the last slot ordered before (member, score).
func (s *SkipList) path(member core.MemberID, score int64) [maxHeight]*slot {
	var prev [maxHeight]*slot
	cur := &s.head
	for lvl := s.height - 1; lvl >= 0; lvl-- {
		for next := cur.links[lvl]; next != nil && next.before(member, score); next = cur.links[lvl] {
			cur = next
		}
		prev[lvl] = cur
	}
	for lvl := s.height; lvl < maxHeight; lvl++ {
		prev[lvl] = &s.head
	}
	return prev
}

// Update sets a member's total, moving it if it is already ranked.
func (s *SkipList) Update(member core.MemberID, score int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.members[member]; ok {
		if cur.score == score {
			return
		}
		s.unlink(cur)
	}
	n := &slot{member: member, score: score}
	prev := s.path(member, score)
	h := randomHeight()
	if h > s.height {
		s.height = h
	}
	for lvl := 0; lvl < h; lvl++ {
		n.links[lvl] = prev[lvl].links[lvl]
		prev[lvl].links[lvl] = n
	}
	s.members[member] = n
}

func (s *SkipList) unlink(n *slot) {
	prev := s.path(n.member, n.score)
	for lvl := 0; lvl < s.height; lvl++ {
		if prev[lvl].links[lvl] == n {
			prev[lvl].links[lvl] = n.links[lvl]
		}
	}
	for s.height > 1 && s.head.links[s.height-1] == nil {
		s.height--
	}
	delete(s.members, n.member)
}

func (s *SkipList) Remove(member core.MemberID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.members[member]; ok {
		s.unlink(n)
	}
}

// TopN returns the first n entries with their shared ranks.
func (s *SkipList) TopN(n int) []Entry {
	if n <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, min(n, len(s.members)))
	pos, rank := 0, 0
	for cur := s.head.links[0]; cur != nil && len(out) < n; cur = cur.links[0] {
		pos++
		if len(out) == 0 || out[len(out)-1].Score != cur.score {
			rank = pos
		}
		out = append(out, Entry{Member: cur.member, Score: cur.score, Rank: rank})
	}
	return out
}

func (s *SkipList) Get(member core.MemberID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.members[member]
	if !ok {
		return Entry{}, false
	}
	return Entry{Member: n.member, Score: n.score, Rank: s.rankOf(n.score)}, true
}

// Rank is one more than the number of members with strictly more points.
func (s *SkipList) Rank(member core.MemberID) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.members[member]
	if !ok {
		return 0, false
	}
	return s.rankOf(n.score), true
}

func (s *SkipList) rankOf(score int64) int {
	rank := 1
	for cur := s.head.links[0]; cur != nil && cur.score > score; cur = cur.links[0] {
		rank++
	}
	return rank
}

func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

var _ Board = (*SkipList)(nil)
