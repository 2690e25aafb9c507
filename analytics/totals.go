package analytics

import (
	"context"
	"sort"
	"sync"

	"acrossfc/core"
)

// CategoryTotal is the points and event count of one category.
type CategoryTotal struct {
	Category core.PointsCategory `json:"category"`
	Points   int64               `json:"points"`
	Events   int                 `json:"events"`
}

// CategoryTotals sums awarded events by category since the process started.
type CategoryTotals struct {
	mu     sync.Mutex
	totals map[core.PointsCategory]*CategoryTotal
}

func NewCategoryTotals() *CategoryTotals {
	return &CategoryTotals{totals: map[core.PointsCategory]*CategoryTotal{}}
}

func (c *CategoryTotals) OnEvent(_ context.Context, ev core.PointsEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.totals[ev.Category]
	if t == nil {
		t = &CategoryTotal{Category: ev.Category}
		c.totals[ev.Category] = t
	}
	t.Points += ev.Points
	t.Events++
}

// Snapshot returns totals ordered by points descending, then category.
func (c *CategoryTotals) Snapshot() []CategoryTotal {
	c.mu.Lock()
	out := make([]CategoryTotal, 0, len(c.totals))
	for _, t := range c.totals {
		out = append(out, *t)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Category < out[j].Category
	})
	return out
}
