package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acrossfc/core"
)

const tier core.Tier = "6_4"

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_AddPointsEvent(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	total, err := store.AddPointsEvent(ctx, tier, core.NewPointsEvent("a", 7, core.CategoryFCExtreme, "FC Extreme: ZEROMUS", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	total, err = store.AddPointsEvent(ctx, tier, core.NewPointsEvent("b", 7, core.CategorySavage4_1, "First clear: P12S_P1", 2))
	require.NoError(t, err)
	assert.Equal(t, int64(40), total)

	// repeated one-time category leaves the total alone
	total, err = store.AddPointsEvent(ctx, tier, core.NewPointsEvent("c", 7, core.CategorySavage4_1, "First clear: P12S_P1", 3))
	require.ErrorIs(t, err, core.ErrOneTimeAwarded)
	assert.Equal(t, int64(40), total)

	events, err := store.Events(ctx, tier)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].UUID)
	assert.Equal(t, core.CategorySavage4_1, events[1].Category)
}

func TestStore_GetMemberPoints(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	_, err := store.GetMemberPoints(ctx, 7, tier)
	require.ErrorIs(t, err, core.ErrMemberNotFound)

	_, err = store.AddPointsEvent(ctx, tier, core.NewPointsEvent("a", 7, core.CategorySavage1, "", 1))
	require.NoError(t, err)
	_, err = store.AddPointsEvent(ctx, tier, core.NewPointsEvent("b", 7, core.CategoryVet, "", 2))
	require.NoError(t, err)

	p, err := store.GetMemberPoints(ctx, 7, tier)
	require.NoError(t, err)
	assert.Equal(t, core.MemberID(7), p.MemberID)
	assert.Equal(t, tier, p.Tier)
	assert.Equal(t, int64(30), p.Total)
	assert.True(t, p.HasOneTime(core.CategorySavage1))
	assert.False(t, p.HasOneTime(core.CategoryVet))
	assert.False(t, p.Updated.IsZero())

	_, err = store.GetMemberPoints(ctx, 7, "7_0")
	require.ErrorIs(t, err, core.ErrMemberNotFound)
}

func TestStore_ListMemberPoints(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	for _, id := range []core.MemberID{30, 10, 20} {
		_, err := store.AddPointsEvent(ctx, tier, core.NewPointsEvent("e", id, core.CategoryFCPF, "", 1))
		require.NoError(t, err)
	}

	all, err := store.ListMemberPoints(ctx, tier)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []core.MemberID{10, 20, 30}, []core.MemberID{all[0].MemberID, all[1].MemberID, all[2].MemberID})
}

func TestStore_ConcurrentOneTime(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AddPointsEvent(ctx, tier, core.NewPointsEvent("x", 1, core.CategorySavage2, "", 0)); err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)

	p, err := store.GetMemberPoints(ctx, 1, tier)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p.Total)
}

func TestStore_RosterAndClears(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	roster, err := store.Roster(ctx)
	require.NoError(t, err)
	assert.Empty(t, roster)

	members := []core.Member{{ID: 1, Name: "Alpha", Rank: 2}, {ID: 2, Name: "Beta", Rank: 4}}
	require.NoError(t, store.SaveRoster(ctx, members))
	roster, err = store.Roster(ctx)
	require.NoError(t, err)
	assert.Equal(t, members, roster)

	late := core.Clear{MemberID: 1, Encounter: core.TOPEW, StartTime: time.Unix(2000, 0).UTC(), ReportCode: "b", ReportFightID: 1}
	early := core.Clear{MemberID: 2, Encounter: core.P9S, StartTime: time.Unix(1000, 0).UTC(), ReportCode: "a", ReportFightID: 5}
	added, err := store.SaveClears(ctx, []core.Clear{late, early})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = store.SaveClears(ctx, []core.Clear{late})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	clears, err := store.Clears(ctx)
	require.NoError(t, err)
	require.Len(t, clears, 2)
	assert.Equal(t, early, clears[0])
	assert.Equal(t, late, clears[1])
}
