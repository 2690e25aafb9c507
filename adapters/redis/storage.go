package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"acrossfc/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr" yaml:"addr" env:"ACROSSFC_REDIS_ADDR"`
	Password     string        `json:"password" yaml:"password" env:"ACROSSFC_REDIS_PASSWORD"`
	DB           int           `json:"db" yaml:"db" env:"ACROSSFC_REDIS_DB"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements points and clears storage on Redis.
// Data structure:
// - member:{id}:tier:{tier}:points -> int64 (points total)
// - member:{id}:tier:{tier}:one_time -> set of awarded one-time categories
// - member:{id}:tier:{tier}:updated -> unix seconds of the last award
// - tier:{tier}:members -> set of member ids with a record
// - tier:{tier}:events -> list of JSON points events
// - fc:roster -> JSON array of members
// - fc:clears -> hash of clear key to JSON clear
type Store struct {
	client *redis.Client
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func memberKey(member core.MemberID, tier core.Tier, field string) string {
	return fmt.Sprintf("member:%d:tier:%s:%s", member, tier, field)
}

func tierMembersKey(tier core.Tier) string { return fmt.Sprintf("tier:%s:members", tier) }

func tierEventsKey(tier core.Tier) string { return fmt.Sprintf("tier:%s:events", tier) }

const (
	rosterKey = "fc:roster"
	clearsKey = "fc:clears"
)

// addEventScript guards one-time categories with SADD and increments the
// total in the same atomic step. Returns {applied, total}.
var addEventScript = redis.NewScript(`
	local points = tonumber(ARGV[1])
	if ARGV[3] == '1' then
		if redis.call('SADD', KEYS[2], ARGV[2]) == 0 then
			return {0, tonumber(redis.call('GET', KEYS[1]) or '0')}
		end
	end
	local total = redis.call('INCRBY', KEYS[1], points)
	redis.call('SET', KEYS[3], ARGV[4])
	redis.call('SADD', KEYS[4], ARGV[5])
	redis.call('RPUSH', KEYS[5], ARGV[6])
	return {1, total}
`)

// AddPointsEvent atomically records an award and returns the new total.
func (s *Store) AddPointsEvent(ctx context.Context, tier core.Tier, ev core.PointsEvent) (int64, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("failed to encode points event: %w", err)
	}
	oneTime := "0"
	if ev.Category.OneTime() {
		oneTime = "1"
	}
	keys := []string{
		memberKey(ev.MemberID, tier, "points"),
		memberKey(ev.MemberID, tier, "one_time"),
		memberKey(ev.MemberID, tier, "updated"),
		tierMembersKey(tier),
		tierEventsKey(tier),
	}
	res, err := addEventScript.Run(ctx, s.client, keys,
		ev.Points, string(ev.Category), oneTime, time.Now().UTC().Unix(), ev.MemberID.String(), payload).Slice()
	if err != nil {
		return 0, fmt.Errorf("failed to add points event: %w", err)
	}
	if len(res) != 2 {
		return 0, errors.New("unexpected result from Redis script")
	}
	applied, ok1 := res[0].(int64)
	total, ok2 := res[1].(int64)
	if !ok1 || !ok2 {
		return 0, errors.New("unexpected result type from Redis script")
	}
	if applied == 0 {
		return total, core.ErrOneTimeAwarded
	}
	return total, nil
}

// GetMemberPoints rebuilds a member's record from its keys.
func (s *Store) GetMemberPoints(ctx context.Context, member core.MemberID, tier core.Tier) (core.MemberPoints, error) {
	known, err := s.client.SIsMember(ctx, tierMembersKey(tier), member.String()).Result()
	if err != nil {
		return core.MemberPoints{}, fmt.Errorf("failed to check member: %w", err)
	}
	if !known {
		return core.MemberPoints{}, core.ErrMemberNotFound
	}

	p := core.NewMemberPoints(member, tier)
	total, err := s.client.Get(ctx, memberKey(member, tier, "points")).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return core.MemberPoints{}, fmt.Errorf("failed to get points: %w", err)
	}
	p.Total = total

	cats, err := s.client.SMembers(ctx, memberKey(member, tier, "one_time")).Result()
	if err != nil {
		return core.MemberPoints{}, fmt.Errorf("failed to get one-time categories: %w", err)
	}
	for _, c := range cats {
		p.OneTime[core.PointsCategory(c)] = struct{}{}
	}

	if ts, err := s.client.Get(ctx, memberKey(member, tier, "updated")).Int64(); err == nil {
		p.Updated = time.Unix(ts, 0).UTC()
	}
	return p, nil
}

// ListMemberPoints returns every record of the tier ordered by member id.
func (s *Store) ListMemberPoints(ctx context.Context, tier core.Tier) ([]core.MemberPoints, error) {
	ids, err := s.client.SMembers(ctx, tierMembersKey(tier)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	out := make([]core.MemberPoints, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue // skip invalid entries
		}
		p, err := s.GetMemberPoints(ctx, core.MemberID(id), tier)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

// Events returns the tier's points events in insertion order.
func (s *Store) Events(ctx context.Context, tier core.Tier) ([]core.PointsEvent, error) {
	raw, err := s.client.LRange(ctx, tierEventsKey(tier), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	out := make([]core.PointsEvent, 0, len(raw))
	for _, r := range raw {
		var ev core.PointsEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode points event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Store) SaveRoster(ctx context.Context, members []core.Member) error {
	data, err := json.Marshal(members)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, rosterKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

func (s *Store) Roster(ctx context.Context) ([]core.Member, error) {
	data, err := s.client.Get(ctx, rosterKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []core.Member{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	var members []core.Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// SaveClears adds clears with HSETNX so existing keys are left untouched.
func (s *Store) SaveClears(ctx context.Context, clears []core.Clear) (int, error) {
	if len(clears) == 0 {
		return 0, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.BoolCmd, 0, len(clears))
	for _, c := range clears {
		data, err := json.Marshal(c)
		if err != nil {
			return 0, err
		}
		cmds = append(cmds, pipe.HSetNX(ctx, clearsKey, c.Key(), data))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to save clears: %w", err)
	}
	added := 0
	for _, cmd := range cmds {
		if cmd.Val() {
			added++
		}
	}
	return added, nil
}

// Clears returns every stored clear ordered by start time.
func (s *Store) Clears(ctx context.Context) ([]core.Clear, error) {
	all, err := s.client.HGetAll(ctx, clearsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get clears: %w", err)
	}
	out := make([]core.Clear, 0, len(all))
	for _, v := range all {
		var c core.Clear
		if err := json.Unmarshal([]byte(v), &c); err != nil {
			return nil, fmt.Errorf("failed to decode clear: %w", err)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].Key() < out[j].Key()
	})
	return out, nil
}
