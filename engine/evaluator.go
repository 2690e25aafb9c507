package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"acrossfc/core"
)

// priorClearBuffer is subtracted from a fight's start time; only clears
// older than that count as a member's prior clears.
const priorClearBuffer = 60 * time.Second

// minFCMembers is the number of FC members a party needs to count as a
// full or partial FC party.
const minFCMembers = 4

// Submission describes a fight submitted for points.
type Submission struct {
	FFLogsURL string `json:"fflogs_url"`
	IsFCPF    bool   `json:"is_fc_pf"`
	IsStatic  bool   `json:"is_static"`
	FCPFID    string `json:"fc_pf_id,omitempty"`
}

// Evaluation is the outcome of evaluating one fight.
type Evaluation struct {
	Fight       core.FightData     `json:"fight"`
	Submission  Submission         `json:"submission"`
	FCMembers   []core.Member      `json:"fc_members"`
	Veterans    []core.Member      `json:"veterans"`
	FirstClears []core.Member      `json:"first_clears"`
	Events      []core.PointsEvent `json:"events"`

	awarded map[awardKey]struct{}
}

type awardKey struct {
	member   core.MemberID
	category core.PointsCategory
}

// award appends an event unless the member already got the category in this evaluation.
func (ev *Evaluation) award(e core.PointsEvent) {
	key := awardKey{member: e.MemberID, category: e.Category}
	if _, ok := ev.awarded[key]; ok {
		return
	}
	ev.awarded[key] = struct{}{}
	ev.Events = append(ev.Events, e)
}

// PointsEvaluator applies the FC points rules to a single fight.
type PointsEvaluator struct {
	provider DataProvider
	store    Storage
	catalog  *core.TierCatalog
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	rules    []rule
}

// EvaluatorOption configures a PointsEvaluator.
type EvaluatorOption func(*PointsEvaluator)

// WithLogger sets the evaluator logger.
func WithLogger(l *slog.Logger) EvaluatorOption {
	return func(e *PointsEvaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *PointsEvaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides the event id generator.
func WithIDGenerator(gen func() string) EvaluatorOption {
	return func(e *PointsEvaluator) {
		if gen != nil {
			e.newID = gen
		}
	}
}

func NewPointsEvaluator(provider DataProvider, store Storage, catalog *core.TierCatalog, opts ...EvaluatorOption) *PointsEvaluator {
	if provider == nil || store == nil || catalog == nil {
		panic("NewPointsEvaluator requires non-nil provider, store, and catalog")
	}
	e := &PointsEvaluator{
		provider: provider,
		store:    store,
		catalog:  catalog,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
		rules:    defaultRules(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Tier returns the submissions tier the evaluator awards points for.
func (e *PointsEvaluator) Tier() core.Tier { return e.catalog.Tier }

// Evaluate fetches the fight and roster from the provider and evaluates the fight.
func (e *PointsEvaluator) Evaluate(ctx context.Context, sub Submission) (*Evaluation, error) {
	fight, err := e.provider.GetFightData(ctx, sub.FFLogsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get fight data: %w", err)
	}
	roster, err := e.provider.GetFCRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get fc roster: %w", err)
	}
	return e.EvaluateFight(ctx, fight, roster, sub)
}

// EvaluateFight evaluates already fetched fight data against the roster.
func (e *PointsEvaluator) EvaluateFight(ctx context.Context, fight core.FightData, roster []core.Member, sub Submission) (*Evaluation, error) {
	ev := &Evaluation{
		Fight:      fight,
		Submission: sub,
		FCMembers:  e.fcMembersInFight(fight, roster),
		Events:     []core.PointsEvent{},
		awarded:    map[awardKey]struct{}{},
	}
	for _, r := range e.rules {
		if err := r.apply(ctx, e, ev); err != nil {
			return nil, fmt.Errorf("%s: %w", r.name(), err)
		}
	}
	e.logger.Info("evaluated fight",
		"report", fight.ReportID,
		"fight", fight.FightID,
		"encounter", fight.Encounter.ID,
		"fc_members", len(ev.FCMembers),
		"events", len(ev.Events))
	return ev, nil
}

// fcMembersInFight returns roster members, in roster order, whose name is
// among the fight's players. Each player name matches at most one member.
func (e *PointsEvaluator) fcMembersInFight(fight core.FightData, roster []core.Member) []core.Member {
	names := make(map[string]struct{}, len(fight.PlayerNames))
	for _, n := range fight.PlayerNames {
		names[n] = struct{}{}
	}
	var members []core.Member
	for _, m := range roster {
		if _, ok := names[m.Name]; ok {
			members = append(members, m)
			delete(names, m.Name)
		}
	}
	if len(names) > 0 {
		skipped := make([]string, 0, len(names))
		for n := range names {
			skipped = append(skipped, n)
		}
		e.logger.Debug("skipping points registration: not in FC roster", "players", skipped)
	}
	return members
}

func (e *PointsEvaluator) event(member core.MemberID, category core.PointsCategory, description string) core.PointsEvent {
	return core.NewPointsEvent(e.newID(), member, category, description, e.now().Unix())
}
