package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"acrossfc/core"
	"acrossfc/leaderboard"
)

// Observer receives evaluation outcomes, e.g. for metrics.
type Observer interface {
	ObserveEvaluation(outcome string)
}

const (
	OutcomeAwarded  = "awarded"
	OutcomeNoPoints = "no_points"
	OutcomeError    = "error"
)

// SubmitResult reports what a submission persisted.
type SubmitResult struct {
	Evaluation *Evaluation             `json:"evaluation"`
	Awarded    []core.PointsEvent      `json:"awarded"`
	Skipped    []core.PointsEvent      `json:"skipped"`
	Totals     map[core.MemberID]int64 `json:"totals"`
}

// PointsService wires the evaluator, storage, event bus, and leaderboard.
type PointsService struct {
	evaluator *PointsEvaluator
	storage   Storage
	bus       *EventBus
	board     leaderboard.Board
	observer  Observer
	logger    *slog.Logger
}

// ServiceOption configures a PointsService.
type ServiceOption func(*PointsService)

// WithBoard sets the leaderboard updated on every award.
func WithBoard(b leaderboard.Board) ServiceOption { return func(s *PointsService) { s.board = b } }

// WithObserver sets the evaluation observer.
func WithObserver(o Observer) ServiceOption { return func(s *PointsService) { s.observer = o } }

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *PointsService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewPointsService(evaluator *PointsEvaluator, storage Storage, bus *EventBus, opts ...ServiceOption) *PointsService {
	if evaluator == nil || storage == nil || bus == nil {
		panic("NewPointsService requires non-nil evaluator, storage, and bus")
	}
	s := &PointsService{
		evaluator: evaluator,
		storage:   storage,
		bus:       bus,
		board:     leaderboard.NewSkipList(),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Tier is the submissions tier the service awards points for.
func (s *PointsService) Tier() core.Tier { return s.evaluator.Tier() }

// Subscribe registers handler on the service's event bus.
func (s *PointsService) Subscribe(cat core.PointsCategory, handler func(context.Context, core.PointsEvent)) func() {
	return s.bus.Subscribe(cat, handler)
}

// Evaluate runs the rules without persisting anything.
func (s *PointsService) Evaluate(ctx context.Context, sub Submission) (*Evaluation, error) {
	ev, err := s.evaluator.Evaluate(ctx, sub)
	if err != nil {
		s.observe(OutcomeError)
		return nil, err
	}
	return ev, nil
}

// Submit evaluates a fight and persists and publishes every award.
func (s *PointsService) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	ev, err := s.Evaluate(ctx, sub)
	if err != nil {
		return nil, err
	}
	res := &SubmitResult{
		Evaluation: ev,
		Awarded:    []core.PointsEvent{},
		Skipped:    []core.PointsEvent{},
		Totals:     map[core.MemberID]int64{},
	}
	tier := s.Tier()
	for _, pe := range ev.Events {
		total, err := s.storage.AddPointsEvent(ctx, tier, pe)
		if errors.Is(err, core.ErrOneTimeAwarded) {
			s.logger.Info("one-time points already awarded, skipping",
				"member", pe.MemberID, "category", pe.Category)
			res.Skipped = append(res.Skipped, pe)
			continue
		}
		if err != nil {
			s.observe(OutcomeError)
			return res, fmt.Errorf("failed to store points event %s: %w", pe.UUID, err)
		}
		res.Awarded = append(res.Awarded, pe)
		res.Totals[pe.MemberID] = total
		s.board.Update(pe.MemberID, total)
		s.bus.Publish(ctx, pe)
	}
	if len(res.Awarded) > 0 {
		s.observe(OutcomeAwarded)
	} else {
		s.observe(OutcomeNoPoints)
	}
	s.logger.Info("submission processed",
		"url", sub.FFLogsURL,
		"awarded", len(res.Awarded),
		"skipped", len(res.Skipped))
	return res, nil
}

// MemberPoints returns a member's points in the current tier.
func (s *PointsService) MemberPoints(ctx context.Context, member core.MemberID) (core.MemberPoints, error) {
	return s.storage.GetMemberPoints(ctx, member, s.Tier())
}

// SeedLeaderboard loads the current tier's totals into the leaderboard.
func (s *PointsService) SeedLeaderboard(ctx context.Context) error {
	all, err := s.storage.ListMemberPoints(ctx, s.Tier())
	if err != nil {
		return fmt.Errorf("failed to list member points: %w", err)
	}
	for _, p := range all {
		s.board.Update(p.MemberID, p.Total)
	}
	return nil
}

// Leaderboard returns the top n members of the current tier.
func (s *PointsService) Leaderboard(n int) []leaderboard.Entry {
	return s.board.TopN(n)
}

// CheckStorage verifies the storage backend answers lookups.
func (s *PointsService) CheckStorage(ctx context.Context) error {
	_, err := s.storage.GetMemberPoints(ctx, 0, s.Tier())
	if err != nil && !errors.Is(err, core.ErrMemberNotFound) {
		return err
	}
	return nil
}

func (s *PointsService) Close() { s.bus.Close() }

func (s *PointsService) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveEvaluation(outcome)
	}
}
