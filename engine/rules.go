package engine

import (
	"context"
	"errors"
	"fmt"

	"acrossfc/core"
)

// rule is one fixed step of fight evaluation. Rules run in order and append
// awards to the evaluation.
type rule interface {
	name() string
	apply(ctx context.Context, e *PointsEvaluator, ev *Evaluation) error
}

func defaultRules() []rule {
	return []rule{fcPFRule{}, highEndContentRule{}, firstClearRule{}}
}

// fcPFRule awards every FC member in an FC party finder listing.
type fcPFRule struct{}

func (fcPFRule) name() string { return "fc_pf" }

func (fcPFRule) apply(_ context.Context, e *PointsEvaluator, ev *Evaluation) error {
	if !ev.Submission.IsFCPF {
		return nil
	}
	id := ev.Submission.FCPFID
	if id == "" {
		id = "Unknown"
	}
	for _, m := range ev.FCMembers {
		ev.award(e.event(m.ID, core.CategoryFCPF, "FC PF: "+id))
	}
	return nil
}

// highEndContentRule awards full or partial FC parties in current high-end
// content. Statics do not qualify.
type highEndContentRule struct{}

func (highEndContentRule) name() string { return "fc_high_end_content" }

func (highEndContentRule) apply(_ context.Context, e *PointsEvaluator, ev *Evaluation) error {
	if ev.Submission.IsStatic {
		e.logger.Info("statics do not qualify for FC high-end content points, skipping")
		return nil
	}
	if !ev.Fight.Tracked {
		e.logger.Info("not high end content, no points awarded for FC high end content")
		return nil
	}
	category, description, ok := e.catalog.HighEndCategory(ev.Fight.Encounter)
	if !ok {
		e.logger.Info("not high end content, no points awarded for FC high end content",
			"encounter", ev.Fight.Encounter.ID)
		return nil
	}
	if len(ev.FCMembers) < minFCMembers {
		e.logger.Info("not full or partial FC", "fc_members", len(ev.FCMembers))
		return nil
	}
	for _, m := range ev.FCMembers {
		ev.award(e.event(m.ID, category, description))
	}
	return nil
}

// firstClearRule splits FC members into veterans and first clearers, awards
// one-time savage first clears, and rewards veterans who helped a first clear.
type firstClearRule struct{}

func (firstClearRule) name() string { return "vet_and_first_clears" }

func (firstClearRule) apply(ctx context.Context, e *PointsEvaluator, ev *Evaluation) error {
	if !ev.Fight.Tracked {
		return nil
	}
	encounter := ev.Fight.Encounter
	cutoff := ev.Fight.StartTime.Add(-priorClearBuffer)

	for _, m := range ev.FCMembers {
		clears, err := e.provider.GetClearsForMember(ctx, m, []core.Encounter{encounter})
		if err != nil {
			return fmt.Errorf("failed to get clears for %s: %w", m.Name, err)
		}
		prior := false
		for _, c := range clears {
			if c.StartTime.Before(cutoff) {
				prior = true
				break
			}
		}
		if prior {
			ev.Veterans = append(ev.Veterans, m)
		} else {
			ev.FirstClears = append(ev.FirstClears, m)
		}
	}

	if category, ok := e.catalog.FirstClearCategory(encounter); ok {
		for _, m := range ev.FirstClears {
			points, err := e.store.GetMemberPoints(ctx, m.ID, e.catalog.Tier)
			if err != nil && !errors.Is(err, core.ErrMemberNotFound) {
				return fmt.Errorf("failed to get points for %d: %w", m.ID, err)
			}
			if err == nil && points.HasOneTime(category) {
				e.logger.Info("one-time points already awarded, skipping",
					"member", m.ID, "category", category)
				continue
			}
			ev.award(e.event(m.ID, category, "First clear: "+encounter.Name))
		}
	}

	if len(ev.FirstClears) > 0 {
		for _, m := range ev.Veterans {
			ev.award(e.event(m.ID, core.CategoryVet, "Veteran support: "+encounter.Name))
		}
	}
	return nil
}
