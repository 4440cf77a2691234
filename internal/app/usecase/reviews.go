package usecase

import (
	"context"

	"talent/internal/domain/auth"
	"talent/internal/domain/review"
	"talent/internal/platform/events"
	"talent/internal/platform/metrics"
)

func (s *Service) CreateCycle(ctx context.Context, actor auth.Actor, in review.CycleInput) (review.Cycle, error) {
	var out review.Cycle
	err := s.inTx(ctx, func(u *unit) error {
		cycle, err := u.cycles.Create(ctx, in)
		if err != nil {
			return err
		}
		out = cycle
		return u.record(ctx, actor, "review_cycle.create", "review_cycle", cycle.ID, nil, cycle)
	})
	return out, err
}

type ActivatedCycle struct {
	Cycle   review.Cycle    `json:"cycle"`
	Reviews []review.Review `json:"reviews"`
}

func (s *Service) ActivateCycle(ctx context.Context, actor auth.Actor, cycleID string, assignments []review.Assignment) (ActivatedCycle, error) {
	var out ActivatedCycle
	err := s.inTx(ctx, func(u *unit) error {
		cycle, reviews, err := u.cycles.Activate(ctx, cycleID, assignments)
		if err != nil {
			return err
		}
		out = ActivatedCycle{Cycle: cycle, Reviews: reviews}
		u.fx.emit(events.Event{
			Type:     events.CycleActivated,
			EntityID: cycle.ID,
			ActorID:  actor.UserID,
			Payload:  map[string]any{"reviews": len(reviews)},
		})
		return u.record(ctx, actor, "review_cycle.activate", "review_cycle", cycle.ID,
			map[string]string{"status": review.CycleStatusDraft}, map[string]any{"status": cycle.Status, "reviews": len(reviews)})
	})
	return out, err
}

func (s *Service) TransitionCycle(ctx context.Context, actor auth.Actor, cycleID, to string) (review.Cycle, error) {
	var out review.Cycle
	err := s.inTx(ctx, func(u *unit) error {
		before, err := u.reviewStore.GetCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		cycle, err := u.cycles.Transition(ctx, cycleID, to)
		if err != nil {
			return err
		}
		out = cycle
		return u.record(ctx, actor, "review_cycle."+to, "review_cycle", cycle.ID,
			map[string]string{"status": before.Status}, map[string]string{"status": cycle.Status})
	})
	return out, err
}

// SubmitScore records the actor's submission as reviewer and recomputes the
// review in the same transaction.
func (s *Service) SubmitScore(ctx context.Context, actor auth.Actor, reviewID, reviewerType string, scores map[string]float64) (review.SubmitResult, error) {
	var out review.SubmitResult
	err := s.inTx(ctx, func(u *unit) error {
		result, err := u.aggregator.SubmitScore(ctx, reviewID, actor.UserID, reviewerType, scores)
		if err != nil {
			return err
		}
		out = result
		u.fx.count(metrics.ScoresSubmitted)
		if result.Completed {
			u.fx.count(metrics.ReviewsCompleted)
			u.fx.emit(events.Event{
				Type:       events.ReviewCompleted,
				EntityID:   result.Review.ID,
				ActorID:    actor.UserID,
				Recipients: []string{result.Review.RevieweeID},
				Payload:    map[string]any{"cycleId": result.Review.CycleID, "finalScore": result.Review.FinalScore},
			})
		}
		return u.record(ctx, actor, "review.score.submit", "review", reviewID, nil, result)
	})
	return out, err
}

func (s *Service) GetReview(ctx context.Context, reviewID string) (review.ReviewDetail, error) {
	var out review.ReviewDetail
	err := s.read(func(u *unit) error {
		r, err := u.reviewStore.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		scores, err := u.reviewStore.ListScores(ctx, reviewID)
		if err != nil {
			return err
		}
		out = review.ReviewDetail{Review: r, Scores: scores}
		return nil
	})
	return out, err
}

// SweepOverdueReviews is run by the scheduler.
func (s *Service) SweepOverdueReviews(ctx context.Context) (any, error) {
	var updated int64
	err := s.inTx(ctx, func(u *unit) error {
		n, err := u.cycles.MarkOverdue(ctx)
		updated = n
		return err
	})
	return map[string]int64{"updated": updated}, err
}
