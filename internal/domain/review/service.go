package review

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"talent/internal/domain/apperror"
)

// Tracker keeps a review's progress and status in step with its completed
// submissions.
type Tracker struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewTracker(store StoreAPI) *Tracker {
	return &Tracker{Store: store, Now: time.Now}
}

// Recompute recounts completed submissions under the review row lock and
// ratchets the status forward. The final score is set once, on completion.
func (t *Tracker) Recompute(ctx context.Context, reviewID string) (Review, bool, error) {
	review, err := t.Store.LockReview(ctx, reviewID)
	if err != nil {
		return Review{}, false, err
	}
	scores, err := t.Store.ListScores(ctx, reviewID)
	if err != nil {
		return Review{}, false, err
	}

	completedNow := applyProgress(&review, countCompleted(scores), t.Now().UTC())
	if completedNow {
		review.FinalScore = CalculateFinalScore(scores)
	}
	if err := t.Store.UpdateReviewProgress(ctx, review); err != nil {
		return Review{}, false, err
	}
	return review, completedNow, nil
}

// Aggregator records reviewer submissions.
type Aggregator struct {
	Store   StoreAPI
	Tracker *Tracker
	Now     func() time.Time
}

func NewAggregator(store StoreAPI, tracker *Tracker) *Aggregator {
	return &Aggregator{Store: store, Tracker: tracker, Now: time.Now}
}

type SubmitResult struct {
	Score     Score  `json:"score"`
	Review    Review `json:"review"`
	Completed bool   `json:"completed"`
}

// SubmitScore upserts the (review, reviewer, type) submission as completed and
// recomputes the review in the same unit of work. Once a review has slots, only
// an assigned (reviewer, type) pair may submit.
func (a *Aggregator) SubmitScore(ctx context.Context, reviewID, reviewerID, reviewerType string, values map[string]float64) (SubmitResult, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return SubmitResult{}, apperror.Validation("reviewer is required")
	}
	if strings.TrimSpace(reviewerType) == "" {
		return SubmitResult{}, apperror.Validation("reviewer type is required")
	}
	if err := ValidateScores(values); err != nil {
		return SubmitResult{}, err
	}

	review, err := a.Store.LockReview(ctx, reviewID)
	if err != nil {
		return SubmitResult{}, err
	}
	if review.Status == StatusCompleted {
		return SubmitResult{}, ErrReviewClosed
	}
	cycle, err := a.Store.GetCycle(ctx, review.CycleID)
	if err != nil {
		return SubmitResult{}, err
	}
	if cycle.Status != CycleStatusActive {
		return SubmitResult{}, ErrCycleNotActive
	}

	slots, err := a.Store.ListScores(ctx, reviewID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !isAssigned(slots, reviewerID, reviewerType) {
		return SubmitResult{}, ErrNotAssigned
	}

	now := a.Now().UTC()
	score := Score{
		ReviewID:     reviewID,
		ReviewerID:   reviewerID,
		ReviewerType: reviewerType,
		Status:       ScoreStatusCompleted,
		CompletedAt:  &now,
	}
	score.SetScores(values)

	saved, err := a.Store.UpsertScore(ctx, score)
	if err != nil {
		return SubmitResult{}, err
	}
	updated, completed, err := a.Tracker.Recompute(ctx, reviewID)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Score: saved, Review: updated, Completed: completed}, nil
}

// Cycles drives the review cycle lifecycle.
type Cycles struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewCycles(store StoreAPI) *Cycles {
	return &Cycles{Store: store, Now: time.Now}
}

func (c *Cycles) Create(ctx context.Context, in CycleInput) (Cycle, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateCycleInput(in); err != nil {
		return Cycle{}, err
	}
	return c.Store.CreateCycle(ctx, in)
}

// Activate opens a draft cycle and launches one review per reviewee, with one
// pending submission slot per assignment.
func (c *Cycles) Activate(ctx context.Context, cycleID string, assignments []Assignment) (Cycle, []Review, error) {
	cycle, err := c.Store.LockCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, nil, err
	}
	if !canTransitionCycle(cycle.Status, CycleStatusActive) {
		return Cycle{}, nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cycle.Status, CycleStatusActive)
	}

	grouped, order, err := groupAssignments(cycle, assignments)
	if err != nil {
		return Cycle{}, nil, err
	}

	reviews := make([]Review, 0, len(order))
	for _, revieweeID := range order {
		slots := grouped[revieweeID]
		review, err := c.Store.CreateReview(ctx, cycle.ID, revieweeID, len(slots))
		if err != nil {
			return Cycle{}, nil, err
		}
		for _, slot := range slots {
			if err := c.Store.CreatePendingScore(ctx, review.ID, slot.ReviewerID, slot.ReviewerType); err != nil {
				return Cycle{}, nil, err
			}
		}
		reviews = append(reviews, review)
	}

	if err := c.Store.UpdateCycleStatus(ctx, cycle.ID, CycleStatusActive); err != nil {
		return Cycle{}, nil, err
	}
	cycle.Status = CycleStatusActive
	return cycle, reviews, nil
}

func (c *Cycles) Transition(ctx context.Context, cycleID, to string) (Cycle, error) {
	if to == CycleStatusActive {
		return Cycle{}, apperror.Validation("use activation to open a cycle")
	}
	cycle, err := c.Store.LockCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	if !canTransitionCycle(cycle.Status, to) {
		return Cycle{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cycle.Status, to)
	}
	if err := c.Store.UpdateCycleStatus(ctx, cycle.ID, to); err != nil {
		return Cycle{}, err
	}
	cycle.Status = to
	return cycle, nil
}

func (c *Cycles) MarkOverdue(ctx context.Context) (int64, error) {
	return c.Store.MarkOverdue(ctx, c.Now().UTC())
}

func groupAssignments(cycle Cycle, assignments []Assignment) (map[string][]Assignment, []string, error) {
	if len(assignments) == 0 {
		return nil, nil, apperror.Validation("at least one reviewer assignment is required")
	}
	grouped := map[string][]Assignment{}
	var order []string
	seen := map[Assignment]struct{}{}
	for _, a := range assignments {
		if strings.TrimSpace(a.RevieweeID) == "" || strings.TrimSpace(a.ReviewerID) == "" {
			return nil, nil, apperror.Validation("assignments need a reviewee and a reviewer")
		}
		if len(cycle.ReviewerTypes) > 0 && !slices.Contains(cycle.ReviewerTypes, a.ReviewerType) {
			return nil, nil, apperror.Validation("reviewer type " + a.ReviewerType + " is not configured for this cycle")
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		if _, ok := grouped[a.RevieweeID]; !ok {
			order = append(order, a.RevieweeID)
		}
		grouped[a.RevieweeID] = append(grouped[a.RevieweeID], a)
	}
	return grouped, order, nil
}
