package review

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"talent/internal/domain/apperror"
)

func ReviewerWeight(reviewerType string) float64 {
	if weight, ok := reviewerWeights[reviewerType]; ok {
		return weight
	}
	return defaultReviewerWeight
}

// CalculateFinalScore is the weighted mean of completed submissions. Every
// submission contributes its own weight, so two peer reviews weigh 0.4
// together. Returns nil when nothing is completed.
func CalculateFinalScore(scores []Score) *float64 {
	var weighted, weights float64
	for _, score := range scores {
		if score.Status != ScoreStatusCompleted || score.AverageScore == nil {
			continue
		}
		weight := ReviewerWeight(score.ReviewerType)
		weighted += *score.AverageScore * weight
		weights += weight
	}
	if weights == 0 {
		return nil
	}
	final := round2(weighted / weights)
	return &final
}

// ProgressPercent rounds to the nearest integer; a zero total yields 0.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(completed) / float64(total)))
	return min(max(pct, 0), 100)
}

func ValidateScores(values map[string]float64) error {
	if len(values) == 0 {
		return ErrEmptyScores
	}
	for name, value := range values {
		if strings.TrimSpace(name) == "" {
			return apperror.Validation("competency name must not be blank")
		}
		if math.IsNaN(value) || value < MinScore || value > MaxScore {
			return fmt.Errorf("%w (%s=%v)", ErrScoreOutOfRange, name, value)
		}
	}
	return nil
}

// isAssigned reports whether (reviewerID, reviewerType) owns one of the review's
// slots. A review without slots accepts any pair.
func isAssigned(slots []Score, reviewerID, reviewerType string) bool {
	if len(slots) == 0 {
		return true
	}
	return slices.ContainsFunc(slots, func(s Score) bool {
		return s.ReviewerID == reviewerID && s.ReviewerType == reviewerType
	})
}

func countCompleted(scores []Score) int {
	count := 0
	for _, score := range scores {
		if score.Status == ScoreStatusCompleted {
			count++
		}
	}
	return count
}

// applyProgress moves a review forward after its completed submissions were
// recounted. Any progress short of 100 means in_progress, overdue included; a
// completed review is left untouched. It reports whether the review reached
// completion in this call.
func applyProgress(r *Review, completed int, now time.Time) bool {
	if r.Status == StatusCompleted {
		return false
	}
	completed = min(max(completed, 0), max(r.TotalReviewers, 0))
	r.CompletedReviewers = completed
	r.Progress = ProgressPercent(completed, r.TotalReviewers)

	switch {
	case r.Progress == 100:
		r.Status = StatusCompleted
		completedAt := now
		r.CompletedAt = &completedAt
		return true
	case r.Progress > 0:
		r.Status = StatusInProgress
	}
	return false
}

func canTransitionCycle(from, to string) bool {
	return slices.Contains(cycleTransitions[from], to)
}

func validateCycleInput(in CycleInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.Validation("cycle name is required")
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() {
		return apperror.Validation("cycle period start and end are required")
	}
	if in.PeriodEnd.Before(in.PeriodStart) {
		return ErrInvalidPeriod
	}
	if !slices.Contains(Frequencies, in.Frequency) {
		return apperror.Validation("unsupported cycle frequency " + in.Frequency)
	}
	if len(in.ReviewerTypes) == 0 {
		return apperror.Validation("at least one reviewer type is required")
	}
	for _, reviewerType := range in.ReviewerTypes {
		if !slices.Contains(ReviewerTypes, reviewerType) {
			return apperror.Validation("unsupported reviewer type " + reviewerType)
		}
	}
	return nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
