package review

import (
	"fmt"

	"talent/internal/domain/apperror"
)

var (
	ErrCycleNotFound     = fmt.Errorf("review cycle %w", apperror.ErrNotFound)
	ErrReviewNotFound    = fmt.Errorf("review %w", apperror.ErrNotFound)
	ErrCycleNotActive    = fmt.Errorf("%w: review cycle is not active", apperror.ErrStateConflict)
	ErrReviewClosed      = fmt.Errorf("%w: review is already completed", apperror.ErrStateConflict)
	ErrNotAssigned       = fmt.Errorf("%w: reviewer is not assigned to this review", apperror.ErrForbidden)
	ErrInvalidTransition = fmt.Errorf("%w: review cycle status transition not allowed", apperror.ErrStateConflict)
	ErrEmptyScores       = fmt.Errorf("%w: at least one competency score is required", apperror.ErrValidation)
	ErrScoreOutOfRange   = fmt.Errorf("%w: scores must be between 1 and 5", apperror.ErrValidation)
	ErrInvalidPeriod     = fmt.Errorf("%w: period end must not be before period start", apperror.ErrValidation)
)
