package promotion

import (
	"fmt"

	"talent/internal/domain/apperror"
)

var (
	ErrWorkflowNotFound  = fmt.Errorf("promotion workflow %w", apperror.ErrNotFound)
	ErrCandidateNotFound = fmt.Errorf("promotion candidate %w", apperror.ErrNotFound)
	ErrApprovalNotFound  = fmt.Errorf("promotion approval %w", apperror.ErrNotFound)
	errEmployeeNotFound  = fmt.Errorf("employee %w", apperror.ErrNotFound)

	ErrNotDraft        = fmt.Errorf("%w: only draft candidates can be submitted", apperror.ErrValidation)
	ErrReasonRequired  = fmt.Errorf("%w: a reason is required", apperror.ErrValidation)
	ErrAlreadyDecided  = fmt.Errorf("%w: approval already decided", apperror.ErrStateConflict)
	ErrNotInReview     = fmt.Errorf("%w: candidate is not in review", apperror.ErrStateConflict)
	ErrCannotWithdraw  = fmt.Errorf("%w: only submitted or in-review candidates can be withdrawn", apperror.ErrStateConflict)
	ErrNotApprover     = fmt.Errorf("%w: approval is assigned to another user", apperror.ErrForbidden)
	ErrInvalidWorkflow = fmt.Errorf("%w: workflow steps are invalid", apperror.ErrValidation)
)
