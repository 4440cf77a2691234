package learning

import (
	"fmt"

	"talent/internal/domain/apperror"
)

var (
	ErrLessonNotFound         = fmt.Errorf("lesson %w", apperror.ErrNotFound)
	ErrCourseNotFound         = fmt.Errorf("course %w", apperror.ErrNotFound)
	ErrQuizNotFound           = fmt.Errorf("quiz %w", apperror.ErrNotFound)
	ErrEnrollmentNotFound     = fmt.Errorf("enrollment %w", apperror.ErrNotFound)
	ErrAttemptNotFound        = fmt.Errorf("quiz attempt %w", apperror.ErrNotFound)
	ErrPathNotFound           = fmt.Errorf("learning path %w", apperror.ErrNotFound)
	ErrPathEnrollmentNotFound = fmt.Errorf("path enrollment %w", apperror.ErrNotFound)

	ErrAttemptsExhausted    = fmt.Errorf("%w: no quiz attempts remaining", apperror.ErrStateConflict)
	ErrAttemptConflict      = fmt.Errorf("%w: attempt number already taken", apperror.ErrStateConflict)
	ErrAttemptSubmitted     = fmt.Errorf("%w: attempt already submitted", apperror.ErrStateConflict)
	ErrAttemptExpired       = fmt.Errorf("%w: attempt time limit exceeded", apperror.ErrStateConflict)
	ErrPathAlreadyPublished = fmt.Errorf("%w: learning path already published", apperror.ErrStateConflict)
	ErrPathArchived         = fmt.Errorf("%w: learning path is archived", apperror.ErrStateConflict)
	ErrPathNotPublished     = fmt.Errorf("%w: learning path is not published", apperror.ErrStateConflict)
	ErrEnrollmentExpired    = fmt.Errorf("%w: enrollment has expired", apperror.ErrStateConflict)
	ErrLessonInactive       = fmt.Errorf("%w: lesson is not active", apperror.ErrStateConflict)
	ErrQuizzesNotPassed     = fmt.Errorf("%w: not every quiz on the course has been passed", apperror.ErrStateConflict)

	ErrLessonNotInCourse = fmt.Errorf("%w: lesson does not belong to the enrolled course", apperror.ErrValidation)
	ErrNegativeProgress  = fmt.Errorf("%w: position and consumed seconds must not be negative", apperror.ErrValidation)
	ErrNotQuizLesson     = fmt.Errorf("%w: lesson has no quiz", apperror.ErrValidation)
)
