package learning

import (
	"context"
	"time"
)

type StoreAPI interface {
	GetLesson(ctx context.Context, lessonID string) (Lesson, error)
	RecordLessonCompletion(ctx context.Context, lessonID string, seconds float64) error
	CountActiveLessons(ctx context.Context, courseID string) (int, error)
	CountCompletedLessons(ctx context.Context, enrollmentID, courseID string) (int, error)
	ListActiveQuizLessonIDs(ctx context.Context, courseID string) ([]string, error)
	EnsureLessonProgress(ctx context.Context, enrollmentID, lessonID string) (LessonProgress, error)
	SaveLessonProgress(ctx context.Context, p LessonProgress) error

	GetCourse(ctx context.Context, courseID string) (Course, error)
	GetEnrollment(ctx context.Context, enrollmentID string) (Enrollment, error)
	LockEnrollment(ctx context.Context, enrollmentID string) (Enrollment, error)
	CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, bool, error)
	SaveEnrollment(ctx context.Context, e Enrollment) error
	EnrollmentStatuses(ctx context.Context, employeeID string, courseIDs []string) (map[string]string, error)
	ExpireEnrollments(ctx context.Context, asOf time.Time) (int64, error)

	GetQuizByLesson(ctx context.Context, lessonID string) (Quiz, error)
	ListAttempts(ctx context.Context, lessonID, enrollmentID string) ([]Attempt, error)
	CreateAttempt(ctx context.Context, a Attempt) (Attempt, error)
	LockAttempt(ctx context.Context, attemptID string) (Attempt, error)
	SaveAttemptResult(ctx context.Context, a Attempt) error

	GetPath(ctx context.Context, pathID string) (Path, error)
	LockPath(ctx context.Context, pathID string) (Path, error)
	MarkPathPublished(ctx context.Context, pathID string, at time.Time) error
	GetPathEnrollment(ctx context.Context, id string) (PathEnrollment, error)
	LockPathEnrollment(ctx context.Context, id string) (PathEnrollment, error)
	CreatePathEnrollment(ctx context.Context, pe PathEnrollment) (PathEnrollment, bool, error)
	SavePathEnrollment(ctx context.Context, pe PathEnrollment) error
	ListOpenPathEnrollmentsForCourse(ctx context.Context, employeeID, courseID string) ([]string, error)
}
