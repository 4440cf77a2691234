package learning

import (
	"context"
	"math"
	"time"
)

// CourseTracker rolls lesson completions up into the enrollment.
type CourseTracker struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewCourseTracker(store StoreAPI) *CourseTracker {
	return &CourseTracker{Store: store, Now: time.Now}
}

// CourseProgress reports the enrollment after a recompute. Completed is true
// only on the call that moved it to completed.
type CourseProgress struct {
	Enrollment         Enrollment `json:"enrollment"`
	Completed          bool       `json:"completed"`
	CertificateEnabled bool       `json:"certificateEnabled"`
}

// ProgressPercent is round(100*done/total), 0 for an empty denominator and
// never above 100.
func ProgressPercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return min(int(math.Round(100*float64(done)/float64(total))), 100)
}

func (c *CourseTracker) UpdateProgress(ctx context.Context, enrollmentID string) (CourseProgress, error) {
	enrollment, err := c.Store.LockEnrollment(ctx, enrollmentID)
	if err != nil {
		return CourseProgress{}, err
	}
	if enrollment.Status == EnrollmentCompleted || enrollment.Status == EnrollmentExpired {
		return CourseProgress{Enrollment: enrollment}, nil
	}
	total, err := c.Store.CountActiveLessons(ctx, enrollment.CourseID)
	if err != nil {
		return CourseProgress{}, err
	}
	if total == 0 {
		return CourseProgress{Enrollment: enrollment}, nil
	}
	done, err := c.Store.CountCompletedLessons(ctx, enrollment.ID, enrollment.CourseID)
	if err != nil {
		return CourseProgress{}, err
	}

	now := c.Now().UTC()
	enrollment.ProgressPct = ProgressPercent(done, total)
	if enrollment.ProgressPct >= 100 {
		return c.complete(ctx, enrollment, now)
	}
	if enrollment.ProgressPct > 0 && enrollment.Status == EnrollmentNotStarted {
		enrollment.Status = EnrollmentInProgress
		enrollment.StartedAt = &now
	}
	if err := c.Store.SaveEnrollment(ctx, enrollment); err != nil {
		return CourseProgress{}, err
	}
	return CourseProgress{Enrollment: enrollment}, nil
}

// Complete marks an enrollment completed regardless of lesson counts, as long
// as every quiz lesson on the course has a passing attempt. It is a no-op for
// an enrollment that is already completed.
func (c *CourseTracker) Complete(ctx context.Context, enrollmentID string) (CourseProgress, error) {
	enrollment, err := c.Store.LockEnrollment(ctx, enrollmentID)
	if err != nil {
		return CourseProgress{}, err
	}
	switch enrollment.Status {
	case EnrollmentCompleted:
		return CourseProgress{Enrollment: enrollment}, nil
	case EnrollmentExpired:
		return CourseProgress{}, ErrEnrollmentExpired
	}
	passed, err := c.HasPassedAllQuizzes(ctx, enrollment.ID)
	if err != nil {
		return CourseProgress{}, err
	}
	if !passed {
		return CourseProgress{}, ErrQuizzesNotPassed
	}
	return c.complete(ctx, enrollment, c.Now().UTC())
}

func (c *CourseTracker) complete(ctx context.Context, enrollment Enrollment, now time.Time) (CourseProgress, error) {
	course, err := c.Store.GetCourse(ctx, enrollment.CourseID)
	if err != nil {
		return CourseProgress{}, err
	}
	enrollment.Status = EnrollmentCompleted
	enrollment.ProgressPct = 100
	enrollment.CompletedAt = &now
	if enrollment.StartedAt == nil {
		enrollment.StartedAt = &now
	}
	if err := c.Store.SaveEnrollment(ctx, enrollment); err != nil {
		return CourseProgress{}, err
	}
	return CourseProgress{
		Enrollment:         enrollment,
		Completed:          true,
		CertificateEnabled: course.Metadata.CertificateEnabled,
	}, nil
}

// HasPassedAllQuizzes checks the best submitted attempt of every active quiz
// lesson on the course.
func (c *CourseTracker) HasPassedAllQuizzes(ctx context.Context, enrollmentID string) (bool, error) {
	enrollment, err := c.Store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return false, err
	}
	lessonIDs, err := c.Store.ListActiveQuizLessonIDs(ctx, enrollment.CourseID)
	if err != nil {
		return false, err
	}
	for _, lessonID := range lessonIDs {
		attempts, err := c.Store.ListAttempts(ctx, lessonID, enrollment.ID)
		if err != nil {
			return false, err
		}
		best, ok := BestAttempt(attempts)
		if !ok || !best.IsPassed {
			return false, nil
		}
	}
	return true, nil
}

// BestAttempt returns the highest scoring submitted attempt.
func BestAttempt(attempts []Attempt) (Attempt, bool) {
	var best Attempt
	found := false
	for _, a := range attempts {
		if a.SubmittedAt == nil {
			continue
		}
		if !found || a.Score > best.Score {
			best = a
			found = true
		}
	}
	return best, found
}

// ExpireOverdue moves unfinished enrollments past their expiry to expired.
func (c *CourseTracker) ExpireOverdue(ctx context.Context) (int64, error) {
	return c.Store.ExpireEnrollments(ctx, c.Now().UTC())
}
