package learning

import (
	"context"
	"time"
)

// LessonEngine owns the per-lesson state machine:
// not_started -> in_progress -> completed, with completed terminal.
type LessonEngine struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewLessonEngine(store StoreAPI) *LessonEngine {
	return &LessonEngine{Store: store, Now: time.Now}
}

// ShouldAutoComplete only applies to timed media. Everything else needs an
// explicit completion or a passed quiz.
func ShouldAutoComplete(lesson Lesson, progress LessonProgress) bool {
	switch lesson.ContentType {
	case ContentVideo, ContentAudio:
	default:
		return false
	}
	duration := float64(lesson.DurationEstMin * 60)
	if duration <= 0 {
		return false
	}
	return float64(progress.LastPositionSec)/duration >= autoCompleteRatio
}

type lessonContext struct {
	lesson     Lesson
	enrollment Enrollment
	progress   LessonProgress
}

func (e *LessonEngine) load(ctx context.Context, enrollmentID, lessonID string) (lessonContext, error) {
	enrollment, err := e.Store.LockEnrollment(ctx, enrollmentID)
	if err != nil {
		return lessonContext{}, err
	}
	if enrollment.Status == EnrollmentExpired {
		return lessonContext{}, ErrEnrollmentExpired
	}
	lesson, err := e.Store.GetLesson(ctx, lessonID)
	if err != nil {
		return lessonContext{}, err
	}
	if err := checkLessonForEnrollment(lesson, enrollment); err != nil {
		return lessonContext{}, err
	}
	progress, err := e.Store.EnsureLessonProgress(ctx, enrollmentID, lessonID)
	if err != nil {
		return lessonContext{}, err
	}
	return lessonContext{lesson: lesson, enrollment: enrollment, progress: progress}, nil
}

// begin moves a not_started lesson to in_progress and starts the parent
// enrollment when it has not started yet.
func (e *LessonEngine) begin(ctx context.Context, lc *lessonContext, now time.Time) error {
	if lc.progress.Status != ProgressNotStarted {
		return nil
	}
	lc.progress.Status = ProgressInProgress
	lc.progress.StartedAt = &now
	if lc.enrollment.Status == EnrollmentNotStarted {
		lc.enrollment.Status = EnrollmentInProgress
		lc.enrollment.StartedAt = &now
		if err := e.Store.SaveEnrollment(ctx, lc.enrollment); err != nil {
			return err
		}
	}
	return nil
}

func (e *LessonEngine) Start(ctx context.Context, enrollmentID, lessonID string) (LessonProgress, error) {
	lc, err := e.load(ctx, enrollmentID, lessonID)
	if err != nil {
		return LessonProgress{}, err
	}
	if lc.progress.Status != ProgressNotStarted {
		return lc.progress, nil
	}
	if err := e.begin(ctx, &lc, e.Now().UTC()); err != nil {
		return LessonProgress{}, err
	}
	if err := e.Store.SaveLessonProgress(ctx, lc.progress); err != nil {
		return LessonProgress{}, err
	}
	return lc.progress, nil
}

// MarkViewed starts passive content without completing it.
func (e *LessonEngine) MarkViewed(ctx context.Context, enrollmentID, lessonID string) (LessonProgress, error) {
	return e.Start(ctx, enrollmentID, lessonID)
}

// UpdateProgress records a playback ping. It reports true when the ping
// crossed the auto-complete threshold and completed the lesson.
func (e *LessonEngine) UpdateProgress(ctx context.Context, enrollmentID, lessonID string, positionSec, consumedSec int) (LessonProgress, bool, error) {
	if positionSec < 0 || consumedSec < 0 {
		return LessonProgress{}, false, ErrNegativeProgress
	}
	lc, err := e.load(ctx, enrollmentID, lessonID)
	if err != nil {
		return LessonProgress{}, false, err
	}
	if lc.progress.Status == ProgressCompleted {
		return lc.progress, false, nil
	}

	now := e.Now().UTC()
	if err := e.begin(ctx, &lc, now); err != nil {
		return LessonProgress{}, false, err
	}
	lc.progress.Status = ProgressInProgress
	lc.progress.LastPositionSec = positionSec
	lc.progress.SecondsConsumed = consumedSec

	if ShouldAutoComplete(lc.lesson, lc.progress) {
		return e.finish(ctx, lc, now)
	}
	if err := e.Store.SaveLessonProgress(ctx, lc.progress); err != nil {
		return LessonProgress{}, false, err
	}
	return lc.progress, false, nil
}

// Complete is idempotent: a completed lesson is returned unchanged and false
// is reported, so no stats or cascades run twice.
func (e *LessonEngine) Complete(ctx context.Context, enrollmentID, lessonID string) (LessonProgress, bool, error) {
	lc, err := e.load(ctx, enrollmentID, lessonID)
	if err != nil {
		return LessonProgress{}, false, err
	}
	if lc.progress.Status == ProgressCompleted {
		return lc.progress, false, nil
	}
	now := e.Now().UTC()
	if err := e.begin(ctx, &lc, now); err != nil {
		return LessonProgress{}, false, err
	}
	return e.finish(ctx, lc, now)
}

func (e *LessonEngine) finish(ctx context.Context, lc lessonContext, now time.Time) (LessonProgress, bool, error) {
	lc.progress.Status = ProgressCompleted
	lc.progress.CompletedAt = &now
	if err := e.Store.SaveLessonProgress(ctx, lc.progress); err != nil {
		return LessonProgress{}, false, err
	}
	if err := e.Store.RecordLessonCompletion(ctx, lc.lesson.ID, completionSeconds(lc.progress)); err != nil {
		return LessonProgress{}, false, err
	}
	return lc.progress, true, nil
}

// completionSeconds prefers wall time between start and completion and falls
// back to reported consumption.
func completionSeconds(p LessonProgress) float64 {
	if p.StartedAt != nil && p.CompletedAt != nil {
		if elapsed := p.CompletedAt.Sub(*p.StartedAt).Seconds(); elapsed > 0 {
			return elapsed
		}
	}
	return float64(p.SecondsConsumed)
}

func checkLessonForEnrollment(lesson Lesson, enrollment Enrollment) error {
	if lesson.CourseID != enrollment.CourseID {
		return ErrLessonNotInCourse
	}
	if !lesson.IsActive {
		return ErrLessonInactive
	}
	return nil
}
