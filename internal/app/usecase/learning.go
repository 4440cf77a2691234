package usecase

import (
	"context"
	"fmt"

	"talent/internal/domain/apperror"
	"talent/internal/domain/auth"
	"talent/internal/domain/certificate"
	"talent/internal/domain/learning"
	"talent/internal/platform/events"
	"talent/internal/platform/metrics"
)

var errNotEnrollmentOwner = fmt.Errorf("%w: enrollment belongs to another employee", apperror.ErrForbidden)

// LessonResult is the lesson state after a progress mutation plus whatever
// the cascade changed above it.
type LessonResult struct {
	Progress     learning.LessonProgress   `json:"progress"`
	Enrollment   *learning.Enrollment      `json:"enrollment,omitempty"`
	Paths        []learning.PathEnrollment `json:"paths,omitempty"`
	Certificates []certificate.Certificate `json:"certificates,omitempty"`
}

type cascadeResult struct {
	enrollment   *learning.Enrollment
	paths        []learning.PathEnrollment
	certificates []certificate.Certificate
}

// authorizeEnrollment lets employees act on their own enrollments only.
func (u *unit) authorizeEnrollment(ctx context.Context, actor auth.Actor, enrollmentID string) error {
	enrollment, err := u.learningStore.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if actor.CanOverride() {
		return nil
	}
	employeeID, err := u.auth.EmployeeIDByUserID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if employeeID == "" || employeeID != enrollment.EmployeeID {
		return errNotEnrollmentOwner
	}
	return nil
}

// cascadeFromLesson recomputes the course, every open path containing it, and
// issues certificates where completion enables them.
func (u *unit) cascadeFromLesson(ctx context.Context, actor auth.Actor, enrollmentID string) (cascadeResult, error) {
	var out cascadeResult
	cp, err := u.courses.UpdateProgress(ctx, enrollmentID)
	if err != nil {
		return out, err
	}
	enrollment := cp.Enrollment
	out.enrollment = &enrollment
	if !cp.Completed {
		return out, nil
	}
	return u.afterCourseCompleted(ctx, actor, cp, out)
}

func (u *unit) afterCourseCompleted(ctx context.Context, actor auth.Actor, cp learning.CourseProgress, out cascadeResult) (cascadeResult, error) {
	e := cp.Enrollment
	u.fx.count(metrics.CoursesCompleted)
	u.fx.emit(events.Event{
		Type:     events.CourseCompleted,
		EntityID: e.ID,
		ActorID:  actor.UserID,
		Payload:  map[string]any{"employeeId": e.EmployeeID, "courseId": e.CourseID},
	})
	if err := u.record(ctx, actor, "enrollment.complete", "enrollment", e.ID, nil, e); err != nil {
		return out, err
	}
	if cp.CertificateEnabled {
		cert, created, err := u.certs.GenerateForCourse(ctx, e.EmployeeID, e.CourseID)
		if err != nil {
			return out, err
		}
		if err := u.certificateIssued(ctx, actor, cert, created); err != nil {
			return out, err
		}
		out.certificates = append(out.certificates, cert)
	}

	pathEnrollmentIDs, err := u.learningStore.ListOpenPathEnrollmentsForCourse(ctx, e.EmployeeID, e.CourseID)
	if err != nil {
		return out, err
	}
	for _, id := range pathEnrollmentIDs {
		pp, err := u.paths.UpdateProgress(ctx, id)
		if err != nil {
			return out, err
		}
		out.paths = append(out.paths, pp.PathEnrollment)
		certs, err := u.afterPathProgress(ctx, actor, pp)
		if err != nil {
			return out, err
		}
		out.certificates = append(out.certificates, certs...)
	}
	return out, nil
}

func (u *unit) afterPathProgress(ctx context.Context, actor auth.Actor, pp learning.PathProgress) ([]certificate.Certificate, error) {
	if !pp.Completed {
		return nil, nil
	}
	pe := pp.PathEnrollment
	u.fx.count(metrics.PathsCompleted)
	u.fx.emit(events.Event{
		Type:     events.PathCompleted,
		EntityID: pe.ID,
		ActorID:  actor.UserID,
		Payload:  map[string]any{"employeeId": pe.EmployeeID, "pathId": pe.PathID},
	})
	if err := u.record(ctx, actor, "path_enrollment.complete", "path_enrollment", pe.ID, nil, pe); err != nil {
		return nil, err
	}
	if !pp.CertificateEnabled {
		return nil, nil
	}
	cert, created, err := u.certs.GenerateForLearningPath(ctx, pe.EmployeeID, pe.PathID)
	if err != nil {
		return nil, err
	}
	if err := u.certificateIssued(ctx, actor, cert, created); err != nil {
		return nil, err
	}
	return []certificate.Certificate{cert}, nil
}

func (u *unit) certificateIssued(ctx context.Context, actor auth.Actor, cert certificate.Certificate, created bool) error {
	if !created {
		return nil
	}
	u.fx.count(metrics.CertificatesIssued)
	u.fx.certificates = append(u.fx.certificates, cert.CertificateID)
	u.fx.emit(events.Event{
		Type:       events.CertificateIssued,
		EntityID:   cert.CertificateID,
		ActorID:    actor.UserID,
		Recipients: []string{cert.EmployeeID},
		Payload:    map[string]any{"type": cert.Type, "subjectId": cert.SubjectID()},
	})
	return u.record(ctx, actor, "certificate.issue", "certificate", cert.ID, nil, cert)
}

func (c cascadeResult) apply(r *LessonResult) {
	r.Enrollment = c.enrollment
	r.Paths = c.paths
	r.Certificates = c.certificates
}

func (s *Service) StartLesson(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string) (LessonResult, error) {
	var out LessonResult
	err := s.inTx(ctx, func(u *unit) error {
		if err := u.authorizeEnrollment(ctx, actor, enrollmentID); err != nil {
			return err
		}
		progress, err := u.lessons.Start(ctx, enrollmentID, lessonID)
		if err != nil {
			return err
		}
		out.Progress = progress
		return u.record(ctx, actor, "lesson.start", "lesson_progress", progress.ID, nil, progress)
	})
	return out, err
}

func (s *Service) ViewLesson(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string) (LessonResult, error) {
	var out LessonResult
	err := s.inTx(ctx, func(u *unit) error {
		if err := u.authorizeEnrollment(ctx, actor, enrollmentID); err != nil {
			return err
		}
		progress, err := u.lessons.MarkViewed(ctx, enrollmentID, lessonID)
		if err != nil {
			return err
		}
		out.Progress = progress
		return u.record(ctx, actor, "lesson.view", "lesson_progress", progress.ID, nil, progress)
	})
	return out, err
}

// PingLesson stores a playback position. Crossing the auto-complete
// threshold runs the same cascade as an explicit completion.
func (s *Service) PingLesson(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string, positionSec, consumedSec int) (LessonResult, error) {
	var out LessonResult
	err := s.inTx(ctx, func(u *unit) error {
		if err := u.authorizeEnrollment(ctx, actor, enrollmentID); err != nil {
			return err
		}
		progress, completed, err := u.lessons.UpdateProgress(ctx, enrollmentID, lessonID, positionSec, consumedSec)
		if err != nil {
			return err
		}
		out.Progress = progress
		if !completed {
			return nil
		}
		return u.lessonCompleted(ctx, actor, progress, &out)
	})
	return out, err
}

// CompleteLesson is idempotent. A repeat call changes nothing and emits nothing.
func (s *Service) CompleteLesson(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string) (LessonResult, error) {
	var out LessonResult
	err := s.inTx(ctx, func(u *unit) error {
		if err := u.authorizeEnrollment(ctx, actor, enrollmentID); err != nil {
			return err
		}
		progress, changed, err := u.lessons.Complete(ctx, enrollmentID, lessonID)
		if err != nil {
			return err
		}
		out.Progress = progress
		if !changed {
			return nil
		}
		return u.lessonCompleted(ctx, actor, progress, &out)
	})
	return out, err
}

func (u *unit) lessonCompleted(ctx context.Context, actor auth.Actor, progress learning.LessonProgress, out *LessonResult) error {
	u.fx.count(metrics.LessonsCompleted)
	if err := u.record(ctx, actor, "lesson.complete", "lesson_progress", progress.ID, nil, progress); err != nil {
		return err
	}
	cascade, err := u.cascadeFromLesson(ctx, actor, progress.EnrollmentID)
	if err != nil {
		return err
	}
	cascade.apply(out)
	return nil
}

func (s *Service) PresentQuiz(ctx context.Context, lessonID string) (learning.PresentedQuiz, error) {
	var out learning.PresentedQuiz
	err := s.read(func(u *unit) error {
		quiz, err := u.quizzes.Present(ctx, lessonID)
		out = quiz
		return err
	})
	return out, err
}

type StartedAttempt struct {
	Attempt              learning.Attempt `json:"attempt"`
	TimeRemainingSeconds *int             `json:"timeRemainingSeconds"`
}

func (s *Service) StartQuizAttempt(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string) (StartedAttempt, error) {
	var out StartedAttempt
	err := s.inTx(ctx, func(u *unit) error {
		if err := u.authorizeEnrollment(ctx, actor, enrollmentID); err != nil {
			return err
		}
		attempt, err := u.quizzes.StartAttempt(ctx, enrollmentID, lessonID)
		if err != nil {
			return err
		}
		quiz, err := u.learningStore.GetQuizByLesson(ctx, lessonID)
		if err != nil {
			return err
		}
		out = StartedAttempt{Attempt: attempt, TimeRemainingSeconds: learning.TimeRemainingSeconds(quiz, attempt, u.now)}
		return u.record(ctx, actor, "quiz_attempt.start", "quiz_attempt", attempt.ID, nil, attempt)
	})
	return out, err
}

type GradedAttempt struct {
	learning.SubmitOutcome
	Lesson *LessonResult `json:"lesson,omitempty"`
}

// SubmitQuizAttempt grades the attempt. A pass completes the quiz lesson and
// cascades like any other completion.
func (s *Service) SubmitQuizAttempt(ctx context.Context, actor auth.Actor, attemptID string, answers learning.Answers) (GradedAttempt, error) {
	var out GradedAttempt
	err := s.inTx(ctx, func(u *unit) error {
		attempt, err := u.learningStore.LockAttempt(ctx, attemptID)
		if err != nil {
			return err
		}
		if err := u.authorizeEnrollment(ctx, actor, attempt.EnrollmentID); err != nil {
			return err
		}
		outcome, err := u.quizzes.SubmitAttempt(ctx, attemptID, answers)
		if err != nil {
			return err
		}
		out.SubmitOutcome = outcome
		u.fx.count(metrics.QuizAttemptsGraded)
		u.fx.emit(events.Event{
			Type:     events.QuizAttemptGraded,
			EntityID: outcome.Attempt.ID,
			ActorID:  actor.UserID,
			Payload:  map[string]any{"score": outcome.Grade.Score, "passed": outcome.Grade.Passed},
		})
		if err := u.record(ctx, actor, "quiz_attempt.submit", "quiz_attempt", outcome.Attempt.ID, nil, outcome.Attempt); err != nil {
			return err
		}
		if !outcome.Grade.Passed {
			return nil
		}
		progress, changed, err := u.lessons.Complete(ctx, attempt.EnrollmentID, attempt.LessonID)
		if err != nil {
			return err
		}
		lesson := LessonResult{Progress: progress}
		if changed {
			if err := u.lessonCompleted(ctx, actor, progress, &lesson); err != nil {
				return err
			}
		}
		out.Lesson = &lesson
		return nil
	})
	return out, err
}

func (s *Service) PublishPath(ctx context.Context, actor auth.Actor, pathID string) (learning.Path, error) {
	var out learning.Path
	err := s.inTx(ctx, func(u *unit) error {
		path, err := u.paths.Publish(ctx, pathID)
		if err != nil {
			return err
		}
		out = path
		return u.record(ctx, actor, "learning_path.publish", "learning_path", path.ID,
			map[string]string{"status": learning.PathDraft}, map[string]string{"status": path.Status})
	})
	return out, err
}

type PathEnrollmentResult struct {
	PathEnrollment learning.PathEnrollment   `json:"pathEnrollment"`
	Created        bool                      `json:"created"`
	Certificates   []certificate.Certificate `json:"certificates,omitempty"`
}

// EnrollInPath assigns the path and all its courses, then counts courses the
// employee already finished.
func (s *Service) EnrollInPath(ctx context.Context, actor auth.Actor, employeeID, pathID string) (PathEnrollmentResult, error) {
	var out PathEnrollmentResult
	err := s.inTx(ctx, func(u *unit) error {
		pe, created, err := u.paths.Enroll(ctx, employeeID, pathID)
		if err != nil {
			return err
		}
		out.Created = created
		out.PathEnrollment = pe
		if !created {
			return nil
		}
		pp, err := u.paths.UpdateProgress(ctx, pe.ID)
		if err != nil {
			return err
		}
		out.PathEnrollment = pp.PathEnrollment
		if err := u.record(ctx, actor, "path_enrollment.create", "path_enrollment", pe.ID, nil, pp.PathEnrollment); err != nil {
			return err
		}
		certs, err := u.afterPathProgress(ctx, actor, pp)
		out.Certificates = certs
		return err
	})
	return out, err
}

// EnrollmentView is an enrollment plus whether its quiz lessons are passed.
type EnrollmentView struct {
	learning.Enrollment
	QuizzesPassed bool `json:"quizzesPassed"`
}

func (s *Service) GetEnrollment(ctx context.Context, enrollmentID string) (EnrollmentView, error) {
	var out EnrollmentView
	err := s.read(func(u *unit) error {
		e, err := u.learningStore.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}
		passed, err := u.courses.HasPassedAllQuizzes(ctx, enrollmentID)
		if err != nil {
			return err
		}
		out = EnrollmentView{Enrollment: e, QuizzesPassed: passed}
		return nil
	})
	return out, err
}

type CompletedEnrollment struct {
	Enrollment   learning.Enrollment       `json:"enrollment"`
	Completed    bool                      `json:"completed"`
	Paths        []learning.PathEnrollment `json:"paths,omitempty"`
	Certificates []certificate.Certificate `json:"certificates,omitempty"`
}

// CompleteEnrollment closes a course enrollment by hand, for courses whose
// remaining lessons cannot be tracked. Quizzes still have to be passed.
func (s *Service) CompleteEnrollment(ctx context.Context, actor auth.Actor, enrollmentID string) (CompletedEnrollment, error) {
	var out CompletedEnrollment
	err := s.inTx(ctx, func(u *unit) error {
		cp, err := u.courses.Complete(ctx, enrollmentID)
		if err != nil {
			return err
		}
		out.Enrollment = cp.Enrollment
		out.Completed = cp.Completed
		if !cp.Completed {
			return nil
		}
		cascade, err := u.afterCourseCompleted(ctx, actor, cp, cascadeResult{})
		if err != nil {
			return err
		}
		out.Paths = cascade.paths
		out.Certificates = cascade.certificates
		return nil
	})
	return out, err
}

// ExpireEnrollments is run by the scheduler.
func (s *Service) ExpireEnrollments(ctx context.Context) (any, error) {
	var expired int64
	err := s.inTx(ctx, func(u *unit) error {
		n, err := u.courses.ExpireOverdue(ctx)
		expired = n
		return err
	})
	return map[string]int64{"expired": expired}, err
}
