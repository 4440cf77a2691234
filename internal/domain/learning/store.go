package learning

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"talent/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const lessonColumns = "id, course_id, title, content_type, duration_est_min, position, is_active, is_required, completion_count, avg_completion_seconds"

const progressColumns = "id, enrollment_id, lesson_id, status, seconds_consumed, last_position_sec, started_at, completed_at"

const enrollmentColumns = "id, employee_id, course_id, source, status, progress_pct, started_at, completed_at, expires_at"

const attemptColumns = "id, lesson_id, enrollment_id, attempt_no, answers, score, is_passed, started_at, submitted_at"

const pathEnrollmentColumns = "id, employee_id, path_id, status, progress_pct, started_at, completed_at"

func (s *Store) GetLesson(ctx context.Context, lessonID string) (Lesson, error) {
	var l Lesson
	err := s.DB.QueryRow(ctx, "SELECT "+lessonColumns+" FROM lessons WHERE id = $1", lessonID).
		Scan(&l.ID, &l.CourseID, &l.Title, &l.ContentType, &l.DurationEstMin, &l.Position, &l.IsActive, &l.IsRequired, &l.CompletionCount, &l.AvgCompletionSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lesson{}, ErrLessonNotFound
	}
	return l, err
}

// RecordLessonCompletion folds one completion into the running average.
func (s *Store) RecordLessonCompletion(ctx context.Context, lessonID string, seconds float64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE lessons
    SET avg_completion_seconds = (avg_completion_seconds * completion_count + $1) / (completion_count + 1),
        completion_count = completion_count + 1
    WHERE id = $2
  `, seconds, lessonID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLessonNotFound
	}
	return nil
}

func (s *Store) CountActiveLessons(ctx context.Context, courseID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM lessons WHERE course_id = $1 AND is_active", courseID).Scan(&n)
	return n, err
}

func (s *Store) CountCompletedLessons(ctx context.Context, enrollmentID, courseID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM lesson_progress lp
    JOIN lessons l ON l.id = lp.lesson_id
    WHERE lp.enrollment_id = $1 AND l.course_id = $2 AND l.is_active AND lp.status = $3
  `, enrollmentID, courseID, ProgressCompleted).Scan(&n)
	return n, err
}

func (s *Store) ListActiveQuizLessonIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM lessons
    WHERE course_id = $1 AND is_active AND content_type = $2
    ORDER BY position
  `, courseID, ContentQuiz)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// EnsureLessonProgress returns the locked progress row, creating it first
// when the learner has never touched the lesson.
func (s *Store) EnsureLessonProgress(ctx context.Context, enrollmentID, lessonID string) (LessonProgress, error) {
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO lesson_progress (enrollment_id, lesson_id, status)
    VALUES ($1,$2,$3)
    ON CONFLICT (enrollment_id, lesson_id) DO NOTHING
  `, enrollmentID, lessonID, ProgressNotStarted); err != nil {
		return LessonProgress{}, err
	}
	var p LessonProgress
	err := s.DB.QueryRow(ctx, "SELECT "+progressColumns+" FROM lesson_progress WHERE enrollment_id = $1 AND lesson_id = $2 FOR UPDATE", enrollmentID, lessonID).
		Scan(&p.ID, &p.EnrollmentID, &p.LessonID, &p.Status, &p.SecondsConsumed, &p.LastPositionSec, &p.StartedAt, &p.CompletedAt)
	return p, err
}

func (s *Store) SaveLessonProgress(ctx context.Context, p LessonProgress) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE lesson_progress
    SET status = $1, seconds_consumed = $2, last_position_sec = $3, started_at = $4, completed_at = $5
    WHERE id = $6
  `, p.Status, p.SecondsConsumed, p.LastPositionSec, p.StartedAt, p.CompletedAt, p.ID)
	return err
}

func (s *Store) GetCourse(ctx context.Context, courseID string) (Course, error) {
	var c Course
	var metadata []byte
	err := s.DB.QueryRow(ctx, "SELECT id, title, metadata FROM courses WHERE id = $1", courseID).Scan(&c.ID, &c.Title, &metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return Course{}, ErrCourseNotFound
	}
	if err != nil {
		return Course{}, err
	}
	if err := unmarshalMetadata(metadata, &c.Metadata); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *Store) GetEnrollment(ctx context.Context, enrollmentID string) (Enrollment, error) {
	return scanEnrollment(s.DB.QueryRow(ctx, "SELECT "+enrollmentColumns+" FROM enrollments WHERE id = $1", enrollmentID))
}

func (s *Store) LockEnrollment(ctx context.Context, enrollmentID string) (Enrollment, error) {
	return scanEnrollment(s.DB.QueryRow(ctx, "SELECT "+enrollmentColumns+" FROM enrollments WHERE id = $1 FOR UPDATE", enrollmentID))
}

// CreateEnrollment reports false and the existing row when the employee is
// already enrolled in the course.
func (s *Store) CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, bool, error) {
	created, err := scanEnrollment(s.DB.QueryRow(ctx, `
    INSERT INTO enrollments (employee_id, course_id, source, status, expires_at)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (employee_id, course_id) DO NOTHING
    RETURNING `+enrollmentColumns,
		e.EmployeeID, e.CourseID, e.Source, e.Status, e.ExpiresAt))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrEnrollmentNotFound) {
		return Enrollment{}, false, err
	}
	existing, err := scanEnrollment(s.DB.QueryRow(ctx, "SELECT "+enrollmentColumns+" FROM enrollments WHERE employee_id = $1 AND course_id = $2", e.EmployeeID, e.CourseID))
	return existing, false, err
}

func (s *Store) SaveEnrollment(ctx context.Context, e Enrollment) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE enrollments
    SET status = $1, progress_pct = $2, started_at = $3, completed_at = $4
    WHERE id = $5
  `, e.Status, e.ProgressPct, e.StartedAt, e.CompletedAt, e.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

func (s *Store) EnrollmentStatuses(ctx context.Context, employeeID string, courseIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, "SELECT course_id, status FROM enrollments WHERE employee_id = $1 AND course_id = ANY($2)", employeeID, courseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var courseID, status string
		if err := rows.Scan(&courseID, &status); err != nil {
			return nil, err
		}
		out[courseID] = status
	}
	return out, rows.Err()
}

func (s *Store) ExpireEnrollments(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE enrollments SET status = $1
    WHERE expires_at IS NOT NULL AND expires_at < $2 AND status IN ($3, $4)
  `, EnrollmentExpired, asOf, EnrollmentNotStarted, EnrollmentInProgress)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetQuizByLesson loads the quiz with its questions and options in position order.
func (s *Store) GetQuizByLesson(ctx context.Context, lessonID string) (Quiz, error) {
	var q Quiz
	err := s.DB.QueryRow(ctx, `
    SELECT id, lesson_id, passing_score, attempts_allowed, time_limit_minutes, randomize_questions, randomize_options
    FROM lesson_quizzes WHERE lesson_id = $1
  `, lessonID).Scan(&q.ID, &q.LessonID, &q.PassingScore, &q.AttemptsAllowed, &q.TimeLimitMinutes, &q.RandomizeQuestions, &q.RandomizeOptions)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quiz{}, ErrQuizNotFound
	}
	if err != nil {
		return Quiz{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT q.id, q.type, q.prompt, q.weight, o.id, o.label, o.is_correct
    FROM quiz_questions q
    LEFT JOIN quiz_options o ON o.question_id = q.id
    WHERE q.quiz_id = $1
    ORDER BY q.position, q.id, o.position, o.id
  `, q.ID)
	if err != nil {
		return Quiz{}, err
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var question Question
		var optionID, label *string
		var isCorrect *bool
		if err := rows.Scan(&question.ID, &question.Type, &question.Prompt, &question.Weight, &optionID, &label, &isCorrect); err != nil {
			return Quiz{}, err
		}
		i, ok := index[question.ID]
		if !ok {
			i = len(q.Questions)
			index[question.ID] = i
			q.Questions = append(q.Questions, question)
		}
		if optionID != nil {
			q.Questions[i].Options = append(q.Questions[i].Options, Option{ID: *optionID, Label: deref(label), IsCorrect: isCorrect != nil && *isCorrect})
		}
	}
	return q, rows.Err()
}

func (s *Store) ListAttempts(ctx context.Context, lessonID, enrollmentID string) ([]Attempt, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+attemptColumns+" FROM quiz_attempts WHERE lesson_id = $1 AND enrollment_id = $2 ORDER BY attempt_no", lessonID, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateAttempt relies on the unique attempt number; losing a race surfaces
// as ErrAttemptConflict without aborting the transaction.
func (s *Store) CreateAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return Attempt{}, err
	}
	created, err := scanAttempt(s.DB.QueryRow(ctx, `
    INSERT INTO quiz_attempts (lesson_id, enrollment_id, attempt_no, answers, started_at)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (lesson_id, enrollment_id, attempt_no) DO NOTHING
    RETURNING `+attemptColumns,
		a.LessonID, a.EnrollmentID, a.AttemptNo, answers, a.StartedAt))
	if errors.Is(err, ErrAttemptNotFound) {
		return Attempt{}, ErrAttemptConflict
	}
	return created, err
}

func (s *Store) LockAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	return scanAttempt(s.DB.QueryRow(ctx, "SELECT "+attemptColumns+" FROM quiz_attempts WHERE id = $1 FOR UPDATE", attemptID))
}

func (s *Store) SaveAttemptResult(ctx context.Context, a Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE quiz_attempts SET answers = $1, score = $2, is_passed = $3, submitted_at = $4
    WHERE id = $5
  `, answers, a.Score, a.IsPassed, a.SubmittedAt, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (s *Store) GetPath(ctx context.Context, pathID string) (Path, error) {
	return s.loadPath(ctx, "SELECT id, title, status, published_at, metadata FROM learning_paths WHERE id = $1", pathID)
}

func (s *Store) LockPath(ctx context.Context, pathID string) (Path, error) {
	return s.loadPath(ctx, "SELECT id, title, status, published_at, metadata FROM learning_paths WHERE id = $1 FOR UPDATE", pathID)
}

func (s *Store) loadPath(ctx context.Context, query, pathID string) (Path, error) {
	var p Path
	var metadata []byte
	err := s.DB.QueryRow(ctx, query, pathID).Scan(&p.ID, &p.Title, &p.Status, &p.PublishedAt, &metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return Path{}, ErrPathNotFound
	}
	if err != nil {
		return Path{}, err
	}
	if err := unmarshalMetadata(metadata, &p.Metadata); err != nil {
		return Path{}, err
	}

	rows, err := s.DB.Query(ctx, "SELECT course_id, position FROM learning_path_courses WHERE path_id = $1 ORDER BY position, course_id", pathID)
	if err != nil {
		return Path{}, err
	}
	p.Courses, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (PathCourse, error) {
		var pc PathCourse
		err := row.Scan(&pc.CourseID, &pc.Position)
		return pc, err
	})
	return p, err
}

func (s *Store) MarkPathPublished(ctx context.Context, pathID string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, "UPDATE learning_paths SET status = $1, published_at = $2 WHERE id = $3", PathPublished, at, pathID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPathNotFound
	}
	return nil
}

func (s *Store) GetPathEnrollment(ctx context.Context, id string) (PathEnrollment, error) {
	return scanPathEnrollment(s.DB.QueryRow(ctx, "SELECT "+pathEnrollmentColumns+" FROM path_enrollments WHERE id = $1", id))
}

func (s *Store) LockPathEnrollment(ctx context.Context, id string) (PathEnrollment, error) {
	return scanPathEnrollment(s.DB.QueryRow(ctx, "SELECT "+pathEnrollmentColumns+" FROM path_enrollments WHERE id = $1 FOR UPDATE", id))
}

func (s *Store) CreatePathEnrollment(ctx context.Context, pe PathEnrollment) (PathEnrollment, bool, error) {
	created, err := scanPathEnrollment(s.DB.QueryRow(ctx, `
    INSERT INTO path_enrollments (employee_id, path_id, status)
    VALUES ($1,$2,$3)
    ON CONFLICT (employee_id, path_id) DO NOTHING
    RETURNING `+pathEnrollmentColumns,
		pe.EmployeeID, pe.PathID, pe.Status))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrPathEnrollmentNotFound) {
		return PathEnrollment{}, false, err
	}
	existing, err := scanPathEnrollment(s.DB.QueryRow(ctx, "SELECT "+pathEnrollmentColumns+" FROM path_enrollments WHERE employee_id = $1 AND path_id = $2", pe.EmployeeID, pe.PathID))
	return existing, false, err
}

func (s *Store) SavePathEnrollment(ctx context.Context, pe PathEnrollment) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE path_enrollments
    SET status = $1, progress_pct = $2, started_at = $3, completed_at = $4
    WHERE id = $5
  `, pe.Status, pe.ProgressPct, pe.StartedAt, pe.CompletedAt, pe.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPathEnrollmentNotFound
	}
	return nil
}

// ListOpenPathEnrollmentsForCourse finds the employee's unfinished path
// enrollments whose path contains the course.
func (s *Store) ListOpenPathEnrollmentsForCourse(ctx context.Context, employeeID, courseID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT pe.id
    FROM path_enrollments pe
    JOIN learning_path_courses pc ON pc.path_id = pe.path_id
    WHERE pe.employee_id = $1 AND pc.course_id = $2 AND pe.status IN ($3, $4)
    ORDER BY pe.created_at
  `, employeeID, courseID, PathEnrollmentAssigned, PathEnrollmentInProgress)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanEnrollment(row pgx.Row) (Enrollment, error) {
	var e Enrollment
	err := row.Scan(&e.ID, &e.EmployeeID, &e.CourseID, &e.Source, &e.Status, &e.ProgressPct, &e.StartedAt, &e.CompletedAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Enrollment{}, ErrEnrollmentNotFound
	}
	return e, err
}

func scanAttempt(row pgx.Row) (Attempt, error) {
	var a Attempt
	var answers []byte
	err := row.Scan(&a.ID, &a.LessonID, &a.EnrollmentID, &a.AttemptNo, &answers, &a.Score, &a.IsPassed, &a.StartedAt, &a.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attempt{}, ErrAttemptNotFound
	}
	if err != nil {
		return Attempt{}, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return Attempt{}, err
		}
	}
	return a, nil
}

func scanPathEnrollment(row pgx.Row) (PathEnrollment, error) {
	var pe PathEnrollment
	err := row.Scan(&pe.ID, &pe.EmployeeID, &pe.PathID, &pe.Status, &pe.ProgressPct, &pe.StartedAt, &pe.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PathEnrollment{}, ErrPathEnrollmentNotFound
	}
	return pe, err
}

func unmarshalMetadata(raw []byte, dst *Metadata) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
