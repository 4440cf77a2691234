package learning

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type memStore struct {
	lessons         map[string]Lesson
	courses         map[string]Course
	quizzes         map[string]Quiz
	progress        map[string]LessonProgress
	enrollments     map[string]Enrollment
	attempts        map[string]Attempt
	paths           map[string]Path
	pathEnrollments map[string]PathEnrollment
	seq             int
}

func newMemStore() *memStore {
	return &memStore{
		lessons:         map[string]Lesson{},
		courses:         map[string]Course{},
		quizzes:         map[string]Quiz{},
		progress:        map[string]LessonProgress{},
		enrollments:     map[string]Enrollment{},
		attempts:        map[string]Attempt{},
		paths:           map[string]Path{},
		pathEnrollments: map[string]PathEnrollment{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addCourse(title string, certificate bool, lessons ...Lesson) Course {
	c := Course{ID: m.nextID("course"), Title: title, Metadata: Metadata{CertificateEnabled: certificate}}
	m.courses[c.ID] = c
	for i, l := range lessons {
		l.ID = m.nextID("lesson")
		l.CourseID = c.ID
		l.Position = i
		m.lessons[l.ID] = l
	}
	return c
}

func (m *memStore) courseLessons(courseID string) []Lesson {
	var out []Lesson
	for _, l := range m.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (m *memStore) enroll(employeeID, courseID string) Enrollment {
	e, _, _ := m.CreateEnrollment(context.Background(), Enrollment{EmployeeID: employeeID, CourseID: courseID, Source: SourceManual, Status: EnrollmentNotStarted})
	return e
}

func (m *memStore) GetLesson(_ context.Context, id string) (Lesson, error) {
	l, ok := m.lessons[id]
	if !ok {
		return Lesson{}, ErrLessonNotFound
	}
	return l, nil
}

func (m *memStore) RecordLessonCompletion(_ context.Context, id string, seconds float64) error {
	l, ok := m.lessons[id]
	if !ok {
		return ErrLessonNotFound
	}
	l.AvgCompletionSeconds = (l.AvgCompletionSeconds*float64(l.CompletionCount) + seconds) / float64(l.CompletionCount+1)
	l.CompletionCount++
	m.lessons[id] = l
	return nil
}

func (m *memStore) CountActiveLessons(_ context.Context, courseID string) (int, error) {
	n := 0
	for _, l := range m.courseLessons(courseID) {
		if l.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountCompletedLessons(_ context.Context, enrollmentID, courseID string) (int, error) {
	n := 0
	for _, p := range m.progress {
		l := m.lessons[p.LessonID]
		if p.EnrollmentID == enrollmentID && l.CourseID == courseID && l.IsActive && p.Status == ProgressCompleted {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListActiveQuizLessonIDs(_ context.Context, courseID string) ([]string, error) {
	var ids []string
	for _, l := range m.courseLessons(courseID) {
		if l.IsActive && l.ContentType == ContentQuiz {
			ids = append(ids, l.ID)
		}
	}
	return ids, nil
}

func (m *memStore) EnsureLessonProgress(_ context.Context, enrollmentID, lessonID string) (LessonProgress, error) {
	key := enrollmentID + "/" + lessonID
	p, ok := m.progress[key]
	if !ok {
		p = LessonProgress{ID: m.nextID("progress"), EnrollmentID: enrollmentID, LessonID: lessonID, Status: ProgressNotStarted}
		m.progress[key] = p
	}
	return p, nil
}

func (m *memStore) SaveLessonProgress(_ context.Context, p LessonProgress) error {
	m.progress[p.EnrollmentID+"/"+p.LessonID] = p
	return nil
}

func (m *memStore) GetCourse(_ context.Context, id string) (Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return c, nil
}

func (m *memStore) GetEnrollment(_ context.Context, id string) (Enrollment, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return Enrollment{}, ErrEnrollmentNotFound
	}
	return e, nil
}

func (m *memStore) LockEnrollment(ctx context.Context, id string) (Enrollment, error) {
	return m.GetEnrollment(ctx, id)
}

func (m *memStore) CreateEnrollment(_ context.Context, e Enrollment) (Enrollment, bool, error) {
	for _, existing := range m.enrollments {
		if existing.EmployeeID == e.EmployeeID && existing.CourseID == e.CourseID {
			return existing, false, nil
		}
	}
	e.ID = m.nextID("enrollment")
	m.enrollments[e.ID] = e
	return e, true, nil
}

func (m *memStore) SaveEnrollment(_ context.Context, e Enrollment) error {
	if _, ok := m.enrollments[e.ID]; !ok {
		return ErrEnrollmentNotFound
	}
	m.enrollments[e.ID] = e
	return nil
}

func (m *memStore) EnrollmentStatuses(_ context.Context, employeeID string, courseIDs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, e := range m.enrollments {
		for _, id := range courseIDs {
			if e.EmployeeID == employeeID && e.CourseID == id {
				out[id] = e.Status
			}
		}
	}
	return out, nil
}

func (m *memStore) ExpireEnrollments(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for id, e := range m.enrollments {
		if e.ExpiresAt != nil && e.ExpiresAt.Before(asOf) && (e.Status == EnrollmentNotStarted || e.Status == EnrollmentInProgress) {
			e.Status = EnrollmentExpired
			m.enrollments[id] = e
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetQuizByLesson(_ context.Context, lessonID string) (Quiz, error) {
	q, ok := m.quizzes[lessonID]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memStore) ListAttempts(_ context.Context, lessonID, enrollmentID string) ([]Attempt, error) {
	var out []Attempt
	for _, a := range m.attempts {
		if a.LessonID == lessonID && a.EnrollmentID == enrollmentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNo < out[j].AttemptNo })
	return out, nil
}

func (m *memStore) CreateAttempt(_ context.Context, a Attempt) (Attempt, error) {
	for _, existing := range m.attempts {
		if existing.LessonID == a.LessonID && existing.EnrollmentID == a.EnrollmentID && existing.AttemptNo == a.AttemptNo {
			return Attempt{}, ErrAttemptConflict
		}
	}
	a.ID = m.nextID("attempt")
	m.attempts[a.ID] = a
	return a, nil
}

func (m *memStore) LockAttempt(_ context.Context, id string) (Attempt, error) {
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memStore) SaveAttemptResult(_ context.Context, a Attempt) error {
	m.attempts[a.ID] = a
	return nil
}

func (m *memStore) GetPath(_ context.Context, id string) (Path, error) {
	p, ok := m.paths[id]
	if !ok {
		return Path{}, ErrPathNotFound
	}
	return p, nil
}

func (m *memStore) LockPath(ctx context.Context, id string) (Path, error) {
	return m.GetPath(ctx, id)
}

func (m *memStore) MarkPathPublished(_ context.Context, id string, at time.Time) error {
	p, ok := m.paths[id]
	if !ok {
		return ErrPathNotFound
	}
	p.Status = PathPublished
	p.PublishedAt = &at
	m.paths[id] = p
	return nil
}

func (m *memStore) GetPathEnrollment(_ context.Context, id string) (PathEnrollment, error) {
	pe, ok := m.pathEnrollments[id]
	if !ok {
		return PathEnrollment{}, ErrPathEnrollmentNotFound
	}
	return pe, nil
}

func (m *memStore) LockPathEnrollment(ctx context.Context, id string) (PathEnrollment, error) {
	return m.GetPathEnrollment(ctx, id)
}

func (m *memStore) CreatePathEnrollment(_ context.Context, pe PathEnrollment) (PathEnrollment, bool, error) {
	for _, existing := range m.pathEnrollments {
		if existing.EmployeeID == pe.EmployeeID && existing.PathID == pe.PathID {
			return existing, false, nil
		}
	}
	pe.ID = m.nextID("path-enrollment")
	m.pathEnrollments[pe.ID] = pe
	return pe, true, nil
}

func (m *memStore) SavePathEnrollment(_ context.Context, pe PathEnrollment) error {
	m.pathEnrollments[pe.ID] = pe
	return nil
}

func (m *memStore) ListOpenPathEnrollmentsForCourse(_ context.Context, employeeID, courseID string) ([]string, error) {
	var ids []string
	for _, pe := range m.pathEnrollments {
		if pe.EmployeeID != employeeID || (pe.Status != PathEnrollmentAssigned && pe.Status != PathEnrollmentInProgress) {
			continue
		}
		for _, pc := range m.paths[pe.PathID].Courses {
			if pc.CourseID == courseID {
				ids = append(ids, pe.ID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
