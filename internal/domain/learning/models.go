package learning

import "time"

type Lesson struct {
	ID                   string  `json:"id"`
	CourseID             string  `json:"courseId"`
	Title                string  `json:"title"`
	ContentType          string  `json:"contentType"`
	DurationEstMin       int     `json:"durationEstMin"`
	Position             int     `json:"position"`
	IsActive             bool    `json:"isActive"`
	IsRequired           bool    `json:"isRequired"`
	CompletionCount      int     `json:"completionCount"`
	AvgCompletionSeconds float64 `json:"avgCompletionSeconds"`
}

type Quiz struct {
	ID                 string     `json:"id"`
	LessonID           string     `json:"lessonId"`
	PassingScore       int        `json:"passingScore"`
	AttemptsAllowed    *int       `json:"attemptsAllowed"`
	TimeLimitMinutes   *int       `json:"timeLimitMinutes"`
	RandomizeQuestions bool       `json:"randomizeQuestions"`
	RandomizeOptions   bool       `json:"randomizeOptions"`
	Questions          []Question `json:"questions"`
}

type Question struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Weight  float64  `json:"weight"`
	Options []Option `json:"options"`
}

type Option struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	IsCorrect bool   `json:"isCorrect"`
}

// Answers maps a question id to the selected option ids.
type Answers map[string][]string

type Attempt struct {
	ID           string     `json:"id"`
	LessonID     string     `json:"lessonId"`
	EnrollmentID string     `json:"enrollmentId"`
	AttemptNo    int        `json:"attemptNo"`
	Answers      Answers    `json:"answers"`
	Score        int        `json:"score"`
	IsPassed     bool       `json:"isPassed"`
	StartedAt    time.Time  `json:"startedAt"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
}

type LessonProgress struct {
	ID              string     `json:"id"`
	EnrollmentID    string     `json:"enrollmentId"`
	LessonID        string     `json:"lessonId"`
	Status          string     `json:"status"`
	SecondsConsumed int        `json:"secondsConsumed"`
	LastPositionSec int        `json:"lastPositionSec"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// Metadata is the certificate configuration stored on courses and paths.
type Metadata struct {
	CertificateEnabled bool `json:"certificate_enabled"`
}

type Course struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Metadata Metadata `json:"metadata"`
}

type Enrollment struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	CourseID    string     `json:"courseId"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	ProgressPct int        `json:"progressPct"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type Path struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Status      string       `json:"status"`
	PublishedAt *time.Time   `json:"publishedAt,omitempty"`
	Metadata    Metadata     `json:"metadata"`
	Courses     []PathCourse `json:"courses"`
}

type PathCourse struct {
	CourseID string `json:"courseId"`
	Position int    `json:"position"`
}

type PathEnrollment struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	PathID      string     `json:"pathId"`
	Status      string     `json:"status"`
	ProgressPct int        `json:"progressPct"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
