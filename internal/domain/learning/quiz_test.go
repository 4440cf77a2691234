package learning

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"talent/internal/domain/apperror"
)

func twoQuestionQuiz() Quiz {
	return Quiz{
		ID:           "quiz-1",
		PassingScore: 70,
		Questions: []Question{
			{ID: "q1", Type: QuestionSingle, Weight: 1, Options: []Option{{ID: "a", IsCorrect: true}, {ID: "b"}}},
			{ID: "q2", Type: QuestionMulti, Weight: 1, Options: []Option{{ID: "c", IsCorrect: true}, {ID: "d", IsCorrect: true}, {ID: "e"}}},
		},
	}
}

func TestCalculateScore(t *testing.T) {
	quiz := twoQuestionQuiz()

	all := CalculateScore(quiz, Answers{"q1": {"a"}, "q2": {"d", "c"}})
	if all.Score != 100 || !all.Passed {
		t.Fatalf("expected 100 and passed, got %+v", all)
	}

	half := CalculateScore(quiz, Answers{"q1": {"a"}, "q2": {"c"}})
	if half.Score != 50 || half.Passed {
		t.Fatalf("expected 50 and failed, got %+v", half)
	}
	if half.PerQuestion[1].Correct {
		t.Fatal("partial multi-select must not count as correct")
	}

	extra := CalculateScore(quiz, Answers{"q1": {"a", "b"}, "q2": {"c", "d"}})
	if extra.Score != 50 {
		t.Fatalf("expected extra option to fail q1, got %d", extra.Score)
	}
}

func TestCalculateScoreWeightsAndEmptyQuiz(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.Questions[0].Weight = 3
	got := CalculateScore(quiz, Answers{"q1": {"a"}})
	if got.Score != 75 || !got.Passed {
		t.Fatalf("expected weighted 75, got %+v", got)
	}

	empty := CalculateScore(Quiz{PassingScore: 0}, nil)
	if empty.Score != 0 {
		t.Fatalf("expected 0 for a quiz without questions, got %d", empty.Score)
	}
}

func TestParseAnswers(t *testing.T) {
	raw := map[string]json.RawMessage{
		"q1": json.RawMessage(`"a"`),
		"q2": json.RawMessage(`["c","d"]`),
	}
	answers, err := ParseAnswers(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answers["q1"]) != 1 || answers["q1"][0] != "a" || len(answers["q2"]) != 2 {
		t.Fatalf("unexpected answers %+v", answers)
	}

	_, err = ParseAnswers(map[string]json.RawMessage{"q1": json.RawMessage(`42`)})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPresentQuizHidesCorrectnessAndShuffles(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.RandomizeQuestions = true
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	presented := PresentQuiz(quiz, reverse)
	if presented.Questions[0].ID != "q2" {
		t.Fatalf("expected shuffled question order, got %s first", presented.Questions[0].ID)
	}
	if presented.Questions[1].Options[0].ID != "a" {
		t.Fatal("options must keep their order when option shuffling is off")
	}
	body, err := json.Marshal(presented)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if containsKey(body, "isCorrect") {
		t.Fatal("presented quiz must not expose correctness")
	}
}

func containsKey(body []byte, key string) bool {
	var generic any
	_ = json.Unmarshal(body, &generic)
	var walk func(v any) bool
	walk = func(v any) bool {
		switch x := v.(type) {
		case map[string]any:
			if _, ok := x[key]; ok {
				return true
			}
			for _, child := range x {
				if walk(child) {
					return true
				}
			}
		case []any:
			for _, child := range x {
				if walk(child) {
					return true
				}
			}
		}
		return false
	}
	return walk(generic)
}

func quizFixture(t *testing.T, attemptsAllowed *int) (*memStore, *Quizzes, Enrollment, Lesson) {
	t.Helper()
	store := newMemStore()
	course := store.addCourse("Security 101", false, Lesson{Title: "Check", ContentType: ContentQuiz, IsActive: true, IsRequired: true})
	lesson := store.courseLessons(course.ID)[0]
	quiz := twoQuestionQuiz()
	quiz.LessonID = lesson.ID
	quiz.AttemptsAllowed = attemptsAllowed
	store.quizzes[lesson.ID] = quiz
	enrollment := store.enroll("emp-1", course.ID)

	quizzes := NewQuizzes(store, 30*time.Second)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	quizzes.Now = func() time.Time { return now }
	return store, quizzes, enrollment, lesson
}

func TestStartAttemptNumbersAndCap(t *testing.T) {
	allowed := 3
	_, quizzes, enrollment, lesson := quizFixture(t, &allowed)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		attempt, err := quizzes.StartAttempt(ctx, enrollment.ID, lesson.ID)
		if err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", want, err)
		}
		if attempt.AttemptNo != want {
			t.Fatalf("expected attempt_no %d, got %d", want, attempt.AttemptNo)
		}
	}
	_, err := quizzes.StartAttempt(ctx, enrollment.ID, lesson.ID)
	if !errors.Is(err, ErrAttemptsExhausted) || !errors.Is(err, apperror.ErrStateConflict) {
		t.Fatalf("expected state conflict on fourth attempt, got %v", err)
	}
}

func TestStartAttemptRejectsForeignLesson(t *testing.T) {
	store, quizzes, _, lesson := quizFixture(t, nil)
	other := store.addCourse("Other", false)
	enrollment := store.enroll("emp-1", other.ID)

	_, err := quizzes.StartAttempt(context.Background(), enrollment.ID, lesson.ID)
	if !errors.Is(err, ErrLessonNotInCourse) {
		t.Fatalf("expected lesson-not-in-course, got %v", err)
	}
}

func TestSubmitAttempt(t *testing.T) {
	_, quizzes, enrollment, lesson := quizFixture(t, nil)
	ctx := context.Background()

	attempt, err := quizzes.StartAttempt(ctx, enrollment.ID, lesson.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := quizzes.SubmitAttempt(ctx, attempt.ID, Answers{"q1": {"a"}, "q2": {"c", "d"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Attempt.Score != 100 || !out.Attempt.IsPassed || out.Attempt.SubmittedAt == nil {
		t.Fatalf("unexpected attempt %+v", out.Attempt)
	}

	_, err = quizzes.SubmitAttempt(ctx, attempt.ID, Answers{})
	if !errors.Is(err, ErrAttemptSubmitted) {
		t.Fatalf("expected resubmission to conflict, got %v", err)
	}
}

func TestSubmitAttemptEnforcesTimeLimit(t *testing.T) {
	store, quizzes, enrollment, lesson := quizFixture(t, nil)
	limit := 10
	quiz := store.quizzes[lesson.ID]
	quiz.TimeLimitMinutes = &limit
	store.quizzes[lesson.ID] = quiz
	ctx := context.Background()

	attempt, err := quizzes.StartAttempt(ctx, enrollment.ID, lesson.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	start := attempt.StartedAt
	quizzes.Now = func() time.Time { return start.Add(10*time.Minute + 20*time.Second) }
	if _, err := quizzes.SubmitAttempt(ctx, attempt.ID, Answers{}); err != nil {
		t.Fatalf("submission inside grace should pass, got %v", err)
	}

	second, err := quizzes.StartAttempt(ctx, enrollment.ID, lesson.ID)
	if err != nil {
		t.Fatalf("start second: %v", err)
	}
	quizzes.Now = func() time.Time { return second.StartedAt.Add(11 * time.Minute) }
	if _, err := quizzes.SubmitAttempt(ctx, second.ID, Answers{}); !errors.Is(err, ErrAttemptExpired) {
		t.Fatalf("expected expired attempt, got %v", err)
	}
}

func TestTimeRemainingSeconds(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	attempt := Attempt{StartedAt: start}
	if got := TimeRemainingSeconds(Quiz{}, attempt, start); got != nil {
		t.Fatalf("expected nil without limit, got %d", *got)
	}
	limit := 5
	quiz := Quiz{TimeLimitMinutes: &limit}
	if got := TimeRemainingSeconds(quiz, attempt, start.Add(time.Minute)); got == nil || *got != 240 {
		t.Fatalf("expected 240 seconds remaining, got %v", got)
	}
	if got := TimeRemainingSeconds(quiz, attempt, start.Add(time.Hour)); got == nil || *got != 0 {
		t.Fatalf("expected remaining time to floor at 0, got %v", got)
	}
}

func TestStartAttemptRejectsNonQuizLesson(t *testing.T) {
	store, quizzes, _, _ := quizFixture(t, nil)
	course := store.addCourse("Reading", false, Lesson{Title: "Policy", ContentType: ContentPDF, IsActive: true})
	reading := store.courseLessons(course.ID)[0]
	enrollment := store.enroll("emp-1", course.ID)

	_, err := quizzes.StartAttempt(context.Background(), enrollment.ID, reading.ID)
	if !errors.Is(err, ErrNotQuizLesson) || !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected not-a-quiz validation error, got %v", err)
	}
}
