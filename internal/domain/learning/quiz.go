package learning

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"time"

	"talent/internal/domain/apperror"
)

type QuestionResult struct {
	QuestionID string  `json:"questionId"`
	Correct    bool    `json:"correct"`
	Weight     float64 `json:"weight"`
}

type GradeResult struct {
	Score       int              `json:"score"`
	Passed      bool             `json:"passed"`
	PerQuestion []QuestionResult `json:"perQuestion"`
}

// CalculateScore grades answers by question and option id. A question earns
// its weight only when the selected set equals the correct set.
func CalculateScore(quiz Quiz, answers Answers) GradeResult {
	result := GradeResult{PerQuestion: make([]QuestionResult, 0, len(quiz.Questions))}
	var earned, total float64
	for _, q := range quiz.Questions {
		correct := sameSet(answers[q.ID], correctOptionIDs(q))
		total += q.Weight
		if correct {
			earned += q.Weight
		}
		result.PerQuestion = append(result.PerQuestion, QuestionResult{QuestionID: q.ID, Correct: correct, Weight: q.Weight})
	}
	if total > 0 {
		result.Score = int(math.Round(100 * earned / total))
	}
	result.Passed = result.Score >= quiz.PassingScore
	return result
}

func correctOptionIDs(q Question) []string {
	var ids []string
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

func sameSet(selected, correct []string) bool {
	want := make(map[string]struct{}, len(correct))
	for _, id := range correct {
		want[id] = struct{}{}
	}
	got := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := want[id]; !ok {
			return false
		}
		got[id] = struct{}{}
	}
	return len(got) == len(want)
}

// ParseAnswers accepts either a single option id or a list per question.
func ParseAnswers(raw map[string]json.RawMessage) (Answers, error) {
	out := make(Answers, len(raw))
	for questionID, value := range raw {
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			out[questionID] = many
			continue
		}
		var one string
		if err := json.Unmarshal(value, &one); err != nil {
			return nil, apperror.Validation("answer for question " + questionID + " must be an option id or a list of option ids")
		}
		if one == "" {
			out[questionID] = nil
			continue
		}
		out[questionID] = []string{one}
	}
	return out, nil
}

// CanUserAttempt is true when the quiz has no attempt cap or the cap is not
// yet reached.
func CanUserAttempt(quiz Quiz, existing []Attempt) bool {
	if quiz.AttemptsAllowed == nil {
		return true
	}
	return len(existing) < *quiz.AttemptsAllowed
}

// NextAttemptNumber is one past the highest existing attempt number.
func NextAttemptNumber(existing []Attempt) int {
	highest := 0
	for _, a := range existing {
		highest = max(highest, a.AttemptNo)
	}
	return highest + 1
}

// TimeRemainingSeconds returns nil for quizzes without a time limit.
func TimeRemainingSeconds(quiz Quiz, attempt Attempt, now time.Time) *int {
	if quiz.TimeLimitMinutes == nil || *quiz.TimeLimitMinutes <= 0 {
		return nil
	}
	deadline := attempt.StartedAt.Add(time.Duration(*quiz.TimeLimitMinutes) * time.Minute)
	remaining := max(int(deadline.Sub(now).Seconds()), 0)
	return &remaining
}

type PresentedOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type PresentedQuestion struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Prompt  string            `json:"prompt"`
	Options []PresentedOption `json:"options"`
}

type PresentedQuiz struct {
	ID               string              `json:"id"`
	LessonID         string              `json:"lessonId"`
	PassingScore     int                 `json:"passingScore"`
	AttemptsAllowed  *int                `json:"attemptsAllowed"`
	TimeLimitMinutes *int                `json:"timeLimitMinutes"`
	Questions        []PresentedQuestion `json:"questions"`
}

// PresentQuiz strips correctness flags and shuffles order when the quiz asks
// for it. Grading never depends on this order.
func PresentQuiz(quiz Quiz, shuffle func(n int, swap func(i, j int))) PresentedQuiz {
	out := PresentedQuiz{
		ID:               quiz.ID,
		LessonID:         quiz.LessonID,
		PassingScore:     quiz.PassingScore,
		AttemptsAllowed:  quiz.AttemptsAllowed,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		Questions:        make([]PresentedQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		pq := PresentedQuestion{ID: q.ID, Type: q.Type, Prompt: q.Prompt, Options: make([]PresentedOption, 0, len(q.Options))}
		for _, opt := range q.Options {
			pq.Options = append(pq.Options, PresentedOption{ID: opt.ID, Label: opt.Label})
		}
		if quiz.RandomizeOptions {
			shuffle(len(pq.Options), func(i, j int) { pq.Options[i], pq.Options[j] = pq.Options[j], pq.Options[i] })
		}
		out.Questions = append(out.Questions, pq)
	}
	if quiz.RandomizeQuestions {
		shuffle(len(out.Questions), func(i, j int) { out.Questions[i], out.Questions[j] = out.Questions[j], out.Questions[i] })
	}
	return out
}

// Quizzes runs the attempt lifecycle for quiz lessons.
type Quizzes struct {
	Store   StoreAPI
	Now     func() time.Time
	Grace   time.Duration
	Shuffle func(n int, swap func(i, j int))
}

func NewQuizzes(store StoreAPI, grace time.Duration) *Quizzes {
	return &Quizzes{Store: store, Now: time.Now, Grace: grace, Shuffle: rand.Shuffle}
}

func (q *Quizzes) Present(ctx context.Context, lessonID string) (PresentedQuiz, error) {
	quiz, err := q.Store.GetQuizByLesson(ctx, lessonID)
	if err != nil {
		return PresentedQuiz{}, err
	}
	return PresentQuiz(quiz, q.Shuffle), nil
}

// StartAttempt creates the next numbered attempt for (lesson, enrollment).
// The enrollment row lock serializes numbering and the unique constraint on
// attempt_no backs it up.
func (q *Quizzes) StartAttempt(ctx context.Context, enrollmentID, lessonID string) (Attempt, error) {
	enrollment, err := q.Store.LockEnrollment(ctx, enrollmentID)
	if err != nil {
		return Attempt{}, err
	}
	if enrollment.Status == EnrollmentExpired {
		return Attempt{}, ErrEnrollmentExpired
	}
	lesson, err := q.Store.GetLesson(ctx, lessonID)
	if err != nil {
		return Attempt{}, err
	}
	if err := checkLessonForEnrollment(lesson, enrollment); err != nil {
		return Attempt{}, err
	}
	if lesson.ContentType != ContentQuiz {
		return Attempt{}, ErrNotQuizLesson
	}
	quiz, err := q.Store.GetQuizByLesson(ctx, lessonID)
	if err != nil {
		return Attempt{}, err
	}
	existing, err := q.Store.ListAttempts(ctx, lessonID, enrollmentID)
	if err != nil {
		return Attempt{}, err
	}
	if !CanUserAttempt(quiz, existing) {
		return Attempt{}, ErrAttemptsExhausted
	}
	return q.Store.CreateAttempt(ctx, Attempt{
		LessonID:     lessonID,
		EnrollmentID: enrollmentID,
		AttemptNo:    NextAttemptNumber(existing),
		Answers:      Answers{},
		StartedAt:    q.Now().UTC(),
	})
}

type SubmitOutcome struct {
	Attempt Attempt     `json:"attempt"`
	Grade   GradeResult `json:"grade"`
}

// SubmitAttempt grades an open attempt. Submissions past the time limit plus
// the configured grace are refused.
func (q *Quizzes) SubmitAttempt(ctx context.Context, attemptID string, answers Answers) (SubmitOutcome, error) {
	attempt, err := q.Store.LockAttempt(ctx, attemptID)
	if err != nil {
		return SubmitOutcome{}, err
	}
	if attempt.SubmittedAt != nil {
		return SubmitOutcome{}, ErrAttemptSubmitted
	}
	quiz, err := q.Store.GetQuizByLesson(ctx, attempt.LessonID)
	if err != nil {
		return SubmitOutcome{}, err
	}

	now := q.Now().UTC()
	if quiz.TimeLimitMinutes != nil && *quiz.TimeLimitMinutes > 0 {
		deadline := attempt.StartedAt.Add(time.Duration(*quiz.TimeLimitMinutes)*time.Minute + q.Grace)
		if now.After(deadline) {
			return SubmitOutcome{}, ErrAttemptExpired
		}
	}

	grade := CalculateScore(quiz, answers)
	attempt.Answers = answers
	attempt.Score = grade.Score
	attempt.IsPassed = grade.Passed
	attempt.SubmittedAt = &now
	if err := q.Store.SaveAttemptResult(ctx, attempt); err != nil {
		return SubmitOutcome{}, err
	}
	return SubmitOutcome{Attempt: attempt, Grade: grade}, nil
}
