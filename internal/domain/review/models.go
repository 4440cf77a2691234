package review

import "time"

type Cycle struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	PeriodStart   time.Time `json:"periodStart"`
	PeriodEnd     time.Time `json:"periodEnd"`
	Frequency     string    `json:"frequency"`
	Competencies  []string  `json:"competencies"`
	ReviewerTypes []string  `json:"reviewerTypes"`
	Status        string    `json:"status"`
}

type CycleInput struct {
	Name          string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Frequency     string
	Competencies  []string
	ReviewerTypes []string
}

type Review struct {
	ID                 string     `json:"id"`
	CycleID            string     `json:"cycleId"`
	RevieweeID         string     `json:"revieweeId"`
	TotalReviewers     int        `json:"totalReviewers"`
	CompletedReviewers int        `json:"completedReviewers"`
	Progress           int        `json:"progress"`
	Status             string     `json:"status"`
	FinalScore         *float64   `json:"finalScore"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}

type Score struct {
	ID           string             `json:"id"`
	ReviewID     string             `json:"reviewId"`
	ReviewerID   string             `json:"reviewerId"`
	ReviewerType string             `json:"reviewerType"`
	Scores       map[string]float64 `json:"scores"`
	AverageScore *float64           `json:"averageScore"`
	Status       string             `json:"status"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
}

// SetScores replaces the competency mapping and recomputes the average.
// AverageScore is never assigned anywhere else.
func (s *Score) SetScores(values map[string]float64) {
	s.Scores = make(map[string]float64, len(values))
	for name, value := range values {
		s.Scores[name] = value
	}
	if len(s.Scores) == 0 {
		s.AverageScore = nil
		return
	}
	var sum float64
	for _, value := range s.Scores {
		sum += value
	}
	avg := round2(sum / float64(len(s.Scores)))
	s.AverageScore = &avg
}

// Assignment expects one submission from ReviewerID (a user id) about
// RevieweeID (an employee id).
type Assignment struct {
	RevieweeID   string `json:"revieweeId"`
	ReviewerID   string `json:"reviewerId"`
	ReviewerType string `json:"reviewerType"`
}

// ReviewDetail is a review together with its score rows.
type ReviewDetail struct {
	Review
	Scores []Score `json:"scores"`
}
