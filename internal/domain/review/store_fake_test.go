package review

import (
	"context"
	"fmt"
	"time"
)

type memStore struct {
	cycles  map[string]Cycle
	reviews map[string]Review
	scores  map[string][]Score
	seq     int
}

func newMemStore() *memStore {
	return &memStore{cycles: map[string]Cycle{}, reviews: map[string]Review{}, scores: map[string][]Score{}}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) CreateCycle(_ context.Context, in CycleInput) (Cycle, error) {
	c := Cycle{
		ID:            m.nextID("cycle"),
		Name:          in.Name,
		PeriodStart:   in.PeriodStart,
		PeriodEnd:     in.PeriodEnd,
		Frequency:     in.Frequency,
		Competencies:  in.Competencies,
		ReviewerTypes: in.ReviewerTypes,
		Status:        CycleStatusDraft,
	}
	m.cycles[c.ID] = c
	return c, nil
}

func (m *memStore) GetCycle(_ context.Context, id string) (Cycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return Cycle{}, ErrCycleNotFound
	}
	return c, nil
}

func (m *memStore) LockCycle(ctx context.Context, id string) (Cycle, error) {
	return m.GetCycle(ctx, id)
}

func (m *memStore) UpdateCycleStatus(_ context.Context, id, status string) error {
	c, ok := m.cycles[id]
	if !ok {
		return ErrCycleNotFound
	}
	c.Status = status
	m.cycles[id] = c
	return nil
}

func (m *memStore) CreateReview(_ context.Context, cycleID, revieweeID string, total int) (Review, error) {
	r := Review{ID: m.nextID("review"), CycleID: cycleID, RevieweeID: revieweeID, TotalReviewers: total, Status: StatusPending}
	m.reviews[r.ID] = r
	return r, nil
}

func (m *memStore) CreatePendingScore(_ context.Context, reviewID, reviewerID, reviewerType string) error {
	for _, s := range m.scores[reviewID] {
		if s.ReviewerID == reviewerID && s.ReviewerType == reviewerType {
			return nil
		}
	}
	m.scores[reviewID] = append(m.scores[reviewID], Score{
		ID: m.nextID("score"), ReviewID: reviewID, ReviewerID: reviewerID, ReviewerType: reviewerType, Status: ScoreStatusPending,
	})
	return nil
}

func (m *memStore) GetReview(_ context.Context, id string) (Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return Review{}, ErrReviewNotFound
	}
	return r, nil
}

func (m *memStore) LockReview(ctx context.Context, id string) (Review, error) {
	return m.GetReview(ctx, id)
}

func (m *memStore) UpdateReviewProgress(_ context.Context, r Review) error {
	if _, ok := m.reviews[r.ID]; !ok {
		return ErrReviewNotFound
	}
	m.reviews[r.ID] = r
	return nil
}

func (m *memStore) UpsertScore(_ context.Context, s Score) (Score, error) {
	list := m.scores[s.ReviewID]
	for i, existing := range list {
		if existing.ReviewerID == s.ReviewerID && existing.ReviewerType == s.ReviewerType {
			s.ID = existing.ID
			list[i] = s
			return s, nil
		}
	}
	s.ID = m.nextID("score")
	m.scores[s.ReviewID] = append(list, s)
	return s, nil
}

func (m *memStore) ListScores(_ context.Context, reviewID string) ([]Score, error) {
	return append([]Score(nil), m.scores[reviewID]...), nil
}

func (m *memStore) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for id, r := range m.reviews {
		c := m.cycles[r.CycleID]
		if c.Status == CycleStatusActive && c.PeriodEnd.Before(asOf) && (r.Status == StatusPending || r.Status == StatusInProgress) {
			r.Status = StatusOverdue
			m.reviews[id] = r
			n++
		}
	}
	return n, nil
}
