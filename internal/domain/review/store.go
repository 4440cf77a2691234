package review

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

const cycleColumns = "id, name, period_start, period_end, frequency, competencies, reviewer_types, status"

const reviewColumns = "id, cycle_id, reviewee_id, total_reviewers, completed_reviewers, progress, status, final_score, completed_at"

const scoreColumns = "id, review_id, reviewer_id, reviewer_type, scores, average_score, status, completed_at"

func (s *Store) CreateCycle(ctx context.Context, in CycleInput) (Cycle, error) {
	competencies, err := json.Marshal(nonNil(in.Competencies))
	if err != nil {
		return Cycle{}, err
	}
	reviewerTypes, err := json.Marshal(nonNil(in.ReviewerTypes))
	if err != nil {
		return Cycle{}, err
	}
	row := s.DB.QueryRow(ctx, `
    INSERT INTO review_cycles (name, period_start, period_end, frequency, competencies, reviewer_types, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+cycleColumns,
		in.Name, in.PeriodStart, in.PeriodEnd, in.Frequency, competencies, reviewerTypes, CycleStatusDraft)
	return scanCycle(row)
}

func (s *Store) GetCycle(ctx context.Context, cycleID string) (Cycle, error) {
	return scanCycle(s.DB.QueryRow(ctx, "SELECT "+cycleColumns+" FROM review_cycles WHERE id = $1", cycleID))
}

func (s *Store) LockCycle(ctx context.Context, cycleID string) (Cycle, error) {
	return scanCycle(s.DB.QueryRow(ctx, "SELECT "+cycleColumns+" FROM review_cycles WHERE id = $1 FOR UPDATE", cycleID))
}

func (s *Store) UpdateCycleStatus(ctx context.Context, cycleID, status string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE review_cycles SET status = $1 WHERE id = $2", status, cycleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleNotFound
	}
	return nil
}

func (s *Store) CreateReview(ctx context.Context, cycleID, revieweeID string, totalReviewers int) (Review, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO reviews (cycle_id, reviewee_id, total_reviewers, status)
    VALUES ($1,$2,$3,$4)
    RETURNING `+reviewColumns,
		cycleID, revieweeID, totalReviewers, StatusPending)
	return scanReview(row)
}

func (s *Store) CreatePendingScore(ctx context.Context, reviewID, reviewerID, reviewerType string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO review_scores (review_id, reviewer_id, reviewer_type, status)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (review_id, reviewer_id, reviewer_type) DO NOTHING
  `, reviewID, reviewerID, reviewerType, ScoreStatusPending)
	return err
}

func (s *Store) GetReview(ctx context.Context, reviewID string) (Review, error) {
	return scanReview(s.DB.QueryRow(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = $1", reviewID))
}

// LockReview takes the row lock that serializes concurrent recomputes.
func (s *Store) LockReview(ctx context.Context, reviewID string) (Review, error) {
	return scanReview(s.DB.QueryRow(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = $1 FOR UPDATE", reviewID))
}

func (s *Store) UpdateReviewProgress(ctx context.Context, r Review) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE reviews
    SET completed_reviewers = $1, progress = $2, status = $3, final_score = $4, completed_at = $5
    WHERE id = $6
  `, r.CompletedReviewers, r.Progress, r.Status, r.FinalScore, r.CompletedAt, r.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *Store) UpsertScore(ctx context.Context, score Score) (Score, error) {
	payload, err := json.Marshal(score.Scores)
	if err != nil {
		return Score{}, err
	}
	row := s.DB.QueryRow(ctx, `
    INSERT INTO review_scores (review_id, reviewer_id, reviewer_type, scores, average_score, status, completed_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (review_id, reviewer_id, reviewer_type)
    DO UPDATE SET scores = EXCLUDED.scores,
                  average_score = EXCLUDED.average_score,
                  status = EXCLUDED.status,
                  completed_at = EXCLUDED.completed_at,
                  updated_at = now()
    RETURNING `+scoreColumns,
		score.ReviewID, score.ReviewerID, score.ReviewerType, payload, score.AverageScore, score.Status, score.CompletedAt)
	return scanScore(row)
}

func (s *Store) ListScores(ctx context.Context, reviewID string) ([]Score, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+scoreColumns+" FROM review_scores WHERE review_id = $1 ORDER BY reviewer_type, reviewer_id", reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, score)
	}
	return out, rows.Err()
}

// MarkOverdue flags unfinished reviews of active cycles whose period has ended.
func (s *Store) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE reviews r
    SET status = $1
    FROM review_cycles c
    WHERE r.cycle_id = c.id
      AND c.status = $2
      AND c.period_end < $3::date
      AND r.status IN ($4, $5)
  `, StatusOverdue, CycleStatusActive, asOf, StatusPending, StatusInProgress)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	var competencies, reviewerTypes []byte
	err := row.Scan(&c.ID, &c.Name, &c.PeriodStart, &c.PeriodEnd, &c.Frequency, &competencies, &reviewerTypes, &c.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cycle{}, ErrCycleNotFound
	}
	if err != nil {
		return Cycle{}, err
	}
	if err := json.Unmarshal(competencies, &c.Competencies); err != nil {
		return Cycle{}, err
	}
	if err := json.Unmarshal(reviewerTypes, &c.ReviewerTypes); err != nil {
		return Cycle{}, err
	}
	return c, nil
}

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.CycleID, &r.RevieweeID, &r.TotalReviewers, &r.CompletedReviewers, &r.Progress, &r.Status, &r.FinalScore, &r.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, ErrReviewNotFound
	}
	return r, err
}

func scanScore(row pgx.Row) (Score, error) {
	var score Score
	var payload []byte
	if err := row.Scan(&score.ID, &score.ReviewID, &score.ReviewerID, &score.ReviewerType, &payload, &score.AverageScore, &score.Status, &score.CompletedAt); err != nil {
		return Score{}, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &score.Scores); err != nil {
			return Score{}, err
		}
	}
	return score, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
