package review

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateCycle(ctx context.Context, in CycleInput) (Cycle, error)
	GetCycle(ctx context.Context, cycleID string) (Cycle, error)
	LockCycle(ctx context.Context, cycleID string) (Cycle, error)
	UpdateCycleStatus(ctx context.Context, cycleID, status string) error
	CreateReview(ctx context.Context, cycleID, revieweeID string, totalReviewers int) (Review, error)
	CreatePendingScore(ctx context.Context, reviewID, reviewerID, reviewerType string) error
	GetReview(ctx context.Context, reviewID string) (Review, error)
	LockReview(ctx context.Context, reviewID string) (Review, error)
	UpdateReviewProgress(ctx context.Context, r Review) error
	UpsertScore(ctx context.Context, s Score) (Score, error)
	ListScores(ctx context.Context, reviewID string) ([]Score, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}
