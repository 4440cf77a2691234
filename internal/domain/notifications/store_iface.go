package notifications

import (
	"context"
	"time"
)

type StoreAPI interface {
	Insert(ctx context.Context, n Notification) (Notification, error)
	List(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error)
	Count(ctx context.Context, employeeID string) (int, error)
	MarkRead(ctx context.Context, employeeID, notificationID string, at time.Time) (Notification, error)
	RecipientEmail(ctx context.Context, employeeID string) (string, error)
}
