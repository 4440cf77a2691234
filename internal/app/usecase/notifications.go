package usecase

import (
	"context"
	"log/slog"

	"talent/internal/domain/auth"
	"talent/internal/domain/notifications"
	"talent/internal/platform/metrics"
)

// ListNotifications returns the caller's inbox. Users without an employee
// record have an empty inbox.
func (s *Service) ListNotifications(ctx context.Context, actor auth.Actor, limit, offset int) (notifications.Page, error) {
	out := notifications.Page{Items: []notifications.Notification{}}
	err := s.read(func(u *unit) error {
		employeeID, err := u.auth.EmployeeIDByUserID(ctx, actor.UserID)
		if err != nil || employeeID == "" {
			return err
		}
		page, err := u.inbox.List(ctx, employeeID, limit, offset)
		if err != nil {
			return err
		}
		out = page
		return nil
	})
	return out, err
}

func (s *Service) MarkNotificationRead(ctx context.Context, actor auth.Actor, notificationID string) (notifications.Notification, error) {
	var out notifications.Notification
	err := s.inTx(ctx, func(u *unit) error {
		employeeID, err := u.auth.EmployeeIDByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if employeeID == "" {
			return notifications.ErrNotificationNotFound
		}
		n, err := u.inbox.MarkRead(ctx, employeeID, notificationID)
		if err != nil {
			return err
		}
		out = n
		return u.record(ctx, actor, "notification.read", "notification", n.ID, nil, map[string]any{"readAt": n.ReadAt})
	})
	return out, err
}

// EmailNotification mirrors one inbox entry to email. It runs on the job
// queue after the transaction that created the entry commits.
func (s *Service) EmailNotification(ctx context.Context, n notifications.Notification) (any, error) {
	emailer := notifications.NewEmailer(notifications.NewStore(s.DB), s.Mailer, s.EmailFrom)
	sent, err := emailer.Send(ctx, n)
	if err != nil {
		s.Metrics.Inc(metrics.EmailsFailed)
		slog.Warn("notification email failed", "notification_id", n.ID, "err", err)
		return nil, err
	}
	if sent {
		s.Metrics.Inc(metrics.EmailsSent)
	}
	return map[string]any{"notificationId": n.ID, "sent": sent}, nil
}
