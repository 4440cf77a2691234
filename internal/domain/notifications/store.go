package notifications

import (
	"context"
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

const notificationColumns = "id, employee_id, type, entity_id, title, body, read_at, created_at"

func (s *Store) Insert(ctx context.Context, n Notification) (Notification, error) {
	return scanNotification(s.DB.QueryRow(ctx, `
    INSERT INTO notifications (employee_id, type, entity_id, title, body)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+notificationColumns,
		n.EmployeeID, n.Type, n.EntityID, n.Title, n.Body))
}

func (s *Store) List(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+notificationColumns+`
    FROM notifications
    WHERE employee_id = $1
    ORDER BY created_at DESC, id
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, employeeID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications WHERE employee_id = $1", employeeID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// MarkRead keeps the first read_at when called again.
func (s *Store) MarkRead(ctx context.Context, employeeID, notificationID string, at time.Time) (Notification, error) {
	return scanNotification(s.DB.QueryRow(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, $3)
    WHERE employee_id = $1 AND id = $2
    RETURNING `+notificationColumns,
		employeeID, notificationID, at))
}

// RecipientEmail returns "" when the employee has no linked user.
func (s *Store) RecipientEmail(ctx context.Context, employeeID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, `
    SELECT u.email
    FROM employees e
    JOIN users u ON u.id = e.user_id
    WHERE e.id = $1
  `, employeeID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return email, err
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.EmployeeID, &n.Type, &n.EntityID, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Notification{}, ErrNotificationNotFound
	}
	return n, err
}
