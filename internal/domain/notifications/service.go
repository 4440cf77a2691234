// Package notifications keeps the in-app inbox for events that name
// recipients, and optionally mirrors each entry to email.
package notifications

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store StoreAPI
	Now   func() time.Time
}

func New(store StoreAPI) *Service {
	return &Service{store: store, Now: time.Now}
}

// Deliver writes one inbox entry per distinct recipient. Event types without
// a template notify nobody.
func (s *Service) Deliver(ctx context.Context, eventType, entityID string, recipients []string) ([]Notification, error) {
	tmpl, ok := templates[eventType]
	if !ok {
		return nil, nil
	}
	seen := make(map[string]bool, len(recipients))
	var out []Notification
	for _, employeeID := range recipients {
		employeeID = strings.TrimSpace(employeeID)
		if employeeID == "" || seen[employeeID] {
			continue
		}
		seen[employeeID] = true
		n, err := s.store.Insert(ctx, Notification{
			EmployeeID: employeeID,
			Type:       eventType,
			EntityID:   entityID,
			Title:      tmpl.title,
			Body:       tmpl.body,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// List clamps limit to MaxListLimit and falls back to DefaultListLimit.
func (s *Service) List(ctx context.Context, employeeID string, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.store.List(ctx, employeeID, limit, offset)
	if err != nil {
		return Page{}, err
	}
	total, err := s.store.Count(ctx, employeeID)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
		total = len(items)
	}
	return Page{Items: items, Total: total}, nil
}

func (s *Service) MarkRead(ctx context.Context, employeeID, notificationID string) (Notification, error) {
	if _, err := uuid.Parse(notificationID); err != nil {
		return Notification{}, ErrNotificationNotFound
	}
	return s.store.MarkRead(ctx, employeeID, notificationID, s.Now().UTC())
}

// Emailer mirrors inbox entries to the recipient's user email.
type Emailer struct {
	store  StoreAPI
	Mailer Mailer
	From   string
}

func NewEmailer(store StoreAPI, mailer Mailer, from string) *Emailer {
	return &Emailer{store: store, Mailer: mailer, From: from}
}

// Send is a no-op when the recipient has no email on file.
func (e *Emailer) Send(ctx context.Context, n Notification) (bool, error) {
	if e.Mailer == nil {
		return false, nil
	}
	to, err := e.store.RecipientEmail(ctx, n.EmployeeID)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(to) == "" {
		return false, nil
	}
	if err := e.Mailer.Send(ctx, e.From, to, n.Title, n.Body); err != nil {
		return false, err
	}
	return true, nil
}
