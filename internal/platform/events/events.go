// Package events publishes domain events to NATS after a transaction commits.
// Publishing never fails the caller; errors are logged and counted.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const subjectPrefix = "talent."

const (
	ReviewCompleted     = "review.completed"
	CourseCompleted     = "course.completed"
	PathCompleted       = "path.completed"
	CertificateIssued   = "certificate.issued"
	PromotionSubmitted  = "promotion.submitted"
	PromotionApproved   = "promotion.approved"
	PromotionRejected   = "promotion.rejected"
	PromotionWithdrawn  = "promotion.withdrawn"
	ApprovalRequested   = "promotion.approval_requested"
	QuizAttemptGraded   = "quiz.attempt_graded"
	CycleActivated      = "review.cycle_activated"
)

type Event struct {
	Type       string         `json:"event_type"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	Recipients []string       `json:"recipients,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Subject maps an event type to its NATS subject.
func Subject(eventType string) string {
	return subjectPrefix + eventType
}

type NATSPublisher struct {
	conn    *nats.Conn
	log     zerolog.Logger
	onError func()
}

// Connect returns a no-op publisher when url is empty.
func Connect(url string, log zerolog.Logger, onError func()) (Publisher, func(), error) {
	if url == "" {
		return Noop{}, func() {}, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("talent"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, err
	}
	p := &NATSPublisher{conn: conn, log: log, onError: onError}
	return p, func() {
		if err := conn.Drain(); err != nil {
			log.Warn().Err(err).Msg("nats drain failed")
		}
	}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		p.fail(err, e, "event: failed to marshal")
		return
	}
	subject := Subject(e.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		p.fail(err, e, "event: failed to publish (non-fatal)")
		return
	}
	p.log.Debug().Str("subject", subject).Str("entity_id", e.EntityID).Msg("event: published")
}

func (p *NATSPublisher) fail(err error, e Event, msg string) {
	p.log.Warn().Err(err).Str("event_type", e.Type).Str("entity_id", e.EntityID).Msg(msg)
	if p.onError != nil {
		p.onError()
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory. Tests use it in place of NATS.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.Events = append(r.Events, e)
}

func (r *Recorder) Types() []string {
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
