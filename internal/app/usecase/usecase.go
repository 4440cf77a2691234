// Package usecase runs every externally triggered mutation as one database
// transaction: primary change, cascades, then the audit row. Events and
// follow-up jobs are released only after commit.
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"talent/internal/domain/audit"
	"talent/internal/domain/auth"
	"talent/internal/domain/certificate"
	"talent/internal/domain/learning"
	"talent/internal/domain/notifications"
	"talent/internal/domain/promotion"
	"talent/internal/domain/review"
	"talent/internal/platform/db"
	"talent/internal/platform/events"
	"talent/internal/platform/jobs"
	"talent/internal/platform/metrics"
	"talent/internal/platform/querier"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	db.TxBeginner
	querier.Querier
}

// Enqueuer accepts follow-up work that runs outside the request.
type Enqueuer interface {
	Enqueue(jobType string, run jobs.RunFunc) bool
}

type Service struct {
	DB             DB
	Events         events.Publisher
	Jobs           Enqueuer
	Storage        certificate.Uploader
	Metrics        *metrics.Collector
	SuperAdminRole string
	QuizGrace      time.Duration
	Now            func() time.Time

	// Mailer mirrors inbox entries to email after commit; nil disables it.
	Mailer    notifications.Mailer
	EmailFrom string
}

func New(database DB, publisher events.Publisher, queue Enqueuer, storage certificate.Uploader, collector *metrics.Collector, superAdminRole string, quizGrace time.Duration) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		DB:             database,
		Events:         publisher,
		Jobs:           queue,
		Storage:        storage,
		Metrics:        collector,
		SuperAdminRole: superAdminRole,
		QuizGrace:      quizGrace,
		Now:            time.Now,
	}
}

// afterCommit collects side effects that must not run if the transaction
// rolls back.
type afterCommit struct {
	events        []events.Event
	certificates  []string
	counters      []string
	notifications []notifications.Notification
}

func (a *afterCommit) emit(e events.Event) {
	a.events = append(a.events, e)
}

func (a *afterCommit) count(name string) {
	a.counters = append(a.counters, name)
}

// unit bundles the domain services bound to one transaction.
type unit struct {
	q     querier.Querier
	audit *audit.Recorder
	auth  *auth.Store
	fx    *afterCommit
	now   time.Time

	reviewStore *review.Store
	tracker     *review.Tracker
	aggregator  *review.Aggregator
	cycles      *review.Cycles

	learningStore *learning.Store
	lessons       *learning.LessonEngine
	courses       *learning.CourseTracker
	paths         *learning.PathTracker
	quizzes       *learning.Quizzes

	certs      *certificate.Issuer
	promotions *promotion.Engine
	inbox      *notifications.Service
}

func (s *Service) newUnit(q querier.Querier, fx *afterCommit) *unit {
	now := s.Now
	u := &unit{q: q, audit: audit.New(q), auth: auth.NewStore(q), fx: fx, now: now().UTC()}

	u.reviewStore = review.NewStore(q)
	u.tracker = review.NewTracker(u.reviewStore)
	u.tracker.Now = now
	u.aggregator = review.NewAggregator(u.reviewStore, u.tracker)
	u.aggregator.Now = now
	u.cycles = review.NewCycles(u.reviewStore)
	u.cycles.Now = now

	u.learningStore = learning.NewStore(q)
	u.lessons = learning.NewLessonEngine(u.learningStore)
	u.lessons.Now = now
	u.courses = learning.NewCourseTracker(u.learningStore)
	u.courses.Now = now
	u.paths = learning.NewPathTracker(u.learningStore)
	u.paths.Now = now
	u.quizzes = learning.NewQuizzes(u.learningStore, s.QuizGrace)
	u.quizzes.Now = now

	u.certs = certificate.NewIssuer(certificate.NewStore(q))
	u.certs.Now = now
	u.promotions = promotion.NewEngine(promotion.NewStore(q), s.SuperAdminRole)
	u.promotions.Now = now
	u.inbox = notifications.New(notifications.NewStore(q))
	u.inbox.Now = now
	return u
}

// inTx runs fn in one transaction and releases its side effects after commit.
// Inbox rows for queued events are written before commit so they roll back
// with everything else.
func (s *Service) inTx(ctx context.Context, fn func(u *unit) error) error {
	fx := &afterCommit{}
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		u := s.newUnit(tx, fx)
		if err := fn(u); err != nil {
			return err
		}
		return u.deliver(ctx)
	})
	if err != nil {
		return err
	}
	s.release(ctx, fx)
	return nil
}

// read runs fn against the pool without a transaction.
func (s *Service) read(fn func(u *unit) error) error {
	return fn(s.newUnit(s.DB, &afterCommit{}))
}

func (s *Service) release(ctx context.Context, fx *afterCommit) {
	for _, name := range fx.counters {
		s.Metrics.Inc(name)
	}
	for _, e := range fx.events {
		if e.OccurredAt.IsZero() {
			e.OccurredAt = s.Now().UTC()
		}
		s.Events.Publish(ctx, e)
	}
	if s.Jobs == nil {
		return
	}
	if s.Storage != nil {
		for _, certificateID := range fx.certificates {
			id := certificateID
			s.Jobs.Enqueue(jobs.JobCertificatePDF, func(ctx context.Context) (any, error) {
				return s.RenderCertificate(ctx, id)
			})
		}
	}
	if s.Mailer != nil {
		for _, n := range fx.notifications {
			n := n
			s.Jobs.Enqueue(jobs.JobNotificationEmail, func(ctx context.Context) (any, error) {
				return s.EmailNotification(ctx, n)
			})
		}
	}
}

func (u *unit) deliver(ctx context.Context) error {
	for _, e := range u.fx.events {
		if len(e.Recipients) == 0 {
			continue
		}
		sent, err := u.inbox.Deliver(ctx, e.Type, e.EntityID, e.Recipients)
		if err != nil {
			return err
		}
		for range sent {
			u.fx.count(metrics.NotificationsSent)
		}
		u.fx.notifications = append(u.fx.notifications, sent...)
	}
	return nil
}

func (u *unit) record(ctx context.Context, actor auth.Actor, action, entityType, entityID string, before, after any) error {
	return u.audit.Record(ctx, audit.Entry{
		ActorID:    actor.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
	})
}
