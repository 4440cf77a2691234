package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	ReviewsCompleted     = "reviews_completed"
	ScoresSubmitted      = "scores_submitted"
	LessonsCompleted     = "lessons_completed"
	CoursesCompleted     = "courses_completed"
	PathsCompleted       = "paths_completed"
	QuizAttemptsGraded   = "quiz_attempts_graded"
	CertificatesIssued   = "certificates_issued"
	PromotionsApproved   = "promotions_approved"
	PromotionsRejected   = "promotions_rejected"
	EventsPublishFailed  = "events_publish_failed"
	CertificateRenderErr = "certificate_render_failed"
	NotificationsSent    = "notifications_sent"
	EmailsSent           = "notification_emails_sent"
	EmailsFailed         = "notification_emails_failed"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu       sync.Mutex
	counters map[string]*atomic.Uint64
}

func New() *Collector {
	return &Collector{counters: map[string]*atomic.Uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// Inc bumps a named domain counter. A nil collector is a no-op.
func (c *Collector) Inc(name string) {
	if c == nil {
		return
	}
	c.counter(name).Add(1)
}

func (c *Collector) counter(name string) *atomic.Uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counters == nil {
		c.counters = map[string]*atomic.Uint64{}
	}
	v, ok := c.counters[name]
	if !ok {
		v = &atomic.Uint64{}
		c.counters[name] = v
	}
	return v
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	domain := make(map[string]uint64, len(c.counters))
	for name, v := range c.counters {
		domain[name] = v.Load()
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"domain":           domain,
	}
}
