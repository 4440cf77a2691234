package notifications

import "talent/internal/platform/events"

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type template struct {
	title string
	body  string
}

// templates lists the event types that land in someone's inbox.
var templates = map[string]template{
	events.ReviewCompleted:   {title: "Review completed", body: "Your performance review has been completed and a final score is available."},
	events.CertificateIssued: {title: "Certificate issued", body: "A new certificate has been issued to you."},
	events.ApprovalRequested: {title: "Approval requested", body: "A promotion is waiting for your decision."},
	events.PromotionApproved: {title: "Promotion approved", body: "Your promotion has been approved."},
	events.PromotionRejected: {title: "Promotion not approved", body: "Your promotion was rejected by an approver."},
}
