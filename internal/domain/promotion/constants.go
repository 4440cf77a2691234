package promotion

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusInReview  = "in_review"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

const (
	DecisionPending  = "pending"
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// RoleManager resolves to the candidate's line manager rather than a role lookup.
const RoleManager = "manager"

const (
	pipActive    = "active"
	pipCompleted = "completed"
)
