package review

const (
	CycleStatusDraft     = "draft"
	CycleStatusActive    = "active"
	CycleStatusCompleted = "completed"
	CycleStatusArchived  = "archived"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
)

const (
	ScoreStatusPending    = "pending"
	ScoreStatusInProgress = "in_progress"
	ScoreStatusCompleted  = "completed"
)

const (
	ReviewerSelf         = "self"
	ReviewerManager      = "manager"
	ReviewerPeer         = "peer"
	ReviewerDirectReport = "direct_report"
)

const (
	MinScore = 1.0
	MaxScore = 5.0
)

// Weights are per submission, not per reviewer type.
var reviewerWeights = map[string]float64{
	ReviewerManager:      0.50,
	ReviewerSelf:         0.20,
	ReviewerPeer:         0.20,
	ReviewerDirectReport: 0.10,
}

const defaultReviewerWeight = 0.25

var ReviewerTypes = []string{ReviewerSelf, ReviewerManager, ReviewerPeer, ReviewerDirectReport}

var Frequencies = []string{"annual", "semi_annual", "quarterly", "monthly", "ad_hoc"}

var cycleTransitions = map[string][]string{
	CycleStatusDraft:     {CycleStatusActive, CycleStatusArchived},
	CycleStatusActive:    {CycleStatusCompleted},
	CycleStatusCompleted: {CycleStatusArchived},
}
