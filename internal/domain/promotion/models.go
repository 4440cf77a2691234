package promotion

import "time"

type WorkflowStep struct {
	Order int    `json:"order"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type Workflow struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Steps []WorkflowStep `json:"steps"`
}

type Candidate struct {
	ID               string     `json:"id"`
	EmployeeID       string     `json:"employeeId"`
	CurrentRoleID    *string    `json:"currentRoleId,omitempty"`
	ProposedRoleID   string     `json:"proposedRoleId"`
	Justification    string     `json:"justification"`
	WorkflowID       string     `json:"workflowId"`
	Status           string     `json:"status"`
	SubmittedAt      *time.Time `json:"submittedAt,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	RejectedAt       *time.Time `json:"rejectedAt,omitempty"`
	WithdrawnAt      *time.Time `json:"withdrawnAt,omitempty"`
	RejectionReason  string     `json:"rejectionReason,omitempty"`
	WithdrawalReason string     `json:"withdrawalReason,omitempty"`
	CreatedBy        *string    `json:"createdBy,omitempty"`
}

type CandidateInput struct {
	EmployeeID     string `json:"employeeId"`
	ProposedRoleID string `json:"proposedRoleId"`
	Justification  string `json:"justification"`
	WorkflowID     string `json:"workflowId"`
}

type Approval struct {
	ID           string     `json:"id"`
	CandidateID  string     `json:"candidateId"`
	StepOrder    int        `json:"stepOrder"`
	StepName     string     `json:"stepName"`
	Role         string     `json:"role"`
	ApproverID   string     `json:"approverId"`
	Decision     string     `json:"decision"`
	DecisionNote string     `json:"decisionNote,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
	DecidedBy    *string    `json:"decidedBy,omitempty"`
}

// Effects summarises what full approval changed outside the candidate.
type Effects struct {
	RoleChanged       bool  `json:"roleChanged"`
	PIPsClosed        int64 `json:"pipsClosed"`
	SuccessionRemoved int64 `json:"successionRemoved"`
}

type Decision struct {
	Candidate     Candidate `json:"candidate"`
	Approval      Approval  `json:"approval"`
	FullyApproved bool      `json:"fullyApproved"`
	Effects       *Effects  `json:"effects,omitempty"`
}

type Submission struct {
	Candidate Candidate  `json:"candidate"`
	Approvals []Approval `json:"approvals"`
}
