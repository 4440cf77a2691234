package promotion

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateWorkflow(ctx context.Context, name string, steps []WorkflowStep) (Workflow, error)
	GetWorkflow(ctx context.Context, workflowID string) (Workflow, error)
	CreateCandidate(ctx context.Context, c Candidate) (Candidate, error)
	GetCandidate(ctx context.Context, candidateID string) (Candidate, error)
	LockCandidate(ctx context.Context, candidateID string) (Candidate, error)
	UpdateCandidate(ctx context.Context, c Candidate) error
	CreateApproval(ctx context.Context, a Approval) (Approval, error)
	GetApproval(ctx context.Context, approvalID string) (Approval, error)
	SaveDecision(ctx context.Context, a Approval) error
	ListApprovals(ctx context.Context, candidateID string) ([]Approval, error)

	EmployeeRoleID(ctx context.Context, employeeID string) (*string, error)
	ManagerUserID(ctx context.Context, employeeID string) (string, error)
	FirstUserWithRole(ctx context.Context, roleName string) (string, error)
	SetEmployeeRole(ctx context.Context, employeeID, roleID string) error
	CompleteActivePIPs(ctx context.Context, employeeID string, at time.Time) (int64, error)
	RemoveSuccessionCandidate(ctx context.Context, employeeID, roleID string) (int64, error)
}
