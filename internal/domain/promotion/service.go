package promotion

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"talent/internal/domain/apperror"
	"talent/internal/domain/auth"
)

// Engine drives a promotion candidate through its approval workflow.
type Engine struct {
	Store          StoreAPI
	Now            func() time.Time
	SuperAdminRole string
}

func NewEngine(store StoreAPI, superAdminRole string) *Engine {
	return &Engine{Store: store, Now: time.Now, SuperAdminRole: superAdminRole}
}

func (e *Engine) CreateWorkflow(ctx context.Context, name string, steps []WorkflowStep) (Workflow, error) {
	if strings.TrimSpace(name) == "" {
		return Workflow{}, apperror.Validation("workflow name is required")
	}
	if err := validateSteps(steps); err != nil {
		return Workflow{}, err
	}
	return e.Store.CreateWorkflow(ctx, strings.TrimSpace(name), orderedSteps(steps))
}

// CreateDraft records a candidate in draft. The current role is read from the
// employee record.
func (e *Engine) CreateDraft(ctx context.Context, actor auth.Actor, in CandidateInput) (Candidate, error) {
	if in.EmployeeID == "" || in.ProposedRoleID == "" || in.WorkflowID == "" {
		return Candidate{}, apperror.Validation("employeeId, proposedRoleId and workflowId are required")
	}
	if _, err := e.Store.GetWorkflow(ctx, in.WorkflowID); err != nil {
		return Candidate{}, err
	}
	current, err := e.Store.EmployeeRoleID(ctx, in.EmployeeID)
	if err != nil {
		return Candidate{}, err
	}
	if current != nil && *current == in.ProposedRoleID {
		return Candidate{}, apperror.Validation("proposed role matches the current role")
	}
	c := Candidate{
		EmployeeID:     in.EmployeeID,
		CurrentRoleID:  current,
		ProposedRoleID: in.ProposedRoleID,
		Justification:  strings.TrimSpace(in.Justification),
		WorkflowID:     in.WorkflowID,
		Status:         StatusDraft,
	}
	if actor.UserID != "" {
		createdBy := actor.UserID
		c.CreatedBy = &createdBy
	}
	return e.Store.CreateCandidate(ctx, c)
}

// Submit resolves the workflow into one pending approval per step. Steps with
// no resolvable approver are skipped, and a candidate left with none stays
// submitted.
func (e *Engine) Submit(ctx context.Context, candidateID string) (Submission, error) {
	c, err := e.Store.LockCandidate(ctx, candidateID)
	if err != nil {
		return Submission{}, err
	}
	if c.Status != StatusDraft {
		return Submission{}, ErrNotDraft
	}
	workflow, err := e.Store.GetWorkflow(ctx, c.WorkflowID)
	if err != nil {
		return Submission{}, err
	}

	var approvals []Approval
	for _, step := range orderedSteps(workflow.Steps) {
		approverID, err := e.resolveApprover(ctx, c, step)
		if err != nil {
			return Submission{}, err
		}
		if approverID == "" {
			slog.Warn("promotion step has no approver", "candidate_id", c.ID, "step", step.Order, "role", step.Role)
			continue
		}
		approval, err := e.Store.CreateApproval(ctx, Approval{
			CandidateID: c.ID,
			StepOrder:   step.Order,
			StepName:    step.Name,
			Role:        step.Role,
			ApproverID:  approverID,
			Decision:    DecisionPending,
		})
		if err != nil {
			return Submission{}, err
		}
		approvals = append(approvals, approval)
	}

	now := e.Now().UTC()
	c.SubmittedAt = &now
	c.Status = StatusSubmitted
	if len(approvals) > 0 {
		c.Status = StatusInReview
	}
	if err := e.Store.UpdateCandidate(ctx, c); err != nil {
		return Submission{}, err
	}
	return Submission{Candidate: c, Approvals: approvals}, nil
}

func (e *Engine) resolveApprover(ctx context.Context, c Candidate, step WorkflowStep) (string, error) {
	var userID string
	var err error
	if step.Role == RoleManager {
		userID, err = e.Store.ManagerUserID(ctx, c.EmployeeID)
	} else {
		userID, err = e.Store.FirstUserWithRole(ctx, step.Role)
	}
	if err != nil || userID != "" {
		return userID, err
	}
	if e.SuperAdminRole == "" {
		return "", nil
	}
	return e.Store.FirstUserWithRole(ctx, e.SuperAdminRole)
}

// Approve records an approval. Steps may be decided in any order; the
// candidate is approved once no step is left pending.
func (e *Engine) Approve(ctx context.Context, actor auth.Actor, approvalID, note string) (Decision, error) {
	c, approval, err := e.loadForDecision(ctx, actor, approvalID)
	if err != nil {
		return Decision{}, err
	}
	now := e.Now().UTC()
	approval.Decision = DecisionApproved
	approval.DecisionNote = strings.TrimSpace(note)
	approval.DecidedAt = &now
	approval.DecidedBy = &actor.UserID
	if err := e.Store.SaveDecision(ctx, approval); err != nil {
		return Decision{}, err
	}

	approvals, err := e.Store.ListApprovals(ctx, c.ID)
	if err != nil {
		return Decision{}, err
	}
	out := Decision{Approval: approval}
	if countPending(approvals) == 0 && allApproved(approvals) {
		c.Status = StatusApproved
		c.ApprovedAt = &now
		if err := e.Store.UpdateCandidate(ctx, c); err != nil {
			return Decision{}, err
		}
		effects, err := e.processApprovedPromotion(ctx, c, now)
		if err != nil {
			return Decision{}, err
		}
		out.FullyApproved = true
		out.Effects = &effects
	}
	out.Candidate = c
	return out, nil
}

// Reject ends the workflow immediately. Remaining steps stay pending.
func (e *Engine) Reject(ctx context.Context, actor auth.Actor, approvalID, reason string) (Decision, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Decision{}, ErrReasonRequired
	}
	c, approval, err := e.loadForDecision(ctx, actor, approvalID)
	if err != nil {
		return Decision{}, err
	}
	now := e.Now().UTC()
	approval.Decision = DecisionRejected
	approval.DecisionNote = reason
	approval.DecidedAt = &now
	approval.DecidedBy = &actor.UserID
	if err := e.Store.SaveDecision(ctx, approval); err != nil {
		return Decision{}, err
	}

	c.Status = StatusRejected
	c.RejectedAt = &now
	c.RejectionReason = reason
	if err := e.Store.UpdateCandidate(ctx, c); err != nil {
		return Decision{}, err
	}
	return Decision{Candidate: c, Approval: approval}, nil
}

// loadForDecision locks the candidate before re-reading the approval so two
// deciders on the same candidate serialize.
func (e *Engine) loadForDecision(ctx context.Context, actor auth.Actor, approvalID string) (Candidate, Approval, error) {
	approval, err := e.Store.GetApproval(ctx, approvalID)
	if err != nil {
		return Candidate{}, Approval{}, err
	}
	c, err := e.Store.LockCandidate(ctx, approval.CandidateID)
	if err != nil {
		return Candidate{}, Approval{}, err
	}
	approval, err = e.Store.GetApproval(ctx, approvalID)
	if err != nil {
		return Candidate{}, Approval{}, err
	}
	if approval.Decision != DecisionPending {
		return Candidate{}, Approval{}, ErrAlreadyDecided
	}
	if c.Status != StatusInReview {
		return Candidate{}, Approval{}, ErrNotInReview
	}
	if approval.ApproverID != actor.UserID && !actor.CanOverride() {
		return Candidate{}, Approval{}, ErrNotApprover
	}
	return c, approval, nil
}

// Withdraw leaves decided approvals untouched.
func (e *Engine) Withdraw(ctx context.Context, candidateID, reason string) (Candidate, error) {
	c, err := e.Store.LockCandidate(ctx, candidateID)
	if err != nil {
		return Candidate{}, err
	}
	if c.Status != StatusSubmitted && c.Status != StatusInReview {
		return Candidate{}, ErrCannotWithdraw
	}
	now := e.Now().UTC()
	c.Status = StatusWithdrawn
	c.WithdrawnAt = &now
	c.WithdrawalReason = strings.TrimSpace(reason)
	if err := e.Store.UpdateCandidate(ctx, c); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

func (e *Engine) processApprovedPromotion(ctx context.Context, c Candidate, now time.Time) (Effects, error) {
	if err := e.Store.SetEmployeeRole(ctx, c.EmployeeID, c.ProposedRoleID); err != nil {
		return Effects{}, err
	}
	closed, err := e.Store.CompleteActivePIPs(ctx, c.EmployeeID, now)
	if err != nil {
		return Effects{}, err
	}
	removed, err := e.Store.RemoveSuccessionCandidate(ctx, c.EmployeeID, c.ProposedRoleID)
	if err != nil {
		return Effects{}, err
	}
	return Effects{RoleChanged: true, PIPsClosed: closed, SuccessionRemoved: removed}, nil
}
