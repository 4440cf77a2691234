package usecase

import (
	"context"

	"talent/internal/domain/auth"
	"talent/internal/domain/promotion"
	"talent/internal/platform/events"
	"talent/internal/platform/metrics"
)

func (s *Service) CreateWorkflow(ctx context.Context, actor auth.Actor, name string, steps []promotion.WorkflowStep) (promotion.Workflow, error) {
	var out promotion.Workflow
	err := s.inTx(ctx, func(u *unit) error {
		wf, err := u.promotions.CreateWorkflow(ctx, name, steps)
		if err != nil {
			return err
		}
		out = wf
		return u.record(ctx, actor, "promotion_workflow.create", "promotion_workflow", wf.ID, nil, wf)
	})
	return out, err
}

func (s *Service) CreateCandidate(ctx context.Context, actor auth.Actor, in promotion.CandidateInput) (promotion.Candidate, error) {
	var out promotion.Candidate
	err := s.inTx(ctx, func(u *unit) error {
		c, err := u.promotions.CreateDraft(ctx, actor, in)
		if err != nil {
			return err
		}
		out = c
		return u.record(ctx, actor, "promotion.create", "promotion_candidate", c.ID, nil, c)
	})
	return out, err
}

// SubmitPromotion opens one pending approval per resolvable workflow step and
// notifies each approver.
func (s *Service) SubmitPromotion(ctx context.Context, actor auth.Actor, candidateID string) (promotion.Submission, error) {
	var out promotion.Submission
	err := s.inTx(ctx, func(u *unit) error {
		sub, err := u.promotions.Submit(ctx, candidateID)
		if err != nil {
			return err
		}
		out = sub
		c := sub.Candidate
		u.fx.emit(events.Event{
			Type:     events.PromotionSubmitted,
			EntityID: c.ID,
			ActorID:  actor.UserID,
			Payload:  map[string]any{"employeeId": c.EmployeeID, "approvals": len(sub.Approvals)},
		})
		// Approvers are users; inbox entries belong to their employee records.
		approvers := make([]string, 0, len(sub.Approvals))
		for _, a := range sub.Approvals {
			employeeID, err := u.auth.EmployeeIDByUserID(ctx, a.ApproverID)
			if err != nil {
				return err
			}
			if employeeID != "" {
				approvers = append(approvers, employeeID)
			}
		}
		if len(approvers) > 0 {
			u.fx.emit(events.Event{
				Type:       events.ApprovalRequested,
				EntityID:   c.ID,
				ActorID:    actor.UserID,
				Recipients: approvers,
			})
		}
		return u.record(ctx, actor, "promotion.submit", "promotion_candidate", c.ID,
			map[string]string{"status": promotion.StatusDraft}, map[string]string{"status": c.Status})
	})
	return out, err
}

func (s *Service) ApprovePromotion(ctx context.Context, actor auth.Actor, approvalID, note string) (promotion.Decision, error) {
	var out promotion.Decision
	err := s.inTx(ctx, func(u *unit) error {
		d, err := u.promotions.Approve(ctx, actor, approvalID, note)
		if err != nil {
			return err
		}
		out = d
		if err := u.record(ctx, actor, "promotion.approval.approve", "promotion_approval", d.Approval.ID, nil, d.Approval); err != nil {
			return err
		}
		if !d.FullyApproved {
			return nil
		}
		u.fx.count(metrics.PromotionsApproved)
		u.fx.emit(events.Event{
			Type:       events.PromotionApproved,
			EntityID:   d.Candidate.ID,
			ActorID:    actor.UserID,
			Recipients: []string{d.Candidate.EmployeeID},
			Payload:    map[string]any{"proposedRoleId": d.Candidate.ProposedRoleID, "effects": d.Effects},
		})
		return u.record(ctx, actor, "promotion.approve", "promotion_candidate", d.Candidate.ID,
			map[string]string{"status": promotion.StatusInReview}, d.Candidate)
	})
	return out, err
}

// RejectPromotion closes the whole candidate on the first rejection.
func (s *Service) RejectPromotion(ctx context.Context, actor auth.Actor, approvalID, reason string) (promotion.Decision, error) {
	var out promotion.Decision
	err := s.inTx(ctx, func(u *unit) error {
		d, err := u.promotions.Reject(ctx, actor, approvalID, reason)
		if err != nil {
			return err
		}
		out = d
		u.fx.count(metrics.PromotionsRejected)
		u.fx.emit(events.Event{
			Type:       events.PromotionRejected,
			EntityID:   d.Candidate.ID,
			ActorID:    actor.UserID,
			Recipients: []string{d.Candidate.EmployeeID},
			Payload:    map[string]any{"reason": d.Candidate.RejectionReason, "step": d.Approval.StepName},
		})
		return u.record(ctx, actor, "promotion.reject", "promotion_candidate", d.Candidate.ID,
			map[string]string{"status": promotion.StatusInReview}, d.Candidate)
	})
	return out, err
}

func (s *Service) WithdrawPromotion(ctx context.Context, actor auth.Actor, candidateID, reason string) (promotion.Candidate, error) {
	var out promotion.Candidate
	err := s.inTx(ctx, func(u *unit) error {
		before, err := u.promotions.Store.GetCandidate(ctx, candidateID)
		if err != nil {
			return err
		}
		c, err := u.promotions.Withdraw(ctx, candidateID, reason)
		if err != nil {
			return err
		}
		out = c
		u.fx.emit(events.Event{
			Type:     events.PromotionWithdrawn,
			EntityID: c.ID,
			ActorID:  actor.UserID,
			Payload:  map[string]any{"reason": reason},
		})
		return u.record(ctx, actor, "promotion.withdraw", "promotion_candidate", c.ID,
			map[string]string{"status": before.Status}, map[string]string{"status": c.Status})
	})
	return out, err
}

type CandidateDetail struct {
	Candidate promotion.Candidate  `json:"candidate"`
	Approvals []promotion.Approval `json:"approvals"`
}

func (s *Service) GetCandidate(ctx context.Context, candidateID string) (CandidateDetail, error) {
	var out CandidateDetail
	err := s.read(func(u *unit) error {
		c, err := u.promotions.Store.GetCandidate(ctx, candidateID)
		if err != nil {
			return err
		}
		approvals, err := u.promotions.Store.ListApprovals(ctx, candidateID)
		if err != nil {
			return err
		}
		out = CandidateDetail{Candidate: c, Approvals: approvals}
		return nil
	})
	return out, err
}
