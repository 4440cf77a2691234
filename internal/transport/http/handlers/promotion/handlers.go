package promotionhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talent/internal/app/usecase"
	"talent/internal/domain/auth"
	"talent/internal/domain/promotion"
	"talent/internal/transport/http/middleware"
	"talent/internal/transport/http/shared"
)

type Service interface {
	CreateWorkflow(ctx context.Context, actor auth.Actor, name string, steps []promotion.WorkflowStep) (promotion.Workflow, error)
	CreateCandidate(ctx context.Context, actor auth.Actor, in promotion.CandidateInput) (promotion.Candidate, error)
	SubmitPromotion(ctx context.Context, actor auth.Actor, candidateID string) (promotion.Submission, error)
	ApprovePromotion(ctx context.Context, actor auth.Actor, approvalID, note string) (promotion.Decision, error)
	RejectPromotion(ctx context.Context, actor auth.Actor, approvalID, reason string) (promotion.Decision, error)
	WithdrawPromotion(ctx context.Context, actor auth.Actor, candidateID, reason string) (promotion.Candidate, error)
	GetCandidate(ctx context.Context, candidateID string) (usecase.CandidateDetail, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	write := middleware.RequirePermission(auth.PermPromotionWrite, h.Perms)
	decide := middleware.RequirePermission(auth.PermPromotionDecide, h.Perms)

	r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Post("/promotion-workflows", h.handleCreateWorkflow)
	r.With(write).Post("/promotions", h.handleCreateCandidate)
	r.With(middleware.RequirePermission(auth.PermPromotionRead, h.Perms)).Get("/promotions/{candidateID}", h.handleGetCandidate)
	r.With(write).Post("/promotions/{candidateID}/submit", h.handleSubmit)
	r.With(write).Post("/promotions/{candidateID}/withdraw", h.handleWithdraw)
	r.With(decide).Post("/promotion-approvals/{approvalID}/approve", h.handleApprove)
	r.With(decide).Post("/promotion-approvals/{approvalID}/reject", h.handleReject)
}

func (h *Handler) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var payload struct {
		Name  string                   `json:"name"`
		Steps []promotion.WorkflowStep `json:"steps"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	wf, err := h.Service.CreateWorkflow(r.Context(), actor, payload.Name, payload.Steps)
	shared.Respond(w, r, http.StatusCreated, wf, err)
}

func (h *Handler) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var payload promotion.CandidateInput
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	v.Required("proposedRoleId", payload.ProposedRoleID, "is required")
	v.Required("workflowId", payload.WorkflowID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	c, err := h.Service.CreateCandidate(r.Context(), actor, payload)
	shared.Respond(w, r, http.StatusCreated, c, err)
}

func (h *Handler) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.GetCandidate(r.Context(), chi.URLParam(r, "candidateID"))
	shared.Respond(w, r, http.StatusOK, detail, err)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	sub, err := h.Service.SubmitPromotion(r.Context(), actor, chi.URLParam(r, "candidateID"))
	shared.Respond(w, r, http.StatusOK, sub, err)
}

type notePayload struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// decodeNote tolerates an empty body since notes are optional on approve.
func decodeNote(w http.ResponseWriter, r *http.Request) (notePayload, bool) {
	var payload notePayload
	if r.ContentLength == 0 {
		return payload, true
	}
	return payload, shared.Decode(w, r, &payload)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodeNote(w, r)
	if !ok {
		return
	}
	c, err := h.Service.WithdrawPromotion(r.Context(), actor, chi.URLParam(r, "candidateID"), payload.Reason)
	shared.Respond(w, r, http.StatusOK, c, err)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodeNote(w, r)
	if !ok {
		return
	}
	d, err := h.Service.ApprovePromotion(r.Context(), actor, chi.URLParam(r, "approvalID"), payload.Note)
	shared.Respond(w, r, http.StatusOK, d, err)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	payload, ok := decodeNote(w, r)
	if !ok {
		return
	}
	d, err := h.Service.RejectPromotion(r.Context(), actor, chi.URLParam(r, "approvalID"), payload.Reason)
	shared.Respond(w, r, http.StatusOK, d, err)
}
