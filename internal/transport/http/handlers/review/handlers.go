package reviewhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talent/internal/app/usecase"
	"talent/internal/domain/auth"
	"talent/internal/domain/review"
	"talent/internal/transport/http/middleware"
	"talent/internal/transport/http/shared"
)

type Service interface {
	CreateCycle(ctx context.Context, actor auth.Actor, in review.CycleInput) (review.Cycle, error)
	ActivateCycle(ctx context.Context, actor auth.Actor, cycleID string, assignments []review.Assignment) (usecase.ActivatedCycle, error)
	TransitionCycle(ctx context.Context, actor auth.Actor, cycleID, to string) (review.Cycle, error)
	SubmitScore(ctx context.Context, actor auth.Actor, reviewID, reviewerType string, scores map[string]float64) (review.SubmitResult, error)
	GetReview(ctx context.Context, reviewID string) (review.ReviewDetail, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermReviewManage, h.Perms)).Post("/review-cycles", h.handleCreateCycle)
	r.With(middleware.RequirePermission(auth.PermReviewManage, h.Perms)).Post("/review-cycles/{cycleID}/activate", h.handleActivateCycle)
	r.With(middleware.RequirePermission(auth.PermReviewManage, h.Perms)).Post("/review-cycles/{cycleID}/complete", h.transitionTo(review.CycleStatusCompleted))
	r.With(middleware.RequirePermission(auth.PermReviewManage, h.Perms)).Post("/review-cycles/{cycleID}/archive", h.transitionTo(review.CycleStatusArchived))
	r.With(middleware.RequirePermission(auth.PermReviewRead, h.Perms)).Get("/reviews/{reviewID}", h.handleGetReview)
	r.With(middleware.RequirePermission(auth.PermReviewSubmit, h.Perms)).Post("/reviews/{reviewID}/scores", h.handleSubmitScore)
}

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var payload struct {
		Name          string   `json:"name"`
		PeriodStart   string   `json:"periodStart"`
		PeriodEnd     string   `json:"periodEnd"`
		Frequency     string   `json:"frequency"`
		Competencies  []string `json:"competencies"`
		ReviewerTypes []string `json:"reviewerTypes"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Enum("frequency", payload.Frequency, review.Frequencies, "must be a known frequency")
	start, _ := v.Date("periodStart", payload.PeriodStart)
	end, _ := v.Date("periodEnd", payload.PeriodEnd)
	v.DateOrder("periodStart", start, "periodEnd", end)
	for _, reviewerType := range payload.ReviewerTypes {
		v.Enum("reviewerTypes", reviewerType, review.ReviewerTypes, "must be self, manager, peer or direct_report")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	cycle, err := h.Service.CreateCycle(r.Context(), actor, review.CycleInput{
		Name:          payload.Name,
		PeriodStart:   start,
		PeriodEnd:     end,
		Frequency:     payload.Frequency,
		Competencies:  payload.Competencies,
		ReviewerTypes: payload.ReviewerTypes,
	})
	shared.Respond(w, r, http.StatusCreated, cycle, err)
}

func (h *Handler) handleActivateCycle(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var payload struct {
		Assignments []review.Assignment `json:"assignments"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	out, err := h.Service.ActivateCycle(r.Context(), actor, chi.URLParam(r, "cycleID"), payload.Assignments)
	shared.Respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) transitionTo(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := shared.Actor(w, r)
		if !ok {
			return
		}
		cycle, err := h.Service.TransitionCycle(r.Context(), actor, chi.URLParam(r, "cycleID"), status)
		shared.Respond(w, r, http.StatusOK, cycle, err)
	}
}

func (h *Handler) handleGetReview(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.GetReview(r.Context(), chi.URLParam(r, "reviewID"))
	shared.Respond(w, r, http.StatusOK, detail, err)
}

func (h *Handler) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var payload struct {
		ReviewerType string             `json:"reviewerType"`
		Scores       map[string]float64 `json:"scores"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("reviewerType", payload.ReviewerType, "is required")
	v.Enum("reviewerType", payload.ReviewerType, review.ReviewerTypes, "must be self, manager, peer or direct_report")
	if len(payload.Scores) == 0 {
		v.Add("scores", "must contain at least one competency")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.SubmitScore(r.Context(), actor, chi.URLParam(r, "reviewID"), payload.ReviewerType, payload.Scores)
	shared.Respond(w, r, http.StatusOK, result, err)
}
