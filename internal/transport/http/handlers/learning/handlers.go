package learninghandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talent/internal/app/usecase"
	"talent/internal/domain/auth"
	"talent/internal/domain/learning"
	"talent/internal/transport/http/middleware"
	"talent/internal/transport/http/shared"
)

type Service interface {
	StartLesson(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string) (usecase.LessonResult, error)
	ViewLesson(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string) (usecase.LessonResult, error)
	PingLesson(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string, positionSec, consumedSec int) (usecase.LessonResult, error)
	CompleteLesson(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string) (usecase.LessonResult, error)
	PresentQuiz(ctx context.Context, lessonID string) (learning.PresentedQuiz, error)
	StartQuizAttempt(ctx context.Context, actor auth.Actor, enrollmentID, lessonID string) (usecase.StartedAttempt, error)
	SubmitQuizAttempt(ctx context.Context, actor auth.Actor, attemptID string, answers learning.Answers) (usecase.GradedAttempt, error)
	PublishPath(ctx context.Context, actor auth.Actor, pathID string) (learning.Path, error)
	EnrollInPath(ctx context.Context, actor auth.Actor, employeeID, pathID string) (usecase.PathEnrollmentResult, error)
	GetEnrollment(ctx context.Context, enrollmentID string) (usecase.EnrollmentView, error)
	CompleteEnrollment(ctx context.Context, actor auth.Actor, enrollmentID string) (usecase.CompletedEnrollment, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	progress := middleware.RequirePermission(auth.PermLearningProgress, h.Perms)
	manage := middleware.RequirePermission(auth.PermLearningManage, h.Perms)
	read := middleware.RequirePermission(auth.PermLearningRead, h.Perms)

	r.Route("/lessons/{lessonID}", func(r chi.Router) {
		r.With(progress).Post("/progress/start", h.handleStart)
		r.With(progress).Post("/progress/view", h.handleView)
		r.With(progress).Post("/progress/ping", h.handlePing)
		r.With(progress).Post("/progress/complete", h.handleComplete)
		r.With(read).Get("/quiz", h.handlePresentQuiz)
		r.With(progress).Post("/quiz/attempts", h.handleStartAttempt)
	})
	r.With(progress).Post("/quiz-attempts/{attemptID}/submit", h.handleSubmitAttempt)
	r.With(manage).Post("/learning-paths/{pathID}/publish", h.handlePublishPath)
	r.With(manage).Post("/learning-paths/{pathID}/enrollments", h.handleEnrollInPath)
	r.With(read).Get("/enrollments/{enrollmentID}", h.handleGetEnrollment)
	r.With(manage).Post("/enrollments/{enrollmentID}/complete", h.handleCompleteEnrollment)
}

type enrollmentPayload struct {
	EnrollmentID string `json:"enrollmentId"`
}

// lessonCall decodes the enrollment id shared by every lesson progress route.
func (h *Handler) lessonCall(w http.ResponseWriter, r *http.Request) (auth.Actor, string, bool) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return auth.Actor{}, "", false
	}
	var payload enrollmentPayload
	if !shared.Decode(w, r, &payload) {
		return auth.Actor{}, "", false
	}
	v := shared.NewValidator()
	v.Required("enrollmentId", payload.EnrollmentID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return auth.Actor{}, "", false
	}
	return actor, payload.EnrollmentID, true
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	actor, enrollmentID, ok := h.lessonCall(w, r)
	if !ok {
		return
	}
	out, err := h.Service.StartLesson(r.Context(), actor, enrollmentID, chi.URLParam(r, "lessonID"))
	shared.Respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	actor, enrollmentID, ok := h.lessonCall(w, r)
	if !ok {
		return
	}
	out, err := h.Service.ViewLesson(r.Context(), actor, enrollmentID, chi.URLParam(r, "lessonID"))
	shared.Respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	actor, enrollmentID, ok := h.lessonCall(w, r)
	if !ok {
		return
	}
	out, err := h.Service.CompleteLesson(r.Context(), actor, enrollmentID, chi.URLParam(r, "lessonID"))
	shared.Respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var payload struct {
		EnrollmentID    string `json:"enrollmentId"`
		PositionSec     int    `json:"positionSec"`
		SecondsConsumed int    `json:"secondsConsumed"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("enrollmentId", payload.EnrollmentID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	out, err := h.Service.PingLesson(r.Context(), actor, payload.EnrollmentID, chi.URLParam(r, "lessonID"), payload.PositionSec, payload.SecondsConsumed)
	shared.Respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) handlePresentQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.Service.PresentQuiz(r.Context(), chi.URLParam(r, "lessonID"))
	shared.Respond(w, r, http.StatusOK, quiz, err)
}

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	actor, enrollmentID, ok := h.lessonCall(w, r)
	if !ok {
		return
	}
	out, err := h.Service.StartQuizAttempt(r.Context(), actor, enrollmentID, chi.URLParam(r, "lessonID"))
	shared.Respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var payload struct {
		Answers map[string]json.RawMessage `json:"answers"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	answers, err := learning.ParseAnswers(payload.Answers)
	if err != nil {
		shared.Respond(w, r, http.StatusOK, nil, err)
		return
	}
	out, err := h.Service.SubmitQuizAttempt(r.Context(), actor, chi.URLParam(r, "attemptID"), answers)
	shared.Respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) handlePublishPath(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	path, err := h.Service.PublishPath(r.Context(), actor, chi.URLParam(r, "pathID"))
	shared.Respond(w, r, http.StatusOK, path, err)
}

func (h *Handler) handleEnrollInPath(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	var payload struct {
		EmployeeID string `json:"employeeId"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	out, err := h.Service.EnrollInPath(r.Context(), actor, payload.EmployeeID, chi.URLParam(r, "pathID"))
	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	shared.Respond(w, r, status, out, err)
}

func (h *Handler) handleGetEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.Service.GetEnrollment(r.Context(), chi.URLParam(r, "enrollmentID"))
	shared.Respond(w, r, http.StatusOK, enrollment, err)
}

func (h *Handler) handleCompleteEnrollment(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	out, err := h.Service.CompleteEnrollment(r.Context(), actor, chi.URLParam(r, "enrollmentID"))
	shared.Respond(w, r, http.StatusOK, out, err)
}
