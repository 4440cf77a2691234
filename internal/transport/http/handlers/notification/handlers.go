package notificationhandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"talent/internal/domain/auth"
	"talent/internal/domain/notifications"
	"talent/internal/transport/http/middleware"
	"talent/internal/transport/http/shared"
)

type Service interface {
	ListNotifications(ctx context.Context, actor auth.Actor, limit, offset int) (notifications.Page, error)
	MarkNotificationRead(ctx context.Context, actor auth.Actor, notificationID string) (notifications.Notification, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermNotificationRead, h.Perms))
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, notifications.MaxListLimit)
	out, err := h.Service.ListNotifications(r.Context(), actor, page.Limit, page.Offset)
	if err == nil {
		w.Header().Set("X-Total-Count", strconv.Itoa(out.Total))
	}
	shared.Respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	n, err := h.Service.MarkNotificationRead(r.Context(), actor, chi.URLParam(r, "notificationID"))
	shared.Respond(w, r, http.StatusOK, n, err)
}
