package certificatehandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talent/internal/domain/auth"
	"talent/internal/domain/certificate"
	"talent/internal/transport/http/middleware"
	"talent/internal/transport/http/shared"
)

type Service interface {
	VerifyCertificate(ctx context.Context, certificateID string) (certificate.Verification, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermCertificateRead, h.Perms)).Get("/certificates/{certificateID}/verify", h.handleVerify)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.VerifyCertificate(r.Context(), chi.URLParam(r, "certificateID"))
	shared.Respond(w, r, http.StatusOK, v, err)
}
