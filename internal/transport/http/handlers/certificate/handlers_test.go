package certificatehandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"talent/internal/domain/auth"
	"talent/internal/domain/certificate"
	"talent/internal/transport/http/middleware"
)

type fakeService map[string]certificate.Verification

func (f fakeService) VerifyCertificate(_ context.Context, id string) (certificate.Verification, error) {
	v, ok := f[id]
	if !ok {
		return certificate.Verification{}, certificate.ErrCertificateNotFound
	}
	return v, nil
}

func get(svc Service, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(svc, auth.StaticPermissions{}).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(middleware.WithActor(req.Context(), auth.Actor{UserID: "u1", RoleName: auth.RoleEmployee}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestVerify(t *testing.T) {
	svc := fakeService{"ABC123DEF456": {HolderName: "Ada Lovelace", Valid: true}}

	rec := get(svc, "/certificates/ABC123DEF456/verify")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data certificate.Verification `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data.Valid || env.Data.HolderName != "Ada Lovelace" {
		t.Fatalf("unexpected verification %+v", env.Data)
	}

	if rec := get(svc, "/certificates/NOPE/verify"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
