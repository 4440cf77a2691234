package notificationhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"talent/internal/domain/auth"
	"talent/internal/domain/notifications"
	"talent/internal/transport/http/middleware"
)

type fakeService struct {
	limit, offset int
	items         map[string]notifications.Notification
}

func (f *fakeService) ListNotifications(_ context.Context, _ auth.Actor, limit, offset int) (notifications.Page, error) {
	f.limit, f.offset = limit, offset
	page := notifications.Page{Items: []notifications.Notification{}, Total: len(f.items)}
	for _, n := range f.items {
		page.Items = append(page.Items, n)
	}
	return page, nil
}

func (f *fakeService) MarkNotificationRead(_ context.Context, _ auth.Actor, id string) (notifications.Notification, error) {
	n, ok := f.items[id]
	if !ok {
		return notifications.Notification{}, notifications.ErrNotificationNotFound
	}
	return n, nil
}

func serve(svc Service, method, path string, withActor bool) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(svc, auth.StaticPermissions{}).RegisterRoutes(r)
	req := httptest.NewRequest(method, path, nil)
	if withActor {
		req = req.WithContext(middleware.WithActor(req.Context(), auth.Actor{UserID: "u1", RoleName: auth.RoleEmployee}))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListPassesClampedPagination(t *testing.T) {
	svc := &fakeService{items: map[string]notifications.Notification{"n1": {ID: "n1", Title: "Certificate issued"}}}

	rec := serve(svc, http.MethodGet, "/notifications/?limit=500&offset=3", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.limit != notifications.MaxListLimit || svc.offset != 3 {
		t.Fatalf("unexpected pagination %d/%d", svc.limit, svc.offset)
	}
	if rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("unexpected total header %q", rec.Header().Get("X-Total-Count"))
	}
	var env struct {
		Data notifications.Page `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data.Items) != 1 || env.Data.Items[0].ID != "n1" {
		t.Fatalf("unexpected page %+v", env.Data)
	}
}

func TestMarkRead(t *testing.T) {
	svc := &fakeService{items: map[string]notifications.Notification{"n1": {ID: "n1"}}}

	if rec := serve(svc, http.MethodPost, "/notifications/n1/read", true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := serve(svc, http.MethodPost, "/notifications/missing/read", true); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRequiresActor(t *testing.T) {
	rec := serve(&fakeService{}, http.MethodGet, "/notifications/", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
