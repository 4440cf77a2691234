package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Required("name", " ", "is required")
	v.Enum("frequency", "weekly", []string{"annual", "quarterly"}, "must be a known frequency")
	start, _ := v.Date("periodStart", "2026-03-31")
	end, _ := v.Date("periodEnd", "2026-01-01")
	v.DateOrder("periodStart", start, "periodEnd", end)

	issues := v.Issues()
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %+v", issues)
	}
	if issues[0].Field != "frequency" || issues[1].Field != "name" {
		t.Fatalf("expected issues sorted by field, got %+v", issues)
	}

	if _, ok := NewValidator().Date("due", "2026-03-31T09:00:00Z"); !ok {
		t.Fatal("expected RFC3339 timestamps to be accepted")
	}
	empty := NewValidator()
	if _, ok := empty.Date("due", ""); ok || len(empty.Issues()) != 1 {
		t.Fatal("expected an empty date to be rejected")
	}

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") {
		t.Fatal("expected Reject to write a response")
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "periodEnd") {
		t.Fatalf("unexpected rejection %d %s", rec.Code, rec.Body.String())
	}
}

func TestEnumIgnoresCaseAndEmpty(t *testing.T) {
	v := NewValidator()
	v.Enum("frequency", "Annual", []string{"annual"}, "unknown")
	v.Enum("frequency", "", []string{"annual"}, "unknown")
	if rec := httptest.NewRecorder(); v.Reject(rec, "req-1") {
		t.Fatalf("expected no issues, got %+v", v.Issues())
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	var payload struct {
		EnrollmentID string `json:"enrollmentId"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"enrollmentId":"e1","extra":true}`))
	rec := httptest.NewRecorder()
	if Decode(rec, req, &payload) {
		t.Fatal("expected unknown field to be rejected")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
