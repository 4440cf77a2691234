package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"talent/internal/domain/auth"
	"talent/internal/transport/http/api"
	"talent/internal/transport/http/middleware"
)

// Actor returns the authenticated caller or writes a 401.
func Actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return actor, ok
}

// Decode reads a JSON body into dst or writes a 400. Unknown fields are rejected.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// Respond writes data, or the error's mapped status when err is non-nil.
func Respond(w http.ResponseWriter, r *http.Request, status int, data any, err error) {
	requestID := middleware.GetRequestID(r.Context())
	if err != nil {
		api.FailError(w, err, requestID)
		return
	}
	if status == http.StatusCreated {
		api.Created(w, data, requestID)
		return
	}
	api.Success(w, data, requestID)
}
