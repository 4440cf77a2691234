package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"talent/internal/requestctx"
)

const maxRequestIDLen = 128

// RequestID tags the request with an id and the client ip; both land on audit
// rows and access log lines. Caller-supplied ids are kept when they are short
// printable ASCII.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if !validRequestID(reqID) {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.With(r.Context(), requestctx.Request{ID: reqID, ClientIP: clientIPKey(r)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	return !strings.ContainsFunc(id, func(c rune) bool { return c < '!' || c > '~' })
}

func GetRequestID(ctx context.Context) string {
	return requestctx.From(ctx).ID
}
