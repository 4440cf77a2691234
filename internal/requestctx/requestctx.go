// Package requestctx carries per-request metadata from the HTTP edge down to
// the audit sink without importing transport code.
package requestctx

import "context"

type Request struct {
	ID       string
	ClientIP string
}

type key struct{}

func With(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, key{}, r)
}

// From returns the zero Request outside an HTTP request, e.g. in jobs.
func From(ctx context.Context) Request {
	r, _ := ctx.Value(key{}).(Request)
	return r
}
