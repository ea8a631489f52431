package tracing

import (
	"context"

	"github.com/deskshell/deskshell/internal/shared/id"
)

// Header carries the request id between client and server. Tooling that
// already holds an id (a retried export, a bug-report script) sends it
// back so log lines across attempts correlate.
const Header = "X-Request-ID"

type contextKey struct{}

// RequestID returns the id assigned to this request, or empty if the
// context never passed through the middleware.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(contextKey{}).(string)
	return v
}

// WithRequestID stores a request id on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// EnsureRequestID returns the inbound id when present and well formed,
// otherwise mints a fresh one.
func EnsureRequestID(inbound string) string {
	if inbound != "" && len(inbound) <= 64 {
		return inbound
	}
	return id.NewRequestID().String()
}
