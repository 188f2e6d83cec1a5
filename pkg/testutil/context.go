package testutil

import (
	"context"
	"net/http"

	"driveid/internal/platform/middleware"
)

// WithActor adds an actor ID and calling service to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, actorID, service string) *http.Request {
	ctx := req.Context()
	if actorID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyActorID, actorID)
	}
	if service != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyService, service)
	}
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyRequestID, requestID)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
