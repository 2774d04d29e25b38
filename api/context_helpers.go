package api

import (
	"context"

	"SisContratacoes/api/auth"
)

type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "request_id"
)

func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx returns the authenticated caller or nil.
func IdentityFromCtx(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

// GetUserIDFromCtx returns the caller's id, or "" for anonymous requests.
func GetUserIDFromCtx(ctx context.Context) string {
	if id := IdentityFromCtx(ctx); id != nil {
		return id.UserID
	}
	return ""
}

func RequestIDFromCtx(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}
