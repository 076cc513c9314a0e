package api

import (
	"context"
	"net/http"
	"strings"

	"QuickBill305/internal/feeimport"
	"QuickBill305/internal/session"
)

type contextKey string

const (
	actorKey   contextKey = "actor"
	sessionKey contextKey = "session"
)

// WithActor stores the resolved ActorContext for downstream handlers.
func WithActor(ctx context.Context, actor feeimport.ActorContext) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromCtx(ctx context.Context) (feeimport.ActorContext, bool) {
	a, ok := ctx.Value(actorKey).(feeimport.ActorContext)
	return a, ok
}

func WithSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromCtx(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(session.Session)
	return s, ok
}

// GetUserIDFromCtx returns the acting user id, or "" for anonymous requests.
func GetUserIDFromCtx(ctx context.Context) string {
	if a, ok := ActorFromCtx(ctx); ok {
		return a.UserID
	}
	if s, ok := SessionFromCtx(ctx); ok {
		return s.UserID
	}
	return ""
}

// ClientIP prefers the first X-Forwarded-For hop over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
