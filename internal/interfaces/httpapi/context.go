package httpapi

import (
	"context"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
)

type contextKey string

const (
	sessionContextKey   contextKey = "auth_session"
	tokenContextKey     contextKey = "auth_token"
	requestIDContextKey contextKey = "request_id"
)

func withSession(ctx context.Context, token string, sess auth.Session) context.Context {
	ctx = context.WithValue(ctx, tokenContextKey, token)
	return context.WithValue(ctx, sessionContextKey, sess)
}

// sessionFromContext falls back to LoggedOut outside RequireSession.
func sessionFromContext(ctx context.Context) auth.Session {
	if sess, ok := ctx.Value(sessionContextKey).(auth.Session); ok {
		return sess
	}
	return auth.LoggedOut{}
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
