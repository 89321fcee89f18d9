package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxUserName
)

func WithIdentity(ctx context.Context, userID, name string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxUserName, name)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

// UserName returns the actor's display name; empty when not set.
func UserName(ctx context.Context) string {
	if s, ok := ctx.Value(ctxUserName).(string); ok {
		return s
	}
	return ""
}
