package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

type contextKey string

const (
	ctxProfileID  contextKey = "profile_id"
	ctxIdentityID contextKey = "identity_id"
	ctxRole       contextKey = "actor_role"
)

func ProfileIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxProfileID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func IdentityIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxIdentityID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.ProfileRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ProfileRole); ok {
		return v
	}
	return ""
}

// WithProfile seeds the context with the resolved actor, mainly for tests.
func WithProfile(ctx context.Context, profileID uuid.UUID, role enums.ProfileRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxProfileID, profileID)
	return context.WithValue(ctx, ctxRole, role)
}
