package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aymenjlassi/darna-backend/api/responses"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
)

const (
	writeRateLimitWindow = time.Minute
	writeRateLimit       = int64(30)
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit caps write traffic per profile. Reads pass through; an
// unauthenticated request falls back to no limit since auth already gates
// every route behind this middleware.
func RateLimit(store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			profileID := ProfileIDFromContext(r.Context())
			if profileID == uuid.Nil {
				next.ServeHTTP(w, r)
				return
			}

			scope := fmt.Sprintf("writes:%s", profileID)
			allowed, count, err := store.FixedWindowAllow(r.Context(), scope, writeRateLimit, writeRateLimitWindow)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{"count": count, "limit": writeRateLimit})
					logg.Warn(ctx, "write rate limit exceeded")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "write limit reached, slow down"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
