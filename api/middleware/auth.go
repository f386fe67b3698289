package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aymenjlassi/darna-backend/api/responses"
	"github.com/aymenjlassi/darna-backend/internal/profiles"
	pkgauth "github.com/aymenjlassi/darna-backend/pkg/auth"
	"github.com/aymenjlassi/darna-backend/pkg/config"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
)

// Auth verifies the identity provider's bearer token and seeds the request
// context with the resolved profile. Profiles are created on first login.
func Auth(cfg config.JWTConfig, resolver profiles.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseIdentityToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			profile, err := resolver.UpsertByIdentity(r.Context(), profiles.UpsertInput{
				IdentityID:  claims.Subject,
				DisplayName: claims.DisplayName,
				Phone:       claims.Phone,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxProfileID, profile.ID)
			ctx = context.WithValue(ctx, ctxIdentityID, claims.Subject)
			ctx = context.WithValue(ctx, ctxRole, profile.Role)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"profile_id": profile.ID.String(),
					"actor_role": string(profile.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
