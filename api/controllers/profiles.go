package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aymenjlassi/darna-backend/api/middleware"
	"github.com/aymenjlassi/darna-backend/api/responses"
	"github.com/aymenjlassi/darna-backend/api/validators"
	profilesvc "github.com/aymenjlassi/darna-backend/internal/profiles"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
)

// GetMyProfile returns the caller's own profile.
func GetMyProfile(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		profileID := middleware.ProfileIDFromContext(r.Context())
		if profileID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		profile, err := svc.GetByID(r.Context(), profileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UpdateMyProfile applies a partial patch to the caller's profile.
func UpdateMyProfile(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		profileID := middleware.ProfileIDFromContext(r.Context())
		if profileID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), profileID, profilesvc.UpdateInput{
			DisplayName: payload.DisplayName,
			Phone:       payload.Phone,
			Address:     payload.Address,
			City:        payload.City,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=120"`
}
