package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aymenjlassi/darna-backend/api/middleware"
	"github.com/aymenjlassi/darna-backend/api/responses"
	"github.com/aymenjlassi/darna-backend/api/validators"
	propertysvc "github.com/aymenjlassi/darna-backend/internal/properties"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
)

// CreateProperty publishes a new listing owned by the caller.
func CreateProperty(svc propertysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		ownerID := middleware.ProfileIDFromContext(r.Context())
		if ownerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		var payload createPropertyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		property, err := svc.CreateProperty(r.Context(), ownerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, property)
	}
}

// GetProperty returns a single listing with derived pricing fields.
func GetProperty(svc propertysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		actorID := middleware.ProfileIDFromContext(r.Context())
		propertyID, err := parseUUIDParam(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetProperty(r.Context(), actorID, propertyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// UpdateProperty applies a partial patch to a listing the caller owns.
func UpdateProperty(svc propertysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		actorID := middleware.ProfileIDFromContext(r.Context())
		if actorID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		propertyID, err := parseUUIDParam(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePropertyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		property, err := svc.UpdateProperty(r.Context(), actorID, propertyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, property)
	}
}

// DeactivateProperty soft-deletes a listing; the row survives for existing
// loan applications that reference it.
func DeactivateProperty(svc propertysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		actorID := middleware.ProfileIDFromContext(r.Context())
		if actorID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		propertyID, err := parseUUIDParam(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateProperty(r.Context(), actorID, propertyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListMyProperties returns the caller's own listings, newest first.
func ListMyProperties(svc propertysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		ownerID := middleware.ProfileIDFromContext(r.Context())
		if ownerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeInactive, err := validators.ParseQueryBool(r, "include_inactive", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListOwnerProperties(r.Context(), ownerID, params, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type createPropertyRequest struct {
	Title        string            `json:"title" validate:"required,max=255"`
	Description  *string           `json:"description,omitempty"`
	Price        string            `json:"price" validate:"required"`
	Location     string            `json:"location" validate:"required,max=255"`
	Bedrooms     int               `json:"bedrooms" validate:"min=0"`
	Bathrooms    int               `json:"bathrooms" validate:"min=0"`
	AreaSqm      *int              `json:"area_sqm,omitempty" validate:"omitempty,min=1"`
	PropertyType string            `json:"property_type" validate:"required"`
	Images       []documentPayload `json:"images,omitempty" validate:"omitempty,dive"`
}

func (p createPropertyRequest) toCreateInput() (propertysvc.CreateInput, error) {
	propertyType, err := enums.ParsePropertyType(strings.TrimSpace(p.PropertyType))
	if err != nil {
		return propertysvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_type")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
	if err != nil {
		return propertysvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}

	images, err := decodeDocuments(p.Images)
	if err != nil {
		return propertysvc.CreateInput{}, err
	}

	return propertysvc.CreateInput{
		Title:        strings.TrimSpace(p.Title),
		Description:  p.Description,
		Price:        price,
		Location:     strings.TrimSpace(p.Location),
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		AreaSqm:      p.AreaSqm,
		PropertyType: propertyType,
		Images:       images,
	}, nil
}

type updatePropertyRequest struct {
	Title        *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string `json:"description,omitempty"`
	Price        *string `json:"price,omitempty"`
	Location     *string `json:"location,omitempty" validate:"omitempty,min=1,max=255"`
	Bedrooms     *int    `json:"bedrooms,omitempty" validate:"omitempty,min=0"`
	Bathrooms    *int    `json:"bathrooms,omitempty" validate:"omitempty,min=0"`
	AreaSqm      *int    `json:"area_sqm,omitempty" validate:"omitempty,min=1"`
	PropertyType *string `json:"property_type,omitempty"`
}

func (p updatePropertyRequest) toUpdateInput() (propertysvc.UpdateInput, error) {
	input := propertysvc.UpdateInput{
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		AreaSqm:     p.AreaSqm,
	}

	if p.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*p.Price))
		if err != nil {
			return propertysvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	if p.PropertyType != nil {
		propertyType, err := enums.ParsePropertyType(strings.TrimSpace(*p.PropertyType))
		if err != nil {
			return propertysvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_type")
		}
		input.PropertyType = &propertyType
	}
	return input, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
