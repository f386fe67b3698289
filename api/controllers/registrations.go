package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/aymenjlassi/darna-backend/api/middleware"
	"github.com/aymenjlassi/darna-backend/api/responses"
	"github.com/aymenjlassi/darna-backend/api/validators"
	registrationsvc "github.com/aymenjlassi/darna-backend/internal/registrations"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
)

// SubmitRegistration files a bank-agent registration for the caller.
func SubmitRegistration(svc registrationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		userID := middleware.ProfileIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		var payload submitRegistrationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toSubmitInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		registration, err := svc.SubmitRegistration(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, registration)
	}
}

// GetRegistration returns a registration to its owner or an admin.
func GetRegistration(svc registrationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		actorID := middleware.ProfileIDFromContext(r.Context())
		if actorID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		registrationID, err := parseUUIDParam(r, "registrationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		registration, err := svc.GetRegistration(r.Context(), registrationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := middleware.RoleFromContext(r.Context())
		if registration.UserID != actorID && role != enums.ProfileRoleAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "registration not found"))
			return
		}
		responses.WriteSuccess(w, registration)
	}
}

// ReviewRegistration records an admin decision on a pending registration.
func ReviewRegistration(svc registrationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		reviewerID := middleware.ProfileIDFromContext(r.Context())
		if reviewerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing"))
			return
		}

		registrationID, err := parseUUIDParam(r, "registrationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewRegistrationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseRegistrationStatus(strings.TrimSpace(payload.Decision))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		registration, err := svc.ReviewRegistration(r.Context(), reviewerID, registrationID, decision, registrationsvc.ReviewInput{
			AdminNotes:      payload.AdminNotes,
			RejectionReason: payload.RejectionReason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, registration)
	}
}

// ListApprovedAgents serves the agent picker for loan applicants.
func ListApprovedAgents(svc registrationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListApprovedAgents(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type submitRegistrationRequest struct {
	FullName        string            `json:"full_name" validate:"required,max=200"`
	DateOfBirth     string            `json:"date_of_birth" validate:"required"`
	NationalID      string            `json:"national_id" validate:"required,max=50"`
	Phone           string            `json:"phone" validate:"required,max=20"`
	Address         string            `json:"address" validate:"required,max=255"`
	City            string            `json:"city" validate:"required,max=120"`
	BankName        string            `json:"bank_name" validate:"required,max=200"`
	Position        string            `json:"position" validate:"required,max=120"`
	EmployeeID      string            `json:"employee_id" validate:"required,max=50"`
	Department      string            `json:"department" validate:"required,max=120"`
	SupervisorPhone string            `json:"supervisor_phone" validate:"required"`
	Documents       []documentPayload `json:"documents,omitempty" validate:"omitempty,dive"`
}

func (p submitRegistrationRequest) toSubmitInput() (registrationsvc.SubmitInput, error) {
	documents, err := decodeDocuments(p.Documents, "national_id_doc_url", "employment_letter_url")
	if err != nil {
		return registrationsvc.SubmitInput{}, err
	}

	return registrationsvc.SubmitInput{
		FullName:        strings.TrimSpace(p.FullName),
		DateOfBirth:     strings.TrimSpace(p.DateOfBirth),
		NationalID:      strings.TrimSpace(p.NationalID),
		Phone:           strings.TrimSpace(p.Phone),
		Address:         strings.TrimSpace(p.Address),
		City:            strings.TrimSpace(p.City),
		BankName:        strings.TrimSpace(p.BankName),
		Position:        strings.TrimSpace(p.Position),
		EmployeeID:      strings.TrimSpace(p.EmployeeID),
		Department:      strings.TrimSpace(p.Department),
		SupervisorPhone: strings.TrimSpace(p.SupervisorPhone),
		Documents:       documents,
	}, nil
}

type reviewRegistrationRequest struct {
	Decision        string  `json:"decision" validate:"required"`
	AdminNotes      *string `json:"admin_notes,omitempty" validate:"omitempty,max=2000"`
	RejectionReason *string `json:"rejection_reason,omitempty" validate:"omitempty,max=2000"`
}
