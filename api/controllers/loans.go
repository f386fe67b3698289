package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aymenjlassi/darna-backend/api/middleware"
	"github.com/aymenjlassi/darna-backend/api/responses"
	"github.com/aymenjlassi/darna-backend/api/validators"
	loansvc "github.com/aymenjlassi/darna-backend/internal/loans"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
)

// CreateApplication files a loan application for the caller.
func CreateApplication(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createApplicationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		application, err := svc.CreateApplication(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, application)
	}
}

// GetApplication returns one application to its applicant, assigned agent or
// an admin.
func GetApplication(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applicationID, err := parseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		application, err := svc.GetApplication(r.Context(), actor, applicationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

// UpdateApplication applies a partial patch; which fields are accepted depends
// on the caller's relationship to the application.
func UpdateApplication(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applicationID, err := parseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateApplicationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		application, err := svc.UpdateApplication(r.Context(), actor, applicationID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

// DeleteApplication removes an application permanently.
func DeleteApplication(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applicationID, err := parseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteApplication(r.Context(), actor, applicationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListApplications returns the caller's applications. Admins may pass
// applicant_id to inspect someone else's.
func ListApplications(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applicantID := actor.ProfileID
		if raw := strings.TrimSpace(r.URL.Query().Get("applicant_id")); raw != "" {
			parsed, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid applicant_id"))
				return
			}
			applicantID = parsed
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListApplicantApplications(r.Context(), actor, applicantID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// QuoteMonthlyPayment computes an indicative monthly payment without touching
// any stored application.
func QuoteMonthlyPayment(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(payload.LoanAmount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan_amount"))
			return
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(payload.AnnualRate))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid annual_rate"))
			return
		}

		payment, err := loansvc.ComputeMonthlyPayment(amount, rate, payload.LoanTermYears)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"loan_amount":     amount,
			"annual_rate":     rate,
			"loan_term_years": payload.LoanTermYears,
			"monthly_payment": payment,
		})
	}
}

func actorFromContext(r *http.Request) (loansvc.Actor, error) {
	profileID := middleware.ProfileIDFromContext(r.Context())
	if profileID == uuid.Nil {
		return loansvc.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing")
	}
	return loansvc.Actor{
		ProfileID: profileID,
		Role:      middleware.RoleFromContext(r.Context()),
	}, nil
}

type createApplicationRequest struct {
	PropertyID             *uuid.UUID        `json:"property_id,omitempty"`
	LoanAmount             string            `json:"loan_amount" validate:"required"`
	LoanTermYears          int               `json:"loan_term_years" validate:"required,min=1"`
	EmploymentStatus       string            `json:"employment_status" validate:"required"`
	AnnualIncome           string            `json:"annual_income" validate:"required"`
	SelectedAgentID        *uuid.UUID        `json:"selected_agent_id,omitempty"`
	IncludeInsurance       bool              `json:"include_insurance"`
	MonthlyInsuranceAmount *string           `json:"monthly_insurance_amount,omitempty"`
	Documents              []documentPayload `json:"documents,omitempty" validate:"omitempty,dive"`
}

func (p createApplicationRequest) toCreateInput() (loansvc.CreateInput, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(p.LoanAmount))
	if err != nil {
		return loansvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan_amount")
	}
	income, err := decimal.NewFromString(strings.TrimSpace(p.AnnualIncome))
	if err != nil {
		return loansvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid annual_income")
	}
	employment, err := enums.ParseEmploymentStatus(strings.TrimSpace(p.EmploymentStatus))
	if err != nil {
		return loansvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid employment_status")
	}

	input := loansvc.CreateInput{
		PropertyID:       p.PropertyID,
		LoanAmount:       amount,
		LoanTermYears:    p.LoanTermYears,
		EmploymentStatus: employment,
		AnnualIncome:     income,
		SelectedAgentID:  p.SelectedAgentID,
		IncludeInsurance: p.IncludeInsurance,
	}

	if p.MonthlyInsuranceAmount != nil {
		insurance, parseErr := decimal.NewFromString(strings.TrimSpace(*p.MonthlyInsuranceAmount))
		if parseErr != nil {
			return loansvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid monthly_insurance_amount")
		}
		input.MonthlyInsuranceAmount = &insurance
	}

	documents, err := decodeDocuments(p.Documents, "identity_card_url", "proof_of_income_url")
	if err != nil {
		return loansvc.CreateInput{}, err
	}
	input.Documents = documents
	return input, nil
}

type updateApplicationRequest struct {
	LoanAmount             *string  `json:"loan_amount,omitempty"`
	LoanTermYears          *int     `json:"loan_term_years,omitempty" validate:"omitempty,min=1"`
	InterestRate           *string  `json:"interest_rate,omitempty"`
	MonthlyPayment         *string  `json:"monthly_payment,omitempty"`
	Status                 *string  `json:"status,omitempty"`
	AgentDecision          *string  `json:"agent_decision,omitempty"`
	AgentNotes             *string  `json:"agent_notes,omitempty" validate:"omitempty,max=2000"`
	SubmittedDocuments     []string `json:"submitted_documents,omitempty"`
	IncludeInsurance       *bool    `json:"include_insurance,omitempty"`
	MonthlyInsuranceAmount *string  `json:"monthly_insurance_amount,omitempty"`
}

func (p updateApplicationRequest) toUpdateInput() (loansvc.UpdateInput, error) {
	input := loansvc.UpdateInput{
		LoanTermYears:      p.LoanTermYears,
		AgentNotes:         p.AgentNotes,
		SubmittedDocuments: p.SubmittedDocuments,
		IncludeInsurance:   p.IncludeInsurance,
	}

	assignDecimal := func(raw *string, target **decimal.Decimal, field string) error {
		if raw == nil {
			return nil
		}
		value, err := decimal.NewFromString(strings.TrimSpace(*raw))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
		}
		*target = &value
		return nil
	}

	if err := assignDecimal(p.LoanAmount, &input.LoanAmount, "loan_amount"); err != nil {
		return loansvc.UpdateInput{}, err
	}
	if err := assignDecimal(p.InterestRate, &input.InterestRate, "interest_rate"); err != nil {
		return loansvc.UpdateInput{}, err
	}
	if err := assignDecimal(p.MonthlyPayment, &input.MonthlyPayment, "monthly_payment"); err != nil {
		return loansvc.UpdateInput{}, err
	}
	if err := assignDecimal(p.MonthlyInsuranceAmount, &input.MonthlyInsuranceAmount, "monthly_insurance_amount"); err != nil {
		return loansvc.UpdateInput{}, err
	}

	if p.Status != nil {
		status, err := enums.ParseApplicationStatus(strings.TrimSpace(*p.Status))
		if err != nil {
			return loansvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	if p.AgentDecision != nil {
		decision, err := enums.ParseAgentDecision(strings.TrimSpace(*p.AgentDecision))
		if err != nil {
			return loansvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agent_decision")
		}
		input.AgentDecision = &decision
	}
	return input, nil
}

type quoteRequest struct {
	LoanAmount    string `json:"loan_amount" validate:"required"`
	AnnualRate    string `json:"annual_rate" validate:"required"`
	LoanTermYears int    `json:"loan_term_years" validate:"required,min=1"`
}
