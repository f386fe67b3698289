package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aymenjlassi/darna-backend/api/middleware"
	loansvc "github.com/aymenjlassi/darna-backend/internal/loans"
	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
	"github.com/aymenjlassi/darna-backend/pkg/pagination"
	"github.com/aymenjlassi/darna-backend/pkg/types"
)

type stubLoanService struct {
	createActor loansvc.Actor
	createInput *loansvc.CreateInput
	updateInput *loansvc.UpdateInput
	listTarget  uuid.UUID
	deleted     []uuid.UUID
}

func (s *stubLoanService) CreateApplication(ctx context.Context, actor loansvc.Actor, input loansvc.CreateInput) (*models.LoanApplication, error) {
	s.createActor = actor
	s.createInput = &input
	return &models.LoanApplication{ID: uuid.New(), ApplicantID: actor.ProfileID, Status: enums.ApplicationStatusPending}, nil
}

func (s *stubLoanService) UpdateApplication(ctx context.Context, actor loansvc.Actor, id uuid.UUID, input loansvc.UpdateInput) (*models.LoanApplication, error) {
	s.updateInput = &input
	return &models.LoanApplication{ID: id}, nil
}

func (s *stubLoanService) GetApplication(ctx context.Context, actor loansvc.Actor, id uuid.UUID) (*models.LoanApplication, error) {
	return &models.LoanApplication{ID: id}, nil
}

func (s *stubLoanService) ListApplicantApplications(ctx context.Context, actor loansvc.Actor, applicantID uuid.UUID, params pagination.Params) (*types.Page, error) {
	s.listTarget = applicantID
	return &types.Page{Items: []loansvc.ApplicationListItem{}}, nil
}

func (s *stubLoanService) DeleteApplication(ctx context.Context, actor loansvc.Actor, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestCreateApplication(t *testing.T) {
	logg := testLogger()
	applicantID := uuid.New()

	t.Run("missing profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		CreateApplication(&stubLoanService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid employment status", func(t *testing.T) {
		body := `{"loan_amount":"180000","loan_term_years":20,"employment_status":"astronaut","annual_income":"42000"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(body))
		req = req.WithContext(middleware.WithProfile(req.Context(), applicantID, enums.ProfileRoleBuyer))
		rec := httptest.NewRecorder()
		CreateApplication(&stubLoanService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		body := `{"loan_amount":"180000","loan_term_years":20,"employment_status":"employed","annual_income":"42000","include_insurance":true,"monthly_insurance_amount":"35.50"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(body))
		req = req.WithContext(middleware.WithProfile(req.Context(), applicantID, enums.ProfileRoleBuyer))
		stub := &stubLoanService{}
		rec := httptest.NewRecorder()
		CreateApplication(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.createActor.ProfileID != applicantID || stub.createActor.Role != enums.ProfileRoleBuyer {
			t.Fatalf("actor not taken from context: %+v", stub.createActor)
		}
		if !stub.createInput.LoanAmount.Equal(decimal.NewFromInt(180000)) {
			t.Fatalf("loan amount not parsed, got %s", stub.createInput.LoanAmount)
		}
		if stub.createInput.MonthlyInsuranceAmount == nil || stub.createInput.MonthlyInsuranceAmount.String() != "35.5" {
			t.Fatalf("insurance amount not parsed: %v", stub.createInput.MonthlyInsuranceAmount)
		}
	})
}

func TestUpdateApplicationParsesDecision(t *testing.T) {
	logg := testLogger()
	agentID := uuid.New()
	applicationID := uuid.New()

	body := `{"agent_decision":"approved","agent_notes":"dossier complet"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/applications/"+applicationID.String(), strings.NewReader(body))
	req = req.WithContext(middleware.WithProfile(req.Context(), agentID, enums.ProfileRoleBankAgent))
	req = withRouteParam(req, "applicationId", applicationID.String())

	stub := &stubLoanService{}
	rec := httptest.NewRecorder()
	UpdateApplication(stub, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.updateInput.AgentDecision == nil || *stub.updateInput.AgentDecision != enums.AgentDecisionApproved {
		t.Fatalf("decision not parsed: %v", stub.updateInput.AgentDecision)
	}
	if stub.updateInput.AgentNotes == nil || *stub.updateInput.AgentNotes != "dossier complet" {
		t.Fatalf("notes not forwarded: %v", stub.updateInput.AgentNotes)
	}
}

func TestListApplicationsDefaultsToSelf(t *testing.T) {
	logg := testLogger()
	applicantID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications", nil)
	req = req.WithContext(middleware.WithProfile(req.Context(), applicantID, enums.ProfileRoleBuyer))
	stub := &stubLoanService{}
	rec := httptest.NewRecorder()
	ListApplications(stub, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.listTarget != applicantID {
		t.Fatalf("expected self listing, got %s", stub.listTarget)
	}
}

func TestListApplicationsRejectsBadApplicantID(t *testing.T) {
	logg := testLogger()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications?applicant_id=bogus", nil)
	req = req.WithContext(middleware.WithProfile(req.Context(), uuid.New(), enums.ProfileRoleAdmin))
	rec := httptest.NewRecorder()
	ListApplications(&stubLoanService{}, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestQuoteMonthlyPayment(t *testing.T) {
	logg := testLogger()
	body := `{"loan_amount":"250000","annual_rate":"0","loan_term_years":20}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/quote", strings.NewReader(body))
	rec := httptest.NewRecorder()
	QuoteMonthlyPayment(logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			MonthlyPayment string `json:"monthly_payment"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.MonthlyPayment != "1041.67" {
		t.Fatalf("expected 1041.67, got %s", envelope.Data.MonthlyPayment)
	}
}
