package loans

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/internal/attachments"
	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/outbox"
	"github.com/aymenjlassi/darna-backend/pkg/pagination"
)

type stubApplicationRepo struct {
	rows     map[uuid.UUID]*models.LoanApplication
	patches  []map[string]any
	attached map[uuid.UUID]map[string]string
}

func newStubApplicationRepo() *stubApplicationRepo {
	return &stubApplicationRepo{
		rows:     map[uuid.UUID]*models.LoanApplication{},
		attached: map[uuid.UUID]map[string]string{},
	}
}

func (s *stubApplicationRepo) WithTx(tx *gorm.DB) applicationsRepository { return s }

func (s *stubApplicationRepo) Create(ctx context.Context, application *models.LoanApplication) (*models.LoanApplication, error) {
	application.ID = uuid.New()
	s.rows[application.ID] = application
	return application, nil
}

func (s *stubApplicationRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.LoanApplication, error) {
	if row, ok := s.rows[id]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubApplicationRepo) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.LoanApplication, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.patches = append(s.patches, patch)
	if v, ok := patch["status"].(enums.ApplicationStatus); ok {
		row.Status = v
	}
	if v, ok := patch["agent_decision"].(enums.AgentDecision); ok {
		row.AgentDecision = &v
	}
	if v, ok := patch["agent_notes"].(string); ok {
		row.AgentNotes = &v
	}
	if v, ok := patch["loan_amount"].(decimal.Decimal); ok {
		row.LoanAmount = v
	}
	if v, ok := patch["interest_rate"].(decimal.Decimal); ok {
		row.InterestRate = &v
	}
	return row, nil
}

func (s *stubApplicationRepo) AttachDocuments(ctx context.Context, id uuid.UUID, urls map[string]string) error {
	s.attached[id] = urls
	return nil
}

func (s *stubApplicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *stubApplicationRepo) ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]models.LoanApplication, error) {
	var out []models.LoanApplication
	for _, row := range s.rows {
		if row.ApplicantID == applicantID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubApplicationRepo) CountByApplicant(ctx context.Context, applicantID uuid.UUID) (int64, error) {
	rows, _ := s.ListByApplicant(ctx, applicantID, 0, 0)
	return int64(len(rows)), nil
}

type stubProfileStore struct {
	profiles map[uuid.UUID]*models.Profile
}

func (s *stubProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if row, ok := s.profiles[id]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubPropertyStore struct {
	rows map[uuid.UUID]*models.Property
}

func (s *stubPropertyStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	if row, ok := s.rows[id]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubAgentStore struct {
	rows map[uuid.UUID]*models.BankAgentRegistration
}

func (s *stubAgentStore) FindByID(ctx context.Context, id uuid.UUID) (*models.BankAgentRegistration, error) {
	if row, ok := s.rows[id]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEventSink struct {
	events []outbox.DomainEvent
}

func (s *stubEventSink) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubUploader struct {
	uploads []attachments.Uploaded
	err     error
}

func (s *stubUploader) UploadAll(ctx context.Context, kind, prefix string, blobs []attachments.Blob) ([]attachments.Uploaded, error) {
	return s.uploads, s.err
}

type loanFixture struct {
	svc        Service
	repo       *stubApplicationRepo
	profiles   *stubProfileStore
	properties *stubPropertyStore
	agents     *stubAgentStore
	emitter    *stubEventSink

	applicant      Actor
	agent          Actor
	admin          Actor
	agentRowID     uuid.UUID
	activeProperty uuid.UUID
}

func newLoanFixture(t *testing.T) *loanFixture {
	t.Helper()

	applicantID := uuid.New()
	agentProfileID := uuid.New()
	adminID := uuid.New()
	agentRowID := uuid.New()
	propertyID := uuid.New()

	f := &loanFixture{
		repo: newStubApplicationRepo(),
		profiles: &stubProfileStore{profiles: map[uuid.UUID]*models.Profile{
			applicantID:    {ID: applicantID, Role: enums.ProfileRoleBuyer},
			agentProfileID: {ID: agentProfileID, Role: enums.ProfileRoleBankAgent},
			adminID:        {ID: adminID, Role: enums.ProfileRoleAdmin},
		}},
		properties: &stubPropertyStore{rows: map[uuid.UUID]*models.Property{
			propertyID: {ID: propertyID, Title: "Villa in La Marsa", Price: decimal.NewFromInt(450000), Location: "La Marsa", IsActive: true},
		}},
		agents: &stubAgentStore{rows: map[uuid.UUID]*models.BankAgentRegistration{
			agentRowID: {ID: agentRowID, UserID: agentProfileID, Status: enums.RegistrationStatusApproved},
		}},
		emitter:        &stubEventSink{},
		applicant:      Actor{ProfileID: applicantID, Role: enums.ProfileRoleBuyer},
		agent:          Actor{ProfileID: agentProfileID, Role: enums.ProfileRoleBankAgent},
		admin:          Actor{ProfileID: adminID, Role: enums.ProfileRoleAdmin},
		agentRowID:     agentRowID,
		activeProperty: propertyID,
	}

	svc, err := NewService(f.repo, f.profiles, f.properties, f.agents, stubTx{}, f.emitter, &stubUploader{}, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func (f *loanFixture) validCreateInput() CreateInput {
	propertyID := f.activeProperty
	agentID := f.agentRowID
	return CreateInput{
		PropertyID:       &propertyID,
		LoanAmount:       decimal.NewFromInt(250000),
		LoanTermYears:    20,
		EmploymentStatus: enums.EmploymentStatusEmployed,
		AnnualIncome:     decimal.NewFromInt(60000),
		SelectedAgentID:  &agentID,
	}
}

func (f *loanFixture) pendingApplication(t *testing.T) *models.LoanApplication {
	t.Helper()
	created, err := f.svc.CreateApplication(context.Background(), f.applicant, f.validCreateInput())
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	// Populate the join the real repository preloads.
	created.SelectedAgent = f.agents.rows[f.agentRowID]
	return created
}

func TestCreateApplicationStartsPendingWithNoDecision(t *testing.T) {
	f := newLoanFixture(t)

	input := f.validCreateInput()
	input.Documents = []attachments.Blob{
		{Field: "identity_card_url", Name: "cin.pdf", ContentType: "application/pdf", Data: []byte("x")},
	}
	created, err := f.svc.CreateApplication(context.Background(), f.applicant, input)
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if created.Status != enums.ApplicationStatusPending {
		t.Fatalf("status = %s, want pending", created.Status)
	}
	if created.AgentDecision != nil {
		t.Fatalf("agent_decision should start null, got %v", *created.AgentDecision)
	}
	if len(created.SubmittedDocuments) != 1 || created.SubmittedDocuments[0] != "cin.pdf" {
		t.Fatalf("submitted_documents = %v", created.SubmittedDocuments)
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventApplicationCreated {
		t.Fatalf("expected application_created event, got %+v", f.emitter.events)
	}
}

func TestCreateApplicationValidation(t *testing.T) {
	f := newLoanFixture(t)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"zero loan amount", func(in *CreateInput) { in.LoanAmount = decimal.Zero }},
		{"negative loan amount", func(in *CreateInput) { in.LoanAmount = decimal.NewFromInt(-5) }},
		{"zero term", func(in *CreateInput) { in.LoanTermYears = 0 }},
		{"zero income", func(in *CreateInput) { in.AnnualIncome = decimal.Zero }},
		{"unknown employment status", func(in *CreateInput) { in.EmploymentStatus = "freelancing" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := f.validCreateInput()
			tc.mutate(&input)
			_, err := f.svc.CreateApplication(context.Background(), f.applicant, input)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateApplicationUnknownApplicant(t *testing.T) {
	f := newLoanFixture(t)

	_, err := f.svc.CreateApplication(context.Background(), Actor{ProfileID: uuid.New(), Role: enums.ProfileRoleBuyer}, f.validCreateInput())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateApplicationRejectsInactiveProperty(t *testing.T) {
	f := newLoanFixture(t)
	f.properties.rows[f.activeProperty].IsActive = false

	_, err := f.svc.CreateApplication(context.Background(), f.applicant, f.validCreateInput())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive property, got %v", err)
	}
}

func TestCreateApplicationRequiresApprovedAgent(t *testing.T) {
	f := newLoanFixture(t)
	f.agents.rows[f.agentRowID].Status = enums.RegistrationStatusPending

	_, err := f.svc.CreateApplication(context.Background(), f.applicant, f.validCreateInput())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for non-approved agent, got %v", err)
	}

	input := f.validCreateInput()
	unknown := uuid.New()
	input.SelectedAgentID = &unknown
	_, err = f.svc.CreateApplication(context.Background(), f.applicant, input)
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown agent, got %v", err)
	}
}

func TestCreateApplicationToleratesMissingInsuranceAmount(t *testing.T) {
	f := newLoanFixture(t)

	input := f.validCreateInput()
	input.IncludeInsurance = true
	created, err := f.svc.CreateApplication(context.Background(), f.applicant, input)
	if err != nil {
		t.Fatalf("missing insurance amount must not reject, got %v", err)
	}
	if !created.IncludeInsurance || created.MonthlyInsuranceAmount != nil {
		t.Fatalf("unexpected insurance state %+v", created)
	}
}

func TestAgentDecisionSetsStatusAndEmitsEvent(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)
	f.emitter.events = nil

	decision := enums.AgentDecisionApproved
	notes := "income verified against payslips"
	rate := decimal.NewFromFloat(6.25)
	updated, err := f.svc.UpdateApplication(context.Background(), f.agent, app.ID, UpdateInput{
		AgentDecision: &decision,
		AgentNotes:    &notes,
		InterestRate:  &rate,
	})
	if err != nil {
		t.Fatalf("UpdateApplication: %v", err)
	}
	if updated.Status != enums.ApplicationStatusApproved {
		t.Fatalf("status = %s, want approved", updated.Status)
	}
	if updated.AgentDecision == nil || *updated.AgentDecision != enums.AgentDecisionApproved {
		t.Fatalf("agent_decision = %v", updated.AgentDecision)
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventApplicationDecided {
		t.Fatalf("expected application_decided event, got %+v", f.emitter.events)
	}
}

func TestStatusMovesIndependentlyOfDecision(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)
	f.emitter.events = nil

	status := enums.ApplicationStatusUnderReview
	updated, err := f.svc.UpdateApplication(context.Background(), f.agent, app.ID, UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("UpdateApplication: %v", err)
	}
	if updated.Status != enums.ApplicationStatusUnderReview {
		t.Fatalf("status = %s, want under_review", updated.Status)
	}
	if updated.AgentDecision != nil {
		t.Fatal("moving status must not record a decision")
	}
	if len(f.emitter.events) != 0 {
		t.Fatalf("status-only updates emit no decision event, got %+v", f.emitter.events)
	}
}

func TestStatusCannotContradictRecordedDecision(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)

	decision := enums.AgentDecisionApproved
	if _, err := f.svc.UpdateApplication(context.Background(), f.agent, app.ID, UpdateInput{AgentDecision: &decision}); err != nil {
		t.Fatalf("record decision: %v", err)
	}

	pending := enums.ApplicationStatusPending
	_, err := f.svc.UpdateApplication(context.Background(), f.admin, app.ID, UpdateInput{Status: &pending})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if got := f.repo.rows[app.ID].Status; got != enums.ApplicationStatusApproved {
		t.Fatalf("status must stay approved, got %s", got)
	}

	approved := enums.ApplicationStatusApproved
	if _, err := f.svc.UpdateApplication(context.Background(), f.admin, app.ID, UpdateInput{Status: &approved}); err != nil {
		t.Fatalf("restating the decided status must pass, got %v", err)
	}
}

func TestDecisionPatchRejectsContradictoryStatus(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)

	decision := enums.AgentDecisionApproved
	rejected := enums.ApplicationStatusRejected
	_, err := f.svc.UpdateApplication(context.Background(), f.admin, app.ID, UpdateInput{
		AgentDecision: &decision,
		Status:        &rejected,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if f.repo.rows[app.ID].AgentDecision != nil {
		t.Fatal("rejected patch must not record the decision")
	}

	approved := enums.ApplicationStatusApproved
	updated, err := f.svc.UpdateApplication(context.Background(), f.admin, app.ID, UpdateInput{
		AgentDecision: &decision,
		Status:        &approved,
	})
	if err != nil {
		t.Fatalf("consistent decision+status patch: %v", err)
	}
	if updated.Status != enums.ApplicationStatusApproved || updated.AgentDecision == nil || *updated.AgentDecision != enums.AgentDecisionApproved {
		t.Fatalf("unexpected row state %s/%v", updated.Status, updated.AgentDecision)
	}
}

func TestOnlyAssignedAgentMayDecide(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)

	otherAgent := Actor{ProfileID: uuid.New(), Role: enums.ProfileRoleBankAgent}
	decision := enums.AgentDecisionRejected
	_, err := f.svc.UpdateApplication(context.Background(), otherAgent, app.ID, UpdateInput{AgentDecision: &decision})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for non-assigned agent, got %v", err)
	}

	_, err = f.svc.UpdateApplication(context.Background(), f.applicant, app.ID, UpdateInput{AgentDecision: &decision})
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for applicant, got %v", err)
	}
}

func TestApplicantAmendsOnlyWhilePending(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)

	amount := decimal.NewFromInt(300000)
	updated, err := f.svc.UpdateApplication(context.Background(), f.applicant, app.ID, UpdateInput{LoanAmount: &amount})
	if err != nil {
		t.Fatalf("pending amendment should succeed, got %v", err)
	}
	if !updated.LoanAmount.Equal(amount) {
		t.Fatalf("loan_amount = %s", updated.LoanAmount)
	}

	f.repo.rows[app.ID].Status = enums.ApplicationStatusUnderReview
	_, err = f.svc.UpdateApplication(context.Background(), f.applicant, app.ID, UpdateInput{LoanAmount: &amount})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict after review starts, got %v", err)
	}
}

func TestAdminMayPatchRegardlessOfAssignment(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)

	decision := enums.AgentDecisionRejected
	status := enums.ApplicationStatusRejected
	updated, err := f.svc.UpdateApplication(context.Background(), f.admin, app.ID, UpdateInput{
		AgentDecision: &decision,
		Status:        &status,
	})
	if err != nil {
		t.Fatalf("UpdateApplication as admin: %v", err)
	}
	if updated.Status != enums.ApplicationStatusRejected {
		t.Fatalf("status = %s", updated.Status)
	}
}

func TestDeleteApplicationIsHardDelete(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)
	f.emitter.events = nil

	if err := f.svc.DeleteApplication(context.Background(), f.applicant, app.ID); err != nil {
		t.Fatalf("DeleteApplication: %v", err)
	}
	if _, err := f.svc.GetApplication(context.Background(), f.applicant, app.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("deleted application should be gone, got %v", err)
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventApplicationDeleted {
		t.Fatalf("expected application_deleted event, got %+v", f.emitter.events)
	}

	err := f.svc.DeleteApplication(context.Background(), f.applicant, uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestDeleteApplicationForbiddenForStrangers(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)

	err := f.svc.DeleteApplication(context.Background(), Actor{ProfileID: uuid.New(), Role: enums.ProfileRoleBuyer}, app.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestGetApplicationHiddenFromStrangers(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)

	if _, err := f.svc.GetApplication(context.Background(), f.applicant, app.ID); err != nil {
		t.Fatalf("applicant read: %v", err)
	}
	if _, err := f.svc.GetApplication(context.Background(), f.agent, app.ID); err != nil {
		t.Fatalf("assigned agent read: %v", err)
	}
	_, err := f.svc.GetApplication(context.Background(), Actor{ProfileID: uuid.New(), Role: enums.ProfileRoleBuyer}, app.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListApplicantApplicationsProjectsPropertySummary(t *testing.T) {
	f := newLoanFixture(t)
	app := f.pendingApplication(t)

	f.repo.rows[app.ID].Property = &models.Property{
		ID:        f.activeProperty,
		Title:     "Villa in La Marsa",
		Price:     decimal.NewFromInt(450000),
		Location:  "La Marsa",
		ImageURLs: pq.StringArray{"https://storage.googleapis.com/darna/p/front.jpg", "https://storage.googleapis.com/darna/p/back.jpg"},
	}

	page, err := f.svc.ListApplicantApplications(context.Background(), f.applicant, f.applicant.ProfileID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListApplicantApplications: %v", err)
	}
	items, ok := page.Items.([]ApplicationListItem)
	if !ok {
		t.Fatalf("unexpected items type %T", page.Items)
	}
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	summary := items[0].PropertySummary
	if summary == nil || summary.Title != "Villa in La Marsa" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.FirstImage == nil || *summary.FirstImage != "https://storage.googleapis.com/darna/p/front.jpg" {
		t.Fatalf("first_image = %v", summary.FirstImage)
	}
	if items[0].Property != nil {
		t.Fatal("full property row must not leak into list payloads")
	}

	_, err = f.svc.ListApplicantApplications(context.Background(), Actor{ProfileID: uuid.New(), Role: enums.ProfileRoleBuyer}, f.applicant.ProfileID, pagination.Params{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
