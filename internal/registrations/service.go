package registrations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/internal/attachments"
	dbpkg "github.com/aymenjlassi/darna-backend/pkg/db"
	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
	"github.com/aymenjlassi/darna-backend/pkg/metrics"
	"github.com/aymenjlassi/darna-backend/pkg/outbox"
	"github.com/aymenjlassi/darna-backend/pkg/pagination"
	"github.com/aymenjlassi/darna-backend/pkg/types"
)

const (
	documentKind = "registration_documents"
	liveIndex    = "idx_bank_agent_registrations_user_live"
)

var supervisorPhoneRe = regexp.MustCompile(`^[0-9]{8}$`)

type registrationsRepository interface {
	WithTx(tx *gorm.DB) registrationsRepository
	Create(ctx context.Context, registration *models.BankAgentRegistration) (*models.BankAgentRegistration, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BankAgentRegistration, error)
	FindLiveByUserID(ctx context.Context, userID uuid.UUID) (*models.BankAgentRegistration, error)
	RecordReview(ctx context.Context, id uuid.UUID, status enums.RegistrationStatus, reviewedAt time.Time, adminNotes, rejectionReason *string) error
	AttachDocuments(ctx context.Context, id uuid.UUID, urls map[string]string) error
	ListByStatus(ctx context.Context, status enums.RegistrationStatus, limit, offset int) ([]models.BankAgentRegistration, error)
	CountByStatus(ctx context.Context, status enums.RegistrationStatus) (int64, error)
}

type profilesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateRoleTx(tx *gorm.DB, id uuid.UUID, role enums.ProfileRole) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type documentUploader interface {
	UploadAll(ctx context.Context, kind, prefix string, blobs []attachments.Blob) ([]attachments.Uploaded, error)
}

// Service exposes the bank-agent registration moderation workflow.
type Service interface {
	SubmitRegistration(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.BankAgentRegistration, error)
	ReviewRegistration(ctx context.Context, reviewerID, registrationID uuid.UUID, decision enums.RegistrationStatus, input ReviewInput) (*models.BankAgentRegistration, error)
	GetRegistration(ctx context.Context, id uuid.UUID) (*models.BankAgentRegistration, error)
	ListApprovedAgents(ctx context.Context, params pagination.Params) (*types.Page, error)
}

// AgentSummary is the public projection of an approved agent.
type AgentSummary struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	BankName   string    `json:"bank_name"`
	Position   string    `json:"position"`
	Department string    `json:"department"`
	City       string    `json:"city"`
}

type service struct {
	repo     registrationsRepository
	profiles profilesRepository
	tx       txRunner
	outbox   outboxEmitter
	uploader documentUploader
	logg     *logger.Logger
	metrics  *metrics.WorkflowMetrics
}

// NewService builds a registration service backed by the provided collaborators.
func NewService(repo registrationsRepository, profiles profilesRepository, tx txRunner, outboxSvc outboxEmitter, uploader documentUploader, logg *logger.Logger, m *metrics.WorkflowMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registration repository required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	return &service{
		repo:     repo,
		profiles: profiles,
		tx:       tx,
		outbox:   outboxSvc,
		uploader: uploader,
		logg:     logg,
		metrics:  m,
	}, nil
}

// SubmitRegistration creates a pending moderation row. The member row and the
// submitted event commit together; documents are attached asynchronously and
// stay null when their upload fails.
func (s *service) SubmitRegistration(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.BankAgentRegistration, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateSubmitInput(input); err != nil {
		return nil, err
	}
	dob, err := ParseDateOfBirth(input.DateOfBirth)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_of_birth")
	}

	if _, err := s.profiles.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user profile")
	}

	if _, err := s.repo.FindLiveByUserID(ctx, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pending or approved registration already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check live registration")
	}

	registration := &models.BankAgentRegistration{
		UserID:          userID,
		FullName:        strings.TrimSpace(input.FullName),
		DateOfBirth:     dob,
		NationalID:      strings.TrimSpace(input.NationalID),
		Phone:           strings.TrimSpace(input.Phone),
		Address:         strings.TrimSpace(input.Address),
		City:            strings.TrimSpace(input.City),
		BankName:        strings.TrimSpace(input.BankName),
		Position:        strings.TrimSpace(input.Position),
		EmployeeID:      strings.TrimSpace(input.EmployeeID),
		Department:      strings.TrimSpace(input.Department),
		SupervisorPhone: strings.TrimSpace(input.SupervisorPhone),
		Status:          enums.RegistrationStatusPending,
		SubmittedAt:     time.Now(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, registration); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRegistrationSubmitted,
			AggregateType: enums.AggregateRegistration,
			AggregateID:   registration.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{ProfileID: userID},
			Data: map[string]any{
				"registration_id": registration.ID,
				"user_id":         userID,
				"bank_name":       registration.BankName,
			},
		})
	})
	if err != nil {
		// The partial unique index closes the race the pre-check cannot.
		if dbpkg.IsUniqueViolation(err, liveIndex) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pending or approved registration already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create registration")
	}

	if len(input.Documents) > 0 {
		go s.attachDocuments(context.WithoutCancel(ctx), registration.ID, input.Documents)
	}
	return registration, nil
}

func (s *service) attachDocuments(ctx context.Context, registrationID uuid.UUID, blobs []attachments.Blob) {
	prefix := "registrations/" + registrationID.String()
	uploads, err := s.uploader.UploadAll(ctx, documentKind, prefix, blobs)
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithField(ctx, "registration_id", registrationID.String())
		s.logg.Warn(s.logg.WithField(logCtx, "attached", len(uploads)), "registration document attach incomplete")
	}
	urls := attachments.FieldURLs(uploads)
	if len(urls) == 0 {
		return
	}
	if err := s.repo.AttachDocuments(ctx, registrationID, urls); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "registration_id", registrationID.String()), "recording attached documents failed", err)
	}
}

// ReviewRegistration finalizes a pending row. Approval promotes the user's
// profile to bank_agent in the same transaction; both outcomes are terminal.
func (s *service) ReviewRegistration(ctx context.Context, reviewerID, registrationID uuid.UUID, decision enums.RegistrationStatus, input ReviewInput) (*models.BankAgentRegistration, error) {
	if reviewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "reviewer identity missing")
	}
	if registrationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration id is required")
	}
	if decision != enums.RegistrationStatusApproved && decision != enums.RegistrationStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approved or rejected")
	}
	if decision == enums.RegistrationStatusRejected {
		if input.RejectionReason == nil || strings.TrimSpace(*input.RejectionReason) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection_reason is required when rejecting")
		}
	}

	var reviewed *models.BankAgentRegistration
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		registration, err := repo.FindByID(ctx, registrationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "registration not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load registration")
		}
		if registration.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "registration already reviewed")
		}

		now := time.Now()
		if err := repo.RecordReview(ctx, registration.ID, decision, now, input.AdminNotes, input.RejectionReason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record review")
		}

		if decision == enums.RegistrationStatusApproved {
			if err := s.profiles.UpdateRoleTx(tx, registration.UserID, enums.ProfileRoleBankAgent); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote profile role")
			}
		}

		registration.Status = decision
		registration.ReviewedAt = &now
		registration.AdminNotes = input.AdminNotes
		registration.RejectionReason = input.RejectionReason
		reviewed = registration

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRegistrationReviewed,
			AggregateType: enums.AggregateRegistration,
			AggregateID:   registration.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{ProfileID: reviewerID, Role: string(enums.ProfileRoleAdmin)},
			Data: map[string]any{
				"registration_id": registration.ID,
				"user_id":         registration.UserID,
				"status":          decision,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncDecision("registration", string(decision))
	}
	return reviewed, nil
}

func (s *service) GetRegistration(ctx context.Context, id uuid.UUID) (*models.BankAgentRegistration, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "registration not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup registration")
	}
	return row, nil
}

// ListApprovedAgents serves the public picker of approved agents.
func (s *service) ListApprovedAgents(ctx context.Context, params pagination.Params) (*types.Page, error) {
	normalized := params.Normalize()

	total, err := s.repo.CountByStatus(ctx, enums.RegistrationStatusApproved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved agents")
	}
	rows, err := s.repo.ListByStatus(ctx, enums.RegistrationStatusApproved, normalized.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list approved agents")
	}

	items := make([]AgentSummary, len(rows))
	for i, row := range rows {
		items[i] = AgentSummary{
			ID:         row.ID,
			FullName:   row.FullName,
			BankName:   row.BankName,
			Position:   row.Position,
			Department: row.Department,
			City:       row.City,
		}
	}
	return &types.Page{
		Items: items,
		Pagination: types.Pagination{
			Page:       normalized.Page,
			Limit:      normalized.Limit,
			TotalCount: total,
		},
	}, nil
}

func validateSubmitInput(input SubmitInput) error {
	required := []struct {
		field string
		value string
	}{
		{"full_name", input.FullName},
		{"national_id", input.NationalID},
		{"phone", input.Phone},
		{"address", input.Address},
		{"city", input.City},
		{"bank_name", input.BankName},
		{"position", input.Position},
		{"employee_id", input.EmployeeID},
		{"department", input.Department},
		{"date_of_birth", input.DateOfBirth},
	}
	for _, rf := range required {
		if strings.TrimSpace(rf.value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, rf.field+" is required")
		}
	}
	if !supervisorPhoneRe.MatchString(strings.TrimSpace(input.SupervisorPhone)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "supervisor_phone must be exactly 8 digits")
	}
	return nil
}
