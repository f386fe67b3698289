package registrations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

// Repository exposes bank-agent registration persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a registration repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) registrationsRepository {
	return &Repository{db: tx}
}

// Create inserts a new registration row.
func (r *Repository) Create(ctx context.Context, registration *models.BankAgentRegistration) (*models.BankAgentRegistration, error) {
	if err := r.db.WithContext(ctx).Create(registration).Error; err != nil {
		return nil, err
	}
	return registration, nil
}

// FindByID returns the registration with the given id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BankAgentRegistration, error) {
	var row models.BankAgentRegistration
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindLiveByUserID returns the user's pending or approved registration, if any.
func (r *Repository) FindLiveByUserID(ctx context.Context, userID uuid.UUID) (*models.BankAgentRegistration, error) {
	var row models.BankAgentRegistration
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status IN ?", []enums.RegistrationStatus{enums.RegistrationStatusPending, enums.RegistrationStatusApproved}).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// RecordReview finalizes the moderation decision on a pending row.
func (r *Repository) RecordReview(ctx context.Context, id uuid.UUID, status enums.RegistrationStatus, reviewedAt time.Time, adminNotes, rejectionReason *string) error {
	patch := map[string]any{
		"status":      status,
		"reviewed_at": reviewedAt,
	}
	if adminNotes != nil {
		patch["admin_notes"] = *adminNotes
	}
	if rejectionReason != nil {
		patch["rejection_reason"] = *rejectionReason
	}
	res := r.db.WithContext(ctx).Model(&models.BankAgentRegistration{}).
		Where("id = ?", id).
		Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AttachDocuments records uploaded document URLs after the async phase.
func (r *Repository) AttachDocuments(ctx context.Context, id uuid.UUID, urls map[string]string) error {
	if len(urls) == 0 {
		return nil
	}
	patch := make(map[string]any, len(urls))
	for field, url := range urls {
		patch[field] = url
	}
	return r.db.WithContext(ctx).Model(&models.BankAgentRegistration{}).
		Where("id = ?", id).
		Updates(patch).Error
}

// ListByStatus returns registrations in the given status newest-first.
func (r *Repository) ListByStatus(ctx context.Context, status enums.RegistrationStatus, limit, offset int) ([]models.BankAgentRegistration, error) {
	var rows []models.BankAgentRegistration
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("submitted_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// CountByStatus returns the total row count backing ListByStatus.
func (r *Repository) CountByStatus(ctx context.Context, status enums.RegistrationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BankAgentRegistration{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
