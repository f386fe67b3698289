package loans

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/pkg/db/models"
)

// Repository exposes loan application persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a loan application repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) applicationsRepository {
	return &Repository{db: tx}
}

// Create inserts a new application row.
func (r *Repository) Create(ctx context.Context, application *models.LoanApplication) (*models.LoanApplication, error) {
	if err := r.db.WithContext(ctx).Create(application).Error; err != nil {
		return nil, err
	}
	return application, nil
}

// FindByID returns the application with applicant, property, and selected
// agent joined.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LoanApplication, error) {
	var row models.LoanApplication
	err := r.db.WithContext(ctx).
		Preload("Applicant").
		Preload("Property").
		Preload("SelectedAgent").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Update applies a column patch and returns the updated row. An empty patch
// is a plain read.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.LoanApplication, error) {
	if len(patch) == 0 {
		return r.FindByID(ctx, id)
	}
	res := r.db.WithContext(ctx).Model(&models.LoanApplication{}).
		Where("id = ?", id).
		Updates(patch)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
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
	return r.db.WithContext(ctx).Model(&models.LoanApplication{}).
		Where("id = ?", id).
		Updates(patch).Error
}

// Delete removes the row permanently. Applications have no soft-delete.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.LoanApplication{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByApplicant returns the applicant's applications newest-first with the
// referenced property joined for the summary projection.
func (r *Repository) ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]models.LoanApplication, error) {
	var rows []models.LoanApplication
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("applicant_id = ?", applicantID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// CountByApplicant returns the total row count backing ListByApplicant.
func (r *Repository) CountByApplicant(ctx context.Context, applicantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LoanApplication{}).
		Where("applicant_id = ?", applicantID).
		Count(&count).Error
	return count, err
}
