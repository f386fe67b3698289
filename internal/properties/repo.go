package properties

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/pkg/db/models"
)

// Repository exposes property persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a property repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new property row.
func (r *Repository) Create(ctx context.Context, property *models.Property) (*models.Property, error) {
	if err := r.db.WithContext(ctx).Create(property).Error; err != nil {
		return nil, err
	}
	return property, nil
}

// FindByID returns the property with the given id regardless of active state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var row models.Property
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Update applies the patch to the stored property.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Property, error) {
	if len(patch) == 0 {
		return r.FindByID(ctx, id)
	}
	res := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// Deactivate soft-deletes a property; repeated calls are a no-op.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// AppendImageURLs replaces the image_urls column after the async attach phase.
func (r *Repository) AppendImageURLs(ctx context.Context, id uuid.UUID, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	var row models.Property
	if err := r.db.WithContext(ctx).Select("image_urls").First(&row, "id = ?", id).Error; err != nil {
		return err
	}
	merged := append([]string{}, row.ImageURLs...)
	merged = append(merged, urls...)
	return r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ?", id).
		Update("image_urls", pq.StringArray(merged)).Error
}

// ListByOwner returns the owner's properties newest-first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool, limit, offset int) ([]models.Property, error) {
	query := r.db.WithContext(ctx).Model(&models.Property{}).Where("owner_id = ?", ownerID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Property
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// CountByOwner returns the total row count backing ListByOwner.
func (r *Repository) CountByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Property{}).Where("owner_id = ?", ownerID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
