package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

// Repository exposes profile persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profile repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new profile row.
func (r *Repository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// FindByID returns the profile with the given id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var row models.Profile
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByIdentityID returns the profile linked to the external identity.
func (r *Repository) FindByIdentityID(ctx context.Context, identityID string) (*models.Profile, error) {
	var row models.Profile
	if err := r.db.WithContext(ctx).First(&row, "identity_id = ?", identityID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Update applies non-nil fields from the patch to the stored profile.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Profile, error) {
	if len(patch) == 0 {
		return r.FindByID(ctx, id)
	}
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// UpdateRoleTx promotes or demotes a profile role inside the caller's transaction.
func (r *Repository) UpdateRoleTx(tx *gorm.DB, id uuid.UUID, role enums.ProfileRole) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	res := tx.Model(&models.Profile{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
