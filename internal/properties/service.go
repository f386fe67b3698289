package properties

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/internal/attachments"
	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
	"github.com/aymenjlassi/darna-backend/pkg/logger"
	"github.com/aymenjlassi/darna-backend/pkg/pagination"
	"github.com/aymenjlassi/darna-backend/pkg/types"
)

const imageKind = "property_images"

type propertiesRepository interface {
	Create(ctx context.Context, property *models.Property) (*models.Property, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Property, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	AppendImageURLs(ctx context.Context, id uuid.UUID, urls []string) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool, limit, offset int) ([]models.Property, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) (int64, error)
}

type ownersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type documentUploader interface {
	UploadAll(ctx context.Context, kind, prefix string, blobs []attachments.Blob) ([]attachments.Uploaded, error)
}

// Service exposes the property catalog lifecycle.
type Service interface {
	CreateProperty(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*models.Property, error)
	GetProperty(ctx context.Context, actorID, propertyID uuid.UUID) (*View, error)
	UpdateProperty(ctx context.Context, actorID, propertyID uuid.UUID, input UpdateInput) (*models.Property, error)
	DeactivateProperty(ctx context.Context, actorID, propertyID uuid.UUID) error
	ListOwnerProperties(ctx context.Context, ownerID uuid.UUID, params pagination.Params, includeInactive bool) (*types.Page, error)
}

type service struct {
	repo     propertiesRepository
	owners   ownersRepository
	uploader documentUploader
	logg     *logger.Logger
}

// NewService builds a property service backed by the provided repositories.
func NewService(repo propertiesRepository, owners ownersRepository, uploader documentUploader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("property repository required")
	}
	if owners == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	return &service{repo: repo, owners: owners, uploader: uploader, logg: logg}, nil
}

// CreateProperty commits the listing row first and attaches images
// asynchronously; a partial or failed attach never fails the create.
func (s *service) CreateProperty(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*models.Property, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner identity missing")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Bedrooms < 0 || input.Bathrooms < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bedrooms and bathrooms cannot be negative")
	}
	if input.AreaSqm != nil && *input.AreaSqm <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "area_sqm must be positive")
	}
	if !input.PropertyType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid property type")
	}

	if _, err := s.owners.FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "owner profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup owner")
	}

	property := &models.Property{
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Price:        input.Price,
		Location:     strings.TrimSpace(input.Location),
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		AreaSqm:      input.AreaSqm,
		PropertyType: input.PropertyType,
		IsActive:     true,
	}

	created, err := s.repo.Create(ctx, property)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create property")
	}

	if len(input.Images) > 0 {
		go s.attachImages(context.WithoutCancel(ctx), created.ID, input.Images)
	}
	return created, nil
}

func (s *service) attachImages(ctx context.Context, propertyID uuid.UUID, blobs []attachments.Blob) {
	prefix := "properties/" + propertyID.String()
	uploads, err := s.uploader.UploadAll(ctx, imageKind, prefix, blobs)
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithPropertyID(ctx, propertyID.String())
		s.logg.Warn(s.logg.WithField(logCtx, "attached", len(uploads)), "property image attach incomplete")
	}
	if len(uploads) == 0 {
		return
	}

	urls := make([]string, len(uploads))
	for i, upload := range uploads {
		urls[i] = upload.URL
	}
	if err := s.repo.AppendImageURLs(ctx, propertyID, urls); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithPropertyID(ctx, propertyID.String()), "recording attached images failed", err)
	}
}

// GetProperty serves public reads of active rows; the owner also sees
// deactivated rows.
func (s *service) GetProperty(ctx context.Context, actorID, propertyID uuid.UUID) (*View, error) {
	if propertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id is required")
	}
	row, err := s.repo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup property")
	}
	if !row.IsActive && row.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}
	view := NewView(*row)
	return &view, nil
}

func (s *service) UpdateProperty(ctx context.Context, actorID, propertyID uuid.UUID, input UpdateInput) (*models.Property, error) {
	row, err := s.requireOwned(ctx, actorID, propertyID)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		patch["title"] = trimmed
	}
	if input.Description != nil {
		patch["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		patch["price"] = *input.Price
	}
	if input.Location != nil {
		trimmed := strings.TrimSpace(*input.Location)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location cannot be empty")
		}
		patch["location"] = trimmed
	}
	if input.Bedrooms != nil {
		if *input.Bedrooms < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bedrooms cannot be negative")
		}
		patch["bedrooms"] = *input.Bedrooms
	}
	if input.Bathrooms != nil {
		if *input.Bathrooms < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bathrooms cannot be negative")
		}
		patch["bathrooms"] = *input.Bathrooms
	}
	if input.AreaSqm != nil {
		if *input.AreaSqm <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "area_sqm must be positive")
		}
		patch["area_sqm"] = *input.AreaSqm
	}
	if input.PropertyType != nil {
		if !input.PropertyType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid property type")
		}
		patch["property_type"] = *input.PropertyType
	}

	updated, err := s.repo.Update(ctx, row.ID, patch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update property")
	}
	return updated, nil
}

// DeactivateProperty soft-deletes the listing. Deactivating an already
// inactive property succeeds without touching the row again.
func (s *service) DeactivateProperty(ctx context.Context, actorID, propertyID uuid.UUID) error {
	row, err := s.requireOwned(ctx, actorID, propertyID)
	if err != nil {
		return err
	}
	if !row.IsActive {
		return nil
	}
	if err := s.repo.Deactivate(ctx, row.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate property")
	}
	return nil
}

func (s *service) ListOwnerProperties(ctx context.Context, ownerID uuid.UUID, params pagination.Params, includeInactive bool) (*types.Page, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner identity missing")
	}
	normalized := params.Normalize()

	total, err := s.repo.CountByOwner(ctx, ownerID, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count properties")
	}
	rows, err := s.repo.ListByOwner(ctx, ownerID, includeInactive, normalized.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list properties")
	}

	items := make([]View, len(rows))
	for i, row := range rows {
		items[i] = NewView(row)
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

func (s *service) requireOwned(ctx context.Context, actorID, propertyID uuid.UUID) (*models.Property, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner identity missing")
	}
	if propertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id is required")
	}
	row, err := s.repo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup property")
	}
	if row.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property does not belong to caller")
	}
	return row, nil
}
