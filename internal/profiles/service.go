package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/aymenjlassi/darna-backend/pkg/db"
	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
)

type profilesRepository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByIdentityID(ctx context.Context, identityID string) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Profile, error)
}

// Service exposes profile bootstrap and self-service edits.
type Service interface {
	UpsertByIdentity(ctx context.Context, input UpsertInput) (*models.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByIdentity(ctx context.Context, identityID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Profile, error)
}

type service struct {
	repo profilesRepository
}

// NewService builds a profile service backed by the provided repository.
func NewService(repo profilesRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	return &service{repo: repo}, nil
}

// UpsertByIdentity returns the existing profile for the identity or creates a
// fresh buyer profile on first contact. A concurrent create is resolved by
// re-fetching the winner's row.
func (s *service) UpsertByIdentity(ctx context.Context, input UpsertInput) (*models.Profile, error) {
	identityID := strings.TrimSpace(input.IdentityID)
	if identityID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity id missing")
	}

	existing, err := s.repo.FindByIdentityID(ctx, identityID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile")
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}

	profile := &models.Profile{
		IdentityID:  identityID,
		DisplayName: displayName,
		Phone:       input.Phone,
	}
	created, err := s.repo.Create(ctx, profile)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "idx_profiles_identity_id") {
			winner, findErr := s.repo.FindByIdentityID(ctx, identityID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "lookup profile after race")
			}
			return winner, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile")
	}
	return row, nil
}

func (s *service) GetByIdentity(ctx context.Context, identityID string) (*models.Profile, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity id missing")
	}
	row, err := s.repo.FindByIdentityID(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile")
	}
	return row, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Profile, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id is required")
	}

	patch := map[string]any{}
	if input.DisplayName != nil {
		trimmed := strings.TrimSpace(*input.DisplayName)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name cannot be empty")
		}
		patch["display_name"] = trimmed
	}
	if input.Phone != nil {
		patch["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		patch["address"] = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		patch["city"] = strings.TrimSpace(*input.City)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return updated, nil
}
