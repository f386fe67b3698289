package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

// Profile is the application-level user record layered over the external
// identity provider. Profiles are never deleted; only the auth identity can
// be revoked upstream.
type Profile struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IdentityID  string            `gorm:"column:identity_id;type:text;not null;uniqueIndex"`
	DisplayName string            `gorm:"column:display_name;not null"`
	Phone       *string           `gorm:"column:phone"`
	Role        enums.ProfileRole `gorm:"column:role;type:profile_role;not null;default:'buyer'"`
	Address     *string           `gorm:"column:address"`
	City        *string           `gorm:"column:city"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
