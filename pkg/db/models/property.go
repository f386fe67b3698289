package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

// Property represents a catalog listing. Listings are never hard-deleted:
// deactivation flips is_active and hides the row from public reads.
type Property struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID          `gorm:"column:owner_id;type:uuid;not null;index"`
	Owner        *Profile           `gorm:"foreignKey:OwnerID"`
	Title        string             `gorm:"column:title;not null"`
	Description  *string            `gorm:"column:description"`
	Price        decimal.Decimal    `gorm:"column:price;type:numeric(14,2);not null"`
	Location     string             `gorm:"column:location;not null"`
	Bedrooms     int                `gorm:"column:bedrooms;not null;default:0"`
	Bathrooms    int                `gorm:"column:bathrooms;not null;default:0"`
	AreaSqm      *int               `gorm:"column:area_sqm"`
	PropertyType enums.PropertyType `gorm:"column:property_type;type:property_type;not null"`
	ImageURLs    pq.StringArray     `gorm:"column:image_urls;type:text[];not null;default:ARRAY[]::text[]"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
