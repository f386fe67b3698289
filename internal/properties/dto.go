package properties

import (
	"github.com/shopspring/decimal"

	"github.com/aymenjlassi/darna-backend/internal/attachments"
	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

// CreateInput holds the listing fields captured at submit time. Images ride
// along as raw blobs and are attached after the row is committed.
type CreateInput struct {
	Title        string
	Description  *string
	Price        decimal.Decimal
	Location     string
	Bedrooms     int
	Bathrooms    int
	AreaSqm      *int
	PropertyType enums.PropertyType
	Images       []attachments.Blob
}

// UpdateInput is a partial patch; nil fields are left untouched.
type UpdateInput struct {
	Title        *string
	Description  *string
	Price        *decimal.Decimal
	Location     *string
	Bedrooms     *int
	Bathrooms    *int
	AreaSqm      *int
	PropertyType *enums.PropertyType
}

// View is a property read model with the derived price_per_area field.
type View struct {
	models.Property
	PricePerArea *decimal.Decimal `json:"price_per_area,omitempty"`
}

// NewView computes derived fields for a property row.
func NewView(row models.Property) View {
	view := View{Property: row}
	if row.AreaSqm != nil && *row.AreaSqm > 0 {
		ppa := row.Price.DivRound(decimal.NewFromInt(int64(*row.AreaSqm)), 2)
		view.PricePerArea = &ppa
	}
	return view
}
