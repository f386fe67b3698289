package loans

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aymenjlassi/darna-backend/internal/attachments"
	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

// Actor is the verified identity performing an operation. Handlers resolve it
// from the authenticated session, never from request parameters.
type Actor struct {
	ProfileID uuid.UUID
	Role      enums.ProfileRole
}

// CreateInput carries a new application. Documents are uploaded after the row
// commits.
type CreateInput struct {
	PropertyID             *uuid.UUID
	LoanAmount             decimal.Decimal
	LoanTermYears          int
	EmploymentStatus       enums.EmploymentStatus
	AnnualIncome           decimal.Decimal
	SelectedAgentID        *uuid.UUID
	IncludeInsurance       bool
	MonthlyInsuranceAmount *decimal.Decimal
	Documents              []attachments.Blob
}

// UpdateInput is a partial patch. Nil fields are left untouched; which fields
// an actor may touch depends on their relationship to the application.
type UpdateInput struct {
	LoanAmount             *decimal.Decimal
	LoanTermYears          *int
	InterestRate           *decimal.Decimal
	MonthlyPayment         *decimal.Decimal
	Status                 *enums.ApplicationStatus
	AgentDecision          *enums.AgentDecision
	AgentNotes             *string
	SubmittedDocuments     []string
	IncludeInsurance       *bool
	MonthlyInsuranceAmount *decimal.Decimal
}

// PropertySummary is the trimmed property projection used in applicant lists.
type PropertySummary struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Location   string          `json:"location"`
	FirstImage *string         `json:"first_image,omitempty"`
}

// ApplicationListItem pairs an application with its property summary.
type ApplicationListItem struct {
	models.LoanApplication
	PropertySummary *PropertySummary `json:"property_summary,omitempty"`
}

// NewApplicationListItem builds the list projection from a loaded row.
func NewApplicationListItem(row models.LoanApplication) ApplicationListItem {
	item := ApplicationListItem{LoanApplication: row}
	if row.Property != nil {
		summary := &PropertySummary{
			ID:       row.Property.ID,
			Title:    row.Property.Title,
			Price:    row.Property.Price,
			Location: row.Property.Location,
		}
		if len(row.Property.ImageURLs) > 0 {
			first := row.Property.ImageURLs[0]
			summary.FirstImage = &first
		}
		item.PropertySummary = summary
	}
	// The full property row stays out of list payloads.
	item.Property = nil
	return item
}
