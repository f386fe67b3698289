package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

// LoanApplication ties a buyer's loan request to an optional property and an
// optional bank agent. Status and AgentDecision are deliberately separate
// columns: status tracks the visible process state while the decision is the
// agent's recorded input, and several read paths consume them independently.
// Unlike properties, applications are hard-deleted.
type LoanApplication struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicantID uuid.UUID `gorm:"column:applicant_id;type:uuid;not null;index"`
	Applicant   *Profile  `gorm:"foreignKey:ApplicantID"`
	PropertyID  *uuid.UUID `gorm:"column:property_id;type:uuid"`
	Property    *Property  `gorm:"foreignKey:PropertyID"`

	LoanAmount     decimal.Decimal  `gorm:"column:loan_amount;type:numeric(14,2);not null"`
	LoanTermYears  int              `gorm:"column:loan_term_years;not null"`
	InterestRate   *decimal.Decimal `gorm:"column:interest_rate;type:numeric(6,3)"`
	MonthlyPayment *decimal.Decimal `gorm:"column:monthly_payment;type:numeric(14,2)"`

	EmploymentStatus enums.EmploymentStatus `gorm:"column:employment_status;type:employment_status;not null"`
	AnnualIncome     decimal.Decimal        `gorm:"column:annual_income;type:numeric(14,2);not null"`

	IdentityCardURL  *string `gorm:"column:identity_card_url"`
	ProofOfIncomeURL *string `gorm:"column:proof_of_income_url"`

	SelectedAgentID *uuid.UUID             `gorm:"column:selected_agent_id;type:uuid"`
	SelectedAgent   *BankAgentRegistration `gorm:"foreignKey:SelectedAgentID"`

	IncludeInsurance       bool             `gorm:"column:include_insurance;not null;default:false"`
	MonthlyInsuranceAmount *decimal.Decimal `gorm:"column:monthly_insurance_amount;type:numeric(14,2)"`

	Status             enums.ApplicationStatus `gorm:"column:status;type:application_status;not null;default:'pending'"`
	AgentDecision      *enums.AgentDecision    `gorm:"column:agent_decision;type:agent_decision"`
	AgentNotes         *string                 `gorm:"column:agent_notes"`
	SubmittedDocuments pq.StringArray          `gorm:"column:submitted_documents;type:text[];not null;default:ARRAY[]::text[]"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
