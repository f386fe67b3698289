package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

// BankAgentRegistration is a moderation row admitting a user into the
// bank_agent role. A user may hold at most one row in pending/approved at a
// time; the store enforces this with a partial unique index so concurrent
// submissions cannot slip past the application-level check.
type BankAgentRegistration struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	User   *Profile  `gorm:"foreignKey:UserID"`

	FullName    string    `gorm:"column:full_name;not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;type:date;not null"`
	NationalID  string    `gorm:"column:national_id;not null"`
	Phone       string    `gorm:"column:phone;not null"`
	Address     string    `gorm:"column:address;not null"`
	City        string    `gorm:"column:city;not null"`

	BankName        string `gorm:"column:bank_name;not null"`
	Position        string `gorm:"column:position;not null"`
	EmployeeID      string `gorm:"column:employee_id;not null"`
	Department      string `gorm:"column:department;not null"`
	SupervisorPhone string `gorm:"column:supervisor_phone;not null"`

	// Document URLs are attached asynchronously after row creation and stay
	// null when the upload fails.
	NationalIDDocURL    *string `gorm:"column:national_id_doc_url"`
	EmploymentLetterURL *string `gorm:"column:employment_letter_url"`

	Status          enums.RegistrationStatus `gorm:"column:status;type:registration_status;not null;default:'pending'"`
	SubmittedAt     time.Time                `gorm:"column:submitted_at;not null"`
	ReviewedAt      *time.Time               `gorm:"column:reviewed_at"`
	AdminNotes      *string                  `gorm:"column:admin_notes"`
	RejectionReason *string                  `gorm:"column:rejection_reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
