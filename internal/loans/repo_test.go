package loans

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

func setupLoansTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  identity_id TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'buyer',
  address TEXT,
  city TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  location TEXT NOT NULL,
  bedrooms INTEGER NOT NULL DEFAULT 0,
  bathrooms INTEGER NOT NULL DEFAULT 0,
  area_sqm INTEGER,
  property_type TEXT NOT NULL,
  image_urls TEXT NOT NULL DEFAULT '{}',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS bank_agent_registrations (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  full_name TEXT NOT NULL,
  date_of_birth DATETIME NOT NULL,
  national_id TEXT NOT NULL,
  phone TEXT NOT NULL,
  address TEXT NOT NULL,
  city TEXT NOT NULL,
  bank_name TEXT NOT NULL,
  position TEXT NOT NULL,
  employee_id TEXT NOT NULL,
  department TEXT NOT NULL,
  supervisor_phone TEXT NOT NULL,
  national_id_doc_url TEXT,
  employment_letter_url TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  submitted_at DATETIME NOT NULL,
  reviewed_at DATETIME,
  admin_notes TEXT,
  rejection_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS loan_applications (
  id TEXT PRIMARY KEY,
  applicant_id TEXT NOT NULL,
  property_id TEXT,
  loan_amount NUMERIC NOT NULL,
  loan_term_years INTEGER NOT NULL,
  interest_rate NUMERIC,
  monthly_payment NUMERIC,
  employment_status TEXT NOT NULL,
  annual_income NUMERIC NOT NULL,
  identity_card_url TEXT,
  proof_of_income_url TEXT,
  selected_agent_id TEXT,
  include_insurance INTEGER NOT NULL DEFAULT 0,
  monthly_insurance_amount NUMERIC,
  status TEXT NOT NULL DEFAULT 'pending',
  agent_decision TEXT,
  agent_notes TEXT,
  submitted_documents TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newApplicant(t *testing.T, db *gorm.DB) *models.Profile {
	t.Helper()
	row := &models.Profile{
		ID:          uuid.New(),
		IdentityID:  uuid.NewString(),
		DisplayName: "Amira Ben Salah",
		Role:        enums.ProfileRoleBuyer,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func newApplication(t *testing.T, db *gorm.DB, applicantID uuid.UUID, propertyID *uuid.UUID, createdAt time.Time) *models.LoanApplication {
	t.Helper()
	row := &models.LoanApplication{
		ID:               uuid.New(),
		ApplicantID:      applicantID,
		PropertyID:       propertyID,
		LoanAmount:       decimal.NewFromInt(250000),
		LoanTermYears:    20,
		EmploymentStatus: enums.EmploymentStatusEmployed,
		AnnualIncome:     decimal.NewFromInt(60000),
		Status:           enums.ApplicationStatusPending,
		CreatedAt:        createdAt,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestFindByIDJoinsApplicantAndProperty(t *testing.T) {
	db := setupLoansTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	applicant := newApplicant(t, db)
	property := &models.Property{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		Title:        "Apartment in Sousse",
		Price:        decimal.NewFromInt(320000),
		Location:     "Sousse",
		PropertyType: enums.PropertyTypeApartment,
		IsActive:     true,
	}
	require.NoError(t, db.Create(property).Error)

	created := newApplication(t, db, applicant.ID, &property.ID, time.Now())

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Applicant)
	assert.Equal(t, applicant.ID, found.Applicant.ID)
	require.NotNil(t, found.Property)
	assert.Equal(t, "Apartment in Sousse", found.Property.Title)
}

func TestDeleteRemovesRowPermanently(t *testing.T) {
	db := setupLoansTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	applicant := newApplicant(t, db)
	created := newApplication(t, db, applicant.ID, nil, time.Now())

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err := repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), gorm.ErrRecordNotFound)
}

func TestUpdateUnknownApplication(t *testing.T) {
	db := setupLoansTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Update(context.Background(), uuid.New(), map[string]any{"status": enums.ApplicationStatusUnderReview})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAttachDocumentsFillsOnlyUploadedColumns(t *testing.T) {
	db := setupLoansTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	applicant := newApplicant(t, db)
	created := newApplication(t, db, applicant.ID, nil, time.Now())

	urls := map[string]string{
		"identity_card_url": "https://storage.googleapis.com/darna/applications/a/identity_card_url/cin.pdf",
	}
	require.NoError(t, repo.AttachDocuments(ctx, created.ID, urls))

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.IdentityCardURL)
	assert.Equal(t, urls["identity_card_url"], *stored.IdentityCardURL)
	assert.Nil(t, stored.ProofOfIncomeURL)
}

func TestListByApplicantNewestFirst(t *testing.T) {
	db := setupLoansTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	applicant := newApplicant(t, db)
	other := newApplicant(t, db)

	older := newApplication(t, db, applicant.ID, nil, time.Now().Add(-2*time.Hour))
	newer := newApplication(t, db, applicant.ID, nil, time.Now())
	newApplication(t, db, other.ID, nil, time.Now())

	rows, err := repo.ListByApplicant(ctx, applicant.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)

	count, err := repo.CountByApplicant(ctx, applicant.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
