package registrations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aymenjlassi/darna-backend/pkg/db/models"
	"github.com/aymenjlassi/darna-backend/pkg/enums"
)

func setupRegistrationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS bank_agent_registrations (
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
);`
	require.NoError(t, db.Exec(schema).Error)

	live := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_bank_agent_registrations_user_live
ON bank_agent_registrations (user_id) WHERE status IN ('pending', 'approved');`
	require.NoError(t, db.Exec(live).Error)
	return db
}

func newRegistration(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.RegistrationStatus, submittedAt time.Time) *models.BankAgentRegistration {
	t.Helper()

	row := &models.BankAgentRegistration{
		ID:              uuid.New(),
		UserID:          userID,
		FullName:        "Amira Ben Salah",
		DateOfBirth:     time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
		NationalID:      "09882341",
		Phone:           "22334455",
		Address:         "12 Rue de Carthage",
		City:            "Tunis",
		BankName:        "Banque du Sud",
		Position:        "Credit Analyst",
		EmployeeID:      "BS-2231",
		Department:      "Retail Lending",
		SupervisorPhone: "71234567",
		Status:          status,
		SubmittedAt:     submittedAt,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestFindLiveByUserID(t *testing.T) {
	db := setupRegistrationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	newRegistration(t, db, userID, enums.RegistrationStatusRejected, time.Now().Add(-48*time.Hour))

	_, err := repo.FindLiveByUserID(ctx, userID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	pending := newRegistration(t, db, userID, enums.RegistrationStatusPending, time.Now())
	found, err := repo.FindLiveByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, found.ID)
}

func TestLiveIndexBlocksSecondPendingRow(t *testing.T) {
	db := setupRegistrationsTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	userID := uuid.New()
	newRegistration(t, db, userID, enums.RegistrationStatusPending, time.Now())

	dup := &models.BankAgentRegistration{
		ID:              uuid.New(),
		UserID:          userID,
		FullName:        "Amira Ben Salah",
		DateOfBirth:     time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
		NationalID:      "09882341",
		Phone:           "22334455",
		Address:         "12 Rue de Carthage",
		City:            "Tunis",
		BankName:        "Banque du Sud",
		Position:        "Credit Analyst",
		EmployeeID:      "BS-2231",
		Department:      "Retail Lending",
		SupervisorPhone: "71234567",
		Status:          enums.RegistrationStatusPending,
		SubmittedAt:     time.Now(),
	}
	_, err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestRecordReviewUpdatesDecisionFields(t *testing.T) {
	db := setupRegistrationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := newRegistration(t, db, uuid.New(), enums.RegistrationStatusPending, time.Now())

	notes := "verified with the branch manager"
	reviewedAt := time.Now()
	require.NoError(t, repo.RecordReview(ctx, row.ID, enums.RegistrationStatusApproved, reviewedAt, &notes, nil))

	stored, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RegistrationStatusApproved, stored.Status)
	require.NotNil(t, stored.ReviewedAt)
	require.NotNil(t, stored.AdminNotes)
	assert.Equal(t, notes, *stored.AdminNotes)
	assert.Nil(t, stored.RejectionReason)
}

func TestRecordReviewUnknownID(t *testing.T) {
	db := setupRegistrationsTestDB(t)
	repo := NewRepository(db)

	err := repo.RecordReview(context.Background(), uuid.New(), enums.RegistrationStatusRejected, time.Now(), nil, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAttachDocumentsFillsOnlyUploadedFields(t *testing.T) {
	db := setupRegistrationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := newRegistration(t, db, uuid.New(), enums.RegistrationStatusPending, time.Now())

	urls := map[string]string{
		"national_id_doc_url": "https://storage.googleapis.com/darna/registrations/a/national_id_doc_url/id.pdf",
	}
	require.NoError(t, repo.AttachDocuments(ctx, row.ID, urls))

	stored, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NationalIDDocURL)
	assert.Equal(t, urls["national_id_doc_url"], *stored.NationalIDDocURL)
	assert.Nil(t, stored.EmploymentLetterURL)
}

func TestListByStatusNewestFirst(t *testing.T) {
	db := setupRegistrationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	older := newRegistration(t, db, uuid.New(), enums.RegistrationStatusApproved, time.Now().Add(-2*time.Hour))
	newer := newRegistration(t, db, uuid.New(), enums.RegistrationStatusApproved, time.Now())
	newRegistration(t, db, uuid.New(), enums.RegistrationStatusPending, time.Now())

	rows, err := repo.ListByStatus(ctx, enums.RegistrationStatusApproved, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)

	count, err := repo.CountByStatus(ctx, enums.RegistrationStatusApproved)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
