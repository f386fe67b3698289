package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aymenjlassi/darna-backend/pkg/migrate"
)

func TestRegistrationsMigrationContainsLiveIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_bank_agent_registrations_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no registrations migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE registration_status AS ENUM ('pending', 'approved', 'rejected')",
		"CREATE TABLE IF NOT EXISTS bank_agent_registrations",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_bank_agent_registrations_user_live",
		"WHERE status IN ('pending', 'approved')",
		"DROP TABLE IF EXISTS bank_agent_registrations",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLoanApplicationsMigrationContainsDecisionColumns(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_loan_applications_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no loan applications migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE application_status AS ENUM ('pending', 'under_review', 'approved', 'rejected')",
		"CREATE TYPE agent_decision AS ENUM ('approved', 'rejected')",
		"CREATE TABLE IF NOT EXISTS loan_applications",
		"status                   application_status NOT NULL DEFAULT 'pending'",
		"agent_decision           agent_decision",
		"DROP TABLE IF EXISTS loan_applications",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate shipped migrations: %v", err)
	}
}
