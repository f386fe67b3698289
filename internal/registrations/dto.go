package registrations

import (
	"fmt"
	"strings"
	"time"

	"github.com/aymenjlassi/darna-backend/internal/attachments"
)

// SubmitInput carries the personal and bank fields of a registration request.
// Documents ride along as raw blobs and are attached after the row commits.
type SubmitInput struct {
	FullName        string
	DateOfBirth     string
	NationalID      string
	Phone           string
	Address         string
	City            string
	BankName        string
	Position        string
	EmployeeID      string
	Department      string
	SupervisorPhone string
	Documents       []attachments.Blob
}

// ReviewInput carries the moderation decision payload.
type ReviewInput struct {
	AdminNotes      *string
	RejectionReason *string
}

// dobLayouts lists accepted date-of-birth formats; values are stored as ISO dates.
var dobLayouts = []string{"02/01/2006", "2006-01-02"}

// ParseDateOfBirth accepts dd/mm/yyyy or ISO yyyy-mm-dd input.
func ParseDateOfBirth(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("date_of_birth is required")
	}
	for _, layout := range dobLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("date_of_birth %q must be dd/mm/yyyy or yyyy-mm-dd", trimmed)
}
