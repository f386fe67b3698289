package enums

import "fmt"

// RegistrationStatus tracks a bank-agent registration through moderation.
// pending is the only non-terminal state; approved and rejected are final.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"
	RegistrationStatusApproved RegistrationStatus = "approved"
	RegistrationStatusRejected RegistrationStatus = "rejected"
)

var validRegistrationStatuses = []RegistrationStatus{
	RegistrationStatusPending,
	RegistrationStatusApproved,
	RegistrationStatusRejected,
}

func (s RegistrationStatus) String() string {
	return string(s)
}

func (s RegistrationStatus) IsValid() bool {
	for _, candidate := range validRegistrationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status can never change again.
func (s RegistrationStatus) IsTerminal() bool {
	return s == RegistrationStatusApproved || s == RegistrationStatusRejected
}

// IsLive reports whether the registration blocks the user from submitting a
// new one. A rejected applicant may re-apply.
func (s RegistrationStatus) IsLive() bool {
	return s == RegistrationStatusPending || s == RegistrationStatusApproved
}

func ParseRegistrationStatus(value string) (RegistrationStatus, error) {
	for _, candidate := range validRegistrationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid registration status %q", value)
}
