package enums

import (
	"fmt"
	"strings"
)

// EmploymentStatus describes the applicant's declared employment situation.
type EmploymentStatus string

const (
	EmploymentStatusEmployed     EmploymentStatus = "employed"
	EmploymentStatusSelfEmployed EmploymentStatus = "self_employed"
	EmploymentStatusUnemployed   EmploymentStatus = "unemployed"
	EmploymentStatusRetired      EmploymentStatus = "retired"
	EmploymentStatusStudent      EmploymentStatus = "student"
	EmploymentStatusOther        EmploymentStatus = "other"
)

var validEmploymentStatuses = []EmploymentStatus{
	EmploymentStatusEmployed,
	EmploymentStatusSelfEmployed,
	EmploymentStatusUnemployed,
	EmploymentStatusRetired,
	EmploymentStatusStudent,
	EmploymentStatusOther,
}

func (s EmploymentStatus) String() string {
	return string(s)
}

func (s EmploymentStatus) IsValid() bool {
	for _, candidate := range validEmploymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseEmploymentStatus(value string) (EmploymentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validEmploymentStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid employment status %q", value)
}
