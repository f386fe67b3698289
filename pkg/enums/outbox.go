package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateProperty        OutboxAggregateType = "property"
	AggregateRegistration    OutboxAggregateType = "bank_agent_registration"
	AggregateLoanApplication OutboxAggregateType = "loan_application"
	AggregateProfile         OutboxAggregateType = "profile"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateProperty,
	AggregateRegistration,
	AggregateLoanApplication,
	AggregateProfile,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPropertyCreated       OutboxEventType = "property_created"
	EventPropertyDeactivated   OutboxEventType = "property_deactivated"
	EventRegistrationSubmitted OutboxEventType = "registration_submitted"
	EventRegistrationReviewed  OutboxEventType = "registration_reviewed"
	EventApplicationCreated    OutboxEventType = "application_created"
	EventApplicationDecided    OutboxEventType = "application_decided"
	EventApplicationDeleted    OutboxEventType = "application_deleted"
	EventProfileRoleChanged    OutboxEventType = "profile_role_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPropertyCreated,
	EventPropertyDeactivated,
	EventRegistrationSubmitted,
	EventRegistrationReviewed,
	EventApplicationCreated,
	EventApplicationDecided,
	EventApplicationDeleted,
	EventProfileRoleChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
