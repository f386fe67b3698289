package enums

import "fmt"

// AgentDecision is the bank agent's recorded input on a loan application.
// Absence (NULL column) means no decision yet.
type AgentDecision string

const (
	AgentDecisionApproved AgentDecision = "approved"
	AgentDecisionRejected AgentDecision = "rejected"
)

var validAgentDecisions = []AgentDecision{
	AgentDecisionApproved,
	AgentDecisionRejected,
}

func (d AgentDecision) String() string {
	return string(d)
}

func (d AgentDecision) IsValid() bool {
	for _, candidate := range validAgentDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// Status returns the application status implied by the decision.
func (d AgentDecision) Status() ApplicationStatus {
	if d == AgentDecisionApproved {
		return ApplicationStatusApproved
	}
	return ApplicationStatusRejected
}

func ParseAgentDecision(value string) (AgentDecision, error) {
	for _, candidate := range validAgentDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agent decision %q", value)
}
