package enums

import "fmt"

// RuleStatus gates whether a discount rule participates in evaluation.
type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "active"
	RuleStatusDisabled RuleStatus = "disabled"
)

var validRuleStatuses = []RuleStatus{
	RuleStatusActive,
	RuleStatusDisabled,
}

// String implements fmt.Stringer.
func (r RuleStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RuleStatus.
func (r RuleStatus) IsValid() bool {
	for _, candidate := range validRuleStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRuleStatus converts raw input into a RuleStatus.
func ParseRuleStatus(value string) (RuleStatus, error) {
	for _, candidate := range validRuleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule status %q", value)
}
