package enums

import "fmt"

// RuleType identifies how an automatic discount rule qualifies a cart.
type RuleType string

const (
	RuleTypeTieredValue       RuleType = "tiered_value"
	RuleTypeNewCustomer       RuleType = "new_customer"
	RuleTypeReturningCustomer RuleType = "returning_customer"
	RuleTypeCategory          RuleType = "category"
	RuleTypeQuantity          RuleType = "quantity"
)

var validRuleTypes = []RuleType{
	RuleTypeTieredValue,
	RuleTypeNewCustomer,
	RuleTypeReturningCustomer,
	RuleTypeCategory,
	RuleTypeQuantity,
}

// String implements fmt.Stringer.
func (r RuleType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RuleType.
func (r RuleType) IsValid() bool {
	for _, candidate := range validRuleTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRuleType converts raw input into a RuleType.
func ParseRuleType(value string) (RuleType, error) {
	for _, candidate := range validRuleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule type %q", value)
}
