package enums

import "fmt"

// OrderType scopes a discount rule to a settlement channel.
type OrderType string

const (
	OrderTypeAll    OrderType = "all"
	OrderTypeOnline OrderType = "online"
	OrderTypeCOD    OrderType = "cod"
)

var validOrderTypes = []OrderType{
	OrderTypeAll,
	OrderTypeOnline,
	OrderTypeCOD,
}

// String implements fmt.Stringer.
func (o OrderType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderType.
func (o OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// Allows reports whether a rule scoped to this order type may apply to the
// requested payment method.
func (o OrderType) Allows(method PaymentMethod) bool {
	switch o {
	case OrderTypeAll:
		return true
	case OrderTypeOnline:
		return method == PaymentMethodOnline
	case OrderTypeCOD:
		return method == PaymentMethodCOD
	default:
		return false
	}
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
