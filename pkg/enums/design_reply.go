package enums

import "fmt"

// DesignReplyType tags the shape of a model response in the design pipeline.
type DesignReplyType string

const (
	DesignReplyText   DesignReplyType = "text"
	DesignReplyDesign DesignReplyType = "design"
)

var validDesignReplyTypes = []DesignReplyType{
	DesignReplyText,
	DesignReplyDesign,
}

// String implements fmt.Stringer.
func (d DesignReplyType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DesignReplyType.
func (d DesignReplyType) IsValid() bool {
	for _, candidate := range validDesignReplyTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDesignReplyType converts raw input into a DesignReplyType.
func ParseDesignReplyType(value string) (DesignReplyType, error) {
	for _, candidate := range validDesignReplyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid design reply type %q", value)
}
