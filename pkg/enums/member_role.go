package enums

// MemberRole describes what a user may do within a store.
type MemberRole string

const (
	MemberRoleOwner MemberRole = "owner"
	MemberRoleStaff MemberRole = "staff"
	MemberRoleAdmin MemberRole = "platform_admin"
)

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	switch m {
	case MemberRoleOwner, MemberRoleStaff, MemberRoleAdmin:
		return true
	}
	return false
}
