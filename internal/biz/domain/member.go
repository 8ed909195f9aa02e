package domain

// MemberRole is a chat member status as reported by the platform
type MemberRole string

const (
	RoleCreator       MemberRole = "creator"
	RoleOwner         MemberRole = "owner"
	RoleAdministrator MemberRole = "administrator"
	RoleMember        MemberRole = "member"
	RoleRestricted    MemberRole = "restricted"
	RoleLeft          MemberRole = "left"
	RoleKicked        MemberRole = "kicked"
)

// IsPrivileged reports whether the role bypasses moderation
func (r MemberRole) IsPrivileged() bool {
	switch r {
	case RoleCreator, RoleOwner, RoleAdministrator:
		return true
	}
	return false
}
