package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner, full access
	RoleManager  Role = "manager"  // Reviews corrections and exports
	RoleEmployee Role = "employee" // Clocks own events
)

// IsReviewer reports whether the role may resolve attendance corrections.
func (r Role) IsReviewer() bool {
	return r == RoleManager || r == RoleOwner
}
