package auth

// Role ids are stable across deployments and stored on the user row.
const (
	RoleSuperAdmin = 1
	RoleAdmin      = 2
	RoleUser       = 3
)

func RoleName(roleID int) string {
	switch roleID {
	case RoleSuperAdmin:
		return "SuperAdmin"
	case RoleAdmin:
		return "Admin"
	case RoleUser:
		return "User"
	default:
		return "Unknown"
	}
}

func ValidRole(roleID int) bool {
	return roleID >= RoleSuperAdmin && roleID <= RoleUser
}

// Capability names an action a role may or may not perform. Handlers ask for
// capabilities rather than role ids, so the role table lives in one place.
type Capability string

const (
	ManageTokens      Capability = "manage-tokens"
	ManageUsers       Capability = "manage-users"
	ViewAllCompanies  Capability = "view-all-companies"
	ManageCompanies   Capability = "manage-companies"
	ViewLinkAnalytics Capability = "view-link-analytics"
)

var roleCapabilities = map[int][]Capability{
	RoleSuperAdmin: {ManageTokens, ManageUsers, ViewAllCompanies, ManageCompanies, ViewLinkAnalytics},
	RoleAdmin:      {ViewLinkAnalytics},
	RoleUser:       {ViewLinkAnalytics},
}

func Allowed(roleID int, cap Capability) bool {
	for _, c := range roleCapabilities[roleID] {
		if c == cap {
			return true
		}
	}
	return false
}
