package auth

// Role is an account role.
type Role string

const (
	RoleUser       Role = "user"
	RoleEnterprise Role = "enterprise"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

var roleNames = map[Role]string{
	RoleUser:       "User",
	RoleEnterprise: "Enterprise User",
	RoleAdmin:      "Administrator",
	RoleSuperAdmin: "Super Administrator",
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// UserInfo is the signed-in identity kept with a session.
type UserInfo struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
}

// HasPermission reports whether info holds the required role. Super admins
// hold every role; a nil info holds none.
func HasPermission(info *UserInfo, required Role) bool {
	if info == nil {
		return false
	}
	return info.Role == RoleSuperAdmin || info.Role == required
}

// IsAdmin reports whether info is an admin or super admin.
func IsAdmin(info *UserInfo) bool {
	return HasPermission(info, RoleAdmin)
}

// IsEnterpriseUser reports whether info may act as an enterprise user.
func IsEnterpriseUser(info *UserInfo) bool {
	return HasPermission(info, RoleEnterprise)
}

// FormatUserName returns "First Last", the first name alone, or the email.
func FormatUserName(info UserInfo) string {
	switch {
	case info.FirstName != "" && info.LastName != "":
		return info.FirstName + " " + info.LastName
	case info.FirstName != "":
		return info.FirstName
	default:
		return info.Email
	}
}

// RoleDisplayName returns a label for role, or the raw value when unknown.
func RoleDisplayName(role Role) string {
	if name, ok := roleNames[role]; ok {
		return name
	}
	return string(role)
}
