package user

type Role string

const (
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role carries the administrative capability
// (release any slot, regardless of owner).
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
