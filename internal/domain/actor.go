package domain

// Role of the caller as forwarded by the gateway
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	// RoleSystem background jobs (expiration sweep, scheduled expiry)
	RoleSystem Role = "system"
)

// ParseRole converts a header value to a role, unknown values are customers
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSystem:
		return RoleSystem
	}
	return RoleCustomer
}

// Actor who performs an operation
type Actor struct {
	UserID int64
	Role   Role
}

// SystemActor actor used by background expiry
var SystemActor = Actor{Role: RoleSystem}

// IsAdmin returns true for back-office users
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsSystem returns true for background jobs
func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// CanManage returns true if the actor owns the booking or administers it
func (a Actor) CanManage(b *Booking) bool {
	return a.IsAdmin() || b.IsOwnedBy(a.UserID)
}
