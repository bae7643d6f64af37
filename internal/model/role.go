package model

import "time"

// Role names stored in user_roles.role. The column is an enum of exactly
// these two values; anything else is rejected before reaching the database.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserRole is a row in the `user_roles` table. The table has a unique key
// on user_id, so a user holds at most one role. A user without a row is
// pending approval; inserting a row approves them, deleting it sends them
// back to pending.
//
// Fields:
//
//	ID        – primary key identifier of the role assignment.
//	UserID    – the user this role belongs to.
//	Role      – "admin" or "user".
//	CreatedAt – when the role was granted.
type UserRole struct {
	ID        uint64    // user_roles.id
	UserID    uint64    // user_roles.user_id
	Role      string    // user_roles.role
	CreatedAt time.Time // user_roles.created_at
}

// ValidRole reports whether s is one of the role names the enum accepts.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleUser
}
