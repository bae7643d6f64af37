// This file defines the RoleRepo, which owns the user_roles table and the
// approval workflow built on it. A user with no role row is pending; an
// admin inserts a row to approve them and deletes it to send them back to
// pending. The table carries a unique key on user_id so a user holds at
// most one role at a time.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/darovskikh/reelkeep/internal/model"
)

// RoleRepo encapsulates all database queries related to user roles.
type RoleRepo struct {
	db *sql.DB
}

// NewRoleRepo constructs a RoleRepo with the provided DB handle.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

// UserWithRole is a merged row of the users and user_roles tables used by
// the admin user list. Role and RoleID are nil for pending users. The
// view is privileged: it includes every account, role row or not.
type UserWithRole struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Role      *string   `json:"role"`
	RoleID    *uint64   `json:"role_id"`
}

// IsAdmin reports whether the user holds the admin role.
func (r *RoleRepo) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM user_roles WHERE user_id=? AND role='admin' LIMIT 1",
		userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsApproved reports whether the user holds any role (admin or user).
func (r *RoleRepo) IsApproved(ctx context.Context, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM user_roles WHERE user_id=? LIMIT 1",
		userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetForUser returns the user's role row or nil when they are pending.
func (r *RoleRepo) GetForUser(ctx context.Context, userID uint64) (*model.UserRole, error) {
	var ur model.UserRole
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, role, created_at FROM user_roles WHERE user_id=? LIMIT 1",
		userID).Scan(&ur.ID, &ur.UserID, &ur.Role, &ur.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ur, nil
}

// ListUsers returns every account merged with its role assignment, newest
// account first. Pending users appear with nil Role/RoleID.
func (r *RoleRepo) ListUsers(ctx context.Context) ([]UserWithRole, error) {
	const q = `SELECT u.id, u.email, u.created_at, ur.role, ur.id
	           FROM users u
	           LEFT JOIN user_roles ur ON ur.user_id = u.id
	           ORDER BY u.created_at DESC, u.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserWithRole
	for rows.Next() {
		var (
			u      UserWithRole
			role   sql.NullString
			roleID sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt, &role, &roleID); err != nil {
			return nil, err
		}
		if role.Valid {
			v := role.String
			u.Role = &v
		}
		if roleID.Valid {
			v := uint64(roleID.Int64)
			u.RoleID = &v
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve inserts a role row for the user, moving them from pending to
// approved. ErrRoleExists is returned when the user already holds a role;
// the unique key on user_id is the enforced invariant.
func (r *RoleRepo) Approve(ctx context.Context, userID uint64, role string) (*model.UserRole, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role) VALUES (?,?)",
		userID, role)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return nil, ErrRoleExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	ur := &model.UserRole{ID: uint64(id)}
	// Follow-up SELECT so the caller receives a fully populated record.
	if err := r.db.QueryRowContext(ctx,
		"SELECT user_id, role, created_at FROM user_roles WHERE id=?",
		ur.ID).Scan(&ur.UserID, &ur.Role, &ur.CreatedAt); err != nil {
		return nil, err
	}
	return ur, nil
}

// Remove deletes a role row by its id, sending the user back to pending.
// A missing id is treated as success: the delete is idempotent.
func (r *RoleRepo) Remove(ctx context.Context, roleID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM user_roles WHERE id=?", roleID)
	return err
}
