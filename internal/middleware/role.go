package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// RoleChecker answers approval questions against the user_roles table.
// *repository.RoleRepo satisfies it; tests substitute a fake.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID uint64) (bool, error)
	IsApproved(ctx context.Context, userID uint64) (bool, error)
}

// RequireApproved enforces that the authenticated user holds any role
// (admin or user). Users without a role row are pending approval and get
// a 403 naming that state. Assumes JWTAuth stored "user_id" in context.
func RequireApproved(roles RoleChecker) echo.MiddlewareFunc {
	return requireRole(roles, false)
}

// RequireAdmin enforces that the authenticated user holds the admin role.
func RequireAdmin(roles RoleChecker) echo.MiddlewareFunc {
	return requireRole(roles, true)
}

func requireRole(roles RoleChecker, admin bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, err := UserIDFromContext(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			var ok bool
			if admin {
				ok, err = roles.IsAdmin(c.Request().Context(), uid)
			} else {
				ok, err = roles.IsApproved(c.Request().Context(), uid)
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authorization check failed"})
			}
			if !ok {
				if admin {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": "awaiting approval"})
			}
			return next(c)
		}
	}
}

// UserIDFromContext extracts the user_id stored by JWTAuth and converts it
// to uint64. JWT numeric claims decode as float64; string subjects are
// parsed for tolerance.
func UserIDFromContext(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, echo.ErrUnauthorized
}
