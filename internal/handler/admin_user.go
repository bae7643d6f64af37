// This file defines the admin-only handlers: the merged user list, the
// approval workflow over user_roles, and movie deletion. These routes sit
// behind RequireAdmin; the user list merges identities with role
// assignments and must never reach non-admins.
package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/darovskikh/reelkeep/internal/model"
	"github.com/darovskikh/reelkeep/internal/queue"
	"github.com/darovskikh/reelkeep/internal/repository"
)

// AdminHandler bundles the stores for user/role management and the
// admin-only movie deletion.
type AdminHandler struct {
	Roles   RoleStore
	Movies  MovieStore
	Publish EventPublisher
}

// NewAdminHandler constructs an AdminHandler and panics on nil stores.
func NewAdminHandler(roles RoleStore, movies MovieStore, publish EventPublisher) *AdminHandler {
	if roles == nil || movies == nil {
		panic("nil store passed to NewAdminHandler")
	}
	return &AdminHandler{Roles: roles, Movies: movies, Publish: publish}
}

func (h *AdminHandler) publish(c echo.Context, entity, action string, entityID, actorID uint64) {
	if h.Publish == nil {
		return
	}
	_ = h.Publish(c.Request().Context(), queue.CatalogChangedEvent{
		Entity:     entity,
		Action:     action,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// ListUsers handles GET /v1/admin/users: every account merged with its
// role assignment, pending users included with a null role.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	items, err := h.Roles.ListUsers(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if items == nil {
		items = []repository.UserWithRole{}
	}
	return c.JSON(http.StatusOK, echo.Map{"users": items})
}

type approveReq struct {
	Role string `json:"role"`
}

// ApproveUser handles POST /v1/admin/users/:id/role: assigns a role to a
// pending user. An empty role defaults to "user". A user who already
// holds a role answers 409 — one role row per user.
func (h *AdminHandler) ApproveUser(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req approveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin or user"})
	}

	ur, err := h.Roles.Approve(c.Request().Context(), userID, role)
	if err != nil {
		if errors.Is(err, repository.ErrRoleExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already has a role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not approve user"})
	}
	h.publish(c, queue.EntityRole, "created", ur.ID, actorID)
	return c.JSON(http.StatusCreated, ur)
}

// RemoveRole handles DELETE /v1/admin/roles/:id: revokes a role
// assignment, sending the user back to pending. Deleting an id that is
// already gone still answers 204.
func (h *AdminHandler) RemoveRole(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roleID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Roles.Remove(c.Request().Context(), roleID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not remove role"})
	}
	h.publish(c, queue.EntityRole, "deleted", roleID, actorID)
	return c.NoContent(http.StatusNoContent)
}

// DeleteMovie handles DELETE /v1/movies/:id. Admin-only; collection
// membership rows are cascaded by the repository.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete movie"})
	}
	h.publish(c, queue.EntityMovie, "deleted", id, actorID)
	return c.NoContent(http.StatusNoContent)
}
