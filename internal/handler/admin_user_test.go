package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darovskikh/reelkeep/internal/model"
	"github.com/darovskikh/reelkeep/internal/queue"
	"github.com/darovskikh/reelkeep/internal/repository"
)

func TestListUsers_MergedRows(t *testing.T) {
	roles := new(MockRoleStore)
	h := NewAdminHandler(roles, new(MockMovieStore), nil)

	admin := model.RoleAdmin
	roleID := uint64(1)
	roles.On("ListUsers", mock.Anything).Return([]repository.UserWithRole{
		{ID: 2, Email: "new@example.com"}, // pending, nil role
		{ID: 1, Email: "admin@example.com", Role: &admin, RoleID: &roleID},
	}, nil)

	c, rec := newTestContext(t, http.MethodGet, "/v1/admin/users", "", 1)

	require.NoError(t, h.ListUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []repository.UserWithRole `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 2)
	assert.Nil(t, resp.Users[0].Role)
	require.NotNil(t, resp.Users[1].Role)
	assert.Equal(t, model.RoleAdmin, *resp.Users[1].Role)

	roles.AssertExpectations(t)
}

func TestListUsers_EmptyTable(t *testing.T) {
	roles := new(MockRoleStore)
	h := NewAdminHandler(roles, new(MockMovieStore), nil)

	roles.On("ListUsers", mock.Anything).Return([]repository.UserWithRole(nil), nil)

	c, rec := newTestContext(t, http.MethodGet, "/v1/admin/users", "", 1)

	require.NoError(t, h.ListUsers(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	// nil slice must serialize as [], not null
	assert.Contains(t, rec.Body.String(), `"users":[]`)
}

func TestApproveUser_DefaultRole(t *testing.T) {
	roles := new(MockRoleStore)
	events := &eventRecorder{}
	h := NewAdminHandler(roles, new(MockMovieStore), events.publish)

	roles.On("Approve", mock.Anything, uint64(2), model.RoleUser).
		Return(&model.UserRole{ID: 9, UserID: 2, Role: model.RoleUser}, nil)

	c, rec := newTestContext(t, http.MethodPost, "/v1/admin/users/2/role", `{}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.ApproveUser(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, events.events, 1)
	assert.Equal(t, queue.EntityRole, events.events[0].Entity)
	assert.Equal(t, "created", events.events[0].Action)
	assert.Equal(t, uint64(9), events.events[0].EntityID)
	assert.Equal(t, uint64(1), events.events[0].ActorID)

	roles.AssertExpectations(t)
}

func TestApproveUser_ExplicitAdmin(t *testing.T) {
	roles := new(MockRoleStore)
	h := NewAdminHandler(roles, new(MockMovieStore), nil)

	roles.On("Approve", mock.Anything, uint64(2), model.RoleAdmin).
		Return(&model.UserRole{ID: 9, UserID: 2, Role: model.RoleAdmin}, nil)

	c, rec := newTestContext(t, http.MethodPost, "/v1/admin/users/2/role", `{"role":"ADMIN"}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.ApproveUser(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	roles.AssertExpectations(t)
}

func TestApproveUser_InvalidRole(t *testing.T) {
	roles := new(MockRoleStore)
	h := NewAdminHandler(roles, new(MockMovieStore), nil)

	c, rec := newTestContext(t, http.MethodPost, "/v1/admin/users/2/role", `{"role":"owner"}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.ApproveUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	roles.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveUser_AlreadyHasRole(t *testing.T) {
	roles := new(MockRoleStore)
	events := &eventRecorder{}
	h := NewAdminHandler(roles, new(MockMovieStore), events.publish)

	roles.On("Approve", mock.Anything, uint64(2), model.RoleUser).
		Return(nil, repository.ErrRoleExists)

	c, rec := newTestContext(t, http.MethodPost, "/v1/admin/users/2/role", `{"role":"user"}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.ApproveUser(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, events.events)
	roles.AssertExpectations(t)
}

func TestRemoveRole_Idempotent(t *testing.T) {
	roles := new(MockRoleStore)
	h := NewAdminHandler(roles, new(MockMovieStore), nil)

	roles.On("Remove", mock.Anything, uint64(9)).Return(nil)

	c, rec := newTestContext(t, http.MethodDelete, "/v1/admin/roles/9", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("9")

	require.NoError(t, h.RemoveRole(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	roles.AssertExpectations(t)
}

func TestDeleteMovie_Success(t *testing.T) {
	movies := new(MockMovieStore)
	events := &eventRecorder{}
	h := NewAdminHandler(new(MockRoleStore), movies, events.publish)

	movies.On("Delete", mock.Anything, uint64(12)).Return(nil)

	c, rec := newTestContext(t, http.MethodDelete, "/v1/movies/12", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("12")

	require.NoError(t, h.DeleteMovie(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, events.events, 1)
	assert.Equal(t, queue.EntityMovie, events.events[0].Entity)
	assert.Equal(t, "deleted", events.events[0].Action)
	movies.AssertExpectations(t)
}

func TestDeleteMovie_NotFound(t *testing.T) {
	movies := new(MockMovieStore)
	h := NewAdminHandler(new(MockRoleStore), movies, nil)

	movies.On("Delete", mock.Anything, uint64(99)).Return(repository.ErrMovieNotFound)

	c, rec := newTestContext(t, http.MethodDelete, "/v1/movies/99", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("99")

	require.NoError(t, h.DeleteMovie(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	movies.AssertExpectations(t)
}
