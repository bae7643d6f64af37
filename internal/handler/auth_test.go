package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darovskikh/reelkeep/internal/config"
	"github.com/darovskikh/reelkeep/internal/model"
	"github.com/darovskikh/reelkeep/internal/repository"
	"github.com/darovskikh/reelkeep/internal/utils"
)

// MockUserStore is a mock implementation of UserStore.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	args := m.Called(ctx, email, password, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

var _ UserStore = (*MockUserStore)(nil)

// MockTokenStore is a mock implementation of TokenStore.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	args := m.Called(ctx, userID, tokenHash, exp)
	return args.Error(0)
}

func (m *MockTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var _ TokenStore = (*MockTokenStore)(nil)

func testAuthConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4, // MinCost keeps the suite fast
	}
}

func TestRegister_Success(t *testing.T) {
	users := new(MockUserStore)
	tokens := new(MockTokenStore)
	roles := new(MockRoleStore)
	h := NewAuthHandler(testAuthConfig(), users, tokens, roles)

	users.On("Create", mock.Anything, "new@example.com", "secret123", 4).Return(uint64(2), nil)
	tokens.On("StoreRefresh", mock.Anything, uint64(2), mock.Anything, mock.Anything).Return(nil)

	body := `{"email":"New@Example.com","password":"secret123"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/register", body, 0)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User struct {
			ID       uint64  `json:"id"`
			Email    string  `json:"email"`
			Role     *string `json:"role"`
			Approved bool    `json:"approved"`
		} `json:"user"`
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(2), resp.User.ID)
	assert.Equal(t, "new@example.com", resp.User.Email)
	// fresh accounts await approval
	assert.Nil(t, resp.User.Role)
	assert.False(t, resp.User.Approved)
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)

	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(MockUserStore)
	h := NewAuthHandler(testAuthConfig(), users, new(MockTokenStore), new(MockRoleStore))

	users.On("Create", mock.Anything, "taken@example.com", "secret123", 4).
		Return(uint64(0), repository.ErrEmailExists)

	body := `{"email":"taken@example.com","password":"secret123"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/register", body, 0)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	users.AssertExpectations(t)
}

func TestRegister_MissingFields(t *testing.T) {
	h := NewAuthHandler(testAuthConfig(), new(MockUserStore), new(MockTokenStore), new(MockRoleStore))

	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/register", `{"email":"a@b.c"}`, 0)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Success_ApprovedUser(t *testing.T) {
	users := new(MockUserStore)
	tokens := new(MockTokenStore)
	roles := new(MockRoleStore)
	h := NewAuthHandler(testAuthConfig(), users, tokens, roles)

	hash, err := utils.HashPassword("secret123", 4)
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "admin@example.com").
		Return(model.User{ID: 1, Email: "admin@example.com", PasswordHash: hash}, nil)
	tokens.On("StoreRefresh", mock.Anything, uint64(1), mock.Anything, mock.Anything).Return(nil)
	roles.On("GetForUser", mock.Anything, uint64(1)).
		Return(&model.UserRole{ID: 1, UserID: 1, Role: model.RoleAdmin}, nil)

	body := `{"email":"admin@example.com","password":"secret123"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/login", body, 0)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			Role     *string `json:"role"`
			Approved bool    `json:"approved"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.User.Role)
	assert.Equal(t, model.RoleAdmin, *resp.User.Role)
	assert.True(t, resp.User.Approved)

	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
	roles.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(MockUserStore)
	h := NewAuthHandler(testAuthConfig(), users, new(MockTokenStore), new(MockRoleStore))

	hash, err := utils.HashPassword("secret123", 4)
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "user@example.com").
		Return(model.User{ID: 2, Email: "user@example.com", PasswordHash: hash}, nil)

	body := `{"email":"user@example.com","password":"wrong"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/login", body, 0)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := new(MockUserStore)
	h := NewAuthHandler(testAuthConfig(), users, new(MockTokenStore), new(MockRoleStore))

	users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(model.User{}, sql.ErrNoRows)

	body := `{"email":"ghost@example.com","password":"secret123"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/login", body, 0)

	require.NoError(t, h.Login(c))
	// same answer as a wrong password so emails cannot be probed
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_RotatesToken(t *testing.T) {
	users := new(MockUserStore)
	tokens := new(MockTokenStore)
	roles := new(MockRoleStore)
	h := NewAuthHandler(testAuthConfig(), users, tokens, roles)

	raw := "0123456789abcdef"
	hash := utils.HashRefreshRaw(raw)

	tokens.On("ValidateRefresh", mock.Anything, hash).Return(uint64(2), nil)
	tokens.On("RevokeByHash", mock.Anything, hash).Return(nil)
	tokens.On("StoreRefresh", mock.Anything, uint64(2), mock.Anything, mock.Anything).Return(nil)
	users.On("GetByID", mock.Anything, uint64(2)).
		Return(model.User{ID: 2, Email: "user@example.com"}, nil)
	roles.On("GetForUser", mock.Anything, uint64(2)).Return(nil, nil)

	body := `{"refresh_token":"` + raw + `"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/refresh", body, 0)

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Refresh.Token)
	assert.NotEqual(t, raw, resp.Refresh.Token)

	tokens.AssertExpectations(t)
}

func TestRefresh_InvalidToken(t *testing.T) {
	tokens := new(MockTokenStore)
	h := NewAuthHandler(testAuthConfig(), new(MockUserStore), tokens, new(MockRoleStore))

	tokens.On("ValidateRefresh", mock.Anything, mock.Anything).
		Return(uint64(0), sql.ErrNoRows)

	body := `{"refresh_token":"expired-or-revoked"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/refresh", body, 0)

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	tokens.AssertNotCalled(t, "StoreRefresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshAccess_DoesNotRotate(t *testing.T) {
	users := new(MockUserStore)
	tokens := new(MockTokenStore)
	h := NewAuthHandler(testAuthConfig(), users, tokens, new(MockRoleStore))

	raw := "0123456789abcdef"
	hash := utils.HashRefreshRaw(raw)

	tokens.On("ValidateRefresh", mock.Anything, hash).Return(uint64(2), nil)
	users.On("GetByID", mock.Anything, uint64(2)).
		Return(model.User{ID: 2, Email: "user@example.com"}, nil)

	body := `{"refresh_token":"` + raw + `"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/refresh-access", body, 0)

	require.NoError(t, h.RefreshAccess(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	tokens.AssertNotCalled(t, "RevokeByHash", mock.Anything, mock.Anything)
	tokens.AssertNotCalled(t, "StoreRefresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout_WithRefreshToken(t *testing.T) {
	tokens := new(MockTokenStore)
	h := NewAuthHandler(testAuthConfig(), new(MockUserStore), tokens, new(MockRoleStore))

	raw := "0123456789abcdef"
	hash := utils.HashRefreshRaw(raw)

	tokens.On("ValidateRefresh", mock.Anything, hash).Return(uint64(2), nil)
	tokens.On("RevokeByHash", mock.Anything, hash).Return(nil)

	body := `{"refresh_token":"` + raw + `"}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/logout", body, 0)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	tokens.AssertExpectations(t)
}

func TestLogout_WithBearerRevokesAllSessions(t *testing.T) {
	tokens := new(MockTokenStore)
	h := NewAuthHandler(testAuthConfig(), new(MockUserStore), tokens, new(MockRoleStore))

	access, err := utils.NewAccessToken("test-secret", 2, 15)
	require.NoError(t, err)

	tokens.On("RevokeAllForUser", mock.Anything, uint64(2)).Return(nil)

	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/logout", "", 0)
	c.Request().Header.Set("Authorization", "Bearer "+access.Token)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	tokens.AssertExpectations(t)
}

func TestLogout_NothingProvided(t *testing.T) {
	h := NewAuthHandler(testAuthConfig(), new(MockUserStore), new(MockTokenStore), new(MockRoleStore))

	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/logout", "", 0)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe_PendingUser(t *testing.T) {
	users := new(MockUserStore)
	roles := new(MockRoleStore)
	h := NewAuthHandler(testAuthConfig(), users, new(MockTokenStore), roles)

	users.On("GetByID", mock.Anything, uint64(2)).
		Return(model.User{ID: 2, Email: "new@example.com"}, nil)
	roles.On("GetForUser", mock.Anything, uint64(2)).Return(nil, nil)

	c, rec := newTestContext(t, http.MethodGet, "/v1/me", "", 2)

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			Role     *string `json:"role"`
			Approved bool    `json:"approved"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.User.Role)
	assert.False(t, resp.User.Approved)
}

func TestMe_ApprovedUser(t *testing.T) {
	users := new(MockUserStore)
	roles := new(MockRoleStore)
	h := NewAuthHandler(testAuthConfig(), users, new(MockTokenStore), roles)

	users.On("GetByID", mock.Anything, uint64(3)).
		Return(model.User{ID: 3, Email: "user@example.com"}, nil)
	roles.On("GetForUser", mock.Anything, uint64(3)).
		Return(&model.UserRole{ID: 4, UserID: 3, Role: model.RoleUser}, nil)

	c, rec := newTestContext(t, http.MethodGet, "/v1/me", "", 3)

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			Role     *string `json:"role"`
			Approved bool    `json:"approved"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.User.Role)
	assert.Equal(t, model.RoleUser, *resp.User.Role)
	assert.True(t, resp.User.Approved)
}
