package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/darovskikh/reelkeep/internal/model"
	"github.com/darovskikh/reelkeep/internal/queue"
	"github.com/darovskikh/reelkeep/internal/repository"
	"github.com/darovskikh/reelkeep/internal/tmdb"
)

// MockMovieStore is a mock implementation of MovieStore.
type MockMovieStore struct {
	mock.Mock
}

func (m *MockMovieStore) List(ctx context.Context) ([]model.Movie, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Movie), args.Error(1)
}

func (m *MockMovieStore) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Movie), args.Error(1)
}

func (m *MockMovieStore) ExistsByTMDBID(ctx context.Context, tmdbID int64) (bool, error) {
	args := m.Called(ctx, tmdbID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMovieStore) Create(ctx context.Context, mv *model.Movie) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

func (m *MockMovieStore) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ MovieStore = (*MockMovieStore)(nil)

// MockCollectionStore is a mock implementation of CollectionStore.
type MockCollectionStore struct {
	mock.Mock
}

func (m *MockCollectionStore) List(ctx context.Context) ([]model.Collection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Collection), args.Error(1)
}

func (m *MockCollectionStore) GetByID(ctx context.Context, id uint64) (*model.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Collection), args.Error(1)
}

func (m *MockCollectionStore) ListWithMovies(ctx context.Context) ([]model.CollectionWithMovies, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CollectionWithMovies), args.Error(1)
}

func (m *MockCollectionStore) GetWithMovies(ctx context.Context, id uint64) (*model.CollectionWithMovies, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CollectionWithMovies), args.Error(1)
}

func (m *MockCollectionStore) Create(ctx context.Context, c *model.Collection) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCollectionStore) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCollectionStore) AddMovie(ctx context.Context, collectionID, movieID uint64) error {
	args := m.Called(ctx, collectionID, movieID)
	return args.Error(0)
}

func (m *MockCollectionStore) RemoveMovie(ctx context.Context, collectionID, movieID uint64) error {
	args := m.Called(ctx, collectionID, movieID)
	return args.Error(0)
}

var _ CollectionStore = (*MockCollectionStore)(nil)

// MockRoleStore is a mock implementation of RoleStore.
type MockRoleStore struct {
	mock.Mock
}

func (m *MockRoleStore) ListUsers(ctx context.Context) ([]repository.UserWithRole, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.UserWithRole), args.Error(1)
}

func (m *MockRoleStore) GetForUser(ctx context.Context, userID uint64) (*model.UserRole, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserRole), args.Error(1)
}

func (m *MockRoleStore) Approve(ctx context.Context, userID uint64, role string) (*model.UserRole, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserRole), args.Error(1)
}

func (m *MockRoleStore) Remove(ctx context.Context, roleID uint64) error {
	args := m.Called(ctx, roleID)
	return args.Error(0)
}

var _ RoleStore = (*MockRoleStore)(nil)

// MockCatalogClient is a mock implementation of CatalogClient.
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) Search(ctx context.Context, query string) (*tmdb.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.SearchResponse), args.Error(1)
}

func (m *MockCatalogClient) Details(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.MovieDetails), args.Error(1)
}

// ImageURL is a deterministic stub rather than an expectation: handlers
// call it once per result and the URL shape is what tests assert on.
func (m *MockCatalogClient) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "https://cdn.test/" + size + path
}

var _ CatalogClient = (*MockCatalogClient)(nil)

// eventRecorder captures published events so tests can assert on them
// without a broker.
type eventRecorder struct {
	events []queue.CatalogChangedEvent
}

func (r *eventRecorder) publish(_ context.Context, e queue.CatalogChangedEvent) error {
	r.events = append(r.events, e)
	return nil
}

// newTestContext builds an echo.Context for a single handler invocation.
// userID > 0 injects the JWT middleware's context value.
func newTestContext(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if userID > 0 {
		c.Set("user_id", userID)
	}
	return c, rec
}
