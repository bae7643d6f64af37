package handler // handler defines http handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/darovskikh/reelkeep/internal/model"
	"github.com/darovskikh/reelkeep/internal/queue"
	"github.com/darovskikh/reelkeep/internal/repository"
	"github.com/darovskikh/reelkeep/internal/tmdb"
)

// The handlers depend on small store interfaces rather than the concrete
// repositories so tests can substitute mocks. The repository types
// satisfy them directly.

// MovieStore is the movie persistence surface the handlers need.
type MovieStore interface {
	List(ctx context.Context) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	ExistsByTMDBID(ctx context.Context, tmdbID int64) (bool, error)
	Create(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id uint64) error
}

// CollectionStore is the collection/membership persistence surface.
type CollectionStore interface {
	List(ctx context.Context) ([]model.Collection, error)
	GetByID(ctx context.Context, id uint64) (*model.Collection, error)
	ListWithMovies(ctx context.Context) ([]model.CollectionWithMovies, error)
	GetWithMovies(ctx context.Context, id uint64) (*model.CollectionWithMovies, error)
	Create(ctx context.Context, c *model.Collection) error
	Delete(ctx context.Context, id uint64) error
	AddMovie(ctx context.Context, collectionID, movieID uint64) error
	RemoveMovie(ctx context.Context, collectionID, movieID uint64) error
}

// RoleStore is the user_roles surface for the admin workflow and auth
// status reporting.
type RoleStore interface {
	ListUsers(ctx context.Context) ([]repository.UserWithRole, error)
	GetForUser(ctx context.Context, userID uint64) (*model.UserRole, error)
	Approve(ctx context.Context, userID uint64, role string) (*model.UserRole, error)
	Remove(ctx context.Context, roleID uint64) error
}

// CatalogClient is the external movie catalog surface: search, details,
// and CDN URL building for artwork paths.
type CatalogClient interface {
	Search(ctx context.Context, query string) (*tmdb.SearchResponse, error)
	Details(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
	ImageURL(path, size string) string
}

// EventPublisher publishes a catalog-changed event after a successful
// mutation. Failures are ignored by callers: the write already committed
// and the cache entries expire on their own TTL as a fallback.
type EventPublisher func(ctx context.Context, event queue.CatalogChangedEvent) error

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT numeric claims decode as float64.
func getUserID(c echo.Context) (uint64, error) {
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
	return 0, errors.New("invalid user_id in context")
}

// parseID parses a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
