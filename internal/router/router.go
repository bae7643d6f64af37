package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/darovskikh/reelkeep/internal/handler"    // import the handlers that implement business logic
	"github.com/darovskikh/reelkeep/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.  The rate limiter covers the
// credential endpoints so password guessing burns through a small bucket.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rate echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", rate)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access issues a new access
	// token while leaving the refresh token untouched.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout is registered without JWT middleware so a client holding only a
	// refresh token can still terminate its session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	// /v1/me requires only a valid access token, not an approved role: a
	// pending user can still check their own account state.
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The cache
// middleware wraps every route here; the pass-through variant is used when
// caching is disabled.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/movies", p.GetMovies)
	g.GET("/movies/:id", p.GetMovie)
	g.GET("/collections", p.GetCollections)
	// Returns every collection with its movies inlined, for rendering the
	// whole catalog in one request.
	g.GET("/collections-with-movies", p.GetCollectionsWithMovies)
	g.GET("/collections/:id", p.GetCollection)
}

// RegisterCatalog registers the editing endpoints.  Every route requires a
// valid access token plus an approved role (admin or user); the external
// search routes additionally go through the rate limiter so a misbehaving
// client cannot exhaust the upstream API quota.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, roles middleware.RoleChecker, rate echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireApproved(roles))

	g.GET("/search/movies", h.SearchMovies, rate)
	g.GET("/search/movies/:tmdb_id", h.MovieDetails, rate)

	g.POST("/movies", h.CreateMovie)
	g.POST("/movies/import", h.ImportMovie)

	g.POST("/collections", h.CreateCollection)
	g.DELETE("/collections/:id", h.DeleteCollection)
	g.POST("/collections/:id/movies", h.AddCollectionMovie)
	g.DELETE("/collections/:id/movies/:movie_id", h.RemoveCollectionMovie)
}

// RegisterAdmin registers the administration endpoints: user approval and
// destructive catalog operations.  All of them require the admin role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, roles middleware.RoleChecker) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireAdmin(roles))

	g.GET("/admin/users", h.ListUsers)
	g.POST("/admin/users/:id/role", h.ApproveUser)
	g.DELETE("/admin/roles/:id", h.RemoveRole)
	// Deleting a movie also removes it from every collection, so it is
	// restricted to admins rather than all approved users.
	g.DELETE("/movies/:id", h.DeleteMovie)
}
