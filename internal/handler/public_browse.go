// This file defines handlers for the public browsing API. These routes
// let unauthenticated visitors browse the movie grid, the collection
// list and the detail pages without a session. Responses sit behind the
// Redis cache middleware; mutations elsewhere publish invalidation
// events that clear it.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/darovskikh/reelkeep/internal/model"
	"github.com/darovskikh/reelkeep/internal/repository"
)

// PublicHandler aggregates the read-only stores needed for browsing.
type PublicHandler struct {
	Movies      MovieStore
	Collections CollectionStore
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(movies MovieStore, collections CollectionStore) *PublicHandler {
	if movies == nil || collections == nil {
		panic("nil store passed to NewPublicHandler")
	}
	return &PublicHandler{Movies: movies, Collections: collections}
}

// GetMovies handles GET /v1/movies: every movie, newest added first.
func (h *PublicHandler) GetMovies(c echo.Context) error {
	items, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if items == nil {
		items = []model.Movie{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMovie handles GET /v1/movies/:id.
func (h *PublicHandler) GetMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, m)
}

// GetCollections handles GET /v1/collections: newest created first,
// without member movies.
func (h *PublicHandler) GetCollections(c echo.Context) error {
	items, err := h.Collections.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if items == nil {
		items = []model.Collection{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetCollectionsWithMovies handles GET /v1/collections-with-movies: every
// collection together with its member movies, for the front-page section.
func (h *PublicHandler) GetCollectionsWithMovies(c echo.Context) error {
	items, err := h.Collections.ListWithMovies(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if items == nil {
		items = []model.CollectionWithMovies{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetCollection handles GET /v1/collections/:id: one collection with its
// movies.
func (h *PublicHandler) GetCollection(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cw, err := h.Collections.GetWithMovies(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, cw)
}
