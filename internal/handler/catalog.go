// This file defines the approved-user catalog handlers: searching the
// external movie database, adding movies (free-form or imported by
// external id), and managing collections and their memberships. Role
// gating happens in middleware; by the time these run the caller is an
// approved user or an admin.
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
	"github.com/darovskikh/reelkeep/internal/tmdb"
)

// CatalogHandler bundles the stores and the external catalog client for
// the approved-user endpoints.
type CatalogHandler struct {
	Movies      MovieStore
	Collections CollectionStore
	Catalog     CatalogClient
	Publish     EventPublisher
}

// NewCatalogHandler constructs a CatalogHandler and panics on nil
// dependencies. Publish may be nil; mutations then skip event publishing.
func NewCatalogHandler(movies MovieStore, collections CollectionStore, catalog CatalogClient, publish EventPublisher) *CatalogHandler {
	if movies == nil || collections == nil || catalog == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Movies: movies, Collections: collections, Catalog: catalog, Publish: publish}
}

// publish sends a catalog-changed event and ignores failures: the write
// already committed and cache entries still expire on their TTL.
func (h *CatalogHandler) publish(c echo.Context, entity, action string, entityID, actorID uint64) {
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

// CDN size tokens used when rendering artwork URLs. Posters are shown as
// grid cards; backdrops as full-width detail headers.
const (
	posterSize   = "w500"
	backdropSize = "original"
)

// searchResultDTO is one search hit with the CDN URLs resolved, so
// clients render artwork without knowing the CDN pattern.
type searchResultDTO struct {
	tmdb.SearchResult
	PosterURL   string `json:"poster_url"`
	BackdropURL string `json:"backdrop_url"`
}

type searchResponseDTO struct {
	Page         int               `json:"page"`
	Results      []searchResultDTO `json:"results"`
	TotalPages   int               `json:"total_pages"`
	TotalResults int               `json:"total_results"`
}

type movieDetailsDTO struct {
	tmdb.MovieDetails
	PosterURL   string `json:"poster_url"`
	BackdropURL string `json:"backdrop_url"`
}

// SearchMovies handles GET /v1/search/movies?query=... and proxies the
// external catalog's search endpoint. The results are abbreviated records
// without runtime or genres; clients follow up with the details endpoint.
func (h *CatalogHandler) SearchMovies(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query is required"})
	}
	res, err := h.Catalog.Search(c.Request().Context(), query)
	if err != nil {
		return catalogErr(c, err)
	}
	out := searchResponseDTO{
		Page:         res.Page,
		Results:      make([]searchResultDTO, 0, len(res.Results)),
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
	}
	for _, r := range res.Results {
		out.Results = append(out.Results, searchResultDTO{
			SearchResult: r,
			PosterURL:    h.Catalog.ImageURL(r.PosterPath, posterSize),
			BackdropURL:  h.Catalog.ImageURL(r.BackdropPath, backdropSize),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// MovieDetails handles GET /v1/search/movies/:tmdb_id and returns the
// full external record including runtime and genres.
func (h *CatalogHandler) MovieDetails(c echo.Context) error {
	tmdbID, err := parseID(c, "tmdb_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tmdb id"})
	}
	res, err := h.Catalog.Details(c.Request().Context(), int64(tmdbID))
	if err != nil {
		return catalogErr(c, err)
	}
	return c.JSON(http.StatusOK, movieDetailsDTO{
		MovieDetails: *res,
		PosterURL:    h.Catalog.ImageURL(res.PosterPath, posterSize),
		BackdropURL:  h.Catalog.ImageURL(res.BackdropPath, backdropSize),
	})
}

// catalogErr maps external catalog failures onto HTTP statuses: a
// missing api key is a server misconfiguration, an upstream 404 means
// the movie id is unknown, anything else is a bad gateway.
func catalogErr(c echo.Context, err error) error {
	if errors.Is(err, tmdb.ErrNotConfigured) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "catalog api key not configured"})
	}
	var ue *tmdb.UpstreamError
	if errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found in catalog"})
	}
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog request failed"})
}

// ----- movies -----

type createMovieReq struct {
	TMDBID       int64    `json:"tmdb_id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	PosterPath   string   `json:"poster_path"`
	BackdropPath string   `json:"backdrop_path"`
	ReleaseDate  string   `json:"release_date"`
	Runtime      uint32   `json:"runtime"`
	VoteAverage  float64  `json:"vote_average"`
	Genres       []string `json:"genres"`
}

// CreateMovie handles POST /v1/movies. The fields come from a prior
// search + details lookup; tmdb_id and title are required. The duplicate
// check runs before the insert, with the unique key as backstop.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.TMDBID <= 0 || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tmdb_id and title are required"})
	}

	ctx := c.Request().Context()
	exists, err := h.Movies.ExistsByTMDBID(ctx, req.TMDBID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "movie already in catalog"})
	}

	m := &model.Movie{
		TMDBID:       req.TMDBID,
		Title:        req.Title,
		Overview:     req.Overview,
		PosterPath:   req.PosterPath,
		BackdropPath: req.BackdropPath,
		ReleaseDate:  req.ReleaseDate,
		Runtime:      req.Runtime,
		VoteAverage:  req.VoteAverage,
		Genres:       req.Genres,
	}
	if err := h.Movies.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrMovieExists) {
			// Lost the race against a concurrent add of the same movie.
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already in catalog"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create movie"})
	}
	h.publish(c, queue.EntityMovie, "created", m.ID, actorID)
	return c.JSON(http.StatusCreated, m)
}

type importMovieReq struct {
	TMDBID int64 `json:"tmdb_id"`
}

// ImportMovie handles POST /v1/movies/import: the two-step search flow
// collapsed server-side. It fetches the full external record for the
// given tmdb_id and persists it with the genre names flattened.
func (h *CatalogHandler) ImportMovie(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req importMovieReq
	if err := c.Bind(&req); err != nil || req.TMDBID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tmdb_id is required"})
	}

	ctx := c.Request().Context()
	exists, err := h.Movies.ExistsByTMDBID(ctx, req.TMDBID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "movie already in catalog"})
	}

	d, err := h.Catalog.Details(ctx, req.TMDBID)
	if err != nil {
		return catalogErr(c, err)
	}
	m := &model.Movie{
		TMDBID:       d.ID,
		Title:        d.Title,
		Overview:     d.Overview,
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
		ReleaseDate:  d.ReleaseDate,
		Runtime:      d.Runtime,
		VoteAverage:  d.VoteAverage,
		Genres:       d.GenreNames(),
	}
	if err := h.Movies.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrMovieExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already in catalog"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create movie"})
	}
	h.publish(c, queue.EntityMovie, "created", m.ID, actorID)
	return c.JSON(http.StatusCreated, m)
}

// ----- collections -----

type createCollectionReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image"`
}

// CreateCollection handles POST /v1/collections. The creator is the
// authenticated user.
func (h *CatalogHandler) CreateCollection(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createCollectionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	col := &model.Collection{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CoverImage:  strings.TrimSpace(req.CoverImage),
		UserID:      userID,
	}
	if err := h.Collections.Create(c.Request().Context(), col); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create collection"})
	}
	h.publish(c, queue.EntityCollection, "created", col.ID, userID)
	return c.JSON(http.StatusCreated, col)
}

// DeleteCollection handles DELETE /v1/collections/:id. Membership rows
// are cascaded by the repository.
func (h *CatalogHandler) DeleteCollection(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Collections.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete collection"})
	}
	h.publish(c, queue.EntityCollection, "deleted", id, actorID)
	return c.NoContent(http.StatusNoContent)
}

type addMovieReq struct {
	MovieID uint64 `json:"movie_id"`
}

// AddCollectionMovie handles POST /v1/collections/:id/movies. Both sides
// of the pair are verified first so a bad id answers 404 instead of a
// foreign key error.
func (h *CatalogHandler) AddCollectionMovie(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	collectionID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req addMovieReq
	if err := c.Bind(&req); err != nil || req.MovieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Collections.GetByID(ctx, collectionID); err != nil {
		if errors.Is(err, repository.ErrCollectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "collection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Collections.AddMovie(ctx, collectionID, req.MovieID); err != nil {
		if errors.Is(err, repository.ErrMembershipExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already in this collection"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add movie to collection"})
	}
	h.publish(c, queue.EntityMembership, "created", collectionID, actorID)
	return c.JSON(http.StatusCreated, model.CollectionMovie{CollectionID: collectionID, MovieID: req.MovieID})
}

// RemoveCollectionMovie handles DELETE /v1/collections/:id/movies/:movie_id.
// Removing a pair that is not there is a no-op 204.
func (h *CatalogHandler) RemoveCollectionMovie(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	collectionID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	movieID, err := parseID(c, "movie_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	if err := h.Collections.RemoveMovie(c.Request().Context(), collectionID, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not remove movie from collection"})
	}
	h.publish(c, queue.EntityMembership, "deleted", collectionID, actorID)
	return c.NoContent(http.StatusNoContent)
}
