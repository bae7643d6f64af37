// Package tmdb is a thin client for the external movie catalog. It covers
// the two calls the catalog workflow needs: search (abbreviated records)
// and details (full record with runtime and genres). The search endpoint
// does not return runtime or genres, which is why adding a movie is a
// two-step flow.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotConfigured is returned when no api key is set. Handlers translate
// this into a 500 "not configured" response instead of calling out.
var ErrNotConfigured = errors.New("tmdb: api key not configured")

// UpstreamError reports a non-2xx answer from the catalog. The status
// code is kept so handlers can distinguish a missing movie (404) from a
// catalog outage.
type UpstreamError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tmdb: upstream error: %s", e.Status)
}

// SearchResult is one abbreviated record from the search endpoint.
type SearchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int64 `json:"genre_ids"`
}

// SearchResponse mirrors the catalog's search payload.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Genre is a catalog genre reference as returned by the details endpoint.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full record for a single movie.
type MovieDetails struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	Runtime      uint32  `json:"runtime"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []Genre `json:"genres"`
}

// GenreNames flattens the genre references into the list of names the
// movie table stores.
func (d MovieDetails) GenreNames() []string {
	out := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		out = append(out, g.Name)
	}
	return out
}

// Client calls the external catalog API. BaseURL is injectable so tests
// can point it at an httptest server.
type Client struct {
	apiKey    string
	baseURL   string
	imageBase string
	http      *http.Client
}

// NewClient constructs a Client. An empty apiKey is allowed; calls will
// fail with ErrNotConfigured.
func NewClient(apiKey, baseURL, imageBase string) *Client {
	return &Client{
		apiKey:    apiKey,
		baseURL:   baseURL,
		imageBase: imageBase,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Search queries the catalog for movies matching query. Adult titles are
// always excluded.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	u := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s&include_adult=false",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(query))
	var out SearchResponse
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Details fetches the full record for one movie by its catalog id.
func (c *Client) Details(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	u := fmt.Sprintf("%s/movie/%d?api_key=%s", c.baseURL, movieID, url.QueryEscape(c.apiKey))
	var out MovieDetails
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &UpstreamError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// ImageURL builds a CDN URL for a poster or backdrop path with the given
// size token (w92, w300, w500, original). An empty path yields "" so the
// caller can fall back to a placeholder.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.imageBase, size, path)
}
