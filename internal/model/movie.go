package model

import "time"

// Movie is a row in the `movies` table. Records originate from the external
// catalog: a search-and-add flow copies title, artwork paths, runtime and
// genre names into the local table. TMDBID is unique per catalog and acts
// as the idempotency key against duplicate adds.
//
// Overview, poster/backdrop paths and ReleaseDate may be empty when the
// external record lacked them. Genres is stored as a JSON array of names in
// the database and (un)marshalled by the repository.
type Movie struct {
	ID           uint64    `json:"id"`            // movies.id
	TMDBID       int64     `json:"tmdb_id"`       // movies.tmdb_id
	Title        string    `json:"title"`         // movies.title
	Overview     string    `json:"overview"`      // movies.overview
	PosterPath   string    `json:"poster_path"`   // movies.poster_path
	BackdropPath string    `json:"backdrop_path"` // movies.backdrop_path
	ReleaseDate  string    `json:"release_date"`  // movies.release_date (YYYY-MM-DD)
	Runtime      uint32    `json:"runtime"`       // movies.runtime in minutes
	VoteAverage  float64   `json:"vote_average"`  // movies.vote_average
	Genres       []string  `json:"genres"`        // movies.genres (JSON column)
	CreatedAt    time.Time `json:"created_at"`    // movies.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // movies.updated_at
}
