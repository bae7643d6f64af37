// This file defines the MovieRepo. Movies are flat records copied from the
// external catalog; tmdb_id carries a unique key so the same external
// movie cannot be added twice. Genres are stored as a JSON array of names
// in a single column and (un)marshalled here.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/darovskikh/reelkeep/internal/model"
)

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "id, tmdb_id, title, overview, poster_path, backdrop_path, release_date, runtime, vote_average, genres, created_at, updated_at"

// scanMovie reads one movie row, decoding the genres JSON column.
func scanMovie(scan func(dest ...any) error) (model.Movie, error) {
	var (
		m      model.Movie
		genres sql.NullString
	)
	if err := scan(&m.ID, &m.TMDBID, &m.Title, &m.Overview, &m.PosterPath,
		&m.BackdropPath, &m.ReleaseDate, &m.Runtime, &m.VoteAverage,
		&genres, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return model.Movie{}, err
	}
	if genres.Valid && genres.String != "" {
		if err := json.Unmarshal([]byte(genres.String), &m.Genres); err != nil {
			return model.Movie{}, err
		}
	}
	return m, nil
}

// List returns all movies, newest created first.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a movie by id. Returns ErrMovieNotFound when absent.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE id=?"
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ExistsByTMDBID reports whether a movie with the given external id is
// already in the catalog. The workflow checks this before allowing an add.
func (r *MovieRepo) ExistsByTMDBID(ctx context.Context, tmdbID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM movies WHERE tmdb_id=? LIMIT 1", tmdbID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a movie. On success the ID, CreatedAt and UpdatedAt
// fields are populated. The unique key on tmdb_id is the backstop behind
// the application-level duplicate check; a violation maps to
// ErrMovieExists.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	genres, err := json.Marshal(m.Genres)
	if err != nil {
		return err
	}
	const qInsert = `INSERT INTO movies
		(tmdb_id, title, overview, poster_path, backdrop_path, release_date, runtime, vote_average, genres)
		VALUES (?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		m.TMDBID, m.Title, m.Overview, m.PosterPath, m.BackdropPath,
		m.ReleaseDate, m.Runtime, m.VoteAverage, string(genres))
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrMovieExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	// Follow-up SELECT to populate default timestamp fields.
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM movies WHERE id=?", m.ID).
		Scan(&m.CreatedAt, &m.UpdatedAt)
}

// Delete removes a movie and cascades its collection memberships within a
// transaction. Returns ErrMovieNotFound when the movie does not exist; the
// rollback then also undoes the join-row delete. Commit errors surface to
// the caller so a failed delete is never reported as success.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }() // no-op after a successful commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM collection_movies WHERE movie_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return tx.Commit()
}
