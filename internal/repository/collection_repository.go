// This file defines the CollectionRepo: CRUD over collections plus the
// collection_movies membership join. The with-movies reads run three
// fetches (collections, membership pairs, movies) and merge in memory
// through an index keyed by collection id rather than repeated scans.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/darovskikh/reelkeep/internal/model"
)

// CollectionRepo encapsulates all database queries related to collections
// and their movie memberships.
type CollectionRepo struct {
	db *sql.DB
}

// NewCollectionRepo constructs a CollectionRepo with the provided DB handle.
func NewCollectionRepo(db *sql.DB) *CollectionRepo {
	return &CollectionRepo{db: db}
}

const collectionColumns = "id, name, description, cover_image, user_id, created_at, updated_at"

func scanCollection(scan func(dest ...any) error) (model.Collection, error) {
	var (
		c           model.Collection
		description sql.NullString
		coverImage  sql.NullString
	)
	if err := scan(&c.ID, &c.Name, &description, &coverImage, &c.UserID,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return model.Collection{}, err
	}
	c.Description = description.String
	c.CoverImage = coverImage.String
	return c, nil
}

// List returns all collections, newest created first.
func (r *CollectionRepo) List(ctx context.Context) ([]model.Collection, error) {
	const q = "SELECT " + collectionColumns + " FROM collections ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Collection
	for rows.Next() {
		c, err := scanCollection(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a collection by id. Returns ErrCollectionNotFound when
// absent.
func (r *CollectionRepo) GetByID(ctx context.Context, id uint64) (*model.Collection, error) {
	const q = "SELECT " + collectionColumns + " FROM collections WHERE id=?"
	c, err := scanCollection(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &c, nil
}

// listPairs returns membership rows, optionally filtered by collection id
// (0 means all).
func (r *CollectionRepo) listPairs(ctx context.Context, collectionID uint64) ([]model.CollectionMovie, error) {
	q := "SELECT collection_id, movie_id FROM collection_movies"
	var args []any
	if collectionID != 0 {
		q += " WHERE collection_id=?"
		args = append(args, collectionID)
	}
	q += " ORDER BY collection_id, movie_id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CollectionMovie
	for rows.Next() {
		var cm model.CollectionMovie
		if err := rows.Scan(&cm.CollectionID, &cm.MovieID); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListWithMovies returns every collection together with its member movies,
// newest collection first. The three result sets are independent, so the
// queries run concurrently and join on completion; any failure cancels the
// rest and the whole read fails. The merge indexes the join table by
// collection id.
func (r *CollectionRepo) ListWithMovies(ctx context.Context) ([]model.CollectionWithMovies, error) {
	var (
		collections []model.Collection
		pairs       []model.CollectionMovie
		movies      []model.Movie
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		collections, err = r.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		pairs, err = r.listPairs(gctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		movies, err = r.listAllMovies(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergeCollectionsWithMovies(collections, pairs, movies), nil
}

// GetWithMovies returns one collection with its movies, or
// ErrCollectionNotFound.
func (r *CollectionRepo) GetWithMovies(ctx context.Context, id uint64) (*model.CollectionWithMovies, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pairs, err := r.listPairs(ctx, id)
	if err != nil {
		return nil, err
	}
	out := model.CollectionWithMovies{Collection: *c, Movies: []model.Movie{}}
	if len(pairs) > 0 {
		ids := make([]any, 0, len(pairs))
		for _, p := range pairs {
			ids = append(ids, p.MovieID)
		}
		q := "SELECT " + movieColumns + " FROM movies WHERE id IN (?" +
			strings.Repeat(",?", len(ids)-1) + ")"
		rows, err := r.db.QueryContext(ctx, q, ids...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanMovie(rows.Scan)
			if err != nil {
				return nil, err
			}
			out.Movies = append(out.Movies, m)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func (r *CollectionRepo) listAllMovies(ctx context.Context) ([]model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies"
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

// mergeCollectionsWithMovies joins the three result sets in memory. The
// movie set is indexed by id and the pairs are grouped by collection id
// first, so the merge is linear in the input sizes. Collection order is
// preserved; movie order follows the pair order.
func mergeCollectionsWithMovies(collections []model.Collection, pairs []model.CollectionMovie, movies []model.Movie) []model.CollectionWithMovies {
	byID := make(map[uint64]model.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	byCollection := make(map[uint64][]uint64, len(collections))
	for _, p := range pairs {
		byCollection[p.CollectionID] = append(byCollection[p.CollectionID], p.MovieID)
	}
	out := make([]model.CollectionWithMovies, 0, len(collections))
	for _, c := range collections {
		cwm := model.CollectionWithMovies{Collection: c, Movies: []model.Movie{}}
		for _, id := range byCollection[c.ID] {
			if m, ok := byID[id]; ok {
				cwm.Movies = append(cwm.Movies, m)
			}
		}
		out = append(out, cwm)
	}
	return out
}

// Create inserts a collection. On success the ID, CreatedAt and UpdatedAt
// fields are populated.
func (r *CollectionRepo) Create(ctx context.Context, c *model.Collection) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO collections (name, description, cover_image, user_id) VALUES (?,?,?,?)",
		c.Name, c.Description, c.CoverImage, c.UserID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	// Follow-up SELECT to populate default timestamp fields.
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM collections WHERE id=?", c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// Delete removes a collection and cascades its membership rows within a
// transaction. Returns ErrCollectionNotFound when the collection does not
// exist; the rollback then also undoes the join-row delete. Commit errors
// surface to the caller so a failed delete is never reported as success.
func (r *CollectionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }() // no-op after a successful commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM collection_movies WHERE collection_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCollectionNotFound
	}
	return tx.Commit()
}

// AddMovie inserts a membership row. The unique (collection_id, movie_id)
// pair maps a duplicate insert to ErrMembershipExists.
func (r *CollectionRepo) AddMovie(ctx context.Context, collectionID, movieID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO collection_movies (collection_id, movie_id) VALUES (?,?)",
		collectionID, movieID)
	if err != nil && strings.Contains(err.Error(), "1062") {
		return ErrMembershipExists
	}
	return err
}

// RemoveMovie deletes a membership row. Removing a pair that does not
// exist is a no-op.
func (r *CollectionRepo) RemoveMovie(ctx context.Context, collectionID, movieID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM collection_movies WHERE collection_id=? AND movie_id=?",
		collectionID, movieID)
	return err
}
