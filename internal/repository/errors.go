// Package repository contains data access logic separated from HTTP
// handlers. This file defines sentinel error values shared across the
// repositories so handlers can translate failure scenarios into HTTP
// statuses: not-found lookups become 404, uniqueness violations become
// 409, and everything else surfaces as a 500.
package repository

import "errors"

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrMovieNotFound is returned when a movie lookup by id matches no row.
var ErrMovieNotFound = errors.New("movie not found")

// ErrMovieExists is returned when adding a movie whose tmdb_id is already
// in the catalog. The tmdb_id acts as the idempotency key against the
// external database.
var ErrMovieExists = errors.New("movie already exists")

// ErrCollectionNotFound is returned when a collection lookup by id
// matches no row.
var ErrCollectionNotFound = errors.New("collection not found")

// ErrMembershipExists is returned when adding a movie to a collection it
// already belongs to. The (collection_id, movie_id) pair is unique.
var ErrMembershipExists = errors.New("movie already in collection")

// ErrRoleExists is returned when approving a user who already holds a
// role. The user_roles table is unique per user: one role row at most.
var ErrRoleExists = errors.New("user already has a role")
