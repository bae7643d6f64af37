package model

import "time"

// Collection is a named, user-curated grouping of movies; a row in the
// `collections` table. UserID records the creator.
type Collection struct {
	ID          uint64    `json:"id"`          // collections.id
	Name        string    `json:"name"`        // collections.name
	Description string    `json:"description"` // collections.description
	CoverImage  string    `json:"cover_image"` // collections.cover_image
	UserID      uint64    `json:"user_id"`     // collections.user_id (creator)
	CreatedAt   time.Time `json:"created_at"`  // collections.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // collections.updated_at
}

// CollectionMovie is a membership row in the `collection_movies` join
// table. The pair is unique: a movie appears at most once per collection.
type CollectionMovie struct {
	CollectionID uint64 `json:"collection_id"` // collection_movies.collection_id
	MovieID      uint64 `json:"movie_id"`      // collection_movies.movie_id
}

// CollectionWithMovies is a collection together with its member movies,
// produced by the repository's in-memory join.
type CollectionWithMovies struct {
	Collection
	Movies []Movie `json:"movies"`
}
