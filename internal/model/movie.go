package model

import "time"

// Movie is a film that can be scheduled on screens.  The service stores
// only the external catalog identifier; title, poster and the rest of
// the metadata are fetched from the catalog on demand.  This struct
// corresponds to a row in the `movies` table.
//
// Fields:
//  ID        – primary key identifier (uuid).
//  ImdbID    – identifier of the movie in the external catalog.
//  CreatedAt – timestamp when the movie was added.
type Movie struct {
	ID        string    `json:"id"`         // movies.id
	ImdbID    string    `json:"imdb_id"`    // movies.imdb_id
	CreatedAt time.Time `json:"created_at"` // movies.created_at
}
