package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/theater-tickets/internal/model"
)

// MovieRepo encapsulates all database queries related to movies.  A
// movie row only records the external catalog id; titles, posters and
// the rest come from the catalog at read time.
type MovieRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// Create inserts a new movie.  A fresh uuid is assigned when m.ID is
// empty.  A second movie with the same imdb id yields ErrConflict.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	const qInsert = "INSERT INTO movies (id, imdb_id) VALUES (?, ?)"
	if _, err := r.db.ExecContext(ctx, qInsert, m.ID, m.ImdbID); err != nil {
		return translate(err)
	}

	// Read back created_at set by the database default.
	const qSelect = "SELECT created_at FROM movies WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, m.ID).Scan(&m.CreatedAt)
}

// GetByID fetches a movie by its internal id.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	return r.getOne(ctx, "SELECT id, imdb_id, created_at FROM movies WHERE id = ?", id)
}

// GetByImdbID fetches a movie by its external catalog id.
func (r *MovieRepo) GetByImdbID(ctx context.Context, imdbID string) (*model.Movie, error) {
	return r.getOne(ctx, "SELECT id, imdb_id, created_at FROM movies WHERE imdb_id = ?", imdbID)
}

func (r *MovieRepo) getOne(ctx context.Context, q string, arg any) (*model.Movie, error) {
	var m model.Movie
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&m.ID, &m.ImdbID, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListAll returns every movie, newest first.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	const q = `SELECT id, imdb_id, created_at FROM movies ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.ImdbID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
