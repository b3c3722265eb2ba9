package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/theater-tickets/internal/model"
	"github.com/iliyamo/theater-tickets/internal/seating"
)

// ScreenRepo reads and creates screens (one showing of a movie in a room
// on a date at a showtime).  Reads join the room so responses can show
// its name.
type ScreenRepo struct {
	db    *sql.DB
	seats *SeatRepo
}

// NewScreenRepo returns a ScreenRepo; seats is used to generate the seat
// grid of new screens.
func NewScreenRepo(db *sql.DB, seats *SeatRepo) *ScreenRepo {
	return &ScreenRepo{db: db, seats: seats}
}

// DB exposes the underlying handle for callers composing transactions.
func (r *ScreenRepo) DB() *sql.DB { return r.db }

const screenSelect = `SELECT sc.id, sc.movie_id, sc.room_id, sc.date, sc.showtime, sc.is_full, r.name
	FROM screens sc
	JOIN rooms r ON r.id = sc.room_id`

// Create inserts a screen together with its seats (seating.Rows rows by
// seating.Columns columns) in one transaction.
func (r *ScreenRepo) Create(ctx context.Context, s *model.Screen) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO screens (id, movie_id, room_id, date, showtime, is_full) VALUES (?, ?, ?, ?, ?, 0)`
	if _, err := tx.ExecContext(ctx, q, s.ID, s.MovieID, s.RoomID, s.Date.Format("2006-01-02"), s.Showtime); err != nil {
		return translate(err)
	}
	if err := r.seats.CreateBulkTx(ctx, tx, seating.Grid(s.ID, seating.Rows, seating.Columns)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	s.IsFull = false
	return nil
}

// GetByID returns the screen with its room, or ErrScreenNotFound.
func (r *ScreenRepo) GetByID(ctx context.Context, id string) (*model.Screen, error) {
	row := r.db.QueryRowContext(ctx, screenSelect+` WHERE sc.id = ?`, id)
	s, err := scanScreen(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListAll returns every screen ordered by date and showtime.
func (r *ScreenRepo) ListAll(ctx context.Context) ([]model.Screen, error) {
	return r.list(ctx, screenSelect+` ORDER BY sc.date, sc.showtime, r.name`)
}

// ListByMovie returns the screens of one movie.
func (r *ScreenRepo) ListByMovie(ctx context.Context, movieID string) ([]model.Screen, error) {
	return r.list(ctx, screenSelect+` WHERE sc.movie_id = ? ORDER BY sc.date, sc.showtime, r.name`, movieID)
}

func (r *ScreenRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Screen, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Screen{}
	for rows.Next() {
		s, err := scanScreen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanScreen(sc scanner) (*model.Screen, error) {
	var s model.Screen
	var roomName string
	if err := sc.Scan(&s.ID, &s.MovieID, &s.RoomID, &s.Date, &s.Showtime, &s.IsFull, &roomName); err != nil {
		return nil, err
	}
	s.Room = &model.Room{ID: s.RoomID, Name: roomName}
	return &s, nil
}
