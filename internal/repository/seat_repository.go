package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/theater-tickets/internal/model"
)

// SeatRepo provides methods to work with seats in the database.  A seat
// is free while user_id is NULL; holding and releasing seats only ever
// happens through the conditional updates in ClaimTx and ReleaseTx.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatColumns = `id, screen_id, row_label, col_number, user_id`

// CreateBulkTx inserts multiple seats in a single statement.  Seats
// without an ID get a fresh uuid.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (id, screen_id, row_label, col_number) VALUES `)
	args := make([]interface{}, 0, len(seats)*4)
	for i := range seats {
		if seats[i].ID == "" {
			seats[i].ID = uuid.NewString()
		}
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?)")
		args = append(args, seats[i].ID, seats[i].ScreenID, seats[i].Row, seats[i].Column)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// ListByScreen retrieves all seats of a screen ordered by row then column.
func (r *SeatRepo) ListByScreen(ctx context.Context, screenID string) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + `
	           FROM seats
	           WHERE screen_id = ?
	           ORDER BY CHAR_LENGTH(row_label), row_label, col_number`
	rows, err := r.db.QueryContext(ctx, q, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeats(rows)
}

// ClaimTx sets the holder of every listed seat to userID, but only for
// seats of screenID that are still free.  The statement is a single
// conditional UPDATE so two buyers racing for a seat cannot both win.  If
// fewer rows change than ids were given, ErrSeatsUnavailable is returned
// and the caller must roll back.
func (r *SeatRepo) ClaimTx(ctx context.Context, tx *sql.Tx, screenID, userID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seats SET user_id = ?
	      WHERE screen_id = ? AND user_id IS NULL AND id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, userID, screenID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(seatIDs)) {
		return ErrSeatsUnavailable
	}
	return nil
}

// ReleaseTx frees the listed seats that are held by userID.  Seats held by
// anyone else are left untouched.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, userID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seats SET user_id = NULL
	      WHERE user_id = ? AND id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, userID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// RefreshFullTx recomputes screens.is_full from the seats table.
func (r *SeatRepo) RefreshFullTx(ctx context.Context, tx *sql.Tx, screenID string) error {
	const q = `UPDATE screens
	           SET is_full = NOT EXISTS (SELECT 1 FROM seats WHERE screen_id = ? AND user_id IS NULL)
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, screenID, screenID)
	return err
}

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	out := []model.Seat{}
	for rows.Next() {
		var s model.Seat
		var holder sql.NullString
		if err := rows.Scan(&s.ID, &s.ScreenID, &s.Row, &s.Column, &holder); err != nil {
			return nil, err
		}
		if holder.Valid {
			h := holder.String
			s.UserID = &h
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
