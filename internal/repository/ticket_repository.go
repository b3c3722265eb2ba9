package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/theater-tickets/internal/model"
)

// TicketRepo stores tickets and their seat links.  Every state change that
// touches seats runs in one transaction together with the seat update so
// a ticket and its seat holds are never observed out of sync.
type TicketRepo struct {
	db    *sql.DB
	seats *SeatRepo
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB, seats *SeatRepo) *TicketRepo {
	return &TicketRepo{db: db, seats: seats}
}

// Reserve holds seatIDs for t.UserID and inserts t as a PENDING ticket
// linked to those seats.  The seat claim is a conditional update (see
// SeatRepo.ClaimTx); if any seat is already held the whole transaction is
// rolled back and ErrSeatsUnavailable is returned.  On success t.ID and
// t.CreatedAt are populated.
func (r *TicketRepo) Reserve(ctx context.Context, t *model.Ticket, seatIDs []string) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.Verified = false

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

	if err := r.seats.ClaimTx(ctx, tx, t.ScreenID, t.UserID, seatIDs); err != nil {
		return err
	}

	const qTicket = `INSERT INTO tickets (id, user_id, screen_id, movie_id, room_id, date, showtime, bundle, verified, created_at)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
	if _, err := tx.ExecContext(ctx, qTicket,
		t.ID, t.UserID, t.ScreenID, t.MovieID, t.RoomID,
		t.Date.Format("2006-01-02"), t.Showtime, nullBundle(t.Bundle), t.CreatedAt,
	); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO ticket_seats (ticket_id, seat_id) VALUES `)
	args := make([]interface{}, 0, len(seatIDs)*2)
	for i, sid := range seatIDs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?)")
		args = append(args, t.ID, sid)
	}
	if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
		return err
	}

	if err := r.seats.RefreshFullTx(ctx, tx, t.ScreenID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AttachSession records the payment session opened for a ticket.
func (r *TicketRepo) AttachSession(ctx context.Context, ticketID, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tickets SET payment_session_id = ? WHERE id = ?`, sessionID, ticketID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// MarkVerified flips a pending ticket to verified.  It reports false when
// the ticket was already verified or no longer exists; callers reload the
// ticket to tell the two apart.
func (r *TicketRepo) MarkVerified(ctx context.Context, ticketID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE tickets SET verified = 1 WHERE id = ? AND verified = 0`, ticketID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release cancels a pending ticket: its seats are freed, its links and the
// ticket row are deleted and the screen's is_full flag is recomputed, all
// in one transaction.  A verified ticket is left alone (ErrTicketVerified).
func (r *TicketRepo) Release(ctx context.Context, ticketID string) error {
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

	// Lock the ticket row so a concurrent confirmation waits for us.
	var userID, screenID string
	var verified bool
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, screen_id, verified FROM tickets WHERE id = ? FOR UPDATE`, ticketID,
	).Scan(&userID, &screenID, &verified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTicketNotFound
		}
		return err
	}
	if verified {
		return ErrTicketVerified
	}

	rows, err := tx.QueryContext(ctx, `SELECT seat_id FROM ticket_seats WHERE ticket_id = ?`, ticketID)
	if err != nil {
		return err
	}
	var seatIDs []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			rows.Close()
			return err
		}
		seatIDs = append(seatIDs, sid)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	if err := r.seats.ReleaseTx(ctx, tx, userID, seatIDs); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ticket_seats WHERE ticket_id = ?`, ticketID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, ticketID); err != nil {
		return err
	}
	if err := r.seats.RefreshFullTx(ctx, tx, screenID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const ticketSelect = `SELECT t.id, t.user_id, t.screen_id, t.movie_id, t.room_id, t.date, t.showtime,
	       t.bundle, t.verified, t.payment_session_id, t.created_at,
	       m.imdb_id, m.created_at, r.name
	FROM tickets t
	JOIN movies m ON m.id = t.movie_id
	JOIN rooms r ON r.id = t.room_id`

// GetByID loads a ticket with its movie, room and seats.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, ticketSelect+` WHERE t.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	tickets := []model.Ticket{*t}
	if err := r.loadSeats(ctx, tickets); err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

// ListByUser returns the tickets of one buyer, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, ticketSelect+` WHERE t.user_id = ? ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadSeats(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStalePending returns pending tickets created before the cutoff,
// oldest first.
func (r *TicketRepo) ListStalePending(ctx context.Context, before time.Time) ([]model.PendingHold, error) {
	const q = `SELECT id, user_id, created_at FROM tickets
	           WHERE verified = 0 AND created_at < ?
	           ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, before.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PendingHold
	for rows.Next() {
		var h model.PendingHold
		if err := rows.Scan(&h.TicketID, &h.UserID, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// loadSeats fills the Seats of every ticket with a single query.
func (r *TicketRepo) loadSeats(ctx context.Context, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	index := make(map[string]int, len(tickets))
	ids := make([]interface{}, 0, len(tickets))
	for i := range tickets {
		tickets[i].Seats = []model.Seat{}
		index[tickets[i].ID] = i
		ids = append(ids, tickets[i].ID)
	}
	q := `SELECT ts.ticket_id, s.id, s.screen_id, s.row_label, s.col_number, s.user_id
	      FROM ticket_seats ts
	      JOIN seats s ON s.id = ts.seat_id
	      WHERE ts.ticket_id IN (` + placeholders(len(ids)) + `)
	      ORDER BY ts.ticket_id, CHAR_LENGTH(s.row_label), s.row_label, s.col_number`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ticketID string
		var s model.Seat
		var holder sql.NullString
		if err := rows.Scan(&ticketID, &s.ID, &s.ScreenID, &s.Row, &s.Column, &holder); err != nil {
			return err
		}
		if holder.Valid {
			h := holder.String
			s.UserID = &h
		}
		if i, ok := index[ticketID]; ok {
			tickets[i].Seats = append(tickets[i].Seats, s)
		}
	}
	return rows.Err()
}

func scanTicket(sc scanner) (*model.Ticket, error) {
	var t model.Ticket
	var bundle, session sql.NullString
	var movie model.Movie
	var room model.Room
	if err := sc.Scan(
		&t.ID, &t.UserID, &t.ScreenID, &t.MovieID, &t.RoomID, &t.Date, &t.Showtime,
		&bundle, &t.Verified, &session, &t.CreatedAt,
		&movie.ImdbID, &movie.CreatedAt, &room.Name,
	); err != nil {
		return nil, err
	}
	if bundle.Valid {
		t.Bundle = model.Bundle(bundle.String)
	}
	if session.Valid {
		s := session.String
		t.PaymentSessionID = &s
	}
	movie.ID = t.MovieID
	room.ID = t.RoomID
	t.Movie = &movie
	t.Room = &room
	return &t, nil
}

func nullBundle(b model.Bundle) sql.NullString {
	return sql.NullString{String: string(b), Valid: b != model.BundleNone}
}
