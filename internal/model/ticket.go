package model

import "time"

// TicketStatus is the lifecycle state of a ticket.  Cancelled tickets are
// deleted, so only PENDING and VERIFIED are ever observed on a row.
type TicketStatus string

const (
	TicketPending  TicketStatus = "PENDING"
	TicketVerified TicketStatus = "VERIFIED"
)

// Ticket records a buyer's purchase of one or more seats of a screen.
// The movie, room, date and showtime are copied from the screen when the
// ticket is created.
//
// Fields:
//  ID               – primary key identifier (uuid).
//  UserID           – buyer identity from the identity provider.
//  ScreenID         – screen the seats belong to.
//  MovieID          – copied from the screen.
//  RoomID           – copied from the screen.
//  Date             – copied from the screen.
//  Showtime         – copied from the screen.
//  Bundle           – optional concession tier.
//  Verified         – true once the payment was confirmed.
//  PaymentSessionID – hosted checkout session (nil until opened).
//  CreatedAt        – creation timestamp.
//  Movie, Room      – joined rows, populated by detail queries.
//  Seats            – seats linked through ticket_seats.
type Ticket struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	ScreenID         string    `json:"screen_id"`
	MovieID          string    `json:"movie_id"`
	RoomID           string    `json:"room_id"`
	Date             time.Time `json:"date"`
	Showtime         string    `json:"showtime"`
	Bundle           Bundle    `json:"bundle,omitempty"`
	Verified         bool      `json:"verified"`
	PaymentSessionID *string   `json:"payment_session_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Movie            *Movie    `json:"movie,omitempty"`
	Room             *Room     `json:"room,omitempty"`
	Seats            []Seat    `json:"seats"`
}

// Status derives the lifecycle state from the verified flag.
func (t Ticket) Status() TicketStatus {
	if t.Verified {
		return TicketVerified
	}
	return TicketPending
}

// SeatIDs returns the ids of the linked seats in link order.
func (t Ticket) SeatIDs() []string {
	ids := make([]string, 0, len(t.Seats))
	for _, s := range t.Seats {
		ids = append(ids, s.ID)
	}
	return ids
}
