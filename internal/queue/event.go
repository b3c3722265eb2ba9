// Package queue defines the ticket events exchanged over RabbitMQ and the
// consumer that writes them to the audit log.
package queue

const (
	TicketVerifiedQueue  = "ticket.verified"
	TicketCancelledQueue = "ticket.cancelled"
)

// Cancellation reasons.
const (
	ReasonBuyer   = "buyer"
	ReasonExpired = "expired"
)

// TicketVerifiedEvent is published once a ticket's payment is confirmed.
// It carries enough for downstream consumers to log or notify without
// querying the primary database.
type TicketVerifiedEvent struct {
	TicketID   string   `json:"ticket_id"`
	UserID     string   `json:"user_id"`
	ScreenID   string   `json:"screen_id"`
	ImdbID     string   `json:"imdb_id"`
	RoomName   string   `json:"room_name"`
	Date       string   `json:"date"`
	Showtime   string   `json:"showtime"`
	Bundle     string   `json:"bundle,omitempty"`
	SeatLabels []string `json:"seats"`
	TotalCents int64    `json:"total_cents"`
	VerifiedAt string   `json:"verified_at"`
}

// TicketCancelledEvent is published when a pending ticket is released,
// either by the buyer or by the pending-ticket sweeper.
type TicketCancelledEvent struct {
	TicketID    string `json:"ticket_id"`
	UserID      string `json:"user_id"`
	Reason      string `json:"reason"`
	CancelledAt string `json:"cancelled_at"`
}
