package model

import "time"

// PendingHold describes a PENDING ticket that keeps its seats held.
// The sweeper lists holds older than the configured TTL and releases
// them.
//
// Fields:
//  TicketID  – the pending ticket.
//  UserID    – buyer holding the seats.
//  CreatedAt – when the hold was taken.
type PendingHold struct {
	TicketID  string
	UserID    string
	CreatedAt time.Time
}
