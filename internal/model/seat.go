package model

import "strconv"

// Seat is a physical seat of a screen.  A seat is identified by its row
// letter and column number and is available iff UserID is nil.
//
// Fields:
//  ID       – primary key identifier (uuid).
//  ScreenID – screen the seat belongs to.
//  Row      – row letter, e.g. "B".
//  Column   – 1-based column number.
//  UserID   – identity of the buyer holding the seat (nil when free).
type Seat struct {
	ID       string  `json:"id"`                // seats.id
	ScreenID string  `json:"screen_id"`         // seats.screen_id
	Row      string  `json:"row"`               // seats.row_label
	Column   int     `json:"column"`            // seats.col_number
	UserID   *string `json:"user_id,omitempty"` // seats.user_id (nullable)
}

// Available reports whether nobody holds the seat.
func (s Seat) Available() bool { return s.UserID == nil }

// Label is the printed seat name, row letter followed by column ("B6").
func (s Seat) Label() string { return s.Row + strconv.Itoa(s.Column) }
