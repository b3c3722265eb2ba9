package model

import "time"

// Screen is one scheduled showing of a movie in a room at a date and
// showtime.  Screens own the seats buyers can hold.
//
// Fields:
//  ID       – primary key identifier (uuid).
//  MovieID  – movie being shown.
//  RoomID   – room where the showing takes place.
//  Date     – calendar day of the showing (time part is zero, UTC).
//  Showtime – display label of the start time, e.g. "6:30pm".
//  IsFull   – true when every seat of the screen is held.
//  Room     – joined room, populated by listing queries.
type Screen struct {
	ID       string    `json:"id"`             // screens.id
	MovieID  string    `json:"movie_id"`       // screens.movie_id
	RoomID   string    `json:"room_id"`        // screens.room_id
	Date     time.Time `json:"date"`           // screens.date
	Showtime string    `json:"showtime"`       // screens.showtime
	IsFull   bool      `json:"is_full"`        // screens.is_full
	Room     *Room     `json:"room,omitempty"` // joined rooms row
}
