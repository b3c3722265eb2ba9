package model

// Room is a screening room of the theater.  Rooms are identified by a
// unique label such as "room_1" and own zero or more screens.
//
// Fields:
//  ID   – primary key identifier (uuid).
//  Name – unique room label.
type Room struct {
	ID   string `json:"id"`   // rooms.id
	Name string `json:"name"` // rooms.name
}
