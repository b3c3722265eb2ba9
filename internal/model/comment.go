package model

import "time"

// Comment is a short review left by a signed-in user.
type Comment struct {
	ID        string    `json:"id"`         // comments.id
	UserID    string    `json:"user_id"`    // comments.user_id
	Username  string    `json:"username"`   // comments.username
	Content   string    `json:"content"`    // comments.content
	Rating    int       `json:"rating"`     // comments.rating (1-5)
	CreatedAt time.Time `json:"created_at"` // comments.created_at
}
