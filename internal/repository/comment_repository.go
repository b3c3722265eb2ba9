package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/theater-tickets/internal/model"
)

// CommentRepo stores the public guest book.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

// ListAll returns comments newest first.
func (r *CommentRepo) ListAll(ctx context.Context) ([]model.Comment, error) {
	const q = `SELECT id, user_id, username, content, rating, created_at
	           FROM comments ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.Username, &c.Content, &c.Rating, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts c and fills in its ID and CreatedAt.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO comments (id, user_id, username, content, rating, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.UserID, c.Username, c.Content, c.Rating, c.CreatedAt)
	return err
}

// DeleteByIDAndUser removes a comment written by userID.  Comments that do
// not exist or belong to someone else both yield ErrCommentNotFound.
func (r *CommentRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}
