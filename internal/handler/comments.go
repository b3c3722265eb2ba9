package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/model"
)

// CommentStore persists reviews.
type CommentStore interface {
	ListAll(ctx context.Context) ([]model.Comment, error)
	Create(ctx context.Context, c *model.Comment) error
	DeleteByIDAndUser(ctx context.Context, id, userID string) error
}

// CommentHandler serves the reviews board.
type CommentHandler struct {
	Comments CommentStore
}

func NewCommentHandler(comments CommentStore) *CommentHandler {
	if comments == nil {
		panic("nil repository passed to NewCommentHandler")
	}
	return &CommentHandler{Comments: comments}
}

// ListComments handles GET /v1/comments.
func (h *CommentHandler) ListComments(c echo.Context) error {
	items, err := h.Comments.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// CreateComment handles POST /v1/comments.  The author name comes from
// the identity token.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	var req commentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}
	username := id.DisplayName
	if username == "" {
		username = "anonymous"
	}
	cm := &model.Comment{UserID: id.ID, Username: username, Content: content, Rating: req.Rating}
	if err := h.Comments.Create(c.Request().Context(), cm); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cm)
}

// DeleteComment handles DELETE /v1/comments/:id.  Only the author can
// delete a comment.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.Comments.DeleteByIDAndUser(c.Request().Context(), c.Param("id"), id.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
