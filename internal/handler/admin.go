package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/model"
)

// MovieWriter adds movies.
type MovieWriter interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id string) (*model.Movie, error)
}

// RoomWriter adds rooms.
type RoomWriter interface {
	Create(ctx context.Context, r *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
}

// ScreenWriter schedules screens.
type ScreenWriter interface {
	Create(ctx context.Context, s *model.Screen) error
}

// AdminHandler manages the schedule: movies, rooms and screens.  Routes
// are guarded by RequireRole(model.RoleAdmin).
type AdminHandler struct {
	Movies  MovieWriter
	Rooms   RoomWriter
	Screens ScreenWriter
}

// NewAdminHandler panics on a nil dependency.
func NewAdminHandler(movies MovieWriter, rooms RoomWriter, screens ScreenWriter) *AdminHandler {
	if movies == nil || rooms == nil || screens == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Movies: movies, Rooms: rooms, Screens: screens}
}

type createMovieRequest struct {
	ImdbID string `json:"imdb_id" validate:"required,max=32"`
}

// CreateMovie handles POST /v1/admin/movies.  A duplicate catalog id is
// a 409.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req createMovieRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	m := &model.Movie{ImdbID: strings.TrimSpace(req.ImdbID)}
	if err := h.Movies.Create(c.Request().Context(), m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

type createRoomRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// CreateRoom handles POST /v1/admin/rooms.
func (h *AdminHandler) CreateRoom(c echo.Context) error {
	var req createRoomRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	r := &model.Room{Name: strings.TrimSpace(req.Name)}
	if err := h.Rooms.Create(c.Request().Context(), r); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

type createScreenRequest struct {
	MovieID  string `json:"movie_id" validate:"required"`
	RoomID   string `json:"room_id" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Showtime string `json:"showtime" validate:"required,max=16"`
}

// CreateScreen handles POST /v1/admin/screens.  The movie and room must
// exist; the new screen gets a full grid of free seats.
func (h *AdminHandler) CreateScreen(c echo.Context) error {
	var req createScreenRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		return respondError(c, err)
	}
	room, err := h.Rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return respondError(c, err)
	}
	s := &model.Screen{
		MovieID:  req.MovieID,
		RoomID:   req.RoomID,
		Date:     date,
		Showtime: strings.TrimSpace(req.Showtime),
		Room:     room,
	}
	if err := h.Screens.Create(ctx, s); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}
