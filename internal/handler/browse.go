package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/model"
	"github.com/iliyamo/theater-tickets/internal/pricing"
	"github.com/iliyamo/theater-tickets/internal/seating"
)

// MovieReader lists stored movies.
type MovieReader interface {
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	ListAll(ctx context.Context) ([]model.Movie, error)
}

// ScreenReader lists scheduled screens.
type ScreenReader interface {
	GetByID(ctx context.Context, id string) (*model.Screen, error)
	ListAll(ctx context.Context) ([]model.Screen, error)
	ListByMovie(ctx context.Context, movieID string) ([]model.Screen, error)
}

// SeatLister returns the seats of a screen.
type SeatLister interface {
	ListByScreen(ctx context.Context, screenID string) ([]model.Seat, error)
}

// PublicHandler serves the unauthenticated browsing API: movies, screens,
// seat maps, selection checks and price quotes.
type PublicHandler struct {
	Movies  MovieReader
	Screens ScreenReader
	Seats   SeatLister
}

// NewPublicHandler panics on a nil dependency.
func NewPublicHandler(movies MovieReader, screens ScreenReader, seats SeatLister) *PublicHandler {
	if movies == nil || screens == nil || seats == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Movies: movies, Screens: screens, Seats: seats}
}

// PublicSeat hides the holder of a seat; callers only learn availability.
type PublicSeat struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Row       string `json:"row"`
	Column    int    `json:"column"`
	Available bool   `json:"available"`
}

// PublicRow is one row of the seat map split into sections.
type PublicRow struct {
	Row    string       `json:"row"`
	Left   []PublicSeat `json:"left"`
	Center []PublicSeat `json:"center"`
	Right  []PublicSeat `json:"right"`
}

func publicSeats(seats []model.Seat) []PublicSeat {
	out := make([]PublicSeat, 0, len(seats))
	for _, s := range seats {
		out = append(out, PublicSeat{ID: s.ID, Label: s.Label(), Row: s.Row, Column: s.Column, Available: s.Available()})
	}
	return out
}

// ListMovies handles GET /v1/movies.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// ListMovieScreens handles GET /v1/movies/:id/screens.
func (h *PublicHandler) ListMovieScreens(c echo.Context) error {
	ctx := c.Request().Context()
	movieID := c.Param("id")
	if _, err := h.Movies.GetByID(ctx, movieID); err != nil {
		return respondError(c, err)
	}
	screens, err := h.Screens.ListByMovie(ctx, movieID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": screens})
}

// ListScreens handles GET /v1/screens.
func (h *PublicHandler) ListScreens(c echo.Context) error {
	screens, err := h.Screens.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": screens})
}

// GetScreen handles GET /v1/screens/:id.
func (h *PublicHandler) GetScreen(c echo.Context) error {
	s, err := h.Screens.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// GetSeatMap handles GET /v1/screens/:id/seats.  Seats are grouped by row
// and by the left, center and right sections.
func (h *PublicHandler) GetSeatMap(c echo.Context) error {
	ctx := c.Request().Context()
	screen, err := h.Screens.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	seats, err := h.Seats.ListByScreen(ctx, screen.ID)
	if err != nil {
		return respondError(c, err)
	}
	layout := seating.Partition(seats)
	rows := make([]PublicRow, 0, len(layout.Rows))
	for _, r := range layout.Rows {
		rows = append(rows, PublicRow{
			Row:    r.Label,
			Left:   publicSeats(r.Left),
			Center: publicSeats(r.Center),
			Right:  publicSeats(r.Right),
		})
	}
	limit := seating.MaxSeatsPerPurchase
	if layout.Available < limit {
		limit = layout.Available
	}
	return c.JSON(http.StatusOK, echo.Map{
		"screen_id":    screen.ID,
		"is_full":      screen.IsFull,
		"available":    layout.Available,
		"total":        layout.Total,
		"max_quantity": limit,
		"rows":         rows,
	})
}

type selectionRequest struct {
	Quantity int      `json:"quantity" validate:"required,min=1"`
	SeatIDs  []string `json:"seat_ids" validate:"required,min=1,dive,required"`
	Bundle   string   `json:"bundle"`
}

// CheckSelection handles POST /v1/screens/:id/selection.  It replays the
// chosen seats through the selection rules without holding anything, and
// prices the result.
func (h *PublicHandler) CheckSelection(c echo.Context) error {
	var req selectionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	bundle, err := model.ParseBundle(req.Bundle)
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.Request().Context()
	screen, err := h.Screens.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	seats, err := h.Seats.ListByScreen(ctx, screen.ID)
	if err != nil {
		return respondError(c, err)
	}
	chosen, err := seating.ValidateSelection(seats, req.SeatIDs, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	quote, err := pricing.NewQuote(len(chosen), bundle)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"row":     chosen[0].Row,
		"section": seating.SectionOf(chosen[0].Column),
		"seats":   publicSeats(chosen),
		"quote":   quote,
	})
}

// Quote handles GET /v1/pricing/quote?seats=N&bundle=TIER.
func (h *PublicHandler) Quote(c echo.Context) error {
	n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam("seats")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must be a number"})
	}
	bundle, err := model.ParseBundle(c.QueryParam("bundle"))
	if err != nil {
		return respondError(c, err)
	}
	quote, err := pricing.NewQuote(n, bundle)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}
