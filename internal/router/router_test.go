package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-tickets/internal/catalog"
	"github.com/iliyamo/theater-tickets/internal/handler"
	"github.com/iliyamo/theater-tickets/internal/middleware"
	"github.com/iliyamo/theater-tickets/internal/model"
	"github.com/iliyamo/theater-tickets/internal/service"
)

type nopStore struct{}

func (nopStore) GetByID(context.Context, string) (*model.Movie, error) { return &model.Movie{}, nil }
func (nopStore) ListAll(context.Context) ([]model.Movie, error)        { return nil, nil }
func (nopStore) Create(context.Context, *model.Movie) error            { return nil }

type nopScreens struct{}

func (nopScreens) GetByID(context.Context, string) (*model.Screen, error)      { return &model.Screen{}, nil }
func (nopScreens) ListAll(context.Context) ([]model.Screen, error)             { return nil, nil }
func (nopScreens) ListByMovie(context.Context, string) ([]model.Screen, error) { return nil, nil }
func (nopScreens) Create(context.Context, *model.Screen) error                 { return nil }
func (nopScreens) ListByScreen(context.Context, string) ([]model.Seat, error)  { return nil, nil }

type nopRooms struct{}

func (nopRooms) Create(context.Context, *model.Room) error            { return nil }
func (nopRooms) GetByID(context.Context, string) (*model.Room, error) { return &model.Room{}, nil }

type nopComments struct{}

func (nopComments) ListAll(context.Context) ([]model.Comment, error)        { return nil, nil }
func (nopComments) Create(context.Context, *model.Comment) error            { return nil }
func (nopComments) DeleteByIDAndUser(context.Context, string, string) error { return nil }

type nopCatalog struct{}

func (nopCatalog) Movie(context.Context, string) (*catalog.MovieDetails, error) {
	return &catalog.MovieDetails{}, nil
}
func (nopCatalog) Discover(context.Context, catalog.DiscoverQuery) (*catalog.Page, error) {
	return &catalog.Page{}, nil
}
func (nopCatalog) Search(context.Context, string, int) (*catalog.Page, error) {
	return &catalog.Page{}, nil
}
func (nopCatalog) Genres(context.Context) ([]catalog.Genre, error) { return nil, nil }
func (nopCatalog) Trending(context.Context) (*catalog.Page, error) { return &catalog.Page{}, nil }
func (nopCatalog) PosterURL(string) string                         { return "" }

type nopCheckout struct{}

func (nopCheckout) Start(context.Context, service.StartRequest) (*service.StartResult, error) {
	return &service.StartResult{Ticket: &model.Ticket{}}, nil
}
func (nopCheckout) Confirm(context.Context, service.ConfirmRequest) (*service.ConfirmResult, error) {
	return &service.ConfirmResult{Ticket: &model.Ticket{}}, nil
}
func (nopCheckout) Cancel(context.Context, string, string) error { return nil }
func (nopCheckout) Ticket(context.Context, string, string) (*model.Ticket, error) {
	return &model.Ticket{}, nil
}
func (nopCheckout) Tickets(context.Context, string) ([]model.Ticket, error) { return nil, nil }

type nopRenderer struct{}

func (nopRenderer) Generate(context.Context, model.Ticket, string) ([]byte, error) { return nil, nil }

const secret = "router-secret"

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Validator = handler.NewValidator()
	auth, err := middleware.Authenticate(middleware.AuthConfig{Secret: secret})
	require.NoError(t, err)
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	comments := handler.NewCommentHandler(nopComments{})
	RegisterRoutes(e, handler.Health(nil))
	RegisterPublic(e, handler.NewPublicHandler(nopStore{}, nopScreens{}, nopScreens{}),
		handler.NewCatalogHandler(nopCatalog{}), comments, pass)
	RegisterCustomer(e, handler.NewCustomerHandler(nopCheckout{}, nopRenderer{}), comments, auth, pass)
	RegisterAdmin(e, handler.NewAdminHandler(nopStore{}, nopRooms{}, nopScreens{}), auth)
	return e
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "role": role}).
		SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(e *echo.Echo, method, target, auth string) int {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer(t)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /v1/movies",
		"GET /v1/movies/:id/screens",
		"GET /v1/screens",
		"GET /v1/screens/:id",
		"GET /v1/screens/:id/seats",
		"POST /v1/screens/:id/selection",
		"GET /v1/pricing/quote",
		"GET /v1/catalog/movies/:externalId",
		"GET /v1/catalog/discover",
		"GET /v1/catalog/search",
		"GET /v1/catalog/genres",
		"GET /v1/catalog/trending",
		"GET /v1/comments",
		"POST /v1/checkout",
		"POST /v1/payments/confirm",
		"POST /v1/payments/cancel",
		"GET /v1/tickets",
		"GET /v1/tickets/:id",
		"GET /v1/tickets/:id/pdf",
		"DELETE /v1/tickets/:id",
		"POST /v1/comments",
		"DELETE /v1/comments/:id",
		"POST /v1/admin/movies",
		"POST /v1/admin/rooms",
		"POST /v1/admin/screens",
	} {
		assert.True(t, have[want], "missing route %s", want)
	}
}

func TestRouteAccess(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/v1/movies", ""))
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/v1/comments", ""))

	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/tickets", ""))
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/v1/tickets", bearer(t, "")))

	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/v1/admin/rooms", ""))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodPost, "/v1/admin/rooms", bearer(t, "USER")))
	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodPost, "/v1/admin/rooms", bearer(t, model.RoleAdmin)))
}
