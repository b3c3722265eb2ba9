package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/catalog"
)

// Catalog is the read side of the movie catalog client.
type Catalog interface {
	Movie(ctx context.Context, externalID string) (*catalog.MovieDetails, error)
	Discover(ctx context.Context, q catalog.DiscoverQuery) (*catalog.Page, error)
	Search(ctx context.Context, query string, page int) (*catalog.Page, error)
	Genres(ctx context.Context) ([]catalog.Genre, error)
	Trending(ctx context.Context) (*catalog.Page, error)
	PosterURL(posterPath string) string
}

// CatalogHandler proxies the movie catalog.  Responses are cached by the
// Redis middleware in front of these routes.
type CatalogHandler struct {
	Catalog Catalog
}

func NewCatalogHandler(c Catalog) *CatalogHandler {
	if c == nil {
		panic("nil catalog passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: c}
}

// GetMovie handles GET /v1/catalog/movies/:externalId.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	m, err := h.Catalog.Movie(c.Request().Context(), c.Param("externalId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"movie":      m,
		"poster_url": h.Catalog.PosterURL(m.PosterPath),
	})
}

// Discover handles GET /v1/catalog/discover.
// Query: page, genres (comma separated ids), sort_by, order, year.
func (h *CatalogHandler) Discover(c echo.Context) error {
	q := catalog.DiscoverQuery{
		Page:       queryInt(c, "page"),
		WithGenres: strings.TrimSpace(c.QueryParam("genres")),
		SortBy:     strings.TrimSpace(c.QueryParam("sort_by")),
		Order:      strings.ToLower(strings.TrimSpace(c.QueryParam("order"))),
		Year:       queryInt(c, "year"),
	}
	page, err := h.Catalog.Discover(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Search handles GET /v1/catalog/search?query=...&page=N.
func (h *CatalogHandler) Search(c echo.Context) error {
	page, err := h.Catalog.Search(c.Request().Context(), c.QueryParam("query"), queryInt(c, "page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Genres handles GET /v1/catalog/genres.
func (h *CatalogHandler) Genres(c echo.Context) error {
	genres, err := h.Catalog.Genres(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": genres})
}

// Trending handles GET /v1/catalog/trending.
func (h *CatalogHandler) Trending(c echo.Context) error {
	page, err := h.Catalog.Trending(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// queryInt returns 0 for a missing or malformed parameter.
func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	return n
}
