// Package router registers the HTTP API on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/handler"
)

// RegisterRoutes registers the health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterPublic registers the unauthenticated browse API.  cache wraps
// the catalog routes only; everything else reads live data.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cat *handler.CatalogHandler, comments *handler.CommentHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")

	g.GET("/movies", p.ListMovies)
	g.GET("/movies/:id/screens", p.ListMovieScreens)
	g.GET("/screens", p.ListScreens)
	g.GET("/screens/:id", p.GetScreen)
	g.GET("/screens/:id/seats", p.GetSeatMap)
	g.POST("/screens/:id/selection", p.CheckSelection)
	g.GET("/pricing/quote", p.Quote)
	g.GET("/comments", comments.ListComments)

	c := g.Group("/catalog", cache)
	c.GET("/movies/:externalId", cat.GetMovie)
	c.GET("/discover", cat.Discover)
	c.GET("/search", cat.Search)
	c.GET("/genres", cat.Genres)
	c.GET("/trending", cat.Trending)
}
