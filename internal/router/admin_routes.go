package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/handler"
	"github.com/iliyamo/theater-tickets/internal/middleware"
	"github.com/iliyamo/theater-tickets/internal/model"
)

// RegisterAdmin registers schedule management under /v1/admin.  Routes
// require auth and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/v1/admin", auth, middleware.RequireRole(model.RoleAdmin))

	g.POST("/movies", a.CreateMovie)
	g.POST("/rooms", a.CreateRoom)
	g.POST("/screens", a.CreateScreen)
}
