package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/handler"
)

// RegisterCustomer registers buyer endpoints under /v1.  All routes
// require auth; the checkout and payment routes also pass through
// limiter.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, comments *handler.CommentHandler, auth, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", auth)

	g.POST("/checkout", h.StartCheckout, limiter)
	g.POST("/payments/confirm", h.ConfirmPayment, limiter)
	g.POST("/payments/cancel", h.CancelPayment, limiter)

	g.GET("/tickets", h.ListTickets)
	g.GET("/tickets/:id", h.GetTicket)
	g.GET("/tickets/:id/pdf", h.TicketPDF)
	g.DELETE("/tickets/:id", h.DeleteTicket)

	g.POST("/comments", comments.CreateComment)
	g.DELETE("/comments/:id", comments.DeleteComment)
}
