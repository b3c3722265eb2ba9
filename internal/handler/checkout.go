package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-tickets/internal/model"
	"github.com/iliyamo/theater-tickets/internal/service"
)

// Checkout is the ticket state machine as seen by the API.
type Checkout interface {
	Start(ctx context.Context, req service.StartRequest) (*service.StartResult, error)
	Confirm(ctx context.Context, req service.ConfirmRequest) (*service.ConfirmResult, error)
	Cancel(ctx context.Context, userID, ticketID string) error
	Ticket(ctx context.Context, userID, ticketID string) (*model.Ticket, error)
	Tickets(ctx context.Context, userID string) ([]model.Ticket, error)
}

// TicketRenderer produces the printable ticket.
type TicketRenderer interface {
	Generate(ctx context.Context, t model.Ticket, buyerName string) ([]byte, error)
}

// CustomerHandler serves the signed-in buyer: checkout, payment
// confirmation and cancellation, and ticket retrieval.  Every method
// assumes Authenticate ran first.
type CustomerHandler struct {
	Checkout Checkout
	Renderer TicketRenderer
}

// NewCustomerHandler panics on a nil dependency.
func NewCustomerHandler(checkout Checkout, renderer TicketRenderer) *CustomerHandler {
	if checkout == nil || renderer == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{Checkout: checkout, Renderer: renderer}
}

// ticketResponse adds the derived status to a ticket.
type ticketResponse struct {
	*model.Ticket
	Status model.TicketStatus `json:"status"`
}

func newTicketResponse(t *model.Ticket) ticketResponse {
	return ticketResponse{Ticket: t, Status: t.Status()}
}

type checkoutRequest struct {
	ScreenID string   `json:"screen_id" validate:"required"`
	SeatIDs  []string `json:"seat_ids" validate:"required,min=1,max=4,dive,required"`
	Quantity int      `json:"quantity" validate:"required,min=1,max=4"`
	Bundle   string   `json:"bundle"`
}

// StartCheckout handles POST /v1/checkout.  It holds the seats under a
// PENDING ticket and returns the payment page to redirect to.
func (h *CustomerHandler) StartCheckout(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	var req checkoutRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	bundle, err := model.ParseBundle(req.Bundle)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Checkout.Start(c.Request().Context(), service.StartRequest{
		UserID:   id.ID,
		ScreenID: req.ScreenID,
		SeatIDs:  req.SeatIDs,
		Quantity: req.Quantity,
		Bundle:   bundle,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"ticket":       newTicketResponse(res.Ticket),
		"session_id":   res.SessionID,
		"redirect_url": res.RedirectURL,
		"quote":        res.Quote,
	})
}

type confirmRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	TicketID  string `json:"ticket_id" validate:"required"`
}

// ConfirmPayment handles POST /v1/payments/confirm, called by the client
// after the processor redirects to the success URL.  Confirming twice is
// harmless and reports "already verified".
func (h *CustomerHandler) ConfirmPayment(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	var req confirmRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.Checkout.Confirm(c.Request().Context(), service.ConfirmRequest{
		UserID:    id.ID,
		SessionID: req.SessionID,
		TicketID:  req.TicketID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": res.Status,
		"ticket": newTicketResponse(res.Ticket),
	})
}

type cancelRequest struct {
	TicketID string `json:"ticket_id" validate:"required"`
}

// CancelPayment handles POST /v1/payments/cancel, called from the cancel
// URL.  The pending ticket is deleted and its seats released.
func (h *CustomerHandler) CancelPayment(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	var req cancelRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.Checkout.Cancel(c.Request().Context(), id.ID, req.TicketID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled", "ticket_id": req.TicketID})
}

// ListTickets handles GET /v1/tickets.
func (h *CustomerHandler) ListTickets(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	tickets, err := h.Checkout.Tickets(c.Request().Context(), id.ID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]ticketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, newTicketResponse(&tickets[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetTicket handles GET /v1/tickets/:id.
func (h *CustomerHandler) GetTicket(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	t, err := h.Checkout.Ticket(c.Request().Context(), id.ID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newTicketResponse(t))
}

// DeleteTicket handles DELETE /v1/tickets/:id.  Only pending tickets can
// be deleted.
func (h *CustomerHandler) DeleteTicket(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.Checkout.Cancel(c.Request().Context(), id.ID, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TicketPDF handles GET /v1/tickets/:id/pdf.
func (h *CustomerHandler) TicketPDF(c echo.Context) error {
	id, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	ctx := c.Request().Context()
	t, err := h.Checkout.Ticket(ctx, id.ID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	pdf, err := h.Renderer.Generate(ctx, *t, id.DisplayName)
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "ticket-"+t.ID+".pdf"))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
