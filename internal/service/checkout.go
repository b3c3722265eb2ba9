// Package service holds the ticket purchase flow: starting a checkout,
// confirming or cancelling it, and reclaiming abandoned pending tickets.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/logging"
	"github.com/iliyamo/theater-tickets/internal/model"
	"github.com/iliyamo/theater-tickets/internal/payment"
	"github.com/iliyamo/theater-tickets/internal/pricing"
	"github.com/iliyamo/theater-tickets/internal/queue"
	"github.com/iliyamo/theater-tickets/internal/seating"
)

// TicketStore persists tickets.  Reserve must claim the seats atomically:
// either every seat is held for the buyer and the ticket exists, or
// nothing changed.
type TicketStore interface {
	Reserve(ctx context.Context, t *model.Ticket, seatIDs []string) error
	AttachSession(ctx context.Context, ticketID, sessionID string) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]model.Ticket, error)
	MarkVerified(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
	ListStalePending(ctx context.Context, before time.Time) ([]model.PendingHold, error)
}

// ScreenReader loads screens.
type ScreenReader interface {
	GetByID(ctx context.Context, id string) (*model.Screen, error)
}

// SeatLister loads the seats of a screen.
type SeatLister interface {
	ListByScreen(ctx context.Context, screenID string) ([]model.Seat, error)
}

// Confirmation results.
const (
	StatusVerified        = "verified"
	StatusAlreadyVerified = "already verified"
)

// StartRequest is a buyer's checkout.
type StartRequest struct {
	UserID   string
	ScreenID string
	SeatIDs  []string
	Quantity int
	Bundle   model.Bundle
}

// StartResult is returned once seats are held and the payment page is open.
type StartResult struct {
	Ticket      *model.Ticket `json:"ticket"`
	SessionID   string        `json:"session_id"`
	RedirectURL string        `json:"redirect_url"`
	Quote       pricing.Quote `json:"quote"`
}

// ConfirmRequest identifies the session returned to the success URL.
// UserID, when set, must own the ticket.
type ConfirmRequest struct {
	UserID    string
	SessionID string
	TicketID  string
}

// ConfirmResult carries the verified ticket.
type ConfirmResult struct {
	Status string        `json:"status"`
	Ticket *model.Ticket `json:"ticket"`
}

// CheckoutService runs the ticket state machine
// NONE -> PENDING -> {VERIFIED | CANCELLED}.
type CheckoutService struct {
	tickets    TicketStore
	screens    ScreenReader
	seats      SeatLister
	payments   payment.Processor
	events     EventPublisher
	baseURL    string
	clock      clockwork.Clock
	sessionTTL time.Duration
}

// Option configures a CheckoutService.
type Option func(*CheckoutService)

// WithClock overrides the clock used for ticket timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *CheckoutService) { s.clock = c }
}

// WithSessionTTL sets how long a payment page stays open.  It should match
// the Sweeper's ttl; both clamp it to payment.SessionLifetime.
func WithSessionTTL(d time.Duration) Option {
	return func(s *CheckoutService) { s.sessionTTL = payment.SessionLifetime(d) }
}

// NewCheckoutService wires the service.  baseURL is the public root used
// for the payment success and cancel redirects.  events may be nil.
func NewCheckoutService(
	tickets TicketStore,
	screens ScreenReader,
	seats SeatLister,
	payments payment.Processor,
	events EventPublisher,
	baseURL string,
	opts ...Option,
) *CheckoutService {
	if events == nil {
		events = NopPublisher{}
	}
	s := &CheckoutService{
		tickets:    tickets,
		screens:    screens,
		seats:      seats,
		payments:   payments,
		events:     events,
		baseURL:    strings.TrimRight(baseURL, "/"),
		clock:      clockwork.NewRealClock(),
		sessionTTL: payment.MinSessionLifetime,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start validates the selection, holds the seats under a new PENDING
// ticket and opens a payment session for it.  The hold commits before the
// processor is called.  If the processor fails the ticket stays PENDING
// and is reclaimed by the Sweeper.
func (s *CheckoutService) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if req.UserID == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "buyer identity is required")
	}
	if req.Quantity < 1 || req.Quantity > seating.MaxSeatsPerPurchase {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "quantity must be between 1 and %d", seating.MaxSeatsPerPurchase)
	}
	if len(req.SeatIDs) != req.Quantity {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "expected %d seats, got %d", req.Quantity, len(req.SeatIDs))
	}
	quote, err := pricing.NewQuote(req.Quantity, req.Bundle)
	if err != nil {
		return nil, err
	}

	screen, err := s.screens.GetByID(ctx, req.ScreenID)
	if err != nil {
		return nil, err
	}
	all, err := s.seats.ListByScreen(ctx, screen.ID)
	if err != nil {
		return nil, err
	}
	chosen, err := seating.ValidateSelection(all, req.SeatIDs, req.Quantity)
	if err != nil {
		return nil, err
	}

	ticket := &model.Ticket{
		UserID:    req.UserID,
		ScreenID:  screen.ID,
		MovieID:   screen.MovieID,
		RoomID:    screen.RoomID,
		Date:      screen.Date,
		Showtime:  screen.Showtime,
		Bundle:    req.Bundle,
		CreatedAt: s.clock.Now().UTC(),
	}
	seatIDs := make([]string, len(chosen))
	for i := range chosen {
		seatIDs[i] = chosen[i].ID
		holder := req.UserID
		chosen[i].UserID = &holder
	}
	if err := s.tickets.Reserve(ctx, ticket, seatIDs); err != nil {
		return nil, err
	}
	ticket.Seats = chosen
	log := logging.FromContext(ctx).WithField("ticket_id", ticket.ID)
	log.WithField("seats", len(seatIDs)).Info("seats held")

	sess, err := s.payments.CreateSession(ctx, payment.SessionRequest{
		TicketID:   ticket.ID,
		Items:      lineItems(quote),
		SuccessURL: s.redirectURL("/payment/success", ticket.ID),
		CancelURL:  s.redirectURL("/payment/cancel", ticket.ID),
		ExpiresAt:  s.clock.Now().Add(s.sessionTTL),
	})
	if err != nil {
		log.WithError(err).Warn("payment session failed; ticket left pending")
		if !errors.Is(err, apperr.ErrDependencyUnavailable) {
			err = apperr.Wrap(apperr.ErrDependencyUnavailable, "payment: %v", err)
		}
		return nil, err
	}
	if err := s.tickets.AttachSession(ctx, ticket.ID, sess.ID); err != nil {
		return nil, err
	}
	sid := sess.ID
	ticket.PaymentSessionID = &sid

	return &StartResult{Ticket: ticket, SessionID: sess.ID, RedirectURL: sess.URL, Quote: quote}, nil
}

// Confirm verifies the ticket once the processor reports the session as
// complete.  Repeated calls on a verified ticket return StatusAlreadyVerified
// without contacting the processor.
func (s *CheckoutService) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	if req.SessionID == "" || req.TicketID == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "session id and ticket id are required")
	}
	t, err := s.owned(ctx, req.UserID, req.TicketID)
	if err != nil {
		return nil, err
	}
	if t.Verified {
		return &ConfirmResult{Status: StatusAlreadyVerified, Ticket: t}, nil
	}
	if t.PaymentSessionID != nil && *t.PaymentSessionID != req.SessionID {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "session %s does not belong to ticket %s", req.SessionID, t.ID)
	}

	sess, err := s.payments.GetSession(ctx, req.SessionID)
	if err != nil {
		if !errors.Is(err, apperr.ErrDependencyUnavailable) {
			err = apperr.Wrap(apperr.ErrDependencyUnavailable, "payment: %v", err)
		}
		return nil, err
	}
	if sess.TicketID != "" && sess.TicketID != t.ID {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "session %s was opened for another ticket", req.SessionID)
	}
	if !sess.Complete {
		return nil, apperr.Wrap(apperr.ErrPaymentNotComplete, "session %s is not complete", req.SessionID)
	}

	won, err := s.tickets.MarkVerified(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	fresh, err := s.tickets.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return &ConfirmResult{Status: StatusAlreadyVerified, Ticket: fresh}, nil
	}

	logging.FromContext(ctx).WithField("ticket_id", t.ID).Info("ticket verified")
	s.publishVerified(ctx, fresh)
	return &ConfirmResult{Status: StatusVerified, Ticket: fresh}, nil
}

// Cancel releases a pending ticket and its seats.  UserID, when set, must
// own the ticket.  Verified tickets cannot be cancelled.
func (s *CheckoutService) Cancel(ctx context.Context, userID, ticketID string) error {
	t, err := s.owned(ctx, userID, ticketID)
	if err != nil {
		return err
	}
	if t.Verified {
		return apperr.Wrap(apperr.ErrConstraintViolation, "ticket %s is already verified", t.ID)
	}
	if err := s.tickets.Release(ctx, t.ID); err != nil {
		return err
	}
	logging.FromContext(ctx).WithField("ticket_id", t.ID).Info("ticket cancelled")
	s.publishCancelled(ctx, t, queue.ReasonBuyer)
	return nil
}

// Ticket returns one of the buyer's tickets.  Another buyer's ticket is
// reported as not found.
func (s *CheckoutService) Ticket(ctx context.Context, userID, ticketID string) (*model.Ticket, error) {
	return s.owned(ctx, userID, ticketID)
}

// Tickets lists the buyer's tickets, newest first.
func (s *CheckoutService) Tickets(ctx context.Context, userID string) ([]model.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

func (s *CheckoutService) owned(ctx context.Context, userID, ticketID string) (*model.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if userID != "" && t.UserID != userID {
		return nil, apperr.Wrap(apperr.ErrNotFound, "ticket %s", ticketID)
	}
	return t, nil
}

// redirectURL keeps {CHECKOUT_SESSION_ID} literal; the processor
// substitutes it.
func (s *CheckoutService) redirectURL(path, ticketID string) string {
	return fmt.Sprintf("%s%s?session_id={CHECKOUT_SESSION_ID}&ticket_id=%s", s.baseURL, path, url.QueryEscape(ticketID))
}

func lineItems(q pricing.Quote) []payment.LineItem {
	items := []payment.LineItem{{
		Name:       "Movie ticket",
		UnitAmount: pricing.Cents(q.SeatPrice),
		Quantity:   int64(q.SeatCount),
	}}
	if q.Bundle != model.BundleNone {
		items = append(items, payment.LineItem{
			Name:       string(q.Bundle) + " bundle",
			UnitAmount: pricing.Cents(q.BundleSurcharge),
			Quantity:   1,
		})
	}
	return items
}

func (s *CheckoutService) publishVerified(ctx context.Context, t *model.Ticket) {
	ev := queue.TicketVerifiedEvent{
		TicketID:   t.ID,
		UserID:     t.UserID,
		ScreenID:   t.ScreenID,
		Date:       t.Date.Format("2006-01-02"),
		Showtime:   t.Showtime,
		Bundle:     string(t.Bundle),
		VerifiedAt: s.clock.Now().UTC().Format(time.RFC3339),
	}
	if t.Movie != nil {
		ev.ImdbID = t.Movie.ImdbID
	}
	if t.Room != nil {
		ev.RoomName = t.Room.Name
	}
	for _, seat := range t.Seats {
		ev.SeatLabels = append(ev.SeatLabels, seat.Label())
	}
	if q, err := pricing.NewQuote(len(t.Seats), t.Bundle); err == nil {
		ev.TotalCents = pricing.Cents(q.Total)
	}
	if err := s.events.TicketVerified(ctx, ev); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("publish ticket.verified failed")
	}
}

func (s *CheckoutService) publishCancelled(ctx context.Context, t *model.Ticket, reason string) {
	ev := queue.TicketCancelledEvent{
		TicketID:    t.ID,
		UserID:      t.UserID,
		Reason:      reason,
		CancelledAt: s.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.TicketCancelled(ctx, ev); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("publish ticket.cancelled failed")
	}
}
