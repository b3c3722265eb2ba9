// Package payment opens and inspects hosted checkout sessions.
package payment

import (
	"context"
	"time"
)

// LineItem is one priced row of a checkout page.  UnitAmount is in the
// smallest currency unit.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest describes the checkout page to open for a ticket.
type SessionRequest struct {
	TicketID   string
	Items      []LineItem
	SuccessURL string
	CancelURL  string

	// ExpiresAt closes the checkout page.  Zero leaves the processor default.
	ExpiresAt time.Time
}

// Stripe accepts session expiries between 30 minutes and 24 hours out.
const (
	MinSessionLifetime = 30 * time.Minute
	MaxSessionLifetime = 24 * time.Hour
)

// SessionLifetime clamps d to the range the processor accepts.
func SessionLifetime(d time.Duration) time.Duration {
	switch {
	case d < MinSessionLifetime:
		return MinSessionLifetime
	case d > MaxSessionLifetime:
		return MaxSessionLifetime
	}
	return d
}

// Session is the processor's view of a checkout.
type Session struct {
	ID       string
	URL      string
	TicketID string
	// Complete is true once the buyer finished paying.
	Complete bool
}

// Processor is the hosted payment provider.
type Processor interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}
