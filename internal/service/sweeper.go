package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/logging"
	"github.com/iliyamo/theater-tickets/internal/model"
	"github.com/iliyamo/theater-tickets/internal/payment"
	"github.com/iliyamo/theater-tickets/internal/queue"
)

// sessionSlack covers the time between holding the seats and the
// processor opening the session, so a payment page always closes before
// its ticket is released.
const sessionSlack = 2 * time.Minute

// Sweeper releases PENDING tickets whose payment was abandoned.  A ticket
// older than ttl that is still unverified has its seats freed and is
// deleted.  ttl is clamped like the payment session lifetime and extended
// by sessionSlack.
type Sweeper struct {
	tickets  TicketStore
	events   EventPublisher
	ttl      time.Duration
	interval time.Duration
	clock    clockwork.Clock
}

// NewSweeper returns a sweeper; clock may be nil for the real clock.
func NewSweeper(tickets TicketStore, events EventPublisher, ttl, interval time.Duration, clock clockwork.Clock) *Sweeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if events == nil {
		events = NopPublisher{}
	}
	ttl = payment.SessionLifetime(ttl) + sessionSlack
	return &Sweeper{tickets: tickets, events: events, ttl: ttl, interval: interval, clock: clock}
}

// Sweep runs one pass and returns how many tickets were released.  A
// ticket that got verified or cancelled between the listing and the
// release is skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	log := logging.FromContext(ctx)
	cutoff := s.clock.Now().UTC().Add(-s.ttl)
	stale, err := s.tickets.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, h := range stale {
		err := s.tickets.Release(ctx, h.TicketID)
		switch {
		case err == nil:
			released++
			s.publish(ctx, h)
		case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrConstraintViolation):
			log.WithField("ticket_id", h.TicketID).Debug("sweeper: ticket changed state; skipped")
		default:
			log.WithError(err).WithField("ticket_id", h.TicketID).Error("sweeper: release failed")
		}
	}
	if released > 0 {
		log.WithFields(logrus.Fields{"released": released, "cutoff": cutoff}).Info("sweeper: released pending tickets")
	}
	return released, nil
}

func (s *Sweeper) publish(ctx context.Context, h model.PendingHold) {
	ev := queue.TicketCancelledEvent{
		TicketID:    h.TicketID,
		UserID:      h.UserID,
		Reason:      queue.ReasonExpired,
		CancelledAt: s.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.TicketCancelled(ctx, ev); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("publish ticket.cancelled failed")
	}
}

// Run schedules Sweep every interval until ctx is cancelled.  Runs never
// overlap; a run that is still busy when the next is due pushes it back.
func (s *Sweeper) Run(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithClock(s.clock), gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if _, err := s.Sweep(ctx); err != nil {
				logging.FromContext(ctx).WithError(err).Error("sweeper: pass failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("pending-ticket-sweeper"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}

	sched.Start()
	logging.FromContext(ctx).WithFields(logrus.Fields{"interval": s.interval, "ttl": s.ttl}).Info("sweeper started")
	<-ctx.Done()
	return sched.Shutdown()
}
