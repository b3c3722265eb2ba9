package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/model"
	"github.com/iliyamo/theater-tickets/internal/payment"
	"github.com/iliyamo/theater-tickets/internal/queue"
	"github.com/iliyamo/theater-tickets/internal/seating"
)

// memStore is an in-memory TicketStore, ScreenReader and SeatLister.  The
// mutex makes Reserve atomic in the same way the SQL conditional update is.
type memStore struct {
	mu      sync.Mutex
	screens map[string]model.Screen
	seats   map[string]*model.Seat
	tickets map[string]*model.Ticket
	links   map[string][]string
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{
		screens: map[string]model.Screen{},
		seats:   map[string]*model.Seat{},
		tickets: map[string]*model.Ticket{},
		links:   map[string][]string{},
	}
}

// addScreen creates a screen with the standard grid; seat ids are labels
// prefixed by the screen id ("scr-B5").
func (m *memStore) addScreen(id string) model.Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Screen{
		ID:       id,
		MovieID:  "mov",
		RoomID:   "room",
		Date:     time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		Showtime: "6:30pm",
		Room:     &model.Room{ID: "room", Name: "room_1"},
	}
	m.screens[id] = s
	for _, seat := range seating.Grid(id, seating.Rows, seating.Columns) {
		seat := seat
		seat.ID = id + "-" + seat.Label()
		m.seats[seat.ID] = &seat
	}
	return s
}

func (m *memStore) screenByID(id string) (*model.Screen, error) {
	s, ok := m.screens[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrNotFound, "screen %s", id)
	}
	return &s, nil
}

type screenReader struct{ m *memStore }

func (r screenReader) GetByID(_ context.Context, id string) (*model.Screen, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.screenByID(id)
}

func (m *memStore) ListByScreen(_ context.Context, screenID string) ([]model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Seat
	for _, s := range m.seats {
		if s.ScreenID == screenID {
			out = append(out, copySeat(*s))
		}
	}
	return out, nil
}

func (m *memStore) holder(seatID string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.seats[seatID]; ok && s.UserID != nil {
		h := *s.UserID
		return &h
	}
	return nil
}

func (m *memStore) Reserve(_ context.Context, t *model.Ticket, seatIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range seatIDs {
		s, ok := m.seats[id]
		if !ok || s.ScreenID != t.ScreenID || s.UserID != nil {
			return apperr.Wrap(apperr.ErrConstraintViolation, "seat %s unavailable", id)
		}
	}
	for _, id := range seatIDs {
		u := t.UserID
		m.seats[id].UserID = &u
	}
	m.nextID++
	t.ID = fmt.Sprintf("t%d", m.nextID)
	stored := *t
	stored.Seats = nil
	m.tickets[t.ID] = &stored
	m.links[t.ID] = append([]string(nil), seatIDs...)
	return nil
}

func (m *memStore) AttachSession(_ context.Context, ticketID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok {
		return apperr.Wrap(apperr.ErrNotFound, "ticket %s", ticketID)
	}
	sid := sessionID
	t.PaymentSessionID = &sid
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

func (m *memStore) load(id string) (*model.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrNotFound, "ticket %s", id)
	}
	out := *t
	out.Movie = &model.Movie{ID: t.MovieID, ImdbID: "tt0111161"}
	out.Room = &model.Room{ID: t.RoomID, Name: "room_1"}
	out.Seats = nil
	for _, sid := range m.links[id] {
		out.Seats = append(out.Seats, copySeat(*m.seats[sid]))
	}
	return &out, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Ticket
	for id, t := range m.tickets {
		if t.UserID == userID {
			full, _ := m.load(id)
			out = append(out, *full)
		}
	}
	return out, nil
}

func (m *memStore) MarkVerified(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok || t.Verified {
		return false, nil
	}
	t.Verified = true
	return true, nil
}

func (m *memStore) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return apperr.Wrap(apperr.ErrNotFound, "ticket %s", id)
	}
	if t.Verified {
		return apperr.Wrap(apperr.ErrConstraintViolation, "ticket %s verified", id)
	}
	for _, sid := range m.links[id] {
		if s := m.seats[sid]; s.UserID != nil && *s.UserID == t.UserID {
			s.UserID = nil
		}
	}
	delete(m.links, id)
	delete(m.tickets, id)
	return nil
}

func (m *memStore) ListStalePending(_ context.Context, before time.Time) ([]model.PendingHold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PendingHold
	for _, t := range m.tickets {
		if !t.Verified && t.CreatedAt.Before(before) {
			out = append(out, model.PendingHold{TicketID: t.ID, UserID: t.UserID, CreatedAt: t.CreatedAt})
		}
	}
	return out, nil
}

func (m *memStore) ticketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

func copySeat(s model.Seat) model.Seat {
	if s.UserID != nil {
		h := *s.UserID
		s.UserID = &h
	}
	return s
}

type fakeProcessor struct {
	mu        sync.Mutex
	sessions  map[string]*payment.Session
	requests  []payment.SessionRequest
	getCalls  int
	createErr error
	getErr    error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{sessions: map[string]*payment.Session{}}
}

func (p *fakeProcessor) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.requests = append(p.requests, req)
	id := fmt.Sprintf("cs_%d", len(p.requests))
	s := &payment.Session{ID: id, URL: "https://pay.example/" + id, TicketID: req.TicketID}
	p.sessions[id] = s
	return s, nil
}

func (p *fakeProcessor) GetSession(_ context.Context, id string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getCalls++
	if p.getErr != nil {
		return nil, p.getErr
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrDependencyUnavailable, "no such session %s", id)
	}
	cp := *s
	return &cp, nil
}

func (p *fakeProcessor) complete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id].Complete = true
}

type recordingPublisher struct {
	mu        sync.Mutex
	verified  []queue.TicketVerifiedEvent
	cancelled []queue.TicketCancelledEvent
}

func (r *recordingPublisher) TicketVerified(_ context.Context, ev queue.TicketVerifiedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verified = append(r.verified, ev)
	return nil
}

func (r *recordingPublisher) TicketCancelled(_ context.Context, ev queue.TicketCancelledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, ev)
	return nil
}
