package seating

import (
	"sort"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/model"
)

// Selection is the buyer's in-progress pick for one checkout.  The first
// selected seat locks the row and section; the lock is released when the
// selection becomes empty again.  The selected seats always form a
// contiguous run of columns.
//
// A rejected operation returns an error wrapping
// apperr.ErrConstraintViolation and leaves the selection unchanged.
type Selection struct {
	quantity int
	row      string
	section  Section
	seats    []model.Seat // ordered by column
}

// NewSelection starts an empty selection for quantity seats.  The
// quantity must be between 1 and min(MaxSeatsPerPurchase, available).
func NewSelection(quantity, available int) (*Selection, error) {
	limit := MaxSeatsPerPurchase
	if available < limit {
		limit = available
	}
	if quantity < 1 || quantity > limit {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "quantity must be between 1 and %d, got %d", limit, quantity)
	}
	return &Selection{quantity: quantity}, nil
}

// Quantity is the number of seats the buyer asked for.
func (s *Selection) Quantity() int { return s.quantity }

// Len is the number of seats currently selected.
func (s *Selection) Len() int { return len(s.seats) }

// Complete reports whether exactly Quantity seats are selected.
func (s *Selection) Complete() bool { return len(s.seats) == s.quantity }

// Row returns the locked row, empty when nothing is selected.
func (s *Selection) Row() string { return s.row }

// Section returns the locked section, empty when nothing is selected.
func (s *Selection) Section() Section { return s.section }

// Seats returns a copy of the selected seats ordered by column.
func (s *Selection) Seats() []model.Seat {
	out := make([]model.Seat, len(s.seats))
	copy(out, s.seats)
	return out
}

// Contains reports whether the seat with id is selected.
func (s *Selection) Contains(id string) bool {
	return s.indexOf(id) >= 0
}

// Toggle selects an unselected seat or deselects a selected one.
func (s *Selection) Toggle(seat model.Seat) error {
	if s.Contains(seat.ID) {
		return s.Deselect(seat.ID)
	}
	return s.Select(seat)
}

// Select adds seat to the selection.  Selecting a seat that is already
// selected is a no-op.
func (s *Selection) Select(seat model.Seat) error {
	if s.Contains(seat.ID) {
		return nil
	}
	if !seat.Available() {
		return apperr.Wrap(apperr.ErrConstraintViolation, "seat %s is already held", seat.Label())
	}
	if len(s.seats) >= s.quantity {
		return apperr.Wrap(apperr.ErrConstraintViolation, "selection already has %d seats", s.quantity)
	}
	section := SectionOf(seat.Column)
	if len(s.seats) > 0 {
		if seat.Row != s.row {
			return apperr.Wrap(apperr.ErrConstraintViolation, "seat %s is not in row %s", seat.Label(), s.row)
		}
		if section != s.section {
			return apperr.Wrap(apperr.ErrConstraintViolation, "seat %s is not in the %s section", seat.Label(), s.section)
		}
		first, last := s.seats[0].Column, s.seats[len(s.seats)-1].Column
		if seat.Column != first-1 && seat.Column != last+1 {
			return apperr.Wrap(apperr.ErrConstraintViolation, "seat %s is not next to the selected seats", seat.Label())
		}
	} else {
		s.row = seat.Row
		s.section = section
	}

	s.seats = append(s.seats, seat)
	sort.Slice(s.seats, func(i, j int) bool { return s.seats[i].Column < s.seats[j].Column })
	return nil
}

// Deselect removes the seat with id.  Only the seats at either end of the
// run can be removed: dropping an interior seat would split the run, so
// this is stricter than a picker that lets any selected seat be cleared.
func (s *Selection) Deselect(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return apperr.Wrap(apperr.ErrConstraintViolation, "seat %s is not selected", id)
	}
	if i != 0 && i != len(s.seats)-1 {
		return apperr.Wrap(apperr.ErrConstraintViolation, "seat %s is inside the selection; remove an end seat first", s.seats[i].Label())
	}
	s.seats = append(s.seats[:i], s.seats[i+1:]...)
	if len(s.seats) == 0 {
		s.Reset()
	}
	return nil
}

// Reset clears the seats and the row/section lock.
func (s *Selection) Reset() {
	s.seats = nil
	s.row = ""
	s.section = ""
}

func (s *Selection) indexOf(id string) int {
	for i, seat := range s.seats {
		if seat.ID == id {
			return i
		}
	}
	return -1
}

// ValidateSelection replays chosenIDs against the seats of a screen and
// returns the chosen seats ordered by column.  It fails when the quantity
// is out of range, when the ids do not match the quantity, when an id is
// not a seat of the screen, or when the seats break a selection rule.
func ValidateSelection(seats []model.Seat, chosenIDs []string, quantity int) ([]model.Seat, error) {
	sel, err := NewSelection(quantity, CountAvailable(seats))
	if err != nil {
		return nil, err
	}
	if len(chosenIDs) != quantity {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "expected %d seats, got %d", quantity, len(chosenIDs))
	}

	byID := make(map[string]model.Seat, len(seats))
	for _, seat := range seats {
		byID[seat.ID] = seat
	}
	chosen := make([]model.Seat, 0, len(chosenIDs))
	seen := make(map[string]struct{}, len(chosenIDs))
	for _, id := range chosenIDs {
		if _, dup := seen[id]; dup {
			return nil, apperr.Wrap(apperr.ErrInvalidArgument, "seat %s listed twice", id)
		}
		seen[id] = struct{}{}
		seat, ok := byID[id]
		if !ok {
			return nil, apperr.Wrap(apperr.ErrNotFound, "seat %s does not belong to this screen", id)
		}
		chosen = append(chosen, seat)
	}
	sort.SliceStable(chosen, func(i, j int) bool { return chosen[i].Column < chosen[j].Column })

	for _, seat := range chosen {
		if err := sel.Select(seat); err != nil {
			return nil, err
		}
	}
	return sel.Seats(), nil
}
