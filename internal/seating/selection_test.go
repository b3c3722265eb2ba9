package seating

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/model"
)

func seat(row string, col int) model.Seat {
	return model.Seat{ID: fmt.Sprintf("%s%d", row, col), ScreenID: "scr", Row: row, Column: col}
}

func heldSeat(row string, col int, by string) model.Seat {
	s := seat(row, col)
	s.UserID = &by
	return s
}

func screenSeats() []model.Seat {
	seats := Grid("scr", Rows, Columns)
	for i := range seats {
		seats[i].ID = seats[i].Label()
	}
	return seats
}

func TestSectionOf(t *testing.T) {
	for col := 1; col <= 4; col++ {
		assert.Equal(t, SectionLeft, SectionOf(col))
	}
	for col := 5; col <= 8; col++ {
		assert.Equal(t, SectionCenter, SectionOf(col))
	}
	for col := 9; col <= 12; col++ {
		assert.Equal(t, SectionRight, SectionOf(col))
	}
}

func TestNewSelection_Quantity(t *testing.T) {
	_, err := NewSelection(0, 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = NewSelection(5, 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = NewSelection(3, 2)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	sel, err := NewSelection(4, 96)
	require.NoError(t, err)
	assert.Equal(t, 4, sel.Quantity())
	assert.False(t, sel.Complete())
}

func TestSelection_AdjacencyScenario(t *testing.T) {
	sel, err := NewSelection(3, 12)
	require.NoError(t, err)

	require.NoError(t, sel.Select(seat("B", 5)))
	require.NoError(t, sel.Select(seat("B", 6)))

	err = sel.Select(seat("B", 8))
	assert.ErrorIs(t, err, apperr.ErrConstraintViolation)
	assert.Equal(t, 2, sel.Len())

	require.NoError(t, sel.Select(seat("B", 7)))
	assert.True(t, sel.Complete())

	labels := []string{}
	for _, s := range sel.Seats() {
		labels = append(labels, s.Label())
	}
	assert.Equal(t, []string{"B5", "B6", "B7"}, labels)

	err = sel.Select(seat("B", 8))
	assert.ErrorIs(t, err, apperr.ErrConstraintViolation)
}

func TestSelection_RowAndSectionLock(t *testing.T) {
	sel, err := NewSelection(4, 96)
	require.NoError(t, err)
	require.NoError(t, sel.Select(seat("C", 4)))
	assert.Equal(t, "C", sel.Row())
	assert.Equal(t, SectionLeft, sel.Section())

	assert.ErrorIs(t, sel.Select(seat("D", 3)), apperr.ErrConstraintViolation)
	// C5 is adjacent but in the center section.
	assert.ErrorIs(t, sel.Select(seat("C", 5)), apperr.ErrConstraintViolation)
	require.NoError(t, sel.Select(seat("C", 3)))
}

func TestSelection_HeldSeatRejected(t *testing.T) {
	sel, err := NewSelection(2, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, sel.Select(heldSeat("A", 1, "someone")), apperr.ErrConstraintViolation)
	assert.Equal(t, 0, sel.Len())
	assert.Equal(t, "", sel.Row())
}

func TestSelection_DeselectKeepsLockUntilEmpty(t *testing.T) {
	sel, err := NewSelection(2, 96)
	require.NoError(t, err)
	require.NoError(t, sel.Select(seat("E", 10)))
	require.NoError(t, sel.Select(seat("E", 11)))

	require.NoError(t, sel.Toggle(seat("E", 11)))
	assert.Equal(t, "E", sel.Row())
	assert.Equal(t, SectionRight, sel.Section())
	assert.ErrorIs(t, sel.Select(seat("F", 10)), apperr.ErrConstraintViolation)

	require.NoError(t, sel.Deselect("E10"))
	assert.Equal(t, "", sel.Row())
	assert.Equal(t, Section(""), sel.Section())

	require.NoError(t, sel.Select(seat("F", 2)))
	assert.Equal(t, SectionLeft, sel.Section())
}

func TestSelection_DeselectInteriorRejected(t *testing.T) {
	sel, err := NewSelection(3, 96)
	require.NoError(t, err)
	for _, c := range []int{6, 7, 8} {
		require.NoError(t, sel.Select(seat("A", c)))
	}
	assert.ErrorIs(t, sel.Deselect("A7"), apperr.ErrConstraintViolation)
	assert.Equal(t, 3, sel.Len())
	assert.ErrorIs(t, sel.Deselect("A1"), apperr.ErrConstraintViolation)
	require.NoError(t, sel.Deselect("A6"))
	assert.Equal(t, 2, sel.Len())
}

// Random toggles over a screen with held seats never produce a selection
// that spans rows or sections or has a gap.
func TestSelection_RandomWalkKeepsShape(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		seats := screenSeats()
		for i := range seats {
			if rng.Intn(4) == 0 {
				u := "other"
				seats[i].UserID = &u
			}
		}
		quantity := 1 + rng.Intn(MaxSeatsPerPurchase)
		sel, err := NewSelection(quantity, CountAvailable(seats))
		require.NoError(t, err)

		for step := 0; step < 60; step++ {
			_ = sel.Toggle(seats[rng.Intn(len(seats))])
			assertShape(t, sel)
		}
	}
}

func assertShape(t *testing.T, sel *Selection) {
	t.Helper()
	picked := sel.Seats()
	require.LessOrEqual(t, len(picked), sel.Quantity())
	for i, s := range picked {
		require.True(t, s.Available())
		require.Equal(t, picked[0].Row, s.Row)
		require.Equal(t, SectionOf(picked[0].Column), SectionOf(s.Column))
		if i > 0 {
			require.Equal(t, picked[i-1].Column+1, s.Column)
		}
	}
}

func TestValidateSelection(t *testing.T) {
	seats := screenSeats()

	got, err := ValidateSelection(seats, []string{"B7", "B5", "B6"}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "B5", got[0].Label())
	assert.Equal(t, "B7", got[2].Label())

	_, err = ValidateSelection(seats, []string{"B5", "B6"}, 3)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = ValidateSelection(seats, []string{"B5", "B5"}, 2)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = ValidateSelection(seats, []string{"B5", "Z99"}, 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = ValidateSelection(seats, []string{"B5", "B8"}, 2)
	assert.ErrorIs(t, err, apperr.ErrConstraintViolation)

	_, err = ValidateSelection(seats, []string{"B4", "B5"}, 2)
	assert.ErrorIs(t, err, apperr.ErrConstraintViolation)

	_, err = ValidateSelection(seats, []string{"B5", "C5"}, 2)
	assert.ErrorIs(t, err, apperr.ErrConstraintViolation)

	u := "other"
	seats[1].UserID = &u // A2
	_, err = ValidateSelection(seats, []string{"A1", "A2"}, 2)
	assert.ErrorIs(t, err, apperr.ErrConstraintViolation)
}

func TestPartition(t *testing.T) {
	seats := screenSeats()
	// shuffle order to make sure Partition sorts
	rand.New(rand.NewSource(1)).Shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })
	seats[0].UserID = new(string)

	layout := Partition(seats)
	require.Len(t, layout.Rows, Rows)
	assert.Equal(t, 96, layout.Total)
	assert.Equal(t, 95, layout.Available)
	assert.Equal(t, "A", layout.Rows[0].Label)
	assert.Equal(t, "H", layout.Rows[7].Label)
	for _, r := range layout.Rows {
		require.Len(t, r.Left, 4)
		require.Len(t, r.Center, 4)
		require.Len(t, r.Right, 4)
		assert.Equal(t, 1, r.Left[0].Column)
		assert.Equal(t, 5, r.Center[0].Column)
		assert.Equal(t, 12, r.Right[3].Column)
	}
}

func TestRowLabel(t *testing.T) {
	assert.Equal(t, "A", RowLabel(0))
	assert.Equal(t, "H", RowLabel(7))
	assert.Equal(t, "Z", RowLabel(25))
	assert.Equal(t, "AA", RowLabel(26))
}
