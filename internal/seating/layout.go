// Package seating implements the seat picker rules: the left/center/right
// split of a screen and the per-purchase selection constraints (one row,
// one section, contiguous columns, at most four seats).
package seating

import (
	"sort"

	"github.com/iliyamo/theater-tickets/internal/model"
)

// Section is one of the three column groups of a screen.
type Section string

const (
	SectionLeft   Section = "left"
	SectionCenter Section = "center"
	SectionRight  Section = "right"
)

const (
	// Rows and Columns describe the grid generated for a new screen.
	Rows    = 8
	Columns = 12

	// MaxSeatsPerPurchase caps the quantity of a single checkout.
	MaxSeatsPerPurchase = 4
)

// SectionOf maps a 1-based column to its section: 1-4 left, 5-8 center,
// 9 and above right.
func SectionOf(column int) Section {
	switch {
	case column < 5:
		return SectionLeft
	case column < 9:
		return SectionCenter
	default:
		return SectionRight
	}
}

// Row groups the seats of one row label by section, each slice ordered by
// column.
type Row struct {
	Label  string       `json:"row"`
	Left   []model.Seat `json:"left"`
	Center []model.Seat `json:"center"`
	Right  []model.Seat `json:"right"`
}

// Layout is a screen's seat map, rows ordered by label.
type Layout struct {
	Rows      []Row `json:"rows"`
	Available int   `json:"available"`
	Total     int   `json:"total"`
}

// Partition arranges seats into rows and sections.  The input order does
// not matter.
func Partition(seats []model.Seat) Layout {
	sorted := make([]model.Seat, len(seats))
	copy(sorted, seats)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return rowLess(sorted[i].Row, sorted[j].Row)
		}
		return sorted[i].Column < sorted[j].Column
	})

	out := Layout{Total: len(sorted)}
	for _, s := range sorted {
		if s.Available() {
			out.Available++
		}
		if len(out.Rows) == 0 || out.Rows[len(out.Rows)-1].Label != s.Row {
			out.Rows = append(out.Rows, Row{Label: s.Row, Left: []model.Seat{}, Center: []model.Seat{}, Right: []model.Seat{}})
		}
		r := &out.Rows[len(out.Rows)-1]
		switch SectionOf(s.Column) {
		case SectionLeft:
			r.Left = append(r.Left, s)
		case SectionCenter:
			r.Center = append(r.Center, s)
		default:
			r.Right = append(r.Right, s)
		}
	}
	return out
}

// CountAvailable returns how many seats nobody holds.
func CountAvailable(seats []model.Seat) int {
	n := 0
	for _, s := range seats {
		if s.Available() {
			n++
		}
	}
	return n
}

// RowLabel converts a zero-based index into a row label: 0 -> A, 25 -> Z,
// 26 -> AA.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// Grid builds the seats of a new screen, rows A.. by columns 1..cols.
// IDs are left empty for the caller to assign.
func Grid(screenID string, rows, cols int) []model.Seat {
	seats := make([]model.Seat, 0, rows*cols)
	for r := 0; r < rows; r++ {
		label := RowLabel(r)
		for c := 1; c <= cols; c++ {
			seats = append(seats, model.Seat{ScreenID: screenID, Row: label, Column: c})
		}
	}
	return seats
}

// rowLess orders "B" before "AA".
func rowLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
