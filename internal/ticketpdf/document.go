// Package ticketpdf builds the printable confirmation of a verified
// ticket.  Build assembles a Document from the ticket and catalog
// metadata; Render turns a Document into PDF bytes.  The two steps are
// separate so the content can be checked without parsing a PDF.
package ticketpdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/model"
	"github.com/iliyamo/theater-tickets/internal/pricing"
)

// Metadata is the catalog information printed on a ticket.
type Metadata struct {
	Title             string
	RuntimeMinutes    int
	Language          string
	Poster            []byte
	PosterContentType string
}

// Document is everything printed on a ticket, already formatted.
type Document struct {
	BuyerName   string
	TicketID    string
	PurchasedAt time.Time

	Title    string
	Runtime  string
	Language string

	Poster     []byte
	PosterType string // fpdf image type: "PNG", "JPG" or "GIF"

	Room     string
	Date     string
	Showtime string
	Bundle   string
	Seats    string
	Summary  string

	Quote     pricing.Quote
	QRContent string
}

// Build formats t for printing.  Only verified tickets with at least one
// seat can be printed.
func Build(t model.Ticket, meta Metadata, buyerName, baseURL string) (Document, error) {
	if !t.Verified {
		return Document{}, apperr.Wrap(apperr.ErrConstraintViolation, "ticket %s is not paid", t.ID)
	}
	if len(t.Seats) == 0 {
		return Document{}, apperr.Wrap(apperr.ErrConstraintViolation, "ticket %s has no seats", t.ID)
	}
	quote, err := pricing.NewQuote(len(t.Seats), t.Bundle)
	if err != nil {
		return Document{}, err
	}
	posterType, err := imageType(meta.PosterContentType)
	if err != nil {
		return Document{}, err
	}

	labels := make([]string, 0, len(t.Seats))
	for _, s := range t.Seats {
		labels = append(labels, s.Label())
	}
	room := ""
	if t.Room != nil {
		room = RoomLabel(t.Room.Name)
	}

	return Document{
		BuyerName:   buyerName,
		TicketID:    t.ID,
		PurchasedAt: t.CreatedAt.UTC(),
		Title:       meta.Title,
		Runtime:     Runtime(meta.RuntimeMinutes),
		Language:    strings.ToUpper(meta.Language),
		Poster:      meta.Poster,
		PosterType:  posterType,
		Room:        room,
		Date:        t.Date.Format("2006-01-02"),
		Showtime:    t.Showtime,
		Bundle:      t.Bundle.Display(),
		Seats:       strings.Join(labels, ", "),
		Summary:     fmt.Sprintf("%d %s; $%s", len(labels), plural(len(labels), "seat"), quote.SeatSubtotal.StringFixed(2)),
		Quote:       quote,
		QRContent:   TicketURL(baseURL, t.ID),
	}, nil
}

// TicketURL is the address encoded in the QR code.
func TicketURL(baseURL, ticketID string) string {
	return strings.TrimRight(baseURL, "/") + "/tickets/" + ticketID
}

// Runtime formats minutes as "2h 5m".
func Runtime(minutes int) string {
	if minutes <= 0 {
		return "N/A"
	}
	h, m := minutes/60, minutes%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// RoomLabel turns a stored room name such as "room_1" into "ROOM 1".
func RoomLabel(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "_", " "))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func imageType(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/png"):
		return "PNG", nil
	case strings.HasPrefix(ct, "image/jpeg"), strings.HasPrefix(ct, "image/jpg"):
		return "JPG", nil
	case strings.HasPrefix(ct, "image/gif"):
		return "GIF", nil
	}
	return "", apperr.Wrap(apperr.ErrDependencyUnavailable, "unsupported poster content type %q", contentType)
}
