package ticketpdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRCode returns a PNG of content.
func QRCode(content string, size int) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return qr.PNG(size)
}

// Render lays doc out on a single A5 page.  Document dates are taken from
// the purchase time rather than the wall clock.
func Render(doc Document) ([]byte, error) {
	qr, err := QRCode(doc.QRContent, qrSize)
	if err != nil {
		return nil, fmt.Errorf("ticketpdf: qr code: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.PurchasedAt)
	pdf.SetModificationDate(doc.PurchasedAt)
	pdf.SetTitle("Ticket "+doc.TicketID, true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s  |  %s", doc.Runtime, doc.Language), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	top := pdf.GetY()
	if len(doc.Poster) > 0 {
		opt := fpdf.ImageOptions{ImageType: doc.PosterType}
		pdf.RegisterImageOptionsReader("poster", opt, bytes.NewReader(doc.Poster))
		pdf.ImageOptions("poster", 10, top, 40, 0, false, opt, 0, "")
	}

	rows := [][2]string{
		{"Ticket", doc.TicketID},
		{"Buyer", doc.BuyerName},
		{"Purchased", doc.PurchasedAt.Format("2006-01-02 15:04 UTC")},
		{"Room", doc.Room},
		{"Date", doc.Date},
		{"Showtime", doc.Showtime},
		{"Seats", doc.Seats},
		{"Bundle", doc.Bundle},
	}
	pdf.SetXY(55, top)
	for _, r := range rows {
		pdf.SetX(55)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(25, 6, r[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(r[1]), "", 1, "L", false, 0, "")
	}

	pdf.SetXY(10, top+65)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Price", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	q := doc.Quote
	pdf.CellFormat(100, 6, doc.Summary, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "$"+q.SeatSubtotal.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(100, 6, doc.Bundle, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "$"+q.BundleSurcharge.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(100, 7, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, "$"+q.Total.StringFixed(2), "T", 1, "R", false, 0, "")

	qrOpt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", qrOpt, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 49, pdf.GetY()+6, 50, 50, false, qrOpt, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("ticketpdf: layout: %w", err)
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("ticketpdf: output: %w", err)
	}
	return out.Bytes(), nil
}
