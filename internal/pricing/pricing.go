// Package pricing computes order totals.  Every amount the buyer sees or
// pays (payment line items, the quote endpoint, the printed ticket) comes
// from the table in this file.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/model"
)

// SeatPrice is the price of one seat.
var SeatPrice = decimal.RequireFromString("4.00")

var surcharges = map[model.Bundle]decimal.Decimal{
	model.BundleNone:    decimal.Zero,
	model.BundleBasic:   decimal.RequireFromString("5.00"),
	model.BundlePremium: decimal.RequireFromString("10.00"),
	model.BundleVIP:     decimal.RequireFromString("15.00"),
}

// Surcharge returns the flat price of a bundle.
func Surcharge(b model.Bundle) (decimal.Decimal, error) {
	s, ok := surcharges[b]
	if !ok {
		return decimal.Zero, apperr.Wrap(apperr.ErrInvalidArgument, "unknown bundle %q", string(b))
	}
	return s, nil
}

// Quote is the itemized price of an order.
type Quote struct {
	SeatCount       int             `json:"seat_count"`
	SeatPrice       decimal.Decimal `json:"seat_price"`
	SeatSubtotal    decimal.Decimal `json:"seat_subtotal"`
	Bundle          model.Bundle    `json:"bundle,omitempty"`
	BundleSurcharge decimal.Decimal `json:"bundle_surcharge"`
	Total           decimal.Decimal `json:"total"`
}

// NewQuote prices seatCount seats plus an optional bundle.
func NewQuote(seatCount int, b model.Bundle) (Quote, error) {
	if seatCount <= 0 {
		return Quote{}, apperr.Wrap(apperr.ErrInvalidArgument, "seat count must be positive, got %d", seatCount)
	}
	surcharge, err := Surcharge(b)
	if err != nil {
		return Quote{}, err
	}
	subtotal := SeatPrice.Mul(decimal.NewFromInt(int64(seatCount)))
	return Quote{
		SeatCount:       seatCount,
		SeatPrice:       SeatPrice,
		SeatSubtotal:    subtotal.Round(2),
		Bundle:          b,
		BundleSurcharge: surcharge.Round(2),
		Total:           subtotal.Add(surcharge).Round(2),
	}, nil
}

// Price returns seatCount * SeatPrice + Surcharge(b) rounded to cents.
func Price(seatCount int, b model.Bundle) (decimal.Decimal, error) {
	q, err := NewQuote(seatCount, b)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Total, nil
}

// Cents converts an amount to the smallest currency unit.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
