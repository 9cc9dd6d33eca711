// Package booking decides whether a candidate stay can be booked and what
// it costs, and submits it once the answer is known.
package booking

import (
	"errors"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/shopspring/decimal"
)

// TaxRate is applied to the base price by the local estimate.
var TaxRate = decimal.RequireFromString("0.05")

var (
	ErrIncompleteStay   = errors.New("property, check-in, check-out and guests are required")
	ErrInvalidRange     = errors.New("check-out must be after check-in")
	ErrGuestsOutOfRange = errors.New("guest count is outside what the property allows")
)

// Nights counts calendar nights between in and out, never less than 1.
func Nights(in, out domain.Date) int {
	if n := in.DaysUntil(out); n > 1 {
		return n
	}
	return 1
}

// Estimate is the local fallback price used when the backend cannot
// calculate one.
func Estimate(in, out domain.Date, rate decimal.Decimal) domain.PriceCalculation {
	nights := Nights(in, out)
	base := rate.Mul(decimal.NewFromInt(int64(nights)))
	taxes := base.Mul(TaxRate).Round(2)
	return domain.PriceCalculation{
		Nights:        nights,
		BasePrice:     base,
		Taxes:         taxes,
		TotalPrice:    base.Add(taxes),
		PricePerNight: rate,
	}
}

// Stay is the selection a quote is computed for.
type Stay struct {
	PropertyID domain.ID
	CheckIn    domain.Date
	CheckOut   domain.Date
	Guests     int
}

// Equal compares by value; it is the identity used to discard stale
// responses.
func (s Stay) Equal(o Stay) bool {
	return s.PropertyID == o.PropertyID &&
		s.CheckIn.Equal(o.CheckIn) &&
		s.CheckOut.Equal(o.CheckOut) &&
		s.Guests == o.Guests
}

// Validate rejects a stay that must not be sent. Guest counts above
// maxGuests are an error, not clamped. A maxGuests of 0 means unknown and
// only the lower bound is checked.
func (s Stay) Validate(maxGuests int) error {
	if s.PropertyID.IsZero() || s.CheckIn.IsZero() || s.CheckOut.IsZero() || s.Guests == 0 {
		return ErrIncompleteStay
	}
	if !s.CheckOut.After(s.CheckIn) {
		return ErrInvalidRange
	}
	if s.Guests < 1 || (maxGuests > 0 && s.Guests > maxGuests) {
		return ErrGuestsOutOfRange
	}
	return nil
}

func (s Stay) priceRequest() domain.PriceRequest {
	return domain.PriceRequest{
		PropertyID: s.PropertyID,
		CheckIn:    s.CheckIn,
		CheckOut:   s.CheckOut,
		Guests:     s.Guests,
	}
}
