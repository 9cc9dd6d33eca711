package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/internal/utils"
	"github.com/diagnosis/pakbooking/pkg/logger"
)

var (
	ErrLoginRequired = errors.New("sign in to book")
	ErrNotAvailable  = errors.New("the selected dates are not available")
	ErrInvalidEmail  = errors.New("contact email is not valid")
	ErrInvalidPhone  = errors.New("contact phone is not valid")
)

type Authenticator interface {
	IsAuthenticated() bool
}

type Creator interface {
	Create(ctx context.Context, d domain.BookingDraft, idempotencyKey string) (domain.Booking, error)
	PublishSubmitted(ctx context.Context, b domain.Booking, idempotencyKey string)
}

// Contact is the part of a draft the guest types in.
type Contact struct {
	Phone           string
	Email           string
	SpecialRequests string
}

// Validate normalizes the contact fields in place. Both are optional.
func (c *Contact) Validate() error {
	if c.Email != "" {
		if !utils.IsValidEmail(c.Email) {
			return ErrInvalidEmail
		}
		c.Email = utils.NormalizeEmail(c.Email)
	}
	if c.Phone != "" {
		if !utils.IsValidPhone(c.Phone) {
			return ErrInvalidPhone
		}
		c.Phone = utils.NormalizePhone(c.Phone)
	}
	c.SpecialRequests = strings.TrimSpace(c.SpecialRequests)
	return nil
}

type Submitter struct {
	auth    Authenticator
	creator Creator
}

func NewSubmitter(auth Authenticator, creator Creator) *Submitter {
	return &Submitter{auth: auth, creator: creator}
}

// Submit books the quoter's current quote. Nothing is sent unless the user
// is signed in and the current quote says the stay is available.
func (s *Submitter) Submit(ctx context.Context, q *Quoter, c Contact) (domain.Booking, error) {
	if !s.auth.IsAuthenticated() {
		return domain.Booking{}, ErrLoginRequired
	}
	quote, ok := q.Current()
	if !ok || !quote.Available() {
		return domain.Booking{}, ErrNotAvailable
	}
	if err := c.Validate(); err != nil {
		return domain.Booking{}, err
	}

	draft := domain.BookingDraft{
		PropertyID:      quote.Stay.PropertyID,
		CheckIn:         quote.Stay.CheckIn,
		CheckOut:        quote.Stay.CheckOut,
		Guests:          quote.Stay.Guests,
		ContactPhone:    c.Phone,
		ContactEmail:    c.Email,
		SpecialRequests: c.SpecialRequests,
	}

	logger.InfoContext(ctx, "Submitting booking",
		"property_id", draft.PropertyID,
		"check_in", draft.CheckIn,
		"check_out", draft.CheckOut,
		"guests", draft.Guests,
		"phone", utils.MaskPhone(draft.ContactPhone),
	)

	b, err := s.creator.Create(ctx, draft, quote.IdempotencyKey)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	s.creator.PublishSubmitted(ctx, b, quote.IdempotencyKey)
	return b, nil
}
