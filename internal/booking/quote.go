package booking

import (
	"context"
	"errors"
	"sync"

	"github.com/diagnosis/pakbooking/internal/apiclient"
	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrStale is returned by Update when the selection changed while the
// request was in flight. The result was discarded.
var ErrStale = errors.New("selection changed before the quote arrived")

type AvailabilityChecker interface {
	Availability(ctx context.Context, property domain.ID, in, out domain.Date) (domain.Availability, error)
}

type PriceCalculator interface {
	CalculatePrice(ctx context.Context, p domain.PriceRequest) (domain.PriceCalculation, error)
}

// Quote is the outcome of one Update.
type Quote struct {
	Stay         Stay
	Availability domain.Availability
	// Price is nil when the stay is not available.
	Price *domain.PriceCalculation
	// Estimated is set when Price came from the local fallback.
	Estimated bool
	// IdempotencyKey identifies a submission of exactly this quote, so a
	// retried submit is recognised by the backend.
	IdempotencyKey string
}

func (q Quote) Available() bool { return q.Availability.Available }

// Quoter tracks the current selection for one property and the quote that
// matches it. Responses for anything but the current selection are
// dropped, whatever order they arrive in.
type Quoter struct {
	property domain.Property
	avail    AvailabilityChecker
	prices   PriceCalculator

	mu       sync.Mutex
	selected Stay
	current  *Quote
}

func NewQuoter(p domain.Property, avail AvailabilityChecker, prices PriceCalculator) *Quoter {
	return &Quoter{property: p, avail: avail, prices: prices}
}

func (q *Quoter) Property() domain.Property { return q.property }

// Update makes stay the current selection and computes its quote:
// availability first, then the backend price when available, falling back to
// Estimate if the price call fails with a network or server error.
func (q *Quoter) Update(ctx context.Context, stay Stay) (Quote, error) {
	if stay.PropertyID.IsZero() {
		stay.PropertyID = q.property.ID
	}

	q.mu.Lock()
	q.selected = stay
	q.mu.Unlock()

	if err := stay.Validate(q.property.MaxGuests); err != nil {
		return Quote{}, err
	}

	av, err := q.avail.Availability(ctx, stay.PropertyID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		if !q.isSelected(stay) {
			return Quote{}, ErrStale
		}
		return Quote{}, err
	}

	quote := Quote{Stay: stay, Availability: av}
	if av.Available {
		if !q.isSelected(stay) {
			return Quote{}, ErrStale
		}
		price, err := q.price(ctx, stay, av)
		if err != nil {
			if !q.isSelected(stay) {
				return Quote{}, ErrStale
			}
			return Quote{}, err
		}
		quote.Price = &price.calc
		quote.Estimated = price.estimated
		quote.IdempotencyKey = uuid.NewString()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.selected.Equal(stay) {
		logger.DebugContext(ctx, "Discarding stale quote", "property_id", stay.PropertyID, "check_in", stay.CheckIn, "check_out", stay.CheckOut)
		return Quote{}, ErrStale
	}
	q.current = &quote
	return quote, nil
}

type priced struct {
	calc      domain.PriceCalculation
	estimated bool
}

func (q *Quoter) price(ctx context.Context, stay Stay, av domain.Availability) (priced, error) {
	calc, err := q.prices.CalculatePrice(ctx, stay.priceRequest())
	if err == nil {
		return priced{calc: calc}, nil
	}
	if !errors.Is(err, apiclient.ErrNetwork) && !errors.Is(err, apiclient.ErrServer) {
		return priced{}, err
	}

	rate := av.PricePerNight
	if rate.Equal(decimal.Zero) {
		rate = q.property.PricePerNight
	}
	logger.WarnContext(ctx, "Price calculation failed, using local estimate", "property_id", stay.PropertyID, "error", err)
	return priced{calc: Estimate(stay.CheckIn, stay.CheckOut, rate), estimated: true}, nil
}

func (q *Quoter) isSelected(stay Stay) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.selected.Equal(stay)
}

// Current returns the applied quote if it still matches the selection.
func (q *Quoter) Current() (Quote, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil || !q.current.Stay.Equal(q.selected) {
		return Quote{}, false
	}
	return *q.current, true
}
