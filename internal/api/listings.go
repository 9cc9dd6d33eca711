package api

import (
	"context"
	"net/url"

	"github.com/diagnosis/pakbooking/internal/domain"
)

type Listings struct {
	r Requester
}

func (l *Listings) List(ctx context.Context, f domain.PropertyFilter) (domain.Page[domain.Property], error) {
	var out domain.Page[domain.Property]
	err := get(ctx, l.r, "/listings/", f, &out)
	return out, err
}

func (l *Listings) Get(ctx context.Context, id domain.ID) (domain.Property, error) {
	var out domain.Property
	err := get(ctx, l.r, resourcePath("/listings", id), nil, &out)
	return out, err
}

func (l *Listings) Search(ctx context.Context, q string) (domain.Page[domain.Property], error) {
	var out domain.Page[domain.Property]
	err := get(ctx, l.r, "/properties/search/", url.Values{"q": {q}}, &out)
	return out, err
}

func (l *Listings) Featured(ctx context.Context) ([]domain.Property, error) {
	var out domain.Page[domain.Property]
	if err := get(ctx, l.r, "/properties/featured/", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Availability asks whether the property is free for [in, out).
func (l *Listings) Availability(ctx context.Context, property domain.ID, in, out domain.Date) (domain.Availability, error) {
	var av domain.Availability
	q := domain.AvailabilityQuery{Property: property, CheckIn: in, CheckOut: out}
	err := get(ctx, l.r, "/bookings/availability/", q, &av)
	return av, err
}
