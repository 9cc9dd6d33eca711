package api

import (
	"context"

	"github.com/diagnosis/pakbooking/internal/domain"
)

// Admin calls require a staff account; others get 403.
type Admin struct {
	r Requester
}

func (a *Admin) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	var out domain.DashboardStats
	err := get(ctx, a.r, "/admin/dashboard/", nil, &out)
	return out, err
}

func (a *Admin) Properties(ctx context.Context, f domain.AdminFilter) (domain.Page[domain.Property], error) {
	var out domain.Page[domain.Property]
	err := get(ctx, a.r, "/admin/properties/", f, &out)
	return out, err
}

func (a *Admin) UpdateProperty(ctx context.Context, id domain.ID, p domain.PropertyPatch) (domain.Property, error) {
	var out domain.Property
	err := patch(ctx, a.r, resourcePath("/admin/properties", id), p, &out)
	return out, err
}

func (a *Admin) Bookings(ctx context.Context, f domain.AdminFilter) (domain.Page[domain.Booking], error) {
	var out domain.Page[domain.Booking]
	err := get(ctx, a.r, "/admin/bookings/", f, &out)
	return out, err
}

func (a *Admin) UpdateBooking(ctx context.Context, id domain.ID, p domain.BookingPatch) (domain.Booking, error) {
	var out domain.Booking
	err := patch(ctx, a.r, resourcePath("/admin/bookings", id), p, &out)
	return out, err
}

func (a *Admin) Users(ctx context.Context, f domain.AdminFilter) (domain.Page[domain.User], error) {
	var out domain.Page[domain.User]
	err := get(ctx, a.r, "/admin/users/", f, &out)
	return out, err
}

func (a *Admin) UpdateUser(ctx context.Context, id domain.ID, p domain.UserPatch) (domain.User, error) {
	var out domain.User
	err := patch(ctx, a.r, resourcePath("/admin/users", id), p, &out)
	return out, err
}

func (a *Admin) Payments(ctx context.Context, f domain.AdminFilter) (domain.Page[domain.PaymentTransaction], error) {
	var out domain.Page[domain.PaymentTransaction]
	err := get(ctx, a.r, "/admin/payments/", f, &out)
	return out, err
}

func (a *Admin) Refund(ctx context.Context, transactionID string, req domain.RefundRequest) (domain.PaymentTransaction, error) {
	var out domain.PaymentTransaction
	err := post(ctx, a.r, resourcePath("/admin/payments", domain.ID(transactionID), "refund"), req, &out)
	return out, err
}
