package api

import (
	"context"

	"github.com/diagnosis/pakbooking/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the signed-in user's overview.
type Dashboard struct {
	Bookings      []domain.Booking
	Notifications []domain.Notification
	Unread        int
}

// Dashboard fetches bookings, unread notifications and the unread count
// concurrently. The first failure cancels the rest.
func (a *API) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		page, err := a.Bookings.List(gctx, domain.BookingFilter{})
		if err != nil {
			return err
		}
		d.Bookings = page.Results
		return nil
	})

	g.Go(func() error {
		unread := false
		page, err := a.Notifications.List(gctx, domain.NotificationFilter{IsRead: &unread})
		if err != nil {
			return err
		}
		d.Notifications = page.Results
		return nil
	})

	g.Go(func() error {
		n, err := a.Notifications.UnreadCount(gctx)
		if err != nil {
			return err
		}
		d.Unread = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
