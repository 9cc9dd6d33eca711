package api

import (
	"context"

	"github.com/diagnosis/pakbooking/internal/domain"
)

type Notifications struct {
	r Requester
}

func (n *Notifications) List(ctx context.Context, f domain.NotificationFilter) (domain.Page[domain.Notification], error) {
	var out domain.Page[domain.Notification]
	err := get(ctx, n.r, "/notifications/notifications/", f, &out)
	return out, err
}

func (n *Notifications) UnreadCount(ctx context.Context) (int, error) {
	var out domain.UnreadCount
	if err := get(ctx, n.r, "/notifications/notifications/unread_count/", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func (n *Notifications) MarkRead(ctx context.Context, id domain.ID) error {
	return post(ctx, n.r, resourcePath("/notifications/notifications", id, "mark_read"), nil, nil)
}

func (n *Notifications) MarkAllRead(ctx context.Context) error {
	return post(ctx, n.r, "/notifications/notifications/mark_all_read/", nil, nil)
}

func (n *Notifications) Delete(ctx context.Context, id domain.ID) error {
	return del(ctx, n.r, resourcePath("/notifications/notifications", id))
}

func (n *Notifications) StatusHistory(ctx context.Context, bookingID domain.ID) ([]domain.StatusHistory, error) {
	var out domain.Page[domain.StatusHistory]
	if err := get(ctx, n.r, resourcePath("/notifications/booking-status", bookingID, "status_history"), nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// UpdateBookingStatus is a staff action.
func (n *Notifications) UpdateBookingStatus(ctx context.Context, bookingID domain.ID, u domain.StatusUpdate) (domain.Booking, error) {
	var out domain.Booking
	err := post(ctx, n.r, resourcePath("/notifications/booking-status", bookingID, "update_status"), u, &out)
	return out, err
}
