package domain

import "time"

type NotificationType string

const (
	NotifyBookingConfirmed    NotificationType = "booking_confirmed"
	NotifyBookingCancelled    NotificationType = "booking_cancelled"
	NotifyBookingPending      NotificationType = "booking_pending"
	NotifyBookingCompleted    NotificationType = "booking_completed"
	NotifyBookingRefunded     NotificationType = "booking_refunded"
	NotifyPaymentReceived     NotificationType = "payment_received"
	NotifyPaymentFailed       NotificationType = "payment_failed"
	NotifyCancellationRequest NotificationType = "cancellation_request"
)

type Notification struct {
	ID             ID               `json:"id"`
	User           ID               `json:"user"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"notification_type"`
	IsRead         bool             `json:"is_read"`
	BookingDetails *Booking         `json:"booking_details,omitempty"`
	TimeAgo        string           `json:"time_ago"`
	CreatedAt      time.Time        `json:"created_at"`
}

type NotificationFilter struct {
	IsRead   *bool  `url:"is_read,omitempty"`
	Type     string `url:"type,omitempty"`
	Page     int    `url:"page,omitempty"`
	PageSize int    `url:"page_size,omitempty"`
}

type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}
