package domain

import "github.com/shopspring/decimal"

type DashboardStats struct {
	TotalUsers        int             `json:"total_users"`
	TotalProperties   int             `json:"total_properties"`
	TotalBookings     int             `json:"total_bookings"`
	PendingBookings   int             `json:"pending_bookings"`
	ConfirmedBookings int             `json:"confirmed_bookings"`
	CancelledBookings int             `json:"cancelled_bookings"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	RecentBookings    []Booking       `json:"recent_bookings,omitempty"`
}

type AdminFilter struct {
	Status        string `url:"status,omitempty"`
	PaymentStatus string `url:"payment_status,omitempty"`
	IsActive      *bool  `url:"is_active,omitempty"`
	Page          int    `url:"page,omitempty"`
	PageSize      int    `url:"page_size,omitempty"`
}

type UserPatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	IsStaff   *bool   `json:"is_staff,omitempty"`
}

type PropertyPatch struct {
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	PricePerNight *decimal.Decimal `json:"price_per_night,omitempty"`
	MaxGuests     *int             `json:"max_guests,omitempty"`
	IsAvailable   *bool            `json:"is_available,omitempty"`
}

type BookingPatch struct {
	Status        *BookingStatus `json:"status,omitempty"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
}

type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason,omitempty"`
}
