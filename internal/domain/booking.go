package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingRefunded  BookingStatus = "refunded"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted, BookingRefunded:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

type PaymentStatus string

const (
	PaymentUnpaid     PaymentStatus = "unpaid"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentFailed     PaymentStatus = "failed"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentUnpaid, PaymentProcessing, PaymentPaid, PaymentRefunded, PaymentFailed:
		return PaymentStatus(s), true
	default:
		return "", false
	}
}

// Booking is owned by the server. The client only interprets Status and
// PaymentStatus, to decide which actions to offer.
type Booking struct {
	ID              ID               `json:"id"`
	Property        ID               `json:"property"`
	PropertyDetails *Property        `json:"property_details,omitempty"`
	User            ID               `json:"user,omitempty"`
	CheckIn         Date             `json:"check_in"`
	CheckOut        Date             `json:"check_out"`
	Guests          int              `json:"guests"`
	Nights          int              `json:"nights,omitempty"`
	TotalPrice      decimal.Decimal  `json:"total_price"`
	ContactPhone    string           `json:"contact_phone"`
	ContactEmail    string           `json:"contact_email"`
	SpecialRequests string           `json:"special_requests"`
	Status          BookingStatus    `json:"status"`
	PaymentStatus   PaymentStatus    `json:"payment_status"`
	PaymentID       string           `json:"payment_id,omitempty"`
	RefundAmount    *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundStatus    string           `json:"refund_status,omitempty"`
	CancellationFee *decimal.Decimal `json:"cancellation_fee,omitempty"`
	Confirmed       bool             `json:"confirmed,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// IsTerminal reports whether no further status transition is possible.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingCancelled, BookingCompleted, BookingRefunded:
		return true
	}
	return false
}

// CanCancel mirrors the server rule: cancelled, completed and refunded
// bookings cannot be cancelled.
func (b *Booking) CanCancel() bool {
	return !b.IsTerminal()
}

// CanPay reports whether a payment submission makes sense for this booking.
func (b *Booking) CanPay() bool {
	if b.IsTerminal() {
		return false
	}
	return b.PaymentStatus == PaymentUnpaid || b.PaymentStatus == PaymentFailed || b.PaymentStatus == ""
}

// CanComplete mirrors the server rule: only confirmed bookings complete.
func (b *Booking) CanComplete() bool {
	return b.Status == BookingConfirmed
}

// BookingDraft is assembled interactively and submitted once.
type BookingDraft struct {
	PropertyID      ID     `json:"property"`
	CheckIn         Date   `json:"check_in"`
	CheckOut        Date   `json:"check_out"`
	Guests          int    `json:"guests"`
	ContactPhone    string `json:"contact_phone,omitempty"`
	ContactEmail    string `json:"contact_email,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type BookingFilter struct {
	Status        BookingStatus `url:"status,omitempty"`
	PaymentStatus PaymentStatus `url:"payment_status,omitempty"`
	Page          int           `url:"page,omitempty"`
	PageSize      int           `url:"page_size,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelResult carries the refund terms computed by the server.
type CancelResult struct {
	Detail          string           `json:"detail"`
	RefundAmount    *decimal.Decimal `json:"refund_amount,omitempty"`
	DeductionAmount *decimal.Decimal `json:"deduction_amount,omitempty"`
	Booking         *Booking         `json:"booking,omitempty"`
}

type StatusHistory struct {
	ID              ID               `json:"id"`
	OldStatus       string           `json:"old_status"`
	NewStatus       string           `json:"new_status"`
	ChangedByName   string           `json:"changed_by_name"`
	Reason          string           `json:"reason"`
	RefundAmount    *decimal.Decimal `json:"refund_amount,omitempty"`
	DeductionAmount *decimal.Decimal `json:"deduction_amount,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

type StatusUpdate struct {
	Status     BookingStatus `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	AdminNotes string        `json:"admin_notes,omitempty"`
}

type ConfirmationChannel string

const (
	ConfirmByEmail    ConfirmationChannel = "email"
	ConfirmByWhatsApp ConfirmationChannel = "whatsapp"
	ConfirmByBoth     ConfirmationChannel = "both"
)
