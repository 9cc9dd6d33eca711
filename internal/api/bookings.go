package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/pakbooking/internal/apiclient"
	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/pkg/events"
	"github.com/diagnosis/pakbooking/pkg/logger"
)

type Bookings struct {
	r   Requester
	pub events.Publisher
}

// Create submits a draft. The idempotency key lets the backend recognise a
// resubmission of the same draft.
func (b *Bookings) Create(ctx context.Context, d domain.BookingDraft, idempotencyKey string) (domain.Booking, error) {
	req := apiclient.Request{Method: http.MethodPost, Path: "/bookings/", Body: d}
	if idempotencyKey != "" {
		req.Header = http.Header{"Idempotency-Key": {idempotencyKey}}
	}
	var out domain.Booking
	err := b.r.Do(ctx, req, &out)
	return out, err
}

func (b *Bookings) List(ctx context.Context, f domain.BookingFilter) (domain.Page[domain.Booking], error) {
	var out domain.Page[domain.Booking]
	err := get(ctx, b.r, "/bookings/", f, &out)
	return out, err
}

func (b *Bookings) Get(ctx context.Context, id domain.ID) (domain.Booking, error) {
	var out domain.Booking
	err := get(ctx, b.r, resourcePath("/bookings", id), nil, &out)
	return out, err
}

func (b *Bookings) Cancel(ctx context.Context, id domain.ID, reason string) (domain.CancelResult, error) {
	var out domain.CancelResult
	if err := post(ctx, b.r, resourcePath("/bookings", id, "cancel"), domain.CancelRequest{Reason: reason}, &out); err != nil {
		return out, err
	}

	b.publish(ctx, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:   id.String(),
		Reason:      reason,
		CancelledAt: time.Now().UTC(),
	})
	return out, nil
}

func (b *Bookings) action(ctx context.Context, id domain.ID, action string) (domain.Booking, error) {
	var out domain.Booking
	err := post(ctx, b.r, resourcePath("/bookings", id, action), nil, &out)
	return out, err
}

func (b *Bookings) UserConfirm(ctx context.Context, id domain.ID) (domain.Booking, error) {
	return b.action(ctx, id, "user_confirm")
}

func (b *Bookings) UserComplete(ctx context.Context, id domain.ID) (domain.Booking, error) {
	return b.action(ctx, id, "user_complete")
}

// Confirm, Complete and AdminCancel require a staff account.
func (b *Bookings) Confirm(ctx context.Context, id domain.ID) (domain.Booking, error) {
	return b.action(ctx, id, "confirm")
}

func (b *Bookings) Complete(ctx context.Context, id domain.ID) (domain.Booking, error) {
	return b.action(ctx, id, "complete")
}

func (b *Bookings) AdminCancel(ctx context.Context, id domain.ID) (domain.CancelResult, error) {
	var out domain.CancelResult
	err := post(ctx, b.r, resourcePath("/bookings", id, "admin_cancel"), nil, &out)
	return out, err
}

func (b *Bookings) RequestRefund(ctx context.Context, id domain.ID, reason string) (string, error) {
	var out Detail
	err := post(ctx, b.r, resourcePath("/bookings", id, "refund"), domain.CancelRequest{Reason: reason}, &out)
	return out.Detail, err
}

// Pay validates the request locally, so a form missing required fields never
// reaches the network.
func (b *Bookings) Pay(ctx context.Context, id domain.ID, p domain.PaymentRequest) (domain.PaymentResult, error) {
	if err := p.Validate(); err != nil {
		return domain.PaymentResult{}, fmt.Errorf("payment request: %w", err)
	}

	logger.DebugContext(ctx, "Submitting payment", "booking_id", id, "method", p.Method, "card", p.Masked().CardNumber)

	var out domain.PaymentResult
	if err := post(ctx, b.r, resourcePath("/bookings", id, "payment"), p, &out); err != nil {
		return out, err
	}

	b.publish(ctx, events.PaymentSubmitted, events.PaymentSubmittedEvent{
		BookingID:     id.String(),
		PaymentMethod: string(p.Method),
		Status:        string(out.PaymentStatus),
		SubmittedAt:   time.Now().UTC(),
	})
	return out, nil
}

func (b *Bookings) VerifyPayment(ctx context.Context, id domain.ID, transactionID string) (domain.PaymentResult, error) {
	var out domain.PaymentResult
	body := map[string]string{"transaction_id": transactionID}
	err := post(ctx, b.r, resourcePath("/bookings", id, "verify-payment"), body, &out)
	return out, err
}

// Receipt returns the receipt document as served.
func (b *Bookings) Receipt(ctx context.Context, id domain.ID) ([]byte, error) {
	var raw []byte
	err := get(ctx, b.r, resourcePath("/bookings", id, "receipt"), nil, &raw)
	return raw, err
}

func (b *Bookings) SendConfirmation(ctx context.Context, id domain.ID, ch domain.ConfirmationChannel) (string, error) {
	var out Detail
	body := map[string]domain.ConfirmationChannel{"method": ch}
	err := post(ctx, b.r, resourcePath("/bookings", id, "send-confirmation"), body, &out)
	return out.Detail, err
}

// CalculatePrice asks the backend for the authoritative price of a stay.
func (b *Bookings) CalculatePrice(ctx context.Context, p domain.PriceRequest) (domain.PriceCalculation, error) {
	var out domain.PriceCalculation
	err := post(ctx, b.r, "/bookings/calculate_price/", p, &out)
	return out, err
}

// PublishSubmitted emits booking.submitted for a newly created booking.
func (b *Bookings) PublishSubmitted(ctx context.Context, bk domain.Booking, idempotencyKey string) {
	b.publish(ctx, events.BookingSubmitted, events.BookingSubmittedEvent{
		BookingID:      bk.ID.String(),
		PropertyID:     bk.Property.String(),
		CheckIn:        bk.CheckIn.String(),
		CheckOut:       bk.CheckOut.String(),
		Guests:         bk.Guests,
		TotalPrice:     bk.TotalPrice.StringFixed(2),
		IdempotencyKey: idempotencyKey,
		SubmittedAt:    time.Now().UTC(),
	})
}

func (b *Bookings) publish(ctx context.Context, subject string, data any) {
	if err := b.pub.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
