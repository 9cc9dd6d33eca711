package fakeapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Server) bookingRoutes(r chi.Router) {
	r.Get("/availability/", s.availability)
	r.Post("/calculate_price/", s.calculatePrice)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireJWT)
		pr.Post("/", s.createBooking)
		pr.Get("/", s.listBookings)
		pr.Get("/{id}/", s.getBooking)
		pr.Post("/{id}/cancel/", s.cancelBooking)
		pr.Post("/{id}/user_confirm/", s.transition(domain.BookingPending, domain.BookingConfirmed, false))
		pr.Post("/{id}/user_complete/", s.transition(domain.BookingConfirmed, domain.BookingCompleted, false))
		pr.Post("/{id}/refund/", s.requestRefund)
		pr.Post("/{id}/payment/", s.payment)
		pr.Post("/{id}/verify-payment/", s.verifyPayment)
		pr.Get("/{id}/receipt/", s.receipt)
		pr.Post("/{id}/send-confirmation/", s.sendConfirmation)

		pr.Group(func(ar chi.Router) {
			ar.Use(s.requireStaff)
			ar.Post("/{id}/confirm/", s.transition(domain.BookingPending, domain.BookingConfirmed, true))
			ar.Post("/{id}/complete/", s.transition(domain.BookingConfirmed, domain.BookingCompleted, true))
			ar.Post("/{id}/admin_cancel/", s.adminCancel)
		})
	})
}

// overlapsLocked reports whether an active booking holds any night of
// [in, out) for the property.
func (s *Server) overlapsLocked(pid domain.ID, in, out domain.Date) bool {
	for _, b := range s.bookings {
		if b.Property != pid || b.Status == domain.BookingCancelled || b.Status == domain.BookingRefunded {
			continue
		}
		if in.Before(b.CheckOut) && b.CheckIn.Before(out) {
			return true
		}
	}
	return false
}

func (s *Server) availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if fn, ok := s.availabilityHook.Load().(func(q url.Values)); ok && fn != nil {
		fn(q)
	}

	in, out, ok := parseDates(q.Get("check_in"), q.Get("check_out"))
	if !ok || q.Get("property") == "" {
		badRequest(w, "property, check_in and check_out are required")
		return
	}
	nights := in.DaysUntil(out)
	if nights <= 0 {
		badRequest(w, "Check-out date must be after check-in date")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.properties[domain.ID(q.Get("property"))]
	if !found {
		notFound(w)
		return
	}

	writeJSON(w, http.StatusOK, domain.Availability{
		Available:     p.IsAvailable && !s.overlapsLocked(p.ID, in, out),
		PropertyID:    p.ID,
		CheckIn:       in,
		CheckOut:      out,
		Nights:        nights,
		PricePerNight: p.PricePerNight,
		MaxGuests:     p.MaxGuests,
	})
}

func (s *Server) calculatePrice(w http.ResponseWriter, r *http.Request) {
	if s.FailPrice.Load() {
		internalError(w)
		return
	}

	var in domain.PriceRequest
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}
	nights := in.CheckIn.DaysUntil(in.CheckOut)
	if in.CheckIn.IsZero() || in.CheckOut.IsZero() || nights <= 0 {
		badRequest(w, "Check-out date must be after check-in date")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[in.PropertyID]
	if !ok {
		notFound(w)
		return
	}
	if in.Guests < 1 || in.Guests > p.MaxGuests {
		badRequest(w, fmt.Sprintf("Maximum %d guests allowed for this property", p.MaxGuests))
		return
	}

	base, taxes, total := quote(p.PricePerNight, nights)
	writeJSON(w, http.StatusOK, domain.PriceCalculation{
		Nights:        nights,
		BasePrice:     base,
		Taxes:         taxes,
		TotalPrice:    total,
		PricePerNight: p.PricePerNight,
		Guests:        in.Guests,
		MaxGuests:     p.MaxGuests,
	})
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingDraft
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uid := userID(r)
	key := r.Header.Get("Idempotency-Key")
	if id, seen := s.idempotency[key]; key != "" && seen {
		writeJSON(w, http.StatusCreated, s.bookings[id])
		return
	}

	p, ok := s.properties[in.PropertyID]
	if !ok {
		writeFieldErrors(w, map[string][]string{"property": {"Invalid pk - object does not exist."}})
		return
	}
	nights := in.CheckIn.DaysUntil(in.CheckOut)
	if nights <= 0 {
		writeFieldErrors(w, map[string][]string{"non_field_errors": {"Check-out date must be after check-in date."}})
		return
	}
	if in.Guests < 1 || in.Guests > p.MaxGuests {
		writeFieldErrors(w, map[string][]string{"guests": {fmt.Sprintf("Maximum %d guests allowed.", p.MaxGuests)}})
		return
	}
	if !p.IsAvailable || s.overlapsLocked(p.ID, in.CheckIn, in.CheckOut) {
		writeFieldErrors(w, map[string][]string{"non_field_errors": {"Property is not available for the selected dates."}})
		return
	}

	_, _, total := quote(p.PricePerNight, nights)
	now := time.Now().UTC()
	cp := *p
	b := &domain.Booking{
		ID:              s.newID(),
		Property:        p.ID,
		PropertyDetails: &cp,
		User:            domain.ID(strconv.FormatInt(uid, 10)),
		CheckIn:         in.CheckIn,
		CheckOut:        in.CheckOut,
		Guests:          in.Guests,
		Nights:          nights,
		TotalPrice:      total,
		ContactPhone:    in.ContactPhone,
		ContactEmail:    in.ContactEmail,
		SpecialRequests: in.SpecialRequests,
		Status:          domain.BookingPending,
		PaymentStatus:   domain.PaymentUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.bookings[b.ID] = b
	if key != "" {
		s.idempotency[key] = b.ID
	}
	s.historyLocked(b, "", domain.BookingPending, "Booking created", uid)
	s.notifyLocked(uid, "Booking Pending", "Your booking for "+p.Title+" is pending confirmation.", domain.NotifyBookingPending, b)

	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) historyLocked(b *domain.Booking, from, to domain.BookingStatus, reason string, by int64) {
	name := ""
	if a, ok := s.accounts[by]; ok {
		name = a.user.DisplayName()
	}
	s.history[b.ID] = append(s.history[b.ID], domain.StatusHistory{
		ID:            s.newID(),
		OldStatus:     string(from),
		NewStatus:     string(to),
		ChangedByName: name,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	})
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uid := domain.ID(strconv.FormatInt(userID(r), 10))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Booking{}
	for _, id := range sortedIDs(s.bookings) {
		b := s.bookings[id]
		if b.User != uid {
			continue
		}
		if st := q.Get("status"); st != "" && string(b.Status) != st {
			continue
		}
		if ps := q.Get("payment_status"); ps != "" && string(b.PaymentStatus) != ps {
			continue
		}
		out = append(out, *b)
	}
	writeJSON(w, http.StatusOK, page(out))
}

// bookingLocked loads the booking named in the URL, enforcing ownership
// unless staff is true.
func (s *Server) bookingLocked(w http.ResponseWriter, r *http.Request, staff bool) *domain.Booking {
	b, ok := s.bookings[domain.ID(chi.URLParam(r, "id"))]
	if !ok {
		notFound(w)
		return nil
	}
	if !staff && b.User != domain.ID(strconv.FormatInt(userID(r), 10)) {
		notFound(w)
		return nil
	}
	return b
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.bookingLocked(w, r, false); b != nil {
		writeJSON(w, http.StatusOK, b)
	}
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	var in domain.CancelRequest
	_ = decodeBody(r, &in)

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(w, r, false)
	if b == nil {
		return
	}
	s.cancelLocked(w, r, b, in.Reason)
}

func (s *Server) adminCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(w, r, true)
	if b == nil {
		return
	}
	s.cancelLocked(w, r, b, "Cancelled by administrator")
}

func (s *Server) cancelLocked(w http.ResponseWriter, r *http.Request, b *domain.Booking, reason string) {
	if b.IsTerminal() {
		badRequest(w, fmt.Sprintf("Cannot cancel a %s booking", b.Status))
		return
	}

	deduction := b.TotalPrice.Mul(decimal.RequireFromString(CancelDeduction)).Round(2)
	refund := b.TotalPrice.Sub(deduction)
	if b.PaymentStatus != domain.PaymentPaid {
		refund = decimal.Zero
	}

	from := b.Status
	b.Status = domain.BookingCancelled
	b.CancellationFee = &deduction
	b.RefundAmount = &refund
	b.UpdatedAt = time.Now().UTC()
	s.historyLocked(b, from, b.Status, reason, userID(r))

	owner, _ := strconv.ParseInt(string(b.User), 10, 64)
	s.notifyLocked(owner, "Booking Cancelled", "Your booking has been cancelled.", domain.NotifyBookingCancelled, b)

	cp := *b
	writeJSON(w, http.StatusOK, domain.CancelResult{
		Detail:          "Booking cancelled successfully",
		RefundAmount:    &refund,
		DeductionAmount: &deduction,
		Booking:         &cp,
	})
}

func (s *Server) transition(from, to domain.BookingStatus, staff bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		b := s.bookingLocked(w, r, staff)
		if b == nil {
			return
		}
		if b.Status != from {
			badRequest(w, fmt.Sprintf("Only %s bookings can become %s", from, to))
			return
		}
		b.Status = to
		b.UpdatedAt = time.Now().UTC()
		s.historyLocked(b, from, to, "", userID(r))

		kind := domain.NotifyBookingConfirmed
		if to == domain.BookingCompleted {
			kind = domain.NotifyBookingCompleted
		}
		owner, _ := strconv.ParseInt(string(b.User), 10, 64)
		s.notifyLocked(owner, "Booking "+capitalize(string(to)), "Your booking is now "+string(to)+".", kind, b)

		writeJSON(w, http.StatusOK, b)
	}
}

func (s *Server) requestRefund(w http.ResponseWriter, r *http.Request) {
	var in domain.CancelRequest
	_ = decodeBody(r, &in)

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(w, r, false)
	if b == nil {
		return
	}
	if b.PaymentStatus != domain.PaymentPaid {
		badRequest(w, "Only paid bookings can be refunded")
		return
	}
	b.RefundStatus = "requested"
	s.notifyLocked(userID(r), "Refund Requested", in.Reason, domain.NotifyCancellationRequest, b)
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Refund request submitted"})
}

func (s *Server) payment(w http.ResponseWriter, r *http.Request) {
	var in domain.PaymentRequest
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}
	if err := in.Validate(); err != nil {
		badRequest(w, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(w, r, false)
	if b == nil {
		return
	}
	if !b.CanPay() {
		badRequest(w, "This booking cannot be paid")
		return
	}

	status := domain.PaymentProcessing
	if in.Method == domain.MethodCreditCard {
		status = domain.PaymentPaid
	}
	tx := &domain.PaymentTransaction{
		ID:              uuid.NewString(),
		Booking:         b.ID,
		Amount:          b.TotalPrice,
		Currency:        "PKR",
		PaymentMethod:   string(in.Method),
		Status:          string(status),
		TransactionID:   in.TransactionID,
		TransactionDate: time.Now().UTC(),
	}
	if tx.TransactionID == "" {
		tx.TransactionID = "TX-" + strings.ToUpper(tx.ID[:8])
	}
	s.transactions[tx.ID] = tx

	b.PaymentStatus = status
	b.PaymentID = tx.ID
	b.UpdatedAt = time.Now().UTC()
	if status == domain.PaymentPaid {
		owner, _ := strconv.ParseInt(string(b.User), 10, 64)
		s.notifyLocked(owner, "Payment Received", "We received your payment.", domain.NotifyPaymentReceived, b)
	}

	cp := *b
	writeJSON(w, http.StatusOK, domain.PaymentResult{
		Detail:        "Payment submitted",
		TransactionID: tx.TransactionID,
		PaymentStatus: status,
		Booking:       &cp,
	})
}

func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TransactionID string `json:"transaction_id"`
	}
	_ = decodeBody(r, &in)

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(w, r, false)
	if b == nil {
		return
	}
	tx, ok := s.transactions[b.PaymentID]
	if !ok || tx.TransactionID != in.TransactionID {
		badRequest(w, "Transaction not found for this booking")
		return
	}
	tx.Status = string(domain.PaymentPaid)
	b.PaymentStatus = domain.PaymentPaid
	cp := *b
	writeJSON(w, http.StatusOK, domain.PaymentResult{
		Detail:        "Payment verified",
		TransactionID: tx.TransactionID,
		PaymentStatus: domain.PaymentPaid,
		Booking:       &cp,
	})
}

func (s *Server) receipt(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(w, r, false)
	if b == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "RECEIPT\nBooking #%s\n%s to %s\nTotal: PKR %s\nPayment: %s\n",
		b.ID, b.CheckIn, b.CheckOut, b.TotalPrice.StringFixed(2), b.PaymentStatus)
}

func (s *Server) sendConfirmation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Method domain.ConfirmationChannel `json:"method"`
	}
	_ = decodeBody(r, &in)
	switch in.Method {
	case domain.ConfirmByEmail, domain.ConfirmByWhatsApp, domain.ConfirmByBoth:
	default:
		writeFieldErrors(w, map[string][]string{"method": {fmt.Sprintf("%q is not a valid choice.", in.Method)}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.bookingLocked(w, r, false); b != nil {
		writeJSON(w, http.StatusOK, map[string]string{"detail": "Confirmation sent via " + string(in.Method)})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
