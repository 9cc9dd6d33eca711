package fakeapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (s *Server) notificationRoutes(r chi.Router) {
	r.Use(s.requireJWT)
	r.Get("/notifications/", s.listNotifications)
	r.Get("/notifications/unread_count/", s.unreadCount)
	r.Post("/notifications/mark_all_read/", s.markAllRead)
	r.Post("/notifications/{id}/mark_read/", s.markRead)
	r.Delete("/notifications/{id}/", s.deleteNotification)
	r.Get("/booking-status/{id}/status_history/", s.statusHistory)
	r.With(s.requireStaff).Post("/booking-status/{id}/update_status/", s.updateStatus)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uid := userID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Notification{}
	ids := sortedIDs(s.notifications)
	for i := len(ids) - 1; i >= 0; i-- {
		on := s.notifications[ids[i]]
		if on.owner != uid {
			continue
		}
		if v := q.Get("is_read"); v != "" {
			want, _ := strconv.ParseBool(v)
			if on.n.IsRead != want {
				continue
			}
		}
		if t := q.Get("type"); t != "" && string(on.n.Type) != t {
			continue
		}
		out = append(out, on.n)
	}
	writeJSON(w, http.StatusOK, page(out))
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, on := range s.notifications {
		if on.owner == uid && !on.n.IsRead {
			n++
		}
	}
	writeJSON(w, http.StatusOK, domain.UnreadCount{UnreadCount: n})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	on, ok := s.notifications[domain.ID(chi.URLParam(r, "id"))]
	if !ok || on.owner != userID(r) {
		notFound(w)
		return
	}
	on.n.IsRead = true
	writeJSON(w, http.StatusOK, on.n)
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, on := range s.notifications {
		if on.owner == uid && !on.n.IsRead {
			on.n.IsRead = true
			n++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"detail": "All notifications marked as read", "updated": n})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	on, ok := s.notifications[id]
	if !ok || on.owner != userID(r) {
		notFound(w)
		return
	}
	delete(s.notifications, id)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) statusHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	staff := false
	if a, ok := s.accounts[userID(r)]; ok {
		staff = a.user.IsStaff
	}
	b := s.bookingLocked(w, r, staff)
	if b == nil {
		return
	}
	h := s.history[b.ID]
	if h == nil {
		h = []domain.StatusHistory{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var in domain.StatusUpdate
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}
	if _, ok := domain.ParseBookingStatus(string(in.Status)); !ok {
		writeFieldErrors(w, map[string][]string{"status": {"Invalid status."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(w, r, true)
	if b == nil {
		return
	}
	from := b.Status
	b.Status = in.Status
	b.UpdatedAt = time.Now().UTC()
	s.historyLocked(b, from, in.Status, in.Reason, userID(r))
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) paymentRoutes(r chi.Router) {
	r.Get("/methods/", s.paymentMethods)
	r.Group(func(pr chi.Router) {
		pr.Use(s.requireJWT)
		pr.Get("/transactions/", s.listTransactions)
		pr.Get("/transactions/{id}/", s.getTransaction)
	})
}

func (s *Server) paymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []domain.PaymentMethod{
		{ID: "credit_card", Type: domain.MethodCreditCard, Title: "Credit/Debit Card", IsActive: true, ProcessingFee: decimal.Zero},
		{ID: "bank_transfer", Type: domain.MethodBankTransfer, Title: "Bank Transfer", IsActive: true, ProcessingFee: decimal.Zero},
		{ID: "jazz_cash", Type: domain.MethodJazzCash, Title: "JazzCash", IsActive: true, ProcessingFee: decimal.Zero},
		{ID: "easy_paisa", Type: domain.MethodEasyPaisa, Title: "EasyPaisa", IsActive: true, ProcessingFee: decimal.Zero},
	})
}

func (s *Server) ownsLocked(r *http.Request, tx *domain.PaymentTransaction) bool {
	b, ok := s.bookings[tx.Booking]
	return ok && b.User == domain.ID(strconv.FormatInt(userID(r), 10))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.PaymentTransaction{}
	for _, tx := range s.transactions {
		if !s.ownsLocked(r, tx) || (status != "" && tx.Status != status) {
			continue
		}
		out = append(out, *tx)
	}
	writeJSON(w, http.StatusOK, page(out))
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[chi.URLParam(r, "id")]
	if !ok || !s.ownsLocked(r, tx) {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) adminRoutes(r chi.Router) {
	r.Use(s.requireJWT, s.requireStaff)
	r.Get("/dashboard/", s.adminDashboard)
	r.Get("/users/", s.adminUsers)
	r.Patch("/users/{id}/", s.adminUpdateUser)
	r.Get("/properties/", s.listProperties)
	r.Patch("/properties/{id}/", s.adminUpdateProperty)
	r.Get("/bookings/", s.adminBookings)
	r.Patch("/bookings/{id}/", s.adminUpdateBooking)
	r.Get("/payments/", s.adminPayments)
	r.Post("/payments/{id}/refund/", s.adminRefund)
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.DashboardStats{
		TotalUsers:      len(s.accounts),
		TotalProperties: len(s.properties),
		TotalBookings:   len(s.bookings),
		TotalRevenue:    decimal.Zero,
	}
	for _, b := range s.bookings {
		switch b.Status {
		case domain.BookingPending:
			stats.PendingBookings++
		case domain.BookingConfirmed:
			stats.ConfirmedBookings++
		case domain.BookingCancelled:
			stats.CancelledBookings++
		}
		if b.PaymentStatus == domain.PaymentPaid {
			stats.TotalRevenue = stats.TotalRevenue.Add(b.TotalPrice)
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := make(map[domain.ID]domain.User, len(s.accounts))
	for _, a := range s.accounts {
		byID[a.user.ID] = a.user
	}
	out := []domain.User{}
	for _, id := range sortedIDs(byID) {
		out = append(out, byID[id])
	}
	writeJSON(w, http.StatusOK, page(out))
}

func (s *Server) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserPatch
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		notFound(w)
		return
	}
	if in.FirstName != nil {
		a.user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		a.user.LastName = *in.LastName
	}
	if in.IsActive != nil {
		a.user.IsActive = *in.IsActive
	}
	if in.IsStaff != nil {
		a.user.IsStaff = *in.IsStaff
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) adminUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var in domain.PropertyPatch
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[domain.ID(chi.URLParam(r, "id"))]
	if !ok {
		notFound(w)
		return
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.PricePerNight != nil {
		p.PricePerNight = *in.PricePerNight
	}
	if in.MaxGuests != nil {
		p.MaxGuests = *in.MaxGuests
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	p.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) adminBookings(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Booking{}
	for _, id := range sortedIDs(s.bookings) {
		if b := s.bookings[id]; status == "" || string(b.Status) == status {
			out = append(out, *b)
		}
	}
	writeJSON(w, http.StatusOK, page(out))
}

func (s *Server) adminUpdateBooking(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingPatch
	if !decodeBody(r, &in) {
		badRequest(w, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(w, r, true)
	if b == nil {
		return
	}
	if in.Status != nil {
		s.historyLocked(b, b.Status, *in.Status, "Updated by administrator", userID(r))
		b.Status = *in.Status
	}
	if in.PaymentStatus != nil {
		b.PaymentStatus = *in.PaymentStatus
	}
	b.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) adminPayments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.PaymentTransaction{}
	for _, tx := range s.transactions {
		out = append(out, *tx)
	}
	writeJSON(w, http.StatusOK, page(out))
}

func (s *Server) adminRefund(w http.ResponseWriter, r *http.Request) {
	var in domain.RefundRequest
	_ = decodeBody(r, &in)

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[chi.URLParam(r, "id")]
	if !ok {
		notFound(w)
		return
	}
	if tx.Status != string(domain.PaymentPaid) {
		badRequest(w, "Only completed payments can be refunded")
		return
	}
	amount := tx.Amount
	if in.Amount != nil {
		if in.Amount.GreaterThan(tx.Amount) || !in.Amount.IsPositive() {
			writeFieldErrors(w, map[string][]string{"amount": {"Refund amount must be between 0 and the paid amount."}})
			return
		}
		amount = *in.Amount
	}
	now := time.Now().UTC()
	tx.Status = string(domain.PaymentRefunded)
	tx.RefundAmount = &amount
	tx.RefundDate = &now
	tx.RefundReason = in.Reason
	if b, ok := s.bookings[tx.Booking]; ok {
		b.PaymentStatus = domain.PaymentRefunded
		b.Status = domain.BookingRefunded
		b.RefundAmount = &amount
	}
	writeJSON(w, http.StatusOK, tx)
}
