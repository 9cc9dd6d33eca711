// Package fakeapi is an in-memory stand-in for the booking backend, used by
// tests across the module. It speaks the same JSON shapes, issues real
// signed JWTs and counts the calls tests care about.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPassword = "s3cret-pass"
	TaxRate         = "0.05"
	CancelDeduction = "0.02"
)

type account struct {
	user     domain.User
	password string
}

// Recorded is one request as the server saw it.
type Recorded struct {
	Method         string
	Path           string
	Query          url.Values
	Authorization  string
	IdempotencyKey string
}

type Server struct {
	*httptest.Server

	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Failure switches, safe to flip while requests are in flight.
	FailPrice       atomic.Bool
	FailRefresh     atomic.Bool
	FailLogout      atomic.Bool
	FailCurrentUser atomic.Bool

	mu            sync.Mutex
	nextID        int64
	accounts      map[int64]*account
	properties    map[domain.ID]*domain.Property
	propertyOrder []domain.ID
	bookings      map[domain.ID]*domain.Booking
	history       map[domain.ID][]domain.StatusHistory
	notifications map[domain.ID]*ownedNotification
	favorites     map[int64][]domain.Favorite
	reviews       map[domain.ID]*domain.Review
	transactions  map[string]*domain.PaymentTransaction
	revoked       map[string]bool
	issued        []string
	blacklisted   map[string]bool
	idempotency   map[string]domain.ID
	requests      []Recorded

	refreshCalls atomic.Int32
	refreshDelay atomic.Int64

	availabilityHook atomic.Value // func(url.Values)
}

type ownedNotification struct {
	owner int64
	n     domain.Notification
}

// New starts a fake backend and closes it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		Secret:        "fake-signing-secret",
		AccessTTL:     5 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		accounts:      make(map[int64]*account),
		properties:    make(map[domain.ID]*domain.Property),
		bookings:      make(map[domain.ID]*domain.Booking),
		history:       make(map[domain.ID][]domain.StatusHistory),
		notifications: make(map[domain.ID]*ownedNotification),
		favorites:     make(map[int64][]domain.Favorite),
		reviews:       make(map[domain.ID]*domain.Review),
		transactions:  make(map[string]*domain.PaymentTransaction),
		revoked:       make(map[string]bool),
		blacklisted:   make(map[string]bool),
		idempotency:   make(map[string]domain.ID),
	}
	s.Server = httptest.NewServer(s.routes())
	if t != nil {
		t.Cleanup(s.Close)
	}
	return s
}

// APIURL is the base URL clients should be configured with.
func (s *Server) APIURL() string { return s.URL + "/api" }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", s.authRoutes)
		r.Route("/listings", s.listingRoutes)
		r.Route("/properties", s.propertyRoutes)
		r.Route("/bookings", s.bookingRoutes)
		r.Route("/reviews", s.reviewRoutes)
		r.Route("/notifications", s.notificationRoutes)
		r.Route("/payments", s.paymentRoutes)
		r.Route("/admin", s.adminRoutes)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:         r.Method,
			Path:           r.URL.Path,
			Query:          r.URL.Query(),
			Authorization:  r.Header.Get("Authorization"),
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) newID() domain.ID {
	s.nextID++
	return domain.ID(strconv.FormatInt(s.nextID, 10))
}

// ---------- Test controls ----------

func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit method and path (path without the
// /api prefix).
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == "/api"+path {
			n++
		}
	}
	return n
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) RefreshCalls() int { return int(s.refreshCalls.Load()) }

// SetRefreshDelay holds every refresh response for d, which widens the
// window in which concurrent 401s pile up.
func (s *Server) SetRefreshDelay(d time.Duration) { s.refreshDelay.Store(int64(d)) }

// SetAvailabilityHook installs fn to run before each availability response.
// Tests block in fn to control the order responses arrive in.
func (s *Server) SetAvailabilityHook(fn func(q url.Values)) { s.availabilityHook.Store(fn) }

// ExpireAccessTokens makes every access token issued so far answer 401.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tok := range s.issued {
		s.revoked[tok] = true
	}
}

// AddUser registers an account directly, bypassing the register endpoint.
func (s *Server) AddUser(email, password string, staff bool) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, "Test", "User", staff)
}

func (s *Server) addUserLocked(email, password, first, last string, staff bool) domain.User {
	id := s.newID()
	joined := time.Now().UTC()
	u := domain.User{
		ID:         id,
		Email:      email,
		FirstName:  first,
		LastName:   last,
		IsActive:   true,
		IsStaff:    staff,
		DateJoined: &joined,
	}
	n, _ := strconv.ParseInt(string(id), 10, 64)
	s.accounts[n] = &account{user: u, password: password}
	return u
}

// AddProperty stores p, assigning a UUID when p.ID is empty.
func (s *Server) AddProperty(p domain.Property) domain.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = domain.ID(uuid.NewString())
	}
	if p.MaxGuests == 0 {
		p.MaxGuests = 2
	}
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
	if p.Images == nil {
		p.Images = []domain.PropertyImage{}
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := p
	s.properties[p.ID] = &cp
	s.propertyOrder = append(s.propertyOrder, p.ID)
	return p
}

// Tokens mints a token pair for the account with email, as login would.
func (s *Server) Tokens(email string) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.accounts {
		if a.user.Email == email {
			access, refresh, _ = s.mintLocked(id)
			return access, refresh
		}
	}
	return "", ""
}

func (s *Server) Booking(id domain.ID) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, false
	}
	return *b, true
}

// AddNotification stores a notification for the account with email.
func (s *Server) AddNotification(email, title, message string, kind domain.NotificationType) domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.accounts {
		if a.user.Email == email {
			return s.notifyLocked(id, title, message, kind, nil)
		}
	}
	return domain.Notification{}
}

func (s *Server) notifyLocked(owner int64, title, message string, kind domain.NotificationType, b *domain.Booking) domain.Notification {
	n := domain.Notification{
		ID:             s.newID(),
		User:           domain.ID(strconv.FormatInt(owner, 10)),
		Title:          title,
		Message:        message,
		Type:           kind,
		BookingDetails: b,
		TimeAgo:        "just now",
		CreatedAt:      time.Now().UTC(),
	}
	s.notifications[n.ID] = &ownedNotification{owner: owner, n: n}
	return n
}

// ---------- Shared helpers ----------

func page[T any](items []T) domain.Page[T] {
	if items == nil {
		items = []T{}
	}
	return domain.Page[T]{Count: len(items), Results: items}
}

func sortedIDs[V any](m map[domain.ID]V) []domain.ID {
	ids := make([]domain.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.ParseInt(string(ids[i]), 10, 64)
		b, errB := strconv.ParseInt(string(ids[j]), 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

func parseDates(in, out string) (domain.Date, domain.Date, bool) {
	ci, err := domain.ParseDate(in)
	if err != nil {
		return domain.Date{}, domain.Date{}, false
	}
	co, err := domain.ParseDate(out)
	if err != nil {
		return domain.Date{}, domain.Date{}, false
	}
	return ci, co, true
}

func quote(rate decimal.Decimal, nights int) (base, taxes, total decimal.Decimal) {
	base = rate.Mul(decimal.NewFromInt(int64(nights)))
	taxes = base.Mul(decimal.RequireFromString(TaxRate)).Round(2)
	return base, taxes, base.Add(taxes)
}
