package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/diagnosis/pakbooking/internal/api"
	"github.com/diagnosis/pakbooking/internal/apiclient"
	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/internal/testutil/fakeapi"
	"github.com/diagnosis/pakbooking/internal/tokenstore"
	"github.com/diagnosis/pakbooking/pkg/events"
	"github.com/shopspring/decimal"
)

const guestEmail = "guest@example.com"

type fixture struct {
	srv    *fakeapi.Server
	store  *tokenstore.MemoryStore
	api    *api.API
	events *events.Recorder
	hotel  domain.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := fakeapi.New(t)
	srv.AddUser(guestEmail, fakeapi.DefaultPassword, false)
	hotel := srv.AddProperty(domain.Property{
		Title:         "Pearl Continental",
		City:          "Lahore",
		PricePerNight: decimal.NewFromInt(10000),
		MaxGuests:     3,
		IsAvailable:   true,
		Rating:        decimal.RequireFromString("4.7"),
	})

	store := tokenstore.NewMemoryStore(tokenstore.Pair{})
	rec := &events.Recorder{}
	client := apiclient.New(srv.APIURL(), store)
	return &fixture{srv: srv, store: store, api: api.New(client, api.WithPublisher(rec)), events: rec, hotel: hotel}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	if _, err := f.api.Auth.Login(context.Background(), guestEmail, fakeapi.DefaultPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func jan(day int) domain.Date { return domain.NewDate(2030, time.January, day) }

// ---------- Auth ----------

func TestLoginStoresTokens(t *testing.T) {
	f := newFixture(t)
	res, err := f.api.Auth.Login(context.Background(), guestEmail, fakeapi.DefaultPassword)
	if err != nil {
		t.Fatal(err)
	}
	if res.User.Email != guestEmail {
		t.Fatalf("unexpected user %+v", res.User)
	}
	if got := f.store.Snapshot(); got.Access != res.Access || got.Refresh != res.Refresh {
		t.Fatalf("tokens not stored: %+v", got)
	}
}

func TestLoginFailureLeavesTokensAlone(t *testing.T) {
	f := newFixture(t)
	_, err := f.api.Auth.Login(context.Background(), guestEmail, "wrong")
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	if f.store.Snapshot() != (tokenstore.Pair{}) {
		t.Fatal("failed login must not store tokens")
	}
	if f.srv.RefreshCalls() != 0 {
		t.Fatal("a failed login must not trigger a refresh")
	}
}

func TestRegisterDoesNotSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.api.Auth.Register(ctx, domain.Registration{Email: "new@example.com", Password: "long-enough", FirstName: "Ayesha"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "new@example.com" || u.FirstName != "Ayesha" {
		t.Fatalf("unexpected user %+v", u)
	}
	if f.store.Snapshot() != (tokenstore.Pair{}) {
		t.Fatal("registration must not store tokens")
	}

	_, err = f.api.Auth.Register(ctx, domain.Registration{Email: "new@example.com", Password: "long-enough"})
	if got := apiclient.Message(err); got != "email: user with this email already exists." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLogoutIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.srv.FailLogout.Store(true)

	if err := f.api.Auth.Logout(context.Background()); err != nil {
		t.Fatalf("server failure must not surface: %v", err)
	}
	if f.store.Snapshot() != (tokenstore.Pair{}) {
		t.Fatal("tokens must be cleared")
	}
	if f.srv.Count(http.MethodPost, "/auth/logout/") != 1 {
		t.Fatal("expected one logout call")
	}
}

func TestLogoutWithoutTokensSkipsServer(t *testing.T) {
	f := newFixture(t)
	if err := f.api.Auth.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.srv.Count(http.MethodPost, "/auth/logout/") != 0 {
		t.Fatal("no server call without a refresh token")
	}
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	name := "Bilal"
	u, err := f.api.Auth.UpdateProfile(ctx, domain.ProfilePatch{FirstName: &name})
	if err != nil {
		t.Fatal(err)
	}
	if u.FirstName != "Bilal" {
		t.Fatalf("unexpected user %+v", u)
	}

	err = f.api.Auth.ChangePassword(ctx, "not-it", "another-pass")
	if apiclient.Message(err) != "old_password: Wrong password." {
		t.Fatalf("unexpected message %q", apiclient.Message(err))
	}
	if err := f.api.Auth.ChangePassword(ctx, fakeapi.DefaultPassword, "another-pass"); err != nil {
		t.Fatal(err)
	}
}

// ---------- Listings ----------

func TestListingsQueries(t *testing.T) {
	f := newFixture(t)
	f.srv.AddProperty(domain.Property{Title: "Serena", City: "Islamabad", PricePerNight: decimal.NewFromInt(25000), MaxGuests: 2, IsAvailable: true})
	ctx := context.Background()

	all, err := f.api.Listings.List(ctx, domain.PropertyFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if all.Count != 2 {
		t.Fatalf("expected 2 properties, got %d", all.Count)
	}

	lahore, err := f.api.Listings.List(ctx, domain.PropertyFilter{City: "Lahore", Guests: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(lahore.Results) != 1 || lahore.Results[0].ID != f.hotel.ID {
		t.Fatalf("unexpected filter result %+v", lahore.Results)
	}

	found, err := f.api.Listings.Search(ctx, "serena")
	if err != nil || len(found.Results) != 1 {
		t.Fatalf("search: %v %+v", err, found)
	}

	featured, err := f.api.Listings.Featured(ctx)
	if err != nil || len(featured) != 1 {
		t.Fatalf("featured: %v %+v", err, featured)
	}

	got, err := f.api.Listings.Get(ctx, f.hotel.ID)
	if err != nil || got.Title != "Pearl Continental" {
		t.Fatalf("get: %v %+v", err, got)
	}

	_, err = f.api.Listings.Get(ctx, "missing")
	if !errors.Is(err, apiclient.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAvailabilityAndPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	av, err := f.api.Listings.Availability(ctx, f.hotel.ID, jan(1), jan(4))
	if err != nil {
		t.Fatal(err)
	}
	if !av.Available || av.Nights != 3 || !av.PricePerNight.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected availability %+v", av)
	}

	price, err := f.api.Bookings.CalculatePrice(ctx, domain.PriceRequest{PropertyID: f.hotel.ID, CheckIn: jan(1), CheckOut: jan(4), Guests: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !price.TotalPrice.Equal(decimal.NewFromInt(31500)) || !price.Taxes.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected price %+v", price)
	}
}

// ---------- Bookings ----------

func TestCreateBookingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	draft := domain.BookingDraft{PropertyID: f.hotel.ID, CheckIn: jan(10), CheckOut: jan(12), Guests: 2, ContactEmail: guestEmail}
	first, err := f.api.Bookings.Create(ctx, draft, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.api.Bookings.Create(ctx, draft, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("same idempotency key must yield the same booking: %s vs %s", first.ID, second.ID)
	}
	if first.Status != domain.BookingPending || first.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("unexpected status %s/%s", first.Status, first.PaymentStatus)
	}

	_, err = f.api.Bookings.Create(ctx, draft, "key-2")
	if got := apiclient.Message(err); got != "Property is not available for the selected dates." {
		t.Fatalf("overlapping booking: unexpected message %q", got)
	}

	list, err := f.api.Bookings.List(ctx, domain.BookingFilter{Status: domain.BookingPending})
	if err != nil || list.Count != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
}

func TestCancelPublishesEvent(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	b, err := f.api.Bookings.Create(ctx, domain.BookingDraft{PropertyID: f.hotel.ID, CheckIn: jan(10), CheckOut: jan(12), Guests: 1}, "")
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.api.Bookings.Cancel(ctx, b.ID, "change of plans")
	if err != nil {
		t.Fatal(err)
	}
	if res.Booking == nil || res.Booking.Status != domain.BookingCancelled {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.DeductionAmount == nil || !res.DeductionAmount.Equal(decimal.NewFromInt(420)) {
		t.Fatalf("expected 2%% deduction of 21000, got %v", res.DeductionAmount)
	}

	subjects := f.events.Subjects()
	if len(subjects) != 1 || subjects[0] != events.BookingCancelled {
		t.Fatalf("unexpected events %v", subjects)
	}

	_, err = f.api.Bookings.Cancel(ctx, b.ID, "again")
	if !errors.Is(err, apiclient.ErrValidation) {
		t.Fatalf("cancelling twice should be rejected, got %v", err)
	}
}

func TestPayValidatesBeforeSending(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	b, err := f.api.Bookings.Create(ctx, domain.BookingDraft{PropertyID: f.hotel.ID, CheckIn: jan(10), CheckOut: jan(11), Guests: 1}, "")
	if err != nil {
		t.Fatal(err)
	}
	f.srv.ResetRequests()

	_, err = f.api.Bookings.Pay(ctx, b.ID, domain.PaymentRequest{Method: domain.MethodJazzCash})
	if !errors.Is(err, domain.ErrMissingWalletPhone) {
		t.Fatalf("expected local validation error, got %v", err)
	}
	if len(f.srv.Requests()) != 0 {
		t.Fatal("invalid payment must not reach the network")
	}

	res, err := f.api.Bookings.Pay(ctx, b.ID, domain.PaymentRequest{
		Method:         domain.MethodCreditCard,
		CardNumber:     "4242 4242 4242 4242",
		ExpiryDate:     "12/30",
		CVV:            "123",
		CardholderName: "Guest User",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("unexpected payment status %s", res.PaymentStatus)
	}

	receipt, err := f.api.Bookings.Receipt(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(receipt), "Payment: paid") {
		t.Fatalf("unexpected receipt %q", receipt)
	}

	txs, err := f.api.Payments.Transactions(ctx, domain.TransactionFilter{})
	if err != nil || txs.Count != 1 {
		t.Fatalf("transactions: %v %+v", err, txs)
	}
	if subjects := f.events.Subjects(); len(subjects) != 1 || subjects[0] != events.PaymentSubmitted {
		t.Fatalf("unexpected events %v", subjects)
	}
}

func TestWalletPaymentVerification(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	b, _ := f.api.Bookings.Create(ctx, domain.BookingDraft{PropertyID: f.hotel.ID, CheckIn: jan(10), CheckOut: jan(11), Guests: 1}, "")
	res, err := f.api.Bookings.Pay(ctx, b.ID, domain.PaymentRequest{Method: domain.MethodEasyPaisa, PhoneNumber: "+923001234567", TransactionID: "EP-1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.PaymentStatus != domain.PaymentProcessing {
		t.Fatalf("wallet payments start processing, got %s", res.PaymentStatus)
	}

	verified, err := f.api.Bookings.VerifyPayment(ctx, b.ID, "EP-1")
	if err != nil || verified.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("verify: %v %+v", err, verified)
	}
}

// ---------- Favorites, notifications, reviews ----------

func TestFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if f.api.Favorites.IsFavorite(ctx, f.hotel.ID) {
		t.Fatal("anonymous check must report false")
	}

	f.login(t)
	if _, err := f.api.Favorites.Add(ctx, f.hotel.ID); err != nil {
		t.Fatal(err)
	}
	if !f.api.Favorites.IsFavorite(ctx, f.hotel.ID) {
		t.Fatal("expected favorite")
	}
	favs, err := f.api.Favorites.List(ctx)
	if err != nil || len(favs) != 1 {
		t.Fatalf("list: %v %+v", err, favs)
	}
	if err := f.api.Favorites.Remove(ctx, f.hotel.ID); err != nil {
		t.Fatal(err)
	}
	if f.api.Favorites.IsFavorite(ctx, f.hotel.ID) {
		t.Fatal("expected removal")
	}
}

func TestNotificationsAndDashboard(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	f.srv.AddNotification(guestEmail, "Welcome", "Hello", domain.NotifyBookingPending)
	if _, err := f.api.Bookings.Create(ctx, domain.BookingDraft{PropertyID: f.hotel.ID, CheckIn: jan(5), CheckOut: jan(6), Guests: 1}, ""); err != nil {
		t.Fatal(err)
	}

	d, err := f.api.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Bookings) != 1 || d.Unread != 2 || len(d.Notifications) != 2 {
		t.Fatalf("unexpected dashboard %+v", d)
	}

	if err := f.api.Notifications.MarkRead(ctx, d.Notifications[0].ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.api.Notifications.UnreadCount(ctx); n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}
	if err := f.api.Notifications.MarkAllRead(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.api.Notifications.UnreadCount(ctx); n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}
	if err := f.api.Notifications.Delete(ctx, d.Notifications[1].ID); err != nil {
		t.Fatal(err)
	}

	history, err := f.api.Notifications.StatusHistory(ctx, d.Bookings[0].ID)
	if err != nil || len(history) != 1 || history[0].NewStatus != "pending" {
		t.Fatalf("history: %v %+v", err, history)
	}
}

func TestDashboardFailsAsAWhole(t *testing.T) {
	f := newFixture(t)
	_, err := f.api.Dashboard(context.Background())
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("expected 401 for anonymous dashboard, got %v", err)
	}
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	rv, err := f.api.Reviews.Create(ctx, domain.ReviewInput{Property: f.hotel.ID, Rating: 5, Comment: "Lovely"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.api.Reviews.Update(ctx, rv.ID, domain.ReviewInput{Comment: "Lovely stay"}); err != nil {
		t.Fatal(err)
	}
	page, err := f.api.Reviews.ForProperty(ctx, f.hotel.ID)
	if err != nil || len(page.Results) != 1 || page.Results[0].Comment != "Lovely stay" {
		t.Fatalf("reviews: %v %+v", err, page)
	}
	if err := f.api.Reviews.Delete(ctx, rv.ID); err != nil {
		t.Fatal(err)
	}
}

// ---------- Admin ----------

func TestAdminRequiresStaff(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	_, err := f.api.Admin.Dashboard(ctx)
	if !errors.Is(err, apiclient.ErrForbidden) || apiclient.Message(err) != "Permission denied" {
		t.Fatalf("expected 403, got %v", err)
	}

	f.srv.AddUser("admin@example.com", fakeapi.DefaultPassword, true)
	if _, err := f.api.Auth.Login(ctx, "admin@example.com", fakeapi.DefaultPassword); err != nil {
		t.Fatal(err)
	}
	stats, err := f.api.Admin.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalUsers != 2 || stats.TotalProperties != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	users, err := f.api.Admin.Users(ctx, domain.AdminFilter{})
	if err != nil || users.Count != 2 {
		t.Fatalf("users: %v %+v", err, users)
	}

	off := false
	p, err := f.api.Admin.UpdateProperty(ctx, f.hotel.ID, domain.PropertyPatch{IsAvailable: &off})
	if err != nil || p.IsAvailable {
		t.Fatalf("update property: %v %+v", err, p)
	}
}
