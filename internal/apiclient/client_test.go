package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diagnosis/pakbooking/internal/apiclient"
	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/internal/testutil/fakeapi"
	"github.com/diagnosis/pakbooking/internal/tokenstore"
)

// ---------- Helpers ----------

type expiredRecorder struct {
	mu     sync.Mutex
	causes []error
}

func (e *expiredRecorder) handle(_ context.Context, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.causes = append(e.causes, cause)
}

func (e *expiredRecorder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.causes)
}

func signedIn(t *testing.T) (*fakeapi.Server, *tokenstore.MemoryStore, *apiclient.Client, *expiredRecorder) {
	t.Helper()
	srv := fakeapi.New(t)
	srv.AddUser("guest@example.com", fakeapi.DefaultPassword, false)
	access, refresh := srv.Tokens("guest@example.com")

	store := tokenstore.NewMemoryStore(tokenstore.Pair{Access: access, Refresh: refresh})
	rec := &expiredRecorder{}
	client := apiclient.New(srv.APIURL(), store, apiclient.WithSessionExpiredHandler(rec.handle))
	return srv, store, client, rec
}

// ---------- Request path ----------

func TestBearerAttachedOnlyWhenTokenStored(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore(tokenstore.Pair{})
	client := apiclient.New(server.URL, store)
	ctx := context.Background()

	if err := client.Get(ctx, "/listings/", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.SetPair(ctx, tokenstore.Pair{Access: "abc", Refresh: "def"}); err != nil {
		t.Fatal(err)
	}
	if err := client.Get(ctx, "/listings/", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/auth/login/", SkipAuth: true}, nil); err != nil {
		t.Fatal(err)
	}

	want := []string{"", "Bearer abc", ""}
	if len(seen) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d: expected Authorization %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestQueryStructEncoding(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	defer server.Close()

	client := apiclient.New(server.URL+"/api/", tokenstore.NewMemoryStore(tokenstore.Pair{}))
	q := domain.AvailabilityQuery{
		Property: "p-1",
		CheckIn:  domain.NewDate(2024, time.January, 1),
		CheckOut: domain.NewDate(2024, time.January, 4),
	}
	var out domain.Page[domain.Property]
	if err := client.Get(context.Background(), "/bookings/availability/", q, &out); err != nil {
		t.Fatal(err)
	}
	if rawQuery != "check_in=2024-01-01&check_out=2024-01-04&property=p-1" {
		t.Fatalf("unexpected query %q", rawQuery)
	}
}

// ---------- Refresh on 401 ----------

func TestExpiredAccessTokenRefreshedOnceAndRetried(t *testing.T) {
	srv, store, client, rec := signedIn(t)
	before := store.Snapshot()
	srv.ExpireAccessTokens()

	var user domain.User
	if err := client.Get(context.Background(), "/auth/user/", nil, &user); err != nil {
		t.Fatalf("caller should not observe the 401: %v", err)
	}
	if user.Email != "guest@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
	if srv.RefreshCalls() != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", srv.RefreshCalls())
	}
	if got := srv.Count(http.MethodGet, "/auth/user/"); got != 2 {
		t.Fatalf("expected original + one retry, got %d", got)
	}

	after := store.Snapshot()
	if after.Access == before.Access || after.Access == "" {
		t.Fatal("expected a new access token to be stored")
	}
	if after.Refresh != before.Refresh {
		t.Fatal("refresh token should be kept")
	}

	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	if last.Authorization != "Bearer "+after.Access {
		t.Fatalf("retry must carry the new token, got %q", last.Authorization)
	}
	if rec.count() != 0 {
		t.Fatal("session-expired handler must not fire on a successful refresh")
	}
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	srv, _, client, rec := signedIn(t)
	srv.ExpireAccessTokens()
	srv.SetRefreshDelay(100 * time.Millisecond)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var u domain.User
			errs <- client.Get(context.Background(), "/auth/user/", nil, &u)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if srv.RefreshCalls() != 1 {
		t.Fatalf("expected one shared refresh call, got %d", srv.RefreshCalls())
	}
	if rec.count() != 0 {
		t.Fatal("session-expired handler must not fire")
	}
}

func TestRefreshFailureClearsTokensAndReturnsRefreshError(t *testing.T) {
	srv, store, client, rec := signedIn(t)
	srv.ExpireAccessTokens()
	srv.FailRefresh.Store(true)

	err := client.Get(context.Background(), "/auth/user/", nil, &domain.User{})
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Detail != "Token is invalid or expired" {
		t.Fatalf("expected the refresh endpoint's error, got %v", err)
	}
	if got := store.Snapshot(); got != (tokenstore.Pair{}) {
		t.Fatalf("both tokens must be cleared, got %+v", got)
	}
	if rec.count() != 1 {
		t.Fatalf("expected one session-expired notification, got %d", rec.count())
	}
	if srv.Count(http.MethodGet, "/auth/user/") != 1 {
		t.Fatal("original request must not be retried after a failed refresh")
	}
	if apiclient.Message(err) != "Authentication required" {
		t.Fatalf("unexpected message %q", apiclient.Message(err))
	}
}

func TestMissingRefreshTokenClearsAndReturnsOriginalError(t *testing.T) {
	srv, store, client, rec := signedIn(t)
	ctx := context.Background()
	access, _, _ := store.Get(ctx, tokenstore.AccessToken)
	store.SetPair(ctx, tokenstore.Pair{Access: access})
	srv.ExpireAccessTokens()

	err := client.Get(ctx, "/auth/user/", nil, &domain.User{})

	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected original 401, got %v", err)
	}
	if apiErr.Detail != "Given token not valid for any token type" {
		t.Fatalf("expected original error detail, got %q", apiErr.Detail)
	}
	if srv.RefreshCalls() != 0 {
		t.Fatal("no refresh call without a refresh token")
	}
	if store.Snapshot() != (tokenstore.Pair{}) {
		t.Fatal("tokens must be cleared")
	}
	if rec.count() != 1 {
		t.Fatalf("expected session-expired notification, got %d", rec.count())
	}
}

func TestUnauthorizedOnRetryPropagates(t *testing.T) {
	var refreshes, hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiclient.RefreshPath {
			refreshes.Add(1)
			json.NewEncoder(w).Encode(map[string]string{"access": "fresh"})
			return
		}
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"still no"}`))
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore(tokenstore.Pair{Access: "stale", Refresh: "r"})
	rec := &expiredRecorder{}
	client := apiclient.New(server.URL, store, apiclient.WithSessionExpiredHandler(rec.handle))

	err := client.Get(context.Background(), "/protected/", nil, nil)
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("expected 401 from the retry, got %v", err)
	}
	if hits.Load() != 2 || refreshes.Load() != 1 {
		t.Fatalf("expected 2 hits and 1 refresh, got %d and %d", hits.Load(), refreshes.Load())
	}
	if store.Snapshot().Access != "fresh" {
		t.Fatal("refreshed token should remain stored")
	}
	if rec.count() != 0 {
		t.Fatal("a 401 on the retry is not a refresh failure")
	}
}

func TestRotatedRefreshTokenIsStored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiclient.RefreshPath {
			json.NewEncoder(w).Encode(map[string]string{"access": "a2", "refresh": "r2"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer a2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore(tokenstore.Pair{Access: "a1", Refresh: "r1"})
	client := apiclient.New(server.URL, store)
	if err := client.Get(context.Background(), "/x/", nil, nil); err != nil {
		t.Fatal(err)
	}
	if got := store.Snapshot(); got != (tokenstore.Pair{Access: "a2", Refresh: "r2"}) {
		t.Fatalf("unexpected pair %+v", got)
	}
}

// ---------- Other failures ----------

func TestNonUnauthorizedErrorsPropagateUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     error
		msg    string
	}{
		{"validation detail", 400, `{"detail":"Dates overlap"}`, apiclient.ErrValidation, "Dates overlap"},
		{"validation fields", 400, `{"email":["user with this email already exists."]}`, apiclient.ErrValidation, "email: user with this email already exists."},
		{"validation bare", 400, `not json`, apiclient.ErrValidation, "Invalid request data"},
		{"forbidden", 403, `{"detail":"nope"}`, apiclient.ErrForbidden, "Permission denied"},
		{"not found", 404, `{"detail":"Not found."}`, apiclient.ErrNotFound, "Resource not found"},
		{"server", 500, ``, apiclient.ErrServer, "Server error. Please try again later"},
		{"bad gateway", 502, `{"detail":"upstream down"}`, apiclient.ErrServer, "upstream down"},
		{"teapot", 418, ``, nil, "Error 418"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var refreshes atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == apiclient.RefreshPath {
					refreshes.Add(1)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			store := tokenstore.NewMemoryStore(tokenstore.Pair{Access: "a", Refresh: "r"})
			client := apiclient.New(server.URL, store)
			err := client.Get(context.Background(), "/x/", nil, nil)

			var apiErr *apiclient.Error
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Fatalf("expected status %d, got %v", tt.status, err)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("expected errors.Is %v", tt.is)
			}
			if got := apiclient.Message(err); got != tt.msg {
				t.Fatalf("expected message %q, got %q", tt.msg, got)
			}
			if refreshes.Load() != 0 {
				t.Fatal("no refresh for non-401 errors")
			}
			if store.Snapshot().Access != "a" {
				t.Fatal("tokens must be untouched")
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := apiclient.New(url, tokenstore.NewMemoryStore(tokenstore.Pair{}), apiclient.WithTimeout(time.Second))
	err := client.Get(context.Background(), "/x/", nil, nil)
	if !errors.Is(err, apiclient.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if apiclient.Message(err) != "Network error. Please check your connection" {
		t.Fatalf("unexpected message %q", apiclient.Message(err))
	}
}

func TestDecodeErrorOnShapeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": {"unexpected": true}, "email": 5}`))
	}))
	defer server.Close()

	client := apiclient.New(server.URL, tokenstore.NewMemoryStore(tokenstore.Pair{}))
	var u domain.User
	err := client.Get(context.Background(), "/auth/user/", nil, &u)

	var decErr *apiclient.DecodeError
	if !errors.As(err, &decErr) || !errors.Is(err, apiclient.ErrDecode) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if !strings.Contains(decErr.Target, "domain.User") {
		t.Fatalf("unexpected target %q", decErr.Target)
	}
}

func TestRawBodyAndEmptyResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/receipt/" {
			w.Write([]byte("RECEIPT"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := apiclient.New(server.URL, tokenstore.NewMemoryStore(tokenstore.Pair{}))
	var raw []byte
	if err := client.Get(context.Background(), "/receipt/", nil, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw) != "RECEIPT" {
		t.Fatalf("unexpected raw body %q", raw)
	}

	u := domain.User{Email: "keep@example.com"}
	if err := client.Get(context.Background(), "/empty/", nil, &u); err != nil {
		t.Fatal(err)
	}
	if u.Email != "keep@example.com" {
		t.Fatal("empty body must leave out untouched")
	}
}

func TestMessageForNonHTTPErrors(t *testing.T) {
	if got := apiclient.Message(errors.New("boom")); got != "boom" {
		t.Fatalf("unexpected %q", got)
	}
	if got := apiclient.Message(errors.New("")); got != "An unexpected error occurred" {
		t.Fatalf("unexpected %q", got)
	}
	if got := apiclient.Message(nil); got != "" {
		t.Fatalf("unexpected %q", got)
	}
}
