package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChainOrderAndHeaders(t *testing.T) {
	var gotID, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := &http.Client{Transport: Chain(nil, Recover, RequestID, UserAgent("pakbooking-test"), Logging)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if gotID == "" {
		t.Fatal("expected X-Request-ID to be set")
	}
	if gotUA != "pakbooking-test" {
		t.Fatalf("expected user agent, got %q", gotUA)
	}
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	var gotID string
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		gotID = r.Header.Get("X-Request-ID")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	req.Header.Set("X-Request-ID", "fixed")

	if _, err := Chain(base, RequestID).RoundTrip(req); err != nil {
		t.Fatal(err)
	}
	if gotID != "fixed" {
		t.Fatalf("expected caller's request id, got %q", gotID)
	}
}

func TestRecoverTurnsPanicIntoError(t *testing.T) {
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		panic("boom")
	})

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	_, err := Chain(base, Recover).RoundTrip(req)

	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "boom" {
		t.Fatalf("expected PanicError, got %v", err)
	}
}
