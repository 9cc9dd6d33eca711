// Package api wraps each backend resource in typed calls over apiclient.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/diagnosis/pakbooking/internal/apiclient"
	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/internal/tokenstore"
	"github.com/diagnosis/pakbooking/pkg/events"
)

// Requester is the part of apiclient.Client the resource modules use.
type Requester interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

type API struct {
	Auth          *Auth
	Listings      *Listings
	Bookings      *Bookings
	Payments      *Payments
	Notifications *Notifications
	Favorites     *Favorites
	Reviews       *Reviews
	Admin         *Admin
}

type Option func(*config)

type config struct {
	publisher events.Publisher
}

// WithPublisher publishes booking and payment events on success.
func WithPublisher(p events.Publisher) Option {
	return func(c *config) { c.publisher = p }
}

func New(c *apiclient.Client, opts ...Option) *API {
	return NewWith(c, c.Tokens(), opts...)
}

// NewWith builds the modules over any Requester, for tests that stub the
// transport.
func NewWith(r Requester, tokens tokenstore.Store, opts ...Option) *API {
	cfg := config{publisher: events.Nop{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &API{
		Auth:          &Auth{r: r, tokens: tokens},
		Listings:      &Listings{r: r},
		Bookings:      &Bookings{r: r, pub: cfg.publisher},
		Payments:      &Payments{r: r},
		Notifications: &Notifications{r: r},
		Favorites:     &Favorites{r: r},
		Reviews:       &Reviews{r: r},
		Admin:         &Admin{r: r},
	}
}

func get(ctx context.Context, r Requester, path string, q any, out any) error {
	return r.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

func post(ctx context.Context, r Requester, path string, body any, out any) error {
	return r.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func patch(ctx context.Context, r Requester, path string, body any, out any) error {
	return r.Do(ctx, apiclient.Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func del(ctx context.Context, r Requester, path string) error {
	return r.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: path}, nil)
}

// resourcePath joins a resource prefix, an escaped id and an optional action, with
// the trailing slash the backend requires.
func resourcePath(prefix string, id domain.ID, action ...string) string {
	p := fmt.Sprintf("%s/%s/", prefix, url.PathEscape(id.String()))
	for _, a := range action {
		p += a + "/"
	}
	return p
}

// Detail is the {"detail": "..."} acknowledgement many actions return.
type Detail struct {
	Detail string `json:"detail"`
}
