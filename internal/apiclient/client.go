// Package apiclient is the single path through which backend calls pass. It
// attaches the stored bearer token and renews an expired access token once,
// transparently, when the backend answers 401.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/internal/tokenstore"
	"github.com/diagnosis/pakbooking/pkg/config"
	"github.com/diagnosis/pakbooking/pkg/logger"
	"github.com/diagnosis/pakbooking/pkg/middleware"
	"github.com/google/go-querystring/query"
	"golang.org/x/sync/singleflight"
)

const RefreshPath = "/auth/token/refresh/"

const maxErrorBody = 1 << 20

// SessionExpiredFunc is called after the stored tokens have been cleared
// because they could not be renewed.
type SessionExpiredFunc func(ctx context.Context, cause error)

type Client struct {
	baseURL string
	http    *http.Client
	tokens  tokenstore.Store

	mu        sync.RWMutex
	onExpired SessionExpiredFunc

	refreshes singleflight.Group
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	insecure   bool
	onExpired  SessionExpiredFunc
}

type Option func(*options)

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithInsecureSkipVerify disables TLS verification, for local backends with
// self-signed certificates.
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *options) { o.insecure = skip }
}

func WithSessionExpiredHandler(fn SessionExpiredFunc) Option {
	return func(o *options) { o.onExpired = fn }
}

func New(baseURL string, store tokenstore.Store, opts ...Option) *Client {
	o := options{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	var hc http.Client
	if o.httpClient != nil {
		hc = *o.httpClient
	} else {
		hc.Timeout = o.timeout
	}

	base := hc.Transport
	if o.insecure {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local backends
		base = t
	}
	hc.Transport = middleware.Chain(base,
		middleware.Recover,
		middleware.RequestID,
		middleware.UserAgent(o.userAgent),
		middleware.Logging,
	)

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &hc,
		tokens:    store,
		onExpired: o.onExpired,
	}
}

// NewFromConfig builds a client from the API section of cfg.
func NewFromConfig(cfg *config.Config, store tokenstore.Store, opts ...Option) *Client {
	base := []Option{
		WithTimeout(cfg.API.Timeout),
		WithUserAgent(cfg.API.UserAgent),
		WithInsecureSkipVerify(cfg.API.Insecure),
	}
	return New(cfg.API.BaseURL, store, append(base, opts...)...)
}

// OnSessionExpired replaces the session-expired handler. The session layer
// is built after the client, so it registers itself here.
func (c *Client) OnSessionExpired(fn SessionExpiredFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

func (c *Client) Tokens() tokenstore.Store { return c.tokens }

func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one logical call. Query is either url.Values or a struct
// with `url` tags. Body is JSON-encoded unless nil.
type Request struct {
	Method string
	Path   string
	Query  any
	Body   any
	Header http.Header
	// SkipAuth sends the request without a bearer token and returns a 401
	// unchanged. Used for credential exchanges such as login.
	SkipAuth bool
}

// Do sends req and decodes a 2xx body into out. out may be nil, or a
// *[]byte to receive the raw body.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	target, err := c.url(req.Path, req.Query)
	if err != nil {
		return err
	}

	var body []byte
	if req.Body != nil {
		if body, err = json.Marshal(req.Body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	if req.SkipAuth {
		return c.attempt(ctx, req, target, body, "", out)
	}

	access, _, err := c.tokens.Get(ctx, tokenstore.AccessToken)
	if err != nil {
		return fmt.Errorf("read access token: %w", err)
	}

	err = c.attempt(ctx, req, target, body, access, out)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindUnauthorized {
		return err
	}

	renewed, rerr := c.renew(ctx, access, err)
	if rerr != nil {
		return rerr
	}

	// Second and last attempt: a 401 here goes back to the caller unchanged.
	return c.attempt(ctx, req, target, body, renewed, out)
}

func (c *Client) Get(ctx context.Context, path string, q any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

func (c *Client) url(path string, q any) (string, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if q == nil {
		return u, nil
	}

	var values url.Values
	switch v := q.(type) {
	case url.Values:
		values = v
	default:
		var err error
		if values, err = query.Values(q); err != nil {
			return "", fmt.Errorf("encode query: %w", err)
		}
	}
	if len(values) == 0 {
		return u, nil
	}
	return u + "?" + values.Encode(), nil
}

// attempt performs one round trip with the given token. Each call builds a
// fresh *http.Request, so retries never share state.
func (c *Client) attempt(ctx context.Context, req Request, target string, body []byte, token string, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &Error{Kind: KindNetwork, Code: CodeNetworkError, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newHTTPError(resp.StatusCode, b)
	}

	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Code: CodeNetworkError, Err: err}
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = b
		return nil
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &DecodeError{Status: resp.StatusCode, Target: fmt.Sprintf("%T", out), Err: err}
	}
	return nil
}

// renew returns an access token to retry with after a 401 on a request sent
// with failedToken. Concurrent callers holding the same refresh token share
// one refresh call.
func (c *Client) renew(ctx context.Context, failedToken string, original error) (string, error) {
	if current, ok, err := c.tokens.Get(ctx, tokenstore.AccessToken); err == nil && ok && current != failedToken {
		// Another request already renewed the token.
		return current, nil
	}

	refresh, ok, err := c.tokens.Get(ctx, tokenstore.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if !ok {
		c.expire(ctx, original)
		return "", original
	}

	v, err, shared := c.refreshes.Do(refresh, func() (any, error) {
		// Detach from the first caller's cancellation: the result is shared.
		fctx := context.WithoutCancel(ctx)

		if current, ok, err := c.tokens.Get(fctx, tokenstore.AccessToken); err == nil && ok && current != failedToken {
			return current, nil
		}

		access, err := c.refresh(fctx, refresh)
		if err != nil {
			c.expire(fctx, err)
			return "", err
		}
		return access, nil
	})
	if err != nil {
		return "", err
	}

	logger.DebugContext(ctx, "Access token renewed", "shared", shared)
	return v.(string), nil
}

func (c *Client) refresh(ctx context.Context, refresh string) (string, error) {
	target, err := c.url(RefreshPath, nil)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(domain.TokenRefreshRequest{Refresh: refresh})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", err)
	}

	var resp domain.TokenRefreshResponse
	req := Request{Method: http.MethodPost, Path: RefreshPath}
	if err := c.attempt(ctx, req, target, body, "", &resp); err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	if resp.Access == "" {
		return "", fmt.Errorf("refresh access token: %w",
			&DecodeError{Status: http.StatusOK, Target: "TokenRefreshResponse", Err: errors.New("missing access token")})
	}

	if resp.Refresh != "" {
		err = c.tokens.SetPair(ctx, tokenstore.Pair{Access: resp.Access, Refresh: resp.Refresh})
	} else {
		err = c.tokens.Set(ctx, tokenstore.AccessToken, resp.Access)
	}
	if err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}
	return resp.Access, nil
}

// expire clears both tokens and notifies the session layer.
func (c *Client) expire(ctx context.Context, cause error) {
	if err := c.tokens.Clear(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to clear tokens", "error", err)
	}
	logger.WarnContext(ctx, "Session expired", "cause", cause)

	c.mu.RLock()
	fn := c.onExpired
	c.mu.RUnlock()
	if fn != nil {
		fn(ctx, cause)
	}
}
