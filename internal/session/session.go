// Package session holds the process-wide authentication state: whether a
// user is signed in, and who. It wraps the auth API calls and keeps the
// state consistent with the token store.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/pkg/events"
	"github.com/diagnosis/pakbooking/pkg/logger"
)

type State int

const (
	// Unknown is the state before Bootstrap completes.
	Unknown State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	State State
	User  *domain.User
}

func (s Snapshot) IsAuthenticated() bool { return s.State == Authenticated }

// Backend is the subset of the auth API the session drives.
type Backend interface {
	Login(ctx context.Context, email, password string) (domain.LoginResult, error)
	Register(ctx context.Context, in domain.Registration) (domain.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (domain.User, error)
	UpdateProfile(ctx context.Context, p domain.ProfilePatch) (domain.User, error)
	HasTokens(ctx context.Context) (bool, error)
	ClearTokens(ctx context.Context) error
}

type Option func(*Manager)

func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) { m.pub = p }
}

// WithLogoutHandler installs fn to run after every Logout, once local state
// is cleared.
func WithLogoutHandler(fn func()) Option {
	return func(m *Manager) { m.onLogout = fn }
}

// WithExpiredHandler installs fn to run after the session is ended by a
// failed token refresh.
func WithExpiredHandler(fn func(cause error)) Option {
	return func(m *Manager) { m.onExpired = fn }
}

type Manager struct {
	backend   Backend
	pub       events.Publisher
	onLogout  func()
	onExpired func(cause error)

	mu    sync.RWMutex
	state State
	user  *domain.User
	subs  []func(Snapshot)
}

func New(backend Backend, opts ...Option) *Manager {
	m := &Manager{backend: backend, pub: events.Nop{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap resolves the Unknown state. Without a stored token the session
// is Anonymous. With one, the current user is fetched; if that fails the
// tokens are treated as invalid and cleared.
func (m *Manager) Bootstrap(ctx context.Context) (Snapshot, error) {
	ok, err := m.backend.HasTokens(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read token store", "error", err)
	}
	if !ok {
		return m.set(Anonymous, nil), nil
	}

	u, err := m.backend.CurrentUser(ctx)
	if err != nil {
		logger.InfoContext(ctx, "Stored session is no longer valid", "error", err)
		if cerr := m.backend.ClearTokens(ctx); cerr != nil {
			logger.WarnContext(ctx, "Failed to clear tokens", "error", cerr)
		}
		return m.set(Anonymous, nil), nil
	}
	return m.set(Authenticated, &u), nil
}

// Login signs in. On failure the session is left exactly as it was.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.User, error) {
	res, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}

	u := res.User
	m.set(Authenticated, &u)
	m.publish(ctx, events.SessionStarted, events.SessionEvent{UserID: u.ID.String(), Email: u.Email})
	logger.InfoContext(ctx, "Signed in", "user_id", u.ID)
	return u, nil
}

// Register creates an account without signing in; the caller logs in
// separately.
func (m *Manager) Register(ctx context.Context, in domain.Registration) (domain.User, error) {
	return m.backend.Register(ctx, in)
}

// Logout clears the session. The server-side call is best-effort, so Logout
// is safe to call in any state and only fails if local tokens could not be
// cleared. Local state is cleared regardless.
func (m *Manager) Logout(ctx context.Context) error {
	prev := m.Snapshot()
	err := m.backend.Logout(ctx)
	m.set(Anonymous, nil)

	if prev.IsAuthenticated() {
		m.publish(ctx, events.SessionEnded, events.SessionEvent{UserID: prev.User.ID.String(), Email: prev.User.Email, Reason: "logout"})
	}
	if m.onLogout != nil {
		m.onLogout()
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// UpdateProfile applies p. On failure the session is left untouched.
func (m *Manager) UpdateProfile(ctx context.Context, p domain.ProfilePatch) (domain.User, error) {
	u, err := m.backend.UpdateProfile(ctx, p)
	if err != nil {
		return domain.User{}, err
	}
	m.set(Authenticated, &u)
	return u, nil
}

// RefreshUser reloads the current user. A failure ends the session: the
// user is cleared along with the tokens that no longer identify anyone.
func (m *Manager) RefreshUser(ctx context.Context) (domain.User, error) {
	u, err := m.backend.CurrentUser(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to refresh user", "error", err)
		prev := m.Snapshot()
		if cerr := m.backend.ClearTokens(ctx); cerr != nil {
			logger.WarnContext(ctx, "Failed to clear tokens", "error", cerr)
		}
		m.set(Anonymous, nil)
		if prev.IsAuthenticated() {
			m.publish(ctx, events.SessionEnded, events.SessionEvent{UserID: prev.User.ID.String(), Email: prev.User.Email, Reason: "refresh_user_failed"})
		}
		return domain.User{}, err
	}
	m.set(Authenticated, &u)
	return u, nil
}

// Expire ends the session after the HTTP client gave up on refreshing the
// access token. Its signature matches apiclient.SessionExpiredFunc.
func (m *Manager) Expire(ctx context.Context, cause error) {
	prev := m.Snapshot()
	m.set(Anonymous, nil)

	ev := events.SessionEvent{Reason: "refresh_failed"}
	if prev.User != nil {
		ev.UserID, ev.Email = prev.User.ID.String(), prev.User.Email
	}
	m.publish(ctx, events.SessionExpired, ev)

	if m.onExpired != nil {
		m.onExpired(cause)
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *domain.User {
	return m.Snapshot().User
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Subscribe registers fn to receive every state change. Callbacks run on
// the goroutine that caused the change, after the lock is released.
func (m *Manager) Subscribe(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{State: m.state}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

func (m *Manager) set(state State, u *domain.User) Snapshot {
	m.mu.Lock()
	m.state = state
	m.user = u
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

func (m *Manager) publish(ctx context.Context, subject string, ev events.SessionEvent) {
	ev.Timestamp = time.Now().UTC()
	if err := m.pub.Publish(ctx, subject, ev); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
