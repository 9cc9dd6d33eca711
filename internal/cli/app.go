package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/diagnosis/pakbooking/internal/api"
	"github.com/diagnosis/pakbooking/internal/apiclient"
	"github.com/diagnosis/pakbooking/internal/localstore"
	"github.com/diagnosis/pakbooking/internal/preferences"
	"github.com/diagnosis/pakbooking/internal/session"
	"github.com/diagnosis/pakbooking/internal/tokenstore"
	"github.com/diagnosis/pakbooking/pkg/config"
	"github.com/diagnosis/pakbooking/pkg/events"
	"github.com/diagnosis/pakbooking/pkg/logger"
)

// App is everything a command needs, built once per invocation.
type App struct {
	Config  *config.Config
	Tokens  tokenstore.Store
	Client  *apiclient.Client
	API     *api.API
	Session *session.Manager
	Prefs   *preferences.Preferences
	Events  events.Publisher

	errOut        io.Writer
	bootstrapOnce sync.Once
	bootstrapErr  error
}

func newApp(ctx context.Context, cfg *config.Config, errOut io.Writer) (*App, error) {
	tokens, err := tokenstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pub, err := events.Open(cfg.NATS.URL)
	if err != nil {
		logger.WarnContext(ctx, "Event publishing disabled", "error", err)
		pub = events.Nop{}
	}

	prefStore, err := localstore.Open(filepath.Join(cfg.Storage.Dir, "preferences.json"))
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	a := &App{
		Config: cfg,
		Tokens: tokens,
		Events: pub,
		Prefs:  preferences.Load(prefStore, cfg.Locale),
		errOut: errOut,
	}

	a.Client = apiclient.NewFromConfig(cfg, tokens)
	a.API = api.New(a.Client, api.WithPublisher(pub))
	a.Session = session.New(a.API.Auth,
		session.WithPublisher(pub),
		session.WithExpiredHandler(func(error) {
			fmt.Fprintln(a.errOut, a.Prefs.T("auth.session_expired"))
		}),
	)
	a.Client.OnSessionExpired(a.Session.Expire)
	return a, nil
}

// Bootstrap resolves the session once per invocation. Commands that do not
// care who is signed in never trigger it.
func (a *App) Bootstrap(ctx context.Context) (session.Snapshot, error) {
	a.bootstrapOnce.Do(func() {
		_, a.bootstrapErr = a.Session.Bootstrap(ctx)
	})
	return a.Session.Snapshot(), a.bootstrapErr
}

// RequireLogin bootstraps and fails unless a user is signed in.
func (a *App) RequireLogin(ctx context.Context) (session.Snapshot, error) {
	snap, err := a.Bootstrap(ctx)
	if err != nil {
		return snap, err
	}
	if !snap.IsAuthenticated() {
		return snap, errors.New(a.Prefs.T("auth.login_required"))
	}
	return snap, nil
}

func (a *App) Close() error {
	if c, ok := a.Tokens.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close token store", "error", err)
		}
	}
	return a.Events.Close()
}
