// Package cli is the pakbooking command line. Commands are thin: they parse
// flags, call the session, booking and API packages, and print results.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/diagnosis/pakbooking/internal/apiclient"
	"github.com/diagnosis/pakbooking/pkg/config"
	"github.com/diagnosis/pakbooking/pkg/logger"
	"github.com/spf13/cobra"
)

// Options lets tests supply configuration and streams. Zero values mean
// environment config and the process streams.
type Options struct {
	Config *config.Config
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
}

type root struct {
	opts    Options
	cfgPath string
	apiURL  string
	verbose bool
	app     *App
}

func NewRootCommand(opts Options) *cobra.Command {
	_, cmd := newRoot(opts)
	return cmd
}

func newRoot(opts Options) (*root, *cobra.Command) {
	r := &root{opts: opts}

	cmd := &cobra.Command{
		Use:   "pakbooking",
		Short: "Browse and book hotels across Pakistan",
		Long: `pakbooking talks to the PakBooking backend: search hotels, check
availability and prices, book and pay, and manage your account.

Credentials are kept in the state directory (or Redis) between runs.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  r.setup,
		PersistentPostRunE: r.teardown,
	}

	cmd.PersistentFlags().StringVar(&r.cfgPath, "config", config.DefaultConfigPath(), "Path to an optional YAML config file")
	cmd.PersistentFlags().StringVar(&r.apiURL, "api-url", "", "Backend base URL (overrides config)")
	cmd.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "Enable debug logging")

	if opts.In != nil {
		cmd.SetIn(opts.In)
	}
	if opts.Out != nil {
		cmd.SetOut(opts.Out)
	}
	if opts.Err != nil {
		cmd.SetErr(opts.Err)
	}

	cmd.AddCommand(
		r.loginCmd(),
		r.registerCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.statusCmd(),
		r.profileCmd(),
		r.hotelsCmd(),
		r.quoteCmd(),
		r.bookCmd(),
		r.bookingsCmd(),
		r.payCmd(),
		r.dashboardCmd(),
		r.notificationsCmd(),
		r.favoritesCmd(),
		r.adminCmd(),
		r.prefsCmd(),
	)
	return r, cmd
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, cmd := newRoot(Options{})
	// PersistentPostRunE is skipped when a command fails.
	defer r.teardown(cmd, nil)
	cmd.Version = version
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apiclient.Message(err))
		return err
	}
	return nil
}

func (r *root) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	if r.apiURL != "" {
		cfg.API.BaseURL = r.apiURL
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if r.verbose {
		level = slog.LevelDebug
	}
	logger.SetOutput(cmd.ErrOrStderr(), level)

	app, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	r.app = app
	return nil
}

func (r *root) loadConfig() (*config.Config, error) {
	if r.opts.Config != nil {
		cp := *r.opts.Config
		return &cp, nil
	}
	if _, err := os.Stat(r.cfgPath); errors.Is(err, os.ErrNotExist) {
		return config.Load(), nil
	}
	cfg, err := config.LoadFile(r.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", r.cfgPath, err)
	}
	return cfg, nil
}

func (r *root) teardown(*cobra.Command, []string) error {
	if r.app == nil {
		return nil
	}
	app := r.app
	r.app = nil
	return app.Close()
}
