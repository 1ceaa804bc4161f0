// Package console is the command-line admin console: it signs users in, shows
// the user and task tables, runs admin actions and exports CSV files.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/asaidimu/go-tabula/client"
	"github.com/asaidimu/go-tabula/config"
	"github.com/asaidimu/go-tabula/core/activity"
	"github.com/asaidimu/go-tabula/core/session"
	"github.com/asaidimu/go-tabula/sqlite"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
)

// drainTimeout bounds how long Close waits for activity events to be recorded.
const drainTimeout = 2 * time.Second

// Options configures an App. Zero values fall back to the process defaults.
type Options struct {
	Config     *config.Config
	Logger     *zap.Logger
	In         io.Reader
	Out        io.Writer
	HTTPClient *http.Client
	Sessions   session.Store
	Now        func() time.Time

	// ColorProfile forces the output color profile instead of detecting it
	// from Out.
	ColorProfile *termenv.Profile
}

// App holds everything a console invocation needs.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	in       io.Reader
	out      io.Writer
	render   *Renderer
	notify   *Notifier
	exporter *Exporter
	sessions session.Store
	bus      *activity.Bus
	feed     *activity.Log
	detach   func()
	tabs     map[string]*Tab
	now      func() time.Time

	httpClient *http.Client
	api        *client.Client
	store      *sqlite.Store
	current    *session.Session
}

var _ activity.Sink = (*App)(nil)

// NewApp creates an App from opts.
func NewApp(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:        cfg,
		logger:     logger,
		in:         opts.In,
		out:        opts.Out,
		sessions:   opts.Sessions,
		tabs:       newTabs(cfg.PageSize),
		now:        opts.Now,
		httpClient: opts.HTTPClient,
	}
	if a.in == nil {
		a.in = os.Stdin
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.sessions == nil {
		a.sessions = session.NewFileStore(cfg.SessionFile)
	}
	if a.now == nil {
		a.now = time.Now
	}
	lr := lipgloss.NewRenderer(a.out)
	if opts.ColorProfile != nil {
		lr.SetColorProfile(*opts.ColorProfile)
	}
	theme := DefaultTheme(lr)
	a.render = NewRenderer(a.out, theme)
	a.notify = NewNotifier(a.out, theme)
	a.exporter = NewExporter(cfg.ExportDir, logger)

	bus, err := activity.NewBus(logger)
	if err != nil {
		return nil, err
	}
	a.bus = bus
	a.feed = activity.NewLog(activity.DefaultLimit, a, logger)
	a.detach = a.feed.Attach(bus)
	return a, nil
}

// Close waits for pending activity to be recorded and releases the snapshot
// database.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := a.bus.Drain(ctx); err != nil {
		a.logger.Warn("Activity events still pending at exit", zap.Error(err))
	}
	a.detach()

	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// AppendActivity persists a feed entry to the snapshot database.
func (a *App) AppendActivity(ctx context.Context, entry activity.Entry) error {
	store, err := a.snapshots(ctx)
	if err != nil {
		return err
	}
	return store.AppendActivity(ctx, entry)
}

func (a *App) snapshots(ctx context.Context) (*sqlite.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := sqlite.Open(ctx, a.cfg.SnapshotDB, a.logger)
	if err != nil {
		return nil, fmt.Errorf("could not open snapshot database: %w", err)
	}
	a.store = store
	return store, nil
}

// session returns the saved session, or nil when nobody is signed in.
func (a *App) session() (*session.Session, error) {
	if a.current != nil {
		return a.current, nil
	}
	s, err := a.sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.current = s
	return s, nil
}

// require returns the session when it holds every capability in caps.
func (a *App) require(caps ...session.Capability) (*session.Session, error) {
	s, err := a.session()
	if err != nil {
		return nil, err
	}
	if err := session.Require(s, caps...); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) client() (*client.Client, error) {
	if a.api != nil {
		return a.api, nil
	}

	opts := []client.Option{
		client.WithBus(a.bus),
		client.WithLogger(a.logger),
	}
	if a.httpClient != nil {
		opts = append(opts, client.WithHTTPClient(a.httpClient))
	}
	opts = append(opts, client.WithTimeout(a.cfg.RequestTimeout()))
	if s, err := a.session(); err == nil && s != nil {
		opts = append(opts, client.WithCookies(s.Cookies))
	}

	c, err := client.New(a.cfg.ServerURL, opts...)
	if err != nil {
		return nil, err
	}
	a.api = c
	return c, nil
}

// Run executes one console command line.
func Run(ctx context.Context, args []string, opts Options) (err error) {
	app, err := NewApp(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	err = app.Root().Execute(ctx, args, app.out)
	switch {
	case errors.Is(err, session.ErrLoginRequired):
		return fmt.Errorf("%w: run 'taskconsole login' first", err)
	case client.IsUnauthorized(err):
		return fmt.Errorf("%w: the session may have expired, run 'taskconsole login' again", err)
	}
	return err
}
