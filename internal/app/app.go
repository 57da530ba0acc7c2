package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/multiverse/internal/config"
	"github.com/five82/multiverse/internal/connection"
	"github.com/five82/multiverse/internal/logging"
	"github.com/five82/multiverse/internal/metrics"
	"github.com/five82/multiverse/internal/palette"
	"github.com/five82/multiverse/internal/prefs"
	"github.com/five82/multiverse/internal/state"
	"github.com/five82/multiverse/internal/syncer"
	"github.com/five82/multiverse/internal/transport"
	"github.com/five82/multiverse/internal/ui"
)

const healthTimeout = 3 * time.Second

// Options configure a Session.
type Options struct {
	// LogOutput receives logs. Nil opens cfg.LogFile, which keeps the TUI
	// screen clean.
	LogOutput io.Writer
	// Dialer overrides the push channel dialer; nil uses websockets.
	Dialer connection.Dialer
}

// Session is one connected client: the multiverse store, the server API,
// the push channel and the controller joining them.
type Session struct {
	Config config.Config
	Log    *logrus.Logger
	Store  *state.Store
	Client *transport.Client
	Conn   *connection.Manager
	Sync   *syncer.Controller

	changes chan struct{}
	logFile *os.File
}

// NewSession wires a session from cfg. Nothing touches the network until
// Run or Ping.
func NewSession(cfg config.Config, opts Options) (*Session, error) {
	s := &Session{Config: cfg, changes: make(chan struct{}, 1)}

	out := opts.LogOutput
	if out == nil {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		s.logFile = f
		out = f
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Output: out})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Log = log

	strategy, err := palette.New(paletteOptions(cfg.Palette))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init palette: %w", err)
	}

	s.Store, err = state.NewStore(state.Options{
		Size:    cfg.Universe.Size,
		Colours: palette.NewAllocator(strategy),
		Multi:   cfg.Editor.Multi,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	s.Store.Subscribe(s.signal)

	s.Client, err = transport.NewClient(cfg.Server)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init multiverse client: %w", err)
	}

	s.Conn, err = connection.New(connection.Options{
		URL:            s.Client.UpdatesURL(),
		Dialer:         opts.Dialer,
		ReconnectDelay: cfg.Connection.Delay,
		Logger:         log,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init push channel: %w", err)
	}

	s.Sync = syncer.New(s.Store, s.Client, log)
	s.Sync.Bind(s.Conn)
	return s, nil
}

// paletteOptions maps config onto a palette preset. The configured band
// only applies to the general preset; bright-band keeps its own.
func paletteOptions(pc config.PaletteConfig) palette.Options {
	opts := palette.Options{
		Preset:      pc.Strategy,
		MinDistance: pc.MinDistance,
		MaxAttempts: pc.MaxAttempts,
	}
	if pc.Strategy == palette.PresetGeneral {
		opts.LuminanceMin = pc.LuminanceMin
		opts.LuminanceMax = pc.LuminanceMax
	}
	return opts
}

// signal coalesces store notifications into at most one pending wake-up.
func (s *Session) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Changes is signalled after store mutations. Signals coalesce.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Ping checks the server once, bounded by a short timeout.
func (s *Session) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return s.Sync.Health(ctx)
}

// Run keeps the push channel and the metrics listener alive while fg runs.
// When fg returns, or ctx is cancelled, everything stops.
func (s *Session) Run(ctx context.Context, fg func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Conn.Run(ctx)
	})
	g.Go(func() error {
		if err := metrics.Serve(ctx, s.Config.MetricsAddr, s.Log); err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return fg(ctx)
	})
	return g.Wait()
}

// Close releases the log file.
func (s *Session) Close() {
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
	}
}

// RunUI boots the TUI until the user quits or ctx is cancelled.
func RunUI(ctx context.Context, cfg config.Config, prefsPath string) error {
	s, err := NewSession(cfg, Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	userPrefs, _ := prefs.Load(prefsPath)

	// An unreachable server is not fatal: the push channel keeps retrying
	// and the header shows the connection state.
	_ = s.Ping(ctx)

	return s.Run(ctx, func(ctx context.Context) error {
		return ui.Run(ui.Options{
			Context:   ctx,
			Store:     s.Store,
			Actions:   s.Sync,
			ThemeName: userPrefs.Theme,
			PerRow:    userPrefs.UniversesPerRow,
			PrefsPath: prefsPath,
			LogPath:   cfg.LogFile,
			Changes:   s.Changes(),
		})
	})
}

// Watch connects without a UI and logs every snapshot until ctx is
// cancelled.
func Watch(ctx context.Context, cfg config.Config, out io.Writer, every time.Duration) error {
	s, err := NewSession(cfg, Options{LogOutput: out})
	if err != nil {
		return err
	}
	defer s.Close()

	_ = s.Ping(ctx)
	return s.Run(ctx, func(ctx context.Context) error {
		StartReporter(ctx, s.Store, s.Log, every)
		watchSnapshots(ctx, s.Store, s.Changes(), s.Log)
		return nil
	})
}
