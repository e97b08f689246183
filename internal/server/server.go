package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"mashup/internal/config"
	"mashup/internal/delivery"
	"mashup/internal/logging"
	"mashup/internal/mashup"
	"mashup/internal/notifications"
	"mashup/internal/workarea"
)

//go:embed static/index.html
var staticFS embed.FS

// Dependencies are the collaborators a Server drives.
type Dependencies struct {
	Runner   Runner
	Sender   delivery.Sender
	Notifier notifications.Service
	Store    JobStore
}

// Server accepts mashup requests over HTTP and enforces single-instance
// execution through a lock file.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   Runner
	sender   delivery.Sender
	notifier notifications.Service
	store    JobStore
	bounds   mashup.Bounds

	lockPath string
	lock     *flock.Flock

	// runMu serializes pipeline runs.
	runMu sync.Mutex

	stateMu       sync.Mutex
	activeRequest string
	startedAt     time.Time

	listener net.Listener
	http     *http.Server
}

// New constructs a server. Runner and Sender are required.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if cfg == nil || deps.Runner == nil || deps.Sender == nil {
		return nil, errors.New("server requires config, runner, and sender")
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	s := &Server{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "server"),
		runner:   deps.Runner,
		sender:   deps.Sender,
		notifier: notifier,
		store:    deps.Store,
		bounds:   mashup.Bounds{MinItems: cfg.Mashup.MinItems, MinClipSeconds: cfg.Mashup.MinClipSeconds},
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	if s.bounds == (mashup.Bounds{}) {
		s.bounds = mashup.DefaultBounds
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Mashup requests hold the connection for the whole run.
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed HTTP handler. The form page and the /mashup
// route it posts to stay public; /api routes require the token when set.
func (s *Server) Handler() http.Handler {
	token := strings.TrimSpace(s.cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/mashup", s.handleMashup)
	mux.HandleFunc("/api/mashup", authMiddleware(token, s.handleMashup))
	mux.HandleFunc("/api/status", authMiddleware(token, s.handleStatus))
	mux.HandleFunc("/api/jobs", authMiddleware(token, s.handleJobs))
	mux.HandleFunc("/api/jobs/", authMiddleware(token, s.handleJob))
	mux.HandleFunc("/api/logs", authMiddleware(token, s.handleLogs))
	return mux
}

// Start acquires the instance lock, tidies state left by a previous run, and
// begins serving on the configured bind address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mashup server instance is already running")
	}

	s.recover(ctx)

	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("listen on %s: %w", s.cfg.Paths.APIBind, err)
	}
	s.listener = listener
	s.stateMu.Lock()
	s.startedAt = time.Now().UTC()
	s.stateMu.Unlock()

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("mashup server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
		logging.Bool("auth", strings.TrimSpace(s.cfg.Paths.APIToken) != ""),
	)
	if err := s.notifier.NotifyServerStarted(ctx, listener.Addr().String()); err != nil {
		s.logger.Debug("server start notification failed", logging.Error(err))
	}
	return nil
}

// Stop shuts the HTTP server down and releases the instance lock.
func (s *Server) Stop() {
	if s.http != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}
	if s.lock != nil && s.lock.Locked() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release server lock", logging.Error(err))
		}
	}
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// recover fails jobs orphaned by a crash and removes abandoned work areas.
func (s *Server) recover(ctx context.Context) {
	if s.store != nil {
		n, err := s.store.FailInterrupted(ctx)
		if err != nil {
			logging.WarnWithContext(s.logger, "failed to mark interrupted jobs", "jobs_recover_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the jobs database"),
			)
		} else if n > 0 {
			s.logger.Info("marked interrupted jobs failed", logging.Int64("count", n))
		}
	}

	maxAge := time.Duration(s.cfg.Mashup.StaleAreaHours) * time.Hour
	if maxAge <= 0 {
		return
	}
	result := workarea.CleanStale(ctx, s.cfg.Paths.WorkDir, maxAge, s.logger)
	if len(result.Removed) > 0 {
		s.logger.Info("removed stale work areas", logging.Int("count", len(result.Removed)))
	}
	if len(result.Errors) > 0 {
		s.logger.Debug("stale work area cleanup incomplete", logging.Int("errors", len(result.Errors)))
	}
}

func (s *Server) setActive(requestID string) {
	s.stateMu.Lock()
	s.activeRequest = requestID
	s.stateMu.Unlock()
}
