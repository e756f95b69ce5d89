package inspect

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/sugar/internal/errors"
	"github.com/vango-dev/sugar/internal/telemetry"
	"github.com/vango-dev/sugar/pkg/store"
	"github.com/vango-dev/sugar/pkg/vango"
)

// maxPatchBytes bounds a PATCH body.
const maxPatchBytes = 1 << 20

// Config configures a Server.
type Config struct {
	// Registry holds the served stores. Default: an empty registry.
	Registry *Registry

	// Metrics records requests and watchers. Default: telemetry.Default().
	Metrics *telemetry.Metrics

	// Gatherer is exposed on /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Logger receives request and watcher logs. Default: slog.Default().
	Logger *slog.Logger

	// CheckOrigin is passed to the websocket upgrader. Default: allow all.
	CheckOrigin func(r *http.Request) bool
}

// Server is the inspector HTTP server.
type Server struct {
	registry *Registry
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	router   chi.Router
	hub      *hub
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.Default()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CheckOrigin == nil {
		cfg.CheckOrigin = func(*http.Request) bool { return true }
	}

	s := &Server{
		registry: cfg.Registry,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With("component", "inspect"),
	}
	s.hub = newHub(s.logger, s.metrics, websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     cfg.CheckOrigin,
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(releaseTracking)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Get("/stores", s.handleList)
	r.Get("/stores/{name}", s.handleGet)
	r.Patch("/stores/{name}", s.handlePatch)
	r.Post("/stores/{name}/reset", s.handleReset)
	r.Get("/stores/{name}/watch", s.handleWatch)
	s.router = r
	return s
}

// Registry returns the served registry.
func (s *Server) Registry() *Registry { return s.registry }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ClientCount returns the number of connected watchers.
func (s *Server) ClientCount() int { return s.hub.count() }

// Close disconnects every watcher.
func (s *Server) Close() { s.hub.closeAll() }

// ListenAndServe serves on addr until ctx is done, then shuts down within
// five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.New("S306").WithSubject(addr).Wrap(err)
	case <-ctx.Done():
	}

	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("S306").WithSubject(addr).Wrap(err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.New("S306").WithSubject(addr).Wrap(err)
	}
	return nil
}

// releaseTracking drops the reactive tracking state of the request
// goroutine when the handler returns.
func releaseTracking(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer vango.ReleaseGoroutine()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"stores": s.registry.Names()})
}

func (s *Server) target(w http.ResponseWriter, r *http.Request) (Target, bool) {
	t, err := s.registry.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return t, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	t, ok := s.target(w, r)
	if !ok {
		return
	}
	s.writeState(w, t)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	t, ok := s.target(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("S402").Wrap(err))
		return
	}
	var partial json.RawMessage
	if err := json.Unmarshal(body, &partial); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("S402").WithSubject(t.Name()).Wrap(err))
		return
	}
	if err := t.Patch(partial); err != nil {
		status := http.StatusUnprocessableEntity
		if stderrors.Is(err, store.ErrInvalidPatch) {
			status = http.StatusBadRequest
		}
		writeError(w, status, errors.New("S402").WithSubject(t.Name()).Wrap(err))
		return
	}
	s.logger.Debug("store patched", "store", t.Name())
	s.writeState(w, t)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	t, ok := s.target(w, r)
	if !ok {
		return
	}
	t.Reset()
	s.logger.Debug("store reset", "store", t.Name())
	s.writeState(w, t)
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	t, ok := s.target(w, r)
	if !ok {
		return
	}
	s.hub.serve(w, r, t)
}

func (s *Server) writeState(w http.ResponseWriter, t Target) {
	data, err := t.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	se := errors.FromError(err, "")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, se.FormatJSON())
}
