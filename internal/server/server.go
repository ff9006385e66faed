// Package server exposes viewer sessions over HTTP for remote renderers.
//
// A session is one [viewer.Viewer] with an SVG renderer attached. Sessions
// are created from a graph document, addressed by a uuid, and persisted in a
// [store.Store] after every change so another instance, or the same one after
// a restart, can rebuild them on first access.
//
// Routes:
//
//	POST   /graphs                          create a session from a document
//	GET    /graphs/{id}                     current layout
//	POST   /graphs/{id}/modify              apply a batch of changes
//	POST   /graphs/{id}/groups/{group}/toggle
//	POST   /graphs/{id}/zoom                {"scale": k}
//	GET    /graphs/{id}/svg                 current drawing
//	DELETE /graphs/{id}
//	GET    /healthz
//
// Requests on one session are serialized; different sessions run in
// parallel.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/render/svg"
	"github.com/matzehuels/flowlens/pkg/store"
	"github.com/matzehuels/flowlens/pkg/viewer"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 16 << 20

// Options configures a Server.
type Options struct {
	// Config is used for every session.
	Config config.Config
	// Engine computes layouts. Required; shared by all sessions.
	Engine layout.Engine
	// Store persists session documents. Defaults to an in-memory store.
	Store store.Store
	// Cache, when set, memoizes layouts across sessions.
	Cache cache.Cache
	// Logger defaults to log.Default().
	Logger *log.Logger
	// TTL is how long an idle session is kept. Defaults to store.DefaultTTL.
	TTL time.Duration
}

// Server serves viewer sessions.
type Server struct {
	cfg    config.Config
	engine layout.Engine
	store  store.Store
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
	ttl    time.Duration
	router chi.Router

	mu       sync.Mutex
	sessions map[string]*session
}

// session is a live viewer. mu serializes every request on it.
type session struct {
	mu      sync.Mutex
	rec     *store.Record
	viewer  *viewer.Viewer
	svg     *svg.Renderer
	deleted bool
}

// New validates the configuration and builds the router.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New(errors.ErrCodeInternal, "server needs a layout engine")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if _, err := svg.New(svg.OptionsFromConfig(opts.Config)); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      opts.Config,
		engine:   opts.Engine,
		store:    opts.Store,
		cache:    opts.Cache,
		keyer:    cache.NewScopedKeyer("server:"),
		logger:   opts.Logger,
		ttl:      opts.TTL,
		sessions: make(map[string]*session),
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.ttl == 0 {
		s.ttl = store.DefaultTTL
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/graphs", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/modify", s.handleModify)
			r.Post("/groups/{group}/toggle", s.handleToggle)
			r.Post("/zoom", s.handleZoom)
			r.Get("/svg", s.handleSVG)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drops every live session and closes the store.
func (s *Server) Close() error {
	s.mu.Lock()
	clear(s.sessions)
	s.mu.Unlock()
	return s.store.Close()
}
