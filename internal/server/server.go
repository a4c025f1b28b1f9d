// Package server exposes the question-answering pipeline and the course
// catalog over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/csexpert/csexpert/internal/chat"
	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/loader"
	"github.com/csexpert/csexpert/internal/relational"
)

// Config holds server configuration.
type Config struct {
	Port         int
	AllowAll     bool // allow all CORS origins (dev mode)
	RateLimitRPM int  // per-client request budget, 0 disables limiting
}

// Server serves chat, catalog, and admin endpoints.
type Server struct {
	cfg      Config
	chat     *chat.Service
	store    docstore.Store
	db       *relational.DB
	loader   *loader.Loader
	sessions *sessionStore
	limiter  *clientLimiter

	router     chi.Router
	httpServer *http.Server

	reloading atomic.Bool
	startedAt time.Time
}

// New creates a server with all dependencies.
func New(cfg Config, svc *chat.Service, store docstore.Store, db *relational.DB, ld *loader.Loader) *Server {
	s := &Server{
		cfg:       cfg,
		chat:      svc,
		store:     store,
		db:        db,
		loader:    ld,
		sessions:  newSessionStore(),
		startedAt: time.Now(),
	}
	if cfg.RateLimitRPM > 0 {
		s.limiter = newClientLimiter(cfg.RateLimitRPM)
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/chat", s.handleChat)
	r.Get("/chat/ws", s.handleChatWS)

	r.Get("/system/status", s.handleStatus)
	r.Post("/system/reload", s.handleReload)

	r.Get("/courses", s.handleCourses)
	r.Get("/courses/with-tuition", s.handleCoursesWithTuition)
	r.Get("/courses/by-program/{code}", s.handleCoursesByProgram)
	r.Get("/programs", s.handlePrograms)
	r.Get("/departments", s.handleDepartments)
	r.Get("/search", s.handleSearch)

	return r
}

// Router returns the chi router, for tests and embedding.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("csexpert server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
