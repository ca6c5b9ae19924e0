// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the store, services,
// handlers and middleware, and decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config → store (memory | sqlite) → seed
//	       → confirm registry (observed by metrics)
//	       → realtime hub → replier
//	       → services → handlers → routes
//
// This is the "composition root": every dependency is built in New and
// nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/meydan/internal/config"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/enhance"
	"github.com/sakif/meydan/internal/feed"
	"github.com/sakif/meydan/internal/handler"
	"github.com/sakif/meydan/internal/metrics"
	"github.com/sakif/meydan/internal/middleware"
	"github.com/sakif/meydan/internal/realtime"
	"github.com/sakif/meydan/internal/repository"
	"github.com/sakif/meydan/internal/repository/memory"
	"github.com/sakif/meydan/internal/repository/sqlite"
	"github.com/sakif/meydan/internal/seed"
	"github.com/sakif/meydan/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store, the realtime hub and the auto-replier. Close
// releases them in reverse order of creation; Start calls it on shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	hub     *realtime.Hub
	replier service.Replier
	metrics *metrics.Metrics
	closers []func()
}

// New builds the whole application from cfg. The store is seeded before New
// returns, so the first request already sees the initial feed.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
	}
	s.closers = append(s.closers, func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	})

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func openStore(cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverMemory, "":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique id to each request (logged by Logger)
// 2. RealIP: extracts the client IP from proxy headers
// 3. Recoverer: turns panics into 500s instead of crashing
// 4. Logger: logs each request with timing info
func (s *Server) setupRoutes() error {
	cfg := s.config

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === SEED ===
	build := func() seed.Data {
		now := time.Now()
		return seed.WithFakes(seed.Fixed(now), now, seed.FakeOptions{
			Users: cfg.Seed.FakeUsers,
			Seed:  cfg.Seed.FakeSeed,
		})
	}
	reseed := seed.Loader(s.store, build)
	if err := reseed(context.Background()); err != nil {
		return fmt.Errorf("seeding store: %w", err)
	}

	// === COLLABORATORS ===
	confirms := confirm.New(cfg.Confirm.TTL, confirm.WithObserver(func(kind confirm.Kind, outcome confirm.State) {
		s.metrics.Confirmation(string(kind), string(outcome))
	}))

	s.hub = realtime.NewHub(0, s.metrics, s.logger)
	s.closers = append(s.closers, s.hub.Close)

	// One session owns the command lock shared by every service and the
	// auto-replier.
	session := service.NewSession(s.store, seed.ViewerID)

	if cfg.Messaging.AutoReply {
		replier := service.NewDelayedReplier(session, s.hub, cfg.Messaging.AutoReplyDelay, cfg.Messaging.AutoReplyText, s.logger)
		s.closers = append(s.closers, replier.Close)
		s.replier = replier
	} else {
		s.replier = service.NopReplier{}
	}

	var enhancer enhance.Enhancer = enhance.Disabled{}
	if cfg.Enhance.APIKey != "" {
		enhancer = enhance.NewGemini(enhance.Config{
			APIKey:  cfg.Enhance.APIKey,
			Model:   cfg.Enhance.Model,
			BaseURL: cfg.Enhance.BaseURL,
			Timeout: cfg.Enhance.Timeout,
		}, s.logger)
	} else {
		s.logger.Info("text enhancement disabled: no API key configured")
	}

	dates, err := feed.NewDateFormatter(cfg.Feed.DateLocale, cfg.Location())
	if err != nil {
		return fmt.Errorf("creating date formatter: %w", err)
	}

	// === SERVICES ===
	// The handler never touches the store directly. The service never
	// touches HTTP.
	posts := service.NewPostService(session, confirms, enhancer, s.metrics, cfg.Share.BaseURL, s.logger)
	feeds := service.NewFeedService(session, feed.New(dates), s.logger)
	graph := service.NewGraphService(session, confirms, s.metrics, s.logger)
	moderation := service.NewModerationService(session, confirms, s.metrics, s.logger)
	messages := service.NewMessageService(session, s.replier, s.hub, s.metrics, s.logger)
	notifications := service.NewNotificationService(session, s.hub, s.logger)
	profiles := service.NewProfileService(session, s.metrics, s.logger)
	sessions := service.NewSessionService(session, confirms, reseed, s.replier, s.hub, s.logger)

	// === HANDLERS ===
	postHandler := handler.NewPostHandler(posts, feeds, moderation, s.logger)
	userHandler := handler.NewUserHandler(profiles, graph, moderation, s.logger)
	messageHandler := handler.NewMessageHandler(messages, s.logger)
	notificationHandler := handler.NewNotificationHandler(notifications, s.logger)
	sessionHandler := handler.NewSessionHandler(sessions, confirms, s.logger)

	// === ROUTES ===
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/session", sessionHandler.HandleSession)
		r.Put("/session/view", sessionHandler.HandleNavigate)
		r.Post("/session/logout", sessionHandler.HandleLogout)

		r.Get("/confirmations/{id}", sessionHandler.HandleGetConfirmation)
		r.Post("/confirmations/{id}/confirm", sessionHandler.HandleConfirm)
		r.Post("/confirmations/{id}/cancel", sessionHandler.HandleCancel)

		r.Get("/feed", postHandler.HandleFeed)
		r.Post("/enhance", postHandler.HandleEnhance)

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", postHandler.HandleCreate)
			r.Get("/{id}", postHandler.HandleGet)
			r.Patch("/{id}", postHandler.HandleEdit)
			r.Delete("/{id}", postHandler.HandleDelete)
			r.Post("/{id}/like", postHandler.HandleLike)
			r.Post("/{id}/comments", postHandler.HandleComment)
			r.Post("/{id}/repost", postHandler.HandleRepost)
			r.Post("/{id}/share", postHandler.HandleShare)
			r.Post("/{id}/report", postHandler.HandleReport)
		})

		r.Get("/users", userHandler.HandleList)
		r.Get("/users/{id}", userHandler.HandleProfile)
		r.Post("/users/{id}/follow", userHandler.HandleFollow)
		r.Post("/users/{id}/unfollow", userHandler.HandleUnfollow)
		r.Post("/users/{id}/block", userHandler.HandleBlock)
		r.Delete("/users/{id}/block", userHandler.HandleUnblock)
		r.Get("/following", userHandler.HandleFollowing)
		r.Get("/blocked", userHandler.HandleBlocked)

		r.Patch("/profile", userHandler.HandleEditProfile)
		r.Put("/profile/notifications", userHandler.HandleNotificationPreferences)
		r.Put("/profile/privacy", userHandler.HandlePrivacy)

		r.Get("/conversations", messageHandler.HandleConversations)
		r.Get("/conversations/{id}", messageHandler.HandleThread)
		r.Post("/conversations/{id}", messageHandler.HandleSend)

		r.Get("/notifications", notificationHandler.HandleList)
		r.Post("/notifications/open", notificationHandler.HandleOpen)
		r.Post("/notifications/read", notificationHandler.HandleMarkRead)

		r.Handle("/ws", realtime.NewHandler(s.hub, s.logger, nil))
	})

	return nil
}

// Close releases everything New acquired. It is safe to call once.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully:
// 1. Stop accepting new HTTP connections
// 2. Wait up to server.shutdown_timeout for in-flight requests
// 3. Close the hub (websocket clients get a close frame), the replier and the store
func (s *Server) Start() error {
	defer s.Close()

	// No WriteTimeout: websocket streams are long-lived.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("store", s.config.Store.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		// hijacked websocket connections are not tracked by Shutdown
		s.hub.Close()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
