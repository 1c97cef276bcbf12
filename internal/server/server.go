package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openconf/apiserver/config"
	"github.com/openconf/apiserver/internal/auth"
	"github.com/openconf/apiserver/internal/db"
	"github.com/openconf/apiserver/internal/handlers"
	"github.com/openconf/apiserver/internal/mq"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/internal/storage"
	"github.com/openconf/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New constructs a Server with all handlers wired and basic middleware.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	// The broker is optional: without one, notifications are dropped.
	broker, err := mq.Connect(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	paperRepo := store.NewPaperRepository(dbConn)
	paymentRepo := store.NewPaymentRepository(dbConn)
	contentRepo := store.NewContentRepository(dbConn)
	auditRepo := store.NewAuditRepository(dbConn)

	userService := services.NewUserService(userRepo)
	paperService := services.NewPaperService(paperRepo, objectStore)
	paymentService := services.NewPaymentService(paymentRepo, objectStore)
	contentService := services.NewContentService(contentRepo)
	auditService := services.NewAuditService(auditRepo, nil)

	var publisher services.Publisher
	if broker != nil {
		publisher = broker
	}
	notificationService := services.NewNotificationService(publisher, nil)

	issuer := auth.NewTokenIssuer(jwtSecret, cfg.Auth.TokenTTL)
	cookies := auth.NewCookieManager(cfg.Auth.CookieSecure, cfg.Auth.TokenTTL)
	resolver := auth.NewResolver(issuer)
	guard := handlers.NewGuard(resolver, userService)

	authHandler := handlers.NewAuthHandler(userService, notificationService, issuer, cookies, nil)
	paperHandler := handlers.NewPaperHandler(paperService, notificationService, userService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, notificationService, auditService, userService)
	adminHandler := handlers.NewAdminHandler(contentService, userService, auditService)
	contentHandler := handlers.NewContentHandler(contentService)
	pageHandler := handlers.NewPageHandler(paperService, paymentService, userService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler, guard)
		})
		r.Route("/papers", func(r chi.Router) {
			handlers.PaperRouter(r, paperHandler, guard)
		})
		r.Route("/payments", func(r chi.Router) {
			handlers.PaymentRouter(r, paymentHandler, guard)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, adminHandler, guard)
		})
		handlers.ContentRouter(r, contentHandler)
	})

	// Page routes sit behind the path-based guard; admin API routes
	// above re-check roles on their own (the layers are independent).
	router.Group(func(r chi.Router) {
		r.Use(guard.PageGuard)
		handlers.PageRouter(r, pageHandler)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	return s.httpServer.Close()
}
