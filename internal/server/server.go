package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/senpaisearch/apiserver/config"
	"github.com/senpaisearch/apiserver/internal/auth"
	"github.com/senpaisearch/apiserver/internal/db"
	"github.com/senpaisearch/apiserver/internal/handlers"
	"github.com/senpaisearch/apiserver/internal/mq"
	"github.com/senpaisearch/apiserver/internal/ratelimit"
	"github.com/senpaisearch/apiserver/internal/services"
	"github.com/senpaisearch/apiserver/internal/storage"
	"github.com/senpaisearch/apiserver/internal/store"
)

// Server wraps the HTTP server, its router, and owned resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	limiter    ratelimit.Limiter
	events     *mq.MQ
	logger     *slog.Logger
}

// New constructs a Server with its full dependency graph.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	characterRepo := store.NewCharacterRepository(dbConn)

	tokenService, err := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Algorithm, cfg.Auth.TokenTTL())
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	authService := services.NewAuthService(userRepo, tokenService)
	userService := services.NewUserService(userRepo)

	portraits, err := newPortraitStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	events, err := NewEventBus(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	characterService := services.NewCharacterService(
		characterRepo, portraits, events, cfg.MQ.EventsChannel, logger)

	limiter, err := newLimiter(cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	authMiddleware := handlers.RequireAuth(authService)
	optionalAuthMiddleware := handlers.OptionalAuth(authService)
	rateLimitMiddleware := handlers.RateLimit(limiter)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, authMiddleware)
	})
	router.Route("/characters", func(r chi.Router) {
		handlers.CharacterRouter(r, characterService, authMiddleware, optionalAuthMiddleware, rateLimitMiddleware)
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
		limiter:    limiter,
		events:     events,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown releases owned resources and stops the HTTP server.
func (s *Server) Shutdown() error {
	if closer, ok := s.limiter.(interface{ Close() }); ok {
		closer.Close()
	} else if closer, ok := s.limiter.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newLimiter(cfg config.Config) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Backend {
	case "", "memory":
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Period), nil
	case "redis":
		return ratelimit.NewRedisLimiter(cfg.Redis, cfg.RateLimit), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}
}

func newPortraitStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		wrapped := storage.NewStorage(client)
		if err := wrapped.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return wrapped, nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		wrapped := storage.NewStorage(client)
		if err := wrapped.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return wrapped, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// NewEventBus builds the configured message broker client, or nil when
// event publishing is disabled. Shared by the server (publish side) and
// the indexer command (consume side).
func NewEventBus(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQ.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}
