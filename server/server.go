package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/existflow/vibetrack/internal/logger"
)

// Server is the project tracker API server
type Server struct {
	cfg      *Config
	db       *sql.DB
	repo     *Repository
	feed     Feed
	verifier TokenVerifier
	metrics  *metrics
	cron     *cron.Cron
	echo     *echo.Echo
	now      func() time.Time
}

// New connects to Postgres (and Redis / Firebase when configured),
// runs migrations and builds the router.
func New(ctx context.Context, cfg *Config) (*Server, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	var feed Feed = NewMemoryFeed()
	if cfg.RedisURL != "" {
		rf, err := NewRedisFeed(ctx, cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, err
		}
		feed = rf
		logger.Info("revision feed using redis")
	}

	var verifier TokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		fv, err := NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			feed.Close()
			db.Close()
			return nil, err
		}
		verifier = fv
		logger.Info("federated sign-in enabled")
	} else {
		logger.Warn("FIREBASE_CREDENTIALS_PATH not set, federated sign-in disabled")
	}

	s := NewWithDeps(cfg, db, feed, verifier)

	// Run migrations
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// NewWithDeps builds a server around already-open dependencies.
// It does not run migrations.
func NewWithDeps(cfg *Config, db *sql.DB, feed Feed, verifier TokenVerifier) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		repo:     NewRepository(db),
		feed:     feed,
		verifier: verifier,
		metrics:  newMetrics(),
		cron:     cron.New(),
		now:      time.Now,
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(requestLogger)
	e.Use(s.metrics.middleware)
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)
	e.GET("/metrics", s.metrics.handler())

	// API v1
	api := e.Group("/api/v1")

	// Auth endpoints (public)
	signIn := api.Group("", authRateLimiter(s.cfg.AuthRateLimit, s.cfg.AuthRateBurst))
	signIn.POST("/register", s.handleRegister)
	signIn.POST("/login", s.handleLogin)
	signIn.POST("/federated", s.handleFederated)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)
	protected.GET("/projects", s.handleListProjects)
	protected.POST("/projects", s.handleCreateProject)
	protected.GET("/projects/revision", s.handleRevision)
	protected.PATCH("/projects/:id", s.handleUpdateProject)
	protected.DELETE("/projects/:id", s.handleDeleteProject)

	s.echo = e
}

// Close stops background jobs and closes the database and feed
func (s *Server) Close() error {
	<-s.cron.Stop().Done()
	if err := s.feed.Close(); err != nil {
		logger.Warn("close feed", logger.Err(err))
	}
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start schedules the cleanup job and serves on addr until Shutdown
func (s *Server) Start(addr string) error {
	if err := s.scheduleCleanup(); err != nil {
		return err
	}
	s.cron.Start()

	logger.Info("server listening", logger.F("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.db.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
