package http

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/marathon-tracker/internal/course"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
	"github.com/02loveslollipop/marathon-tracker/internal/tracker"
	"github.com/02loveslollipop/marathon-tracker/services/api/config"
)

// RunnerTracker is the lookup pipeline served by the API.
type RunnerTracker interface {
	Lookup(ctx context.Context, query string) (*models.Runner, error)
	LookupMany(ctx context.Context, queries []string) []tracker.Result
	Course() course.Course
	SourceName() string
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg     config.Config
	tracker RunnerTracker
	logger  *logrus.Logger
	engine  *gin.Engine
	limit   gin.HandlerFunc
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, tr RunnerTracker, logger *logrus.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware(cfg.CORSOrigins))

	if cfg.BearerToken != "" {
		engine.Use(bearerAuthMiddleware(cfg.BearerToken))
	}

	server := &Server{
		cfg:     cfg,
		tracker: tr,
		logger:  logger,
		engine:  engine,
		limit:   rateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	server.registerRoutes()
	server.registerV1Routes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown. HTTPS is used when it
// is enabled and the certificate pair loads; otherwise the server falls back
// to plain HTTP.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	useTLS := s.cfg.UseHTTPS
	if useTLS {
		if _, err := tls.LoadX509KeyPair(s.cfg.SSLCertPath, s.cfg.SSLKeyPath); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"cert": s.cfg.SSLCertPath,
				"key":  s.cfg.SSLKeyPath,
			}).Warn("TLS certificate unusable, falling back to HTTP")
			useTLS = false
		}
	}

	s.logger.WithFields(logrus.Fields{
		"addr":   srv.Addr,
		"https":  useTLS,
		"source": s.tracker.SourceName(),
	}).Info("REST API listening")

	errCh := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			err = srv.ListenAndServeTLS(s.cfg.SSLCertPath, s.cfg.SSLKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down REST API")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.Use(s.limit)
	api.GET("/runner/:query", s.handleRunner)
}
